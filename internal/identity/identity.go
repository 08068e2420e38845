// Package identity guards the signed account_id file of each account.
//
// The file holds a single line "account_id,fingerprint,signature". An
// account id is only trusted once its signature verifies through the
// CryptoProvider, or after the user has (re)entered it and it has been
// signed again. Resolving never writes; Commit rewrites the file with a fresh
// signature once the caller is ready to persist.
package identity

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	kerrors "github.com/PolarWolf314/credo/internal/errors"
	logger "github.com/PolarWolf314/credo/internal/logging"
	"github.com/PolarWolf314/credo/internal/prompt"
	"github.com/PolarWolf314/credo/internal/store"
)

// FileName is the name of the identity file in an account directory.
const FileName = "account_id"

const quitChoice = "Quit"

// CryptoProvider signs and verifies account ids.
type CryptoProvider interface {
	Sign(value string) (fingerprint, signature string, err error)
	Verify(value, fingerprint, signature string) bool
	HasPublicKeys() bool
}

// State is what was found in an identity file.
type State int

const (
	Absent State = iota
	Verified
	Corrupt
)

func (s State) String() string {
	switch s {
	case Absent:
		return "absent"
	case Verified:
		return "verified"
	default:
		return "corrupt"
	}
}

// Identity is the content of an identity file.
type Identity struct {
	AccountID   string
	Fingerprint string
	Signature   string
}

func (i Identity) String() string {
	return i.AccountID + "," + i.Fingerprint + "," + i.Signature
}

// Guard resolves verified account ids, caching them per account directory
// for the life of the process.
type Guard struct {
	Crypto  CryptoProvider
	Chooser prompt.Chooser
	Log     logger.Logger

	verified map[string]string
	pending  map[string]string
}

// Inspect reads and verifies the identity file without prompting or writing.
// The returned Identity is filled whenever the file had three fields.
func (g *Guard) Inspect(accountLocation string) (Identity, State, error) {
	location := filepath.Join(accountLocation, FileName)

	data, err := os.ReadFile(location)
	if err != nil {
		if os.IsNotExist(err) {
			return Identity{}, Absent, nil
		}
		return Identity{}, Absent, kerrors.New(kerrors.ErrCredentialFile, "Can't read account id file", "location", location, "error", err)
	}

	line := strings.TrimSpace(string(data))
	if i := strings.IndexByte(line, '\n'); i >= 0 {
		line = strings.TrimSpace(line[:i])
	}

	fields := strings.Split(line, ",")
	if len(fields) != 3 {
		return Identity{}, Corrupt, nil
	}

	identity := Identity{AccountID: fields[0], Fingerprint: fields[1], Signature: fields[2]}
	if !g.Crypto.Verify(identity.AccountID, identity.Fingerprint, identity.Signature) {
		return identity, Corrupt, nil
	}
	return identity, Verified, nil
}

// AccountID returns the verified account id for the account directory,
// asking the user when the file is missing or fails verification, and
// writes the file signed.
func (g *Guard) AccountID(accountLocation string) (string, error) {
	if id, ok := g.verified[accountLocation]; ok {
		return id, nil
	}

	accountID, _, err := g.Resolve(accountLocation)
	if err != nil {
		return "", err
	}
	if err := g.Commit(accountLocation, accountID); err != nil {
		return "", err
	}
	return accountID, nil
}

// Resolve is AccountID without the write. pending reports that the id was
// asked for and still needs a Commit to reach disk.
func (g *Guard) Resolve(accountLocation string) (accountID string, pending bool, err error) {
	if id, ok := g.verified[accountLocation]; ok {
		return id, false, nil
	}
	if id, ok := g.pending[accountLocation]; ok {
		return id, true, nil
	}

	identity, state, err := g.Inspect(accountLocation)
	if err != nil {
		return "", false, err
	}
	if state == Verified {
		g.remember(accountLocation, identity.AccountID)
		return identity.AccountID, false, nil
	}

	if state == Corrupt {
		g.Log.Errorf("Was something corrupt about the account_id file under %s", accountLocation)
	}
	accountID, err = g.askForAccountID(accountLocation, identity.AccountID)
	if err != nil {
		return "", false, err
	}

	if g.pending == nil {
		g.pending = map[string]string{}
	}
	g.pending[accountLocation] = accountID
	return accountID, true, nil
}

// Commit signs accountID and writes it as the account's identity file.
func (g *Guard) Commit(accountLocation, accountID string) error {
	if err := g.write(accountLocation, accountID); err != nil {
		return err
	}
	delete(g.pending, accountLocation)
	g.remember(accountLocation, accountID)
	return nil
}

func (g *Guard) remember(accountLocation, accountID string) {
	if g.verified == nil {
		g.verified = map[string]string{}
	}
	g.verified[accountLocation] = accountID
}

// askForAccountID offers the previously stored id (if any), quitting, or a
// new value.
func (g *Guard) askForAccountID(accountLocation, previous string) (string, error) {
	choices := []string{quitChoice}
	chooseChoice := ""
	if previous != "" {
		chooseChoice = fmt.Sprintf("Choose %s", previous)
		choices = []string{chooseChoice, quitChoice}
	}

	needed := fmt.Sprintf("How do you want to enter the account id for %s?", filepath.Base(accountLocation))
	for {
		choice, err := g.Chooser.ChooseOrCreate(needed, choices)
		if err != nil {
			return "", err
		}
		choice = strings.TrimSpace(choice)

		switch {
		case choice == quitChoice:
			return "", kerrors.New(kerrors.ErrUserCancelled, "No account id entered", "account", filepath.Base(accountLocation))
		case chooseChoice != "" && choice == chooseChoice:
			return previous, nil
		case choice != "" && !strings.Contains(choice, ","):
			return choice, nil
		}
		g.Log.Warnf("Account ids can't be empty or contain commas")
	}
}

func (g *Guard) write(accountLocation, accountID string) error {
	fingerprint, signature, err := g.Crypto.Sign(accountID)
	if err != nil {
		return fmt.Errorf("signing account id for %s: %w", accountLocation, err)
	}

	identity := Identity{AccountID: accountID, Fingerprint: fingerprint, Signature: signature}
	return store.WriteFile(filepath.Join(accountLocation, FileName), []byte(identity.String()))
}
