package sources

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"filippo.io/age"

	kerrors "github.com/PolarWolf314/credo/internal/errors"
)

// Keyring is a small secret store encrypted with age to a local X25519
// identity. Secrets are grouped by service and keyed by access key.
type Keyring struct {
	Path         string
	IdentityPath string
}

// KeyringEntry names one stored secret.
type KeyringEntry struct {
	Service   string
	AccessKey string
}

func (e KeyringEntry) String() string {
	return e.Service + "/" + e.AccessKey
}

type keyringContents map[string]map[string]string

// Exists reports whether the keyring file is present.
func (k *Keyring) Exists() bool {
	_, err := os.Stat(k.Path)
	return err == nil
}

// Get returns the secret for accessKey under service.
func (k *Keyring) Get(service, accessKey string) (string, error) {
	contents, err := k.load()
	if err != nil {
		return "", err
	}
	secret, ok := contents[service][accessKey]
	if !ok {
		return "", kerrors.New(kerrors.ErrBadCredentialSource, "Couldn't find secret in keyring",
			"service", service, "access_key", accessKey)
	}
	return secret, nil
}

// Set stores a secret, creating the keyring and its identity on first use.
func (k *Keyring) Set(service, accessKey, secret string) error {
	identity, err := k.identity(true)
	if err != nil {
		return err
	}

	contents := keyringContents{}
	if k.Exists() {
		if contents, err = k.decrypt(identity); err != nil {
			return err
		}
	}
	if contents[service] == nil {
		contents[service] = map[string]string{}
	}
	contents[service][accessKey] = secret

	plaintext, err := json.Marshal(contents)
	if err != nil {
		return kerrors.New(kerrors.ErrInvariant, "Couldn't serialize keyring", "error", err)
	}

	var ciphertext bytes.Buffer
	writer, err := age.Encrypt(&ciphertext, identity.Recipient())
	if err != nil {
		return fmt.Errorf("creating age encryptor: %w", err)
	}
	if _, err := writer.Write(plaintext); err != nil {
		return fmt.Errorf("writing plaintext to age encryptor: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("finalizing age encryption: %w", err)
	}

	return writePrivate(k.Path, ciphertext.Bytes())
}

// Entries lists stored secrets sorted by service then access key.
func (k *Keyring) Entries() ([]KeyringEntry, error) {
	contents, err := k.load()
	if err != nil {
		return nil, err
	}

	var entries []KeyringEntry
	for service, secrets := range contents {
		for accessKey := range secrets {
			entries = append(entries, KeyringEntry{Service: service, AccessKey: accessKey})
		}
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Service != entries[j].Service {
			return entries[i].Service < entries[j].Service
		}
		return entries[i].AccessKey < entries[j].AccessKey
	})
	return entries, nil
}

func (k *Keyring) load() (keyringContents, error) {
	if !k.Exists() {
		return nil, kerrors.New(kerrors.ErrBadCredentialSource, "Keyring doesn't exist", "location", k.Path)
	}
	identity, err := k.identity(false)
	if err != nil {
		return nil, err
	}
	return k.decrypt(identity)
}

func (k *Keyring) decrypt(identity *age.X25519Identity) (keyringContents, error) {
	data, err := os.ReadFile(k.Path)
	if err != nil {
		return nil, kerrors.New(kerrors.ErrCredentialFile, "Can't read keyring", "location", k.Path, "error", err)
	}

	reader, err := age.Decrypt(bytes.NewReader(data), identity)
	if err != nil {
		return nil, kerrors.New(kerrors.ErrCredentialFile, "Can't decrypt keyring", "location", k.Path, "error", err)
	}
	plaintext, err := io.ReadAll(reader)
	if err != nil {
		return nil, kerrors.New(kerrors.ErrCredentialFile, "Can't decrypt keyring", "location", k.Path, "error", err)
	}

	contents := keyringContents{}
	if err := json.Unmarshal(plaintext, &contents); err != nil {
		return nil, kerrors.New(kerrors.ErrCredentialFile, "Keyring not valid json", "location", k.Path, "error", err)
	}
	return contents, nil
}

// identity reads the age identity, generating it when create is set and
// the file doesn't exist.
func (k *Keyring) identity(create bool) (*age.X25519Identity, error) {
	data, err := os.ReadFile(k.IdentityPath)
	if os.IsNotExist(err) && create {
		identity, err := age.GenerateX25519Identity()
		if err != nil {
			return nil, fmt.Errorf("generating age identity: %w", err)
		}
		if err := writePrivate(k.IdentityPath, []byte(identity.String()+"\n")); err != nil {
			return nil, err
		}
		return identity, nil
	}
	if err != nil {
		return nil, kerrors.New(kerrors.ErrCredentialFile, "Can't read keyring identity", "location", k.IdentityPath, "error", err)
	}

	identity, err := age.ParseX25519Identity(strings.TrimSpace(string(data)))
	if err != nil {
		return nil, kerrors.New(kerrors.ErrCredentialFile, "Invalid keyring identity", "location", k.IdentityPath, "error", err)
	}
	return identity, nil
}

func writePrivate(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return kerrors.New(kerrors.ErrCredentialFile, "Couldn't create directory", "location", filepath.Dir(path), "error", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return kerrors.New(kerrors.ErrCredentialFile, "Couldn't write file", "location", path, "error", err)
	}
	return nil
}
