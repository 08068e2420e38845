package workflows

import (
	"context"
	"time"

	"github.com/PolarWolf314/credo/internal/configs"
	"github.com/PolarWolf314/credo/internal/credentials"
	kerrors "github.com/PolarWolf314/credo/internal/errors"
	"github.com/PolarWolf314/credo/internal/hierarchy"
	"github.com/PolarWolf314/credo/internal/identity"
	logger "github.com/PolarWolf314/credo/internal/logging"
	"github.com/PolarWolf314/credo/internal/prompt"
	"github.com/PolarWolf314/credo/internal/sources"
)

// AccountChecker finds the provider account that owns a key.
type AccountChecker interface {
	CallerAccount(ctx context.Context, key credentials.Key) (string, error)
}

// Credo ties the configured store to the capabilities the workflows need.
type Credo struct {
	Config  *configs.Config
	Crypto  identity.CryptoProvider
	Chooser prompt.Chooser
	Issuer  credentials.Issuer
	Sources *sources.Resolver

	// Accounts is optional; import only cross-checks account ids when set
	// and verify_account is enabled.
	Accounts AccountChecker

	Log logger.Logger

	// Progress, when set, is started around steps that don't prompt, such
	// as talking to the provider or writing files. It returns a stop func.
	Progress func(message string) (done func())

	// Now defaults to time.Now.
	Now func() time.Time

	// Chosen is the record the last Find or Make resolved.
	Chosen *credentials.Record

	guard *identity.Guard
}

func (c *Credo) now() time.Time {
	if c.Now != nil {
		return c.Now()
	}
	return time.Now()
}

func (c *Credo) progress(message string) func() {
	if c.Progress == nil {
		return func() {}
	}
	return c.Progress(message)
}

func (c *Credo) identity() *identity.Guard {
	if c.guard == nil {
		c.guard = &identity.Guard{Crypto: c.Crypto, Chooser: c.Chooser, Log: c.Log}
	}
	return c.guard
}

func (c *Credo) explorer() hierarchy.Explorer {
	return hierarchy.Explorer{Root: c.Config.RootDir}
}

func (c *Credo) filters() hierarchy.Filters {
	return hierarchy.Filters{Repo: c.Config.Repo, Account: c.Config.Account, User: c.Config.User}
}

func (c *Credo) options() credentials.Options {
	return credentials.Options{Issuer: c.Issuer, HalfLife: c.Config.HalfLife, Now: c.now}
}

// FindCredentials resolves existing credentials, narrowing by the configured
// repo, account and user and prompting when more than one remains.
func (c *Credo) FindCredentials(ctx context.Context) (*credentials.Record, error) {
	tree, applied, err := c.explorer().Filtered(c.filters())
	if err != nil {
		return nil, err
	}
	for _, a := range applied {
		c.Log.Debugf("Filtering %s=%s", a.Key, a.Value)
	}

	selection, err := hierarchy.Find(tree, c.Chooser, c.filters())
	if err != nil {
		return nil, err
	}
	return c.open(ctx, selection)
}

// MakeCredentials resolves credentials that may not exist yet, offering to
// create a repository, account or user at each level.
func (c *Credo) MakeCredentials(ctx context.Context) (*credentials.Record, error) {
	tree, err := c.explorer().Discover()
	if err != nil {
		return nil, err
	}

	selection, err := hierarchy.Make(tree, c.Chooser, c.filters())
	if err != nil {
		return nil, err
	}
	return c.open(ctx, selection)
}

// open loads the record for selection and attaches its account id. An id
// the user had to enter is only written by commit.
func (c *Credo) open(ctx context.Context, selection hierarchy.Selection) (*credentials.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, cancelled(err)
	}

	locator := credentials.NewLocator(selection)
	record, err := credentials.Load(locator, c.options())
	if err != nil {
		return nil, err
	}
	c.Log.Debugf("Loaded %s from %s", record.Path(), locator.Location)

	accountID, pending, err := c.identity().Resolve(locator.AccountLocation())
	if err != nil {
		return nil, err
	}
	if pending {
		c.Log.Debugf("Account id for %s is written on save", locator.AccountLocation())
	}
	record.SetAccountID(accountID)

	c.Chosen = record
	return record, nil
}

// commit writes the signed account id of record's account. Workflows call it
// once everything they need has been resolved and just before they persist.
func (c *Credo) commit(record *credentials.Record) error {
	return c.identity().Commit(record.Locator().AccountLocation(), record.AccountID())
}

func cancelled(err error) error {
	return kerrors.New(kerrors.ErrUserCancelled, "Interrupted", "error", err)
}
