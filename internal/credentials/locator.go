package credentials

import (
	"os"
	"path/filepath"

	"github.com/PolarWolf314/credo/internal/audit"
	kerrors "github.com/PolarWolf314/credo/internal/errors"
	"github.com/PolarWolf314/credo/internal/hierarchy"
	"github.com/PolarWolf314/credo/internal/store"
)

// Locator points at the credentials file of one repository, account and
// user. Its exported fields are fixed once created.
type Locator struct {
	Location string
	Repo     string
	Account  string
	User     string

	repository         *audit.Repository
	repositoryComputed bool

	contents *store.RawContents
	absent   bool
	loaded   bool
}

// NewLocator returns the locator for a resolved selection.
func NewLocator(selection hierarchy.Selection) *Locator {
	return &Locator{
		Location: selection.Location,
		Repo:     selection.Repo,
		Account:  selection.Account,
		User:     selection.User,
	}
}

// UserLocation is the directory holding the credentials file.
func (l *Locator) UserLocation() string {
	return filepath.Dir(l.Location)
}

// AccountLocation is the account directory, two levels above the user.
func (l *Locator) AccountLocation() string {
	return filepath.Dir(filepath.Dir(l.UserLocation()))
}

// RepositoryLocation is the repository directory, two levels above the account.
func (l *Locator) RepositoryLocation() string {
	return filepath.Dir(filepath.Dir(l.AccountLocation()))
}

// Repository returns the change log of the owning repository.
func (l *Locator) Repository() *audit.Repository {
	if !l.repositoryComputed {
		l.repository = audit.Open(l.RepositoryLocation())
		l.repositoryComputed = true
	}
	return l.repository
}

// Scope identifies the record in change log entries.
func (l *Locator) Scope() audit.Scope {
	return audit.Scope{Repository: l.Repo, Account: l.Account, User: l.User}
}

// Contents loads the credentials file once. A file that doesn't exist yet
// reads as an empty record of the default type.
func (l *Locator) Contents() (*store.RawContents, error) {
	if l.loaded {
		return l.contents, nil
	}

	if _, err := os.Stat(l.Location); os.IsNotExist(err) {
		l.contents = store.Default(store.DefaultType)
		l.absent = true
		l.loaded = true
		return l.contents, nil
	}

	contents, err := store.Read(l.Location)
	if err != nil {
		return nil, err
	}
	l.contents = contents
	l.loaded = true
	return l.contents, nil
}

// Absent reports whether the credentials file was missing when loaded.
func (l *Locator) Absent() bool {
	return l.absent
}

// Path renders the locator for display.
func (l *Locator) Path() string {
	return "repo=" + l.Repo + "|account=" + l.Account + "|user=" + l.User + "|Credentials"
}

func (l *Locator) typeMismatch(found string) error {
	return kerrors.New(kerrors.ErrCredentialFile, "Unknown credentials type",
		"found", found, "expected", store.DefaultType, "location", l.Location)
}
