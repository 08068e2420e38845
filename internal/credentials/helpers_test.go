package credentials

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/PolarWolf314/credo/internal/audit"
	"github.com/PolarWolf314/credo/internal/hierarchy"
)

var epoch = time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC)

// fakeIssuer hands out numbered keys and remembers every revoke.
type fakeIssuer struct {
	issued     int
	revoked    []string
	issueErr   error
	revokeErr  map[string]error
	authIssue  []string
	authRevoke []string
	now        func() time.Time
}

func (f *fakeIssuer) Issue(_ context.Context, current Key) (Key, error) {
	f.authIssue = append(f.authIssue, current.AccessKey)
	if f.issueErr != nil {
		return Key{}, f.issueErr
	}
	f.issued++
	key := Key{
		AccessKey: fmt.Sprintf("AKIAISSUED%06d", f.issued),
		SecretKey: fmt.Sprintf("secret-%d", f.issued),
	}
	if f.now != nil {
		key.CreatedAt = f.now()
	}
	return key, nil
}

func (f *fakeIssuer) Revoke(_ context.Context, current Key, accessKey string) error {
	f.authRevoke = append(f.authRevoke, current.AccessKey)
	if err := f.revokeErr[accessKey]; err != nil {
		return err
	}
	f.revoked = append(f.revoked, accessKey)
	return nil
}

var errProvider = errors.New("provider said no")

// fakeRecorder collects change events.
type fakeRecorder struct {
	events []event
}

type event struct {
	description string
	paths       []string
	scope       audit.Scope
}

func (f *fakeRecorder) RecordChange(description string, paths []string, scope audit.Scope) {
	f.events = append(f.events, event{description: description, paths: paths, scope: scope})
}

// clock is a settable time source.
type clock struct {
	t time.Time
}

func (c *clock) now() time.Time { return c.t }

func (c *clock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newLocator(t *testing.T, root string) *Locator {
	t.Helper()
	return NewLocator(hierarchy.Selection{
		Repo:     "acme",
		Account:  "prod",
		User:     "ci",
		Location: filepath.Join(root, "repos", "acme", "accounts", "prod", "users", "ci", hierarchy.CredentialsFile),
	})
}

func writeFile(t *testing.T, location, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(location), 0700))
	require.NoError(t, os.WriteFile(location, []byte(content), 0600))
}

func activeKey(accessKey string, createdAt time.Time) Key {
	return Key{AccessKey: accessKey, SecretKey: "secret-" + accessKey, CreatedAt: createdAt, State: Active}
}
