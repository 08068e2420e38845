package workflows

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PolarWolf314/credo/internal/configs"
	"github.com/PolarWolf314/credo/internal/credentials"
	kerrors "github.com/PolarWolf314/credo/internal/errors"
	"github.com/PolarWolf314/credo/internal/identity"
	logger "github.com/PolarWolf314/credo/internal/logging"
	"github.com/PolarWolf314/credo/internal/prompt/prompttest"
	"github.com/PolarWolf314/credo/internal/sources"
	"github.com/PolarWolf314/credo/internal/store"
)

var epoch = time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC)

type fakeCrypto struct{}

func (fakeCrypto) Sign(value string) (string, string, error) {
	return "SHA256:fake", "sig-" + value, nil
}

func (fakeCrypto) Verify(value, fingerprint, signature string) bool {
	return fingerprint == "SHA256:fake" && signature == "sig-"+value
}

func (fakeCrypto) HasPublicKeys() bool { return true }

type fakeIssuer struct {
	issued    int
	revoked   []string
	revokeErr error
}

func (f *fakeIssuer) Issue(_ context.Context, _ credentials.Key) (credentials.Key, error) {
	f.issued++
	return credentials.Key{
		AccessKey: fmt.Sprintf("AKIAISSUED%06d", f.issued),
		SecretKey: fmt.Sprintf("issued-%d", f.issued),
		CreatedAt: epoch,
	}, nil
}

func (f *fakeIssuer) Revoke(_ context.Context, _ credentials.Key, accessKey string) error {
	if f.revokeErr != nil {
		return f.revokeErr
	}
	f.revoked = append(f.revoked, accessKey)
	return nil
}

type fakeAccounts struct {
	account string
}

func (f fakeAccounts) CallerAccount(context.Context, credentials.Key) (string, error) {
	return f.account, nil
}

type fixture struct {
	root    string
	credo   *Credo
	chooser *prompttest.Scripted
	issuer  *fakeIssuer
	errOut  *bytes.Buffer
}

func newFixture(t *testing.T, answers ...string) *fixture {
	t.Helper()
	root := t.TempDir()
	chooser := prompttest.New(answers...)
	issuer := &fakeIssuer{}
	var errOut bytes.Buffer
	log := logger.Logger{Out: &bytes.Buffer{}, Err: &errOut}

	return &fixture{
		root:    root,
		chooser: chooser,
		issuer:  issuer,
		errOut:  &errOut,
		credo: &Credo{
			Config:  &configs.Config{RootDir: root, HalfLife: 24 * time.Hour},
			Crypto:  fakeCrypto{},
			Chooser: chooser,
			Issuer:  issuer,
			Sources: &sources.Resolver{
				Chooser: chooser,
				Env:     func(string) (string, bool) { return "", false },
				Home:    t.TempDir(),
				Log:     log,
			},
			Log: log,
			Now: func() time.Time { return epoch },
		},
	}
}

func (f *fixture) userDir(repo, account, user string) string {
	return filepath.Join(f.root, "repos", repo, "accounts", account, "users", user)
}

func (f *fixture) accountDir(repo, account string) string {
	return filepath.Join(f.root, "repos", repo, "accounts", account)
}

// seed writes a credentials file and a signed account id.
func (f *fixture) seed(t *testing.T, repo, account, user string, keys ...store.KeyEntry) string {
	t.Helper()
	location := filepath.Join(f.userDir(repo, account, user), "credentials.json")
	require.NoError(t, store.Write(location, &store.RawContents{Type: "amazon", Keys: keys}))
	require.NoError(t, os.WriteFile(filepath.Join(f.accountDir(repo, account), identity.FileName),
		[]byte("123456789012,SHA256:fake,sig-123456789012"), 0600))
	return location
}

func TestMakeCredentialsOnEmptyRoot(t *testing.T) {
	f := newFixture(t, "acme", "prod", "ci", "123456789012")

	record, err := f.credo.MakeCredentials(context.Background())
	require.NoError(t, err)

	expected := filepath.Join(f.root, "repos", "acme", "accounts", "prod", "users", "ci", "credentials.json")
	assert.Equal(t, expected, record.Locator().Location)
	assert.Empty(t, record.Keys().All())
	assert.Equal(t, "123456789012", record.AccountID())
	assert.Same(t, record, f.credo.Chosen)

	require.Len(t, f.chooser.Calls, 4)
	for _, call := range f.chooser.Calls[:3] {
		assert.Equal(t, "ChooseOrCreate", call.Method)
		assert.Empty(t, call.Choices)
	}

	_, err = record.Save(context.Background(), false)
	require.NoError(t, err)
	contents, err := store.Read(expected)
	require.NoError(t, err)
	assert.Equal(t, "amazon", contents.Type)
	assert.Empty(t, contents.Keys)
}

func TestMakeCredentialsCancelledWritesNothing(t *testing.T) {
	f := newFixture(t, "acme", "prod", "ci")

	_, err := f.credo.MakeCredentials(context.Background())
	require.ErrorIs(t, err, kerrors.ErrUserCancelled)

	_, statErr := os.Stat(filepath.Join(f.root, "repos"))
	assert.True(t, os.IsNotExist(statErr))
}

func TestFindCredentialsCollapsesSingleLeaf(t *testing.T) {
	f := newFixture(t)
	f.seed(t, "acme", "prod", "ci")

	record, err := f.credo.FindCredentials(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "repo=acme|account=prod|user=ci|Credentials", record.Path())
	assert.Zero(t, f.chooser.Prompts())
}

func TestFindCredentialsUsesFilters(t *testing.T) {
	f := newFixture(t)
	f.seed(t, "acme", "prod", "ci")
	f.seed(t, "acme", "prod", "ops")
	f.credo.Config.User = "ops"

	record, err := f.credo.FindCredentials(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "ops", record.Locator().User)
	assert.Zero(t, f.chooser.Prompts())
}

func TestFindCredentialsPromptsOnAmbiguity(t *testing.T) {
	f := newFixture(t, "ops")
	f.seed(t, "acme", "prod", "ci")
	f.seed(t, "acme", "prod", "ops")

	record, err := f.credo.FindCredentials(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "ops", record.Locator().User)
	require.Len(t, f.chooser.Calls, 1)
	assert.Equal(t, []string{"ci", "ops"}, f.chooser.Calls[0].Choices)
}

func TestFindCredentialsNothingFound(t *testing.T) {
	f := newFixture(t)

	_, err := f.credo.FindCredentials(context.Background())
	require.ErrorIs(t, err, kerrors.ErrNoCredentialsFound)
}

func TestFindCredentialsCorruptIdentityReprompts(t *testing.T) {
	f := newFixture(t, "Choose 123")
	f.seed(t, "acme", "prod", "ci")
	require.NoError(t, os.WriteFile(filepath.Join(f.accountDir("acme", "prod"), identity.FileName), []byte("123,abc,forged"), 0600))

	record, err := f.credo.FindCredentials(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "123", record.AccountID())
	assert.Contains(t, f.errOut.String(), "Was something corrupt about the account_id file")

	idFile := filepath.Join(f.accountDir("acme", "prod"), identity.FileName)
	data, err := os.ReadFile(idFile)
	require.NoError(t, err)
	assert.Equal(t, "123,abc,forged", string(data), "finding alone must not rewrite the identity")

	_, err = f.credo.Exports(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, f.chooser.Prompts())

	data, err = os.ReadFile(idFile)
	require.NoError(t, err)
	assert.Equal(t, "123,SHA256:fake,sig-123", string(data))
}

func TestShow(t *testing.T) {
	f := newFixture(t)
	ci := f.seed(t, "acme", "prod", "ci", store.KeyEntry{AccessKey: "AKIAONEONEONE", SecretKey: "one", CreatedAt: epoch.Add(-time.Hour)})
	broken := filepath.Join(f.userDir("acme", "prod", "ops"), "credentials.json")
	require.NoError(t, os.MkdirAll(filepath.Dir(broken), 0700))
	require.NoError(t, os.WriteFile(broken, []byte("not json"), 0600))

	result, err := f.credo.Show(context.Background(), ShowOptions{})
	require.NoError(t, err)

	assert.False(t, result.Empty())
	assert.Nil(t, result.Single)
	assert.Equal(t, []credentials.KeySummary{{AccessKey: "AKIA*****EONE", Age: time.Hour, State: credentials.Active}}, result.Keys[ci])
	assert.Contains(t, result.Problems[broken], "bad credentials file")
	assert.Equal(t, identity.Verified, result.Accounts[f.accountDir("acme", "prod")])
	assert.Zero(t, f.chooser.Prompts())
}

func TestShowSingle(t *testing.T) {
	f := newFixture(t)
	location := f.seed(t, "acme", "prod", "ci")
	f.seed(t, "globex", "prod", "ci")
	f.credo.Config.Repo = "acme"

	result, err := f.credo.Show(context.Background(), ShowOptions{})
	require.NoError(t, err)
	require.NotNil(t, result.Single)
	assert.Equal(t, location, result.Single.Location)
	assert.Equal(t, "acme", result.Filters[0].Value)

	all, err := f.credo.Show(context.Background(), ShowOptions{All: true})
	require.NoError(t, err)
	assert.Nil(t, all.Single)
	assert.Empty(t, all.Filters)
}

func TestShowEmpty(t *testing.T) {
	result, err := newFixture(t).credo.Show(context.Background(), ShowOptions{})
	require.NoError(t, err)
	assert.True(t, result.Empty())
}

func TestImportFromEnvironment(t *testing.T) {
	f := newFixture(t, "acme", "prod", "ci", "123456789012")
	f.credo.Sources.Env = func(name string) (string, bool) {
		return map[string]string{"AWS_ACCESS_KEY_ID": "AKIAENVENVENV", "AWS_SECRET_ACCESS_KEY": "envsecret"}[name], true
	}

	result, err := f.credo.Import(context.Background(), ImportOptions{Source: "environment"})
	require.NoError(t, err)
	assert.Equal(t, sources.Environment, result.Source)
	assert.Equal(t, "AKIA*****VENV", result.AccessKey)

	contents, err := store.Read(result.Location)
	require.NoError(t, err)
	require.Len(t, contents.Keys, 1)
	assert.Equal(t, store.KeyEntry{AccessKey: "AKIAENVENVENV", SecretKey: "envsecret", CreatedAt: epoch}, contents.Keys[0])

	entries, err := f.credo.Chosen.Locator().Repository().ReadEntries()
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestImportCancelledAtSecretPromptWritesNothing(t *testing.T) {
	f := newFixture(t, "acme", "prod", "ci", "123456789012")

	_, err := f.credo.Import(context.Background(), ImportOptions{Source: "specified"})
	require.ErrorIs(t, err, kerrors.ErrUserCancelled)
	assert.Equal(t, "Access key", f.chooser.Calls[len(f.chooser.Calls)-1].Message)

	assert.NoFileExists(t, filepath.Join(f.accountDir("acme", "prod"), identity.FileName))
	assert.NoDirExists(t, filepath.Join(f.root, "repos"))
}

func TestImportUnknownSource(t *testing.T) {
	f := newFixture(t)

	_, err := f.credo.Import(context.Background(), ImportOptions{Source: "carrier pigeon"})
	require.ErrorIs(t, err, kerrors.ErrBadCredentialSource)
	assert.Zero(t, f.chooser.Prompts())
}

func TestImportChecksAccount(t *testing.T) {
	f := newFixture(t, "AKIATYPED", "typedsecret")
	f.seed(t, "acme", "prod", "ci")
	f.credo.Config.VerifyAccount = true
	f.credo.Config.Repo, f.credo.Config.Account, f.credo.Config.User = "acme", "prod", "ci"
	f.credo.Accounts = fakeAccounts{account: "999999999999"}

	_, err := f.credo.Import(context.Background(), ImportOptions{Source: "specified"})
	require.ErrorIs(t, err, kerrors.ErrConfiguration)
	found, _ := kerrors.AttrOf(err, "found")
	assert.Equal(t, "999999999999", found)
}

func TestImportRemembersInKeyring(t *testing.T) {
	f := newFixture(t, "AKIATYPED", "typedsecret")
	f.seed(t, "acme", "prod", "ci")
	f.credo.Config.Repo, f.credo.Config.Account, f.credo.Config.User = "acme", "prod", "ci"
	dir := t.TempDir()
	f.credo.Sources.Keyring = &sources.Keyring{Path: filepath.Join(dir, "keyring.age"), IdentityPath: filepath.Join(dir, "keyring.key")}

	_, err := f.credo.Import(context.Background(), ImportOptions{Source: "specified", Remember: true})
	require.NoError(t, err)

	secret, err := f.credo.Sources.Keyring.Get(KeyringService, "AKIATYPED")
	require.NoError(t, err)
	assert.Equal(t, "typedsecret", secret)
}

func TestRotate(t *testing.T) {
	f := newFixture(t)
	location := f.seed(t, "acme", "prod", "ci",
		store.KeyEntry{AccessKey: "AKIAYOUNG", SecretKey: "young", CreatedAt: epoch.Add(-time.Hour)})

	result, err := f.credo.Rotate(context.Background())
	require.NoError(t, err)
	assert.Equal(t, credentials.Counts{Created: 1, Deleted: 1}, result.Counts)
	assert.Equal(t, []string{"AKIAYOUNG"}, f.issuer.revoked)

	contents, err := store.Read(location)
	require.NoError(t, err)
	require.Len(t, contents.Keys, 1)
	assert.Equal(t, "AKIAISSUED000001", contents.Keys[0].AccessKey)
}

func TestRotateRevokeFailureStillSaves(t *testing.T) {
	f := newFixture(t)
	f.issuer.revokeErr = errors.New("AccessDenied")
	location := f.seed(t, "acme", "prod", "ci",
		store.KeyEntry{AccessKey: "AKIAYOUNG", SecretKey: "young", CreatedAt: epoch.Add(-time.Hour)})

	result, err := f.credo.Rotate(context.Background())
	require.Error(t, err)
	require.NotNil(t, result)
	assert.Equal(t, credentials.Counts{Created: 1}, result.Counts)

	contents, err := store.Read(location)
	require.NoError(t, err)
	assert.Len(t, contents.Keys, 2)
}

func TestInvalidate(t *testing.T) {
	f := newFixture(t)
	location := f.seed(t, "acme", "prod", "ci",
		store.KeyEntry{AccessKey: "AKIAONE", SecretKey: "one", CreatedAt: epoch.Add(-time.Hour)},
		store.KeyEntry{AccessKey: "AKIATWO", SecretKey: "two", CreatedAt: epoch.Add(-2 * time.Hour)})

	result, err := f.credo.Invalidate(context.Background())
	require.NoError(t, err)
	assert.Equal(t, location, result.Location)

	contents, err := store.Read(location)
	require.NoError(t, err)
	assert.Empty(t, contents.Keys)
	assert.ElementsMatch(t, []string{"AKIAONE", "AKIATWO"}, f.issuer.revoked)
}

func TestExportsRotatesWhenDue(t *testing.T) {
	f := newFixture(t)
	f.seed(t, "acme", "prod", "ci",
		store.KeyEntry{AccessKey: "AKIAOLD", SecretKey: "old", CreatedAt: epoch.Add(-48 * time.Hour)})

	result, err := f.credo.Exports(context.Background())
	require.NoError(t, err)
	assert.Equal(t, credentials.Counts{Created: 1, Deleted: 1}, result.Counts)
	assert.Equal(t, "AKIAISSUED000001", result.Exports["AWS_ACCESS_KEY_ID"])
	assert.Equal(t, "123456789012", result.Exports["AWS_ACCOUNT_ID"])
	assert.Equal(t, "acme", result.Exports["CREDO_CURRENT_REPO"])
	assert.Equal(t, "AWS_ACCESS_KEY_ID", result.Names[0])
}

func TestExportsFreshKeysDoNotWrite(t *testing.T) {
	f := newFixture(t)
	f.seed(t, "acme", "prod", "ci",
		store.KeyEntry{AccessKey: "AKIAFRESH", SecretKey: "fresh", CreatedAt: epoch.Add(-time.Hour)})

	result, err := f.credo.Exports(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "AKIAFRESH", result.Exports["AWS_ACCESS_KEY_ID"])

	entries, err := f.credo.Chosen.Locator().Repository().ReadEntries()
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestHistory(t *testing.T) {
	f := newFixture(t)
	f.seed(t, "acme", "prod", "ci",
		store.KeyEntry{AccessKey: "AKIAOLD", SecretKey: "old", CreatedAt: epoch.Add(-time.Hour)})
	f.credo.Config.User = "ci"

	_, err := f.credo.Rotate(context.Background())
	require.NoError(t, err)
	_, err = f.credo.Invalidate(context.Background())
	require.NoError(t, err)

	result, err := f.credo.History(context.Background(), LogOptions{})
	require.NoError(t, err)
	assert.Equal(t, "acme", result.Repository)
	require.Len(t, result.Entries, 2)
	assert.Equal(t, credentials.SaveDescription, result.Entries[0].Description)

	limited, err := f.credo.History(context.Background(), LogOptions{Limit: 1, Mine: true})
	require.NoError(t, err)
	assert.Len(t, limited.Entries, 1)
}
