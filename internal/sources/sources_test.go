package sources

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	kerrors "github.com/PolarWolf314/credo/internal/errors"
	"github.com/PolarWolf314/credo/internal/prompt/prompttest"
)

func env(values map[string]string) func(string) (string, bool) {
	return func(name string) (string, bool) {
		value, ok := values[name]
		return value, ok
	}
}

func newResolver(t *testing.T, answers ...string) (*Resolver, *prompttest.Scripted) {
	t.Helper()
	home := t.TempDir()
	chooser := prompttest.New(answers...)
	return &Resolver{
		Chooser: chooser,
		Env:     env(nil),
		Home:    home,
		Keyring: &Keyring{
			Path:         filepath.Join(home, ".credo", "keyring.age"),
			IdentityPath: filepath.Join(home, ".credo", "keyring.key"),
		},
	}, chooser
}

func writeHomeFile(t *testing.T, home, name, content string) {
	t.Helper()
	path := filepath.Join(home, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0700))
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
}

func kindPtr(k Kind) *Kind {
	return &k
}

func TestParseKind(t *testing.T) {
	for _, kind := range Kinds {
		byName, err := ParseKind(kind.Name())
		require.NoError(t, err)
		assert.Equal(t, kind, byName)

		byLabel, err := ParseKind(kind.Label())
		require.NoError(t, err)
		assert.Equal(t, kind, byLabel)
	}
}

func TestParseKindUnknown(t *testing.T) {
	_, err := ParseKind("carrier pigeon")
	require.ErrorIs(t, err, kerrors.ErrBadCredentialSource)
	source, _ := kerrors.AttrOf(err, "source")
	assert.Equal(t, "carrier pigeon", source)
}

func TestAvailableOnlySpecified(t *testing.T) {
	resolver, chooser := newResolver(t, "AKIAONE", "secret")

	assert.Equal(t, []Kind{Specified}, resolver.Available())

	secret, err := resolver.Resolve(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, Secret{AccessKey: "AKIAONE", SecretKey: "secret", Source: Specified}, secret)

	require.Len(t, chooser.Calls, 2, "no menu when only typing is possible")
	assert.Equal(t, "Access key", chooser.Calls[0].Message)
	assert.Equal(t, "Secret key", chooser.Calls[1].Message)
}

func TestAvailableListsEverySource(t *testing.T) {
	resolver, _ := newResolver(t)
	resolver.Env = env(map[string]string{accessKeyVar: "AKIAENV", secretKeyVar: "envsecret"})
	writeHomeFile(t, resolver.Home, ".aws/config", "[default]\n")
	writeHomeFile(t, resolver.Home, ".boto", "[Credentials]\n")
	require.NoError(t, resolver.Keyring.Set("aws", "AKIAKEYRING", "ringsecret"))

	assert.Equal(t, []Kind{Environment, AWSConfig, BotoConfig, KeyringSource, Specified}, resolver.Available())
}

func TestResolvePromptsForSource(t *testing.T) {
	resolver, chooser := newResolver(t, Environment.Label())
	resolver.Env = env(map[string]string{accessKeyVar: "AKIAENV", secretKeyVar: "envsecret"})

	secret, err := resolver.Resolve(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, Secret{AccessKey: "AKIAENV", SecretKey: "envsecret", Source: Environment}, secret)

	require.Len(t, chooser.Calls, 1)
	assert.Equal(t, "Method of getting keys", chooser.Calls[0].Message)
	assert.Equal(t, []string{Environment.Label(), Specified.Label()}, chooser.Calls[0].Choices)
}

func TestResolveEnvironmentMissing(t *testing.T) {
	resolver, _ := newResolver(t)
	resolver.Env = env(map[string]string{accessKeyVar: "AKIAENV"})

	_, err := resolver.Resolve(context.Background(), kindPtr(Environment))
	require.ErrorIs(t, err, kerrors.ErrBadCredentialSource)
}

func TestResolveCancelledContext(t *testing.T) {
	resolver, _ := newResolver(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := resolver.Resolve(ctx, kindPtr(Specified))
	require.ErrorIs(t, err, kerrors.ErrUserCancelled)
}

func TestResolveAWSConfigSingleSection(t *testing.T) {
	resolver, chooser := newResolver(t)
	writeHomeFile(t, resolver.Home, ".aws/config", `
[default]
region = us-east-1

[profile work]
aws_access_key_id = AKIAWORK
aws_secret_access_key = worksecret
`)

	secret, err := resolver.Resolve(context.Background(), kindPtr(AWSConfig))
	require.NoError(t, err)
	assert.Equal(t, Secret{AccessKey: "AKIAWORK", SecretKey: "worksecret", Source: AWSConfig}, secret)
	assert.Zero(t, chooser.Prompts(), "one candidate section is used without asking")
}

func TestResolveAWSConfigChoosesSection(t *testing.T) {
	resolver, chooser := newResolver(t, "personal")
	writeHomeFile(t, resolver.Home, ".aws/credentials", `
[default]
aws_access_key_id = AKIADEFAULT
aws_secret_access_key = defaultsecret

[personal]
aws_access_key_id = AKIAPERSONAL
aws_secret_access_key = personalsecret
`)
	writeHomeFile(t, resolver.Home, ".aws/config", `
[default]
aws_access_key_id = AKIASHADOWED
aws_secret_access_key = shadowed

[ignored]
aws_access_key_id = AKIAIGNORED
aws_secret_access_key = ignored
`)

	secret, err := resolver.Resolve(context.Background(), kindPtr(AWSConfig))
	require.NoError(t, err)
	assert.Equal(t, "AKIAPERSONAL", secret.AccessKey)
	assert.Equal(t, "personalsecret", secret.SecretKey)

	require.Len(t, chooser.Calls, 1)
	assert.Equal(t, "Which section to use?", chooser.Calls[0].Message)
	assert.Equal(t, []string{"default", "personal"}, chooser.Calls[0].Choices)
}

func TestResolveBotoConfigWithKeyring(t *testing.T) {
	resolver, _ := newResolver(t)
	require.NoError(t, resolver.Keyring.Set("boto", "AKIABOTO", "botosecret"))
	writeHomeFile(t, resolver.Home, ".boto", `
[Credentials]
aws_access_key_id = AKIABOTO
keyring = boto
`)

	secret, err := resolver.Resolve(context.Background(), kindPtr(BotoConfig))
	require.NoError(t, err)
	assert.Equal(t, Secret{AccessKey: "AKIABOTO", SecretKey: "botosecret", Source: BotoConfig}, secret)
}

func TestResolveBotoConfigWithoutSecrets(t *testing.T) {
	resolver, _ := newResolver(t)
	writeHomeFile(t, resolver.Home, ".boto", `
[Credentials]
aws_access_key_id = AKIABOTO

[Boto]
debug = 0
`)

	_, err := resolver.Resolve(context.Background(), kindPtr(BotoConfig))
	require.ErrorIs(t, err, kerrors.ErrBadCredentialSource)
}

func TestResolveMissingConfigFile(t *testing.T) {
	resolver, _ := newResolver(t)

	_, err := resolver.Resolve(context.Background(), kindPtr(BotoConfig))
	require.ErrorIs(t, err, kerrors.ErrBadCredentialSource)
	location, _ := kerrors.AttrOf(err, "location")
	assert.Equal(t, filepath.Join(resolver.Home, ".boto"), location)
}

func TestResolveKeyring(t *testing.T) {
	resolver, chooser := newResolver(t, "aws/AKIATWO")
	require.NoError(t, resolver.Keyring.Set("aws", "AKIAONE", "one"))
	require.NoError(t, resolver.Keyring.Set("aws", "AKIATWO", "two"))

	secret, err := resolver.Resolve(context.Background(), kindPtr(KeyringSource))
	require.NoError(t, err)
	assert.Equal(t, Secret{AccessKey: "AKIATWO", SecretKey: "two", Source: KeyringSource}, secret)
	assert.Equal(t, []string{"aws/AKIAONE", "aws/AKIATWO"}, chooser.Calls[0].Choices)
}

func TestResolveKeyringMissing(t *testing.T) {
	resolver, _ := newResolver(t)

	_, err := resolver.Resolve(context.Background(), kindPtr(KeyringSource))
	require.ErrorIs(t, err, kerrors.ErrBadCredentialSource)
}
