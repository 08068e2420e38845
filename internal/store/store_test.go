package store

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	kerrors "github.com/PolarWolf314/credo/internal/errors"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0700))
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
}

func TestWriteThenReadRoundTrips(t *testing.T) {
	location := filepath.Join(t.TempDir(), "repos", "acme", "accounts", "prod", "users", "ci", "credentials.json")
	contents := &RawContents{
		Type: "amazon",
		Keys: []KeyEntry{
			{AccessKey: "AKIAOLD", SecretKey: "old", CreatedAt: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC), State: "retiring"},
			{AccessKey: "AKIANEW", SecretKey: "new", CreatedAt: time.Date(2026, 2, 3, 4, 5, 6, 7, time.UTC)},
		},
	}

	require.NoError(t, Write(location, contents))

	read, err := Read(location)
	require.NoError(t, err)
	assert.Equal(t, contents, read)

	info, err := os.Stat(location)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
}

func TestWriteEmptyKeysAsList(t *testing.T) {
	location := filepath.Join(t.TempDir(), "credentials.json")

	require.NoError(t, Write(location, &RawContents{Type: "amazon"}))

	data, err := os.ReadFile(location)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"keys": []`)

	entries, err := os.ReadDir(filepath.Dir(location))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temporary file should be gone")
}

func TestReadMissingFile(t *testing.T) {
	location := filepath.Join(t.TempDir(), "credentials.json")

	_, err := Read(location)
	require.ErrorIs(t, err, kerrors.ErrCredentialFile)
	got, _ := kerrors.AttrOf(err, "location")
	assert.Equal(t, location, got)
}

func TestReadEmptyFileIsEmptyRecord(t *testing.T) {
	location := filepath.Join(t.TempDir(), "credentials.json")
	writeFile(t, location, "  \n")

	contents, err := Read(location)
	require.NoError(t, err)
	assert.Equal(t, "", contents.Type)
	assert.Empty(t, contents.Keys)
}

func TestReadInvalidJSON(t *testing.T) {
	location := filepath.Join(t.TempDir(), "credentials.json")
	writeFile(t, location, "{not json")

	_, err := Read(location)
	require.ErrorIs(t, err, kerrors.ErrCredentialFile)
}

func TestReadKeysMustBeList(t *testing.T) {
	location := filepath.Join(t.TempDir(), "credentials.json")
	writeFile(t, location, `{"type": "amazon", "keys": {"access_key": "x"}}`)

	_, err := Read(location)
	require.ErrorIs(t, err, kerrors.ErrCredentialFile)
	kind, _ := kerrors.AttrOf(err, "keys")
	assert.Equal(t, "object", kind)
}

func TestReadWithoutKeysField(t *testing.T) {
	location := filepath.Join(t.TempDir(), "credentials.json")
	writeFile(t, location, `{"type": "unknown"}`)

	contents, err := Read(location)
	require.NoError(t, err)
	assert.Equal(t, "unknown", contents.Type)
	assert.Nil(t, contents.Keys)
}

func TestReadUnreadableFile(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("root can read anything")
	}
	location := filepath.Join(t.TempDir(), "credentials.json")
	writeFile(t, location, `{"type": "amazon", "keys": []}`)
	require.NoError(t, os.Chmod(location, 0000))

	_, err := Read(location)
	require.ErrorIs(t, err, kerrors.ErrCredentialFile)
}

func TestDefault(t *testing.T) {
	contents := Default(DefaultType)
	assert.Equal(t, "amazon", contents.Type)
	assert.NotNil(t, contents.Keys)
	assert.Empty(t, contents.Keys)
}

func TestWriteFileReplacesInPlace(t *testing.T) {
	dir := t.TempDir()
	location := filepath.Join(dir, "account_id")
	writeFile(t, location, "old")
	require.NoError(t, os.Chmod(location, 0644))

	require.NoError(t, WriteFile(location, []byte("new")))

	data, err := os.ReadFile(location)
	require.NoError(t, err)
	assert.Equal(t, "new", string(data))

	info, err := os.Stat(location)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1, "no temporary file left behind")
}

func TestWriteFileFailureLeavesNoTemporaryFile(t *testing.T) {
	dir := t.TempDir()
	// A non-empty directory where the file should go makes the rename fail.
	target := filepath.Join(dir, "account_id")
	require.NoError(t, os.MkdirAll(filepath.Join(target, "child"), 0700))

	err := WriteFile(target, []byte("new"))
	require.ErrorIs(t, err, kerrors.ErrCredentialFile)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "account_id", entries[0].Name())
	assert.True(t, entries[0].IsDir())
}
