// Package cmd contains testing utilities shared between command tests.
// This file provides common functions for setting up test environments,
// capturing output, and faking the provider.
package cmd

import (
	"bytes"
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"encoding/pem"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"testing"

	"golang.org/x/crypto/ssh"

	"github.com/PolarWolf314/credo/internal/configs"
	"github.com/PolarWolf314/credo/internal/credentials"
	"github.com/PolarWolf314/credo/internal/prompt"
	"github.com/PolarWolf314/credo/internal/prompt/prompttest"
)

// fakeProvider issues numbered keys and remembers what it revoked.
type fakeProvider struct {
	account string
	issued  int
	revoked []string
}

func (f *fakeProvider) Issue(_ context.Context, _ credentials.Key) (credentials.Key, error) {
	f.issued++
	return credentials.Key{
		AccessKey: fmt.Sprintf("AKIAFAKE%08d", f.issued),
		SecretKey: fmt.Sprintf("secret-%d", f.issued),
	}, nil
}

func (f *fakeProvider) Revoke(_ context.Context, _ credentials.Key, accessKey string) error {
	f.revoked = append(f.revoked, accessKey)
	return nil
}

func (f *fakeProvider) CallerAccount(context.Context, credentials.Key) (string, error) {
	return f.account, nil
}

// testEnv is a home directory with a signing key and a fake provider.
type testEnv struct {
	home     string
	rootDir  string
	provider *fakeProvider
}

// setupTestEnvironment points credo at a temporary home directory and fakes
// the provider. Answers are consumed by prompts in order.
func setupTestEnvironment(t *testing.T, answers ...string) *testEnv {
	t.Helper()
	home := t.TempDir()
	env := &testEnv{
		home:     home,
		rootDir:  filepath.Join(home, ".credo"),
		provider: &fakeProvider{account: "123456789012"},
	}
	writeSigningKey(t, filepath.Join(home, ".ssh", "id_rsa"))

	originalSettings, originalChooser, originalProvider := loadSettings, newChooser, newProvider
	t.Cleanup(func() {
		loadSettings, newChooser, newProvider = originalSettings, originalChooser, originalProvider
		resetCommandState()
	})

	loadSettings = func() (*configs.Settings, error) {
		return &configs.Settings{
			HomeDir:    home,
			ConfigPath: filepath.Join(home, ".config", "credo", "config.toml"),
			RootDir:    env.rootDir,
		}, nil
	}
	chooser := prompttest.New(answers...)
	newChooser = func() prompt.Chooser { return chooser }
	newProvider = func(string) provider { return env.provider }
	return env
}

// writeSigningKey writes an unencrypted OpenSSH private key.
func writeSigningKey(t *testing.T, path string) {
	t.Helper()
	_, private, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatalf("Failed to generate key: %v", err)
	}
	block, err := ssh.MarshalPrivateKey(private, "credo test")
	if err != nil {
		t.Fatalf("Failed to marshal key: %v", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		t.Fatalf("Failed to create ssh directory: %v", err)
	}
	if err := os.WriteFile(path, pem.EncodeToMemory(block), 0600); err != nil {
		t.Fatalf("Failed to write key: %v", err)
	}
}

// credentialsPath returns where a user's credentials file lives under the test root.
func (e *testEnv) credentialsPath(repo, account, user string) string {
	return filepath.Join(e.rootDir, "repos", repo, "accounts", account, "users", user, "credentials.json")
}

// resetCommandState resets every command's flags and globals for the next test.
func resetCommandState() {
	resetCobraFlagState(RootCmd)
	resetImportCommandState()
	resetInvalidateCommandState()
	resetLogCommandState()
	verbose, debug, showAll = false, false, false
	configPath = ""
	overrides.rootDir, overrides.repo, overrides.account, overrides.user, overrides.creds = "", "", "", "", ""
	overrides.halfLife = 0
}

// runCLI executes the root command with args and returns what it wrote.
func runCLI(args ...string) (string, error) {
	resetCommandState()

	if args == nil {
		args = []string{}
	}

	var out bytes.Buffer
	RootCmd.SetOut(&out)
	RootCmd.SetErr(&out)
	RootCmd.SetArgs(args)
	defer func() {
		RootCmd.SetOut(nil)
		RootCmd.SetErr(nil)
		RootCmd.SetArgs(nil)
	}()

	err := RootCmd.ExecuteContext(context.Background())
	return out.String(), err
}

// captureOutput captures both stdout and stderr during function execution.
func captureOutput(fn func() error) (string, error) {
	originalStdout := os.Stdout
	originalStderr := os.Stderr

	stdoutReader, stdoutWriter, _ := os.Pipe()
	stderrReader, stderrWriter, _ := os.Pipe()

	os.Stdout = stdoutWriter
	os.Stderr = stderrWriter

	outputChan := make(chan string, 2)
	read := func(r io.Reader) {
		var buf bytes.Buffer
		if _, err := io.Copy(&buf, r); err != nil {
			log.Fatalf("Failed to run copy command: %s", err)
		}
		outputChan <- buf.String()
	}
	go read(stdoutReader)
	go read(stderrReader)

	err := fn()

	stdoutWriter.Close()
	stderrWriter.Close()

	os.Stdout = originalStdout
	os.Stderr = originalStderr

	stdout := <-outputChan
	stderr := <-outputChan

	return stdout + stderr, err
}
