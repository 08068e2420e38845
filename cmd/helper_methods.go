package cmd

import (
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/briandowns/spinner"
	"github.com/spf13/cobra"

	"github.com/PolarWolf314/credo/internal/amazon"
	"github.com/PolarWolf314/credo/internal/configs"
	"github.com/PolarWolf314/credo/internal/credentials"
	"github.com/PolarWolf314/credo/internal/crypto"
	"github.com/PolarWolf314/credo/internal/prompt"
	"github.com/PolarWolf314/credo/internal/sources"
	"github.com/PolarWolf314/credo/internal/ui"
	"github.com/PolarWolf314/credo/internal/utils"
	"github.com/PolarWolf314/credo/internal/workflows"
)

// Swapped out by tests.
var (
	newChooser = func() prompt.Chooser {
		return prompt.NewTerminal()
	}
	newProvider = func(region string) provider {
		return amazon.NewIAM(region)
	}
	loadSettings = configs.DefaultSettings
)

// provider issues keys and tells which account owns them.
type provider interface {
	credentials.Issuer
	workflows.AccountChecker
}

// loadConfig reads the config file and applies the command-line flags.
func loadConfig() (*configs.Config, error) {
	settings, err := loadSettings()
	if err != nil {
		return nil, err
	}

	path := settings.ConfigPath
	if configPath != "" {
		path = configs.ExpandHome(configPath, settings.HomeDir)
	}
	Logger.Debugf("Loading config from %s", path)

	var config *configs.Config
	if configPath != "" {
		config, err = configs.Load(path, settings)
	} else {
		config, err = configs.Bootstrap(path, settings)
	}
	if err != nil {
		return nil, err
	}

	err = config.Apply(configs.Overrides{
		RootDir:  configs.ExpandHome(overrides.rootDir, settings.HomeDir),
		Repo:     overrides.repo,
		Account:  overrides.account,
		User:     overrides.user,
		Creds:    overrides.creds,
		HalfLife: overrides.halfLife,
	})
	if err != nil {
		return nil, err
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	Logger.Debugf("Using root %s with half life %s", config.RootDir, config.HalfLife)
	return config, nil
}

// loadCrypto loads the ssh keys used to sign and verify account_id files.
func loadCrypto(config *configs.Config, chooser prompt.Chooser) *crypto.SSH {
	keys := crypto.New()

	passphrase := func(path string) ([]byte, error) {
		message := fmt.Sprintf("Passphrase for %s", path)
		if utils.IsTerminal() {
			answer, err := chooser.Ask(message, true)
			return []byte(answer), err
		}
		return utils.ReadPassphraseFromTTY(message + ": ")
	}

	for _, path := range config.PrivateKeys {
		if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
			Logger.Debugf("No private key at %s", path)
			continue
		}
		if err := keys.LoadPrivateKey(path, passphrase); err != nil {
			Logger.Warnf("Couldn't load private key %s: %v", path, err)
		}
	}
	if config.UseAgent {
		if err := keys.LoadAgent(); err != nil {
			Logger.Warnf("Couldn't use the ssh agent: %v", err)
		}
	}
	for _, path := range config.PublicKeys {
		if err := keys.LoadPublicKeys(path); err != nil {
			Logger.Warnf("Couldn't load public keys from %s: %v", path, err)
		}
	}
	return keys
}

// newCredo builds the workflows for the current invocation.
func newCredo(cmd *cobra.Command) (*workflows.Credo, error) {
	config, err := loadConfig()
	if err != nil {
		return nil, err
	}

	chooser := newChooser()
	iam := newProvider(config.Region)
	return &workflows.Credo{
		Config:  config,
		Crypto:  loadCrypto(config, chooser),
		Chooser: chooser,
		Issuer:  iam,
		Sources: &sources.Resolver{
			Chooser: chooser,
			Home:    config.HomeDir,
			Keyring: &sources.Keyring{Path: config.KeyringPath, IdentityPath: config.KeyringIdentity},
			Log:     Logger,
		},
		Accounts: iam,
		Log:      Logger,
		Progress: func(message string) func() {
			_, cleanup := startSpinner(message, cmd.ErrOrStderr())
			return cleanup
		},
	}, nil
}

// startSpinner shows a spinner on w until cleanup is called. Nothing spins in
// verbose or debug mode, or when stderr isn't a terminal.
func startSpinner(message string, w io.Writer) (*spinner.Spinner, func()) {
	Logger.Debugf("Starting spinner with message: %s", message)
	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond, spinner.WithWriter(w))
	s.Suffix = " " + message

	if err := s.Color("cyan"); err != nil {
		Logger.Warnf("Failed to set spinner color: %v", err)
	}

	quiet := !verbose && !debug && w == os.Stderr && utils.IsTerminal()
	if quiet {
		s.Start()
		log.SetOutput(io.Discard)
	} else {
		Logger.Infof("%s", message)
	}

	cleanup := func() {
		if !quiet {
			return
		}
		log.SetOutput(os.Stderr)

		finalMsg := ""
		if s.FinalMSG != "" {
			finalMsg = ui.EnsureNewline(s.FinalMSG)
			s.FinalMSG = ""
		}
		s.Stop()
		if finalMsg != "" {
			fmt.Fprint(w, finalMsg)
		}
	}
	return s, cleanup
}
