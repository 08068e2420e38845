package configs

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	kerrors "github.com/PolarWolf314/credo/internal/errors"
)

// DefaultHalfLife is the rotation interval written into new config files.
const DefaultHalfLife = 24 * time.Hour

// File is the on-disk shape of the config.
type File struct {
	RootDir         string   `toml:"root_dir"`
	Repo            string   `toml:"repo,omitempty"`
	Account         string   `toml:"account,omitempty"`
	User            string   `toml:"user,omitempty"`
	HalfLife        string   `toml:"half_life,omitempty"`
	Source          string   `toml:"source,omitempty"`
	PrivateKeys     []string `toml:"private_keys,omitempty"`
	PublicKeys      []string `toml:"public_keys,omitempty"`
	UseAgent        bool     `toml:"use_agent,omitempty"`
	Keyring         string   `toml:"keyring,omitempty"`
	KeyringIdentity string   `toml:"keyring_identity,omitempty"`
	Region          string   `toml:"region,omitempty"`
	VerifyAccount   bool     `toml:"verify_account,omitempty"`
}

// Config is the validated configuration handed to workflows.
type Config struct {
	RootDir         string
	Repo            string
	Account         string
	User            string
	HalfLife        time.Duration
	Source          string
	PrivateKeys     []string
	PublicKeys      []string
	UseAgent        bool
	KeyringPath     string
	KeyringIdentity string
	Region          string
	VerifyAccount   bool
	HomeDir         string
}

// Overrides holds values supplied on the command line. Empty fields are ignored.
type Overrides struct {
	RootDir  string
	Repo     string
	Account  string
	User     string
	Creds    string
	HalfLife time.Duration
	Source   string
}

// Bootstrap loads the config at path, writing a default one first when the
// file is missing or empty.
func Bootstrap(path string, settings *Settings) (*Config, error) {
	info, err := os.Stat(path)
	if err == nil && info.Size() > 0 {
		return Load(path, settings)
	}
	if err != nil && !os.IsNotExist(err) {
		return nil, kerrors.New(kerrors.ErrConfiguration, "Config file isn't readable", "location", path, "error", err)
	}

	file := File{
		RootDir:  settings.RootDir,
		HalfLife: DefaultHalfLife.String(),
	}
	if err := SaveTOML(path, file); err != nil {
		return nil, fmt.Errorf("failed to write default config: %w", err)
	}
	return fromFile(file, settings)
}

// Load reads an existing config file.
func Load(path string, settings *Settings) (*Config, error) {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil, kerrors.New(kerrors.ErrConfiguration, "Specified location is empty", "location", path)
		}
		return nil, kerrors.New(kerrors.ErrConfiguration, "Config file isn't readable", "location", path, "error", err)
	}

	var file File
	if err := LoadTOML(path, &file); err != nil {
		return nil, kerrors.New(kerrors.ErrConfiguration, "Config file isn't valid TOML", "location", path, "error", err)
	}
	return fromFile(file, settings)
}

func fromFile(file File, settings *Settings) (*Config, error) {
	config := &Config{
		RootDir:         ExpandHome(file.RootDir, settings.HomeDir),
		Repo:            file.Repo,
		Account:         file.Account,
		User:            file.User,
		Source:          file.Source,
		UseAgent:        file.UseAgent,
		KeyringPath:     ExpandHome(file.Keyring, settings.HomeDir),
		KeyringIdentity: ExpandHome(file.KeyringIdentity, settings.HomeDir),
		Region:          file.Region,
		VerifyAccount:   file.VerifyAccount,
		HomeDir:         settings.HomeDir,
	}
	for _, key := range file.PrivateKeys {
		config.PrivateKeys = append(config.PrivateKeys, ExpandHome(key, settings.HomeDir))
	}
	for _, key := range file.PublicKeys {
		config.PublicKeys = append(config.PublicKeys, ExpandHome(key, settings.HomeDir))
	}

	if file.HalfLife != "" {
		halfLife, err := time.ParseDuration(file.HalfLife)
		if err != nil {
			return nil, kerrors.New(kerrors.ErrConfiguration, "half_life is not a duration", "got", file.HalfLife)
		}
		config.HalfLife = halfLife
	}
	return config, nil
}

// Apply merges command-line overrides. Any flag that is set wins over the
// file. Explicit user or account flags take precedence over creds.
func (c *Config) Apply(o Overrides) error {
	if o.RootDir != "" {
		c.RootDir = o.RootDir
	}
	if o.HalfLife != 0 {
		c.HalfLife = o.HalfLife
	}
	if o.Source != "" {
		c.Source = o.Source
	}

	user, account := o.User, o.Account
	if o.Creds != "" && user == "" && account == "" {
		parts := strings.Split(o.Creds, "@")
		if len(parts) != 2 {
			return kerrors.New(kerrors.ErrConfiguration, "Creds option needs to be user@account", "got", o.Creds)
		}
		user, account = strings.TrimSpace(parts[0]), strings.TrimSpace(parts[1])
	}

	if o.Repo != "" {
		c.Repo = o.Repo
	}
	if account != "" {
		c.Account = account
	}
	if user != "" {
		c.User = user
	}
	return nil
}

// Validate checks the config once before use and fills defaults.
func (c *Config) Validate() error {
	if c.RootDir == "" {
		return kerrors.New(kerrors.ErrConfiguration, "root_dir must be set")
	}
	if !filepath.IsAbs(c.RootDir) {
		abs, err := filepath.Abs(c.RootDir)
		if err != nil {
			return kerrors.New(kerrors.ErrConfiguration, "root_dir can't be made absolute", "root_dir", c.RootDir)
		}
		c.RootDir = abs
	}
	if c.HalfLife == 0 {
		c.HalfLife = DefaultHalfLife
	}
	if c.HalfLife < 0 {
		return kerrors.New(kerrors.ErrConfiguration, "half_life must be positive", "got", c.HalfLife)
	}
	for _, name := range []string{c.Repo, c.Account, c.User} {
		if strings.ContainsAny(name, `/\`) || name == "." || name == ".." {
			return kerrors.New(kerrors.ErrConfiguration, "Names can't contain path separators", "got", name)
		}
	}
	if c.KeyringPath == "" {
		c.KeyringPath = filepath.Join(c.RootDir, "keyring.age")
	}
	if c.KeyringIdentity == "" {
		c.KeyringIdentity = filepath.Join(c.RootDir, "keyring.key")
	}
	if len(c.PrivateKeys) == 0 && !c.UseAgent && c.HomeDir != "" {
		c.PrivateKeys = []string{filepath.Join(c.HomeDir, ".ssh", "id_rsa")}
	}
	return nil
}

// ReposDir returns the directory holding every repository.
func (c *Config) ReposDir() string {
	return filepath.Join(c.RootDir, "repos")
}
