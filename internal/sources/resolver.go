package sources

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/ini.v1"

	kerrors "github.com/PolarWolf314/credo/internal/errors"
	logger "github.com/PolarWolf314/credo/internal/logging"
	"github.com/PolarWolf314/credo/internal/prompt"
)

const (
	accessKeyVar = "AWS_ACCESS_KEY_ID"
	secretKeyVar = "AWS_SECRET_ACCESS_KEY"
)

// Secret is a key pair read from a source.
type Secret struct {
	AccessKey string
	SecretKey string
	Source    Kind
}

// Resolver reads secrets from the sources available on this machine.
type Resolver struct {
	Chooser prompt.Chooser

	// Env defaults to os.LookupEnv.
	Env func(string) (string, bool)

	// Home is where the awscli and boto config files are looked for.
	Home string

	// Keyring is optional.
	Keyring *Keyring

	Log logger.Logger
}

func (r *Resolver) lookupEnv(name string) (string, bool) {
	if r.Env != nil {
		return r.Env(name)
	}
	return os.LookupEnv(name)
}

func (r *Resolver) awsConfigFiles() []string {
	return []string{
		filepath.Join(r.Home, ".aws", "credentials"),
		filepath.Join(r.Home, ".aws", "config"),
	}
}

func (r *Resolver) botoConfigFile() string {
	return filepath.Join(r.Home, ".boto")
}

// Available lists the sources whose inputs exist, always ending with Specified.
func (r *Resolver) Available() []Kind {
	var kinds []Kind
	_, hasAccess := r.lookupEnv(accessKeyVar)
	_, hasSecret := r.lookupEnv(secretKeyVar)
	if hasAccess && hasSecret {
		kinds = append(kinds, Environment)
	}
	if anyExists(r.awsConfigFiles()...) {
		kinds = append(kinds, AWSConfig)
	}
	if anyExists(r.botoConfigFile()) {
		kinds = append(kinds, BotoConfig)
	}
	if r.Keyring != nil && r.Keyring.Exists() {
		kinds = append(kinds, KeyringSource)
	}
	return append(kinds, Specified)
}

// Resolve reads a secret from kind, asking which source to use when kind is nil.
func (r *Resolver) Resolve(ctx context.Context, kind *Kind) (Secret, error) {
	if err := ctx.Err(); err != nil {
		return Secret{}, kerrors.New(kerrors.ErrUserCancelled, "Interrupted", "error", err)
	}

	var chosen Kind
	if kind == nil {
		picked, err := r.choose()
		if err != nil {
			return Secret{}, err
		}
		chosen = picked
	} else {
		chosen = *kind
		r.Log.Infof("Getting credentials from %s", chosen.Label())
	}

	var (
		secret Secret
		err    error
	)
	switch chosen {
	case Specified:
		secret, err = r.fromPrompt()
	case Environment:
		secret, err = r.fromEnvironment()
	case AWSConfig:
		secret, err = r.fromConfig(chosen, true, r.awsConfigFiles()...)
	case BotoConfig:
		secret, err = r.fromConfig(chosen, false, r.botoConfigFile())
	case KeyringSource:
		secret, err = r.fromKeyring()
	default:
		return Secret{}, kerrors.New(kerrors.ErrInvariant, "Not possible to reach this point", "source", chosen)
	}
	if err != nil {
		return Secret{}, err
	}
	secret.Source = chosen
	return secret, nil
}

func (r *Resolver) choose() (Kind, error) {
	available := r.Available()
	if len(available) == 1 {
		return available[0], nil
	}

	labels := make([]string, len(available))
	for i, kind := range available {
		labels[i] = kind.Label()
	}
	answer, err := r.Chooser.Choose("Method of getting keys", labels)
	if err != nil {
		return Specified, err
	}
	return ParseKind(answer)
}

func (r *Resolver) fromPrompt() (Secret, error) {
	accessKey, err := r.Chooser.Ask("Access key", false)
	if err != nil {
		return Secret{}, err
	}
	secretKey, err := r.Chooser.Ask("Secret key", true)
	if err != nil {
		return Secret{}, err
	}
	return Secret{AccessKey: strings.TrimSpace(accessKey), SecretKey: strings.TrimSpace(secretKey)}, nil
}

func (r *Resolver) fromEnvironment() (Secret, error) {
	accessKey, hasAccess := r.lookupEnv(accessKeyVar)
	secretKey, hasSecret := r.lookupEnv(secretKeyVar)
	if !hasAccess || !hasSecret {
		return Secret{}, kerrors.New(kerrors.ErrBadCredentialSource,
			"Couldn't find environment variables for "+accessKeyVar+" and "+secretKeyVar)
	}
	return Secret{AccessKey: accessKey, SecretKey: secretKey}, nil
}

func (r *Resolver) fromKeyring() (Secret, error) {
	if r.Keyring == nil || !r.Keyring.Exists() {
		location := ""
		if r.Keyring != nil {
			location = r.Keyring.Path
		}
		return Secret{}, kerrors.New(kerrors.ErrBadCredentialSource, "Couldn't find the keyring", "location", location)
	}

	entries, err := r.Keyring.Entries()
	if err != nil {
		return Secret{}, err
	}
	if len(entries) == 0 {
		return Secret{}, kerrors.New(kerrors.ErrBadCredentialSource, "Keyring is empty", "location", r.Keyring.Path)
	}

	entry := entries[0]
	if len(entries) > 1 {
		labels := make([]string, len(entries))
		for i, e := range entries {
			labels[i] = e.String()
		}
		answer, err := r.Chooser.Choose("Which key to use?", labels)
		if err != nil {
			return Secret{}, err
		}
		for _, e := range entries {
			if e.String() == answer {
				entry = e
			}
		}
	}

	secretKey, err := r.Keyring.Get(entry.Service, entry.AccessKey)
	if err != nil {
		return Secret{}, err
	}
	return Secret{AccessKey: entry.AccessKey, SecretKey: secretKey}, nil
}

// section is one candidate config section carrying a key.
type section struct {
	name      string
	accessKey string
	secretKey string
	keyring   string
}

// fromConfig reads an ini style awscli or boto file. Earlier files win when
// several define the same section. anySection accepts every section of the
// first file, as the awscli credentials file names profiles without a prefix.
func (r *Resolver) fromConfig(kind Kind, anySection bool, paths ...string) (Secret, error) {
	if !anyExists(paths...) {
		return Secret{}, kerrors.New(kerrors.ErrBadCredentialSource, "Couldn't find the "+kind.Label(), "location", paths[0])
	}

	var candidates []section
	seen := map[string]bool{}
	for i, path := range paths {
		if !anyExists(path) {
			continue
		}
		file, err := ini.Load(path)
		if err != nil {
			return Secret{}, kerrors.New(kerrors.ErrBadCredentialSource, "Couldn't parse config", "location", path, "error", err)
		}
		for _, s := range file.Sections() {
			name := s.Name()
			if name == ini.DefaultSection || seen[name] {
				continue
			}
			if !(anySection && i == 0) && !candidateSection(name) {
				continue
			}
			if !s.HasKey("aws_access_key_id") || !(s.HasKey("aws_secret_access_key") || s.HasKey("keyring")) {
				continue
			}
			seen[name] = true
			candidates = append(candidates, section{
				name:      name,
				accessKey: s.Key("aws_access_key_id").String(),
				secretKey: s.Key("aws_secret_access_key").String(),
				keyring:   s.Key("keyring").String(),
			})
		}
	}

	if len(candidates) == 0 {
		return Secret{}, kerrors.New(kerrors.ErrBadCredentialSource, "Couldn't find any sections with credentials", "location", paths[0])
	}

	chosen := candidates[0]
	if len(candidates) > 1 {
		names := make([]string, len(candidates))
		for i, c := range candidates {
			names[i] = c.name
		}
		answer, err := r.Chooser.Choose("Which section to use?", names)
		if err != nil {
			return Secret{}, err
		}
		for _, c := range candidates {
			if c.name == answer {
				chosen = c
			}
		}
	}
	r.Log.Debugf("Using section %q", chosen.name)

	if chosen.secretKey != "" || chosen.keyring == "" {
		return Secret{AccessKey: chosen.accessKey, SecretKey: chosen.secretKey}, nil
	}
	if r.Keyring == nil {
		return Secret{}, kerrors.New(kerrors.ErrBadCredentialSource, "Section refers to a keyring but none is configured", "section", chosen.name)
	}
	secretKey, err := r.Keyring.Get(chosen.keyring, chosen.accessKey)
	if err != nil {
		return Secret{}, err
	}
	return Secret{AccessKey: chosen.accessKey, SecretKey: secretKey}, nil
}

func candidateSection(name string) bool {
	return name == "default" || name == "Credentials" || strings.HasPrefix(name, "profile ")
}

func anyExists(paths ...string) bool {
	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			return true
		}
	}
	return false
}
