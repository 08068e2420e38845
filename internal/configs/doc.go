// Package configs manages credo's configuration.
//
// Configuration is stored in TOML format, by default at
// $XDG_CONFIG_HOME/credo/config.toml. A missing or empty file is
// bootstrapped with defaults on first use.
//
// # Configuration Values
//
// The config stores:
//   - root_dir: the storage root holding repos/<repo>/accounts/<account>/users/<user>
//   - repo, account, user: preselected hierarchy names (optional)
//   - half_life: the maximum key age before rotation, as a Go duration
//   - source: default secret source for import (optional)
//   - private_keys, public_keys, use_agent: ssh keys used to sign account ids
//   - keyring, keyring_identity: the age-encrypted keyring and its identity
//   - region, verify_account: settings for the AWS key issuer
//
// # Overrides
//
// Command-line flags are collected into Overrides and applied on top of the
// file with Apply. The creds option takes the form user@account.
//
// Validate must be called once before a Config is used.
package configs
