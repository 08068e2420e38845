package sources

import (
	kerrors "github.com/PolarWolf314/credo/internal/errors"
)

// Kind is a place a secret can come from.
type Kind int

const (
	Specified Kind = iota
	Environment
	AWSConfig
	BotoConfig
	KeyringSource
)

// Kinds lists every source in menu order.
var Kinds = []Kind{Environment, AWSConfig, BotoConfig, KeyringSource, Specified}

// Name is the short name accepted on the command line.
func (k Kind) Name() string {
	switch k {
	case Specified:
		return "specified"
	case Environment:
		return "environment"
	case AWSConfig:
		return "aws_config"
	case BotoConfig:
		return "boto_config"
	case KeyringSource:
		return "keyring"
	default:
		return "unknown"
	}
}

// Label is the description shown in menus.
func (k Kind) Label() string {
	switch k {
	case Specified:
		return "Specify your own value"
	case Environment:
		return "Your current environment"
	case AWSConfig:
		return "Your awscli config file"
	case BotoConfig:
		return "Your boto config file"
	case KeyringSource:
		return "Your credo keyring"
	default:
		return "Unknown source"
	}
}

func (k Kind) String() string {
	return k.Name()
}

// ParseKind accepts a short name or a label.
func ParseKind(value string) (Kind, error) {
	for _, kind := range Kinds {
		if value == kind.Name() || value == kind.Label() {
			return kind, nil
		}
	}
	return Specified, kerrors.New(kerrors.ErrBadCredentialSource, "Unknown credential source", "source", value)
}
