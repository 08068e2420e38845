package credentials

import (
	"time"

	kerrors "github.com/PolarWolf314/credo/internal/errors"
	"github.com/PolarWolf314/credo/internal/store"
)

// State is the lifecycle position of a key.
type State int

const (
	Active State = iota
	Retiring
	Deleted
)

func (s State) String() string {
	switch s {
	case Active:
		return "active"
	case Retiring:
		return "retiring"
	case Deleted:
		return "deleted"
	default:
		return "unknown"
	}
}

// parseState maps a stored state. Active is stored as the empty string.
func parseState(value string) (State, bool) {
	switch value {
	case "", "active":
		return Active, true
	case "retiring":
		return Retiring, true
	case "deleted":
		return Deleted, true
	default:
		return Active, false
	}
}

// Key is one access key pair.
type Key struct {
	AccessKey string
	SecretKey string
	CreatedAt time.Time
	State     State
}

// Age returns how long the key has existed at now.
func (k Key) Age(now time.Time) time.Duration {
	return now.Sub(k.CreatedAt)
}

// Entry converts the key to its stored form.
func (k Key) Entry() store.KeyEntry {
	entry := store.KeyEntry{
		AccessKey: k.AccessKey,
		SecretKey: k.SecretKey,
		CreatedAt: k.CreatedAt.UTC(),
	}
	if k.State != Active {
		entry.State = k.State.String()
	}
	return entry
}

// keyFromEntry converts a stored entry. location is only used for error context.
func keyFromEntry(location string, entry store.KeyEntry) (Key, error) {
	state, ok := parseState(entry.State)
	if !ok {
		return Key{}, kerrors.New(kerrors.ErrCredentialFile, "Unknown key state",
			"location", location, "state", entry.State)
	}
	if entry.AccessKey == "" {
		return Key{}, kerrors.New(kerrors.ErrCredentialFile, "Key without an access key", "location", location)
	}
	return Key{
		AccessKey: entry.AccessKey,
		SecretKey: entry.SecretKey,
		CreatedAt: entry.CreatedAt,
		State:     state,
	}, nil
}

// MaskedAccessKey hides the middle of an access key for display.
func MaskedAccessKey(accessKey string) string {
	if len(accessKey) <= 8 {
		return accessKey
	}
	masked := []byte(accessKey)
	for i := 4; i < len(masked)-4; i++ {
		masked[i] = '*'
	}
	return string(masked)
}
