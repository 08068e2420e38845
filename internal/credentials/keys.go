package credentials

import (
	"context"
	"fmt"
	"sort"
	"time"

	kerrors "github.com/PolarWolf314/credo/internal/errors"
	"github.com/PolarWolf314/credo/internal/store"
)

// Issuer creates and revokes keys at the provider. current is the key used
// to authenticate the call.
type Issuer interface {
	Issue(ctx context.Context, current Key) (Key, error)
	Revoke(ctx context.Context, current Key, accessKey string) error
}

// Counts reports what a rotation did.
type Counts struct {
	Created int
	Deleted int
}

// Add sums two counts.
func (c Counts) Add(other Counts) Counts {
	return Counts{Created: c.Created + other.Created, Deleted: c.Deleted + other.Deleted}
}

// KeySet is the rotation policy over a collection of keys.
type KeySet interface {
	Active() []Key
	NeedsRotation(now time.Time, interval time.Duration) bool
	Rotate(ctx context.Context, interval time.Duration) (Counts, error)
	InvalidateAll(ctx context.Context) error
	Changed() bool
}

var _ KeySet = (*Keys)(nil)

// Keys is the key collection of one record. Deleted keys are never held.
type Keys struct {
	keys    []Key
	issuer  Issuer
	now     func() time.Time
	changed bool
}

// NewKeys builds a collection from stored entries. Entries already marked
// deleted are dropped and the collection starts changed so they are purged
// on the next save.
func NewKeys(location string, entries []store.KeyEntry, issuer Issuer, now func() time.Time) (*Keys, error) {
	if now == nil {
		now = time.Now
	}
	k := &Keys{issuer: issuer, now: now}
	for _, entry := range entries {
		key, err := keyFromEntry(location, entry)
		if err != nil {
			return nil, err
		}
		if key.State == Deleted {
			k.changed = true
			continue
		}
		k.keys = append(k.keys, key)
	}
	return k, nil
}

// All returns every held key in stored order.
func (k *Keys) All() []Key {
	out := make([]Key, len(k.keys))
	copy(out, k.keys)
	return out
}

// Active returns the Active keys, youngest first.
func (k *Keys) Active() []Key {
	var active []Key
	for _, key := range k.keys {
		if key.State == Active {
			active = append(active, key)
		}
	}
	sort.SliceStable(active, func(i, j int) bool {
		return active[i].CreatedAt.After(active[j].CreatedAt)
	})
	return active
}

func (k *Keys) youngest() (Key, bool) {
	active := k.Active()
	if len(active) == 0 {
		return Key{}, false
	}
	return active[0], true
}

// NeedsRotation reports whether the youngest Active key is older than
// interval. Having no Active keys never triggers rotation.
func (k *Keys) NeedsRotation(now time.Time, interval time.Duration) bool {
	youngest, ok := k.youngest()
	if !ok {
		return false
	}
	return youngest.Age(now) > interval
}

// Rotate issues one new Active key, then retires and deletes every older
// Active key at least interval old (all of them when interval <= 0).
// Keys left Retiring by an earlier failed revoke are retried.
//
// The new key is issued before anything is retired. If issuing fails the
// collection is untouched. A key whose revoke fails stays Retiring and the
// error is returned with the counts.
func (k *Keys) Rotate(ctx context.Context, interval time.Duration) (Counts, error) {
	current, ok := k.youngest()
	if !ok {
		return Counts{}, kerrors.New(kerrors.ErrNoCredentialsFound, "No active keys to rotate")
	}
	if k.issuer == nil {
		return Counts{}, kerrors.New(kerrors.ErrConfiguration, "No key issuer configured")
	}

	fresh, err := k.issuer.Issue(ctx, current)
	if err != nil {
		return Counts{}, fmt.Errorf("issuing new key: %w", err)
	}
	now := k.now()
	if fresh.CreatedAt.IsZero() {
		fresh.CreatedAt = now
	}
	fresh.State = Active

	for i, key := range k.keys {
		if key.State == Active && (interval <= 0 || key.Age(now) >= interval) {
			k.keys[i].State = Retiring
		}
	}
	k.keys = append(k.keys, fresh)
	k.changed = true

	counts := Counts{Created: 1}
	var errs []error
	kept := make([]Key, 0, len(k.keys))
	for _, key := range k.keys {
		if key.State != Retiring {
			kept = append(kept, key)
			continue
		}
		if err := k.issuer.Revoke(ctx, fresh, key.AccessKey); err != nil {
			errs = append(errs, fmt.Errorf("revoking %s: %w", MaskedAccessKey(key.AccessKey), err))
			kept = append(kept, key)
			continue
		}
		counts.Deleted++
	}
	k.keys = kept

	return counts, kerrors.Join(errs...)
}

// InvalidateAll deletes every key regardless of age or state. Keys are
// purged locally even when the provider refuses to revoke them; those
// failures are returned joined.
func (k *Keys) InvalidateAll(ctx context.Context) error {
	k.changed = true
	if len(k.keys) == 0 {
		return nil
	}

	keys := k.keys
	k.keys = nil
	if k.issuer == nil {
		return nil
	}

	// Authenticate with the youngest Active key and revoke it last.
	auth, ok := youngestOf(keys, Active)
	if !ok {
		auth, _ = youngestOf(keys, Retiring)
	}

	var errs []error
	revoke := func(key Key) {
		if err := k.issuer.Revoke(ctx, auth, key.AccessKey); err != nil {
			errs = append(errs, fmt.Errorf("revoking %s: %w", MaskedAccessKey(key.AccessKey), err))
		}
	}
	for _, key := range keys {
		if key.AccessKey != auth.AccessKey {
			revoke(key)
		}
	}
	revoke(auth)

	return kerrors.Join(errs...)
}

func youngestOf(keys []Key, state State) (Key, bool) {
	var found Key
	ok := false
	for _, key := range keys {
		if key.State != state {
			continue
		}
		if !ok || key.CreatedAt.After(found.CreatedAt) {
			found, ok = key, true
		}
	}
	return found, ok
}

// Add imports a key as Active. A key with the same access key replaces the
// held one.
func (k *Keys) Add(key Key) {
	if key.CreatedAt.IsZero() {
		key.CreatedAt = k.now()
	}
	key.State = Active
	k.changed = true
	for i, held := range k.keys {
		if held.AccessKey == key.AccessKey {
			k.keys[i] = key
			return
		}
	}
	k.keys = append(k.keys, key)
}

// Exports returns the environment for the youngest Active key.
func (k *Keys) Exports() map[string]string {
	youngest, ok := k.youngest()
	if !ok {
		return map[string]string{}
	}
	return map[string]string{
		"AWS_ACCESS_KEY_ID":     youngest.AccessKey,
		"AWS_SECRET_ACCESS_KEY": youngest.SecretKey,
	}
}

// Entries returns the stored form of every held key.
func (k *Keys) Entries() []store.KeyEntry {
	entries := make([]store.KeyEntry, 0, len(k.keys))
	for _, key := range k.keys {
		entries = append(entries, key.Entry())
	}
	return entries
}

// Changed reports whether the collection differs from what was loaded or last saved.
func (k *Keys) Changed() bool {
	return k.changed
}

// Unchanged clears the changed flag after a save.
func (k *Keys) Unchanged() {
	k.changed = false
}
