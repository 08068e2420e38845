package credentials

import (
	"context"
	"sort"
	"time"

	"github.com/PolarWolf314/credo/internal/audit"
	"github.com/PolarWolf314/credo/internal/store"
)

// SaveDescription is the change log description of every record save.
const SaveDescription = "Saving new keys"

// Recorder receives a change event after every save.
type Recorder interface {
	RecordChange(description string, paths []string, scope audit.Scope)
}

// Options configures how a record rotates and where it reports changes.
type Options struct {
	Issuer Issuer

	// Recorder defaults to the locator's repository change log.
	Recorder Recorder

	// HalfLife is how old the youngest key may get before a save rotates.
	HalfLife time.Duration

	// Now defaults to time.Now.
	Now func() time.Time
}

// Record is the loaded credentials of one user.
type Record struct {
	locator   *Locator
	keys      *Keys
	recorder  Recorder
	halfLife  time.Duration
	now       func() time.Time
	changed   bool
	accountID string
}

// KeySummary describes one key for display.
type KeySummary struct {
	AccessKey string
	Age       time.Duration
	State     State
}

// Load reads the record behind locator. Only amazon records are supported.
func Load(locator *Locator, opts Options) (*Record, error) {
	contents, err := locator.Contents()
	if err != nil {
		return nil, err
	}
	if contents.Type != "" && contents.Type != store.DefaultType {
		return nil, locator.typeMismatch(contents.Type)
	}

	now := opts.Now
	if now == nil {
		now = time.Now
	}
	keys, err := NewKeys(locator.Location, contents.Keys, opts.Issuer, now)
	if err != nil {
		return nil, err
	}

	recorder := opts.Recorder
	if recorder == nil {
		recorder = locator.Repository()
	}

	return &Record{
		locator:  locator,
		keys:     keys,
		recorder: recorder,
		halfLife: opts.HalfLife,
		now:      now,
		changed:  locator.Absent(),
	}, nil
}

// Locator returns where the record lives.
func (r *Record) Locator() *Locator {
	return r.locator
}

// Keys returns the record's key collection.
func (r *Record) Keys() *Keys {
	return r.keys
}

// Changed reports whether a save would write.
func (r *Record) Changed() bool {
	return r.changed || r.keys.Changed()
}

// NeedsRotation reports whether the youngest Active key is older than the half-life.
func (r *Record) NeedsRotation() bool {
	return r.keys.NeedsRotation(r.now(), r.halfLife)
}

// Rotate replaces the keys older than the half-life.
func (r *Record) Rotate(ctx context.Context) (Counts, error) {
	return r.keys.Rotate(ctx, r.halfLife)
}

// RotateAll replaces every Active key regardless of age.
func (r *Record) RotateAll(ctx context.Context) (Counts, error) {
	return r.keys.Rotate(ctx, 0)
}

// InvalidateAll deletes every key.
func (r *Record) InvalidateAll(ctx context.Context) error {
	r.changed = true
	return r.keys.InvalidateAll(ctx)
}

// AddKey imports key material.
func (r *Record) AddKey(key Key) {
	r.keys.Add(key)
}

// SetAccountID attaches the verified account id used by ShellExports.
func (r *Record) SetAccountID(accountID string) {
	r.accountID = accountID
}

// AccountID returns the id set with SetAccountID.
func (r *Record) AccountID() string {
	return r.accountID
}

// Save rotates when due, then writes the record if forced or changed and
// records the change. An unchanged record is left alone.
//
// A rotation that issued a key but failed to revoke an old one is still
// saved; the revoke error is returned afterwards.
func (r *Record) Save(ctx context.Context, force bool) (Counts, error) {
	var counts Counts
	var rotateErr error
	if r.NeedsRotation() {
		counts, rotateErr = r.Rotate(ctx)
		if rotateErr != nil && counts.Created == 0 {
			return counts, rotateErr
		}
	}

	if !force && !r.Changed() {
		return counts, rotateErr
	}

	contents := &store.RawContents{Type: store.DefaultType, Keys: r.keys.Entries()}
	if err := store.Write(r.locator.Location, contents); err != nil {
		return counts, err
	}
	r.changed = false
	r.keys.Unchanged()

	r.recorder.RecordChange(SaveDescription, []string{r.locator.Location}, r.locator.Scope())
	return counts, rotateErr
}

// Exports returns the environment for the youngest Active key.
func (r *Record) Exports() map[string]string {
	return r.keys.Exports()
}

// ShellExports adds where the credentials came from to Exports.
func (r *Record) ShellExports() map[string]string {
	exports := r.Exports()
	exports["CREDO_CURRENT_REPO"] = r.locator.Repo
	exports["CREDO_CURRENT_ACCOUNT"] = r.locator.Account
	exports["CREDO_CURRENT_USER"] = r.locator.User
	if r.accountID != "" {
		exports["AWS_ACCOUNT_ID"] = r.accountID
	}
	return exports
}

// Path renders where the record lives.
func (r *Record) Path() string {
	return r.locator.Path()
}

// Summary describes every held key, youngest first.
func (r *Record) Summary() []KeySummary {
	now := r.now()
	keys := r.keys.All()
	sort.SliceStable(keys, func(i, j int) bool {
		return keys[i].CreatedAt.After(keys[j].CreatedAt)
	})

	summary := make([]KeySummary, 0, len(keys))
	for _, key := range keys {
		summary = append(summary, KeySummary{
			AccessKey: MaskedAccessKey(key.AccessKey),
			Age:       key.Age(now),
			State:     key.State,
		})
	}
	return summary
}

// SortedExportNames returns export names in a stable order for printing.
func SortedExportNames(exports map[string]string) []string {
	names := make([]string, 0, len(exports))
	for name := range exports {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
