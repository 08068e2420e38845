package audit

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
)

// LogName is the change log file inside a repository.
const LogName = "changes.jsonl"

// Scope names the credential record a change belongs to.
type Scope struct {
	Repository string `json:"repo"`
	Account    string `json:"account,omitempty"`
	User       string `json:"user,omitempty"`
}

// Entry represents a single change log entry.
type Entry struct {
	ID          string   `json:"id"`
	Timestamp   string   `json:"ts"` // RFC3339 with microseconds.
	Description string   `json:"description"`
	Paths       []string `json:"paths,omitempty"`
	Scope
}

// Time parses the entry timestamp.
func (e Entry) Time() (time.Time, error) {
	return time.Parse(timestampFormat, e.Timestamp)
}

const timestampFormat = "2006-01-02T15:04:05.000000Z"

// Repository is the versioned store for one credential repository.
type Repository struct {
	Location string

	// Now defaults to time.Now.
	Now func() time.Time
}

// Open returns the repository rooted at location.
func Open(location string) *Repository {
	return &Repository{Location: location}
}

// LogPath returns the path to the change log file.
func (r *Repository) LogPath() string {
	return filepath.Join(r.Location, LogName)
}

// RecordChange appends an entry to the change log. Paths inside the
// repository are stored relative to it. Failures are ignored.
func (r *Repository) RecordChange(description string, paths []string, scope Scope) {
	now := time.Now
	if r.Now != nil {
		now = r.Now
	}

	entry := Entry{
		ID:          uuid.New().String(),
		Timestamp:   now().UTC().Format(timestampFormat),
		Description: description,
		Scope:       scope,
	}
	for _, path := range paths {
		if rel, err := filepath.Rel(r.Location, path); err == nil && filepath.IsLocal(rel) {
			path = filepath.ToSlash(rel)
		}
		entry.Paths = append(entry.Paths, path)
	}

	if err := os.MkdirAll(r.Location, 0700); err != nil {
		return
	}

	f, err := os.OpenFile(r.LogPath(), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
	if err != nil {
		return
	}
	defer f.Close()

	data, err := json.Marshal(entry)
	if err != nil {
		return
	}

	_, _ = f.Write(append(data, '\n'))
}

// ReadEntries reads all entries from the change log.
// Returns an empty slice if the log doesn't exist.
func (r *Repository) ReadEntries() ([]Entry, error) {
	data, err := os.ReadFile(r.LogPath())
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return ParseEntries(data)
}

// ParseEntries parses JSON Lines data into change entries.
// Malformed lines are silently skipped.
func ParseEntries(data []byte) ([]Entry, error) {
	if len(data) == 0 {
		return nil, nil
	}

	var entries []Entry
	start := 0

	for i := 0; i <= len(data); i++ {
		if i == len(data) || data[i] == '\n' {
			line := data[start:i]
			start = i + 1

			if len(line) == 0 {
				continue
			}

			var entry Entry
			if err := json.Unmarshal(line, &entry); err != nil {
				// Skip malformed entries.
				continue
			}
			entries = append(entries, entry)
		}
	}

	return entries, nil
}
