// Package store reads and writes credential files.
//
// A credential file is JSON of the form
//
//	{"type": "amazon", "keys": [{"access_key": "...", "secret_key": "...", "created_at": "..."}]}
//
// Read rejects anything that is missing, unreadable or not of that shape
// with an ErrCredentialFile condition. An empty file is a valid, empty
// record.
package store

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	kerrors "github.com/PolarWolf314/credo/internal/errors"
)

// DefaultType is the record kind assumed for files that don't exist yet.
const DefaultType = "amazon"

// RawContents is the on-disk representation of a credential record.
type RawContents struct {
	Type string     `json:"type"`
	Keys []KeyEntry `json:"keys"`
}

// KeyEntry is one serialized piece of key material.
type KeyEntry struct {
	AccessKey string    `json:"access_key"`
	SecretKey string    `json:"secret_key"`
	CreatedAt time.Time `json:"created_at"`
	State     string    `json:"state,omitempty"`
}

// Default returns the contents assumed for an absent file.
func Default(kind string) *RawContents {
	return &RawContents{Type: kind, Keys: []KeyEntry{}}
}

// Read loads the credential file at location.
func Read(location string) (*RawContents, error) {
	if _, err := os.Stat(location); err != nil {
		if os.IsNotExist(err) {
			return nil, kerrors.New(kerrors.ErrCredentialFile, "Doesn't exist", "location", location)
		}
		return nil, kerrors.New(kerrors.ErrCredentialFile, "Can't stat file", "location", location, "error", err)
	}

	data, err := os.ReadFile(location)
	if err != nil {
		return nil, kerrors.New(kerrors.ErrCredentialFile, "Don't have read permissions", "location", location, "error", err)
	}

	if len(bytes.TrimSpace(data)) == 0 {
		return &RawContents{}, nil
	}

	return Parse(location, data)
}

// Parse decodes credential file data. location is only used for error context.
func Parse(location string, data []byte) (*RawContents, error) {
	var shape map[string]json.RawMessage
	if err := json.Unmarshal(data, &shape); err != nil {
		return nil, kerrors.New(kerrors.ErrCredentialFile, "Credentials file not valid json", "location", location, "error", err)
	}

	contents := &RawContents{}
	if raw, ok := shape["type"]; ok {
		if err := json.Unmarshal(raw, &contents.Type); err != nil {
			return nil, kerrors.New(kerrors.ErrCredentialFile, "Credentials file type is not a string", "location", location, "type", jsonKind(raw))
		}
	}

	if raw, ok := shape["keys"]; ok {
		if jsonKind(raw) != "array" {
			return nil, kerrors.New(kerrors.ErrCredentialFile, "Credentials file keys are not a list", "location", location, "keys", jsonKind(raw))
		}
		if err := json.Unmarshal(raw, &contents.Keys); err != nil {
			return nil, kerrors.New(kerrors.ErrCredentialFile, "Credentials file has malformed keys", "location", location, "error", err)
		}
	}

	return contents, nil
}

// Write serializes contents to location, creating parent directories. The
// file is replaced atomically so a failed write never truncates a record.
func Write(location string, contents *RawContents) error {
	out := *contents
	if out.Keys == nil {
		out.Keys = []KeyEntry{}
	}
	data, err := json.MarshalIndent(out, "", "    ")
	if err != nil {
		return kerrors.New(kerrors.ErrInvariant, "Couldn't serialize credentials", "location", location, "error", err)
	}
	return WriteFile(location, append(data, '\n'))
}

// WriteFile replaces location with data, readable only by the owner. The
// data goes to a temporary file beside it first, so readers see either the
// old or the new content.
func WriteFile(location string, data []byte) error {
	dir := filepath.Dir(location)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return kerrors.New(kerrors.ErrCredentialFile, "Couldn't create directory", "location", dir, "error", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(location)+"-*")
	if err != nil {
		return kerrors.New(kerrors.ErrCredentialFile, "Couldn't create temporary file", "location", dir, "error", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return kerrors.New(kerrors.ErrCredentialFile, "Couldn't write file", "location", location, "error", err)
	}
	if err := tmp.Close(); err != nil {
		return kerrors.New(kerrors.ErrCredentialFile, "Couldn't write file", "location", location, "error", err)
	}
	if err := os.Chmod(tmpName, 0600); err != nil {
		return kerrors.New(kerrors.ErrCredentialFile, "Couldn't set permissions", "location", location, "error", err)
	}
	if err := os.Rename(tmpName, location); err != nil {
		return kerrors.New(kerrors.ErrCredentialFile, "Couldn't replace file", "location", location, "error", err)
	}
	return nil
}

// jsonKind names the JSON type of a raw value.
func jsonKind(raw json.RawMessage) string {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return "empty"
	}
	switch trimmed[0] {
	case '[':
		return "array"
	case '{':
		return "object"
	case '"':
		return "string"
	case 't', 'f':
		return "bool"
	case 'n':
		return "null"
	default:
		return "number"
	}
}
