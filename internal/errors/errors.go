package errors

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Configuration errors are fatal for the current invocation only.
var (
	// ErrConfiguration indicates malformed or missing configuration.
	ErrConfiguration = errors.New("bad configuration")
)

// Storage errors are fatal for the affected record and nothing else.
var (
	// ErrCredentialFile indicates an unreadable, unparseable or invalid credential or identity file.
	ErrCredentialFile = errors.New("bad credentials file")

	// ErrNoCredentialsFound indicates a lookup matched nothing under the hierarchy.
	ErrNoCredentialsFound = errors.New("couldn't find any credentials")
)

// Interaction errors are recoverable or clean aborts.
var (
	// ErrBadCredentialSource indicates the requested secret source is unavailable or ambiguous.
	ErrBadCredentialSource = errors.New("bad credential source")

	// ErrUserCancelled indicates the user interrupted or closed input during a prompt.
	ErrUserCancelled = errors.New("user cancelled")
)

// ErrInvariant indicates a code path assumed unreachable was reached.
var ErrInvariant = errors.New("programmer error")

// Attr is one piece of context attached to an Error.
type Attr struct {
	Key   string
	Value string
}

// Error is a typed condition with a kind, a message and context attributes.
type Error struct {
	Kind    error
	Message string
	Attrs   []Attr
}

// New creates an Error of the given kind. keyvals are alternating keys and values.
func New(kind error, message string, keyvals ...any) *Error {
	e := &Error{Kind: kind, Message: message}
	for i := 0; i < len(keyvals); i += 2 {
		key := fmt.Sprint(keyvals[i])
		value := ""
		if i+1 < len(keyvals) {
			value = fmt.Sprint(keyvals[i+1])
		}
		e.Attrs = append(e.Attrs, Attr{Key: key, Value: value})
	}
	return e
}

// Error renders the kind, message and sorted attributes, tab separated.
func (e *Error) Error() string {
	var b strings.Builder
	if e.Kind != nil {
		b.WriteString(e.Kind.Error())
	}
	if e.Message != "" {
		if b.Len() > 0 {
			b.WriteString(": ")
		}
		b.WriteString(e.Message)
	}

	attrs := make([]Attr, len(e.Attrs))
	copy(attrs, e.Attrs)
	sort.SliceStable(attrs, func(i, j int) bool { return attrs[i].Key < attrs[j].Key })
	for _, attr := range attrs {
		fmt.Fprintf(&b, "\t%s=%s", attr.Key, attr.Value)
	}
	return b.String()
}

// Unwrap exposes the kind to errors.Is.
func (e *Error) Unwrap() error {
	return e.Kind
}

// Attr returns the value of the named attribute.
func (e *Error) Attr(key string) (string, bool) {
	for _, attr := range e.Attrs {
		if attr.Key == key {
			return attr.Value, true
		}
	}
	return "", false
}

// AttrOf finds the first *Error in err's chain and returns its named attribute.
func AttrOf(err error, key string) (string, bool) {
	var e *Error
	if !errors.As(err, &e) {
		return "", false
	}
	return e.Attr(key)
}

// Is reports whether any error in err's chain matches target.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target.
func As(err error, target any) bool {
	return errors.As(err, target)
}

// Join returns an error that wraps the given errors.
func Join(errs ...error) error {
	return errors.Join(errs...)
}
