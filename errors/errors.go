package errors

import (
	// Go Internal Packages
	stderrors "errors"
	"fmt"
	"sort"
	"strings"
)

// Kind classifies an error so callers can branch on it without string matching.
type Kind uint8

const (
	Other Kind = iota
	Invalid
	NotFound
	Conflict
	Gateway
	Persistence
	Delivery
	Internal
)

func (k Kind) String() string {
	switch k {
	case Invalid:
		return "invalid"
	case NotFound:
		return "not found"
	case Conflict:
		return "conflict"
	case Gateway:
		return "gateway"
	case Persistence:
		return "persistence"
	case Delivery:
		return "delivery"
	case Internal:
		return "internal"
	}
	return "other"
}

// Error is the error type returned across package boundaries.
type Error struct {
	Kind Kind
	// Code is a stable machine readable reason, e.g. "MissingReference".
	Code string
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	var b strings.Builder
	if e.Code != "" {
		b.WriteString(e.Code)
		b.WriteString(": ")
	}
	b.WriteString(e.Msg)
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error { return e.Err }

// E builds an *Error of the given kind.
func E(kind Kind, msg string, err error) error {
	return &Error{Kind: kind, Msg: msg, Err: err}
}

// KindOf returns the kind of the outermost *Error in the chain, or Other.
func KindOf(err error) Kind {
	var e *Error
	if stderrors.As(err, &e) {
		return e.Kind
	}
	return Other
}

// CodeOf returns the first non-empty code in the chain.
func CodeOf(err error) string {
	for err != nil {
		var e *Error
		if !stderrors.As(err, &e) {
			return ""
		}
		if e.Code != "" {
			return e.Code
		}
		err = e.Err
	}
	return ""
}

func Is(err, target error) bool { return stderrors.Is(err, target) }

func As(err error, target any) bool { return stderrors.As(err, target) }

func New(text string) error { return stderrors.New(text) }

// ValidationErrors collects field level problems before they are reported together.
type ValidationErrors struct {
	fields map[string][]string
}

func ValidationErrs() *ValidationErrors {
	return &ValidationErrors{fields: make(map[string][]string)}
}

func (ve *ValidationErrors) Add(field, problem string) {
	ve.fields[field] = append(ve.fields[field], problem)
}

// Err returns nil when nothing was added.
func (ve *ValidationErrors) Err() error {
	if len(ve.fields) == 0 {
		return nil
	}

	keys := make([]string, 0, len(ve.fields))
	for k := range ve.fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s %s", k, strings.Join(ve.fields[k], ", ")))
	}
	return E(Invalid, strings.Join(parts, "; "), nil)
}
