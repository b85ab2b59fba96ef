// Package fault defines the error kinds shared by the fetch, conversion and crawl layers.
package fault

import (
	"errors"
	"fmt"
)

// Error kinds. Match them with errors.Is.
var (
	// ErrResourceNotFound is a network or HTTP failure reaching an endpoint.
	ErrResourceNotFound = errors.New("resource not found")
	// ErrMalformedInput is a payload that does not match the expected GeoJSON or linked-data shape.
	ErrMalformedInput = errors.New("malformed input")
	// ErrConversion is a coordinate extraction failure while building geometry.
	ErrConversion = errors.New("conversion error")
	// ErrPrecondition is an operation invoked before its required setup.
	ErrPrecondition = errors.New("precondition violation")
)

// Error is a failed operation tagged with one of the kinds above.
type Error struct {
	Kind error
	Op   string
	URI  string
	Err  error
}

func (e *Error) Error() string {
	msg := e.Kind.Error()
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	if e.URI != "" {
		msg += fmt.Sprintf(" (%s)", e.URI)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap exposes both the kind and the cause to errors.Is / errors.As.
func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// NotFound wraps err as ErrResourceNotFound.
func NotFound(op, uri string, err error) error {
	return &Error{Kind: ErrResourceNotFound, Op: op, URI: uri, Err: err}
}

// Malformed wraps err as ErrMalformedInput.
func Malformed(op, uri string, err error) error {
	return &Error{Kind: ErrMalformedInput, Op: op, URI: uri, Err: err}
}

// Conversion wraps err as ErrConversion.
func Conversion(op string, err error) error {
	return &Error{Kind: ErrConversion, Op: op, Err: err}
}

// Precondition reports an operation invoked before its setup.
func Precondition(op, reason string) error {
	return &Error{Kind: ErrPrecondition, Op: op, Err: errors.New(reason)}
}

// Kind returns the taxonomy kind of err, or nil when err is not classified.
func Kind(err error) error {
	for _, k := range []error{ErrResourceNotFound, ErrMalformedInput, ErrConversion, ErrPrecondition} {
		if errors.Is(err, k) {
			return k
		}
	}
	return nil
}
