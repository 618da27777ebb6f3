package errors

import (
	"errors"
	"fmt"
)

// Kind classifies a failure. The set is closed: every error produced by the
// scanning core carries exactly one of these kinds.
type Kind int

const (
	// KindValidation marks malformed or missing input detected before any network I/O.
	KindValidation Kind = iota + 1
	// KindTransport marks a single outbound probe that failed (DNS, connect, timeout, TLS).
	KindTransport
	// KindInternal marks an unexpected failure inside the scan pipeline itself.
	KindInternal
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindTransport:
		return "transport"
	case KindInternal:
		return "internal"
	default:
		return "unknown"
	}
}

// Input errors
var (
	ErrEmptyURL      = errors.New("URL cannot be empty")
	ErrInvalidScheme = errors.New("URL must start with http:// or https://")
	ErrInvalidHost   = errors.New("URL must include a host")
	ErrEmptyHost     = errors.New("host is required")
	ErrInvalidPort   = errors.New("port must be between 1 and 65535")
)

// Error is a classified failure. Op names the operation that failed.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Op == "" {
		return e.Err.Error()
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Validation wraps err as a KindValidation error.
func Validation(op string, err error) error {
	return &Error{Kind: KindValidation, Op: op, Err: err}
}

// Transport wraps err as a KindTransport error.
func Transport(op string, err error) error {
	return &Error{Kind: KindTransport, Op: op, Err: err}
}

// Internal wraps err as a KindInternal error.
func Internal(op string, err error) error {
	return &Error{Kind: KindInternal, Op: op, Err: err}
}

// KindOf reports the kind of the first classified error in err's chain.
// Unclassified errors are treated as internal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

func IsValidation(err error) bool { return err != nil && KindOf(err) == KindValidation }
func IsTransport(err error) bool  { return err != nil && KindOf(err) == KindTransport }
func IsInternal(err error) bool   { return err != nil && KindOf(err) == KindInternal }
