package applier

import (
	"errors"
	"fmt"
)

// Sentinel error kinds, matched with errors.Is by internal/facade when
// mapping to its ErrorKind values.
var (
	ErrParse              = errors.New("applier: parse error")
	ErrInvariantViolation = errors.New("applier: invariant violation")
	ErrRequestValidation  = errors.New("applier: request validation")
	ErrStorage            = errors.New("applier: storage error")
	ErrUnimplemented      = errors.New("applier: unimplemented")
)

// wrap annotates cause with one of the sentinel kinds above so callers can
// dispatch with errors.Is while still seeing the underlying detail.
func wrap(kind error, format string, args ...any) error {
	return fmt.Errorf("%w: %s", kind, fmt.Sprintf(format, args...))
}
