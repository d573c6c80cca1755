// server/internal/apperr/apperr.go
package apperr

import "errors"

// Sentinel error kinds for the referral workflow. Callers wrap these with
// fmt.Errorf("...: %w", ...) and branch with errors.Is.
var (
	// ErrValidation: missing or malformed required input. The caller must
	// re-prompt; nothing was applied.
	ErrValidation = errors.New("validation error")

	// ErrConflict: the target resource is no longer in the expected state
	// (ambulance already reserved, bed already occupied, referral already
	// decided). Never retried automatically.
	ErrConflict = errors.New("resource conflict")

	// ErrNotFound: the referenced entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrTransient: network or store unavailability. The caller may retry
	// with backoff, but must re-query before assuming the write applied.
	ErrTransient = errors.New("transient error")

	// ErrIntegrity: the requested write would break a data invariant. Always
	// a programming bug; fails loudly.
	ErrIntegrity = errors.New("integrity violation")
)

func IsValidation(err error) bool { return errors.Is(err, ErrValidation) }
func IsConflict(err error) bool   { return errors.Is(err, ErrConflict) }
func IsNotFound(err error) bool   { return errors.Is(err, ErrNotFound) }
func IsTransient(err error) bool  { return errors.Is(err, ErrTransient) }
func IsIntegrity(err error) bool  { return errors.Is(err, ErrIntegrity) }
