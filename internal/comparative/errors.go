package comparative

import (
	"errors"
	"fmt"
)

var (
	// ErrDataContractViolation is matched by every *DataContractViolation.
	ErrDataContractViolation = errors.New("comparative: data contract violation")

	// ErrNarrationUnavailable is returned alongside a complete report when the
	// narration service failed.
	ErrNarrationUnavailable = errors.New("comparative: narration unavailable")
)

// DataContractViolation describes an article that cannot be analysed.
// Index is -1 when the violation is not tied to an article.
type DataContractViolation struct {
	Index int
	Field string
	Value string
}

func (e *DataContractViolation) Error() string {
	if e.Index < 0 {
		return fmt.Sprintf("comparative: invalid %s %q", e.Field, e.Value)
	}
	return fmt.Sprintf("comparative: article %d: invalid %s %q", e.Index, e.Field, e.Value)
}

// Is makes errors.Is(err, ErrDataContractViolation) hold.
func (e *DataContractViolation) Is(target error) bool {
	return target == ErrDataContractViolation
}

// IsNarrationUnavailable reports whether err only signals missing narration,
// in which case the returned report is still complete.
func IsNarrationUnavailable(err error) bool {
	return errors.Is(err, ErrNarrationUnavailable)
}
