package form

import (
	"errors"
	"fmt"
)

// ErrStale is returned when a completion is discarded because a newer
// action was issued while it was in flight.
var ErrStale = errors.New("stale completion discarded")

// MismatchError is returned when an apply response does not carry exactly
// one price per requested product line.
type MismatchError struct {
	Requested int
	Returned  int
}

func (e *MismatchError) Error() string {
	return fmt.Sprintf("Apply returned %d prices for %d products", e.Returned, e.Requested)
}
