package pairing

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidInput reports arguments a session cannot be built or updated from
	ErrInvalidInput = errors.New("invalid input")
	// ErrInvalidState reports an operation the session's current state does not allow
	ErrInvalidState = errors.New("invalid state")

	ErrExhausted     = fmt.Errorf("%w: no pairs remaining", ErrInvalidState)
	ErrNoCurrentPair = fmt.Errorf("%w: no pair is being displayed", ErrInvalidState)
)
