package avl

import (
	"errors"
	"fmt"
)

// Sentinel errors.
var (
	// ErrKeyNotFound is wrapped by KeyError.
	ErrKeyNotFound = errors.New("key not found")
	// ErrInvariant is wrapped by every error returned from Tree.Verify.
	ErrInvariant = errors.New("avl invariant violated")
)

// KeyError reports a key that is absent from the tree.
type KeyError struct {
	Key any
}

func (e *KeyError) Error() string {
	return fmt.Sprintf("%v: %v", ErrKeyNotFound, e.Key)
}

func (e *KeyError) Unwrap() error {
	return ErrKeyNotFound
}
