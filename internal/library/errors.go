package library

import "errors"

// Custom library service errors
var (
	// ErrPersistence indicates a local durable write failed. In-memory state
	// is never mutated when this is returned.
	ErrPersistence = errors.New("local write failed")

	// ErrNotClassified indicates an operation referenced an item with no
	// classified record. This is a contract violation, not a soft failure.
	ErrNotClassified = errors.New("item has no classified record")

	// ErrInvalidRating indicates a personal rating outside [1,5]
	ErrInvalidRating = errors.New("personal rating must be between 1 and 5")

	// ErrInvalidDirection indicates an unknown classification direction
	ErrInvalidDirection = errors.New("unknown classification direction")

	// ErrNothingToUndo indicates the undo ledger is empty
	ErrNothingToUndo = errors.New("nothing to undo")
)

// IsPersistence checks if the error is a persistence failure
func IsPersistence(err error) bool {
	return errors.Is(err, ErrPersistence)
}

// IsNotClassified checks if the error is a missing classified record error
func IsNotClassified(err error) bool {
	return errors.Is(err, ErrNotClassified)
}

// IsInvalidRating checks if the error is an invalid rating error
func IsInvalidRating(err error) bool {
	return errors.Is(err, ErrInvalidRating)
}

// IsInvalidDirection checks if the error is an unknown direction error
func IsInvalidDirection(err error) bool {
	return errors.Is(err, ErrInvalidDirection)
}

// IsNothingToUndo checks if the error is an empty undo ledger error
func IsNothingToUndo(err error) bool {
	return errors.Is(err, ErrNothingToUndo)
}
