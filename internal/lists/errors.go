package lists

import "errors"

// Custom list membership errors
var (
	// ErrListNotFound indicates the requested list does not exist
	ErrListNotFound = errors.New("list not found")

	// ErrItemNotClassified indicates a membership referenced an item with no
	// classified record
	ErrItemNotClassified = errors.New("item has no classified record")

	// ErrPersistence indicates a local durable write failed
	ErrPersistence = errors.New("local write failed")
)

// IsListNotFound checks if the error is a list not found error
func IsListNotFound(err error) bool {
	return errors.Is(err, ErrListNotFound)
}

// IsItemNotClassified checks if the error is a missing classified record error
func IsItemNotClassified(err error) bool {
	return errors.Is(err, ErrItemNotClassified)
}

// IsPersistence checks if the error is a persistence failure
func IsPersistence(err error) bool {
	return errors.Is(err, ErrPersistence)
}
