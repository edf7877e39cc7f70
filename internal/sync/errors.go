package sync

import "errors"

// Custom sync engine errors
var (
	// ErrRemoteSync indicates a remote document read or write failed
	ErrRemoteSync = errors.New("remote list store request failed")

	// ErrDocumentGone indicates the remote document is absent or deactivated
	ErrDocumentGone = errors.New("remote document no longer available")

	// ErrNotPublished indicates an operation requiring a published list
	ErrNotPublished = errors.New("list is not published")

	// ErrAlreadyFollowing indicates the remote list is already followed
	ErrAlreadyFollowing = errors.New("already following this list")

	// ErrNotFollowing indicates the remote list is not followed
	ErrNotFollowing = errors.New("not following this list")
)

// IsRemoteSync checks if the error is a remote store failure
func IsRemoteSync(err error) bool {
	return errors.Is(err, ErrRemoteSync)
}

// IsDocumentGone checks if the error is a missing remote document error
func IsDocumentGone(err error) bool {
	return errors.Is(err, ErrDocumentGone)
}

// IsAlreadyFollowing checks if the error is a duplicate follow error
func IsAlreadyFollowing(err error) bool {
	return errors.Is(err, ErrAlreadyFollowing)
}

// IsNotFollowing checks if the error is a missing follow error
func IsNotFollowing(err error) bool {
	return errors.Is(err, ErrNotFollowing)
}
