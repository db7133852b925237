package domain

import "errors"

var (
	// ErrValidation marks input that is not a well-formed collection or post.
	ErrValidation = errors.New("validation failed")
	// ErrStorage marks a failure of the local tier.
	ErrStorage = errors.New("local storage failure")
	// ErrRemoteUnavailable means the remote could not be initialized.
	ErrRemoteUnavailable = errors.New("remote unavailable")
	// ErrRemoteAuth means the remote rejected or lacks an authenticated session.
	ErrRemoteAuth = errors.New("remote authentication failed")
	// ErrRemoteSync covers any other remote read or write failure.
	ErrRemoteSync = errors.New("remote sync failed")
	// ErrNotFound is returned for a slug that is not in the collection.
	ErrNotFound = errors.New("not found")
)
