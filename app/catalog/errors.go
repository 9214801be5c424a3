package catalog

import "errors"

var (
	// ErrAlreadyExists marks an attempt to add a channel whose URL is
	// already subscribed without forcing a duplicate.
	ErrAlreadyExists = errors.New("channel already exists")

	// ErrInvalidTransition marks a medium location change the lifecycle
	// does not allow.
	ErrInvalidTransition = errors.New("invalid location transition")
)
