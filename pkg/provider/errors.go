package provider

import "errors"

var (
	// ErrClosed is returned by operations on a closed Provider.
	ErrClosed = errors.New("provider: closed")

	// ErrNoSession is returned by mutations while no user is set.
	ErrNoSession = errors.New("provider: no active user session")
)
