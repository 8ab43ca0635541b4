package feed

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownFeed is returned by Synthesize for an unregistered feed id.
	ErrUnknownFeed = errors.New("unknown feed")
	// ErrBoundary means a segment cannot be patched for the given location.
	ErrBoundary = errors.New("segment boundary violation")
)

// FatalError aborts a synthesis: the template could not be read or parsed.
type FatalError struct {
	Feed string
	Op   string
	Err  error
}

func (e *FatalError) Error() string {
	if e.Feed == "" {
		return fmt.Sprintf("feed: %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("feed %s: %s: %v", e.Feed, e.Op, e.Err)
}

func (e *FatalError) Unwrap() error {
	return e.Err
}
