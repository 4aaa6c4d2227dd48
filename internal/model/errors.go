package model

import (
	"errors"
	"fmt"
)

var (
	// ErrDataUnavailable is returned when local reference data is missing or malformed.
	ErrDataUnavailable = errors.New("data unavailable")
	// ErrFetch is matched by every FetchError.
	ErrFetch = errors.New("fetch failed")
	// ErrEmptyResult is returned when a valid fetch yields no rows.
	ErrEmptyResult = errors.New("empty result")
)

// FetchError reports a network or remote-schema failure of an external provider.
type FetchError struct {
	Source string
	Err    error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("%s: %v", e.Source, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// Is makes errors.Is(err, ErrFetch) hold for any FetchError.
func (e *FetchError) Is(target error) bool { return target == ErrFetch }

// NewFetchError wraps err as a FetchError of source.
func NewFetchError(source string, err error) error {
	return &FetchError{Source: source, Err: err}
}
