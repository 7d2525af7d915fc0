package domain

import (
	"errors"
	"fmt"
)

var ErrInvalidPage = errors.New("invalid page")

// UpstreamError wraps a failed read from one of the collaborating stores.
type UpstreamError struct {
	Op  string
	Err error
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}

func IsUpstreamError(err error) bool {
	var target *UpstreamError
	return errors.As(err, &target)
}
