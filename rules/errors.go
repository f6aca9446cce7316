package rules

import (
	"errors"
	"fmt"
)

var (
	ErrTruncatedFrame = errors.New("rules: truncated frame at end of stream")
	ErrFrameTooLong   = errors.New("rules: frame too long")
	ErrInvalidWidth   = errors.New("rules: length field width must be 1, 2, 4 or 8")
	ErrNegativeLength = errors.New("rules: negative frame length after adjustment")
	ErrInvalidSize    = errors.New("rules: frame size must be positive")
	ErrEmptyDelimiter = errors.New("rules: empty delimiter")
)

// ChecksumError is returned by Checksum when a frame trailer does not match
// the payload.
type ChecksumError struct {
	Want uint64 // trailer read from the wire
	Got  uint64 // computed over the payload
}

func (e *ChecksumError) Error() string {
	return fmt.Sprintf("rules: checksum mismatch: frame carries %016x, payload hashes to %016x", e.Want, e.Got)
}

func tooLong(n, limit int) error {
	return fmt.Errorf("%w: %d bytes exceeds limit of %d", ErrFrameTooLong, n, limit)
}
