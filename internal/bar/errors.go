package bar

import "codeberg.org/mutker/statusblocks/internal/errors"

const (
	ErrSerialize       = errors.ErrSerialize
	ErrInvalidProtocol = errors.ErrInvalidProtocol
	ErrWrite           = errors.ErrorCode("bar_write_failed")
)
