package blocks

import "codeberg.org/mutker/statusblocks/internal/errors"

const (
	// Configuration Errors
	ErrUnknownBlock   = errors.ErrUnknownBlock
	ErrInvalidPath    = errors.ErrorCode("block_invalid_path")
	ErrInvalidFormat  = errors.ErrorCode("block_invalid_format")
	ErrInvalidCommand = errors.ErrorCode("block_invalid_command")

	// Setup Errors
	ErrSetupRead = errors.ErrorCode("block_setup_read_failed")
)
