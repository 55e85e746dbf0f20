package errors

// Common error codes
const (
	// System errors
	ErrInternal        ErrorCode = "internal_error"
	ErrInvalidArgument ErrorCode = "invalid_argument"

	// Configuration errors
	ErrInvalidConfig   ErrorCode = "invalid_configuration"
	ErrMissingConfig   ErrorCode = "missing_configuration"
	ErrBindFlags       ErrorCode = "bind_flags_failed"
	ErrReadConfig      ErrorCode = "read_config_failed"
	ErrInvalidInterval ErrorCode = "invalid_interval"
	ErrInvalidProtocol ErrorCode = "invalid_protocol"
	ErrUnknownBlock    ErrorCode = "unknown_block"
	ErrDecodeBlock     ErrorCode = "decode_block_failed"

	// Logging errors
	ErrInvalidLogLevel ErrorCode = "invalid_log_level"

	// Initialization errors
	ErrAlreadyRunning ErrorCode = "already_running"
	ErrSignalSetup    ErrorCode = "signal_setup_failed"

	// Runtime errors
	ErrIO         ErrorCode = "io_failed"
	ErrParse      ErrorCode = "parse_failed"
	ErrSerialize  ErrorCode = "serialize_failed"
	ErrBlockPanic ErrorCode = "block_panicked"
	ErrMainLoop   ErrorCode = "main_loop_failed"
)

// Common error messages
var errorMessages = map[ErrorCode]string{
	ErrInternal:        "Internal error occurred",
	ErrInvalidArgument: "Invalid argument provided",
	ErrInvalidConfig:   "Invalid configuration",
	ErrMissingConfig:   "Missing configuration",
	ErrBindFlags:       "Failed to bind flags",
	ErrReadConfig:      "Failed to read configuration",
	ErrInvalidInterval: "Invalid interval value",
	ErrInvalidProtocol: "Invalid output protocol",
	ErrUnknownBlock:    "No block implemented",
	ErrDecodeBlock:     "Failed to decode block",
	ErrInvalidLogLevel: "Invalid log level",
	ErrAlreadyRunning:  "Another instance is already running",
	ErrSignalSetup:     "Failed to register update signal",
	ErrIO:              "Failed to read resource",
	ErrParse:           "Error while parsing",
	ErrSerialize:       "Failed to serialize block",
	ErrBlockPanic:      "Block stopped unexpectedly",
	ErrMainLoop:        "Error in main loop",
}

// GetErrorMessage returns the message for a given error code
func GetErrorMessage(code ErrorCode) string {
	if msg, ok := errorMessages[code]; ok {
		return msg
	}

	return string(code)
}
