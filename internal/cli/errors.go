package cli

// Error codes for JSON output. These are stable identifiers scripts can
// match on; the human-readable message may change between releases.
const (
	ErrCodeNotConfigured = "not_configured"
	ErrCodeKeyNotFound   = "key_not_found"
	ErrCodeUnopenable    = "unopenable"
	ErrCodeInvalidInput  = "invalid_input"
	ErrCodeConfig        = "config_error"
	ErrCodeParse         = "parse_error"
	ErrCodeHookFailed    = "hook_failed"
	ErrCodeInternal      = "internal_error"
)
