package email

import "errors"

var (
	// ErrSendFailed wraps provider-side delivery failures.
	ErrSendFailed = errors.New("email: send failed")

	// ErrInvalidConfig indicates missing or malformed sender configuration.
	ErrInvalidConfig = errors.New("email: invalid config")

	// ErrInvalidMessage indicates a message that cannot be sent as composed.
	ErrInvalidMessage = errors.New("email: invalid message")
)
