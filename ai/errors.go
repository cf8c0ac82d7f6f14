package ai

import "errors"

var (
	// ErrChatModelRequired is returned when a chat model is not provided.
	ErrChatModelRequired = errors.New("chat model required")

	// ErrInvalidMaxAttempts is returned when a retry attempt cap is not positive.
	ErrInvalidMaxAttempts = errors.New("max attempts must be greater than zero")

	// ErrRateLimited marks a provider rejection caused by rate limiting.
	// Adapters wrap provider errors with it so the guard retries them.
	ErrRateLimited = errors.New("rate limited")

	// ErrTransient marks a provider failure worth retrying (timeouts,
	// connection resets, 5xx responses).
	ErrTransient = errors.New("transient provider failure")
)
