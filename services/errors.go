package services

import "errors"

// Chat flow error taxonomy. Handlers map these to HTTP statuses via
// errors.Is; services never touch the HTTP layer themselves.
var (
	// ErrRateLimited means the user's daily message quota is exhausted.
	ErrRateLimited = errors.New("daily message limit reached")

	// ErrContentRejected means the message tripped the moderation blocklist.
	ErrContentRejected = errors.New("message content rejected")

	// ErrNotFound means a thread lookup was scoped to the wrong owner or the
	// record does not exist.
	ErrNotFound = errors.New("not found")

	// ErrUpstreamUnavailable means the AI provider call failed. Retryable by
	// the caller; the service never fabricates a reply in its place.
	ErrUpstreamUnavailable = errors.New("AI provider unavailable")

	// ErrStorageFailure means a persistence write failed after checking the
	// result. Never reported as success to the client.
	ErrStorageFailure = errors.New("storage failure")
)
