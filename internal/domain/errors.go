package domain

import "errors"

// Error taxonomy. Handlers map these onto HTTP status codes; everything else
// is an internal fault reported with a generic message.
var (
	// ErrValidation marks malformed or missing request fields (400).
	ErrValidation = errors.New("invalid request")

	// ErrNotFound marks an empty result after valid filtering (404).
	ErrNotFound = errors.New("no results found")

	// ErrUnavailable marks an unreachable upstream after retries (503).
	ErrUnavailable = errors.New("service unavailable")

	// ErrEmbedding marks a failed embedding call. Aggregating callers treat it
	// as "no textual signal" for that term; callers with no other signal map
	// it to ErrUnavailable semantics (503).
	ErrEmbedding = errors.New("embedding unavailable")

	// ErrNoFacilityMatch is returned when none of the requested facility
	// phrases maps to a canonical facility (400: adjust your input).
	ErrNoFacilityMatch = errors.New("no matching facilities found")
)
