package domain

import "errors"

var (
	// ErrProviderUnavailable is returned when the market-data provider cannot
	// be reached, answers with a non-2xx status, or times out.
	ErrProviderUnavailable = errors.New("provider unavailable")

	// ErrNoResults is returned when the provider answers with an empty list.
	ErrNoResults = errors.New("no results")

	// ErrNotFound is returned when a lookup by mint matches no token.
	ErrNotFound = errors.New("not found")

	// ErrMalformedRecord marks a single provider record that cannot be scored.
	ErrMalformedRecord = errors.New("malformed record")

	// ErrPersistence is returned when the history backend fails to write.
	ErrPersistence = errors.New("persistence error")

	// ErrDelivery is returned when a notification channel rejects a message.
	ErrDelivery = errors.New("delivery error")
)
