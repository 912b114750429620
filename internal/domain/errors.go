package domain

import "errors"

var (
	// ErrCompletionService signals a network or service failure while calling
	// the completion service.
	ErrCompletionService = errors.New("completion service failure")
	// ErrParse signals that a completion response held no decodable event block.
	ErrParse = errors.New("event block missing or malformed")
	// ErrAddressNotFound signals that an address has no resolvable location.
	// This is an expected, non-fatal outcome.
	ErrAddressNotFound = errors.New("address not found")
	// ErrGeocodeService signals a geocoding backend timeout or failure.
	ErrGeocodeService = errors.New("geocoding service failure")
	// ErrConfiguration signals a missing or invalid backend credential.
	ErrConfiguration = errors.New("invalid geocoder configuration")
	// ErrEmptyStore signals an export requested on an empty event store.
	ErrEmptyStore = errors.New("event store is empty")
	// ErrUnsupportedCRS signals an export to an unknown coordinate reference system.
	ErrUnsupportedCRS = errors.New("unsupported coordinate reference system")
	// ErrRunNotFound signals a missing processing run.
	ErrRunNotFound = errors.New("run not found")
)
