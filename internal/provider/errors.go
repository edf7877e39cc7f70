package provider

import "errors"

// Custom provider errors
var (
	// ErrConnectivity indicates no network path to the provider. Callers show
	// a dedicated offline state instead of a generic error.
	ErrConnectivity = errors.New("no network connection to content provider")

	// ErrProvider indicates a non-connectivity transport or response failure
	ErrProvider = errors.New("content provider request failed")
)

// IsConnectivity checks if the error is a connectivity error
func IsConnectivity(err error) bool {
	return errors.Is(err, ErrConnectivity)
}

// IsProvider checks if the error is a provider response error
func IsProvider(err error) bool {
	return errors.Is(err, ErrProvider)
}
