package geo

import "context"

// UnknownCountry is the bucket for addresses no lookup source can place.
// The grouped outputs need a stable code for them, so it is a value, not
// an error.
const UnknownCountry = "XX"

// Resolver maps an IP address to an ISO 3166-1 alpha-2 country code.
type Resolver interface {
	// Country returns the country code for the address.
	Country(ctx context.Context, ip string) (string, error)

	// Close releases lookup resources.
	Close() error
}
