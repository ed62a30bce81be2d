package geo

import (
	"context"
	"fmt"
	"net"

	"github.com/oschwald/geoip2-golang"
)

// MMDBResolver answers country lookups from a local MaxMind database.
// Preferred over the API resolver whenever a database path is configured:
// lookups are instant, offline, and unmetered.
type MMDBResolver struct {
	reader *geoip2.Reader
}

// NewMMDBResolver opens the MaxMind country database at path.
func NewMMDBResolver(path string) (*MMDBResolver, error) {
	reader, err := geoip2.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open geoip database: %w", err)
	}
	return &MMDBResolver{reader: reader}, nil
}

// Country returns the ISO country code for the address. Addresses the
// database cannot place (private ranges, unallocated space) resolve to
// UnknownCountry rather than an error.
func (r *MMDBResolver) Country(_ context.Context, ip string) (string, error) {
	parsed := net.ParseIP(ip)
	if parsed == nil {
		return "", fmt.Errorf("invalid IP address: %q", ip)
	}

	record, err := r.reader.Country(parsed)
	if err != nil {
		return "", fmt.Errorf("country lookup for %s: %w", ip, err)
	}
	if record.Country.IsoCode == "" {
		return UnknownCountry, nil
	}
	return record.Country.IsoCode, nil
}

// Close releases the database reader.
func (r *MMDBResolver) Close() error {
	return r.reader.Close()
}

var _ Resolver = (*MMDBResolver)(nil)
