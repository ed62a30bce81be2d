// Package geo resolves IP addresses to country codes for report grouping.
//
// Two resolvers share the Resolver interface. MMDBResolver reads a local
// MaxMind database and is the fast path when one is configured.
// APIResolver queries the free ip-api.com endpoint under a rate limit that
// respects the service's free tier. Both map unplaceable addresses to
// UnknownCountry ("XX") so every working proxy lands in exactly one
// country bucket.
package geo
