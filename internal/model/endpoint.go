package model

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Endpoint errors.
var (
	// ErrEmptyEndpoint is returned when the candidate string is empty.
	ErrEmptyEndpoint = errors.New("endpoint cannot be empty")
	// ErrMalformedEndpoint is returned when the candidate does not match
	// ip:port or ip:port:user:pass.
	ErrMalformedEndpoint = errors.New("malformed endpoint")
	// ErrInvalidHost is returned when the host is not an IPv4 dotted quad.
	ErrInvalidHost = errors.New("invalid endpoint host")
	// ErrInvalidPort is returned when the port is not in 1-65535.
	ErrInvalidPort = errors.New("invalid endpoint port")
)

const (
	// plainFieldCount is the field count of the ip:port form.
	plainFieldCount = 2
	// authFieldCount is the field count of the ip:port:user:pass form.
	authFieldCount = 4
	// minPort and maxPort bound the valid TCP port range.
	minPort = 1
	maxPort = 65535
)

// Endpoint is an immutable value object representing one SOCKS5 proxy
// candidate. Two endpoints are the same candidate only when host, port,
// and credentials all match; 1.2.3.4:1080 and 1.2.3.4:1080:u:p are
// distinct entries in a candidate list.
type Endpoint struct {
	host string // IPv4 dotted quad
	port uint16
	user string // empty when the proxy is unauthenticated
	pass string
}

// ParseEndpoint creates an Endpoint from a candidate string.
// Accepted shapes are "ip:port" and "ip:port:user:pass"; any other
// colon count is rejected. The host must be an IPv4 dotted quad with
// octets 0-255 and the port must be in 1-65535.
func ParseEndpoint(s string) (Endpoint, error) {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return Endpoint{}, ErrEmptyEndpoint
	}

	fields := strings.Split(trimmed, ":")
	if len(fields) != plainFieldCount && len(fields) != authFieldCount {
		return Endpoint{}, fmt.Errorf("%w: %q", ErrMalformedEndpoint, trimmed)
	}

	host := fields[0]
	if !isIPv4(host) {
		return Endpoint{}, fmt.Errorf("%w: %q", ErrInvalidHost, host)
	}

	port, err := parsePort(fields[1])
	if err != nil {
		return Endpoint{}, err
	}

	ep := Endpoint{host: host, port: port}
	if len(fields) == authFieldCount {
		if fields[2] == "" || fields[3] == "" {
			return Endpoint{}, fmt.Errorf("%w: empty credentials in %q", ErrMalformedEndpoint, trimmed)
		}
		ep.user = fields[2]
		ep.pass = fields[3]
	}
	return ep, nil
}

// MustParseEndpoint creates an Endpoint or panics if the string is invalid.
// Use only for known-valid candidates in tests or initialization.
func MustParseEndpoint(s string) Endpoint {
	ep, err := ParseEndpoint(s)
	if err != nil {
		panic(err)
	}
	return ep
}

// isIPv4 reports whether s is a dotted quad with octets 0-255.
// Hostnames and IPv6 literals are rejected; candidate lists carry
// numeric addresses only.
func isIPv4(s string) bool {
	octets := strings.Split(s, ".")
	if len(octets) != 4 {
		return false
	}
	for _, octet := range octets {
		if len(octet) == 0 || len(octet) > 3 {
			return false
		}
		for _, c := range octet {
			if c < '0' || c > '9' {
				return false
			}
		}
		n, err := strconv.Atoi(octet)
		if err != nil || n > 255 {
			return false
		}
	}
	return true
}

// parsePort converts a decimal port field into a uint16.
func parsePort(s string) (uint16, error) {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidPort, s)
	}
	if n < minPort || n > maxPort {
		return 0, fmt.Errorf("%w: %d", ErrInvalidPort, n)
	}
	return uint16(n), nil
}

// String returns the canonical candidate form: "ip:port" for
// unauthenticated endpoints, "ip:port:user:pass" otherwise. The result
// round-trips through ParseEndpoint and doubles as the dedup key.
func (e Endpoint) String() string {
	if e.HasAuth() {
		return fmt.Sprintf("%s:%d:%s:%s", e.host, e.port, e.user, e.pass)
	}
	return fmt.Sprintf("%s:%d", e.host, e.port)
}

// Addr returns the dial address "ip:port" without credentials.
func (e Endpoint) Addr() string {
	return fmt.Sprintf("%s:%d", e.host, e.port)
}

// Host returns the IPv4 host.
func (e Endpoint) Host() string {
	return e.host
}

// Port returns the TCP port.
func (e Endpoint) Port() uint16 {
	return e.port
}

// User returns the username, or the empty string for unauthenticated endpoints.
func (e Endpoint) User() string {
	return e.user
}

// Pass returns the password, or the empty string for unauthenticated endpoints.
func (e Endpoint) Pass() string {
	return e.pass
}

// HasAuth returns true when the endpoint carries credentials.
func (e Endpoint) HasAuth() bool {
	return e.user != ""
}

// IsZero returns true if this is a zero value Endpoint.
func (e Endpoint) IsZero() bool {
	return e.host == ""
}

// Equals returns true if two Endpoint values identify the same candidate.
func (e Endpoint) Equals(other Endpoint) bool {
	return e.host == other.host && e.port == other.port &&
		e.user == other.user && e.pass == other.pass
}
