// Package log builds credential-safe logging for proxyscan on top of the
// standard slog package.
//
// Candidate lists scraped from public sources routinely embed usernames
// and passwords, and those strings flow through almost every log site in
// the tool. SecureHandler wraps any slog.Handler and masks:
//   - attribute keys that name credentials (password, pass, user, token, auth)
//   - candidate strings in ip:port:user:pass form, whatever the key
//   - proxy URLs with userinfo and share links with credential query
//     parameters
//   - Authorization header values (Basic, Bearer)
//
// Masking applies at every level including debug, so verbose runs can be
// shared without scrubbing them first.
//
// Typical use:
//
//	logger := log.NewSecureLogger(os.Stderr, verbose)
//	logger.Info("probing candidate",
//	    "proxy", "192.0.2.10:1080:alice:hunter2", // masked by value pattern
//	    "endpoint", "192.0.2.10:1080",            // passes through
//	)
//
// NewSecureLogger writes text to the given writer; NewSecureJSONLogger
// produces JSON for log aggregation. Both honor the verbose flag by
// switching between LevelWarn and LevelDebug.
package log
