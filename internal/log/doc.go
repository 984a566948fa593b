// Package log provides a secure slog handler for LinkGuard.
//
// The engine handles three third-party API credentials and logs request
// URLs that can embed one of them as a query parameter. SecureHandler
// masks credential-shaped attribute keys and values before records reach
// the underlying handler, so a verbose run can be shared without leaking
// keys.
package log
