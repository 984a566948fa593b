package log

import (
	"context"
	"io"
	"log/slog"
	"regexp"
	"strings"
)

// sensitiveKeys contains attribute keys that are always masked.
// LinkGuard handles three third-party API credentials plus whatever
// headers a scanned site returns; none of them belong in logs.
var sensitiveKeys = map[string]bool{
	"api_key":       true,
	"apikey":        true,
	"api-key":       true,
	"x-apikey":      true,
	"authorization": true,
	"cookie":        true,
	"set-cookie":    true,
	"token":         true,
	"secret":        true,
	"password":      true,
}

// sensitivePatterns matches values that look like credentials regardless of
// their attribute key. The query-string pattern exists because the Safe
// Browsing endpoint carries its key as ?key=..., so a logged URL would
// otherwise leak it.
var sensitivePatterns = []*regexp.Regexp{
	// API key embedded in a URL query string
	regexp.MustCompile(`(?i)[?&]key=[A-Za-z0-9_-]+`),

	// Bearer tokens
	regexp.MustCompile(`(?i)^bearer\s+.+`),

	// Long bare alphanumeric strings (typical API key shape)
	regexp.MustCompile(`^[a-zA-Z0-9]{40,}$`),
}

// MaskValue is the string used to replace sensitive values.
const MaskValue = "***REDACTED***"

// SecureHandler wraps an slog.Handler to sanitize credentials before they
// reach the underlying handler. It integrates with standard slog APIs and
// works with any underlying handler (text, JSON).
type SecureHandler struct {
	handler slog.Handler
}

// NewSecureHandler creates a SecureHandler wrapping the given handler.
// If handler is nil, slog.Default().Handler() is used.
func NewSecureHandler(handler slog.Handler) *SecureHandler {
	if handler == nil {
		handler = slog.Default().Handler()
	}
	return &SecureHandler{handler: handler}
}

// Enabled reports whether the handler handles records at the given level.
func (h *SecureHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.handler.Enabled(ctx, level)
}

// Handle sanitizes the record's attributes and passes it on.
func (h *SecureHandler) Handle(ctx context.Context, r slog.Record) error {
	sanitized := slog.NewRecord(r.Time, r.Level, r.Message, r.PC)
	r.Attrs(func(a slog.Attr) bool {
		sanitized.AddAttrs(h.sanitizeAttr(a))
		return true
	})
	return h.handler.Handle(ctx, sanitized)
}

// WithAttrs returns a new handler with the given attributes added,
// sanitized first.
func (h *SecureHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	sanitizedAttrs := make([]slog.Attr, len(attrs))
	for i, a := range attrs {
		sanitizedAttrs[i] = h.sanitizeAttr(a)
	}
	return &SecureHandler{handler: h.handler.WithAttrs(sanitizedAttrs)}
}

// WithGroup returns a new handler with the given group name.
func (h *SecureHandler) WithGroup(name string) slog.Handler {
	return &SecureHandler{handler: h.handler.WithGroup(name)}
}

// sanitizeAttr sanitizes a single attribute, recursing into groups.
func (h *SecureHandler) sanitizeAttr(a slog.Attr) slog.Attr {
	if a.Value.Kind() == slog.KindGroup {
		attrs := a.Value.Group()
		sanitizedAttrs := make([]slog.Attr, len(attrs))
		for i, groupAttr := range attrs {
			sanitizedAttrs[i] = h.sanitizeAttr(groupAttr)
		}
		return slog.Attr{Key: a.Key, Value: slog.GroupValue(sanitizedAttrs...)}
	}

	keyLower := strings.ToLower(a.Key)
	if sensitiveKeys[keyLower] || containsSensitiveKeyword(keyLower) {
		return slog.String(a.Key, MaskValue)
	}

	if a.Value.Kind() == slog.KindString {
		if masked, changed := maskSensitiveValue(a.Value.String()); changed {
			return slog.String(a.Key, masked)
		}
	}

	return a
}

// containsSensitiveKeyword checks the key for credential-related words.
// The bare word "key" is excluded on purpose: it false-positives on
// "cache_key", "canonical_key", and similar engine attributes.
func containsSensitiveKeyword(key string) bool {
	for _, keyword := range []string{"password", "secret", "token", "auth", "credential"} {
		if strings.Contains(key, keyword) {
			return true
		}
	}
	return false
}

// maskSensitiveValue masks credential-shaped substrings in a value.
// URL query keys are replaced in place so the rest of the URL stays
// readable; whole-value matches are replaced entirely.
func maskSensitiveValue(value string) (string, bool) {
	changed := false
	for i, pattern := range sensitivePatterns {
		if !pattern.MatchString(value) {
			continue
		}
		changed = true
		if i == 0 {
			value = pattern.ReplaceAllStringFunc(value, func(m string) string {
				sep := m[:1] // "?" or "&"
				return sep + "key=" + MaskValue
			})
			continue
		}
		return MaskValue, true
	}
	return value, changed
}

// NewSecureLogger creates an slog.Logger with credential masking, writing
// text output to w. Verbose selects debug level, otherwise warnings only.
func NewSecureLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	handler := slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})
	return slog.New(NewSecureHandler(handler))
}
