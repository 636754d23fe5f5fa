package logger

import (
	"log/slog"
	"strings"
)

// AdminTokenPrefix starts every admin API bearer token.
const AdminTokenPrefix = "gwat_"

// Keys whose string values are fully redacted.
var sensitiveKeyPatterns = []string{
	"password",
	"secret",
	"token",
	"credential",
	"authorization",
	"bearer",
}

// Keys holding security subject ids. Only the first group is kept.
var subjectKeys = []string{
	"subject",
	"subject_id",
}

const redactedValue = "***REDACTED***"

func redactSensitive(a slog.Attr) slog.Attr {
	switch a.Value.Kind() {
	case slog.KindString:
		s := a.Value.String()
		if strings.HasPrefix(s, AdminTokenPrefix) {
			return slog.String(a.Key, maskValue(s, AdminTokenPrefix))
		}
		if s == "" {
			return a
		}
		key := strings.ToLower(a.Key)
		for _, k := range subjectKeys {
			if key == k {
				return slog.String(a.Key, maskSubject(s))
			}
		}
		if IsSensitiveKey(key) {
			return slog.String(a.Key, redactedValue)
		}
	case slog.KindAny:
		// uuid.UUID and similar Stringers reach here unformatted.
		if isSubjectKey(a.Key) {
			if s, ok := a.Value.Any().(interface{ String() string }); ok {
				return slog.String(a.Key, maskSubject(s.String()))
			}
		}
	case slog.KindGroup:
		attrs := a.Value.Group()
		out := make([]slog.Attr, len(attrs))
		for i, attr := range attrs {
			out[i] = redactSensitive(attr)
		}
		return slog.Attr{Key: a.Key, Value: slog.GroupValue(out...)}
	}
	return a
}

func isSubjectKey(key string) bool {
	key = strings.ToLower(key)
	for _, k := range subjectKeys {
		if key == k {
			return true
		}
	}
	return false
}

// maskValue keeps the prefix plus three characters at each end.
func maskValue(value, prefix string) string {
	body := value[len(prefix):]
	if len(body) <= 6 {
		return prefix + "***"
	}
	return prefix + body[:3] + "..." + body[len(body)-3:]
}

// maskSubject keeps the first dash-separated group of a subject id.
func maskSubject(s string) string {
	if i := strings.IndexByte(s, '-'); i > 0 {
		return s[:i] + "-****"
	}
	if len(s) > 4 {
		return s[:4] + "****"
	}
	return "****"
}

// RedactString masks an admin token; other values pass through.
func RedactString(value string) string {
	if strings.HasPrefix(value, AdminTokenPrefix) {
		return maskValue(value, AdminTokenPrefix)
	}
	return value
}

// IsSensitiveKey reports whether key names secret content.
func IsSensitiveKey(key string) bool {
	key = strings.ToLower(key)
	for _, pattern := range sensitiveKeyPatterns {
		if strings.Contains(key, pattern) {
			return true
		}
	}
	return false
}
