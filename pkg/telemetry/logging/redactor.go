package logging

import (
	"log/slog"
	"regexp"
	"strings"

	"mercator-hq/rhythm/pkg/config"
)

// Redactor masks client identifiers and credentials in log fields.
//
// Rate limit keys are frequently client IP addresses, so addresses are
// masked down to their first group before they reach a log sink.
type Redactor struct {
	patterns []*redactPattern
}

// redactPattern contains a compiled regex and its replacement.
type redactPattern struct {
	name    string
	regex   *regexp.Regexp
	replace func(string) string
}

// Built-in pattern names.
const (
	PatternIPv4        = "ipv4"
	PatternIPv6        = "ipv6"
	PatternBearerToken = "bearer_token"
	PatternAPIKey      = "api_key"
)

var sensitiveKeys = []string{
	"password", "passwd", "secret", "token",
	"api_key", "apikey", "authorization", "private_key",
}

// NewRedactor creates a Redactor with the built-in patterns followed by the
// custom ones. Custom patterns that fail to compile are skipped.
func NewRedactor(custom []config.RedactPattern) *Redactor {
	r := &Redactor{}

	r.patterns = append(r.patterns,
		&redactPattern{
			name:    PatternBearerToken,
			regex:   regexp.MustCompile(`Bearer\s+[a-zA-Z0-9\-._~+/]+=*`),
			replace: func(string) string { return "Bearer ***" },
		},
		&redactPattern{
			name:    PatternAPIKey,
			regex:   regexp.MustCompile(`(sk|rk|pk)[-_][a-zA-Z0-9]{8,}`),
			replace: RedactAPIKey,
		},
		&redactPattern{
			name:    PatternIPv4,
			regex:   regexp.MustCompile(`\b(?:\d{1,3}\.){3}\d{1,3}\b`),
			replace: RedactIPv4,
		},
		&redactPattern{
			name:    PatternIPv6,
			regex:   regexp.MustCompile(`\b(?:[0-9a-fA-F]{1,4}:){7}[0-9a-fA-F]{1,4}\b`),
			replace: RedactIPv6,
		},
	)

	for _, p := range custom {
		regex, err := regexp.Compile(p.Pattern)
		if err != nil {
			continue
		}
		replacement := p.Replacement
		r.patterns = append(r.patterns, &redactPattern{
			name:    p.Name,
			regex:   regex,
			replace: func(string) string { return replacement },
		})
	}

	return r
}

// RedactString applies every pattern to value.
func (r *Redactor) RedactString(value string) string {
	if value == "" {
		return value
	}
	for _, p := range r.patterns {
		value = p.regex.ReplaceAllStringFunc(value, p.replace)
	}
	return value
}

// RedactAttr returns a copy of a with sensitive content masked.
// Groups are redacted recursively.
func (r *Redactor) RedactAttr(a slog.Attr) slog.Attr {
	v := a.Value.Resolve()

	switch {
	case v.Kind() == slog.KindGroup:
		group := v.Group()
		redacted := make([]any, len(group))
		for i, ga := range group {
			redacted[i] = r.RedactAttr(ga)
		}
		return slog.Group(a.Key, redacted...)
	case isSensitiveKey(a.Key):
		return slog.String(a.Key, "***")
	case v.Kind() == slog.KindString:
		return slog.String(a.Key, r.RedactString(v.String()))
	default:
		return slog.Attr{Key: a.Key, Value: v}
	}
}

// isSensitiveKey reports whether a field name indicates a credential.
// "token" matches access_token but not tokens.
func isSensitiveKey(key string) bool {
	lower := strings.ToLower(key)
	for _, s := range sensitiveKeys {
		if lower == s || strings.HasSuffix(lower, "_"+s) || strings.HasPrefix(lower, s+"_") {
			return true
		}
	}
	return false
}

// RedactAPIKey keeps only the first 4 characters of an API key.
func RedactAPIKey(apiKey string) string {
	if len(apiKey) <= 4 {
		return "***"
	}
	return apiKey[:4] + "***"
}

// RedactIPv4 keeps only the first octet of an IPv4 address.
func RedactIPv4(ip string) string {
	parts := strings.Split(ip, ".")
	if len(parts) != 4 {
		return ip
	}
	return parts[0] + ".*.*.*"
}

// RedactIPv6 keeps only the first group of an IPv6 address.
func RedactIPv6(ip string) string {
	first, _, ok := strings.Cut(ip, ":")
	if !ok {
		return ip
	}
	return first + ":*"
}
