package logging

import (
	"log/slog"
	"sort"
	"strings"
)

// RedactedValue is the canonical placeholder used for sensitive fields in
// logs.
const RedactedValue = "[REDACTED]"

var redactionAllowlist = map[string]struct{}{
	"component":      {},
	"env":            {},
	"message":        {},
	"severity":       {},
	"timestamp":      {},
	"error":          {},
	"reason":         {},
	"chain":          {},
	"handlerId":      {},
	"transceiverId":  {},
	"messageId":      {},
	"bucketId":       {},
	"digest":         {},
}

// IsAllowlisted reports whether key is exempt from automatic redaction.
// Addresses, amounts and message payloads are deliberately left out: a
// log line that names who moved how much money is exactly the kind of
// detail this allowlist exists to keep out of plaintext logs.
func IsAllowlisted(key string) bool {
	normalized := strings.ToLower(strings.TrimSpace(key))
	_, ok := redactionAllowlist[normalized]
	return ok
}

// RedactionAllowlist returns a sorted copy of the log keys allowed to be
// emitted without redaction.
func RedactionAllowlist() []string {
	keys := make([]string, 0, len(redactionAllowlist))
	for key := range redactionAllowlist {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// MaskValue returns the canonical redacted placeholder for non-empty
// values.
func MaskValue(value string) string {
	if strings.TrimSpace(value) == "" {
		return value
	}
	return RedactedValue
}

// MaskField returns a slog.Attr that redacts value unless key is
// explicitly allowlisted.
func MaskField(key, value string) slog.Attr {
	if strings.TrimSpace(value) == "" || IsAllowlisted(key) {
		return slog.String(key, value)
	}
	return slog.String(key, RedactedValue)
}
