// Package auditx masks personal data in structured values and computes
// field-level diffs for audit trails.
package auditx

import (
	"encoding/json"
	"reflect"
	"regexp"
	"strings"
)

// Placeholders written in place of sensitive content.
const (
	MaskedValue = "***MASKED***"
	MaskedEmail = "***EMAIL***"
	MaskedPhone = "***PHONE***"
	MaskedCard  = "***CARD***"
)

// SensitiveKeys are matched case-insensitively as substrings of map keys.
// A key such as "contact_email" or "billing_address" is masked entirely.
var SensitiveKeys = []string{
	"password",
	"token",
	"secret",
	"api_key",
	"contact",
	"email",
	"phone",
	"address",
	"credit_card",
	"ssn",
	"tax_id",
}

var valuePatterns = []struct {
	re          *regexp.Regexp
	replacement string
}{
	{regexp.MustCompile(`\b[\w.%+-]+@[\w.-]+\.[A-Za-z]{2,}\b`), MaskedEmail},
	// Japanese numbers start with a trunk 0.
	{regexp.MustCompile(`\b(0\d{1,4}[-.\s]?\d{1,4}[-.\s]?\d{3,4})\b`), MaskedPhone},
	{regexp.MustCompile(`\b\d{4}[-.\s]?\d{4}[-.\s]?\d{4}[-.\s]?\d{4}\b`), MaskedCard},
}

var (
	uuidPattern      = regexp.MustCompile(`(?i)^[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}$`)
	timestampPattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}[T\s]\d{2}:\d{2}:\d{2}`)
)

// IsSensitiveKey reports whether values under key must be masked.
func IsSensitiveKey(key string) bool {
	k := strings.ToLower(key)
	for _, s := range SensitiveKeys {
		if strings.Contains(k, s) {
			return true
		}
	}
	return false
}

// MaskString replaces email, phone and card-like substrings. Strings that
// are a UUID or start with an ISO timestamp are identifiers and pass
// through unchanged.
func MaskString(s string) string {
	if uuidPattern.MatchString(s) || timestampPattern.MatchString(s) {
		return s
	}
	for _, p := range valuePatterns {
		s = p.re.ReplaceAllString(s, p.replacement)
	}
	return s
}

// Mask returns a copy of v with sensitive keys and values masked. Maps and
// slices are walked recursively; structs are first converted to their JSON
// form so their json tags act as keys. v itself is never modified.
func Mask(v any) any {
	switch t := v.(type) {
	case nil:
		return nil
	case string:
		return MaskString(t)
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			if IsSensitiveKey(k) {
				out[k] = maskedLike(val)
				continue
			}
			out[k] = Mask(val)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = Mask(val)
		}
		return out
	case map[string]string:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[k] = val
		}
		return Mask(out)
	case []string:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = MaskString(val)
		}
		return out
	case Change:
		return Change{Before: Mask(t.Before), After: Mask(t.After)}
	case map[string]Change:
		out := make(map[string]Change, len(t))
		for k, c := range t {
			if IsSensitiveKey(k) {
				out[k] = Change{Before: MaskedValue, After: MaskedValue}
				continue
			}
			out[k] = Mask(c).(Change)
		}
		return out
	}

	switch reflect.Indirect(reflect.ValueOf(v)).Kind() {
	case reflect.Struct, reflect.Map, reflect.Slice, reflect.Array:
		if normalized, err := normalize(v); err == nil {
			return Mask(normalized)
		}
	}
	return v
}

// maskedLike masks a sensitive value, keeping the shape of a diff entry so
// masking an already computed diff is idempotent.
func maskedLike(v any) any {
	switch t := v.(type) {
	case Change:
		return Change{Before: MaskedValue, After: MaskedValue}
	case map[string]any:
		_, hasBefore := t["before"]
		_, hasAfter := t["after"]
		if hasBefore && hasAfter && len(t) == 2 {
			return map[string]any{"before": MaskedValue, "after": MaskedValue}
		}
	}
	return MaskedValue
}

// MaskMap masks a metadata map, returning a map of the same shape.
func MaskMap(m map[string]any) map[string]any {
	if m == nil {
		return map[string]any{}
	}
	return Mask(m).(map[string]any)
}

// ToMap converts a struct or map to its generic JSON object form.
func ToMap(v any) (map[string]any, error) {
	if v == nil {
		return map[string]any{}, nil
	}
	if m, ok := v.(map[string]any); ok {
		return m, nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	out := map[string]any{}
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func normalize(v any) (any, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var out any
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, err
	}
	return out, nil
}
