package forms

import (
	"fmt"
	"strings"
)

// TestPayload builds the request fields for the section's connection test.
// It fails when a required field is empty.
func TestPayload(sec Section, st State) (map[string]string, error) {
	if !sec.Testable() {
		return nil, fmt.Errorf("%s has no connection test", sec.Title)
	}
	payload := map[string]string{}
	var missing []string
	for _, f := range sec.Fields {
		if f.TestKey == "" {
			continue
		}
		v := strings.TrimSpace(st.Value(f.Key))
		if v == "" {
			if f.Required {
				missing = append(missing, f.Label)
			}
			continue
		}
		if f.Kind == KindURL {
			v = strings.TrimRight(v, "/")
		}
		payload[f.TestKey] = v
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%s: %s required", sec.Title, strings.Join(missing, ", "))
	}
	return payload, nil
}

// Mask hides all but the last four characters of a secret.
func Mask(v string) string {
	if v == "" {
		return ""
	}
	if len(v) <= 4 {
		return strings.Repeat("•", len(v))
	}
	return strings.Repeat("•", len(v)-4) + v[len(v)-4:]
}
