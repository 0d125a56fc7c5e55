package secret

import (
	"fmt"
	"sort"
)

// Document is a secret as stored: a JSON object keyed by field name.
type Document map[string]any

// String returns the scalar value of key. Numbers and booleans are
// formatted; objects and arrays are rejected.
func (d Document) String(key string) (string, error) {
	v, ok := d[key]
	if !ok || v == nil {
		return "", fmt.Errorf("%w: %q", ErrFieldNotFound, key)
	}

	switch t := v.(type) {
	case string:
		return t, nil
	case map[string]any, []any:
		return "", fmt.Errorf("%w: %q", ErrFieldNotScalar, key)
	default:
		return fmt.Sprint(t), nil
	}
}

// Require fails with ErrFieldNotFound naming the first missing key.
func (d Document) Require(keys ...string) error {
	for _, k := range keys {
		if v, ok := d[k]; !ok || v == nil {
			return fmt.Errorf("%w: %q", ErrFieldNotFound, k)
		}
	}
	return nil
}

// Strings returns the scalar fields of the document. Non-scalar fields are skipped.
func (d Document) Strings() map[string]string {
	out := make(map[string]string, len(d))
	for k := range d {
		if v, err := d.String(k); err == nil {
			out[k] = v
		}
	}
	return out
}

// Keys returns the field names in sorted order.
func (d Document) Keys() []string {
	keys := make([]string, 0, len(d))
	for k := range d {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Masked returns a copy with every value replaced by "***".
func (d Document) Masked() map[string]string {
	out := make(map[string]string, len(d))
	for k := range d {
		out[k] = "***"
	}
	return out
}

// FromStrings builds a Document from a string map.
func FromStrings(values map[string]string) Document {
	d := make(Document, len(values))
	for k, v := range values {
		d[k] = v
	}
	return d
}
