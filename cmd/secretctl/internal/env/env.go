// Package env reads process environment variables.
package env

import (
	"os"
	"strings"
)

// Get returns the value of key and whether it is set to a non-blank value.
func Get(key string) (string, bool) {
	v := strings.TrimSpace(os.Getenv(key))
	return v, v != ""
}

// GetOr returns the value of key, or fallback when it is unset or blank.
func GetOr(key, fallback string) string {
	if v, ok := Get(key); ok {
		return v
	}
	return fallback
}

// First returns the first non-blank value among keys.
func First(keys ...string) (string, bool) {
	for _, k := range keys {
		if v, ok := Get(k); ok {
			return v, true
		}
	}
	return "", false
}
