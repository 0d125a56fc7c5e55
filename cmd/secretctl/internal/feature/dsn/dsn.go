// Package dsn resolves secret locators into a Vault mount, a path inside
// that mount, and a terminal name.
//
// Accepted forms, all resolving to the same locator:
//
//	hashivault://projects/acme/production/database
//	hashivault:///projects/acme/production/database
//	/projects/acme/production/database
//	projects/acme/production/database
//	/projects/data/acme/production/database
package dsn

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// Scheme is the prefix of a Vault DSN.
const Scheme = "hashivault://"

// kvDataInfix is the segment KV v2 inserts between mount and logical path.
const kvDataInfix = "/data/"

// ErrInvalidLocator is returned when a locator has fewer than two segments.
var ErrInvalidLocator = errors.New("invalid locator")

// Locator is a resolved secret locator.
type Locator struct {
	Mount string
	Path  string
	Name  string
}

// Resolve normalizes locator and splits it into mount, path and name.
func Resolve(locator string) (Locator, error) {
	s := strings.TrimPrefix(locator, Scheme)
	s = strings.TrimPrefix(s, "/")
	s = stripDataInfix(s)

	segments := split(s)
	if len(segments) < 2 {
		return Locator{}, fmt.Errorf("%w: %q needs at least a mount and a name", ErrInvalidLocator, locator)
	}

	return Locator{
		Mount: segments[0],
		Path:  strings.Join(segments[1:len(segments)-1], "/"),
		Name:  segments[len(segments)-1],
	}, nil
}

// MustResolve is like Resolve but panics on error.
func MustResolve(locator string) Locator {
	l, err := Resolve(locator)
	if err != nil {
		panic(err)
	}
	return l
}

var placeholder = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// Expand substitutes ${key} placeholders whose key is in lookup. Any other
// text, including "$" and unknown placeholders, is kept as written.
func Expand(s string, lookup map[string]string) string {
	return placeholder.ReplaceAllStringFunc(s, func(m string) string {
		if v, ok := lookup[m[2:len(m)-1]]; ok {
			return v
		}
		return m
	})
}

// String returns the canonical "mount/path/name" form.
func (l Locator) String() string {
	return strings.Join(nonEmpty(l.Mount, l.Path, l.Name), "/")
}

// DSN returns the canonical locator with the hashivault scheme.
func (l Locator) DSN() string {
	return Scheme + l.String()
}

// Join returns "path/name", the store path when the name is part of the path.
func (l Locator) Join() string {
	return strings.Join(nonEmpty(l.Path, l.Name), "/")
}

// stripDataInfix collapses the first "/data/" found after the mount segment.
func stripDataInfix(s string) string {
	end := strings.Index(s, "/")
	if end < 0 {
		return s
	}
	return s[:end] + strings.Replace(s[end:], kvDataInfix, "/", 1)
}

func split(s string) []string {
	var segments []string
	for _, part := range strings.Split(s, "/") {
		if part != "" {
			segments = append(segments, part)
		}
	}
	return segments
}

func nonEmpty(parts ...string) []string {
	out := parts[:0:0]
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
