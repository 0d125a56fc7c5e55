package secret

import (
	"errors"
	"strings"
)

var (
	// ErrSecretNotFound means the store holds no document at the path.
	ErrSecretNotFound = errors.New("secret not found")
	// ErrFieldNotFound means the document exists but lacks the field.
	ErrFieldNotFound = errors.New("field not found")
	// ErrFieldNotScalar means the field holds an object or an array.
	ErrFieldNotScalar = errors.New("field is not a scalar")
	// ErrStoreUnavailable covers transport and auth failures of the store.
	ErrStoreUnavailable = errors.New("secret store unavailable")
	// ErrDestinationWriteFailed means a destination rejected a write.
	ErrDestinationWriteFailed = errors.New("destination write failed")
)

// Error carries the failing locator or key next to its kind.
// errors.Is matches both Kind and the underlying Err.
type Error struct {
	Kind    error
	Locator string
	Key     string
	Err     error
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(e.Kind.Error())
	if e.Locator != "" {
		b.WriteString(" at ")
		b.WriteString(e.Locator)
	}
	if e.Key != "" {
		b.WriteString(" (key ")
		b.WriteString(e.Key)
		b.WriteString(")")
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

func newError(kind error, locator, key string, err error) *Error {
	return &Error{Kind: kind, Locator: locator, Key: key, Err: err}
}

// NotFound returns a SecretNotFound error for the store path.
func NotFound(locator string, err error) error {
	return newError(ErrSecretNotFound, locator, "", err)
}

// Unavailable returns a StoreUnavailable error for the store path.
func Unavailable(locator string, err error) error {
	return newError(ErrStoreUnavailable, locator, "", err)
}

// WriteFailed returns a DestinationWriteFailed error for a destination key.
// Errors already carrying that kind are returned unchanged.
func WriteFailed(destination, key string, err error) error {
	if errors.Is(err, ErrDestinationWriteFailed) {
		return err
	}
	return newError(ErrDestinationWriteFailed, destination, key, err)
}
