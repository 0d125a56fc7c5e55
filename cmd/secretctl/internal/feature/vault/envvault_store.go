package vault

import (
	"context"
	"errors"
	"strings"

	"github.com/eliasmeireles/envvault"

	"github.com/eliasmeireles/secretctl/cmd/secretctl/internal/feature/secret"
)

// SecretReadWriter abstracts the envvault.Client methods used by EnvvaultStore.
// Paths are full KV v2 API paths such as "projects/data/acme/production".
type SecretReadWriter interface {
	ReadSecret(path string) (map[string]interface{}, error)
	WriteSecret(path string, data map[string]interface{}) error
}

// EnvvaultStore is a secret store over an envvault client.
// The envvault API is not context aware; contexts are only checked before
// each call.
type EnvvaultStore struct {
	client  SecretReadWriter
	engines envvault.EngineManager
}

// EnvvaultOption configures an EnvvaultStore.
type EnvvaultOption func(*EnvvaultStore)

// WithMountProvisioning mounts a KV v2 engine before the first write to a
// mount that does not exist yet.
func WithMountProvisioning(engines envvault.EngineManager) EnvvaultOption {
	return func(s *EnvvaultStore) {
		s.engines = engines
	}
}

// NewEnvvaultStore returns an EnvvaultStore over client.
func NewEnvvaultStore(client SecretReadWriter, opts ...EnvvaultOption) *EnvvaultStore {
	s := &EnvvaultStore{client: client}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *EnvvaultStore) Get(ctx context.Context, mount, path string) (secret.Document, error) {
	where := secret.StorePath(mount, path)
	if err := ctx.Err(); err != nil {
		return nil, secret.Unavailable(where, err)
	}

	data, err := s.client.ReadSecret(DataPath(mount, path))
	if err != nil {
		if isNotFound(err) {
			return nil, secret.NotFound(where, err)
		}
		return nil, secret.Unavailable(where, err)
	}
	if len(data) == 0 {
		return nil, secret.NotFound(where, nil)
	}

	return secret.Document(data), nil
}

func (s *EnvvaultStore) Put(ctx context.Context, mount, path string, doc secret.Document) error {
	where := secret.StorePath(mount, path)
	if err := ctx.Err(); err != nil {
		return secret.Unavailable(where, err)
	}

	if s.engines != nil {
		if err := ensureKVEngine(s.engines, mount); err != nil {
			return secret.Unavailable(where, err)
		}
	}

	if err := s.client.WriteSecret(DataPath(mount, path), doc); err != nil {
		return secret.Unavailable(where, err)
	}
	return nil
}

// DataPath returns the KV v2 API path of a logical path inside mount.
func DataPath(mount, path string) string {
	return secret.StorePath(strings.TrimRight(mount, "/")+"/data", path)
}

func isNotFound(err error) bool {
	if errors.Is(err, envvault.ErrPermissionDenied) {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "not found") || strings.Contains(msg, "no secret")
}
