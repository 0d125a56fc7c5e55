package vault

import (
	"context"
	"errors"

	"github.com/hashicorp/vault/api"

	"github.com/eliasmeireles/secretctl/cmd/secretctl/internal/feature/secret"
)

// KVStore reads and writes documents through the KV v2 engine of the Vault
// API client. Paths are logical: the "data/" infix is added by the client.
type KVStore struct {
	client *api.Client
}

// NewKVStore returns a KVStore over client.
func NewKVStore(client *api.Client) *KVStore {
	return &KVStore{client: client}
}

func (s *KVStore) Get(ctx context.Context, mount, path string) (secret.Document, error) {
	where := secret.StorePath(mount, path)

	kv, err := s.client.KVv2(mount).Get(ctx, path)
	if err != nil {
		if errors.Is(err, api.ErrSecretNotFound) {
			return nil, secret.NotFound(where, nil)
		}
		return nil, secret.Unavailable(where, err)
	}
	if kv == nil || kv.Data == nil {
		return nil, secret.NotFound(where, nil)
	}

	return secret.Document(kv.Data), nil
}

func (s *KVStore) Put(ctx context.Context, mount, path string, doc secret.Document) error {
	if _, err := s.client.KVv2(mount).Put(ctx, path, doc); err != nil {
		return secret.Unavailable(secret.StorePath(mount, path), err)
	}
	return nil
}
