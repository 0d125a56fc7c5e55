package secret

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eliasmeireles/secretctl/cmd/secretctl/internal/feature/dsn"
)

// recordingDestination stores values under lower-kebab keys like a CI store.
type recordingDestination struct {
	mu     sync.Mutex
	values map[string]string
	fail   map[string]error
}

func newRecordingDestination() *recordingDestination {
	return &recordingDestination{values: map[string]string{}, fail: map[string]error{}}
}

func (r *recordingDestination) Name() string { return "recording" }

func (r *recordingDestination) Set(_ context.Context, key, value string) error {
	if err := r.fail[key]; err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.values[strings.ReplaceAll(strings.ToLower(key), "_", "-")] = value
	return nil
}

func seededStore(t *testing.T) *MemoryStore {
	t.Helper()

	store := NewMemoryStore()
	ctx := context.Background()
	require.NoError(t, store.Put(ctx, "projects", "acme/production/database", Document{
		"password": "s3cr3t",
		"username": "acme",
		"port":     5432,
		"options":  map[string]any{"ssl": true},
	}))
	require.NoError(t, store.Put(ctx, "projects", "acme/production/registry", Document{
		"token": "reg-token",
	}))
	return store
}

func TestPropagator_FetchField(t *testing.T) {
	ctx := context.Background()
	p := NewPropagator(seededStore(t))

	t.Run("given scalar locator then returns field value", func(t *testing.T) {
		got, err := p.FetchField(ctx, "hashivault://projects/acme/production/database/password")
		require.NoError(t, err)
		assert.Equal(t, "s3cr3t", got)
	})

	t.Run("given every locator form then returns the same value", func(t *testing.T) {
		for _, locator := range []string{
			"hashivault:///projects/acme/production/database/password",
			"/projects/acme/production/database/password",
			"projects/acme/production/database/password",
			"/projects/data/acme/production/database/password",
		} {
			got, err := p.FetchField(ctx, locator)
			require.NoError(t, err, locator)
			assert.Equal(t, "s3cr3t", got, locator)
		}
	})

	t.Run("given numeric field then formats it", func(t *testing.T) {
		got, err := p.FetchField(ctx, "projects/acme/production/database/port")
		require.NoError(t, err)
		assert.Equal(t, "5432", got)
	})

	t.Run("given missing key then returns field not found", func(t *testing.T) {
		_, err := p.FetchField(ctx, "projects/acme/production/database/missing")
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrFieldNotFound)

		var serr *Error
		require.True(t, errors.As(err, &serr))
		assert.Equal(t, "projects/acme/production/database", serr.Locator)
		assert.Equal(t, "missing", serr.Key)
	})

	t.Run("given object field then returns field not scalar", func(t *testing.T) {
		_, err := p.FetchField(ctx, "projects/acme/production/database/options")
		assert.ErrorIs(t, err, ErrFieldNotScalar)
	})

	t.Run("given missing document then returns secret not found", func(t *testing.T) {
		_, err := p.FetchField(ctx, "projects/acme/staging/database/password")
		assert.ErrorIs(t, err, ErrSecretNotFound)
		assert.Contains(t, err.Error(), "projects/acme/staging/database")
	})

	t.Run("given mount and field only then returns invalid locator", func(t *testing.T) {
		_, err := p.FetchField(ctx, "projects/password")
		assert.ErrorIs(t, err, dsn.ErrInvalidLocator)
	})

	t.Run("given single segment then returns invalid locator", func(t *testing.T) {
		_, err := p.FetchField(ctx, "hashivault://projects")
		assert.ErrorIs(t, err, dsn.ErrInvalidLocator)
	})
}

func TestPropagator_FetchDocument(t *testing.T) {
	ctx := context.Background()
	p := NewPropagator(seededStore(t))

	t.Run("given mount and path then returns whole document", func(t *testing.T) {
		doc, err := p.FetchDocument(ctx, "projects", "acme/production/database")
		require.NoError(t, err)
		assert.Equal(t, []string{"options", "password", "port", "username"}, doc.Keys())
	})

	t.Run("given locator then name is part of the store path", func(t *testing.T) {
		doc, err := p.FetchDocumentAt(ctx, "hashivault://projects/data/acme/production/registry")
		require.NoError(t, err)
		assert.Equal(t, Document{"token": "reg-token"}, doc)
	})

	t.Run("given unknown path then returns secret not found", func(t *testing.T) {
		_, err := p.FetchDocumentAt(ctx, "projects/acme/production/cache")
		assert.ErrorIs(t, err, ErrSecretNotFound)
	})

	t.Run("given invalid locator then returns invalid locator", func(t *testing.T) {
		_, err := p.FetchDocumentAt(ctx, "/")
		assert.ErrorIs(t, err, dsn.ErrInvalidLocator)
	})
}

func TestPropagator_Copy(t *testing.T) {
	ctx := context.Background()

	t.Run("given CI destination then stores normalized key with fetched value", func(t *testing.T) {
		p := NewPropagator(seededStore(t))
		ci := newRecordingDestination()

		err := p.Copy(ctx, "hashivault://projects/acme/production/database/password", "DATABASE_PASSWORD", ci)
		require.NoError(t, err)
		assert.Equal(t, map[string]string{"database-password": "s3cr3t"}, ci.values)
	})

	t.Run("given same key twice then last write wins", func(t *testing.T) {
		p := NewPropagator(seededStore(t))
		ci := newRecordingDestination()

		require.NoError(t, p.Copy(ctx, "projects/acme/production/database/password", "DB", ci))
		require.NoError(t, p.Copy(ctx, "projects/acme/production/database/username", "DB", ci))
		assert.Equal(t, "acme", ci.values["db"])
	})

	t.Run("given destination rejection then returns write failed", func(t *testing.T) {
		p := NewPropagator(seededStore(t))
		ci := newRecordingDestination()
		ci.fail["DATABASE_PASSWORD"] = errors.New("403 forbidden")

		err := p.Copy(ctx, "projects/acme/production/database/password", "DATABASE_PASSWORD", ci)
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrDestinationWriteFailed)
		assert.Contains(t, err.Error(), "403 forbidden")
		assert.Contains(t, err.Error(), "DATABASE_PASSWORD")
	})

	t.Run("given fetch failure then destination is untouched", func(t *testing.T) {
		p := NewPropagator(seededStore(t))
		ci := newRecordingDestination()

		err := p.Copy(ctx, "projects/acme/production/database/nope", "NOPE", ci)
		assert.ErrorIs(t, err, ErrFieldNotFound)
		assert.Empty(t, ci.values)
	})
}

func TestPropagator_CopyAll(t *testing.T) {
	ctx := context.Background()

	t.Run("must copy every entry", func(t *testing.T) {
		p := NewPropagator(seededStore(t), WithConcurrency(4))
		ci := newRecordingDestination()

		err := p.CopyAll(ctx, map[string]string{
			"DATABASE_PASSWORD": "projects/acme/production/database/password",
			"DATABASE_USERNAME": "projects/acme/production/database/username",
			"REGISTRY_TOKEN":    "projects/acme/production/registry/token",
		}, ci)
		require.NoError(t, err)
		assert.Equal(t, map[string]string{
			"database-password": "s3cr3t",
			"database-username": "acme",
			"registry-token":    "reg-token",
		}, ci.values)
	})

	t.Run("given failing entries then others still land and all errors are joined", func(t *testing.T) {
		p := NewPropagator(seededStore(t))
		ci := newRecordingDestination()
		ci.fail["REGISTRY_TOKEN"] = errors.New("rejected")

		err := p.CopyAll(ctx, map[string]string{
			"DATABASE_PASSWORD": "projects/acme/production/database/password",
			"MISSING":           "projects/acme/production/database/missing",
			"REGISTRY_TOKEN":    "projects/acme/production/registry/token",
		}, ci)
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrFieldNotFound)
		assert.ErrorIs(t, err, ErrDestinationWriteFailed)
		assert.Equal(t, map[string]string{"database-password": "s3cr3t"}, ci.values)
	})

	t.Run("given concurrent copies then failures are reported in key order", func(t *testing.T) {
		mapping := map[string]string{}
		for _, key := range []string{"E", "A", "D", "C", "B"} {
			mapping[key] = "projects/acme/production/database/missing-" + strings.ToLower(key)
		}

		for i := 0; i < 10; i++ {
			p := NewPropagator(seededStore(t), WithConcurrency(5))
			err := p.CopyAll(ctx, mapping, newRecordingDestination())
			require.Error(t, err)

			msg := err.Error()
			positions := make([]int, 0, len(mapping))
			for _, key := range []string{"A", "B", "C", "D", "E"} {
				idx := strings.Index(msg, "copy "+key+":")
				require.GreaterOrEqual(t, idx, 0, key)
				positions = append(positions, idx)
			}
			assert.IsIncreasing(t, positions)
		}
	})

	t.Run("given empty mapping then does nothing", func(t *testing.T) {
		p := NewPropagator(seededStore(t))
		assert.NoError(t, p.CopyAll(ctx, nil, newRecordingDestination()))
	})
}

func TestPropagator_CopyFields(t *testing.T) {
	ctx := context.Background()

	t.Run("must read the document once and write each field", func(t *testing.T) {
		store := &countingReader{Reader: seededStore(t)}
		p := NewPropagator(store)
		ci := newRecordingDestination()

		err := p.CopyFields(ctx, "hashivault://projects/acme/production/database", map[string]string{
			"DATABASE_PASSWORD": "password",
			"DATABASE_USERNAME": "username",
			"DATABASE_PORT":     "port",
		}, ci)
		require.NoError(t, err)
		assert.Equal(t, 1, store.calls)
		assert.Equal(t, "5432", ci.values["database-port"])
		assert.Equal(t, "acme", ci.values["database-username"])
	})

	t.Run("given missing field then reports it and writes the rest", func(t *testing.T) {
		p := NewPropagator(seededStore(t))
		ci := newRecordingDestination()

		err := p.CopyFields(ctx, "projects/acme/production/database", map[string]string{
			"DATABASE_PASSWORD": "password",
			"DATABASE_HOST":     "host",
		}, ci)
		assert.ErrorIs(t, err, ErrFieldNotFound)
		assert.Equal(t, map[string]string{"database-password": "s3cr3t"}, ci.values)
	})

	t.Run("given missing document then nothing is written", func(t *testing.T) {
		p := NewPropagator(seededStore(t))
		ci := newRecordingDestination()

		err := p.CopyFields(ctx, "projects/acme/staging/database", map[string]string{"A": "a"}, ci)
		assert.ErrorIs(t, err, ErrSecretNotFound)
		assert.Empty(t, ci.values)
	})
}

type countingReader struct {
	Reader
	calls int
}

func (c *countingReader) Get(ctx context.Context, mount, path string) (Document, error) {
	c.calls++
	return c.Reader.Get(ctx, mount, path)
}

func TestPublish(t *testing.T) {
	ctx := context.Background()

	t.Run("must write every literal", func(t *testing.T) {
		ci := newRecordingDestination()
		require.NoError(t, Publish(ctx, map[string]string{"NODE_ENV": "production", "APP_VERSION": "1.0.0"}, ci))
		assert.Equal(t, map[string]string{"node-env": "production", "app-version": "1.0.0"}, ci.values)
	})

	t.Run("given rejected key then returns write failed and writes the rest", func(t *testing.T) {
		ci := newRecordingDestination()
		ci.fail["A"] = errors.New("invalid name")

		err := Publish(ctx, map[string]string{"A": "1", "B": "2"}, ci)
		assert.ErrorIs(t, err, ErrDestinationWriteFailed)
		assert.Equal(t, map[string]string{"b": "2"}, ci.values)
	})
}
