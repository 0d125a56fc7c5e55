package secret

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/hashicorp/go-multierror"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/eliasmeireles/secretctl/cmd/secretctl/internal/feature/dsn"
	"github.com/eliasmeireles/secretctl/cmd/secretctl/internal/metrics"
)

// Propagator fetches secrets from a store and copies them into destinations.
// It holds no state between calls.
type Propagator struct {
	store       Reader
	concurrency int
}

// Option configures a Propagator.
type Option func(*Propagator)

// WithConcurrency bounds how many entries CopyAll writes at once.
// Values below one are treated as one.
func WithConcurrency(n int) Option {
	return func(p *Propagator) {
		if n < 1 {
			n = 1
		}
		p.concurrency = n
	}
}

// NewPropagator returns a Propagator reading from store.
func NewPropagator(store Reader, opts ...Option) *Propagator {
	p := &Propagator{store: store, concurrency: 1}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// FetchField reads the document at the locator's mount and path and returns
// the scalar field named by the locator's last segment.
func (p *Propagator) FetchField(ctx context.Context, locator string) (value string, err error) {
	defer func() { metrics.RecordFetch(metrics.ModeScalar, err) }()

	l, err := dsn.Resolve(locator)
	if err != nil {
		return "", err
	}
	if l.Path == "" {
		return "", fmt.Errorf("%w: %q has no document path before field %q", dsn.ErrInvalidLocator, locator, l.Name)
	}

	log.Debugf("🔍 Reading field %s from %s", l.Name, StorePath(l.Mount, l.Path))

	doc, err := p.store.Get(ctx, l.Mount, l.Path)
	if err != nil {
		return "", err
	}

	value, err = doc.String(l.Name)
	if err != nil {
		return "", fieldError(err, StorePath(l.Mount, l.Path), l.Name)
	}
	return value, nil
}

// FetchDocument reads the whole document at mount/path.
func (p *Propagator) FetchDocument(ctx context.Context, mount, path string) (doc Document, err error) {
	defer func() { metrics.RecordFetch(metrics.ModeDocument, err) }()

	log.Debugf("🔍 Reading document %s", StorePath(mount, path))

	return p.store.Get(ctx, mount, path)
}

// FetchDocumentAt resolves locator and reads the whole document it names.
// The last segment is part of the store path.
func (p *Propagator) FetchDocumentAt(ctx context.Context, locator string) (Document, error) {
	l, err := dsn.Resolve(locator)
	if err != nil {
		return nil, err
	}
	return p.FetchDocument(ctx, l.Mount, l.Join())
}

// Copy fetches the scalar at sourceLocator and writes it to dst under
// destinationKey. The key is passed through as given.
func (p *Propagator) Copy(ctx context.Context, sourceLocator, destinationKey string, dst Destination) error {
	value, err := p.FetchField(ctx, sourceLocator)
	if err != nil {
		return fmt.Errorf("copy %s: %w", destinationKey, err)
	}
	return write(ctx, dst, destinationKey, value)
}

// CopyAll copies every destinationKey -> locator entry of mapping into dst.
// Entries are independent: a failure does not stop or undo the others, and
// all failures are returned together.
func (p *Propagator) CopyAll(ctx context.Context, mapping map[string]string, dst Destination) error {
	keys := sortedKeys(mapping)
	errs := make([]error, len(keys))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.concurrency)

	for i, key := range keys {
		locator := mapping[key]
		g.Go(func() error {
			errs[i] = p.Copy(gctx, locator, key, dst)
			return nil
		})
	}
	_ = g.Wait()

	// Failures are reported in key order.
	var result *multierror.Error
	for _, err := range errs {
		if err != nil {
			result = multierror.Append(result, err)
		}
	}
	return result.ErrorOrNil()
}

// CopyFields reads the document at sourceLocator once and writes each
// destinationKey -> field entry of fields into dst.
func (p *Propagator) CopyFields(ctx context.Context, sourceLocator string, fields map[string]string, dst Destination) error {
	doc, err := p.FetchDocumentAt(ctx, sourceLocator)
	if err != nil {
		return fmt.Errorf("copy fields from %s: %w", sourceLocator, err)
	}

	where := sourceLocator
	if l, err := dsn.Resolve(sourceLocator); err == nil {
		where = StorePath(l.Mount, l.Join())
	}

	var result *multierror.Error
	for _, key := range sortedKeys(fields) {
		field := fields[key]
		value, err := doc.String(field)
		if err != nil {
			result = multierror.Append(result, fmt.Errorf("copy %s: %w", key, fieldError(err, where, field)))
			continue
		}
		if err := write(ctx, dst, key, value); err != nil {
			result = multierror.Append(result, err)
		}
	}
	return result.ErrorOrNil()
}

// Publish writes literal key/value pairs into dst in key order. Like
// CopyAll, every entry is attempted and failures are returned together.
func Publish(ctx context.Context, values map[string]string, dst Destination) error {
	var result *multierror.Error
	for _, key := range sortedKeys(values) {
		if err := write(ctx, dst, key, values[key]); err != nil {
			result = multierror.Append(result, err)
		}
	}
	return result.ErrorOrNil()
}

func write(ctx context.Context, dst Destination, key, value string) error {
	err := dst.Set(ctx, key, value)
	metrics.RecordCopy(dst.Name(), err)
	if err != nil {
		log.Errorf("❌ Failed to write %s to %s: %v", key, dst.Name(), err)
		return WriteFailed(dst.Name(), key, err)
	}
	log.Infof("✅ Copied %s to %s", key, dst.Name())
	return nil
}

func fieldError(err error, locator, key string) error {
	switch {
	case errors.Is(err, ErrFieldNotScalar):
		return newError(ErrFieldNotScalar, locator, key, nil)
	case errors.Is(err, ErrFieldNotFound):
		return newError(ErrFieldNotFound, locator, key, nil)
	}
	return err
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
