// Package kvrepo implements repository contracts as whole-collection JSON
// arrays stored under one KV key each.
package kvrepo

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/and161185/clinic-keeper/internal/errs"
	"github.com/and161185/clinic-keeper/internal/idgen"
	"github.com/and161185/clinic-keeper/internal/storage"
)

// Entity is the pointer side of a record type: it exposes identity and lets
// the collection stamp creation and modification times.
type Entity[T any] interface {
	*T
	EntityID() string
	Stamp(id string, now time.Time)
	Touch(now time.Time)
}

// Patch applies a typed partial update.
type Patch[T any] interface {
	Apply(dst *T)
}

// normalizer is implemented by records that need defaults after decoding.
type normalizer interface{ Normalize() }

// Deps are the collaborators shared by all collections.
type Deps struct {
	IDs    idgen.Generator
	Now    func() time.Time
	Logger *zap.Logger
}

func (d Deps) withDefaults() Deps {
	if d.IDs == nil {
		d.IDs = idgen.Default
	}
	if d.Now == nil {
		d.Now = func() time.Time { return time.Now().UTC() }
	}
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}
	return d
}

// Collection stores []T under a single key. Every mutation reads the whole
// array, changes it in memory and writes it back exactly once.
// The mutex serialises read-modify-write cycles on this collection only.
type Collection[T any, PT Entity[T], P Patch[T]] struct {
	kv   storage.KV
	key  string
	deps Deps
	log  *zap.Logger
	mu   sync.Mutex
}

// New constructs a collection stored under key.
func New[T any, PT Entity[T], P Patch[T]](kv storage.KV, key string, deps Deps) *Collection[T, PT, P] {
	deps = deps.withDefaults()
	return &Collection[T, PT, P]{
		kv:   kv,
		key:  key,
		deps: deps,
		log:  deps.Logger.With(zap.String("collection", key)),
	}
}

// Key returns the storage key of the collection.
func (c *Collection[T, PT, P]) Key() string { return c.key }

func (c *Collection[T, PT, P]) load(ctx context.Context) ([]T, error) {
	raw, ok, err := c.kv.Get(ctx, c.key)
	if err != nil {
		return nil, fmt.Errorf("%w: key %q: %w", errs.ErrStorageRead, c.key, err)
	}
	if !ok || len(raw) == 0 {
		return []T{}, nil
	}
	var items []T
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, fmt.Errorf("%w: key %q: decode: %w", errs.ErrStorageRead, c.key, err)
	}
	if items == nil {
		items = []T{}
	}
	for i := range items {
		if n, ok := any(PT(&items[i])).(normalizer); ok {
			n.Normalize()
		}
	}
	return items, nil
}

func (c *Collection[T, PT, P]) save(ctx context.Context, items []T) error {
	raw, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("%w: key %q: encode: %w", errs.ErrStorageWrite, c.key, err)
	}
	if err := c.kv.Set(ctx, c.key, raw); err != nil {
		return fmt.Errorf("%w: key %q: %w", errs.ErrStorageWrite, c.key, err)
	}
	c.log.Debug("collection written", zap.Int("records", len(items)))
	return nil
}

func (c *Collection[T, PT, P]) indexOf(items []T, id string) int {
	for i := range items {
		if PT(&items[i]).EntityID() == id {
			return i
		}
	}
	return -1
}

// List returns all records.
func (c *Collection[T, PT, P]) List(ctx context.Context) ([]T, error) {
	return c.load(ctx)
}

// Get scans the collection for id.
func (c *Collection[T, PT, P]) Get(ctx context.Context, id string) (T, bool, error) {
	var zero T
	items, err := c.load(ctx)
	if err != nil {
		return zero, false, err
	}
	if i := c.indexOf(items, id); i >= 0 {
		return items[i], true, nil
	}
	return zero, false, nil
}

// Insert stamps rec with a fresh id and creation time and appends it.
// Any id or timestamps already present on rec are overwritten.
func (c *Collection[T, PT, P]) Insert(ctx context.Context, rec T) (T, error) {
	var zero T
	id, err := c.deps.IDs.NewID()
	if err != nil {
		return zero, fmt.Errorf("generate id: %w", err)
	}
	PT(&rec).Stamp(id, c.deps.Now())
	if n, ok := any(PT(&rec)).(normalizer); ok {
		n.Normalize()
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	items, err := c.load(ctx)
	if err != nil {
		return zero, err
	}
	items = append(items, rec)
	if err := c.save(ctx, items); err != nil {
		return zero, err
	}
	return rec, nil
}

// Update patches the record with the given id.
func (c *Collection[T, PT, P]) Update(ctx context.Context, id string, patch P) (T, bool, error) {
	var zero T

	c.mu.Lock()
	defer c.mu.Unlock()

	items, err := c.load(ctx)
	if err != nil {
		return zero, false, err
	}
	i := c.indexOf(items, id)
	if i < 0 {
		return zero, false, nil
	}
	patch.Apply(&items[i])
	PT(&items[i]).Touch(c.deps.Now())
	if err := c.save(ctx, items); err != nil {
		return zero, false, err
	}
	return items[i], true, nil
}

// Delete removes the record with the given id. Nothing is written when it is absent.
func (c *Collection[T, PT, P]) Delete(ctx context.Context, id string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	items, err := c.load(ctx)
	if err != nil {
		return false, err
	}
	i := c.indexOf(items, id)
	if i < 0 {
		return false, nil
	}
	items = append(items[:i], items[i+1:]...)
	if err := c.save(ctx, items); err != nil {
		return false, err
	}
	return true, nil
}
