// Package storagetest provides KV doubles for tests that need to observe or
// break persistence.
package storagetest

import (
	"context"
	"errors"
	"sync"

	"github.com/and161185/clinic-keeper/internal/storage"
	"github.com/and161185/clinic-keeper/internal/storage/memory"
)

// ErrInjected is returned by Flaky for keys configured to fail.
var ErrInjected = errors.New("injected storage failure")

// Flaky wraps an in-memory KV, counts writes per key and fails reads or
// writes on demand.
type Flaky struct {
	*memory.Store

	mu        sync.Mutex
	writes    map[string]int
	failSet   map[string]int // remaining failures; -1 = forever
	failGet   map[string]bool
	setCalled []string
}

var _ storage.KV = (*Flaky)(nil)

// NewFlaky returns an empty Flaky store.
func NewFlaky() *Flaky {
	return &Flaky{
		Store:   memory.New(),
		writes:  map[string]int{},
		failSet: map[string]int{},
		failGet: map[string]bool{},
	}
}

// FailSet makes the next n writes to key fail; n < 0 fails every write.
func (f *Flaky) FailSet(key string, n int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failSet[key] = n
}

// FailGet makes every read of key fail until Heal is called.
func (f *Flaky) FailGet(key string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failGet[key] = true
}

// Heal clears all injected failures.
func (f *Flaky) Heal() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failSet = map[string]int{}
	f.failGet = map[string]bool{}
}

// Writes reports how many successful writes hit key.
func (f *Flaky) Writes(key string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.writes[key]
}

// ResetWrites zeroes the write counters.
func (f *Flaky) ResetWrites() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.writes = map[string]int{}
	f.setCalled = nil
}

// WriteOrder lists keys in the order successful writes happened.
func (f *Flaky) WriteOrder() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.setCalled...)
}

func (f *Flaky) Get(ctx context.Context, key string) ([]byte, bool, error) {
	f.mu.Lock()
	fail := f.failGet[key]
	f.mu.Unlock()
	if fail {
		return nil, false, ErrInjected
	}
	return f.Store.Get(ctx, key)
}

func (f *Flaky) Set(ctx context.Context, key string, value []byte) error {
	f.mu.Lock()
	if n, ok := f.failSet[key]; ok && n != 0 {
		if n > 0 {
			f.failSet[key] = n - 1
		}
		f.mu.Unlock()
		return ErrInjected
	}
	f.mu.Unlock()

	if err := f.Store.Set(ctx, key, value); err != nil {
		return err
	}
	f.mu.Lock()
	f.writes[key]++
	f.setCalled = append(f.setCalled, key)
	f.mu.Unlock()
	return nil
}
