// Package remote holds plumbing shared by the remote adapters: memoized
// initialization and credential persistence in the local tier.
package remote

import (
	"context"
	"sync"

	"golang.org/x/sync/singleflight"
)

// Initializer runs an expensive setup function at most once at a time and
// remembers its outcome, success or failure, until Reset.
type Initializer[T any] struct {
	group singleflight.Group

	mu    sync.Mutex
	done  bool
	value T
	err   error
	gen   uint64
}

// Get returns the memoized handle, running init when nothing is memoized.
// Concurrent callers share one run of init.
func (i *Initializer[T]) Get(ctx context.Context, init func(ctx context.Context) (T, error)) (T, error) {
	i.mu.Lock()
	if i.done {
		v, err := i.value, i.err
		i.mu.Unlock()
		return v, err
	}
	gen := i.gen
	i.mu.Unlock()

	res, err, _ := i.group.Do("init", func() (any, error) {
		i.mu.Lock()
		if i.done && gen == i.gen {
			v, err := i.value, i.err
			i.mu.Unlock()
			return v, err
		}
		i.mu.Unlock()

		v, err := init(context.WithoutCancel(ctx))

		i.mu.Lock()
		// A Reset during init discards this result.
		if gen == i.gen {
			i.done, i.value, i.err = true, v, err
		}
		i.mu.Unlock()
		return v, err
	})

	v, _ := res.(T)
	return v, err
}

// Ready reports whether an initialization attempt has completed successfully.
func (i *Initializer[T]) Ready() bool {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.done && i.err == nil
}

// Reset forgets the memoized outcome so the next Get runs init again.
func (i *Initializer[T]) Reset() {
	i.mu.Lock()
	defer i.mu.Unlock()

	var zero T
	i.done, i.value, i.err = false, zero, nil
	i.gen++
	i.group.Forget("init")
}
