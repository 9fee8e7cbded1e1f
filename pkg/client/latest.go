package client

import (
	"context"
	"errors"
	"sync"
)

// ErrSuperseded is returned for a call that was replaced by a newer one
// before its answer arrived.
var ErrSuperseded = errors.New("client: call superseded by a newer one")

// Latest keeps only the newest of overlapping calls, the way a search box
// fires a request per keystroke. Starting a call cancels the previous one,
// and an answer that arrives after a newer call started is discarded.
type Latest[T any] struct {
	mu     sync.Mutex
	gen    uint64
	cancel context.CancelFunc
}

// Do runs fn. It returns ErrSuperseded when another Do started meanwhile.
func (l *Latest[T]) Do(ctx context.Context, fn func(ctx context.Context) (T, error)) (T, error) {
	ctx, cancel := context.WithCancel(ctx)

	l.mu.Lock()
	if l.cancel != nil {
		l.cancel()
	}
	l.gen++
	gen := l.gen
	l.cancel = cancel
	l.mu.Unlock()

	v, err := fn(ctx)

	l.mu.Lock()
	defer l.mu.Unlock()
	if gen != l.gen {
		var zero T
		return zero, ErrSuperseded
	}
	l.cancel = nil
	cancel()
	return v, err
}

// Cancel aborts the call in flight, if any.
func (l *Latest[T]) Cancel() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.cancel != nil {
		l.cancel()
		l.cancel = nil
	}
	l.gen++
}
