package crmclient

import (
	"context"
	"sync"
)

// LatestOnly runs loads for one view so that only the newest result is
// delivered. Starting a load cancels the previous one; a load that finishes
// after being replaced returns ErrSuperseded.
type LatestOnly[T any] struct {
	mu     sync.Mutex
	seq    uint64
	cancel context.CancelFunc
}

func (l *LatestOnly[T]) Do(ctx context.Context, load func(context.Context) (T, error)) (T, error) {
	l.mu.Lock()
	l.seq++
	mine := l.seq
	if l.cancel != nil {
		l.cancel()
	}
	loadCtx, cancel := context.WithCancel(ctx)
	l.cancel = cancel
	l.mu.Unlock()

	value, err := load(loadCtx)

	l.mu.Lock()
	latest := l.seq == mine
	if latest {
		l.cancel = nil
	}
	l.mu.Unlock()
	cancel()

	var zero T
	if !latest {
		return zero, ErrSuperseded
	}
	return value, err
}
