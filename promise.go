package store

import (
	"context"
	"sync"
)

// Awaitable is the contract asynchronous action results satisfy. A reducer or
// thunk returning an Awaitable is treated as async: the engine brackets it
// with loading bookkeeping and defers any merge until settlement.
type Awaitable interface {
	Await(ctx context.Context) (any, error)
}

// Promise is a single-settlement container for an asynchronous result.
type Promise struct {
	done  chan struct{}
	once  sync.Once
	value any
	err   error
}

// NewPromise runs fn in its own goroutine and settles the returned promise
// with fn's result.
func NewPromise(fn func() (any, error)) *Promise {
	p := newPromise()
	go func() {
		p.settle(fn())
	}()
	return p
}

// Resolve returns a promise already settled with value.
func Resolve(value any) *Promise {
	p := newPromise()
	p.settle(value, nil)
	return p
}

// Reject returns a promise already settled with err.
func Reject(err error) *Promise {
	p := newPromise()
	p.settle(nil, err)
	return p
}

func newPromise() *Promise {
	return &Promise{done: make(chan struct{})}
}

func (p *Promise) settle(value any, err error) {
	p.once.Do(func() {
		p.value = value
		p.err = err
		close(p.done)
	})
}

// Await blocks until the promise settles or ctx is done. Settlement is
// sticky: every Await observes the same value and error.
func (p *Promise) Await(ctx context.Context) (any, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	select {
	case <-p.done:
		return p.value, p.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Done exposes settlement to select loops; it is closed once the promise
// settles.
func (p *Promise) Done() <-chan struct{} {
	return p.done
}
