package photos

import (
	"context"

	"golang.org/x/sync/semaphore"
)

// RefreshListener observes a credential refresh.
//
// BeforeRefresh runs before the token request is sent; returning an error
// aborts the refresh without contacting the token endpoint. AfterRefresh runs
// once the refresh attempt has completed and receives the refresh error, if
// any. An error returned from AfterRefresh fails the refresh call.
type RefreshListener interface {
	BeforeRefresh(ctx context.Context) error
	AfterRefresh(ctx context.Context, refreshErr error) error
}

// NoopListener is installed when no listener has been set.
type NoopListener struct{}

func (NoopListener) BeforeRefresh(context.Context) error { return nil }

func (NoopListener) AfterRefresh(context.Context, error) error { return nil }

// ListenerFuncs adapts a pair of functions to RefreshListener. Nil fields are no-ops.
type ListenerFuncs struct {
	Before func(ctx context.Context) error
	After  func(ctx context.Context, refreshErr error) error
}

func (l ListenerFuncs) BeforeRefresh(ctx context.Context) error {
	if l.Before == nil {
		return nil
	}
	return l.Before(ctx)
}

func (l ListenerFuncs) AfterRefresh(ctx context.Context, refreshErr error) error {
	if l.After == nil {
		return nil
	}
	return l.After(ctx, refreshErr)
}

// SerializedListener allows a single refresh in flight per listener. Callers
// that hit a 401 while another refresh is running wait in BeforeRefresh until
// it finishes, or until their context is done.
//
// Waiting callers still run their own refresh afterwards; the client has no
// notion of a shared in-flight refresh.
type SerializedListener struct {
	sem   *semaphore.Weighted
	inner RefreshListener
}

// NewSerializedListener wraps inner, which may be nil.
func NewSerializedListener(inner RefreshListener) *SerializedListener {
	if inner == nil {
		inner = NoopListener{}
	}
	return &SerializedListener{
		sem:   semaphore.NewWeighted(1),
		inner: inner,
	}
}

func (s *SerializedListener) BeforeRefresh(ctx context.Context) error {
	if err := s.sem.Acquire(ctx, 1); err != nil {
		return err
	}
	if err := s.inner.BeforeRefresh(ctx); err != nil {
		// AfterRefresh will not be called, so release here
		s.sem.Release(1)
		return err
	}
	return nil
}

func (s *SerializedListener) AfterRefresh(ctx context.Context, refreshErr error) error {
	defer s.sem.Release(1)
	return s.inner.AfterRefresh(ctx, refreshErr)
}
