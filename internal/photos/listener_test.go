package photos

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListenerFuncs(t *testing.T) {
	var zero ListenerFuncs
	assert.NoError(t, zero.BeforeRefresh(context.Background()))
	assert.NoError(t, zero.AfterRefresh(context.Background(), errors.New("ignored")))

	var got error
	l := ListenerFuncs{
		After: func(_ context.Context, refreshErr error) error {
			got = refreshErr
			return nil
		},
	}
	refreshErr := errors.New("boom")
	require.NoError(t, l.AfterRefresh(context.Background(), refreshErr))
	assert.Equal(t, refreshErr, got)
}

func TestSerializedListenerRunsOneRefreshAtATime(t *testing.T) {
	f := newFakeGoogle(t)

	var inFlight, maxInFlight atomic.Int32
	f.token = func(w http.ResponseWriter) {
		n := inFlight.Add(1)
		for {
			m := maxInFlight.Load()
			if n <= m || maxInFlight.CompareAndSwap(m, n) {
				break
			}
		}
		time.Sleep(20 * time.Millisecond)
		inFlight.Add(-1)
		writeToken(w, "T2")
	}

	c := f.client("family")
	c.SetRefreshListener(NewSerializedListener(nil))

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, c.RefreshCredentials(context.Background()))
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(4), f.tokenCalls.Load())
	assert.Equal(t, int32(1), maxInFlight.Load())
}

func TestSerializedListenerWaitHonoursContext(t *testing.T) {
	f := newFakeGoogle(t)
	c := f.client("family")
	l := NewSerializedListener(nil)
	c.SetRefreshListener(l)

	// occupy the slot as if another refresh were running
	require.NoError(t, l.BeforeRefresh(context.Background()))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	err := c.RefreshCredentials(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, int32(0), f.tokenCalls.Load())

	require.NoError(t, l.AfterRefresh(context.Background(), nil))
	assert.NoError(t, c.RefreshCredentials(context.Background()))
}

func TestSerializedListenerDelegates(t *testing.T) {
	f := newFakeGoogle(t)
	f.token = writeTokenError
	c := f.client("family")

	inner := &recordingListener{}
	c.SetRefreshListener(NewSerializedListener(inner))

	err := c.RefreshCredentials(context.Background())
	require.Error(t, err)
	assert.Equal(t, []string{"before", "after"}, inner.events)
	assert.Equal(t, []error{err}, inner.afterErrs)

	t.Run("inner before failure releases the slot", func(t *testing.T) {
		blocked := &recordingListener{beforeErr: errors.New("blocked")}
		l := NewSerializedListener(blocked)
		c.SetRefreshListener(l)
		assert.Error(t, c.RefreshCredentials(context.Background()))

		blocked.beforeErr = nil
		f.token = func(w http.ResponseWriter) { writeToken(w, "T3") }
		require.NoError(t, c.RefreshCredentials(context.Background()))
		assert.Equal(t, "T3", c.Credentials().AccessToken)
	})
}
