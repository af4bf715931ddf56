package ledger

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeyedMutex(t *testing.T) {
	t.Run("same key is exclusive", func(t *testing.T) {
		k := newKeyedMutex()
		unlock, err := k.Lock(context.Background(), "g1")
		require.NoError(t, err)

		acquired := make(chan struct{})
		go func() {
			u, err := k.Lock(context.Background(), "g1")
			if err == nil {
				close(acquired)
				u()
			}
		}()

		select {
		case <-acquired:
			t.Fatal("second lock acquired while first is held")
		case <-time.After(50 * time.Millisecond):
		}

		unlock()
		select {
		case <-acquired:
		case <-time.After(time.Second):
			t.Fatal("second lock never acquired")
		}
	})

	t.Run("different keys do not block", func(t *testing.T) {
		k := newKeyedMutex()
		unlock1, err := k.Lock(context.Background(), "g1")
		require.NoError(t, err)
		defer unlock1()

		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		unlock2, err := k.Lock(ctx, "g2")
		require.NoError(t, err)
		unlock2()
	})

	t.Run("waiting respects context", func(t *testing.T) {
		k := newKeyedMutex()
		unlock, err := k.Lock(context.Background(), "g1")
		require.NoError(t, err)

		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
		defer cancel()
		_, err = k.Lock(ctx, "g1")
		assert.ErrorIs(t, err, context.DeadlineExceeded)

		unlock()
		assert.Zero(t, k.size())
	})

	t.Run("unlock is idempotent", func(t *testing.T) {
		k := newKeyedMutex()
		unlock, err := k.Lock(context.Background(), "g1")
		require.NoError(t, err)
		unlock()
		unlock()
		assert.Zero(t, k.size())
	})
}
