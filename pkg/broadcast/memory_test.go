package broadcast

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryBroadcaster_Subscribe(t *testing.T) {
	t.Parallel()

	t.Run("subscribe creates active subscriber", func(t *testing.T) {
		t.Parallel()
		b := NewMemoryBroadcaster[string](10)
		defer b.Close()

		sub := b.Subscribe(context.Background())
		require.NotNil(t, sub)
		assert.NotNil(t, sub.Receive(context.Background()))
		assert.Equal(t, 1, b.Len())
	})

	t.Run("subscribe after close returns closed subscriber", func(t *testing.T) {
		t.Parallel()
		b := NewMemoryBroadcaster[string](10)
		require.NoError(t, b.Close())

		sub := b.Subscribe(context.Background())
		_, ok := <-sub.Receive(context.Background())
		assert.False(t, ok)
	})

	t.Run("context cancellation unsubscribes", func(t *testing.T) {
		t.Parallel()
		b := NewMemoryBroadcaster[string](10)
		defer b.Close()

		ctx, cancel := context.WithCancel(context.Background())
		sub := b.Subscribe(ctx)
		cancel()

		assert.Eventually(t, func() bool { return b.Len() == 0 }, time.Second, 5*time.Millisecond)
		_, ok := <-sub.Receive(context.Background())
		assert.False(t, ok)
	})

	t.Run("closing subscriber detaches it", func(t *testing.T) {
		t.Parallel()
		b := NewMemoryBroadcaster[int](1)
		defer b.Close()

		sub := b.Subscribe(context.Background())
		require.NoError(t, sub.Close())
		require.NoError(t, sub.Close())
		assert.Equal(t, 0, b.Len())
	})
}

func TestMemoryBroadcaster_Broadcast(t *testing.T) {
	t.Parallel()

	t.Run("broadcast to multiple subscribers", func(t *testing.T) {
		t.Parallel()
		b := NewMemoryBroadcaster[int](10)
		defer b.Close()

		ctx := context.Background()
		const numSubs = 5
		subs := make([]Subscriber[int], numSubs)
		for i := range numSubs {
			subs[i] = b.Subscribe(ctx)
		}

		require.NoError(t, b.Broadcast(ctx, Message[int]{Data: 42}))

		for i, sub := range subs {
			select {
			case received := <-sub.Receive(ctx):
				assert.Equal(t, 42, received.Data, "subscriber %d", i)
			case <-time.After(100 * time.Millisecond):
				t.Fatalf("subscriber %d timeout", i)
			}
		}
	})

	t.Run("broadcast after close", func(t *testing.T) {
		t.Parallel()
		b := NewMemoryBroadcaster[string](10)
		require.NoError(t, b.Close())

		err := b.Broadcast(context.Background(), Message[string]{Data: "test"})
		assert.ErrorIs(t, err, ErrClosed)
	})

	t.Run("slow subscriber is dropped", func(t *testing.T) {
		t.Parallel()
		b := NewMemoryBroadcaster[int](1)
		defer b.Close()

		ctx := context.Background()
		sub := b.Subscribe(ctx)

		require.NoError(t, b.Broadcast(ctx, Message[int]{Data: 1}))
		require.NoError(t, b.Broadcast(ctx, Message[int]{Data: 2}))

		assert.Equal(t, 0, b.Len())
		msg, ok := <-sub.Receive(ctx)
		require.True(t, ok)
		assert.Equal(t, 1, msg.Data)
		_, ok = <-sub.Receive(ctx)
		assert.False(t, ok)
	})

	t.Run("conflating subscriber keeps latest", func(t *testing.T) {
		t.Parallel()
		b := NewMemoryBroadcaster[int](1, WithConflation())
		defer b.Close()

		ctx := context.Background()
		sub := b.Subscribe(ctx)

		for i := 1; i <= 10; i++ {
			require.NoError(t, b.Broadcast(ctx, Message[int]{Data: i}))
		}

		assert.Equal(t, 1, b.Len())
		msg := <-sub.Receive(ctx)
		assert.Equal(t, 10, msg.Data)
	})

	t.Run("concurrent conflating broadcasts", func(t *testing.T) {
		t.Parallel()
		b := NewMemoryBroadcaster[int](2, WithConflation())
		defer b.Close()

		ctx := context.Background()
		sub := b.Subscribe(ctx)

		var wg sync.WaitGroup
		for i := range 50 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_ = b.Broadcast(ctx, Message[int]{Data: i})
			}()
		}
		wg.Wait()

		assert.Len(t, sub.Receive(ctx), 2)
	})
}

func TestMemoryBroadcaster_Close(t *testing.T) {
	t.Parallel()

	b := NewMemoryBroadcaster[string](10)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	subs := []Subscriber[string]{b.Subscribe(ctx), b.Subscribe(context.Background())}
	require.NoError(t, b.Close())
	require.NoError(t, b.Close())

	for _, sub := range subs {
		_, ok := <-sub.Receive(context.Background())
		assert.False(t, ok)
	}
	assert.Equal(t, 0, b.Len())
}
