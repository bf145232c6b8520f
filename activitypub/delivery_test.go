package activitypub

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/bihlink/shuttlecraft/storage"
)

func TestDeliveryPool(t *testing.T) {
	t.Run("ExhaustedAttemptsAreRecorded", func(t *testing.T) {
		require := require.New(t)
		store, err := storage.NewFileStore(t.TempDir())
		require.NoError(err)
		notifications := NewNotifications(store)
		resolver := newFakeResolver()
		resolver.fail["https://gone.example/u/bob"] = true

		pool := NewDeliveryPool(nil, resolver, notifications)
		pool.backoff = 0

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		done := make(chan error, 1)
		go func() { done <- pool.Run(1)(ctx) }()

		pool.Deliver("https://gone.example/u/bob", map[string]any{
			"id":   "https://example.com/m/aaa/activity",
			"type": "Create",
		})

		require.Eventually(func() bool {
			all, err := notifications.All()
			return err == nil && len(all) == 1
		}, 5*time.Second, 10*time.Millisecond)

		all, err := notifications.All()
		require.NoError(err)
		require.Equal("DeliveryFailure", all[0].Notification["type"])
		require.Equal("https://gone.example/u/bob", all[0].Notification["actor"])
		require.Equal("https://example.com/m/aaa/activity", all[0].Notification["activity"])

		// every attempt resolved the recipient before giving up
		require.Len(resolver.calls, deliveryAttempts)

		cancel()
		require.NoError(<-done)
	})

	t.Run("FullQueueDropsInsteadOfBlocking", func(t *testing.T) {
		require := require.New(t)
		store, err := storage.NewFileStore(t.TempDir())
		require.NoError(err)
		pool := NewDeliveryPool(nil, newFakeResolver(), NewNotifications(store))

		// no workers are running; the queue fills and further
		// deliveries return immediately
		for i := 0; i < cap(pool.queue)+10; i++ {
			pool.Deliver("https://remote.example/u/bob", map[string]any{"id": "x"})
		}
		require.Len(pool.queue, cap(pool.queue))
	})
}
