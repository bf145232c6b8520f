package activitypub

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/bihlink/shuttlecraft/storage"
)

func TestNotifications(t *testing.T) {
	t.Run("EmptyLog", func(t *testing.T) {
		require := require.New(t)
		store, err := storage.NewFileStore(t.TempDir())
		require.NoError(err)

		all, err := NewNotifications(store).All()
		require.NoError(err)
		require.Empty(all)
	})

	t.Run("AppendOrderAndTimestamps", func(t *testing.T) {
		require := require.New(t)
		store, err := storage.NewFileStore(t.TempDir())
		require.NoError(err)
		notifications := NewNotifications(store)
		base := time.Date(2023, 6, 1, 12, 0, 0, 0, time.UTC)
		clock := base
		notifications.now = func() time.Time {
			clock = clock.Add(time.Second)
			return clock
		}

		require.NoError(notifications.Add(map[string]any{"type": "Follow"}))
		require.NoError(notifications.Add(map[string]any{"type": "Like"}))

		all, err := notifications.All()
		require.NoError(err)
		require.Len(all, 2)
		require.Equal("Follow", all[0].Notification["type"])
		require.Equal("Like", all[1].Notification["type"])
		require.Equal(base.Add(time.Second).UnixMilli(), all[0].Time)
		require.Equal(base.Add(2*time.Second).UnixMilli(), all[1].Time)
	})

	t.Run("SurvivesReopen", func(t *testing.T) {
		require := require.New(t)
		dir := t.TempDir()
		store, err := storage.NewFileStore(dir)
		require.NoError(err)
		require.NoError(NewNotifications(store).Add(map[string]any{"type": "Follow"}))

		reopened, err := storage.NewFileStore(dir)
		require.NoError(err)
		all, err := NewNotifications(reopened).All()
		require.NoError(err)
		require.Len(all, 1)
	})
}
