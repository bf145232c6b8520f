package activitypub

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestProcessInbox(t *testing.T) {
	ctx := context.Background()

	t.Run("FollowAcceptedAndRecorded", func(t *testing.T) {
		require := require.New(t)
		svc, _, _, deliverer := testService(t)
		mockIdentity(t, svc)
		follow := map[string]any{
			"type":   "Follow",
			"actor":  "https://remote.example/u/bob",
			"object": "https://example.com/u/test",
		}

		require.NoError(svc.ProcessInbox(ctx, follow))
		followers, err := svc.Relationships().Followers()
		require.NoError(err)
		require.Equal([]string{"https://remote.example/u/bob"}, followers)

		deliveries := deliverer.all()
		require.Len(deliveries, 1)
		require.Equal("https://remote.example/u/bob", deliveries[0].actor)
		accept := deliveries[0].activity
		require.Equal("Accept", accept["type"])
		require.Equal("https://example.com/u/test", accept["actor"])
		require.True(strings.HasPrefix(accept["id"].(string), "https://example.com/u/test#accepts/"))
		require.Equal(follow, accept["object"])

		notifications, err := svc.Notifications().All()
		require.NoError(err)
		require.Len(notifications, 1)
	})

	t.Run("FollowFromUnresolvableActorIgnored", func(t *testing.T) {
		require := require.New(t)
		svc, resolver, _, deliverer := testService(t)
		mockIdentity(t, svc)
		resolver.fail["https://gone.example/u/bob"] = true

		require.NoError(svc.ProcessInbox(ctx, map[string]any{
			"type":  "Follow",
			"actor": "https://gone.example/u/bob",
		}))
		followers, err := svc.Relationships().Followers()
		require.NoError(err)
		require.Empty(followers)
		require.Empty(deliverer.all())
	})

	t.Run("UndoFollowRemovesFollower", func(t *testing.T) {
		require := require.New(t)
		svc, _, _, _ := testService(t)
		mockIdentity(t, svc)
		follow := map[string]any{
			"type":   "Follow",
			"actor":  "https://remote.example/u/bob",
			"object": "https://example.com/u/test",
		}
		require.NoError(svc.ProcessInbox(ctx, follow))

		require.NoError(svc.ProcessInbox(ctx, map[string]any{
			"type":   "Undo",
			"actor":  "https://remote.example/u/bob",
			"object": follow,
		}))
		followers, err := svc.Relationships().Followers()
		require.NoError(err)
		require.Empty(followers)
	})

	t.Run("UndoOfOtherActivitiesIgnored", func(t *testing.T) {
		require := require.New(t)
		svc, _, _, _ := testService(t)
		mockIdentity(t, svc)
		require.NoError(svc.ProcessInbox(ctx, map[string]any{
			"type":   "Follow",
			"actor":  "https://remote.example/u/bob",
			"object": "https://example.com/u/test",
		}))

		require.NoError(svc.ProcessInbox(ctx, map[string]any{
			"type":   "Undo",
			"actor":  "https://remote.example/u/bob",
			"object": map[string]any{"type": "Like", "id": "https://remote.example/likes/1"},
		}))
		followers, err := svc.Relationships().Followers()
		require.NoError(err)
		require.Len(followers, 1)
	})

	t.Run("LikeRecorded", func(t *testing.T) {
		require := require.New(t)
		svc, _, _, _ := testService(t)
		mockIdentity(t, svc)

		require.NoError(svc.ProcessInbox(ctx, map[string]any{
			"type":   "Like",
			"actor":  "https://remote.example/u/bob",
			"object": "https://example.com/m/abc",
		}))
		likes, err := svc.Relationships().Likes()
		require.NoError(err)
		require.Len(likes, 1)

		notifications, err := svc.Notifications().All()
		require.NoError(err)
		require.Len(notifications, 1)
	})

	t.Run("CreateReplyIndexedAndRecorded", func(t *testing.T) {
		require := require.New(t)
		svc, _, _, _ := testService(t)
		mockIdentity(t, svc)
		base := time.Date(2023, 6, 1, 12, 0, 0, 0, time.UTC)
		parent := mockNote(t, svc, "aaa", base, nil)

		require.NoError(svc.ProcessInbox(ctx, map[string]any{
			"type":  "Create",
			"actor": "https://remote.example/u/bob",
			"object": map[string]any{
				"type":         "Note",
				"id":           "https://remote.example/objects/1",
				"attributedTo": "https://remote.example/u/bob",
				"inReplyTo":    parent.ID,
				"published":    base.Add(time.Minute).Format(time.RFC3339),
			},
		}))

		replies := svc.Index().Replies(parent.ID)
		require.Len(replies, 1)
		require.Equal("https://remote.example/objects/1", replies[0].ID)
		require.Equal("https://remote.example/u/bob", replies[0].Actor)
		require.Equal(base.Add(time.Minute).UnixMilli(), replies[0].Published)

		notifications, err := svc.Notifications().All()
		require.NoError(err)
		require.Len(notifications, 1)
	})

	t.Run("CreateUnrelatedToLocalNotesIgnored", func(t *testing.T) {
		require := require.New(t)
		svc, _, _, _ := testService(t)
		mockIdentity(t, svc)

		require.NoError(svc.ProcessInbox(ctx, map[string]any{
			"type":  "Create",
			"actor": "https://remote.example/u/bob",
			"object": map[string]any{
				"type":      "Note",
				"id":        "https://remote.example/objects/1",
				"inReplyTo": "https://elsewhere.example/m/abc",
			},
		}))
		require.Equal(0, svc.Index().Len())

		notifications, err := svc.Notifications().All()
		require.NoError(err)
		require.Empty(notifications)
	})

	t.Run("UnknownActivityTypeIgnored", func(t *testing.T) {
		require := require.New(t)
		svc, _, _, _ := testService(t)
		mockIdentity(t, svc)

		require.NoError(svc.ProcessInbox(ctx, map[string]any{
			"type":  "Announce",
			"actor": "https://remote.example/u/bob",
		}))
	})
}

func TestInboxHandler(t *testing.T) {
	t.Run("AcceptsActivity", func(t *testing.T) {
		require := require.New(t)
		svc, _, _, _ := testService(t)
		mockIdentity(t, svc)

		body := `{"type":"Follow","actor":"https://remote.example/u/bob","object":"https://example.com/u/test"}`
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/inbox", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/activity+json")
		testRouter(svc).ServeHTTP(rec, req)
		require.Equal(http.StatusAccepted, rec.Code)

		followers, err := svc.Relationships().Followers()
		require.NoError(err)
		require.Equal([]string{"https://remote.example/u/bob"}, followers)
	})

	t.Run("MalformedBodyRejected", func(t *testing.T) {
		require := require.New(t)
		svc, _, _, _ := testService(t)
		mockIdentity(t, svc)

		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/inbox", strings.NewReader("not json"))
		req.Header.Set("Content-Type", "application/activity+json")
		testRouter(svc).ServeHTTP(rec, req)
		require.Equal(http.StatusBadRequest, rec.Code)
	})
}
