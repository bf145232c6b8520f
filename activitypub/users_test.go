package activitypub

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestShowActor(t *testing.T) {
	t.Run("ServesActorDocument", func(t *testing.T) {
		require := require.New(t)
		svc, _, _, _ := testService(t)
		mockIdentity(t, svc)

		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/u/test", nil)
		testRouter(svc).ServeHTTP(rec, req)
		require.Equal(http.StatusOK, rec.Code)
		require.Equal("application/activity+json", rec.Header().Get("Content-Type"))

		var actor Actor
		require.NoError(json.Unmarshal(rec.Body.Bytes(), &actor))
		require.Equal("https://example.com/u/test", actor.ID)
		require.Equal("test", actor.PreferredUsername)
		require.Equal("https://example.com/api/inbox", actor.Inbox)
	})

	t.Run("UnknownNameIs404", func(t *testing.T) {
		require := require.New(t)
		svc, _, _, _ := testService(t)
		mockIdentity(t, svc)

		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/u/somebodyelse", nil)
		testRouter(svc).ServeHTTP(rec, req)
		require.Equal(http.StatusNotFound, rec.Code)
	})

	t.Run("NoIdentityIs404", func(t *testing.T) {
		require := require.New(t)
		svc, _, _, _ := testService(t)

		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/u/test", nil)
		testRouter(svc).ServeHTTP(rec, req)
		require.Equal(http.StatusNotFound, rec.Code)
	})
}

func TestShowFollowers(t *testing.T) {
	require := require.New(t)
	svc, _, _, _ := testService(t)
	mockIdentity(t, svc)
	require.NoError(svc.Relationships().AddFollower(context.Background(), map[string]any{
		"type":  "Follow",
		"actor": "https://remote.example/u/bob",
	}))

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/u/test/followers", nil)
	testRouter(svc).ServeHTTP(rec, req)
	require.Equal(http.StatusOK, rec.Code)

	var collection struct {
		ID           string   `json:"id"`
		Type         string   `json:"type"`
		TotalItems   int      `json:"totalItems"`
		OrderedItems []string `json:"orderedItems"`
	}
	require.NoError(json.Unmarshal(rec.Body.Bytes(), &collection))
	require.Equal("https://example.com/u/test/followers", collection.ID)
	require.Equal("OrderedCollection", collection.Type)
	require.Equal(1, collection.TotalItems)
	require.Equal([]string{"https://remote.example/u/bob"}, collection.OrderedItems)
}
