package activitypub

import (
	"fmt"
	"net/http"

	"github.com/bihlink/shuttlecraft/internal/httpx"
	"github.com/bihlink/shuttlecraft/internal/to"
	"github.com/go-chi/chi/v5"
)

// ShowActor serves the node's actor document.
func ShowActor(env *Env, w http.ResponseWriter, r *http.Request) error {
	identity, err := env.Identities().Get()
	if err != nil {
		return httpx.Error(http.StatusNotFound, err)
	}
	if name := chi.URLParam(r, "name"); name != identity.Name() {
		return httpx.Error(http.StatusNotFound, fmt.Errorf("no such user: %q", name))
	}
	return to.ActivityJSON(w, identity.Actor)
}

// ShowFollowers serves the followers collection.
func ShowFollowers(env *Env, w http.ResponseWriter, r *http.Request) error {
	identity, err := env.Identities().Get()
	if err != nil {
		return httpx.Error(http.StatusNotFound, err)
	}
	followers, err := env.Relationships().Followers()
	if err != nil {
		return err
	}
	return to.ActivityJSON(w, map[string]any{
		"@context":     "https://www.w3.org/ns/activitystreams",
		"id":           identity.Actor.Followers,
		"type":         "OrderedCollection",
		"totalItems":   len(followers),
		"orderedItems": followers,
	})
}
