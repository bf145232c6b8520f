package activitypub

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sort"

	"github.com/bihlink/shuttlecraft/internal/httpx"
	"github.com/bihlink/shuttlecraft/internal/to"
	"github.com/bihlink/shuttlecraft/storage"
	"github.com/go-chi/chi/v5"
)

// ErrReplyCycle is returned when the reply graph contains a cycle. The reply
// relation is expected to be a tree; a cycle is an integrity error that
// fails the whole traversal.
var ErrReplyCycle = errors.New("activitypub: reply cycle detected")

// A ThreadEntry pairs an object with its author's actor document.
type ThreadEntry struct {
	Note  *Note  `json:"note"`
	Actor *Actor `json:"actor"`
}

// Unroll reconstructs the conversation around noteID. It climbs the reply
// chain upwards one branch at a time, never visiting siblings of ancestors,
// and descends through every locally indexed reply, direct and transitive.
// Local objects are read from the store and attributed to the node's
// identity; everything else is fetched remotely. Any failed fetch aborts the
// whole traversal. Entries are returned in traversal order; callers sort
// chronologically for display.
func (svc *Service) Unroll(ctx context.Context, noteID string) ([]ThreadEntry, error) {
	identity, err := svc.identities.Get()
	if err != nil {
		return nil, err
	}

	type frame struct {
		id              string
		ascend, descend bool
	}
	visited := make(map[string]bool)
	results := []ThreadEntry{}
	work := []frame{{id: noteID, ascend: true, descend: true}}

	for len(work) > 0 {
		f := work[0]
		work = work[1:]

		if visited[f.id] {
			return nil, fmt.Errorf("%w: %s", ErrReplyCycle, f.id)
		}
		visited[f.id] = true

		var note *Note
		var actor *Actor
		if identity.IsLocalNote(f.id) {
			note, err = svc.Note(f.id)
			if err != nil {
				return nil, fmt.Errorf("unroll %s: %w", f.id, err)
			}
			actor = &identity.Actor
		} else {
			note, err = svc.fetcher.FetchObject(ctx, f.id)
			if err != nil {
				return nil, fmt.Errorf("unroll %s: %w", f.id, err)
			}
			actor, err = svc.resolver.ResolveActor(ctx, note.AttributedTo)
			if err != nil {
				return nil, fmt.Errorf("unroll %s: %w", f.id, err)
			}
		}
		results = append(results, ThreadEntry{Note: note, Actor: actor})

		if f.ascend && note.InReplyTo != nil && *note.InReplyTo != "" {
			work = append(work, frame{id: *note.InReplyTo, ascend: true})
		}
		if f.descend {
			for _, reply := range svc.index.Replies(f.id) {
				work = append(work, frame{id: reply.ID, descend: true})
			}
		}
	}
	return results, nil
}

// SortThread orders entries by ascending publish time for display.
func SortThread(entries []ThreadEntry) {
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Note.PublishedTime().Before(entries[j].Note.PublishedTime())
	})
}

// Thread serves the unrolled conversation around a local note.
func Thread(env *Env, w http.ResponseWriter, r *http.Request) error {
	identity, err := env.Identities().Get()
	if err != nil {
		return httpx.Error(http.StatusNotFound, err)
	}
	guid := chi.URLParam(r, "guid")
	id := "https://" + identity.Domain() + "/m/" + guid
	entries, err := env.Unroll(r.Context(), id)
	if err != nil {
		if errors.Is(err, storage.ErrNotExist) {
			return httpx.Error(http.StatusNotFound, fmt.Errorf("no record found for %s", guid))
		}
		return err
	}
	SortThread(entries)
	return to.JSON(w, entries)
}
