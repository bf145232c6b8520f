package activitypub

import (
	"errors"
	"net/http"
	"sort"

	"github.com/bihlink/shuttlecraft/internal/algorithms"
	"github.com/bihlink/shuttlecraft/internal/httpx"
	"github.com/bihlink/shuttlecraft/internal/to"
	"github.com/bihlink/shuttlecraft/storage"
)

const outboxPageSize = 10

// An OutboxPage is one page of the node's published notes, most recent
// first, plus the total count of notes across all pages.
type OutboxPage struct {
	Total int     `json:"total"`
	Posts []*Note `json:"posts"`
}

// OutboxPage returns up to ten notes starting at offset, ordered by publish
// time descending. Index entries whose object is no longer in the store are
// skipped. Total counts every indexed note regardless of the slice.
func (svc *Service) OutboxPage(offset int) (*OutboxPage, error) {
	descriptors := svc.index.Notes()
	sort.SliceStable(descriptors, func(i, j int) bool {
		return descriptors[i].Published > descriptors[j].Published
	})

	total := len(descriptors)
	if offset < 0 {
		offset = 0
	}
	end := offset + outboxPageSize
	if offset > total {
		offset = total
	}
	if end > total {
		end = total
	}

	posts := []*Note{}
	for _, d := range descriptors[offset:end] {
		note, err := svc.Note(d.ID)
		if err != nil {
			if errors.Is(err, storage.ErrNotExist) {
				continue
			}
			return nil, err
		}
		posts = append(posts, note)
	}
	return &OutboxPage{Total: total, Posts: posts}, nil
}

type outboxParams struct {
	Offset int  `schema:"offset"`
	Page   bool `schema:"page"`
}

// Outbox serves the node's outbox as an ActivityStreams OrderedCollection,
// paged when the page parameter is given.
func Outbox(env *Env, w http.ResponseWriter, r *http.Request) error {
	identity, err := env.Identities().Get()
	if err != nil {
		return httpx.Error(http.StatusNotFound, err)
	}
	var params outboxParams
	if err := httpx.Params(r, &params); err != nil {
		return err
	}

	page, err := env.OutboxPage(params.Offset)
	if err != nil {
		return err
	}
	outbox := identity.Actor.Outbox
	if !params.Page {
		return to.ActivityJSON(w, map[string]any{
			"@context":   "https://www.w3.org/ns/activitystreams",
			"id":         outbox,
			"type":       "OrderedCollection",
			"totalItems": page.Total,
			"first":      outbox + "?page=true",
		})
	}
	return to.ActivityJSON(w, map[string]any{
		"@context": "https://www.w3.org/ns/activitystreams",
		"id":       r.URL.String(),
		"type":     "OrderedCollectionPage",
		"partOf":   outbox,
		"orderedItems": algorithms.Map(page.Posts, func(note *Note) map[string]any {
			return CreateActivity(identity.Actor.ID, note)
		}),
	})
}
