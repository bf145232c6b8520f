package activitypub

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"log/slog"

	"github.com/bihlink/shuttlecraft/internal/httpx"
	"github.com/bihlink/shuttlecraft/internal/to"
	"github.com/bihlink/shuttlecraft/storage"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// A Note is a locally or remotely authored content object. Notes are
// immutable once created.
type Note struct {
	ID               string   `json:"id"`
	Type             string   `json:"type"`
	Summary          *string  `json:"summary"`
	InReplyTo        *string  `json:"inReplyTo"`
	Published        string   `json:"published"`
	AttributedTo     string   `json:"attributedTo"`
	Content          string   `json:"content"`
	URL              string   `json:"url,omitempty"`
	To               []string `json:"to"`
	CC               []string `json:"cc,omitempty"`
	Sensitive        bool     `json:"sensitive"`
	AtomURI          string   `json:"atomUri,omitempty"`
	InReplyToAtomURI *string  `json:"inReplyToAtomUri"`
	Attachment       []any    `json:"attachment"`
	Tag              []any    `json:"tag"`
	Replies          *Replies `json:"replies,omitempty"`
}

// PublishedTime returns the note's publish time, or the zero time if the
// published field does not parse.
func (n *Note) PublishedTime() time.Time {
	t, err := time.Parse(time.RFC3339, n.Published)
	if err != nil {
		return time.Time{}
	}
	return t
}

// Replies is the self referential replies collection stub carried by every
// locally authored note.
type Replies struct {
	ID    string      `json:"id"`
	Type  string      `json:"type"`
	First RepliesPage `json:"first"`
}

type RepliesPage struct {
	Type   string `json:"type"`
	Next   string `json:"next"`
	PartOf string `json:"partOf"`
	Items  []any  `json:"items"`
}

// CreateNote renders body, builds the full note object, persists it,
// indexes it, and fans it out to every current follower. The note is
// returned as soon as it is persisted; deliveries proceed in the
// background and their failures are never surfaced here.
func (svc *Service) CreateNote(ctx context.Context, body, summary string) (*Note, error) {
	identity, err := svc.identities.Get()
	if err != nil {
		return nil, err
	}
	content, err := svc.render(body)
	if err != nil {
		return nil, err
	}

	guid := newGuid()
	domain := identity.Domain()
	id := "https://" + domain + "/m/" + guid
	note := &Note{
		ID:           id,
		Type:         "Note",
		Published:    time.Now().UTC().Format(time.RFC3339),
		AttributedTo: identity.Actor.ID,
		Content:      content,
		URL:          "https://" + domain + "/notes/" + guid,
		To:           []string{"https://www.w3.org/ns/activitystreams#Public"},
		CC:           []string{identity.Actor.Followers},
		Sensitive:    summary != "",
		AtomURI:      "https://" + domain + "/u/" + identity.Name() + "/" + guid,
		Attachment:   []any{},
		Tag:          []any{},
		Replies: &Replies{
			ID:   id + "/replies",
			Type: "Collection",
			First: RepliesPage{
				Type:   "CollectionPage",
				Next:   id + "/replies?only_other_accounts=true&page=true",
				PartOf: id + "/replies",
				Items:  []any{},
			},
		},
	}
	if summary != "" {
		note.Summary = &summary
	}

	if err := svc.store.WriteDictionary(noteKey(id), note); err != nil {
		return nil, fmt.Errorf("create note: persist: %w", err)
	}
	svc.index.Append(DescriptorFor(note))

	followers, err := svc.relationships.Followers()
	if err != nil {
		slog.Warn("create note: read followers", "error", err)
		return note, nil
	}
	activity := CreateActivity(identity.Actor.ID, note)
	for _, follower := range followers {
		svc.deliverer.Deliver(follower, activity)
	}
	return note, nil
}

// Note reads a persisted note by its id.
func (svc *Service) Note(id string) (*Note, error) {
	var note Note
	if err := svc.store.ReadDictionary(noteKey(id), &note); err != nil {
		return nil, err
	}
	return &note, nil
}

// CreateActivity wraps a note in the Create activity delivered to
// followers.
func CreateActivity(actorID string, note *Note) map[string]any {
	return map[string]any{
		"@context":  "https://www.w3.org/ns/activitystreams",
		"id":        note.ID + "/activity",
		"type":      "Create",
		"actor":     actorID,
		"published": note.Published,
		"to":        note.To,
		"cc":        note.CC,
		"object":    note,
	}
}

// newGuid returns a random 128 bit identifier in hex.
func newGuid() string {
	u := uuid.New()
	return hex.EncodeToString(u[:])
}

// noteKey maps a note id to its record key, eg.
// https://example.com/m/abc -> notes/abc.
func noteKey(id string) string {
	return notesPrefix + id[strings.LastIndex(id, "/")+1:]
}

// ShowNote serves a locally persisted note as ActivityPub JSON.
func ShowNote(env *Env, w http.ResponseWriter, r *http.Request) error {
	identity, err := env.Identities().Get()
	if err != nil {
		return httpx.Error(http.StatusNotFound, err)
	}
	id := "https://" + identity.Domain() + "/m/" + chi.URLParam(r, "guid")
	note, err := env.Note(id)
	if err != nil {
		if errors.Is(err, storage.ErrNotExist) {
			return httpx.Error(http.StatusNotFound, fmt.Errorf("no record found for %s", id))
		}
		return err
	}
	return to.ActivityJSON(w, note)
}

type createPostRequest struct {
	Body string `json:"body" schema:"body"`
	CW   string `json:"cw" schema:"cw"`
}

// CreatePost publishes a new note. It is guarded by the identity's
// capability token.
func CreatePost(env *Env, w http.ResponseWriter, r *http.Request) error {
	if err := env.Authorize(r); err != nil {
		return err
	}
	var params createPostRequest
	if err := httpx.Params(r, &params); err != nil {
		return err
	}
	if params.Body == "" {
		return httpx.Error(http.StatusBadRequest, errors.New("body is required"))
	}
	note, err := env.CreateNote(r.Context(), params.Body, params.CW)
	if err != nil {
		return err
	}
	return to.JSON(w, note)
}
