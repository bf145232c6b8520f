package activitypub

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/bihlink/shuttlecraft/internal/httpx"
	"github.com/bihlink/shuttlecraft/storage"
)

// fakeResolver resolves any identifier to a bare actor document unless the
// identifier is marked as failing.
type fakeResolver struct {
	actors map[string]*Actor
	fail   map[string]bool
	calls  []string
}

func newFakeResolver() *fakeResolver {
	return &fakeResolver{
		actors: map[string]*Actor{},
		fail:   map[string]bool{},
	}
}

func (f *fakeResolver) ResolveActor(ctx context.Context, id string) (*Actor, error) {
	f.calls = append(f.calls, id)
	if f.fail[id] {
		return nil, fmt.Errorf("resolve %s: unreachable", id)
	}
	if actor, ok := f.actors[id]; ok {
		return actor, nil
	}
	return &Actor{
		ID:    id,
		Type:  "Person",
		Inbox: id + "/inbox",
	}, nil
}

type fakeFetcher struct {
	notes map[string]*Note
}

func (f *fakeFetcher) FetchObject(ctx context.Context, uri string) (*Note, error) {
	if note, ok := f.notes[uri]; ok {
		return note, nil
	}
	return nil, fmt.Errorf("fetch %s: unreachable", uri)
}

type fakeDelivery struct {
	actor    string
	activity map[string]any
}

type fakeDeliverer struct {
	mu         sync.Mutex
	deliveries []fakeDelivery
}

func (f *fakeDeliverer) Deliver(actorID string, activity map[string]any) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deliveries = append(f.deliveries, fakeDelivery{actor: actorID, activity: activity})
}

func (f *fakeDeliverer) all() []fakeDelivery {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]fakeDelivery{}, f.deliveries...)
}

func testService(t *testing.T) (*Service, *fakeResolver, *fakeFetcher, *fakeDeliverer) {
	t.Helper()
	store, err := storage.NewFileStore(t.TempDir())
	require.NoError(t, err)
	resolver := newFakeResolver()
	fetcher := &fakeFetcher{notes: map[string]*Note{}}
	deliverer := &fakeDeliverer{}
	svc := NewService(store, NewNotifications(store), resolver, fetcher, deliverer)
	return svc, resolver, fetcher, deliverer
}

// mockIdentity writes an identity record for test@example.com without
// generating a real keypair.
func mockIdentity(t *testing.T, svc *Service) *Identity {
	t.Helper()
	identity := &Identity{
		Actor:      createActor("test", "example.com", "PUBLIC KEY PEM"),
		Webfinger:  createWebfinger("test", "example.com"),
		APIKey:     "sekret",
		PublicKey:  "PUBLIC KEY PEM",
		PrivateKey: "PRIVATE KEY PEM",
	}
	require.NoError(t, svc.store.WriteDictionary(accountKey, identity))
	return identity
}

// mockNote persists a local note and indexes it.
func mockNote(t *testing.T, svc *Service, guid string, published time.Time, inReplyTo *string) *Note {
	t.Helper()
	id := "https://example.com/m/" + guid
	note := &Note{
		ID:           id,
		Type:         "Note",
		Published:    published.UTC().Format(time.RFC3339),
		AttributedTo: "https://example.com/u/test",
		Content:      "<p>" + guid + "</p>",
		To:           []string{"https://www.w3.org/ns/activitystreams#Public"},
		InReplyTo:    inReplyTo,
		Attachment:   []any{},
		Tag:          []any{},
	}
	require.NoError(t, svc.store.WriteDictionary(noteKey(id), note))
	svc.index.Append(DescriptorFor(note))
	return note
}

func ptr(s string) *string { return &s }

// testRouter mounts the package's handlers the way the server does.
func testRouter(svc *Service) http.Handler {
	env := func(r *http.Request) *Env {
		return &Env{Service: svc}
	}
	c := chi.NewRouter()
	c.Post("/api/inbox", httpx.HandlerFunc(env, Inbox))
	c.Get("/api/outbox", httpx.HandlerFunc(env, Outbox))
	c.Post("/api/post", httpx.HandlerFunc(env, CreatePost))
	c.Get("/u/{name}", httpx.HandlerFunc(env, ShowActor))
	c.Get("/u/{name}/followers", httpx.HandlerFunc(env, ShowFollowers))
	c.Get("/m/{guid}", httpx.HandlerFunc(env, ShowNote))
	c.Get("/notes/{guid}", httpx.HandlerFunc(env, Thread))
	c.Get("/feed", httpx.HandlerFunc(env, Feed))
	return c
}
