package activitypub

import (
	"crypto/subtle"
	"errors"
	"net/http"
	"strings"

	"github.com/bihlink/shuttlecraft/internal/httpx"
	"github.com/bihlink/shuttlecraft/internal/markdown"
	"github.com/bihlink/shuttlecraft/storage"
)

// A Service ties the node's stores and collaborators together.
type Service struct {
	store         storage.Store
	identities    *Identities
	relationships *Relationships
	notifications *Notifications
	index         *Index
	resolver      Resolver
	fetcher       Fetcher
	deliverer     Deliverer
	render        func(string) (string, error)
}

// NewService returns a Service over the given store and collaborators.
// notifications must be the same instance the deliverer reports into, so
// that all writers of the notification log share one lock.
func NewService(store storage.Store, notifications *Notifications, resolver Resolver, fetcher Fetcher, deliverer Deliverer) *Service {
	return &Service{
		store:         store,
		identities:    NewIdentities(store),
		relationships: NewRelationships(store, resolver, notifications),
		notifications: notifications,
		index:         NewIndex(),
		resolver:      resolver,
		fetcher:       fetcher,
		deliverer:     deliverer,
		render:        markdown.Render,
	}
}

func (svc *Service) Identities() *Identities       { return svc.identities }
func (svc *Service) Relationships() *Relationships { return svc.relationships }
func (svc *Service) Notifications() *Notifications { return svc.notifications }
func (svc *Service) Index() *Index                 { return svc.index }

// Authorize checks the request's bearer token against the identity's
// capability token.
func (svc *Service) Authorize(r *http.Request) error {
	identity, err := svc.identities.Get()
	if err != nil {
		return httpx.Error(http.StatusUnauthorized, err)
	}
	token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
	if subtle.ConstantTimeCompare([]byte(token), []byte(identity.APIKey)) != 1 {
		return httpx.Error(http.StatusUnauthorized, errors.New("invalid bearer token"))
	}
	return nil
}

// Env is the environment passed to the package's HTTP handlers.
type Env struct {
	*Service
}
