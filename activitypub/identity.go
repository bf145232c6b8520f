package activitypub

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"

	"log/slog"

	"github.com/bihlink/shuttlecraft/internal/crypto"
	"github.com/bihlink/shuttlecraft/internal/webfinger"
	"github.com/bihlink/shuttlecraft/storage"
)

// ErrNoIdentity is returned when no identity record has been created yet.
var ErrNoIdentity = errors.New("activitypub: no identity has been created")

// An Identity is the node's single identity record: the actor document, the
// webfinger document, the capability token for privileged local operations,
// and the signing keypair. It is created once and immutable afterwards.
type Identity struct {
	Actor      Actor               `json:"actor"`
	Webfinger  webfinger.Webfinger `json:"webfinger"`
	APIKey     string              `json:"apikey"`
	PublicKey  string              `json:"publicKey"`
	PrivateKey string              `json:"privateKey"`
}

// Name returns the identity's account name.
func (id *Identity) Name() string {
	return id.Actor.PreferredUsername
}

// Domain returns the domain the identity is addressable under.
func (id *Identity) Domain() string {
	u, err := url.Parse(id.Actor.ID)
	if err != nil {
		return ""
	}
	return u.Host
}

// IsLocalNote reports whether uri names a note in this identity's namespace.
func (id *Identity) IsLocalNote(uri string) bool {
	return strings.HasPrefix(uri, "https://"+id.Domain()+"/m/")
}

// Identities owns the identity record. All reads and the one time creation
// go through it.
type Identities struct {
	mu    sync.Mutex
	store storage.Store
}

func NewIdentities(store storage.Store) *Identities {
	return &Identities{store: store}
}

// Ensure returns the identity record, creating it if it does not exist.
// Creation generates a fresh keypair and capability token and persists the
// full record before returning; a second call always observes the record the
// first call created.
func (i *Identities) Ensure(name, domain string) (*Identity, error) {
	i.mu.Lock()
	defer i.mu.Unlock()

	var identity Identity
	err := i.store.ReadDictionary(accountKey, &identity)
	if err == nil {
		return &identity, nil
	}
	if !errors.Is(err, storage.ErrNotExist) {
		return nil, err
	}

	keypair, err := crypto.GenerateRSAKeypair()
	if err != nil {
		return nil, fmt.Errorf("identity: generate keypair: %w", err)
	}
	apikey, err := crypto.GenerateToken()
	if err != nil {
		return nil, fmt.Errorf("identity: generate api key: %w", err)
	}
	identity = Identity{
		Actor:      createActor(name, domain, string(keypair.PublicKey)),
		Webfinger:  createWebfinger(name, domain),
		APIKey:     apikey,
		PublicKey:  string(keypair.PublicKey),
		PrivateKey: string(keypair.PrivateKey),
	}
	if err := i.store.WriteDictionary(accountKey, &identity); err != nil {
		return nil, fmt.Errorf("identity: persist: %w", err)
	}
	slog.Info("identity created", "actor", identity.Actor.ID)
	return &identity, nil
}

// Get returns the identity record, or ErrNoIdentity if Ensure has never
// been called.
func (i *Identities) Get() (*Identity, error) {
	i.mu.Lock()
	defer i.mu.Unlock()

	var identity Identity
	if err := i.store.ReadDictionary(accountKey, &identity); err != nil {
		if errors.Is(err, storage.ErrNotExist) {
			return nil, ErrNoIdentity
		}
		return nil, err
	}
	return &identity, nil
}

func createActor(name, domain, pubkey string) Actor {
	id := "https://" + domain + "/u/" + name
	return Actor{
		Context: []string{
			"https://www.w3.org/ns/activitystreams",
			"https://w3id.org/security/v1",
		},
		ID:                id,
		Type:              "Person",
		Name:              name,
		PreferredUsername: name,
		Inbox:             "https://" + domain + "/api/inbox",
		Outbox:            "https://" + domain + "/api/outbox",
		Followers:         id + "/followers",
		PublicKey: PublicKey{
			ID:           id + "#main-key",
			Owner:        id,
			PublicKeyPem: pubkey,
		},
	}
}

func createWebfinger(name, domain string) webfinger.Webfinger {
	acct := webfinger.Acct{User: name, Host: domain}
	return webfinger.Webfinger{
		Subject: acct.String(),
		Links: []webfinger.Link{
			{
				Rel:  "self",
				Type: "application/activity+json",
				Href: acct.ID(),
			},
		},
	}
}
