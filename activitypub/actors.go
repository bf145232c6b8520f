package activitypub

import (
	"context"
	"fmt"
	"strings"

	"github.com/bihlink/shuttlecraft/internal/webfinger"
)

// An Actor is an ActivityPub actor document, local or remote.
type Actor struct {
	Context           any       `json:"@context,omitempty"`
	ID                string    `json:"id"`
	Type              string    `json:"type"`
	Name              string    `json:"name,omitempty"`
	PreferredUsername string    `json:"preferredUsername"`
	Summary           string    `json:"summary,omitempty"`
	Inbox             string    `json:"inbox"`
	Outbox            string    `json:"outbox,omitempty"`
	Followers         string    `json:"followers,omitempty"`
	PublicKey         PublicKey `json:"publicKey"`
}

type PublicKey struct {
	ID           string `json:"id"`
	Owner        string `json:"owner"`
	PublicKeyPem string `json:"publicKeyPem"`
}

// Actors resolves remote account identifiers to their actor documents using
// webfinger discovery and signed fetches.
type Actors struct {
	client *Client
}

func NewActors(client *Client) *Actors {
	return &Actors{client: client}
}

func (a *Actors) ResolveActor(ctx context.Context, id string) (*Actor, error) {
	uri := id
	if !strings.HasPrefix(id, "https://") && !strings.HasPrefix(id, "http://") {
		acct, err := webfinger.Parse(id)
		if err != nil {
			return nil, fmt.Errorf("resolve %s: %w", id, err)
		}
		wf, err := acct.Fetch(ctx)
		if err != nil {
			return nil, fmt.Errorf("resolve %s: %w", id, err)
		}
		uri, err = wf.ActivityPub()
		if err != nil {
			return nil, fmt.Errorf("resolve %s: %w", id, err)
		}
	}
	var actor Actor
	if err := a.client.Fetch(ctx, uri, &actor); err != nil {
		return nil, fmt.Errorf("resolve %s: %w", id, err)
	}
	return &actor, nil
}
