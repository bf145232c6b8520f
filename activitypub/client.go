package activitypub

import (
	"context"
	"crypto"
	"encoding/json"
	"fmt"
	"net/http"

	keys "github.com/bihlink/shuttlecraft/internal/crypto"
	"github.com/bihlink/shuttlecraft/internal/httpsig"
	"github.com/carlmjohnson/requests"
)

// A Client is an ActivityPub client which fetches and posts remote
// resources, signing every request with the node's identity key.
type Client struct {
	keyID      string
	privateKey crypto.PrivateKey
}

// NewClient returns a client signing as the given identity.
func NewClient(identity *Identity) (*Client, error) {
	_, privateKey, err := keys.ParseRSAPrivateKey([]byte(identity.PrivateKey))
	if err != nil {
		return nil, err
	}
	return &Client{
		keyID:      identity.Actor.PublicKey.ID,
		privateKey: privateKey,
	}, nil
}

// Fetch fetches the ActivityPub resource at the given URI and decodes it
// into obj.
func (c *Client) Fetch(ctx context.Context, uri string, obj any) error {
	return requests.URL(uri).
		Accept(`application/ld+json; profile="https://www.w3.org/ns/activitystreams"`).
		Transport(&signer{keyID: c.keyID, privateKey: c.privateKey}).
		CheckContentType("application/ld+json", "application/activity+json", "application/json").
		CheckStatus(http.StatusOK).
		ToJSON(obj).
		Fetch(ctx)
}

// FetchObject fetches a remote note object.
func (c *Client) FetchObject(ctx context.Context, uri string) (*Note, error) {
	var note Note
	if err := c.Fetch(ctx, uri, &note); err != nil {
		return nil, err
	}
	return &note, nil
}

// Post posts the given ActivityPub activity to the given URL, signing the
// request body digest.
func (c *Client) Post(ctx context.Context, url string, activity map[string]any) error {
	body, err := json.Marshal(activity)
	if err != nil {
		return err
	}
	return requests.URL(url).
		Header("Content-Type", `application/ld+json; profile="https://www.w3.org/ns/activitystreams"`).
		BodyBytes(body).
		Transport(&signer{keyID: c.keyID, privateKey: c.privateKey, body: body}).
		CheckStatus(http.StatusOK, http.StatusCreated, http.StatusAccepted).
		Fetch(ctx)
}

// signer is an http.RoundTripper that signs requests before sending them.
type signer struct {
	keyID      string
	privateKey crypto.PrivateKey
	body       []byte
}

func (s *signer) RoundTrip(req *http.Request) (*http.Response, error) {
	if err := httpsig.Sign(req, s.keyID, s.privateKey, s.body); err != nil {
		return nil, fmt.Errorf("failed to sign request: %w", err)
	}
	return http.DefaultTransport.RoundTrip(req)
}
