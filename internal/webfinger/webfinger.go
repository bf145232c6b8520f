// package webfinger provides webfinger account parsing and discovery.
package webfinger

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/carlmjohnson/requests"
)

// A Webfinger is the discovery document for an account.
type Webfinger struct {
	Subject string   `json:"subject"`
	Aliases []string `json:"aliases,omitempty"`
	Links   []Link   `json:"links"`
}

// ActivityPub returns the href of the ActivityPub actor document
// referenced by this webfinger document.
func (wf *Webfinger) ActivityPub() (string, error) {
	for _, link := range wf.Links {
		if link.Type == "application/activity+json" {
			return link.Href, nil
		}
	}
	return "", fmt.Errorf("no ActivityPub link found")
}

type Link struct {
	Rel      string `json:"rel"`
	Type     string `json:"type,omitempty"`
	Href     string `json:"href,omitempty"`
	Template string `json:"template,omitempty"`
}

// An Acct is a user@host account reference.
type Acct struct {
	User string
	Host string
}

func (a *Acct) String() string {
	return "acct:" + a.User + "@" + a.Host
}

// Webfinger returns the URL for the webfinger resource for this Acct.
func (a *Acct) Webfinger() string {
	return "https://" + a.Host + "/.well-known/webfinger?resource=" + url.QueryEscape(a.String())
}

// ID returns the URL for the actor resource for this Acct.
func (a *Acct) ID() string {
	return "https://" + a.Host + "/u/" + a.User
}

// Fetch retrieves the webfinger document for this Acct.
func (a *Acct) Fetch(ctx context.Context) (*Webfinger, error) {
	var webfinger Webfinger
	err := requests.URL(a.Webfinger()).ToJSON(&webfinger).Fetch(ctx)
	return &webfinger, err
}

// Parse parses a string into an Acct. It accepts the forms user@host,
// @user@host and acct:user@host.
func Parse(query string) (*Acct, error) {
	query = strings.TrimPrefix(query, "acct:")
	query = strings.TrimPrefix(query, "@")

	// In case the handle has been URL encoded
	query, err := url.QueryUnescape(query)
	if err != nil {
		return nil, err
	}
	parts := strings.SplitN(query, "@", 2)
	switch len(parts) {
	case 2:
		return &Acct{
			User: parts[0],
			Host: parts[1],
		}, nil
	default:
		return nil, fmt.Errorf("invalid acct: %q", query)
	}
}
