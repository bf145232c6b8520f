// Package activitypub implements the federation engine for a single actor
// node: the identity record, follower and following sets, the notification
// log, the in memory object index, note publishing with follower fan out,
// and thread reconstruction over the reply graph.
package activitypub

import (
	"context"
)

// Logical record keys in the backing store.
const (
	accountKey       = "account"
	followersKey     = "followers"
	followingKey     = "following"
	notificationsKey = "notifications"
	likesKey         = "likes"
	notesPrefix      = "notes/"
)

// A Resolver resolves a remote account identifier, either an acct handle or
// an actor URL, to its actor document.
type Resolver interface {
	ResolveActor(ctx context.Context, id string) (*Actor, error)
}

// A Fetcher fetches a remote ActivityPub object by URI.
type Fetcher interface {
	FetchObject(ctx context.Context, uri string) (*Note, error)
}

// A Deliverer sends an activity to a remote actor. Delivery is fire and
// forget; failures are never reported back to the caller.
type Deliverer interface {
	Deliver(actorID string, activity map[string]any)
}

func stringFromAny(v any) string {
	s, _ := v.(string)
	return s
}

func mapFromAny(v any) map[string]any {
	m, _ := v.(map[string]any)
	return m
}
