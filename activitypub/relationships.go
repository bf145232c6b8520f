package activitypub

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"log/slog"

	"github.com/bihlink/shuttlecraft/internal/algorithms"
	"github.com/bihlink/shuttlecraft/storage"
)

// A Like records a remote actor liking one of this node's objects.
type Like struct {
	Actor  string `json:"actor"`
	Object string `json:"object"`
}

// Relationships owns the follower and following sets and the like set.
// Each set is guarded by its own mutex so concurrent mutations serialise
// their read-modify-write against the store.
type Relationships struct {
	store         storage.Store
	resolver      Resolver
	notifications *Notifications

	followersMu sync.Mutex
	followingMu sync.Mutex
	likesMu     sync.Mutex
}

func NewRelationships(store storage.Store, resolver Resolver, notifications *Notifications) *Relationships {
	return &Relationships{
		store:         store,
		resolver:      resolver,
		notifications: notifications,
	}
}

// Follow resolves account and adds its actor to the following set. The
// insert is idempotent. If resolution fails the set is left unchanged and
// the error is returned for the caller to report.
func (r *Relationships) Follow(ctx context.Context, account string) error {
	actor, err := r.resolver.ResolveActor(ctx, account)
	if err != nil {
		return fmt.Errorf("follow %s: %w", account, err)
	}

	r.followingMu.Lock()
	defer r.followingMu.Unlock()
	following, err := r.readSet(followingKey)
	if err != nil {
		return err
	}
	if contains(following, actor.ID) {
		return nil
	}
	return r.store.WriteDictionary(followingKey, append(following, actor.ID))
}

// AddFollower resolves the actor of an inbound follow request and adds it to
// the followers set. A new follower appends one notification carrying the
// raw request; a repeat request changes nothing.
func (r *Relationships) AddFollower(ctx context.Context, request map[string]any) error {
	actor, err := r.resolver.ResolveActor(ctx, stringFromAny(request["actor"]))
	if err != nil {
		return fmt.Errorf("add follower: %w", err)
	}

	r.followersMu.Lock()
	defer r.followersMu.Unlock()
	followers, err := r.readSet(followersKey)
	if err != nil {
		return err
	}
	if contains(followers, actor.ID) {
		return nil
	}
	if err := r.store.WriteDictionary(followersKey, append(followers, actor.ID)); err != nil {
		return err
	}
	return r.notifications.Add(request)
}

// RemoveFollower removes follower from the followers set. The actor is
// resolved for validation only; the removal proceeds even when resolution
// fails. This asymmetry with Follow is deliberate and long standing.
func (r *Relationships) RemoveFollower(ctx context.Context, follower string) error {
	if _, err := r.resolver.ResolveActor(ctx, follower); err != nil {
		slog.Warn("remove follower: resolve failed", "actor", follower, "error", err)
	}

	r.followersMu.Lock()
	defer r.followersMu.Unlock()
	followers, err := r.readSet(followersKey)
	if err != nil {
		return err
	}
	kept := algorithms.Filter(followers, func(f string) bool { return f != follower })
	return r.store.WriteDictionary(followersKey, kept)
}

// AddLike records a like activity in the like set, once per actor and
// object, and appends a notification for new likes.
func (r *Relationships) AddLike(activity map[string]any) error {
	like := Like{
		Actor:  stringFromAny(activity["actor"]),
		Object: stringFromAny(activity["object"]),
	}
	if like.Object == "" {
		like.Object = stringFromAny(mapFromAny(activity["object"])["id"])
	}

	r.likesMu.Lock()
	defer r.likesMu.Unlock()
	likes := []Like{}
	if err := r.store.ReadDictionary(likesKey, &likes); err != nil && !errors.Is(err, storage.ErrNotExist) {
		return err
	}
	for _, l := range likes {
		if l == like {
			return nil
		}
	}
	if err := r.store.WriteDictionary(likesKey, append(likes, like)); err != nil {
		return err
	}
	return r.notifications.Add(activity)
}

// Followers returns the current followers set.
func (r *Relationships) Followers() ([]string, error) {
	r.followersMu.Lock()
	defer r.followersMu.Unlock()
	return r.readSet(followersKey)
}

// Following returns the current following set.
func (r *Relationships) Following() ([]string, error) {
	r.followingMu.Lock()
	defer r.followingMu.Unlock()
	return r.readSet(followingKey)
}

// Likes returns the recorded likes.
func (r *Relationships) Likes() ([]Like, error) {
	r.likesMu.Lock()
	defer r.likesMu.Unlock()
	likes := []Like{}
	if err := r.store.ReadDictionary(likesKey, &likes); err != nil && !errors.Is(err, storage.ErrNotExist) {
		return nil, err
	}
	return likes, nil
}

func (r *Relationships) readSet(key string) ([]string, error) {
	set := []string{}
	if err := r.store.ReadDictionary(key, &set); err != nil && !errors.Is(err, storage.ErrNotExist) {
		return nil, err
	}
	return set, nil
}

func contains(set []string, id string) bool {
	for _, v := range set {
		if v == id {
			return true
		}
	}
	return false
}
