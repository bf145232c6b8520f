package activitypub

import (
	"context"
	"net/http"
	"time"

	"log/slog"

	"github.com/go-json-experiment/json"

	"github.com/bihlink/shuttlecraft/internal/httpx"
)

// Inbox accepts an inbound ActivityPub activity and processes it.
func Inbox(env *Env, w http.ResponseWriter, r *http.Request) error {
	var activity map[string]any
	if err := json.UnmarshalFull(r.Body, &activity); err != nil {
		return httpx.Error(http.StatusBadRequest, err)
	}
	if err := env.ProcessInbox(r.Context(), activity); err != nil {
		return err
	}
	w.WriteHeader(http.StatusAccepted)
	return nil
}

// ProcessInbox dispatches an inbound activity on its type. Resolution
// failures are advisory: they are logged and the activity is dropped, they
// never fail the request.
func (svc *Service) ProcessInbox(ctx context.Context, activity map[string]any) error {
	typ := stringFromAny(activity["type"])
	switch typ {
	case "Follow":
		return svc.processFollow(ctx, activity)
	case "Undo":
		return svc.processUndo(ctx, activity)
	case "Like":
		return svc.relationships.AddLike(activity)
	case "Create":
		return svc.processCreate(ctx, activity)
	default:
		slog.Info("inbox: ignoring activity", "type", typ)
		return nil
	}
}

// processFollow adds the requesting actor as a follower and sends an Accept
// back to its inbox.
func (svc *Service) processFollow(ctx context.Context, activity map[string]any) error {
	actorID := stringFromAny(activity["actor"])
	if err := svc.relationships.AddFollower(ctx, activity); err != nil {
		slog.Warn("inbox: add follower", "actor", actorID, "error", err)
		return nil
	}
	identity, err := svc.identities.Get()
	if err != nil {
		return err
	}
	svc.deliverer.Deliver(actorID, AcceptActivity(identity.Actor.ID, activity))
	return nil
}

// processUndo handles Undo of a Follow by removing the follower. Other
// undone activity types are ignored.
func (svc *Service) processUndo(ctx context.Context, activity map[string]any) error {
	object := mapFromAny(activity["object"])
	if stringFromAny(object["type"]) != "Follow" {
		slog.Info("inbox: ignoring undo", "type", stringFromAny(object["type"]))
		return nil
	}
	if err := svc.relationships.RemoveFollower(ctx, stringFromAny(activity["actor"])); err != nil {
		slog.Warn("inbox: remove follower", "actor", stringFromAny(activity["actor"]), "error", err)
	}
	return nil
}

// processCreate indexes replies to local notes so the thread unroller can
// find them, and records a notification for the reply.
func (svc *Service) processCreate(ctx context.Context, activity map[string]any) error {
	identity, err := svc.identities.Get()
	if err != nil {
		return err
	}
	object := mapFromAny(activity["object"])
	inReplyTo := stringFromAny(object["inReplyTo"])
	if !identity.IsLocalNote(inReplyTo) {
		slog.Debug("inbox: ignoring create", "object", stringFromAny(object["id"]))
		return nil
	}
	published := time.Now()
	if t, err := time.Parse(time.RFC3339, stringFromAny(object["published"])); err == nil {
		published = t
	}
	svc.index.Append(Descriptor{
		Kind:      KindNote,
		ID:        stringFromAny(object["id"]),
		Actor:     stringFromAny(object["attributedTo"]),
		Published: published.UnixMilli(),
		InReplyTo: inReplyTo,
	})
	return svc.notifications.Add(activity)
}

// AcceptActivity builds the Accept sent in response to a Follow request.
func AcceptActivity(actorID string, follow map[string]any) map[string]any {
	return map[string]any{
		"@context": "https://www.w3.org/ns/activitystreams",
		"id":       actorID + "#accepts/" + newGuid(),
		"type":     "Accept",
		"actor":    actorID,
		"object":   follow,
	}
}
