package main

import (
	"context"
	"fmt"

	"log/slog"

	"github.com/bihlink/shuttlecraft/activitypub"
)

type NoteCmd struct {
	Body string `arg:"" help:"markdown body of the note"`
	CW   string `help:"content warning" optional:""`
	storeFlags
}

func (n *NoteCmd) Run(ctx *Context) error {
	store, err := n.open()
	if err != nil {
		return err
	}
	identity, err := activitypub.NewIdentities(store).Get()
	if err != nil {
		return err
	}
	client, err := activitypub.NewClient(identity)
	if err != nil {
		return err
	}
	actors := activitypub.NewActors(client)
	notifications := activitypub.NewNotifications(store)

	// The command exits as soon as Run returns, so deliveries happen inline
	// rather than on a background pool.
	deliverer := &syncDeliverer{client: client, resolver: actors}
	svc := activitypub.NewService(store, notifications, actors, client, deliverer)
	if err := svc.Index().Rebuild(store); err != nil {
		return err
	}

	note, err := svc.CreateNote(context.Background(), n.Body, n.CW)
	if err != nil {
		return err
	}
	fmt.Println(note.ID)
	return nil
}

// syncDeliverer delivers each activity inline. Failures are logged and
// dropped, matching the fire and forget delivery contract.
type syncDeliverer struct {
	client   *activitypub.Client
	resolver activitypub.Resolver
}

func (d *syncDeliverer) Deliver(actorID string, activity map[string]any) {
	ctx := context.Background()
	actor, err := d.resolver.ResolveActor(ctx, actorID)
	if err != nil {
		slog.Warn("delivery failed", "actor", actorID, "error", err)
		return
	}
	if err := d.client.Post(ctx, actor.Inbox, activity); err != nil {
		slog.Warn("delivery failed", "actor", actorID, "error", err)
	}
}
