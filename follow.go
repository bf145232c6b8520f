package main

import (
	"context"

	"github.com/bihlink/shuttlecraft/activitypub"
)

type FollowCmd struct {
	Account string `arg:"" help:"account to follow, eg. user@example.com or an actor URL"`
	storeFlags
}

func (f *FollowCmd) Run(ctx *Context) error {
	store, err := f.open()
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
	relationships := activitypub.NewRelationships(store, actors, notifications)
	return relationships.Follow(context.Background(), f.Account)
}
