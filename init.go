package main

import (
	"fmt"

	"github.com/bihlink/shuttlecraft/activitypub"
)

type InitCmd struct {
	Domain string `required:"" help:"domain name of the node"`
	Name   string `required:"" help:"account name of the node's identity"`
	storeFlags
}

func (i *InitCmd) Run(ctx *Context) error {
	store, err := i.open()
	if err != nil {
		return err
	}
	identity, err := activitypub.NewIdentities(store).Ensure(i.Name, i.Domain)
	if err != nil {
		return err
	}
	fmt.Println("actor:  ", identity.Actor.ID)
	fmt.Println("subject:", identity.Webfinger.Subject)
	fmt.Println("api key:", identity.APIKey)
	return nil
}
