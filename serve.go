package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/bihlink/shuttlecraft/activitypub"
	"github.com/bihlink/shuttlecraft/internal/group"
	"github.com/bihlink/shuttlecraft/internal/httpx"
	"github.com/bihlink/shuttlecraft/wellknown"
)

type ServeCmd struct {
	Addr    string `help:"address to listen" default:":8080"`
	Domain  string `required:"" help:"domain name of the node"`
	Name    string `required:"" help:"account name of the node's identity"`
	Workers int    `help:"number of delivery workers" default:"4"`
	storeFlags
}

func (s *ServeCmd) Run(ctx *Context) error {
	store, err := s.open()
	if err != nil {
		return err
	}

	identities := activitypub.NewIdentities(store)
	identity, err := identities.Ensure(s.Name, s.Domain)
	if err != nil {
		return err
	}
	client, err := activitypub.NewClient(identity)
	if err != nil {
		return err
	}
	actors := activitypub.NewActors(client)
	notifications := activitypub.NewNotifications(store)
	pool := activitypub.NewDeliveryPool(client, actors, notifications)
	svc := activitypub.NewService(store, notifications, actors, client, pool)

	if err := svc.Index().Rebuild(store); err != nil {
		return err
	}

	env := func(r *http.Request) *activitypub.Env {
		return &activitypub.Env{Service: svc}
	}
	wkEnv := func(r *http.Request) *wellknown.Env {
		return &wellknown.Env{Identities: identities}
	}

	c := chi.NewRouter()
	c.Use(middleware.RequestID)
	c.Use(middleware.RealIP)
	c.Use(middleware.Logger)
	c.Use(middleware.Recoverer)

	c.Route("/", func(r chi.Router) {
		r.Route("/api", func(r chi.Router) {
			r.Post("/inbox", httpx.HandlerFunc(env, activitypub.Inbox))
			r.Get("/outbox", httpx.HandlerFunc(env, activitypub.Outbox))
			r.Post("/post", httpx.HandlerFunc(env, activitypub.CreatePost))
		})

		r.Route("/u/{name}", func(r chi.Router) {
			r.Get("/", httpx.HandlerFunc(env, activitypub.ShowActor))
			r.Get("/followers", httpx.HandlerFunc(env, activitypub.ShowFollowers))
			r.Post("/inbox", httpx.HandlerFunc(env, activitypub.Inbox))
		})

		r.Get("/m/{guid}", httpx.HandlerFunc(env, activitypub.ShowNote))
		r.Get("/notes/{guid}", httpx.HandlerFunc(env, activitypub.Thread))
		r.Get("/feed", httpx.HandlerFunc(env, activitypub.Feed))

		r.Route("/.well-known", func(r chi.Router) {
			r.Get("/webfinger", httpx.HandlerFunc(wkEnv, wellknown.Webfinger))
			r.Get("/host-meta", wellknown.HostMeta)
		})
	})

	g := group.New(context.Background())
	g.AddContext(pool.Run(s.Workers))
	g.AddContext(func(ctx context.Context) error {
		svr := &http.Server{
			Addr:         s.Addr,
			Handler:      c,
			WriteTimeout: 15 * time.Second,
			ReadTimeout:  15 * time.Second,
		}
		go func() {
			<-ctx.Done()
			svr.Shutdown(context.Background())
		}()
		if err := svr.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	return g.Wait()
}
