package activitypub

import (
	"context"
	"time"

	"log/slog"

	"github.com/bihlink/shuttlecraft/internal/group"
)

const (
	deliveryAttempts = 3
	deliveryTimeout  = 15 * time.Second
)

// A DeliveryPool delivers activities to remote actors from a bounded set of
// workers. Enqueueing never blocks the caller; a full queue drops the
// delivery. Each delivery resolves the recipient's inbox and posts the
// activity, retrying with backoff. Deliveries that exhaust their attempts
// are recorded in the notification log.
type DeliveryPool struct {
	client        *Client
	resolver      Resolver
	notifications *Notifications
	backoff       time.Duration
	queue         chan delivery
}

type delivery struct {
	actorID  string
	activity map[string]any
}

func NewDeliveryPool(client *Client, resolver Resolver, notifications *Notifications) *DeliveryPool {
	return &DeliveryPool{
		client:        client,
		resolver:      resolver,
		notifications: notifications,
		backoff:       30 * time.Second,
		queue:         make(chan delivery, 256),
	}
}

// Deliver enqueues an activity for delivery to the given actor.
func (p *DeliveryPool) Deliver(actorID string, activity map[string]any) {
	select {
	case p.queue <- delivery{actorID: actorID, activity: activity}:
	default:
		slog.Warn("delivery queue full, dropping delivery", "actor", actorID, "activity", activity["id"])
	}
}

// Run returns a function that processes deliveries with the given number of
// workers until its context is canceled.
func (p *DeliveryPool) Run(workers int) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		g := group.New(ctx)
		for i := 0; i < workers; i++ {
			g.AddContext(p.worker)
		}
		return g.Wait()
	}
}

func (p *DeliveryPool) worker(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case d := <-p.queue:
			p.deliver(ctx, d)
		}
	}
}

func (p *DeliveryPool) deliver(ctx context.Context, d delivery) {
	var lastErr error
	for attempt := 1; attempt <= deliveryAttempts; attempt++ {
		lastErr = p.post(ctx, d)
		if lastErr == nil {
			return
		}
		slog.Warn("delivery failed", "actor", d.actorID, "attempt", attempt, "error", lastErr)
		select {
		case <-ctx.Done():
			return
		case <-time.After(p.backoff * time.Duration(attempt)):
		}
	}
	if err := p.notifications.Add(map[string]any{
		"type":     "DeliveryFailure",
		"actor":    d.actorID,
		"activity": d.activity["id"],
		"error":    lastErr.Error(),
	}); err != nil {
		slog.Error("record delivery failure", "error", err)
	}
}

func (p *DeliveryPool) post(ctx context.Context, d delivery) error {
	ctx, cancel := context.WithTimeout(ctx, deliveryTimeout)
	defer cancel()
	actor, err := p.resolver.ResolveActor(ctx, d.actorID)
	if err != nil {
		return err
	}
	return p.client.Post(ctx, actor.Inbox, d.activity)
}
