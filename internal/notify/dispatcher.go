package notify

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/vmunix/reqarr/internal/events"
)

// Endpoints lists a user's notification endpoints.
type Endpoints interface {
	List(ctx context.Context, userID string) ([]Endpoint, error)
}

// Dispatcher turns request events into notifications. Decisions go to the
// requester; new requests awaiting approval go to the admin users.
type Dispatcher struct {
	bus       *events.Bus
	endpoints Endpoints
	sender    Sender
	admins    []string
	log       *slog.Logger
}

// NewDispatcher creates a dispatcher. admins receive request.created
// notifications for requests that were not auto-approved.
func NewDispatcher(bus *events.Bus, endpoints Endpoints, sender Sender, admins []string, logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{
		bus:       bus,
		endpoints: endpoints,
		sender:    sender,
		admins:    admins,
		log:       logger.With("component", "dispatcher"),
	}
}

// Run delivers notifications until ctx is cancelled or the bus closes.
func (d *Dispatcher) Run(ctx context.Context) error {
	ch := d.bus.Subscribe(100, events.RequestTypes...)
	defer d.bus.Unsubscribe(ch)

	d.log.Info("dispatcher started")
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case e, ok := <-ch:
			if !ok {
				return nil
			}
			re, ok := e.(events.RequestEvent)
			if !ok {
				continue
			}
			d.Dispatch(ctx, re)
		}
	}
}

// Dispatch delivers one event to its recipients. Delivery failures are logged
// per endpoint and never stop the remaining deliveries.
func (d *Dispatcher) Dispatch(ctx context.Context, e events.RequestEvent) {
	msg, recipients := d.render(e)
	if len(recipients) == 0 {
		return
	}
	msg.SentAt = time.Now().UTC()

	seen := make(map[string]bool, len(recipients))
	for _, userID := range recipients {
		if userID == "" || seen[userID] {
			continue
		}
		seen[userID] = true
		eps, err := d.endpoints.List(ctx, userID)
		if err != nil {
			d.log.Error("list endpoints failed", "user_id", userID, "error", err)
			continue
		}
		for _, ep := range eps {
			if err := d.sender.Send(ctx, ep, msg); err != nil {
				d.log.Warn("notification delivery failed", "user_id", userID, "kind", ep.Kind,
					"event", msg.Event, "request_id", msg.RequestID, "error", err)
			}
		}
	}
}

func (d *Dispatcher) render(e events.RequestEvent) (Message, []string) {
	info := e.Info()
	msg := Message{
		Event:     e.EventType(),
		RequestID: info.RequestID,
		TMDBID:    e.EntityID(),
		Title:     info.Title,
	}
	requester := []string{info.RequestedBy}

	switch ev := e.(type) {
	case *events.RequestCreated:
		if ev.AutoApproved {
			return msg, nil
		}
		msg.Subject = "New request: " + info.Title
		msg.Body = fmt.Sprintf("%s requested %s and it is awaiting approval.", info.RequestedBy, info.Title)
		return msg, d.admins
	case *events.RequestApproved:
		msg.Subject = "Request approved: " + info.Title
		msg.Body = fmt.Sprintf("Your request for %s was approved and is on its way.", info.Title)
	case *events.RequestDenied:
		msg.Subject = "Request denied: " + info.Title
		msg.Body = fmt.Sprintf("Your request for %s was denied.", info.Title)
		if ev.Reason != "" {
			msg.Body += " Reason: " + ev.Reason
		}
	case *events.RequestFailed:
		msg.Subject = "Request failed: " + info.Title
		msg.Body = fmt.Sprintf("Your request for %s could not be submitted. An admin can retry it.", info.Title)
		return msg, append(requester, d.admins...)
	case *events.RequestAvailable:
		msg.Subject = "Now available: " + info.Title
		msg.Body = fmt.Sprintf("%s is now available.", info.Title)
	default:
		return msg, nil
	}
	return msg, requester
}
