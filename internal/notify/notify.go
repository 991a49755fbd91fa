// Package notify stores notifications and fans them out to push devices.
package notify

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/dukerupert/kinship/internal/metrics"
	"github.com/dukerupert/kinship/internal/model"
	"github.com/dukerupert/kinship/internal/push"
	"github.com/dukerupert/kinship/internal/store"
)

// Sender delivers a payload to one device.
type Sender interface {
	Send(ctx context.Context, sub *model.PushSubscription, payload push.Payload) error
}

type Fanout struct {
	notes   *store.NotificationStore
	devices *store.PushStore
	sender  Sender
	metrics *metrics.Metrics
	logger  *slog.Logger
	wg      sync.WaitGroup
}

// NewFanout creates a fanout. A nil sender disables push delivery; rows are
// still stored.
func NewFanout(notes *store.NotificationStore, devices *store.PushStore, sender Sender, m *metrics.Metrics, logger *slog.Logger) *Fanout {
	return &Fanout{
		notes:   notes,
		devices: devices,
		sender:  sender,
		metrics: m,
		logger:  logger.With("component", "notify"),
	}
}

// Notify stores a notification for familyID. A nil target broadcasts to the
// whole family. Push delivery happens in the background and never fails the
// call.
func (f *Fanout) Notify(ctx context.Context, familyID, title, message, category string, target *string) (*model.Notification, error) {
	n, err := f.notes.Create(ctx, familyID, target, title, message, category)
	if err != nil {
		return nil, err
	}

	if f.sender != nil {
		f.wg.Add(1)
		go func() {
			defer f.wg.Done()
			f.deliver(context.WithoutCancel(ctx), n)
		}()
	}
	return n, nil
}

// Wait blocks until in-flight deliveries finish.
func (f *Fanout) Wait() {
	f.wg.Wait()
}

func (f *Fanout) deliver(ctx context.Context, n *model.Notification) {
	var subs []model.PushSubscription
	var err error
	if n.AccountID != nil {
		subs, err = f.devices.ListByAccount(ctx, *n.AccountID)
	} else {
		subs, err = f.devices.ListByFamily(ctx, n.FamilyID)
	}
	if err != nil {
		f.logger.Warn("list push subscriptions", "family_id", n.FamilyID, "error", err)
		return
	}

	payload := push.PayloadFor(n)
	for i := range subs {
		sub := &subs[i]
		if sub.FamilyID != n.FamilyID {
			continue
		}
		err := f.sender.Send(ctx, sub, payload)
		f.metrics.PushSend(err)
		switch {
		case errors.Is(err, push.ErrExpired):
			if err := f.devices.DeleteByEndpoint(ctx, sub.Endpoint); err != nil {
				f.logger.Warn("prune expired subscription", "endpoint", sub.Endpoint, "error", err)
			} else {
				f.logger.Info("pruned expired subscription", "account_id", sub.AccountID)
			}
		case err != nil:
			f.logger.Warn("push send", "account_id", sub.AccountID, "error", err)
		}
	}
}
