package shared

import (
	"context"
	"errors"
	"log/slog"
	"time"
)

// EventKind names a ledger mutation.
type EventKind string

const (
	EventAccountCreated   EventKind = "account_created"
	EventCustomerAdded    EventKind = "customer_added"
	EventCreditAdded      EventKind = "credit_added"
	EventCreditUpdated    EventKind = "credit_updated"
	EventCreditPaid       EventKind = "credit_paid"
	EventProductAdded     EventKind = "product_added"
	EventPurchaseRecorded EventKind = "purchase_recorded"
	EventPurchaseUpdated  EventKind = "purchase_updated"
	EventSaleRecorded     EventKind = "sale_recorded"
)

// LedgerEvent describes a committed mutation for a single account.
type LedgerEvent struct {
	Kind      EventKind
	AccountID string
	EntityID  string
	Amount    float64
	Attrs     map[string]string
	At        time.Time
}

// EventSink receives committed ledger events.
type EventSink interface {
	Publish(ctx context.Context, evt LedgerEvent) error
}

// EventSinkFunc adapts a function to EventSink.
type EventSinkFunc func(ctx context.Context, evt LedgerEvent) error

// Publish implements EventSink.
func (f EventSinkFunc) Publish(ctx context.Context, evt LedgerEvent) error {
	return f(ctx, evt)
}

// FanOut delivers each event to every sink and joins their errors.
type FanOut []EventSink

// Publish implements EventSink.
func (f FanOut) Publish(ctx context.Context, evt LedgerEvent) error {
	var errs []error
	for _, sink := range f {
		if sink == nil {
			continue
		}
		if err := sink.Publish(ctx, evt); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// NopSink discards events.
var NopSink EventSink = EventSinkFunc(func(context.Context, LedgerEvent) error { return nil })

// Emit publishes evt to sink. A failed publish is logged and never surfaces
// to the caller, whose mutation has already committed.
func Emit(ctx context.Context, sink EventSink, logger *slog.Logger, evt LedgerEvent) {
	if sink == nil {
		return
	}
	if evt.At.IsZero() {
		evt.At = time.Now().UTC()
	}
	if err := sink.Publish(ctx, evt); err != nil && logger != nil {
		logger.Warn("publish ledger event",
			slog.String("kind", string(evt.Kind)),
			slog.String("account_id", evt.AccountID),
			slog.Any("error", err))
	}
}
