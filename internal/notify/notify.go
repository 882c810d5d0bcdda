// Package notify delivers roster change events to external channels.
package notify

import (
	"context"
	"errors"
	"time"

	apperrors "school-activities/internal/common/errors"
	"school-activities/internal/common/logger"
	"school-activities/internal/common/metrics"

	"github.com/google/uuid"
)

type EventType string

const (
	EventSignup     EventType = "signup"
	EventUnregister EventType = "unregister"
)

// RosterEvent describes one successful roster mutation.
type RosterEvent struct {
	ID         string    `json:"id"`
	Type       EventType `json:"type"`
	Activity   string    `json:"activity"`
	Email      string    `json:"email"`
	OccurredAt time.Time `json:"occurredAt"`
}

func NewRosterEvent(eventType EventType, activity, email string) RosterEvent {
	return RosterEvent{
		ID:         uuid.New().String(),
		Type:       eventType,
		Activity:   activity,
		Email:      email,
		OccurredAt: time.Now().UTC(),
	}
}

// Notifier delivers a roster event to one channel.
type Notifier interface {
	Name() string
	Notify(ctx context.Context, event RosterEvent) error
}

// Dispatcher fans an event out to every configured notifier. Delivery runs
// inline with the request and is bounded by timeout; failures are logged and
// counted, never returned to the caller.
type Dispatcher struct {
	notifiers []Notifier
	timeout   time.Duration
	logger    logger.Logger
}

func NewDispatcher(timeout time.Duration, log logger.Logger, notifiers ...Notifier) *Dispatcher {
	return &Dispatcher{
		notifiers: notifiers,
		timeout:   timeout,
		logger:    log.With(map[string]interface{}{"component": "notify"}),
	}
}

// Names lists the configured notifiers.
func (d *Dispatcher) Names() []string {
	names := make([]string, 0, len(d.notifiers))
	for _, n := range d.notifiers {
		names = append(names, n.Name())
	}
	return names
}

// Dispatch delivers event to all notifiers and returns the joined delivery errors.
func (d *Dispatcher) Dispatch(ctx context.Context, event RosterEvent) error {
	if len(d.notifiers) == 0 {
		return nil
	}

	// Outlive a client disconnect, but not the delivery budget.
	ctx = context.WithoutCancel(ctx)
	if d.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.timeout)
		defer cancel()
	}

	var errs []error
	for _, n := range d.notifiers {
		if err := n.Notify(ctx, event); err != nil {
			stdErr := apperrors.NewNotificationSendFailedError(n.Name(), err)
			metrics.NotificationsFailed.WithLabelValues(n.Name()).Inc()
			d.logger.WithError(err).Warn("roster notification failed", map[string]interface{}{
				"notifier":  n.Name(),
				"eventId":   event.ID,
				"eventType": string(event.Type),
				"activity":  event.Activity,
			})
			errs = append(errs, stdErr)
			continue
		}
		d.logger.Debug("roster notification delivered", map[string]interface{}{
			"notifier": n.Name(),
			"eventId":  event.ID,
		})
	}
	return errors.Join(errs...)
}
