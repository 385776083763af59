// Package notify defines the notification sink invoked on request
// transitions. Delivery is fire-and-forget: a failing sink is logged and
// swallowed, never surfaced to the caller and never rolling back a ledger
// transition.
package notify

import (
	"context"
	"log/slog"
)

type EventType string

const (
	EventRequestSubmitted EventType = "leave_request_submitted"
	EventRequestApproved  EventType = "leave_request_approved"
	EventRequestCancelled EventType = "leave_request_cancelled"
	EventRequestRejected  EventType = "leave_request_rejected"
)

type Event struct {
	Type       EventType
	EmployeeID string
	RequestID  string
	Message    string
}

// Sink receives lifecycle events.
type Sink interface {
	Notify(ctx context.Context, ev Event) error
}

// Dispatch sends the event and swallows any failure after logging it.
func Dispatch(ctx context.Context, sink Sink, ev Event) {
	if sink == nil {
		return
	}
	if err := sink.Notify(ctx, ev); err != nil {
		slog.Warn("notification delivery failed",
			"type", ev.Type,
			"employee", ev.EmployeeID,
			"request", ev.RequestID,
			"error", err,
		)
	}
}

// LogSink writes events to the structured log. Stands in for a real
// delivery channel in development.
type LogSink struct {
	Logger *slog.Logger
}

func (s *LogSink) Notify(_ context.Context, ev Event) error {
	logger := s.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.Info("notification",
		"type", ev.Type,
		"employee", ev.EmployeeID,
		"request", ev.RequestID,
		"message", ev.Message,
	)
	return nil
}
