package service

import (
	"github.com/shipflow-next/internal/logger"
)

// Notifier publishes order lifecycle events for asynchronous delivery to
// client webhooks. Enqueue failures are the publisher's problem; callers
// treat notification as fire-and-forget.
type Notifier interface {
	NotifyOrderEvent(orderID uint, eventType string)
}

// LogNotifier is the fallback notifier used when no queue is configured.
type LogNotifier struct{}

// NotifyOrderEvent logs the event instead of dispatching it.
func (LogNotifier) NotifyOrderEvent(orderID uint, eventType string) {
	logger.Infow("notification_skipped_no_queue", "order_id", orderID, "event", eventType)
}
