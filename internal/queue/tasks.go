package queue

import (
	"encoding/json"

	"github.com/shipflow-next/internal/constants"

	"github.com/hibiken/asynq"
)

// TrackingSyncPayload asks the worker to poll the courier for one order.
type TrackingSyncPayload struct {
	OrderID uint `json:"order_id"`
}

// NotificationPayload asks the worker to dispatch one order event.
type NotificationPayload struct {
	OrderID   uint   `json:"order_id"`
	EventType string `json:"event_type"`
}

// NewTrackingSyncTask builds a tracking sync task.
func NewTrackingSyncTask(orderID uint) (*asynq.Task, error) {
	payload, err := json.Marshal(TrackingSyncPayload{OrderID: orderID})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(constants.TaskTrackingSync, payload,
		asynq.Queue(constants.QueueTracking), asynq.MaxRetry(3)), nil
}

// NewNotificationTask builds a notification dispatch task.
func NewNotificationTask(orderID uint, eventType string) (*asynq.Task, error) {
	payload, err := json.Marshal(NotificationPayload{OrderID: orderID, EventType: eventType})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(constants.TaskNotification, payload,
		asynq.Queue(constants.QueueNotification), asynq.MaxRetry(5)), nil
}
