package queue

import (
	"fmt"

	"github.com/shipflow-next/internal/config"
	"github.com/shipflow-next/internal/logger"

	"github.com/hibiken/asynq"
)

// Client enqueues background tasks. A nil Client drops tasks with a log
// line, so deployments without a queue keep working.
type Client struct {
	client *asynq.Client
}

// NewClient builds the asynq client per config; returns nil when disabled.
func NewClient(cfg config.QueueConfig) *Client {
	if !cfg.Enabled {
		return nil
	}
	client := asynq.NewClient(asynq.RedisClientOpt{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	return &Client{client: client}
}

// Enqueue submits a task.
func (c *Client) Enqueue(task *asynq.Task) error {
	if c == nil {
		logger.Debugw("queue_disabled_task_dropped", "task", task.Type())
		return nil
	}
	info, err := c.client.Enqueue(task)
	if err != nil {
		return err
	}
	logger.Debugw("task_enqueued", "task", task.Type(), "id", info.ID, "queue", info.Queue)
	return nil
}

// EnqueueTrackingSync queues a courier poll for one order.
func (c *Client) EnqueueTrackingSync(orderID uint) error {
	task, err := NewTrackingSyncTask(orderID)
	if err != nil {
		return err
	}
	return c.Enqueue(task)
}

// NotifyOrderEvent implements the notification publisher: enqueue failures
// are logged, never propagated.
func (c *Client) NotifyOrderEvent(orderID uint, eventType string) {
	task, err := NewNotificationTask(orderID, eventType)
	if err != nil {
		logger.Errorw("notification_task_build_failed", "order_id", orderID, "error", err)
		return
	}
	if err := c.Enqueue(task); err != nil {
		logger.Errorw("notification_enqueue_failed",
			"order_id", orderID, "event", eventType, "error", err)
	}
}

// Close releases the underlying connection.
func (c *Client) Close() error {
	if c == nil {
		return nil
	}
	return c.client.Close()
}
