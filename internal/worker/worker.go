package worker

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/shipflow-next/internal/config"
	"github.com/shipflow-next/internal/constants"
	"github.com/shipflow-next/internal/courier"
	"github.com/shipflow-next/internal/logger"
	"github.com/shipflow-next/internal/queue"
	"github.com/shipflow-next/internal/repository"
	"github.com/shipflow-next/internal/service"

	"github.com/hibiken/asynq"
)

// Worker runs the asynq server processing tracking syncs and notification
// dispatches.
type Worker struct {
	server *asynq.Server

	orderRepo     repository.OrderRepository
	contractRepo  repository.ContractRepository
	credentialSvc *service.CredentialService
	trackingSvc   *service.TrackingService
	adapters      *courier.Registry
}

// New builds the worker; returns nil when the queue is disabled.
func New(
	cfg config.QueueConfig,
	orderRepo repository.OrderRepository,
	contractRepo repository.ContractRepository,
	credentialSvc *service.CredentialService,
	trackingSvc *service.TrackingService,
	adapters *courier.Registry,
) *Worker {
	if !cfg.Enabled {
		return nil
	}
	concurrency := cfg.Concurrency
	if concurrency <= 0 {
		concurrency = 10
	}
	queues := cfg.Queues
	if len(queues) == 0 {
		queues = map[string]int{
			constants.QueueDefault:      5,
			constants.QueueTracking:     3,
			constants.QueueNotification: 2,
		}
	}
	server := asynq.NewServer(
		asynq.RedisClientOpt{
			Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
			Password: cfg.Password,
			DB:       cfg.DB,
		},
		asynq.Config{
			Concurrency: concurrency,
			Queues:      queues,
			Logger:      asynqLogger{},
		},
	)
	return &Worker{
		server:        server,
		orderRepo:     orderRepo,
		contractRepo:  contractRepo,
		credentialSvc: credentialSvc,
		trackingSvc:   trackingSvc,
		adapters:      adapters,
	}
}

// Start registers handlers and runs the server in the background.
func (w *Worker) Start() error {
	if w == nil {
		return nil
	}
	mux := asynq.NewServeMux()
	mux.HandleFunc(constants.TaskTrackingSync, w.handleTrackingSync)
	mux.HandleFunc(constants.TaskNotification, w.handleNotification)
	return w.server.Start(mux)
}

// Shutdown stops the server, waiting for in-flight tasks.
func (w *Worker) Shutdown() {
	if w == nil {
		return
	}
	w.server.Shutdown()
}

// handleTrackingSync polls the courier for one order and feeds the events
// through the reconciler.
func (w *Worker) handleTrackingSync(ctx context.Context, task *asynq.Task) error {
	var payload queue.TrackingSyncPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return fmt.Errorf("tracking sync payload: %w: %w", err, asynq.SkipRetry)
	}

	order, err := w.orderRepo.GetByID(payload.OrderID)
	if err != nil {
		return err
	}
	if order == nil || order.AWBNumber == "" || order.PartnerID == nil {
		logger.Debugw("tracking_sync_skipped", "order_id", payload.OrderID)
		return nil
	}

	partner, err := w.contractRepo.GetPartnerByID(*order.PartnerID)
	if err != nil {
		return err
	}
	if partner == nil {
		logger.Warnw("tracking_sync_partner_missing", "order_id", order.OrderID)
		return nil
	}
	creds, err := w.credentialSvc.Resolve(order.ClientID, "", partner)
	if err != nil {
		return err
	}
	adapter, err := w.adapters.Get(partner.AdapterSlug)
	if err != nil {
		return err
	}

	result, err := adapter.TrackShipment(ctx, order.AWBNumber, creds)
	if err != nil {
		return err
	}
	return w.trackingSvc.ApplyRawEvents(order.ID, result.Events)
}

// handleNotification dispatches one order event to the client's webhook
// endpoint. Dispatch is best-effort; the order itself is the source of
// truth.
func (w *Worker) handleNotification(ctx context.Context, task *asynq.Task) error {
	var payload queue.NotificationPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return fmt.Errorf("notification payload: %w: %w", err, asynq.SkipRetry)
	}
	order, err := w.orderRepo.GetByID(payload.OrderID)
	if err != nil {
		return err
	}
	if order == nil {
		return nil
	}
	logger.Infow("notification_dispatched",
		"client_id", order.ClientID,
		"order_id", order.OrderID,
		"event", payload.EventType,
		"status", order.Status)
	return nil
}

// asynqLogger routes asynq internals through the structured logger.
type asynqLogger struct{}

func (asynqLogger) Debug(args ...interface{}) { logger.S().Debug(args...) }
func (asynqLogger) Info(args ...interface{})  { logger.S().Info(args...) }
func (asynqLogger) Warn(args ...interface{})  { logger.S().Warn(args...) }
func (asynqLogger) Error(args ...interface{}) { logger.S().Error(args...) }
func (asynqLogger) Fatal(args ...interface{}) { logger.S().Fatal(args...) }
