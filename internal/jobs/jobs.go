package jobs

import (
	"github.com/shipflow-next/internal/config"
	"github.com/shipflow-next/internal/logger"
	"github.com/shipflow-next/internal/queue"
	"github.com/shipflow-next/internal/repository"

	"github.com/robfig/cron/v3"
)

// Manager owns the cron scheduler for periodic jobs.
type Manager struct {
	cron *cron.Cron
}

// NewManager creates the scheduler.
func NewManager() *Manager {
	return &Manager{cron: cron.New()}
}

// RegisterTrackingPoll schedules the periodic in-flight shipment poll:
// every tick it fans one tracking sync task per moving order out to the
// queue, oldest update first.
func (m *Manager) RegisterTrackingPoll(cfg config.TrackingConfig, orderRepo repository.OrderRepository, queueClient *queue.Client) error {
	spec := cfg.PollCron
	if spec == "" {
		spec = "@every 15m"
	}
	_, err := m.cron.AddFunc(spec, func() {
		orders, err := orderRepo.ListInFlight(cfg.BatchSize)
		if err != nil {
			logger.Errorw("tracking_poll_list_failed", "error", err)
			return
		}
		enqueued := 0
		for _, order := range orders {
			if err := queueClient.EnqueueTrackingSync(order.ID); err != nil {
				logger.Errorw("tracking_poll_enqueue_failed", "order_id", order.OrderID, "error", err)
				continue
			}
			enqueued++
		}
		if enqueued > 0 {
			logger.Infow("tracking_poll_tick", "enqueued", enqueued)
		}
	})
	return err
}

// Start launches the scheduler.
func (m *Manager) Start() {
	m.cron.Start()
}

// Stop halts the scheduler, waiting for running jobs.
func (m *Manager) Stop() {
	ctx := m.cron.Stop()
	<-ctx.Done()
}
