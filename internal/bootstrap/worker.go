package bootstrap

import (
	"fmt"

	"github.com/kirillkom/smartcare-assistant/internal/config"
	"github.com/kirillkom/smartcare-assistant/internal/core/usecase"
	"github.com/kirillkom/smartcare-assistant/internal/infrastructure/queue/nats"
	"github.com/kirillkom/smartcare-assistant/internal/observability/metrics"
)

// Worker consumes turn-completed events into citation metrics.
type Worker struct {
	Config  config.Config
	Queue   *nats.Queue
	Metrics *metrics.WorkerMetrics
	AuditUC *usecase.TurnAuditUseCase
}

func NewWorker(cfg config.Config, service string) (*Worker, error) {
	queue, err := nats.NewWithOptions(cfg.NATSURL, cfg.NATSSubject, nats.Options{})
	if err != nil {
		return nil, fmt.Errorf("init message queue: %w", err)
	}
	workerMetrics := metrics.NewWorkerMetrics(service)
	return &Worker{
		Config:  cfg,
		Queue:   queue,
		Metrics: workerMetrics,
		AuditUC: usecase.NewTurnAuditUseCase(workerMetrics),
	}, nil
}

func (w *Worker) Close() {
	w.Queue.Close()
}
