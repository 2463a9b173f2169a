package worker

import (
	"context"
	"log"

	"ppob-service/internal/broker"
	"ppob-service/internal/service"
)

// ReconciliationWorker consumes FulfillmentFlagged events and re-checks
// the upstream status of paid-but-unfulfilled transactions.
type ReconciliationWorker struct {
	consumer     *broker.Consumer
	eventHandler *broker.EventHandler
}

// NewReconciliationWorker creates a new reconciliation worker
func NewReconciliationWorker(
	consumer *broker.Consumer,
	lifecycle *service.LifecycleManager,
) *ReconciliationWorker {
	eventHandler := broker.NewEventHandler()
	eventHandler.OnFulfillmentFlagged(lifecycle.ReconcileFlagged)

	return &ReconciliationWorker{
		consumer:     consumer,
		eventHandler: eventHandler,
	}
}

// Start starts the worker
func (w *ReconciliationWorker) Start(ctx context.Context) error {
	log.Println("Starting reconciliation worker...")
	return w.consumer.StartConsuming(ctx, w.eventHandler.HandleMessage)
}

// Stop stops the worker
func (w *ReconciliationWorker) Stop() error {
	log.Println("Stopping reconciliation worker...")
	return w.consumer.Close()
}
