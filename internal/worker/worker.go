package worker

import (
	"context"

	"sweetshop/internal/broker"
	"sweetshop/internal/models"
	"sweetshop/internal/util"
	"sweetshop/internal/view"

	"go.uber.org/zap"
)

// MessageSource is satisfied by *broker.Consumer
type MessageSource interface {
	StartConsuming(ctx context.Context, handler broker.MessageHandler) error
	Close() error
}

// ReceiptWorker consumes checkout events and records a receipt for each
type ReceiptWorker struct {
	source       MessageSource
	eventHandler *broker.EventHandler
	logger       *zap.Logger
}

// NewReceiptWorker creates a new receipt worker
func NewReceiptWorker(source MessageSource) *ReceiptWorker {
	w := &ReceiptWorker{
		source:       source,
		eventHandler: broker.NewEventHandler(),
		logger:       util.GetLogger(),
	}
	w.eventHandler.OnCartCheckedOut(w.HandleCartCheckedOut)
	return w
}

// Start starts the worker; it blocks until ctx is cancelled
func (w *ReceiptWorker) Start(ctx context.Context) error {
	w.logger.Info("Starting receipt worker")
	return w.source.StartConsuming(ctx, w.eventHandler.HandleMessage)
}

// Stop stops the worker
func (w *ReceiptWorker) Stop() error {
	w.logger.Info("Stopping receipt worker")
	return w.source.Close()
}

// HandleCartCheckedOut logs the receipt of a completed purchase
func (w *ReceiptWorker) HandleCartCheckedOut(ctx context.Context, event *models.CartCheckedOutEvent) error {
	_, span := util.StartSpan(ctx, "ReceiptWorker.HandleCartCheckedOut")
	defer span.End()

	units := 0
	for _, line := range event.Lines {
		units += line.Quantity
	}

	w.logger.Info("Receipt",
		zap.String("event_id", event.EventID),
		zap.String("session_id", event.SessionID),
		zap.String("username", event.Username),
		zap.Int("lines", len(event.Lines)),
		zap.Int("units", units),
		zap.Int64("total", event.Total),
		zap.String("detail", view.FormatCart(event.Lines, event.Total)))

	util.ReceiptsProcessedTotal.Inc()
	return nil
}
