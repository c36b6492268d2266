package telemetry

import (
	"context"

	"github.com/bizsuite/stockledger/internal/domain/shared"
	"github.com/bizsuite/stockledger/internal/domain/stock"
)

// MetricsEventHandler feeds the stock metric instruments from domain events,
// keeping the services free of any telemetry dependency.
type MetricsEventHandler struct {
	metrics *StockMetrics
}

// NewMetricsEventHandler creates a new MetricsEventHandler
func NewMetricsEventHandler(metrics *StockMetrics) *MetricsEventHandler {
	return &MetricsEventHandler{metrics: metrics}
}

// EventTypes returns the event types this handler consumes
func (h *MetricsEventHandler) EventTypes() []string {
	return []string{
		stock.EventTypeStockMovementRecorded,
		stock.EventTypeStockTransferred,
		stock.EventTypePhysicalInventoryCancelled,
	}
}

// Handle records the metric matching the event type
func (h *MetricsEventHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	switch e := event.(type) {
	case *stock.StockMovementRecordedEvent:
		h.metrics.RecordMovement(ctx, e.TenantID(), e.Type.String())
	case *stock.StockTransferredEvent:
		h.metrics.RecordTransfer(ctx, e.TenantID())
	case *stock.PhysicalInventoryCancelledEvent:
		h.metrics.RecordReversal(ctx, e.TenantID())
	}
	return nil
}

var _ shared.EventHandler = (*MetricsEventHandler)(nil)
