package stock

import (
	"context"
	"fmt"

	"github.com/bizsuite/stockledger/internal/domain/shared"
	"github.com/bizsuite/stockledger/internal/domain/stock"
	"go.uber.org/zap"
)

// LowStockHandler reacts to StockBelowThreshold events and routes them to an
// alert channel. The projection update that detected the breach has already
// committed by the time this runs; a failed alert never affects the ledger.
type LowStockHandler struct {
	logger   *zap.Logger
	notifier LowStockNotifier
}

// LowStockNotifier is the interface for delivering low stock alerts.
// Implementations can support different channels (in-app, email, webhook).
type LowStockNotifier interface {
	// Notify delivers a low stock alert
	Notify(ctx context.Context, alert LowStockAlert) error
}

// LowStockAlert represents a threshold breach
type LowStockAlert struct {
	TenantID    string `json:"tenant_id"`
	WarehouseID string `json:"warehouse_id"`
	ProductID   string `json:"product_id"`
	VariantID   string `json:"variant_id,omitempty"`
	OnHand      string `json:"on_hand"`
	MinStock    string `json:"min_stock"`
	AlertType   string `json:"alert_type"` // "low_stock", "out_of_stock"
}

// NewLowStockHandler creates a new handler for stock below threshold events
func NewLowStockHandler(logger *zap.Logger) *LowStockHandler {
	return &LowStockHandler{logger: logger}
}

// WithNotifier sets the notifier for delivering alerts
func (h *LowStockHandler) WithNotifier(notifier LowStockNotifier) *LowStockHandler {
	h.notifier = notifier
	return h
}

// EventTypes returns the event types this handler is interested in
func (h *LowStockHandler) EventTypes() []string {
	return []string{stock.EventTypeStockBelowThreshold}
}

// Handle processes a StockBelowThresholdEvent
func (h *LowStockHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	thresholdEvent, ok := event.(*stock.StockBelowThresholdEvent)
	if !ok {
		h.logger.Error("unexpected event type",
			zap.String("expected", stock.EventTypeStockBelowThreshold),
			zap.String("actual", event.EventType()),
		)
		return fmt.Errorf("unexpected event type: expected %s, got %s",
			stock.EventTypeStockBelowThreshold, event.EventType())
	}

	h.logger.Warn("stock below threshold detected",
		zap.String("tenant_id", event.TenantID().String()),
		zap.String("warehouse_id", thresholdEvent.WarehouseID.String()),
		zap.String("product_id", thresholdEvent.ProductID.String()),
		zap.String("on_hand", thresholdEvent.Quantity.String()),
		zap.String("min_stock", thresholdEvent.MinStock.String()),
	)

	if h.notifier == nil {
		return nil
	}

	alertType := "low_stock"
	if !thresholdEvent.Quantity.IsPositive() {
		alertType = "out_of_stock"
	}

	alert := LowStockAlert{
		TenantID:    event.TenantID().String(),
		WarehouseID: thresholdEvent.WarehouseID.String(),
		ProductID:   thresholdEvent.ProductID.String(),
		OnHand:      thresholdEvent.Quantity.String(),
		MinStock:    thresholdEvent.MinStock.String(),
		AlertType:   alertType,
	}
	if thresholdEvent.VariantID != nil {
		alert.VariantID = thresholdEvent.VariantID.String()
	}

	if err := h.notifier.Notify(ctx, alert); err != nil {
		// Notification failure shouldn't fail the event handling
		h.logger.Error("failed to deliver low stock alert",
			zap.String("product_id", alert.ProductID),
			zap.Error(err),
		)
	}
	return nil
}

// Ensure LowStockHandler implements shared.EventHandler
var _ shared.EventHandler = (*LowStockHandler)(nil)

// LoggingLowStockNotifier is a notifier that only logs alerts.
// This is useful for development and testing.
type LoggingLowStockNotifier struct {
	logger *zap.Logger
}

// NewLoggingLowStockNotifier creates a new logging notifier
func NewLoggingLowStockNotifier(logger *zap.Logger) *LoggingLowStockNotifier {
	return &LoggingLowStockNotifier{logger: logger}
}

// Notify logs the low stock alert
func (n *LoggingLowStockNotifier) Notify(_ context.Context, alert LowStockAlert) error {
	n.logger.Warn("LOW STOCK ALERT",
		zap.String("type", alert.AlertType),
		zap.String("product_id", alert.ProductID),
		zap.String("warehouse_id", alert.WarehouseID),
		zap.String("on_hand", alert.OnHand),
		zap.String("min_stock", alert.MinStock),
	)
	return nil
}

var _ LowStockNotifier = (*LoggingLowStockNotifier)(nil)
