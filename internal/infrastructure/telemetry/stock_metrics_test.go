package telemetry

import (
	"context"
	"errors"
	"testing"

	"github.com/bizsuite/stockledger/internal/domain/stock"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// stubMetricsProvider returns canned projection counts
type stubMetricsProvider struct {
	tenantIDs []uuid.UUID
	lowStock  int64
	rows      int64
	err       error

	lowStockCalls int
	rowCalls      int
}

func (p *stubMetricsProvider) ListTenantIDs(context.Context) ([]uuid.UUID, error) {
	return p.tenantIDs, p.err
}

func (p *stubMetricsProvider) GetLowStockCount(context.Context, uuid.UUID) (int64, error) {
	p.lowStockCalls++
	return p.lowStock, p.err
}

func (p *stubMetricsProvider) GetLevelRowCount(context.Context, uuid.UUID) (int64, error) {
	p.rowCalls++
	return p.rows, p.err
}

func newTestStockMetrics(t *testing.T) *StockMetrics {
	t.Helper()
	metrics, err := NewStockMetrics(Meter("stockledger-test"), zap.NewNop())
	require.NoError(t, err)
	return metrics
}

func TestNewStockMetrics(t *testing.T) {
	t.Run("rejects a nil meter", func(t *testing.T) {
		_, err := NewStockMetrics(nil, zap.NewNop())
		assert.ErrorIs(t, err, ErrMeterNil)
	})

	t.Run("creates all instruments on the no-op meter", func(t *testing.T) {
		metrics := newTestStockMetrics(t)
		assert.NotNil(t, metrics)
	})
}

func TestStockMetricsRecording(t *testing.T) {
	ctx := context.Background()
	metrics := newTestStockMetrics(t)
	tenantID := uuid.New()

	// Recording against the no-op meter must never panic.
	metrics.RecordMovement(ctx, tenantID, "IN")
	metrics.RecordTransfer(ctx, tenantID)
	metrics.RecordReversal(ctx, tenantID)
}

func TestStockMetricsCollect(t *testing.T) {
	ctx := context.Background()

	t.Run("queries the provider once per gauge per tenant", func(t *testing.T) {
		metrics := newTestStockMetrics(t)
		provider := &stubMetricsProvider{
			tenantIDs: []uuid.UUID{uuid.New(), uuid.New()},
			lowStock:  3,
			rows:      120,
		}

		metrics.CollectAll(ctx, provider)
		assert.Equal(t, 2, provider.lowStockCalls)
		assert.Equal(t, 2, provider.rowCalls)
	})

	t.Run("provider failures are logged, not fatal", func(t *testing.T) {
		metrics := newTestStockMetrics(t)
		provider := &stubMetricsProvider{err: errors.New("db down")}

		metrics.CollectAll(ctx, provider)
		metrics.Collect(ctx, provider, uuid.New())
	})
}

func TestMetricsEventHandler(t *testing.T) {
	ctx := context.Background()
	metrics := newTestStockMetrics(t)
	handler := NewMetricsEventHandler(metrics)

	t.Run("subscribes to movement, transfer and reversal events", func(t *testing.T) {
		assert.ElementsMatch(t, []string{
			stock.EventTypeStockMovementRecorded,
			stock.EventTypeStockTransferred,
			stock.EventTypePhysicalInventoryCancelled,
		}, handler.EventTypes())
	})

	t.Run("consumes a movement event", func(t *testing.T) {
		movement, err := stock.NewStockMovement(
			uuid.New(), uuid.New(), stock.NewProductRef(uuid.New()),
			stock.MovementTypeIn, decimal.NewFromInt(5),
		)
		require.NoError(t, err)
		assert.NoError(t, handler.Handle(ctx, stock.NewStockMovementRecordedEvent(movement)))
	})
}
