package telemetry

import (
	"context"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// StockMetrics tracks ledger throughput and projection health
type StockMetrics struct {
	logger *zap.Logger

	movementsTotal  *Counter
	transfersTotal  *Counter
	reversalsTotal  *Counter
	lowStockCount   *Gauge
	levelRowCount   *Gauge
}

// NewStockMetrics creates the ledger metric instruments on the given meter
func NewStockMetrics(meter metric.Meter, logger *zap.Logger) (*StockMetrics, error) {
	if meter == nil {
		return nil, ErrMeterNil
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	sm := &StockMetrics{logger: logger}

	var err error
	if sm.movementsTotal, err = NewCounter(meter,
		"stockledger_movements_total",
		"Total number of ledger movements recorded",
		"{movements}",
	); err != nil {
		return nil, err
	}
	if sm.transfersTotal, err = NewCounter(meter,
		"stockledger_transfers_total",
		"Total number of inter-warehouse transfers",
		"{transfers}",
	); err != nil {
		return nil, err
	}
	if sm.reversalsTotal, err = NewCounter(meter,
		"stockledger_reversals_total",
		"Total number of physical inventory reversals",
		"{reversals}",
	); err != nil {
		return nil, err
	}
	if sm.lowStockCount, err = NewGauge(meter,
		"stockledger_low_stock_count",
		"Number of stock levels at or below their minimum threshold",
		"{levels}",
	); err != nil {
		return nil, err
	}
	if sm.levelRowCount, err = NewGauge(meter,
		"stockledger_level_rows",
		"Number of stock level projection rows",
		"{rows}",
	); err != nil {
		return nil, err
	}

	return sm, nil
}

// RecordMovement counts a ledger movement
func (m *StockMetrics) RecordMovement(ctx context.Context, tenantID uuid.UUID, movementType string) {
	m.movementsTotal.Inc(ctx,
		AttrTenantID.String(tenantID.String()),
		AttrMovementType.String(movementType),
	)
}

// RecordTransfer counts a completed transfer pair
func (m *StockMetrics) RecordTransfer(ctx context.Context, tenantID uuid.UUID) {
	m.transfersTotal.Inc(ctx, AttrTenantID.String(tenantID.String()))
}

// RecordReversal counts a physical inventory reversal
func (m *StockMetrics) RecordReversal(ctx context.Context, tenantID uuid.UUID) {
	m.reversalsTotal.Inc(ctx, AttrTenantID.String(tenantID.String()))
}

// Collect refreshes the point-in-time gauges from the provider
func (m *StockMetrics) Collect(ctx context.Context, provider StockMetricsProvider, tenantID uuid.UUID) {
	lowStock, err := provider.GetLowStockCount(ctx, tenantID)
	if err != nil {
		m.logger.Warn("failed to collect low stock count", zap.Error(err))
	} else {
		m.lowStockCount.Record(ctx, lowStock, AttrTenantID.String(tenantID.String()))
	}

	rows, err := provider.GetLevelRowCount(ctx, tenantID)
	if err != nil {
		m.logger.Warn("failed to collect level row count", zap.Error(err))
	} else {
		m.levelRowCount.Record(ctx, rows, AttrTenantID.String(tenantID.String()))
	}
}

// CollectAll refreshes the gauges for every tenant known to the provider
func (m *StockMetrics) CollectAll(ctx context.Context, provider StockMetricsProvider) {
	tenantIDs, err := provider.ListTenantIDs(ctx)
	if err != nil {
		m.logger.Warn("failed to list tenants for metrics collection", zap.Error(err))
		return
	}
	for _, tenantID := range tenantIDs {
		m.Collect(ctx, provider, tenantID)
	}
}

// StockMetricsProvider provides projection data for periodic metrics
// collection without coupling the telemetry layer to the domain.
type StockMetricsProvider interface {
	// ListTenantIDs returns the tenants that have projection rows
	ListTenantIDs(ctx context.Context) ([]uuid.UUID, error)
	// GetLowStockCount returns the number of levels at or below minimum
	GetLowStockCount(ctx context.Context, tenantID uuid.UUID) (int64, error)
	// GetLevelRowCount returns the number of projection rows
	GetLevelRowCount(ctx context.Context, tenantID uuid.UUID) (int64, error)
}

// GormStockMetricsProvider implements StockMetricsProvider by querying the
// stock_levels table directly.
type GormStockMetricsProvider struct {
	db *gorm.DB
}

// NewGormStockMetricsProvider creates a new GormStockMetricsProvider.
func NewGormStockMetricsProvider(db *gorm.DB) *GormStockMetricsProvider {
	return &GormStockMetricsProvider{db: db}
}

// ListTenantIDs returns the tenants that have projection rows
func (p *GormStockMetricsProvider) ListTenantIDs(ctx context.Context) ([]uuid.UUID, error) {
	var tenantIDs []uuid.UUID
	err := p.db.WithContext(ctx).
		Table("stock_levels").
		Distinct("tenant_id").
		Pluck("tenant_id", &tenantIDs).Error
	return tenantIDs, err
}

// GetLowStockCount returns the number of levels at or below their minimum
func (p *GormStockMetricsProvider) GetLowStockCount(ctx context.Context, tenantID uuid.UUID) (int64, error) {
	var count int64
	err := p.db.WithContext(ctx).
		Table("stock_levels").
		Where("tenant_id = ? AND min_stock > 0 AND quantity <= min_stock", tenantID).
		Count(&count).Error
	return count, err
}

// GetLevelRowCount returns the number of projection rows for a tenant
func (p *GormStockMetricsProvider) GetLevelRowCount(ctx context.Context, tenantID uuid.UUID) (int64, error) {
	var count int64
	err := p.db.WithContext(ctx).
		Table("stock_levels").
		Where("tenant_id = ?", tenantID).
		Count(&count).Error
	return count, err
}

var _ StockMetricsProvider = (*GormStockMetricsProvider)(nil)
