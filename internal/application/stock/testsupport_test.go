package stock

import (
	"context"
	"sync"
	"time"

	"github.com/bizsuite/stockledger/internal/domain/shared"
	"github.com/bizsuite/stockledger/internal/domain/stock"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// MockEventPublisher captures published events for assertions
type MockEventPublisher struct {
	mu     sync.Mutex
	events []shared.DomainEvent
}

func NewMockEventPublisher() *MockEventPublisher {
	return &MockEventPublisher{events: make([]shared.DomainEvent, 0)}
}

func (p *MockEventPublisher) Publish(_ context.Context, events ...shared.DomainEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, events...)
	return nil
}

func (p *MockEventPublisher) Events() []shared.DomainEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]shared.DomainEvent(nil), p.events...)
}

func (p *MockEventPublisher) EventsByType(eventType string) []shared.DomainEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	matched := make([]shared.DomainEvent, 0)
	for _, e := range p.events {
		if e.EventType() == eventType {
			matched = append(matched, e)
		}
	}
	return matched
}

func (p *MockEventPublisher) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = nil
}

// recordedAudit is one captured activity feed entry
type recordedAudit struct {
	Action     string
	EntityType string
	EntityID   uuid.UUID
	Detail     string
}

// MockAuditRecorder captures activity feed entries
type MockAuditRecorder struct {
	mu      sync.Mutex
	entries []recordedAudit
}

func NewMockAuditRecorder() *MockAuditRecorder {
	return &MockAuditRecorder{}
}

func (r *MockAuditRecorder) Record(_ context.Context, _ uuid.UUID, action, entityType string, entityID uuid.UUID, _ *uuid.UUID, detail string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, recordedAudit{
		Action:     action,
		EntityType: entityType,
		EntityID:   entityID,
		Detail:     detail,
	})
}

func (r *MockAuditRecorder) Entries() []recordedAudit {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]recordedAudit(nil), r.entries...)
}

func zonesMatch(a, b *uuid.UUID) bool {
	if (a == nil) != (b == nil) {
		return false
	}
	return a == nil || *a == *b
}

func tupleMatches(l *stock.StockLevel, tenantID, warehouseID uuid.UUID, zoneID *uuid.UUID, item stock.ItemRef) bool {
	return l.TenantID == tenantID &&
		l.WarehouseID == warehouseID &&
		zonesMatch(l.ZoneID, zoneID) &&
		l.Item.Equal(item)
}

// memLevelRepo is an in-memory StockLevelRepository. Locking methods behave
// like their plain counterparts; the services under test run single-threaded.
type memLevelRepo struct {
	mu      sync.Mutex
	levels  map[uuid.UUID]*stock.StockLevel
	saveErr error
}

func newMemLevelRepo() *memLevelRepo {
	return &memLevelRepo{levels: make(map[uuid.UUID]*stock.StockLevel)}
}

func (r *memLevelRepo) put(level *stock.StockLevel) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.levels[level.ID] = level
}

func (r *memLevelRepo) FindByID(_ context.Context, tenantID, id uuid.UUID) (*stock.StockLevel, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	level, ok := r.levels[id]
	if !ok || level.TenantID != tenantID {
		return nil, shared.ErrNotFound
	}
	return level, nil
}

func (r *memLevelRepo) FindByTuple(_ context.Context, tenantID, warehouseID uuid.UUID, zoneID *uuid.UUID, item stock.ItemRef) (*stock.StockLevel, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, level := range r.levels {
		if tupleMatches(level, tenantID, warehouseID, zoneID, item) {
			return level, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (r *memLevelRepo) FindForUpdate(ctx context.Context, tenantID, warehouseID uuid.UUID, zoneID *uuid.UUID, item stock.ItemRef) (*stock.StockLevel, error) {
	return r.FindByTuple(ctx, tenantID, warehouseID, zoneID, item)
}

func (r *memLevelRepo) GetOrCreate(ctx context.Context, tenantID, warehouseID uuid.UUID, zoneID *uuid.UUID, item stock.ItemRef) (*stock.StockLevel, error) {
	if level, err := r.FindByTuple(ctx, tenantID, warehouseID, zoneID, item); err == nil {
		return level, nil
	}
	level, err := stock.NewStockLevel(tenantID, warehouseID, zoneID, item)
	if err != nil {
		return nil, err
	}
	r.put(level)
	return level, nil
}

func (r *memLevelRepo) FindByItem(_ context.Context, tenantID uuid.UUID, item stock.ItemRef) ([]*stock.StockLevel, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	matched := make([]*stock.StockLevel, 0)
	for _, level := range r.levels {
		if level.TenantID == tenantID && level.Item.Equal(item) {
			matched = append(matched, level)
		}
	}
	return matched, nil
}

func (r *memLevelRepo) FindByWarehouse(_ context.Context, tenantID, warehouseID uuid.UUID, filter shared.Filter) (shared.Paginated[*stock.StockLevel], error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	matched := make([]*stock.StockLevel, 0)
	for _, level := range r.levels {
		if level.TenantID == tenantID && level.WarehouseID == warehouseID {
			matched = append(matched, level)
		}
	}
	return shared.NewPaginated(matched, int64(len(matched)), filter.Page, filter.PageSize), nil
}

func (r *memLevelRepo) FindBelowMinimum(_ context.Context, tenantID uuid.UUID, warehouseID *uuid.UUID) ([]*stock.StockLevel, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	matched := make([]*stock.StockLevel, 0)
	for _, level := range r.levels {
		if level.TenantID != tenantID {
			continue
		}
		if warehouseID != nil && level.WarehouseID != *warehouseID {
			continue
		}
		belowMin := level.MinStock.GreaterThan(decimal.Zero) && level.Quantity.LessThanOrEqual(level.MinStock)
		underMax := level.MinStock.IsZero() && level.MaxStock.GreaterThan(decimal.Zero) && level.Quantity.LessThan(level.MaxStock)
		if belowMin || underMax {
			matched = append(matched, level)
		}
	}
	return matched, nil
}

func (r *memLevelRepo) Save(_ context.Context, level *stock.StockLevel) error {
	if r.saveErr != nil {
		return r.saveErr
	}
	r.put(level)
	return nil
}

func (r *memLevelRepo) SaveWithLock(ctx context.Context, level *stock.StockLevel) error {
	return r.Save(ctx, level)
}

// memMovementRepo is an in-memory append-only StockMovementRepository
type memMovementRepo struct {
	mu        sync.Mutex
	movements []*stock.StockMovement
	appendErr error
}

func newMemMovementRepo() *memMovementRepo {
	return &memMovementRepo{movements: make([]*stock.StockMovement, 0)}
}

func (r *memMovementRepo) FindByID(_ context.Context, tenantID, id uuid.UUID) (*stock.StockMovement, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range r.movements {
		if m.ID == id && m.TenantID == tenantID {
			return m, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (r *memMovementRepo) Append(_ context.Context, movements ...*stock.StockMovement) error {
	if r.appendErr != nil {
		return r.appendErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.movements = append(r.movements, movements...)
	return nil
}

func (r *memMovementRepo) Search(_ context.Context, tenantID uuid.UUID, query stock.MovementQuery, filter shared.Filter) (shared.Paginated[*stock.StockMovement], error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	matched := make([]*stock.StockMovement, 0)
	for _, m := range r.movements {
		if m.TenantID != tenantID {
			continue
		}
		if query.WarehouseID != nil && m.WarehouseID != *query.WarehouseID {
			continue
		}
		if query.Item != nil && !m.Item.Equal(*query.Item) {
			continue
		}
		if query.Type != nil && m.Type != *query.Type {
			continue
		}
		if query.Reference != "" && m.Reference != query.Reference {
			continue
		}
		matched = append(matched, m)
	}
	return shared.NewPaginated(matched, int64(len(matched)), filter.Page, filter.PageSize), nil
}

func (r *memMovementRepo) FindByReference(_ context.Context, tenantID uuid.UUID, reference string) ([]*stock.StockMovement, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	matched := make([]*stock.StockMovement, 0)
	for _, m := range r.movements {
		if m.TenantID == tenantID && m.Reference == reference {
			matched = append(matched, m)
		}
	}
	return matched, nil
}

func (r *memMovementRepo) DeleteByReference(_ context.Context, tenantID uuid.UUID, reference string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	kept := make([]*stock.StockMovement, 0, len(r.movements))
	var deleted int64
	for _, m := range r.movements {
		if m.TenantID == tenantID && m.Reference == reference {
			deleted++
			continue
		}
		kept = append(kept, m)
	}
	r.movements = kept
	return deleted, nil
}

func (r *memMovementRepo) SumSignedByTuple(_ context.Context, tenantID, warehouseID uuid.UUID, zoneID *uuid.UUID, item stock.ItemRef) (decimal.Decimal, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	total := decimal.Zero
	for _, m := range r.movements {
		if m.TenantID != tenantID || m.WarehouseID != warehouseID {
			continue
		}
		if !zonesMatch(m.ZoneID, zoneID) || !m.Item.Equal(item) {
			continue
		}
		total = total.Add(m.SignedQuantity())
	}
	return total, nil
}

func (r *memMovementRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.movements)
}

// memPhysicalRepo is an in-memory PhysicalInventoryRepository
type memPhysicalRepo struct {
	mu        sync.Mutex
	documents map[uuid.UUID]*stock.PhysicalInventory
	sequence  int
}

func newMemPhysicalRepo() *memPhysicalRepo {
	return &memPhysicalRepo{documents: make(map[uuid.UUID]*stock.PhysicalInventory)}
}

func (r *memPhysicalRepo) FindByID(_ context.Context, tenantID, id uuid.UUID) (*stock.PhysicalInventory, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	pi, ok := r.documents[id]
	if !ok || pi.TenantID != tenantID {
		return nil, shared.ErrNotFound
	}
	return pi, nil
}

func (r *memPhysicalRepo) FindByNumber(_ context.Context, tenantID uuid.UUID, number string) (*stock.PhysicalInventory, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, pi := range r.documents {
		if pi.TenantID == tenantID && pi.Number == number {
			return pi, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (r *memPhysicalRepo) FindByTenant(_ context.Context, tenantID uuid.UUID, status *stock.PhysicalInventoryStatus, filter shared.Filter) (shared.Paginated[*stock.PhysicalInventory], error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	matched := make([]*stock.PhysicalInventory, 0)
	for _, pi := range r.documents {
		if pi.TenantID != tenantID {
			continue
		}
		if status != nil && pi.Status != *status {
			continue
		}
		matched = append(matched, pi)
	}
	return shared.NewPaginated(matched, int64(len(matched)), filter.Page, filter.PageSize), nil
}

func (r *memPhysicalRepo) NextSequence(_ context.Context, _ uuid.UUID, _ time.Time) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sequence++
	return r.sequence, nil
}

func (r *memPhysicalRepo) Save(_ context.Context, pi *stock.PhysicalInventory) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.documents[pi.ID] = pi
	return nil
}

func (r *memPhysicalRepo) SaveWithItems(ctx context.Context, pi *stock.PhysicalInventory) error {
	return r.Save(ctx, pi)
}

// memRecipeRepo is an in-memory RecipeRepository
type memRecipeRepo struct {
	mu      sync.Mutex
	recipes map[uuid.UUID]*stock.Recipe
}

func newMemRecipeRepo() *memRecipeRepo {
	return &memRecipeRepo{recipes: make(map[uuid.UUID]*stock.Recipe)}
}

func (r *memRecipeRepo) FindByID(_ context.Context, tenantID, id uuid.UUID) (*stock.Recipe, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	recipe, ok := r.recipes[id]
	if !ok || recipe.TenantID != tenantID {
		return nil, shared.ErrNotFound
	}
	return recipe, nil
}

func (r *memRecipeRepo) FindActiveByProduct(_ context.Context, tenantID, productID uuid.UUID) (*stock.Recipe, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, recipe := range r.recipes {
		if recipe.TenantID == tenantID && recipe.ProductID == productID && recipe.Active {
			return recipe, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (r *memRecipeRepo) FindByTenant(_ context.Context, tenantID uuid.UUID, filter shared.Filter) (shared.Paginated[*stock.Recipe], error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	matched := make([]*stock.Recipe, 0)
	for _, recipe := range r.recipes {
		if recipe.TenantID == tenantID {
			matched = append(matched, recipe)
		}
	}
	return shared.NewPaginated(matched, int64(len(matched)), filter.Page, filter.PageSize), nil
}

func (r *memRecipeRepo) Save(_ context.Context, recipe *stock.Recipe) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.recipes[recipe.ID] = recipe
	return nil
}

func (r *memRecipeRepo) Delete(_ context.Context, tenantID, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	recipe, ok := r.recipes[id]
	if !ok || recipe.TenantID != tenantID {
		return shared.ErrNotFound
	}
	delete(r.recipes, id)
	return nil
}

// stockFixture bundles the in-memory repositories behind a no-op scope
type stockFixture struct {
	levelRepo    *memLevelRepo
	movementRepo *memMovementRepo
	physicalRepo *memPhysicalRepo
	recipeRepo   *memRecipeRepo
	txScope      *NoOpTransactionScope
	publisher    *MockEventPublisher
}

func newStockFixture() *stockFixture {
	levelRepo := newMemLevelRepo()
	movementRepo := newMemMovementRepo()
	physicalRepo := newMemPhysicalRepo()
	return &stockFixture{
		levelRepo:    levelRepo,
		movementRepo: movementRepo,
		physicalRepo: physicalRepo,
		recipeRepo:   newMemRecipeRepo(),
		txScope:      NewNoOpTransactionScope(levelRepo, movementRepo, physicalRepo),
		publisher:    NewMockEventPublisher(),
	}
}

// seedLevel creates a level row with the given on-hand quantity
func (f *stockFixture) seedLevel(tenantID, warehouseID uuid.UUID, zoneID *uuid.UUID, item stock.ItemRef, quantity decimal.Decimal) *stock.StockLevel {
	level, err := stock.NewStockLevel(tenantID, warehouseID, zoneID, item)
	if err != nil {
		panic(err)
	}
	if !quantity.IsZero() {
		if err := level.ApplyDelta(quantity); err != nil {
			panic(err)
		}
		level.ClearDomainEvents()
	}
	f.levelRepo.put(level)
	return level
}

var _ stock.StockLevelRepository = (*memLevelRepo)(nil)
var _ stock.StockMovementRepository = (*memMovementRepo)(nil)
var _ stock.PhysicalInventoryRepository = (*memPhysicalRepo)(nil)
var _ stock.RecipeRepository = (*memRecipeRepo)(nil)
var _ shared.EventPublisher = (*MockEventPublisher)(nil)
var _ AuditRecorder = (*MockAuditRecorder)(nil)
