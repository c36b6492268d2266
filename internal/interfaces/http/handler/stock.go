package handler

import (
	stockapp "github.com/bizsuite/stockledger/internal/application/stock"
	"github.com/bizsuite/stockledger/internal/domain/shared"
	"github.com/bizsuite/stockledger/internal/domain/stock"
	"github.com/bizsuite/stockledger/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// StockHandler handles ledger, level, transfer and adjustment endpoints
type StockHandler struct {
	BaseHandler
	ledgerService     *stockapp.LedgerService
	transferService   *stockapp.TransferService
	adjustmentService *stockapp.AdjustmentService
	compositeService  *stockapp.CompositeService
	reorderService    *stockapp.ReorderService
}

// NewStockHandler creates a new StockHandler
func NewStockHandler(
	ledgerService *stockapp.LedgerService,
	transferService *stockapp.TransferService,
	adjustmentService *stockapp.AdjustmentService,
	compositeService *stockapp.CompositeService,
	reorderService *stockapp.ReorderService,
) *StockHandler {
	return &StockHandler{
		ledgerService:     ledgerService,
		transferService:   transferService,
		adjustmentService: adjustmentService,
		compositeService:  compositeService,
		reorderService:    reorderService,
	}
}

// RegisterRoutes registers stock routes
func (h *StockHandler) RegisterRoutes(rg *gin.RouterGroup) {
	movements := rg.Group("/stock/movements")
	{
		movements.POST("", h.RecordMovement)
		movements.GET("", h.ListMovements)
		movements.GET("/:id", h.GetMovement)
	}

	levels := rg.Group("/stock/levels")
	{
		levels.GET("", h.ListLevels)
		levels.GET("/by-item", h.GetLevelsByItem)
		levels.GET("/lookup", h.GetLevel)
		levels.PUT("/thresholds", h.SetThresholds)
	}

	rg.POST("/stock/transfers", h.Transfer)
	rg.GET("/stock/transfers/:reference", h.GetTransfer)
	rg.POST("/stock/adjustments", h.Adjust)
	rg.POST("/stock/adjustments/delta", h.AdjustBy)
	rg.GET("/stock/available-to-sell", h.AvailableToSell)
	rg.GET("/stock/reorder-suggestions", h.ReorderSuggestions)
	rg.GET("/stock/reconciliation", h.Reconcile)
}

// RecordMovement appends a movement to the ledger
func (h *StockHandler) RecordMovement(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Tenant context is required")
		return
	}

	var req stockapp.RecordMovementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}
	if req.ActorID == nil {
		req.ActorID = getActorID(c)
	}

	resp, err := h.ledgerService.RecordMovement(c.Request.Context(), tenantID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, resp)
}

// GetMovement returns a single ledger entry
func (h *StockHandler) GetMovement(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Tenant context is required")
		return
	}

	movementID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid movement ID format")
		return
	}

	resp, err := h.ledgerService.GetMovement(c.Request.Context(), tenantID, movementID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// ListMovements returns a filtered page of the ledger
func (h *StockHandler) ListMovements(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Tenant context is required")
		return
	}

	var filter stockapp.MovementListFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	page, err := h.ledgerService.ListMovements(c.Request.Context(), tenantID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, page.Items, page.Total, page.Page, page.PageSize)
}

// levelQuery binds the stock tuple from query parameters
type levelQuery struct {
	WarehouseID uuid.UUID  `form:"warehouse_id" binding:"required"`
	ZoneID      *uuid.UUID `form:"zone_id"`
	ProductID   uuid.UUID  `form:"product_id" binding:"required"`
	VariantID   *uuid.UUID `form:"variant_id"`
}

func (q *levelQuery) itemRef() stock.ItemRef {
	if q.VariantID != nil {
		return stock.NewVariantRef(q.ProductID, *q.VariantID)
	}
	return stock.NewProductRef(q.ProductID)
}

// GetLevel returns the projection row for one stock tuple
func (h *StockHandler) GetLevel(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Tenant context is required")
		return
	}

	var q levelQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	resp, err := h.ledgerService.GetLevel(c.Request.Context(), tenantID, q.WarehouseID, q.ZoneID, q.itemRef())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// GetLevelsByItem returns all locations holding an item
func (h *StockHandler) GetLevelsByItem(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Tenant context is required")
		return
	}

	var q struct {
		ProductID uuid.UUID  `form:"product_id" binding:"required"`
		VariantID *uuid.UUID `form:"variant_id"`
	}
	if err := c.ShouldBindQuery(&q); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	item := stock.NewProductRef(q.ProductID)
	if q.VariantID != nil {
		item = stock.NewVariantRef(q.ProductID, *q.VariantID)
	}

	resp, err := h.ledgerService.GetLevelsByItem(c.Request.Context(), tenantID, item)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// ListLevels returns a page of projection rows for one warehouse
func (h *StockHandler) ListLevels(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Tenant context is required")
		return
	}

	warehouseID, err := uuid.Parse(c.Query("warehouse_id"))
	if err != nil {
		h.BadRequest(c, "Invalid warehouse ID format")
		return
	}

	listReq := dto.DefaultListRequest()
	if err := c.ShouldBindQuery(&listReq); err != nil {
		h.BadRequest(c, err.Error())
		return
	}
	filter := shared.Filter{
		Page:     listReq.Page,
		PageSize: listReq.PageSize,
		OrderBy:  listReq.OrderBy,
		OrderDir: listReq.OrderDir,
	}

	page, err := h.ledgerService.ListLevelsByWarehouse(c.Request.Context(), tenantID, warehouseID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, page.Items, page.Total, page.Page, page.PageSize)
}

// SetThresholds configures reorder thresholds for a stock tuple
func (h *StockHandler) SetThresholds(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Tenant context is required")
		return
	}

	var req stockapp.SetThresholdsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	resp, err := h.ledgerService.SetThresholds(c.Request.Context(), tenantID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// Transfer moves stock between two locations as an atomic movement pair
func (h *StockHandler) Transfer(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Tenant context is required")
		return
	}

	var req stockapp.TransferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}
	if req.ActorID == nil {
		req.ActorID = getActorID(c)
	}

	resp, err := h.transferService.Transfer(c.Request.Context(), tenantID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, resp)
}

// GetTransfer returns the movement pair recorded under a transfer reference
func (h *StockHandler) GetTransfer(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Tenant context is required")
		return
	}

	reference := c.Param("reference")
	if reference == "" {
		h.BadRequest(c, "Transfer reference is required")
		return
	}

	resp, err := h.transferService.GetTransfer(c.Request.Context(), tenantID, reference)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// Adjust corrects a stock level to an observed actual quantity
func (h *StockHandler) Adjust(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Tenant context is required")
		return
	}

	var req stockapp.AdjustStockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}
	if req.ActorID == nil {
		req.ActorID = getActorID(c)
	}

	resp, err := h.adjustmentService.Adjust(c.Request.Context(), tenantID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// AdjustBy applies a signed correction to a stock level
func (h *StockHandler) AdjustBy(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Tenant context is required")
		return
	}

	var req stockapp.AdjustByRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}
	if req.ActorID == nil {
		req.ActorID = getActorID(c)
	}

	resp, err := h.adjustmentService.AdjustBy(c.Request.Context(), tenantID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// AvailableToSell returns derived availability for a product, expanding
// composite products through their recipe.
func (h *StockHandler) AvailableToSell(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Tenant context is required")
		return
	}

	var q struct {
		ProductID   uuid.UUID  `form:"product_id" binding:"required"`
		VariantID   *uuid.UUID `form:"variant_id"`
		WarehouseID *uuid.UUID `form:"warehouse_id"`
	}
	if err := c.ShouldBindQuery(&q); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	resp, err := h.compositeService.AvailableToSell(c.Request.Context(), tenantID, q.ProductID, q.VariantID, q.WarehouseID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// ReorderSuggestions returns replenishment suggestions for levels at or
// below their minimum threshold.
func (h *StockHandler) ReorderSuggestions(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Tenant context is required")
		return
	}

	var warehouseID *uuid.UUID
	if raw := c.Query("warehouse_id"); raw != "" {
		parsed, err := uuid.Parse(raw)
		if err != nil {
			h.BadRequest(c, "Invalid warehouse ID format")
			return
		}
		warehouseID = &parsed
	}

	resp, err := h.reorderService.Suggestions(c.Request.Context(), tenantID, warehouseID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// Reconcile replays the ledger for one warehouse and reports projection drift
func (h *StockHandler) Reconcile(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Tenant context is required")
		return
	}

	warehouseID, err := uuid.Parse(c.Query("warehouse_id"))
	if err != nil {
		h.BadRequest(c, "Invalid warehouse ID format")
		return
	}

	resp, err := h.ledgerService.Reconcile(c.Request.Context(), tenantID, warehouseID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}
