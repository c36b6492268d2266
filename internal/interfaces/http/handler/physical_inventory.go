package handler

import (
	stockapp "github.com/bizsuite/stockledger/internal/application/stock"
	"github.com/bizsuite/stockledger/internal/domain/shared"
	"github.com/bizsuite/stockledger/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// PhysicalInventoryHandler handles physical inventory count endpoints
type PhysicalInventoryHandler struct {
	BaseHandler
	service *stockapp.PhysicalInventoryService
}

// NewPhysicalInventoryHandler creates a new PhysicalInventoryHandler
func NewPhysicalInventoryHandler(service *stockapp.PhysicalInventoryService) *PhysicalInventoryHandler {
	return &PhysicalInventoryHandler{service: service}
}

// RegisterRoutes registers physical inventory routes
func (h *PhysicalInventoryHandler) RegisterRoutes(rg *gin.RouterGroup) {
	counts := rg.Group("/physical-inventories")
	{
		counts.POST("", h.Create)
		counts.GET("", h.List)
		counts.GET("/:id", h.Get)
		counts.POST("/:id/counts", h.RecordCount)
		counts.POST("/:id/complete", h.Complete)
		counts.POST("/:id/approve", h.Approve)
		counts.POST("/:id/cancel", h.Cancel)
	}
}

// Create opens a new count document snapshotting current system quantities
func (h *PhysicalInventoryHandler) Create(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Tenant context is required")
		return
	}

	var req stockapp.CreatePhysicalInventoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	resp, err := h.service.Create(c.Request.Context(), tenantID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, resp)
}

// Get returns one count document with its lines
func (h *PhysicalInventoryHandler) Get(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Tenant context is required")
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid physical inventory ID format")
		return
	}

	resp, err := h.service.Get(c.Request.Context(), tenantID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// List returns a page of count documents, optionally filtered by status
func (h *PhysicalInventoryHandler) List(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Tenant context is required")
		return
	}

	listReq := dto.DefaultListRequest()
	if err := c.ShouldBindQuery(&listReq); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	var status *string
	if raw := c.Query("status"); raw != "" {
		status = &raw
	}

	filter := shared.Filter{
		Page:     listReq.Page,
		PageSize: listReq.PageSize,
		OrderBy:  listReq.OrderBy,
		OrderDir: listReq.OrderDir,
	}

	page, err := h.service.List(c.Request.Context(), tenantID, status, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, page.Items, page.Total, page.Page, page.PageSize)
}

// RecordCount records the counted quantity for one snapshot line
func (h *PhysicalInventoryHandler) RecordCount(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Tenant context is required")
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid physical inventory ID format")
		return
	}

	var req stockapp.RecordCountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	resp, err := h.service.RecordCount(c.Request.Context(), tenantID, id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// Complete closes the counting phase
func (h *PhysicalInventoryHandler) Complete(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Tenant context is required")
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid physical inventory ID format")
		return
	}

	resp, err := h.service.Complete(c.Request.Context(), tenantID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// Approve writes adjustment movements for every counted difference
func (h *PhysicalInventoryHandler) Approve(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Tenant context is required")
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid physical inventory ID format")
		return
	}

	approverID := getActorID(c)
	if approverID == nil {
		h.BadRequest(c, "Approver ID is required (X-User-ID header)")
		return
	}

	resp, err := h.service.Approve(c.Request.Context(), tenantID, id, *approverID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// Cancel reverses an approved count by deleting its movements and undoing
// their projection deltas.
func (h *PhysicalInventoryHandler) Cancel(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Tenant context is required")
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid physical inventory ID format")
		return
	}

	var req stockapp.CancelPhysicalInventoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}
	if req.ActorID == nil {
		req.ActorID = getActorID(c)
	}

	resp, err := h.service.CancelApproved(c.Request.Context(), tenantID, id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}
