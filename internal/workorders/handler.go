package workorders

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/RudyEaglevanBreda/drone-ops-manager/internal/apperr"
	"github.com/RudyEaglevanBreda/drone-ops-manager/internal/auth"
	"github.com/RudyEaglevanBreda/drone-ops-manager/pkg/workflows"
)

type Handler struct {
	service Service
	logger  *zap.Logger
}

func NewHandler(service Service, logger *zap.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// RegisterRoutes mounts the work order and work order lifecycle routes. Status
// listings are public; everything else goes through requireAuth.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, requireAuth gin.HandlerFunc) {
	workOrders := rg.Group("/workorders", requireAuth)
	{
		workOrders.POST("", h.Create)
		workOrders.GET("", h.List)
		workOrders.GET("/financial-summary", h.FinancialSummary)
		workOrders.GET("/:id", h.Get)
		workOrders.GET("/:id/history", h.History)
	}

	lifecycle := rg.Group("/lifecycle/workorders")
	{
		lifecycle.GET("/statuses", h.Statuses)
		lifecycle.GET("/:id/transitions", requireAuth, h.Transitions)
		lifecycle.POST("/:id/status", requireAuth, h.UpdateStatus)
		lifecycle.POST("/:id/field", requireAuth, h.UpdateField)
		lifecycle.POST("/:id/quote", requireAuth, h.UpdateQuote)
		lifecycle.POST("/:id/invoice", requireAuth, h.UpdateInvoice)
	}
}

func (h *Handler) Create(c *gin.Context) {
	var req CreateWorkOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	workOrder, err := h.service.CreateWorkOrder(c.Request.Context(), req, auth.UserID(c))
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, workOrder)
}

func (h *Handler) List(c *gin.Context) {
	filter := WorkOrderFilter{
		Status: workflows.Status(c.Query("status")),
		Search: c.Query("q"),
	}
	if raw := c.Query("projectId"); raw != "" {
		projectID, err := uuid.Parse(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid projectId"})
			return
		}
		filter.ProjectID = &projectID
	}
	filter.Limit, _ = strconv.Atoi(c.DefaultQuery("limit", "50"))
	filter.Offset, _ = strconv.Atoi(c.DefaultQuery("offset", "0"))

	workOrders, err := h.service.ListWorkOrders(c.Request.Context(), filter)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, workOrders)
}

func (h *Handler) Get(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	workOrder, err := h.service.GetWorkOrder(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, workOrder)
}

func (h *Handler) History(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	history, err := h.service.GetStatusHistory(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, history)
}

func (h *Handler) FinancialSummary(c *gin.Context) {
	projectID, err := uuid.Parse(c.Query("projectId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "projectId is required"})
		return
	}

	summary, err := h.service.GetFinancialSummary(c.Request.Context(), projectID)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, summary)
}

// ============================================================================
// Lifecycle
// ============================================================================

func (h *Handler) Statuses(c *gin.Context) {
	c.JSON(http.StatusOK, h.service.Statuses())
}

func (h *Handler) Transitions(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	view, err := h.service.GetTransitions(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, view)
}

func (h *Handler) UpdateStatus(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	var req UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.NextStatus) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Next status is required"})
		return
	}
	next := workflows.Status(req.NextStatus)

	workOrder, err := h.service.UpdateStatus(c.Request.Context(), id, next, auth.UserID(c))
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"message":   fmt.Sprintf("Work order status updated to '%s'", next),
		"workOrder": workOrder,
		"guidance":  h.service.Lifecycle().GuidanceFor(next),
	})
}

func (h *Handler) UpdateField(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	var req UpdateFieldRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Field == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Field name is required"})
		return
	}

	workOrder, options, err := h.service.UpdateField(c.Request.Context(), id, req.Field, req.Value, auth.UserID(c))
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":              true,
		"message":              fmt.Sprintf("Field '%s' updated successfully", req.Field),
		"workOrder":            workOrder,
		"availableTransitions": options,
	})
}

func (h *Handler) UpdateQuote(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	var req QuoteUpdate
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	workOrder, err := h.service.UpdateQuote(c.Request.Context(), id, req)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"message":   "Quote information updated successfully",
		"workOrder": workOrder,
	})
}

func (h *Handler) UpdateInvoice(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	var req InvoiceUpdate
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	workOrder, err := h.service.UpdateInvoice(c.Request.Context(), id, req)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"message":   "Invoice information updated successfully",
		"workOrder": workOrder,
	})
}

func (h *Handler) respondError(c *gin.Context, err error) {
	status := apperr.HTTPStatus(err)
	if status == http.StatusInternalServerError {
		h.logger.Error("Work order request failed", zap.Error(err), zap.String("path", c.FullPath()))
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

func parseID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return uuid.Nil, false
	}
	return id, true
}
