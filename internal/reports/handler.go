package reports

import (
	"bytes"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// Handler handles HTTP requests for reporting operations
type Handler struct {
	service *Service
	logger  *zap.Logger
}

// NewHandler creates a new reports handler
func NewHandler(service *Service, logger *zap.Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// RegisterRoutes registers reporting routes
func (h *Handler) RegisterRoutes(router *gin.RouterGroup, requireAuth gin.HandlerFunc) {
	reports := router.Group("/reports", requireAuth)
	{
		reports.GET("/pipeline.xlsx", h.pipeline)
	}
}

// pipeline handles GET /api/v1/reports/pipeline.xlsx
func (h *Handler) pipeline(c *gin.Context) {
	var buf bytes.Buffer
	if err := h.service.WritePipeline(c.Request.Context(), &buf); err != nil {
		h.logger.Error("Failed to build pipeline report", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to build pipeline report"})
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, FileName(time.Now())))
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}
