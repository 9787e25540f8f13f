package documents

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/RudyEaglevanBreda/drone-ops-manager/internal/apperr"
	"github.com/RudyEaglevanBreda/drone-ops-manager/internal/auth"
)

type Handler struct {
	service Service
	logger  *zap.Logger
}

func NewHandler(service Service, logger *zap.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, requireAuth gin.HandlerFunc) {
	lifecycle := rg.Group("/lifecycle", requireAuth)
	{
		lifecycle.POST("/projects/:id/document/:documentType", h.upload(OwnerProject))
		lifecycle.GET("/projects/:id/documents", h.list(OwnerProject))
		lifecycle.POST("/workorders/:id/document/:documentType", h.upload(OwnerWorkOrder))
		lifecycle.GET("/workorders/:id/documents", h.list(OwnerWorkOrder))
		lifecycle.GET("/documents/:documentId/content", h.content)
	}
}

func (h *Handler) upload(owner OwnerType) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := uuid.Parse(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
			return
		}

		file, err := c.FormFile("file")
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "No file uploaded"})
			return
		}
		f, err := file.Open()
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		defer f.Close()

		docType := DocumentType(c.Param("documentType"))
		result, err := h.service.Upload(c.Request.Context(), UploadRequest{
			Owner:        owner,
			OwnerID:      id,
			DocumentType: docType,
			FileName:     file.Filename,
			Content:      f,
			UploadedBy:   auth.UserID(c),
		})
		if err != nil {
			h.respondError(c, err)
			return
		}

		c.JSON(http.StatusCreated, gin.H{
			"message": fmt.Sprintf("%s document uploaded successfully", titleCase(string(docType))),
			"result":  result,
		})
	}
}

func (h *Handler) list(owner OwnerType) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := uuid.Parse(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
			return
		}

		docs, err := h.service.List(c.Request.Context(), owner, id)
		if err != nil {
			h.respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, docs)
	}
}

func (h *Handler) content(c *gin.Context) {
	id, err := uuid.Parse(c.Param("documentId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}

	doc, body, err := h.service.Open(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	defer body.Close()

	c.DataFromReader(http.StatusOK, doc.FileSize, doc.ContentType, body, map[string]string{
		"Content-Disposition": fmt.Sprintf("attachment; filename=%q", doc.FileName),
	})
}

func (h *Handler) respondError(c *gin.Context, err error) {
	status := apperr.HTTPStatus(err)
	if status == http.StatusInternalServerError {
		h.logger.Error("Document request failed", zap.Error(err), zap.String("path", c.FullPath()))
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
