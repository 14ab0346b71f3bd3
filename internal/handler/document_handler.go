package handler

import (
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"lawnorm/internal/domain"
	"lawnorm/internal/service"
)

// DocumentHandler serves normalized documents and their processing state.
type DocumentHandler struct {
	documentService service.DocumentService
	maxAttempts     int
	logger          *zap.Logger
}

// NewDocumentHandler creates a new DocumentHandler. maxAttempts is the
// pipeline retry ceiling used to derive each document's status.
func NewDocumentHandler(documentService service.DocumentService, maxAttempts int, logger *zap.Logger) *DocumentHandler {
	return &DocumentHandler{documentService: documentService, maxAttempts: maxAttempts, logger: logger}
}

// GetByID handles GET /api/v1/documents/:id
// @Summary Get a normalized document
// @Tags documents
// @Produce json
// @Param id path string true "Document ID"
// @Success 200 {object} Response{data=domain.NormalizedDocument} "Normalized document"
// @Failure 404 {object} ErrorResponseBody "Document not found"
// @Security BearerAuth
// @Router /documents/{id} [get]
func (h *DocumentHandler) GetByID(c *gin.Context) {
	doc, err := h.documentService.GetNormalized(c.Request.Context(), c.Param("id"))
	if err != nil {
		HandleError(c, h.logger, err)
		return
	}
	RespondOK(c, doc)
}

// GetState handles GET /api/v1/documents/:id/state
// @Summary Get a document's processing state
// @Tags documents
// @Produce json
// @Param id path string true "Content ID"
// @Success 200 {object} Response{data=DocumentStateResponse} "Processing state"
// @Failure 404 {object} ErrorResponseBody "Document not found"
// @Security BearerAuth
// @Router /documents/{id}/state [get]
func (h *DocumentHandler) GetState(c *gin.Context) {
	st, err := h.documentService.GetState(c.Request.Context(), c.Param("id"))
	if err != nil {
		HandleError(c, h.logger, err)
		return
	}
	RespondOK(c, newDocumentStateResponse(st, h.maxAttempts))
}

// List handles GET /api/v1/documents
// @Summary List normalized documents by jurisdiction
// @Tags documents
// @Produce json
// @Param state_code query string false "Two-letter state code"
// @Param place_name query string false "Place name"
// @Param offset query int false "Offset for pagination" default(0)
// @Param limit query int false "Limit for pagination (max 100)" default(20)
// @Success 200 {object} PaginatedResponse{data=[]domain.NormalizedDocument} "Documents"
// @Security BearerAuth
// @Router /documents [get]
func (h *DocumentHandler) List(c *gin.Context) {
	offset, limit := parsePagination(c)
	filter := domain.JurisdictionFilter{
		StateCode: strings.ToUpper(strings.TrimSpace(c.Query("state_code"))),
		PlaceName: strings.TrimSpace(c.Query("place_name")),
	}

	docs, total, err := h.documentService.ListNormalized(c.Request.Context(), filter, offset, limit)
	if err != nil {
		HandleError(c, h.logger, err)
		return
	}
	RespondPaginated(c, docs, PagMeta{Total: total, Offset: offset, Limit: limit})
}

// ListFailures handles GET /api/v1/failures
// @Summary List permanently failed documents
// @Tags documents
// @Produce json
// @Param offset query int false "Offset for pagination" default(0)
// @Param limit query int false "Limit for pagination (max 100)" default(20)
// @Success 200 {object} PaginatedResponse{data=[]DocumentStateResponse} "Failed documents"
// @Security BearerAuth
// @Router /failures [get]
func (h *DocumentHandler) ListFailures(c *gin.Context) {
	offset, limit := parsePagination(c)
	states, total, err := h.documentService.ListFailures(c.Request.Context(), offset, limit)
	if err != nil {
		HandleError(c, h.logger, err)
		return
	}

	out := make([]DocumentStateResponse, len(states))
	for i := range states {
		out[i] = newDocumentStateResponse(&states[i], h.maxAttempts)
	}
	RespondPaginated(c, out, PagMeta{Total: total, Offset: offset, Limit: limit})
}

// Reprocess handles POST /api/v1/documents/:id/reprocess
// @Summary Reset a document so the next run processes it again
// @Tags documents
// @Produce json
// @Param id path string true "Content ID"
// @Success 200 {object} Response{data=DocumentStateResponse} "Reset state"
// @Failure 403 {object} ErrorResponseBody "Admin role required"
// @Failure 404 {object} ErrorResponseBody "Document not found"
// @Security BearerAuth
// @Router /documents/{id}/reprocess [post]
func (h *DocumentHandler) Reprocess(c *gin.Context) {
	st, err := h.documentService.Reprocess(c.Request.Context(), c.Param("id"))
	if err != nil {
		HandleError(c, h.logger, err)
		return
	}
	h.logger.Info("handler.Reprocess: document reset", zap.String("content_id", st.ContentID))
	RespondOK(c, newDocumentStateResponse(st, h.maxAttempts))
}
