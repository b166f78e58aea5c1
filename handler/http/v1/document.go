package v1

import (
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
)

// ListDocuments godoc
// @Summary List documents in a collection
// @Tags documents
// @Param id path int true "Collection ID"
// @Produce json
// @Success 200 {array} collection.DocumentInfo
// @Failure 404 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /collections/{id}/documents [get]
func (h *Handler) ListDocuments(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	offset, limit := parsePaging(c)
	documents, err := h.documentService.List(c.Request.Context(), id, offset, limit)
	if err != nil {
		sendError(c, http.StatusInternalServerError, err)
		return
	}
	sendJSON(c, http.StatusOK, documents)
}

// CreateDocument godoc
// @Summary Upload a document to a collection
// @Tags documents
// @Accept multipart/form-data
// @Param id path int true "Collection ID"
// @Param file formData file true "Document file"
// @Produce json
// @Success 201 {object} collection.DocumentInfo
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /collections/{id}/documents [post]
func (h *Handler) CreateDocument(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	file, header, err := c.Request.FormFile("file")
	if err != nil {
		sendError(c, http.StatusBadRequest, fmt.Errorf("file upload required: %w", err))
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		sendError(c, http.StatusInternalServerError, fmt.Errorf("failed to read file: %w", err))
		return
	}

	document, err := h.documentService.Create(c.Request.Context(), id, data, header.Filename)
	if err != nil {
		sendError(c, http.StatusInternalServerError, err)
		return
	}

	sendJSON(c, http.StatusCreated, document)
}

// DeleteDocument godoc
// @Summary Remove a document from a collection
// @Tags documents
// @Param id path int true "Collection ID"
// @Param documentId path int true "Document ID"
// @Success 204 "No Content"
// @Failure 404 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /collections/{id}/documents/{documentId} [delete]
func (h *Handler) DeleteDocument(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	documentID, ok := parseID(c, "documentId")
	if !ok {
		return
	}

	if err := h.documentService.Delete(c.Request.Context(), id, documentID); err != nil {
		sendError(c, http.StatusInternalServerError, err)
		return
	}

	c.Status(http.StatusNoContent)
}
