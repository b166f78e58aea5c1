package v1

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"raglayer/src/core/collection"
)

type createCollectionRequest struct {
	Name            string `json:"name" binding:"required"`
	Description     string `json:"description"`
	EmbeddingModel  string `json:"embeddingModel"`
	CompletionModel string `json:"completionModel"`
	SourceField     string `json:"sourceField"`
	PromptTemplate  string `json:"promptTemplate"`
}

func parseID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil {
		sendError(c, http.StatusBadRequest, collection.ErrInvalidRequest)
		return 0, false
	}
	return id, true
}

func parsePaging(c *gin.Context) (offset, limit int) {
	offset, _ = strconv.Atoi(c.DefaultQuery("offset", "0"))
	limit, _ = strconv.Atoi(c.DefaultQuery("limit", "20"))
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return offset, limit
}

// ListCollections godoc
// @Summary List all collections
// @Tags collections
// @Produce json
// @Success 200 {array} collection.Collection
// @Failure 500 {object} ErrorResponse
// @Router /collections [get]
func (h *Handler) ListCollections(c *gin.Context) {
	offset, limit := parsePaging(c)
	collections, err := h.collectionService.List(c.Request.Context(), offset, limit)
	if err != nil {
		sendError(c, http.StatusInternalServerError, err)
		return
	}
	sendJSON(c, http.StatusOK, collections)
}

// CreateCollection godoc
// @Summary Create a new collection
// @Tags collections
// @Accept json
// @Produce json
// @Param body body createCollectionRequest true "Collection configuration"
// @Success 201 {object} collection.Collection
// @Failure 400 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /collections [post]
func (h *Handler) CreateCollection(c *gin.Context) {
	var req createCollectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		sendError(c, http.StatusBadRequest, err)
		return
	}

	col := &collection.Collection{
		Name:            req.Name,
		Description:     req.Description,
		EmbeddingModel:  req.EmbeddingModel,
		CompletionModel: req.CompletionModel,
		SourceField:     req.SourceField,
		PromptTemplate:  req.PromptTemplate,
	}

	if err := h.collectionService.Create(c.Request.Context(), col); err != nil {
		sendError(c, http.StatusInternalServerError, err)
		return
	}

	sendJSON(c, http.StatusCreated, col)
}

// GetCollection godoc
// @Summary Get a collection
// @Tags collections
// @Param id path int true "Collection ID"
// @Produce json
// @Success 200 {object} collection.Collection
// @Failure 404 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /collections/{id} [get]
func (h *Handler) GetCollection(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	col, err := h.collectionService.Get(c.Request.Context(), id)
	if err != nil {
		sendError(c, http.StatusInternalServerError, err)
		return
	}
	sendJSON(c, http.StatusOK, col)
}

// DeleteCollection godoc
// @Summary Delete a collection and everything stored in it
// @Tags collections
// @Param id path int true "Collection ID"
// @Success 204 "No Content"
// @Failure 404 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /collections/{id} [delete]
func (h *Handler) DeleteCollection(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	if err := h.collectionService.Delete(c.Request.Context(), id); err != nil {
		sendError(c, http.StatusInternalServerError, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// GetCollectionSummary godoc
// @Summary Get a collection summary
// @Tags collections
// @Param id path int true "Collection ID"
// @Success 200 {string} string
// @Failure 404 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /collections/{id}/summary [get]
func (h *Handler) GetCollectionSummary(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	summary, err := h.collectionService.GetSummary(c.Request.Context(), id)
	if err != nil {
		sendError(c, http.StatusInternalServerError, err)
		return
	}
	sendJSON(c, http.StatusOK, gin.H{"summary": summary})
}
