package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"raglayer/src/core/collection"
)

type searchRequest struct {
	Query       string  `json:"query" binding:"required"`
	DocumentIDs []int64 `json:"documentIds"`
	Limit       int     `json:"limit"`
	Certainty   float64 `json:"certainty"`
	UseHybrid   bool    `json:"useHybrid"` // Whether to use hybrid search
}

// Search godoc
// @Summary Search content in a collection
// @Tags search
// @Accept json
// @Produce json
// @Param id path int true "Collection ID"
// @Param body body searchRequest true "Search parameters"
// @Success 200 {array} collection.SearchResultChunk
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /collections/{id}/search [post]
func (h *Handler) Search(c *gin.Context) {
	var req searchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		sendError(c, http.StatusBadRequest, err)
		return
	}

	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	results, err := h.searchService.Search(c.Request.Context(), id, collection.RetrievalSpec{
		Query:       req.Query,
		DocumentIDs: req.DocumentIDs,
		Limit:       req.Limit,
		Certainty:   req.Certainty,
		Hybrid:      req.UseHybrid,
	})
	if err != nil {
		sendError(c, http.StatusInternalServerError, err)
		return
	}

	sendJSON(c, http.StatusOK, results)
}
