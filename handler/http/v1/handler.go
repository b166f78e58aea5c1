package v1

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"raglayer/src/core/collection"
)

type Handler struct {
	collectionService collection.CollectionService
	documentService   collection.DocumentService
	searchService     collection.SearchService
	chatService       collection.ChatService
	sysService        collection.SystemService
}

func NewHandler(
	collectionService collection.CollectionService,
	documentService collection.DocumentService,
	searchService collection.SearchService,
	chatService collection.ChatService,
	sysService collection.SystemService,
) *Handler {
	return &Handler{
		collectionService: collectionService,
		documentService:   documentService,
		searchService:     searchService,
		chatService:       chatService,
		sysService:        sysService,
	}
}

// RegisterRoutes registers all v1 API routes
func (h *Handler) RegisterRoutes(r *gin.Engine) {
	v1 := r.Group("/api/v1")

	// Collection routes
	v1.GET("/collections", h.ListCollections)
	v1.POST("/collections", h.CreateCollection)
	v1.GET("/collections/:id", h.GetCollection)
	v1.DELETE("/collections/:id", h.DeleteCollection)
	v1.GET("/collections/:id/summary", h.GetCollectionSummary)

	// Document routes
	v1.GET("/collections/:id/documents", h.ListDocuments)
	v1.POST("/collections/:id/documents", h.CreateDocument)
	v1.DELETE("/collections/:id/documents/:documentId", h.DeleteDocument)

	// Search routes
	v1.POST("/collections/:id/search", h.Search)

	// Chat routes
	v1.POST("/chat/completions", h.GenerateCompletion)
	v1.GET("/chat/history", h.GetChatHistory)

	// System routes
	v1.GET("/health", h.CheckHealth)
}

// Common error response structure
type ErrorResponse struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

func sendError(c *gin.Context, status int, err error) {
	var code string
	switch {
	case errors.Is(err, collection.ErrCollectionNotFound), errors.Is(err, collection.ErrDocumentNotFound):
		code = "NOT_FOUND"
		status = http.StatusNotFound
	case errors.Is(err, collection.ErrInvalidRequest):
		code = "INVALID_REQUEST"
		status = http.StatusBadRequest
	case errors.Is(err, collection.ErrEmptyDocument):
		code = "EMPTY_DOCUMENT"
		status = http.StatusBadRequest
	case status == http.StatusBadRequest:
		code = "BAD_REQUEST"
	default:
		code = "INTERNAL_ERROR"
		status = http.StatusInternalServerError
	}

	c.JSON(status, ErrorResponse{
		Code:    code,
		Message: err.Error(),
	})
}

func sendJSON(c *gin.Context, status int, data interface{}) {
	c.JSON(status, data)
}
