package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"storefront/api/internal/middleware"
	"storefront/api/internal/models"
)

type storeResponse struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	URL         string `json:"url"`
	Maintenance bool   `json:"maintenance"`
}

func (h HandlerSet) GetStore(c *gin.Context) {
	store, err := h.catalog.GetStore(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"store": toStoreResponse(store)})
}

type updateStoreRequest struct {
	ID          string `json:"id" binding:"required"`
	Name        string `json:"name" binding:"required"`
	URL         string `json:"url" binding:"required,url"`
	Maintenance bool   `json:"maintenance"`
}

func (h HandlerSet) UpdateStore(c *gin.Context) {
	actor, ok := middleware.CurrentAuth(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Not authenticated"})
		return
	}

	var req updateStoreRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid body received"})
		return
	}

	store := models.Store{
		ID:          req.ID,
		Name:        req.Name,
		URL:         req.URL,
		Maintenance: req.Maintenance,
	}
	if err := h.catalog.UpdateStore(c.Request.Context(), actor, store); err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Store updated successfully",
		"store":   toStoreResponse(store),
	})
}

func toStoreResponse(store models.Store) storeResponse {
	return storeResponse{
		ID:          store.ID,
		Name:        store.Name,
		URL:         store.URL,
		Maintenance: store.Maintenance,
	}
}
