package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"storefront/api/internal/middleware"
	"storefront/api/internal/models"
)

type customerResponse struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	Address string `json:"address"`
}

func (h HandlerSet) Account(c *gin.Context) {
	actor, ok := middleware.CurrentAuth(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Not authenticated"})
		return
	}

	user, customer, err := h.auth.Account(c.Request.Context(), actor)
	if err != nil {
		h.respondError(c, err)
		return
	}

	resp := gin.H{"user": toUserResponse(user)}
	if customer != nil {
		resp["customer"] = toCustomerResponse(*customer)
	}
	c.JSON(http.StatusOK, resp)
}

func toCustomerResponse(customer models.Customer) customerResponse {
	return customerResponse{
		ID:      customer.ID,
		Name:    customer.Name,
		Email:   customer.Email,
		Phone:   customer.Phone,
		Address: customer.Address,
	}
}

type changePasswordRequest struct {
	Email       string `json:"email" binding:"required,email"`
	NewPassword string `json:"newPassword" binding:"required,min=8"`
}

func (h HandlerSet) ChangePassword(c *gin.Context) {
	actor, ok := middleware.CurrentAuth(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Not authenticated"})
		return
	}

	var req changePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid body received"})
		return
	}

	if err := h.auth.ChangePassword(c.Request.Context(), actor, req.Email, req.NewPassword); err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Password updated successfully"})
}

type changeEmailRequest struct {
	Email string `json:"email" binding:"required,email"`
}

func (h HandlerSet) ChangeEmail(c *gin.Context) {
	actor, ok := middleware.CurrentAuth(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Not authenticated"})
		return
	}

	var req changeEmailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid body received"})
		return
	}

	user, err := h.auth.ChangeEmail(c.Request.Context(), actor, req.Email)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Email updated successfully",
		"user":    toUserResponse(user),
	})
}

type changeNameRequest struct {
	FullName string `json:"fullName" binding:"required"`
}

func (h HandlerSet) ChangeName(c *gin.Context) {
	actor, ok := middleware.CurrentAuth(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Not authenticated"})
		return
	}

	var req changeNameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid body received"})
		return
	}

	user, err := h.auth.ChangeName(c.Request.Context(), actor, req.FullName)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Name updated successfully",
		"user":    toUserResponse(user),
	})
}
