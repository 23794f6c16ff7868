package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"minihospital/apperrors"
	"minihospital/database"
)

// LoginRequest contains the credentials for user login
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// LoginResponse is the structure returned after login
type LoginResponse struct {
	Token  string        `json:"token"`
	User   database.User `json:"user"`
	Expiry int64         `json:"expiry"`
}

// Login handles user authentication and returns a JWT token
func (h *Handlers) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request data"})
		return
	}

	user, err := h.gate.Authenticate(c.Request.Context(), req.Username, req.Password)
	if errors.Is(err, apperrors.ErrAccessDenied) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
		return
	}
	if err != nil {
		h.respondError(c, err)
		return
	}

	token, expiresAt, err := h.tokens.GenerateJWT(user.ID, user.Username, user.Role)
	if err != nil {
		h.logger.Error("Error generating token", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error generating token"})
		return
	}

	c.JSON(http.StatusOK, LoginResponse{
		Token:  token,
		User:   *user,
		Expiry: expiresAt.Unix(),
	})
}

// RefreshToken refreshes the JWT token
func (h *Handlers) RefreshToken(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}

	token, expiresAt, err := h.tokens.GenerateJWT(actor.UserID, actor.Username, actor.Role)
	if err != nil {
		h.logger.Error("Error generating token", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error generating token"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"token":  token,
		"expiry": expiresAt.Unix(),
	})
}

// GetUserProfile returns the profile of the authenticated user
func (h *Handlers) GetUserProfile(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}

	user, err := h.users.Profile(c.Request.Context(), actor)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

// ChangePasswordRequest contains the data for password change
type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" binding:"required"`
	NewPassword     string `json:"new_password" binding:"required"`
}

// ChangePassword changes the user's password
func (h *Handlers) ChangePassword(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}

	var req ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request data"})
		return
	}

	if err := h.users.ChangePassword(c.Request.Context(), actor, req.CurrentPassword, req.NewPassword); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Password changed successfully"})
}
