package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// CreateUserRequest contains the data for a new account
type CreateUserRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

// UpdateRoleRequest contains the new role of an account
type UpdateRoleRequest struct {
	Role string `json:"role" binding:"required"`
}

// GetUsers returns every account
func (h *Handlers) GetUsers(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}

	users, err := h.users.List(c.Request.Context(), actor)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, users)
}

// CreateUser adds an account
func (h *Handlers) CreateUser(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}

	var req CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request data"})
		return
	}

	user, err := h.users.Create(c.Request.Context(), actor, req.Username, req.Password, req.Role)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, user)
}

// GetUsersByRole returns the usernames holding a role
func (h *Handlers) GetUsersByRole(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}

	names, err := h.users.ListByRole(c.Request.Context(), actor, c.Param("role"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	if names == nil {
		names = []string{}
	}
	c.JSON(http.StatusOK, gin.H{"role": c.Param("role"), "usernames": names})
}

// UpdateUserRole changes the role of an account
func (h *Handlers) UpdateUserRole(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}

	var req UpdateRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request data"})
		return
	}

	if err := h.users.UpdateRole(c.Request.Context(), actor, c.Param("username"), req.Role); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Role updated successfully"})
}

// DeleteUser removes an account matching username and the role query
// parameter. Requires a DeleteUser grant in the X-Reverify-Grant header.
func (h *Handlers) DeleteUser(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}

	role := c.Query("role")
	if role == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "role query parameter is required"})
		return
	}

	if err := h.users.Delete(c.Request.Context(), actor, c.Param("username"), role, c.GetHeader(GrantHeader)); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "User deleted successfully"})
}
