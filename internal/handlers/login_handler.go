package handlers

import (
	"net/http"

	"go-pos-backoffice/internal/auth"
	"go-pos-backoffice/internal/middleware"
	"go-pos-backoffice/internal/models"

	"github.com/gin-gonic/gin"
)

type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (h *Handler) Login(c *gin.Context) {
	var input LoginRequest
	// 1. Validate Input JSON
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, "Invalid input")
		return
	}

	// 2. Find User in DB
	var user models.User
	if err := h.DB.WithContext(c.Request.Context()).Where("username = ?", input.Username).First(&user).Error; err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
		return
	}

	// 3. Verify Password (Bcrypt)
	if !auth.CheckPassword(user.PasswordHash, input.Password) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
		return
	}

	// 4. Generate JWT Token
	token, err := auth.GenerateToken(user.ID, user.Username, user.Role)
	if err != nil {
		h.respondError(c, "Login", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"token":    token,
		"role":     user.Role,
		"username": user.Username,
	})
}

type RegisterRequest struct {
	Username string `json:"username" binding:"required,min=3,max=50"`
	Password string `json:"password" binding:"required,min=6"`
	Role     string `json:"role" binding:"omitempty,oneof=admin cashier"`
}

// Register creates a user. The very first user becomes admin; after that
// only an admin may create accounts (see routes).
func (h *Handler) Register(c *gin.Context) {
	var input RegisterRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, err.Error())
		return
	}
	ctx := c.Request.Context()

	var count int64
	if err := h.DB.WithContext(ctx).Model(&models.User{}).Count(&count).Error; err != nil {
		h.respondError(c, "Register", err)
		return
	}

	role := input.Role
	switch {
	case count == 0:
		role = models.RoleAdmin
	case c.GetString(middleware.ContextRole) != models.RoleAdmin:
		c.JSON(http.StatusForbidden, gin.H{"error": "Only an admin can create users"})
		return
	case role == "":
		role = models.RoleCashier
	}

	hash, err := auth.HashPassword(input.Password)
	if err != nil {
		h.respondError(c, "Register", err)
		return
	}
	user := models.User{Username: input.Username, PasswordHash: hash, Role: role}
	if err := h.DB.WithContext(ctx).Create(&user).Error; err != nil {
		h.respondError(c, "Register", err)
		return
	}

	c.JSON(http.StatusCreated, user)
}

func (h *Handler) ListUsers(c *gin.Context) {
	var users []models.User
	if err := h.DB.WithContext(c.Request.Context()).Order("username ASC").Find(&users).Error; err != nil {
		h.respondError(c, "ListUsers", err)
		return
	}
	c.JSON(http.StatusOK, users)
}

func (h *Handler) Me(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"user_id":  middleware.CurrentUserID(c),
		"username": c.GetString(middleware.ContextUsername),
		"role":     c.GetString(middleware.ContextRole),
	})
}
