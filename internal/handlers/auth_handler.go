package handlers

import (
	"errors"
	"net/http"

	"task-tracker-api/internal/auth"
	"task-tracker-api/internal/models"
	"task-tracker-api/internal/users"

	"github.com/gin-gonic/gin"
)

// LoginRequest represents the login request payload
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// LoginResponse represents the login response
type LoginResponse struct {
	Token    string      `json:"token"`
	UserID   uint        `json:"user_id"`
	Username string      `json:"username"`
	Category string      `json:"category"`
	User     models.User `json:"user"`
	Message  string      `json:"message"`
}

// Login handles POST /api/login. Username may also be the e-mail address.
func (h *Handler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid request. Username and password are required.",
		})
		return
	}

	u, err := h.users.Authenticate(c.Request.Context(), req.Username, req.Password)
	if errors.Is(err, users.ErrInvalidCredentials) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid username or password"})
		return
	}
	if err != nil {
		h.fail(c, err)
		return
	}

	category := ""
	if u.Profile != nil {
		category = string(u.Profile.Category)
	}
	token, err := h.tokens.GenerateToken(auth.Identity{
		UserID:   u.ID,
		Username: u.Username,
		Email:    u.Email,
		Category: category,
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to generate token",
		})
		return
	}

	c.JSON(http.StatusOK, LoginResponse{
		Token:    token,
		UserID:   u.ID,
		Username: u.Username,
		Category: category,
		User:     u,
		Message:  "Login successful",
	})
}

// Landing views returned by the dashboard.
const (
	LandingActivity     = "activity"
	LandingHome         = "home"
	LandingAssignedToMe = "assigned-to-me"
)

// Dashboard handles GET /api/dashboard: it names the landing view for the
// caller's category together with that view's tasks.
func (h *Handler) Dashboard(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()

	category := models.UserCategory("")
	if actor.Profile != nil {
		category = actor.Profile.Category
	}

	switch category {
	case models.CategorySystemManager:
		logs, err := h.activity.List(ctx)
		if err != nil {
			h.fail(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"landing": LandingActivity, "activity": logs, "count": len(logs)})
	case models.CategoryDepartmentManager:
		list, err := h.tasks.DepartmentHome(ctx, actor)
		if err != nil {
			h.fail(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"landing": LandingHome, "tasks": list, "count": len(list)})
	default:
		list, err := h.tasks.AssignedTo(ctx, actor)
		if err != nil {
			h.fail(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"landing": LandingAssignedToMe, "tasks": list, "count": len(list)})
	}
}
