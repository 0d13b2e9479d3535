package handlers

import (
	"net/http"
	"strconv"

	"task-tracker-api/internal/models"
	"task-tracker-api/internal/users"

	"github.com/gin-gonic/gin"
)

type CreateUserRequest struct {
	Username     string `json:"username" binding:"required"`
	Email        string `json:"email" binding:"required"`
	FirstName    string `json:"firstName"`
	LastName     string `json:"lastName"`
	Password     string `json:"password" binding:"required"`
	Category     string `json:"category"`
	DepartmentID *uint  `json:"departmentId"`
	ReportsToID  *uint  `json:"reportsToId"`
}

type UpdateUserRequest struct {
	Email        *string `json:"email"`
	FirstName    *string `json:"firstName"`
	LastName     *string `json:"lastName"`
	Password     string  `json:"password"`
	IsActive     *bool   `json:"isActive"`
	Category     *string `json:"category"`
	DepartmentID *uint   `json:"departmentId"`
	ReportsToID  *uint   `json:"reportsToId"`
}

type CreateDepartmentRequest struct {
	Name      string `json:"name" binding:"required"`
	ManagerID *uint  `json:"managerId"`
}

func userID(c *gin.Context) (uint, bool) {
	n, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid user id"})
		return 0, false
	}
	return uint(n), true
}

// GetAllUsers handles GET /api/users
func (h *Handler) GetAllUsers(c *gin.Context) {
	list, err := h.users.List(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"users": list,
		"count": len(list),
	})
}

// CreateUser handles POST /api/users
func (h *Handler) CreateUser(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	var req CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	u, err := h.users.Create(c.Request.Context(), actor, users.CreateInput{
		Username:     req.Username,
		Email:        req.Email,
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Password:     req.Password,
		Category:     models.UserCategory(req.Category),
		DepartmentID: req.DepartmentID,
		ReportsToID:  req.ReportsToID,
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, u)
}

// UpdateUser handles PUT /api/users/:id
func (h *Handler) UpdateUser(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id, ok := userID(c)
	if !ok {
		return
	}
	var req UpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	in := users.UpdateInput{
		Email:        req.Email,
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Password:     req.Password,
		IsActive:     req.IsActive,
		DepartmentID: req.DepartmentID,
		ReportsToID:  req.ReportsToID,
	}
	if req.Category != nil {
		category := models.UserCategory(*req.Category)
		in.Category = &category
	}

	u, err := h.users.Update(c.Request.Context(), actor, id, in)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, u)
}

// DeleteUser handles DELETE /api/users/:id
func (h *Handler) DeleteUser(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id, ok := userID(c)
	if !ok {
		return
	}
	if err := h.users.Delete(c.Request.Context(), actor, id); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message": "User deleted successfully",
		"id":      id,
	})
}

// ListDepartments handles GET /api/departments
func (h *Handler) ListDepartments(c *gin.Context) {
	list, err := h.users.Departments(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"departments": list, "count": len(list)})
}

// CreateDepartment handles POST /api/departments
func (h *Handler) CreateDepartment(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	var req CreateDepartmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	dept, err := h.users.CreateDepartment(c.Request.Context(), actor, req.Name, req.ManagerID)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, dept)
}
