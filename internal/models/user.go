package models

import (
	"strings"
	"time"
)

// UserCategory is the role tag that drives authorization decisions.
type UserCategory string

const (
	CategoryExecutive         UserCategory = "Executive Management"
	CategoryDepartmentManager UserCategory = "Departmental Manager"
	CategoryNonManagement     UserCategory = "Non-Management"
	CategorySystemManager     UserCategory = "Task Management System Manager"
)

// ValidCategory reports whether c is one of the four role tags.
func ValidCategory(c UserCategory) bool {
	switch c {
	case CategoryExecutive, CategoryDepartmentManager, CategoryNonManagement, CategorySystemManager:
		return true
	}
	return false
}

// User represents a user in the system
type User struct {
	ID        uint         `json:"id" gorm:"primaryKey"`
	Username  string       `json:"username" gorm:"uniqueIndex;not null"`
	Email     string       `json:"email" gorm:"uniqueIndex;not null"`
	FirstName string       `json:"firstName"`
	LastName  string       `json:"lastName"`
	Password  string       `json:"-" gorm:"not null"`
	IsActive  bool         `json:"isActive" gorm:"default:true"`
	Profile   *UserProfile `json:"profile,omitempty" gorm:"foreignKey:UserID"`
	CreatedAt time.Time    `json:"createdAt"`
	UpdatedAt time.Time    `json:"updatedAt"`
}

// TableName specifies the table name for User Model
func (User) TableName() string {
	return "users"
}

// FullName joins first and last name, falling back to the username.
func (u User) FullName() string {
	name := strings.TrimSpace(u.FirstName + " " + u.LastName)
	if name == "" {
		return u.Username
	}
	return name
}

// UserProfile carries the role category, department and reporting line of a user.
type UserProfile struct {
	ID           uint         `json:"id" gorm:"primaryKey"`
	UserID       uint         `json:"userId" gorm:"uniqueIndex;not null"`
	Category     UserCategory `json:"category" gorm:"size:50;not null"`
	DepartmentID *uint        `json:"departmentId" gorm:"column:department_id;index"`
	Department   *Department  `json:"department,omitempty" gorm:"foreignKey:DepartmentID"`
	ReportsToID  *uint        `json:"reportsToId" gorm:"column:reports_to_id"`
}

// TableName specifies the table name for UserProfile Model
func (UserProfile) TableName() string {
	return "user_profiles"
}
