// Package users manages accounts, their profiles and departments.
package users

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"task-tracker-api/internal/apperr"
	"task-tracker-api/internal/auth"
	"task-tracker-api/internal/lifecycle"
	"task-tracker-api/internal/models"

	"gorm.io/gorm"
)

var ErrInvalidCredentials = errors.New("invalid username or password")

const minPasswordLength = 8

type Directory struct {
	db  *gorm.DB
	log *slog.Logger
}

func NewDirectory(db *gorm.DB, log *slog.Logger) *Directory {
	if log == nil {
		log = slog.Default()
	}
	return &Directory{db: db, log: log}
}

func (d *Directory) withProfile(ctx context.Context) *gorm.DB {
	return d.db.WithContext(ctx).Preload("Profile.Department")
}

// Get loads a user with profile and department.
func (d *Directory) Get(ctx context.Context, id uint) (models.User, error) {
	var u models.User
	err := d.withProfile(ctx).First(&u, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.User{}, fmt.Errorf("%w: id %d", apperr.ErrUserNotFound, id)
	}
	if err != nil {
		return models.User{}, fmt.Errorf("load user %d: %w", id, err)
	}
	return u, nil
}

// CategoryOf returns the stored category of an active user.
func (d *Directory) CategoryOf(ctx context.Context, id uint) (string, error) {
	u, err := d.Get(ctx, id)
	if err != nil {
		return "", err
	}
	if !u.IsActive {
		return "", fmt.Errorf("%w: id %d is inactive", apperr.ErrUserNotFound, id)
	}
	return string(categoryOf(u)), nil
}

// FindByEmail matches the address case-insensitively.
func (d *Directory) FindByEmail(ctx context.Context, email string) (models.User, error) {
	var u models.User
	err := d.withProfile(ctx).Where("LOWER(email) = ?", lifecycle.NormalizeEmail(email)).First(&u).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.User{}, fmt.Errorf("%w: %s", apperr.ErrUserNotFound, email)
	}
	if err != nil {
		return models.User{}, fmt.Errorf("load user %s: %w", email, err)
	}
	return u, nil
}

// Authenticate checks a username or e-mail against the stored hash.
// Inactive accounts cannot log in.
func (d *Directory) Authenticate(ctx context.Context, login, password string) (models.User, error) {
	var u models.User
	login = strings.TrimSpace(login)
	err := d.withProfile(ctx).
		Where("username = ? OR LOWER(email) = ?", login, strings.ToLower(login)).
		First(&u).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.User{}, ErrInvalidCredentials
	}
	if err != nil {
		return models.User{}, fmt.Errorf("load user %s: %w", login, err)
	}
	if !u.IsActive || !auth.CheckPassword(password, u.Password) {
		return models.User{}, ErrInvalidCredentials
	}
	return u, nil
}

// List returns active users ordered by username.
func (d *Directory) List(ctx context.Context) ([]models.User, error) {
	var list []models.User
	if err := d.withProfile(ctx).Where("is_active = ?", true).Order("username").Find(&list).Error; err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return list, nil
}

func categoryOf(u models.User) models.UserCategory {
	if u.Profile == nil {
		return ""
	}
	return u.Profile.Category
}

func departmentOf(u models.User) *uint {
	if u.Profile == nil {
		return nil
	}
	return u.Profile.DepartmentID
}

// canManage reports whether actor may create, edit or remove an account
// with the given category in the given department.
func canManage(actor models.User, category models.UserCategory, dept *uint) bool {
	switch categoryOf(actor) {
	case models.CategorySystemManager:
		return true
	case models.CategoryDepartmentManager:
		own := departmentOf(actor)
		return category == models.CategoryNonManagement &&
			own != nil && dept != nil && *own == *dept
	}
	return false
}
