package users

import (
	"context"
	"fmt"
	"strings"

	"task-tracker-api/internal/apperr"
	"task-tracker-api/internal/models"
)

// Departments lists every department with its manager.
func (d *Directory) Departments(ctx context.Context) ([]models.Department, error) {
	var list []models.Department
	if err := d.db.WithContext(ctx).Preload("Manager").Order("name").Find(&list).Error; err != nil {
		return nil, fmt.Errorf("list departments: %w", err)
	}
	return list, nil
}

// CreateDepartment is reserved to System Managers.
func (d *Directory) CreateDepartment(ctx context.Context, actor models.User, name string, managerID *uint) (models.Department, error) {
	if categoryOf(actor) != models.CategorySystemManager {
		return models.Department{}, apperr.ErrForbidden
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return models.Department{}, &apperr.ValidationError{Fields: map[string]string{"name": "This field is required."}}
	}

	var n int64
	if err := d.db.WithContext(ctx).Model(&models.Department{}).Where("LOWER(name) = ?", strings.ToLower(name)).Count(&n).Error; err != nil {
		return models.Department{}, fmt.Errorf("check department name: %w", err)
	}
	if n > 0 {
		return models.Department{}, &apperr.ValidationError{Fields: map[string]string{"name": "A department with that name already exists."}}
	}
	if managerID != nil {
		if _, err := d.Get(ctx, *managerID); err != nil {
			return models.Department{}, err
		}
	}

	dept := models.Department{Name: name, ManagerID: managerID}
	if err := d.db.WithContext(ctx).Create(&dept).Error; err != nil {
		return models.Department{}, fmt.Errorf("create department %s: %w", name, err)
	}
	return dept, nil
}
