package users

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"task-tracker-api/internal/apperr"
	"task-tracker-api/internal/auth"
	"task-tracker-api/internal/lifecycle"
	"task-tracker-api/internal/models"

	"gorm.io/gorm"
)

type CreateInput struct {
	Username     string
	Email        string
	FirstName    string
	LastName     string
	Password     string
	Category     models.UserCategory
	DepartmentID *uint
	ReportsToID  *uint
}

// UpdateInput leaves nil fields unchanged. An empty Password keeps the old one.
type UpdateInput struct {
	Email        *string
	FirstName    *string
	LastName     *string
	Password     string
	IsActive     *bool
	Category     *models.UserCategory
	DepartmentID *uint
	ReportsToID  *uint
}

// Create adds an account with its profile. Departmental Managers may only
// add Non-Management users to their own department; when they omit the
// department their own is used.
func (d *Directory) Create(ctx context.Context, actor models.User, in CreateInput) (models.User, error) {
	if categoryOf(actor) == models.CategoryDepartmentManager {
		if in.Category == "" {
			in.Category = models.CategoryNonManagement
		}
		if in.DepartmentID == nil {
			in.DepartmentID = departmentOf(actor)
		}
	}
	if !canManage(actor, in.Category, in.DepartmentID) {
		return models.User{}, apperr.ErrForbidden
	}

	in.Username = strings.TrimSpace(in.Username)
	in.Email = lifecycle.NormalizeEmail(in.Email)
	fields := map[string]string{}
	if in.Username == "" {
		fields["username"] = "This field is required."
	}
	if !strings.Contains(in.Email, "@") {
		fields["email"] = "Enter a valid email address."
	}
	if len(in.Password) < minPasswordLength {
		fields["password"] = fmt.Sprintf("Must be at least %d characters.", minPasswordLength)
	}
	if !models.ValidCategory(in.Category) {
		fields["category"] = fmt.Sprintf("%q is not a valid category.", in.Category)
	}
	if err := d.checkUnique(ctx, 0, in.Username, in.Email, fields); err != nil {
		return models.User{}, err
	}
	if err := d.checkDepartment(ctx, in.DepartmentID, fields); err != nil {
		return models.User{}, err
	}
	if len(fields) > 0 {
		return models.User{}, &apperr.ValidationError{Fields: fields}
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return models.User{}, fmt.Errorf("hash password: %w", err)
	}

	u := models.User{
		Username:  in.Username,
		Email:     in.Email,
		FirstName: in.FirstName,
		LastName:  in.LastName,
		Password:  hash,
		IsActive:  true,
	}
	err = d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&u).Error; err != nil {
			return err
		}
		return tx.Create(&models.UserProfile{
			UserID:       u.ID,
			Category:     in.Category,
			DepartmentID: in.DepartmentID,
			ReportsToID:  in.ReportsToID,
		}).Error
	})
	if err != nil {
		return models.User{}, fmt.Errorf("create user %s: %w", in.Username, err)
	}
	d.log.Info("user created", "username", u.Username, "by", actor.Username)
	return d.Get(ctx, u.ID)
}

// Update edits an account within actor's management scope, checked against
// both the current and the requested category and department.
func (d *Directory) Update(ctx context.Context, actor models.User, id uint, in UpdateInput) (models.User, error) {
	u, err := d.Get(ctx, id)
	if err != nil {
		return models.User{}, err
	}
	if !canManage(actor, categoryOf(u), departmentOf(u)) {
		return models.User{}, apperr.ErrForbidden
	}

	profile := models.UserProfile{UserID: u.ID}
	if u.Profile != nil {
		profile = *u.Profile
		profile.Department = nil
	}
	if in.Category != nil {
		profile.Category = *in.Category
	}
	if in.DepartmentID != nil {
		profile.DepartmentID = in.DepartmentID
	}
	if in.ReportsToID != nil {
		profile.ReportsToID = in.ReportsToID
	}
	if !canManage(actor, profile.Category, profile.DepartmentID) {
		return models.User{}, apperr.ErrForbidden
	}

	fields := map[string]string{}
	if !models.ValidCategory(profile.Category) {
		fields["category"] = fmt.Sprintf("%q is not a valid category.", profile.Category)
	}
	if in.Email != nil {
		u.Email = lifecycle.NormalizeEmail(*in.Email)
		if !strings.Contains(u.Email, "@") {
			fields["email"] = "Enter a valid email address."
		}
	}
	if in.Password != "" && len(in.Password) < minPasswordLength {
		fields["password"] = fmt.Sprintf("Must be at least %d characters.", minPasswordLength)
	}
	if err := d.checkUnique(ctx, u.ID, u.Username, u.Email, fields); err != nil {
		return models.User{}, err
	}
	if err := d.checkDepartment(ctx, profile.DepartmentID, fields); err != nil {
		return models.User{}, err
	}
	if len(fields) > 0 {
		return models.User{}, &apperr.ValidationError{Fields: fields}
	}

	if in.FirstName != nil {
		u.FirstName = *in.FirstName
	}
	if in.LastName != nil {
		u.LastName = *in.LastName
	}
	if in.Password != "" {
		if u.Password, err = auth.HashPassword(in.Password); err != nil {
			return models.User{}, fmt.Errorf("hash password: %w", err)
		}
	}

	updates := map[string]any{
		"email":      u.Email,
		"first_name": u.FirstName,
		"last_name":  u.LastName,
		"password":   u.Password,
	}
	if in.IsActive != nil {
		updates["is_active"] = *in.IsActive
	}
	err = d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.User{ID: u.ID}).Updates(updates).Error; err != nil {
			return err
		}
		return tx.Save(&profile).Error
	})
	if err != nil {
		return models.User{}, fmt.Errorf("update user %d: %w", id, err)
	}
	return d.Get(ctx, id)
}

// Delete removes an account, its profile and the chat messages it sent.
// Tasks, departments and profiles referring to the user keep their rows with
// the reference cleared.
func (d *Directory) Delete(ctx context.Context, actor models.User, id uint) error {
	u, err := d.Get(ctx, id)
	if err != nil {
		return err
	}
	if u.ID == actor.ID || !canManage(actor, categoryOf(u), departmentOf(u)) {
		return apperr.ErrForbidden
	}

	err = d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		clears := []struct {
			model  any
			column string
		}{
			{&models.Task{}, "assigned_by_id"},
			{&models.Task{}, "assigned_to_id"},
			{&models.Department{}, "manager_id"},
			{&models.UserProfile{}, "reports_to_id"},
		}
		for _, c := range clears {
			if err := tx.Model(c.model).Where(c.column+" = ?", id).Update(c.column, nil).Error; err != nil {
				return err
			}
		}
		if err := tx.Where("sender_id = ?", id).Delete(&models.TaskChat{}).Error; err != nil {
			return err
		}
		if err := tx.Where("user_id = ?", id).Delete(&models.UserProfile{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.User{}, id).Error
	})
	if err != nil {
		return fmt.Errorf("delete user %d: %w", id, err)
	}
	d.log.Info("user deleted", "username", u.Username, "by", actor.Username)
	return nil
}

func (d *Directory) checkUnique(ctx context.Context, selfID uint, username, email string, fields map[string]string) error {
	db := d.db.WithContext(ctx).Model(&models.User{}).Where("id <> ?", selfID)
	var n int64
	if username != "" {
		if err := db.Session(&gorm.Session{}).Where("username = ?", username).Count(&n).Error; err != nil {
			return fmt.Errorf("check username: %w", err)
		}
		if n > 0 {
			fields["username"] = "A user with that username already exists."
		}
	}
	if email != "" {
		if err := db.Session(&gorm.Session{}).Where("LOWER(email) = ?", email).Count(&n).Error; err != nil {
			return fmt.Errorf("check email: %w", err)
		}
		if n > 0 {
			fields["email"] = "A user with that email already exists."
		}
	}
	return nil
}

func (d *Directory) checkDepartment(ctx context.Context, id *uint, fields map[string]string) error {
	if id == nil {
		return nil
	}
	var dept models.Department
	err := d.db.WithContext(ctx).First(&dept, *id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		fields["department"] = "Select a valid choice."
		return nil
	}
	return err
}
