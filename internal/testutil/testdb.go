package testutil

import (
	"testing"
	"time"

	"task-tracker-api/internal/database"
	"task-tracker-api/internal/models"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewInMemoryDB creates an in-memory SQLite DB and runs migrations.
// The pool is pinned to one connection so every query sees the same database.
func NewInMemoryDB() (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:                                   logger.Default.LogMode(logger.Silent),
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	if err != nil {
		return nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(1)

	if err := database.Migrate(db); err != nil {
		return nil, err
	}
	return db, nil
}

// MustDB is NewInMemoryDB for tests.
func MustDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := NewInMemoryDB()
	require.NoError(t, err)
	return db
}

// Date returns midnight UTC of the given day.
func Date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// Clock returns a now function frozen at t.
func Clock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

// SeedDepartment inserts a department by name.
func SeedDepartment(t *testing.T, db *gorm.DB, name string) models.Department {
	t.Helper()
	d := models.Department{Name: name}
	require.NoError(t, db.Create(&d).Error)
	return d
}

// SeedUser inserts a user with a profile. The password is always "pass1234".
func SeedUser(t *testing.T, db *gorm.DB, username string, category models.UserCategory, dept *models.Department) models.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("pass1234"), bcrypt.MinCost)
	require.NoError(t, err)

	u := models.User{
		Username:  username,
		Email:     username + "@example.com",
		FirstName: username,
		Password:  string(hash),
		IsActive:  true,
	}
	require.NoError(t, db.Create(&u).Error)

	profile := models.UserProfile{UserID: u.ID, Category: category}
	if dept != nil {
		profile.DepartmentID = &dept.ID
	}
	require.NoError(t, db.Create(&profile).Error)
	u.Profile = &profile
	return u
}
