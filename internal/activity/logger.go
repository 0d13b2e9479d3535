package activity

import (
	"context"
	"fmt"
	"time"

	"task-tracker-api/internal/models"

	"gorm.io/gorm"
)

// Logger appends rows to the audit trail. It never updates or deletes rows.
type Logger struct {
	db  *gorm.DB
	now func() time.Time
}

func NewLogger(db *gorm.DB) *Logger {
	return &Logger{db: db, now: time.Now}
}

// WithClock returns a copy of l stamping rows with now.
func (l *Logger) WithClock(now func() time.Time) *Logger {
	cp := *l
	cp.now = now
	return &cp
}

// Record appends one audit row.
func (l *Logger) Record(ctx context.Context, action string, actorID, taskID uint, description string) error {
	row := models.ActivityLog{
		Action:      action,
		UserID:      actorID,
		TaskID:      taskID,
		Timestamp:   l.now().UTC(),
		Description: description,
	}
	if err := l.db.WithContext(ctx).Create(&row).Error; err != nil {
		return fmt.Errorf("record %s activity for task %d: %w", action, taskID, err)
	}
	return nil
}

// List returns the audit trail newest first with actor and task loaded.
func (l *Logger) List(ctx context.Context) ([]models.ActivityLog, error) {
	var logs []models.ActivityLog
	err := l.db.WithContext(ctx).
		Preload("User").
		Preload("Task").
		Order("timestamp desc").
		Order("id desc").
		Find(&logs).Error
	if err != nil {
		return nil, fmt.Errorf("list activity: %w", err)
	}
	return logs, nil
}

// ForTask returns the audit rows of one task, oldest first.
func (l *Logger) ForTask(ctx context.Context, taskID uint) ([]models.ActivityLog, error) {
	var logs []models.ActivityLog
	err := l.db.WithContext(ctx).
		Preload("User").
		Where("task_id = ?", taskID).
		Order("timestamp asc").
		Order("id asc").
		Find(&logs).Error
	if err != nil {
		return nil, fmt.Errorf("list activity for task %d: %w", taskID, err)
	}
	return logs, nil
}
