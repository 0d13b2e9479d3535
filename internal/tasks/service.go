// Package tasks runs the task lifecycle: it validates and persists changes,
// expands recurrences, and fans out notifications, activity rows and
// realtime events.
package tasks

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"task-tracker-api/internal/activity"
	"task-tracker-api/internal/lifecycle"
	"task-tracker-api/internal/models"
	"task-tracker-api/internal/notify"
	"task-tracker-api/internal/realtime"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const maxIDAttempts = 5

// Notifier delivers a rendered notification.
type Notifier interface {
	Notify(ctx context.Context, ev notify.Event) error
}

// Publisher pushes realtime events to connected users.
type Publisher interface {
	Publish(ev realtime.Event, userIDs ...uint)
}

// Invalidator drops cached aggregates after task writes.
type Invalidator interface {
	Invalidate()
}

type Deps struct {
	DB       *gorm.DB
	Notifier Notifier
	Activity *activity.Logger
	Hub      Publisher
	Metrics  Invalidator
	Logger   *slog.Logger
}

type Service struct {
	db       *gorm.DB
	notifier Notifier
	activity *activity.Logger
	hub      Publisher
	metrics  Invalidator
	log      *slog.Logger
	now      func() time.Time
	newID    func(departmentName string) string
}

func NewService(d Deps) *Service {
	log := d.Logger
	if log == nil {
		log = slog.Default()
	}
	return &Service{
		db:       d.DB,
		notifier: d.Notifier,
		activity: d.Activity,
		hub:      d.Hub,
		metrics:  d.Metrics,
		log:      log,
		now:      time.Now,
		newID:    lifecycle.GenerateTaskID,
	}
}

// WithClock returns a copy of s reading the current time from now.
func (s *Service) WithClock(now func() time.Time) *Service {
	cp := *s
	cp.now = now
	if s.activity != nil {
		cp.activity = s.activity.WithClock(now)
	}
	return &cp
}

func (s *Service) today() time.Time {
	return lifecycle.Day(s.now().UTC())
}

// load fetches a task by its public identifier with people and department attached.
func (s *Service) load(ctx context.Context, taskID string) (models.Task, error) {
	var t models.Task
	err := s.db.WithContext(ctx).
		Preload("Department.Manager").
		Preload("AssignedBy.Profile").
		Preload("AssignedTo.Profile").
		Where("task_id = ?", taskID).
		First(&t).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.Task{}, fmt.Errorf("%w: %s", ErrTaskNotFound, taskID)
	}
	if err != nil {
		return models.Task{}, fmt.Errorf("load task %s: %w", taskID, err)
	}
	return t, nil
}

func (s *Service) userByID(ctx context.Context, id uint) (models.User, error) {
	var u models.User
	err := s.db.WithContext(ctx).Preload("Profile").First(&u, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.User{}, fmt.Errorf("%w: id %d", ErrUserNotFound, id)
	}
	if err != nil {
		return models.User{}, fmt.Errorf("load user %d: %w", id, err)
	}
	return u, nil
}

func (s *Service) userByEmail(ctx context.Context, email string) (models.User, error) {
	var u models.User
	err := s.db.WithContext(ctx).
		Preload("Profile").
		Where("LOWER(email) = ?", lifecycle.NormalizeEmail(email)).
		First(&u).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.User{}, fmt.Errorf("%w: %s", ErrUserNotFound, email)
	}
	if err != nil {
		return models.User{}, fmt.Errorf("load user %s: %w", email, err)
	}
	return u, nil
}

func (s *Service) department(ctx context.Context, id uint) (models.Department, error) {
	var d models.Department
	err := s.db.WithContext(ctx).First(&d, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.Department{}, fmt.Errorf("%w: id %d", ErrDepartmentNotFound, id)
	}
	if err != nil {
		return models.Department{}, fmt.Errorf("load department %d: %w", id, err)
	}
	return d, nil
}

// insert assigns a fresh identifier and creates the row. Identifiers already
// taken are regenerated up to maxIDAttempts times.
func (s *Service) insert(ctx context.Context, t *models.Task, departmentName string) error {
	db := s.db.WithContext(ctx)
	for attempt := 0; attempt < maxIDAttempts; attempt++ {
		id := s.newID(departmentName)
		var taken int64
		if err := db.Model(&models.Task{}).Where("task_id = ?", id).Count(&taken).Error; err != nil {
			return fmt.Errorf("check task id: %w", err)
		}
		if taken > 0 {
			continue
		}
		t.TaskID = id
		if err := db.Omit(clause.Associations).Create(t).Error; err != nil {
			return fmt.Errorf("create task %s: %w", id, err)
		}
		return nil
	}
	return fmt.Errorf("no free task id for department %q after %d attempts", departmentName, maxIDAttempts)
}

// expand writes the generated instances of base one by one. The first failed
// write stops the loop; instances already written are kept.
func (s *Service) expand(ctx context.Context, base models.Task, plan lifecycle.RecurrencePlan, departmentName string) (int, error) {
	today := s.today()
	written := 0
	for _, child := range lifecycle.Expand(base, plan) {
		child.Status = lifecycle.DeriveStatus(child.Status, child.Deadline, child.RevisedCompletionDate, today)
		if err := s.insert(ctx, &child, departmentName); err != nil {
			return written, fmt.Errorf("recurrence of %s: %w", base.TaskID, err)
		}
		written++
	}
	return written, nil
}

func (s *Service) save(ctx context.Context, t *models.Task) error {
	if err := s.db.WithContext(ctx).Omit(clause.Associations).Save(t).Error; err != nil {
		return fmt.Errorf("save task %s: %w", t.TaskID, err)
	}
	return nil
}

// record appends an activity row. Failures are logged only.
func (s *Service) record(ctx context.Context, action string, actorID uint, t models.Task, description string) {
	if s.activity == nil {
		return
	}
	if err := s.activity.Record(ctx, action, actorID, t.ID, description); err != nil {
		s.log.Warn("activity not recorded", "action", action, "task", t.TaskID, "error", err)
	}
}

// notifyAll stops at the first failed delivery and returns it wrapped.
func (s *Service) notifyAll(ctx context.Context, t models.Task, events ...notify.Event) error {
	if s.notifier == nil {
		return nil
	}
	for _, ev := range events {
		if err := s.notifier.Notify(ctx, ev); err != nil {
			return &NotificationError{TaskID: t.TaskID, Err: err}
		}
	}
	return nil
}

// notifyQuietly delivers every event and logs failures.
func (s *Service) notifyQuietly(ctx context.Context, t models.Task, events ...notify.Event) int {
	if s.notifier == nil {
		return 0
	}
	sent := 0
	for _, ev := range events {
		if err := s.notifier.Notify(ctx, ev); err != nil {
			s.log.Warn("notification failed", "task", t.TaskID, "template", ev.Template, "to", ev.Recipient.Email, "error", err)
			continue
		}
		sent++
	}
	return sent
}

func (s *Service) publish(eventType string, actorID uint, t models.Task) {
	if s.hub == nil {
		return
	}
	ev := realtime.Event{Type: eventType, TaskID: t.TaskID, ActorID: actorID}
	s.hub.Publish(ev, deref(t.AssignedByID), deref(t.AssignedToID))
}

func (s *Service) written() {
	if s.metrics != nil {
		s.metrics.Invalidate()
	}
}

func deref(id *uint) uint {
	if id == nil {
		return 0
	}
	return *id
}
