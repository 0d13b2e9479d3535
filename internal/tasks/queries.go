package tasks

import (
	"context"
	"fmt"
	"slices"
	"strconv"

	"task-tracker-api/internal/lifecycle"
	"task-tracker-api/internal/models"

	"gorm.io/gorm"
)

// Detail is a task with its conversation and audit history.
type Detail struct {
	Task     models.Task          `json:"task"`
	Messages []models.TaskChat    `json:"messages"`
	Activity []models.ActivityLog `json:"activity"`
}

// Detail returns the task if actor may view it.
func (s *Service) Detail(ctx context.Context, actor models.User, taskID string) (Detail, error) {
	t, err := s.load(ctx, taskID)
	if err != nil {
		return Detail{}, err
	}
	if !canView(t, actor) {
		return Detail{}, ErrForbidden
	}
	msgs, err := s.messages(ctx, t)
	if err != nil {
		return Detail{}, err
	}
	d := Detail{Task: t, Messages: msgs}
	if s.activity != nil {
		if d.Activity, err = s.activity.ForTask(ctx, t.ID); err != nil {
			return Detail{}, err
		}
	}
	return d, nil
}

func (s *Service) listQuery(ctx context.Context) *gorm.DB {
	return s.db.WithContext(ctx).
		Model(&models.Task{}).
		Preload("Department").
		Preload("AssignedBy").
		Preload("AssignedTo").
		Order("assigned_date desc").
		Order("id desc")
}

// current drops tasks whose assigned date is still ahead, such as future
// recurrence instances.
func (s *Service) current(list []models.Task) []models.Task {
	today := s.today()
	return slices.DeleteFunc(list, func(t models.Task) bool {
		return lifecycle.Day(t.AssignedDate).After(today)
	})
}

func (s *Service) find(q *gorm.DB, what string) ([]models.Task, error) {
	var list []models.Task
	if err := q.Find(&list).Error; err != nil {
		return nil, fmt.Errorf("list %s tasks: %w", what, err)
	}
	return list, nil
}

// AssignedTo lists tasks assigned to actor.
func (s *Service) AssignedTo(ctx context.Context, actor models.User) ([]models.Task, error) {
	list, err := s.find(s.listQuery(ctx).Where("assigned_to_id = ?", actor.ID), "assigned-to")
	if err != nil {
		return nil, err
	}
	return s.current(list), nil
}

// AssignedBy lists tasks actor created.
func (s *Service) AssignedBy(ctx context.Context, actor models.User) ([]models.Task, error) {
	list, err := s.find(s.listQuery(ctx).Where("assigned_by_id = ?", actor.ID), "assigned-by")
	if err != nil {
		return nil, err
	}
	return s.current(list), nil
}

// Viewing lists tasks that carry actor's e-mail on their viewer list.
func (s *Service) Viewing(ctx context.Context, actor models.User) ([]models.Task, error) {
	email := lifecycle.NormalizeEmail(actor.Email)
	if email == "" {
		return []models.Task{}, nil
	}
	q := s.listQuery(ctx).Where("viewers LIKE ?", "%"+strconv.Quote(email)+"%")
	list, err := s.find(q, "viewing")
	if err != nil {
		return nil, err
	}
	list = slices.DeleteFunc(list, func(t models.Task) bool { return !t.IsViewer(email) })
	return s.current(list), nil
}

// DepartmentHome lists the tasks touching a Departmental Manager's
// department: received by it, raised by its members or assigned to them.
func (s *Service) DepartmentHome(ctx context.Context, actor models.User) ([]models.Task, error) {
	if !isManager(actor) {
		return nil, ErrForbidden
	}
	dept := departmentOf(&actor)
	if dept == nil {
		return []models.Task{}, nil
	}
	members := s.db.Model(&models.UserProfile{}).Select("user_id").Where("department_id = ?", *dept)
	q := s.listQuery(ctx).Where(
		s.db.Where("department_id = ?", *dept).
			Or("assigned_by_id IN (?)", members).
			Or("assigned_to_id IN (?)", members),
	)
	list, err := s.find(q, "department")
	if err != nil {
		return nil, err
	}
	return s.current(list), nil
}

// SearchFilter narrows the System Manager task list. AgeingDays is a day
// count or "overdue"; Status "Overdue" means past deadline and still active.
type SearchFilter struct {
	DepartmentID *uint
	PersonID     *uint
	AgeingDays   string
	Status       string
}

var activeStatuses = []string{
	models.StatusNotStarted,
	models.StatusInProgress,
	models.StatusStalled,
	models.StatusOnHold,
}

// Search lists every task matching f. System Managers only.
func (s *Service) Search(ctx context.Context, actor models.User, f SearchFilter) ([]models.Task, error) {
	if categoryOf(actor) != models.CategorySystemManager {
		return nil, ErrForbidden
	}
	q := s.listQuery(ctx)
	if f.DepartmentID != nil {
		q = q.Where("department_id = ?", *f.DepartmentID)
	}
	if f.PersonID != nil {
		q = q.Where(s.db.Where("assigned_by_id = ?", *f.PersonID).Or("assigned_to_id = ?", *f.PersonID))
	}

	overdueOnly := f.AgeingDays == "overdue" || f.Status == models.StatusOverdue
	ageing := -1
	if f.AgeingDays != "" && f.AgeingDays != "overdue" {
		n, err := strconv.Atoi(f.AgeingDays)
		if err != nil || n < 0 {
			return nil, invalid("ageing_days", "Enter a whole number of days or \"overdue\".")
		}
		ageing = n
	}
	if overdueOnly {
		q = q.Where("status IN ?", activeStatuses)
	} else if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}

	list, err := s.find(q, "filtered")
	if err != nil {
		return nil, err
	}

	today := s.today()
	return slices.DeleteFunc(list, func(t models.Task) bool {
		if overdueOnly && !lifecycle.Day(t.Deadline).Before(today) {
			return true
		}
		if ageing >= 0 && lifecycle.Day(t.AssignedDate).After(today.AddDate(0, 0, -ageing)) {
			return true
		}
		return false
	}), nil
}
