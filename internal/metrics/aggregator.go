package metrics

import (
	"context"
	"errors"
	"fmt"
	"time"

	"task-tracker-api/internal/cache"
	"task-tracker-api/internal/models"

	"gorm.io/gorm"
)

var ErrUnknownDepartment = errors.New("department not found")

const reportKey = "report"

// Aggregator loads task rows and caches the computed report.
type Aggregator struct {
	db    *gorm.DB
	cache cache.Cache[string, Report]
	ttl   time.Duration
	now   func() time.Time
}

func NewAggregator(db *gorm.DB, ttl time.Duration) *Aggregator {
	return &Aggregator{
		db:    db,
		cache: cache.NewTTLCache[string, Report](),
		ttl:   ttl,
		now:   time.Now,
	}
}

// WithClock returns a copy of a reading time from now. The copy shares the cache.
func (a *Aggregator) WithClock(now func() time.Time) *Aggregator {
	cp := *a
	cp.now = now
	return &cp
}

// Compute returns the cached report or builds a fresh one.
func (a *Aggregator) Compute(ctx context.Context) (Report, error) {
	if a.ttl <= 0 {
		return a.build(ctx)
	}
	return a.cache.GetOrLoad(reportKey, a.ttl, func() (Report, error) {
		return a.build(ctx)
	})
}

// Department returns the metrics of a single department.
func (a *Aggregator) Department(ctx context.Context, name string) (DepartmentMetrics, error) {
	report, err := a.Compute(ctx)
	if err != nil {
		return DepartmentMetrics{}, err
	}
	m, ok := report.Find(name)
	if !ok {
		return DepartmentMetrics{}, fmt.Errorf("%w: %s", ErrUnknownDepartment, name)
	}
	return m, nil
}

// Invalidate drops the cached report.
func (a *Aggregator) Invalidate() {
	a.cache.Clear()
}

func (a *Aggregator) build(ctx context.Context) (Report, error) {
	db := a.db.WithContext(ctx)

	var names []string
	if err := db.Model(&models.Department{}).Order("name").Pluck("name", &names).Error; err != nil {
		return Report{}, fmt.Errorf("list departments: %w", err)
	}

	var rows []Row
	err := db.Table("tasks AS t").
		Select(`COALESCE(d.name, '') AS department,
			COALESCE(ad.name, '') AS assigner_department,
			t.status AS status,
			t.assigned_date AS assigned_date,
			t.deadline AS deadline,
			t.revised_completion_date AS revised_date`).
		Joins("LEFT JOIN departments d ON d.id = t.department_id").
		Joins("LEFT JOIN user_profiles up ON up.user_id = t.assigned_by_id").
		Joins("LEFT JOIN departments ad ON ad.id = up.department_id").
		Scan(&rows).Error
	if err != nil {
		return Report{}, fmt.Errorf("load metric rows: %w", err)
	}

	return Aggregate(names, rows, a.now().UTC()), nil
}
