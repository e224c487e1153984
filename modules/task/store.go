package task

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	domain "github.com/kabilangimba/team-task-management-system/domain/task"
)

// Store persists tasks. Every read and every mutation is bounded by a domain.Filter; a task
// outside the filter behaves exactly like a missing one (domain.ErrNotFound).
type Store interface {
	Create(ctx context.Context, t *domain.Task) error
	FindOne(ctx context.Context, id string, scope domain.Filter) (*domain.Task, error)
	Find(ctx context.Context, filter domain.Filter) ([]*domain.Task, error)
	CountByStatus(ctx context.Context, filter domain.Filter) (domain.Stats, error)
	// Update loads the task inside a transaction, lets fn mutate it and persists the
	// struct fields fn reports as changed. Nothing is written if fn fails.
	Update(ctx context.Context, id string, scope domain.Filter, fn func(t *domain.Task) ([]string, error)) (*domain.Task, error)
	// Delete loads the task inside a transaction and removes it once fn approves.
	Delete(ctx context.Context, id string, scope domain.Filter, fn func(t *domain.Task) error) (*domain.Task, error)
	// RemoveUser deletes the tasks userID created and unassigns the tasks assigned to them,
	// in one transaction.
	RemoveUser(ctx context.Context, userID string, at time.Time) (deleted, released int64, err error)
	// ReleaseAssignee unassigns every task assigned to userID.
	ReleaseAssignee(ctx context.Context, userID string, at time.Time) (int64, error)
}

// Repository is the GORM implementation of Store.
type Repository struct {
	db *gorm.DB
}

var _ Store = (*Repository)(nil)

// NewRepository creates a new task repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Create saves a new task, assigning an ID when none is set.
func (r *Repository) Create(ctx context.Context, t *domain.Task) error {
	if t.ID == "" {
		t.ID = uuid.New().String()
	}
	if err := r.db.WithContext(ctx).Create(t).Error; err != nil {
		return fmt.Errorf("failed to create task: %w", err)
	}
	return nil
}

// FindOne retrieves a task by ID within scope.
func (r *Repository) FindOne(ctx context.Context, id string, scope domain.Filter) (*domain.Task, error) {
	return findOne(r.db.WithContext(ctx), id, scope)
}

// Find returns the tasks matching filter, newest first.
func (r *Repository) Find(ctx context.Context, filter domain.Filter) ([]*domain.Task, error) {
	tasks := make([]*domain.Task, 0)
	if filter.Empty() {
		return tasks, nil
	}
	q := applyFilter(r.db.WithContext(ctx).Model(&domain.Task{}), filter)
	if err := q.Order("created_at DESC").Order("id DESC").Find(&tasks).Error; err != nil {
		return nil, fmt.Errorf("failed to find tasks: %w", err)
	}
	return tasks, nil
}

// CountByStatus counts the tasks matching filter per status in a single grouped query.
func (r *Repository) CountByStatus(ctx context.Context, filter domain.Filter) (domain.Stats, error) {
	var stats domain.Stats
	if filter.Empty() {
		return stats, nil
	}

	var rows []struct {
		Status domain.Status
		Count  int64
	}
	q := applyFilter(r.db.WithContext(ctx).Model(&domain.Task{}), filter)
	if err := q.Select("status, COUNT(*) AS count").Group("status").Scan(&rows).Error; err != nil {
		return stats, fmt.Errorf("failed to count tasks: %w", err)
	}
	for _, row := range rows {
		stats.Add(row.Status, row.Count)
	}
	return stats, nil
}

// Update runs the read-check-write cycle for one task in a transaction.
func (r *Repository) Update(ctx context.Context, id string, scope domain.Filter, fn func(t *domain.Task) ([]string, error)) (*domain.Task, error) {
	var updated *domain.Task
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		t, err := findOne(tx, id, scope)
		if err != nil {
			return err
		}

		changed, err := fn(t)
		if err != nil {
			return err
		}
		if len(changed) > 0 {
			// Select forces zero values (cleared assignee, empty description) to be written.
			if err := tx.Model(t).Select(changed).Updates(t).Error; err != nil {
				return fmt.Errorf("failed to update task: %w", err)
			}
		}
		updated = t
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// Delete runs the read-check-delete cycle for one task in a transaction.
func (r *Repository) Delete(ctx context.Context, id string, scope domain.Filter, fn func(t *domain.Task) error) (*domain.Task, error) {
	var deleted *domain.Task
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		t, err := findOne(tx, id, scope)
		if err != nil {
			return err
		}
		if err := fn(t); err != nil {
			return err
		}
		result := tx.Delete(&domain.Task{}, "id = ?", t.ID)
		if result.Error != nil {
			return fmt.Errorf("failed to delete task: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return domain.ErrNotFound
		}
		deleted = t
		return nil
	})
	if err != nil {
		return nil, err
	}
	return deleted, nil
}

// RemoveUser deletes the tasks created by userID, then unassigns the tasks assigned to them.
func (r *Repository) RemoveUser(ctx context.Context, userID string, at time.Time) (deleted, released int64, err error) {
	err = r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Delete(&domain.Task{}, "created_by = ?", userID)
		if result.Error != nil {
			return fmt.Errorf("failed to delete tasks: %w", result.Error)
		}
		deleted = result.RowsAffected

		released, err = releaseAssignee(tx, userID, at)
		return err
	})
	if err != nil {
		return 0, 0, err
	}
	return deleted, released, nil
}

// ReleaseAssignee unassigns every task assigned to userID.
func (r *Repository) ReleaseAssignee(ctx context.Context, userID string, at time.Time) (int64, error) {
	var released int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		released, err = releaseAssignee(tx, userID, at)
		return err
	})
	if err != nil {
		return 0, err
	}
	return released, nil
}

// releaseAssignee clears the assignee of each task assigned to userID. updated_at moves to at
// unless it is already later.
func releaseAssignee(tx *gorm.DB, userID string, at time.Time) (int64, error) {
	var tasks []*domain.Task
	if err := tx.Where("assignee_id = ?", userID).Find(&tasks).Error; err != nil {
		return 0, fmt.Errorf("failed to find assigned tasks: %w", err)
	}
	for _, t := range tasks {
		t.AssigneeID = nil
		if at.After(t.UpdatedAt) {
			t.UpdatedAt = at
		}
		if err := tx.Model(t).Select("AssigneeID", "UpdatedAt").Updates(t).Error; err != nil {
			return 0, fmt.Errorf("failed to unassign task: %w", err)
		}
	}
	return int64(len(tasks)), nil
}

func findOne(db *gorm.DB, id string, scope domain.Filter) (*domain.Task, error) {
	if scope.Empty() {
		return nil, domain.ErrNotFound
	}
	var t domain.Task
	q := applyFilter(db.Model(&domain.Task{}), scope).Where("id = ?", id)
	if err := q.Take(&t).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find task: %w", err)
	}
	return &t, nil
}

// applyFilter translates a domain filter into WHERE clauses. The ownership disjunction is
// grouped so that the AND-ed optional filters can never widen it.
func applyFilter(q *gorm.DB, f domain.Filter) *gorm.DB {
	if f.AnyOf != nil {
		group := q.Session(&gorm.Session{NewDB: true})
		for i, o := range f.AnyOf {
			cond, args := ownershipClause(o)
			if i == 0 {
				group = group.Where(cond, args...)
			} else {
				group = group.Or(cond, args...)
			}
		}
		if len(f.AnyOf) == 0 {
			// An empty disjunction is false.
			group = group.Where("1 = 0")
		}
		q = q.Where(group)
	}
	if f.Status != nil {
		q = q.Where("status = ?", *f.Status)
	}
	if f.Assignee != nil {
		q = q.Where("assignee_id = ?", *f.Assignee)
	}
	return q
}

func ownershipClause(o domain.Ownership) (string, []any) {
	switch o.Relation {
	case domain.RelationCreator:
		return "created_by = ?", []any{o.UserID}
	case domain.RelationAssignee:
		return "assignee_id = ?", []any{o.UserID}
	default:
		return "1 = 0", nil
	}
}
