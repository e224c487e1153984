package task

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/go-monolith/mono/pkg/types"
	"golang.org/x/sync/singleflight"

	domain "github.com/kabilangimba/team-task-management-system/domain/task"
	"github.com/kabilangimba/team-task-management-system/domain/user"
)

// ErrUnknownUser is returned by a Directory when no user has the requested ID.
var ErrUnknownUser = errors.New("unknown user")

// Directory resolves the role of a prospective assignee.
type Directory interface {
	LookupRole(ctx context.Context, userID string) (user.Role, error)
}

// StatsCache stores per-scope statistics between mutations. Entries are versioned by a
// generation number; Invalidate moves to a new generation, so a value computed before an
// invalidation can never be read after it.
type StatsCache interface {
	Generation(ctx context.Context) (int64, error)
	Get(ctx context.Context, gen int64, key string) (domain.Stats, bool, error)
	Set(ctx context.Context, gen int64, key string, stats domain.Stats) error
	Invalidate(ctx context.Context) error
}

// Notifier is told about completed mutations.
type Notifier interface {
	TaskCreated(ctx context.Context, t *domain.Task)
	TaskUpdated(ctx context.Context, actor user.Principal, before, after *domain.Task, fields []string)
	TaskDeleted(ctx context.Context, actor user.Principal, t *domain.Task)
}

// CreateInput is the payload for creating a task.
type CreateInput struct {
	Title       string
	Description string
	Status      *domain.Status
	Deadline    *time.Time
	Assignee    *string
}

// Service applies the authorization policy around every task operation.
// It holds no per-request state and is safe for concurrent use.
type Service struct {
	store     Store
	directory Directory
	cache     StatsCache
	notifier  Notifier
	logger    types.Logger
	now       func() time.Time
	stats     singleflight.Group

	// version counts completed mutations and keys the stats flights.
	version atomic.Int64
}

// Option configures a Service.
type Option func(*Service)

// WithStatsCache enables caching of Stats results.
func WithStatsCache(c StatsCache) Option {
	return func(s *Service) { s.cache = c }
}

// WithNotifier sets the receiver of mutation notifications.
func WithNotifier(n Notifier) Option {
	return func(s *Service) { s.notifier = n }
}

// WithClock overrides the timestamp source.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService creates a task service.
func NewService(store Store, directory Directory, logger types.Logger, opts ...Option) *Service {
	s := &Service{
		store:     store,
		directory: directory,
		logger:    logger,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// List returns the tasks p may see, narrowed by the optional filters, newest first.
func (s *Service) List(ctx context.Context, p user.Principal, status *domain.Status, assignee *string) ([]*domain.Task, error) {
	if status != nil {
		if _, err := domain.ParseStatus(string(*status)); err != nil {
			return nil, err
		}
	}
	return s.store.Find(ctx, domain.ScopeWith(p, status, assignee))
}

// Get returns one task. Tasks outside p's scope are reported as domain.ErrNotFound.
func (s *Service) Get(ctx context.Context, p user.Principal, id string) (*domain.Task, error) {
	return s.store.FindOne(ctx, id, domain.Scope(p))
}

// Create validates and stores a new task created by p.
func (s *Service) Create(ctx context.Context, p user.Principal, in CreateInput) (*domain.Task, error) {
	if !domain.CanCreate(p) {
		return nil, domain.ErrForbidden
	}
	if err := domain.ValidateTitle(in.Title); err != nil {
		return nil, err
	}
	status := domain.StatusTodo
	if in.Status != nil {
		st, err := domain.ParseStatus(string(*in.Status))
		if err != nil {
			return nil, err
		}
		status = st
	}
	if in.Assignee != nil {
		if err := s.checkAssignee(ctx, p, *in.Assignee); err != nil {
			return nil, err
		}
	}

	now := s.timestamp()
	t := &domain.Task{
		Title:       in.Title,
		Description: in.Description,
		Status:      status,
		Deadline:    in.Deadline,
		AssigneeID:  in.Assignee,
		CreatedBy:   p.ID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.store.Create(ctx, t); err != nil {
		return nil, err
	}

	s.logger.Info("task created", "task_id", t.ID, "created_by", p.ID)
	s.invalidateStats(ctx)
	if s.notifier != nil {
		s.notifier.TaskCreated(ctx, t)
	}
	return t, nil
}

// Update applies patch to the task with the given id on behalf of p. The lookup, the policy
// check and the write happen in one store transaction.
func (s *Service) Update(ctx context.Context, p user.Principal, id string, patch domain.Patch) (*domain.Task, error) {
	var before domain.Task
	var fields []string

	updated, err := s.store.Update(ctx, id, domain.Scope(p), func(t *domain.Task) ([]string, error) {
		if err := domain.CanUpdate(p, t, patch); err != nil {
			return nil, err
		}
		if err := patch.Validate(); err != nil {
			return nil, err
		}
		if assignee, ok := patch.NewAssignee(); ok {
			if err := s.checkAssignee(ctx, p, assignee); err != nil {
				return nil, err
			}
		}

		before = *t
		changed := patch.Apply(t)
		t.UpdatedAt = s.timestamp()
		if t.UpdatedAt.Before(before.UpdatedAt) {
			t.UpdatedAt = before.UpdatedAt
		}
		fields = patch.Fields
		return append(changed, "UpdatedAt"), nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("task updated", "task_id", updated.ID, "updated_by", p.ID, "fields", fields)
	s.invalidateStats(ctx)
	if s.notifier != nil {
		s.notifier.TaskUpdated(ctx, p, &before, updated, fields)
	}
	return updated, nil
}

// Delete removes the task with the given id on behalf of p.
func (s *Service) Delete(ctx context.Context, p user.Principal, id string) error {
	deleted, err := s.store.Delete(ctx, id, domain.DeletionScope(p), func(t *domain.Task) error {
		return domain.CanDelete(p, t)
	})
	if err != nil {
		return err
	}

	s.logger.Info("task deleted", "task_id", deleted.ID, "deleted_by", p.ID)
	s.invalidateStats(ctx)
	if s.notifier != nil {
		s.notifier.TaskDeleted(ctx, p, deleted)
	}
	return nil
}

// Stats counts the tasks in p's scope per status. Concurrent calls for the same scope share
// one computation, but a call never joins a computation that started before the last
// completed mutation.
func (s *Service) Stats(ctx context.Context, p user.Principal) (domain.Stats, error) {
	key := statsKey(p)
	version := s.version.Load()

	gen, cached := int64(0), s.cache != nil
	if cached {
		var err error
		if gen, err = s.cache.Generation(ctx); err != nil {
			s.logger.Warn("stats cache unavailable", "error", err)
			cached = false
		}
	}
	if cached {
		stats, ok, err := s.cache.Get(ctx, gen, key)
		if err != nil {
			s.logger.Warn("stats cache read failed", "key", key, "error", err)
		} else if ok {
			return stats, nil
		}
	}

	// The shared computation outlives any single caller's cancellation.
	flightCtx := context.WithoutCancel(ctx)
	v, err, _ := s.stats.Do(fmt.Sprintf("%d:%d:%s", version, gen, key), func() (any, error) {
		stats, err := s.store.CountByStatus(flightCtx, domain.Scope(p))
		if err != nil {
			return domain.Stats{}, err
		}
		if cached {
			if err := s.cache.Set(flightCtx, gen, key, stats); err != nil {
				s.logger.Warn("stats cache write failed", "key", key, "error", err)
			}
		}
		return stats, nil
	})
	if err != nil {
		return domain.Stats{}, err
	}
	return v.(domain.Stats), nil
}

// RemoveUser applies the deletion of a user to the tasks: the tasks they created are deleted
// and the tasks assigned to them become unassigned.
func (s *Service) RemoveUser(ctx context.Context, userID string) error {
	deleted, released, err := s.store.RemoveUser(ctx, userID, s.timestamp())
	if err != nil {
		return err
	}
	s.logger.Info("removed deleted user from tasks", "user_id", userID, "deleted", deleted, "unassigned", released)
	if deleted > 0 || released > 0 {
		s.invalidateStats(ctx)
	}
	return nil
}

// RoleChanged unassigns the tasks of a user whose new role may not hold assignments.
func (s *Service) RoleChanged(ctx context.Context, userID string, role user.Role) error {
	if role.Assignable() {
		return nil
	}
	released, err := s.store.ReleaseAssignee(ctx, userID, s.timestamp())
	if err != nil {
		return err
	}
	s.logger.Info("unassigned tasks after role change", "user_id", userID, "role", role, "unassigned", released)
	if released > 0 {
		s.invalidateStats(ctx)
	}
	return nil
}

// checkAssignee resolves assigneeID and runs the assignment policy.
func (s *Service) checkAssignee(ctx context.Context, p user.Principal, assigneeID string) error {
	role, err := s.directory.LookupRole(ctx, assigneeID)
	if err != nil {
		if errors.Is(err, ErrUnknownUser) {
			return fmt.Errorf("%w: user %s does not exist", domain.ErrInvalidAssignee, assigneeID)
		}
		return fmt.Errorf("failed to look up assignee: %w", err)
	}
	return domain.CanAssign(p, role, assigneeID)
}

func (s *Service) invalidateStats(ctx context.Context) {
	s.version.Add(1)
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx); err != nil {
		s.logger.Warn("stats cache invalidation failed", "error", err)
	}
}

func (s *Service) timestamp() time.Time {
	return s.now().UTC()
}

// statsKey identifies a scope. All admins share the unrestricted scope.
func statsKey(p user.Principal) string {
	switch p.Role {
	case user.RoleAdmin:
		return string(user.RoleAdmin)
	case user.RoleManager, user.RoleMember:
		return string(p.Role) + ":" + p.ID
	default:
		return "none:" + p.ID
	}
}
