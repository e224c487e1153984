package task

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/kabilangimba/team-task-management-system/database"
	domain "github.com/kabilangimba/team-task-management-system/domain/task"
	"github.com/kabilangimba/team-task-management-system/domain/user"
)

func newTestRepository(t *testing.T) *Repository {
	t.Helper()

	db, err := database.Open(database.Config{Path: database.MemoryPath}, &domain.Task{})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	t.Cleanup(func() { _ = database.Close(db) })
	return NewRepository(db)
}

// newFileRepository opens a WAL file database, where connections run concurrently.
func newFileRepository(t *testing.T) *Repository {
	t.Helper()

	db, err := database.Open(database.Config{Path: filepath.Join(t.TempDir(), "tasks.db")}, &domain.Task{})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	t.Cleanup(func() { _ = database.Close(db) })
	return NewRepository(db)
}

func seedTask(t *testing.T, r *Repository, title, createdBy string, assignee *string, status domain.Status, at time.Time) *domain.Task {
	t.Helper()
	task := &domain.Task{
		Title:      title,
		Status:     status,
		CreatedBy:  createdBy,
		AssigneeID: assignee,
		CreatedAt:  at,
		UpdatedAt:  at,
	}
	if err := r.Create(context.Background(), task); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	return task
}

func strPtr(s string) *string { return &s }

func statusPtr(s domain.Status) *domain.Status { return &s }

func TestRepository_CreateAssignsID(t *testing.T) {
	r := newTestRepository(t)
	task := seedTask(t, r, "Write docs", "mgr-a", nil, domain.StatusTodo, time.Now().UTC())

	if task.ID == "" {
		t.Fatal("Create() did not assign an ID")
	}

	got, err := r.FindOne(context.Background(), task.ID, domain.Filter{})
	if err != nil {
		t.Fatalf("FindOne() error = %v", err)
	}
	if got.Title != "Write docs" || got.CreatedBy != "mgr-a" {
		t.Errorf("FindOne() = %+v", got)
	}
	if got.AssigneeID != nil {
		t.Errorf("AssigneeID = %v, want nil", *got.AssigneeID)
	}
}

func TestRepository_FindOneRespectsScope(t *testing.T) {
	r := newTestRepository(t)
	ctx := context.Background()
	task := seedTask(t, r, "Scoped", "mgr-a", strPtr("mem-1"), domain.StatusTodo, time.Now().UTC())

	tests := []struct {
		name    string
		p       user.Principal
		wantErr error
	}{
		{"admin", user.Principal{ID: "admin-1", Role: user.RoleAdmin}, nil},
		{"creator", user.Principal{ID: "mgr-a", Role: user.RoleManager}, nil},
		{"other manager", user.Principal{ID: "mgr-b", Role: user.RoleManager}, domain.ErrNotFound},
		{"assignee", user.Principal{ID: "mem-1", Role: user.RoleMember}, nil},
		{"other member", user.Principal{ID: "mem-2", Role: user.RoleMember}, domain.ErrNotFound},
		{"unknown role", user.Principal{ID: "mgr-a", Role: "guest"}, domain.ErrNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := r.FindOne(ctx, task.ID, domain.Scope(tt.p))
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("FindOne() error = %v, want %v", err, tt.wantErr)
			}
		})
	}

	if _, err := r.FindOne(ctx, "missing", domain.Filter{}); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("FindOne(missing) error = %v, want ErrNotFound", err)
	}
}

func TestRepository_FindOrdersNewestFirst(t *testing.T) {
	r := newTestRepository(t)
	base := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	first := seedTask(t, r, "first", "mgr-a", nil, domain.StatusTodo, base)
	second := seedTask(t, r, "second", "mgr-a", nil, domain.StatusTodo, base.Add(time.Minute))
	third := seedTask(t, r, "third", "mgr-a", nil, domain.StatusTodo, base.Add(2*time.Minute))

	tasks, err := r.Find(context.Background(), domain.Filter{})
	if err != nil {
		t.Fatalf("Find() error = %v", err)
	}
	want := []string{third.ID, second.ID, first.ID}
	if len(tasks) != len(want) {
		t.Fatalf("Find() returned %d tasks, want %d", len(tasks), len(want))
	}
	for i, id := range want {
		if tasks[i].ID != id {
			t.Errorf("tasks[%d] = %s, want %s", i, tasks[i].Title, id)
		}
	}
}

func TestRepository_FindFilters(t *testing.T) {
	r := newTestRepository(t)
	ctx := context.Background()
	now := time.Now().UTC()

	seedTask(t, r, "a created todo", "mgr-a", nil, domain.StatusTodo, now)
	seedTask(t, r, "a created for m1 done", "mgr-a", strPtr("mem-1"), domain.StatusDone, now)
	seedTask(t, r, "b created for a", "mgr-b", strPtr("mgr-a"), domain.StatusInProgress, now)
	seedTask(t, r, "b created for m2", "mgr-b", strPtr("mem-2"), domain.StatusTodo, now)

	mgrA := user.Principal{ID: "mgr-a", Role: user.RoleManager}
	mem1 := user.Principal{ID: "mem-1", Role: user.RoleMember}

	tests := []struct {
		name   string
		filter domain.Filter
		want   int
	}{
		{"admin sees all", domain.Filter{}, 4},
		{"manager sees created or assigned", domain.Scope(mgrA), 3},
		{"manager by status", domain.ScopeWith(mgrA, statusPtr(domain.StatusTodo), nil), 1},
		{"manager by assignee", domain.ScopeWith(mgrA, nil, strPtr("mem-1")), 1},
		{"manager asks for foreign assignee", domain.ScopeWith(mgrA, nil, strPtr("mem-2")), 0},
		{"member sees assigned", domain.Scope(mem1), 1},
		{"member asks for another member", domain.ScopeWith(mem1, nil, strPtr("mem-2")), 0},
		{"unknown role", domain.Scope(user.Principal{ID: "x", Role: "guest"}), 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tasks, err := r.Find(ctx, tt.filter)
			if err != nil {
				t.Fatalf("Find() error = %v", err)
			}
			if len(tasks) != tt.want {
				t.Errorf("Find() returned %d tasks, want %d", len(tasks), tt.want)
			}
			for _, task := range tasks {
				if !tt.filter.Matches(task) {
					t.Errorf("task %q does not match the filter", task.Title)
				}
			}
		})
	}
}

func TestRepository_CountByStatus(t *testing.T) {
	r := newTestRepository(t)
	ctx := context.Background()
	now := time.Now().UTC()

	seedTask(t, r, "1", "mgr-a", strPtr("mem-1"), domain.StatusTodo, now)
	seedTask(t, r, "2", "mgr-a", strPtr("mem-1"), domain.StatusInProgress, now)
	seedTask(t, r, "3", "mgr-a", nil, domain.StatusDone, now)
	seedTask(t, r, "4", "mgr-b", nil, domain.StatusDone, now)

	stats, err := r.CountByStatus(ctx, domain.Filter{})
	if err != nil {
		t.Fatalf("CountByStatus() error = %v", err)
	}
	want := domain.Stats{Total: 4, Todo: 1, InProgress: 1, Done: 2}
	if stats != want {
		t.Errorf("CountByStatus(all) = %+v, want %+v", stats, want)
	}

	stats, err = r.CountByStatus(ctx, domain.Scope(user.Principal{ID: "mem-1", Role: user.RoleMember}))
	if err != nil {
		t.Fatalf("CountByStatus() error = %v", err)
	}
	want = domain.Stats{Total: 2, Todo: 1, InProgress: 1}
	if stats != want {
		t.Errorf("CountByStatus(member) = %+v, want %+v", stats, want)
	}

	stats, err = r.CountByStatus(ctx, domain.Scope(user.Principal{ID: "x", Role: "guest"}))
	if err != nil {
		t.Fatalf("CountByStatus() error = %v", err)
	}
	if stats != (domain.Stats{}) {
		t.Errorf("CountByStatus(unknown role) = %+v, want zero", stats)
	}
}

func TestRepository_UpdateWritesZeroValues(t *testing.T) {
	r := newTestRepository(t)
	ctx := context.Background()
	task := seedTask(t, r, "Clear me", "mgr-a", strPtr("mem-1"), domain.StatusTodo, time.Now().UTC())

	_, err := r.Update(ctx, task.ID, domain.Filter{}, func(t *domain.Task) ([]string, error) {
		t.AssigneeID = nil
		t.Description = ""
		return []string{"AssigneeID", "Description"}, nil
	})
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}

	got, err := r.FindOne(ctx, task.ID, domain.Filter{})
	if err != nil {
		t.Fatalf("FindOne() error = %v", err)
	}
	if got.AssigneeID != nil {
		t.Errorf("AssigneeID = %v, want nil after clearing", *got.AssigneeID)
	}
}

func TestRepository_UpdateAbortsOnCallbackError(t *testing.T) {
	r := newTestRepository(t)
	ctx := context.Background()
	task := seedTask(t, r, "Original", "mgr-a", nil, domain.StatusTodo, time.Now().UTC())

	_, err := r.Update(ctx, task.ID, domain.Filter{}, func(t *domain.Task) ([]string, error) {
		t.Title = "Changed"
		return nil, domain.ErrNotTaskOwner
	})
	if !errors.Is(err, domain.ErrNotTaskOwner) {
		t.Fatalf("Update() error = %v, want ErrNotTaskOwner", err)
	}

	got, _ := r.FindOne(ctx, task.ID, domain.Filter{})
	if got.Title != "Original" {
		t.Errorf("Title = %q, want unchanged", got.Title)
	}
}

func TestRepository_Delete(t *testing.T) {
	r := newTestRepository(t)
	ctx := context.Background()
	task := seedTask(t, r, "Doomed", "mgr-a", nil, domain.StatusTodo, time.Now().UTC())

	_, err := r.Delete(ctx, task.ID, domain.Filter{}, func(*domain.Task) error { return domain.ErrForbidden })
	if !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("Delete() error = %v, want ErrForbidden", err)
	}
	if _, err := r.FindOne(ctx, task.ID, domain.Filter{}); err != nil {
		t.Fatalf("task disappeared after a refused delete: %v", err)
	}

	deleted, err := r.Delete(ctx, task.ID, domain.Filter{}, func(*domain.Task) error { return nil })
	if err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if deleted.ID != task.ID {
		t.Errorf("Delete() returned %s, want %s", deleted.ID, task.ID)
	}
	if _, err := r.FindOne(ctx, task.ID, domain.Filter{}); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("FindOne() after delete error = %v, want ErrNotFound", err)
	}
}

func TestRepository_ConcurrentUpdatesSerialise(t *testing.T) {
	r := newFileRepository(t)
	ctx := context.Background()
	task := seedTask(t, r, "Contended", "mgr-a", nil, domain.StatusTodo, time.Now().UTC())

	const writers = 8
	var wg sync.WaitGroup
	errs := make(chan error, writers)
	for range writers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := r.Update(ctx, task.ID, domain.Filter{}, func(t *domain.Task) ([]string, error) {
				t.Description += "x"
				return []string{"Description"}, nil
			})
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		if err != nil {
			t.Errorf("concurrent Update() error = %v", err)
		}
	}

	got, err := r.FindOne(ctx, task.ID, domain.Filter{})
	if err != nil {
		t.Fatalf("FindOne() error = %v", err)
	}
	if want := strings.Repeat("x", writers); got.Description != want {
		t.Errorf("Description = %q, want %q: an update was lost", got.Description, want)
	}
}

func TestRepository_ConcurrentUpdateAndDelete(t *testing.T) {
	r := newFileRepository(t)
	ctx := context.Background()
	task := seedTask(t, r, "Raced", "mgr-a", nil, domain.StatusTodo, time.Now().UTC())

	var wg sync.WaitGroup
	var updateErr, deleteErr error
	wg.Add(2)
	go func() {
		defer wg.Done()
		_, updateErr = r.Update(ctx, task.ID, domain.Filter{}, func(t *domain.Task) ([]string, error) {
			t.Status = domain.StatusDone
			return []string{"Status"}, nil
		})
	}()
	go func() {
		defer wg.Done()
		_, deleteErr = r.Delete(ctx, task.ID, domain.Filter{}, func(*domain.Task) error { return nil })
	}()
	wg.Wait()

	if deleteErr != nil {
		t.Errorf("Delete() error = %v", deleteErr)
	}
	// The update either ran first or found the task gone.
	if updateErr != nil && !errors.Is(updateErr, domain.ErrNotFound) {
		t.Errorf("Update() error = %v, want nil or ErrNotFound", updateErr)
	}
}

func TestRepository_RemoveUser(t *testing.T) {
	r := newTestRepository(t)
	ctx := context.Background()
	base := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	at := base.Add(time.Hour)

	created := seedTask(t, r, "Created by the leaver", "leaver", strPtr("mem-1"), domain.StatusTodo, base)
	assigned := seedTask(t, r, "Assigned to the leaver", "mgr-a", strPtr("leaver"), domain.StatusInProgress, base)
	future := seedTask(t, r, "Touched later", "mgr-a", strPtr("leaver"), domain.StatusTodo, at.Add(time.Hour))
	unrelated := seedTask(t, r, "Unrelated", "mgr-a", strPtr("mem-1"), domain.StatusTodo, base)

	deleted, released, err := r.RemoveUser(ctx, "leaver", at)
	if err != nil {
		t.Fatalf("RemoveUser() error = %v", err)
	}
	if deleted != 1 || released != 2 {
		t.Errorf("RemoveUser() = %d deleted, %d released, want 1 and 2", deleted, released)
	}

	if _, err := r.FindOne(ctx, created.ID, domain.Filter{}); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("task created by the removed user: FindOne() error = %v, want ErrNotFound", err)
	}

	got, err := r.FindOne(ctx, assigned.ID, domain.Filter{})
	if err != nil {
		t.Fatalf("FindOne() error = %v", err)
	}
	if got.AssigneeID != nil {
		t.Errorf("AssigneeID = %v, want nil", *got.AssigneeID)
	}
	if !got.UpdatedAt.Equal(at) {
		t.Errorf("UpdatedAt = %v, want %v", got.UpdatedAt, at)
	}

	got, err = r.FindOne(ctx, future.ID, domain.Filter{})
	if err != nil {
		t.Fatalf("FindOne() error = %v", err)
	}
	if got.AssigneeID != nil || !got.UpdatedAt.Equal(future.UpdatedAt) {
		t.Errorf("task = %+v, want unassigned with UpdatedAt kept at %v", got, future.UpdatedAt)
	}

	got, err = r.FindOne(ctx, unrelated.ID, domain.Filter{})
	if err != nil {
		t.Fatalf("FindOne() error = %v", err)
	}
	if got.AssigneeID == nil || *got.AssigneeID != "mem-1" {
		t.Errorf("unrelated task assignee changed: %+v", got)
	}
}

func TestRepository_ReleaseAssignee(t *testing.T) {
	r := newTestRepository(t)
	ctx := context.Background()
	now := time.Now().UTC()
	own := seedTask(t, r, "Own", "promoted", nil, domain.StatusTodo, now)
	held := seedTask(t, r, "Held", "mgr-a", strPtr("promoted"), domain.StatusTodo, now)

	released, err := r.ReleaseAssignee(ctx, "promoted", now.Add(time.Minute))
	if err != nil {
		t.Fatalf("ReleaseAssignee() error = %v", err)
	}
	if released != 1 {
		t.Errorf("ReleaseAssignee() = %d, want 1", released)
	}

	if _, err := r.FindOne(ctx, own.ID, domain.Filter{}); err != nil {
		t.Errorf("created task must survive a release: %v", err)
	}
	got, err := r.FindOne(ctx, held.ID, domain.Filter{})
	if err != nil {
		t.Fatalf("FindOne() error = %v", err)
	}
	if got.AssigneeID != nil {
		t.Errorf("AssigneeID = %v, want nil", *got.AssigneeID)
	}
}
