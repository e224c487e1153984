package task

import (
	"context"
	"testing"

	"pgregory.net/rapid"

	"github.com/kabilangimba/team-task-management-system/database"
	domain "github.com/kabilangimba/team-task-management-system/domain/task"
	"github.com/kabilangimba/team-task-management-system/domain/user"
)

var population = []user.Principal{adminA, managerB, managerC, memberM, memberN}

// withPopulatedService runs fn against a fresh store holding a random task population.
func withPopulatedService(rt *rapid.T, fn func(s *Service)) {
	db, err := database.Open(database.Config{Path: database.MemoryPath}, &domain.Task{})
	if err != nil {
		rt.Fatalf("failed to open test database: %v", err)
	}
	defer database.Close(db)

	s := NewService(NewRepository(db), newDirectory(), &mockLogger{})
	ctx := context.Background()

	creators := []user.Principal{adminA, managerB, managerC}
	assignees := []string{managerB.ID, managerC.ID, memberM.ID, memberN.ID}

	n := rapid.IntRange(0, 12).Draw(rt, "tasks")
	for i := 0; i < n; i++ {
		creator := rapid.SampledFrom(creators).Draw(rt, "creator")
		status := rapid.SampledFrom(domain.Statuses).Draw(rt, "status")
		in := CreateInput{Title: "task", Status: &status}
		if rapid.Bool().Draw(rt, "assigned") {
			id := rapid.SampledFrom(assignees).Draw(rt, "assignee")
			if creator.Role == user.RoleManager && id == creator.ID {
				continue
			}
			in.Assignee = &id
		}
		if _, err := s.Create(ctx, creator, in); err != nil {
			rt.Fatalf("Create() error = %v", err)
		}
	}
	fn(s)
}

func TestProperty_StatsSumToTotal(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		withPopulatedService(rt, func(s *Service) {
			for _, p := range population {
				stats, err := s.Stats(context.Background(), p)
				if err != nil {
					rt.Fatalf("Stats() error = %v", err)
				}
				if stats.Total != stats.Todo+stats.InProgress+stats.Done {
					rt.Fatalf("%s: total %d != %d + %d + %d", p.ID, stats.Total, stats.Todo, stats.InProgress, stats.Done)
				}

				tasks, err := s.List(context.Background(), p, nil, nil)
				if err != nil {
					rt.Fatalf("List() error = %v", err)
				}
				if int64(len(tasks)) != stats.Total {
					rt.Fatalf("%s: stats total %d, list returned %d", p.ID, stats.Total, len(tasks))
				}
			}
		})
	})
}

func TestProperty_ListMatchesRoleScope(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		withPopulatedService(rt, func(s *Service) {
			all, err := s.List(context.Background(), adminA, nil, nil)
			if err != nil {
				rt.Fatalf("List(admin) error = %v", err)
			}

			for _, p := range population {
				tasks, err := s.List(context.Background(), p, nil, nil)
				if err != nil {
					rt.Fatalf("List() error = %v", err)
				}
				seen := make(map[string]bool, len(tasks))
				for _, t := range tasks {
					seen[t.ID] = true
				}

				for _, t := range all {
					var want bool
					switch p.Role {
					case user.RoleAdmin:
						want = true
					case user.RoleManager:
						want = t.CreatedBy == p.ID || t.AssignedTo(p.ID)
					case user.RoleMember:
						want = t.AssignedTo(p.ID)
					}
					if seen[t.ID] != want {
						rt.Fatalf("%s (%s): task created by %s assigned to %v visible = %v, want %v",
							p.ID, p.Role, t.CreatedBy, t.AssigneeID, seen[t.ID], want)
					}
				}
			}
		})
	})
}
