// Package planner holds the page-scoped task and user collections and keeps
// them reconciled with the server. Collections live for the duration of the
// current view; there is no cross-page cache.
package planner

import (
	"context"
	"fmt"
	"sync"

	"github.com/harsha08-2k6/studyplan/internal/analytics"
	"github.com/harsha08-2k6/studyplan/internal/api"
)

// recentN is how many items the dashboard activity feeds show.
const recentN = 5

// Store fetches role-appropriate collections through the API client and
// reconciles local state with server responses. Refreshes carry a
// generation number so a slow response that resolves after a newer one can
// never overwrite it.
type Store struct {
	client *api.Client

	mu       sync.RWMutex
	gen      int
	tasks    []api.Task
	subjects []api.Subject
	users    []api.User
	admin    api.AdminStats
	weekly   []api.WeeklyBucket
}

func NewStore(client *api.Client) *Store {
	return &Store{client: client}
}

// Snapshot is one refresh result, applied all-or-nothing.
type Snapshot struct {
	gen      int
	Role     api.Role
	Tasks    []api.Task
	Subjects []api.Subject
	Users    []api.User
	Admin    api.AdminStats
	Weekly   []api.WeeklyBucket
}

// StartRefresh advances the generation counter and returns the value the
// matching Fetch must carry.
func (s *Store) StartRefresh() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gen++
	return s.gen
}

// Fetch issues the role-appropriate calls concurrently and joins them
// all-or-nothing: any single failure discards the whole result and the
// previous snapshot stands. Administrators get aggregate stats, the roster
// and every task; everyone else gets their own tasks plus the weekly
// activity buckets. The subject list rides along for the task form.
func (s *Store) Fetch(ctx context.Context, role api.Role, gen int) (*Snapshot, error) {
	snap := &Snapshot{gen: gen, Role: role}

	calls := []func() error{
		func() (err error) {
			snap.Tasks, err = s.client.ListTasks(ctx)
			return err
		},
		func() (err error) {
			snap.Subjects, err = s.client.ListSubjects(ctx)
			return err
		},
	}
	if role == api.RoleAdmin {
		calls = append(calls,
			func() (err error) {
				snap.Admin, err = s.client.AdminStats(ctx)
				return err
			},
			func() (err error) {
				snap.Users, err = s.client.ListUsers(ctx)
				return err
			},
		)
	} else {
		calls = append(calls, func() (err error) {
			snap.Weekly, err = s.client.WeeklyStats(ctx)
			return err
		})
	}

	errs := make([]error, len(calls))
	var wg sync.WaitGroup
	for i, call := range calls {
		wg.Add(1)
		go func(i int, call func() error) {
			defer wg.Done()
			errs[i] = call()
		}(i, call)
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, fmt.Errorf("refresh: %w", err)
		}
	}
	return snap, nil
}

// Apply installs a snapshot unless a newer refresh has started since it was
// fetched. Returns false when the snapshot was discarded as stale.
func (s *Store) Apply(snap *Snapshot) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if snap.gen != s.gen {
		return false
	}
	s.tasks = snap.Tasks
	s.subjects = snap.Subjects
	s.users = snap.Users
	s.admin = snap.Admin
	s.weekly = snap.Weekly
	return true
}

// CreateTask posts a new task and appends the server's canonical record.
// The local collection is never mutated before the server acknowledges.
func (s *Store) CreateTask(ctx context.Context, req api.CreateTaskRequest) (api.Task, error) {
	task, err := s.client.CreateTask(ctx, req)
	if err != nil {
		return api.Task{}, err
	}
	s.mu.Lock()
	s.tasks = append(s.tasks, task)
	s.mu.Unlock()
	return task, nil
}

// ToggleComplete patches only the completed field with the negation of the
// task's current value, then replaces the local record with the server's.
// No optimistic flip.
func (s *Store) ToggleComplete(ctx context.Context, task api.Task) (api.Task, error) {
	completed := !task.Completed
	updated, err := s.client.UpdateTask(ctx, task.ID, api.TaskPatch{Completed: &completed})
	if err != nil {
		return api.Task{}, err
	}
	s.mu.Lock()
	for i := range s.tasks {
		if s.tasks[i].ID == updated.ID {
			s.tasks[i] = updated
			break
		}
	}
	s.mu.Unlock()
	return updated, nil
}

// DeleteTask removes the record on success only; on failure the collection
// is untouched. Confirmation happens at the view tier before this call.
func (s *Store) DeleteTask(ctx context.Context, id int64) error {
	if err := s.client.DeleteTask(ctx, id); err != nil {
		return err
	}
	s.mu.Lock()
	for i := range s.tasks {
		if s.tasks[i].ID == id {
			s.tasks = append(s.tasks[:i], s.tasks[i+1:]...)
			break
		}
	}
	s.mu.Unlock()
	return nil
}

// CreateUser registers a new student account on the admin's behalf.
func (s *Store) CreateUser(ctx context.Context, req api.RegisterRequest) (api.User, error) {
	return s.client.Register(ctx, req)
}

// DeleteUser refuses admin records before any request is issued; the
// server remains the authority, this is a client-side guard.
func (s *Store) DeleteUser(ctx context.Context, user api.User) error {
	if user.Role == api.RoleAdmin {
		return &api.ValidationError{Detail: "admin accounts cannot be deleted"}
	}
	if err := s.client.DeleteUser(ctx, user.ID); err != nil {
		return err
	}
	s.mu.Lock()
	for i := range s.users {
		if s.users[i].ID == user.ID {
			s.users = append(s.users[:i], s.users[i+1:]...)
			break
		}
	}
	s.mu.Unlock()
	return nil
}

func (s *Store) Tasks() []api.Task {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]api.Task, len(s.tasks))
	copy(out, s.tasks)
	return out
}

func (s *Store) Subjects() []api.Subject {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]api.Subject, len(s.subjects))
	copy(out, s.subjects)
	return out
}

func (s *Store) Users() []api.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]api.User, len(s.users))
	copy(out, s.users)
	return out
}

func (s *Store) AdminStats() api.AdminStats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.admin
}

func (s *Store) Weekly() []api.WeeklyBucket {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]api.WeeklyBucket, len(s.weekly))
	copy(out, s.weekly)
	return out
}

// Stats derives the four scalar counters from the current task collection.
func (s *Store) Stats() analytics.TaskStats {
	return analytics.ComputeTaskStats(s.Tasks())
}

func (s *Store) RecentTasks() []api.Task {
	return analytics.RecentTasks(s.Tasks(), recentN)
}

func (s *Store) RecentCompletions() []api.Task {
	return analytics.RecentCompletions(s.Tasks(), recentN)
}
