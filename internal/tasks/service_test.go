package tasks

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tempus-hr/tempus/internal/projects"
	"github.com/tempus-hr/tempus/internal/shared"
)

type fakeRepo struct {
	nextID int64
	items  map[int64]Task
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{nextID: 1, items: make(map[int64]Task)}
}

func (f *fakeRepo) Create(ctx context.Context, t Task) (int64, error) {
	t.ID = f.nextID
	f.nextID++
	f.items[t.ID] = t
	return t.ID, nil
}

func (f *fakeRepo) Update(ctx context.Context, t Task) error {
	if _, ok := f.items[t.ID]; !ok {
		return shared.ErrNotFound
	}
	f.items[t.ID] = t
	return nil
}

func (f *fakeRepo) Delete(ctx context.Context, id int64) error {
	if _, ok := f.items[id]; !ok {
		return shared.ErrNotFound
	}
	delete(f.items, id)
	return nil
}

func (f *fakeRepo) GetByID(ctx context.Context, id int64) (Task, error) {
	t, ok := f.items[id]
	if !ok {
		return Task{}, shared.ErrNotFound
	}
	return t, nil
}

func (f *fakeRepo) AcceptsTimeEntries(ctx context.Context, id int64) (bool, error) {
	t, ok := f.items[id]
	if !ok {
		return false, shared.ErrNotFound
	}
	return t.Open(), nil
}

func (f *fakeRepo) Refs(ctx context.Context, ids []int64) (map[int64]Ref, error) {
	refs := make(map[int64]Ref, len(ids))
	for _, id := range ids {
		if t, ok := f.items[id]; ok {
			refs[id] = Ref{TaskID: id, TaskName: t.Name, ProjectID: t.ProjectID}
		}
	}
	return refs, nil
}

func (f *fakeRepo) List(ctx context.Context, filters ListFilters, limit, offset int) ([]Task, int, error) {
	var out []Task
	for _, t := range f.items {
		out = append(out, t)
	}
	return out, len(out), nil
}

type fakeProjects struct {
	known map[int64]projects.Project
}

func (f *fakeProjects) Get(ctx context.Context, id int64) (projects.Project, error) {
	p, ok := f.known[id]
	if !ok {
		return projects.Project{}, shared.ErrNotFound
	}
	return p, nil
}

func newTestService() (*Service, *fakeRepo) {
	repo := newFakeRepo()
	dir := &fakeProjects{known: map[int64]projects.Project{
		1: {ID: 1, Code: "ATLAS", Name: "Atlas", Status: projects.StatusActive},
	}}
	return NewService(repo, dir), repo
}

func TestCreateAppliesDefaults(t *testing.T) {
	svc, _ := newTestService()

	task, err := svc.Create(context.Background(), Input{ProjectID: 1, Code: "api-7", Name: "Wire handlers"})
	require.NoError(t, err)
	require.Equal(t, StatusOpen, task.Status)
	require.Equal(t, PriorityMedium, task.Priority)
	require.Equal(t, "API-7", task.Code, "codes are stored upper case")
}

func TestCreateRejectsUnknownProject(t *testing.T) {
	svc, _ := newTestService()

	_, err := svc.Create(context.Background(), Input{ProjectID: 99, Code: "X-1", Name: "Orphan"})
	require.ErrorIs(t, err, shared.ErrNotFound)
}

func TestCreateRejectsNonPositiveEstimate(t *testing.T) {
	svc, _ := newTestService()

	zero := 0.0
	_, err := svc.Create(context.Background(), Input{ProjectID: 1, Code: "X-1", Name: "Bad", EstimatedHours: &zero})
	require.ErrorIs(t, err, shared.ErrValidation)
}

func TestUpdateKeepsOwningProject(t *testing.T) {
	svc, _ := newTestService()

	task, err := svc.Create(context.Background(), Input{ProjectID: 1, Code: "X-1", Name: "Original"})
	require.NoError(t, err)

	updated, err := svc.Update(context.Background(), task.ID, Input{ProjectID: 42, Code: "X-1", Name: "Renamed"})
	require.NoError(t, err)
	require.Equal(t, int64(1), updated.ProjectID, "project binding is immutable")
	require.Equal(t, "Renamed", updated.Name)
}

func TestAssignSetsEmployee(t *testing.T) {
	svc, _ := newTestService()

	task, err := svc.Create(context.Background(), Input{ProjectID: 1, Code: "X-1", Name: "Assignable"})
	require.NoError(t, err)

	assigned, err := svc.Assign(context.Background(), task.ID, 12)
	require.NoError(t, err)
	require.NotNil(t, assigned.AssignedEmployeeID)
	require.Equal(t, int64(12), *assigned.AssignedEmployeeID)
}

func TestAcceptsTimeEntriesFollowsStatus(t *testing.T) {
	svc, repo := newTestService()

	task, err := svc.Create(context.Background(), Input{ProjectID: 1, Code: "X-1", Name: "Trackable"})
	require.NoError(t, err)

	ok, err := svc.AcceptsTimeEntries(context.Background(), task.ID)
	require.NoError(t, err)
	require.True(t, ok)

	done := repo.items[task.ID]
	done.Status = StatusCompleted
	repo.items[task.ID] = done

	ok, err = svc.AcceptsTimeEntries(context.Background(), task.ID)
	require.NoError(t, err)
	require.False(t, ok, "completed tasks no longer accept entries")
}
