package task_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"todo/internal/logging"
	"todo/internal/task"
	"todo/internal/testutil"
)

// sequentialIDs returns an id generator producing t1, t2, ...
func sequentialIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("t%d", n)
	}
}

func newLoadedStore(t *testing.T) (*task.Store, *testutil.FakeStore) {
	t.Helper()
	backend := testutil.NewFakeStore()
	s := task.NewStore(backend,
		task.WithIDFunc(sequentialIDs()),
		task.WithLogger(logging.Discard()),
	)
	require.NoError(t, s.Load(context.Background()))
	return s, backend
}

func create(t *testing.T, s *task.Store, text string) task.Task {
	t.Helper()
	tk, ok, err := s.Create(context.Background(), text)
	require.NoError(t, err)
	require.True(t, ok, "create %q should succeed", text)
	return tk
}

// requireConverged asserts the persisted snapshot equals the in-memory collection.
func requireConverged(t *testing.T, s *task.Store, backend *testutil.FakeStore) {
	t.Helper()
	raw, ok := backend.Value(s.Key())
	require.True(t, ok, "expected a persisted snapshot")
	persisted, dropped, err := task.Decode(raw)
	require.NoError(t, err)
	require.Zero(t, dropped)
	if len(s.Tasks()) == 0 {
		assert.Empty(t, persisted)
		return
	}
	assert.Equal(t, s.Tasks(), persisted)
}

func TestStore_CreateStatistics(t *testing.T) {
	s, backend := newLoadedStore(t)

	tk := create(t, s, "buy milk")

	assert.Equal(t, "t1", tk.ID)
	assert.Equal(t, "buy milk", tk.Text)
	assert.False(t, tk.Completed)
	assert.Equal(t, task.Stats{Total: 1, Completed: 0, Pending: 1}, s.Statistics())
	requireConverged(t, s, backend)
}

func TestStore_CreateTrimsText(t *testing.T) {
	s, _ := newLoadedStore(t)

	tk := create(t, s, "  walk the dog \n")
	assert.Equal(t, "walk the dog", tk.Text)
}

func TestStore_InvalidUTF8MatchesSnapshot(t *testing.T) {
	s, backend := newLoadedStore(t)

	tk := create(t, s, "caf\xe9")
	assert.Equal(t, "caf\uFFFD", tk.Text)
	requireConverged(t, s, backend)

	ok, err := s.Update(context.Background(), tk.ID, "na\xefve")
	require.NoError(t, err)
	require.True(t, ok)
	got, _ := s.Get(tk.ID)
	assert.Equal(t, "na\uFFFDve", got.Text)
	requireConverged(t, s, backend)
}

func TestStore_CreateEmptyIsNoop(t *testing.T) {
	s, backend := newLoadedStore(t)
	create(t, s, "keep")
	before := s.Tasks()
	writes := backend.Sets()

	for _, text := range []string{"", "   ", "\t\n"} {
		tk, ok, err := s.Create(context.Background(), text)
		require.NoError(t, err)
		assert.False(t, ok)
		assert.Empty(t, tk.ID)
	}

	assert.Equal(t, before, s.Tasks())
	assert.Equal(t, writes, backend.Sets(), "no-op create must not write")
}

func TestStore_CreateInsertsAtFront(t *testing.T) {
	s, _ := newLoadedStore(t)
	create(t, s, "first")
	create(t, s, "second")
	create(t, s, "third")

	got := s.Tasks()
	require.Len(t, got, 3)
	assert.Equal(t, []string{"third", "second", "first"}, []string{got[0].Text, got[1].Text, got[2].Text})
}

func TestStore_Update(t *testing.T) {
	s, backend := newLoadedStore(t)
	a := create(t, s, "a")
	b := create(t, s, "b")

	ok, err := s.Update(context.Background(), a.ID, "  a edited ")
	require.NoError(t, err)
	assert.True(t, ok)

	got, found := s.Get(a.ID)
	require.True(t, found)
	assert.Equal(t, "a edited", got.Text)

	other, _ := s.Get(b.ID)
	assert.Equal(t, "b", other.Text)
	requireConverged(t, s, backend)
}

func TestStore_UpdateNoops(t *testing.T) {
	s, backend := newLoadedStore(t)
	a := create(t, s, "a")
	writes := backend.Sets()

	ok, err := s.Update(context.Background(), "missing", "x")
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = s.Update(context.Background(), a.ID, "   ")
	require.NoError(t, err)
	assert.False(t, ok)

	got, _ := s.Get(a.ID)
	assert.Equal(t, "a", got.Text)
	assert.Equal(t, writes, backend.Sets())
}

func TestStore_ToggleIsInvolution(t *testing.T) {
	s, backend := newLoadedStore(t)
	a := create(t, s, "a")
	b := create(t, s, "b")

	ok, err := s.ToggleComplete(context.Background(), a.ID)
	require.NoError(t, err)
	require.True(t, ok)

	got, _ := s.Get(a.ID)
	assert.True(t, got.Completed)
	other, _ := s.Get(b.ID)
	assert.False(t, other.Completed, "toggle must only touch the matching task")
	requireConverged(t, s, backend)

	_, err = s.ToggleComplete(context.Background(), a.ID)
	require.NoError(t, err)
	got, _ = s.Get(a.ID)
	assert.False(t, got.Completed)
	requireConverged(t, s, backend)
}

func TestStore_ToggleMissingIsNoop(t *testing.T) {
	s, _ := newLoadedStore(t)
	create(t, s, "a")

	ok, err := s.ToggleComplete(context.Background(), "missing")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, 0, s.Statistics().Completed)
}

func TestStore_DeleteIsIdempotent(t *testing.T) {
	s, backend := newLoadedStore(t)
	a := create(t, s, "a")
	create(t, s, "b")

	ok, err := s.Delete(context.Background(), a.ID)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Len(t, s.Tasks(), 1)
	requireConverged(t, s, backend)

	writes := backend.Sets()
	ok, err = s.Delete(context.Background(), a.ID)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Len(t, s.Tasks(), 1)
	assert.Equal(t, writes, backend.Sets())
}

func TestStore_ClearCompletedKeepsOrder(t *testing.T) {
	s, backend := newLoadedStore(t)
	a := create(t, s, "a")
	b := create(t, s, "b")
	c := create(t, s, "c")

	for _, id := range []string{a.ID, c.ID} {
		_, err := s.ToggleComplete(context.Background(), id)
		require.NoError(t, err)
	}

	removed, err := s.ClearCompleted(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, removed)

	got := s.Tasks()
	require.Len(t, got, 1)
	assert.Equal(t, b.ID, got[0].ID)
	assert.False(t, got[0].Completed)
	requireConverged(t, s, backend)
}

func TestStore_ClearCompletedNothingToClear(t *testing.T) {
	s, backend := newLoadedStore(t)
	create(t, s, "a")
	writes := backend.Sets()

	removed, err := s.ClearCompleted(context.Background())
	require.NoError(t, err)
	assert.Zero(t, removed)
	assert.Equal(t, writes, backend.Sets())
}

func TestStore_RecentActivities(t *testing.T) {
	s, _ := newLoadedStore(t)
	for i := 1; i <= 8; i++ {
		create(t, s, fmt.Sprintf("task %d", i))
	}
	_, err := s.ToggleComplete(context.Background(), "t7")
	require.NoError(t, err)

	recent := s.RecentActivities(task.DefaultRecentCount)
	require.Len(t, recent, 5)

	var texts []string
	for _, a := range recent {
		texts = append(texts, a.Text)
	}
	assert.Equal(t, []string{"task 8", "task 7", "task 6", "task 5", "task 4"}, texts)
	assert.True(t, recent[1].Completed)
	assert.False(t, recent[0].Completed)
}

func TestStore_RecentActivitiesBounds(t *testing.T) {
	s, _ := newLoadedStore(t)
	create(t, s, "only")

	assert.Len(t, s.RecentActivities(5), 1)
	assert.Empty(t, s.RecentActivities(0))
	assert.Empty(t, s.RecentActivities(-1))
}

func TestStore_SnapshotConvergence(t *testing.T) {
	s, backend := newLoadedStore(t)
	ctx := context.Background()

	steps := []func() error{
		func() error { _, _, err := s.Create(ctx, "one"); return err },
		func() error { _, _, err := s.Create(ctx, "two"); return err },
		func() error { _, err := s.ToggleComplete(ctx, "t1"); return err },
		func() error { _, _, err := s.Create(ctx, "three"); return err },
		func() error { _, err := s.Update(ctx, "t2", "two!"); return err },
		func() error { _, err := s.Delete(ctx, "t3"); return err },
		func() error { _, err := s.Delete(ctx, "nope"); return err },
		func() error { _, err := s.ClearCompleted(ctx); return err },
	}
	for i, step := range steps {
		require.NoError(t, step(), "step %d", i)
		requireConverged(t, s, backend)
	}

	// A fresh store over the same backend sees the same collection.
	reloaded := task.NewStore(backend, task.WithLogger(logging.Discard()))
	require.NoError(t, reloaded.Load(ctx))
	assert.Equal(t, s.Tasks(), reloaded.Tasks())
}

func TestStore_MutatorsBeforeLoad(t *testing.T) {
	s := task.NewStore(testutil.NewFakeStore(), task.WithLogger(logging.Discard()))
	ctx := context.Background()

	_, _, err := s.Create(ctx, "x")
	assert.ErrorIs(t, err, task.ErrNotLoaded)
	_, err = s.Update(ctx, "a", "x")
	assert.ErrorIs(t, err, task.ErrNotLoaded)
	_, err = s.ToggleComplete(ctx, "a")
	assert.ErrorIs(t, err, task.ErrNotLoaded)
	_, err = s.Delete(ctx, "a")
	assert.ErrorIs(t, err, task.ErrNotLoaded)
	_, err = s.ClearCompleted(ctx)
	assert.ErrorIs(t, err, task.ErrNotLoaded)
}

func TestStore_LoadReplacesState(t *testing.T) {
	backend := testutil.NewFakeStore()
	backend.Put(task.DefaultKey, `[{"id":"x","todo":"from disk","completed":true}]`)

	s := task.NewStore(backend, task.WithLogger(logging.Discard()))
	require.NoError(t, s.Load(context.Background()))

	assert.Equal(t, []task.Task{{ID: "x", Text: "from disk", Completed: true}}, s.Tasks())
	assert.Equal(t, task.Stats{Total: 1, Completed: 1, Pending: 0}, s.Statistics())
	assert.Zero(t, backend.Sets(), "load must not write")
}

func TestStore_LoadAbsentOrMalformed(t *testing.T) {
	tests := []struct {
		name  string
		value string
		put   bool
	}{
		{name: "absent"},
		{name: "empty", value: "", put: true},
		{name: "empty array", value: "[]", put: true},
		{name: "null", value: "null", put: true},
		{name: "malformed", value: "{not json", put: true},
		{name: "wrong shape", value: `{"id":1}`, put: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			backend := testutil.NewFakeStore()
			if tt.put {
				backend.Put(task.DefaultKey, tt.value)
			}
			s := task.NewStore(backend, task.WithLogger(logging.Discard()))
			require.NoError(t, s.Load(context.Background()))
			assert.Empty(t, s.Tasks())

			_, ok, err := s.Create(context.Background(), "works")
			require.NoError(t, err)
			assert.True(t, ok)
		})
	}
}

func TestStore_LoadBackendError(t *testing.T) {
	backend := testutil.NewFakeStore()
	backend.GetErr = errors.New("disk on fire")

	s := task.NewStore(backend, task.WithLogger(logging.Discard()))
	err := s.Load(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk on fire")

	_, _, err = s.Create(context.Background(), "x")
	assert.ErrorIs(t, err, task.ErrNotLoaded)
}

func TestStore_WithKey(t *testing.T) {
	backend := testutil.NewFakeStore()
	s := task.NewStore(backend, task.WithKey("work"), task.WithLogger(logging.Discard()))
	require.NoError(t, s.Load(context.Background()))
	create(t, s, "a")

	_, ok := backend.Value("work")
	assert.True(t, ok)
	_, ok = backend.Value(task.DefaultKey)
	assert.False(t, ok)
}

func TestStore_PersistFailureLeavesStateUnchanged(t *testing.T) {
	s, backend := newLoadedStore(t)
	a := create(t, s, "a")
	before := s.Tasks()

	backend.SetErr = errors.New("store unavailable")
	ctx := context.Background()

	_, _, err := s.Create(ctx, "b")
	assert.Error(t, err)
	_, err = s.ToggleComplete(ctx, a.ID)
	assert.Error(t, err)
	_, err = s.Update(ctx, a.ID, "changed")
	assert.Error(t, err)
	_, err = s.Delete(ctx, a.ID)
	assert.Error(t, err)

	assert.Equal(t, before, s.Tasks())

	backend.SetErr = nil
	requireConverged(t, s, backend)
}

func TestStore_DefaultIDsAreUnique(t *testing.T) {
	s := task.NewStore(testutil.NewFakeStore(), task.WithLogger(logging.Discard()))
	require.NoError(t, s.Load(context.Background()))

	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		tk := create(t, s, "x")
		require.False(t, seen[tk.ID], "duplicate id %s", tk.ID)
		seen[tk.ID] = true
	}
}
