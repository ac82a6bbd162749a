package hierarchy

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestValidateAssignment_ChainScenario(t *testing.T) {
	g := NewGuard(newFakeStore(abc()...))
	ctx := context.Background()

	ok, err := g.ValidateAssignment(ctx, 1, ptr(3))
	require.NoError(t, err)
	require.False(t, ok, "A must not report to its own descendant C")

	ok, err = g.ValidateAssignment(ctx, 3, ptr(1))
	require.NoError(t, err)
	require.True(t, ok)
}

func TestValidateAssignment_SelfIsAlwaysRejected(t *testing.T) {
	store := newFakeStore(abc()...)
	g := NewGuard(store)

	for _, id := range []int64{1, 2, 3, 42} {
		ok, err := g.ValidateAssignment(context.Background(), id, ptr(id))
		require.NoError(t, err)
		require.False(t, ok, "employee %d", id)
	}
	require.Zero(t, store.queries.Load(), "self-assignment must short-circuit before querying")
}

func TestValidateAssignment_NilManagerIsValid(t *testing.T) {
	store := newFakeStore(abc()...)
	g := NewGuard(store)

	ok, err := g.ValidateAssignment(context.Background(), 2, nil)
	require.NoError(t, err)
	require.True(t, ok)
	require.Zero(t, store.queries.Load())
}

func TestValidateAssignment_AgreesWithDescendantsOf(t *testing.T) {
	snapshot := wide(3)
	g := NewGuard(newFakeStore(snapshot...))
	ctx := context.Background()

	for _, e := range snapshot {
		desc, err := g.DescendantsOf(ctx, e.ID)
		require.NoError(t, err)
		isDesc := make(map[int64]bool, len(desc))
		for _, d := range desc {
			isDesc[d.ID] = true
		}
		for _, m := range snapshot {
			ok, err := g.ValidateAssignment(ctx, e.ID, ptr(m.ID))
			require.NoError(t, err)
			want := m.ID != e.ID && !isDesc[m.ID]
			require.Equal(t, want, ok, "employee=%d manager=%d", e.ID, m.ID)
		}
	}
}

func TestValidateAssignment_TerminatesOnExistingCycle(t *testing.T) {
	// 1 -> 2 -> 3 -> 1 is already corrupt; 4 hangs off 3.
	g := NewGuard(newFakeStore(
		emp(1, "A", 3),
		emp(2, "B", 1),
		emp(3, "C", 2),
		emp(4, "D", 3),
		emp(5, "E"),
	))
	ctx := context.Background()

	ok, err := g.ValidateAssignment(ctx, 1, ptr(5))
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = g.ValidateAssignment(ctx, 1, ptr(4))
	require.NoError(t, err)
	require.False(t, ok)
}

func TestCheckAssignment_ReturnsCycleError(t *testing.T) {
	g := NewGuard(newFakeStore(abc()...))

	err := g.CheckAssignment(context.Background(), 1, ptr(3))
	require.ErrorIs(t, err, ErrCycleRejected)
	var cycleErr *CycleError
	require.ErrorAs(t, err, &cycleErr)
	require.Equal(t, int64(1), cycleErr.EmployeeID)
	require.Equal(t, int64(3), cycleErr.ManagerID)

	err = g.CheckAssignment(context.Background(), 2, ptr(2))
	require.ErrorIs(t, err, ErrCycleRejected)
	require.Contains(t, err.Error(), "cannot manage itself")

	require.NoError(t, g.CheckAssignment(context.Background(), 3, ptr(1)))
}

func TestValidateAssignment_PropagatesStoreErrors(t *testing.T) {
	store := newFakeStore(abc()...)
	store.failOn = 2
	g := NewGuard(store)

	_, err := g.ValidateAssignment(context.Background(), 1, ptr(99))
	require.ErrorIs(t, err, errStoreDown)
}

func TestValidateAssignment_RespectsCancellation(t *testing.T) {
	g := NewGuard(newFakeStore(abc()...))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := g.ValidateAssignment(ctx, 1, ptr(99))
	require.ErrorIs(t, err, context.Canceled)
}

func TestValidateAssignment_MaxNodesBound(t *testing.T) {
	g := NewGuard(newFakeStore(wide(3)...), WithMaxNodes(4))

	_, err := g.ValidateAssignment(context.Background(), 1, ptr(999))
	require.ErrorIs(t, err, ErrStructuralInconsistency)
	var inc *InconsistencyError
	require.ErrorAs(t, err, &inc)
	require.Equal(t, KindBoundExceeded, inc.Kind)
}

func TestAncestorChain(t *testing.T) {
	g := NewGuard(newFakeStore(abc()...))
	ctx := context.Background()

	chain, err := g.AncestorChain(ctx, 3)
	require.NoError(t, err)
	require.Equal(t, []int64{3, 2, 1}, ids(chain))

	chain, err = g.AncestorChain(ctx, 1)
	require.NoError(t, err)
	require.Equal(t, []int64{1}, ids(chain))

	_, err = g.AncestorChain(ctx, 99)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestAncestorChain_DetectsCycle(t *testing.T) {
	g := NewGuard(newFakeStore(
		emp(1, "A", 3),
		emp(2, "B", 1),
		emp(3, "C", 2),
		emp(4, "D", 3),
	))

	_, err := g.AncestorChain(context.Background(), 4)
	require.ErrorIs(t, err, ErrStructuralInconsistency)
	var inc *InconsistencyError
	require.ErrorAs(t, err, &inc)
	require.Equal(t, KindCycle, inc.Kind)
	require.Equal(t, []int64{4, 3, 2, 1, 3}, inc.IDs)
}

func TestAncestorChain_DanglingManager(t *testing.T) {
	g := NewGuard(newFakeStore(emp(2, "B", 1)))

	_, err := g.AncestorChain(context.Background(), 2)
	var inc *InconsistencyError
	require.ErrorAs(t, err, &inc)
	require.Equal(t, KindDanglingManager, inc.Kind)
	require.Equal(t, []int64{2, 1}, inc.IDs)
}

func TestDescendantsOf(t *testing.T) {
	g := NewGuard(newFakeStore(wide(2)...))
	ctx := context.Background()

	// root(1) -> ma(2) -> raa(3), rab(4); mb(5) -> rba(6), rbb(7)
	desc, err := g.DescendantsOf(ctx, 1)
	require.NoError(t, err)
	require.Equal(t, []int64{2, 5, 3, 4, 6, 7}, ids(desc))

	desc, err = g.DescendantsOf(ctx, 5)
	require.NoError(t, err)
	require.Equal(t, []int64{6, 7}, ids(desc))

	desc, err = g.DescendantsOf(ctx, 7)
	require.NoError(t, err)
	require.Empty(t, desc)
}

func TestDescendantsOf_SingleEmployee(t *testing.T) {
	g := NewGuard(newFakeStore(emp(1, "solo")))

	desc, err := g.DescendantsOf(context.Background(), 1)
	require.NoError(t, err)
	require.Empty(t, desc)
}

func TestDescendantsOf_VisitsEachNodeOnce(t *testing.T) {
	snapshot := wide(4)
	store := newFakeStore(snapshot...)
	g := NewGuard(store)

	desc, err := g.DescendantsOf(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, desc, len(snapshot)-1)
	require.LessOrEqual(t, store.queries.Load(), int64(len(snapshot)))
}

func TestDescendantsOf_ReportsCycle(t *testing.T) {
	g := NewGuard(newFakeStore(
		emp(1, "A", 2),
		emp(2, "B", 1),
	))

	_, err := g.DescendantsOf(context.Background(), 1)
	var inc *InconsistencyError
	require.ErrorAs(t, err, &inc)
	require.Equal(t, KindCycle, inc.Kind)
	require.Equal(t, []int64{1}, inc.IDs)
}

func TestGuard_ConcurrentWalkMatchesSequential(t *testing.T) {
	snapshot := wide(5)
	sequential := NewGuard(newFakeStore(snapshot...))
	concurrent := NewGuard(newFakeStore(snapshot...), WithConcurrency(4))
	ctx := context.Background()

	want, err := sequential.DescendantsOf(ctx, 1)
	require.NoError(t, err)
	got, err := concurrent.DescendantsOf(ctx, 1)
	require.NoError(t, err)
	require.Equal(t, ids(want), ids(got))

	for _, m := range snapshot {
		a, err := sequential.ValidateAssignment(ctx, 2, ptr(m.ID))
		require.NoError(t, err)
		b, err := concurrent.ValidateAssignment(ctx, 2, ptr(m.ID))
		require.NoError(t, err)
		require.Equal(t, a, b, "manager=%d", m.ID)
	}
}

func TestGuard_ConcurrentWalkPropagatesErrors(t *testing.T) {
	store := newFakeStore(wide(3)...)
	store.failOn = 6
	g := NewGuard(store, WithConcurrency(3))

	_, err := g.DescendantsOf(context.Background(), 1)
	require.ErrorIs(t, err, errStoreDown)
}
