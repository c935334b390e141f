package main

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeRow is one sibling in the in-memory collection used to exercise the
// planner the same way applyShifts does against SQL.
type fakeRow struct {
	ID       string
	ParentID string
	Pos      int64
}

type fakeSiblings struct {
	rows []*fakeRow
}

func (f *fakeSiblings) add(id, parentID string, pos int64) {
	f.rows = append(f.rows, &fakeRow{ID: id, ParentID: parentID, Pos: pos})
}

func (f *fakeSiblings) apply(excludeID string, shifts []shift) {
	for _, sh := range shifts {
		for _, r := range f.rows {
			if r.ID == excludeID || r.ParentID != sh.ParentID {
				continue
			}
			if r.Pos >= sh.From && (sh.To == 0 || r.Pos <= sh.To) {
				r.Pos += sh.Delta
			}
		}
	}
}

func (f *fakeSiblings) move(id string, plan movePlan, newParent string) {
	f.apply(id, plan.Shifts)
	for _, r := range f.rows {
		if r.ID == id {
			r.Pos = plan.NewPos
			if newParent != "" {
				r.ParentID = newParent
			}
		}
	}
}

// ordered returns the ids under one parent sorted by position.
func (f *fakeSiblings) ordered(parentID string) []string {
	var rows []*fakeRow
	for _, r := range f.rows {
		if r.ParentID == parentID {
			rows = append(rows, r)
		}
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].Pos < rows[j].Pos })
	out := make([]string, len(rows))
	for i, r := range rows {
		out[i] = r.ID
	}
	return out
}

func (f *fakeSiblings) positions(parentID string) []int64 {
	var out []int64
	for _, r := range f.rows {
		if r.ParentID == parentID {
			out = append(out, r.Pos)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func requireDistinct(t *testing.T, f *fakeSiblings, parentID string) {
	t.Helper()
	seen := map[int64]bool{}
	for _, p := range f.positions(parentID) {
		require.False(t, seen[p], "duplicate position %d under %s", p, parentID)
		seen[p] = true
	}
}

func seedList(parentID string, n int) *fakeSiblings {
	f := &fakeSiblings{}
	for i := 1; i <= n; i++ {
		f.add(parentID+"-c"+string(rune('0'+i)), parentID, int64(i))
	}
	return f
}

func TestPlanAppend(t *testing.T) {
	assert.Equal(t, int64(1), planAppend(0).NewPos)
	assert.Equal(t, int64(5), planAppend(4).NewPos)
	assert.Empty(t, planAppend(4).Shifts)
}

func TestPlanInsertShiftsTail(t *testing.T) {
	f := seedList("l1", 4)
	plan := planInsert("l1", 2)
	f.apply("new", plan.Shifts)
	f.add("new", "l1", plan.NewPos)

	assert.Equal(t, []string{"l1-c1", "new", "l1-c2", "l1-c3", "l1-c4"}, f.ordered("l1"))
	requireDistinct(t, f, "l1")
	assert.Equal(t, []int64{1, 2, 3, 4, 5}, f.positions("l1"))
}

func TestPlanMoveWithinNoOp(t *testing.T) {
	plan := planMoveWithin("l1", 3, 3)
	assert.Empty(t, plan.Shifts)
	assert.Equal(t, int64(3), plan.NewPos)
}

func TestPlanMoveWithinDown(t *testing.T) {
	// [c1 c2 c3 c4], move c1 to position 3 => [c2 c3 c1 c4]
	f := seedList("l1", 4)
	f.move("l1-c1", planMoveWithin("l1", 1, 3), "")

	assert.Equal(t, []string{"l1-c2", "l1-c3", "l1-c1", "l1-c4"}, f.ordered("l1"))
	requireDistinct(t, f, "l1")
	assert.Equal(t, []int64{1, 2, 3, 4}, f.positions("l1"))
}

func TestPlanMoveWithinUp(t *testing.T) {
	// [c1 c2 c3 c4], move c4 to position 2 => [c1 c4 c2 c3]
	f := seedList("l1", 4)
	f.move("l1-c4", planMoveWithin("l1", 4, 2), "")

	assert.Equal(t, []string{"l1-c1", "l1-c4", "l1-c2", "l1-c3"}, f.ordered("l1"))
	requireDistinct(t, f, "l1")
	assert.Equal(t, []int64{1, 2, 3, 4}, f.positions("l1"))
}

func TestPlanMoveAcross(t *testing.T) {
	f := seedList("l1", 3)
	f.add("l2-c1", "l2", 1)
	f.add("l2-c2", "l2", 2)

	// move the middle card of l1 into l2 at position 2
	f.move("l1-c2", planMoveAcross("l1", "l2", 2, 2), "l2")

	assert.Equal(t, []string{"l1-c1", "l1-c3"}, f.ordered("l1"))
	assert.Equal(t, []string{"l2-c1", "l1-c2", "l2-c2"}, f.ordered("l2"))
	requireDistinct(t, f, "l1")
	requireDistinct(t, f, "l2")
	// source gap closed, destination stays dense
	assert.Equal(t, []int64{1, 2}, f.positions("l1"))
	assert.Equal(t, []int64{1, 2, 3}, f.positions("l2"))
}

func TestPlanMoveAcrossToEnd(t *testing.T) {
	f := seedList("l1", 2)
	f.add("l2-c1", "l2", 1)

	// append semantics: desired = max(dest)+1
	f.move("l1-c1", planMoveAcross("l1", "l2", 1, 2), "l2")

	assert.Equal(t, []string{"l1-c2"}, f.ordered("l1"))
	assert.Equal(t, []string{"l2-c1", "l1-c1"}, f.ordered("l2"))
	assert.Equal(t, []int64{1}, f.positions("l1"))
	assert.Equal(t, []int64{1, 2}, f.positions("l2"))
}

func TestMoveSequencePreservesCount(t *testing.T) {
	f := seedList("l1", 5)
	f.add("l2-c1", "l2", 1)

	f.move("l1-c5", planMoveAcross("l1", "l2", 5, 1), "l2")
	f.move("l1-c1", planMoveWithin("l1", 1, 4), "")
	f.move("l2-c1", planMoveAcross("l2", "l1", 2, 1), "l1")

	assert.Len(t, f.ordered("l1"), 5)
	assert.Len(t, f.ordered("l2"), 1)
	requireDistinct(t, f, "l1")
	requireDistinct(t, f, "l2")
}

func TestClampPosition(t *testing.T) {
	assert.Equal(t, int64(1), clampPosition(0))
	assert.Equal(t, int64(1), clampPosition(-7))
	assert.Equal(t, int64(3), clampPosition(3))
}
