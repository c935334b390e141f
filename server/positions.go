package main

import (
	"context"
	"database/sql"
	"fmt"
)

// Position allocation. Planning is pure: given the moved row's old
// position and the desired one, produce declarative range updates over the
// sibling set instead of per-row loops. Application happens inside the
// caller's transaction so no partial shift is ever observable.

// A shift moves every sibling position in [From, To] by Delta. To == 0
// means the range is open above.
type shift struct {
	ParentID string
	From     int64
	To       int64
	Delta    int64
}

// movePlan is the outcome of planning: the range updates to apply plus the
// moved row's final position.
type movePlan struct {
	Shifts []shift
	NewPos int64
}

// planAppend places a new row after the current maximum position.
func planAppend(maxPos int64) movePlan {
	return movePlan{NewPos: maxPos + 1}
}

// planInsert places a new row at an explicit position, pushing every
// sibling at or above it up by one.
func planInsert(parentID string, desired int64) movePlan {
	return movePlan{
		Shifts: []shift{{ParentID: parentID, From: desired, Delta: +1}},
		NewPos: desired,
	}
}

// planMoveWithin moves an existing row inside its parent. Moving down
// closes the gap behind the row; moving up opens one ahead of it. A move
// to the current position is a no-op.
func planMoveWithin(parentID string, old, desired int64) movePlan {
	switch {
	case desired == old:
		return movePlan{NewPos: old}
	case desired > old:
		return movePlan{
			Shifts: []shift{{ParentID: parentID, From: old + 1, To: desired, Delta: -1}},
			NewPos: desired,
		}
	default:
		return movePlan{
			Shifts: []shift{{ParentID: parentID, From: desired, To: old - 1, Delta: +1}},
			NewPos: desired,
		}
	}
}

// planMoveAcross moves a row to a different parent: make room at the
// destination, close the gap left behind at the source.
func planMoveAcross(srcParentID, dstParentID string, old, desired int64) movePlan {
	return movePlan{
		Shifts: []shift{
			{ParentID: dstParentID, From: desired, Delta: +1},
			{ParentID: srcParentID, From: old + 1, Delta: -1},
		},
		NewPos: desired,
	}
}

// siblingSet names the table and columns of one ordered collection. The
// same allocator serves cards in a list, lists on a board and tags on a
// card.
type siblingSet struct {
	table     string
	parentCol string
	idCol     string
}

var (
	cardSiblings    = siblingSet{table: "cards", parentCol: "list_id", idCol: "id"}
	listSiblings    = siblingSet{table: "lists", parentCol: "board_id", idCol: "id"}
	cardTagSiblings = siblingSet{table: "card_tags", parentCol: "card_id", idCol: "tag_id"}
)

// applyShifts executes a plan's range updates inside tx. excludeID keeps
// the row being moved out of the shifted ranges.
func applyShifts(ctx context.Context, tx *sql.Tx, set siblingSet, excludeID string, shifts []shift) error {
	for _, sh := range shifts {
		var q string
		var args []any
		if sh.To > 0 {
			q = fmt.Sprintf(`update %s set position = position + $1 where %s=$2 and position between $3 and $4 and %s <> $5`,
				set.table, set.parentCol, set.idCol)
			args = []any{sh.Delta, sh.ParentID, sh.From, sh.To, excludeID}
		} else {
			q = fmt.Sprintf(`update %s set position = position + $1 where %s=$2 and position >= $3 and %s <> $4`,
				set.table, set.parentCol, set.idCol)
			args = []any{sh.Delta, sh.ParentID, sh.From, excludeID}
		}
		if _, err := tx.ExecContext(ctx, q, args...); err != nil {
			return err
		}
	}
	return nil
}

// maxPosition reads the current maximum sibling position inside tx, 0 when
// the collection is empty. Read-then-write within one transaction keeps
// concurrent appends from racing.
func maxPosition(ctx context.Context, tx *sql.Tx, set siblingSet, parentID string) (int64, error) {
	var max int64
	q := fmt.Sprintf(`select coalesce(max(position),0) from %s where %s=$1`, set.table, set.parentCol)
	err := tx.QueryRowContext(ctx, q, parentID).Scan(&max)
	return max, err
}

func clampPosition(p int64) int64 {
	if p < 1 {
		return 1
	}
	return p
}
