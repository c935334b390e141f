package main

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type createCardInput struct {
	Title       string
	Description string
	Position    *int64
	AssigneeIDs []string
	DueDate     *time.Time
}

// directoryFor loads the actor's reporting-line facts when a rule might
// need them. Admins never do.
func (s *Service) directoryFor(ctx context.Context, actor Actor) (*DirectoryFacts, error) {
	if actor.Role == RoleAdmin {
		return nil, nil
	}
	return s.store.DirectoryFactsFor(ctx, actor)
}

func (s *Service) CreateCard(ctx context.Context, actor Actor, listID string, in createCardInput) (Card, error) {
	list, err := s.store.ListByID(ctx, listID)
	if err != nil {
		return Card{}, err
	}
	facts, err := s.store.BoardFacts(ctx, list.BoardID)
	if err != nil {
		return Card{}, err
	}
	dir, err := s.directoryFor(ctx, actor)
	if err != nil {
		return Card{}, err
	}
	if err := CanCreateCard(actor, facts, dir); err != nil {
		return Card{}, err
	}

	assigneeIDs := dedupe(in.AssigneeIDs)
	var subs []string
	if dir != nil {
		subs = dir.SubordinateIDs
	}
	if err := CheckAssignees(actor, assigneeIDs, subs, memberIDSet(facts)); err != nil {
		return Card{}, err
	}

	c := Card{
		ID:          uuid.NewString(),
		ListID:      listID,
		Title:       in.Title,
		Description: in.Description,
		Status:      StatusTodo,
		DueDate:     in.DueDate,
		CreatedByID: actor.ID,
	}

	tx, err := s.store.Begin(ctx)
	if err != nil {
		return Card{}, err
	}
	defer func() { _ = tx.Rollback() }()

	if in.Position == nil {
		max, err := maxPosition(ctx, tx, cardSiblings, listID)
		if err != nil {
			return Card{}, err
		}
		c.Position = planAppend(max).NewPos
	} else {
		plan := planInsert(listID, clampPosition(*in.Position))
		if err := applyShifts(ctx, tx, cardSiblings, c.ID, plan.Shifts); err != nil {
			return Card{}, err
		}
		c.Position = plan.NewPos
	}

	if err := insertCard(ctx, tx, c); err != nil {
		return Card{}, err
	}
	if err := insertAssignments(ctx, tx, c.ID, assigneeIDs); err != nil {
		return Card{}, err
	}
	if err := tx.Commit(); err != nil {
		return Card{}, err
	}
	return s.store.CardByID(ctx, c.ID)
}

type updateCardInput struct {
	Title       *string
	Description *string
	Status      *CardStatus
	Archived    *bool
	DueDate     *time.Time
	DueDateSet  bool // true when the request carried due_date, even as null
	ListID      *string
	Position    *int64
	AssigneeIDs *[]string
}

// UpdateCard applies field changes, an optional move and an optional
// assignee replacement as one transaction. A move may change the card's
// list but never its board; position reallocation only runs when the
// request carries an explicit position.
func (s *Service) UpdateCard(ctx context.Context, actor Actor, cardID string, in updateCardInput) (Card, error) {
	cf, bf, err := s.store.CardFacts(ctx, cardID)
	if err != nil {
		return Card{}, err
	}
	if err := CanManageCard(actor, bf, cf, false); err != nil {
		return Card{}, err
	}
	if in.Status != nil && !in.Status.valid() {
		return Card{}, errValidation("unknown card status")
	}

	var assigneeIDs []string
	if in.AssigneeIDs != nil {
		assigneeIDs = dedupe(*in.AssigneeIDs)
		dir, err := s.directoryFor(ctx, actor)
		if err != nil {
			return Card{}, err
		}
		var subs []string
		if dir != nil {
			subs = dir.SubordinateIDs
		}
		if err := CheckAssignees(actor, assigneeIDs, subs, memberIDSet(bf)); err != nil {
			return Card{}, err
		}
	}

	tx, err := s.store.Begin(ctx)
	if err != nil {
		return Card{}, err
	}
	defer func() { _ = tx.Rollback() }()

	upd := cardUpdate{
		Title:       in.Title,
		Description: in.Description,
		Status:      in.Status,
		Archived:    in.Archived,
		DueDate:     in.DueDate,
		DueDateSet:  in.DueDateSet,
	}

	curListID, curPos, err := cardPositionInTx(ctx, tx, cardID)
	if err != nil {
		return Card{}, err
	}
	targetListID := curListID
	if in.ListID != nil && *in.ListID != curListID {
		dst, err := listInTx(ctx, tx, *in.ListID)
		if err != nil {
			return Card{}, err
		}
		if dst.BoardID != cf.BoardID {
			return Card{}, errValidation("card cannot be moved to another board")
		}
		targetListID = dst.ID
		upd.ListID = targetListID
	}

	switch {
	case in.Position != nil:
		desired := clampPosition(*in.Position)
		var plan movePlan
		if targetListID != curListID {
			plan = planMoveAcross(curListID, targetListID, curPos, desired)
		} else {
			plan = planMoveWithin(curListID, curPos, desired)
		}
		if err := applyShifts(ctx, tx, cardSiblings, cardID, plan.Shifts); err != nil {
			return Card{}, err
		}
		upd.Position = &plan.NewPos
	case targetListID != curListID:
		// Cross-list move without a position: append to the destination
		// and close the gap left at the source.
		max, err := maxPosition(ctx, tx, cardSiblings, targetListID)
		if err != nil {
			return Card{}, err
		}
		plan := planMoveAcross(curListID, targetListID, curPos, max+1)
		if err := applyShifts(ctx, tx, cardSiblings, cardID, plan.Shifts); err != nil {
			return Card{}, err
		}
		upd.Position = &plan.NewPos
	}

	if err := updateCardRow(ctx, tx, cardID, upd); err != nil {
		return Card{}, err
	}

	if in.AssigneeIDs != nil {
		current := make(map[string]bool, len(cf.Assignees))
		for _, a := range cf.Assignees {
			current[a.UserID] = true
		}
		next := make(map[string]bool, len(assigneeIDs))
		var toAdd []string
		for _, id := range assigneeIDs {
			next[id] = true
			if !current[id] {
				toAdd = append(toAdd, id)
			}
		}
		var toRemove []string
		for _, a := range cf.Assignees {
			if !next[a.UserID] {
				toRemove = append(toRemove, a.UserID)
			}
		}
		if err := deleteAssignments(ctx, tx, cardID, toRemove); err != nil {
			return Card{}, err
		}
		if err := insertAssignments(ctx, tx, cardID, toAdd); err != nil {
			return Card{}, err
		}
	}

	if err := tx.Commit(); err != nil {
		return Card{}, err
	}
	return s.store.CardByID(ctx, cardID)
}

// SearchCards finds cards by title or description across every board the
// actor may see. Unlike board listing, search visibility includes boards
// the actor's manager joined regardless of the manager's role.
func (s *Service) SearchCards(ctx context.Context, actor Actor, query string, limit int) ([]CardSearchResult, error) {
	if len(query) < 2 {
		return nil, errValidation("search query too short")
	}
	if limit <= 0 {
		limit = 10
	}
	if limit > 50 {
		limit = 50
	}
	var managerID string
	if actor.Role == RoleEmployee {
		mgr, _, err := s.store.ManagerOf(ctx, actor.ID)
		if err != nil {
			return nil, err
		}
		managerID = mgr
	}
	ids, err := s.store.VisibleBoardIDs(ctx, actor, managerID, true)
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return []CardSearchResult{}, nil
	}
	return s.store.SearchCards(ctx, ids, query, limit)
}

func (s *Service) GetCard(ctx context.Context, actor Actor, cardID string) (Card, error) {
	_, bf, err := s.store.CardFacts(ctx, cardID)
	if err != nil {
		return Card{}, err
	}
	if actor.Role != RoleAdmin && actor.ID != bf.OwnerID && bf.member(actor.ID) == nil {
		return Card{}, errForbidden("no access to this card")
	}
	return s.store.CardByID(ctx, cardID)
}

// DeleteCard removes the card. Sibling positions keep their gap; order is
// unchanged and later appends still land at the end.
func (s *Service) DeleteCard(ctx context.Context, actor Actor, cardID string) error {
	cf, bf, err := s.store.CardFacts(ctx, cardID)
	if err != nil {
		return err
	}
	if err := CanManageCard(actor, bf, cf, true); err != nil {
		return err
	}
	return s.store.DeleteCard(ctx, cardID)
}
