package main

import "context"

// SetLeadBoards replaces a lead's non-owner memberships so they hold a
// MANAGER seat on exactly the given boards. Boards the lead owns are
// skipped: ownership already grants everything and the owner row must
// survive. Existing seats on kept boards are upgraded to MANAGER, seats
// on boards outside the set are dropped, all in one transaction.
func (s *Service) SetLeadBoards(ctx context.Context, leadID string, boardIDs []string) (LeadAssignments, error) {
	lead, err := s.store.UserByID(ctx, leadID)
	if err != nil {
		if KindOf(err) == KindNotFound {
			return LeadAssignments{}, errNotFound("lead not found")
		}
		return LeadAssignments{}, err
	}
	if lead.Role != RoleLead {
		return LeadAssignments{}, errValidation("user is not a lead")
	}

	targets := dedupe(boardIDs)
	owned := make(map[string]bool)
	for _, id := range targets {
		b, err := s.store.BoardByID(ctx, id)
		if err != nil {
			if KindOf(err) == KindNotFound {
				return LeadAssignments{}, errValidation("one or more boards not found")
			}
			return LeadAssignments{}, err
		}
		if b.OwnerID == lead.ID {
			owned[id] = true
		}
	}
	want := make(map[string]bool, len(targets))
	for _, id := range targets {
		if !owned[id] {
			want[id] = true
		}
	}

	tx, err := s.store.Begin(ctx)
	if err != nil {
		return LeadAssignments{}, err
	}
	defer func() { _ = tx.Rollback() }()

	current, err := membershipsInTx(ctx, tx, lead.ID)
	if err != nil {
		return LeadAssignments{}, err
	}
	held := make(map[string]bool, len(current))
	for _, m := range current {
		held[m.BoardID] = true
		if m.Role == BoardRoleOwner {
			continue
		}
		switch {
		case !want[m.BoardID]:
			if err := deleteBoardMember(ctx, tx, m.BoardID, lead.ID); err != nil {
				return LeadAssignments{}, err
			}
		case m.Role != BoardRoleManager:
			if err := setBoardMemberRole(ctx, tx, m.BoardID, lead.ID, BoardRoleManager, true); err != nil {
				return LeadAssignments{}, err
			}
		}
	}
	for _, id := range targets {
		if owned[id] || held[id] {
			continue
		}
		m := BoardMember{BoardID: id, UserID: lead.ID, Role: BoardRoleManager, CanManageCards: true}
		if err := insertBoardMember(ctx, tx, m); err != nil {
			return LeadAssignments{}, err
		}
	}
	if err := tx.Commit(); err != nil {
		return LeadAssignments{}, err
	}
	return s.store.LeadAssignmentsFor(ctx, lead.ID)
}
