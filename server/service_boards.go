package main

import (
	"context"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Service implements the board use-cases: every mutation authorizes via
// the access control engine, then runs its structural changes inside one
// transaction. Nothing is persisted when any step fails.
type Service struct {
	store *Store
	log   *logrus.Logger
}

func NewService(store *Store, log *logrus.Logger) *Service {
	return &Service{store: store, log: log}
}

type createBoardInput struct {
	Title       string
	Description string
	OwnerID     string
	MemberIDs   []string
}

func dedupe(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}

func memberIDSet(f BoardFacts) map[string]bool {
	out := make(map[string]bool, len(f.Members))
	for _, m := range f.Members {
		out[m.UserID] = true
	}
	return out
}

func (s *Service) CreateBoard(ctx context.Context, actor Actor, in createBoardInput) (BoardDetail, error) {
	ownerID, err := ResolveBoardOwner(actor, in.OwnerID)
	if err != nil {
		return BoardDetail{}, err
	}
	owner, err := s.store.UserByID(ctx, ownerID)
	if isKind(err, KindNotFound) {
		return BoardDetail{}, errValidation("board owner not found")
	}
	if err != nil {
		return BoardDetail{}, err
	}
	if err := checkBoardOwnerRole(&owner); err != nil {
		return BoardDetail{}, err
	}

	memberIDs := make([]string, 0, len(in.MemberIDs))
	for _, id := range dedupe(in.MemberIDs) {
		if id != ownerID {
			memberIDs = append(memberIDs, id)
		}
	}
	if actor.Role == RoleLead {
		subs, err := s.store.SubordinateIDs(ctx, actor.ID)
		if err != nil {
			return BoardDetail{}, err
		}
		if err := CheckMemberTargets(actor, memberIDs, subs); err != nil {
			return BoardDetail{}, err
		}
	}

	board := Board{ID: uuid.NewString(), Title: in.Title, Description: in.Description, OwnerID: ownerID}

	tx, err := s.store.Begin(ctx)
	if err != nil {
		return BoardDetail{}, err
	}
	defer func() { _ = tx.Rollback() }()

	if err := insertBoard(ctx, tx, board); err != nil {
		return BoardDetail{}, err
	}
	if err := insertBoardMember(ctx, tx, BoardMember{
		BoardID: board.ID, UserID: ownerID, Role: BoardRoleOwner, CanManageCards: true,
	}); err != nil {
		return BoardDetail{}, err
	}
	for _, uid := range memberIDs {
		if err := insertBoardMember(ctx, tx, BoardMember{
			BoardID: board.ID, UserID: uid, Role: BoardRoleCollaborator,
		}); err != nil {
			return BoardDetail{}, err
		}
	}
	if err := tx.Commit(); err != nil {
		return BoardDetail{}, err
	}

	s.log.WithFields(logrus.Fields{"board": board.ID, "owner": ownerID, "actor": actor.ID}).Info("board created")
	return s.store.BoardDetail(ctx, board.ID)
}

func (s *Service) ListBoards(ctx context.Context, actor Actor) ([]BoardSummary, error) {
	var managerID string
	var managerIsLead bool
	if actor.Role == RoleEmployee {
		mgr, role, err := s.store.ManagerOf(ctx, actor.ID)
		if err != nil {
			return nil, err
		}
		managerID, managerIsLead = mgr, role == RoleLead
	}
	ids, err := s.store.VisibleBoardIDs(ctx, actor, managerID, managerIsLead)
	if err != nil {
		return nil, err
	}
	out := make([]BoardSummary, 0, len(ids))
	for _, id := range ids {
		sum, err := s.store.BoardSummary(ctx, id)
		if err != nil {
			return nil, err
		}
		out = append(out, sum)
	}
	return out, nil
}

func (s *Service) GetBoard(ctx context.Context, actor Actor, boardID string) (BoardDetail, error) {
	facts, err := s.store.BoardFacts(ctx, boardID)
	if err != nil {
		return BoardDetail{}, err
	}
	var dir *DirectoryFacts
	if actor.Role == RoleEmployee {
		if dir, err = s.store.DirectoryFactsFor(ctx, actor); err != nil {
			return BoardDetail{}, err
		}
	}
	if err := CanViewBoard(actor, facts, dir); err != nil {
		return BoardDetail{}, err
	}
	return s.store.BoardDetail(ctx, boardID)
}

func (s *Service) UpdateBoard(ctx context.Context, actor Actor, boardID string, title, description *string) (BoardDetail, error) {
	facts, err := s.store.BoardFacts(ctx, boardID)
	if err != nil {
		return BoardDetail{}, err
	}
	if err := CanManageBoard(actor, facts); err != nil {
		return BoardDetail{}, err
	}
	if err := s.store.UpdateBoard(ctx, boardID, title, description); err != nil {
		return BoardDetail{}, err
	}
	return s.store.BoardDetail(ctx, boardID)
}

func (s *Service) DeleteBoard(ctx context.Context, actor Actor, boardID string) error {
	facts, err := s.store.BoardFacts(ctx, boardID)
	if err != nil {
		return err
	}
	if err := CanManageBoard(actor, facts); err != nil {
		return err
	}
	if err := s.store.DeleteBoard(ctx, boardID); err != nil {
		return err
	}
	s.log.WithFields(logrus.Fields{"board": boardID, "actor": actor.ID}).Info("board deleted")
	return nil
}

type memberInput struct {
	UserID         string     `json:"user_id"`
	Role           *BoardRole `json:"role"`
	CanManageCards *bool      `json:"can_manage_cards"`
}

// UpdateBoardMembers replaces the board's non-owner membership set. The
// OWNER row is preserved unconditionally; submitted entries for the owner
// are dropped, never deleted. Replacement is delete-all-then-recreate, so
// membership metadata on removed-then-re-added rows is reset — intentional,
// not a diff.
func (s *Service) UpdateBoardMembers(ctx context.Context, actor Actor, boardID string, members []memberInput) (BoardDetail, error) {
	facts, err := s.store.BoardFacts(ctx, boardID)
	if err != nil {
		return BoardDetail{}, err
	}
	if err := CanManageBoard(actor, facts); err != nil {
		return BoardDetail{}, err
	}

	seen := make(map[string]bool, len(members))
	keep := make([]memberInput, 0, len(members))
	targetIDs := make([]string, 0, len(members))
	for _, m := range members {
		if m.UserID == "" || m.UserID == facts.OwnerID || seen[m.UserID] {
			continue
		}
		if m.Role != nil {
			if !m.Role.valid() {
				return BoardDetail{}, errValidation("unknown board member role")
			}
			// A second OWNER row would break the one-owner invariant.
			if *m.Role == BoardRoleOwner {
				return BoardDetail{}, errValidation("owner membership cannot be assigned")
			}
		}
		seen[m.UserID] = true
		keep = append(keep, m)
		targetIDs = append(targetIDs, m.UserID)
	}

	if actor.Role == RoleLead {
		subs, err := s.store.SubordinateIDs(ctx, actor.ID)
		if err != nil {
			return BoardDetail{}, err
		}
		if err := CheckMemberTargets(actor, targetIDs, subs); err != nil {
			return BoardDetail{}, err
		}
	}

	tx, err := s.store.Begin(ctx)
	if err != nil {
		return BoardDetail{}, err
	}
	defer func() { _ = tx.Rollback() }()

	if err := deleteNonOwnerMembers(ctx, tx, boardID); err != nil {
		return BoardDetail{}, err
	}
	for _, m := range keep {
		row := BoardMember{BoardID: boardID, UserID: m.UserID, Role: BoardRoleCollaborator}
		if m.Role != nil {
			row.Role = *m.Role
		}
		if m.CanManageCards != nil {
			row.CanManageCards = *m.CanManageCards
		}
		if err := insertBoardMember(ctx, tx, row); err != nil {
			return BoardDetail{}, err
		}
	}
	if err := tx.Commit(); err != nil {
		return BoardDetail{}, err
	}

	s.log.WithFields(logrus.Fields{"board": boardID, "members": len(keep), "actor": actor.ID}).Info("board members replaced")
	return s.store.BoardDetail(ctx, boardID)
}
