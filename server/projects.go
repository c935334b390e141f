package main

import (
	"context"
	"database/sql"
)

// The project view is an admin surface over board ownership: which
// leads run which boards, and reassignment of those boards in bulk.

func (s *Store) boardRefsFor(ctx context.Context, userID string) ([]BoardRef, error) {
	rows, err := s.db.QueryContext(ctx,
		`select b.id, b.title, m.role
		 from board_members m
		 join boards b on b.id = m.board_id
		 where m.user_id = $1
		 order by b.title, b.id`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	refs := []BoardRef{}
	for rows.Next() {
		var ref BoardRef
		if err := rows.Scan(&ref.ID, &ref.Title, &ref.Role); err != nil {
			return nil, err
		}
		refs = append(refs, ref)
	}
	return refs, rows.Err()
}

// LeadsWithBoards returns every LEAD together with their board memberships.
func (s *Store) LeadsWithBoards(ctx context.Context) ([]LeadAssignments, error) {
	leads, err := s.ListUsers(ctx, RoleLead, "", "")
	if err != nil {
		return nil, err
	}
	out := make([]LeadAssignments, 0, len(leads))
	for _, u := range leads {
		boards, err := s.boardRefsFor(ctx, u.ID)
		if err != nil {
			return nil, err
		}
		out = append(out, LeadAssignments{ID: u.ID, Email: u.Email, FullName: u.FullName, Boards: boards})
	}
	return out, nil
}

func (s *Store) LeadAssignmentsFor(ctx context.Context, leadID string) (LeadAssignments, error) {
	u, err := s.UserByID(ctx, leadID)
	if err != nil {
		return LeadAssignments{}, err
	}
	boards, err := s.boardRefsFor(ctx, u.ID)
	if err != nil {
		return LeadAssignments{}, err
	}
	return LeadAssignments{ID: u.ID, Email: u.Email, FullName: u.FullName, Boards: boards}, nil
}

// BoardsMinimal lists every board as a bare ref, for the admin picker.
func (s *Store) BoardsMinimal(ctx context.Context) ([]BoardRef, error) {
	rows, err := s.db.QueryContext(ctx, `select id, title from boards order by title, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	refs := []BoardRef{}
	for rows.Next() {
		var ref BoardRef
		if err := rows.Scan(&ref.ID, &ref.Title); err != nil {
			return nil, err
		}
		refs = append(refs, ref)
	}
	return refs, rows.Err()
}

func membershipsInTx(ctx context.Context, tx *sql.Tx, userID string) ([]BoardMember, error) {
	rows, err := tx.QueryContext(ctx,
		`select board_id, role from board_members where user_id=$1 order by board_id`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var ms []BoardMember
	for rows.Next() {
		m := BoardMember{UserID: userID}
		if err := rows.Scan(&m.BoardID, &m.Role); err != nil {
			return nil, err
		}
		ms = append(ms, m)
	}
	return ms, rows.Err()
}

func deleteBoardMember(ctx context.Context, tx *sql.Tx, boardID, userID string) error {
	_, err := tx.ExecContext(ctx,
		`delete from board_members where board_id=$1 and user_id=$2`, boardID, userID)
	return err
}

func setBoardMemberRole(ctx context.Context, tx *sql.Tx, boardID, userID string, role BoardRole, canManage bool) error {
	_, err := tx.ExecContext(ctx,
		`update board_members set role=$3, can_manage_cards=$4 where board_id=$1 and user_id=$2`,
		boardID, userID, role, canManage)
	return err
}
