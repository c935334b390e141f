package main

import (
	"context"
	"io"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService(t *testing.T) (*Service, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	log := logrus.New()
	log.SetOutput(io.Discard)
	return NewService(NewStore(db), log), mock
}

func q(s string) string { return regexp.QuoteMeta(s) }

// expectCardFacts sets up the fact-loading queries for one card on one
// board with no assignees and no extra members.
func expectCardFacts(mock sqlmock.Sqlmock, cardID, listID, boardID, ownerID string, pos int64) {
	mock.ExpectQuery(q(`select c.id, c.list_id, l.board_id, c.position, c.created_by`)).
		WithArgs(cardID).
		WillReturnRows(sqlmock.NewRows([]string{"id", "list_id", "board_id", "position", "created_by"}).
			AddRow(cardID, listID, boardID, pos, ownerID))
	mock.ExpectQuery(q(`select ca.user_id, coalesce(u.manager_id,'')`)).
		WithArgs(cardID).
		WillReturnRows(sqlmock.NewRows([]string{"user_id", "manager_id"}))
	mock.ExpectQuery(q(`select owner_id from boards where id=$1`)).
		WithArgs(boardID).
		WillReturnRows(sqlmock.NewRows([]string{"owner_id"}).AddRow(ownerID))
	mock.ExpectQuery(q(`select user_id, role, can_manage_cards from board_members where board_id=$1`)).
		WithArgs(boardID).
		WillReturnRows(sqlmock.NewRows([]string{"user_id", "role", "can_manage_cards"}).
			AddRow(ownerID, "OWNER", true))
}

func TestUpdateCardRejectsCrossBoardMove(t *testing.T) {
	svc, mock := newTestService(t)
	admin := Actor{ID: "adm", Role: RoleAdmin}
	now := time.Now()

	expectCardFacts(mock, "c1", "l1", "b1", "own", 2)

	mock.ExpectBegin()
	mock.ExpectQuery(q(`select list_id, position from cards where id=$1 for update`)).
		WithArgs("c1").
		WillReturnRows(sqlmock.NewRows([]string{"list_id", "position"}).AddRow("l1", 2))
	mock.ExpectQuery(q(`select id, board_id, title, position, created_at, updated_at from lists where id=$1`)).
		WithArgs("l2").
		WillReturnRows(sqlmock.NewRows([]string{"id", "board_id", "title", "position", "created_at", "updated_at"}).
			AddRow("l2", "other-board", "Done", 1, now, now))
	mock.ExpectRollback()

	dst := "l2"
	_, err := svc.UpdateCard(context.Background(), admin, "c1", updateCardInput{ListID: &dst})
	require.Error(t, err)
	assert.Equal(t, KindValidation, KindOf(err))
	assert.Equal(t, "card cannot be moved to another board", err.Error())
	// no position shifts or row updates may have run
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateBoardMembersPreservesOwnerRow(t *testing.T) {
	svc, mock := newTestService(t)
	admin := Actor{ID: "adm", Role: RoleAdmin}
	now := time.Now()

	mock.ExpectQuery(q(`select owner_id from boards where id=$1`)).
		WithArgs("b1").
		WillReturnRows(sqlmock.NewRows([]string{"owner_id"}).AddRow("own"))
	mock.ExpectQuery(q(`select user_id, role, can_manage_cards from board_members where board_id=$1`)).
		WithArgs("b1").
		WillReturnRows(sqlmock.NewRows([]string{"user_id", "role", "can_manage_cards"}).
			AddRow("own", "OWNER", true))

	mock.ExpectBegin()
	mock.ExpectExec(q(`delete from board_members where board_id=$1 and role <> $2`)).
		WithArgs("b1", BoardRoleOwner).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(q(`insert into board_members(board_id, user_id, role, can_manage_cards) values($1,$2,$3,$4)`)).
		WithArgs("b1", "u2", BoardRoleCollaborator, false).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	// reload of the detail aggregate after commit
	mock.ExpectQuery(q(`select id, title, description, owner_id, created_at, updated_at from boards where id=$1`)).
		WithArgs("b1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "title", "description", "owner_id", "created_at", "updated_at"}).
			AddRow("b1", "Sprint", "", "own", now, now))
	mock.ExpectQuery(q(`select id, email, full_name, role from users where id=$1`)).
		WithArgs("own").
		WillReturnRows(sqlmock.NewRows([]string{"id", "email", "full_name", "role"}).
			AddRow("own", "own@example.com", "Owner", "LEAD"))
	mock.ExpectQuery(q(`select m.user_id, m.role, m.can_manage_cards, u.email, u.full_name, u.role`)).
		WithArgs("b1").
		WillReturnRows(sqlmock.NewRows([]string{"user_id", "role", "can_manage_cards", "email", "full_name", "role"}).
			AddRow("own", "OWNER", true, "own@example.com", "Owner", "LEAD").
			AddRow("u2", "COLLABORATOR", false, "u2@example.com", "U Two", "EMPLOYEE"))
	mock.ExpectQuery(q(`from lists where board_id=$1`)).
		WithArgs("b1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "board_id", "title", "position", "created_at", "updated_at"}))

	mgr := BoardRoleManager
	detail, err := svc.UpdateBoardMembers(context.Background(), admin, "b1", []memberInput{
		{UserID: "own", Role: &mgr}, // owner entries are dropped, never replaced
		{UserID: "u2"},
	})
	require.NoError(t, err)
	require.Len(t, detail.Members, 2)
	assert.Equal(t, BoardRoleOwner, detail.Members[0].Role)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateBoardMembersRejectsSecondOwner(t *testing.T) {
	svc, mock := newTestService(t)
	admin := Actor{ID: "adm", Role: RoleAdmin}

	mock.ExpectQuery(q(`select owner_id from boards where id=$1`)).
		WithArgs("b1").
		WillReturnRows(sqlmock.NewRows([]string{"owner_id"}).AddRow("own"))
	mock.ExpectQuery(q(`select user_id, role, can_manage_cards from board_members where board_id=$1`)).
		WithArgs("b1").
		WillReturnRows(sqlmock.NewRows([]string{"user_id", "role", "can_manage_cards"}).
			AddRow("own", "OWNER", true))

	owner := BoardRoleOwner
	_, err := svc.UpdateBoardMembers(context.Background(), admin, "b1", []memberInput{
		{UserID: "u2", Role: &owner},
	})
	require.Error(t, err)
	assert.Equal(t, KindValidation, KindOf(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestToggleFavoriteTagPromotesToFront(t *testing.T) {
	svc, mock := newTestService(t)
	admin := Actor{ID: "adm", Role: RoleAdmin}
	now := time.Now()

	expectCardFacts(mock, "c1", "l1", "b1", "own", 1)

	mock.ExpectBegin()
	mock.ExpectQuery(q(`select card_id, tag_id, position, is_favorite from card_tags where card_id=$1`)).
		WithArgs("c1").
		WillReturnRows(sqlmock.NewRows([]string{"card_id", "tag_id", "position", "is_favorite"}).
			AddRow("c1", "t1", 1, false).
			AddRow("c1", "t2", 2, false).
			AddRow("c1", "t3", 3, true))
	mock.ExpectExec(q(`update card_tags set is_favorite=false where card_id=$1`)).
		WithArgs("c1").
		WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectExec(q(`update card_tags set is_favorite=$1 where card_id=$2 and tag_id=$3`)).
		WithArgs(true, "c1", "t2").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(q(`update card_tags set position=$1 where card_id=$2 and tag_id=$3`)).
		WithArgs(int64(1), "c1", "t2").
		WillReturnResult(sqlmock.NewResult(0, 1))
	// remaining tags renumbered behind the favorite in their current order
	mock.ExpectExec(q(`update card_tags set position=$1 where card_id=$2 and tag_id=$3`)).
		WithArgs(int64(2), "c1", "t1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(q(`update card_tags set position=$1 where card_id=$2 and tag_id=$3`)).
		WithArgs(int64(3), "c1", "t3").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	// reload
	mock.ExpectQuery(q(`from cards where id=$1`)).
		WithArgs("c1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "list_id", "title", "description", "position", "status", "due_date", "archived", "created_by", "created_at", "updated_at"}).
			AddRow("c1", "l1", "Task", "", 1, "TODO", nil, false, "own", now, now))
	mock.ExpectQuery(q(`select u.id, u.email, u.full_name, u.role`)).
		WithArgs("c1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "email", "full_name", "role"}))
	mock.ExpectQuery(q(`select ct.card_id, ct.tag_id, ct.position, ct.is_favorite, t.id, t.board_id, t.name, t.color`)).
		WithArgs("c1").
		WillReturnRows(sqlmock.NewRows([]string{"card_id", "tag_id", "position", "is_favorite", "id", "board_id", "name", "color"}).
			AddRow("c1", "t2", 1, true, "t2", "b1", "urgent", "red").
			AddRow("c1", "t1", 2, false, "t1", "b1", "bug", "orange").
			AddRow("c1", "t3", 3, false, "t3", "b1", "backend", ""))

	card, err := svc.ToggleFavoriteTag(context.Background(), admin, "c1", "t2", true)
	require.NoError(t, err)
	require.Len(t, card.Tags, 3)
	assert.Equal(t, "t2", card.Tags[0].TagID)
	assert.True(t, card.Tags[0].IsFavorite)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateBoardForbiddenForEmployees(t *testing.T) {
	svc, mock := newTestService(t)
	emp := Actor{ID: "emp", Role: RoleEmployee}

	_, err := svc.CreateBoard(context.Background(), emp, createBoardInput{Title: "Nope"})
	require.Error(t, err)
	assert.Equal(t, KindForbidden, KindOf(err))
	// rejected before any database work
	assert.NoError(t, mock.ExpectationsWereMet())
}

func expectUserByID(mock sqlmock.Sqlmock, id, email, name string, role Role) {
	now := time.Now()
	mock.ExpectQuery(q(`select id, email, full_name, role, manager_id, created_at, updated_at from users where id=$1`)).
		WithArgs(id).
		WillReturnRows(sqlmock.NewRows([]string{"id", "email", "full_name", "role", "manager_id", "created_at", "updated_at"}).
			AddRow(id, email, name, role, nil, now, now))
}

func TestSetLeadBoardsReplacesMemberships(t *testing.T) {
	svc, mock := newTestService(t)
	now := time.Now()

	expectUserByID(mock, "ld", "lead@example.com", "Lead", RoleLead)
	// targets are validated up front; the lead already owns b-owned
	for _, b := range []struct{ id, owner string }{
		{"b-new", "own"}, {"b-owned", "ld"}, {"b-collab", "own"},
	} {
		mock.ExpectQuery(q(`select id, title, description, owner_id, created_at, updated_at from boards where id=$1`)).
			WithArgs(b.id).
			WillReturnRows(sqlmock.NewRows([]string{"id", "title", "description", "owner_id", "created_at", "updated_at"}).
				AddRow(b.id, "Board", "", b.owner, now, now))
	}

	mock.ExpectBegin()
	mock.ExpectQuery(q(`select board_id, role from board_members where user_id=$1 order by board_id`)).
		WithArgs("ld").
		WillReturnRows(sqlmock.NewRows([]string{"board_id", "role"}).
			AddRow("b-collab", "COLLABORATOR").
			AddRow("b-owned", "OWNER").
			AddRow("b-stale", "MANAGER"))
	// kept seat upgraded, stale seat dropped, owner row untouched
	mock.ExpectExec(q(`update board_members set role=$3, can_manage_cards=$4 where board_id=$1 and user_id=$2`)).
		WithArgs("b-collab", "ld", BoardRoleManager, true).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(q(`delete from board_members where board_id=$1 and user_id=$2`)).
		WithArgs("b-stale", "ld").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(q(`insert into board_members(board_id, user_id, role, can_manage_cards) values($1,$2,$3,$4)`)).
		WithArgs("b-new", "ld", BoardRoleManager, true).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	expectUserByID(mock, "ld", "lead@example.com", "Lead", RoleLead)
	mock.ExpectQuery(q(`select b.id, b.title, m.role`)).
		WithArgs("ld").
		WillReturnRows(sqlmock.NewRows([]string{"id", "title", "role"}).
			AddRow("b-collab", "Board", "MANAGER").
			AddRow("b-new", "Board", "MANAGER").
			AddRow("b-owned", "Board", "OWNER"))

	out, err := svc.SetLeadBoards(context.Background(), "ld", []string{"b-new", "b-owned", "b-collab"})
	require.NoError(t, err)
	require.Len(t, out.Boards, 3)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSetLeadBoardsRejectsNonLead(t *testing.T) {
	svc, mock := newTestService(t)

	expectUserByID(mock, "emp", "emp@example.com", "Emp", RoleEmployee)

	_, err := svc.SetLeadBoards(context.Background(), "emp", []string{"b1"})
	require.Error(t, err)
	assert.Equal(t, KindValidation, KindOf(err))
	assert.Equal(t, "user is not a lead", err.Error())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSearchCardsScopedToVisibleBoards(t *testing.T) {
	svc, mock := newTestService(t)
	emp := Actor{ID: "emp", Role: RoleEmployee}

	mock.ExpectQuery(q(`select u.manager_id, m.role from users u left join users m on m.id=u.manager_id where u.id=$1`)).
		WithArgs("emp").
		WillReturnRows(sqlmock.NewRows([]string{"manager_id", "role"}).AddRow("mgr", "ADMIN"))
	// search counts the manager's memberships whatever the manager's role
	mock.ExpectQuery(q(`select b.id from boards b`)).
		WithArgs("emp", "mgr", "mgr").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("b1").AddRow("b2"))
	mock.ExpectQuery(q(`select c.id, c.title, c.list_id, l.title, l.board_id, b.title`)).
		WithArgs("b1", "b2", "plan", 10).
		WillReturnRows(sqlmock.NewRows([]string{"id", "title", "list_id", "list_title", "board_id", "board_title"}).
			AddRow("c7", "Plan sprint", "l1", "Backlog", "b2", "Team board"))

	out, err := svc.SearchCards(context.Background(), emp, "plan", 0)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "c7", out[0].ID)
	assert.Equal(t, "Team board", out[0].BoardTitle)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSearchCardsQueryTooShort(t *testing.T) {
	svc, mock := newTestService(t)
	admin := Actor{ID: "adm", Role: RoleAdmin}

	_, err := svc.SearchCards(context.Background(), admin, "x", 10)
	require.Error(t, err)
	assert.Equal(t, KindValidation, KindOf(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSearchCardsNoVisibleBoards(t *testing.T) {
	svc, mock := newTestService(t)
	admin := Actor{ID: "adm", Role: RoleAdmin}

	mock.ExpectQuery(q(`select id from boards order by updated_at desc`)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	out, err := svc.SearchCards(context.Background(), admin, "plan", 10)
	require.NoError(t, err)
	assert.Empty(t, out)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateListWritesPositionWithoutRenumbering(t *testing.T) {
	svc, mock := newTestService(t)
	admin := Actor{ID: "adm", Role: RoleAdmin}
	now := time.Now()

	mock.ExpectQuery(q(`select id, board_id, title, position, created_at, updated_at from lists where id=$1`)).
		WithArgs("l1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "board_id", "title", "position", "created_at", "updated_at"}).
			AddRow("l1", "b1", "Backlog", 1, now, now))
	mock.ExpectQuery(q(`select owner_id from boards where id=$1`)).
		WithArgs("b1").
		WillReturnRows(sqlmock.NewRows([]string{"owner_id"}).AddRow("own"))
	mock.ExpectQuery(q(`select user_id, role, can_manage_cards from board_members where board_id=$1`)).
		WithArgs("b1").
		WillReturnRows(sqlmock.NewRows([]string{"user_id", "role", "can_manage_cards"}).
			AddRow("own", "OWNER", true))

	// one direct write, no sibling shifts: a position already held by
	// another list is stored as-is
	pos := int64(3)
	mock.ExpectExec(q(`update lists set title=coalesce($1,title), position=coalesce($2,position), updated_at=now() where id=$3`)).
		WithArgs(nil, pos, "l1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	mock.ExpectQuery(q(`select id, board_id, title, position, created_at, updated_at from lists where id=$1`)).
		WithArgs("l1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "board_id", "title", "position", "created_at", "updated_at"}).
			AddRow("l1", "b1", "Backlog", 3, now, now))

	l, err := svc.UpdateList(context.Background(), admin, "l1", nil, &pos)
	require.NoError(t, err)
	assert.Equal(t, int64(3), l.Position)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListBoardsManagerMembershipRequiresLead(t *testing.T) {
	svc, mock := newTestService(t)
	emp := Actor{ID: "emp", Role: RoleEmployee}

	mock.ExpectQuery(q(`select u.manager_id, m.role from users u left join users m on m.id=u.manager_id where u.id=$1`)).
		WithArgs("emp").
		WillReturnRows(sqlmock.NewRows([]string{"manager_id", "role"}).AddRow("mgr", "ADMIN"))
	// manager is not a LEAD: their memberships do not widen the listing,
	// boards they own still count
	mock.ExpectQuery(q(`select b.id from boards b`)).
		WithArgs("emp", "mgr", "emp").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	out, err := svc.ListBoards(context.Background(), emp)
	require.NoError(t, err)
	assert.Empty(t, out)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAttachTagFromAnotherBoard(t *testing.T) {
	svc, mock := newTestService(t)
	admin := Actor{ID: "adm", Role: RoleAdmin}

	expectCardFacts(mock, "c1", "l1", "b1", "own", 1)
	mock.ExpectQuery(q(`select id, board_id, name, color from tags where id=$1`)).
		WithArgs("t9").
		WillReturnRows(sqlmock.NewRows([]string{"id", "board_id", "name", "color"}).
			AddRow("t9", "b2", "foreign", ""))

	_, err := svc.AttachTag(context.Background(), admin, "c1", "t9")
	require.Error(t, err)
	assert.Equal(t, KindValidation, KindOf(err))
	assert.Equal(t, "tag belongs to another board", err.Error())
	assert.NoError(t, mock.ExpectationsWereMet())
}
