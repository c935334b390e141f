package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
)

type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) *Store { return &Store{db: db} }

func (s *Store) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, schema)
	return err
}

func (s *Store) Begin(ctx context.Context) (*sql.Tx, error) {
	return s.db.BeginTx(ctx, nil)
}

// uniqueViolation reports whether err is a Postgres unique constraint
// violation.
func uniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

// --- Facts for the access control engine ---

func (s *Store) BoardFacts(ctx context.Context, boardID string) (BoardFacts, error) {
	f := BoardFacts{ID: boardID}
	err := s.db.QueryRowContext(ctx, `select owner_id from boards where id=$1`, boardID).Scan(&f.OwnerID)
	if errors.Is(err, sql.ErrNoRows) {
		return BoardFacts{}, errNotFound("board not found")
	}
	if err != nil {
		return BoardFacts{}, err
	}
	rows, err := s.db.QueryContext(ctx,
		`select user_id, role, can_manage_cards from board_members where board_id=$1`, boardID)
	if err != nil {
		return BoardFacts{}, err
	}
	defer rows.Close()
	for rows.Next() {
		m := BoardMember{BoardID: boardID}
		if err := rows.Scan(&m.UserID, &m.Role, &m.CanManageCards); err != nil {
			return BoardFacts{}, err
		}
		f.Members = append(f.Members, m)
	}
	return f, rows.Err()
}

// CardFacts loads a card together with the facts of its board: creator,
// assignees and their managers, membership rows.
func (s *Store) CardFacts(ctx context.Context, cardID string) (CardFacts, BoardFacts, error) {
	var cf CardFacts
	var createdBy sql.NullString
	err := s.db.QueryRowContext(ctx,
		`select c.id, c.list_id, l.board_id, c.position, c.created_by
		 from cards c join lists l on l.id=c.list_id
		 where c.id=$1`, cardID).
		Scan(&cf.ID, &cf.ListID, &cf.BoardID, &cf.Position, &createdBy)
	if errors.Is(err, sql.ErrNoRows) {
		return CardFacts{}, BoardFacts{}, errNotFound("card not found")
	}
	if err != nil {
		return CardFacts{}, BoardFacts{}, err
	}
	cf.CreatedByID = createdBy.String

	rows, err := s.db.QueryContext(ctx,
		`select ca.user_id, coalesce(u.manager_id,'')
		 from card_assignments ca join users u on u.id=ca.user_id
		 where ca.card_id=$1`, cardID)
	if err != nil {
		return CardFacts{}, BoardFacts{}, err
	}
	defer rows.Close()
	for rows.Next() {
		var a AssigneeFact
		if err := rows.Scan(&a.UserID, &a.ManagerID); err != nil {
			return CardFacts{}, BoardFacts{}, err
		}
		cf.Assignees = append(cf.Assignees, a)
	}
	if err := rows.Err(); err != nil {
		return CardFacts{}, BoardFacts{}, err
	}

	bf, err := s.BoardFacts(ctx, cf.BoardID)
	if err != nil {
		return CardFacts{}, BoardFacts{}, err
	}
	return cf, bf, nil
}

// --- Boards ---

func (s *Store) BoardByID(ctx context.Context, id string) (Board, error) {
	var b Board
	err := s.db.QueryRowContext(ctx,
		`select id, title, description, owner_id, created_at, updated_at from boards where id=$1`, id).
		Scan(&b.ID, &b.Title, &b.Description, &b.OwnerID, &b.CreatedAt, &b.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Board{}, errNotFound("board not found")
	}
	return b, err
}

// VisibleBoardIDs resolves which boards the actor may see: admins see
// everything, everyone sees boards they own or joined, and an employee
// additionally sees boards their manager owns. Boards the manager merely
// joined count only when includeManagerMemberships is set; board listing
// requires the manager to be a lead for that path, search does not.
func (s *Store) VisibleBoardIDs(ctx context.Context, actor Actor, managerID string, includeManagerMemberships bool) ([]string, error) {
	var rows *sql.Rows
	var err error
	if actor.Role == RoleAdmin {
		rows, err = s.db.QueryContext(ctx, `select id from boards order by updated_at desc`)
	} else {
		ownerOther := actor.ID
		memberOther := actor.ID
		if actor.Role == RoleEmployee && managerID != "" {
			ownerOther = managerID
			if includeManagerMemberships {
				memberOther = managerID
			}
		}
		rows, err = s.db.QueryContext(ctx,
			`select b.id from boards b
			 where b.owner_id in ($1,$2)
			    or exists (select 1 from board_members m where m.board_id=b.id and m.user_id in ($1,$3))
			 order by b.updated_at desc`, actor.ID, ownerOther, memberOther)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

func (s *Store) boardMembers(ctx context.Context, boardID string) ([]BoardMember, error) {
	rows, err := s.db.QueryContext(ctx,
		`select m.user_id, m.role, m.can_manage_cards, u.email, u.full_name, u.role
		 from board_members m join users u on u.id=m.user_id
		 where m.board_id=$1 order by u.full_name, u.id`, boardID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []BoardMember
	for rows.Next() {
		m := BoardMember{BoardID: boardID, User: &UserRef{}}
		if err := rows.Scan(&m.UserID, &m.Role, &m.CanManageCards, &m.User.Email, &m.User.FullName, &m.User.Role); err != nil {
			return nil, err
		}
		m.User.ID = m.UserID
		out = append(out, m)
	}
	return out, rows.Err()
}

func (s *Store) userRef(ctx context.Context, id string) (UserRef, error) {
	var u UserRef
	err := s.db.QueryRowContext(ctx,
		`select id, email, full_name, role from users where id=$1`, id).
		Scan(&u.ID, &u.Email, &u.FullName, &u.Role)
	if errors.Is(err, sql.ErrNoRows) {
		return UserRef{}, errNotFound("user not found")
	}
	return u, err
}

func (s *Store) BoardSummary(ctx context.Context, boardID string) (BoardSummary, error) {
	b, err := s.BoardByID(ctx, boardID)
	if err != nil {
		return BoardSummary{}, err
	}
	out := BoardSummary{Board: b}
	if out.Owner, err = s.userRef(ctx, b.OwnerID); err != nil {
		return BoardSummary{}, err
	}
	if out.Members, err = s.boardMembers(ctx, boardID); err != nil {
		return BoardSummary{}, err
	}
	if out.Lists, err = s.ListsByBoard(ctx, boardID); err != nil {
		return BoardSummary{}, err
	}
	return out, nil
}

// BoardDetail loads the full aggregate: lists in order, each with its
// cards in order, assignees and tags included.
func (s *Store) BoardDetail(ctx context.Context, boardID string) (BoardDetail, error) {
	b, err := s.BoardByID(ctx, boardID)
	if err != nil {
		return BoardDetail{}, err
	}
	out := BoardDetail{Board: b}
	if out.Owner, err = s.userRef(ctx, b.OwnerID); err != nil {
		return BoardDetail{}, err
	}
	if out.Members, err = s.boardMembers(ctx, boardID); err != nil {
		return BoardDetail{}, err
	}
	lists, err := s.ListsByBoard(ctx, boardID)
	if err != nil {
		return BoardDetail{}, err
	}
	for _, l := range lists {
		cards, err := s.CardsByList(ctx, l.ID)
		if err != nil {
			return BoardDetail{}, err
		}
		out.Lists = append(out.Lists, ListDetail{List: l, Cards: cards})
	}
	return out, nil
}

func insertBoard(ctx context.Context, tx *sql.Tx, b Board) error {
	_, err := tx.ExecContext(ctx,
		`insert into boards(id, title, description, owner_id) values($1,$2,$3,$4)`,
		b.ID, b.Title, b.Description, b.OwnerID)
	return err
}

func insertBoardMember(ctx context.Context, tx *sql.Tx, m BoardMember) error {
	_, err := tx.ExecContext(ctx,
		`insert into board_members(board_id, user_id, role, can_manage_cards) values($1,$2,$3,$4)`,
		m.BoardID, m.UserID, m.Role, m.CanManageCards)
	return err
}

// deleteNonOwnerMembers clears the replaceable part of the membership set;
// the OWNER row is never touched.
func deleteNonOwnerMembers(ctx context.Context, tx *sql.Tx, boardID string) error {
	_, err := tx.ExecContext(ctx,
		`delete from board_members where board_id=$1 and role <> $2`, boardID, BoardRoleOwner)
	return err
}

func (s *Store) UpdateBoard(ctx context.Context, id string, title, description *string) error {
	if title == nil && description == nil {
		return nil
	}
	res, err := s.db.ExecContext(ctx,
		`update boards set title=coalesce($1,title), description=coalesce($2,description), updated_at=now() where id=$3`,
		title, description, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return errNotFound("board not found")
	}
	return nil
}

func (s *Store) DeleteBoard(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `delete from boards where id=$1`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return errNotFound("board not found")
	}
	return nil
}

// --- Lists ---

func (s *Store) ListsByBoard(ctx context.Context, boardID string) ([]List, error) {
	rows, err := s.db.QueryContext(ctx,
		`select id, board_id, title, position, created_at, updated_at
		 from lists where board_id=$1 order by position, id`, boardID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []List
	for rows.Next() {
		var l List
		if err := rows.Scan(&l.ID, &l.BoardID, &l.Title, &l.Position, &l.CreatedAt, &l.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

func (s *Store) ListByID(ctx context.Context, id string) (List, error) {
	var l List
	err := s.db.QueryRowContext(ctx,
		`select id, board_id, title, position, created_at, updated_at from lists where id=$1`, id).
		Scan(&l.ID, &l.BoardID, &l.Title, &l.Position, &l.CreatedAt, &l.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return List{}, errNotFound("list not found")
	}
	return l, err
}

func insertList(ctx context.Context, tx *sql.Tx, l List) error {
	_, err := tx.ExecContext(ctx,
		`insert into lists(id, board_id, title, position) values($1,$2,$3,$4)`,
		l.ID, l.BoardID, l.Title, l.Position)
	return err
}

func (s *Store) UpdateList(ctx context.Context, id string, title *string, position *int64) error {
	if title == nil && position == nil {
		return nil
	}
	res, err := s.db.ExecContext(ctx,
		`update lists set title=coalesce($1,title), position=coalesce($2,position), updated_at=now() where id=$3`,
		title, position, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return errNotFound("list not found")
	}
	return nil
}

func (s *Store) DeleteList(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `delete from lists where id=$1`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return errNotFound("list not found")
	}
	return nil
}

// listInTx resolves a list inside the mutation transaction, for
// destination checks on cross-list moves.
func listInTx(ctx context.Context, tx *sql.Tx, id string) (List, error) {
	var l List
	err := tx.QueryRowContext(ctx,
		`select id, board_id, title, position, created_at, updated_at from lists where id=$1`, id).
		Scan(&l.ID, &l.BoardID, &l.Title, &l.Position, &l.CreatedAt, &l.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return List{}, errNotFound("target list not found")
	}
	return l, err
}

// --- Cards ---

func (s *Store) CardsByList(ctx context.Context, listID string) ([]Card, error) {
	rows, err := s.db.QueryContext(ctx,
		`select id, list_id, title, description, position, status, due_date, archived, coalesce(created_by,''), created_at, updated_at
		 from cards where list_id=$1 order by position, id`, listID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Card
	for rows.Next() {
		var c Card
		if err := rows.Scan(&c.ID, &c.ListID, &c.Title, &c.Description, &c.Position, &c.Status,
			&c.DueDate, &c.Archived, &c.CreatedByID, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i := range out {
		if err := s.fillCardRelations(ctx, &out[i]); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (s *Store) CardByID(ctx context.Context, id string) (Card, error) {
	var c Card
	err := s.db.QueryRowContext(ctx,
		`select id, list_id, title, description, position, status, due_date, archived, coalesce(created_by,''), created_at, updated_at
		 from cards where id=$1`, id).
		Scan(&c.ID, &c.ListID, &c.Title, &c.Description, &c.Position, &c.Status,
			&c.DueDate, &c.Archived, &c.CreatedByID, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Card{}, errNotFound("card not found")
	}
	if err != nil {
		return Card{}, err
	}
	if err := s.fillCardRelations(ctx, &c); err != nil {
		return Card{}, err
	}
	return c, nil
}

func (s *Store) fillCardRelations(ctx context.Context, c *Card) error {
	rows, err := s.db.QueryContext(ctx,
		`select u.id, u.email, u.full_name, u.role
		 from card_assignments ca join users u on u.id=ca.user_id
		 where ca.card_id=$1 order by u.full_name, u.id`, c.ID)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var u UserRef
		if err := rows.Scan(&u.ID, &u.Email, &u.FullName, &u.Role); err != nil {
			return err
		}
		c.Assignees = append(c.Assignees, u)
	}
	if err := rows.Err(); err != nil {
		return err
	}

	tagRows, err := s.db.QueryContext(ctx,
		`select ct.card_id, ct.tag_id, ct.position, ct.is_favorite, t.id, t.board_id, t.name, t.color
		 from card_tags ct join tags t on t.id=ct.tag_id
		 where ct.card_id=$1 order by ct.position, ct.tag_id`, c.ID)
	if err != nil {
		return err
	}
	defer tagRows.Close()
	for tagRows.Next() {
		ct := CardTag{Tag: &Tag{}}
		if err := tagRows.Scan(&ct.CardID, &ct.TagID, &ct.Position, &ct.IsFavorite,
			&ct.Tag.ID, &ct.Tag.BoardID, &ct.Tag.Name, &ct.Tag.Color); err != nil {
			return err
		}
		c.Tags = append(c.Tags, ct)
	}
	return tagRows.Err()
}

func insertCard(ctx context.Context, tx *sql.Tx, c Card) error {
	var createdBy any
	if c.CreatedByID != "" {
		createdBy = c.CreatedByID
	}
	_, err := tx.ExecContext(ctx,
		`insert into cards(id, list_id, title, description, position, status, due_date, created_by)
		 values($1,$2,$3,$4,$5,$6,$7,$8)`,
		c.ID, c.ListID, c.Title, c.Description, c.Position, c.Status, c.DueDate, createdBy)
	return err
}

// cardPositionInTx re-reads the moved card's placement inside the mutation
// transaction and locks the row; a concurrent move of the same card waits
// here.
func cardPositionInTx(ctx context.Context, tx *sql.Tx, id string) (listID string, position int64, err error) {
	err = tx.QueryRowContext(ctx,
		`select list_id, position from cards where id=$1 for update`, id).
		Scan(&listID, &position)
	if errors.Is(err, sql.ErrNoRows) {
		err = errNotFound("card not found")
	}
	return
}

type cardUpdate struct {
	Title       *string
	Description *string
	Status      *CardStatus
	Archived    *bool
	DueDate     *time.Time
	DueDateSet  bool
	ListID      string
	Position    *int64
}

func updateCardRow(ctx context.Context, tx *sql.Tx, id string, u cardUpdate) error {
	_, err := tx.ExecContext(ctx,
		`update cards set
			title=coalesce($1,title),
			description=coalesce($2,description),
			status=coalesce($3,status),
			archived=coalesce($4,archived),
			due_date=case when $5 then $6 else due_date end,
			list_id=coalesce($7,list_id),
			position=coalesce($8,position),
			updated_at=now()
		 where id=$9`,
		u.Title, u.Description, u.Status, u.Archived, u.DueDateSet, u.DueDate, nullable(u.ListID), u.Position, id)
	return err
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func (s *Store) DeleteCard(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `delete from cards where id=$1`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return errNotFound("card not found")
	}
	return nil
}

// SearchCards matches cards by title or description, newest activity
// first, restricted to the given boards. Visibility is the caller's
// problem; boardIDs must already be filtered.
func (s *Store) SearchCards(ctx context.Context, boardIDs []string, query string, limit int) ([]CardSearchResult, error) {
	if len(boardIDs) == 0 {
		return nil, nil
	}
	args := make([]any, 0, len(boardIDs)+2)
	ph := make([]string, len(boardIDs))
	for i, id := range boardIDs {
		args = append(args, id)
		ph[i] = fmt.Sprintf("$%d", i+1)
	}
	args = append(args, query, limit)
	q := fmt.Sprintf(
		`select c.id, c.title, c.list_id, l.title, l.board_id, b.title
		 from cards c
		 join lists l on l.id=c.list_id
		 join boards b on b.id=l.board_id
		 where l.board_id in (%s)
		   and (c.title ilike '%%'||$%d||'%%' or c.description ilike '%%'||$%d||'%%')
		 order by c.updated_at desc
		 limit $%d`,
		strings.Join(ph, ","), len(boardIDs)+1, len(boardIDs)+1, len(boardIDs)+2)
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []CardSearchResult
	for rows.Next() {
		var r CardSearchResult
		if err := rows.Scan(&r.ID, &r.Title, &r.ListID, &r.ListTitle, &r.BoardID, &r.BoardTitle); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func insertAssignments(ctx context.Context, tx *sql.Tx, cardID string, userIDs []string) error {
	for _, uid := range userIDs {
		if _, err := tx.ExecContext(ctx,
			`insert into card_assignments(card_id, user_id) values($1,$2)`, cardID, uid); err != nil {
			return err
		}
	}
	return nil
}

func deleteAssignments(ctx context.Context, tx *sql.Tx, cardID string, userIDs []string) error {
	for _, uid := range userIDs {
		if _, err := tx.ExecContext(ctx,
			`delete from card_assignments where card_id=$1 and user_id=$2`, cardID, uid); err != nil {
			return err
		}
	}
	return nil
}

// --- Tags ---

func (s *Store) TagsByBoard(ctx context.Context, boardID string) ([]Tag, error) {
	rows, err := s.db.QueryContext(ctx,
		`select id, board_id, name, color from tags where board_id=$1 order by name`, boardID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Tag
	for rows.Next() {
		var t Tag
		if err := rows.Scan(&t.ID, &t.BoardID, &t.Name, &t.Color); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (s *Store) TagByID(ctx context.Context, id string) (Tag, error) {
	var t Tag
	err := s.db.QueryRowContext(ctx,
		`select id, board_id, name, color from tags where id=$1`, id).
		Scan(&t.ID, &t.BoardID, &t.Name, &t.Color)
	if errors.Is(err, sql.ErrNoRows) {
		return Tag{}, errNotFound("tag not found")
	}
	return t, err
}

func (s *Store) CreateTag(ctx context.Context, t Tag) error {
	_, err := s.db.ExecContext(ctx,
		`insert into tags(id, board_id, name, color) values($1,$2,$3,$4)`,
		t.ID, t.BoardID, t.Name, t.Color)
	if uniqueViolation(err) {
		return errConflict("a tag with this name already exists on the board")
	}
	return err
}

// cardTagsInTx reads a card's tag attachments in position order inside tx.
func cardTagsInTx(ctx context.Context, tx *sql.Tx, cardID string) ([]CardTag, error) {
	rows, err := tx.QueryContext(ctx,
		`select card_id, tag_id, position, is_favorite from card_tags where card_id=$1 order by position, tag_id`, cardID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []CardTag
	for rows.Next() {
		var ct CardTag
		if err := rows.Scan(&ct.CardID, &ct.TagID, &ct.Position, &ct.IsFavorite); err != nil {
			return nil, err
		}
		out = append(out, ct)
	}
	return out, rows.Err()
}

func insertCardTag(ctx context.Context, tx *sql.Tx, ct CardTag) error {
	_, err := tx.ExecContext(ctx,
		`insert into card_tags(card_id, tag_id, position, is_favorite) values($1,$2,$3,$4)`,
		ct.CardID, ct.TagID, ct.Position, ct.IsFavorite)
	if uniqueViolation(err) {
		return errConflict("tag already attached to this card")
	}
	return err
}

func deleteCardTag(ctx context.Context, tx *sql.Tx, cardID, tagID string) error {
	res, err := tx.ExecContext(ctx,
		`delete from card_tags where card_id=$1 and tag_id=$2`, cardID, tagID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return errNotFound("tag is not attached to this card")
	}
	return nil
}

func setCardTagPosition(ctx context.Context, tx *sql.Tx, cardID, tagID string, position int64) error {
	_, err := tx.ExecContext(ctx,
		`update card_tags set position=$1 where card_id=$2 and tag_id=$3`, position, cardID, tagID)
	return err
}

func setCardTagFavorite(ctx context.Context, tx *sql.Tx, cardID, tagID string, favorite bool) error {
	res, err := tx.ExecContext(ctx,
		`update card_tags set is_favorite=$1 where card_id=$2 and tag_id=$3`, favorite, cardID, tagID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return errNotFound("tag is not attached to this card")
	}
	return nil
}

func clearCardTagFavorites(ctx context.Context, tx *sql.Tx, cardID string) error {
	_, err := tx.ExecContext(ctx,
		`update card_tags set is_favorite=false where card_id=$1`, cardID)
	return err
}

const schema = `
create table if not exists users(
    id text primary key,
    email text unique not null,
    password_hash text not null default '',
    full_name text not null default '',
    role text not null default 'EMPLOYEE',
    manager_id text references users(id) on delete set null,
    created_at timestamptz not null default now(),
    updated_at timestamptz not null default now()
);
create index if not exists users_manager_idx on users(manager_id);

create table if not exists sessions(
    id bigserial primary key,
    user_id text not null references users(id) on delete cascade,
    token text unique not null,
    created_at timestamptz not null default now(),
    expires_at timestamptz not null
);

create table if not exists boards(
    id text primary key,
    title text not null check (length(title) > 0),
    description text not null default '',
    owner_id text not null references users(id),
    created_at timestamptz not null default now(),
    updated_at timestamptz not null default now()
);

create table if not exists board_members(
    board_id text not null references boards(id) on delete cascade,
    user_id text not null references users(id) on delete cascade,
    role text not null default 'COLLABORATOR',
    can_manage_cards boolean not null default false,
    primary key(board_id, user_id)
);

create table if not exists lists(
    id text primary key,
    board_id text not null references boards(id) on delete cascade,
    title text not null check (length(title) > 0),
    position bigint not null default 0,
    created_at timestamptz not null default now(),
    updated_at timestamptz not null default now()
);
create index if not exists lists_board_idx on lists(board_id);

create table if not exists cards(
    id text primary key,
    list_id text not null references lists(id) on delete cascade,
    title text not null check (length(title) > 0),
    description text not null default '',
    position bigint not null default 0,
    status text not null default 'TODO',
    due_date timestamptz,
    archived boolean not null default false,
    created_by text references users(id) on delete set null,
    created_at timestamptz not null default now(),
    updated_at timestamptz not null default now()
);
create index if not exists cards_list_idx on cards(list_id);

create table if not exists card_assignments(
    card_id text not null references cards(id) on delete cascade,
    user_id text not null references users(id) on delete cascade,
    primary key(card_id, user_id)
);

create table if not exists tags(
    id text primary key,
    board_id text not null references boards(id) on delete cascade,
    name text not null,
    color text not null default '',
    unique(board_id, name)
);

create table if not exists card_tags(
    card_id text not null references cards(id) on delete cascade,
    tag_id text not null references tags(id) on delete cascade,
    position bigint not null default 0,
    is_favorite boolean not null default false,
    primary key(card_id, tag_id)
);
`
