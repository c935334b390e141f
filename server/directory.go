package main

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/base64"
	"errors"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// Directory: users and their reporting lines. Authorization rules only
// ever ask two questions here — who reports to this user, and who does
// this user report to — so those reads are kept cheap and run outside the
// mutation transactions.

func (s *Store) SubordinateIDs(ctx context.Context, managerID string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `select id from users where manager_id=$1`, managerID)
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

// ManagerOf returns the user's manager id and the manager's global role,
// both "" when the user has no manager.
func (s *Store) ManagerOf(ctx context.Context, userID string) (string, Role, error) {
	var managerID, managerRole sql.NullString
	err := s.db.QueryRowContext(ctx,
		`select u.manager_id, m.role from users u left join users m on m.id=u.manager_id where u.id=$1`, userID).
		Scan(&managerID, &managerRole)
	if errors.Is(err, sql.ErrNoRows) {
		return "", "", errNotFound("user not found")
	}
	return managerID.String, Role(managerRole.String), err
}

// DirectoryFactsFor collects the actor's reporting-line facts for the
// access control engine. Subordinates are only loaded for leads.
func (s *Store) DirectoryFactsFor(ctx context.Context, actor Actor) (*DirectoryFacts, error) {
	f := &DirectoryFacts{}
	var err error
	if f.ManagerID, f.ManagerRole, err = s.ManagerOf(ctx, actor.ID); err != nil {
		return nil, err
	}
	if actor.Role == RoleLead {
		if f.SubordinateIDs, err = s.SubordinateIDs(ctx, actor.ID); err != nil {
			return nil, err
		}
	}
	return f, nil
}

func scanUser(row *sql.Row) (User, error) {
	var u User
	var managerID sql.NullString
	err := row.Scan(&u.ID, &u.Email, &u.FullName, &u.Role, &managerID, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return User{}, errNotFound("user not found")
	}
	u.ManagerID = managerID.String
	return u, err
}

func (s *Store) CountUsers(ctx context.Context) (int64, error) {
	var n int64
	err := s.db.QueryRowContext(ctx, `select count(*) from users`).Scan(&n)
	return n, err
}

func (s *Store) UserByID(ctx context.Context, id string) (User, error) {
	return scanUser(s.db.QueryRowContext(ctx,
		`select id, email, full_name, role, manager_id, created_at, updated_at from users where id=$1`, id))
}

func (s *Store) ListUsers(ctx context.Context, role Role, managerID, search string) ([]User, error) {
	rows, err := s.db.QueryContext(ctx,
		`select id, email, full_name, role, manager_id, created_at, updated_at from users
		 where ($1 = '' or role = $1)
		   and ($2 = '' or manager_id = $2)
		   and ($3 = '' or email ilike '%'||$3||'%' or full_name ilike '%'||$3||'%')
		 order by full_name, id`, string(role), managerID, search)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []User
	for rows.Next() {
		var u User
		var mgr sql.NullString
		if err := rows.Scan(&u.ID, &u.Email, &u.FullName, &u.Role, &mgr, &u.CreatedAt, &u.UpdatedAt); err != nil {
			return nil, err
		}
		u.ManagerID = mgr.String
		out = append(out, u)
	}
	return out, rows.Err()
}

// checkManager validates a manager candidate: must exist and hold a role
// that can carry reports.
func (s *Store) checkManager(ctx context.Context, managerID string) error {
	var role Role
	err := s.db.QueryRowContext(ctx, `select role from users where id=$1`, managerID).Scan(&role)
	if errors.Is(err, sql.ErrNoRows) {
		return errValidation("manager not found")
	}
	if err != nil {
		return err
	}
	if role != RoleAdmin && role != RoleLead {
		return errValidation("only an admin or a lead can be a manager")
	}
	return nil
}

func (s *Store) CreateUser(ctx context.Context, email, password, fullName string, role Role, managerID string) (User, error) {
	if managerID != "" {
		if err := s.checkManager(ctx, managerID); err != nil {
			return User{}, err
		}
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return User{}, err
	}
	u := User{ID: uuid.NewString()}
	var mgr sql.NullString
	err = s.db.QueryRowContext(ctx,
		`insert into users(id, email, password_hash, full_name, role, manager_id)
		 values($1,$2,$3,$4,$5,$6)
		 returning id, email, full_name, role, manager_id, created_at, updated_at`,
		u.ID, email, string(hash), fullName, role, nullable(managerID)).
		Scan(&u.ID, &u.Email, &u.FullName, &u.Role, &mgr, &u.CreatedAt, &u.UpdatedAt)
	if uniqueViolation(err) {
		return User{}, errConflict("a user with this email already exists")
	}
	if err != nil {
		return User{}, err
	}
	u.ManagerID = mgr.String
	return u, nil
}

type userUpdate struct {
	FullName  *string
	Password  *string
	Role      *Role
	ManagerID *string // nil: keep; empty string: clear
}

func (s *Store) UpdateUser(ctx context.Context, id string, upd userUpdate) (User, error) {
	current, err := s.UserByID(ctx, id)
	if err != nil {
		return User{}, err
	}

	managerID := current.ManagerID
	if upd.ManagerID != nil {
		managerID = *upd.ManagerID
		if managerID != "" {
			if err := s.checkManager(ctx, managerID); err != nil {
				return User{}, err
			}
		}
	}
	// Promoting a user to LEAD severs their own reporting line.
	if upd.Role != nil && *upd.Role == RoleLead {
		managerID = ""
	}

	var hash *string
	if upd.Password != nil {
		h, err := bcrypt.GenerateFromPassword([]byte(*upd.Password), bcrypt.DefaultCost)
		if err != nil {
			return User{}, err
		}
		hs := string(h)
		hash = &hs
	}

	return scanUser(s.db.QueryRowContext(ctx,
		`update users set
			full_name=coalesce($1,full_name),
			password_hash=coalesce($2,password_hash),
			role=coalesce($3,role),
			manager_id=$4,
			updated_at=now()
		 where id=$5
		 returning id, email, full_name, role, manager_id, created_at, updated_at`,
		upd.FullName, hash, upd.Role, nullable(managerID), id))
}

// DeleteUser detaches subordinates and removes dependent rows before the
// user row itself.
func (s *Store) DeleteUser(ctx context.Context, id string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `update users set manager_id=null where manager_id=$1`, id); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `delete from board_members where user_id=$1`, id); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `delete from card_assignments where user_id=$1`, id); err != nil {
		return err
	}
	res, err := tx.ExecContext(ctx, `delete from users where id=$1`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return errNotFound("user not found")
	}
	return tx.Commit()
}

// --- Sessions (identity context) ---

func (s *Store) Authenticate(ctx context.Context, email, password string) (User, error) {
	var u User
	var managerID sql.NullString
	var hash string
	err := s.db.QueryRowContext(ctx,
		`select id, email, full_name, role, manager_id, created_at, updated_at, password_hash
		 from users where lower(email)=lower($1)`, email).
		Scan(&u.ID, &u.Email, &u.FullName, &u.Role, &managerID, &u.CreatedAt, &u.UpdatedAt, &hash)
	if errors.Is(err, sql.ErrNoRows) {
		return User{}, errNotFound("user not found")
	}
	if err != nil {
		return User{}, err
	}
	if bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) != nil {
		return User{}, errNotFound("user not found")
	}
	u.ManagerID = managerID.String
	return u, nil
}

func (s *Store) CreateSession(ctx context.Context, userID string, ttl time.Duration) (string, time.Time, error) {
	// 32 random bytes, base64 URL encoded
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", time.Time{}, err
	}
	token := base64.RawURLEncoding.EncodeToString(b)
	expires := time.Now().Add(ttl)
	_, err := s.db.ExecContext(ctx,
		`insert into sessions(user_id, token, expires_at) values($1,$2,$3)`, userID, token, expires)
	if err != nil {
		return "", time.Time{}, err
	}
	return token, expires, nil
}

func (s *Store) UserBySession(ctx context.Context, token string) (User, error) {
	return scanUser(s.db.QueryRowContext(ctx,
		`select u.id, u.email, u.full_name, u.role, u.manager_id, u.created_at, u.updated_at
		 from sessions s join users u on u.id=s.user_id
		 where s.token=$1 and s.expires_at > now()`, token))
}

func (s *Store) DeleteSession(ctx context.Context, token string) error {
	_, err := s.db.ExecContext(ctx, `delete from sessions where token=$1`, token)
	return err
}
