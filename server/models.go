package main

import "time"

// Platform-wide authority level, independent of any board.
type Role string

const (
	RoleAdmin    Role = "ADMIN"
	RoleLead     Role = "LEAD"
	RoleEmployee Role = "EMPLOYEE"
)

func (r Role) valid() bool {
	switch r {
	case RoleAdmin, RoleLead, RoleEmployee:
		return true
	}
	return false
}

// Role of a user within one specific board.
type BoardRole string

const (
	BoardRoleOwner        BoardRole = "OWNER"
	BoardRoleManager      BoardRole = "MANAGER"
	BoardRoleCollaborator BoardRole = "COLLABORATOR"
	BoardRoleViewer       BoardRole = "VIEWER"
)

func (r BoardRole) valid() bool {
	switch r {
	case BoardRoleOwner, BoardRoleManager, BoardRoleCollaborator, BoardRoleViewer:
		return true
	}
	return false
}

type CardStatus string

const (
	StatusTodo       CardStatus = "TODO"
	StatusInProgress CardStatus = "IN_PROGRESS"
	StatusReview     CardStatus = "REVIEW"
	StatusDone       CardStatus = "DONE"
)

// Status transitions are intentionally unenforced: any authorized actor
// may set any status directly.
func (s CardStatus) valid() bool {
	switch s {
	case StatusTodo, StatusInProgress, StatusReview, StatusDone:
		return true
	}
	return false
}

type User struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	FullName  string    `json:"full_name"`
	Role      Role      `json:"role"`
	ManagerID string    `json:"manager_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// UserRef is the short form embedded in aggregates.
type UserRef struct {
	ID       string `json:"id"`
	Email    string `json:"email"`
	FullName string `json:"full_name"`
	Role     Role   `json:"role"`
}

type Board struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	OwnerID     string    `json:"owner_id"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type BoardMember struct {
	BoardID        string    `json:"board_id"`
	UserID         string    `json:"user_id"`
	Role           BoardRole `json:"role"`
	CanManageCards bool      `json:"can_manage_cards"`
	User           *UserRef  `json:"user,omitempty"`
}

type List struct {
	ID        string    `json:"id"`
	BoardID   string    `json:"board_id"`
	Title     string    `json:"title"`
	Position  int64     `json:"position"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type Card struct {
	ID          string     `json:"id"`
	ListID      string     `json:"list_id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Position    int64      `json:"position"`
	Status      CardStatus `json:"status"`
	DueDate     *time.Time `json:"due_date,omitempty"`
	Archived    bool       `json:"archived"`
	CreatedByID string     `json:"created_by_id,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	Assignees   []UserRef  `json:"assignees,omitempty"`
	Tags        []CardTag  `json:"tags,omitempty"`
}

type Tag struct {
	ID      string `json:"id"`
	BoardID string `json:"board_id"`
	Name    string `json:"name"`
	Color   string `json:"color,omitempty"`
}

// CardTag is a tag attachment: an independent ordered collection per card.
// At most one attachment per card is favorite; the favorite sits at position 1.
type CardTag struct {
	CardID     string `json:"card_id"`
	TagID      string `json:"tag_id"`
	Position   int64  `json:"position"`
	IsFavorite bool   `json:"is_favorite"`
	Tag        *Tag   `json:"tag,omitempty"`
}

// CardSearchResult is one hit of the cross-board card search, with just
// enough context to jump to the card.
type CardSearchResult struct {
	ID         string `json:"id"`
	Title      string `json:"title"`
	ListID     string `json:"list_id"`
	ListTitle  string `json:"list_title"`
	BoardID    string `json:"board_id"`
	BoardTitle string `json:"board_title"`
}

// BoardRef is the minimal board handle used by the admin project view.
type BoardRef struct {
	ID    string    `json:"id"`
	Title string    `json:"title"`
	Role  BoardRole `json:"role,omitempty"`
}

// LeadAssignments maps one lead to the boards they run.
type LeadAssignments struct {
	ID       string     `json:"id"`
	Email    string     `json:"email"`
	FullName string     `json:"full_name"`
	Boards   []BoardRef `json:"boards"`
}

// Nested aggregate shapes, enough detail to re-render a board.

type ListDetail struct {
	List
	Cards []Card `json:"cards"`
}

type BoardDetail struct {
	Board
	Owner   UserRef       `json:"owner"`
	Members []BoardMember `json:"members"`
	Lists   []ListDetail  `json:"lists"`
}

type BoardSummary struct {
	Board
	Owner   UserRef       `json:"owner"`
	Members []BoardMember `json:"members"`
	Lists   []List        `json:"lists"`
}
