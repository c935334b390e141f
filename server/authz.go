package main

// Access control. Every decision here is a pure function of the actor's
// identity, directory facts, and facts about the target board/card. No
// database access and no mutation happens in this file; services collect
// the facts and call in before touching anything.

// Actor is the resolved caller identity supplied with every request.
type Actor struct {
	ID   string
	Role Role
}

// BoardFacts is what the engine needs to know about a board.
type BoardFacts struct {
	ID      string
	OwnerID string
	Members []BoardMember
}

func (f BoardFacts) member(userID string) *BoardMember {
	for i := range f.Members {
		if f.Members[i].UserID == userID {
			return &f.Members[i]
		}
	}
	return nil
}

// AssigneeFact carries the card-local reporting line of one assignee.
type AssigneeFact struct {
	UserID    string
	ManagerID string
}

// CardFacts is what the engine needs to know about a card.
type CardFacts struct {
	ID          string
	ListID      string
	BoardID     string
	Position    int64
	CreatedByID string
	Assignees   []AssigneeFact
}

// DirectoryFacts are the actor's own reporting-line facts.
type DirectoryFacts struct {
	ManagerID      string
	ManagerRole    Role
	SubordinateIDs []string
}

type capability uint8

const (
	capManageBoard capability = 1 << iota
	capWriteLists
	capManageAnyCard
)

const capAll = capManageBoard | capWriteLists | capManageAnyCard

// membershipCaps maps a membership role to its capability set. Keeping the
// table in one place avoids repeating the same precedence chain per call
// site.
var membershipCaps = map[BoardRole]capability{
	BoardRoleOwner:        capAll,
	BoardRoleManager:      capAll,
	BoardRoleCollaborator: 0,
	BoardRoleViewer:       0,
}

// caps resolves the actor's capability set on this board. The board owner
// always holds every capability, whether or not the OWNER membership row
// is present.
func (f BoardFacts) caps(actor Actor) capability {
	if actor.ID == f.OwnerID {
		return capAll
	}
	if m := f.member(actor.ID); m != nil {
		return membershipCaps[m.Role]
	}
	return 0
}

// ResolveBoardOwner applies the board-creation rules and returns the
// effective owner id. The owner's role is validated separately once the
// user row is loaded, see checkBoardOwnerRole.
func ResolveBoardOwner(actor Actor, requestedOwnerID string) (string, error) {
	if actor.Role == RoleEmployee {
		return "", errForbidden("employees cannot create boards")
	}
	if requestedOwnerID == "" || requestedOwnerID == actor.ID {
		return actor.ID, nil
	}
	if actor.Role != RoleAdmin {
		return "", errForbidden("a lead cannot make another user the board owner")
	}
	return requestedOwnerID, nil
}

func checkBoardOwnerRole(owner *User) error {
	if owner == nil {
		return errValidation("board owner not found")
	}
	if owner.Role != RoleAdmin && owner.Role != RoleLead {
		return errValidation("board owner must be an admin or a lead")
	}
	return nil
}

// CanManageBoard gates board update, delete and membership changes.
func CanManageBoard(actor Actor, board BoardFacts) error {
	if actor.Role == RoleAdmin {
		return nil
	}
	if board.caps(actor)&capManageBoard != 0 {
		return nil
	}
	return errForbidden("no access to this board")
}

// CanWriteLists gates list create, update and delete.
func CanWriteLists(actor Actor, board BoardFacts) error {
	if actor.Role == RoleAdmin {
		return nil
	}
	if board.caps(actor)&capWriteLists != 0 {
		return nil
	}
	if actor.ID != board.OwnerID && board.member(actor.ID) == nil {
		return errForbidden("no access to modify this board")
	}
	return errForbidden("insufficient rights to manage lists")
}

// managedAccess reports whether an employee without their own membership
// reaches the board through their manager. The manager-as-owner path is
// unconditional; the manager-as-member path may require the manager to be
// a lead, which is how board viewing differs from card creation.
func managedAccess(actor Actor, board BoardFacts, dir *DirectoryFacts, managerMustBeLead bool) bool {
	if actor.Role != RoleEmployee || dir == nil || dir.ManagerID == "" {
		return false
	}
	if dir.ManagerID == board.OwnerID {
		return true
	}
	if managerMustBeLead && dir.ManagerRole != RoleLead {
		return false
	}
	return board.member(dir.ManagerID) != nil
}

// CanViewBoard gates read access to a board aggregate. An employee without
// a membership may still view a board when their manager owns it, or when
// their manager is a lead and a member of it.
func CanViewBoard(actor Actor, board BoardFacts, dir *DirectoryFacts) error {
	if actor.Role == RoleAdmin {
		return nil
	}
	if actor.ID == board.OwnerID || board.member(actor.ID) != nil {
		return nil
	}
	if managedAccess(actor, board, dir, true) {
		return nil
	}
	return errForbidden("no access to this board")
}

// CanCreateCard gates card creation in a list on this board. Any
// membership suffices; a non-member employee may still create cards when
// their manager owns the board or holds any membership on it.
func CanCreateCard(actor Actor, board BoardFacts, dir *DirectoryFacts) error {
	if actor.Role == RoleAdmin {
		return nil
	}
	if actor.ID == board.OwnerID || board.member(actor.ID) != nil {
		return nil
	}
	if managedAccess(actor, board, dir, false) {
		return nil
	}
	return errForbidden("no access to this board")
}

// CanAccessBoardTags gates the board's tag palette. Same reach as card
// creation: any membership of the employee's manager opens the board.
func CanAccessBoardTags(actor Actor, board BoardFacts, dir *DirectoryFacts) error {
	return CanCreateCard(actor, board, dir)
}

// CanManageCard gates card update and delete. Board owners and OWNER or
// MANAGER members have full access; otherwise a lead may act on cards they
// created, are assigned to, or where they manage an assignee, and an
// employee only on cards they created or are assigned to.
func CanManageCard(actor Actor, board BoardFacts, card CardFacts, forDelete bool) error {
	if actor.Role == RoleAdmin {
		return nil
	}
	if board.caps(actor)&capManageAnyCard != 0 {
		return nil
	}

	isCreator := card.CreatedByID != "" && card.CreatedByID == actor.ID
	isAssigned := false
	managesAssignee := false
	for _, a := range card.Assignees {
		if a.UserID == actor.ID {
			isAssigned = true
		}
		if a.ManagerID != "" && a.ManagerID == actor.ID {
			managesAssignee = true
		}
	}

	if actor.Role == RoleLead && (isCreator || isAssigned || managesAssignee) {
		return nil
	}
	if actor.Role == RoleEmployee && (isCreator || isAssigned) {
		return nil
	}

	if actor.ID != board.OwnerID && board.member(actor.ID) == nil {
		return errForbidden("no access to this board")
	}
	if forDelete {
		return errForbidden("no access to delete this card")
	}
	return errForbidden("no access to edit this card")
}

// CheckAssignees validates a candidate assignee set. Role reach violations
// are authorization failures; a candidate who is not a board member is a
// validation failure. Admins may assign anyone.
func CheckAssignees(actor Actor, assigneeIDs []string, subordinateIDs []string, boardMemberIDs map[string]bool) error {
	if len(assigneeIDs) == 0 || actor.Role == RoleAdmin {
		return nil
	}

	allowed := map[string]bool{actor.ID: true}
	if actor.Role == RoleLead {
		for _, id := range subordinateIDs {
			allowed[id] = true
		}
	}
	for _, id := range assigneeIDs {
		if !allowed[id] {
			return errForbidden("cannot assign users outside your reach")
		}
	}

	for _, id := range assigneeIDs {
		if !boardMemberIDs[id] {
			return errValidation("all assignees must be members of the board")
		}
	}
	return nil
}

// CheckMemberTargets restricts which users a lead may add as board
// members: themselves and their direct subordinates only.
func CheckMemberTargets(actor Actor, targetIDs []string, subordinateIDs []string) error {
	if actor.Role != RoleLead {
		return nil
	}
	allowed := map[string]bool{actor.ID: true}
	for _, id := range subordinateIDs {
		allowed[id] = true
	}
	for _, id := range targetIDs {
		if !allowed[id] {
			return errForbidden("only your own subordinates can be added")
		}
	}
	return nil
}
