package main

import (
	"context"

	"github.com/google/uuid"
)

// CreateList appends a new list at the end of the board's list order.
func (s *Service) CreateList(ctx context.Context, actor Actor, boardID, title string) (List, error) {
	facts, err := s.store.BoardFacts(ctx, boardID)
	if err != nil {
		return List{}, err
	}
	if err := CanWriteLists(actor, facts); err != nil {
		return List{}, err
	}

	l := List{ID: uuid.NewString(), BoardID: boardID, Title: title}

	tx, err := s.store.Begin(ctx)
	if err != nil {
		return List{}, err
	}
	defer func() { _ = tx.Rollback() }()

	max, err := maxPosition(ctx, tx, listSiblings, boardID)
	if err != nil {
		return List{}, err
	}
	l.Position = planAppend(max).NewPos
	if err := insertList(ctx, tx, l); err != nil {
		return List{}, err
	}
	if err := tx.Commit(); err != nil {
		return List{}, err
	}
	return s.store.ListByID(ctx, l.ID)
}

// UpdateList renames a list or writes its position directly. List order is
// presentation-only, so an explicit position is stored as given without
// renumbering the siblings; two lists may end up holding the same position
// and readers break the tie by id.
func (s *Service) UpdateList(ctx context.Context, actor Actor, listID string, title *string, position *int64) (List, error) {
	l, err := s.store.ListByID(ctx, listID)
	if err != nil {
		return List{}, err
	}
	facts, err := s.store.BoardFacts(ctx, l.BoardID)
	if err != nil {
		return List{}, err
	}
	if err := CanWriteLists(actor, facts); err != nil {
		return List{}, err
	}
	if position != nil {
		p := clampPosition(*position)
		position = &p
	}
	if err := s.store.UpdateList(ctx, listID, title, position); err != nil {
		return List{}, err
	}
	return s.store.ListByID(ctx, listID)
}

// DeleteList removes the list and, via cascade, its cards. Remaining list
// positions keep their gap.
func (s *Service) DeleteList(ctx context.Context, actor Actor, listID string) error {
	l, err := s.store.ListByID(ctx, listID)
	if err != nil {
		return err
	}
	facts, err := s.store.BoardFacts(ctx, l.BoardID)
	if err != nil {
		return err
	}
	if err := CanWriteLists(actor, facts); err != nil {
		return err
	}
	return s.store.DeleteList(ctx, listID)
}
