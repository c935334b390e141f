package main

import (
	"context"

	"github.com/google/uuid"
)

func (s *Service) ListBoardTags(ctx context.Context, actor Actor, boardID string) ([]Tag, error) {
	facts, err := s.store.BoardFacts(ctx, boardID)
	if err != nil {
		return nil, err
	}
	dir, err := s.directoryFor(ctx, actor)
	if err != nil {
		return nil, err
	}
	if err := CanAccessBoardTags(actor, facts, dir); err != nil {
		return nil, err
	}
	return s.store.TagsByBoard(ctx, boardID)
}

// CreateTag adds a tag to the board's palette. Anyone who can see the
// board may create tags; names are unique per board.
func (s *Service) CreateTag(ctx context.Context, actor Actor, boardID, name, color string) (Tag, error) {
	facts, err := s.store.BoardFacts(ctx, boardID)
	if err != nil {
		return Tag{}, err
	}
	dir, err := s.directoryFor(ctx, actor)
	if err != nil {
		return Tag{}, err
	}
	if err := CanAccessBoardTags(actor, facts, dir); err != nil {
		return Tag{}, err
	}
	t := Tag{ID: uuid.NewString(), BoardID: boardID, Name: name, Color: color}
	if err := s.store.CreateTag(ctx, t); err != nil {
		return Tag{}, err
	}
	return t, nil
}

// cardForTagChange authorizes a tag mutation on a card: same rights as
// editing the card itself.
func (s *Service) cardForTagChange(ctx context.Context, actor Actor, cardID string) (CardFacts, error) {
	cf, bf, err := s.store.CardFacts(ctx, cardID)
	if err != nil {
		return CardFacts{}, err
	}
	if err := CanManageCard(actor, bf, cf, false); err != nil {
		return CardFacts{}, err
	}
	return cf, nil
}

// AttachTag appends the tag at the end of the card's tag order. The tag
// must belong to the card's own board.
func (s *Service) AttachTag(ctx context.Context, actor Actor, cardID, tagID string) (Card, error) {
	cf, err := s.cardForTagChange(ctx, actor, cardID)
	if err != nil {
		return Card{}, err
	}
	tag, err := s.store.TagByID(ctx, tagID)
	if err != nil {
		return Card{}, err
	}
	if tag.BoardID != cf.BoardID {
		return Card{}, errValidation("tag belongs to another board")
	}

	tx, err := s.store.Begin(ctx)
	if err != nil {
		return Card{}, err
	}
	defer func() { _ = tx.Rollback() }()

	max, err := maxPosition(ctx, tx, cardTagSiblings, cardID)
	if err != nil {
		return Card{}, err
	}
	if err := insertCardTag(ctx, tx, CardTag{CardID: cardID, TagID: tagID, Position: planAppend(max).NewPos}); err != nil {
		return Card{}, err
	}
	if err := tx.Commit(); err != nil {
		return Card{}, err
	}
	return s.store.CardByID(ctx, cardID)
}

func (s *Service) DetachTag(ctx context.Context, actor Actor, cardID, tagID string) (Card, error) {
	if _, err := s.cardForTagChange(ctx, actor, cardID); err != nil {
		return Card{}, err
	}

	tx, err := s.store.Begin(ctx)
	if err != nil {
		return Card{}, err
	}
	defer func() { _ = tx.Rollback() }()

	if err := deleteCardTag(ctx, tx, cardID, tagID); err != nil {
		return Card{}, err
	}
	if err := tx.Commit(); err != nil {
		return Card{}, err
	}
	return s.store.CardByID(ctx, cardID)
}

// ReorderCardTags rewrites the card's tag order from the submitted id
// sequence. The sequence must name every attached tag exactly once.
func (s *Service) ReorderCardTags(ctx context.Context, actor Actor, cardID string, tagIDs []string) (Card, error) {
	if _, err := s.cardForTagChange(ctx, actor, cardID); err != nil {
		return Card{}, err
	}

	tx, err := s.store.Begin(ctx)
	if err != nil {
		return Card{}, err
	}
	defer func() { _ = tx.Rollback() }()

	attached, err := cardTagsInTx(ctx, tx, cardID)
	if err != nil {
		return Card{}, err
	}
	have := make(map[string]bool, len(attached))
	for _, ct := range attached {
		have[ct.TagID] = true
	}
	seen := make(map[string]bool, len(tagIDs))
	for _, id := range tagIDs {
		if !have[id] || seen[id] {
			return Card{}, errValidation("tag order must list every attached tag exactly once")
		}
		seen[id] = true
	}
	if len(seen) != len(attached) {
		return Card{}, errValidation("tag order must list every attached tag exactly once")
	}

	for i, id := range tagIDs {
		if err := setCardTagPosition(ctx, tx, cardID, id, int64(i+1)); err != nil {
			return Card{}, err
		}
	}
	if err := tx.Commit(); err != nil {
		return Card{}, err
	}
	return s.store.CardByID(ctx, cardID)
}

// ToggleFavoriteTag marks one attachment as the card's favorite. At most
// one tag per card is favorite; marking promotes the tag to position 1 and
// renumbers the rest behind it in their current order. Unmarking clears
// the flag and leaves the order alone.
func (s *Service) ToggleFavoriteTag(ctx context.Context, actor Actor, cardID, tagID string, favorite bool) (Card, error) {
	if _, err := s.cardForTagChange(ctx, actor, cardID); err != nil {
		return Card{}, err
	}

	tx, err := s.store.Begin(ctx)
	if err != nil {
		return Card{}, err
	}
	defer func() { _ = tx.Rollback() }()

	if !favorite {
		if err := setCardTagFavorite(ctx, tx, cardID, tagID, false); err != nil {
			return Card{}, err
		}
		if err := tx.Commit(); err != nil {
			return Card{}, err
		}
		return s.store.CardByID(ctx, cardID)
	}

	attached, err := cardTagsInTx(ctx, tx, cardID)
	if err != nil {
		return Card{}, err
	}
	found := false
	for _, ct := range attached {
		if ct.TagID == tagID {
			found = true
			break
		}
	}
	if !found {
		return Card{}, errNotFound("tag is not attached to this card")
	}

	if err := clearCardTagFavorites(ctx, tx, cardID); err != nil {
		return Card{}, err
	}
	if err := setCardTagFavorite(ctx, tx, cardID, tagID, true); err != nil {
		return Card{}, err
	}
	if err := setCardTagPosition(ctx, tx, cardID, tagID, 1); err != nil {
		return Card{}, err
	}
	pos := int64(2)
	for _, ct := range attached {
		if ct.TagID == tagID {
			continue
		}
		if err := setCardTagPosition(ctx, tx, cardID, ct.TagID, pos); err != nil {
			return Card{}, err
		}
		pos++
	}
	if err := tx.Commit(); err != nil {
		return Card{}, err
	}
	return s.store.CardByID(ctx, cardID)
}
