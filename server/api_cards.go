package main

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"
)

// optionalTime distinguishes an absent field from an explicit null: null
// clears a due date, absence leaves it alone.
type optionalTime struct {
	Set   bool
	Value *time.Time
}

func (o *optionalTime) UnmarshalJSON(b []byte) error {
	o.Set = true
	if string(b) == "null" {
		o.Value = nil
		return nil
	}
	return json.Unmarshal(b, &o.Value)
}

func (a *api) handleCreateCard(w http.ResponseWriter, r *http.Request, u User) {
	listID := r.PathValue("id")
	var req struct {
		Title       string     `json:"title"`
		Description string     `json:"description"`
		Position    *int64     `json:"position"`
		AssigneeIDs []string   `json:"assignee_ids"`
		DueDate     *time.Time `json:"due_date"`
	}
	if err := readJSON(w, r, &req); err != nil || req.Title == "" {
		writeError(w, 400, "invalid payload")
		return
	}
	c, err := a.svc.CreateCard(r.Context(), actorOf(u), listID, createCardInput{
		Title:       req.Title,
		Description: req.Description,
		Position:    req.Position,
		AssigneeIDs: req.AssigneeIDs,
		DueDate:     req.DueDate,
	})
	if err != nil {
		a.respondError(w, r, err)
		return
	}
	if boardID := a.boardOfCard(r, c); boardID != "" {
		a.bus.Publish(Event{Type: "card.created", BoardID: boardID, Payload: c})
	}
	writeJSON(w, 201, c)
}

func (a *api) handleSearchCards(w http.ResponseWriter, r *http.Request, u User) {
	query := r.URL.Query().Get("q")
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			writeError(w, 400, "bad limit")
			return
		}
		limit = n
	}
	results, err := a.svc.SearchCards(r.Context(), actorOf(u), query, limit)
	if err != nil {
		a.respondError(w, r, err)
		return
	}
	writeJSON(w, 200, map[string]any{"cards": results})
}

func (a *api) handleGetCard(w http.ResponseWriter, r *http.Request, u User) {
	c, err := a.svc.GetCard(r.Context(), actorOf(u), r.PathValue("id"))
	if err != nil {
		a.respondError(w, r, err)
		return
	}
	writeJSON(w, 200, c)
}

func (a *api) handleUpdateCard(w http.ResponseWriter, r *http.Request, u User) {
	var req struct {
		Title       *string      `json:"title"`
		Description *string      `json:"description"`
		Status      *CardStatus  `json:"status"`
		Archived    *bool        `json:"archived"`
		DueDate     optionalTime `json:"due_date"`
		ListID      *string      `json:"list_id"`
		Position    *int64       `json:"position"`
		AssigneeIDs *[]string    `json:"assignee_ids"`
	}
	if err := readJSON(w, r, &req); err != nil {
		writeError(w, 400, "invalid payload")
		return
	}
	if req.Title != nil && *req.Title == "" {
		writeError(w, 400, "title cannot be empty")
		return
	}
	moved := req.ListID != nil || req.Position != nil
	c, err := a.svc.UpdateCard(r.Context(), actorOf(u), r.PathValue("id"), updateCardInput{
		Title:       req.Title,
		Description: req.Description,
		Status:      req.Status,
		Archived:    req.Archived,
		DueDate:     req.DueDate.Value,
		DueDateSet:  req.DueDate.Set,
		ListID:      req.ListID,
		Position:    req.Position,
		AssigneeIDs: req.AssigneeIDs,
	})
	if err != nil {
		a.respondError(w, r, err)
		return
	}
	if boardID := a.boardOfCard(r, c); boardID != "" {
		typ := "card.updated"
		if moved {
			typ = "card.moved"
		}
		a.bus.Publish(Event{Type: typ, BoardID: boardID, Payload: c})
	}
	writeJSON(w, 200, c)
}

func (a *api) handleDeleteCard(w http.ResponseWriter, r *http.Request, u User) {
	id := r.PathValue("id")
	c, err := a.store.CardByID(r.Context(), id)
	if err != nil {
		a.respondError(w, r, err)
		return
	}
	if err := a.svc.DeleteCard(r.Context(), actorOf(u), id); err != nil {
		a.respondError(w, r, err)
		return
	}
	if boardID := a.boardOfCard(r, c); boardID != "" {
		a.bus.Publish(Event{Type: "card.deleted", BoardID: boardID, Payload: map[string]string{"id": id}})
	}
	writeJSON(w, 200, map[string]any{"ok": true})
}
