package main

import "net/http"

func (a *api) handleListBoards(w http.ResponseWriter, r *http.Request, u User) {
	items, err := a.svc.ListBoards(r.Context(), actorOf(u))
	if err != nil {
		a.respondError(w, r, err)
		return
	}
	writeJSON(w, 200, items)
}

func (a *api) handleCreateBoard(w http.ResponseWriter, r *http.Request, u User) {
	var req struct {
		Title       string   `json:"title"`
		Description string   `json:"description"`
		OwnerID     string   `json:"owner_id"`
		MemberIDs   []string `json:"member_ids"`
	}
	if err := readJSON(w, r, &req); err != nil || req.Title == "" {
		writeError(w, 400, "invalid payload")
		return
	}
	b, err := a.svc.CreateBoard(r.Context(), actorOf(u), createBoardInput{
		Title:       req.Title,
		Description: req.Description,
		OwnerID:     req.OwnerID,
		MemberIDs:   req.MemberIDs,
	})
	if err != nil {
		a.respondError(w, r, err)
		return
	}
	writeJSON(w, 201, b)
}

func (a *api) handleGetBoard(w http.ResponseWriter, r *http.Request, u User) {
	b, err := a.svc.GetBoard(r.Context(), actorOf(u), r.PathValue("id"))
	if err != nil {
		a.respondError(w, r, err)
		return
	}
	writeJSON(w, 200, b)
}

func (a *api) handleUpdateBoard(w http.ResponseWriter, r *http.Request, u User) {
	var req struct {
		Title       *string `json:"title"`
		Description *string `json:"description"`
	}
	if err := readJSON(w, r, &req); err != nil {
		writeError(w, 400, "invalid payload")
		return
	}
	if req.Title != nil && *req.Title == "" {
		writeError(w, 400, "title cannot be empty")
		return
	}
	b, err := a.svc.UpdateBoard(r.Context(), actorOf(u), r.PathValue("id"), req.Title, req.Description)
	if err != nil {
		a.respondError(w, r, err)
		return
	}
	a.bus.Publish(Event{Type: "board.updated", BoardID: b.ID, Payload: b.Board})
	writeJSON(w, 200, b)
}

func (a *api) handleDeleteBoard(w http.ResponseWriter, r *http.Request, u User) {
	id := r.PathValue("id")
	if err := a.svc.DeleteBoard(r.Context(), actorOf(u), id); err != nil {
		a.respondError(w, r, err)
		return
	}
	a.bus.Publish(Event{Type: "board.deleted", BoardID: id})
	writeJSON(w, 200, map[string]any{"ok": true})
}

func (a *api) handleUpdateBoardMembers(w http.ResponseWriter, r *http.Request, u User) {
	var req struct {
		Members []memberInput `json:"members"`
	}
	if err := readJSON(w, r, &req); err != nil {
		writeError(w, 400, "invalid payload")
		return
	}
	b, err := a.svc.UpdateBoardMembers(r.Context(), actorOf(u), r.PathValue("id"), req.Members)
	if err != nil {
		a.respondError(w, r, err)
		return
	}
	a.bus.Publish(Event{Type: "board.members_updated", BoardID: b.ID, Payload: b.Members})
	writeJSON(w, 200, b)
}

func (a *api) handleBoardEvents(w http.ResponseWriter, r *http.Request, u User) {
	boardID := r.PathValue("id")
	if _, err := a.svc.GetBoard(r.Context(), actorOf(u), boardID); err != nil {
		a.respondError(w, r, err)
		return
	}
	a.bus.ServeSSE(w, r, boardID)
}
