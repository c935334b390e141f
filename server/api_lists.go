package main

import "net/http"

func (a *api) handleCreateList(w http.ResponseWriter, r *http.Request, u User) {
	boardID := r.PathValue("id")
	var req struct {
		Title string `json:"title"`
	}
	if err := readJSON(w, r, &req); err != nil || req.Title == "" {
		writeError(w, 400, "invalid payload")
		return
	}
	l, err := a.svc.CreateList(r.Context(), actorOf(u), boardID, req.Title)
	if err != nil {
		a.respondError(w, r, err)
		return
	}
	a.bus.Publish(Event{Type: "list.created", BoardID: boardID, Payload: l})
	writeJSON(w, 201, l)
}

func (a *api) handleUpdateList(w http.ResponseWriter, r *http.Request, u User) {
	var req struct {
		Title    *string `json:"title"`
		Position *int64  `json:"position"`
	}
	if err := readJSON(w, r, &req); err != nil {
		writeError(w, 400, "invalid payload")
		return
	}
	if req.Title != nil && *req.Title == "" {
		writeError(w, 400, "title cannot be empty")
		return
	}
	l, err := a.svc.UpdateList(r.Context(), actorOf(u), r.PathValue("id"), req.Title, req.Position)
	if err != nil {
		a.respondError(w, r, err)
		return
	}
	a.bus.Publish(Event{Type: "list.updated", BoardID: l.BoardID, Payload: l})
	writeJSON(w, 200, l)
}

func (a *api) handleDeleteList(w http.ResponseWriter, r *http.Request, u User) {
	id := r.PathValue("id")
	l, err := a.store.ListByID(r.Context(), id)
	if err != nil {
		a.respondError(w, r, err)
		return
	}
	if err := a.svc.DeleteList(r.Context(), actorOf(u), id); err != nil {
		a.respondError(w, r, err)
		return
	}
	a.bus.Publish(Event{Type: "list.deleted", BoardID: l.BoardID, Payload: map[string]string{"id": id}})
	writeJSON(w, 200, map[string]any{"ok": true})
}
