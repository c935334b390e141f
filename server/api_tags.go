package main

import "net/http"

func (a *api) handleListBoardTags(w http.ResponseWriter, r *http.Request, u User) {
	tags, err := a.svc.ListBoardTags(r.Context(), actorOf(u), r.PathValue("id"))
	if err != nil {
		a.respondError(w, r, err)
		return
	}
	writeJSON(w, 200, tags)
}

func (a *api) handleCreateTag(w http.ResponseWriter, r *http.Request, u User) {
	boardID := r.PathValue("id")
	var req struct {
		Name  string `json:"name"`
		Color string `json:"color"`
	}
	if err := readJSON(w, r, &req); err != nil || req.Name == "" {
		writeError(w, 400, "invalid payload")
		return
	}
	t, err := a.svc.CreateTag(r.Context(), actorOf(u), boardID, req.Name, req.Color)
	if err != nil {
		a.respondError(w, r, err)
		return
	}
	a.bus.Publish(Event{Type: "tag.created", BoardID: boardID, Payload: t})
	writeJSON(w, 201, t)
}

func (a *api) handleAttachTag(w http.ResponseWriter, r *http.Request, u User) {
	c, err := a.svc.AttachTag(r.Context(), actorOf(u), r.PathValue("id"), r.PathValue("tagID"))
	if err != nil {
		a.respondError(w, r, err)
		return
	}
	if boardID := a.boardOfCard(r, c); boardID != "" {
		a.bus.Publish(Event{Type: "card.updated", BoardID: boardID, Payload: c})
	}
	writeJSON(w, 200, c)
}

func (a *api) handleDetachTag(w http.ResponseWriter, r *http.Request, u User) {
	c, err := a.svc.DetachTag(r.Context(), actorOf(u), r.PathValue("id"), r.PathValue("tagID"))
	if err != nil {
		a.respondError(w, r, err)
		return
	}
	if boardID := a.boardOfCard(r, c); boardID != "" {
		a.bus.Publish(Event{Type: "card.updated", BoardID: boardID, Payload: c})
	}
	writeJSON(w, 200, c)
}

func (a *api) handleReorderCardTags(w http.ResponseWriter, r *http.Request, u User) {
	var req struct {
		TagIDs []string `json:"tag_ids"`
	}
	if err := readJSON(w, r, &req); err != nil {
		writeError(w, 400, "invalid payload")
		return
	}
	c, err := a.svc.ReorderCardTags(r.Context(), actorOf(u), r.PathValue("id"), req.TagIDs)
	if err != nil {
		a.respondError(w, r, err)
		return
	}
	if boardID := a.boardOfCard(r, c); boardID != "" {
		a.bus.Publish(Event{Type: "card.updated", BoardID: boardID, Payload: c})
	}
	writeJSON(w, 200, c)
}

func (a *api) handleFavoriteTag(w http.ResponseWriter, r *http.Request, u User) {
	var req struct {
		Favorite bool `json:"favorite"`
	}
	if err := readJSON(w, r, &req); err != nil {
		writeError(w, 400, "invalid payload")
		return
	}
	c, err := a.svc.ToggleFavoriteTag(r.Context(), actorOf(u), r.PathValue("id"), r.PathValue("tagID"), req.Favorite)
	if err != nil {
		a.respondError(w, r, err)
		return
	}
	if boardID := a.boardOfCard(r, c); boardID != "" {
		a.bus.Publish(Event{Type: "card.updated", BoardID: boardID, Payload: c})
	}
	writeJSON(w, 200, c)
}
