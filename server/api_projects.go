package main

import "net/http"

func (a *api) handleListProjects(w http.ResponseWriter, r *http.Request, u User) {
	leads, err := a.store.LeadsWithBoards(r.Context())
	if err != nil {
		a.respondError(w, r, err)
		return
	}
	boards, err := a.store.BoardsMinimal(r.Context())
	if err != nil {
		a.respondError(w, r, err)
		return
	}
	writeJSON(w, 200, map[string]any{"leads": leads, "boards": boards})
}

func (a *api) handleSetLeadBoards(w http.ResponseWriter, r *http.Request, u User) {
	var req struct {
		BoardIDs []string `json:"board_ids"`
	}
	if err := readJSON(w, r, &req); err != nil {
		writeError(w, 400, "invalid payload")
		return
	}
	out, err := a.svc.SetLeadBoards(r.Context(), r.PathValue("id"), req.BoardIDs)
	if err != nil {
		a.respondError(w, r, err)
		return
	}
	writeJSON(w, 200, map[string]any{"lead": out})
}
