package main

import "net/http"

func (a *api) handleListUsers(w http.ResponseWriter, r *http.Request, u User) {
	q := r.URL.Query()
	role := Role(q.Get("role"))
	if role != "" && !role.valid() {
		writeError(w, 400, "unknown role filter")
		return
	}
	users, err := a.store.ListUsers(r.Context(), role, q.Get("manager_id"), q.Get("search"))
	if err != nil {
		a.respondError(w, r, err)
		return
	}
	writeJSON(w, 200, users)
}

func (a *api) handleGetUser(w http.ResponseWriter, r *http.Request, u User) {
	out, err := a.store.UserByID(r.Context(), r.PathValue("id"))
	if err != nil {
		a.respondError(w, r, err)
		return
	}
	writeJSON(w, 200, out)
}

func (a *api) handleCreateUser(w http.ResponseWriter, r *http.Request, u User) {
	var req struct {
		Email     string `json:"email"`
		Password  string `json:"password"`
		FullName  string `json:"full_name"`
		Role      Role   `json:"role"`
		ManagerID string `json:"manager_id"`
	}
	if err := readJSON(w, r, &req); err != nil || req.Email == "" || req.Password == "" {
		writeError(w, 400, "invalid payload")
		return
	}
	if len(req.Password) < 6 {
		writeError(w, 400, "password too short")
		return
	}
	if req.Role == "" {
		req.Role = RoleEmployee
	}
	if !req.Role.valid() {
		writeError(w, 400, "unknown role")
		return
	}
	out, err := a.store.CreateUser(r.Context(), req.Email, req.Password, req.FullName, req.Role, req.ManagerID)
	if err != nil {
		a.respondError(w, r, err)
		return
	}
	writeJSON(w, 201, out)
}

func (a *api) handleUpdateUser(w http.ResponseWriter, r *http.Request, u User) {
	var req struct {
		FullName  *string `json:"full_name"`
		Password  *string `json:"password"`
		Role      *Role   `json:"role"`
		ManagerID *string `json:"manager_id"`
	}
	if err := readJSON(w, r, &req); err != nil {
		writeError(w, 400, "invalid payload")
		return
	}
	if req.Role != nil && !req.Role.valid() {
		writeError(w, 400, "unknown role")
		return
	}
	if req.Password != nil && len(*req.Password) < 6 {
		writeError(w, 400, "password too short")
		return
	}
	out, err := a.store.UpdateUser(r.Context(), r.PathValue("id"), userUpdate{
		FullName:  req.FullName,
		Password:  req.Password,
		Role:      req.Role,
		ManagerID: req.ManagerID,
	})
	if err != nil {
		a.respondError(w, r, err)
		return
	}
	writeJSON(w, 200, out)
}

func (a *api) handleDeleteUser(w http.ResponseWriter, r *http.Request, u User) {
	id := r.PathValue("id")
	if id == u.ID {
		writeError(w, 400, "cannot delete your own account")
		return
	}
	if err := a.store.DeleteUser(r.Context(), id); err != nil {
		a.respondError(w, r, err)
		return
	}
	writeJSON(w, 200, map[string]any{"ok": true})
}
