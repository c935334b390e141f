package main

import "net/http"

// handleRegister self-signup: always an EMPLOYEE with no manager. Roles
// and reporting lines are set by an admin afterwards.
func (a *api) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
		FullName string `json:"full_name"`
	}
	if err := readJSON(w, r, &req); err != nil || req.Email == "" || req.Password == "" {
		writeError(w, 400, "invalid payload")
		return
	}
	if len(req.Password) < 6 {
		writeError(w, 400, "password too short")
		return
	}
	u, err := a.store.CreateUser(r.Context(), req.Email, req.Password, req.FullName, RoleEmployee, "")
	if err != nil {
		a.respondError(w, r, err)
		return
	}
	token, exp, err := a.store.CreateSession(r.Context(), u.ID, a.cfg.SessionTTL)
	if err != nil {
		a.respondError(w, r, err)
		return
	}
	a.setSessionCookie(w, token, exp)
	writeJSON(w, 201, map[string]any{"ok": true, "user": u})
}

func (a *api) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := readJSON(w, r, &req); err != nil || req.Email == "" || req.Password == "" {
		writeError(w, 400, "invalid payload")
		return
	}
	u, err := a.store.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, 401, "invalid credentials")
		return
	}
	token, exp, err := a.store.CreateSession(r.Context(), u.ID, a.cfg.SessionTTL)
	if err != nil {
		a.respondError(w, r, err)
		return
	}
	a.setSessionCookie(w, token, exp)
	writeJSON(w, 200, map[string]any{"ok": true, "user": u})
}

func (a *api) handleLogout(w http.ResponseWriter, r *http.Request) {
	if c, err := r.Cookie(a.cfg.SessionCookieName); err == nil && c.Value != "" {
		_ = a.store.DeleteSession(r.Context(), c.Value)
	}
	a.clearSessionCookie(w)
	writeJSON(w, 200, map[string]any{"ok": true})
}

func (a *api) handleMe(w http.ResponseWriter, r *http.Request) {
	u, err := a.currentUser(r)
	if err != nil {
		// anonymous callers get user: null instead of a noisy 401
		writeJSON(w, 200, map[string]any{"user": nil})
		return
	}
	writeJSON(w, 200, map[string]any{"user": u})
}
