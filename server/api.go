package main

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

type api struct {
	cfg   Config
	store *Store
	svc   *Service
	log   *logrus.Logger
	bus   *EventBus
	// rate limiting buckets per IP:key
	rlMu sync.Mutex
	rl   map[string]*rateBucket
}

func newAPI(cfg Config, store *Store, svc *Service, log *logrus.Logger) *api {
	return &api{cfg: cfg, store: store, svc: svc, log: log, bus: NewEventBus(), rl: map[string]*rateBucket{}}
}

type rateBucket struct {
	count   int
	resetAt time.Time
}

func (a *api) allow(ip, key string, max int, window time.Duration) bool {
	now := time.Now()
	rk := ip + ":" + key
	a.rlMu.Lock()
	b, ok := a.rl[rk]
	if !ok || now.After(b.resetAt) {
		b = &rateBucket{count: 0, resetAt: now.Add(window)}
		a.rl[rk] = b
	}
	if b.count >= max {
		a.rlMu.Unlock()
		return false
	}
	b.count++
	a.rlMu.Unlock()
	return true
}

func (a *api) withRateLimit(name string, max int, window time.Duration, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !a.allow(r.RemoteAddr, name, max, window) {
			writeError(w, 429, "too many requests")
			return
		}
		next(w, r)
	}
}

func readJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return err
	}
	_, _ = io.Copy(io.Discard, r.Body)
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(true)
	_ = enc.Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]any{"ok": false, "error": msg})
}

// respondError maps the error taxonomy to HTTP statuses. Anything without
// a kind is an internal failure: logged in full, reported opaquely.
func (a *api) respondError(w http.ResponseWriter, r *http.Request, err error) {
	switch KindOf(err) {
	case KindNotFound:
		writeError(w, 404, err.Error())
	case KindForbidden:
		writeError(w, 403, err.Error())
	case KindValidation:
		writeError(w, 400, err.Error())
	case KindConflict:
		writeError(w, 409, err.Error())
	default:
		a.log.WithError(err).WithFields(logrus.Fields{"method": r.Method, "path": r.URL.Path}).Error("request failed")
		writeError(w, 500, "internal error")
	}
}

// cookie/session helpers
func (a *api) sameSite() http.SameSite {
	switch strings.ToLower(a.cfg.CookieSameSite) {
	case "strict":
		return http.SameSiteStrictMode
	case "none":
		return http.SameSiteNoneMode
	default:
		return http.SameSiteLaxMode
	}
}

func (a *api) setSessionCookie(w http.ResponseWriter, token string, expires time.Time) {
	http.SetCookie(w, &http.Cookie{
		Name:     a.cfg.SessionCookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   a.cfg.CookieSecure,
		SameSite: a.sameSite(),
		Expires:  expires,
		MaxAge:   int(time.Until(expires).Seconds()),
	})
}

func (a *api) clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     a.cfg.SessionCookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Secure:   a.cfg.CookieSecure,
		SameSite: a.sameSite(),
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
	})
}

func (a *api) currentUser(r *http.Request) (User, error) {
	c, err := r.Cookie(a.cfg.SessionCookieName)
	if err != nil || c.Value == "" {
		return User{}, errNotFound("no session")
	}
	return a.store.UserBySession(r.Context(), c.Value)
}

type authedHandler func(w http.ResponseWriter, r *http.Request, u User)

func (a *api) requireAuth(next authedHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		u, err := a.currentUser(r)
		if err != nil {
			writeError(w, 401, "unauthorized")
			return
		}
		next(w, r, u)
	}
}

func (a *api) requireAdmin(next authedHandler) http.HandlerFunc {
	return a.requireAuth(func(w http.ResponseWriter, r *http.Request, u User) {
		if u.Role != RoleAdmin {
			writeError(w, 403, "admin only")
			return
		}
		next(w, r, u)
	})
}

func actorOf(u User) Actor { return Actor{ID: u.ID, Role: u.Role} }

// boardOfCard resolves a card's board for event routing. Best effort:
// an empty result just skips the publish.
func (a *api) boardOfCard(r *http.Request, c Card) string {
	l, err := a.store.ListByID(r.Context(), c.ListID)
	if err != nil {
		return ""
	}
	return l.BoardID
}

func (a *api) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := a.store.db.PingContext(r.Context()); err != nil {
		writeError(w, 503, "db unavailable")
		return
	}
	writeJSON(w, 200, map[string]any{"ok": true})
}

func (a *api) routes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/health", a.handleHealth)

	mux.HandleFunc("POST /api/auth/register", a.withRateLimit("auth", 20, time.Minute, a.handleRegister))
	mux.HandleFunc("POST /api/auth/login", a.withRateLimit("auth", 30, time.Minute, a.handleLogin))
	mux.HandleFunc("POST /api/auth/logout", a.handleLogout)
	mux.HandleFunc("GET /api/auth/me", a.handleMe)

	mux.HandleFunc("GET /api/users", a.requireAuth(a.handleListUsers))
	mux.HandleFunc("POST /api/users", a.requireAdmin(a.handleCreateUser))
	mux.HandleFunc("GET /api/users/{id}", a.requireAuth(a.handleGetUser))
	mux.HandleFunc("PATCH /api/users/{id}", a.requireAdmin(a.handleUpdateUser))
	mux.HandleFunc("DELETE /api/users/{id}", a.requireAdmin(a.handleDeleteUser))

	mux.HandleFunc("GET /api/projects", a.requireAdmin(a.handleListProjects))
	mux.HandleFunc("PUT /api/projects/leads/{id}/boards", a.requireAdmin(a.handleSetLeadBoards))

	mux.HandleFunc("GET /api/boards", a.requireAuth(a.handleListBoards))
	mux.HandleFunc("POST /api/boards", a.requireAuth(a.handleCreateBoard))
	mux.HandleFunc("GET /api/boards/{id}", a.requireAuth(a.handleGetBoard))
	mux.HandleFunc("PATCH /api/boards/{id}", a.requireAuth(a.handleUpdateBoard))
	mux.HandleFunc("DELETE /api/boards/{id}", a.requireAuth(a.handleDeleteBoard))
	mux.HandleFunc("PUT /api/boards/{id}/members", a.requireAuth(a.handleUpdateBoardMembers))
	mux.HandleFunc("GET /api/boards/{id}/events", a.requireAuth(a.handleBoardEvents))

	mux.HandleFunc("POST /api/boards/{id}/lists", a.requireAuth(a.handleCreateList))
	mux.HandleFunc("PATCH /api/lists/{id}", a.requireAuth(a.handleUpdateList))
	mux.HandleFunc("DELETE /api/lists/{id}", a.requireAuth(a.handleDeleteList))

	mux.HandleFunc("POST /api/lists/{id}/cards", a.requireAuth(a.handleCreateCard))
	mux.HandleFunc("GET /api/cards", a.requireAuth(a.handleSearchCards))
	mux.HandleFunc("GET /api/cards/{id}", a.requireAuth(a.handleGetCard))
	mux.HandleFunc("PATCH /api/cards/{id}", a.requireAuth(a.handleUpdateCard))
	mux.HandleFunc("DELETE /api/cards/{id}", a.requireAuth(a.handleDeleteCard))

	mux.HandleFunc("GET /api/boards/{id}/tags", a.requireAuth(a.handleListBoardTags))
	mux.HandleFunc("POST /api/boards/{id}/tags", a.requireAuth(a.handleCreateTag))
	mux.HandleFunc("POST /api/cards/{id}/tags/{tagID}", a.requireAuth(a.handleAttachTag))
	mux.HandleFunc("DELETE /api/cards/{id}/tags/{tagID}", a.requireAuth(a.handleDetachTag))
	mux.HandleFunc("PUT /api/cards/{id}/tags", a.requireAuth(a.handleReorderCardTags))
	mux.HandleFunc("POST /api/cards/{id}/tags/{tagID}/favorite", a.requireAuth(a.handleFavoriteTag))
}

func withLogging(log *logrus.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sw := &statusWriter{ResponseWriter: w, status: 200}
		start := time.Now()
		next.ServeHTTP(sw, r)
		log.WithFields(logrus.Fields{
			"method": r.Method,
			"path":   r.URL.Path,
			"status": sw.status,
			"dur_ms": time.Since(start).Milliseconds(),
		}).Info("http")
	})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) { w.status = code; w.ResponseWriter.WriteHeader(code) }

// Implement http.Flusher if the underlying writer supports it (needed for SSE)
func (w *statusWriter) Flush() {
	if f, ok := w.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}
