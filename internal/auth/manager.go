// Package auth maintains the signed-in user and the admin flag of a request.
//
// A Manager is built once at the composition root and handed to the HTTP
// layer. It owns the cookie session, the role check against user_roles and
// the listeners interested in sign-in and sign-out events.
package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/sessions"
	"github.com/patrickmn/go-cache"
	"github.com/rs/zerolog"
	"github.com/s/trainingHub/internal/models"
	"github.com/s/trainingHub/internal/storage"
	"github.com/s/trainingHub/internal/validation"
	"gorm.io/gorm"
)

const (
	// SessionName is the cookie session shared by every handler.
	SessionName = "session"

	// DefaultRoleCheckTimeout bounds how long a request may wait for the
	// user and role lookup before it is treated as having no session.
	DefaultRoleCheckTimeout = 3 * time.Second

	keyUserID    = "user_id"
	roleCacheTTL = 30 * time.Second
)

// Session is the resolved authentication state of a request.
type Session struct {
	User    *models.User `json:"user"`
	IsAdmin bool         `json:"is_admin"`
	Loading bool         `json:"loading"`
}

func (s Session) Authenticated() bool {
	return s.User != nil
}

// UserID returns "" for anonymous sessions.
func (s Session) UserID() string {
	if s.User == nil {
		return ""
	}
	return s.User.ID
}

type EventKind string

const (
	EventSignedIn  EventKind = "signed_in"
	EventSignedOut EventKind = "signed_out"
)

// Event is delivered to listeners after the session cookie has changed.
// Session already carries both the user and the admin flag.
type Event struct {
	Kind    EventKind
	UserID  string
	Session Session
}

type Listener func(ctx context.Context, e Event)

type Options struct {
	RoleCheckTimeout time.Duration
}

// SignInRequest is the email/password form.
type SignInRequest struct {
	Email    string `json:"email" validate:"required,email,max=255"`
	Password string `json:"password" validate:"required,max=72"`
}

type Manager struct {
	db      *gorm.DB
	store   sessions.Store
	roles   *cache.Cache
	timeout time.Duration
	log     zerolog.Logger

	mu        sync.RWMutex
	nextID    int
	listeners map[int]Listener
}

func NewManager(db *gorm.DB, store sessions.Store, opts Options, log zerolog.Logger) *Manager {
	timeout := opts.RoleCheckTimeout
	if timeout <= 0 {
		timeout = DefaultRoleCheckTimeout
	}
	return &Manager{
		db:        db,
		store:     store,
		roles:     cache.New(roleCacheTTL, 2*roleCacheTTL),
		timeout:   timeout,
		log:       log.With().Str("component", "auth").Logger(),
		listeners: make(map[int]Listener),
	}
}

// Subscribe registers l for session changes and returns its cancel func.
func (m *Manager) Subscribe(l Listener) func() {
	m.mu.Lock()
	defer m.mu.Unlock()

	id := m.nextID
	m.nextID++
	m.listeners[id] = l

	return func() {
		m.mu.Lock()
		delete(m.listeners, id)
		m.mu.Unlock()
	}
}

// Close drops every listener and cached role answer.
func (m *Manager) Close() {
	m.mu.Lock()
	m.listeners = make(map[int]Listener)
	m.mu.Unlock()
	m.roles.Flush()
}

func (m *Manager) notify(ctx context.Context, e Event) {
	m.mu.RLock()
	ls := make([]Listener, 0, len(m.listeners))
	for _, l := range m.listeners {
		ls = append(ls, l)
	}
	m.mu.RUnlock()

	for _, l := range ls {
		l(ctx, e)
	}
}

// SignIn validates the form, checks the credentials and starts a session.
// Credential failures come back as storage.ErrInvalidCredentials.
func (m *Manager) SignIn(w http.ResponseWriter, r *http.Request, req SignInRequest) (Session, error) {
	req.Email = strings.TrimSpace(req.Email)
	if err := validation.Struct(req); err != nil {
		return Session{}, err
	}

	user, err := storage.Authenticate(r.Context(), m.db, req.Email, req.Password)
	if err != nil {
		return Session{}, err
	}
	return m.StartSession(w, r, user)
}

// StartSession writes user into the session cookie and resolves the admin flag.
func (m *Manager) StartSession(w http.ResponseWriter, r *http.Request, user models.User) (Session, error) {
	sess, _ := m.store.Get(r, SessionName)
	sess.Values[keyUserID] = user.ID
	if err := sess.Save(r, w); err != nil {
		return Session{}, fmt.Errorf("save session: %w", err)
	}

	m.roles.Delete(user.ID)
	s, err := m.resolveUser(r.Context(), user.ID)
	if err != nil {
		m.log.Error().Err(err).Str("user_id", user.ID).Msg("role check after sign-in failed")
		s = Session{User: &user}
	}

	m.log.Info().Str("user_id", user.ID).Bool("admin", s.IsAdmin).Msg("signed in")
	m.notify(r.Context(), Event{Kind: EventSignedIn, UserID: user.ID, Session: s})
	return s, nil
}

// SignOut clears the user from the session cookie.
func (m *Manager) SignOut(w http.ResponseWriter, r *http.Request) error {
	sess, _ := m.store.Get(r, SessionName)
	userID, _ := sess.Values[keyUserID].(string)

	delete(sess.Values, keyUserID)
	if err := sess.Save(r, w); err != nil {
		return fmt.Errorf("save session: %w", err)
	}

	if userID != "" {
		m.roles.Delete(userID)
		m.log.Info().Str("user_id", userID).Msg("signed out")
	}
	m.notify(r.Context(), Event{Kind: EventSignedOut, UserID: userID})
	return nil
}

// Resolve reads the session cookie and loads the user together with the
// admin flag. A lookup that does not finish within the role check timeout
// resolves to an anonymous session.
func (m *Manager) Resolve(r *http.Request) Session {
	sess, _ := m.store.Get(r, SessionName)
	userID, _ := sess.Values[keyUserID].(string)
	if userID == "" {
		return Session{}
	}

	ctx, cancel := context.WithTimeout(r.Context(), m.timeout)
	defer cancel()

	type result struct {
		s   Session
		err error
	}
	done := make(chan result, 1)
	go func() {
		s, err := m.resolveUser(ctx, userID)
		done <- result{s, err}
	}()

	select {
	case res := <-done:
		if errors.Is(res.err, storage.ErrNotFound) {
			return Session{}
		}
		if res.err != nil {
			m.log.Error().Err(res.err).Str("user_id", userID).Msg("session lookup failed")
		}
		return res.s
	case <-ctx.Done():
		m.log.Warn().Str("user_id", userID).Dur("timeout", m.timeout).Msg("session lookup timed out")
		return Session{}
	}
}

// resolveUser builds the user and the admin flag in one step, so no caller
// ever sees a signed-in user whose role has not been checked yet.
func (m *Manager) resolveUser(ctx context.Context, userID string) (Session, error) {
	user, err := storage.GetUser(ctx, m.db, userID)
	if err != nil {
		return Session{}, err
	}

	isAdmin, err := m.IsAdmin(ctx, userID)
	if err != nil {
		return Session{User: &user}, err
	}
	return Session{User: &user, IsAdmin: isAdmin}, nil
}

// IsAdmin checks the admin role, caching the answer briefly.
func (m *Manager) IsAdmin(ctx context.Context, userID string) (bool, error) {
	if v, ok := m.roles.Get(userID); ok {
		return v.(bool), nil
	}

	isAdmin, err := storage.HasRole(ctx, m.db, userID, models.RoleAdmin)
	if err != nil {
		return false, err
	}
	m.roles.SetDefault(userID, isAdmin)
	return isAdmin, nil
}

// InvalidateRoles forgets the cached role answer for userID.
func (m *Manager) InvalidateRoles(userID string) {
	m.roles.Delete(userID)
}
