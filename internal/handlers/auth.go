package handlers

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/rs/zerolog/hlog"

	"github.com/s/trainingHub/internal/auth"
	"github.com/s/trainingHub/internal/metrics"
	"github.com/s/trainingHub/internal/models"
	"github.com/s/trainingHub/internal/storage"
)

const keyOAuthState = "oauth_state"

// POST /api/auth/sign-in
func (h *Handler) SignInAPI(w http.ResponseWriter, r *http.Request) {
	var req auth.SignInRequest
	if err := DecodeJSON(r, &req); err != nil {
		BadJSON(w)
		return
	}

	s, err := h.Auth.SignIn(w, r, req)
	if err != nil {
		status := "error"
		if errors.Is(err, storage.ErrInvalidCredentials) {
			status = "rejected"
		}
		metrics.SignInAttempts.WithLabelValues("password", status).Inc()
		h.Fail(w, r, err)
		return
	}

	metrics.SignInAttempts.WithLabelValues("password", "ok").Inc()
	RespondJSON(w, http.StatusOK, s)
}

// POST /api/auth/sign-out
func (h *Handler) SignOutAPI(w http.ResponseWriter, r *http.Request) {
	if err := h.Auth.SignOut(w, r); err != nil {
		h.Fail(w, r, err)
		return
	}
	RespondJSON(w, http.StatusOK, auth.Session{})
}

// GET /api/auth/session
func (h *Handler) SessionAPI(w http.ResponseWriter, r *http.Request) {
	RespondJSON(w, http.StatusOK, h.Session(r))
}

// GET /auth/google/login
func (h *Handler) HandleGoogleLogin(w http.ResponseWriter, r *http.Request) {
	if h.Config == nil {
		h.HandleNotFound(w, r)
		return
	}

	state := uuid.NewString()
	session, _ := h.Store.Get(r, auth.SessionName)
	session.Values[keyOAuthState] = state
	if err := session.Save(r, w); err != nil {
		h.Fail(w, r, err)
		return
	}

	http.Redirect(w, r, h.Config.AuthCodeURL(state), http.StatusTemporaryRedirect)
}

// GET /auth/google/callback
func (h *Handler) HandleGoogleCallback(w http.ResponseWriter, r *http.Request) {
	if h.Config == nil {
		h.HandleNotFound(w, r)
		return
	}

	session, _ := h.Store.Get(r, auth.SessionName)
	want, _ := session.Values[keyOAuthState].(string)
	if want == "" || r.URL.Query().Get("state") != want {
		metrics.SignInAttempts.WithLabelValues("google", "rejected").Inc()
		JSONError(w, "Invalid state", http.StatusUnauthorized)
		return
	}
	delete(session.Values, keyOAuthState)

	profile, err := auth.FetchGoogleProfile(r.Context(), h.Config, r.URL.Query().Get("code"))
	if err != nil {
		hlog.FromRequest(r).Warn().Err(err).Msg("google sign-in failed")
		metrics.SignInAttempts.WithLabelValues("google", "error").Inc()
		JSONError(w, "Google sign-in failed", http.StatusBadRequest)
		return
	}

	user, err := storage.SaveUser(r.Context(), h.DB, models.User{
		GoogleID: profile.ID,
		Email:    profile.Email,
		Name:     profile.Name,
		Picture:  profile.Picture,
	})
	if err != nil {
		metrics.SignInAttempts.WithLabelValues("google", "error").Inc()
		h.Fail(w, r, err)
		return
	}

	if _, err := h.Auth.StartSession(w, r, user); err != nil {
		h.Fail(w, r, err)
		return
	}
	metrics.SignInAttempts.WithLabelValues("google", "ok").Inc()
	http.Redirect(w, r, "/admin", http.StatusSeeOther)
}
