package middleware

import (
	"net/http"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/hlog"

	"github.com/s/trainingHub/internal/auth"
	"github.com/s/trainingHub/internal/handlers"
	"github.com/s/trainingHub/internal/scope"
)

const keyLocation = "location_id"

// ResolveSession loads the signed-in user and admin flag once per request.
func ResolveSession(h *handlers.Handler) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			s := h.Auth.Resolve(r)
			if s.Authenticated() {
				hlog.FromRequest(r).UpdateContext(func(c zerolog.Context) zerolog.Context {
					return c.Str("user_id", s.UserID())
				})
			}
			next.ServeHTTP(w, r.WithContext(auth.WithSession(r.Context(), s)))
		})
	}
}

// LocationScope takes the location from the location_id query parameter and
// remembers it in the session; without the parameter the remembered
// location is used.
func LocationScope(h *handlers.Handler) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			session, _ := h.Store.Get(r, auth.SessionName)
			remembered, _ := session.Values[keyLocation].(string)

			locationID := r.URL.Query().Get(scope.QueryParam)
			if locationID == "" {
				locationID = remembered
			} else if locationID != remembered {
				session.Values[keyLocation] = locationID
				if err := session.Save(r, w); err != nil {
					hlog.FromRequest(r).Warn().Err(err).Msg("could not remember location")
				}
			}

			next.ServeHTTP(w, r.WithContext(scope.WithLocation(r.Context(), locationID)))
		})
	}
}

// AccessGate lets a request through to the main shell only when the gate
// allows it; otherwise the gate screen is returned instead.
func AccessGate(h *handlers.Handler) func(next http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			state := h.GateState(r)
			if !state.Allowed() {
				w.Header().Set("X-Gate-State", state.String())
				h.WriteGateScreen(w, r, state)
				return
			}
			next.ServeHTTP(w, r)
		}
	}
}

// RequireAdmin rejects requests without an admin session.
func RequireAdmin(h *handlers.Handler) func(next http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			s := h.Session(r)

			if !s.Authenticated() {
				handlers.JSONError(w, "Sign in required", http.StatusUnauthorized)
				return
			}
			if !s.IsAdmin {
				handlers.JSONError(w, "Access denied", http.StatusForbidden)
				return
			}

			next.ServeHTTP(w, r)
		}
	}
}
