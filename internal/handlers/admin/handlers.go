package admin

import (
	"net/http"

	"github.com/s/trainingHub/internal/handlers"
	"github.com/s/trainingHub/internal/storage"
)

type Service struct {
	handlers.Handler
}

const recentActivity = 20

// GET /admin
// Always reachable; the screen depends on who is asking.
func (s *Service) HandleAdminPage(w http.ResponseWriter, r *http.Request) {
	session := s.Session(r)
	header := handlers.HeaderFor("/admin")

	switch {
	case session.Loading:
		w.Header().Set("Retry-After", "1")
		handlers.RespondJSON(w, http.StatusServiceUnavailable, map[string]interface{}{
			"screen": "loading",
			"error":  handlers.MsgUnavailable,
		})
		return

	case !session.Authenticated():
		handlers.RespondJSON(w, http.StatusOK, map[string]interface{}{
			"screen": "sign_in",
			"header": header,
			"google": s.Config != nil,
		})
		return

	case !session.IsAdmin:
		handlers.RespondJSON(w, http.StatusOK, map[string]interface{}{
			"screen":   "access_denied",
			"header":   header,
			"user":     session.User,
			"sign_out": "/api/auth/sign-out",
		})
		return
	}

	ctx := r.Context()
	subjects, err := s.Training.AllSubjects(ctx)
	if err != nil {
		s.Fail(w, r, err)
		return
	}
	videos, err := s.Training.Videos(ctx)
	if err != nil {
		s.Fail(w, r, err)
		return
	}
	steps, err := s.Onboarding.AllSteps(ctx)
	if err != nil {
		s.Fail(w, r, err)
		return
	}
	roles, err := storage.ListRoles(ctx, s.DB)
	if err != nil {
		s.Fail(w, r, err)
		return
	}
	activity, err := storage.ListActivity(ctx, s.DB, recentActivity)
	if err != nil {
		s.Fail(w, r, err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"screen": "admin",
		"header": header,
		"user":   session.User,
		"counts": map[string]int{
			"subjects":         len(subjects),
			"videos":           len(videos),
			"onboarding_steps": len(steps),
			"roles":            len(roles),
		},
		"activity": activity,
	})
}
