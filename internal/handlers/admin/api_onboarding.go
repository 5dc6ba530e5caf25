package admin

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/s/trainingHub/internal/handlers"
	"github.com/s/trainingHub/internal/models"
	"github.com/s/trainingHub/internal/onboarding"
)

// --- ONBOARDING STEPS ---

// GET /api/admin/onboarding/steps
func (s *Service) ListStepsAPI(w http.ResponseWriter, r *http.Request) {
	steps, err := s.Onboarding.AllSteps(r.Context())
	if err != nil {
		s.Fail(w, r, err)
		return
	}
	handlers.RespondJSON(w, http.StatusOK, steps)
}

// POST /api/admin/onboarding/steps
func (s *Service) CreateStepAPI(w http.ResponseWriter, r *http.Request) {
	var input onboarding.StepInput
	if err := handlers.DecodeJSON(r, &input); err != nil {
		handlers.BadJSON(w)
		return
	}

	step, err := s.Onboarding.CreateStep(r.Context(), input)
	if err != nil {
		s.Fail(w, r, err)
		return
	}

	handlers.RespondJSON(w, http.StatusCreated, step)
}

// PATCH /api/admin/onboarding/steps/{id}
func (s *Service) UpdateStepAPI(w http.ResponseWriter, r *http.Request) {
	var input onboarding.StepUpdate
	if err := handlers.DecodeJSON(r, &input); err != nil {
		handlers.BadJSON(w)
		return
	}

	if err := s.Onboarding.UpdateStep(r.Context(), mux.Vars(r)["id"], input); err != nil {
		s.Fail(w, r, err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, map[string]string{"message": "Step updated"})
}

// DELETE /api/admin/onboarding/steps/{id}
func (s *Service) DeleteStepAPI(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	if err := s.Onboarding.DeleteStep(r.Context(), id); err != nil {
		s.Fail(w, r, err)
		return
	}

	s.LogActivity(r, models.ActionDeleteStep, map[string]interface{}{"step_id": id})
	handlers.RespondJSON(w, http.StatusOK, map[string]string{"message": "Step deleted"})
}
