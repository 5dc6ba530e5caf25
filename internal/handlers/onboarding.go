package handlers

import (
	"net/http"
	"net/url"

	"github.com/s/trainingHub/internal/auth"
	"github.com/s/trainingHub/internal/onboarding"
	"github.com/s/trainingHub/internal/scope"
)

// stepperAction moves the location's stepper and saves its position.
func (h *Handler) stepperAction(w http.ResponseWriter, r *http.Request, act func(st *onboarding.Stepper) error) {
	locationID := h.LocationID(r)
	if locationID == "" {
		h.Fail(w, r, onboarding.ErrNoLocation)
		return
	}

	session, _ := h.Store.Get(r, auth.SessionName)
	st, err := h.Onboarding.LoadStepper(r.Context(), session, locationID)
	if err != nil {
		h.Fail(w, r, err)
		return
	}
	if act != nil {
		if err := act(st); err != nil {
			h.Fail(w, r, err)
			return
		}
	}

	onboarding.SaveStepper(session, locationID, st)
	if err := session.Save(r, w); err != nil {
		h.Fail(w, r, err)
		return
	}
	RespondJSON(w, http.StatusOK, h.Onboarding.View(st))
}

// GET /api/onboarding
func (h *Handler) OnboardingAPI(w http.ResponseWriter, r *http.Request) {
	h.stepperAction(w, r, nil)
}

// POST /api/onboarding/check
func (h *Handler) OnboardingCheckAPI(w http.ResponseWriter, r *http.Request) {
	h.stepperAction(w, r, func(st *onboarding.Stepper) error {
		return h.Onboarding.Check(r.Context(), h.LocationID(r), st)
	})
}

// POST /api/onboarding/continue
func (h *Handler) OnboardingContinueAPI(w http.ResponseWriter, r *http.Request) {
	h.stepperAction(w, r, func(st *onboarding.Stepper) error {
		st.Continue()
		return nil
	})
}

// POST /api/onboarding/back
func (h *Handler) OnboardingBackAPI(w http.ResponseWriter, r *http.Request) {
	h.stepperAction(w, r, func(st *onboarding.Stepper) error {
		st.Back()
		return nil
	})
}

// POST /api/onboarding/finish
// Confirms the completion screen once every step is checked; the gate
// re-reads progress afterwards.
func (h *Handler) OnboardingFinishAPI(w http.ResponseWriter, r *http.Request) {
	locationID := h.LocationID(r)
	if locationID == "" {
		h.Fail(w, r, onboarding.ErrNoLocation)
		return
	}

	session, _ := h.Store.Get(r, auth.SessionName)
	st, err := h.Onboarding.LoadStepper(r.Context(), session, locationID)
	if err != nil {
		h.Fail(w, r, err)
		return
	}
	if !st.Complete() {
		JSONError(w, "Finish every onboarding step first.", http.StatusConflict)
		return
	}

	onboarding.ClearStepper(session, locationID)
	if err := session.Save(r, w); err != nil {
		h.Fail(w, r, err)
		return
	}
	h.Onboarding.Finish(locationID)

	state := h.GateState(r)
	RespondJSON(w, http.StatusOK, map[string]interface{}{
		"gate":     state,
		"redirect": "/training?" + url.Values{scope.QueryParam: {locationID}}.Encode(),
	})
}
