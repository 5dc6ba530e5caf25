package handlers

import (
	"net/http"

	"github.com/s/trainingHub/internal/auth"
	"github.com/s/trainingHub/internal/gate"
	"github.com/s/trainingHub/internal/metrics"
)

// GateState evaluates the access gate for r. Onboarding is only read when
// the decision depends on it.
func (h *Handler) GateState(r *http.Request) gate.State {
	s := h.Session(r)
	a := gate.AuthState{Loading: s.Loading, Authenticated: s.Authenticated(), IsAdmin: s.IsAdmin}
	l := gate.LocationState{ID: h.LocationID(r)}

	var o gate.OnboardingState
	if !a.Loading && !a.IsAdmin && l.Present() {
		o = h.Onboarding.State(r.Context(), l.ID)
	}

	state := gate.ComputeGateState(a, l, o)
	metrics.GateDecisions.WithLabelValues(state.String()).Inc()
	return state
}

// WriteGateScreen renders the screen that stands in for a gated page.
func (h *Handler) WriteGateScreen(w http.ResponseWriter, r *http.Request, state gate.State) {
	payload := map[string]interface{}{"screen": state}

	switch state {
	case gate.AuthLoading, gate.LocationGateLoading:
		w.Header().Set("Retry-After", "1")
		payload["error"] = MsgUnavailable
		RespondJSON(w, http.StatusServiceUnavailable, payload)
		return

	case gate.NoLocation:
		payload["message"] = "Open the Training Hub from your CRM location to get started."
		payload["admin_sign_in"] = "/admin"

	case gate.OnboardingIncomplete:
		session, _ := h.Store.Get(r, auth.SessionName)
		st, err := h.Onboarding.LoadStepper(r.Context(), session, h.LocationID(r))
		if err != nil {
			h.Fail(w, r, err)
			return
		}
		payload["onboarding"] = h.Onboarding.View(st)
	}

	RespondJSON(w, http.StatusOK, payload)
}

// GET /api/gate
func (h *Handler) GateAPI(w http.ResponseWriter, r *http.Request) {
	state := h.GateState(r)
	RespondJSON(w, http.StatusOK, map[string]interface{}{
		"state":       state,
		"allowed":     state.Allowed(),
		"location_id": h.LocationID(r),
		"session":     h.Session(r),
	})
}
