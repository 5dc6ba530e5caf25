package handlers

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog/hlog"
)

// --- TRAINING ---

// GET /training
func (h *Handler) HandleTrainingPage(w http.ResponseWriter, r *http.Request) {
	subjects, err := h.Training.Overview(r.Context(), h.LocationID(r))
	if err != nil {
		h.Fail(w, r, err)
		return
	}

	RespondJSON(w, http.StatusOK, map[string]interface{}{
		"header":      HeaderFor("/training"),
		"location_id": h.LocationID(r),
		"subjects":    subjects,
	})
}

// GET /training/{subjectId}
func (h *Handler) HandleSubjectPage(w http.ResponseWriter, r *http.Request) {
	subjectID := mux.Vars(r)["subjectId"]

	detail, err := h.Training.Subject(r.Context(), h.LocationID(r), subjectID)
	if err != nil {
		h.Fail(w, r, err)
		return
	}

	RespondJSON(w, http.StatusOK, map[string]interface{}{
		"header":      HeaderFor("/training"),
		"location_id": h.LocationID(r),
		"subject":     detail.Progress,
		"videos":      detail.Videos,
	})
}

// GET /report
func (h *Handler) HandleReportPage(w http.ResponseWriter, r *http.Request) {
	report, err := h.Training.Report(r.Context(), h.LocationID(r))
	if err != nil {
		h.Fail(w, r, err)
		return
	}

	RespondJSON(w, http.StatusOK, map[string]interface{}{
		"header":      HeaderFor("/report"),
		"location_id": h.LocationID(r),
		"report":      report,
	})
}

// POST /api/videos/{id}/watched
func (h *Handler) MarkWatchedAPI(w http.ResponseWriter, r *http.Request) {
	videoID := mux.Vars(r)["id"]
	locationID := h.LocationID(r)

	progress, changed, err := h.Training.MarkWatched(r.Context(), locationID, videoID)
	if err != nil {
		h.Fail(w, r, err)
		return
	}
	if changed {
		hlog.FromRequest(r).Info().Str("location_id", locationID).Str("video_id", videoID).Msg("video watched")
	}

	RespondJSON(w, http.StatusOK, map[string]interface{}{
		"progress": progress,
		"changed":  changed,
	})
}
