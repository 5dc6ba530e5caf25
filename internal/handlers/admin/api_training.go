package admin

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog/hlog"

	"github.com/s/trainingHub/internal/handlers"
	"github.com/s/trainingHub/internal/models"
	"github.com/s/trainingHub/internal/training"
	"github.com/s/trainingHub/internal/validation"
)

// fieldEdit is one inline edit of a table cell.
type fieldEdit struct {
	Field    string `json:"field"`
	Value    string `json:"value"`
	IsActive *bool  `json:"is_active"`
}

// --- SUBJECTS ---

// GET /api/admin/subjects
func (s *Service) ListSubjectsAPI(w http.ResponseWriter, r *http.Request) {
	subjects, err := s.Training.AllSubjects(r.Context())
	if err != nil {
		s.Fail(w, r, err)
		return
	}
	videos, err := s.Training.Videos(r.Context())
	if err != nil {
		s.Fail(w, r, err)
		return
	}

	counts := make(map[string]int, len(subjects))
	for _, v := range videos {
		counts[v.SubjectID]++
	}

	type row struct {
		ID         string `json:"id"`
		Title      string `json:"title"`
		Summary    string `json:"summary"`
		Color      string `json:"accent_color"`
		IsActive   bool   `json:"is_active"`
		SortOrder  int    `json:"sort_order"`
		VideoCount int    `json:"video_count"`
	}
	rows := make([]row, 0, len(subjects))
	for _, sub := range subjects {
		rows = append(rows, row{
			ID:         sub.ID,
			Title:      sub.Title,
			Summary:    sub.Summary,
			Color:      sub.AccentColor,
			IsActive:   sub.IsActive,
			SortOrder:  sub.SortOrder,
			VideoCount: counts[sub.ID],
		})
	}

	handlers.RespondJSON(w, http.StatusOK, rows)
}

// POST /api/admin/subjects
func (s *Service) CreateSubjectAPI(w http.ResponseWriter, r *http.Request) {
	var input training.NewSubject
	if err := handlers.DecodeJSON(r, &input); err != nil {
		handlers.BadJSON(w)
		return
	}

	subject, err := s.Training.CreateSubject(r.Context(), input)
	if err != nil {
		s.Fail(w, r, err)
		return
	}

	handlers.RespondJSON(w, http.StatusCreated, subject)
}

// PATCH /api/admin/subjects/{id}
func (s *Service) UpdateSubjectAPI(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	var input fieldEdit
	if err := handlers.DecodeJSON(r, &input); err != nil {
		handlers.BadJSON(w)
		return
	}
	if input.Field == "" && input.IsActive == nil {
		s.Fail(w, r, validation.Field("field", "is required"))
		return
	}

	if input.Field != "" {
		if err := s.Training.UpdateSubjectField(r.Context(), id, input.Field, input.Value); err != nil {
			s.Fail(w, r, err)
			return
		}
	}
	if input.IsActive != nil {
		if err := s.Training.SetSubjectActive(r.Context(), id, *input.IsActive); err != nil {
			s.Fail(w, r, err)
			return
		}
	}

	handlers.RespondJSON(w, http.StatusOK, map[string]string{"message": "Subject updated"})
}

// DELETE /api/admin/subjects/{id}
// Removes the subject with its videos and every location's progress on them.
func (s *Service) DeleteSubjectAPI(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	if err := s.Training.DeleteSubject(r.Context(), id); err != nil {
		s.Fail(w, r, err)
		return
	}

	hlog.FromRequest(r).Info().Str("subject_id", id).Msg("subject deleted")
	s.LogActivity(r, models.ActionDeleteSubject, map[string]interface{}{"subject_id": id})
	handlers.RespondJSON(w, http.StatusOK, map[string]string{"message": "Subject deleted"})
}

// --- VIDEOS ---

// POST /api/admin/subjects/{id}/videos
func (s *Service) CreateVideoAPI(w http.ResponseWriter, r *http.Request) {
	subjectID := mux.Vars(r)["id"]

	var input training.NewVideo
	if err := handlers.DecodeJSON(r, &input); err != nil {
		handlers.BadJSON(w)
		return
	}

	video, err := s.Training.CreateVideo(r.Context(), subjectID, input)
	if err != nil {
		s.Fail(w, r, err)
		return
	}

	handlers.RespondJSON(w, http.StatusCreated, video)
}

// PATCH /api/admin/videos/{id}
func (s *Service) UpdateVideoAPI(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	var input fieldEdit
	if err := handlers.DecodeJSON(r, &input); err != nil {
		handlers.BadJSON(w)
		return
	}

	if err := s.Training.UpdateVideoField(r.Context(), id, input.Field, input.Value); err != nil {
		s.Fail(w, r, err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, map[string]string{"message": "Video updated"})
}

// DELETE /api/admin/videos/{id}
func (s *Service) DeleteVideoAPI(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	if err := s.Training.DeleteVideo(r.Context(), id); err != nil {
		s.Fail(w, r, err)
		return
	}

	s.LogActivity(r, models.ActionDeleteVideo, map[string]interface{}{"video_id": id})
	handlers.RespondJSON(w, http.StatusOK, map[string]string{"message": "Video deleted"})
}
