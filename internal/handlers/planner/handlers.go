// Package planner serves the automation planner screen and its board API.
package planner

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/s/trainingHub/internal/automation"
	"github.com/s/trainingHub/internal/handlers"
	"github.com/s/trainingHub/internal/models"
)

type Service struct {
	handlers.Handler
}

// GET /automation
func (s *Service) HandlePlannerPage(w http.ResponseWriter, r *http.Request) {
	overview, err := s.Automation.Boards(r.Context(), s.Actor(r))
	if err != nil {
		s.Fail(w, r, err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"header":      handlers.HeaderFor("/automation"),
		"location_id": s.LocationID(r),
		"planner":     overview,
	})
}

// --- BOARDS ---

// GET /api/automation/boards
func (s *Service) ListBoardsAPI(w http.ResponseWriter, r *http.Request) {
	overview, err := s.Automation.Boards(r.Context(), s.Actor(r))
	if err != nil {
		s.Fail(w, r, err)
		return
	}
	handlers.RespondJSON(w, http.StatusOK, overview)
}

// GET /api/automation/boards/{id}
func (s *Service) BoardAPI(w http.ResponseWriter, r *http.Request) {
	board, err := s.Automation.Board(r.Context(), s.Actor(r), mux.Vars(r)["id"])
	if err != nil {
		s.Fail(w, r, err)
		return
	}
	handlers.RespondJSON(w, http.StatusOK, board)
}

// POST /api/automation/boards
func (s *Service) CreateBoardAPI(w http.ResponseWriter, r *http.Request) {
	var input automation.NewBoard
	if err := handlers.DecodeJSON(r, &input); err != nil {
		handlers.BadJSON(w)
		return
	}

	board, err := s.Automation.CreateBoard(r.Context(), s.Actor(r), input)
	if err != nil {
		s.Fail(w, r, err)
		return
	}

	handlers.RespondJSON(w, http.StatusCreated, board)
}

// DELETE /api/automation/boards/{id}
func (s *Service) DeleteBoardAPI(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	next, err := s.Automation.DeleteBoard(r.Context(), s.Actor(r), id)
	if err != nil {
		s.Fail(w, r, err)
		return
	}

	s.LogActivity(r, models.ActionDeleteBoard, map[string]interface{}{"board_id": id})
	handlers.RespondJSON(w, http.StatusOK, map[string]string{"active_board_id": next})
}

// --- COLUMNS ---

// POST /api/automation/boards/{id}/columns
func (s *Service) AddColumnAPI(w http.ResponseWriter, r *http.Request) {
	col, err := s.Automation.AddColumn(r.Context(), s.Actor(r), mux.Vars(r)["id"])
	if err != nil {
		s.Fail(w, r, err)
		return
	}
	handlers.RespondJSON(w, http.StatusCreated, col)
}

// PATCH /api/automation/columns/{id}
func (s *Service) RenameColumnAPI(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Title string `json:"title"`
	}
	if err := handlers.DecodeJSON(r, &input); err != nil {
		handlers.BadJSON(w)
		return
	}

	changed, err := s.Automation.RenameColumn(r.Context(), s.Actor(r), mux.Vars(r)["id"], input.Title)
	if err != nil {
		s.Fail(w, r, err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, map[string]bool{"changed": changed})
}

// DELETE /api/automation/columns/{id}
func (s *Service) DeleteColumnAPI(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	if err := s.Automation.DeleteColumn(r.Context(), s.Actor(r), id); err != nil {
		s.Fail(w, r, err)
		return
	}

	s.LogActivity(r, models.ActionDeleteColumn, map[string]interface{}{"column_id": id})
	handlers.RespondJSON(w, http.StatusOK, map[string]string{"message": "Column deleted"})
}

// --- CARDS ---

// POST /api/automation/boards/{id}/pointer
// One press-and-release: a click opens the card, a drag drops it.
func (s *Service) PointerAPI(w http.ResponseWriter, r *http.Request) {
	var ev automation.PointerEvent
	if err := handlers.DecodeJSON(r, &ev); err != nil {
		handlers.BadJSON(w)
		return
	}

	res, err := s.Automation.Pointer(r.Context(), s.Actor(r), mux.Vars(r)["id"], ev)
	if err != nil {
		s.Fail(w, r, err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, res)
}

// GET /api/automation/cards/{id}
func (s *Service) CardAPI(w http.ResponseWriter, r *http.Request) {
	detail, err := s.Automation.Card(r.Context(), s.Actor(r), mux.Vars(r)["id"])
	if err != nil {
		s.Fail(w, r, err)
		return
	}
	handlers.RespondJSON(w, http.StatusOK, detail)
}

// PATCH /api/automation/cards/{id}
func (s *Service) UpdateCardAPI(w http.ResponseWriter, r *http.Request) {
	var input automation.CardUpdate
	if err := handlers.DecodeJSON(r, &input); err != nil {
		handlers.BadJSON(w)
		return
	}

	detail, err := s.Automation.UpdateCard(r.Context(), s.Actor(r), mux.Vars(r)["id"], input)
	if err != nil {
		s.Fail(w, r, err)
		return
	}
	handlers.RespondJSON(w, http.StatusOK, detail)
}

// DELETE /api/automation/cards/{id}
func (s *Service) DeleteCardAPI(w http.ResponseWriter, r *http.Request) {
	if err := s.Automation.DeleteCard(r.Context(), s.Actor(r), mux.Vars(r)["id"]); err != nil {
		s.Fail(w, r, err)
		return
	}
	handlers.RespondJSON(w, http.StatusOK, map[string]string{"message": "Card deleted"})
}
