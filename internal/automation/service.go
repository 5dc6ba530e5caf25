// Package automation is the kanban engine behind the automation planner:
// boards of ordered columns holding ordered cards.
package automation

import (
	"context"
	"errors"
	"strings"

	"github.com/rs/zerolog"
	"github.com/s/trainingHub/internal/metrics"
	"github.com/s/trainingHub/internal/models"
	"github.com/s/trainingHub/internal/storage"
	"github.com/s/trainingHub/internal/validation"
	"gorm.io/gorm"
)

var (
	ErrBoardNotFound  = errors.New("Board not found.")
	ErrColumnNotFound = errors.New("Column not found.")
	ErrCardNotFound   = errors.New("Card not found.")
	ErrForbidden      = errors.New("This board is view only.")
	ErrNoLocation     = errors.New("a location is required")
)

// DefaultColumnTitle is the title of a freshly added column.
const DefaultColumnTitle = "New Column"

// Actor is who is acting on the boards and from which location.
type Actor struct {
	LocationID string
	IsAdmin    bool
}

// Editable reports whether actor may change board. Standard boards are
// editable by admins only; every other board by anyone who can see it.
func Editable(board models.AutomationBoard, isAdmin bool) bool {
	return !board.IsStandard || isAdmin
}

// DefaultBoard picks the board shown first: the standard board if there is
// one, otherwise the first board.
func DefaultBoard(boards []models.AutomationBoard) (models.AutomationBoard, bool) {
	for _, b := range boards {
		if b.IsStandard {
			return b, true
		}
	}
	if len(boards) > 0 {
		return boards[0], true
	}
	return models.AutomationBoard{}, false
}

func visible(board models.AutomationBoard, a Actor) bool {
	if board.IsStandard || board.LocationID == nil || a.IsAdmin {
		return true
	}
	return *board.LocationID == a.LocationID
}

type Service struct {
	db  *gorm.DB
	log zerolog.Logger
}

func NewService(db *gorm.DB, log zerolog.Logger) *Service {
	return &Service{db: db, log: log.With().Str("component", "automation").Logger()}
}

// BoardView is a board with its nested columns and cards as the actor sees it.
type BoardView struct {
	models.AutomationBoard
	Editable bool `json:"editable"`
}

func view(b models.AutomationBoard, a Actor) BoardView {
	for i := range b.Columns {
		if b.Columns[i].Cards == nil {
			b.Columns[i].Cards = []models.AutomationCard{}
		}
	}
	if b.Columns == nil {
		b.Columns = []models.AutomationColumn{}
	}
	return BoardView{AutomationBoard: b, Editable: Editable(b, a.IsAdmin)}
}

// Overview is the planner screen.
type Overview struct {
	Boards        []BoardView           `json:"boards"`
	ActiveBoardID string                `json:"active_board_id,omitempty"`
	Palette       []models.CardTypeInfo `json:"palette"`
}

func Palette() []models.CardTypeInfo {
	types := models.CardTypes()
	out := make([]models.CardTypeInfo, 0, len(types))
	for _, t := range types {
		out = append(out, t.Info())
	}
	return out
}

// Boards lists the standard boards and the actor's location boards.
func (s *Service) Boards(ctx context.Context, a Actor) (Overview, error) {
	boards, err := storage.ListBoards(ctx, s.db, a.LocationID)
	if err != nil {
		return Overview{}, err
	}

	out := Overview{Boards: make([]BoardView, 0, len(boards)), Palette: Palette()}
	for _, b := range boards {
		out.Boards = append(out.Boards, view(b, a))
	}
	if def, ok := DefaultBoard(boards); ok {
		out.ActiveBoardID = def.ID
	}
	return out, nil
}

// Board loads one board tree.
func (s *Service) Board(ctx context.Context, a Actor, id string) (BoardView, error) {
	b, err := s.board(ctx, a, id)
	if err != nil {
		return BoardView{}, err
	}
	return view(b, a), nil
}

func (s *Service) board(ctx context.Context, a Actor, id string) (models.AutomationBoard, error) {
	b, err := storage.GetBoard(ctx, s.db, id)
	if errors.Is(err, storage.ErrNotFound) {
		return b, ErrBoardNotFound
	}
	if err != nil {
		return b, err
	}
	if !visible(b, a) {
		return models.AutomationBoard{}, ErrBoardNotFound
	}
	return b, nil
}

func (s *Service) editableBoard(ctx context.Context, a Actor, id string) (models.AutomationBoard, error) {
	b, err := s.board(ctx, a, id)
	if err != nil {
		return b, err
	}
	if !Editable(b, a.IsAdmin) {
		return b, ErrForbidden
	}
	return b, nil
}

type NewBoard struct {
	Name string `json:"name" validate:"required,max=120"`
}

// CreateBoard adds a location board after the boards the actor can see.
func (s *Service) CreateBoard(ctx context.Context, a Actor, in NewBoard) (BoardView, error) {
	in.Name = strings.TrimSpace(in.Name)
	if err := validation.Struct(in); err != nil {
		return BoardView{}, err
	}
	if a.LocationID == "" {
		return BoardView{}, ErrNoLocation
	}

	existing, err := storage.ListBoards(ctx, s.db, a.LocationID)
	if err != nil {
		return BoardView{}, err
	}

	loc := a.LocationID
	board := models.AutomationBoard{
		Name:       in.Name,
		LocationID: &loc,
		IsStandard: false,
		SortOrder:  len(existing),
	}
	if err := storage.CreateBoard(ctx, s.db, &board); err != nil {
		return BoardView{}, err
	}
	s.log.Info().Str("board_id", board.ID).Str("location_id", loc).Msg("board created")
	return view(board, a), nil
}

// DeleteBoard removes the board with its columns and cards and returns the
// board to show next.
func (s *Service) DeleteBoard(ctx context.Context, a Actor, id string) (string, error) {
	if _, err := s.editableBoard(ctx, a, id); err != nil {
		return "", err
	}
	if err := storage.DeleteBoard(ctx, s.db, id); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return "", ErrBoardNotFound
		}
		return "", err
	}
	s.log.Info().Str("board_id", id).Msg("board deleted")

	boards, err := storage.ListBoards(ctx, s.db, a.LocationID)
	if err != nil {
		return "", err
	}
	def, _ := DefaultBoard(boards)
	return def.ID, nil
}

// AddColumn appends a "New Column" to the board.
func (s *Service) AddColumn(ctx context.Context, a Actor, boardID string) (models.AutomationColumn, error) {
	if _, err := s.editableBoard(ctx, a, boardID); err != nil {
		return models.AutomationColumn{}, err
	}
	col := models.AutomationColumn{BoardID: boardID, Title: DefaultColumnTitle}
	if err := storage.CreateColumn(ctx, s.db, &col); err != nil {
		return models.AutomationColumn{}, err
	}
	col.Cards = []models.AutomationCard{}
	return col, nil
}

func (s *Service) column(ctx context.Context, a Actor, id string) (models.AutomationColumn, error) {
	col, err := storage.GetColumn(ctx, s.db, id)
	if errors.Is(err, storage.ErrNotFound) {
		return col, ErrColumnNotFound
	}
	if err != nil {
		return col, err
	}
	if _, err := s.editableBoard(ctx, a, col.BoardID); err != nil {
		if errors.Is(err, ErrBoardNotFound) {
			return col, ErrColumnNotFound
		}
		return col, err
	}
	return col, nil
}

// RenameColumn sets the column title. An empty or unchanged title is a no-op;
// changed reports whether anything was written.
func (s *Service) RenameColumn(ctx context.Context, a Actor, id, title string) (changed bool, err error) {
	col, err := s.column(ctx, a, id)
	if err != nil {
		return false, err
	}

	title = strings.TrimSpace(title)
	if title == "" || title == col.Title {
		return false, nil
	}
	if len(title) > 120 {
		return false, validation.Field("title", "must be at most 120 characters")
	}
	if err := storage.RenameColumn(ctx, s.db, id, title); err != nil {
		return false, err
	}
	return true, nil
}

// DeleteColumn deletes the column and every card in it.
func (s *Service) DeleteColumn(ctx context.Context, a Actor, id string) error {
	if _, err := s.column(ctx, a, id); err != nil {
		return err
	}
	err := storage.DeleteColumn(ctx, s.db, id)
	if errors.Is(err, storage.ErrNotFound) {
		return ErrColumnNotFound
	}
	return err
}

// CardDetail is the card modal. ViewOnly is set on boards the actor
// cannot edit.
type CardDetail struct {
	Card     models.AutomationCard `json:"card"`
	Type     models.CardTypeInfo   `json:"type"`
	HasNotes bool                  `json:"has_notes"`
	ViewOnly bool                  `json:"view_only"`
}

// Card opens the detail of a card on any board visible to the actor.
func (s *Service) Card(ctx context.Context, a Actor, id string) (CardDetail, error) {
	card, board, err := s.cardWithBoard(ctx, a, id)
	if err != nil {
		return CardDetail{}, err
	}
	return CardDetail{
		Card:     card,
		Type:     card.CardType.Info(),
		HasNotes: card.HasNotes(),
		ViewOnly: !Editable(board, a.IsAdmin),
	}, nil
}

func (s *Service) cardWithBoard(ctx context.Context, a Actor, id string) (models.AutomationCard, models.AutomationBoard, error) {
	card, err := storage.GetCard(ctx, s.db, id)
	if errors.Is(err, storage.ErrNotFound) {
		return card, models.AutomationBoard{}, ErrCardNotFound
	}
	if err != nil {
		return card, models.AutomationBoard{}, err
	}

	col, err := storage.GetColumn(ctx, s.db, card.ColumnID)
	if err != nil {
		return card, models.AutomationBoard{}, err
	}
	board, err := s.board(ctx, a, col.BoardID)
	if errors.Is(err, ErrBoardNotFound) {
		return card, board, ErrCardNotFound
	}
	return card, board, err
}

type CardUpdate struct {
	Label string  `json:"label" validate:"max=200"`
	Notes *string `json:"notes" validate:"omitempty,max=5000"`
}

// UpdateCard saves label and notes together. Blank notes are cleared.
func (s *Service) UpdateCard(ctx context.Context, a Actor, id string, in CardUpdate) (CardDetail, error) {
	in.Label = strings.TrimSpace(in.Label)
	if in.Notes != nil && strings.TrimSpace(*in.Notes) == "" {
		in.Notes = nil
	}
	if err := validation.Struct(in); err != nil {
		return CardDetail{}, err
	}

	_, board, err := s.cardWithBoard(ctx, a, id)
	if err != nil {
		return CardDetail{}, err
	}
	if !Editable(board, a.IsAdmin) {
		return CardDetail{}, ErrForbidden
	}

	if err := storage.UpdateCard(ctx, s.db, id, in.Label, in.Notes); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return CardDetail{}, ErrCardNotFound
		}
		return CardDetail{}, err
	}
	return s.Card(ctx, a, id)
}

// DeleteCard removes one card; its siblings keep their sort order.
func (s *Service) DeleteCard(ctx context.Context, a Actor, id string) error {
	_, board, err := s.cardWithBoard(ctx, a, id)
	if err != nil {
		return err
	}
	if !Editable(board, a.IsAdmin) {
		return ErrForbidden
	}
	err = storage.DeleteCard(ctx, s.db, id)
	if errors.Is(err, storage.ErrNotFound) {
		return ErrCardNotFound
	}
	return err
}

// Drop plans and applies a drop on boardID.
func (s *Service) Drop(ctx context.Context, a Actor, boardID string, item DragItem, target DropTarget) (Plan, error) {
	board, err := s.editableBoard(ctx, a, boardID)
	if err != nil {
		return Plan{}, err
	}

	plan, err := PlanDrop(board, item, target)
	if err != nil {
		metrics.CardDrops.WithLabelValues("rejected").Inc()
		return Plan{}, err
	}
	if err := s.apply(ctx, &plan); err != nil {
		metrics.CardDrops.WithLabelValues("failed").Inc()
		return Plan{}, err
	}

	metrics.CardDrops.WithLabelValues(plan.Kind.String()).Inc()
	s.log.Info().
		Str("board_id", boardID).
		Stringer("plan", plan.Kind).
		Str("column_id", plan.ColumnID).
		Msg("card dropped")
	return plan, nil
}

func (s *Service) apply(ctx context.Context, plan *Plan) error {
	switch plan.Kind {
	case PlanCreateCard:
		card := models.AutomationCard{
			ColumnID:  plan.ColumnID,
			CardType:  plan.CardType,
			Label:     "",
			Notes:     nil,
			SortOrder: plan.SortOrder,
		}
		if err := storage.CreateCard(ctx, s.db, &card); err != nil {
			return err
		}
		plan.CardID = card.ID
		metrics.CardsCreated.WithLabelValues(card.CardType.String()).Inc()
		return nil
	case PlanReorder:
		return storage.RenumberCards(ctx, s.db, plan.Order)
	case PlanMoveAcross:
		err := storage.MoveCard(ctx, s.db, plan.CardID, plan.ColumnID, plan.SortOrder, plan.Remaining)
		if errors.Is(err, storage.ErrNotFound) {
			return ErrCardNotFound
		}
		return err
	default:
		return nil
	}
}

// PointerEvent is one press-and-release on a board. Target is nil when the
// pointer was released outside any column or card.
type PointerEvent struct {
	Down   Point       `json:"down"`
	Up     Point       `json:"up"`
	Item   DragItem    `json:"item"`
	Target *DropTarget `json:"target"`
}

// PointerResult is either an opened card (click) or an applied drop.
type PointerResult struct {
	Click bool        `json:"click"`
	Card  *CardDetail `json:"card,omitempty"`
	Plan  *Plan       `json:"plan,omitempty"`
	Board *BoardView  `json:"board,omitempty"`
}

// Pointer classifies a press as click or drag. A click on a card opens its
// detail; a drag with a target applies the drop and returns the refreshed
// board.
func (s *Service) Pointer(ctx context.Context, a Actor, boardID string, ev PointerEvent) (PointerResult, error) {
	if IsClick(ev.Down, ev.Up) {
		res := PointerResult{Click: true}
		if ev.Item.Kind != ItemCard {
			return res, nil
		}
		detail, err := s.Card(ctx, a, ev.Item.CardID)
		if err != nil {
			return PointerResult{}, err
		}
		res.Card = &detail
		return res, nil
	}

	if ev.Target == nil {
		return PointerResult{Plan: &Plan{Kind: PlanNoop}}, nil
	}

	plan, err := s.Drop(ctx, a, boardID, ev.Item, *ev.Target)
	if err != nil {
		return PointerResult{}, err
	}
	board, err := s.Board(ctx, a, boardID)
	if err != nil {
		return PointerResult{}, err
	}
	return PointerResult{Plan: &plan, Board: &board}, nil
}
