package automation

import (
	"errors"
	"fmt"

	"github.com/s/trainingHub/internal/models"
)

// ClickThreshold is the pointer travel, in pixels on either axis, at which
// a press stops being a click and becomes a drag.
const ClickThreshold = 5

type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// IsClick reports whether a press released at up after going down at down
// moved less than ClickThreshold on both axes.
func IsClick(down, up Point) bool {
	return abs(up.X-down.X) < ClickThreshold && abs(up.Y-down.Y) < ClickThreshold
}

func abs(f float64) float64 {
	if f < 0 {
		return -f
	}
	return f
}

type ItemKind string

const (
	ItemPalette ItemKind = "palette"
	ItemCard    ItemKind = "card"
)

// DragItem is what the pointer picked up: a palette chip or an existing card.
type DragItem struct {
	Kind     ItemKind        `json:"kind"`
	CardType models.CardType `json:"card_type,omitempty"`
	CardID   string          `json:"card_id,omitempty"`
}

type TargetKind string

const (
	TargetColumn TargetKind = "column"
	TargetCard   TargetKind = "card"
)

// DropTarget is what the item was released over.
type DropTarget struct {
	Kind TargetKind `json:"kind"`
	ID   string     `json:"id"`
}

var (
	ErrInvalidDrag   = errors.New("invalid drag item")
	ErrInvalidTarget = errors.New("drop target is not on this board")
)

// ResolveColumn returns the index of the column the target belongs to.
// A card target resolves to the column whose card list contains it.
func ResolveColumn(board models.AutomationBoard, target DropTarget) (int, bool) {
	for i, col := range board.Columns {
		switch target.Kind {
		case TargetColumn:
			if col.ID == target.ID {
				return i, true
			}
		case TargetCard:
			if cardIndex(col, target.ID) >= 0 {
				return i, true
			}
		}
	}
	return -1, false
}

func cardIndex(col models.AutomationColumn, cardID string) int {
	for i, c := range col.Cards {
		if c.ID == cardID {
			return i
		}
	}
	return -1
}

func cardIDs(cards []models.AutomationCard) []string {
	ids := make([]string, len(cards))
	for i, c := range cards {
		ids[i] = c.ID
	}
	return ids
}

type PlanKind int

const (
	PlanNoop PlanKind = iota
	PlanCreateCard
	PlanReorder
	PlanMoveAcross
)

var planKindNames = [...]string{
	PlanNoop:       "noop",
	PlanCreateCard: "create_card",
	PlanReorder:    "reorder",
	PlanMoveAcross: "move_across",
}

func (k PlanKind) String() string {
	if k < 0 || int(k) >= len(planKindNames) {
		return "unknown"
	}
	return planKindNames[k]
}

func (k PlanKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

func (k *PlanKind) UnmarshalText(text []byte) error {
	for i, name := range planKindNames {
		if name == string(text) {
			*k = PlanKind(i)
			return nil
		}
	}
	return fmt.Errorf("unknown plan kind %q", text)
}

// Plan is the set of writes a drop turns into.
//
//	PlanCreateCard  new CardType card in ColumnID at SortOrder
//	PlanReorder     Order is the column's card ids, to be numbered 0..n-1
//	PlanMoveAcross  CardID goes to ColumnID at SortOrder; Remaining are the
//	                source column's other cards, renumbered 0..n-1
type Plan struct {
	Kind           PlanKind        `json:"kind"`
	ColumnID       string          `json:"column_id,omitempty"`
	CardID         string          `json:"card_id,omitempty"`
	CardType       models.CardType `json:"card_type,omitempty"`
	SortOrder      int             `json:"sort_order"`
	Order          []string        `json:"order,omitempty"`
	SourceColumnID string          `json:"source_column_id,omitempty"`
	Remaining      []string        `json:"remaining,omitempty"`
}

// PlanDrop works out what dropping item on target means for board.
// Drops that change nothing plan to PlanNoop.
func PlanDrop(board models.AutomationBoard, item DragItem, target DropTarget) (Plan, error) {
	to, ok := ResolveColumn(board, target)
	if !ok {
		return Plan{}, ErrInvalidTarget
	}
	dest := board.Columns[to]

	switch item.Kind {
	case ItemPalette:
		if !item.CardType.Valid() {
			return Plan{}, fmt.Errorf("%w: %v", ErrInvalidDrag, models.ErrUnknownCardType)
		}
		return Plan{
			Kind:      PlanCreateCard,
			ColumnID:  dest.ID,
			CardType:  item.CardType,
			SortOrder: len(dest.Cards),
		}, nil

	case ItemCard:
		from, ok := ResolveColumn(board, DropTarget{Kind: TargetCard, ID: item.CardID})
		if !ok {
			return Plan{}, fmt.Errorf("%w: card %q is not on this board", ErrInvalidDrag, item.CardID)
		}
		source := board.Columns[from]

		if from == to {
			return planReorder(source, item.CardID, target), nil
		}

		remaining := make([]string, 0, len(source.Cards))
		for _, c := range source.Cards {
			if c.ID != item.CardID {
				remaining = append(remaining, c.ID)
			}
		}
		return Plan{
			Kind:           PlanMoveAcross,
			ColumnID:       dest.ID,
			CardID:         item.CardID,
			SortOrder:      len(dest.Cards),
			SourceColumnID: source.ID,
			Remaining:      remaining,
		}, nil

	default:
		return Plan{}, fmt.Errorf("%w: kind %q", ErrInvalidDrag, item.Kind)
	}
}

// planReorder moves cardID to the position of the target card. A drop on
// the column body has no position and changes nothing.
func planReorder(col models.AutomationColumn, cardID string, target DropTarget) Plan {
	oldIndex := cardIndex(col, cardID)
	newIndex := -1
	if target.Kind == TargetCard {
		newIndex = cardIndex(col, target.ID)
	}
	if oldIndex < 0 || newIndex < 0 || oldIndex == newIndex {
		return Plan{Kind: PlanNoop}
	}

	return Plan{
		Kind:     PlanReorder,
		ColumnID: col.ID,
		CardID:   cardID,
		Order:    ArrayMove(cardIDs(col.Cards), oldIndex, newIndex),
	}
}

// ArrayMove returns a copy of ids with the element at from removed and
// reinserted at to.
func ArrayMove(ids []string, from, to int) []string {
	out := make([]string, 0, len(ids))
	out = append(out, ids[:from]...)
	out = append(out, ids[from+1:]...)

	moved := ids[from]
	out = append(out, "")
	copy(out[to+1:], out[to:])
	out[to] = moved
	return out
}
