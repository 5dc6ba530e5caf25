package models

import (
	"time"

	"gorm.io/gorm"
)

// AutomationBoard. LocationID is nil for the shared standard board.
type AutomationBoard struct {
	ID         string    `gorm:"type:varchar(36);primaryKey" json:"id"`
	CreatedAt  time.Time `json:"created_at"`
	LocationID *string   `gorm:"type:varchar(64);index" json:"location_id"`
	Name       string    `gorm:"not null" json:"name"`
	IsStandard bool      `json:"is_standard"`
	SortOrder  int       `json:"sort_order"`

	Columns []AutomationColumn `gorm:"foreignKey:BoardID" json:"columns"`
}

func (AutomationBoard) TableName() string { return "automation_boards" }

func (b *AutomationBoard) BeforeCreate(tx *gorm.DB) error {
	assignID(&b.ID)
	return nil
}

// AutomationColumn (ordered within a board)
type AutomationColumn struct {
	ID        string `gorm:"type:varchar(36);primaryKey" json:"id"`
	BoardID   string `gorm:"type:varchar(36);not null;index" json:"board_id"`
	Title     string `gorm:"not null" json:"title"`
	SortOrder int    `json:"sort_order"`

	Cards []AutomationCard `gorm:"foreignKey:ColumnID" json:"cards"`
}

func (AutomationColumn) TableName() string { return "automation_columns" }

func (c *AutomationColumn) BeforeCreate(tx *gorm.DB) error {
	assignID(&c.ID)
	return nil
}

// AutomationCard (ordered within a column)
type AutomationCard struct {
	ID        string   `gorm:"type:varchar(36);primaryKey" json:"id"`
	ColumnID  string   `gorm:"type:varchar(36);not null;index" json:"column_id"`
	CardType  CardType `gorm:"type:varchar(32);not null" json:"card_type"`
	Label     string   `json:"label"`
	Notes     *string  `json:"notes"`
	SortOrder int      `json:"sort_order"`
}

func (AutomationCard) TableName() string { return "automation_cards" }

func (c *AutomationCard) BeforeCreate(tx *gorm.DB) error {
	assignID(&c.ID)
	return nil
}

// HasNotes drives the small dot indicator on a card.
func (c AutomationCard) HasNotes() bool {
	return c.Notes != nil && *c.Notes != ""
}
