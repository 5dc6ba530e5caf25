package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
)

// CardType is the closed set of automation step categories.
// The zero value is not a valid card type.
type CardType uint8

const (
	CardTrigger CardType = iota + 1
	CardWait
	CardAction
	CardMove
	CardSMS
	CardEmail
	CardIfElse
	CardNotes
)

var ErrUnknownCardType = errors.New("unknown card type")

// CardTypeInfo is the display metadata of a card type.
type CardTypeInfo struct {
	Name  string `json:"name"`
	Label string `json:"label"`
	Color string `json:"color"`
	Icon  string `json:"icon"`
}

var cardTypeInfo = [...]CardTypeInfo{
	CardTrigger: {Name: "trigger", Label: "Trigger", Color: "#8B5CF6", Icon: "Zap"},
	CardWait:    {Name: "wait", Label: "Wait", Color: "#F59E0B", Icon: "Clock"},
	CardAction:  {Name: "action", Label: "Action", Color: "#3B82F6", Icon: "Play"},
	CardMove:    {Name: "move", Label: "Move", Color: "#10B981", Icon: "ArrowRightLeft"},
	CardSMS:     {Name: "sms", Label: "SMS", Color: "#06B6D4", Icon: "MessageSquare"},
	CardEmail:   {Name: "email", Label: "Email", Color: "#EC4899", Icon: "Mail"},
	CardIfElse:  {Name: "ifelse", Label: "If / Else", Color: "#F97316", Icon: "GitBranch"},
	CardNotes:   {Name: "notes", Label: "Notes", Color: "#64748B", Icon: "StickyNote"},
}

// CardTypes returns every card type in palette order.
func CardTypes() []CardType {
	return []CardType{CardTrigger, CardWait, CardAction, CardMove, CardSMS, CardEmail, CardIfElse, CardNotes}
}

// ParseCardType resolves a stored or wire name.
func ParseCardType(name string) (CardType, error) {
	for _, t := range CardTypes() {
		if cardTypeInfo[t].Name == name {
			return t, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownCardType, name)
}

func (t CardType) Valid() bool {
	return t >= CardTrigger && t <= CardNotes
}

func (t CardType) Info() CardTypeInfo {
	if !t.Valid() {
		return CardTypeInfo{}
	}
	return cardTypeInfo[t]
}

func (t CardType) String() string {
	if !t.Valid() {
		return fmt.Sprintf("CardType(%d)", uint8(t))
	}
	return cardTypeInfo[t].Name
}

func (t CardType) MarshalJSON() ([]byte, error) {
	if !t.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownCardType, uint8(t))
	}
	return json.Marshal(t.String())
}

func (t *CardType) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return err
	}
	parsed, err := ParseCardType(name)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// Value stores the card type by name.
func (t CardType) Value() (driver.Value, error) {
	if !t.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownCardType, uint8(t))
	}
	return t.String(), nil
}

func (t *CardType) Scan(src any) error {
	var name string
	switch v := src.(type) {
	case string:
		name = v
	case []byte:
		name = string(v)
	default:
		return fmt.Errorf("%w: cannot scan %T", ErrUnknownCardType, src)
	}
	parsed, err := ParseCardType(name)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}
