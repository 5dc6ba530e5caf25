package models

import (
	"time"

	"gorm.io/datatypes"
)

// ActivityLog keeps the history of sign-ins and destructive admin actions.
type ActivityLog struct {
	ID         uint           `gorm:"primarykey" json:"id"`
	UserID     string         `gorm:"type:varchar(36);index" json:"user_id"`
	LocationID string         `gorm:"type:varchar(64)" json:"location_id,omitempty"`
	Action     string         `json:"action"` // "sign_in", "sign_out", "delete_subject", "delete_board", ...
	Details    datatypes.JSON `json:"details"`
	CreatedAt  time.Time      `json:"created_at"`
}

// Activity actions.
const (
	ActionSignIn        = "sign_in"
	ActionSignOut       = "sign_out"
	ActionDeleteSubject = "delete_subject"
	ActionDeleteVideo   = "delete_video"
	ActionDeleteBoard   = "delete_board"
	ActionDeleteColumn  = "delete_column"
	ActionDeleteStep    = "delete_onboarding_step"
	ActionGrantRole     = "grant_role"
	ActionRevokeRole    = "revoke_role"
)
