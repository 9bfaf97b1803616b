package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// ActivityLog is an immutable audit entry for a state-changing operation.
// Rows are append-only; nothing updates or reorders them after insert.
type ActivityLog struct {
	ID         snowflake.ID      `gorm:"primaryKey" json:"id"`
	UserID     snowflake.ID      `gorm:"column:user_id;not null;index:idx_activity_user_created" json:"user_id"`
	Action     string            `gorm:"type:text;not null" json:"action"`
	EntityType string            `gorm:"type:text;not null" json:"entity_type"`
	EntityID   *string           `gorm:"type:text" json:"entity_id,omitempty"`
	Details    datatypes.JSONMap `gorm:"type:jsonb" json:"details,omitempty"`
	CreatedAt  time.Time         `gorm:"not null;index:idx_activity_user_created" json:"created_at"`
}

func (ActivityLog) TableName() string { return "activity_logs" }

// ActivityCursor is the keyset position for paging the trail newest-first.
type ActivityCursor struct {
	ID        snowflake.ID
	CreatedAt time.Time
}

type ListFilter struct {
	UserID     snowflake.ID
	Action     string
	EntityType string
	EntityID   string
	Cursor     *ActivityCursor
	Limit      int
}
