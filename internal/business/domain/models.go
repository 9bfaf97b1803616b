package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// Business is one landing page: a template name plus the owner-edited
// content blocks rendered by the front end.
type Business struct {
	ID      snowflake.ID `gorm:"primaryKey" json:"id"`
	OwnerID snowflake.ID `gorm:"column:owner_id;not null;index" json:"owner_id"`
	Name    string       `gorm:"type:text;not null" json:"name"`
	Slug    string       `gorm:"type:text;not null;uniqueIndex" json:"slug"`

	Template  string            `gorm:"type:text;not null;default:classic" json:"template"`
	Content   datatypes.JSONMap `gorm:"type:jsonb" json:"content,omitempty"`
	Published bool              `gorm:"not null;default:false" json:"published"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (Business) TableName() string { return "businesses" }

// Lead is a visitor submission captured from a published page's contact
// form. Available on plans with the leadCapture feature.
type Lead struct {
	ID         snowflake.ID `gorm:"primaryKey" json:"id"`
	BusinessID snowflake.ID `gorm:"column:business_id;not null;index" json:"business_id"`
	Name       string       `gorm:"type:text;not null" json:"name"`
	Email      string       `gorm:"type:text;not null" json:"email"`
	Message    string       `gorm:"type:text" json:"message,omitempty"`
	CreatedAt  time.Time    `gorm:"not null" json:"created_at"`
}

func (Lead) TableName() string { return "leads" }

// PublicPage is the published view served to visitors and cached by slug.
// LeadCapture tells the front end whether to render the contact form; it is
// resolved from the owner's plan when the page is assembled.
type PublicPage struct {
	OwnerID     snowflake.ID   `json:"-"`
	Slug        string         `json:"slug"`
	Name        string         `json:"name"`
	Template    string         `json:"template"`
	Content     map[string]any `json:"content,omitempty"`
	LeadCapture bool           `json:"lead_capture"`
}
