package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// User owns landing pages and carries the subscription plan binding. The
// plan column is the source of truth the governance layer reads per check;
// the billing webhook writes it directly.
type User struct {
	ID    snowflake.ID `gorm:"primaryKey" json:"id"`
	Email string       `gorm:"type:text;not null;uniqueIndex" json:"email"`
	Name  string       `gorm:"type:text;not null" json:"name"`
	Plan  string       `gorm:"type:text;not null;default:free" json:"plan"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (User) TableName() string { return "users" }
