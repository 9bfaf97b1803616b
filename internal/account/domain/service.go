package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"

	"github.com/pagelift/pagelift/internal/entitlement"
)

type CreateRequest struct {
	Email string `json:"email"`
	Name  string `json:"name"`
	Plan  string `json:"plan"`
}

type Service interface {
	Create(ctx context.Context, req CreateRequest) (*User, error)
	Get(ctx context.Context, id snowflake.ID) (*User, error)

	// GetUserPlan is the single point read the governance layer performs
	// per check. Missing users resolve to an error, never a default plan.
	GetUserPlan(ctx context.Context, id snowflake.ID) (entitlement.Plan, error)

	// UpdatePlan applies a plan change from the payment provider webhook.
	UpdatePlan(ctx context.Context, id snowflake.ID, plan entitlement.Plan) error
}

var (
	ErrInvalidEmail = errors.New("invalid_email")
	ErrInvalidName  = errors.New("invalid_name")
	ErrNotFound     = errors.New("not_found")
	ErrDuplicate    = errors.New("duplicate_email")
)
