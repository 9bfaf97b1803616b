package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"

	"github.com/pagelift/pagelift/pkg/db/pagination"
)

type Entry struct {
	UserID     snowflake.ID
	Action     string
	EntityType string
	EntityID   *string
	Details    map[string]any
}

type ListRequest struct {
	pagination.Pagination
	UserID     snowflake.ID
	Action     string
	EntityType string
	EntityID   string
}

type ListResponse struct {
	pagination.PageInfo
	Activities []ActivityLog `json:"activities"`
}

// Service records and lists the activity trail. Record is best-effort: it
// makes a single write attempt, logs on failure and never surfaces an error
// to the operation it describes.
type Service interface {
	Record(ctx context.Context, entry Entry)
	List(ctx context.Context, req ListRequest) (ListResponse, error)
}

var (
	ErrInvalidUser      = errors.New("invalid_user")
	ErrInvalidPageToken = errors.New("invalid_page_token")
)
