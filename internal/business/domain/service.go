package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
)

type CreateRequest struct {
	OwnerID  snowflake.ID   `json:"-"`
	Name     string         `json:"name"`
	Template string         `json:"template"`
	Content  map[string]any `json:"content"`
}

type UpdateRequest struct {
	ID        snowflake.ID   `json:"-"`
	OwnerID   snowflake.ID   `json:"-"`
	Name      *string        `json:"name,omitempty"`
	Template  *string        `json:"template,omitempty"`
	Content   map[string]any `json:"content,omitempty"`
	Published *bool          `json:"published,omitempty"`
}

type CreateLeadRequest struct {
	Slug    string `json:"-"`
	Name    string `json:"name"`
	Email   string `json:"email"`
	Message string `json:"message"`
}

type Service interface {
	Create(ctx context.Context, req CreateRequest) (*Business, error)
	Get(ctx context.Context, ownerID, id snowflake.ID) (*Business, error)
	ListByOwner(ctx context.Context, ownerID snowflake.ID) ([]Business, error)
	Update(ctx context.Context, req UpdateRequest) (*Business, error)
	Delete(ctx context.Context, ownerID, id snowflake.ID) (*Business, error)

	// GetPublicPage returns the published view for a slug; unpublished
	// pages are indistinguishable from missing ones.
	GetPublicPage(ctx context.Context, slug string) (*PublicPage, error)
	CreateLead(ctx context.Context, req CreateLeadRequest) (*Lead, error)
	ListLeads(ctx context.Context, ownerID, businessID snowflake.ID) ([]Lead, error)
}

var (
	ErrInvalidName  = errors.New("invalid_name")
	ErrInvalidEmail = errors.New("invalid_email")
	ErrNotFound     = errors.New("not_found")
	ErrSlugTaken    = errors.New("slug_taken")
)
