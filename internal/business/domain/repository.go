package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, business *Business) error
	FindByID(ctx context.Context, db *gorm.DB, ownerID, id snowflake.ID) (*Business, error)
	FindBySlug(ctx context.Context, db *gorm.DB, slug string) (*Business, error)
	ListByOwner(ctx context.Context, db *gorm.DB, ownerID snowflake.ID) ([]Business, error)
	CountByOwner(ctx context.Context, db *gorm.DB, ownerID snowflake.ID) (int64, error)
	Update(ctx context.Context, db *gorm.DB, business *Business) error
	Delete(ctx context.Context, db *gorm.DB, ownerID, id snowflake.ID) error

	InsertLead(ctx context.Context, db *gorm.DB, lead *Lead) error
	ListLeads(ctx context.Context, db *gorm.DB, businessID snowflake.ID) ([]Lead, error)
}
