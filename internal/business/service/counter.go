package service

import (
	"context"
	"fmt"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"

	accessdomain "github.com/pagelift/pagelift/internal/access/domain"
	"github.com/pagelift/pagelift/internal/business/domain"
	"github.com/pagelift/pagelift/internal/entitlement"
)

// Counter resolves quota names onto owner resource counts for the
// governance layer.
type Counter struct {
	db   *gorm.DB
	repo domain.Repository
}

func NewCounter(db *gorm.DB, repo domain.Repository) accessdomain.ResourceCounter {
	return &Counter{db: db, repo: repo}
}

func (c *Counter) CountResourcesByOwner(ctx context.Context, ownerID snowflake.ID, quota entitlement.Quota) (int64, error) {
	switch quota {
	case entitlement.QuotaLandingPages:
		return c.repo.CountByOwner(ctx, c.db, ownerID)
	default:
		// No counter means the check fails closed rather than guessing.
		return 0, fmt.Errorf("no resource counter for quota %q", quota)
	}
}
