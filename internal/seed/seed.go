package seed

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"

	accountdomain "github.com/pagelift/pagelift/internal/account/domain"
	"github.com/pagelift/pagelift/internal/entitlement"
)

const (
	devOwnerEmail = "owner@pagelift.dev"
	devOwnerName  = "Pagelift Owner"
)

// EnsureDevOwner seeds a default owner account so a fresh dev install can
// exercise the API without a signup flow.
func EnsureDevOwner(db *gorm.DB) error {
	if db == nil {
		return errors.New("seed database handle is required")
	}

	node, err := snowflake.NewNode(1)
	if err != nil {
		return err
	}

	ctx := context.Background()
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing accountdomain.User
		err := tx.First(&existing, "email = ?", devOwnerEmail).Error
		if err == nil {
			return nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		now := time.Now().UTC()
		return tx.Create(&accountdomain.User{
			ID:        node.Generate(),
			Email:     devOwnerEmail,
			Name:      devOwnerName,
			Plan:      string(entitlement.PlanFree),
			CreatedAt: now,
			UpdatedAt: now,
		}).Error
	})
}
