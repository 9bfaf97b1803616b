package repository

import (
	"context"
	"errors"
	"strings"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"

	"github.com/pagelift/pagelift/internal/business/domain"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, business *domain.Business) error {
	return db.WithContext(ctx).Create(business).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, ownerID, id snowflake.ID) (*domain.Business, error) {
	var business domain.Business
	err := db.WithContext(ctx).First(&business, "owner_id = ? AND id = ?", ownerID, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &business, nil
}

func (r *repo) FindBySlug(ctx context.Context, db *gorm.DB, slug string) (*domain.Business, error) {
	var business domain.Business
	err := db.WithContext(ctx).First(&business, "slug = ?", strings.TrimSpace(slug)).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &business, nil
}

func (r *repo) ListByOwner(ctx context.Context, db *gorm.DB, ownerID snowflake.ID) ([]domain.Business, error) {
	var businesses []domain.Business
	err := db.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Order("created_at desc, id desc").
		Find(&businesses).Error
	if err != nil {
		return nil, err
	}
	return businesses, nil
}

func (r *repo) CountByOwner(ctx context.Context, db *gorm.DB, ownerID snowflake.ID) (int64, error) {
	var count int64
	err := db.WithContext(ctx).Model(&domain.Business{}).
		Where("owner_id = ?", ownerID).
		Count(&count).Error
	return count, err
}

func (r *repo) Update(ctx context.Context, db *gorm.DB, business *domain.Business) error {
	return db.WithContext(ctx).Save(business).Error
}

func (r *repo) Delete(ctx context.Context, db *gorm.DB, ownerID, id snowflake.ID) error {
	result := db.WithContext(ctx).
		Where("owner_id = ? AND id = ?", ownerID, id).
		Delete(&domain.Business{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *repo) InsertLead(ctx context.Context, db *gorm.DB, lead *domain.Lead) error {
	return db.WithContext(ctx).Create(lead).Error
}

func (r *repo) ListLeads(ctx context.Context, db *gorm.DB, businessID snowflake.ID) ([]domain.Lead, error) {
	var leads []domain.Lead
	err := db.WithContext(ctx).
		Where("business_id = ?", businessID).
		Order("created_at desc, id desc").
		Find(&leads).Error
	if err != nil {
		return nil, err
	}
	return leads, nil
}
