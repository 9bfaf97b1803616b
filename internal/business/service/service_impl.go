package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gosimple/slug"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/pagelift/pagelift/internal/business/domain"
	"github.com/pagelift/pagelift/pkg/db"
)

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Repo  domain.Repository
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
	repo  domain.Repository
}

func NewService(p Params) domain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("business.service"),
		genID: p.GenID,
		repo:  p.Repo,
	}
}

func (s *Service) Create(ctx context.Context, req domain.CreateRequest) (*domain.Business, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, domain.ErrInvalidName
	}
	template := strings.TrimSpace(req.Template)
	if template == "" {
		template = "classic"
	}

	now := time.Now().UTC()
	business := domain.Business{
		ID:        s.genID.Generate(),
		OwnerID:   req.OwnerID,
		Name:      name,
		Slug:      slug.Make(name),
		Template:  template,
		Content:   datatypes.JSONMap(req.Content),
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.repo.Insert(ctx, s.db, &business); err != nil {
		if !db.IsDuplicateKeyErr(err) {
			return nil, err
		}
		// Slug collision with another owner's page: disambiguate with the
		// low bits of the snowflake and retry once.
		business.Slug = fmt.Sprintf("%s-%d", business.Slug, business.ID%100000)
		if err := s.repo.Insert(ctx, s.db, &business); err != nil {
			if db.IsDuplicateKeyErr(err) {
				return nil, domain.ErrSlugTaken
			}
			return nil, err
		}
	}
	return &business, nil
}

func (s *Service) Get(ctx context.Context, ownerID, id snowflake.ID) (*domain.Business, error) {
	return s.repo.FindByID(ctx, s.db, ownerID, id)
}

func (s *Service) ListByOwner(ctx context.Context, ownerID snowflake.ID) ([]domain.Business, error) {
	return s.repo.ListByOwner(ctx, s.db, ownerID)
}

func (s *Service) Update(ctx context.Context, req domain.UpdateRequest) (*domain.Business, error) {
	business, err := s.repo.FindByID(ctx, s.db, req.OwnerID, req.ID)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, domain.ErrInvalidName
		}
		business.Name = name
	}
	if req.Template != nil && strings.TrimSpace(*req.Template) != "" {
		business.Template = strings.TrimSpace(*req.Template)
	}
	if req.Content != nil {
		business.Content = datatypes.JSONMap(req.Content)
	}
	if req.Published != nil {
		business.Published = *req.Published
	}
	business.UpdatedAt = time.Now().UTC()

	if err := s.repo.Update(ctx, s.db, business); err != nil {
		return nil, err
	}
	return business, nil
}

func (s *Service) Delete(ctx context.Context, ownerID, id snowflake.ID) (*domain.Business, error) {
	business, err := s.repo.FindByID(ctx, s.db, ownerID, id)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Delete(ctx, s.db, ownerID, id); err != nil {
		return nil, err
	}
	return business, nil
}

func (s *Service) GetPublicPage(ctx context.Context, slugName string) (*domain.PublicPage, error) {
	business, err := s.repo.FindBySlug(ctx, s.db, slugName)
	if err != nil {
		return nil, err
	}
	if !business.Published {
		return nil, domain.ErrNotFound
	}
	return &domain.PublicPage{
		OwnerID:  business.OwnerID,
		Slug:     business.Slug,
		Name:     business.Name,
		Template: business.Template,
		Content:  business.Content,
	}, nil
}

func (s *Service) CreateLead(ctx context.Context, req domain.CreateLeadRequest) (*domain.Lead, error) {
	business, err := s.repo.FindBySlug(ctx, s.db, req.Slug)
	if err != nil {
		return nil, err
	}
	if !business.Published {
		return nil, domain.ErrNotFound
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, domain.ErrInvalidName
	}
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" || !strings.Contains(email, "@") {
		return nil, domain.ErrInvalidEmail
	}

	lead := domain.Lead{
		ID:         s.genID.Generate(),
		BusinessID: business.ID,
		Name:       name,
		Email:      email,
		Message:    strings.TrimSpace(req.Message),
		CreatedAt:  time.Now().UTC(),
	}
	if err := s.repo.InsertLead(ctx, s.db, &lead); err != nil {
		return nil, err
	}
	return &lead, nil
}

func (s *Service) ListLeads(ctx context.Context, ownerID, businessID snowflake.ID) ([]domain.Lead, error) {
	// Ownership check first so one owner cannot read another's leads.
	if _, err := s.repo.FindByID(ctx, s.db, ownerID, businessID); err != nil {
		return nil, err
	}
	return s.repo.ListLeads(ctx, s.db, businessID)
}
