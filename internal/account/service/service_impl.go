package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/pagelift/pagelift/internal/account/domain"
	"github.com/pagelift/pagelift/internal/entitlement"
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
		log:   p.Log.Named("account.service"),
		genID: p.GenID,
		repo:  p.Repo,
	}
}

func (s *Service) Create(ctx context.Context, req domain.CreateRequest) (*domain.User, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" || !strings.Contains(email, "@") {
		return nil, domain.ErrInvalidEmail
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, domain.ErrInvalidName
	}

	now := time.Now().UTC()
	user := domain.User{
		ID:        s.genID.Generate(),
		Email:     email,
		Name:      name,
		Plan:      string(entitlement.Normalize(req.Plan)),
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.repo.Insert(ctx, s.db, &user); err != nil {
		if db.IsDuplicateKeyErr(err) {
			return nil, domain.ErrDuplicate
		}
		return nil, err
	}
	return &user, nil
}

func (s *Service) Get(ctx context.Context, id snowflake.ID) (*domain.User, error) {
	return s.repo.FindByID(ctx, s.db, id)
}

func (s *Service) GetUserPlan(ctx context.Context, id snowflake.ID) (entitlement.Plan, error) {
	user, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return "", err
	}
	return entitlement.Normalize(user.Plan), nil
}

func (s *Service) UpdatePlan(ctx context.Context, id snowflake.ID, plan entitlement.Plan) error {
	if err := s.repo.UpdatePlan(ctx, s.db, id, string(plan), time.Now().UTC()); err != nil {
		return err
	}
	s.log.Info("plan updated",
		zap.String("user_id", id.String()),
		zap.String("plan", string(plan)),
	)
	return nil
}
