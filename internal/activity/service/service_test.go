package service

import (
	"context"
	"errors"
	"testing"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/pagelift/pagelift/internal/activity/domain"
	"github.com/pagelift/pagelift/internal/activity/repository"
)

func setupTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to connect database: %v", err)
	}
	if err := db.AutoMigrate(&domain.ActivityLog{}); err != nil {
		t.Fatalf("failed to migrate database: %v", err)
	}
	return db
}

func newTestService(t *testing.T, db *gorm.DB, repo domain.Repository) domain.Service {
	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	return NewService(Params{
		DB:    db,
		Log:   zap.NewNop(),
		GenID: node,
		Repo:  repo,
	})
}

func TestRecordAppendsEntry(t *testing.T) {
	db := setupTestDB(t)
	svc := newTestService(t, db, repository.Provide())

	entityID := "42"
	svc.Record(context.Background(), domain.Entry{
		UserID:     snowflake.ID(7),
		Action:     "business.create",
		EntityType: "business",
		EntityID:   &entityID,
		Details:    map[string]any{"name": "Corner Bakery"},
	})

	var rows []domain.ActivityLog
	require.NoError(t, db.Find(&rows).Error)
	require.Len(t, rows, 1)
	assert.Equal(t, "business.create", rows[0].Action)
	assert.Equal(t, snowflake.ID(7), rows[0].UserID)
	require.NotNil(t, rows[0].EntityID)
	assert.Equal(t, "42", *rows[0].EntityID)
}

func TestRecordDropsMalformedEntries(t *testing.T) {
	db := setupTestDB(t)
	svc := newTestService(t, db, repository.Provide())

	svc.Record(context.Background(), domain.Entry{UserID: 0, Action: "x"})
	svc.Record(context.Background(), domain.Entry{UserID: snowflake.ID(7), Action: "  "})

	var count int64
	require.NoError(t, db.Model(&domain.ActivityLog{}).Count(&count).Error)
	assert.Zero(t, count)
}

type failingRepo struct{}

func (failingRepo) Insert(ctx context.Context, db *gorm.DB, entry *domain.ActivityLog) error {
	return errors.New("store unavailable")
}

func (failingRepo) List(ctx context.Context, db *gorm.DB, filter domain.ListFilter) ([]*domain.ActivityLog, error) {
	return nil, errors.New("store unavailable")
}

func TestRecordSwallowsStoreFailure(t *testing.T) {
	db := setupTestDB(t)
	svc := newTestService(t, db, failingRepo{})

	// Must not panic or surface an error: the primary operation already
	// succeeded and owns the response.
	svc.Record(context.Background(), domain.Entry{
		UserID: snowflake.ID(7),
		Action: "business.update",
	})
}

func TestListNewestFirstWithCursor(t *testing.T) {
	db := setupTestDB(t)
	svc := newTestService(t, db, repository.Provide())
	userID := snowflake.ID(9)

	actions := []string{"business.create", "business.update", "business.publish"}
	for _, action := range actions {
		svc.Record(context.Background(), domain.Entry{
			UserID:     userID,
			Action:     action,
			EntityType: "business",
		})
	}

	req := domain.ListRequest{UserID: userID}
	req.PageSize = 2
	first, err := svc.List(context.Background(), req)
	require.NoError(t, err)
	require.Len(t, first.Activities, 2)
	assert.True(t, first.HasMore)
	assert.Equal(t, "business.publish", first.Activities[0].Action)

	req.PageToken = first.NextPageToken
	second, err := svc.List(context.Background(), req)
	require.NoError(t, err)
	require.Len(t, second.Activities, 1)
	assert.False(t, second.HasMore)
	assert.Equal(t, "business.create", second.Activities[0].Action)
}

func TestListRejectsBadInput(t *testing.T) {
	db := setupTestDB(t)
	svc := newTestService(t, db, repository.Provide())

	_, err := svc.List(context.Background(), domain.ListRequest{})
	assert.ErrorIs(t, err, domain.ErrInvalidUser)

	req := domain.ListRequest{UserID: snowflake.ID(9)}
	req.PageToken = "not-base64!!"
	_, err = svc.List(context.Background(), req)
	assert.ErrorIs(t, err, domain.ErrInvalidPageToken)
}

func TestListFiltersByEntity(t *testing.T) {
	db := setupTestDB(t)
	svc := newTestService(t, db, repository.Provide())
	userID := snowflake.ID(11)

	bizID := "1"
	svc.Record(context.Background(), domain.Entry{UserID: userID, Action: "business.create", EntityType: "business", EntityID: &bizID})
	svc.Record(context.Background(), domain.Entry{UserID: userID, Action: "lead.create", EntityType: "lead"})

	resp, err := svc.List(context.Background(), domain.ListRequest{UserID: userID, EntityType: "business"})
	require.NoError(t, err)
	require.Len(t, resp.Activities, 1)
	assert.Equal(t, "business.create", resp.Activities[0].Action)
}
