package service

import (
	"context"
	"testing"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/pagelift/pagelift/internal/business/domain"
	"github.com/pagelift/pagelift/internal/business/repository"
	"github.com/pagelift/pagelift/internal/entitlement"
)

func setupTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to connect database: %v", err)
	}
	if err := db.AutoMigrate(&domain.Business{}, &domain.Lead{}); err != nil {
		t.Fatalf("failed to migrate database: %v", err)
	}
	return db
}

func newTestService(t *testing.T, db *gorm.DB) domain.Service {
	node, err := snowflake.NewNode(2)
	require.NoError(t, err)
	return NewService(Params{
		DB:    db,
		Log:   zap.NewNop(),
		GenID: node,
		Repo:  repository.Provide(),
	})
}

func TestCreateGeneratesSlug(t *testing.T) {
	db := setupTestDB(t)
	svc := newTestService(t, db)

	business, err := svc.Create(context.Background(), domain.CreateRequest{
		OwnerID: snowflake.ID(1),
		Name:    "Corner Bakery & Café",
	})
	require.NoError(t, err)
	assert.Equal(t, "corner-bakery-and-cafe", business.Slug)
	assert.Equal(t, "classic", business.Template)
	assert.False(t, business.Published)
}

func TestCreateDisambiguatesSlugCollision(t *testing.T) {
	db := setupTestDB(t)
	svc := newTestService(t, db)

	first, err := svc.Create(context.Background(), domain.CreateRequest{
		OwnerID: snowflake.ID(1),
		Name:    "Corner Bakery",
	})
	require.NoError(t, err)

	second, err := svc.Create(context.Background(), domain.CreateRequest{
		OwnerID: snowflake.ID(2),
		Name:    "Corner Bakery",
	})
	require.NoError(t, err)
	assert.NotEqual(t, first.Slug, second.Slug)
	assert.Contains(t, second.Slug, "corner-bakery")
}

func TestCreateRejectsEmptyName(t *testing.T) {
	db := setupTestDB(t)
	svc := newTestService(t, db)

	_, err := svc.Create(context.Background(), domain.CreateRequest{OwnerID: 1, Name: "   "})
	assert.ErrorIs(t, err, domain.ErrInvalidName)
}

func TestGetScopedToOwner(t *testing.T) {
	db := setupTestDB(t)
	svc := newTestService(t, db)

	business, err := svc.Create(context.Background(), domain.CreateRequest{OwnerID: 1, Name: "Mine"})
	require.NoError(t, err)

	_, err = svc.Get(context.Background(), snowflake.ID(2), business.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	got, err := svc.Get(context.Background(), snowflake.ID(1), business.ID)
	require.NoError(t, err)
	assert.Equal(t, business.ID, got.ID)
}

func TestUpdateAndDelete(t *testing.T) {
	db := setupTestDB(t)
	svc := newTestService(t, db)

	business, err := svc.Create(context.Background(), domain.CreateRequest{OwnerID: 1, Name: "Draft"})
	require.NoError(t, err)

	published := true
	name := "Launched"
	updated, err := svc.Update(context.Background(), domain.UpdateRequest{
		ID:        business.ID,
		OwnerID:   snowflake.ID(1),
		Name:      &name,
		Published: &published,
	})
	require.NoError(t, err)
	assert.Equal(t, "Launched", updated.Name)
	assert.True(t, updated.Published)
	// Slug is assigned at create and survives renames so public URLs stay stable.
	assert.Equal(t, business.Slug, updated.Slug)

	_, err = svc.Delete(context.Background(), snowflake.ID(1), business.ID)
	require.NoError(t, err)
	_, err = svc.Get(context.Background(), snowflake.ID(1), business.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestPublicPageOnlyWhenPublished(t *testing.T) {
	db := setupTestDB(t)
	svc := newTestService(t, db)

	business, err := svc.Create(context.Background(), domain.CreateRequest{OwnerID: 7, Name: "Studio"})
	require.NoError(t, err)

	_, err = svc.GetPublicPage(context.Background(), business.Slug)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	published := true
	_, err = svc.Update(context.Background(), domain.UpdateRequest{ID: business.ID, OwnerID: 7, Published: &published})
	require.NoError(t, err)

	page, err := svc.GetPublicPage(context.Background(), business.Slug)
	require.NoError(t, err)
	assert.Equal(t, "Studio", page.Name)
	assert.Equal(t, snowflake.ID(7), page.OwnerID)
}

func TestLeadsRequirePublishedPageAndOwnership(t *testing.T) {
	db := setupTestDB(t)
	svc := newTestService(t, db)

	business, err := svc.Create(context.Background(), domain.CreateRequest{OwnerID: 7, Name: "Studio"})
	require.NoError(t, err)

	_, err = svc.CreateLead(context.Background(), domain.CreateLeadRequest{
		Slug: business.Slug, Name: "Visitor", Email: "v@example.com",
	})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	published := true
	_, err = svc.Update(context.Background(), domain.UpdateRequest{ID: business.ID, OwnerID: 7, Published: &published})
	require.NoError(t, err)

	lead, err := svc.CreateLead(context.Background(), domain.CreateLeadRequest{
		Slug: business.Slug, Name: "Visitor", Email: "V@Example.com ", Message: "hi",
	})
	require.NoError(t, err)
	assert.Equal(t, "v@example.com", lead.Email)

	_, err = svc.CreateLead(context.Background(), domain.CreateLeadRequest{
		Slug: business.Slug, Name: "NoMail", Email: "not-an-email",
	})
	assert.ErrorIs(t, err, domain.ErrInvalidEmail)

	leads, err := svc.ListLeads(context.Background(), snowflake.ID(7), business.ID)
	require.NoError(t, err)
	assert.Len(t, leads, 1)

	_, err = svc.ListLeads(context.Background(), snowflake.ID(8), business.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestCounterCountsLandingPages(t *testing.T) {
	db := setupTestDB(t)
	svc := newTestService(t, db)
	counter := NewCounter(db, repository.Provide())

	for i := 0; i < 3; i++ {
		_, err := svc.Create(context.Background(), domain.CreateRequest{
			OwnerID: snowflake.ID(5),
			Name:    "Page " + string(rune('A'+i)),
		})
		require.NoError(t, err)
	}

	count, err := counter.CountResourcesByOwner(context.Background(), snowflake.ID(5), entitlement.QuotaLandingPages)
	require.NoError(t, err)
	assert.EqualValues(t, 3, count)

	_, err = counter.CountResourcesByOwner(context.Background(), snowflake.ID(5), entitlement.Quota("maxWidgets"))
	assert.Error(t, err)
}
