package server

import (
	"net/http"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	activitydomain "github.com/pagelift/pagelift/internal/activity/domain"
	businessdomain "github.com/pagelift/pagelift/internal/business/domain"
	"github.com/pagelift/pagelift/internal/cache"
	"github.com/pagelift/pagelift/internal/config"
	"github.com/pagelift/pagelift/internal/entitlement"
)

type createBusinessRequest struct {
	Name     string         `json:"name"`
	Template string         `json:"template"`
	Content  map[string]any `json:"content"`
}

type updateBusinessRequest struct {
	Name      *string        `json:"name"`
	Template  *string        `json:"template"`
	Content   map[string]any `json:"content"`
	Published *bool          `json:"published"`
}

func (s *Server) CreateBusiness(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	var req createBusinessRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	decision := s.accessSvc.CheckQuota(c.Request.Context(), userID, entitlement.QuotaLandingPages)
	if !decision.Allowed {
		s.metrics.ObserveGateDenial("quota")
		AbortWithError(c, &quotaExceededError{
			Quota: string(entitlement.QuotaLandingPages),
			Plan:  s.planForError(c, userID),
			Max:   decision.Max,
		})
		return
	}

	resp, err := s.businessSvc.Create(c.Request.Context(), businessdomain.CreateRequest{
		OwnerID:  userID,
		Name:     strings.TrimSpace(req.Name),
		Template: strings.TrimSpace(req.Template),
		Content:  req.Content,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	// Invalidate before responding so a follow-up list cannot read a
	// stale snapshot.
	s.listCache.Delete(s.listKey(userID))

	s.activitySvc.Record(c.Request.Context(), activitydomain.Entry{
		UserID:     userID,
		Action:     "business.create",
		EntityType: "business",
		EntityID:   strPtr(resp.ID.String()),
		Details: map[string]any{
			"name": resp.Name,
			"slug": resp.Slug,
		},
	})

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ListBusinesses(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	key := s.listKey(userID)
	if cached, hit := s.listCache.Get(key); hit {
		s.metrics.ObserveCache(config.CacheResourceBusinessList, true)
		c.JSON(http.StatusOK, gin.H{"data": cached})
		return
	}
	s.metrics.ObserveCache(config.CacheResourceBusinessList, false)

	resp, err := s.businessSvc.ListByOwner(c.Request.Context(), userID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	s.listCache.Set(key, resp, s.governance.Current().CacheTTLFor(config.CacheResourceBusinessList))
	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetBusinessByID(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}
	id, err := parseSnowflakeParam(c, "id")
	if err != nil {
		AbortWithError(c, err)
		return
	}

	key := s.businessKey(userID, id)
	if cached, hit := s.businessCache.Get(key); hit {
		s.metrics.ObserveCache(config.CacheResourceBusiness, true)
		c.JSON(http.StatusOK, gin.H{"data": cached})
		return
	}
	s.metrics.ObserveCache(config.CacheResourceBusiness, false)

	resp, err := s.businessSvc.Get(c.Request.Context(), userID, id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	s.businessCache.Set(key, *resp, s.governance.Current().CacheTTLFor(config.CacheResourceBusiness))
	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) UpdateBusiness(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}
	id, err := parseSnowflakeParam(c, "id")
	if err != nil {
		AbortWithError(c, err)
		return
	}

	var req updateBusinessRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.businessSvc.Update(c.Request.Context(), businessdomain.UpdateRequest{
		ID:        id,
		OwnerID:   userID,
		Name:      req.Name,
		Template:  req.Template,
		Content:   req.Content,
		Published: req.Published,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	s.invalidateBusiness(userID, resp)

	s.activitySvc.Record(c.Request.Context(), activitydomain.Entry{
		UserID:     userID,
		Action:     "business.update",
		EntityType: "business",
		EntityID:   strPtr(resp.ID.String()),
		Details: map[string]any{
			"slug":      resp.Slug,
			"published": resp.Published,
		},
	})

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) DeleteBusiness(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}
	id, err := parseSnowflakeParam(c, "id")
	if err != nil {
		AbortWithError(c, err)
		return
	}

	resp, err := s.businessSvc.Delete(c.Request.Context(), userID, id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	s.invalidateBusiness(userID, resp)

	s.activitySvc.Record(c.Request.Context(), activitydomain.Entry{
		UserID:     userID,
		Action:     "business.delete",
		EntityType: "business",
		EntityID:   strPtr(resp.ID.String()),
		Details: map[string]any{
			"slug": resp.Slug,
		},
	})

	c.JSON(http.StatusOK, gin.H{"data": gin.H{"deleted": true}})
}

func (s *Server) ListLeads(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}
	id, err := parseSnowflakeParam(c, "id")
	if err != nil {
		AbortWithError(c, err)
		return
	}

	if !s.accessSvc.CanUseFeature(c.Request.Context(), userID, entitlement.FeatureLeadCapture) {
		s.metrics.ObserveGateDenial("feature")
		AbortWithError(c, s.featureDeniedError(c, userID, entitlement.FeatureLeadCapture))
		return
	}

	resp, err := s.businessSvc.ListLeads(c.Request.Context(), userID, id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

// invalidateBusiness drops every cached view of a business. Called before
// the mutating handler writes its response.
func (s *Server) invalidateBusiness(ownerID snowflake.ID, b *businessdomain.Business) {
	s.businessCache.Delete(s.businessKey(ownerID, b.ID))
	s.listCache.Delete(s.listKey(ownerID))
	s.pageCache.Delete(s.pageKey(b.Slug))
}

func (s *Server) businessKey(ownerID, id snowflake.ID) string {
	return cache.Key("business", ownerID.String(), id.String())
}

func (s *Server) listKey(ownerID snowflake.ID) string {
	return cache.Key("businesses", ownerID.String())
}

func (s *Server) pageKey(slug string) string {
	return cache.Key("page", slug)
}

// planForError resolves the caller's plan for a denial payload. Best-effort;
// the denial stands even when the read fails.
// featureDeniedError builds the denial for a feature the caller's plan lacks,
// including the cheapest plan that would unlock it.
func (s *Server) featureDeniedError(c *gin.Context, userID snowflake.ID, feature entitlement.Feature) *upgradeRequiredError {
	denied := &upgradeRequiredError{
		Feature: string(feature),
		Plan:    s.planForError(c, userID),
	}
	if required, ok := s.table.MinimumPlanFor(feature); ok {
		denied.RequiredPlan = string(required)
	}
	return denied
}

func (s *Server) planForError(c *gin.Context, userID snowflake.ID) string {
	plan, err := s.accountSvc.GetUserPlan(c.Request.Context(), userID)
	if err != nil {
		return ""
	}
	return string(plan)
}

func parseSnowflakeParam(c *gin.Context, name string) (snowflake.ID, error) {
	raw := strings.TrimSpace(c.Param(name))
	id, err := snowflake.ParseString(raw)
	if err != nil || id == 0 {
		return 0, newValidationError(name, "invalid_"+name, "invalid "+name)
	}
	return id, nil
}
