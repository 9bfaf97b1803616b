package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	activitydomain "github.com/pagelift/pagelift/internal/activity/domain"
	businessdomain "github.com/pagelift/pagelift/internal/business/domain"
	"github.com/pagelift/pagelift/internal/config"
	"github.com/pagelift/pagelift/internal/entitlement"
)

// GetPublicPage serves the published view of a landing page. The assembled
// page is cached by slug; lead-capture visibility is resolved from the
// owner's plan when the page is built, so a plan change can lag by at most
// one cache TTL.
func (s *Server) GetPublicPage(c *gin.Context) {
	slug := strings.TrimSpace(c.Param("slug"))
	if slug == "" {
		AbortWithError(c, ErrNotFound)
		return
	}

	key := s.pageKey(slug)
	if cached, hit := s.pageCache.Get(key); hit {
		s.metrics.ObserveCache(config.CacheResourcePublicPage, true)
		c.JSON(http.StatusOK, gin.H{"data": cached})
		return
	}
	s.metrics.ObserveCache(config.CacheResourcePublicPage, false)

	page, err := s.businessSvc.GetPublicPage(c.Request.Context(), slug)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	page.LeadCapture = s.accessSvc.CanUseFeature(c.Request.Context(), page.OwnerID, entitlement.FeatureLeadCapture)

	s.pageCache.Set(key, *page, s.governance.Current().CacheTTLFor(config.CacheResourcePublicPage))
	c.JSON(http.StatusOK, gin.H{"data": page})
}

type createLeadRequest struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Message string `json:"message"`
}

// CreatePublicLead accepts a visitor submission for a published page. The
// gate runs against the page owner's plan; a denial reads as forbidden so
// visitors never see the owner's billing state.
func (s *Server) CreatePublicLead(c *gin.Context) {
	slug := strings.TrimSpace(c.Param("slug"))
	if slug == "" {
		AbortWithError(c, ErrNotFound)
		return
	}

	var req createLeadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	page, err := s.businessSvc.GetPublicPage(c.Request.Context(), slug)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	if !s.accessSvc.CanUseFeature(c.Request.Context(), page.OwnerID, entitlement.FeatureLeadCapture) {
		s.metrics.ObserveGateDenial("feature")
		AbortWithError(c, ErrForbidden)
		return
	}

	resp, err := s.businessSvc.CreateLead(c.Request.Context(), businessdomain.CreateLeadRequest{
		Slug:    slug,
		Name:    strings.TrimSpace(req.Name),
		Email:   strings.TrimSpace(req.Email),
		Message: strings.TrimSpace(req.Message),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	s.activitySvc.Record(c.Request.Context(), activitydomain.Entry{
		UserID:     page.OwnerID,
		Action:     "lead.create",
		EntityType: "lead",
		EntityID:   strPtr(resp.ID.String()),
		Details: map[string]any{
			"business_id": resp.BusinessID.String(),
			"slug":        slug,
		},
	})

	c.JSON(http.StatusOK, gin.H{"data": resp})
}
