package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	accountdomain "github.com/pagelift/pagelift/internal/account/domain"
	activitydomain "github.com/pagelift/pagelift/internal/activity/domain"
)

type createUserRequest struct {
	Email string `json:"email"`
	Name  string `json:"name"`
	Plan  string `json:"plan"`
}

func (s *Server) CreateUser(c *gin.Context) {
	var req createUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.accountSvc.Create(c.Request.Context(), accountdomain.CreateRequest{
		Email: strings.TrimSpace(req.Email),
		Name:  strings.TrimSpace(req.Name),
		Plan:  strings.TrimSpace(req.Plan),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	s.activitySvc.Record(c.Request.Context(), activitydomain.Entry{
		UserID:     resp.ID,
		Action:     "user.create",
		EntityType: "user",
		EntityID:   strPtr(resp.ID.String()),
		Details: map[string]any{
			"email": resp.Email,
			"plan":  resp.Plan,
		},
	})

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetMe(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	resp, err := s.accountSvc.Get(c.Request.Context(), userID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

// GetEntitlements reports what the caller's current plan allows. The plan is
// read from the store on every call, so a webhook upgrade is visible here
// immediately.
func (s *Server) GetEntitlements(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	plan, err := s.accountSvc.GetUserPlan(c.Request.Context(), userID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	quotas := make(map[string]int)
	for quota, limit := range s.table.Quotas(plan) {
		quotas[string(quota)] = limit
	}
	for quota, limit := range s.governance.Current().Quotas[string(plan)] {
		if _, known := quotas[quota]; known {
			quotas[quota] = limit
		}
	}

	c.JSON(http.StatusOK, gin.H{"data": gin.H{
		"plan":     plan,
		"features": s.table.Features(plan),
		"quotas":   quotas,
	}})
}

func strPtr(v string) *string {
	return &v
}
