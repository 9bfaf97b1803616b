package server

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	activitydomain "github.com/pagelift/pagelift/internal/activity/domain"
	"github.com/pagelift/pagelift/internal/entitlement"
	"go.uber.org/zap"
)

// HeaderWebhookSecret authenticates the payment provider callback. A shared
// secret stands in for provider signature verification.
const HeaderWebhookSecret = "X-Webhook-Secret"

type billingWebhookRequest struct {
	UserID string `json:"user_id"`
	Plan   string `json:"plan"`
}

// HandleBillingWebhook applies a plan change pushed by the payment
// provider. The write goes straight to the user record; governance checks
// read the plan per call, so the new tier is effective immediately.
func (s *Server) HandleBillingWebhook(c *gin.Context) {
	if !s.webhookAuthorized(c) {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	var req billingWebhookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	userID, err := snowflake.ParseString(strings.TrimSpace(req.UserID))
	if err != nil || userID == 0 {
		AbortWithError(c, newValidationError("user_id", "invalid_user_id", "invalid user_id"))
		return
	}

	plan, ok := parsePlan(req.Plan)
	if !ok {
		AbortWithError(c, newValidationError("plan", "invalid_plan", "invalid plan"))
		return
	}

	if err := s.accountSvc.UpdatePlan(c.Request.Context(), userID, plan); err != nil {
		AbortWithError(c, err)
		return
	}

	s.log.Info("plan updated from billing webhook",
		zap.String("user_id", userID.String()),
		zap.String("plan", string(plan)),
	)

	s.activitySvc.Record(c.Request.Context(), activitydomain.Entry{
		UserID:     userID,
		Action:     "user.plan_change",
		EntityType: "user",
		EntityID:   strPtr(userID.String()),
		Details: map[string]any{
			"plan": string(plan),
		},
	})

	c.JSON(http.StatusOK, gin.H{"data": gin.H{"updated": true}})
}

func (s *Server) webhookAuthorized(c *gin.Context) bool {
	secret := s.cfg.BillingWebhookSecret
	if secret == "" {
		// No secret configured means the webhook is disabled, not open.
		return false
	}
	provided := strings.TrimSpace(c.GetHeader(HeaderWebhookSecret))
	return subtle.ConstantTimeCompare([]byte(provided), []byte(secret)) == 1
}

func parsePlan(raw string) (entitlement.Plan, bool) {
	switch entitlement.Plan(strings.ToLower(strings.TrimSpace(raw))) {
	case entitlement.PlanFree:
		return entitlement.PlanFree, true
	case entitlement.PlanBasic:
		return entitlement.PlanBasic, true
	case entitlement.PlanPremium:
		return entitlement.PlanPremium, true
	default:
		return "", false
	}
}
