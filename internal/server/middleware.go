package server

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/pagelift/pagelift/internal/ratelimit"
)

const (
	// HeaderUserID carries the caller identity injected by the upstream
	// auth proxy. The server trusts it as-is; session mechanics live in
	// front of this service.
	HeaderUserID = "X-User-ID"

	contextUserIDKey = "user_id"
)

func RequestLogger(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		requestID := ensureRequestID(c)

		c.Next()

		status := c.Writer.Status()
		route := c.FullPath()
		if strings.TrimSpace(route) == "" {
			route = "unknown"
		}
		fields := []zap.Field{
			zap.String("request_id", requestID),
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.String("route", route),
			zap.Int("status", status),
			zap.Int64("duration_ms", time.Since(start).Milliseconds()),
		}

		if lastErr := c.Errors.Last(); lastErr != nil {
			errorType, errorCode := classifyErrorForLog(lastErr.Err)
			fields = append(fields,
				zap.String("error_type", errorType),
				zap.String("error_code", errorCode),
			)
		}

		switch {
		case route == "/metrics" || route == "/health":
			log.Debug("http_request", fields...)
		case status >= http.StatusInternalServerError:
			log.Error("http_request", fields...)
		default:
			log.Info("http_request", fields...)
		}
	}
}

func ensureRequestID(c *gin.Context) string {
	requestID := strings.TrimSpace(c.GetHeader("X-Request-Id"))
	if requestID == "" {
		requestID = uuid.NewString()
	}

	c.Set("request_id", requestID)
	c.Header("X-Request-Id", requestID)
	return requestID
}

func (s *Server) AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := strings.TrimSpace(c.GetHeader(HeaderUserID))
		if raw == "" {
			AbortWithError(c, ErrUnauthorized)
			return
		}

		userID, err := snowflake.ParseString(raw)
		if err != nil || userID == 0 {
			AbortWithError(c, ErrUnauthorized)
			return
		}

		c.Set(contextUserIDKey, userID)
		c.Next()
	}
}

func currentUserID(c *gin.Context) (snowflake.ID, bool) {
	value, ok := c.Get(contextUserIDKey)
	if !ok {
		return 0, false
	}
	userID, ok := value.(snowflake.ID)
	return userID, ok
}

// RateLimit meters one operation class per client. Authenticated routes key
// on the user ID; public routes fall back to the client IP. Budgets come
// from the live governance config, so operators can retune without a
// restart.
func (s *Server) RateLimit(class string) gin.HandlerFunc {
	return func(c *gin.Context) {
		profile := s.governance.Current().RateProfileFor(class)

		clientID := rateLimitClientID(c)
		decision := s.limiter.Check(clientID, class, ratelimit.Profile{
			Window:      profile.Window(),
			MaxRequests: profile.MaxRequests,
		})

		c.Header("X-RateLimit-Limit", strconv.Itoa(profile.MaxRequests))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(decision.Remaining))
		c.Header("X-RateLimit-Reset", decision.ResetAt.UTC().Format(time.RFC3339))

		if !decision.Allowed {
			s.metrics.ObserveRateLimitDenial(class)
			retryAfter := int(time.Until(decision.ResetAt) / time.Second)
			if retryAfter < 1 {
				retryAfter = 1
			}
			c.Header("Retry-After", strconv.Itoa(retryAfter))
			AbortWithError(c, &rateLimitedError{
				ResetAt: decision.ResetAt.UTC().Format(time.RFC3339),
			})
			return
		}

		c.Next()
	}
}

// rateLimitClientID keys the limiter by user ID when authenticated, otherwise
// by client IP. ClientIP falls back to the socket address, so in practice the
// shared "unknown" bucket only catches requests with no resolvable peer at all
// (e.g. some in-process test transports).
func rateLimitClientID(c *gin.Context) string {
	if userID, ok := currentUserID(c); ok {
		return userID.String()
	}
	if ip := strings.TrimSpace(c.ClientIP()); ip != "" {
		return ip
	}
	return "unknown"
}
