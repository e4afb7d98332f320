package server

import (
	"crypto/subtle"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/opiniohq/opinio/internal/ratelimit"
	"go.uber.org/zap"
)

const (
	HeaderPortalKey  = "X-Portal-Key"
	HeaderPortalSlug = "X-Portal-Slug"

	contextOwnerIDKey  = "owner_id"
	contextPortalIDKey = "portal_id"
)

// PortalKeyRequired authenticates portal-to-service calls. The caller sends
// its key in X-Portal-Key and names its portal in X-Portal-Slug (or the
// portal query parameter).
func (s *Server) PortalKeyRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		apiKey := strings.TrimSpace(c.GetHeader(HeaderPortalKey))
		portalSlug := strings.TrimSpace(c.GetHeader(HeaderPortalSlug))
		if portalSlug == "" {
			portalSlug = strings.TrimSpace(c.Query("portal"))
		}
		if apiKey == "" || portalSlug == "" {
			AbortWithError(c, ErrUnauthorized)
			return
		}

		portalID, err := s.portalSvc.Verify(c.Request.Context(), apiKey, portalSlug)
		if err != nil {
			AbortWithError(c, err)
			return
		}

		c.Set(contextPortalIDKey, portalID)
		c.Next()
	}
}

// AuthRequired authenticates dashboard calls with a bearer token resolved
// through the external identity provider.
func (s *Server) AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := strings.TrimSpace(c.GetHeader("Authorization"))
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || strings.TrimSpace(token) == "" {
			AbortWithError(c, ErrUnauthorized)
			return
		}

		ownerID, err := s.verifier.Verify(c.Request.Context(), strings.TrimSpace(token))
		if err != nil {
			AbortWithError(c, err)
			return
		}

		c.Set(contextOwnerIDKey, ownerID)
		c.Next()
	}
}

// ServiceTokenRequired authenticates trusted backend callers. An empty
// configured token disables the surface entirely.
func (s *Server) ServiceTokenRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		configured := s.cfg.ServiceToken
		if configured == "" {
			AbortWithError(c, ErrNotFound)
			return
		}

		presented := strings.TrimSpace(c.GetHeader("X-Service-Token"))
		if subtle.ConstantTimeCompare([]byte(presented), []byte(configured)) != 1 {
			AbortWithError(c, ErrUnauthorized)
			return
		}
		c.Next()
	}
}

// RateLimit enforces the bucket's sliding-window budget per caller identity.
// Portal-keyed calls key on the portal, dashboard calls on the owner, and
// everything else on the client IP.
func (s *Server) RateLimit(bucket ratelimit.Bucket) gin.HandlerFunc {
	return func(c *gin.Context) {
		if s.limiter == nil || !s.limiter.Enabled() {
			c.Next()
			return
		}

		result := s.limiter.Check(c.Request.Context(), bucket, s.limitIdentity(c))
		c.Header("X-RateLimit-Limit", strconv.Itoa(result.Limit))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(result.Remaining))
		c.Header("X-RateLimit-Reset", strconv.FormatInt(result.ResetAt.Unix(), 10))

		if !result.Allowed {
			retryAfter := int(time.Until(result.ResetAt).Seconds())
			if retryAfter < 1 {
				retryAfter = 1
			}
			c.Header("Retry-After", strconv.Itoa(retryAfter))
			if s.httpMetrics != nil {
				s.httpMetrics.ObserveRateLimited(string(bucket))
			}
			s.log.Warn("rate limit exceeded",
				zap.String("bucket", string(bucket)),
				zap.String("path", c.FullPath()),
			)
			c.AbortWithStatusJSON(http.StatusTooManyRequests, errorResponse{Error: errorPayload{
				Type:    "rate_limited",
				Message: "too many requests",
			}})
			return
		}
		c.Next()
	}
}

func (s *Server) limitIdentity(c *gin.Context) string {
	if portalID, ok := c.Get(contextPortalIDKey); ok {
		return fmt.Sprintf("portal:%d", portalID.(snowflake.ID))
	}
	if ownerID, ok := c.Get(contextOwnerIDKey); ok {
		return "owner:" + ownerID.(string)
	}
	return "ip:" + c.ClientIP()
}

func ownerID(c *gin.Context) string {
	if v, ok := c.Get(contextOwnerIDKey); ok {
		return v.(string)
	}
	return ""
}

func portalID(c *gin.Context) snowflake.ID {
	if v, ok := c.Get(contextPortalIDKey); ok {
		return v.(snowflake.ID)
	}
	return 0
}
