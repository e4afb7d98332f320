package server

import (
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	subscriptiondomain "github.com/opiniohq/opinio/internal/subscription/domain"
)

const HeaderBillingSignature = "X-Billing-Signature"

func (s *Server) ListPortals(c *gin.Context) {
	portals, err := s.portalSvc.ListActive(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": portals})
}

func (s *Server) GetEntitlement(c *gin.Context) {
	ent, err := s.entitlementSvc.Resolve(c.Request.Context(), ownerID(c))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, ent)
}

// GetCompanyAnalytics serves per-portal aggregates. Analytics is a paid
// capability; plans without it get a forbidden response.
func (s *Server) GetCompanyAnalytics(c *gin.Context) {
	ctx := c.Request.Context()
	companyID, err := pathID(c, "id")
	if err != nil {
		AbortWithError(c, err)
		return
	}

	if _, err := s.companySvc.FindOwned(ctx, ownerID(c), companyID); err != nil {
		AbortWithError(c, err)
		return
	}

	ent, err := s.entitlementSvc.Resolve(ctx, ownerID(c))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	if !ent.HasAnalytics {
		AbortWithError(c, ErrForbidden)
		return
	}

	portal, err := s.portalSvc.FindBySlug(ctx, strings.TrimSpace(c.Query("portal")))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	companyStats, err := s.statsSvc.StatsFor(ctx, companyID, portal.ID)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, companyStats)
}

type checkoutRequest struct {
	Plan string `json:"plan"`
}

func (s *Server) StartCheckout(c *gin.Context) {
	var req checkoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	plan := subscriptiondomain.Plan(strings.ToLower(strings.TrimSpace(req.Plan)))
	url, err := s.subscriptionSvc.StartCheckout(c.Request.Context(), ownerID(c), plan)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"url": url})
}

func (s *Server) OpenBillingPortal(c *gin.Context) {
	url, err := s.subscriptionSvc.BillingPortal(c.Request.Context(), ownerID(c))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"url": url})
}

// BillingWebhook applies provider lifecycle events. The raw body is
// verified against the shared webhook secret before any decode.
func (s *Server) BillingWebhook(c *gin.Context) {
	payload, err := io.ReadAll(io.LimitReader(c.Request.Body, 1<<20))
	if err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	signature := c.GetHeader(HeaderBillingSignature)
	if err := s.subscriptionSvc.HandleWebhook(c.Request.Context(), payload, signature); err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"received": true})
}
