package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	reviewdomain "github.com/opiniohq/opinio/internal/review/domain"
)

func (s *Server) GetInvitation(c *gin.Context) {
	view, err := s.campaignSvc.ResolveToken(c.Request.Context(), c.Param("token"))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

type invitedReviewRequest struct {
	Portal      string `json:"portal"`
	Rating      int    `json:"rating"`
	Title       string `json:"title"`
	Content     string `json:"content"`
	AuthorName  string `json:"author_name"`
	AuthorEmail string `json:"author_email"`
	Pros        string `json:"pros"`
	Cons        string `json:"cons"`
}

// SubmitInvitedReview turns an invitation token into a review. The review
// follows the normal anonymous path and the invitation funnel advances to
// converted.
func (s *Server) SubmitInvitedReview(c *gin.Context) {
	ctx := c.Request.Context()
	token := c.Param("token")

	view, err := s.campaignSvc.ResolveToken(ctx, token)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	var req invitedReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	portalSlug := strings.TrimSpace(req.Portal)
	if portalSlug == "" && len(view.Portals) > 0 {
		portalSlug = view.Portals[0]
	}
	portal, err := s.portalSvc.FindBySlug(ctx, portalSlug)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	created, err := s.reviewSvc.SubmitAnonymous(ctx, portal.ID, reviewdomain.SubmitAnonymousRequest{
		CompanyID:   view.CompanyID,
		Rating:      req.Rating,
		Title:       req.Title,
		Content:     req.Content,
		AuthorName:  req.AuthorName,
		AuthorEmail: req.AuthorEmail,
		Pros:        req.Pros,
		Cons:        req.Cons,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	if err := s.campaignSvc.ConvertToken(ctx, token, created.ID); err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"review_id": created.ID,
		"status":    created.Status,
	})
}
