package server

import (
	"context"
	"net/http"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	reviewdomain "github.com/opiniohq/opinio/internal/review/domain"
)

func (s *Server) ListOwnedReviews(c *gin.Context) {
	page := bindPagination(c)
	req := reviewdomain.ListRequest{
		Status: reviewdomain.Status(strings.TrimSpace(c.Query("status"))),
		Page:   page,
	}
	if raw := strings.TrimSpace(c.Query("company_id")); raw != "" {
		id, err := snowflake.ParseString(raw)
		if err != nil {
			AbortWithError(c, newValidationError("company_id", "invalid_id", "invalid identifier"))
			return
		}
		req.CompanyID = id
	}

	reviews, total, err := s.reviewSvc.ListForOwner(c.Request.Context(), ownerID(c), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, listResponse{
		Data:  reviews,
		Total: total,
		Page:  page.Page,
		Limit: page.Limit,
	})
}

type createOwnedReviewRequest struct {
	CompanyID  string `json:"company_id"`
	Portal     string `json:"portal"`
	AuthorName string `json:"author_name"`
	Rating     int    `json:"rating"`
	Title      string `json:"title"`
	Content    string `json:"content"`
	Pros       string `json:"pros"`
	Cons       string `json:"cons"`
}

func (s *Server) CreateOwnedReview(c *gin.Context) {
	var req createOwnedReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	companyID, err := snowflake.ParseString(strings.TrimSpace(req.CompanyID))
	if err != nil {
		AbortWithError(c, newValidationError("company_id", "invalid_id", "invalid identifier"))
		return
	}

	review, err := s.reviewSvc.SubmitAuthenticated(c.Request.Context(), ownerID(c), reviewdomain.SubmitAuthenticatedRequest{
		CompanyID:  companyID,
		PortalSlug: req.Portal,
		AuthorName: req.AuthorName,
		Rating:     req.Rating,
		Title:      req.Title,
		Content:    req.Content,
		Pros:       req.Pros,
		Cons:       req.Cons,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, review)
}

func (s *Server) ApproveReview(c *gin.Context) {
	s.moderateReview(c, s.reviewSvc.Approve)
}

func (s *Server) RejectReview(c *gin.Context) {
	s.moderateReview(c, s.reviewSvc.Reject)
}

func (s *Server) ArchiveReview(c *gin.Context) {
	s.moderateReview(c, s.reviewSvc.Archive)
}

func (s *Server) moderateReview(c *gin.Context, op func(ctx context.Context, reviewID snowflake.ID, ownerID string) error) {
	id, err := pathID(c, "id")
	if err != nil {
		AbortWithError(c, err)
		return
	}
	if err := op(c.Request.Context(), id, ownerID(c)); err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

type editReviewRequest struct {
	Title       *string `json:"title"`
	Content     *string `json:"content"`
	Rating      *int    `json:"rating"`
	AuthorName  *string `json:"author_name"`
	AuthorEmail *string `json:"author_email"`
	Pros        *string `json:"pros"`
	Cons        *string `json:"cons"`
}

func (s *Server) EditReview(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		AbortWithError(c, err)
		return
	}

	var req editReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	review, err := s.reviewSvc.Edit(c.Request.Context(), id, ownerID(c), reviewdomain.EditRequest{
		Title:       req.Title,
		Content:     req.Content,
		Rating:      req.Rating,
		AuthorName:  req.AuthorName,
		AuthorEmail: req.AuthorEmail,
		Pros:        req.Pros,
		Cons:        req.Cons,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, review)
}

func (s *Server) DeleteReview(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		AbortWithError(c, err)
		return
	}
	if err := s.reviewSvc.Delete(c.Request.Context(), id, ownerID(c)); err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}
