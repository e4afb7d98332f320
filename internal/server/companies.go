package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	reviewdomain "github.com/opiniohq/opinio/internal/review/domain"
)

func (s *Server) SearchCompanies(c *gin.Context) {
	page := bindPagination(c)
	query := strings.TrimSpace(c.Query("q"))

	results, total, err := s.companySvc.Search(c.Request.Context(), portalID(c), query, page)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, listResponse{
		Data:  results,
		Total: total,
		Page:  page.Page,
		Limit: page.Limit,
	})
}

func (s *Server) GetCompany(c *gin.Context) {
	ctx := c.Request.Context()
	company, err := s.companySvc.GetBySlug(ctx, c.Param("slug"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	vis, err := s.companySvc.Visibility(ctx, company.ID, portalID(c))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	if !vis.Readable {
		AbortWithError(c, ErrNotFound)
		return
	}

	companyStats, err := s.statsSvc.StatsFor(ctx, company.ID, portalID(c))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"company": company,
		"stats":   companyStats,
	})
}

func (s *Server) ListCompanyReviews(c *gin.Context) {
	ctx := c.Request.Context()
	company, err := s.companySvc.GetBySlug(ctx, c.Param("slug"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	vis, err := s.companySvc.Visibility(ctx, company.ID, portalID(c))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	if !vis.Readable {
		AbortWithError(c, ErrNotFound)
		return
	}

	page := bindPagination(c)
	reviews, total, err := s.reviewSvc.ListApproved(ctx, company.ID, portalID(c), page)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"data":            reviews,
		"total":           total,
		"page":            page.Page,
		"limit":           page.Limit,
		"reviews_enabled": vis.Writable,
	})
}

func (s *Server) GetCompanyStats(c *gin.Context) {
	ctx := c.Request.Context()
	company, err := s.companySvc.GetBySlug(ctx, c.Param("slug"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	vis, err := s.companySvc.Visibility(ctx, company.ID, portalID(c))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	if !vis.Readable {
		AbortWithError(c, ErrNotFound)
		return
	}

	companyStats, err := s.statsSvc.StatsFor(ctx, company.ID, portalID(c))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, companyStats)
}

type submitReviewRequest struct {
	Rating      int    `json:"rating"`
	Title       string `json:"title"`
	Content     string `json:"content"`
	AuthorName  string `json:"author_name"`
	AuthorEmail string `json:"author_email"`
	Pros        string `json:"pros"`
	Cons        string `json:"cons"`
}

func (s *Server) SubmitReview(c *gin.Context) {
	ctx := c.Request.Context()
	company, err := s.companySvc.GetBySlug(ctx, c.Param("slug"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	var req submitReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	created, err := s.reviewSvc.SubmitAnonymous(ctx, portalID(c), reviewdomain.SubmitAnonymousRequest{
		CompanyID:   company.ID,
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
	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"review_id": created.ID,
		"status":    created.Status,
	})
}
