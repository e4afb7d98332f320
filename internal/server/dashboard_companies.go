package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	companydomain "github.com/opiniohq/opinio/internal/company/domain"
	"gorm.io/datatypes"
)

func (s *Server) ListOwnedCompanies(c *gin.Context) {
	companies, err := s.companySvc.ListByOwner(c.Request.Context(), ownerID(c))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": companies})
}

type createCompanyRequest struct {
	Name               string            `json:"name"`
	TaxID              string            `json:"tax_id"`
	Address            string            `json:"address"`
	City               string            `json:"city"`
	PostalCode         string            `json:"postal_code"`
	Phone              string            `json:"phone"`
	Email              string            `json:"email"`
	Website            string            `json:"website"`
	ExternalReviewLink string            `json:"external_review_link"`
	Description        string            `json:"description"`
	Geolocation        datatypes.JSONMap `json:"geolocation"`
}

func (s *Server) CreateCompany(c *gin.Context) {
	var req createCompanyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	company, err := s.companySvc.Create(c.Request.Context(), ownerID(c), companydomain.CreateCompanyRequest{
		Name:               req.Name,
		TaxID:              req.TaxID,
		Address:            req.Address,
		City:               req.City,
		PostalCode:         req.PostalCode,
		Phone:              req.Phone,
		Email:              req.Email,
		Website:            req.Website,
		ExternalReviewLink: req.ExternalReviewLink,
		Description:        req.Description,
		Geolocation:        req.Geolocation,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, company)
}

type updateCompanyRequest struct {
	Name               *string `json:"name"`
	TaxID              *string `json:"tax_id"`
	Address            *string `json:"address"`
	City               *string `json:"city"`
	PostalCode         *string `json:"postal_code"`
	Phone              *string `json:"phone"`
	Email              *string `json:"email"`
	Website            *string `json:"website"`
	ExternalReviewLink *string `json:"external_review_link"`
	Description        *string `json:"description"`
}

func (s *Server) UpdateCompany(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		AbortWithError(c, err)
		return
	}

	var req updateCompanyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	company, err := s.companySvc.Update(c.Request.Context(), ownerID(c), id, companydomain.UpdateCompanyRequest{
		Name:               req.Name,
		TaxID:              req.TaxID,
		Address:            req.Address,
		City:               req.City,
		PostalCode:         req.PostalCode,
		Phone:              req.Phone,
		Email:              req.Email,
		Website:            req.Website,
		ExternalReviewLink: req.ExternalReviewLink,
		Description:        req.Description,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, company)
}

func (s *Server) DeactivateCompany(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		AbortWithError(c, err)
		return
	}
	if err := s.companySvc.Deactivate(c.Request.Context(), ownerID(c), id); err != nil {
		AbortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type setProfileRequest struct {
	IsActive           bool              `json:"is_active"`
	ReviewsEnabled     bool              `json:"reviews_enabled"`
	DiscussionsEnabled bool              `json:"discussions_enabled"`
	CustomData         datatypes.JSONMap `json:"custom_data"`
}

func (s *Server) SetCompanyProfile(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		AbortWithError(c, err)
		return
	}

	var req setProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	profile, err := s.companySvc.SetProfile(c.Request.Context(), ownerID(c), id, c.Param("portalSlug"), companydomain.SetProfileRequest{
		IsActive:           req.IsActive,
		ReviewsEnabled:     req.ReviewsEnabled,
		DiscussionsEnabled: req.DiscussionsEnabled,
		CustomData:         req.CustomData,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, profile)
}
