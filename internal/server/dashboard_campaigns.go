package server

import (
	"net/http"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	campaigndomain "github.com/opiniohq/opinio/internal/campaign/domain"
)

func (s *Server) ListCampaigns(c *gin.Context) {
	companyID, err := pathID(c, "id")
	if err != nil {
		AbortWithError(c, err)
		return
	}
	campaigns, err := s.campaignSvc.ListCampaigns(c.Request.Context(), ownerID(c), companyID)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": campaigns})
}

type createCampaignRequest struct {
	CompanyID string   `json:"company_id"`
	Name      string   `json:"name"`
	Portals   []string `json:"portals"`
	DelayDays int      `json:"delay_days"`
}

func (s *Server) CreateCampaign(c *gin.Context) {
	var req createCampaignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	companyID, err := snowflake.ParseString(strings.TrimSpace(req.CompanyID))
	if err != nil {
		AbortWithError(c, newValidationError("company_id", "invalid_id", "invalid identifier"))
		return
	}

	campaign, err := s.campaignSvc.CreateCampaign(c.Request.Context(), ownerID(c), campaigndomain.CreateCampaignRequest{
		CompanyID: companyID,
		Name:      req.Name,
		Portals:   req.Portals,
		DelayDays: req.DelayDays,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, campaign)
}

type updateCampaignRequest struct {
	Name      *string  `json:"name"`
	Portals   []string `json:"portals"`
	Status    *string  `json:"status"`
	DelayDays *int     `json:"delay_days"`
}

func (s *Server) UpdateCampaign(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		AbortWithError(c, err)
		return
	}

	var req updateCampaignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	update := campaigndomain.UpdateCampaignRequest{
		Name:      req.Name,
		Portals:   req.Portals,
		DelayDays: req.DelayDays,
	}
	if req.Status != nil {
		status := campaigndomain.CampaignStatus(strings.ToLower(strings.TrimSpace(*req.Status)))
		if status != campaigndomain.CampaignActive && status != campaigndomain.CampaignPaused {
			AbortWithError(c, newValidationError("status", "invalid_status", "invalid value"))
			return
		}
		update.Status = &status
	}

	campaign, err := s.campaignSvc.UpdateCampaign(c.Request.Context(), ownerID(c), id, update)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, campaign)
}

func (s *Server) DeleteCampaign(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		AbortWithError(c, err)
		return
	}
	if err := s.campaignSvc.DeleteCampaign(c.Request.Context(), ownerID(c), id); err != nil {
		AbortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) ListInvitations(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		AbortWithError(c, err)
		return
	}
	invitations, err := s.campaignSvc.ListInvitations(c.Request.Context(), ownerID(c), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": invitations})
}
