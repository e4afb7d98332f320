package server

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	campaigndomain "github.com/opiniohq/opinio/internal/campaign/domain"
	"gorm.io/datatypes"
)

type registerCustomerRequest struct {
	CompanySlug string            `json:"company_slug"`
	Email       string            `json:"email"`
	Phone       string            `json:"phone"`
	FirstName   string            `json:"first_name"`
	LastName    string            `json:"last_name"`
	Metadata    datatypes.JSONMap `json:"metadata"`
	EventAt     *time.Time        `json:"event_at"`
}

// RegisterCustomer ingests an order notification from a trusted backend and
// fans out review invitations for the company's active campaigns.
func (s *Server) RegisterCustomer(c *gin.Context) {
	var req registerCustomerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	event := campaigndomain.CustomerEventRequest{
		CompanySlug: req.CompanySlug,
		Email:       req.Email,
		Phone:       req.Phone,
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		Metadata:    req.Metadata,
	}
	if req.EventAt != nil {
		event.EventAt = *req.EventAt
	}

	customer, invitations, err := s.campaignSvc.RegisterCustomerEvent(c.Request.Context(), event)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"customer_id": customer.ID,
		"invitations": invitations,
	})
}
