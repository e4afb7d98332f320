package repository

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	campaigndomain "github.com/opiniohq/opinio/internal/campaign/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type repo struct{}

func Provide() campaigndomain.Repository {
	return &repo{}
}

func (r *repo) InsertCampaign(ctx context.Context, db *gorm.DB, campaign *campaigndomain.ReviewCampaign) error {
	return db.WithContext(ctx).Create(campaign).Error
}

func (r *repo) SaveCampaign(ctx context.Context, db *gorm.DB, campaign *campaigndomain.ReviewCampaign) error {
	return db.WithContext(ctx).Save(campaign).Error
}

func (r *repo) DeleteCampaign(ctx context.Context, db *gorm.DB, id snowflake.ID) error {
	return db.WithContext(ctx).Delete(&campaigndomain.ReviewCampaign{}, "id = ?", id).Error
}

func (r *repo) FindCampaignByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*campaigndomain.ReviewCampaign, error) {
	var campaign campaigndomain.ReviewCampaign
	err := db.WithContext(ctx).Where("id = ?", id).First(&campaign).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &campaign, nil
}

func (r *repo) FindOwnedCampaign(ctx context.Context, db *gorm.DB, id snowflake.ID, ownerID string) (*campaigndomain.ReviewCampaign, error) {
	var campaign campaigndomain.ReviewCampaign
	err := db.WithContext(ctx).Raw(
		`SELECT review_campaigns.*
		 FROM review_campaigns
		 JOIN companies ON companies.id = review_campaigns.company_id
		 WHERE review_campaigns.id = ? AND companies.owner_id = ?
		 LIMIT 1`,
		id,
		ownerID,
	).Scan(&campaign).Error
	if err != nil {
		return nil, err
	}
	if campaign.ID == 0 {
		return nil, nil
	}
	return &campaign, nil
}

func (r *repo) ListCampaignsByCompany(ctx context.Context, db *gorm.DB, companyID snowflake.ID) ([]campaigndomain.ReviewCampaign, error) {
	var campaigns []campaigndomain.ReviewCampaign
	err := db.WithContext(ctx).
		Where("company_id = ?", companyID).
		Order("created_at DESC").
		Find(&campaigns).Error
	return campaigns, err
}

func (r *repo) ListActiveCampaignsByCompany(ctx context.Context, db *gorm.DB, companyID snowflake.ID) ([]campaigndomain.ReviewCampaign, error) {
	var campaigns []campaigndomain.ReviewCampaign
	err := db.WithContext(ctx).
		Where("company_id = ? AND status = ?", companyID, campaigndomain.CampaignActive).
		Find(&campaigns).Error
	return campaigns, err
}

// UpsertCustomer dedupes on (company_id, email), falling back to
// (company_id, phone) when the event carries no email. Two phone-only
// contacts with different numbers stay distinct rows.
func (r *repo) UpsertCustomer(ctx context.Context, db *gorm.DB, customer *campaigndomain.Customer) (*campaigndomain.Customer, error) {
	if customer.Email == "" {
		return r.upsertCustomerByPhone(ctx, db, customer)
	}

	err := db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:     []clause.Column{{Name: "company_id"}, {Name: "email"}},
		TargetWhere: clause.Where{Exprs: []clause.Expression{clause.Expr{SQL: "email <> ''"}}},
		DoUpdates: clause.AssignmentColumns([]string{
			"phone", "first_name", "last_name", "metadata", "last_event_at", "updated_at",
		}),
	}).Create(customer).Error
	if err != nil {
		return nil, err
	}

	var saved campaigndomain.Customer
	err = db.WithContext(ctx).
		Where("company_id = ? AND email = ?", customer.CompanyID, customer.Email).
		First(&saved).Error
	if err != nil {
		return nil, err
	}
	return &saved, nil
}

func (r *repo) upsertCustomerByPhone(ctx context.Context, db *gorm.DB, customer *campaigndomain.Customer) (*campaigndomain.Customer, error) {
	var existing campaigndomain.Customer
	err := db.WithContext(ctx).
		Where("company_id = ? AND email = '' AND phone = ?", customer.CompanyID, customer.Phone).
		First(&existing).Error
	if err == gorm.ErrRecordNotFound {
		if err := db.WithContext(ctx).Create(customer).Error; err != nil {
			return nil, err
		}
		return customer, nil
	}
	if err != nil {
		return nil, err
	}

	err = db.WithContext(ctx).
		Model(&campaigndomain.Customer{}).
		Where("id = ?", existing.ID).
		Updates(map[string]interface{}{
			"first_name":    customer.FirstName,
			"last_name":     customer.LastName,
			"metadata":      customer.Metadata,
			"last_event_at": customer.LastEventAt,
			"updated_at":    customer.UpdatedAt,
		}).Error
	if err != nil {
		return nil, err
	}

	var saved campaigndomain.Customer
	if err := db.WithContext(ctx).Where("id = ?", existing.ID).First(&saved).Error; err != nil {
		return nil, err
	}
	return &saved, nil
}

func (r *repo) InsertInvitation(ctx context.Context, db *gorm.DB, invitation *campaigndomain.ReviewInvitation) error {
	return db.WithContext(ctx).Create(invitation).Error
}

func (r *repo) FindInvitationByToken(ctx context.Context, db *gorm.DB, token string) (*campaigndomain.ReviewInvitation, error) {
	var invitation campaigndomain.ReviewInvitation
	err := db.WithContext(ctx).Where("token = ?", token).First(&invitation).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &invitation, nil
}

func (r *repo) HasOpenInvitation(ctx context.Context, db *gorm.DB, campaignID, customerID snowflake.ID) (bool, error) {
	var count int64
	err := db.WithContext(ctx).
		Model(&campaigndomain.ReviewInvitation{}).
		Where("campaign_id = ? AND customer_id = ? AND status <> ?",
			campaignID, customerID, campaigndomain.InvitationConverted).
		Count(&count).Error
	return count > 0, err
}

func (r *repo) AdvanceInvitation(ctx context.Context, db *gorm.DB, id snowflake.ID, to campaigndomain.InvitationStatus, reviewID *snowflake.ID) error {
	// Forward-only guard expressed over the status set below the target.
	var below []campaigndomain.InvitationStatus
	for _, s := range []campaigndomain.InvitationStatus{
		campaigndomain.InvitationPending,
		campaigndomain.InvitationSent,
		campaigndomain.InvitationOpened,
		campaigndomain.InvitationClicked,
	} {
		if s.Rank() < to.Rank() {
			below = append(below, s)
		}
	}

	updates := map[string]interface{}{
		"status":     to,
		"updated_at": time.Now().UTC(),
	}
	if reviewID != nil {
		updates["review_id"] = *reviewID
	}
	if to == campaigndomain.InvitationSent {
		updates["sent_at"] = time.Now().UTC()
	}

	return db.WithContext(ctx).
		Model(&campaigndomain.ReviewInvitation{}).
		Where("id = ? AND status IN ?", id, below).
		Updates(updates).Error
}

func (r *repo) ListInvitationsByCampaign(ctx context.Context, db *gorm.DB, campaignID snowflake.ID) ([]campaigndomain.ReviewInvitation, error) {
	var invitations []campaigndomain.ReviewInvitation
	err := db.WithContext(ctx).
		Where("campaign_id = ?", campaignID).
		Order("created_at DESC").
		Find(&invitations).Error
	return invitations, err
}
