package server

import (
	"context"
	"net/http"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/opiniohq/opinio/internal/campaign"
	campaigndomain "github.com/opiniohq/opinio/internal/campaign/domain"
	"github.com/opiniohq/opinio/internal/company"
	companydomain "github.com/opiniohq/opinio/internal/company/domain"
	"github.com/opiniohq/opinio/internal/config"
	"github.com/opiniohq/opinio/internal/entitlement"
	entitlementdomain "github.com/opiniohq/opinio/internal/entitlement/domain"
	"github.com/opiniohq/opinio/internal/identity"
	obslogging "github.com/opiniohq/opinio/internal/observability/logging"
	obsmetrics "github.com/opiniohq/opinio/internal/observability/metrics"
	"github.com/opiniohq/opinio/internal/portal"
	portaldomain "github.com/opiniohq/opinio/internal/portal/domain"
	billingprovider "github.com/opiniohq/opinio/internal/providers/billing"
	"github.com/opiniohq/opinio/internal/ratelimit"
	"github.com/opiniohq/opinio/internal/review"
	reviewdomain "github.com/opiniohq/opinio/internal/review/domain"
	"github.com/opiniohq/opinio/internal/stats"
	statsdomain "github.com/opiniohq/opinio/internal/stats/domain"
	"github.com/opiniohq/opinio/internal/subscription"
	subscriptiondomain "github.com/opiniohq/opinio/internal/subscription/domain"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var Module = fx.Module("http.server",
	fx.Provide(registerGin),
	identity.Module,
	ratelimit.Module,
	portal.Module,
	subscription.Module,
	billingprovider.Module,
	entitlement.Module,
	company.Module,
	review.Module,
	campaign.Module,
	stats.Module,
	fx.Invoke(NewServer),
	fx.Invoke(run),
)

func NewEngine(log *zap.Logger, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(obslogging.GinMiddleware(log))
	r.Use(obsmetrics.GinMiddleware(httpMetrics))
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func registerGin(log *zap.Logger, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	return NewEngine(log, httpMetrics)
}

func run(lc fx.Lifecycle, cfg config.Config, r *gin.Engine, log *zap.Logger) {
	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: r,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				log.Info("http server listening", zap.String("addr", srv.Addr))
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					log.Fatal("http server failed", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}

type Server struct {
	engine          *gin.Engine
	cfg             config.Config
	log             *zap.Logger
	db              *gorm.DB
	genID           *snowflake.Node
	verifier        identity.Verifier
	limiter         *ratelimit.Limiter
	httpMetrics     *obsmetrics.HTTPMetrics
	portalSvc       portaldomain.Service
	companySvc      companydomain.Service
	reviewSvc       reviewdomain.Service
	campaignSvc     campaigndomain.Service
	statsSvc        statsdomain.Service
	subscriptionSvc subscriptiondomain.Service
	entitlementSvc  entitlementdomain.Service
}

type ServerParams struct {
	fx.In

	Gin             *gin.Engine
	Cfg             config.Config
	Log             *zap.Logger
	DB              *gorm.DB
	GenID           *snowflake.Node
	Verifier        identity.Verifier
	Limiter         *ratelimit.Limiter
	HTTPMetrics     *obsmetrics.HTTPMetrics
	PortalSvc       portaldomain.Service
	CompanySvc      companydomain.Service
	ReviewSvc       reviewdomain.Service
	CampaignSvc     campaigndomain.Service
	StatsSvc        statsdomain.Service
	SubscriptionSvc subscriptiondomain.Service
	EntitlementSvc  entitlementdomain.Service
}

func NewServer(p ServerParams) *Server {
	svc := &Server{
		engine:          p.Gin,
		cfg:             p.Cfg,
		log:             p.Log.Named("server"),
		db:              p.DB,
		genID:           p.GenID,
		verifier:        p.Verifier,
		limiter:         p.Limiter,
		httpMetrics:     p.HTTPMetrics,
		portalSvc:       p.PortalSvc,
		companySvc:      p.CompanySvc,
		reviewSvc:       p.ReviewSvc,
		campaignSvc:     p.CampaignSvc,
		statsSvc:        p.StatsSvc,
		subscriptionSvc: p.SubscriptionSvc,
		entitlementSvc:  p.EntitlementSvc,
	}

	svc.registerPortalRoutes()
	svc.registerInvitationRoutes()
	svc.registerServiceRoutes()
	svc.registerDashboardRoutes()
	svc.registerWebhookRoutes()

	return svc
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) registerPortalRoutes() {
	api := s.engine.Group("/api", s.PortalKeyRequired())

	api.GET("/companies", s.RateLimit(ratelimit.BucketSearch), s.SearchCompanies)
	api.GET("/companies/:slug", s.RateLimit(ratelimit.BucketPublicRead), s.GetCompany)
	api.GET("/companies/:slug/reviews", s.RateLimit(ratelimit.BucketPublicRead), s.ListCompanyReviews)
	api.GET("/companies/:slug/stats", s.RateLimit(ratelimit.BucketPublicRead), s.GetCompanyStats)
	api.POST("/companies/:slug/reviews", s.RateLimit(ratelimit.BucketReviewSubmit), s.SubmitReview)
}

func (s *Server) registerInvitationRoutes() {
	inv := s.engine.Group("/api/invitations")

	inv.GET("/:token", s.RateLimit(ratelimit.BucketPublicRead), s.GetInvitation)
	inv.POST("/:token/review", s.RateLimit(ratelimit.BucketReviewSubmit), s.SubmitInvitedReview)
}

func (s *Server) registerServiceRoutes() {
	s.engine.POST("/api/customers", s.ServiceTokenRequired(), s.RegisterCustomer)
}

func (s *Server) registerDashboardRoutes() {
	dash := s.engine.Group("/api/dashboard",
		s.AuthRequired(),
		s.RateLimit(ratelimit.BucketDashboard),
	)

	dash.GET("/portals", s.ListPortals)
	dash.GET("/entitlement", s.GetEntitlement)

	dash.GET("/companies", s.ListOwnedCompanies)
	dash.POST("/companies", s.CreateCompany)
	dash.PATCH("/companies/:id", s.UpdateCompany)
	dash.DELETE("/companies/:id", s.DeactivateCompany)
	dash.PUT("/companies/:id/portals/:portalSlug", s.SetCompanyProfile)

	dash.GET("/reviews", s.ListOwnedReviews)
	dash.POST("/reviews", s.CreateOwnedReview)
	dash.POST("/reviews/:id/approve", s.ApproveReview)
	dash.POST("/reviews/:id/reject", s.RejectReview)
	dash.POST("/reviews/:id/archive", s.ArchiveReview)
	dash.PATCH("/reviews/:id", s.EditReview)
	dash.DELETE("/reviews/:id", s.DeleteReview)

	dash.GET("/companies/:id/campaigns", s.ListCampaigns)
	dash.POST("/campaigns", s.CreateCampaign)
	dash.PATCH("/campaigns/:id", s.UpdateCampaign)
	dash.DELETE("/campaigns/:id", s.DeleteCampaign)
	dash.GET("/campaigns/:id/invitations", s.ListInvitations)

	dash.GET("/companies/:id/analytics", s.GetCompanyAnalytics)

	dash.POST("/billing/checkout", s.StartCheckout)
	dash.POST("/billing/portal", s.OpenBillingPortal)
}

func (s *Server) registerWebhookRoutes() {
	s.engine.POST("/api/webhooks/billing", s.BillingWebhook)
}
