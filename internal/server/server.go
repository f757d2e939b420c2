package server

import (
	"context"
	"net/http"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/citadia/citadia/internal/addon"
	addondomain "github.com/citadia/citadia/internal/addon/domain"
	"github.com/citadia/citadia/internal/association"
	associationdomain "github.com/citadia/citadia/internal/association/domain"
	"github.com/citadia/citadia/internal/audit"
	auditdomain "github.com/citadia/citadia/internal/audit/domain"
	"github.com/citadia/citadia/internal/billingportal"
	billingportaldomain "github.com/citadia/citadia/internal/billingportal/domain"
	"github.com/citadia/citadia/internal/config"
	"github.com/citadia/citadia/internal/dashboard"
	dashboarddomain "github.com/citadia/citadia/internal/dashboard/domain"
	"github.com/citadia/citadia/internal/mandate"
	mandatedomain "github.com/citadia/citadia/internal/mandate/domain"
	"github.com/citadia/citadia/internal/observability"
	obsmiddleware "github.com/citadia/citadia/internal/observability/logger"
	obsmetrics "github.com/citadia/citadia/internal/observability/metrics"
	obstracing "github.com/citadia/citadia/internal/observability/tracing"
	"github.com/citadia/citadia/internal/plan"
	plandomain "github.com/citadia/citadia/internal/plan/domain"
	"github.com/citadia/citadia/internal/providers/pdf"
	"github.com/citadia/citadia/internal/stripebilling"
	stripebillingdomain "github.com/citadia/citadia/internal/stripebilling/domain"
	"github.com/citadia/citadia/internal/tenant"
	tenantdomain "github.com/citadia/citadia/internal/tenant/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var Module = fx.Module("http.server",
	config.Module,
	fx.Provide(registerGin),
	audit.Module,
	plan.Module,
	tenant.Module,
	association.Module,
	addon.Module,
	pdf.Module,
	mandate.Module,
	stripebilling.Module,
	dashboard.Module,
	billingportal.Module,
	fx.Invoke(NewServer),
	fx.Invoke(run),
)

func NewEngine(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(obsmiddleware.GinMiddleware(obsmiddleware.MiddlewareConfig{
		Debug:           obsCfg.Debug(),
		ErrorClassifier: classifyErrorForLog,
	}))
	r.Use(obstracing.GinMiddleware())
	r.Use(obsmetrics.GinMiddleware(httpMetrics))
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func registerGin(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	return NewEngine(obsCfg, httpMetrics)
}

func run(lc fx.Lifecycle, r *gin.Engine) {
	srv := &http.Server{
		Addr:    ":8080",
		Handler: r,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					panic(err)
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
	engine         *gin.Engine
	cfg            config.Config
	db             *gorm.DB
	log            *zap.Logger
	genID          *snowflake.Node
	auditSvc       auditdomain.Service
	tenantSvc      tenantdomain.Service
	tenantRepo     tenantdomain.Repository
	associationSvc associationdomain.Service
	planSvc        plandomain.Service
	addonSvc       addondomain.Service
	mandateSvc     mandatedomain.Service
	stripeSvc      stripebillingdomain.Service
	dashboardSvc   dashboarddomain.Service
	portalSvc      billingportaldomain.Service
	obsMetrics     *obsmetrics.Metrics
}

type ServerParams struct {
	fx.In

	Gin            *gin.Engine
	Cfg            config.Config
	DB             *gorm.DB
	Log            *zap.Logger
	GenID          *snowflake.Node
	AuditSvc       auditdomain.Service
	TenantSvc      tenantdomain.Service
	TenantRepo     tenantdomain.Repository
	AssociationSvc associationdomain.Service
	PlanSvc        plandomain.Service
	AddonSvc       addondomain.Service
	MandateSvc     mandatedomain.Service
	StripeSvc      stripebillingdomain.Service
	DashboardSvc   dashboarddomain.Service
	PortalSvc      billingportaldomain.Service
	ObsMetrics     *obsmetrics.Metrics `optional:"true"`
}

func NewServer(p ServerParams) *Server {
	svc := &Server{
		engine:         p.Gin,
		cfg:            p.Cfg,
		db:             p.DB,
		log:            p.Log.Named("http.server"),
		genID:          p.GenID,
		auditSvc:       p.AuditSvc,
		tenantSvc:      p.TenantSvc,
		tenantRepo:     p.TenantRepo,
		associationSvc: p.AssociationSvc,
		planSvc:        p.PlanSvc,
		addonSvc:       p.AddonSvc,
		mandateSvc:     p.MandateSvc,
		stripeSvc:      p.StripeSvc,
		dashboardSvc:   p.DashboardSvc,
		portalSvc:      p.PortalSvc,
		obsMetrics:     p.ObsMetrics,
	}

	svc.engine.Use(svc.RequestContext())
	svc.registerSuperadminRoutes()
	svc.registerPortalRoutes()

	return svc
}
