package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/pagelift/pagelift/internal/access"
	accessdomain "github.com/pagelift/pagelift/internal/access/domain"
	"github.com/pagelift/pagelift/internal/account"
	accountdomain "github.com/pagelift/pagelift/internal/account/domain"
	"github.com/pagelift/pagelift/internal/activity"
	activitydomain "github.com/pagelift/pagelift/internal/activity/domain"
	"github.com/pagelift/pagelift/internal/business"
	businessdomain "github.com/pagelift/pagelift/internal/business/domain"
	"github.com/pagelift/pagelift/internal/cache"
	"github.com/pagelift/pagelift/internal/clock"
	"github.com/pagelift/pagelift/internal/config"
	"github.com/pagelift/pagelift/internal/entitlement"
	"github.com/pagelift/pagelift/internal/observability"
	obsmetrics "github.com/pagelift/pagelift/internal/observability/metrics"
	obstracing "github.com/pagelift/pagelift/internal/observability/tracing"
	"github.com/pagelift/pagelift/internal/ratelimit"
)

var Module = fx.Module("http.server",
	config.Module,
	observability.Module,
	obsmetrics.Module,
	fx.Provide(registerGin),
	entitlement.Module,
	account.Module,
	business.Module,
	activity.Module,
	access.Module,
	ratelimit.Module,
	fx.Provide(NewServer),
	fx.Invoke(registerRoutes),
	fx.Invoke(runMaintenance),
	fx.Invoke(run),
)

func NewEngine(log *zap.Logger, httpMetrics *obsmetrics.Metrics) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(RequestLogger(log))
	r.Use(obstracing.GinMiddleware())
	r.Use(obsmetrics.GinMiddleware(httpMetrics))
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func registerGin(log *zap.Logger, httpMetrics *obsmetrics.Metrics) *gin.Engine {
	return NewEngine(log, httpMetrics)
}

func run(lc fx.Lifecycle, r *gin.Engine, cfg config.Config) {
	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
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

// limiterRetention is how long an idle rate bucket survives before the
// maintenance pass reclaims it.
const limiterRetention = 10 * time.Minute

func runMaintenance(lc fx.Lifecycle, s *Server, log *zap.Logger) {
	sweeper := cache.NewSweeper(time.Minute, log, s.pageCache, s.businessCache, s.listCache)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			sweeper.Start()
			go func() {
				defer close(done)
				ticker := time.NewTicker(time.Minute)
				defer ticker.Stop()
				for {
					select {
					case <-ctx.Done():
						return
					case <-ticker.C:
						s.limiter.PruneStale(limiterRetention)
					}
				}
			}()
			return nil
		},
		OnStop: func(context.Context) error {
			cancel()
			<-done
			sweeper.Stop()
			return nil
		},
	})
}

type Server struct {
	engine     *gin.Engine
	cfg        config.Config
	log        *zap.Logger
	governance *config.GovernanceConfigHolder
	limiter    *ratelimit.FixedWindowLimiter
	metrics    *obsmetrics.Metrics
	table      *entitlement.Table

	accountSvc  accountdomain.Service
	businessSvc businessdomain.Service
	activitySvc activitydomain.Service
	accessSvc   accessdomain.Service

	pageCache     *cache.TTLCache[string, businessdomain.PublicPage]
	businessCache *cache.TTLCache[string, businessdomain.Business]
	listCache     *cache.TTLCache[string, []businessdomain.Business]
}

type ServerParams struct {
	fx.In

	Gin        *gin.Engine
	Cfg        config.Config
	Log        *zap.Logger
	Governance *config.GovernanceConfigHolder
	Limiter    *ratelimit.FixedWindowLimiter
	Metrics    *obsmetrics.Metrics `optional:"true"`
	Table      *entitlement.Table
	Clock      clock.Clock

	AccountSvc  accountdomain.Service
	BusinessSvc businessdomain.Service
	ActivitySvc activitydomain.Service
	AccessSvc   accessdomain.Service
}

func NewServer(p ServerParams) *Server {
	return &Server{
		engine:      p.Gin,
		cfg:         p.Cfg,
		log:         p.Log.Named("http.server"),
		governance:  p.Governance,
		limiter:     p.Limiter,
		metrics:     p.Metrics,
		table:       p.Table,
		accountSvc:  p.AccountSvc,
		businessSvc: p.BusinessSvc,
		activitySvc: p.ActivitySvc,
		accessSvc:   p.AccessSvc,

		pageCache:     cache.NewTTLCache[string, businessdomain.PublicPage](p.Clock),
		businessCache: cache.NewTTLCache[string, businessdomain.Business](p.Clock),
		listCache:     cache.NewTTLCache[string, []businessdomain.Business](p.Clock),
	}
}

func registerRoutes(s *Server) {
	s.registerAPIRoutes()
	s.registerPublicRoutes()
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) registerAPIRoutes() {
	api := s.engine.Group("/api")

	api.POST("/users", s.RateLimit(config.RateClassMutation), s.CreateUser)
	api.GET("/me", s.AuthRequired(), s.RateLimit(config.RateClassRead), s.GetMe)
	api.GET("/entitlements", s.AuthRequired(), s.RateLimit(config.RateClassRead), s.GetEntitlements)

	businesses := api.Group("/businesses", s.AuthRequired())
	{
		businesses.GET("", s.RateLimit(config.RateClassRead), s.ListBusinesses)
		businesses.POST("", s.RateLimit(config.RateClassMutation), s.CreateBusiness)
		businesses.GET("/:id", s.RateLimit(config.RateClassRead), s.GetBusinessByID)
		businesses.PATCH("/:id", s.RateLimit(config.RateClassMutation), s.UpdateBusiness)
		businesses.DELETE("/:id", s.RateLimit(config.RateClassMutation), s.DeleteBusiness)
		businesses.GET("/:id/leads", s.RateLimit(config.RateClassRead), s.ListLeads)
	}

	api.GET("/activity", s.AuthRequired(), s.RateLimit(config.RateClassRead), s.ListActivity)

	api.POST("/billing/webhooks", s.RateLimit(config.RateClassWebhook), s.HandleBillingWebhook)
}

func (s *Server) registerPublicRoutes() {
	public := s.engine.Group("/p")

	public.GET("/:slug", s.RateLimit(config.RateClassPublicRead), s.GetPublicPage)
	public.POST("/:slug/leads", s.RateLimit(config.RateClassLead), s.CreatePublicLead)
}
