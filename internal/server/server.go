package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/smallbiznis/churnwatch/internal/config"
	"github.com/smallbiznis/churnwatch/internal/customer/domain"
	"github.com/smallbiznis/churnwatch/internal/observability"
	"github.com/smallbiznis/churnwatch/internal/scoring/monitor"
	"github.com/smallbiznis/churnwatch/internal/scoring/sink"
	"github.com/smallbiznis/churnwatch/internal/simulation/population"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var Module = fx.Module("http.server",
	fx.Provide(NewEngine),
	fx.Invoke(NewServer),
	fx.Invoke(run),
)

type populationReporter interface {
	Stats(ctx context.Context) (population.Stats, error)
}

type scoringPass interface {
	Pass(ctx context.Context) (monitor.PassResult, error)
}

type riskCache interface {
	Assessment(ctx context.Context, customerID int64) (sink.CachedAssessment, bool, error)
	HighRisk(ctx context.Context, limit int64) ([]sink.RankedCustomer, error)
}

func NewEngine(obsCfg observability.Config) *gin.Engine {
	if !obsCfg.Debug() {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(otelgin.Middleware(obsCfg.ServiceName))
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func run(lc fx.Lifecycle, cfg config.Config, r *gin.Engine, log *zap.Logger) {
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					log.Error("http server stopped", zap.Error(err))
				}
			}()
			log.Info("http server listening", zap.String("addr", cfg.HTTPAddr))
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}

type ServerParams struct {
	fx.In

	Engine   *gin.Engine
	DB       *gorm.DB
	Repo     domain.Repository
	Reporter *population.Reporter
	Monitor  *monitor.Monitor
	Cache    *sink.RedisSink `optional:"true"`
}

type Server struct {
	engine   *gin.Engine
	db       *gorm.DB
	repo     domain.Repository
	reporter populationReporter
	scorer   scoringPass
	cache    riskCache
}

func NewServer(p ServerParams) *Server {
	s := &Server{
		engine:   p.Engine,
		db:       p.DB,
		repo:     p.Repo,
		reporter: p.Reporter,
		scorer:   p.Monitor,
	}
	if p.Cache != nil {
		s.cache = p.Cache
	}
	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	v1 := s.engine.Group("/v1")
	v1.GET("/population", s.GetPopulation)
	v1.GET("/customers", s.ListCustomers)
	v1.GET("/risk", s.ScorePopulation)
	v1.GET("/risk/high", s.ListCachedHighRisk)
	v1.GET("/risk/customers/:id", s.GetCachedAssessment)
}
