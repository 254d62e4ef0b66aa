package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	authgin "github.com/rajeshkumar-okta/courtedge-ai-demo/adapters/gin"
	"github.com/rajeshkumar-okta/courtedge-ai-demo/adapters/gin/handlers"
	"github.com/rajeshkumar-okta/courtedge-ai-demo/adapters/ginutil"
	"github.com/rajeshkumar-okta/courtedge-ai-demo/agents"
	"github.com/rajeshkumar-okta/courtedge-ai-demo/audit"
	pgaudit "github.com/rajeshkumar-okta/courtedge-ai-demo/audit/postgres"
	"github.com/rajeshkumar-okta/courtedge-ai-demo/config"
	"github.com/rajeshkumar-okta/courtedge-ai-demo/exchange"
	"github.com/rajeshkumar-okta/courtedge-ai-demo/gate"
	"github.com/rajeshkumar-okta/courtedge-ai-demo/orchestrator"
	memorylimiter "github.com/rajeshkumar-okta/courtedge-ai-demo/ratelimit/memory"
	redislimiter "github.com/rajeshkumar-okta/courtedge-ai-demo/ratelimit/redis"
	memorystore "github.com/rajeshkumar-okta/courtedge-ai-demo/storage/memory"
	redisstore "github.com/rajeshkumar-okta/courtedge-ai-demo/storage/redis"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()

	root := logrus.New()
	if cfg.Development() {
		root.SetLevel(logrus.DebugLevel)
	} else {
		root.SetFormatter(&logrus.JSONFormatter{})
	}
	log := root.WithField("service", "courtedge")

	mode := gate.ModeFor(cfg.Issuer, cfg.Env)
	validator := gate.New(mode, cfg.Issuer, cfg.Audience,
		gate.WithJWKSURL(cfg.JWKSURL),
		gate.WithLogger(log),
	)
	log.WithFields(logrus.Fields{
		"mode":   mode.String(),
		"issuer": cfg.Issuer,
	}).Info("token validation configured")

	var rdb *redis.Client
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			log.WithError(err).Fatal("invalid REDIS_URL")
		}
		rdb = redis.NewClient(opts)
	}

	var tokenCache exchange.TokenCache
	if rdb != nil {
		tokenCache = redisstore.NewTokenCache(rdb, "")
	} else {
		mem := memorystore.NewTokenCache()
		defer mem.Close()
		tokenCache = mem
	}

	exch := exchange.New(cfg.Domain, cfg.MainAuthServerID,
		exchange.WithTokenCache(tokenCache),
		exchange.WithLogger(log),
	)

	agentCfgs := agents.AllFromEnv()
	configured := 0
	for _, ac := range agentCfgs {
		if ac.Configured() {
			configured++
		}
	}
	log.WithFields(logrus.Fields{
		"total":      len(agentCfgs),
		"configured": configured,
	}).Info("agents loaded")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var recorder audit.Recorder = audit.NewMemoryRecorder(0, log)
	var sweeper *cron.Cron
	if cfg.DatabaseURL != "" {
		pg, err := pgxpool.New(ctx, cfg.DatabaseURL)
		if err != nil {
			log.WithError(err).Fatal("connect postgres")
		}
		defer pg.Close()

		store := pgaudit.NewStore(pg, "")
		recorder = store

		sweeper = cron.New()
		_, err = sweeper.AddFunc("@hourly", func() {
			n, err := store.Sweep(context.Background(), cfg.AuditRetention)
			if err != nil {
				log.WithError(err).Warn("audit sweep failed")
				return
			}
			if n > 0 {
				log.WithField("removed", n).Info("audit sweep")
			}
		})
		if err != nil {
			log.WithError(err).Fatal("schedule audit sweep")
		}
		sweeper.Start()
		defer sweeper.Stop()
	}

	orc := orchestrator.New(exch, agentCfgs, recorder, log)

	var limiter ginutil.RateLimiter
	limits := map[string]memorylimiter.Limit{
		ginutil.RLChat:      {Limit: 30, Window: time.Minute},
		ginutil.RLAuditLogs: {Limit: 60, Window: time.Minute},
	}
	if rdb != nil {
		rl := map[string]redislimiter.Limit{}
		for name, l := range limits {
			rl[name] = redislimiter.Limit{Limit: l.Limit, Window: l.Window}
		}
		limiter = redislimiter.New(rdb, rl)
	} else {
		limiter = memorylimiter.New(limits)
	}

	if !cfg.Development() {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(authgin.RequestLogger(log))
	r.Use(authgin.CORS(cfg.CORSOrigins))

	r.GET("/", handlers.HandleRootGET())
	r.GET("/health", handlers.HandleHealthGET(mode.String(), configured))

	api := r.Group("/api")
	api.POST("/chat", authgin.AuthRequired(validator), handlers.HandleChatPOST(orc, limiter))
	api.GET("/agents/status", handlers.HandleAgentsStatusGET(orc))
	api.GET("/agents/config", handlers.HandleAgentsConfigGET())
	api.GET("/config/okta", handlers.HandleOktaConfigGET(cfg))
	api.GET("/audit/logs", authgin.AuthOptional(validator), handlers.HandleAuditLogsGET(recorder, limiter))

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.WithField("addr", srv.Addr).Info("server listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		log.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.WithError(err).Error("shutdown")
		}
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("server error")
		}
	}
}
