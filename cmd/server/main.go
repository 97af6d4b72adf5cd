package main // Entry point package

import (
	"context"
	"errors"
	"log" // Process lifecycle logging
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	glog "github.com/labstack/gommon/log"

	"github.com/iliyamo/vehicle-rental/internal/access"
	"github.com/iliyamo/vehicle-rental/internal/auth"
	"github.com/iliyamo/vehicle-rental/internal/config"
	"github.com/iliyamo/vehicle-rental/internal/database"
	"github.com/iliyamo/vehicle-rental/internal/handler"
	"github.com/iliyamo/vehicle-rental/internal/middleware"
	"github.com/iliyamo/vehicle-rental/internal/queue"
	"github.com/iliyamo/vehicle-rental/internal/repository"
	"github.com/iliyamo/vehicle-rental/internal/router"
	"github.com/iliyamo/vehicle-rental/internal/service"
)

func main() {
	cfg := config.Load() // Load environment config

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.Open(ctx, cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()
	if cfg.AutoMigrate {
		if err := database.Migrate(ctx, db); err != nil {
			log.Fatalf("migrate: %v", err)
		}
	}

	// Redis is optional; without it rate limiting and caching are skipped.
	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Printf("redis unavailable, rate limiting and cache disabled")
	} else {
		defer rdb.Close()
	}

	users := repository.NewUserRepo(db, cfg.BcryptCost)
	vehicles := repository.NewVehicleRepo(db)
	tokens := repository.NewTokenRepo(db)

	var audit service.Publisher = service.NopPublisher{}
	if cfg.AMQPURL != "" {
		audit = service.NewAMQPPublisher(cfg.AMQPURL)
		if cfg.AuditConsumer {
			go func() {
				if err := queue.StartAuditConsumer(ctx, cfg.AMQPURL, cfg.AuditLogDir); err != nil && !errors.Is(err, context.Canceled) {
					log.Printf("audit consumer stopped: %v", err)
				}
			}()
		}
	}

	sessions := auth.NewEnricher(users, cfg.JWTSecret, cfg.AccessTTL())
	authH := handler.NewAuthHandler(cfg, users, tokens, sessions, audit)
	if oc := config.LoadOAuthConfig(); oc.Enabled() {
		authH.Google = auth.NewGoogleProvider(oc.GoogleClientID, oc.GoogleClientSecret, oc.GoogleRedirectURL)
	}

	e := echo.New() // Create Echo instance
	e.HideBanner = true
	if cfg.Env == "prod" {
		e.Logger.SetLevel(glog.INFO)
	} else {
		e.Logger.SetLevel(glog.DEBUG)
	}
	e.Use(echomw.RequestID(), echomw.Logger(), echomw.Recover())

	router.Install(e, sessions, access.DefaultRules())
	router.RegisterRoutes(e, db)
	router.RegisterAuth(e, authH, middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb))
	router.RegisterAdmin(e,
		handler.NewAdminUserHandler(users, audit),
		handler.NewAdminVehicleHandler(vehicles, users, audit))
	router.RegisterPublic(e, handler.NewPublicHandler(vehicles), middleware.NewRedisCache(config.LoadCacheConfig(), rdb))
	router.RegisterPages(e)

	addr := ":" + cfg.Port                                // Address string with port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env) // Print startup info

	go func() {
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal(err) // Log and exit if server fails
		}
	}()

	<-ctx.Done()
	log.Printf("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownWait)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown: %v", err)
	}
}
