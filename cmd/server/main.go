package main // Entry point package

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	"github.com/coursehub/live-orchestrator/internal/config"
	"github.com/coursehub/live-orchestrator/internal/database"
	"github.com/coursehub/live-orchestrator/internal/handler"
	"github.com/coursehub/live-orchestrator/internal/media"
	"github.com/coursehub/live-orchestrator/internal/middleware"
	"github.com/coursehub/live-orchestrator/internal/queue"
	"github.com/coursehub/live-orchestrator/internal/repository"
	"github.com/coursehub/live-orchestrator/internal/router"
	"github.com/coursehub/live-orchestrator/internal/session"
)

func main() {
	// Load a local .env if present; real environments set variables
	// directly.
	if err := godotenv.Load(); err != nil {
		log.Printf("no .env file loaded: %v", err)
	}
	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	rdb := config.NewRedisClient() // nil when Redis is unreachable; features degrade

	courses := repository.NewCourseRepo(db)
	schedules := repository.NewScheduleRepo(db)
	bookings := repository.NewBookingRepo(db, cfg.CountConfirmedOnly)
	live := repository.NewLiveSessionRepo(db)

	provider := media.NewGatewayClient(cfg.MediaAppID, cfg.MediaAppCert, cfg.MediaGatewayURL, cfg.MediaTimeout)
	notifier := queue.NewPublisher("")

	engine := session.NewEngine(courses, schedules, bookings, live, provider, notifier, session.Config{
		GraceBefore:     cfg.GraceBefore,
		GraceAfter:      cfg.GraceAfter,
		CredentialTTL:   cfg.CredentialTTL,
		ProviderTimeout: cfg.MediaTimeout,
		RecordingSource: cfg.RecordingSource,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Background reconciliation: force-stops sessions whose grace window
	// has lapsed and unpublishes full courses with no future meetings.
	sweep := session.NewSweep(engine, courses, schedules, bookings, live, cfg.SweepInterval)
	go sweep.Run(ctx)

	// Payment confirmations arrive over the queue, not over HTTP.
	go queue.StartPaymentConsumer(ctx, engine)

	e := echo.New()
	e.HideBanner = true

	rateCfg := config.LoadRateLimitConfig()
	cacheCfg := config.LoadCacheConfig()
	var limitMW, cacheMW []echo.MiddlewareFunc
	if rdb != nil {
		limitMW = append(limitMW, middleware.NewTokenBucket(rateCfg, rdb))
		cacheMW = append(cacheMW, middleware.NewResponseCache(cacheCfg, rdb))
	}

	router.RegisterRoutes(e)
	router.RegisterSchedules(e, handler.NewScheduleHandler(schedules, courses, cacheCfg, rdb), cfg.JWTSecret, cacheMW...)
	router.RegisterBookings(e, handler.NewBookingHandler(engine), cfg.JWTSecret, limitMW...)
	router.RegisterLive(e, handler.NewLiveHandler(engine), cfg.JWTSecret, limitMW...)

	addr := ":" + cfg.Port
	go func() {
		log.Printf("listening on %s (env=%s)", addr, cfg.Env)
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			log.Fatal(err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown: %v", err)
	}
}
