package main // Entry point package

import (
	"context"
	"log"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/parking-spot-reservation/internal/clock"
	"github.com/iliyamo/parking-spot-reservation/internal/config"
	"github.com/iliyamo/parking-spot-reservation/internal/database"
	"github.com/iliyamo/parking-spot-reservation/internal/engine"
	"github.com/iliyamo/parking-spot-reservation/internal/handler"
	"github.com/iliyamo/parking-spot-reservation/internal/ledger"
	"github.com/iliyamo/parking-spot-reservation/internal/queue"
	"github.com/iliyamo/parking-spot-reservation/internal/repository"
	"github.com/iliyamo/parking-spot-reservation/internal/router"
	"github.com/iliyamo/parking-spot-reservation/internal/scheduler"
	queue_publisher "github.com/iliyamo/parking-spot-reservation/internal/service"
	"github.com/iliyamo/parking-spot-reservation/internal/waitlist"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()
	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("open catalog database: %v", err)
	}
	defer db.Close()

	clk := clock.NewSystem()
	spotLedger := ledger.New(clk)
	waitlistStore := waitlist.New(clk)
	catalog := repository.NewSpotCatalogRepo(db)
	sink := queue_publisher.New(cfg.AMQPURL)

	eng := engine.New(spotLedger, waitlistStore, catalog, sink, clk,
		engine.WithHoldTTL(cfg.HoldTTL))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Background lifecycle sweep: expires stale holds, promotes waiting
	// entries into freed intervals, completes past reservations.
	go scheduler.New(eng, cfg.SweepInterval).Start(ctx)

	// Background consumer appending booking events to logs/booking.log.
	go func() {
		if err := queue.StartEventConsumer(); err != nil {
			log.Printf("event consumer stopped: %v", err)
		}
	}()

	e := echo.New()
	router.RegisterRoutes(e)
	router.RegisterBooking(e, handler.NewBookingHandler(eng), cfg.JWTSecret,
		config.LoadRateLimitConfig(), config.NewRedisClient())

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)
	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
