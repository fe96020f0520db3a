package main

import (
	"log"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/bus-reservation/internal/booking"
	"github.com/iliyamo/bus-reservation/internal/config"
	"github.com/iliyamo/bus-reservation/internal/database"
	"github.com/iliyamo/bus-reservation/internal/handler"
	"github.com/iliyamo/bus-reservation/internal/middleware"
	"github.com/iliyamo/bus-reservation/internal/queue"
	"github.com/iliyamo/bus-reservation/internal/repository"
	"github.com/iliyamo/bus-reservation/internal/router"
)

func main() {
	// .env is optional; real deployments set variables directly.
	_ = godotenv.Load()

	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	// Repositories and the booking engine.
	users := repository.NewUserRepo(db)
	tokens := repository.NewTokenRepo(db)
	cities := repository.NewCityRepo(db)
	buses := repository.NewBusRepo(db)
	trips := repository.NewTripRepo(db)
	reservations := repository.NewReservationRepo(db)
	engine := booking.NewEngine(repository.NewBookingStore(db), nil)

	e := echo.New()
	e.HideBanner = true

	// Redis-backed rate limiting and response caching degrade to
	// pass-through when Redis is unreachable.
	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Println("redis unavailable; rate limiting and caching disabled")
	}
	e.Use(middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb))
	e.Use(middleware.NewRedisCache(config.LoadCacheConfig(), rdb))

	router.RegisterRoutes(e)
	router.RegisterAuth(e, handler.NewAuthHandler(cfg, users, tokens), cfg.JWTSecret)
	router.RegisterPublic(e, handler.NewPublicHandler(trips, engine))
	router.RegisterCustomer(e, handler.NewCustomerHandler(engine, reservations), cfg.JWTSecret)
	router.RegisterAdmin(e, handler.NewAdminHandler(cities, buses, trips, reservations, engine), cfg.JWTSecret)

	// Background consumer appending reservation events to logs/booking.log.
	go func() {
		if err := queue.StartReservationConsumer(); err != nil {
			log.Printf("reservation consumer stopped: %v", err)
		}
	}()

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)
	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
