package main

import (
	"context"   // shutdown and consumer lifetime
	"errors"    // sentinel checks on startup errors
	"log"       // logging library
	"net/http"  // http.ErrServerClosed
	"os"        // os.Interrupt, os.ErrNotExist
	"os/signal" // stop on SIGINT/SIGTERM
	"syscall"   // SIGTERM
	"time"      // shutdown grace period

	"github.com/google/uuid"                        // request ids
	"github.com/joho/godotenv"                      // optional .env file
	"github.com/labstack/echo/v4"                   // Echo web framework
	echomw "github.com/labstack/echo/v4/middleware" // request id, logging, recover

	"github.com/iliyamo/hotel-booking/internal/config"     // env config loader
	"github.com/iliyamo/hotel-booking/internal/database"   // MySQL pool and schema
	"github.com/iliyamo/hotel-booking/internal/handler"    // HTTP handlers
	"github.com/iliyamo/hotel-booking/internal/mailer"     // SMTP notifications
	"github.com/iliyamo/hotel-booking/internal/middleware" // cache and rate limiter
	"github.com/iliyamo/hotel-booking/internal/queue"      // RabbitMQ publisher and consumer
	"github.com/iliyamo/hotel-booking/internal/repository" // SQL repositories and store
	"github.com/iliyamo/hotel-booking/internal/router"     // route registration
	"github.com/iliyamo/hotel-booking/internal/service"    // booking engine
)

func main() {
	// .env is optional; real environment variables win
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("config: .env not loaded: %v", err)
	}
	cfg := config.Load() // Load environment config

	// Open the MySQL pool; the service cannot run without it.
	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()
	if cfg.AutoMigrate {
		if err := database.Migrate(context.Background(), db); err != nil {
			log.Fatalf("database: %v", err)
		}
	}

	// Redis is optional: a nil client turns cache and limiter into no-ops.
	rdb := config.NewRedisClient(cfg.Redis)
	if rdb == nil {
		log.Printf("redis: unavailable at %s; caching and rate limiting disabled", cfg.Redis.Addr)
	} else {
		defer rdb.Close()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// The publisher feeds booking events to the queue; the consumer on the
	// other end turns them into emails.
	publisher := queue.NewPublisher(cfg.Queue.URL, cfg.Queue.Name)
	if cfg.Queue.Consumers {
		consumer := queue.NewConsumer(cfg.Queue.URL, cfg.Queue.Name, cfg.Queue.Prefetch, mailer.New(cfg.Mail))
		go func() {
			if err := consumer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.Printf("notify-consumer: stopped: %v", err)
			}
		}()
	}

	// repositories -> services -> handlers
	store := repository.NewStore(db)
	bookings := service.NewBookingService(store, publisher)
	appointments := service.NewAppointmentService(store.Appointments())

	hotelRepo := repository.NewHotelRepo(db)
	hotels := handler.NewHotelHandler(hotelRepo)
	rooms := handler.NewRoomHandler(repository.NewRoomRepo(db), hotelRepo, bookings)
	hospitals := handler.NewHospitalHandler(repository.NewHospitalRepo(db))
	auth := handler.NewAuthHandler(cfg, repository.NewUserRepo(db), repository.NewTokenRepo(db))

	e := echo.New()                      // Create Echo instance
	e.HideBanner = true                  // keep startup logs to our own lines
	e.Validator = handler.NewValidator() // DTO validation via validate tags
	e.Use(echomw.RequestIDWithConfig(echomw.RequestIDConfig{Generator: uuid.NewString}))
	e.Use(echomw.RequestLoggerWithConfig(echomw.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		LogValuesFunc: func(c echo.Context, v echomw.RequestLoggerValues) error {
			if v.Error != nil {
				log.Printf("http: %s %s %d %s id=%s err=%v", v.Method, v.URI, v.Status, v.Latency, v.RequestID, v.Error)
				return nil
			}
			log.Printf("http: %s %s %d %s id=%s", v.Method, v.URI, v.Status, v.Latency, v.RequestID)
			return nil
		},
	}))
	e.Use(echomw.Recover()) // turn handler panics into 500s

	// The limiter is attached per route group rather than with e.Use so that
	// on protected groups it runs after JWTAuth and keys by user id.
	limit := middleware.NewTokenBucket(cfg.RateLimit, rdb)
	cache := middleware.NewRedisCache(cfg.Cache, rdb)
	router.RegisterRoutes(e, db)                              // health check
	router.RegisterAuth(e, auth, cfg.JWTSecret, limit)        // register, login, tokens, /v1/me
	router.RegisterPublic(e, hotels, hospitals, limit, cache) // guest browse
	// user and admin
	router.RegisterCustomer(e, router.Customer{
		Rooms:        rooms,
		Bookings:     handler.NewBookingHandler(bookings),
		Appointments: handler.NewAppointmentHandler(appointments),
	}, cfg.JWTSecret, limit)
	router.RegisterAdmin(e, router.Admin{Hotels: hotels, Rooms: rooms, Hospitals: hospitals}, cfg.JWTSecret, limit, cache)

	addr := ":" + cfg.Port // Address string with port
	go func() {
		log.Printf("listening on %s (env=%s)", addr, cfg.Env)
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal(err)
		}
	}()

	// Block until a signal arrives, then drain in-flight requests.
	<-ctx.Done()
	log.Printf("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown: %v", err)
	}
	bookings.Wait() // let queued notifications reach the broker
}
