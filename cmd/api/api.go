package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"venueslots/internal/auth"
	"venueslots/internal/availability"
	"venueslots/internal/ratelimiter"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"
)

type application struct {
	config        config
	logger        *zap.SugaredLogger
	engine        *availability.Engine
	authenticator auth.Authenticator
	rateLimiter   ratelimiter.Limiter
}

type config struct {
	addr        string
	db          dbConfig
	redis       redisConfig
	env         string
	booking     bookingConfig
	auth        authConfig
	rateLimiter ratelimiter.Config
}

// validate reports settings the server cannot start without.
func (c config) validate() error {
	if c.db.addr == "" {
		return errors.New("DB_ADDR is not set")
	}
	if c.auth.token.secret == "" {
		return errors.New("AUTH_TOKEN_SECRET is not set")
	}
	return nil
}

type authConfig struct {
	token tokenConfig
}

type tokenConfig struct {
	secret string
	exp    time.Duration
	iss    string
}

type dbConfig struct {
	addr        string
	maxConns    int32
	maxIdleTime string
}

type redisConfig struct {
	addr     string
	password string
	db       string
	ttl      time.Duration
}

type bookingConfig struct {
	timezone      string
	slotWidth     int
	maxRangeDays  int
	sweepInterval time.Duration
	pendingHold   time.Duration
}

func (app *application) mount() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*", "http://*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: false,
		MaxAge:           300, // Maximum value not ignored by any of major browsers
	}))

	if app.config.rateLimiter.Enabled {
		r.Use(app.RateLimiterMiddleware)
	}

	r.Use(middleware.Timeout(60 * time.Second))

	r.Route("/v1", func(r chi.Router) {
		r.Get("/health", app.healthCheckHandler)

		r.Route("/venues/{venueID}", func(r chi.Router) {
			r.Get("/availability", app.dayAvailabilityHandler)
			r.Get("/availability/range", app.rangeAvailabilityHandler)
			r.Get("/availability/check", app.checkSlotHandler)
			r.Get("/calendar", app.monthCalendarHandler)

			r.With(app.AuthTokenMiddleware).Post("/bookings", app.reserveHandler)

			r.Route("/blocked-dates/{date}", func(r chi.Router) {
				r.Use(app.AuthTokenMiddleware)
				r.Use(app.RequireVenueOwner)
				r.Put("/", app.blockDateHandler)
				r.Delete("/", app.unblockDateHandler)
				r.Post("/toggle", app.toggleBlockHandler)
			})
		})

		r.Route("/bookings/{bookingID}", func(r chi.Router) {
			r.Use(app.AuthTokenMiddleware)
			r.Post("/cancel", app.cancelBookingHandler)
			r.Post("/confirm", app.confirmBookingHandler)
		})
	})
	return r
}

func (app *application) run(mux http.Handler) error {
	srv := &http.Server{
		Addr:         app.config.addr,
		Handler:      mux,
		WriteTimeout: time.Second * 30,
		ReadTimeout:  time.Second * 10,
		IdleTimeout:  time.Minute,
	}

	// Implementing graceful shutdown
	shutdown := make(chan error)

	go func() {
		quit := make(chan os.Signal, 1)

		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		s := <-quit

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		app.logger.Infow("signal caught", "signal", s.String())

		shutdown <- srv.Shutdown(ctx)
	}()

	app.logger.Infow("server has started", "addr", app.config.addr, "env", app.config.env)

	err := srv.ListenAndServe()
	if !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	err = <-shutdown
	if err != nil {
		return err
	}

	app.logger.Infow("server has stopped", "addr", app.config.addr, "env", app.config.env)

	return nil
}
