package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"strconv"
	"time"
	_ "time/tzdata"

	"venueslots/internal/auth"
	"venueslots/internal/availability"
	"venueslots/internal/cache"
	"venueslots/internal/calendar"
	"venueslots/internal/db"
	"venueslots/internal/domain/storage"
	"venueslots/internal/ratelimiter"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// LoadRateLimiterConfig retrieves rate limiter settings from environment variables
func LoadRateLimiterConfig() ratelimiter.Config {
	defaultRequests := 200
	defaultEnabled := false

	requestsPerTimeFrame := defaultRequests
	if val, exists := os.LookupEnv("RATELIMITER_REQUESTS_COUNT"); exists {
		if parsedVal, err := strconv.Atoi(val); err == nil {
			requestsPerTimeFrame = parsedVal
		} else {
			fmt.Println("Invalid RATELIMITER_REQUESTS_COUNT, defaulting to", defaultRequests)
		}
	}

	enabled := defaultEnabled
	if val, exists := os.LookupEnv("RATE_LIMITER_ENABLED"); exists {
		if parsedVal, err := strconv.ParseBool(val); err == nil {
			enabled = parsedVal
		} else {
			fmt.Println("Invalid RATE_LIMITER_ENABLED, defaulting to", defaultEnabled)
		}
	}

	return ratelimiter.Config{
		RequestsPerTimeFrame: requestsPerTimeFrame,
		TimeFrame:            5 * time.Second,
		Enabled:              enabled,
	}
}

// NewLogger creates a new zap logger with color.
func NewLogger() (*zap.SugaredLogger, error) {
	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	encoderCfg.EncodeLevel = zapcore.CapitalColorLevelEncoder

	consoleEncoder := zapcore.NewConsoleEncoder(encoderCfg)
	level := zapcore.InfoLevel
	core := zapcore.NewCore(consoleEncoder, zapcore.NewMultiWriteSyncer(zapcore.AddSync(os.Stdout)), level)

	logger := zap.New(core)

	return logger.Sugar(), nil
}

func envInt(key string, def int) int {
	if val, ok := os.LookupEnv(key); ok && val != "" {
		n, err := strconv.Atoi(val)
		if err != nil {
			log.Fatalf("Invalid value for %s: %v", key, err)
		}
		return n
	}
	return def
}

func envDuration(key string, def time.Duration) time.Duration {
	if val, ok := os.LookupEnv(key); ok && val != "" {
		d, err := time.ParseDuration(val)
		if err != nil {
			log.Fatalf("Invalid value for %s: %v", key, err)
		}
		return d
	}
	return def
}

func envString(key, def string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return def
}

var version = "1.0.0"

//	@title			Venue Slots API
//	@description	Availability and booking slots for hourly-bookable venues.

//	@BasePath					/v1
//	@securityDefinitions.apikey	ApiKeyAuth
//	@in							header
//	@name						Authorization
//	@description

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("no .env file loaded: %v", err)
	}

	cfg := config{
		addr: envString("ADDR", ":8080"),
		env:  envString("ENV", "development"),
		db: dbConfig{
			addr:        os.Getenv("DB_ADDR"),
			maxConns:    int32(envInt("DB_MAX_CONNS", 10)),
			maxIdleTime: envString("DB_MAX_IDLE_TIME", "15m"),
		},
		redis: redisConfig{
			addr:     os.Getenv("REDIS_ADDR"),
			password: os.Getenv("REDIS_PASSWORD"),
			db:       os.Getenv("REDIS_DB"),
			ttl:      envDuration("CALENDAR_CACHE_TTL", cache.DefaultTTL),
		},
		booking: bookingConfig{
			timezone:      envString("VENUE_TIMEZONE", "Asia/Kathmandu"),
			slotWidth:     envInt("SLOT_WIDTH_MINUTES", availability.DefaultSlotWidth),
			maxRangeDays:  envInt("MAX_RANGE_DAYS", availability.DefaultMaxRangeDays),
			sweepInterval: envDuration("SWEEP_INTERVAL", 30*time.Minute),
			pendingHold:   envDuration("PENDING_HOLD", 0),
		},
		auth: authConfig{
			token: tokenConfig{
				secret: os.Getenv("AUTH_TOKEN_SECRET"),
				exp:    time.Hour * 24 * 3, // 3 days
				iss:    envString("AUTH_TOKEN_ISS", "venueslots"),
			},
		},
		rateLimiter: LoadRateLimiterConfig(),
	}

	// Logger
	logger, err := NewLogger()
	if err != nil {
		fmt.Println("Error creating logger:", err)
		return
	}
	defer logger.Sync()

	if err := cfg.validate(); err != nil {
		logger.Fatalw("invalid configuration", "error", err)
	}

	loc, err := time.LoadLocation(cfg.booking.timezone)
	if err != nil {
		logger.Fatalw("invalid VENUE_TIMEZONE", "timezone", cfg.booking.timezone, "error", err)
	}

	// Database
	pool, err := db.New(cfg.db.addr, cfg.db.maxConns, cfg.db.maxIdleTime)
	if err != nil {
		logger.Fatal(err)
	}
	defer pool.Close()
	logger.Info("database connection pool established")

	container := storage.NewContainer(pool)

	// Redis is optional: without it calendars are computed on every read
	// and rate limiting stays in process.
	var (
		calendarCache availability.CalendarCache = availability.NopCache{}
		rateLimiter   ratelimiter.Limiter
	)
	if cfg.redis.addr != "" {
		redisDB, err := cache.ParseDB(cfg.redis.db)
		if err != nil {
			logger.Fatal(err)
		}
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.redis.addr,
			Password: cfg.redis.password,
			DB:       redisDB,
		})
		defer rdb.Close()

		cc := cache.NewCalendarCache(rdb, cfg.redis.ttl, "venueslots")
		pingCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		err = cc.Ping(pingCtx)
		cancel()
		if err != nil {
			logger.Warnw("redis unreachable, calendar cache disabled", "addr", cfg.redis.addr, "error", err)
		} else {
			calendarCache = cc
			rateLimiter = ratelimiter.NewRedisFixedWindowLimiter(rdb,
				cfg.rateLimiter.RequestsPerTimeFrame, cfg.rateLimiter.TimeFrame, "venueslots:rl")
			logger.Infow("redis connected", "addr", cfg.redis.addr, "cache_ttl", cfg.redis.ttl)
		}
	}

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	if rateLimiter == nil {
		fw := ratelimiter.NewFixedWindowLimiter(cfg.rateLimiter.RequestsPerTimeFrame, cfg.rateLimiter.TimeFrame)
		go fw.Run(ctx)
		rateLimiter = fw
	}

	engine := availability.New(container.Repos, container, availability.Options{
		Location:     loc,
		Clock:        calendar.SystemClock{},
		SlotWidth:    cfg.booking.slotWidth,
		MaxRangeDays: cfg.booking.maxRangeDays,
		PendingHold:  cfg.booking.pendingHold,
		Cache:        calendarCache,
		Logger:       logger.Named("availability"),
	})

	// Authenticator
	jwtAuthenticator := auth.NewJWTAuthenticator(
		cfg.auth.token.secret,
		cfg.auth.token.iss,
		cfg.auth.token.iss,
		cfg.auth.token.exp,
	)

	app := &application{
		config:        cfg,
		logger:        logger,
		engine:        engine,
		authenticator: jwtAuthenticator,
		rateLimiter:   rateLimiter,
	}

	app.sweepBookingsEvery(ctx, cfg.booking.sweepInterval)

	mux := app.mount()

	logger.Fatal(app.run(mux))
}
