package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"time"
	_ "time/tzdata"

	"venueslots/internal/availability"
	"venueslots/internal/calendar"
	"venueslots/internal/db"
	"venueslots/internal/domain/storage"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	outputJSON bool
	verbose    bool
	venueID    int64
)

var rootCmd = &cobra.Command{
	Use:   "slotctl",
	Short: "Operate the venue availability engine",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// A missing .env is fine; the environment may already be set.
		_ = godotenv.Load()
		return nil
	},
	SilenceUsage: true,
}

func Execute() {
	rootCmd.AddCommand(calendarCmd())
	rootCmd.AddCommand(sweepCmd())
	rootCmd.AddCommand(blockCmd())
	rootCmd.AddCommand(unblockCmd())
	rootCmd.AddCommand(toggleCmd())
	rootCmd.AddCommand(tokenCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&outputJSON, "json", false, "Output JSON")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log engine activity to stderr")
}

func addVenueFlag(cmd *cobra.Command) {
	cmd.Flags().Int64Var(&venueID, "venue", 0, "Venue ID")
	_ = cmd.MarkFlagRequired("venue")
}

// openEngine connects to DB_ADDR and builds an engine configured from the
// same environment variables as the API. The returned func releases the pool.
func openEngine() (*availability.Engine, func(), error) {
	addr := os.Getenv("DB_ADDR")
	if addr == "" {
		return nil, nil, fmt.Errorf("DB_ADDR is not set")
	}

	tz := os.Getenv("VENUE_TIMEZONE")
	if tz == "" {
		tz = "Asia/Kathmandu"
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return nil, nil, fmt.Errorf("VENUE_TIMEZONE: %w", err)
	}

	opts := availability.Options{
		Location: loc,
		Clock:    calendar.SystemClock{},
		Logger:   zap.NewNop().Sugar(),
	}
	if v := os.Getenv("SLOT_WIDTH_MINUTES"); v != "" {
		if opts.SlotWidth, err = strconv.Atoi(v); err != nil {
			return nil, nil, fmt.Errorf("SLOT_WIDTH_MINUTES: %w", err)
		}
	}
	if v := os.Getenv("PENDING_HOLD"); v != "" {
		if opts.PendingHold, err = time.ParseDuration(v); err != nil {
			return nil, nil, fmt.Errorf("PENDING_HOLD: %w", err)
		}
	}
	if verbose {
		logger, err := zap.NewDevelopment()
		if err != nil {
			return nil, nil, err
		}
		opts.Logger = logger.Sugar()
	}

	pool, err := db.New(addr, 2, "1m")
	if err != nil {
		return nil, nil, err
	}

	container := storage.NewContainer(pool)
	engine := availability.New(container.Repos, container, opts)
	return engine, func() {
		_ = opts.Logger.Sync()
		pool.Close()
	}, nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
