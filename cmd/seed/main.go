package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"scheduler/internal/auth"
	"scheduler/internal/cache"
	"scheduler/internal/config"
	"scheduler/internal/db"
	"scheduler/internal/repository"
	"scheduler/internal/seed"
	"scheduler/internal/service"
	"scheduler/internal/validation"
)

var (
	reset      bool
	eventsFile string
	account    seed.Account

	rootCmd = &cobra.Command{
		Use:   "seed",
		Short: "Seed the scheduler database with a demo user and events",
		Long: `Seed creates (or logs into) a demo account and adds a week of events to it.
Events are read from --file as a JSON array of event objects, or taken from a
built-in working week when no file is given. Database settings come from the
same environment variables as the server.`,
		SilenceUsage: true,
		RunE:         runSeed,
	}
)

func init() {
	rootCmd.Flags().BoolVar(&reset, "reset", false, "drop all tables before seeding")
	rootCmd.Flags().StringVar(&eventsFile, "file", "", "JSON file with events to create")
	rootCmd.Flags().StringVar(&account.Name, "name", "Demo", "display name of the demo user")
	rootCmd.Flags().StringVar(&account.Email, "email", "demo@example.com", "email of the demo user")
	rootCmd.Flags().StringVar(&account.Password, "password", "demo1234", "password of the demo user")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func runSeed(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger := config.NewLogger(cfg).With().Str("component", "seed").Logger()

	events := seed.DefaultEvents
	if eventsFile != "" {
		if events, err = seed.LoadEvents(eventsFile); err != nil {
			return err
		}
	}

	gormDB, err := db.NewMySQL(cfg.MySQLDSN)
	if err != nil {
		return err
	}
	logger.Info().Msg("connected to database")

	if reset {
		if err := db.Reset(gormDB); err != nil {
			return err
		}
		logger.Warn().Msg("tables dropped")
	}
	if err := db.Migrate(gormDB); err != nil {
		return err
	}

	v := validation.New(cfg.DayOfWeekMax)
	jwtService := auth.NewJWTService(cfg.JWTSecret, cfg.TokenTTL)
	authService := service.NewAuthService(
		repository.NewUserRepository(gormDB),
		auth.NewPasswordHasher(auth.DefaultBcryptCost),
		jwtService,
	)
	// the server caches event lists in redis; creating through a cached
	// service drops the seeded user's stale list
	cacheClient := cache.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB, logger)
	defer cacheClient.Close()
	eventService := service.NewEventService(repository.NewEventRepository(gormDB), v, cacheClient, cfg.EventCacheTTL)

	res, err := seed.New(authService, eventService, v, logger).Run(cmd.Context(), account, events)
	if err != nil {
		return err
	}

	logger.Info().
		Int("created", res.Created).
		Int("skipped", res.Skipped).
		Str("email", account.Email).
		Msg("seed completed")
	fmt.Fprintf(cmd.OutOrStdout(), "token: %s\n", res.Token)
	return nil
}
