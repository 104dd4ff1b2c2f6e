package main

import (
	"context"
	"crypto/rand"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"math/big"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"

	"github.com/h-tadlaoui/nova-app/internal/api"
	"github.com/h-tadlaoui/nova-app/internal/auth"
	"github.com/h-tadlaoui/nova-app/internal/config"
	"github.com/h-tadlaoui/nova-app/internal/db"
	"github.com/h-tadlaoui/nova-app/internal/events"
	"github.com/h-tadlaoui/nova-app/internal/logging"
	"github.com/h-tadlaoui/nova-app/internal/matching"
	"github.com/h-tadlaoui/nova-app/internal/model"
	"github.com/h-tadlaoui/nova-app/internal/notify"
	"github.com/h-tadlaoui/nova-app/internal/store"
)

func main() {
	fs := flag.NewFlagSet("nova", flag.ContinueOnError)

	var dbPath, addr, logPath, adminEmail string
	fs.StringVar(&dbPath, "db", "", "")
	fs.StringVar(&dbPath, "d", "", "")
	fs.StringVar(&addr, "addr", "", "")
	fs.StringVar(&addr, "a", "", "")
	fs.StringVar(&logPath, "log", "", "")
	fs.StringVar(&logPath, "l", "", "")
	fs.StringVar(&adminEmail, "admin", "admin@nova.local", "")

	fs.Usage = func() {
		fmt.Fprint(os.Stdout, `Usage: nova [flags]

Settings come from config.yaml (or CONFIG_PATH), the environment and .env.
Flags override them.

Flags:
  -d, -db <path>          SQLite database path
  -a, -addr <host:port>   listen address
  -l, -log <path>         log file path (written in addition to stderr)
  -admin <email>          admin account created on first run (default: admin@nova.local)
  -h, -help               show this help and exit
`)
	}

	if err := fs.Parse(os.Args[1:]); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		os.Exit(1)
	}
	if fs.NArg() > 0 {
		fmt.Fprintf(os.Stderr, "unexpected argument: %s\n", fs.Arg(0))
		fs.Usage()
		os.Exit(1)
	}

	// A missing .env is fine.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	if dbPath != "" {
		cfg.Database.Path = dbPath
	}
	if addr != "" {
		cfg.Server.Addr = addr
	}
	if logPath != "" {
		cfg.Log.File = logPath
	}

	logger, closeLog, err := logging.Setup(logging.Options{Level: cfg.Log.Level, Format: cfg.Log.Format, File: cfg.Log.File})
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	defer closeLog.Close()

	if err := run(cfg, adminEmail, logger); err != nil {
		log.Error().Err(err).Msg("server failed")
		closeLog.Close()
		os.Exit(1)
	}
}

func run(cfg *config.Config, adminEmail string, logger zerolog.Logger) error {
	ctx := context.Background()

	database, err := db.Open(cfg.Database.Path)
	if err != nil {
		return err
	}
	defer database.Close()

	if err := db.Migrate(database); err != nil {
		return err
	}
	log.Info().Str("path", cfg.Database.Path).Msg("database ready")

	if err := ensureAdmin(ctx, database, adminEmail); err != nil {
		return err
	}

	secret := cfg.Auth.JWTSecret
	if secret == "" {
		// Generated on first run and kept in the database.
		if secret, err = store.GetJWTSecret(ctx, database); err != nil {
			return err
		}
	}
	tokens := auth.NewManager(secret, cfg.Auth.TokenTTL)

	publisher, err := newPublisher(cfg.Broker, logger)
	if err != nil {
		return err
	}
	defer publisher.Close()

	st := store.New(database)
	lifecycle := matching.NewLifecycle(st, logger)
	notifier := notify.NewService(st, publisher, logger)
	engine := matching.NewEngine(st, st, newScorer(cfg, logger), lifecycle, notifier, engineConfig(cfg.Matching), logger)

	server := &http.Server{
		Addr: cfg.Server.Addr,
		Handler: api.NewRouter(api.Deps{
			DB:        database,
			Tokens:    tokens,
			Engine:    engine,
			Lifecycle: lifecycle,
			Notifier:  notifier,
			AutoMatch: cfg.Matching.AutoMatchOnReport,
		}),
		ReadHeaderTimeout: cfg.Server.ReadTimeout,
		ReadTimeout:       cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
	}

	// Graceful shutdown on SIGINT/SIGTERM.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-quit
		log.Info().Str("signal", sig.String()).Msg("shutdown signal received")

		ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		if err := server.Shutdown(ctx); err != nil {
			log.Error().Err(err).Msg("server forced to shutdown")
		}
	}()

	log.Info().
		Str("addr", cfg.Server.Addr).
		Str("scorer", cfg.Matching.Scorer).
		Int("threshold", engine.Config().Threshold).
		Msg("server started")
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("serving: %w", err)
	}

	log.Info().Msg("server stopped, closing database")
	return nil
}

func engineConfig(c config.MatchingConfig) matching.Config {
	return matching.Config{
		Threshold:   c.Threshold,
		BatchSize:   c.BatchSize,
		Concurrency: c.Concurrency,
		Timeout:     c.Timeout,
	}
}

func newScorer(cfg *config.Config, logger zerolog.Logger) matching.Scorer {
	if cfg.Matching.Scorer == config.ScorerLLM {
		return matching.NewLLMScorer(matching.LLMConfig{
			Endpoint:  cfg.LLM.Endpoint,
			APIKey:    cfg.LLM.APIKey,
			Model:     cfg.LLM.Model,
			MaxTokens: cfg.LLM.MaxTokens,
			Timeout:   cfg.LLM.Timeout,
		}, logger)
	}
	return matching.NewHeuristicScorer()
}

func newPublisher(cfg config.BrokerConfig, logger zerolog.Logger) (events.Publisher, error) {
	if cfg.URL == "" {
		log.Info().Msg("no broker configured, match events are not published")
		return events.NopPublisher{}, nil
	}
	p, err := events.NewRabbitMQPublisher(cfg.URL, cfg.Exchange, logger)
	if err != nil {
		return nil, fmt.Errorf("connecting to broker: %w", err)
	}
	return p, nil
}

// ensureAdmin creates an admin account with a generated password when the
// database has none, and prints the credentials once.
func ensureAdmin(ctx context.Context, database *sql.DB, email string) error {
	n, err := store.CountAdmins(ctx, database)
	if err != nil {
		return err
	}
	if n > 0 {
		return nil
	}

	password, err := generatePassword(16)
	if err != nil {
		return fmt.Errorf("generating password: %w", err)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hashing password: %w", err)
	}
	if _, err := store.CreateUser(ctx, database, email, "", string(hash), model.RoleAdmin); err != nil {
		return fmt.Errorf("creating admin user: %w", err)
	}

	fmt.Println("Admin account created:")
	fmt.Printf("  Email:    %s\n", email)
	fmt.Printf("  Password: %s\n", password)
	fmt.Println()
	fmt.Println("Save this password, it cannot be recovered.")
	fmt.Println("The admin can change it after logging in.")
	fmt.Println()
	return nil
}

// generatePassword creates a random password of the given length.
func generatePassword(length int) (string, error) {
	const charset = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789!@#$%&*"
	result := make([]byte, length)
	for i := range result {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(charset))))
		if err != nil {
			return "", err
		}
		result[i] = charset[n.Int64()]
	}
	return string(result), nil
}
