// Command nova-rematch re-runs matching for every active lost and found
// report, for example after the scorer or threshold changed.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

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
	fs := flag.NewFlagSet("nova-rematch", flag.ContinueOnError)

	var dbPath, itemType string
	var delay time.Duration
	fs.StringVar(&dbPath, "db", "", "")
	fs.StringVar(&itemType, "type", "", "")
	fs.DurationVar(&delay, "delay", 0, "")

	fs.Usage = func() {
		fmt.Fprint(os.Stdout, `Usage: nova-rematch [flags]

Re-runs matching for every active lost and found report.

Flags:
  -db <path>         SQLite database path (default: from configuration)
  -type <lost|found> only rematch reports of this type
  -delay <duration>  pause between items, e.g. 500ms, to stay under scorer rate limits
  -h, -help          show this help and exit
`)
	}

	if err := fs.Parse(os.Args[1:]); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		os.Exit(1)
	}
	if itemType != "" && model.OppositeType(itemType) == "" {
		fmt.Fprintf(os.Stderr, "invalid -type %q: must be lost or found\n", itemType)
		os.Exit(1)
	}

	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	if dbPath != "" {
		cfg.Database.Path = dbPath
	}

	logger, closeLog, err := logging.Setup(logging.Options{Level: cfg.Log.Level, Format: cfg.Log.Format, File: cfg.Log.File})
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	defer closeLog.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	database, err := db.Open(cfg.Database.Path)
	if err != nil {
		log.Error().Err(err).Msg("opening database")
		os.Exit(1)
	}
	defer database.Close()

	if err := db.Migrate(database); err != nil {
		log.Error().Err(err).Msg("migrating database")
		os.Exit(1)
	}

	var publisher events.Publisher = events.NopPublisher{}
	if cfg.Broker.URL != "" {
		p, err := events.NewRabbitMQPublisher(cfg.Broker.URL, cfg.Broker.Exchange, logger)
		if err != nil {
			log.Error().Err(err).Msg("connecting to broker")
			os.Exit(1)
		}
		publisher = p
	}
	defer publisher.Close()

	st := store.New(database)
	lifecycle := matching.NewLifecycle(st, logger)
	var scorer matching.Scorer = matching.NewHeuristicScorer()
	if cfg.Matching.Scorer == config.ScorerLLM {
		scorer = matching.NewLLMScorer(matching.LLMConfig{
			Endpoint:  cfg.LLM.Endpoint,
			APIKey:    cfg.LLM.APIKey,
			Model:     cfg.LLM.Model,
			MaxTokens: cfg.LLM.MaxTokens,
			Timeout:   cfg.LLM.Timeout,
		}, logger)
	}
	engine := matching.NewEngine(st, st, scorer, lifecycle, notify.NewService(st, publisher, logger), matching.Config{
		Threshold:   cfg.Matching.Threshold,
		BatchSize:   cfg.Matching.BatchSize,
		Concurrency: cfg.Matching.Concurrency,
		Timeout:     cfg.Matching.Timeout,
	}, logger)

	sum, err := rematch(ctx, st, engine, itemType, delay)
	fmt.Printf("\nRematched %d item(s): %d succeeded, %d failed, %d match(es), %d new.\n",
		sum.items, sum.succeeded, sum.failed, sum.matches, sum.created)
	if err != nil {
		log.Error().Err(err).Msg("rematch aborted")
		os.Exit(1)
	}
	if sum.failed > 0 {
		os.Exit(2)
	}
}

type itemLister interface {
	QueryItems(ctx context.Context, f store.ItemFilter) ([]model.Item, error)
}

type trigger interface {
	TriggerMatching(ctx context.Context, in matching.TriggerInput) (*matching.Result, error)
}

type summary struct {
	items, succeeded, failed int
	matches, created         int
}

// rematch triggers matching as the system requester for every active item
// of the selected types. One item failing does not stop the run; a
// cancelled context does.
func rematch(ctx context.Context, items itemLister, engine trigger, itemType string, delay time.Duration) (summary, error) {
	types := []string{model.ItemTypeLost, model.ItemTypeFound}
	if itemType != "" {
		types = []string{itemType}
	}

	var sum summary
	for _, t := range types {
		list, err := items.QueryItems(ctx, store.ItemFilter{Type: t, Status: model.ItemStatusActive})
		if err != nil {
			return sum, fmt.Errorf("listing %s items: %w", t, err)
		}

		for _, item := range list {
			if err := ctx.Err(); err != nil {
				return sum, err
			}
			sum.items++

			res, err := engine.TriggerMatching(ctx, matching.TriggerInput{ItemID: item.ID, ItemType: item.Type})
			if err != nil {
				sum.failed++
				fmt.Printf("  %-5s #%-6d %-20s FAILED: %v\n", item.Type, item.ID, item.Category, err)
				if errors.Is(err, matching.ErrQuotaExhausted) {
					return sum, err
				}
			} else {
				sum.succeeded++
				sum.matches += res.TotalFound
				for _, m := range res.Matches {
					if m.New {
						sum.created++
					}
				}
				fmt.Printf("  %-5s #%-6d %-20s %d match(es)\n", item.Type, item.ID, item.Category, res.TotalFound)
			}

			if delay > 0 {
				select {
				case <-ctx.Done():
					return sum, ctx.Err()
				case <-time.After(delay):
				}
			}
		}
	}
	return sum, nil
}
