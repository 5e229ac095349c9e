package cmd

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/robfig/cron/v3"

	"github.com/lepinkainen/naoka/internal/config"
	"github.com/lepinkainen/naoka/internal/datastore"
)

var cronParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

// ScheduleCmd runs incremental updates until interrupted.
type ScheduleCmd struct {
	Cron      string   `help:"Cron expression (default from config: schedule.cron)"`
	Providers []string `arg:"" optional:"" help:"Providers to update (default: all registered)"`
	Now       bool     `help:"Run once immediately before waiting for the schedule"`
}

func (c *ScheduleCmd) Run() error {
	return withStore(func(ctx context.Context, cfg config.Config, store *datastore.SQLiteStore) error {
		expr := c.Cron
		if expr == "" {
			expr = cfg.ScheduleCron
		}
		schedule, err := cronParser.Parse(expr)
		if err != nil {
			return fmt.Errorf("invalid cron schedule '%s': %w", expr, err)
		}

		codes, err := c.providerCodes(cfg)
		if err != nil {
			return err
		}

		job := func() {
			if err := updateAll(ctx, cfg, store, codes); err != nil {
				slog.Error("Scheduled update failed", "error", err)
			}
		}

		if c.Now {
			job()
		}

		// A run still going when the next tick fires is not started twice.
		scheduler := cron.New(
			cron.WithParser(cronParser),
			cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)),
		)
		scheduler.Schedule(schedule, cron.FuncJob(job))
		scheduler.Start()

		slog.Info("Scheduler started", "cron", expr, "providers", codes, "next", schedule.Next(timeNow()))
		<-ctx.Done()

		stopped := scheduler.Stop()
		<-stopped.Done()
		slog.Info("Scheduler stopped")
		return nil
	})
}

func (c *ScheduleCmd) providerCodes(cfg config.Config) ([]string, error) {
	registry, err := buildRegistry(cfg)
	if err != nil {
		return nil, err
	}
	if len(c.Providers) == 0 {
		return registry.Codes(), nil
	}

	codes := make([]string, 0, len(c.Providers))
	for _, name := range c.Providers {
		connector, err := registry.Resolve(name)
		if err != nil {
			return nil, err
		}
		codes = append(codes, connector.Code())
	}
	return codes, nil
}

// updateAll updates each provider in turn. A failing provider does not stop
// the others.
func updateAll(ctx context.Context, cfg config.Config, store *datastore.SQLiteStore, codes []string) error {
	var failed []string
	for _, code := range codes {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := runUpdate(ctx, cfg, store, code, 0, false); err != nil {
			failed = append(failed, code)
		}
	}
	if len(failed) > 0 {
		return fmt.Errorf("update failed for %v", failed)
	}
	return nil
}
