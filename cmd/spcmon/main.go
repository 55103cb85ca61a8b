package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/syczk301/EWMA-Cusum-pro/internal/config"
	"github.com/syczk301/EWMA-Cusum-pro/internal/ingest"
	"github.com/syczk301/EWMA-Cusum-pro/internal/monitor"
)

func main() {
	profilePath := flag.String("config", "profile.yaml", "path to monitoring profile")
	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	slog.Info("spcmon starting", "config", *profilePath)

	profile, err := config.Load(*profilePath)
	if err != nil {
		slog.Error("failed to load profile", "err", err)
		os.Exit(1)
	}
	slog.Info("profile loaded",
		"variables", len(profile.Variables),
		"interval", profile.Monitor.Interval,
		"window", profile.Monitor.Window,
	)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	samplers := buildSamplers(profile)
	if len(samplers) == 0 {
		slog.Warn("no samplable variables configured — spcmon will idle")
	}

	mon := monitor.New(profile)
	mon.SetSamplers(samplers)

	// Watch the profile for hot-reload. Chart parameters and spec limits
	// take effect immediately; samplers are rebuilt so source changes
	// apply too.
	go func() {
		if err := config.Watch(ctx, *profilePath, func(updated *config.Profile) {
			mon.UpdateProfile(updated)
			mon.SetSamplers(buildSamplers(updated))
			slog.Info("profile hot-reloaded", "variables", len(updated.Variables))
		}); err != nil {
			slog.Error("profile watcher stopped", "err", err)
		}
	}()

	go mon.Run(ctx, profile.Monitor.Interval)

	<-ctx.Done()
	slog.Info("spcmon shutting down")
}

func buildSamplers(p *config.Profile) map[string]ingest.Sampler {
	samplers := make(map[string]ingest.Sampler, len(p.Variables))
	for _, v := range p.Variables {
		s, err := ingest.New(v.Source)
		if err != nil {
			slog.Error("skipping variable — could not build sampler", "variable", v.ID, "err", err)
			continue
		}
		samplers[v.ID] = s
		slog.Info("registered variable",
			"id", v.ID,
			"endpoint", v.Source.Endpoint,
			"metric", v.Source.Metric,
		)
	}
	return samplers
}
