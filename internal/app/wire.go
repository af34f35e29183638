package app

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/redis/go-redis/v9"

	"github.com/GriffinCanCode/screenwatch/internal/config"
	"github.com/GriffinCanCode/screenwatch/internal/grpcclient"
	"github.com/GriffinCanCode/screenwatch/internal/input"
	"github.com/GriffinCanCode/screenwatch/internal/ocr"
	"github.com/GriffinCanCode/screenwatch/internal/publish"
	"github.com/GriffinCanCode/screenwatch/internal/record"
	"github.com/GriffinCanCode/screenwatch/internal/snapshot"
)

// Mode selects which monitor a process runs.
type Mode string

// Modes.
const (
	ModeClick  Mode = "click"
	ModeMarket Mode = "market"
	ModeRelay  Mode = "relay"
)

// Dependencies bundles the concrete collaborators a mode needs. Fields not
// used by the mode stay nil.
type Dependencies struct {
	Engine        ocr.Engine
	Snapshots     snapshot.Store
	Sink          publish.Sink
	Samples       record.SampleLog
	Opportunities record.OpportunityLog
	Clicks        input.Source
	Redis         *redis.Client
}

// Wire constructs the dependencies for mode and returns them with a cleanup
// function that releases them in reverse order.
func Wire(ctx context.Context, cfg *config.Config, mode Mode) (*Dependencies, func(), error) {
	var closers []func() error
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			if err := closers[i](); err != nil {
				slog.Warn("cleanup failed", "error", err)
			}
		}
	}
	fail := func(step string, err error) (*Dependencies, func(), error) {
		cleanup()
		return nil, nil, fmt.Errorf("wire: %s: %w", step, err)
	}

	deps := &Dependencies{}

	// --- Redis (sink for the monitors, source for the relay) ---
	if cfg.RedisAddr != "" {
		deps.Redis = redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		closers = append(closers, deps.Redis.Close)
	}

	if mode == ModeRelay {
		return deps, cleanup, nil
	}

	// --- Recognition ---
	engine, closeEngine, err := openEngine(cfg)
	if err != nil {
		return fail("ocr", err)
	}
	closers = append(closers, closeEngine)
	deps.Engine = engine

	// --- Sinks ---
	deps.Sink = openSink(cfg, deps.Redis)

	// --- Postgres (optional) ---
	var pg *record.Postgres
	if cfg.PostgresDSN != "" {
		pool, err := record.ConnectPostgres(ctx, cfg.PostgresDSN)
		if err != nil {
			return fail("postgres", err)
		}
		closers = append(closers, func() error { pool.Close(); return nil })

		pg, err = record.NewPostgres(ctx, pool)
		if err != nil {
			return fail("postgres", err)
		}
		closers = append(closers, pg.Close)
	}

	switch mode {
	case ModeClick:
		csvLog, err := record.OpenCSV(cfg.CaptureLog)
		if err != nil {
			return fail("capture log", err)
		}
		closers = append(closers, csvLog.Close)
		samples := record.Multi{Samples: []record.SampleLog{csvLog}}
		if pg != nil {
			samples.Samples = append(samples.Samples, pg)
		}
		deps.Samples = samples

		store, err := openSnapshots(ctx, cfg)
		if err != nil {
			return fail("snapshots", err)
		}
		deps.Snapshots = store

		clicks, err := openClicks(cfg)
		if err != nil {
			return fail("click source", err)
		}
		deps.Clicks = clicks

	case ModeMarket:
		jsonLog, err := record.OpenJSONL(cfg.OpportunityLog)
		if err != nil {
			return fail("opportunity log", err)
		}
		closers = append(closers, jsonLog.Close)
		opps := record.Multi{Opportunities: []record.OpportunityLog{jsonLog}}
		if pg != nil {
			opps.Opportunities = append(opps.Opportunities, pg)
		}
		deps.Opportunities = opps
	}

	return deps, cleanup, nil
}

func openEngine(cfg *config.Config) (ocr.Engine, func() error, error) {
	switch cfg.OCREngine {
	case config.EngineTesseract:
		e, err := ocr.NewTesseractEngine(cfg.OCRLanguages...)
		if err != nil {
			return nil, nil, err
		}
		return e, e.Close, nil
	default:
		conn, err := grpcclient.Dial(cfg.OCRAddr)
		if err != nil {
			return nil, nil, err
		}
		return ocr.NewGRPCEngine(conn, cfg.OCRTimeout), conn.Close, nil
	}
}

// openSink returns nil when no sink is configured.
func openSink(cfg *config.Config, rdb *redis.Client) publish.Sink {
	var sinks publish.Fanout
	if cfg.SinkURL != "" {
		sinks = append(sinks, publish.NewHTTPSink(cfg.SinkURL, cfg.SinkTimeout))
	}
	if rdb != nil {
		sinks = append(sinks, publish.NewRedisSink(rdb, cfg.RedisChannel))
	}
	switch len(sinks) {
	case 0:
		return nil
	case 1:
		return sinks[0]
	default:
		return sinks
	}
}

func openSnapshots(ctx context.Context, cfg *config.Config) (snapshot.Store, error) {
	if cfg.S3Bucket != "" {
		return snapshot.NewS3Store(ctx, cfg.S3Bucket, cfg.S3Prefix)
	}
	return snapshot.NewDirStore(cfg.ScreenshotDir)
}

func openClicks(cfg *config.Config) (input.Source, error) {
	if cfg.ClickSource == config.ClickSourceStdin {
		return input.NewLineSource(os.Stdin), nil
	}
	src, err := input.NewHookSource()
	if err != nil {
		return nil, err
	}
	return src, nil
}
