package app

import (
	"context"
	"errors"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/GriffinCanCode/screenwatch/internal/alert"
	"github.com/GriffinCanCode/screenwatch/internal/arbitrage"
	"github.com/GriffinCanCode/screenwatch/internal/features"
	"github.com/GriffinCanCode/screenwatch/internal/ocr"
	"github.com/GriffinCanCode/screenwatch/internal/screen"
	"github.com/GriffinCanCode/screenwatch/internal/server"
	"github.com/GriffinCanCode/screenwatch/internal/session"
)

// ShutdownTimeout bounds the relay's graceful HTTP shutdown.
const ShutdownTimeout = 5 * time.Second

// ClickMode runs the click listener and the capture worker until ctx is
// done or the click source ends.
func (a *App) ClickMode(ctx context.Context, deps *Dependencies) error {
	opts := []features.Option{
		features.WithNormalize(),
		features.WithGate(features.NewOCRGate(a.cfg.OCRGate, a.cfg.OCRHashDistance)),
	}
	if a.cfg.RedROI != nil {
		opts = append(opts, features.WithRedROI(*a.cfg.RedROI))
	}

	sess := session.NewClickSession(
		session.ClickConfig{
			Region:        a.cfg.CaptureRegion,
			ClicksPerShot: a.cfg.ClicksPerShot,
			Thresholds: alert.Thresholds{
				RedPixels:   a.cfg.RedPixelThreshold,
				ChangeScore: a.cfg.ChangeThreshold,
			},
		},
		session.ClickDeps{
			Capturer:  screen.New(),
			Extractor: features.NewExtractor(deps.Engine, opts...),
			Snapshots: deps.Snapshots,
			Sink:      deps.Sink,
			Log:       deps.Samples,
		},
	)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return sess.Run(ctx)
	})
	g.Go(func() error {
		// End of input stops the session too.
		defer cancel()
		return deps.Clicks.Run(ctx, sess.HandleClick)
	})
	err := g.Wait()

	st := sess.Stats()
	a.logger.Info("click session stopped",
		"clicks", st.Clicks,
		"cycles", st.Cycles,
		"alerts", st.Alerts,
		"coalesced", st.Coalesced,
		"errors", st.Errors,
	)
	return err
}

// MarketMode polls the two market regions until ctx is done.
func (a *App) MarketMode(ctx context.Context, deps *Dependencies) error {
	extractor := features.NewExtractor(deps.Engine,
		features.WithBinarize(ocr.DefaultBinarizeThreshold),
		features.WithOCROptions(ocr.Options{PageSegMode: ocr.PageSegSingleBlock}),
		features.WithGate(features.NewOCRGate(a.cfg.OCRGate, a.cfg.OCRHashDistance)),
	)

	sess := session.NewMarketSession(
		session.MarketConfig{
			Source:       a.cfg.Source,
			Destination:  a.cfg.Destination,
			PollInterval: a.cfg.PollInterval,
		},
		session.MarketDeps{
			Capturer:  screen.New(),
			Extractor: extractor,
			Matcher:   arbitrage.NewMatcher(a.cfg.FeeRate, a.cfg.MinProfit),
			Sink:      deps.Sink,
			Log:       deps.Opportunities,
		},
	)
	return sess.Run(ctx)
}

// RelayMode serves the relay over HTTP and, when Redis is configured, relays
// the pub/sub channel as well.
func (a *App) RelayMode(ctx context.Context, deps *Dependencies) error {
	srv := server.New(a.cfg.RelayHistory)
	defer srv.Close()

	httpServer := &http.Server{
		Addr:              a.cfg.HTTPAddr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		a.logger.Info("relay listening", "http", a.cfg.HTTPAddr, "history", a.cfg.RelayHistory)
		if err := httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		srv.Close()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})
	if deps.Redis != nil {
		g.Go(func() error {
			// HTTP publishing keeps working without Redis.
			if err := srv.Subscribe(ctx, deps.Redis, a.cfg.RedisChannel); err != nil {
				a.logger.Warn("redis relay stopped", "channel", a.cfg.RedisChannel, "error", err)
			}
			return nil
		})
	}
	return g.Wait()
}
