package session

import (
	"context"
	"log/slog"
	"time"

	"github.com/GriffinCanCode/screenwatch/internal/arbitrage"
	"github.com/GriffinCanCode/screenwatch/internal/dedup"
	"github.com/GriffinCanCode/screenwatch/internal/features"
	"github.com/GriffinCanCode/screenwatch/internal/frame"
	"github.com/GriffinCanCode/screenwatch/internal/price"
	"github.com/GriffinCanCode/screenwatch/internal/publish"
	"github.com/GriffinCanCode/screenwatch/internal/record"
	"github.com/GriffinCanCode/screenwatch/internal/screen"
	"github.com/GriffinCanCode/screenwatch/internal/trace"
)

// DefaultPollInterval is used when MarketConfig.PollInterval is not positive.
const DefaultPollInterval = 2 * time.Second

// MarketConfig holds the arbitrage path settings. Items are bought in
// Source and sold in Destination.
type MarketConfig struct {
	Source       frame.Region
	Destination  frame.Region
	PollInterval time.Duration
}

// MarketDeps are the collaborators of a MarketSession. Sink and Log are optional.
type MarketDeps struct {
	Capturer  screen.Capturer
	Extractor *features.Extractor
	Matcher   *arbitrage.Matcher
	Sink      publish.Sink
	Log       record.OpportunityLog
}

// MarketSession polls two market regions and reports new opportunities.
// Captures, recognition and matching run sequentially in one goroutine,
// which also owns the dedup set.
type MarketSession struct {
	cfg  MarketConfig
	deps MarketDeps
	seen *dedup.Set
}

// NewMarketSession creates a session with an empty dedup set.
func NewMarketSession(cfg MarketConfig, deps MarketDeps) *MarketSession {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = DefaultPollInterval
	}
	return &MarketSession{cfg: cfg, deps: deps, seen: dedup.New()}
}

// Run polls until ctx is done. A failed cycle is logged and the next poll
// proceeds as normal.
func (s *MarketSession) Run(ctx context.Context) error {
	slog.Info("market session started",
		"source", s.cfg.Source.String(),
		"destination", s.cfg.Destination.String(),
		"interval", s.cfg.PollInterval,
	)
	ticker := time.NewTicker(s.cfg.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			err := guard("market", func() error {
				_, err := s.Cycle(ctx)
				return err
			})
			logCycleError(ctx, "market", err)
		}
	}
}

// Cycle captures both regions, matches their prices and emits every
// opportunity not reported before. A capture failure aborts the cycle and is
// returned. Recognition, publish and log failures are logged only.
func (s *MarketSession) Cycle(ctx context.Context) ([]arbitrage.Opportunity, error) {
	ctx, span := trace.Start(ctx, "market_cycle")
	defer span.End()
	log := trace.Logger(ctx)

	from, err := s.readBook(ctx, log, s.cfg.Source)
	if err != nil {
		span.Fail(err)
		return nil, err
	}
	to, err := s.readBook(ctx, log, s.cfg.Destination)
	if err != nil {
		span.Fail(err)
		return nil, err
	}

	found := s.deps.Matcher.Match(s.cfg.Source.ID, from, s.cfg.Destination.ID, to)
	emitted := s.seen.Filter(found)
	log.Info("market scan",
		s.cfg.Source.ID, len(from),
		s.cfg.Destination.ID, len(to),
		"matches", len(found),
		"new", len(emitted),
		"seen_keys", s.seen.Len(),
	)

	for _, o := range emitted {
		log.Info("opportunity",
			"item", o.Item, "buy", o.Buy, "sell", o.Sell, "profit", o.Profit.StringFixed(2),
			"from", o.From, "to", o.To,
		)
		if s.deps.Sink != nil {
			if err := s.deps.Sink.Publish(ctx, publish.NewPriceUpdate(o)); err != nil {
				log.Warn("opportunity publish failed", "item", o.Item, "error", err)
			}
		}
		if s.deps.Log != nil {
			if err := s.deps.Log.RecordOpportunity(ctx, o); err != nil {
				log.Warn("opportunity log write failed", "item", o.Item, "error", err)
			}
		}
	}
	span.Set("emitted", len(emitted))
	return emitted, nil
}

// readBook captures one region and parses its prices. Recognition failure
// yields an empty book.
func (s *MarketSession) readBook(ctx context.Context, log *slog.Logger, region frame.Region) (price.Book, error) {
	f, err := s.deps.Capturer.Capture(ctx, region)
	if err != nil {
		return nil, err
	}
	res := s.deps.Extractor.Text(ctx, f)
	if res.Failed() {
		log.Warn("ocr failed", "region", region.ID, "error", res.Err)
		return price.Book{}, nil
	}
	return price.Index(price.Parse(res.Text)), nil
}
