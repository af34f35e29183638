package session

import (
	"context"
	"log/slog"
	"time"

	"github.com/GriffinCanCode/screenwatch/internal/alert"
	"github.com/GriffinCanCode/screenwatch/internal/change"
	"github.com/GriffinCanCode/screenwatch/internal/features"
	"github.com/GriffinCanCode/screenwatch/internal/frame"
	"github.com/GriffinCanCode/screenwatch/internal/publish"
	"github.com/GriffinCanCode/screenwatch/internal/record"
	"github.com/GriffinCanCode/screenwatch/internal/screen"
	"github.com/GriffinCanCode/screenwatch/internal/snapshot"
	"github.com/GriffinCanCode/screenwatch/internal/syncx"
	"github.com/GriffinCanCode/screenwatch/internal/trace"
)

// ClickConfig holds the click path settings.
type ClickConfig struct {
	Region        frame.Region
	ClicksPerShot int
	Thresholds    alert.Thresholds
}

// ClickDeps are the collaborators of a ClickSession. Snapshots, Sink and Log
// are optional.
type ClickDeps struct {
	Capturer  screen.Capturer
	Extractor *features.Extractor
	Snapshots snapshot.Store
	Sink      publish.Sink
	Log       record.SampleLog
}

// ClickStats counts session activity.
type ClickStats struct {
	Clicks    int
	Triggers  int
	Coalesced int
	Cycles    int
	Alerts    int
	Errors    int
}

// ClickResult describes one completed cycle.
type ClickResult struct {
	Frame    *frame.Frame
	Features features.FeatureSet
	Decision alert.Decision
	Filename string
	Sent     bool
}

// ClickSession turns every Nth click into one capture cycle. Clicks are
// counted on the listener's goroutine; cycles run on a single worker fed by
// a one-slot queue, so the listener never blocks on capture or OCR.
type ClickSession struct {
	cfg     ClickConfig
	deps    ClickDeps
	tracker *change.Tracker
	stats   *syncx.RWGuard[ClickStats]
	trigger chan struct{}
}

// NewClickSession creates a session. ClicksPerShot below 1 is treated as 1.
func NewClickSession(cfg ClickConfig, deps ClickDeps) *ClickSession {
	if cfg.ClicksPerShot < 1 {
		cfg.ClicksPerShot = 1
	}
	return &ClickSession{
		cfg:     cfg,
		deps:    deps,
		tracker: change.NewTracker(),
		stats:   syncx.NewGuard(ClickStats{}),
		trigger: make(chan struct{}, 1),
	}
}

// HandleClick counts a click and queues a cycle on every Nth one. A trigger
// that arrives while another is still queued is coalesced into it.
func (s *ClickSession) HandleClick() {
	n := syncx.Modify(s.stats, func(st *ClickStats) int {
		st.Clicks++
		return st.Clicks
	})
	if n%s.cfg.ClicksPerShot != 0 {
		return
	}

	select {
	case s.trigger <- struct{}{}:
		s.stats.Write(func(st *ClickStats) { st.Triggers++ })
	default:
		s.stats.Write(func(st *ClickStats) { st.Coalesced++ })
		slog.Debug("capture already pending, click coalesced", "clicks", n)
	}
}

// Run is the worker loop. It returns when ctx is done.
func (s *ClickSession) Run(ctx context.Context) error {
	slog.Info("click session started", "region", s.cfg.Region.String(), "clicks_per_shot", s.cfg.ClicksPerShot)
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-s.trigger:
			err := guard("click", func() error {
				_, err := s.Cycle(ctx)
				return err
			})
			logCycleError(ctx, "click", err)
		}
	}
}

// Cycle captures the region once and runs the full pipeline. Only a capture
// failure is returned; later failures are logged and the sample is still
// recorded with whatever was computed.
func (s *ClickSession) Cycle(ctx context.Context) (ClickResult, error) {
	ctx, span := trace.Start(ctx, "click_cycle")
	defer span.End()
	log := trace.Logger(ctx)

	f, err := s.deps.Capturer.Capture(ctx, s.cfg.Region)
	if err != nil {
		s.stats.Write(func(st *ClickStats) { st.Errors++ })
		span.Fail(err)
		return ClickResult{}, err
	}

	res := ClickResult{Frame: f}
	if s.deps.Snapshots != nil {
		loc, err := s.deps.Snapshots.Save(ctx, f)
		if err != nil {
			log.Warn("snapshot save failed", "error", err)
		} else {
			res.Filename = loc
		}
	}

	res.Features = s.deps.Extractor.Extract(ctx, f)
	res.Features.ChangeScore = s.tracker.Observe(f)
	if res.Features.OCR.Failed() {
		log.Warn("ocr failed", "error", res.Features.OCR.Err)
	}

	res.Decision = alert.Decide(res.Features.RedPixels, res.Features.ChangeScore, s.cfg.Thresholds)
	if res.Decision.Fired {
		log.Info("alert fired", "reasons", res.Decision.Reasons, "file", res.Filename)
		res.Sent = s.publish(ctx, log, res, f.CapturedAt)
	}

	if s.deps.Log != nil {
		if err := s.deps.Log.RecordSample(ctx, sampleOf(s.cfg.Region.ID, res, f.CapturedAt)); err != nil {
			log.Warn("capture log write failed", "error", err)
		}
	}

	s.stats.Write(func(st *ClickStats) {
		st.Cycles++
		if res.Decision.Fired {
			st.Alerts++
		}
	})
	span.Set("red_pixels", res.Features.RedPixels)
	span.Set("change_score", res.Features.ChangeScore)
	log.Debug("click cycle done",
		"dominant", res.Features.DominantColor.String(),
		"red_pixels", res.Features.RedPixels,
		"change_score", res.Features.ChangeScore,
		"alert", res.Decision.Fired,
	)
	return res, nil
}

func (s *ClickSession) publish(ctx context.Context, log *slog.Logger, res ClickResult, ts time.Time) bool {
	if s.deps.Sink == nil {
		return false
	}
	payload := publish.NewScreenAlert(s.cfg.Region.ID, res.Filename, res.Features, res.Decision, ts)
	if err := s.deps.Sink.Publish(ctx, payload); err != nil {
		log.Warn("alert publish failed", "error", err)
		return false
	}
	return true
}

func sampleOf(region string, res ClickResult, ts time.Time) record.Sample {
	c := res.Features.DominantColor
	return record.Sample{
		TS:          ts,
		Filename:    res.Filename,
		Region:      region,
		Dominant:    [3]uint8{c.R, c.G, c.B},
		OCR:         res.Features.OCR.Display(),
		RedPixels:   res.Features.RedPixels,
		ChangeScore: res.Features.ChangeScore,
		AlertSent:   res.Sent,
	}
}

// Stats returns a snapshot of the session counters.
func (s *ClickSession) Stats() ClickStats {
	return s.stats.Get()
}
