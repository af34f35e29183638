package session

import (
	"context"
	"errors"
	"image"
	"image/draw"
	"testing"
	"time"

	"github.com/GriffinCanCode/screenwatch/internal/arbitrage"
	apperrors "github.com/GriffinCanCode/screenwatch/internal/errors"
	"github.com/GriffinCanCode/screenwatch/internal/features"
	"github.com/GriffinCanCode/screenwatch/internal/frame"
	"github.com/GriffinCanCode/screenwatch/internal/ocr"
	"github.com/GriffinCanCode/screenwatch/internal/publish"
)

func newMarket(src *scriptedCapturer, eng *scriptedOCR, sink *recordingSink, log *memoryLog, interval time.Duration, extra ...features.Option) *MarketSession {
	opts := append([]features.Option{
		features.WithOCROptions(ocr.Options{PageSegMode: ocr.PageSegSingleBlock}),
		features.WithBinarize(ocr.DefaultBinarizeThreshold),
	}, extra...)
	deps := MarketDeps{
		Capturer:  src,
		Extractor: features.NewExtractor(eng, opts...),
		Matcher: arbitrage.NewMatcher(0.05, 100),
	}
	if sink != nil {
		deps.Sink = sink
	}
	if log != nil {
		deps.Log = log
	}
	return NewMarketSession(MarketConfig{
		Source:       frame.FromCorners("caerleon", 0, 0, 20, 20),
		Destination:  frame.FromCorners("martlock", 20, 0, 40, 20),
		PollInterval: interval,
	}, deps)
}

func marketCapturer() *scriptedCapturer {
	return newCapturer().
		queue("caerleon", solid(20, 20, black)).
		queue("martlock", solid(20, 20, white))
}

func TestMarketCycleEmitsAndDedups(t *testing.T) {
	eng := &scriptedOCR{texts: []string{
		"Iron Ore 1,000\nSilk 10", "iron ore 1.200\nHide 50",
		"Iron Ore 1,000", "Iron Ore 1,200",
		"Iron Ore 1,000", "Iron Ore 1,250",
	}}
	sink := &recordingSink{}
	log := &memoryLog{}
	s := newMarket(marketCapturer(), eng, sink, log, time.Hour)

	got, err := s.Cycle(context.Background())
	if err != nil {
		t.Fatalf("Cycle() error = %v", err)
	}
	if len(got) != 1 || got[0].Item != "iron ore" || got[0].Buy != 1000 || got[0].Sell != 1200 {
		t.Fatalf("first cycle = %+v", got)
	}

	got, _ = s.Cycle(context.Background())
	if len(got) != 0 {
		t.Errorf("repeat cycle emitted %+v", got)
	}

	got, _ = s.Cycle(context.Background())
	if len(got) != 1 || got[0].Sell != 1250 {
		t.Errorf("changed price cycle = %+v", got)
	}

	if sink.count() != 2 || len(log.opps) != 2 {
		t.Errorf("published %d, logged %d, want 2 each", sink.count(), len(log.opps))
	}
	p := sink.payloads[0].(publish.PriceUpdate)
	if p.ItemID != "SCREEN_iron ore" || p.Opportunity.Profit != 140 {
		t.Errorf("payload = %+v", p)
	}
	for _, o := range eng.opts {
		if o.PageSegMode != ocr.PageSegSingleBlock {
			t.Errorf("PageSegMode = %d, want single block", o.PageSegMode)
		}
	}
}

// strip is a black price strip with white 5x7 glyphs; a hole in one glyph
// changes a single digit.
func strip(holes ...int) *image.RGBA {
	img := solid(300, 30, black)
	for g := 0; g < 8; g++ {
		draw.Draw(img, image.Rect(200+g*8, 10, 205+g*8, 17), &image.Uniform{C: white}, image.Point{}, draw.Src)
	}
	for _, g := range holes {
		img.Set(202+g*8, 13, black)
	}
	return img
}

func TestMarketCycleGateRereadsChangedDigit(t *testing.T) {
	src := newCapturer().
		queue("caerleon", strip()).
		queue("martlock", strip(), strip(3))
	eng := &scriptedOCR{texts: []string{"Iron Sword 1000", "Iron Sword 1200", "Iron Sword 1900"}}
	sink := &recordingSink{}
	s := newMarket(src, eng, sink, nil, time.Hour, features.WithGate(features.NewOCRGate(features.GateExact, 0)))

	got, err := s.Cycle(context.Background())
	if err != nil || len(got) != 1 || got[0].Sell != 1200 {
		t.Fatalf("first cycle = %+v, %v", got, err)
	}

	got, err = s.Cycle(context.Background())
	if err != nil {
		t.Fatalf("second cycle error = %v", err)
	}
	if len(got) != 1 || got[0].Buy != 1000 || got[0].Sell != 1900 {
		t.Errorf("second cycle = %+v, want the new sell price emitted", got)
	}
	if len(eng.opts) != 3 {
		t.Errorf("engine calls = %d, want 3 (unchanged source reused)", len(eng.opts))
	}
	if sink.count() != 2 {
		t.Errorf("published %d, want 2", sink.count())
	}
}

func TestMarketCycleCaptureOrder(t *testing.T) {
	src := marketCapturer()
	s := newMarket(src, &scriptedOCR{texts: []string{""}}, nil, nil, time.Hour)

	if _, err := s.Cycle(context.Background()); err != nil {
		t.Fatal(err)
	}
	if len(src.calls) != 2 || src.calls[0] != "caerleon" || src.calls[1] != "martlock" {
		t.Errorf("capture order = %v", src.calls)
	}
}

func TestMarketCycleCaptureError(t *testing.T) {
	src := marketCapturer().failNext("martlock", 1)
	s := newMarket(src, &scriptedOCR{texts: []string{"Iron Ore 1000"}}, nil, nil, time.Hour)

	got, err := s.Cycle(context.Background())
	if !apperrors.IsCode(err, apperrors.CodeCaptureFailed) {
		t.Errorf("Cycle() error = %v, want CAPTURE_FAILED", err)
	}
	if got != nil {
		t.Errorf("Cycle() = %+v, want nothing", got)
	}
}

func TestMarketCycleOCRFailureIsEmpty(t *testing.T) {
	s := newMarket(marketCapturer(), &scriptedOCR{err: errors.New("engine down")}, nil, nil, time.Hour)

	got, err := s.Cycle(context.Background())
	if err != nil {
		t.Errorf("Cycle() error = %v, OCR failure is not a cycle error", err)
	}
	if len(got) != 0 {
		t.Errorf("Cycle() = %+v", got)
	}
}

func TestMarketRunSurvivesFailures(t *testing.T) {
	src := marketCapturer().failNext("caerleon", 2)
	sink := &recordingSink{}
	eng := &scriptedOCR{texts: []string{"Iron Ore 1000", "Iron Ore 1200"}}
	s := newMarket(src, eng, sink, nil, 5*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	deadline := time.Now().Add(2 * time.Second)
	for sink.count() == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	cancel()
	if err := <-done; err != nil {
		t.Errorf("Run() error = %v", err)
	}
	if sink.count() != 1 {
		t.Errorf("published %d, want exactly 1 after recovering", sink.count())
	}
}
