// Package record appends one audit row per processed sample or emitted
// opportunity to local files or Postgres.
package record

import (
	"context"
	"time"

	"github.com/GriffinCanCode/screenwatch/internal/arbitrage"
)

// Sample is one row of the click path log.
type Sample struct {
	TS          time.Time
	Filename    string
	Region      string
	Dominant    [3]uint8
	OCR         string
	RedPixels   int
	ChangeScore float64
	AlertSent   bool
}

// SampleLog persists samples.
type SampleLog interface {
	RecordSample(ctx context.Context, s Sample) error
}

// OpportunityLog persists emitted opportunities.
type OpportunityLog interface {
	RecordOpportunity(ctx context.Context, o arbitrage.Opportunity) error
}

// Multi fans a record out to several logs and returns the first error.
type Multi struct {
	Samples       []SampleLog
	Opportunities []OpportunityLog
}

// RecordSample implements SampleLog.
func (m Multi) RecordSample(ctx context.Context, s Sample) error {
	var first error
	for _, l := range m.Samples {
		if err := l.RecordSample(ctx, s); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// RecordOpportunity implements OpportunityLog.
func (m Multi) RecordOpportunity(ctx context.Context, o arbitrage.Opportunity) error {
	var first error
	for _, l := range m.Opportunities {
		if err := l.RecordOpportunity(ctx, o); err != nil && first == nil {
			first = err
		}
	}
	return first
}
