package record

import (
	"context"
	"encoding/json"
	"os"
	"sync"

	"github.com/GriffinCanCode/screenwatch/internal/arbitrage"
	apperrors "github.com/GriffinCanCode/screenwatch/internal/errors"
	"github.com/GriffinCanCode/screenwatch/internal/publish"
)

// JSONLog appends one JSON object per opportunity.
type JSONLog struct {
	mu  sync.Mutex
	f   *os.File
	enc *json.Encoder
}

// OpenJSONL opens path for appending.
func OpenJSONL(path string) (*JSONLog, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeRecordFailed, "open opportunity log").WithMetadata("path", path)
	}
	return &JSONLog{f: f, enc: json.NewEncoder(f)}, nil
}

// RecordOpportunity implements OpportunityLog using the published wire form.
func (l *JSONLog) RecordOpportunity(_ context.Context, o arbitrage.Opportunity) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.enc.Encode(publish.NewPriceUpdate(o).Opportunity); err != nil {
		return apperrors.Wrap(err, apperrors.CodeRecordFailed, "write opportunity")
	}
	return nil
}

// Close closes the file.
func (l *JSONLog) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.f.Close()
}
