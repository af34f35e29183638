package record

import (
	"context"
	"encoding/csv"
	"os"
	"strconv"
	"sync"
	"time"

	apperrors "github.com/GriffinCanCode/screenwatch/internal/errors"
)

// CSVHeader is written once when the log file is created.
var CSVHeader = []string{"ts", "filename", "dominant_r", "dominant_g", "dominant_b", "ocr", "red_pixels", "change_score", "alert_sent"}

// CSVLog appends samples to a CSV file.
type CSVLog struct {
	mu sync.Mutex
	f  *os.File
	w  *csv.Writer
}

// OpenCSV opens path for appending, writing the header if the file is new or empty.
func OpenCSV(path string) (*CSVLog, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeRecordFailed, "open capture log").WithMetadata("path", path)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, apperrors.Wrap(err, apperrors.CodeRecordFailed, "stat capture log").WithMetadata("path", path)
	}

	l := &CSVLog{f: f, w: csv.NewWriter(f)}
	if info.Size() == 0 {
		if err := l.write(CSVHeader); err != nil {
			f.Close()
			return nil, err
		}
	}
	return l, nil
}

// RecordSample implements SampleLog.
func (l *CSVLog) RecordSample(_ context.Context, s Sample) error {
	return l.write([]string{
		s.TS.UTC().Format(time.RFC3339Nano),
		s.Filename,
		strconv.Itoa(int(s.Dominant[0])),
		strconv.Itoa(int(s.Dominant[1])),
		strconv.Itoa(int(s.Dominant[2])),
		s.OCR,
		strconv.Itoa(s.RedPixels),
		strconv.FormatFloat(s.ChangeScore, 'f', 6, 64),
		strconv.FormatBool(s.AlertSent),
	})
}

func (l *CSVLog) write(row []string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.w.Write(row); err != nil {
		return apperrors.Wrap(err, apperrors.CodeRecordFailed, "write csv row")
	}
	l.w.Flush()
	if err := l.w.Error(); err != nil {
		return apperrors.Wrap(err, apperrors.CodeRecordFailed, "flush csv row")
	}
	return nil
}

// Close flushes and closes the file.
func (l *CSVLog) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.w.Flush()
	return l.f.Close()
}
