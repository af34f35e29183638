package record

import (
	"context"
	"fmt"

	"github.com/GriffinCanCode/screenwatch/internal/arbitrage"
	apperrors "github.com/GriffinCanCode/screenwatch/internal/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// DB is the subset of *pgxpool.Pool used by Postgres.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults
}

const schema = `
CREATE TABLE IF NOT EXISTS capture_samples (
	id           BIGSERIAL PRIMARY KEY,
	ts           TIMESTAMPTZ NOT NULL,
	region       TEXT NOT NULL,
	filename     TEXT NOT NULL DEFAULT '',
	dominant_r   SMALLINT NOT NULL,
	dominant_g   SMALLINT NOT NULL,
	dominant_b   SMALLINT NOT NULL,
	ocr          TEXT NOT NULL DEFAULT '',
	red_pixels   INTEGER NOT NULL,
	change_score DOUBLE PRECISION NOT NULL,
	alert_sent   BOOLEAN NOT NULL
);
CREATE TABLE IF NOT EXISTS opportunities (
	id          UUID PRIMARY KEY,
	item        TEXT NOT NULL,
	from_region TEXT NOT NULL,
	to_region   TEXT NOT NULL,
	buy         INTEGER NOT NULL,
	sell        INTEGER NOT NULL,
	profit      NUMERIC NOT NULL,
	detected_at TIMESTAMPTZ NOT NULL
);`

const insertSample = `
	INSERT INTO capture_samples (
		ts, region, filename, dominant_r, dominant_g, dominant_b,
		ocr, red_pixels, change_score, alert_sent
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

const insertOpportunity = `
	INSERT INTO opportunities (
		id, item, from_region, to_region, buy, sell, profit, detected_at
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	ON CONFLICT (id) DO NOTHING`

// Postgres batches samples and opportunities into Postgres tables.
type Postgres struct {
	db            DB
	samples       *Batcher[Sample]
	opportunities *Batcher[arbitrage.Opportunity]
}

// ConnectPostgres opens a pool for dsn and verifies connectivity.
func ConnectPostgres(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeConfigInvalid, "parse postgres dsn")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, apperrors.Wrap(err, apperrors.CodeUnavailable, "ping postgres")
	}
	return pool, nil
}

// NewPostgres creates the tables if needed and starts batching into them.
func NewPostgres(ctx context.Context, db DB) (*Postgres, error) {
	if _, err := db.Exec(ctx, schema); err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeRecordFailed, "create tables")
	}
	p := &Postgres{db: db}
	p.samples = NewBatcher("capture_samples", p.insertSamples, 0, 0)
	p.opportunities = NewBatcher("opportunities", p.insertOpportunities, 0, 0)
	return p, nil
}

// RecordSample implements SampleLog. Rows are written asynchronously.
func (p *Postgres) RecordSample(_ context.Context, s Sample) error {
	p.samples.Add(s)
	return nil
}

// RecordOpportunity implements OpportunityLog. Rows are written asynchronously.
func (p *Postgres) RecordOpportunity(_ context.Context, o arbitrage.Opportunity) error {
	p.opportunities.Add(o)
	return nil
}

// Close flushes pending rows.
func (p *Postgres) Close() error {
	p.samples.Stop()
	p.opportunities.Stop()
	return nil
}

func (p *Postgres) insertSamples(ctx context.Context, rows []Sample) error {
	batch := &pgx.Batch{}
	for _, s := range rows {
		batch.Queue(insertSample,
			s.TS, s.Region, s.Filename,
			int16(s.Dominant[0]), int16(s.Dominant[1]), int16(s.Dominant[2]),
			s.OCR, s.RedPixels, s.ChangeScore, s.AlertSent,
		)
	}
	return p.send(ctx, batch, len(rows), "sample")
}

func (p *Postgres) insertOpportunities(ctx context.Context, rows []arbitrage.Opportunity) error {
	batch := &pgx.Batch{}
	for _, o := range rows {
		batch.Queue(insertOpportunity,
			o.ID, o.Item, o.From, o.To, o.Buy, o.Sell, o.Profit.String(), o.DetectedAt,
		)
	}
	return p.send(ctx, batch, len(rows), "opportunity")
}

func (p *Postgres) send(ctx context.Context, batch *pgx.Batch, n int, kind string) error {
	br := p.db.SendBatch(ctx, batch)
	defer br.Close()

	for i := 0; i < n; i++ {
		if _, err := br.Exec(); err != nil {
			return apperrors.Wrap(err, apperrors.CodeRecordFailed, fmt.Sprintf("insert %s batch item %d", kind, i))
		}
	}
	return nil
}
