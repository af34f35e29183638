package publish

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	apperrors "github.com/GriffinCanCode/screenwatch/internal/errors"
	"github.com/GriffinCanCode/screenwatch/internal/resilience"
	"github.com/GriffinCanCode/screenwatch/internal/trace"
	"github.com/redis/go-redis/v9"
)

// Sink accepts JSON-serialisable payloads.
type Sink interface {
	Publish(ctx context.Context, payload any) error
}

// DefaultTimeout bounds one HTTP post.
const DefaultTimeout = 5 * time.Second

// HTTPSink POSTs payloads as JSON.
type HTTPSink struct {
	url     string
	client  *http.Client
	breaker *resilience.Breaker
	retry   resilience.RetryConfig
}

// NewHTTPSink creates a sink posting to url with the given per-request timeout.
func NewHTTPSink(url string, timeout time.Duration) *HTTPSink {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &HTTPSink{
		url:     url,
		client:  &http.Client{Timeout: timeout},
		breaker: resilience.New(resilience.SinkConfig("http-sink")),
		retry:   resilience.DefaultRetryConfig(),
	}
}

// Publish implements Sink.
func (s *HTTPSink) Publish(ctx context.Context, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return apperrors.Wrap(err, apperrors.CodePublishFailed, "encode payload")
	}
	err = s.breaker.Do(func() error {
		return resilience.Retry(ctx, s.retry, func(ctx context.Context) error { return s.post(ctx, body) })
	})
	if errors.Is(err, resilience.ErrOpen) {
		return apperrors.Wrap(err, apperrors.CodePublishFailed, "sink circuit open").WithMetadata("url", s.url)
	}
	return err
}

func (s *HTTPSink) post(ctx context.Context, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(body))
	if err != nil {
		return apperrors.Wrap(err, apperrors.CodeConfigInvalid, "build request").WithMetadata("url", s.url).AsPermanent()
	}
	req.Header.Set("Content-Type", "application/json")
	trace.InjectHeaders(req)

	resp, err := s.client.Do(req)
	if err != nil {
		return apperrors.Wrap(err, apperrors.CodePublishFailed, "post payload").WithMetadata("url", s.url)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	switch {
	case resp.StatusCode >= 500:
		return apperrors.Newf(apperrors.CodePublishFailed, "sink returned %d", resp.StatusCode).WithMetadata("url", s.url)
	case resp.StatusCode >= 300:
		return apperrors.Newf(apperrors.CodePublishFailed, "sink rejected payload with %d", resp.StatusCode).
			WithMetadata("url", s.url).
			AsPermanent()
	}
	return nil
}

// Publisher is the subset of *redis.Client used by RedisSink.
type Publisher interface {
	Publish(ctx context.Context, channel string, message any) *redis.IntCmd
}

// RedisSink publishes payloads as JSON on a pub/sub channel.
type RedisSink struct {
	rdb     Publisher
	channel string
}

// NewRedisSink creates a sink publishing to channel.
func NewRedisSink(rdb Publisher, channel string) *RedisSink {
	return &RedisSink{rdb: rdb, channel: channel}
}

// Publish implements Sink.
func (s *RedisSink) Publish(ctx context.Context, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return apperrors.Wrap(err, apperrors.CodePublishFailed, "encode payload")
	}
	if err := s.rdb.Publish(ctx, s.channel, body).Err(); err != nil {
		return apperrors.Wrap(err, apperrors.CodePublishFailed, "redis publish").WithMetadata("channel", s.channel)
	}
	return nil
}

// Fanout publishes to every sink and joins their errors.
type Fanout []Sink

// Publish implements Sink. One failing sink does not stop the others.
func (f Fanout) Publish(ctx context.Context, payload any) error {
	var errs []error
	for i, s := range f {
		if err := s.Publish(ctx, payload); err != nil {
			slog.Debug("sink failed", "sink", i, "error", err)
			errs = append(errs, fmt.Errorf("sink %d: %w", i, err))
		}
	}
	return errors.Join(errs...)
}
