package server

import (
	"context"
	"log/slog"

	"github.com/redis/go-redis/v9"

	apperrors "github.com/GriffinCanCode/screenwatch/internal/errors"
	"github.com/GriffinCanCode/screenwatch/internal/trace"
)

// Subscriber is the subset of *redis.Client used to follow a pub/sub channel.
type Subscriber interface {
	Subscribe(ctx context.Context, channels ...string) *redis.PubSub
}

// Subscribe relays every payload published on channel until ctx is done.
func (s *Server) Subscribe(ctx context.Context, rdb Subscriber, channel string) error {
	ps := rdb.Subscribe(ctx, channel)
	defer func() { _ = ps.Close() }()

	// Wait for the subscription confirmation so connection errors surface here.
	if _, err := ps.Receive(ctx); err != nil {
		return apperrors.Wrap(err, apperrors.CodeUnavailable, "redis subscribe").WithMetadata("channel", channel)
	}
	slog.Info("relaying redis channel", "channel", channel)

	return s.consume(ctx, ps.Channel())
}

func (s *Server) consume(ctx context.Context, msgs <-chan *redis.Message) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-msgs:
			if !ok {
				return nil
			}
			mctx := trace.Into(ctx, trace.Root())
			if err := s.Ingest(mctx, []byte(msg.Payload)); err != nil {
				trace.Logger(mctx).Warn("redis payload rejected", "channel", msg.Channel, "error", err)
			}
		}
	}
}
