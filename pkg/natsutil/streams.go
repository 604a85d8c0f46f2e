package natsutil

import (
	"context"
	"fmt"

	"github.com/nats-io/nats.go/jetstream"

	"github.com/netnynja/netnynja/pkg/logger"
)

// EnsureStream creates or updates a JetStream stream to match cfg.
func EnsureStream(ctx context.Context, js jetstream.JetStream, cfg jetstream.StreamConfig, log logger.Logger) (jetstream.Stream, error) {
	stream, err := js.CreateOrUpdateStream(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create or update stream %s: %w", cfg.Name, err)
	}

	log.Debug().
		Str("stream", cfg.Name).
		Strs("subjects", cfg.Subjects).
		Msg("JetStream stream ready")

	return stream, nil
}

// EnsurePullConsumer creates or updates a durable pull consumer on a stream.
func EnsurePullConsumer(ctx context.Context, js jetstream.JetStream, stream string, cfg jetstream.ConsumerConfig) (jetstream.Consumer, error) {
	consumer, err := js.CreateOrUpdateConsumer(ctx, stream, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create or update consumer %s on stream %s: %w", cfg.Durable, stream, err)
	}

	return consumer, nil
}
