package service

import (
	"context"
	"encoding/json"
	"time"

	"app/internal/model"
	"app/internal/pubsub"

	"github.com/rs/zerolog"
)

// EventSink receives domain events. Delivery is best-effort: a failed emit
// is logged and dropped, never surfaced to the caller.
type EventSink interface {
	Emit(ctx context.Context, ev model.Event)
}

type pubsubEventSink struct {
	publisher pubsub.Publisher
	topic     string
	logger    zerolog.Logger
}

// NewPubSubEventSink creates an EventSink backed by a Pub/Sub topic.
func NewPubSubEventSink(publisher pubsub.Publisher, topic string, logger zerolog.Logger) EventSink {
	return &pubsubEventSink{
		publisher: publisher,
		topic:     topic,
		logger:    logger.With().Str("component", "event_sink").Logger(),
	}
}

func (s *pubsubEventSink) Emit(ctx context.Context, ev model.Event) {
	if ev.OccurredAt.IsZero() {
		ev.OccurredAt = time.Now().UTC()
	}
	payload, err := json.Marshal(ev)
	if err != nil {
		s.logger.Error().Err(err).Str("event_type", string(ev.Type)).Msg("Failed to marshal event")
		return
	}
	id, err := s.publisher.Publish(ctx, s.topic, payload)
	if err != nil {
		s.logger.Warn().Err(err).Str("event_type", string(ev.Type)).Str("circle_id", ev.CircleID).Msg("Failed to publish event")
		return
	}
	s.logger.Debug().Str("event_type", string(ev.Type)).Str("message_id", id).Msg("Published event")
}

// NopEventSink discards all events. Used when no broker is configured.
type NopEventSink struct{}

// Emit implements EventSink.
func (NopEventSink) Emit(context.Context, model.Event) {}
