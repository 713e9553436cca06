// Package logbus publishes domain events to the structured log. It stands in
// for EventBridge when the service runs without AWS.
package logbus

import (
	"context"
	"encoding/json"

	"catnook-backend/application/ports"
	"catnook-backend/domain/events"

	"go.uber.org/zap"
)

type Publisher struct {
	logger *zap.Logger
}

var _ ports.EventPublisher = (*Publisher)(nil)

func NewPublisher(logger *zap.Logger) *Publisher {
	return &Publisher{logger: logger.Named("events")}
}

func (p *Publisher) Publish(ctx context.Context, event events.DomainEvent) error {
	detail, err := json.Marshal(event)
	if err != nil {
		return err
	}
	p.logger.Info("Domain event",
		zap.String("source", events.Source),
		zap.String("eventType", event.GetEventType()),
		zap.String("aggregateID", event.GetAggregateID()),
		zap.Int64("version", event.GetVersion()),
		zap.Time("timestamp", event.GetTimestamp()),
		zap.ByteString("detail", detail))
	return nil
}

func (p *Publisher) PublishBatch(ctx context.Context, evts []events.DomainEvent) error {
	for _, e := range evts {
		if err := p.Publish(ctx, e); err != nil {
			return err
		}
	}
	return nil
}
