// Package messaging holds the event publisher decorators shared by every
// transport.
package messaging

import (
	"context"

	"catnook-backend/application/ports"
	"catnook-backend/domain/events"
	"catnook-backend/pkg/observability"
)

// MeteredPublisher counts events and the yarn they move before handing them
// to the next publisher. Counting happens even if the hand-off fails, since
// the state change already committed.
type MeteredPublisher struct {
	next    ports.EventPublisher
	metrics *observability.Collector
}

var _ ports.EventPublisher = (*MeteredPublisher)(nil)

func NewMeteredPublisher(next ports.EventPublisher, metrics *observability.Collector) *MeteredPublisher {
	return &MeteredPublisher{next: next, metrics: metrics}
}

func (p *MeteredPublisher) Publish(ctx context.Context, event events.DomainEvent) error {
	p.observe(event)
	return p.next.Publish(ctx, event)
}

func (p *MeteredPublisher) PublishBatch(ctx context.Context, evts []events.DomainEvent) error {
	for _, e := range evts {
		p.observe(e)
	}
	return p.next.PublishBatch(ctx, evts)
}

func (p *MeteredPublisher) observe(event events.DomainEvent) {
	p.metrics.Events.WithLabelValues(event.GetEventType()).Inc()
	switch e := event.(type) {
	case events.InteractionRecorded:
		p.metrics.YarnSpent.WithLabelValues(e.Kind.String()).Add(float64(e.Cost))
	case events.AbsenceBonusAwarded:
		p.metrics.BonusPaid.Add(float64(e.Bonus))
	}
}
