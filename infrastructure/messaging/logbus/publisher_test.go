package logbus

import (
	"context"
	"testing"
	"time"

	"catnook-backend/domain/events"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestPublishBatchLogsEachEvent(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	p := NewPublisher(zap.New(core))

	at := time.Date(2026, time.April, 2, 8, 0, 0, 0, time.UTC)
	err := p.PublishBatch(context.Background(), []events.DomainEvent{
		events.NewCatCreated(1, "Miso", at),
		events.NewAbsenceBonusAwarded(2, 20, 150, 630, at),
	})
	require.NoError(t, err)

	entries := logs.All()
	require.Len(t, entries, 2)
	assert.Equal(t, events.TypeCatCreated, entries[0].ContextMap()["eventType"])
	assert.Equal(t, events.TypeAbsenceBonusAwarded, entries[1].ContextMap()["eventType"])
	assert.Equal(t, "events", entries[0].LoggerName)
}
