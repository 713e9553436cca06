// Package conversation adapts external chat generators to
// ports.ConversationEngine.
package conversation

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"catnook-backend/application/ports"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

// maxReplyBytes caps how much of a reply body is read
const maxReplyBytes = 1 << 20

// BreakerConfig controls when the engine stops calling a failing generator
type BreakerConfig struct {
	MaxRequests      uint32
	Interval         time.Duration
	Timeout          time.Duration
	FailureThreshold float64
	MinRequests      uint32
}

func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{
		MaxRequests:      5,
		Interval:         30 * time.Second,
		Timeout:          60 * time.Second,
		FailureThreshold: 0.8,
		MinRequests:      5,
	}
}

// HTTPEngine posts each turn as JSON to a generator service
type HTTPEngine struct {
	url     string
	client  *http.Client
	breaker *gobreaker.CircuitBreaker
	logger  *zap.Logger
}

var _ ports.ConversationEngine = (*HTTPEngine)(nil)

func NewHTTPEngine(url string, timeout time.Duration, cfg BreakerConfig, logger *zap.Logger) *HTTPEngine {
	e := &HTTPEngine{
		url:    url,
		client: &http.Client{Timeout: timeout},
		logger: logger,
	}
	e.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "conversation-engine",
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < cfg.MinRequests {
				return false
			}
			return float64(counts.TotalFailures)/float64(counts.Requests) >= cfg.FailureThreshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("Circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()))
		},
		// a caller giving up is not the generator's fault
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
	})
	return e
}

// Respond returns the generator's reply. While the breaker is open calls
// fail fast with gobreaker.ErrOpenState.
func (e *HTTPEngine) Respond(ctx context.Context, req ports.ConversationRequest) (*ports.ConversationReply, error) {
	out, err := e.breaker.Execute(func() (interface{}, error) {
		return e.post(ctx, req)
	})
	if err != nil {
		return nil, err
	}
	return out.(*ports.ConversationReply), nil
}

func (e *HTTPEngine) post(ctx context.Context, req ports.ConversationRequest) (*ports.ConversationReply, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("encode conversation request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, e.url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := e.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("call conversation engine: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxReplyBytes))
	if err != nil {
		return nil, fmt.Errorf("read conversation reply: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("conversation engine returned %d", resp.StatusCode)
	}

	var reply ports.ConversationReply
	if err := json.Unmarshal(raw, &reply); err != nil {
		return nil, fmt.Errorf("decode conversation reply: %w", err)
	}

	e.logger.Debug("Conversation engine replied",
		zap.Int64("catID", req.Cat.ID),
		zap.Duration("duration", time.Since(start)))
	return &reply, nil
}
