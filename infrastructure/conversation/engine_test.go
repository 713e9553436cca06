package conversation

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"catnook-backend/application/ports"

	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func sampleRequest() ports.ConversationRequest {
	return ports.ConversationRequest{
		Cat:     ports.CatPersona{ID: 7, Name: "Miso", Personality: "grumpy", Mood: 5, Patience: 6, State: "alive"},
		User:    ports.ConversationUser{ID: 1, Username: "johndoe"},
		Message: "hi",
		Recent:  []ports.RecentInteraction{{Kind: "feed", At: time.Date(2026, time.April, 2, 8, 0, 0, 0, time.UTC)}},
	}
}

func TestHTTPEngineRoundTrip(t *testing.T) {
	var got ports.ConversationRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"reply":"mrrp","mood":8,"patience":4}`))
	}))
	defer srv.Close()

	engine := NewHTTPEngine(srv.URL, time.Second, DefaultBreakerConfig(), zap.NewNop())
	reply, err := engine.Respond(context.Background(), sampleRequest())
	require.NoError(t, err)

	assert.Equal(t, "mrrp", reply.Reply)
	assert.Equal(t, 8, reply.Mood)
	assert.Equal(t, 4, reply.Patience)
	assert.Equal(t, "Miso", got.Cat.Name)
	assert.Equal(t, "johndoe", got.User.Username)
	require.Len(t, got.Recent, 1)
	assert.Equal(t, "feed", got.Recent[0].Kind)
}

func TestHTTPEngineErrors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr string
	}{
		{"server error", http.StatusInternalServerError, `{}`, "returned 500"},
		{"bad json", http.StatusOK, `{"reply":`, "decode conversation reply"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			_, err := NewHTTPEngine(srv.URL, time.Second, DefaultBreakerConfig(), zap.NewNop()).
				Respond(context.Background(), sampleRequest())
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestHTTPEngineBreakerOpens(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	cfg := DefaultBreakerConfig()
	cfg.MinRequests = 3
	cfg.FailureThreshold = 1
	engine := NewHTTPEngine(srv.URL, time.Second, cfg, zap.NewNop())

	for i := 0; i < 3; i++ {
		_, err := engine.Respond(context.Background(), sampleRequest())
		require.Error(t, err)
	}
	_, err := engine.Respond(context.Background(), sampleRequest())
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
	assert.Equal(t, int32(3), calls.Load())
}

func TestCannedEngineKeepsVitals(t *testing.T) {
	req := sampleRequest()
	reply, err := CannedEngine{}.Respond(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, req.Cat.Mood, reply.Mood)
	assert.Equal(t, req.Cat.Patience, reply.Patience)
	assert.Contains(t, reply.Reply, "purrs")

	req.Recent = nil
	reply, err = CannedEngine{}.Respond(context.Background(), req)
	require.NoError(t, err)
	assert.Contains(t, reply.Reply, "johndoe")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = CannedEngine{}.Respond(ctx, req)
	assert.ErrorIs(t, err, context.Canceled)
}
