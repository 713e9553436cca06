package observability

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsMiddlewareLabelsByRoute(t *testing.T) {
	c := NewCollector("catnook")
	r := chi.NewRouter()
	r.Use(c.MetricsMiddleware)
	r.Get("/api/cats/{catID}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})

	for _, path := range []string{"/api/cats/1", "/api/cats/2"} {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		require.Equal(t, http.StatusTeapot, rec.Code)
	}

	assert.Equal(t, 2.0, testutil.ToFloat64(c.HTTPRequests.WithLabelValues("GET", "/api/cats/{catID}", "418")))
}

func TestOperationCounters(t *testing.T) {
	c := NewCollector("catnook")
	c.Increment("query_count", "GetCatQuery")
	c.Increment("query_count", "GetCatQuery")
	c.StartOperationTimer("query_duration", "GetCatQuery").Stop()

	assert.Equal(t, 2.0, testutil.ToFloat64(c.Operations.WithLabelValues("query_count", "GetCatQuery")))
	assert.Equal(t, 1, testutil.CollectAndCount(c.OperationDuration))
}

func TestHandlerServesRegistry(t *testing.T) {
	c := NewCollector("catnook")
	c.BonusPaid.Add(150)

	srv := httptest.NewServer(c.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(body), "catnook_absence_bonus_paid_total 150"))
}

func TestInitTracingIsOptIn(t *testing.T) {
	shutdown, err := InitTracing(context.Background(), TracingConfig{Enabled: true})
	require.NoError(t, err)
	assert.NoError(t, shutdown(context.Background()))

	shutdown, err = InitTracing(context.Background(), TracingConfig{Endpoint: "http://localhost:4318"})
	require.NoError(t, err)
	assert.NoError(t, shutdown(context.Background()))
}
