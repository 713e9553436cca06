package di

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"catnook-backend/infrastructure/config"
	"catnook-backend/infrastructure/conversation"
	"catnook-backend/infrastructure/locking"
	"catnook-backend/infrastructure/persistence/dynamodb"
	"catnook-backend/pkg/observability"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsdynamodb "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func testConfig() *config.Config {
	return &config.Config{
		Environment:       "test",
		StorageDriver:     config.StorageMemory,
		AWSRegion:         "us-west-2",
		DynamoDBTable:     "catnook",
		LogLevel:          "error",
		JWTIssuer:         "catnook-backend",
		LockWaitTimeout:   time.Second,
		LockTTL:           10 * time.Second,
		ChatEngineTimeout: time.Second,
		EnableMetrics:     true,
	}
}

func TestInitializeContainerInMemory(t *testing.T) {
	t.Setenv("AWS_ACCESS_KEY_ID", "test")
	t.Setenv("AWS_SECRET_ACCESS_KEY", "test")

	container, cleanup, err := InitializeContainer(context.Background(), testConfig())
	require.NoError(t, err)
	defer cleanup()

	assert.NotNil(t, container.CommandBus)
	assert.NotNil(t, container.QueryBus)
	assert.NoError(t, container.Storage.Ping(context.Background()))

	handler := container.Router.Setup()
	for _, path := range []string{"/health", "/ready", "/metrics"} {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusOK, rec.Code, path)
	}

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/users/me", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestProvideLoggerRejectsUnknownLevel(t *testing.T) {
	cfg := testConfig()
	cfg.LogLevel = "chatty"
	_, err := ProvideLogger(cfg)
	assert.Error(t, err)
}

func TestProvideLockerFollowsStorage(t *testing.T) {
	cfg := testConfig()
	client := awsdynamodb.NewFromConfig(aws.Config{Region: "us-west-2"})

	_, ok := ProvideLocker(cfg, client, nil, zap.NewNop()).(*locking.KeyedLocker)
	assert.True(t, ok)

	cfg.StorageDriver = config.StorageDynamoDB
	_, ok = ProvideLocker(cfg, client, nil, zap.NewNop()).(*dynamodb.DistributedLock)
	assert.True(t, ok)
}

func TestProvideConversationEngine(t *testing.T) {
	cfg := testConfig()
	_, ok := ProvideConversationEngine(cfg, zap.NewNop()).(conversation.CannedEngine)
	assert.True(t, ok)

	cfg.ChatEngineURL = "http://localhost:9000/respond"
	_, ok = ProvideConversationEngine(cfg, zap.NewNop()).(*conversation.HTTPEngine)
	assert.True(t, ok)
}

func TestBusMetricsAdapter(t *testing.T) {
	c := observability.NewCollector("catnook")
	m := busMetrics{c}

	m.Increment("query_count", "GetCatQuery")
	m.StartTimer("query_duration", "GetCatQuery").Stop()

	assert.Equal(t, 1.0, testutil.ToFloat64(c.Operations.WithLabelValues("query_count", "GetCatQuery")))
}
