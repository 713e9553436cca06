package di

import (
	"context"
	"fmt"
	"os"
	"time"

	"catnook-backend/application/commands/bus"
	cmdhandlers "catnook-backend/application/commands/handlers"
	"catnook-backend/application/ports"
	querybus "catnook-backend/application/queries/bus"
	queryhandlers "catnook-backend/application/queries/handlers"
	domainconfig "catnook-backend/domain/config"
	"catnook-backend/infrastructure/config"
	"catnook-backend/infrastructure/conversation"
	"catnook-backend/infrastructure/locking"
	"catnook-backend/infrastructure/messaging"
	"catnook-backend/infrastructure/messaging/eventbridge"
	"catnook-backend/infrastructure/messaging/logbus"
	"catnook-backend/infrastructure/persistence/dynamodb"
	"catnook-backend/infrastructure/persistence/memory"
	"catnook-backend/infrastructure/persistence/sqlite"
	"catnook-backend/interfaces/http/rest"
	"catnook-backend/interfaces/http/rest/middleware"
	"catnook-backend/pkg/auth"
	pkgerrors "catnook-backend/pkg/errors"
	"catnook-backend/pkg/observability"
	"catnook-backend/pkg/utils"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awsdynamodb "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	awseventbridge "github.com/aws/aws-sdk-go-v2/service/eventbridge"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	serviceName      = "catnook-backend"
	metricsNamespace = "catnook"

	ipRequestsPerMinute   = 300
	userRequestsPerMinute = 120
	slowQueryThreshold    = 250 * time.Millisecond
)

// ProvideLogger creates a new logger instance
func ProvideLogger(cfg *config.Config) (*zap.Logger, error) {
	var zcfg zap.Config
	if cfg.IsProduction() {
		zcfg = zap.NewProductionConfig()
	} else {
		zcfg = zap.NewDevelopmentConfig()
	}

	level, err := zapcore.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("LOG_LEVEL: %w", err)
	}
	zcfg.Level = zap.NewAtomicLevelAt(level)

	logger, err := zcfg.Build()
	if err != nil {
		return nil, err
	}
	return logger.With(zap.String("service", serviceName)), nil
}

// ProvideEconomy loads the cost table and lifecycle numbers
func ProvideEconomy(cfg *config.Config) (*domainconfig.EconomyConfig, error) {
	return config.LoadEconomy(cfg.EconomyConfigFile)
}

func ProvideClock() utils.Clock {
	return utils.SystemClock{}
}

// ProvideAWSConfig creates AWS configuration
func ProvideAWSConfig(ctx context.Context, cfg *config.Config) (aws.Config, error) {
	return awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.AWSRegion),
	)
}

// ProvideDynamoDBClient creates a DynamoDB client
func ProvideDynamoDBClient(awsCfg aws.Config) *awsdynamodb.Client {
	return awsdynamodb.NewFromConfig(awsCfg)
}

// ProvideEventBridgeClient creates an EventBridge client
func ProvideEventBridgeClient(awsCfg aws.Config) *awseventbridge.Client {
	return awseventbridge.NewFromConfig(awsCfg)
}

// ProvideStorage opens the configured driver. The cleanup closes it.
func ProvideStorage(ctx context.Context, cfg *config.Config, client *awsdynamodb.Client, logger *zap.Logger) (*Storage, func(), error) {
	switch cfg.StorageDriver {
	case config.StorageDynamoDB:
		store := dynamodb.NewStore(client, cfg.DynamoDBTable, logger)
		logger.Info("Using DynamoDB storage", zap.String("table", cfg.DynamoDBTable))
		return &Storage{
			Cats:         store.Cats(),
			Accounts:     store.Accounts(),
			Interactions: store.Interactions(),
			ping:         store.Ping,
		}, func() {}, nil

	case config.StorageSQLite:
		store, err := sqlite.Open(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, nil, fmt.Errorf("open sqlite store: %w", err)
		}
		logger.Info("Using SQLite storage", zap.String("path", cfg.SQLitePath))
		cleanup := func() {
			if err := store.Close(); err != nil {
				logger.Error("Failed to close SQLite store", zap.Error(err))
			}
		}
		return &Storage{
			Cats:         store.Cats(),
			Accounts:     store.Accounts(),
			Interactions: store.Interactions(),
			ping:         store.Ping,
		}, cleanup, nil

	default:
		store := memory.NewStore()
		logger.Warn("Using in-memory storage; data is lost on restart")
		return &Storage{
			Cats:         store.Cats(),
			Accounts:     store.Accounts(),
			Interactions: store.Interactions(),
		}, func() {}, nil
	}
}

// ProvideLocker picks the lease store. Only DynamoDB deployments run more
// than one process against the same data.
func ProvideLocker(cfg *config.Config, client *awsdynamodb.Client, clock utils.Clock, logger *zap.Logger) ports.Locker {
	if cfg.StorageDriver == config.StorageDynamoDB {
		return dynamodb.NewDistributedLock(client, cfg.DynamoDBTable, lockOwner(cfg), clock, logger)
	}
	return locking.NewKeyedLocker(clock)
}

func lockOwner(cfg *config.Config) string {
	host := cfg.LambdaFunctionName
	if host == "" {
		host, _ = os.Hostname()
	}
	return host + "/" + uuid.NewString()
}

// ProvideResourceGuard bounds how long handlers wait for a busy entity
func ProvideResourceGuard(locker ports.Locker, cfg *config.Config, logger *zap.Logger) ports.ResourceGuard {
	opts := locking.DefaultOptions()
	opts.Wait = cfg.LockWaitTimeout
	opts.TTL = cfg.LockTTL
	return locking.NewAcquirer(locker, opts, logger)
}

// ProvideMetrics creates the Prometheus collector
func ProvideMetrics() *observability.Collector {
	return observability.NewCollector(metricsNamespace)
}

// ProvideEventPublisher sends events to EventBridge when a bus is
// configured and to the log otherwise, counting them either way
func ProvideEventPublisher(
	cfg *config.Config,
	client *awseventbridge.Client,
	metrics *observability.Collector,
	logger *zap.Logger,
) ports.EventPublisher {
	var next ports.EventPublisher
	if cfg.EventBusName != "" {
		next = eventbridge.NewPublisher(client, cfg.EventBusName, logger)
	} else {
		next = logbus.NewPublisher(logger)
	}
	return messaging.NewMeteredPublisher(next, metrics)
}

// ProvideConversationEngine uses the remote engine when one is configured
func ProvideConversationEngine(cfg *config.Config, logger *zap.Logger) ports.ConversationEngine {
	if cfg.ChatEngineURL == "" {
		logger.Info("No conversation engine configured, using canned replies")
		return conversation.CannedEngine{}
	}
	return conversation.NewHTTPEngine(cfg.ChatEngineURL, cfg.ChatEngineTimeout, conversation.DefaultBreakerConfig(), logger)
}

// ProvideCommandBus registers every command handler
func ProvideCommandBus(handlers *cmdhandlers.Set, cfg *config.Config, logger *zap.Logger) (*bus.CommandBus, error) {
	middlewares := []bus.Middleware{bus.LoggingMiddleware(logger)}
	if cfg.EnableTracing {
		middlewares = append(middlewares, bus.TracingMiddleware(observability.Tracer(serviceName+"/commands")))
	}
	commandBus := bus.NewCommandBus(middlewares...)
	if err := handlers.Register(commandBus); err != nil {
		return nil, fmt.Errorf("register command handlers: %w", err)
	}
	return commandBus, nil
}

// ProvideQueryBus registers every query handler behind the metrics and
// slow-read middlewares
func ProvideQueryBus(handlers *queryhandlers.Set, metrics *observability.Collector, logger *zap.Logger) (*querybus.QueryBus, error) {
	queryBus := querybus.NewQueryBus(
		querybus.NewMetricsMiddleware(busMetrics{metrics}).Wrap,
		querybus.SlowQueryLogger(logger, slowQueryThreshold),
	)
	if err := handlers.Register(queryBus); err != nil {
		return nil, fmt.Errorf("register query handlers: %w", err)
	}
	return queryBus, nil
}

// busMetrics adapts the collector to the query bus' Metrics interface
type busMetrics struct {
	c *observability.Collector
}

func (m busMetrics) StartTimer(metric, label string) querybus.Timer {
	return m.c.StartOperationTimer(metric, label)
}

func (m busMetrics) Increment(metric, label string) {
	m.c.Increment(metric, label)
}

// ProvideErrorHandler exposes error causes outside production
func ProvideErrorHandler(cfg *config.Config, logger *zap.Logger) *pkgerrors.ErrorHandler {
	return pkgerrors.NewErrorHandler(logger, cfg.IsDevelopment())
}

// ProvideAuthConfig builds the token validator and request limiters. Rate
// limits are shared through DynamoDB when that is the store, so every
// Lambda instance counts against the same window.
func ProvideAuthConfig(
	cfg *config.Config,
	client *awsdynamodb.Client,
	clock utils.Clock,
	errs *pkgerrors.ErrorHandler,
	logger *zap.Logger,
) (middleware.AuthConfig, error) {
	validator, err := auth.NewJWTValidator(auth.JWTConfig{
		SigningMethod: "HS256",
		SecretKey:     cfg.SigningSecret(),
		Issuer:        cfg.JWTIssuer,
	})
	if err != nil {
		return middleware.AuthConfig{}, fmt.Errorf("jwt validator: %w", err)
	}
	if cfg.JWTSecret == "" {
		logger.Warn("JWT_SECRET not set, using the development signing key")
	}

	var ipLimiter, userLimiter auth.RateLimiter
	if cfg.StorageDriver == config.StorageDynamoDB {
		ipLimiter = auth.NewIPRateLimiter(auth.NewDistributedRateLimiter(client, cfg.DynamoDBTable, ipRequestsPerMinute, time.Minute, clock))
		userLimiter = auth.NewUserRateLimiter(auth.NewDistributedRateLimiter(client, cfg.DynamoDBTable, userRequestsPerMinute, time.Minute, clock))
	} else {
		ipLimiter = auth.NewIPRateLimiter(auth.NewSlidingWindowLimiter(ipRequestsPerMinute, time.Minute, clock))
		userLimiter = auth.NewUserRateLimiter(auth.NewSlidingWindowLimiter(userRequestsPerMinute, time.Minute, clock))
	}

	return middleware.AuthConfig{
		Validator:    validator,
		IPLimiter:    ipLimiter,
		UserLimiter:  userLimiter,
		TrustGateway: cfg.IsLambda,
		Errors:       errs,
		Logger:       logger,
	}, nil
}

// ProvideRouter assembles the HTTP surface
func ProvideRouter(
	commandBus *bus.CommandBus,
	queryBus *querybus.QueryBus,
	authConfig middleware.AuthConfig,
	errs *pkgerrors.ErrorHandler,
	metrics *observability.Collector,
	storage *Storage,
	cfg *config.Config,
	logger *zap.Logger,
) *rest.Router {
	var exposed *observability.Collector
	if cfg.EnableMetrics {
		exposed = metrics
	}
	return rest.NewRouter(commandBus, queryBus, authConfig, errs, exposed, storage.Ping, rest.RouterConfig{
		ServiceName:    serviceName,
		EnableCORS:     cfg.EnableCORS,
		AllowedOrigins: cfg.CORSOrigins,
		EnableTracing:  cfg.EnableTracing,
	}, logger)
}
