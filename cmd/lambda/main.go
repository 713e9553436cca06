package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"catnook-backend/infrastructure/config"
	"catnook-backend/infrastructure/di"
	"catnook-backend/interfaces/http/rest/middleware"
	"catnook-backend/pkg/observability"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	chiadapter "github.com/awslabs/aws-lambda-go-api-proxy/chi"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

var (
	// chiLambda wraps the Chi router for AWS Lambda integration
	chiLambda *chiadapter.ChiLambdaV2

	container *di.Container

	coldStart     = true
	coldStartTime time.Time
)

// gatewayHeaders are set only from the authorizer context; a client
// sending them directly must not be able to pick its identity
var gatewayHeaders = []string{
	middleware.HeaderGatewayAuthorized,
	middleware.HeaderUserID,
	middleware.HeaderUsername,
	middleware.HeaderUserRoles,
}

// setup runs once per cold start, before the first invocation
func setup(ctx context.Context) error {
	coldStartTime = time.Now()

	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	if _, err := observability.InitTracing(ctx, observability.TracingConfig{
		Enabled:     cfg.EnableTracing,
		Endpoint:    cfg.OTLPEndpoint,
		ServiceName: "catnook-backend",
		Environment: cfg.Environment,
	}); err != nil {
		return fmt.Errorf("initialize tracing: %w", err)
	}

	// the cleanup is never called; the runtime freezes and reaps the process
	container, _, err = di.InitializeContainer(ctx, cfg)
	if err != nil {
		return fmt.Errorf("initialize container: %w", err)
	}

	handler := container.Router.Setup()
	chiRouter, ok := handler.(*chi.Mux)
	if !ok {
		return fmt.Errorf("router is %T, not *chi.Mux", handler)
	}
	chiLambda = chiadapter.NewV2(chiRouter)

	container.Logger.Info("Lambda cold start completed",
		zap.Duration("duration", time.Since(coldStartTime)))
	return nil
}

// Handler is the Lambda function handler
func Handler(ctx context.Context, req events.APIGatewayV2HTTPRequest) (events.APIGatewayV2HTTPResponse, error) {
	req.Headers = withGatewayIdentity(req)

	resp, err := chiLambda.ProxyWithContextV2(ctx, req)
	if resp.Headers == nil {
		resp.Headers = make(map[string]string)
	}
	if coldStart {
		resp.Headers["X-Cold-Start"] = "true"
		coldStart = false
	}
	if req.RequestContext.RequestID != "" {
		resp.Headers["X-Request-ID"] = req.RequestContext.RequestID
	}

	if resp.StatusCode >= http.StatusInternalServerError {
		container.Logger.Error("Lambda error response",
			zap.String("method", req.RequestContext.HTTP.Method),
			zap.String("path", req.RequestContext.HTTP.Path),
			zap.String("request_id", req.RequestContext.RequestID),
			zap.Int("status_code", resp.StatusCode),
		)
	}
	return resp, err
}

// withGatewayIdentity drops client-sent identity headers and, when the API
// Gateway JWT authorizer already validated the caller, replaces them with
// its claims
func withGatewayIdentity(req events.APIGatewayV2HTTPRequest) map[string]string {
	headers := make(map[string]string, len(req.Headers)+len(gatewayHeaders))
	for k, v := range req.Headers {
		if isGatewayHeader(k) {
			continue
		}
		headers[k] = v
	}

	authorizer := req.RequestContext.Authorizer
	if authorizer == nil || authorizer.JWT == nil {
		return headers
	}
	claims := authorizer.JWT.Claims
	if claims["sub"] == "" {
		return headers
	}
	headers[middleware.HeaderGatewayAuthorized] = "true"
	headers[middleware.HeaderUserID] = claims["sub"]
	headers[middleware.HeaderUsername] = claims["username"]
	headers[middleware.HeaderUserRoles] = gatewayRoles(claims["roles"])
	return headers
}

// gatewayRoles flattens an array claim, which the authorizer renders as
// "[admin user]", into the comma list the middleware reads
func gatewayRoles(raw string) string {
	roles := strings.FieldsFunc(strings.Trim(raw, "[]"), func(r rune) bool {
		return r == ' ' || r == ','
	})
	return strings.Join(roles, ",")
}

func isGatewayHeader(name string) bool {
	for _, h := range gatewayHeaders {
		if strings.EqualFold(name, h) {
			return true
		}
	}
	return false
}

func main() {
	if err := setup(context.Background()); err != nil {
		log.Fatalf("Lambda cold start failed: %v", err)
	}
	lambda.Start(Handler)
}
