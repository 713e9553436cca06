package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"catnook-backend/pkg/auth"
	pkgerrors "catnook-backend/pkg/errors"
	"catnook-backend/pkg/utils"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func newAuthConfig(t *testing.T, trustGateway bool) (AuthConfig, *auth.JWTGenerator) {
	t.Helper()
	validator, err := auth.NewJWTValidator(auth.JWTConfig{SigningMethod: "HS256", SecretKey: "mw-secret"})
	require.NoError(t, err)
	gen, err := auth.NewJWTGenerator(auth.JWTGeneratorConfig{SigningMethod: "HS256", SecretKey: "mw-secret", ExpiryTime: time.Hour})
	require.NoError(t, err)

	limiter := auth.NewSlidingWindowLimiter(100, time.Minute, utils.NewFakeClock(time.Now()))
	return AuthConfig{
		Validator:    validator,
		IPLimiter:    auth.NewIPRateLimiter(limiter),
		UserLimiter:  auth.NewUserRateLimiter(limiter),
		TrustGateway: trustGateway,
		Errors:       pkgerrors.NewErrorHandler(zap.NewNop(), false),
		Logger:       zap.NewNop(),
	}, gen
}

// whoami echoes the resolved actor
func whoami(w http.ResponseWriter, r *http.Request) {
	user, err := auth.GetUserFromContext(r.Context())
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	_ = json.NewEncoder(w).Encode(user)
}

func gatewayRequest() *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/api/users/me", nil)
	req.Header.Set(HeaderGatewayAuthorized, "true")
	req.Header.Set(HeaderUserID, "9")
	req.Header.Set(HeaderUsername, "janedoe")
	req.Header.Set(HeaderUserRoles, "user, admin")
	return req
}

func TestBearerToken(t *testing.T) {
	cfg, gen := newAuthConfig(t, false)
	token, err := gen.GenerateToken(3, "johndoe", []string{"user"})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/api/users/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	AuthenticateWithConfig(cfg)(http.HandlerFunc(whoami)).ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var user auth.UserContext
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &user))
	assert.Equal(t, "johndoe", user.Username)
	assert.EqualValues(t, 3, user.UserID)
}

func TestGatewayHeadersIgnoredUnlessTrusted(t *testing.T) {
	cfg, _ := newAuthConfig(t, false)
	rec := httptest.NewRecorder()
	AuthenticateWithConfig(cfg)(http.HandlerFunc(whoami)).ServeHTTP(rec, gatewayRequest())
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	cfg.TrustGateway = true
	rec = httptest.NewRecorder()
	AuthenticateWithConfig(cfg)(http.HandlerFunc(whoami)).ServeHTTP(rec, gatewayRequest())
	require.Equal(t, http.StatusOK, rec.Code)

	var user auth.UserContext
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &user))
	assert.EqualValues(t, 9, user.UserID)
	assert.Equal(t, []string{"user", "admin"}, user.Roles)
}

func TestRequireRole(t *testing.T) {
	cfg, _ := newAuthConfig(t, true)
	handler := AuthenticateWithConfig(cfg)(RequireRole(cfg.Errors, auth.RoleAdmin)(http.HandlerFunc(whoami)))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, gatewayRequest())
	assert.Equal(t, http.StatusOK, rec.Code)

	req := gatewayRequest()
	req.Header.Set(HeaderUserRoles, "user")
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusForbidden, rec.Code)

	var resp pkgerrors.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, string(pkgerrors.ErrorTypeForbidden), resp.Type)
}

func TestExtractToken(t *testing.T) {
	tests := []struct {
		header string
		want   string
	}{
		{"", ""},
		{"Bearer abc", "abc"},
		{"bearer  abc ", "abc"},
		{"Basic abc", ""},
		{"abc", ""},
	}
	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if tt.header != "" {
			req.Header.Set("Authorization", tt.header)
		}
		assert.Equal(t, tt.want, extractToken(req), tt.header)
	}
}

func TestLoggerLevels(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	r := chi.NewRouter()
	r.Use(Logger(zap.New(core)))
	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) })
	r.Get("/api/cats/{catID}", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusNotFound) })

	for _, path := range []string{"/health", "/api/cats/7"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
	}

	entries := logs.All()
	require.Len(t, entries, 2)
	assert.Equal(t, zapcore.DebugLevel, entries[0].Level)
	assert.Equal(t, zapcore.WarnLevel, entries[1].Level)
	assert.Equal(t, "/api/cats/{catID}", entries[1].ContextMap()["route"])
}
