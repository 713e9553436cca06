package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"catnook-backend/application/commands/bus"
	cmdhandlers "catnook-backend/application/commands/handlers"
	querybus "catnook-backend/application/queries/bus"
	queryhandlers "catnook-backend/application/queries/handlers"
	"catnook-backend/domain/config"
	"catnook-backend/domain/core/entities"
	"catnook-backend/domain/core/valueobjects"
	"catnook-backend/domain/services"
	"catnook-backend/infrastructure/conversation"
	"catnook-backend/infrastructure/locking"
	"catnook-backend/infrastructure/messaging/logbus"
	"catnook-backend/infrastructure/persistence/memory"
	"catnook-backend/interfaces/http/rest/middleware"
	"catnook-backend/pkg/auth"
	pkgerrors "catnook-backend/pkg/errors"
	"catnook-backend/pkg/observability"
	"catnook-backend/pkg/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var start = time.Date(2026, time.May, 4, 9, 0, 0, 0, time.UTC)

type testServer struct {
	handler http.Handler
	store   *memory.Store
	tokens  *auth.JWTGenerator
	metrics *observability.Collector
}

func newTestServer(t *testing.T, ipLimit int, ready ReadinessFunc) *testServer {
	t.Helper()
	logger := zap.NewNop()
	clock := utils.NewFakeClock(start)
	rules := config.DefaultEconomyConfig()
	store := memory.NewStore()
	cats, accounts, interactions := store.Cats(), store.Accounts(), store.Interactions()
	publisher := logbus.NewPublisher(logger)
	guard := locking.NewAcquirer(locking.NewKeyedLocker(clock), locking.DefaultOptions(), logger)

	commandBus := bus.NewCommandBus(bus.LoggingMiddleware(logger))
	commands := &cmdhandlers.Set{
		RecordInteraction: cmdhandlers.NewRecordInteractionHandler(cats, interactions, guard, publisher, rules, clock, logger),
		ApplyMood:         cmdhandlers.NewApplyMoodHandler(cats, guard, publisher, rules, clock, logger),
		ProcessLogin:      cmdhandlers.NewProcessLoginHandler(accounts, guard, publisher, services.NewAbsenceBonusCalculator(rules), clock, logger),
		Adoption:          cmdhandlers.NewAdoptionHandler(cats, accounts, guard, publisher, rules, clock, logger),
		CreateCat:         cmdhandlers.NewCreateCatHandler(cats, publisher, rules, clock, logger),
		ChatRound:         cmdhandlers.NewChatRoundOrchestrator(cats, accounts, interactions, conversation.CannedEngine{}, guard, publisher, rules, clock, logger),
	}
	require.NoError(t, commands.Register(commandBus))

	queryBus := querybus.NewQueryBus()
	queries := &queryhandlers.Set{
		Interactions: queryhandlers.NewInteractionQueryHandler(interactions, cats, accounts, rules, logger),
		Cats:         queryhandlers.NewCatQueryHandler(cats, accounts, rules),
	}
	require.NoError(t, queries.Register(queryBus))

	jwtConfig := auth.JWTConfig{SigningMethod: "HS256", SecretKey: "router-secret", Issuer: "catnook-backend"}
	validator, err := auth.NewJWTValidator(jwtConfig)
	require.NoError(t, err)
	tokens, err := auth.NewJWTGenerator(auth.JWTGeneratorConfig{
		SigningMethod: "HS256",
		SecretKey:     "router-secret",
		Issuer:        "catnook-backend",
		ExpiryTime:    time.Hour,
	})
	require.NoError(t, err)

	metrics := observability.NewCollector("catnook")
	limiter := auth.NewSlidingWindowLimiter(ipLimit, time.Minute, clock)
	router := NewRouter(
		commandBus,
		queryBus,
		middleware.AuthConfig{
			Validator:   validator,
			IPLimiter:   auth.NewIPRateLimiter(limiter),
			UserLimiter: auth.NewUserRateLimiter(limiter),
		},
		pkgerrors.NewErrorHandler(logger, false),
		metrics,
		ready,
		RouterConfig{ServiceName: "catnook-test"},
		logger,
	)
	return &testServer{handler: router.Setup(), store: store, tokens: tokens, metrics: metrics}
}

func (s *testServer) account(t *testing.T, name string, yarn int64, admin bool) (valueobjects.UserID, string) {
	t.Helper()
	acct, err := entities.NewAccount(name, name+"@example.com", yarn, start)
	require.NoError(t, err)
	if admin {
		acct.PromoteToAdmin()
	}
	require.NoError(t, s.store.Accounts().Create(context.Background(), acct))

	roles := []string{"user"}
	if admin {
		roles = append(roles, auth.RoleAdmin)
	}
	token, err := s.tokens.GenerateToken(acct.ID(), name, roles)
	require.NoError(t, err)
	return acct.ID(), token
}

func (s *testServer) do(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), v), rec.Body.String())
}

func TestHealthAndReadiness(t *testing.T) {
	s := newTestServer(t, 100, nil)
	assert.Equal(t, http.StatusOK, s.do(t, http.MethodGet, "/health", "", nil).Code)
	assert.Equal(t, http.StatusOK, s.do(t, http.MethodGet, "/ready", "", nil).Code)

	down := newTestServer(t, 100, func(context.Context) error { return errors.New("table missing") })
	assert.Equal(t, http.StatusServiceUnavailable, down.do(t, http.MethodGet, "/ready", "", nil).Code)
}

func TestAPIRequiresToken(t *testing.T) {
	s := newTestServer(t, 100, nil)

	rec := s.do(t, http.MethodGet, "/api/users/me", "", nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	var resp pkgerrors.ErrorResponse
	decodeBody(t, rec, &resp)
	assert.Equal(t, "UNAUTHENTICATED_ACTOR", resp.Code)
	assert.Equal(t, "missing token", resp.Details["reason"])

	rec = s.do(t, http.MethodGet, "/api/users/me", "not-a-jwt", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestCreateCatNeedsAdmin(t *testing.T) {
	s := newTestServer(t, 100, nil)
	_, userToken := s.account(t, "johndoe", 500, false)
	_, adminToken := s.account(t, "janedoe", 1000, true)
	body := map[string]string{"name": "Miso", "skin": "tabby", "personality": "curious"}

	assert.Equal(t, http.StatusForbidden, s.do(t, http.MethodPost, "/api/admin/cats", userToken, body).Code)

	rec := s.do(t, http.MethodPost, "/api/admin/cats", adminToken, body)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var cat map[string]interface{}
	decodeBody(t, rec, &cat)
	assert.Equal(t, "Miso", cat["name"])
	assert.Equal(t, "adoptable", cat["state"])

	rec = s.do(t, http.MethodGet, "/api/cats/adoptable", userToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var adoptable []map[string]interface{}
	decodeBody(t, rec, &adoptable)
	assert.Len(t, adoptable, 1)
}

func TestAdoptRecordAndReadBack(t *testing.T) {
	s := newTestServer(t, 100, nil)
	_, token := s.account(t, "johndoe", 500, false)
	_, adminToken := s.account(t, "janedoe", 1000, true)

	rec := s.do(t, http.MethodPost, "/api/admin/cats", adminToken, map[string]string{"name": "Miso", "skin": "tabby"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var cat struct {
		ID int64 `json:"id"`
	}
	decodeBody(t, rec, &cat)
	catPath := "/api/cats/" + valueobjects.CatID(cat.ID).String()

	rec = s.do(t, http.MethodPost, catPath+"/adopt", token, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = s.do(t, http.MethodPost, "/api/interactions/"+valueobjects.CatID(cat.ID).String(), token,
		map[string]string{"interactionType": "juggle"})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	var rejected pkgerrors.ErrorResponse
	decodeBody(t, rec, &rejected)
	assert.Equal(t, "INVALID_INTERACTION_KIND", rejected.Code)

	rec = s.do(t, http.MethodPost, "/api/interactions/"+valueobjects.CatID(cat.ID).String(), token,
		map[string]string{"interactionType": "feed", "description": "tuna"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var recorded struct {
		ID          int64  `json:"id"`
		Cost        int64  `json:"cost"`
		CurrentYarn int64  `json:"currentYarn"`
		Kind        string `json:"interactionType"`
	}
	decodeBody(t, rec, &recorded)
	assert.Equal(t, int64(20), recorded.Cost)
	assert.Equal(t, int64(480), recorded.CurrentYarn)
	assert.Equal(t, "feed", recorded.Kind)

	rec = s.do(t, http.MethodGet, "/api/interactions/last/"+valueobjects.CatID(cat.ID).String()+"?n=5", token, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var history []map[string]interface{}
	decodeBody(t, rec, &history)
	require.Len(t, history, 1)
	assert.Equal(t, "feed", history[0]["interactionType"])

	rec = s.do(t, http.MethodGet, "/api/interactions/"+valueobjects.InteractionID(recorded.ID).String(), token, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var view map[string]interface{}
	decodeBody(t, rec, &view)
	assert.Equal(t, "Miso", view["catName"])
	assert.Equal(t, "johndoe", view["username"])

	rec = s.do(t, http.MethodGet, "/api/users/me", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var me map[string]interface{}
	decodeBody(t, rec, &me)
	assert.Equal(t, 480.0, me["yarn"])

	rec = s.do(t, http.MethodGet, "/api/users/me/cats", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var mine []map[string]interface{}
	decodeBody(t, rec, &mine)
	assert.Len(t, mine, 1)
}

func TestMoodAndChat(t *testing.T) {
	s := newTestServer(t, 100, nil)
	_, token := s.account(t, "johndoe", 500, false)
	_, adminToken := s.account(t, "janedoe", 1000, true)

	rec := s.do(t, http.MethodPost, "/api/admin/cats", adminToken, map[string]string{"name": "Miso", "skin": "tabby"})
	require.Equal(t, http.StatusCreated, rec.Code)
	var cat struct {
		ID int64 `json:"id"`
	}
	decodeBody(t, rec, &cat)
	catPath := "/api/cats/" + valueobjects.CatID(cat.ID).String()
	require.Equal(t, http.StatusOK, s.do(t, http.MethodPost, catPath+"/adopt", token, nil).Code)

	rec = s.do(t, http.MethodPost, catPath+"/mood", token, map[string]int{"mood": 3, "patience": 4})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var mood map[string]interface{}
	decodeBody(t, rec, &mood)
	assert.Equal(t, 3.0, mood["mood"])
	assert.Equal(t, 4.0, mood["patience"])

	// mood and patience are both required
	rec = s.do(t, http.MethodPost, catPath+"/mood", token, map[string]int{"mood": 3})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodPost, catPath+"/chat", token, map[string]string{"message": "hello", "interactionType": "play"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var chat struct {
		Reply       string                 `json:"reply"`
		Cat         map[string]interface{} `json:"cat"`
		Interaction map[string]interface{} `json:"interaction"`
	}
	decodeBody(t, rec, &chat)
	assert.NotEmpty(t, chat.Reply)
	assert.Equal(t, 3.0, chat.Cat["mood"])
	require.NotNil(t, chat.Interaction)
	assert.Equal(t, 490.0, chat.Interaction["currentYarn"])

	require.Equal(t, http.StatusOK, s.do(t, http.MethodPost, catPath+"/abandon", token, nil).Code)
	rec = s.do(t, http.MethodGet, catPath, token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var after map[string]interface{}
	decodeBody(t, rec, &after)
	assert.Nil(t, after["ownerId"])
}

func TestBadRequests(t *testing.T) {
	s := newTestServer(t, 100, nil)
	_, token := s.account(t, "johndoe", 500, false)

	tests := []struct {
		name   string
		method string
		path   string
		body   interface{}
		status int
		code   string
	}{
		{"non-numeric cat", http.MethodGet, "/api/cats/abc", nil, http.StatusBadRequest, "INVALID_INPUT"},
		{"unknown cat", http.MethodGet, "/api/cats/999", nil, http.StatusNotFound, "CAT_NOT_FOUND"},
		{"unknown field", http.MethodPost, "/api/interactions/1", map[string]string{"kind": "feed"}, http.StatusBadRequest, "INVALID_INPUT"},
		{"empty body", http.MethodPost, "/api/interactions/1", nil, http.StatusBadRequest, "INVALID_INPUT"},
		{"unknown cat for interaction", http.MethodPost, "/api/interactions/1", map[string]string{"interactionType": "feed"}, http.StatusNotFound, "CAT_NOT_FOUND"},
		{"bad filter", http.MethodGet, "/api/interactions?catId=-4", nil, http.StatusBadRequest, "INVALID_INPUT"},
		{"unknown interaction", http.MethodGet, "/api/interactions/77", nil, http.StatusNotFound, "INTERACTION_NOT_FOUND"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := s.do(t, tt.method, tt.path, token, tt.body)
			require.Equal(t, tt.status, rec.Code, rec.Body.String())
			var resp pkgerrors.ErrorResponse
			decodeBody(t, rec, &resp)
			assert.Equal(t, tt.code, resp.Code)
		})
	}
}

func TestLoginAndRateLimit(t *testing.T) {
	s := newTestServer(t, 2, nil)
	_, token := s.account(t, "johndoe", 500, false)

	rec := s.do(t, http.MethodPost, "/api/users/me/login", token, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var login map[string]interface{}
	decodeBody(t, rec, &login)
	assert.Equal(t, 0.0, login["bonusAwarded"])
	assert.Nil(t, login["previousLoginDate"])

	assert.Equal(t, http.StatusOK, s.do(t, http.MethodGet, "/api/users/me", token, nil).Code)
	assert.Equal(t, http.StatusTooManyRequests, s.do(t, http.MethodGet, "/api/users/me", token, nil).Code)
}

func TestMetricsEndpoint(t *testing.T) {
	s := newTestServer(t, 100, nil)
	s.do(t, http.MethodGet, "/health", "", nil)

	rec := s.do(t, http.MethodGet, "/metrics", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `catnook_http_requests_total{method="GET",route="/health",status="200"} 1`)
}
