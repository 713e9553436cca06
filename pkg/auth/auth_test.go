package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"catnook-backend/domain/core/valueobjects"
	"catnook-backend/pkg/utils"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func newPair(t *testing.T, expiry time.Duration) (*JWTGenerator, *JWTValidator) {
	t.Helper()
	gen, err := NewJWTGenerator(JWTGeneratorConfig{
		SigningMethod: "HS256",
		SecretKey:     testSecret,
		Issuer:        "catnook-backend",
		Audience:      []string{"catnook-api"},
		ExpiryTime:    expiry,
	})
	require.NoError(t, err)
	val, err := NewJWTValidator(JWTConfig{
		SigningMethod: "HS256",
		SecretKey:     testSecret,
		Issuer:        "catnook-backend",
		Audience:      []string{"catnook-api"},
	})
	require.NoError(t, err)
	return gen, val
}

func TestJWTRoundTrip(t *testing.T) {
	gen, val := newPair(t, time.Hour)

	token, err := gen.GenerateToken(42, "johndoe", []string{"user"})
	require.NoError(t, err)

	claims, err := val.ValidateToken("Bearer " + token)
	require.NoError(t, err)
	actor, err := claims.Actor()
	require.NoError(t, err)
	assert.Equal(t, valueobjects.UserID(42), actor)
	assert.Equal(t, "johndoe", claims.Username)
	assert.Equal(t, []string{"user"}, claims.Roles)
}

func TestJWTValidationFailures(t *testing.T) {
	_, val := newPair(t, time.Hour)

	sign := func(claims *Claims, secret string) string {
		token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
		require.NoError(t, err)
		return token
	}
	valid := func() *Claims {
		return &Claims{
			UserID: "7",
			RegisteredClaims: jwt.RegisteredClaims{
				Issuer:    "catnook-backend",
				Audience:  jwt.ClaimStrings{"catnook-api"},
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			},
		}
	}

	t.Run("missing", func(t *testing.T) {
		_, err := val.ValidateToken("  ")
		assert.ErrorIs(t, err, ErrMissingToken)
	})

	t.Run("expired", func(t *testing.T) {
		c := valid()
		c.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-time.Minute))
		_, err := val.ValidateToken(sign(c, testSecret))
		assert.ErrorIs(t, err, ErrExpiredToken)
	})

	t.Run("wrong secret", func(t *testing.T) {
		_, err := val.ValidateToken(sign(valid(), "other"))
		assert.ErrorIs(t, err, ErrInvalidSignature)
	})

	t.Run("wrong audience", func(t *testing.T) {
		c := valid()
		c.Audience = jwt.ClaimStrings{"someone-else"}
		_, err := val.ValidateToken(sign(c, testSecret))
		assert.ErrorIs(t, err, ErrInvalidClaims)
	})

	t.Run("non numeric subject", func(t *testing.T) {
		c := valid()
		c.UserID = "johndoe"
		_, err := val.ValidateToken(sign(c, testSecret))
		assert.ErrorIs(t, err, ErrInvalidClaims)
	})
}

func TestUserContext(t *testing.T) {
	_, err := GetUserFromContext(context.Background())
	assert.Error(t, err)

	ctx := SetUserInContext(context.Background(), &UserContext{UserID: 3, Roles: []string{RoleAdmin}})
	user, err := GetUserFromContext(ctx)
	require.NoError(t, err)
	assert.True(t, user.HasRole(RoleAdmin))
	assert.False(t, user.HasRole("moderator"))
}

func TestSlidingWindowLimiter(t *testing.T) {
	clock := utils.NewFakeClock(time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC))
	limiter := NewSlidingWindowLimiter(2, time.Minute, clock)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		ok, err := limiter.Allow(ctx, "k")
		require.NoError(t, err)
		assert.True(t, ok)
	}
	ok, _ := limiter.Allow(ctx, "k")
	assert.False(t, ok, "third request in the window")

	ok, _ = limiter.Allow(ctx, "other")
	assert.True(t, ok, "keys are independent")

	clock.Advance(61 * time.Second)
	ok, _ = limiter.Allow(ctx, "k")
	assert.True(t, ok, "window slid past the old requests")

	require.NoError(t, limiter.Reset(ctx, "k"))
}

func TestPrefixedLimitersShareBackend(t *testing.T) {
	clock := utils.NewFakeClock(time.Now())
	backend := NewSlidingWindowLimiter(1, time.Minute, clock)
	ip := NewIPRateLimiter(backend)
	user := NewUserRateLimiter(backend)
	ctx := context.Background()

	ok, _ := ip.Allow(ctx, "7")
	assert.True(t, ok)
	ok, _ = user.Allow(ctx, "7")
	assert.True(t, ok, "ip:7 and user:7 are different keys")
	ok, _ = ip.Allow(ctx, "7")
	assert.False(t, ok)
}

type mockCounterAPI struct {
	mock.Mock
}

func (m *mockCounterAPI) UpdateItem(ctx context.Context, in *dynamodb.UpdateItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error) {
	args := m.Called(ctx, in)
	out, _ := args.Get(0).(*dynamodb.UpdateItemOutput)
	return out, args.Error(1)
}

func (m *mockCounterAPI) DeleteItem(ctx context.Context, in *dynamodb.DeleteItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error) {
	args := m.Called(ctx, in)
	out, _ := args.Get(0).(*dynamodb.DeleteItemOutput)
	return out, args.Error(1)
}

func TestDistributedRateLimiter(t *testing.T) {
	clock := utils.NewFakeClock(time.Date(2024, 5, 1, 12, 0, 30, 0, time.UTC))
	ctx := context.Background()

	t.Run("under the limit", func(t *testing.T) {
		api := new(mockCounterAPI)
		api.On("UpdateItem", mock.Anything, mock.MatchedBy(func(in *dynamodb.UpdateItemInput) bool {
			pk := in.Key["PK"].(*types.AttributeValueMemberS).Value
			return pk == "RATELIMIT#ip:1.2.3.4#1714564800"
		})).Return(&dynamodb.UpdateItemOutput{
			Attributes: map[string]types.AttributeValue{"Count": &types.AttributeValueMemberN{Value: "3"}},
		}, nil)

		limiter := NewDistributedRateLimiter(api, "catnook-test", 5, time.Minute, clock)
		ok, err := limiter.Allow(ctx, "ip:1.2.3.4")
		require.NoError(t, err)
		assert.True(t, ok)
		api.AssertExpectations(t)
	})

	t.Run("limit reached", func(t *testing.T) {
		api := new(mockCounterAPI)
		api.On("UpdateItem", mock.Anything, mock.Anything).Return(nil, &types.ConditionalCheckFailedException{})

		limiter := NewDistributedRateLimiter(api, "catnook-test", 5, time.Minute, clock)
		ok, err := limiter.Allow(ctx, "ip:1.2.3.4")
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("store failure fails open", func(t *testing.T) {
		api := new(mockCounterAPI)
		api.On("UpdateItem", mock.Anything, mock.Anything).Return(nil, errors.New("throttled"))

		limiter := NewDistributedRateLimiter(api, "catnook-test", 5, time.Minute, clock)
		ok, err := limiter.Allow(ctx, "ip:1.2.3.4")
		assert.Error(t, err)
		assert.True(t, ok)
	})
}
