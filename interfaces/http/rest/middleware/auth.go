package middleware

import (
	"errors"
	"net"
	"net/http"
	"strings"

	"catnook-backend/domain/core/valueobjects"
	"catnook-backend/pkg/auth"
	pkgerrors "catnook-backend/pkg/errors"

	"go.uber.org/zap"
)

// Headers the Lambda entrypoint fills from the API Gateway authorizer. They
// are only honoured when AuthConfig.TrustGateway is set, and the entrypoint
// strips any client-sent copies first.
const (
	HeaderGatewayAuthorized = "X-API-Gateway-Authorized"
	HeaderUserID            = "X-User-ID"
	HeaderUsername          = "X-Username"
	HeaderUserRoles         = "X-User-Roles"
)

// AuthConfig wires the authentication middleware
type AuthConfig struct {
	Validator    *auth.JWTValidator
	IPLimiter    auth.RateLimiter
	UserLimiter  auth.RateLimiter
	TrustGateway bool
	Errors       *pkgerrors.ErrorHandler
	Logger       *zap.Logger
}

// AuthenticateWithConfig resolves the actor of every request: from a bearer
// token, or from the gateway headers when running behind API Gateway.
// Requests from one address or one user beyond the limiters' budget get 429.
func AuthenticateWithConfig(cfg AuthConfig) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			clientIP := getClientIP(r)

			allowed, err := cfg.IPLimiter.Allow(r.Context(), clientIP)
			if err != nil {
				cfg.Logger.Error("Rate limiter error", zap.Error(err))
				cfg.Errors.Handle(w, r, err)
				return
			}
			if !allowed {
				cfg.Errors.HandleStatus(w, r, http.StatusTooManyRequests, "Rate limit exceeded")
				return
			}

			var user *auth.UserContext
			if cfg.TrustGateway && r.Header.Get(HeaderGatewayAuthorized) == "true" {
				user, err = userFromGateway(r)
			} else {
				user, err = userFromToken(cfg.Validator, r)
			}
			if err != nil {
				cfg.Logger.Warn("Authentication failed",
					zap.Error(err),
					zap.String("ip", clientIP),
					zap.String("path", r.URL.Path))
				cfg.Errors.Handle(w, r, pkgerrors.ErrUnauthenticated.With("reason", authFailureReason(err)))
				return
			}

			allowed, err = cfg.UserLimiter.Allow(r.Context(), user.UserID.String())
			if err != nil {
				cfg.Logger.Error("User rate limiter error", zap.Error(err))
				cfg.Errors.Handle(w, r, err)
				return
			}
			if !allowed {
				cfg.Errors.HandleStatus(w, r, http.StatusTooManyRequests, "User rate limit exceeded")
				return
			}

			cfg.Logger.Debug("Request authenticated",
				zap.Int64("userID", int64(user.UserID)),
				zap.String("path", r.URL.Path),
				zap.String("method", r.Method))

			next.ServeHTTP(w, r.WithContext(auth.SetUserInContext(r.Context(), user)))
		})
	}
}

func userFromToken(validator *auth.JWTValidator, r *http.Request) (*auth.UserContext, error) {
	token := extractToken(r)
	if token == "" {
		return nil, auth.ErrMissingToken
	}
	claims, err := validator.ValidateToken(token)
	if err != nil {
		return nil, err
	}
	id, err := claims.Actor()
	if err != nil {
		return nil, err
	}
	return &auth.UserContext{UserID: id, Username: claims.Username, Roles: claims.Roles}, nil
}

func userFromGateway(r *http.Request) (*auth.UserContext, error) {
	id, err := valueobjects.ParseUserID(r.Header.Get(HeaderUserID))
	if err != nil {
		return nil, auth.ErrInvalidClaims
	}
	var roles []string
	if raw := r.Header.Get(HeaderUserRoles); raw != "" {
		for _, role := range strings.Split(raw, ",") {
			if role = strings.TrimSpace(role); role != "" {
				roles = append(roles, role)
			}
		}
	}
	return &auth.UserContext{UserID: id, Username: r.Header.Get(HeaderUsername), Roles: roles}, nil
}

func authFailureReason(err error) string {
	switch {
	case errors.Is(err, auth.ErrMissingToken):
		return "missing token"
	case errors.Is(err, auth.ErrExpiredToken):
		return "token has expired"
	case errors.Is(err, auth.ErrInvalidSignature):
		return "invalid token signature"
	default:
		return "invalid token"
	}
}

// extractToken reads the bearer token from the Authorization header
func extractToken(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return ""
	}
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) == 2 && strings.EqualFold(parts[0], "bearer") {
		return strings.TrimSpace(parts[1])
	}
	return ""
}

// getClientIP prefers the address chi's RealIP middleware resolved
func getClientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// RequireRole rejects actors that carry none of roles
func RequireRole(errs *pkgerrors.ErrorHandler, roles ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, err := auth.GetUserFromContext(r.Context())
			if err != nil {
				errs.Handle(w, r, pkgerrors.ErrUnauthenticated)
				return
			}
			for _, role := range roles {
				if user.HasRole(role) {
					next.ServeHTTP(w, r)
					return
				}
			}
			errs.Handle(w, r, pkgerrors.NewForbiddenError("insufficient permissions"))
		})
	}
}
