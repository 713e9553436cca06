package main

import (
	"testing"

	"catnook-backend/interfaces/http/rest/middleware"

	"github.com/aws/aws-lambda-go/events"
	"github.com/stretchr/testify/assert"
)

func TestWithGatewayIdentityStripsClientHeaders(t *testing.T) {
	req := events.APIGatewayV2HTTPRequest{
		Headers: map[string]string{
			"content-type":             "application/json",
			"x-user-id":                "1",
			"X-API-Gateway-Authorized": "true",
		},
	}

	headers := withGatewayIdentity(req)
	assert.Equal(t, map[string]string{"content-type": "application/json"}, headers)
}

func TestWithGatewayIdentityUsesAuthorizerClaims(t *testing.T) {
	req := events.APIGatewayV2HTTPRequest{
		Headers: map[string]string{"x-user-id": "1"},
		RequestContext: events.APIGatewayV2HTTPRequestContext{
			Authorizer: &events.APIGatewayV2HTTPRequestContextAuthorizerDescription{
				JWT: &events.APIGatewayV2HTTPRequestContextAuthorizerJWTDescription{
					Claims: map[string]string{"sub": "42", "username": "janedoe", "roles": "[user admin]"},
				},
			},
		},
	}

	headers := withGatewayIdentity(req)
	assert.Equal(t, "true", headers[middleware.HeaderGatewayAuthorized])
	assert.Equal(t, "42", headers[middleware.HeaderUserID])
	assert.Equal(t, "janedoe", headers[middleware.HeaderUsername])
	assert.Equal(t, "user,admin", headers[middleware.HeaderUserRoles])
	_, leaked := headers["x-user-id"]
	assert.False(t, leaked)
}

func TestGatewayRoles(t *testing.T) {
	assert.Equal(t, "admin", gatewayRoles("admin"))
	assert.Equal(t, "a,b", gatewayRoles("[a, b]"))
	assert.Equal(t, "", gatewayRoles("[]"))
}
