package api

import (
	"context"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/taskport/taskport/auth"
	"github.com/taskport/taskport/log"
)

// contextKeyUserID is the gin context key carrying the authenticated user
const contextKeyUserID = "userID"

// AuthMiddleware returns a Gin middleware that enforces authentication
// based on the configured auth mode (none, oauth) and stores the user id
// in the request context.
func AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		// Single-user deployments run without auth
		if !auth.IsAuthRequired() {
			c.Set(contextKeyUserID, auth.LocalUser)
			c.Next()
			return
		}

		if !validateOAuthToken(c) {
			RespondUnauthorized(c, "Unauthorized")
			c.Abort()
			return
		}

		c.Next()
	}
}

// currentUser returns the authenticated user id for a request
func currentUser(c *gin.Context) string {
	if v, ok := c.Get(contextKeyUserID); ok {
		if s, ok := v.(string); ok && s != "" {
			return s
		}
	}
	return auth.LocalUser
}

// validateOAuthToken validates the OAuth access token from cookie or header
func validateOAuthToken(c *gin.Context) bool {
	// Get access token from Authorization header or cookie
	accessToken := c.Request.Header.Get("Authorization")
	if strings.HasPrefix(accessToken, "Bearer ") {
		accessToken = strings.TrimPrefix(accessToken, "Bearer ")
	} else {
		var err error
		accessToken, err = c.Cookie("access_token")
		if err != nil || accessToken == "" {
			return false
		}
	}

	provider, err := auth.GetOIDCProvider()
	if err != nil {
		log.Error().Err(err).Msg("failed to get OIDC provider for token validation")
		return false
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	idToken, err := provider.VerifyIDToken(ctx, accessToken)
	if err != nil {
		log.Debug().Err(err).Msg("OAuth token validation failed")
		return false
	}

	var claims struct {
		Sub               string `json:"sub"`
		Email             string `json:"email"`
		PreferredUsername string `json:"preferred_username"`
	}
	if err := idToken.Claims(&claims); err != nil {
		log.Error().Err(err).Msg("failed to parse token claims")
		return false
	}

	// Determine username
	username := claims.PreferredUsername
	if username == "" && claims.Email != "" {
		parts := strings.Split(claims.Email, "@")
		username = parts[0]
	}
	if username == "" {
		username = claims.Sub
	}

	if !auth.VerifyExpectedUsername(username) {
		log.Warn().Str("username", username).Msg("OAuth token has unauthorized username")
		return false
	}

	c.Set(contextKeyUserID, username)

	return true
}
