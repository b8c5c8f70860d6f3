package auth

import (
	"strings"

	"github.com/taskport/taskport/config"
)

// AuthMode represents the authentication mode
type AuthMode string

const (
	AuthModeNone  AuthMode = "none"
	AuthModeOAuth AuthMode = "oauth"
)

// LocalUser is the user id attributed to requests when auth is disabled
// and to imports triggered by the drop-directory watcher.
const LocalUser = "local"

// GetAuthMode returns the current authentication mode
func GetAuthMode() AuthMode {
	cfg := config.Get()
	if strings.ToLower(cfg.AuthMode) == "oauth" {
		return AuthModeOAuth
	}
	return AuthModeNone
}

// IsAuthRequired checks if any auth is required
func IsAuthRequired() bool {
	return GetAuthMode() != AuthModeNone
}

// VerifyExpectedUsername verifies the username matches the expected username
func VerifyExpectedUsername(username string) bool {
	cfg := config.Get()

	if cfg.OAuthExpectedUsername == "" {
		return true // No expected username configured, accept any
	}

	return username == cfg.OAuthExpectedUsername
}
