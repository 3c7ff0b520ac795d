package config

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"strconv"
	"strings"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
	EnvTesting     = "testing"

	// MinTokenLength rejects obviously truncated credentials.
	MinTokenLength = 50
)

// ConfigurationError aborts startup before any event is processed.
type ConfigurationError struct {
	Field  string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration error: %s: %s", e.Field, e.Reason)
}

// Security is immutable after LoadSecurity returns.
type Security struct {
	token       string
	ownerID     string
	environment string
	debug       bool

	// Warnings collected while validating, logged by the caller once logging is up.
	Warnings []string
}

// LookupFunc matches os.LookupEnv.
type LookupFunc func(key string) (string, bool)

// LoadSecurityFromEnv validates the process environment.
func LoadSecurityFromEnv() (*Security, error) {
	return LoadSecurity(os.LookupEnv)
}

func LoadSecurity(lookup LookupFunc) (*Security, error) {
	s := &Security{}

	token, _ := lookup("DISCORD_BOT_TOKEN")
	if token == "" {
		token, _ = lookup("DISCORD_TOKEN")
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, &ConfigurationError{Field: "DISCORD_BOT_TOKEN", Reason: "missing Discord bot token"}
	}
	if len(token) < MinTokenLength {
		return nil, &ConfigurationError{Field: "DISCORD_BOT_TOKEN", Reason: "token appears to be invalid (too short)"}
	}
	s.token = token

	if raw, ok := lookup("BOT_OWNER_ID"); ok && strings.TrimSpace(raw) != "" {
		id, err := strconv.ParseUint(strings.TrimSpace(raw), 10, 64)
		if err != nil || id == 0 {
			s.Warnings = append(s.Warnings, "invalid BOT_OWNER_ID format (must be a number), owner commands disabled")
		} else {
			s.ownerID = strconv.FormatUint(id, 10)
		}
	} else {
		s.Warnings = append(s.Warnings, "no bot owner ID set, owner commands disabled")
	}

	env, _ := lookup("ENVIRONMENT")
	env = strings.ToLower(strings.TrimSpace(env))
	switch env {
	case "":
		env = EnvDevelopment
	case EnvDevelopment, EnvProduction, EnvTesting:
	default:
		s.Warnings = append(s.Warnings, fmt.Sprintf("unknown environment %q, using %q", env, EnvDevelopment))
		env = EnvDevelopment
	}
	s.environment = env

	debug, ok := lookup("DEBUG_MODE")
	if !ok {
		debug = "true"
	}
	switch strings.ToLower(strings.TrimSpace(debug)) {
	case "true", "1", "yes", "on":
		s.debug = true
	}
	if s.debug && s.environment == EnvProduction {
		s.Warnings = append(s.Warnings, "debug mode enabled in production")
	}

	return s, nil
}

// Token is the raw credential. Never log it.
func (s *Security) Token() string { return s.token }

// TokenHash is safe to log.
func (s *Security) TokenHash() string {
	sum := sha256.Sum256([]byte(s.token))
	return hex.EncodeToString(sum[:])[:8]
}

// OwnerID is empty when no owner is configured.
func (s *Security) OwnerID() string { return s.ownerID }

func (s *Security) HasOwner() bool { return s.ownerID != "" }

func (s *Security) Environment() string { return s.environment }

func (s *Security) Debug() bool { return s.debug }

func (s *Security) IsProduction() bool { return s.environment == EnvProduction }

func (s *Security) ShouldLogDebug() bool {
	return s.debug && !s.IsProduction()
}
