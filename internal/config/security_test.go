package config

import (
	"errors"
	"strings"
	"testing"
)

func envOf(m map[string]string) LookupFunc {
	return func(key string) (string, bool) {
		v, ok := m[key]
		return v, ok
	}
}

var validToken = strings.Repeat("x", MinTokenLength)

func TestLoadSecurityMissingToken(t *testing.T) {
	_, err := LoadSecurity(envOf(map[string]string{}))
	var cfgErr *ConfigurationError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("expected ConfigurationError, got %v", err)
	}
}

func TestLoadSecurityShortToken(t *testing.T) {
	_, err := LoadSecurity(envOf(map[string]string{"DISCORD_BOT_TOKEN": "short"}))
	var cfgErr *ConfigurationError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("expected ConfigurationError, got %v", err)
	}
	if !strings.Contains(cfgErr.Error(), "too short") {
		t.Errorf("unexpected message: %s", cfgErr.Error())
	}
}

func TestLoadSecurityFallbackTokenVariable(t *testing.T) {
	s, err := LoadSecurity(envOf(map[string]string{"DISCORD_TOKEN": validToken}))
	if err != nil {
		t.Fatal(err)
	}
	if s.Token() != validToken {
		t.Errorf("token not picked up from DISCORD_TOKEN")
	}
}

func TestLoadSecurityDefaults(t *testing.T) {
	s, err := LoadSecurity(envOf(map[string]string{"DISCORD_BOT_TOKEN": validToken}))
	if err != nil {
		t.Fatal(err)
	}
	if s.Environment() != EnvDevelopment {
		t.Errorf("environment = %q", s.Environment())
	}
	if !s.Debug() {
		t.Error("debug should default to true")
	}
	if s.HasOwner() {
		t.Error("owner should be absent")
	}
	if len(s.Warnings) == 0 {
		t.Error("expected a warning about the missing owner")
	}
}

func TestLoadSecurityOwnerAndEnvironment(t *testing.T) {
	s, err := LoadSecurity(envOf(map[string]string{
		"DISCORD_BOT_TOKEN": validToken,
		"BOT_OWNER_ID":      " 42 ",
		"ENVIRONMENT":       "Production",
		"DEBUG_MODE":        "off",
	}))
	if err != nil {
		t.Fatal(err)
	}
	if s.OwnerID() != "42" {
		t.Errorf("owner = %q", s.OwnerID())
	}
	if !s.IsProduction() || s.Debug() || s.ShouldLogDebug() {
		t.Errorf("env=%s debug=%v", s.Environment(), s.Debug())
	}
}

func TestLoadSecurityInvalidOwnerIsAbsent(t *testing.T) {
	s, err := LoadSecurity(envOf(map[string]string{
		"DISCORD_BOT_TOKEN": validToken,
		"BOT_OWNER_ID":      "not-a-number",
	}))
	if err != nil {
		t.Fatal(err)
	}
	if s.HasOwner() {
		t.Errorf("owner = %q, want absent", s.OwnerID())
	}
}

func TestLoadSecurityUnknownEnvironment(t *testing.T) {
	s, err := LoadSecurity(envOf(map[string]string{
		"DISCORD_BOT_TOKEN": validToken,
		"ENVIRONMENT":       "staging",
	}))
	if err != nil {
		t.Fatal(err)
	}
	if s.Environment() != EnvDevelopment {
		t.Errorf("environment = %q", s.Environment())
	}
}

func TestTokenHashDoesNotLeakToken(t *testing.T) {
	s, err := LoadSecurity(envOf(map[string]string{"DISCORD_BOT_TOKEN": validToken}))
	if err != nil {
		t.Fatal(err)
	}
	h := s.TokenHash()
	if len(h) != 8 || strings.Contains(validToken, h) {
		t.Errorf("hash %q", h)
	}
}
