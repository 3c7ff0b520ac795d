package bootstrap

import (
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"go-logbot/internal/config"
	"go-logbot/internal/logging"
)

type Bootstrap struct {
	Config      *config.Config
	Security    *config.Security
	Components  *Components
	initialized bool

	stopOnce sync.Once
	stop     chan stopRequest
}

type stopRequest struct {
	exitCode int
	reason   string
}

func New() *Bootstrap {
	return &Bootstrap{
		initialized: false,
		stop:        make(chan stopRequest, 1),
	}
}

// Initialize loads configuration and starts logging. Nothing talks to
// Discord until Start.
func (b *Bootstrap) Initialize() error {
	if err := b.loadConfig(); err != nil {
		return fmt.Errorf("config load failed: %w", err)
	}

	if err := b.loadSecurity(); err != nil {
		return err
	}

	if err := b.initializeLogging(); err != nil {
		return fmt.Errorf("logging init failed: %w", err)
	}
	b.logSecuritySummary()

	if err := b.wireComponents(); err != nil {
		return fmt.Errorf("component wiring failed: %w", err)
	}

	b.initialized = true
	logging.Info("Bootstrap complete")
	return nil
}

func (b *Bootstrap) loadConfig() error {
	cfg, err := config.Load(config.Path())
	if err != nil {
		return err
	}
	b.Config = cfg
	return nil
}

func (b *Bootstrap) loadSecurity() error {
	sec, err := config.LoadSecurityFromEnv()
	if err != nil {
		return err
	}
	b.Security = sec
	return nil
}

func (b *Bootstrap) logLevel() logging.LogLevel {
	if lvl, ok := logging.ParseLevel(b.Config.Logging.Level); ok {
		return lvl
	}
	if b.Security.ShouldLogDebug() {
		return logging.LevelDebug
	}
	return logging.LevelInfo
}

func (b *Bootstrap) initializeLogging() error {
	lc := b.Config.Logging
	err := logging.InitGlobalLogger(logging.Options{
		Level:      b.logLevel(),
		Path:       lc.File,
		BufferSize: lc.BufferSize,
		Stdout:     lc.Stdout,
		Rotation:   logging.NewLogRotation(lc.MaxSizeBytes, time.Duration(lc.MaxAgeHours)*time.Hour),
	})
	if err != nil {
		return err
	}

	removed, err := logging.NewRetentionManager(lc.RetentionDays).Cleanup(lc.File)
	if err != nil {
		logging.Warn("Log retention cleanup failed: %v", err)
	} else if removed > 0 {
		logging.Info("Removed %d expired log files", removed)
	}
	return nil
}

func (b *Bootstrap) logSecuritySummary() {
	sec := b.Security
	owner := "not set"
	if sec.HasOwner() {
		owner = "set"
	}
	logging.Info("Security: environment=%s debug=%v owner=%s token=sha256:%s",
		sec.Environment(), sec.Debug(), owner, sec.TokenHash())
	for _, w := range sec.Warnings {
		logging.Warn("Security warning: %s", w)
	}
}

func (b *Bootstrap) wireComponents() error {
	return Wire(b)
}

func (b *Bootstrap) Start() error {
	if !b.initialized {
		return fmt.Errorf("bootstrap not initialized")
	}

	return StartAll(b)
}

// RequestStop asks Wait to return. Only the first request counts.
func (b *Bootstrap) RequestStop(exitCode int, reason string) {
	b.stopOnce.Do(func() {
		logging.Info("Stop requested (exit code %d): %s", exitCode, reason)
		b.stop <- stopRequest{exitCode: exitCode, reason: reason}
	})
}

// Wait blocks until SIGINT, SIGTERM or RequestStop and returns the exit code.
func (b *Bootstrap) Wait() int {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	select {
	case sig := <-sigChan:
		logging.Info("Shutdown signal received: %s", sig)
		return 0
	case req := <-b.stop:
		return req.exitCode
	}
}

func (b *Bootstrap) Shutdown() error {
	if b.Components == nil {
		return logging.CloseGlobal()
	}
	return Shutdown(b.Components)
}
