package main

import (
	"errors"
	"fmt"
	"os"

	"go-logbot/internal/bootstrap"
	"go-logbot/internal/config"
	"go-logbot/internal/logging"
)

func main() {
	fmt.Println("Starting secure logging bot")

	b := bootstrap.New()

	if err := b.Initialize(); err != nil {
		fail(b, err)
	}

	if err := b.Start(); err != nil {
		logging.Error("Startup failed: %v", err)
		fail(b, err)
	}

	code := b.Wait()

	if code != 0 {
		bootstrap.EmergencyShutdown(b.Components)
		os.Exit(code)
	}

	if err := b.Shutdown(); err != nil {
		fmt.Fprintf(os.Stderr, "Shutdown error: %v\n", err)
	}
}

func fail(b *bootstrap.Bootstrap, err error) {
	var cfgErr *config.ConfigurationError
	if errors.As(err, &cfgErr) {
		fmt.Fprintf(os.Stderr, "Configuration error: %v\n", cfgErr)
	} else {
		fmt.Fprintf(os.Stderr, "Fatal: %v\n", err)
	}
	b.Shutdown()
	os.Exit(1)
}
