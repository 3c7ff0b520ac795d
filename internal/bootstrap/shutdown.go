package bootstrap

import (
	"go-logbot/internal/logging"
)

// Shutdown closes the gateway first so no new events or commands arrive,
// drains queued deliveries, closes the database, then flushes the log.
func Shutdown(c *Components) error {
	logging.Info("Starting graceful shutdown...")

	if c.Watchdog != nil {
		logging.Info("Stopping watchdog...")
		c.Watchdog.Stop()
	}

	if c.Session != nil {
		logging.Info("Closing Discord session...")
		if err := c.Session.Close(); err != nil {
			logging.Warn("Error closing Discord session: %v", err)
		}
	}

	if c.Dispatcher != nil {
		logging.Info("Draining queued log deliveries...")
		c.Dispatcher.Close()
	}

	if c.Store != nil {
		logging.Info("Logging routes at shutdown: %d", c.Store.Len())
	}

	if c.Counters != nil {
		snap := c.Counters.Snapshot()
		logging.Info("Pipeline totals: received=%d delivered=%d failed=%d unrouted=%d",
			snap.EventsReceived, snap.Delivered, snap.Failed, snap.Unrouted)
	}

	if c.DB != nil {
		logging.Info("Closing database...")
		if err := c.DB.Close(); err != nil {
			logging.Warn("Error closing database: %v", err)
		}
	}

	logging.Info("Graceful shutdown complete")
	return logging.CloseGlobal()
}

// EmergencyShutdown drops the gateway without waiting on anything else.
func EmergencyShutdown(c *Components) {
	logging.Critical("Emergency shutdown initiated")

	if c.Watchdog != nil {
		c.Watchdog.Stop()
	}

	if c.Session != nil {
		c.Session.Close()
	}
	if c.DB != nil {
		c.DB.Close()
	}

	logging.Critical("Emergency shutdown complete")
	logging.CloseGlobal()
}
