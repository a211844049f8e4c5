// Package logging provides structured logging with per-module log level configuration.
//
// # Overview
//
// The logging system uses Go's slog package with automatic output routing:
//   - Logs to systemd journal when available (Linux systems with journald)
//   - Logs to stdout when a terminal, pipe, or file is connected
//   - Logs to both when both are available
//
// # Usage
//
// Initialize the logging system once at startup:
//
//	logging.Initialize(logging.Config{
//		Level:  "info",      // Global log level: debug, info, warn, error
//		Format: "text",      // Output format: text or json
//		Modules: map[string]string{
//			"bays":    "debug",  // Per-module overrides
//			"updates": "warn",
//		},
//	})
//
// Get a logger for your module:
//
//	logger := logging.GetLogger("bays")
//	logger.Info("Bay added", "bay", 2)
//	logger.Warn("Stats file unreadable", "error", err)
//
// # Log Levels
//
//	debug - Verbose debugging information (every uevent, every resolver step)
//	info  - General operational messages
//	warn  - Warning conditions
//	error - Error conditions
//
// # Viewing Logs
//
// When running as a systemd service or on a system with journald:
//
//	journalctl -t baylightd              # All daemon logs
//	journalctl -t baylightd -f           # Follow live
//	journalctl -t baylightd MODULE=bays  # Bay monitor only
//	journalctl -t baylightd BAY=1        # Everything about bay 1
//
// # Configuration
//
// Log levels can be set globally or per-module. Module-specific levels
// override the global level for that module only.
//
//	[logging]
//	level = "info"
//	format = "text"
//	bays = "debug"
//	leds = "warn"
package logging
