package cmd

import (
	"fmt"
	"log/slog"

	"github.com/smazurov/baylight/internal/led"
	"github.com/smazurov/baylight/internal/logging"
	"github.com/smazurov/baylight/internal/privdrop"
)

// openLEDs opens the LED hardware for a one-shot command and gives up root
// when the driver allows it. The returned release func must be called.
func openLEDs(opts *Options, logger *slog.Logger) (*led.Locked, func(), error) {
	driver, err := led.New(opts.LEDConfig(), logging.GetLogger("leds"))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialise LED driver: %w", err)
	}
	leds := led.NewLocked(driver)
	release := func() {
		if closeErr := led.Close(leds); closeErr != nil {
			logger.Warn("Failed to release LED hardware", "error", closeErr)
		}
	}

	if !led.NeedsPrivileges(leds) {
		if err := privdrop.Drop(opts.User); err != nil {
			release()
			return nil, nil, fmt.Errorf("failed to drop privileges: %w", err)
		}
	}
	return leds, release, nil
}
