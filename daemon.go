package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/smazurov/baylight/cmd"
	"github.com/smazurov/baylight/internal/api"
	"github.com/smazurov/baylight/internal/bay"
	"github.com/smazurov/baylight/internal/config"
	"github.com/smazurov/baylight/internal/device"
	"github.com/smazurov/baylight/internal/events"
	"github.com/smazurov/baylight/internal/led"
	"github.com/smazurov/baylight/internal/logging"
	"github.com/smazurov/baylight/internal/metrics/collectors"
	"github.com/smazurov/baylight/internal/metrics/exporters"
	"github.com/smazurov/baylight/internal/privdrop"
	"github.com/smazurov/baylight/internal/systemd"
	"github.com/smazurov/baylight/internal/updates"
)

// runDaemon opens the hardware, tracks the bays until ctx is cancelled and
// leaves the LEDs dark on the way out.
func runDaemon(ctx context.Context, opts *cmd.Options) error {
	logger := logging.GetLogger("main")
	notifier := systemd.NewNotifier()

	driver, err := led.New(opts.LEDConfig(), logging.GetLogger("leds"))
	if err != nil {
		return fmt.Errorf("failed to initialise LED driver: %w", err)
	}
	leds := led.NewLocked(driver)
	defer func() {
		if closeErr := led.Close(leds); closeErr != nil {
			logger.Warn("Failed to release LED hardware", "error", closeErr)
		}
	}()
	logger.Info("LED driver ready", "driver", leds.Desc(), "bays", leds.Bays())
	warnIfNoop(leds, logger)

	// Bound before enumeration so that events arriving meanwhile are queued.
	source, err := device.NewSource(opts.DeviceBackend, opts.SysfsRoot)
	if err != nil {
		return fmt.Errorf("failed to open device source: %w", err)
	}
	defer source.Close()

	if led.NeedsPrivileges(leds) {
		logger.Info("Keeping privileges for the LED class driver")
	} else if err := privdrop.Drop(opts.User); err != nil {
		return fmt.Errorf("failed to drop privileges: %w", err)
	}

	initLEDs(leds, opts.Brightness, logger)

	bus := events.New()
	collector := collectors.NewEventCollector(bus)
	collector.Start()
	defer collector.Stop()

	monitor := bay.NewMonitor(bay.Config{
		SysfsRoot: opts.SysfsRoot,
		Capacity:  opts.BayCapacity,
		Activity:  opts.Activity,
	}, source, leds, bus)
	if err := monitor.EnumerateAndBuild(); err != nil {
		return err
	}

	var wg sync.WaitGroup
	defer wg.Wait()

	loopCtx, stop := context.WithCancel(ctx)
	defer stop()

	var updateMonitor *updates.Monitor
	if opts.UpdateMonitor {
		updateMonitor = updates.NewMonitor(updates.Config{
			Command:  opts.UpdateCommand,
			Interval: opts.UpdatePeriod(),
		}, leds, bus)
		wg.Add(1)
		go func() {
			defer wg.Done()
			if runErr := updateMonitor.Run(loopCtx); runErr != nil {
				logger.Warn("Update monitor stopped", "error", runErr)
			}
		}()
	}

	watchConfig(loopCtx, opts, leds, monitor, bus, notifier, &wg, logger)

	if opts.ServerEnabled {
		sse := exporters.NewSSEExporter(bus)
		sse.Start(loopCtx)
		defer sse.Stop()

		apiOpts := &api.Options{
			Bays:              monitor,
			LEDs:              leds,
			Bus:               bus,
			AuthUsername:      opts.AuthUsername,
			AuthPassword:      opts.AuthPassword,
			PrometheusHandler: exporters.HTTPHandler(),
		}
		if updateMonitor != nil {
			apiOpts.Updates = updateMonitor
		}
		server := api.NewServer(apiOpts)

		wg.Add(1)
		go func() {
			defer wg.Done()
			if serveErr := server.Run(loopCtx, opts.ServerAddr); serveErr != nil {
				logger.Error("API server failed", "error", serveErr)
			}
		}()
	}

	notifier.Ready()
	notifier.Status("Watching %d bays", len(monitor.Bays()))
	logger.Info("baylightd started", "bays", len(monitor.Bays()), "activity", monitor.Activity())

	runErr := monitor.Run(loopCtx)

	notifier.Stopping()
	stop()
	wg.Wait()

	if opts.ClearOnExit {
		monitor.ClearAll()
	}

	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		return runErr
	}
	logger.Info("baylightd stopped", "events_dropped", bus.Dropped())
	return nil
}

// warnIfNoop reports whether leds drives no hardware, logging a warning if so.
func warnIfNoop(leds led.Driver, logger *slog.Logger) bool {
	if !led.IsNoop(leds) {
		return false
	}
	logger.Warn("No LED hardware found, bays are tracked without lights")
	return true
}

// initLEDs puts the LEDs into their start-up state.
func initLEDs(leds led.Driver, brightness int, logger *slog.Logger) {
	if err := leds.SetSystemLed(led.Both, led.Off); err != nil {
		logger.Warn("Failed to reset system LED", "error", err)
	}
	if brightness >= 0 {
		if err := leds.SetBrightness(brightness); err != nil {
			logger.Warn("Failed to set brightness", "level", brightness, "error", err)
		}
	}
	for i := range leds.Bays() {
		if err := leds.Set(led.Both, i, false); err != nil {
			logger.Warn("Failed to clear bay LED", "bay", i, "error", err)
		}
	}
}

// watchConfig re-applies brightness, activity mode and log levels when the
// configuration file changes.
func watchConfig(
	ctx context.Context,
	opts *cmd.Options,
	leds *led.Locked,
	monitor *bay.Monitor,
	bus *events.Bus,
	notifier *systemd.Notifier,
	wg *sync.WaitGroup,
	logger *slog.Logger,
) {
	if opts.Config == "" {
		return
	}

	base := *opts
	watcher := config.NewWatcher(opts.Config, func(path string) (cmd.Options, error) {
		reloaded := base
		reloaded.Config = path
		err := config.LoadFile(&reloaded)
		return reloaded, err
	}, logging.GetLogger("config"))

	watcher.OnReload(func(o cmd.Options) {
		notifier.Reloading()
		defer notifier.Ready()

		logging.Initialize(o.LoggingConfig())
		monitor.SetActivity(o.Activity)

		if o.Brightness >= 0 && o.Brightness != leds.Brightness() {
			if err := leds.SetBrightness(o.Brightness); err != nil {
				logger.Warn("Failed to apply brightness", "level", o.Brightness, "error", err)
				return
			}
			bus.Publish(events.BrightnessChangedEvent{
				Level:     leds.Brightness(),
				Source:    "config",
				Timestamp: time.Now().Format(time.RFC3339),
			})
		}
	})

	if err := watcher.Start(ctx); err != nil {
		logger.Info("Config hot reload unavailable", "path", opts.Config, "error", err)
		return
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		watcher.Wait()
	}()
}
