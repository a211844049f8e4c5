// Package cmd holds the command line surface shared by the daemon and its
// one-shot subcommands.
package cmd

import (
	"time"

	"github.com/smazurov/baylight/internal/led"
	"github.com/smazurov/baylight/internal/logging"
	"github.com/smazurov/baylight/internal/updates"
)

// Options for the CLI - flat structure with toml mapping.
type Options struct {
	Config string `help:"Path to configuration file" short:"c" default:"/etc/baylight/baylight.toml"`

	// LED settings
	Activity    bool   `help:"Show disk activity on the red bay LEDs" short:"a" default:"false" toml:"leds.activity" env:"LEDS_ACTIVITY"`
	Brightness  int    `help:"LED brightness 0-9, -1 leaves the hardware setting" default:"-1" toml:"leds.brightness" env:"LEDS_BRIGHTNESS"`
	LedDriver   string `help:"LED driver (auto, hpex48x, h341, sysfs, noop)" default:"auto" toml:"leds.driver" env:"LEDS_DRIVER"`
	PortPath    string `help:"I/O port device used by the super-I/O drivers" default:"/dev/port" toml:"leds.port_path" env:"LEDS_PORT_PATH"`
	ClearOnExit bool   `help:"Turn off all bay LEDs on exit" default:"true" toml:"leds.clear_on_exit" env:"LEDS_CLEAR_ON_EXIT"`

	// Bay settings
	DeviceBackend string `help:"Device event source (kernel, udev, libudev)" default:"kernel" toml:"bays.device_backend" env:"BAYS_DEVICE_BACKEND"`
	SysfsRoot     string `help:"Mount point of sysfs" default:"/sys" toml:"bays.sysfs_root" env:"BAYS_SYSFS_ROOT"`
	BayCapacity   int    `help:"Maximum number of bays tracked" default:"10" toml:"bays.capacity" env:"BAYS_CAPACITY"`

	// Update monitor settings
	UpdateMonitor  bool   `help:"Show pending system updates on the system LED" short:"u" default:"false" toml:"updates.enabled" env:"UPDATES_ENABLED"`
	UpdateCommand  string `help:"Update checker printing <updates>;<security>" default:"/usr/lib/update-notifier/apt-check" toml:"updates.command" env:"UPDATES_COMMAND"`
	UpdateInterval string `help:"Time between update checks" default:"15m" toml:"updates.interval" env:"UPDATES_INTERVAL"`

	// Process settings
	User string `help:"Account to run as once the hardware is open" default:"nobody" toml:"daemon.user" env:"DAEMON_USER"`

	// Server settings
	ServerEnabled bool   `help:"Serve the HTTP status API" default:"false" toml:"server.enabled" env:"SERVER_ENABLED"`
	ServerAddr    string `help:"Status API listen address" default:"127.0.0.1:8091" toml:"server.addr" env:"SERVER_ADDR"`
	AuthUsername  string `help:"Basic auth username for API changes" default:"" toml:"auth.username" env:"AUTH_USERNAME"`
	AuthPassword  string `help:"Basic auth password for API changes" default:"" toml:"auth.password" env:"AUTH_PASSWORD"`

	// Logging settings
	Debug          bool   `help:"Force debug logging" default:"false" toml:"logging.debug" env:"DEBUG"`
	LoggingLevel   string `help:"Global logging level (debug, info, warn, error)" default:"info" toml:"logging.level" env:"LOGGING_LEVEL"`
	LoggingFormat  string `help:"Logging format (text, json)" default:"text" toml:"logging.format" env:"LOGGING_FORMAT"`
	LoggingBays    string `help:"Bay monitor logging level" default:"info" toml:"logging.bays" env:"LOGGING_BAYS"`
	LoggingLeds    string `help:"LED driver logging level" default:"info" toml:"logging.leds" env:"LOGGING_LEDS"`
	LoggingHotplug string `help:"Hot-plug source logging level" default:"info" toml:"logging.hotplug" env:"LOGGING_HOTPLUG"`
	LoggingUpdates string `help:"Update monitor logging level" default:"info" toml:"logging.updates" env:"LOGGING_UPDATES"`
	LoggingAPI     string `help:"API logging level" default:"info" toml:"logging.api" env:"LOGGING_API"`
}

// LoggingConfig builds the logging setup described by opts.
func (o *Options) LoggingConfig() logging.Config {
	cfg := logging.Config{
		Level:  o.LoggingLevel,
		Format: o.LoggingFormat,
		Modules: map[string]string{
			"bays":    o.LoggingBays,
			"leds":    o.LoggingLeds,
			"hotplug": o.LoggingHotplug,
			"updates": o.LoggingUpdates,
			"api":     o.LoggingAPI,
		},
	}
	if o.Debug {
		cfg.Level = "debug"
		cfg.Modules = nil
	}
	return cfg
}

// UpdatePeriod parses UpdateInterval, falling back to the default.
func (o *Options) UpdatePeriod() time.Duration {
	d, err := time.ParseDuration(o.UpdateInterval)
	if err != nil || d <= 0 {
		return updates.DefaultInterval
	}
	return d
}

// LEDConfig selects the LED hardware described by opts.
func (o *Options) LEDConfig() led.Config {
	return led.Config{
		Driver:    o.LedDriver,
		SysfsRoot: o.SysfsRoot,
		PortPath:  o.PortPath,
	}
}
