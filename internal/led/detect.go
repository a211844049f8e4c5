package led

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// Driver names accepted in Config.Driver.
const (
	DriverAuto    = "auto"
	DriverHPEx48X = "hpex48x"
	DriverH341    = "h341"
	DriverSysfs   = "sysfs"
	DriverNoop    = "noop"
)

// Config selects and locates the LED hardware.
type Config struct {
	Driver    string
	SysfsRoot string
	PortPath  string
}

// Board identifies the machine from DMI.
type Board struct {
	Vendor  string
	Product string
}

func (b Board) String() string {
	return strings.TrimSpace(b.Vendor + " " + b.Product)
}

// New creates the LED driver for this machine.
//
// With DriverAuto the board is identified from DMI: Acer easyStore H341
// machines use the SCH5127 register map, HP and unidentified x86 boards
// are probed as an EX48X, then the LED class is tried, and finally the
// no-op driver is used. A board that is recognised but fails to initialise
// is an error.
func New(cfg Config, logger *slog.Logger) (Driver, error) {
	if cfg.SysfsRoot == "" {
		cfg.SysfsRoot = "/sys"
	}
	if cfg.PortPath == "" {
		cfg.PortPath = DefaultPortPath
	}

	switch cfg.Driver {
	case "", DriverAuto:
		return detect(cfg, logger)
	case DriverHPEx48X:
		return openSCH5127(cfg, logger, newHPEx48XDriver)
	case DriverH341:
		return openSCH5127(cfg, logger, newAcerH341Driver)
	case DriverSysfs:
		if d := newSysfs(cfg.SysfsRoot); d != nil {
			return d, nil
		}
		return nil, fmt.Errorf("%w: no bay LEDs under %s", ErrNoDriver, filepath.Join(cfg.SysfsRoot, "class", "leds"))
	case DriverNoop:
		return newNoop(logger), nil
	default:
		return nil, fmt.Errorf("%w: unknown driver %q", ErrNoDriver, cfg.Driver)
	}
}

func detect(cfg Config, logger *slog.Logger) (Driver, error) {
	board := DetectBoard(cfg.SysfsRoot)
	logger.Info("Detecting board for LED control", "vendor", board.Vendor, "product", board.Product)

	switch {
	case board.Vendor == "Acer" && board.Product == "Aspire easyStore H341":
		logger.Info("Detected Acer Aspire easyStore H341, using SCH5127 LED driver")
		return openSCH5127(cfg, logger, newAcerH341Driver)

	case board.Vendor != "Acer":
		d, err := openSCH5127(cfg, logger, newHPEx48XDriver)
		if err == nil {
			logger.Info("Detected HP MediaSmart Server EX48X")
			return d, nil
		}
		if isHP(board) {
			return nil, err
		}
		logger.Debug("Not an EX48X", "error", err)
	}

	if d := newSysfs(cfg.SysfsRoot); d != nil {
		logger.Info("Using sysfs LED class driver", "bays", d.Bays())
		return d, nil
	}

	logger.Warn("No LED support detected, using no-op driver", "board", board.String())
	return newNoop(logger), nil
}

func isHP(b Board) bool {
	return b.Vendor == "HP" || strings.HasPrefix(b.Vendor, "Hewlett-Packard")
}

type sch5127Factory func(PortIO, string, *slog.Logger) (Driver, error)

func newHPEx48XDriver(p PortIO, root string, l *slog.Logger) (Driver, error) {
	d, err := newHPEx48X(p, root, l)
	if err != nil {
		return nil, err
	}
	return d, nil
}

func newAcerH341Driver(p PortIO, root string, l *slog.Logger) (Driver, error) {
	d, err := newAcerH341(p, root, l)
	if err != nil {
		return nil, err
	}
	return d, nil
}

func openSCH5127(cfg Config, logger *slog.Logger, factory sch5127Factory) (Driver, error) {
	port, err := openDevPort(cfg.PortPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNoDriver, err)
	}
	d, err := factory(port, cfg.SysfsRoot, logger)
	if err != nil {
		_ = port.Close()
		return nil, fmt.Errorf("%w: %w", ErrNoDriver, err)
	}
	return d, nil
}

// DetectBoard reads the DMI vendor and product name.
func DetectBoard(sysfsRoot string) Board {
	return Board{
		Vendor:  readDMI(sysfsRoot, "sys_vendor"),
		Product: readDMI(sysfsRoot, "product_name"),
	}
}

func readDMI(sysfsRoot, attr string) string {
	data, err := os.ReadFile(filepath.Join(sysfsRoot, "class", "dmi", "id", attr))
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}

// IsNoop reports whether d performs no LED control.
func IsNoop(d Driver) bool {
	if l, ok := d.(*Locked); ok {
		d = l.d
	}
	_, ok := d.(*noop)
	return ok
}

// Close releases hardware handles held by d, if any.
func Close(d Driver) error {
	if l, ok := d.(*Locked); ok {
		d = l.d
	}
	if c, ok := d.(interface{ Close() error }); ok {
		return c.Close()
	}
	return nil
}

// NeedsPrivileges reports whether d writes root-owned files on every
// call, so the process has to keep its user.
func NeedsPrivileges(d Driver) bool {
	if l, ok := d.(*Locked); ok {
		d = l.d
	}
	_, ok := d.(*sysfs)
	return ok
}
