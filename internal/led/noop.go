package led

import "log/slog"

// noop implements Driver for systems without supported LEDs.
type noop struct {
	logger *slog.Logger
}

func newNoop(logger *slog.Logger) *noop {
	return &noop{logger: logger}
}

// Set logs the request but performs no actual LED control
func (n *noop) Set(color Color, bay int, on bool) error {
	n.logger.Debug("LED control not available (no-op)", "color", color, "bay", bay, "on", on)
	return nil
}

func (n *noop) SetSystemLed(color Color, state State) error {
	n.logger.Debug("System LED not available (no-op)", "color", color, "state", state)
	return nil
}

func (n *noop) SetBrightness(level int) error {
	n.logger.Debug("Brightness control not available (no-op)", "level", level)
	return nil
}

func (n *noop) MountUsb(mount bool) error {
	n.logger.Debug("USB control not available (no-op)", "mount", mount)
	return nil
}

func (n *noop) Desc() string { return "no LED control" }

func (n *noop) Bays() int { return 0 }
