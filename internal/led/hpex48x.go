package led

import (
	"fmt"
	"log/slog"
)

// ICH9 GPIO lines wired to the HP MediaSmart Server EX48X LEDs.
var (
	hpBlue = [...]int{22, 21, 13, 57}
	hpRed  = [...]int{4, 5, 38, 39}
)

const (
	hpUSBDevice  = 7
	hpSystemBlue = 28
	hpSystemRed  = 27
)

// hpEx48x drives the HP MediaSmart Server EX48X. All LED outputs are
// active low ICH9 GPIOs.
type hpEx48x struct {
	sch5127
}

func newHPEx48X(port PortIO, sysfsRoot string, logger *slog.Logger) (*hpEx48x, error) {
	h := &hpEx48x{sch5127{port: port, logger: logger}}
	if err := h.init(sysfsRoot); err != nil {
		return nil, err
	}

	bits := []int{hpUSBDevice, hpSystemBlue, hpSystemRed}
	bits = append(bits, hpBlue[:]...)
	bits = append(bits, hpRed[:]...)
	if err := h.setGpioSelOutput(bits); err != nil {
		return nil, fmt.Errorf("failed to configure GPIOs: %w", err)
	}
	return h, nil
}

func (h *hpEx48x) Set(color Color, bay int, on bool) error {
	if bay < 0 || bay >= len(hpBlue) {
		return nil
	}
	if color&Blue != 0 {
		if err := h.setGpLpcLvl(hpBlue[bay], !on); err != nil {
			return err
		}
	}
	if color&Red != 0 {
		return h.setGpLpcLvl(hpRed[bay], !on)
	}
	return nil
}

func (h *hpEx48x) SetSystemLed(color Color, state State) error {
	return h.setSystemLed(hpSystemBlue, hpSystemRed, color, state)
}

func (h *hpEx48x) SetBrightness(level int) error {
	return h.setBrightness(level)
}

func (h *hpEx48x) MountUsb(mount bool) error {
	return h.setGpLpcLvl(hpUSBDevice, mount)
}

func (h *hpEx48x) Desc() string { return "HP MediaSmart Server 48X" }

func (h *hpEx48x) Bays() int { return len(hpBlue) }
