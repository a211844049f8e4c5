package led

import (
	"fmt"
	"log/slog"
)

// Acer Aspire easyStore H341 bay LEDs hang off the SCH5127 GP data
// registers (0xRB = register R, bit B); the rest are ICH9 GPIOs.
var (
	h341Blue = [...]int{0x4b, 0x4c, 0x52, 0x50}
	h341Red  = [...]int{0x59, 0x58, 0x4e, 0x51}
)

const (
	h341USBDevice  = 0x06
	h341USBLed     = 0x12
	h341Power      = 0x1b
	h341SystemRed  = 0x18
	h341SystemBlue = 0x0a
)

type acerH341 struct {
	sch5127
}

func newAcerH341(port PortIO, sysfsRoot string, logger *slog.Logger) (*acerH341, error) {
	a := &acerH341{sch5127{port: port, logger: logger}}
	if err := a.init(sysfsRoot); err != nil {
		return nil, err
	}

	bits := []int{h341USBDevice, h341USBLed, h341Power, h341SystemBlue, h341SystemRed}
	if err := a.setGpioSelOutput(bits); err != nil {
		return nil, fmt.Errorf("failed to configure GPIOs: %w", err)
	}
	return a, nil
}

func (a *acerH341) Set(color Color, bay int, on bool) error {
	if bay < 0 || bay >= len(h341Blue) {
		return nil
	}
	if color&Blue != 0 {
		if err := a.setGpRegsLvl(h341Blue[bay], on); err != nil {
			return err
		}
	}
	if color&Red != 0 {
		return a.setGpRegsLvl(h341Red[bay], on)
	}
	return nil
}

func (a *acerH341) SetSystemLed(color Color, state State) error {
	return a.setSystemLed(h341SystemBlue, h341SystemRed, color, state)
}

func (a *acerH341) SetBrightness(level int) error {
	return a.setBrightness(level)
}

func (a *acerH341) MountUsb(mount bool) error {
	return a.setGpLpcLvl(h341USBDevice, mount)
}

func (a *acerH341) Desc() string { return "Acer Aspire easyStore H341" }

func (a *acerH341) Bays() int { return len(h341Blue) }
