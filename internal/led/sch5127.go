package led

import (
	"encoding/binary"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
)

// ICH9 LPC GPIO registers, relative to GPIOBASE.
const (
	gpioUseSel  = 0x00
	gpIOSel     = 0x04
	gpLvl       = 0x0C
	gpoBlink    = 0x18
	gpioUseSel2 = 0x30
	gpIOSel2    = 0x34
	gpLvl2      = 0x38
)

// SCH5127 runtime registers, relative to the runtime register base.
const (
	regGP1        = 0x4B
	regWdtTimeOut = 0x65
	regWdtVal     = 0x66
	regWdtCfg     = 0x67
	regWdtCtrl    = 0x68
	regHwmIndex   = 0x70
	regHwmData    = 0x71

	hwmPWM3DutyCycle = 0x32
)

// SuperI/O configuration interface.
const (
	sioPrimary    = 0x2e
	sioAlternate  = 0x4e
	sioIdxLDN     = 0x07
	sioIdxID      = 0x20
	sioIdxAlt     = 0x26
	sioIdxBaseMSB = 0x60
	sioIdxBaseLSB = 0x61
	sioEnter      = 0x55
	sioExit       = 0xaa
	sioRuntimeLDN = 0x0a
)

// The LPC bridge lives at PCI 00:1f.0; 82801IR (ICH9R) is 8086:2916.
const (
	lpcConfigPath   = "bus/pci/devices/0000:00:1f.0/config"
	lpcIDICH9R      = 0x29168086
	lpcGPIOBaseReg  = 0x48
	lpcGPIOBaseMask = 0xFFFF007F
)

var errUnexpectedHardware = errors.New("unexpected hardware")

// sch5127 holds the register plumbing shared by boards built around an
// SMSC SCH5127 SuperI/O next to an ICH9 LPC bridge.
type sch5127 struct {
	port     PortIO
	gpioBase uint16
	regs     uint16
	logger   *slog.Logger
}

// init locates the GPIO and runtime register blocks and disables the
// SuperI/O watchdog.
func (c *sch5127) init(sysfsRoot string) error {
	if err := c.initLPC(filepath.Join(sysfsRoot, lpcConfigPath)); err != nil {
		return err
	}
	if err := c.initSuperIO(); err != nil {
		return err
	}
	return c.disableWatchdog()
}

func (c *sch5127) initLPC(configPath string) error {
	cfg, err := os.ReadFile(configPath)
	if err != nil {
		return fmt.Errorf("failed to read LPC config space: %w", err)
	}
	if len(cfg) < lpcGPIOBaseReg+4 {
		return fmt.Errorf("LPC config space truncated to %d bytes", len(cfg))
	}

	if id := binary.LittleEndian.Uint32(cfg[0:4]); id != lpcIDICH9R {
		return fmt.Errorf("%w: LPC bridge id 0x%08x", errUnexpectedHardware, id)
	}

	// Only bits 15:6 carry the address, bit 0 is hardwired to 1 (I/O space).
	base := binary.LittleEndian.Uint32(cfg[lpcGPIOBaseReg : lpcGPIOBaseReg+4])
	if base&lpcGPIOBaseMask != 0x1 {
		return fmt.Errorf("%w: GPIOBASE 0x%08x", errUnexpectedHardware, base)
	}
	c.gpioBase = uint16(base &^ 0x1)

	c.logger.Debug("LPC GPIO located", "gpio_base", fmt.Sprintf("0x%04x", c.gpioBase))
	return nil
}

func (c *sch5127) initSuperIO() error {
	seq := portSeq{p: c.port}
	addr := uint16(sioPrimary)

	seq.out(addr, sioEnter)
	seq.out(addr, sioIdxID)
	id := seq.in(addr + 1)

	seq.out(addr, sioIdxAlt)
	if seq.in(addr+1) == sioAlternate {
		seq.out(addr, sioExit)
		addr = sioAlternate
		seq.out(addr, sioEnter)
	}

	seq.out(addr, sioIdxLDN)
	seq.out(addr+1, sioRuntimeLDN)

	seq.out(addr, sioIdxBaseMSB)
	msb := seq.in(addr + 1)
	seq.out(addr, sioIdxBaseLSB)
	lsb := seq.in(addr + 1)

	seq.out(addr, sioExit)
	if seq.err != nil {
		return fmt.Errorf("SuperI/O configuration failed: %w", seq.err)
	}

	c.regs = uint16(msb)<<8 | uint16(lsb)
	c.logger.Debug("SuperI/O located",
		"device_id", fmt.Sprintf("0x%02x", id),
		"config_port", fmt.Sprintf("0x%02x", addr),
		"runtime_regs", fmt.Sprintf("0x%04x", c.regs))
	return nil
}

func (c *sch5127) disableWatchdog() error {
	for _, reg := range []uint16{regWdtVal, regWdtTimeOut, regWdtCfg, regWdtCtrl} {
		if err := c.port.Outb(c.regs+reg, 0); err != nil {
			return fmt.Errorf("failed to disable watchdog: %w", err)
		}
	}
	return nil
}

// doBits sets or clears bits in the 32-bit register at port.
func (c *sch5127) doBits(bits uint32, port uint16, set bool) error {
	val, err := c.port.Inl(port)
	if err != nil {
		return err
	}
	newVal := val &^ bits
	if set {
		newVal = val | bits
	}
	if newVal == val {
		return nil
	}
	return c.port.Outl(port, newVal)
}

// setGpLpcLvl drives an ICH9 GPIO output (0..63).
func (c *sch5127) setGpLpcLvl(bit int, level bool) error {
	reg := uint16(gpLvl)
	if bit >= 32 {
		reg = gpLvl2
	}
	return c.doBits(1<<(bit%32), c.gpioBase+reg, level)
}

// setGpRegsLvl drives a SuperI/O GPIO addressed as 0xRB, where R is the
// 1-based GP data register and B the bit.
func (c *sch5127) setGpRegsLvl(bit int, level bool) error {
	reg := ((bit >> 4) & 0xF) - 1
	if reg < 0 {
		return fmt.Errorf("invalid SuperI/O GPIO 0x%02x", bit)
	}
	return c.doBits(1<<(bit&0xF), c.regs+regGP1+uint16(reg), level)
}

// setGpioSelOutput switches the given ICH9 GPIOs to GPIO function, output
// direction.
func (c *sch5127) setGpioSelOutput(bits []int) error {
	var lo, hi uint32
	for _, bit := range bits {
		if bit < 32 {
			lo |= 1 << bit
		} else {
			hi |= 1 << (bit - 32)
		}
	}

	steps := []struct {
		reg  uint16
		bits uint32
		set  bool
	}{
		{gpioUseSel, lo, true},
		{gpioUseSel2, hi, true},
		{gpIOSel, lo, false},
		{gpIOSel2, hi, false},
	}
	for _, s := range steps {
		val, err := c.port.Inl(c.gpioBase + s.reg)
		if err != nil {
			return err
		}
		if s.set {
			val |= s.bits
		} else {
			val &^= s.bits
		}
		if err := c.port.Outl(c.gpioBase+s.reg, val); err != nil {
			return err
		}
	}
	return nil
}

// setSystemLed drives the system light. The outputs are active low; blink
// is the GPO blink enable on top of an "off" level.
func (c *sch5127) setSystemLed(blueBit, redBit int, color Color, state State) error {
	var blink uint32
	if color&Blue != 0 {
		if err := c.setGpLpcLvl(blueBit, state != On); err != nil {
			return err
		}
		blink |= 1 << blueBit
	}
	if color&Red != 0 {
		if err := c.setGpLpcLvl(redBit, state != On); err != nil {
			return err
		}
		blink |= 1 << redBit
	}
	if blink == 0 {
		return nil
	}
	return c.doBits(blink, c.gpioBase+gpoBlink, state == Blink)
}

func (c *sch5127) setBrightness(level int) error {
	if err := c.port.Outb(c.regs+regHwmIndex, hwmPWM3DutyCycle); err != nil {
		return err
	}
	return c.port.Outb(c.regs+regHwmData, brightnessDuty[ClampBrightness(level)])
}

// Close releases the I/O port handle.
func (c *sch5127) Close() error {
	return c.port.Close()
}

// portSeq runs a sequence of port accesses, remembering the first error.
type portSeq struct {
	p   PortIO
	err error
}

func (s *portSeq) out(port uint16, value byte) {
	if s.err != nil {
		return
	}
	s.err = s.p.Outb(port, value)
}

func (s *portSeq) in(port uint16) byte {
	if s.err != nil {
		return 0
	}
	v, err := s.p.Inb(port)
	s.err = err
	return v
}
