package led

import (
	"errors"
	"log/slog"
	"os"
	"testing"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
}

func newTestHP(t *testing.T) (*hpEx48x, *fakePort) {
	t.Helper()

	root := t.TempDir()
	writeLPCConfig(t, root, lpcIDICH9R, testGPIOBase|0x1)

	port := newFakePort()
	// Outputs idle high (LEDs off).
	_ = port.Outl(testGPIOBase+gpLvl, 0xFFFFFFFF)
	_ = port.Outl(testGPIOBase+gpLvl2, 0xFFFFFFFF)
	_ = port.Outl(testGPIOBase+gpIOSel, 0xFFFFFFFF)
	_ = port.Outl(testGPIOBase+gpIOSel2, 0xFFFFFFFF)

	h, err := newHPEx48X(port, root, testLogger())
	if err != nil {
		t.Fatalf("newHPEx48X() error: %v", err)
	}
	return h, port
}

func TestSCH5127Init(t *testing.T) {
	h, port := newTestHP(t)

	if h.gpioBase != testGPIOBase {
		t.Errorf("gpioBase = 0x%x, want 0x%x", h.gpioBase, testGPIOBase)
	}
	if h.regs != 0x0a00 {
		t.Errorf("regs = 0x%x, want 0x0a00", h.regs)
	}
	if port.sio[sioIdxLDN] != sioRuntimeLDN {
		t.Errorf("LDN = 0x%x, want 0x%x", port.sio[sioIdxLDN], sioRuntimeLDN)
	}

	for _, reg := range []uint16{regWdtTimeOut, regWdtVal, regWdtCfg, regWdtCtrl} {
		if v, ok := port.wrote(0x0a00 + reg); !ok || v != 0 {
			t.Errorf("watchdog register 0x%x not cleared", reg)
		}
	}

	use := port.reg32(testGPIOBase + gpioUseSel)
	io := port.reg32(testGPIOBase + gpIOSel)
	for _, bit := range []int{hpBlue[0], hpRed[0], hpUSBDevice, hpSystemBlue, hpSystemRed} {
		if use&(1<<bit) == 0 {
			t.Errorf("GPIO %d not selected for GPIO use", bit)
		}
		if io&(1<<bit) != 0 {
			t.Errorf("GPIO %d not configured as output", bit)
		}
	}
	if use2 := port.reg32(testGPIOBase + gpioUseSel2); use2&(1<<(hpBlue[3]-32)) == 0 {
		t.Errorf("GPIO %d not selected for GPIO use", hpBlue[3])
	}
}

func TestSCH5127AlternateSuperIO(t *testing.T) {
	root := t.TempDir()
	writeLPCConfig(t, root, lpcIDICH9R, testGPIOBase|0x1)

	port := newFakePort()
	port.sio[sioIdxAlt] = sioAlternate
	port.sio[sioIdxBaseMSB] = 0x08
	port.sio[sioIdxBaseLSB] = 0x40

	c := &sch5127{port: port, logger: testLogger()}
	if err := c.init(root); err != nil {
		t.Fatalf("init() error: %v", err)
	}
	if c.regs != 0x0840 {
		t.Errorf("regs = 0x%x, want 0x0840", c.regs)
	}
}

func TestSCH5127RejectsUnknownHardware(t *testing.T) {
	tests := []struct {
		name string
		id   uint32
		base uint32
	}{
		{"wrong bridge", 0x3a168086, testGPIOBase | 0x1},
		{"memory space base", lpcIDICH9R, testGPIOBase},
		{"reserved bits set", lpcIDICH9R, 0x00010481},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root := t.TempDir()
			writeLPCConfig(t, root, tt.id, tt.base)

			c := &sch5127{port: newFakePort(), logger: testLogger()}
			if err := c.init(root); !errors.Is(err, errUnexpectedHardware) {
				t.Errorf("init() error = %v, want errUnexpectedHardware", err)
			}
		})
	}

	t.Run("missing config", func(t *testing.T) {
		c := &sch5127{port: newFakePort(), logger: testLogger()}
		if err := c.init(t.TempDir()); err == nil {
			t.Error("expected error without LPC config space")
		}
	})
}

func TestHPEx48XSetIsActiveLow(t *testing.T) {
	h, port := newTestHP(t)

	if err := h.Set(Blue, 0, true); err != nil {
		t.Fatalf("Set() error: %v", err)
	}
	if port.reg32(testGPIOBase+gpLvl)&(1<<hpBlue[0]) != 0 {
		t.Error("blue bay 0 should drive its GPIO low when on")
	}
	if port.reg32(testGPIOBase+gpLvl)&(1<<hpRed[0]) == 0 {
		t.Error("red bay 0 should be untouched")
	}

	if err := h.Set(Red, 3, true); err != nil {
		t.Fatalf("Set() error: %v", err)
	}
	if port.reg32(testGPIOBase+gpLvl2)&(1<<(hpRed[3]-32)) != 0 {
		t.Error("red bay 3 should drive GP_LVL2 low when on")
	}

	if err := h.Set(Both, 0, false); err != nil {
		t.Fatalf("Set() error: %v", err)
	}
	lvl := port.reg32(testGPIOBase + gpLvl)
	if lvl&(1<<hpBlue[0]) == 0 || lvl&(1<<hpRed[0]) == 0 {
		t.Error("bay 0 should be released high when off")
	}
}

func TestHPEx48XIgnoresUnknownBay(t *testing.T) {
	h, port := newTestHP(t)
	before := port.reg32(testGPIOBase + gpLvl)

	for _, bay := range []int{-1, 4, 9} {
		if err := h.Set(Both, bay, true); err != nil {
			t.Errorf("Set(bay %d) error: %v", bay, err)
		}
	}
	if port.reg32(testGPIOBase+gpLvl) != before {
		t.Error("out of range bays must not touch GPIO levels")
	}
}

func TestHPEx48XSystemLed(t *testing.T) {
	h, port := newTestHP(t)

	if err := h.SetSystemLed(Red, On); err != nil {
		t.Fatal(err)
	}
	if port.reg32(testGPIOBase+gpLvl)&(1<<hpSystemRed) != 0 {
		t.Error("system red should be driven low when on")
	}
	if port.reg32(testGPIOBase+gpLvl)&(1<<hpSystemBlue) == 0 {
		t.Error("system blue should be untouched")
	}

	if err := h.SetSystemLed(Both, Blink); err != nil {
		t.Fatal(err)
	}
	blink := port.reg32(testGPIOBase + gpoBlink)
	if blink&(1<<hpSystemRed) == 0 || blink&(1<<hpSystemBlue) == 0 {
		t.Errorf("blink enable = 0x%08x, want system bits set", blink)
	}

	if err := h.SetSystemLed(Both, Off); err != nil {
		t.Fatal(err)
	}
	if port.reg32(testGPIOBase+gpoBlink) != 0 {
		t.Error("blink should be cleared when off")
	}
	lvl := port.reg32(testGPIOBase + gpLvl)
	if lvl&(1<<hpSystemRed) == 0 || lvl&(1<<hpSystemBlue) == 0 {
		t.Error("system LEDs should be released high when off")
	}
}

func TestHPEx48XMountUsb(t *testing.T) {
	h, port := newTestHP(t)

	if err := h.MountUsb(false); err != nil {
		t.Fatal(err)
	}
	if port.reg32(testGPIOBase+gpLvl)&(1<<hpUSBDevice) != 0 {
		t.Error("unmount should clear the USB GPIO")
	}
	if err := h.MountUsb(true); err != nil {
		t.Fatal(err)
	}
	if port.reg32(testGPIOBase+gpLvl)&(1<<hpUSBDevice) == 0 {
		t.Error("mount should set the USB GPIO")
	}
}

func TestSetBrightness(t *testing.T) {
	tests := []struct {
		level int
		duty  byte
	}{
		{0, 0x00},
		{1, 0xbe},
		{5, 0xdb},
		{9, 0xff},
		{12, 0xff},
		{-3, 0x00},
	}

	h, port := newTestHP(t)
	for _, tt := range tests {
		if err := h.SetBrightness(tt.level); err != nil {
			t.Fatalf("SetBrightness(%d) error: %v", tt.level, err)
		}
		if idx, _ := port.wrote(h.regs + regHwmIndex); idx != hwmPWM3DutyCycle {
			t.Errorf("HWM index = 0x%x, want 0x%x", idx, hwmPWM3DutyCycle)
		}
		if duty, _ := port.wrote(h.regs + regHwmData); duty != tt.duty {
			t.Errorf("SetBrightness(%d) duty = 0x%02x, want 0x%02x", tt.level, duty, tt.duty)
		}
	}
}

func TestAcerH341Set(t *testing.T) {
	root := t.TempDir()
	writeLPCConfig(t, root, lpcIDICH9R, testGPIOBase|0x1)
	port := newFakePort()

	a, err := newAcerH341(port, root, testLogger())
	if err != nil {
		t.Fatalf("newAcerH341() error: %v", err)
	}

	if err := a.Set(Blue, 0, true); err != nil {
		t.Fatal(err)
	}
	// 0x4b: GP4 data register (GP1 + 3), bit 11 of the 32-bit access.
	if port.reg32(a.regs+regGP1+3)&(1<<11) == 0 {
		t.Error("blue bay 0 should be driven high when on")
	}

	if err := a.Set(Red, 2, true); err != nil {
		t.Fatal(err)
	}
	// 0x4e: GP4 data register, bit 14.
	if port.reg32(a.regs+regGP1+3)&(1<<14) == 0 {
		t.Error("red bay 2 should be driven high when on")
	}

	if err := a.Set(Both, 0, false); err != nil {
		t.Fatal(err)
	}
	if port.reg32(a.regs+regGP1+3)&(1<<11) != 0 {
		t.Error("blue bay 0 should be low when off")
	}

	if a.Bays() != 4 || a.Desc() == "" {
		t.Errorf("unexpected identity %q/%d", a.Desc(), a.Bays())
	}
}

func TestSetGpRegsLvlRejectsLowRegister(t *testing.T) {
	c := &sch5127{port: newFakePort(), logger: testLogger()}
	if err := c.setGpRegsLvl(0x0a, true); err == nil {
		t.Error("expected error for GPIO without a data register")
	}
}

func TestCloseReleasesPort(t *testing.T) {
	h, port := newTestHP(t)
	if err := Close(NewLocked(h)); err != nil {
		t.Fatal(err)
	}
	if !port.closed {
		t.Error("port should be closed")
	}
}
