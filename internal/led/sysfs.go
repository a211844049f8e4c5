package led

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// LED class device names used by the sysfs driver: hdd<N>:<color>,
// system:<color> and usb.
const (
	sysfsBayPrefix = "hdd"
	sysfsSystem    = "system"
	sysfsUSB       = "usb"
)

// sysfs implements Driver using the Linux LED class interface
// (<root>/class/leds/<name>/{brightness,trigger,max_brightness}).
type sysfs struct {
	dir   string
	bays  int
	level int
}

// newSysfs returns a driver for the LEDs under <root>/class/leds, or nil
// when no bay LEDs are present.
func newSysfs(root string) *sysfs {
	s := &sysfs{
		dir:   filepath.Join(root, "class", "leds"),
		level: MaxBrightness,
	}
	for s.exists(s.bayName(s.bays, Blue)) || s.exists(s.bayName(s.bays, Red)) {
		s.bays++
	}
	if s.bays == 0 {
		return nil
	}
	return s
}

func (s *sysfs) bayName(bay int, c Color) string {
	return fmt.Sprintf("%s%d:%s", sysfsBayPrefix, bay, c)
}

func (s *sysfs) exists(name string) bool {
	_, err := os.Stat(filepath.Join(s.dir, name))
	return err == nil
}

// Set controls bay LEDs. Missing colors are skipped.
func (s *sysfs) Set(color Color, bay int, on bool) error {
	if bay < 0 || bay >= s.bays {
		return nil
	}
	for _, c := range []Color{Blue, Red} {
		if color&c == 0 {
			continue
		}
		name := s.bayName(bay, c)
		if !s.exists(name) {
			continue
		}
		if err := s.write(name, on, false); err != nil {
			return err
		}
	}
	return nil
}

func (s *sysfs) SetSystemLed(color Color, state State) error {
	for _, c := range []Color{Blue, Red} {
		if color&c == 0 {
			continue
		}
		name := sysfsSystem + ":" + c.String()
		if !s.exists(name) {
			continue
		}
		if err := s.write(name, state != Off, state == Blink); err != nil {
			return err
		}
	}
	return nil
}

// SetBrightness scales subsequent "on" writes.
func (s *sysfs) SetBrightness(level int) error {
	s.level = ClampBrightness(level)
	return nil
}

func (s *sysfs) MountUsb(mount bool) error {
	if !s.exists(sysfsUSB) {
		return fmt.Errorf("%w: no %q LED", ErrUnsupported, sysfsUSB)
	}
	return s.write(sysfsUSB, mount, false)
}

func (s *sysfs) Desc() string {
	return fmt.Sprintf("Linux LED class (%d bays)", s.bays)
}

func (s *sysfs) Bays() int { return s.bays }

func (s *sysfs) write(name string, on, blink bool) error {
	ledPath := filepath.Join(s.dir, name)

	trigger := "none"
	if blink {
		trigger = "timer"
	}
	if err := os.WriteFile(filepath.Join(ledPath, "trigger"), []byte(trigger), 0644); err != nil {
		return fmt.Errorf("failed to set LED trigger: %w", err)
	}
	if blink {
		return nil
	}

	value := 0
	if on {
		value = s.maxBrightness(ledPath) * s.level / MaxBrightness
	}
	if err := os.WriteFile(filepath.Join(ledPath, "brightness"), []byte(strconv.Itoa(value)), 0644); err != nil {
		return fmt.Errorf("failed to set LED brightness: %w", err)
	}
	return nil
}

func (s *sysfs) maxBrightness(ledPath string) int {
	data, err := os.ReadFile(filepath.Join(ledPath, "max_brightness"))
	if err != nil {
		return 1
	}
	n, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil || n < 1 {
		return 1
	}
	return n
}
