package led

import "sync"

// Locked serializes access to a Driver shared between goroutines.
// It also remembers the last brightness that was applied.
type Locked struct {
	mu         sync.Mutex
	d          Driver
	brightness int
}

// NewLocked wraps d. Wrapping an already locked driver returns it as is.
func NewLocked(d Driver) *Locked {
	if l, ok := d.(*Locked); ok {
		return l
	}
	return &Locked{d: d, brightness: -1}
}

func (l *Locked) Set(color Color, bay int, on bool) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.d.Set(color, bay, on)
}

func (l *Locked) SetSystemLed(color Color, state State) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.d.SetSystemLed(color, state)
}

func (l *Locked) SetBrightness(level int) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	level = ClampBrightness(level)
	if err := l.d.SetBrightness(level); err != nil {
		return err
	}
	l.brightness = level
	return nil
}

// Brightness returns the last applied level, or -1 if it was never set.
func (l *Locked) Brightness() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.brightness
}

func (l *Locked) MountUsb(mount bool) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.d.MountUsb(mount)
}

func (l *Locked) Desc() string { return l.d.Desc() }

func (l *Locked) Bays() int { return l.d.Bays() }
