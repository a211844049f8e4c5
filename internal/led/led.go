// Package led drives the drive-bay and system LEDs of NAS appliances.
package led

import "errors"

// Color selects one or both LEDs of a bay or of the system light.
type Color uint8

const (
	Blue Color = 1 << iota
	Red

	Both = Blue | Red
)

func (c Color) String() string {
	switch c {
	case 0:
		return "none"
	case Blue:
		return "blue"
	case Red:
		return "red"
	case Both:
		return "blue|red"
	default:
		return "invalid"
	}
}

// State of the system LED.
type State int

const (
	Off State = iota
	On
	Blink
)

func (s State) String() string {
	switch s {
	case Off:
		return "off"
	case On:
		return "on"
	case Blink:
		return "blink"
	default:
		return "unknown"
	}
}

// Driver controls the LEDs of one board. Implementations are not safe for
// concurrent use; wrap them with NewLocked when shared.
//
// Requests for a bay index the board does not have are ignored.
type Driver interface {
	// Set turns the given colors of bay on or off.
	Set(color Color, bay int, on bool) error

	// SetSystemLed sets the given colors of the system light.
	SetSystemLed(color Color, state State) error

	// SetBrightness sets the global LED brightness, 0 (dark) to 9.
	SetBrightness(level int) error

	// MountUsb connects or disconnects the front USB port.
	MountUsb(mount bool) error

	Desc() string
	Bays() int
}

var (
	// ErrNoDriver is returned when no LED driver could be initialised.
	ErrNoDriver = errors.New("no LED driver available")

	// ErrUnsupported is returned by drivers for operations the hardware lacks.
	ErrUnsupported = errors.New("operation not supported by LED driver")
)

// MaxBrightness is the highest brightness level.
const MaxBrightness = 9

// brightnessDuty maps brightness levels to PWM duty cycles.
var brightnessDuty = [MaxBrightness + 1]byte{0x00, 0xbe, 0xc3, 0xcb, 0xd3, 0xdb, 0xe3, 0xeb, 0xf3, 0xff}

// ClampBrightness limits level to 0..MaxBrightness.
func ClampBrightness(level int) int {
	return max(0, min(level, MaxBrightness))
}
