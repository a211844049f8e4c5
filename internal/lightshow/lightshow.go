// Package lightshow animates the bay LEDs for decoration.
package lightshow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"time"

	"github.com/smazurov/baylight/internal/led"
	"github.com/smazurov/baylight/internal/logging"
)

// FrameInterval is the time between two animation frames.
const FrameInterval = 200 * time.Millisecond

// Number of bays the animations are drawn on.
const showBays = 4

// ErrUnsupportedMode is returned for show numbers below 1.
var ErrUnsupportedMode = errors.New("unsupported light show")

// Pattern is the animation drawn by a show.
type Pattern int

const (
	Holiday Pattern = iota
	Descending
	Ascending
	KnightRider
	Pulsing
)

func (p Pattern) String() string {
	switch p {
	case Holiday:
		return "holiday"
	case Descending:
		return "descending"
	case Ascending:
		return "ascending"
	case KnightRider:
		return "knight-rider"
	case Pulsing:
		return "pulsing"
	default:
		return "unknown"
	}
}

// Show is one running animation.
type Show struct {
	leds    led.Driver
	pattern Pattern
	color   led.Color
	state   int
	rand    func(n int) int
	logger  *slog.Logger
}

// New creates the show selected by number. Show 1 is random holiday
// lights; from 2 on the numbers cycle through the four chaser patterns,
// first in blue, then red, then both colors.
func New(leds led.Driver, number int) (*Show, error) {
	if number < 1 {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedMode, number)
	}

	s := &Show{
		leds:   leds,
		rand:   rand.IntN,
		logger: logging.GetLogger("leds"),
	}
	if number == 1 {
		s.pattern = Holiday
		return s, nil
	}

	s.pattern = Pattern((number-2)%4 + 1)
	switch (number - 2) / 4 {
	case 1:
		s.color = led.Red
	case 2:
		s.color = led.Both
	default:
		s.color = led.Blue
	}
	return s, nil
}

// Pattern returns the animation of the show.
func (s *Show) Pattern() Pattern { return s.pattern }

// Color returns the LED colors the show draws with. Holiday shows pick
// colors per frame and report 0.
func (s *Show) Color() led.Color { return s.color }

// Run draws frames until ctx is cancelled.
func (s *Show) Run(ctx context.Context) error {
	s.logger.Info("Starting light show", "pattern", s.pattern, "color", s.color)

	ticker := time.NewTicker(FrameInterval)
	defer ticker.Stop()

	for {
		if err := s.Step(); err != nil {
			return err
		}

		select {
		case <-ctx.Done():
			s.logger.Info("Light show stopped")
			return nil
		case <-ticker.C:
		}
	}
}

// Step draws a single frame and advances the animation.
func (s *Show) Step() error {
	switch s.pattern {
	case Holiday:
		for i := range showBays {
			var c led.Color
			switch s.rand(4) {
			case 1:
				c = led.Blue
			case 2:
				c = led.Red
			case 3:
				c = led.Both
			}
			if err := s.leds.Set(c, i, true); err != nil {
				return err
			}
			if err := s.leds.Set(led.Both&^c, i, false); err != nil {
				return err
			}
		}
		return nil

	case Descending:
		return s.chase(showBays-1-s.state, showBays)

	case Ascending:
		return s.chase(s.state, showBays)

	case KnightRider:
		sel := s.state
		if sel >= 3 {
			sel = 6 - sel
		}
		return s.chase(sel, 6)

	case Pulsing:
		for i := range showBays {
			if err := s.leds.Set(s.color, i, true); err != nil {
				return err
			}
		}
		level := s.state
		if level >= 9 {
			level = 16 - level
		}
		s.advance(16)
		return s.leds.SetBrightness(1 + level)
	}

	return fmt.Errorf("%w: pattern %d", ErrUnsupportedMode, s.pattern)
}

// chase lights only bay sel and advances the state modulo period.
func (s *Show) chase(sel, period int) error {
	for i := range showBays {
		if err := s.leds.Set(s.color, i, i == sel); err != nil {
			return err
		}
	}
	s.advance(period)
	return nil
}

func (s *Show) advance(period int) {
	s.state++
	if s.state >= period {
		s.state = 0
	}
}
