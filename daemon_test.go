package main

import (
	"bytes"
	"io"
	"log/slog"
	"reflect"
	"strings"
	"testing"

	"github.com/smazurov/baylight/internal/led"
)

type ledCall struct {
	color led.Color
	bay   int
	on    bool
}

type recordingLEDs struct {
	calls      []ledCall
	system     []led.State
	brightness []int
}

func (r *recordingLEDs) Set(color led.Color, bay int, on bool) error {
	r.calls = append(r.calls, ledCall{color, bay, on})
	return nil
}

func (r *recordingLEDs) SetSystemLed(_ led.Color, state led.State) error {
	r.system = append(r.system, state)
	return nil
}

func (r *recordingLEDs) SetBrightness(level int) error {
	r.brightness = append(r.brightness, level)
	return nil
}

func (r *recordingLEDs) MountUsb(bool) error { return nil }
func (r *recordingLEDs) Desc() string        { return "recording" }
func (r *recordingLEDs) Bays() int           { return 2 }

func TestInitLEDs(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	tests := []struct {
		name           string
		brightness     int
		wantBrightness []int
	}{
		{"keeps hardware brightness", -1, nil},
		{"sets brightness", 4, []int{4}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			leds := &recordingLEDs{}
			initLEDs(leds, tt.brightness, logger)

			if !reflect.DeepEqual(leds.system, []led.State{led.Off}) {
				t.Errorf("system LED = %v, want [off]", leds.system)
			}
			if !reflect.DeepEqual(leds.brightness, tt.wantBrightness) {
				t.Errorf("brightness = %v, want %v", leds.brightness, tt.wantBrightness)
			}
			want := []ledCall{{led.Both, 0, false}, {led.Both, 1, false}}
			if !reflect.DeepEqual(leds.calls, want) {
				t.Errorf("calls = %v, want %v", leds.calls, want)
			}
		})
	}
}

func TestWarnIfNoop(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	noop, err := led.New(led.Config{Driver: led.DriverNoop}, logger)
	if err != nil {
		t.Fatalf("led.New() error: %v", err)
	}
	if !warnIfNoop(led.NewLocked(noop), logger) {
		t.Error("noop driver not reported")
	}
	if !strings.Contains(buf.String(), "No LED hardware found") {
		t.Errorf("missing warning in %q", buf.String())
	}

	buf.Reset()
	if warnIfNoop(&recordingLEDs{}, logger) {
		t.Error("hardware driver reported as noop")
	}
	if buf.Len() != 0 {
		t.Errorf("unexpected log output %q", buf.String())
	}
}
