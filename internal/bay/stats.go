package bay

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// inFlightField is the 0-based position of "I/Os currently in progress" in
// a block device stat line.
const inFlightField = 7

// ReadInFlight returns the number of I/Os in flight from a block stat file.
func ReadInFlight(path string) (uint64, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	return parseInFlight(string(data))
}

func parseInFlight(line string) (uint64, error) {
	fields := strings.Fields(line)
	if len(fields) <= inFlightField {
		return 0, fmt.Errorf("short stat line: %d fields", len(fields))
	}
	v, err := strconv.ParseUint(fields[inFlightField], 10, 64)
	if err != nil {
		return 0, fmt.Errorf("bad in-flight count %q: %w", fields[inFlightField], err)
	}
	return v, nil
}

// probeStats checks that the stat file can be opened for reading.
func probeStats(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	return f.Close()
}
