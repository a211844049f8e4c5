//go:build !linux

package device

import "fmt"

func newNetlinkSource(string, bool) (Source, error) {
	return nil, fmt.Errorf("%w: uevents require linux", ErrUnsupportedBackend)
}
