//go:build !linux || !cgo

package device

import "fmt"

func newLibudevSource() (Source, error) {
	return nil, fmt.Errorf("%w: libudev backend requires a cgo build", ErrUnsupportedBackend)
}
