package led

import (
	"encoding/binary"
	"fmt"
	"os"
)

// DefaultPortPath is the character device exposing x86 I/O port space.
const DefaultPortPath = "/dev/port"

// PortIO reads and writes x86 I/O ports.
type PortIO interface {
	Inb(port uint16) (byte, error)
	Outb(port uint16, value byte) error
	Inl(port uint16) (uint32, error)
	Outl(port uint16, value uint32) error
	Close() error
}

// devPort accesses I/O ports through /dev/port, where the file offset is
// the port number. Wider accesses are issued as consecutive byte accesses.
type devPort struct {
	f *os.File
}

func openDevPort(path string) (*devPort, error) {
	f, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	return &devPort{f: f}, nil
}

func (p *devPort) Inb(port uint16) (byte, error) {
	var buf [1]byte
	if _, err := p.f.ReadAt(buf[:], int64(port)); err != nil {
		return 0, fmt.Errorf("inb 0x%04x: %w", port, err)
	}
	return buf[0], nil
}

func (p *devPort) Outb(port uint16, value byte) error {
	if _, err := p.f.WriteAt([]byte{value}, int64(port)); err != nil {
		return fmt.Errorf("outb 0x%04x: %w", port, err)
	}
	return nil
}

func (p *devPort) Inl(port uint16) (uint32, error) {
	var buf [4]byte
	if _, err := p.f.ReadAt(buf[:], int64(port)); err != nil {
		return 0, fmt.Errorf("inl 0x%04x: %w", port, err)
	}
	return binary.LittleEndian.Uint32(buf[:]), nil
}

func (p *devPort) Outl(port uint16, value uint32) error {
	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], value)
	if _, err := p.f.WriteAt(buf[:], int64(port)); err != nil {
		return fmt.Errorf("outl 0x%04x: %w", port, err)
	}
	return nil
}

func (p *devPort) Close() error {
	return p.f.Close()
}
