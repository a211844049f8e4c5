package led

import (
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"
)

type portWrite struct {
	port  uint16
	value byte
}

// fakePort emulates the SuperI/O configuration ports and flat register
// memory for everything else.
type fakePort struct {
	mem    map[uint16]byte
	sio    map[byte]byte
	index  byte
	writes []portWrite
	closed bool
}

func newFakePort() *fakePort {
	return &fakePort{
		mem: make(map[uint16]byte),
		sio: map[byte]byte{
			sioIdxID:      0x86,
			sioIdxAlt:     0x00,
			sioIdxBaseMSB: 0x0a,
			sioIdxBaseLSB: 0x00,
		},
	}
}

func isSIOIndex(port uint16) bool { return port == sioPrimary || port == sioAlternate }
func isSIOData(port uint16) bool  { return port == sioPrimary+1 || port == sioAlternate+1 }

func (f *fakePort) Inb(port uint16) (byte, error) {
	if isSIOData(port) {
		return f.sio[f.index], nil
	}
	return f.mem[port], nil
}

func (f *fakePort) Outb(port uint16, value byte) error {
	switch {
	case isSIOIndex(port):
		f.index = value
	case isSIOData(port):
		f.sio[f.index] = value
	default:
		f.mem[port] = value
		f.writes = append(f.writes, portWrite{port, value})
	}
	return nil
}

func (f *fakePort) Inl(port uint16) (uint32, error) {
	var buf [4]byte
	for i := range buf {
		buf[i] = f.mem[port+uint16(i)]
	}
	return binary.LittleEndian.Uint32(buf[:]), nil
}

func (f *fakePort) Outl(port uint16, value uint32) error {
	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], value)
	for i, b := range buf {
		f.mem[port+uint16(i)] = b
	}
	return nil
}

func (f *fakePort) Close() error {
	f.closed = true
	return nil
}

func (f *fakePort) reg32(port uint16) uint32 {
	v, _ := f.Inl(port)
	return v
}

func (f *fakePort) wrote(port uint16) (byte, bool) {
	for i := len(f.writes) - 1; i >= 0; i-- {
		if f.writes[i].port == port {
			return f.writes[i].value, true
		}
	}
	return 0, false
}

const testGPIOBase = 0x480

// writeLPCConfig creates an ICH9 LPC config space file under a fake sysfs.
func writeLPCConfig(t *testing.T, root string, id, gpioBase uint32) {
	t.Helper()

	cfg := make([]byte, 256)
	binary.LittleEndian.PutUint32(cfg[0:4], id)
	binary.LittleEndian.PutUint32(cfg[lpcGPIOBaseReg:lpcGPIOBaseReg+4], gpioBase)

	path := filepath.Join(root, lpcConfigPath)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, cfg, 0o644); err != nil {
		t.Fatal(err)
	}
}
