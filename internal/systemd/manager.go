package systemd

import (
	"context"
	"strings"

	"github.com/coreos/go-systemd/v22/dbus"
)

// DefaultUnit is the unit name the daemon is installed under.
const DefaultUnit = "baylightd.service"

// Manager queries the system service manager over D-Bus.
type Manager struct {
	conn *dbus.Conn
}

// NewManager connects to the system D-Bus instance of systemd.
func NewManager(ctx context.Context) (*Manager, error) {
	conn, err := dbus.NewSystemConnectionContext(ctx)
	if err != nil {
		return nil, err
	}
	return &Manager{conn: conn}, nil
}

// ServiceState returns the ActiveState property of a unit, e.g. "active".
func (m *Manager) ServiceState(ctx context.Context, unit string) (string, error) {
	prop, err := m.conn.GetUnitPropertyContext(ctx, unit, "ActiveState")
	if err != nil {
		return "", err
	}
	return strings.Trim(prop.Value.String(), `"`), nil
}

// Close closes the D-Bus connection.
func (m *Manager) Close() {
	if m.conn != nil {
		m.conn.Close()
	}
}
