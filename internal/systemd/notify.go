// Package systemd integrates the daemon with the service manager.
package systemd

import (
	"fmt"
	"log/slog"

	"github.com/coreos/go-systemd/v22/daemon"

	"github.com/smazurov/baylight/internal/logging"
)

// Notifier reports lifecycle changes through sd_notify. Outside a
// systemd unit every call is a no-op.
type Notifier struct {
	logger *slog.Logger

	// notify is replaced in tests.
	notify func(state string) (bool, error)
}

// NewNotifier creates a notifier bound to $NOTIFY_SOCKET.
func NewNotifier() *Notifier {
	return &Notifier{
		logger: logging.GetLogger("systemd"),
		notify: func(state string) (bool, error) { return daemon.SdNotify(false, state) },
	}
}

// Ready tells systemd start-up has finished.
func (n *Notifier) Ready() { n.send(daemon.SdNotifyReady) }

// Stopping tells systemd shutdown has begun.
func (n *Notifier) Stopping() { n.send(daemon.SdNotifyStopping) }

// Reloading tells systemd the configuration is being reloaded.
func (n *Notifier) Reloading() { n.send(daemon.SdNotifyReloading) }

// Status sets the free-form status line shown by systemctl status.
func (n *Notifier) Status(format string, args ...any) {
	n.send("STATUS=" + fmt.Sprintf(format, args...))
}

func (n *Notifier) send(state string) {
	sent, err := n.notify(state)
	if err != nil {
		n.logger.Warn("sd_notify failed", "state", state, "error", err)
		return
	}
	if sent {
		n.logger.Debug("sd_notify", "state", state)
	}
}
