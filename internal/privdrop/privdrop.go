// Package privdrop switches the process to an unprivileged user once the
// hardware has been opened.
package privdrop

import (
	"errors"
	"fmt"
	"log/slog"
	"os/user"
	"strconv"

	"golang.org/x/sys/unix"

	"github.com/smazurov/baylight/internal/logging"
)

// DefaultUser is the account the daemon runs as after start-up.
const DefaultUser = "nobody"

// ErrUnknownUser is returned when the target account does not exist.
var ErrUnknownUser = errors.New("unknown user")

// Credentials are the numeric ids of an account.
type Credentials struct {
	Name string
	UID  int
	GID  int
}

// Lookup resolves an account name or numeric uid.
func Lookup(name string) (Credentials, error) {
	if name == "" {
		name = DefaultUser
	}

	u, err := user.Lookup(name)
	if err != nil {
		var unknown user.UnknownUserError
		if errors.As(err, &unknown) {
			if u, err = user.LookupId(name); err != nil {
				return Credentials{}, fmt.Errorf("%w: %s", ErrUnknownUser, name)
			}
		} else {
			return Credentials{}, fmt.Errorf("failed to look up user %s: %w", name, err)
		}
	}

	uid, err := strconv.Atoi(u.Uid)
	if err != nil {
		return Credentials{}, fmt.Errorf("user %s has non-numeric uid %q", name, u.Uid)
	}
	gid, err := strconv.Atoi(u.Gid)
	if err != nil {
		return Credentials{}, fmt.Errorf("user %s has non-numeric gid %q", name, u.Gid)
	}
	return Credentials{Name: u.Username, UID: uid, GID: gid}, nil
}

// Drop switches to the named user. It does nothing when the process is
// not running as root or already runs as that user.
func Drop(name string) error {
	logger := logging.GetLogger("privdrop")

	creds, err := Lookup(name)
	if err != nil {
		return err
	}
	return drop(creds, unix.Getuid(), sysSetter{}, logger)
}

type setter interface {
	Setgroups(gids []int) error
	Setgid(gid int) error
	Setuid(uid int) error
}

type sysSetter struct{}

func (sysSetter) Setgroups(gids []int) error { return unix.Setgroups(gids) }
func (sysSetter) Setgid(gid int) error       { return unix.Setgid(gid) }
func (sysSetter) Setuid(uid int) error       { return unix.Setuid(uid) }

func drop(creds Credentials, current int, s setter, logger *slog.Logger) error {
	if current == creds.UID {
		logger.Debug("Already running as target user", "user", creds.Name)
		return nil
	}
	if current != 0 {
		logger.Info("Not running as root, keeping current user", "uid", current)
		return nil
	}

	// Group first: after setuid the process may no longer change it.
	if err := s.Setgroups([]int{creds.GID}); err != nil {
		return fmt.Errorf("setgroups %d: %w", creds.GID, err)
	}
	if err := s.Setgid(creds.GID); err != nil {
		return fmt.Errorf("setgid %d: %w", creds.GID, err)
	}
	if err := s.Setuid(creds.UID); err != nil {
		return fmt.Errorf("setuid %d: %w", creds.UID, err)
	}

	logger.Info("Dropped privileges", "user", creds.Name, "uid", creds.UID, "gid", creds.GID)
	return nil
}
