package cmd

import (
	"fmt"
	"os"

	"github.com/danielgtaylor/huma/v2/humacli"
	"github.com/spf13/cobra"

	"github.com/smazurov/baylight/internal/logging"
)

// CreateUsbCmd creates the usb command.
func CreateUsbCmd() *cobra.Command {
	return &cobra.Command{
		Use:       "usb <mount|unmount>",
		Short:     "Connect or disconnect the front USB port",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"mount", "unmount"},
		Run: humacli.WithOptions(func(_ *cobra.Command, args []string, opts *Options) {
			logger := logging.GetLogger("leds")

			mount, err := parseUsbAction(args[0])
			if err != nil {
				logger.Error("Invalid usb action", "error", err)
				os.Exit(1)
			}
			if err := runUsb(opts, mount); err != nil {
				logger.Error("Failed to switch USB port", "mount", mount, "error", err)
				os.Exit(1)
			}
			logger.Info("USB port switched", "mount", mount)
		}),
	}
}

func runUsb(opts *Options, mount bool) error {
	leds, release, err := openLEDs(opts, logging.GetLogger("leds"))
	if err != nil {
		return err
	}
	defer release()
	return leds.MountUsb(mount)
}

func parseUsbAction(s string) (bool, error) {
	switch s {
	case "mount":
		return true, nil
	case "unmount":
		return false, nil
	default:
		return false, fmt.Errorf("unknown action %q, want mount or unmount", s)
	}
}
