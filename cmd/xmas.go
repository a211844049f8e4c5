package cmd

import (
	"os"

	"github.com/danielgtaylor/huma/v2/humacli"
	"github.com/spf13/cobra"

	"github.com/smazurov/baylight/internal/led"
	"github.com/smazurov/baylight/internal/logging"
)

// CreateXmasCmd creates the xmas command.
func CreateXmasCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "xmas",
		Short: "Light every bay LED and exit",
		Args:  cobra.NoArgs,
		Run: humacli.WithOptions(func(_ *cobra.Command, _ []string, opts *Options) {
			if err := runXmas(opts); err != nil {
				logging.GetLogger("leds").Error("Failed to light bays", "error", err)
				os.Exit(1)
			}
		}),
	}
}

func runXmas(opts *Options) error {
	leds, release, err := openLEDs(opts, logging.GetLogger("leds"))
	if err != nil {
		return err
	}
	defer release()
	return lightAll(leds)
}

// lightAll turns the system LED off and both colors of every bay on.
func lightAll(leds led.Driver) error {
	if err := leds.SetSystemLed(led.Both, led.Off); err != nil {
		return err
	}
	for i := range leds.Bays() {
		if err := leds.Set(led.Both, i, true); err != nil {
			return err
		}
	}
	return nil
}
