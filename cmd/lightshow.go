package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/danielgtaylor/huma/v2/humacli"
	"github.com/spf13/cobra"

	"github.com/smazurov/baylight/internal/led"
	"github.com/smazurov/baylight/internal/lightshow"
	"github.com/smazurov/baylight/internal/logging"
)

// CreateLightshowCmd creates the lightshow command.
func CreateLightshowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "lightshow <mode>",
		Short: "Animate the bay LEDs",
		Long: `Runs a decorative animation on the bay LEDs until interrupted. Mode 1 is random holiday ` +
			`lights; modes 2-13 cycle descending, ascending, knight rider and pulsing in blue, red and both colors.`,
		Args: cobra.ExactArgs(1),
		Run: humacli.WithOptions(func(_ *cobra.Command, args []string, opts *Options) {
			logger := logging.GetLogger("leds")

			mode, err := parseMode(args[0])
			if err != nil {
				logger.Error("Invalid light show", "mode", args[0], "error", err)
				os.Exit(1)
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			if err := runLightshow(ctx, opts, mode); err != nil {
				logger.Error("Light show failed", "error", err)
				stop()
				os.Exit(1)
			}
		}),
	}
}

func runLightshow(ctx context.Context, opts *Options, mode int) error {
	logger := logging.GetLogger("leds")

	leds, release, err := openLEDs(opts, logger)
	if err != nil {
		return err
	}
	defer release()

	show, err := lightshow.New(leds, mode)
	if err != nil {
		return err
	}

	runErr := show.Run(ctx)
	clearBays(leds)
	return runErr
}

func parseMode(s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", lightshow.ErrUnsupportedMode, s)
	}
	if n < 1 {
		return 0, fmt.Errorf("%w: %d", lightshow.ErrUnsupportedMode, n)
	}
	return n, nil
}

// clearBays turns every bay LED off and restores full brightness.
func clearBays(leds led.Driver) {
	for i := range leds.Bays() {
		_ = leds.Set(led.Both, i, false)
	}
	_ = leds.SetBrightness(led.MaxBrightness)
}
