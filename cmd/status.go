package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/danielgtaylor/huma/v2/humacli"
	"github.com/spf13/cobra"

	"github.com/smazurov/baylight/internal/bay"
	"github.com/smazurov/baylight/internal/device"
	"github.com/smazurov/baylight/internal/led"
	"github.com/smazurov/baylight/internal/logging"
	"github.com/smazurov/baylight/internal/systemd"
)

// serviceQueryTimeout bounds the D-Bus round trip of the status command.
const serviceQueryTimeout = 2 * time.Second

// StatusReport is what the status command prints.
type StatusReport struct {
	Service string    `json:"service,omitempty"`
	Bays    []bay.Bay `json:"bays"`
}

// CreateStatusCmd creates the status command.
func CreateStatusCmd() *cobra.Command {
	var asJSON bool
	var service bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Print the resolved bays",
		Long: `Enumerates the disks present now and prints the bay each one maps to. ` +
			`The LEDs are left untouched, so this is safe to run next to the daemon.`,
		Args: cobra.NoArgs,
		Run: humacli.WithOptions(func(c *cobra.Command, _ []string, opts *Options) {
			report, err := collectStatus(c.Context(), opts, service)
			if err != nil {
				logging.GetLogger("bays").Error("Failed to collect bay status", "error", err)
				os.Exit(1)
			}
			if err := writeStatus(os.Stdout, report, asJSON); err != nil {
				os.Exit(1)
			}
		}),
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the report as JSON")
	cmd.Flags().BoolVar(&service, "service", true, "Include the state of "+systemd.DefaultUnit)
	return cmd
}

func collectStatus(ctx context.Context, opts *Options, withService bool) (StatusReport, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	source, err := device.NewSource(opts.DeviceBackend, opts.SysfsRoot)
	if err != nil {
		return StatusReport{}, fmt.Errorf("failed to open device source: %w", err)
	}
	defer source.Close()

	report, err := resolveBays(opts, source)
	if err != nil {
		return StatusReport{}, err
	}
	if withService {
		report.Service = serviceState(ctx)
	}
	return report, nil
}

// resolveBays builds the bay table against a driver that never touches
// hardware.
func resolveBays(opts *Options, source device.Source) (StatusReport, error) {
	quiet, err := led.New(led.Config{Driver: led.DriverNoop}, logging.GetLogger("leds"))
	if err != nil {
		return StatusReport{}, err
	}

	monitor := bay.NewMonitor(bay.Config{
		SysfsRoot: opts.SysfsRoot,
		Capacity:  opts.BayCapacity,
	}, source, quiet, nil)
	if err := monitor.EnumerateAndBuild(); err != nil {
		return StatusReport{}, err
	}
	return StatusReport{Bays: monitor.Bays()}, nil
}

func serviceState(ctx context.Context) string {
	ctx, cancel := context.WithTimeout(ctx, serviceQueryTimeout)
	defer cancel()

	manager, err := systemd.NewManager(ctx)
	if err != nil {
		logging.GetLogger("systemd").Debug("System bus unavailable", "error", err)
		return "unknown"
	}
	defer manager.Close()

	state, err := manager.ServiceState(ctx, systemd.DefaultUnit)
	if err != nil {
		logging.GetLogger("systemd").Debug("Failed to query unit", "unit", systemd.DefaultUnit, "error", err)
		return "unknown"
	}
	return state
}

func writeStatus(w io.Writer, report StatusReport, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	}

	if report.Service != "" {
		fmt.Fprintf(w, "%s: %s\n", systemd.DefaultUnit, report.Service)
	}
	if len(report.Bays) == 0 {
		_, err := fmt.Fprintln(w, "No bays found")
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "BAY\tPRESENT\tSTATS\tDEVICE")
	for _, b := range report.Bays {
		fmt.Fprintf(tw, "%d\t%t\t%s\t%s\n", b.Index, b.Enabled, b.StatsPath, b.Syspath)
	}
	return tw.Flush()
}
