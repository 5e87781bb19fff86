package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/muurk/sendpair/internal/config"
	"github.com/muurk/sendpair/internal/discovery"
	"github.com/muurk/sendpair/internal/registry"
	"github.com/muurk/sendpair/internal/ui"
)

// Device command flags
var (
	forgetYes   bool
	scanTimeout time.Duration
)

func init() {
	devicesForgetCmd.Flags().BoolVarP(&forgetYes, "yes", "y", false, "Do not ask for confirmation")
	scanCmd.Flags().DurationVar(&scanTimeout, "timeout", discovery.DefaultScanTimeout, "How long to listen for announcements")

	devicesCmd.AddCommand(devicesForgetCmd)
	rootCmd.AddCommand(devicesCmd)
	rootCmd.AddCommand(scanCmd)
}

var devicesCmd = &cobra.Command{
	Use:   "devices",
	Short: "List paired and discovered devices",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		p := ui.NewPrinter(cmd.OutOrStdout())
		p.Print(ui.RenderDevices(a.devices.List(), p.Width()))
		return nil
	},
}

var devicesForgetCmd = &cobra.Command{
	Use:   "forget <id>",
	Short: "Remove a device from the registry",
	Long: `Remove a device from the registry.

The device has to pair again before files can be exchanged with it. A peer
that is still announcing itself will reappear after the next scan.`,
	Args: cobra.ExactArgs(1),
	RunE: runDevicesForget,
}

func runDevicesForget(cmd *cobra.Command, args []string) error {
	id := args[0]

	ctx := cmd.Context()
	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	entry, ok := a.devices.Get(id)
	if !ok {
		return fmt.Errorf("no device with id %q", id)
	}

	if !forgetYes {
		confirmed := ui.Confirm(cmd.InOrStdin(), cmd.OutOrStdout(),
			"Forget "+entry.Device.Name(),
			[]string{
				"The device will have to pair again",
				"Pending transfers from it will be refused",
			},
			"forget")
		if !confirmed {
			return errReported
		}
	}

	if err := a.devices.Remove(ctx, id); err != nil {
		if errors.Is(err, registry.ErrNotFound) {
			return fmt.Errorf("no device with id %q", id)
		}
		return err
	}

	ui.NewPrinter(cmd.OutOrStdout()).PrintResult(
		ui.NewSuccessResult("Device forgotten",
			ui.Param{Key: "Name", Value: entry.Device.Name()},
			ui.Param{Key: "ID", Value: id},
		))
	return nil
}

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Find peers on the local network",
	Long: `Listen for sendpair announcements over mDNS and add every peer found to
the device registry.

Devices paired manually keep their source; discovery only refreshes their
address and last-seen time.`,
	Example: `  # Scan for the default 5 seconds
  sendpair scan

  # Longer scan for busy networks
  sendpair scan --timeout 15s`,
	Args: cobra.NoArgs,
	RunE: runScan,
}

func runScan(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	selfID, err := config.InstanceID(ctx, a.store)
	if err != nil {
		return err
	}

	scanner := discovery.NewScanner(selfID)
	scanner.Timeout = scanTimeout

	fmt.Fprintf(cmd.ErrOrStderr(), "Scanning for peers (timeout: %s)...\n", scanTimeout)

	found, err := scanner.Scan(ctx)
	if err != nil {
		return fmt.Errorf("scan failed: %w", err)
	}

	p := ui.NewPrinter(cmd.OutOrStdout())
	if len(found) == 0 {
		p.PrintResult(ui.NewWarningResult("No peers found",
			ui.Param{Key: "Timeout", Value: scanTimeout.String()},
		).AddDetail("Hint", "Check that the peer is on the same network and try a longer --timeout"))
		return nil
	}

	entries := make([]registry.Entry, 0, len(found))
	for _, d := range found {
		if err := a.devices.AddDiscoveredDevice(ctx, d); err != nil {
			return fmt.Errorf("failed to record %s: %w", d.Name(), err)
		}
		if e, ok := a.devices.Get(d.ID()); ok {
			entries = append(entries, e)
		}
	}

	p.Print(ui.RenderDevices(entries, p.Width()))
	return nil
}
