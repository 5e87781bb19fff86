package main

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/muurk/sendpair/internal/config"
	"github.com/muurk/sendpair/internal/device"
	"github.com/muurk/sendpair/internal/discovery"
	"github.com/muurk/sendpair/internal/logging"
	"github.com/muurk/sendpair/internal/pairing"
	"github.com/muurk/sendpair/internal/ui"
)

// Pair command flags
var (
	pairStdin    bool
	codePort     int
	codeProtocol string
	codeAddress  string
)

func init() {
	pairCmd.Flags().BoolVar(&pairStdin, "stdin", false, "Read codes from stdin, one scan per line, until EOF")
	pairCodeCmd.Flags().IntVar(&codePort, "port", discovery.DefaultPort, "Port advertised in the code")
	pairCodeCmd.Flags().StringVar(&codeProtocol, "protocol", device.ProtocolHTTP, "Protocol advertised in the code (http, https)")
	pairCodeCmd.Flags().StringVar(&codeAddress, "address", "", "Address advertised in the code (optional)")

	pairCmd.AddCommand(pairCodeCmd)
	rootCmd.AddCommand(pairCmd)
}

var pairCmd = &cobra.Command{
	Use:   "pair [code]",
	Short: "Pair a device from its pairing code",
	Long: `Pair a device from its pairing code.

A pairing code is a small JSON object carrying at least the peer's "id" and
"name". Pass it as an argument, or use --stdin to read codes from a scanner
that types one code per line. Tab-separated codes on one line are treated as
a single scan and only the first valid one is used.`,
	Example: `  # Pair from a pasted code
  sendpair pair '{"id":"4f0c...","name":"Laptop","port":53317}'

  # Read codes from a keyboard-wedge scanner
  sendpair pair --stdin`,
	Args: cobra.MaximumNArgs(1),
	RunE: runPair,
}

func runPair(cmd *cobra.Command, args []string) error {
	if pairStdin == (len(args) == 1) {
		return fmt.Errorf("pass exactly one of a code argument or --stdin")
	}

	ctx := cmd.Context()
	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	p := ui.NewPrinter(cmd.OutOrStdout())

	if !pairStdin {
		ing, err := pairing.New(pairing.Options{Registry: a.devices})
		if err != nil {
			return err
		}
		defer ing.Close()

		out := ing.Submit(ctx, args[0])
		p.PrintResult(ui.PairingOutcome(out))
		if out.Status != pairing.StatusAccepted {
			return errReported
		}
		return nil
	}

	var mu sync.Mutex
	ing, err := pairing.New(pairing.Options{
		Registry: a.devices,
		Haptics:  bell{w: cmd.ErrOrStderr()},
		OnResult: func(out pairing.Outcome) {
			mu.Lock()
			defer mu.Unlock()
			p.PrintResult(ui.PairingOutcome(out))
		},
	})
	if err != nil {
		return err
	}
	defer ing.Close()

	fmt.Fprintln(cmd.ErrOrStderr(), "Waiting for pairing codes (Ctrl+D to finish)...")
	return ing.Run(ctx, pairing.NewLineSource(cmd.InOrStdin()))
}

// bell rings the terminal bell as the detection pulse.
type bell struct {
	w io.Writer
}

func (b bell) Pulse(context.Context) error {
	_, err := io.WriteString(b.w, "\a")
	return err
}

var pairCodeCmd = &cobra.Command{
	Use:   "code",
	Short: "Print this device's pairing code",
	Long: `Print the pairing code other devices scan to pair with this one.

The code carries this install's id and its current device name.`,
	Args: cobra.NoArgs,
	RunE: runPairCode,
}

func runPairCode(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	self, err := selfDevice(ctx, a)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), pairing.EncodePayload(self))
	return nil
}

// selfDevice describes this install the way peers will see it.
func selfDevice(ctx context.Context, a *app) (*device.Device, error) {
	id, err := config.InstanceID(ctx, a.store)
	if err != nil {
		return nil, err
	}
	if err := a.settings.WaitReady(ctx); err != nil {
		return nil, err
	}

	opts := []device.Option{
		device.WithPort(codePort),
		device.WithProtocol(strings.ToLower(codeProtocol)),
	}
	if codeAddress != "" {
		opts = append(opts, device.WithAddress(codeAddress))
	}
	d, err := device.New(id, a.settings.Current().Settings.DeviceName, opts...)
	if err != nil {
		logging.Error("Cannot build pairing code", zap.Error(err))
		return nil, fmt.Errorf("cannot build pairing code: %w", err)
	}
	return d, nil
}
