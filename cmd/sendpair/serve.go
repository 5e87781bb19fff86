package main

import (
	"context"
	"fmt"
	"sync"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/muurk/sendpair/internal/config"
	"github.com/muurk/sendpair/internal/device"
	"github.com/muurk/sendpair/internal/discovery"
	"github.com/muurk/sendpair/internal/logging"
	"github.com/muurk/sendpair/internal/pairing"
	"github.com/muurk/sendpair/internal/server"
	"github.com/muurk/sendpair/internal/settings"
	"github.com/muurk/sendpair/internal/version"
)

// Serve command flags
var (
	serveHost   string
	servePort   int
	certPath    string
	keyPath     string
	noAnnounce  bool
	noDiscovery bool
)

func init() {
	serveCmd.Flags().StringVar(&serveHost, "host", "127.0.0.1", "Address to bind the API to")
	serveCmd.Flags().IntVar(&servePort, "port", discovery.DefaultPort, "API port")
	serveCmd.Flags().StringVar(&certPath, "cert", "", "Path to TLS certificate file (serves HTTPS together with --key)")
	serveCmd.Flags().StringVar(&keyPath, "key", "", "Path to TLS private key file")
	serveCmd.Flags().BoolVar(&noAnnounce, "no-announce", false, "Do not advertise this device over mDNS")
	serveCmd.Flags().BoolVar(&noDiscovery, "no-discovery", false, "Do not record peers announcing on the network")

	rootCmd.AddCommand(serveCmd)
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the local settings and pairing API",
	Long: `Run the local HTTP API until interrupted.

While running, this device is advertised over mDNS under its current device
name (renames are picked up live) and peers announcing themselves are added
to the device registry.

See the API routes in the server package documentation; settings changes can
be watched over a websocket at /api/v1/settings/watch.`,
	Example: `  # Loopback only (default)
  sendpair serve

  # Reachable from the LAN over HTTPS
  sendpair serve --host 0.0.0.0 --cert cert.pem --key key.pem`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	if (certPath == "") != (keyPath == "") {
		return fmt.Errorf("both --cert and --key must be provided together")
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	if err := a.settings.WaitReady(ctx); err != nil {
		return err
	}

	selfID, err := config.InstanceID(ctx, a.store)
	if err != nil {
		return err
	}

	ing, err := pairing.New(pairing.Options{
		Registry: a.devices,
		OnResult: func(out pairing.Outcome) {
			if out.Status == pairing.StatusAccepted {
				logging.Info("Paired device", zap.String("device", out.Device.String()))
				return
			}
			logging.Info("Pairing code rejected", zap.String("reason", out.Reason()))
		},
	})
	if err != nil {
		return err
	}
	defer ing.Close()

	cfg := server.Config{
		Host:     serveHost,
		Port:     servePort,
		CertPath: certPath,
		KeyPath:  keyPath,
	}
	srv, err := server.New(cfg, server.Deps{
		Settings: a.settings,
		Pairing:  ing,
		Devices:  a.devices,
	})
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	var wg sync.WaitGroup
	defer wg.Wait()
	defer cancel()

	if !noAnnounce {
		ann, err := discovery.Announce(discovery.AnnounceOptions{
			ID:       selfID,
			Name:     a.settings.Current().Settings.DeviceName,
			Version:  version.Short(),
			Port:     servePort,
			Protocol: serveProtocol(),
		})
		if err != nil {
			// The API is still useful without the advertisement
			logging.Warn("mDNS announcement disabled", zap.Error(err))
		} else {
			wg.Add(1)
			go func() {
				defer wg.Done()
				defer ann.Shutdown()
				followDeviceName(ctx, a.settings, ann)
			}()
		}
	}

	if !noDiscovery {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := discovery.NewScanner(selfID).Feed(ctx, a.devices); err != nil {
				logging.Warn("Peer discovery stopped", zap.Error(err))
			}
		}()
	}

	fmt.Fprintf(cmd.ErrOrStderr(), "Serving on %s://%s (Ctrl+C to stop)\n", serveProtocol(), cfg.Addr())
	return srv.Start(ctx)
}

func serveProtocol() string {
	if certPath != "" {
		return device.ProtocolHTTPS
	}
	return device.ProtocolHTTP
}

// followDeviceName keeps the announcement's name in step with the settings
// until ctx is done or the coordinator closes.
func followDeviceName(ctx context.Context, c *settings.Coordinator, ann *discovery.Announcement) {
	sub := c.Subscribe()
	defer sub.Close()

	for {
		select {
		case snap, ok := <-sub.Updates():
			if !ok {
				return
			}
			ann.SetName(snap.Settings.DeviceName)
		case <-ctx.Done():
			return
		}
	}
}
