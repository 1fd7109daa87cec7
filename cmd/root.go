// Package cmd implements CLI commands using cobra framework.
package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"firestige.xyz/ringsniff/internal/config"
	"firestige.xyz/ringsniff/internal/log"
	"firestige.xyz/ringsniff/internal/pipeline"
)

var (
	// Global flags
	configFile    string
	udpAddr       string
	handshakeFile string
	engine        string
	mode          string
	logLevel      string
	watchConfig   bool
)

// rootCmd captures on one interface until interrupted.
var rootCmd = &cobra.Command{
	Use:   "ringsniff <interface>",
	Short: "ringsniff - zero-copy wired and 802.11 packet telemetry",
	Long: `ringsniff maps a kernel packet ring on one interface and decodes every frame
into flat metadata: Ethernet/IPv4/IPv6/TCP/UDP/ICMP on wired or managed links,
Radiotap/802.11 on monitor-mode links, including SSID discovery and EAPOL
handshake capture to a pcap file.

Each decoded packet is sent as one JSON datagram over UDP (default
127.0.0.1:5005); view the stream with 'ringsniff dashboard'.`,
	Args:          cobra.ExactArgs(1),
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runCapture,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "config file path (optional)")
	rootCmd.PersistentFlags().StringVar(&udpAddr, "udp", "", "telemetry UDP endpoint host:port")
	rootCmd.PersistentFlags().StringVar(&handshakeFile, "handshake-file", "", "pcap file for captured EAPOL frames")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (trace/debug/info/warn/error)")

	rootCmd.Flags().StringVar(&engine, "engine", "", "capture engine (ring/afpacket)")
	rootCmd.Flags().StringVar(&mode, "mode", "", "interface mode (auto/monitor/managed)")
	rootCmd.Flags().BoolVar(&watchConfig, "watch", false, "re-apply log level when the config file changes")

	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(replayCmd)
	rootCmd.AddCommand(dashboardCmd)
}

// loadConfig reads the config file and environment, then applies flags that
// were set explicitly.
func loadConfig(cmd *cobra.Command, iface string) (*config.Config, *config.Loader, error) {
	loader := config.NewLoader()
	cfg, err := loader.Load(configFile)
	if err != nil {
		return nil, nil, err
	}

	if iface != "" {
		cfg.Capture.Interface = iface
	}
	flags := cmd.Flags()
	if flags.Changed("udp") {
		cfg.Telemetry.OverrideUDP(udpAddr)
	}
	if flags.Changed("handshake-file") {
		cfg.Wireless.HandshakeFile = handshakeFile
	}
	// --engine and --mode belong to live capture only; replay has its own --mode.
	if iface != "" {
		if flags.Changed("engine") {
			cfg.Capture.Engine = engine
		}
		if flags.Changed("mode") {
			cfg.Capture.Mode = mode
		}
	}
	if flags.Changed("log-level") {
		cfg.Log.Level = logLevel
	}

	if err := cfg.ValidateAndApplyDefaults(); err != nil {
		return nil, nil, err
	}
	return cfg, loader, nil
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func runCapture(cmd *cobra.Command, args []string) error {
	cfg, loader, err := loadConfig(cmd, args[0])
	if err != nil {
		return err
	}
	if err := log.Init(cfg.Log); err != nil {
		return fmt.Errorf("init logger: %w", err)
	}

	if watchConfig && configFile != "" {
		loader.Watch(func(c *config.Config) {
			if err := log.SetLevel(c.Log.Level); err != nil {
				log.GetLogger().WithError(err).Warn("config reload: log level not applied")
				return
			}
			log.GetLogger().WithField("level", c.Log.Level).Info("config reloaded")
		}, func(err error) {
			log.GetLogger().WithError(err).Warn("config reload failed")
		})
	}

	ctx, stop := signalContext()
	defer stop()

	return pipeline.RunLive(ctx, cfg, log.GetLogger())
}
