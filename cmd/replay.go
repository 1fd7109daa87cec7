package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"firestige.xyz/ringsniff/internal/log"
	"firestige.xyz/ringsniff/internal/pipeline"
)

var replayMode string

var replayCmd = &cobra.Command{
	Use:   "replay <file.pcap>",
	Short: "Decode a pcap file through the capture pipeline",
	Long: `Read a pcap file and send every frame through the same dispatcher, decoders
and telemetry sinks as a live capture. Radiotap link type files (such as the
handshake capture file) are decoded as monitor-mode frames.

Examples:
  ringsniff replay captured_handshake.cap
  ringsniff replay --mode managed --udp 127.0.0.1:6000 trace.pcap`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, _, err := loadConfig(cmd, "")
		if err != nil {
			return err
		}
		if err := log.Init(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		ctx, stop := signalContext()
		defer stop()
		return pipeline.RunReplay(ctx, cfg, args[0], replayMode, log.GetLogger())
	},
}

func init() {
	replayCmd.Flags().StringVar(&replayMode, "mode", "", "override link type detection (monitor/managed)")
}
