package cmd

import (
	"github.com/spf13/cobra"

	"firestige.xyz/ringsniff/internal/config"
	"firestige.xyz/ringsniff/internal/dashboard"
)

var dashboardListen string

var dashboardCmd = &cobra.Command{
	Use:   "dashboard",
	Short: "Show the live telemetry stream in the terminal",
	Long: `Listen for ringsniff JSON datagrams and show the latest packets, top
sources, protocol breakdown and total traffic. Press q to quit.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signalContext()
		defer stop()
		return dashboard.Run(ctx, dashboardListen)
	},
}

func init() {
	dashboardCmd.Flags().StringVar(&dashboardListen, "listen", config.DefaultUDPAddress, "UDP address to listen on")
}
