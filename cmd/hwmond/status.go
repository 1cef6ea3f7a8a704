package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kahiteam/hwmond/internal/config"
	"github.com/kahiteam/hwmond/internal/ctl"
)

var statusConfig string
var statusAddr string
var statusJSON bool

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the pages of a running daemon",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		addr := statusAddr
		if addr == "" {
			cfg, _, _, err := config.LoadResolved(statusConfig)
			if err != nil {
				return err
			}
			addr = cfg.Daemon.MetricsListen
		}
		if addr == "" {
			return fmt.Errorf("daemon.metrics_listen is not set; pass --addr")
		}
		return ctl.NewClient(addr).Status(statusJSON, cmd.OutOrStdout())
	},
}

func init() {
	statusCmd.Flags().StringVarP(&statusConfig, "config", "c", "", "config file")
	statusCmd.Flags().StringVar(&statusAddr, "addr", "", "daemon HTTP address (default: daemon.metrics_listen)")
	statusCmd.Flags().BoolVar(&statusJSON, "json", false, "print JSON")
	rootCmd.AddCommand(statusCmd)
}
