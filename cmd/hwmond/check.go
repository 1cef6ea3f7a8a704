package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/kahiteam/hwmond/internal/config"
	"github.com/kahiteam/hwmond/internal/logging"
	"github.com/kahiteam/hwmond/internal/monitor"
	"github.com/kahiteam/hwmond/internal/monitors"
	"github.com/kahiteam/hwmond/internal/panel"
	"github.com/kahiteam/hwmond/internal/process"
	"github.com/kahiteam/hwmond/internal/timedio"
)

var checkConfig string

var checkCmd = &cobra.Command{
	Use:       "check <monitor>",
	Short:     "Run one cycle of a monitor and print its record",
	Args:      cobra.ExactArgs(1),
	ValidArgs: monitors.Names,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, _, _, err := config.LoadResolved(checkConfig)
		if err != nil {
			return err
		}
		m, err := monitors.New(args[0], cfg)
		if err != nil {
			return err
		}

		logger := logging.New(logging.LogConfig{
			Level:  cfg.Daemon.LogLevel,
			Format: "text",
			Output: cmd.ErrOrStderr(),
		})

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()
		cancel, err := timedio.NewCanceller(ctx)
		if err != nil {
			return err
		}
		defer cancel.Close()

		reaper := process.NewReaper(&process.ExecSpawner{}, logger)
		reaper.Start()
		defer reaper.Stop()

		env := &monitor.Env{
			Disks:      cfg.DiskTable(),
			Cancel:     cancel,
			Reaper:     reaper,
			Foreground: true,
			Logger:     logger,
		}
		snap, checkErr := monitors.CheckOnce(env, m)

		if _, err := fmt.Fprint(cmd.OutOrStdout(), panel.RenderSnapshot(snap, env.Disks)); err != nil {
			return err
		}
		if checkErr != nil {
			return fmt.Errorf("%s: %w", m.Name(), checkErr)
		}
		return nil
	},
}

func init() {
	checkCmd.Flags().StringVarP(&checkConfig, "config", "c", "", "config file")
	rootCmd.AddCommand(checkCmd)
}
