package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/kahiteam/hwmond/internal/config"
	"github.com/kahiteam/hwmond/internal/daemon"
	"github.com/kahiteam/hwmond/internal/logging"
	"github.com/kahiteam/hwmond/internal/version"
)

var daemonConfig string
var daemonForeground bool

var daemonCmd = &cobra.Command{
	Use:   "daemon",
	Short: "Run the hwmond daemon",
	Long: "Run the hwmond daemon. Without -f it logs to syslog and the commands it\n" +
		"runs have no stdout or stderr; with -f it logs to stderr and they inherit it.",
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, path, warnings, err := config.LoadResolved(daemonConfig)
		if err != nil {
			return err
		}

		logfile := ""
		if !daemonForeground {
			logfile = cfg.Daemon.LogFile
			if logfile == "" {
				logfile = "syslog"
			}
		}
		logger, cleanup, err := logging.DaemonLogger(cfg.Daemon.LogLevel, cfg.Daemon.LogFormat, logfile)
		if err != nil {
			return err
		}
		if cleanup != nil {
			defer cleanup()
		}

		for _, w := range warnings {
			logger.Warn("config warning", "warning", w)
		}
		if path == "" {
			logger.Info("no config file found, using built-in defaults")
		}
		logger.Info("starting hwmond", "version", version.Version, "foreground", daemonForeground)

		d := daemon.New(daemon.Options{
			Config:     cfg,
			ConfigPath: path,
			Foreground: daemonForeground,
			Logger:     logger,
		})
		return d.Run(context.Background())
	},
}

func init() {
	daemonCmd.Flags().StringVarP(&daemonConfig, "config", "c", "", "config file (default: search HWMOND_CONFIG, ./hwmond.toml, /etc/hwmond/hwmond.toml, /etc/hwmond.toml)")
	daemonCmd.Flags().BoolVarP(&daemonForeground, "foreground", "f", false, "log to stderr and let commands inherit stdout/stderr")
	rootCmd.AddCommand(daemonCmd)
}
