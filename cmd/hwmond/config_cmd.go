package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/kahiteam/hwmond/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Generate or check the configuration file",
}

var sampleOutput string
var sampleForce bool

var configSampleCmd = &cobra.Command{
	Use:   "sample",
	Short: "Print or write a sample hwmond.toml",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		content := config.DefaultConfigTOML

		if sampleOutput == "" {
			_, err := fmt.Fprint(cmd.OutOrStdout(), content)
			return err
		}

		if !sampleForce {
			if _, err := os.Stat(sampleOutput); err == nil {
				return fmt.Errorf("file %s already exists; use --force to overwrite", sampleOutput)
			}
		}

		if err := os.WriteFile(sampleOutput, []byte(content), 0644); err != nil {
			return fmt.Errorf("cannot write config: %w", err)
		}
		_, err := fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", sampleOutput)
		return err
	},
}

var checkConfigPath string

var configCheckCmd = &cobra.Command{
	Use:   "check",
	Short: "Validate the configuration file",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, path, warnings, err := config.LoadResolved(checkConfigPath)
		if err != nil {
			return err
		}

		w := cmd.OutOrStdout()
		for _, warning := range warnings {
			fmt.Fprintf(w, "warning: %s\n", warning)
		}
		if path == "" {
			path = "(built-in defaults)"
		}
		_, err = fmt.Fprintf(w, "%s: OK (%d disks, metrics %s)\n", path, len(cfg.Disks), cfg.Daemon.ListenAddr())
		return err
	},
}

func init() {
	configSampleCmd.Flags().StringVarP(&sampleOutput, "output", "o", "", "write the sample to a file instead of stdout")
	configSampleCmd.Flags().BoolVar(&sampleForce, "force", false, "overwrite an existing file")
	configCheckCmd.Flags().StringVarP(&checkConfigPath, "config", "c", "", "config file")
	configCmd.AddCommand(configSampleCmd, configCheckCmd)
	rootCmd.AddCommand(configCmd)
}
