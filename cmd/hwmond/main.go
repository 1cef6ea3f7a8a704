package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:           "hwmond",
	Short:         "hwmond -- NAS hardware health monitor",
	Long:          "hwmond watches load, CPU and disk temperatures and disk health, and drives the front panel, alert LEDs and system fan.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
