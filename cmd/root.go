// Package cmd is the lightreq command line.
package cmd

import (
	"github.com/spf13/cobra"

	"github.com/blockberries/lightreq/internal/config"
)

var rootCmd = &cobra.Command{
	Use:   "lightreq",
	Short: "Chained light protocol requests",
	Long:  ``,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return initConfig()
	},
	SilenceUsage: true,
}

var cfgFile string

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "f", "", "config file")
	rootCmd.AddCommand(versionCommand())
	rootCmd.AddCommand(serveCommand())
	rootCmd.AddCommand(fetchCommand())
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func initConfig() error {
	config.Reset()
	err := config.ReadConfig(cfgFile)
	// Logging is set up even when the config failed to read.
	if logErr := config.SetupLogging(); logErr != nil && err == nil {
		err = logErr
	}
	return err
}
