package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/soliplex/flasharb/config"
	"github.com/soliplex/flasharb/utils"
)

var (
	cfgFile string
	debug   bool
)

var rootCmd = &cobra.Command{
	Use:   "flasharb",
	Short: "A flash-loan arbitrage opportunity engine",
	Long: `A flash-loan arbitrage engine that scans cached venue prices for
direct and triangular closed-loop routes, nets out fees, slippage and network
cost, scores confidence, and executes the best candidate one at a time.`,
}

func Execute() error {
	return rootCmd.Execute()
}

func ExecuteContext(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	cobra.OnInitialize(initLogging)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is built-in defaults)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")
}

func initLogging() {
	if !debug {
		debug = config.GetEnvWithDefault(config.EnvDebug, "") != ""
	}
	utils.InitLogger(debug)
}
