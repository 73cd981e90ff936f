package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Dodecahedr0x/amm-tutorial/internal/config"
)

var (
	// Global flags
	configFile string
	verbose    bool
	quiet      bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "ammd",
	Short: "ammd - constant-product AMM exchange daemon",
	Long: `ammd runs a constant-product automated market maker as a standalone
daemon. It keeps pools, deposits and token balances in a local key-value
ledger, applies transactions through a deterministic engine, and exposes
the exchange over HTTP JSON-RPC and websocket subscriptions.`,
	Version: "0.1.0",
}

// Execute adds all child commands to the root command and sets flags
// appropriately. This is called by main.main().
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "conf", "", "configuration file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose logging")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "suppress output to console after startup")
}

// loadConfig resolves the effective configuration, honoring --conf.
func loadConfig() (*config.Config, error) {
	if configFile != "" {
		return config.LoadConfig(configFile)
	}
	return config.LoadDefaultConfig()
}
