package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/newthinker/stockwatch/internal/config"
	"github.com/spf13/cobra"
)

var (
	cfgFile string
	debug   bool
)

var rootCmd = &cobra.Command{
	Use:   "stockwatch",
	Short: "stockwatch - ticker search and watchlist dashboard",
	Long: `stockwatch resolves company names to ticker symbols, shows company
overviews, and keeps a persisted watchlist of symbols sorted by live price.
Market data comes from Financial Modeling Prep; set FMP_API_KEY or
provider.api_key in the config file.`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		// A missing .env is normal.
		_ = godotenv.Load()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&debug, "debug", "d", false, "enable debug mode")
}

// loadConfig reads --config when given, otherwise the defaults, and
// validates the result.
func loadConfig() (*config.Config, error) {
	var cfg *config.Config
	var err error

	if cfgFile != "" {
		cfg, err = config.Load(cfgFile)
		if err != nil {
			return nil, fmt.Errorf("loading config: %w", err)
		}
	} else {
		cfg = config.Defaults()
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
