package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/fentz26/worldtime/internal/config"
	"github.com/fentz26/worldtime/internal/observability"
)

var rootCmd = &cobra.Command{
	Use:   "wtg",
	Short: "WTG - World Time Generator",
	Long:  `wtg keeps an in-story clock for narrative sessions: it reconciles date and time on every turn, applies time commands and records a turn ledger.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := config.LoadConfig(configPath)
		if err != nil {
			return err
		}
		cfg = loaded
		observability.Setup(cfg.Log.Level, cfg.Log.Format)
		if !cmd.Flags().Changed("api") {
			apiAddr = "http://" + cfg.Listen
		}
		return nil
	},
	SilenceUsage: true,
	// No RunE - defaults to showing help when no subcommand is provided
}

var (
	apiAddr    string
	configPath string
	cfg        *config.Config
)

func init() {
	rootCmd.PersistentFlags().StringVar(&apiAddr, "api", "http://"+config.DefaultListen, "API server address")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", config.DefaultPath(), "Path to config file")

	// Add subcommands
	rootCmd.AddCommand(daemonCmd)
	rootCmd.AddCommand(sessionCmd)
	rootCmd.AddCommand(turnCmd)
	rootCmd.AddCommand(clockCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(playCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
