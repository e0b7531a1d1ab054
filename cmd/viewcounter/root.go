package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/vadimbarashkov/viewcounter/internal/config"
)

// NewRootCmd creates the root command.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "viewcounter",
		Short: "View counts for YouTube, VK, OK.ru, RuTube, Dzen and Telegram links",
		Long: `viewcounter resolves the view count of video and post links.

YouTube and VK are queried through their official APIs when credentials are
configured, the other platforms are scraped. A link whose count cannot be
obtained is reported with an empty value.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringP("config", "c", "", "Path to the YAML config file (defaults to $CONFIG_PATH)")

	cmd.AddCommand(NewServeCmd())
	cmd.AddCommand(NewLookupCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// loadConfig reads the config named by --config, falling back to CONFIG_PATH.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, err := cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}
	if path == "" {
		path = os.Getenv("CONFIG_PATH")
	}

	return config.Load(path)
}
