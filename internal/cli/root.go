// Package cli implements the gameroom command line client.
package cli

import (
	"io"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/mcoot/gameroom/internal/client"
	"github.com/mcoot/gameroom/internal/logger"
)

var (
	cfg *Config
	api *client.HTTP
	log *slog.Logger
)

// NewRootCmd creates the root command
func NewRootCmd() *cobra.Command {
	cfg = DefaultConfig()

	rootCmd := &cobra.Command{
		Use:   "gameroom",
		Short: "CLI client for gameroom servers",
		Long: `gameroom is a CLI client for two-player game rooms.

It supports player management, room operations, live room watching over
WebSocket, interactive play and a bot that plays a seat unattended.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// Load token from file if not provided via flag/env
			if err := cfg.LoadToken(); err != nil {
				return err
			}

			var w io.Writer = io.Discard
			level := "warn"
			if cfg.Verbose {
				w = os.Stderr
				level = "debug"
			}
			log = logger.New(level, logger.FormatText, w)

			api = client.NewHTTP(cfg.ServerURL, cfg.Token)
			return nil
		},
		SilenceUsage: true,
	}

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfg.ServerURL, "server", cfg.ServerURL, "Server URL (env: GAMEROOM_SERVER)")
	rootCmd.PersistentFlags().StringVar(&cfg.Token, "token", cfg.Token, "Session token (env: GAMEROOM_TOKEN)")
	rootCmd.PersistentFlags().StringVar(&cfg.TokenFile, "token-file", cfg.TokenFile, "Token file path (env: GAMEROOM_TOKEN_FILE)")
	rootCmd.PersistentFlags().StringVarP(&cfg.Output, "output", "o", cfg.Output, "Output format: text, json (env: GAMEROOM_FORMAT)")
	rootCmd.PersistentFlags().BoolVarP(&cfg.Verbose, "verbose", "v", cfg.Verbose, "Verbose output")

	// Add subcommands
	rootCmd.AddCommand(newPlayerCmd())
	rootCmd.AddCommand(newRoomCmd())
	rootCmd.AddCommand(newPlayCmd())
	rootCmd.AddCommand(newBotCmd())
	rootCmd.AddCommand(newHealthCmd())

	return rootCmd
}

// Execute runs the root command
func Execute() {
	// Environment from .env, if present, fills in unset GAMEROOM_* variables
	_ = godotenv.Load()

	if err := NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
