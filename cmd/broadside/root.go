package main

import (
	"github.com/spf13/cobra"
)

// Global flags available to all subcommands.
var configFile string

// NewRootCmd creates the root command for the Broadside CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "broadside",
		Short: "Broadside - a real-time multiplayer battleship server",
		Long: `Broadside serves real-time battleship games over WebSocket.
Clients join a game instance by id, place their ships, and trade attacks;
every state change is broadcast to all connected players.`,
	}

	// Global flag for config file path
	cmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path")

	// Add subcommands
	cmd.AddCommand(NewServeCmd())
	cmd.AddCommand(NewTokenCmd())
	cmd.AddCommand(NewStatusCmd())

	return cmd
}
