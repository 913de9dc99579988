// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Broadside Contributors

package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/broadside/broadside/internal/auth"
	"github.com/broadside/broadside/internal/config"
)

// tokenConfig holds configuration for the token command.
type tokenConfig struct {
	uid            string
	gid            string
	players        []string
	issuer         string
	privateKeyFile string
	ttl            time.Duration
}

// Validate checks that the configuration is valid.
func (cfg *tokenConfig) Validate() error {
	if cfg.uid == "" {
		return fmt.Errorf("uid is required")
	}
	if cfg.gid == "" {
		return fmt.Errorf("gid is required")
	}
	if len(cfg.players) == 0 {
		return fmt.Errorf("players is required")
	}
	if cfg.privateKeyFile == "" {
		return fmt.Errorf("private-key-file is required")
	}
	return nil
}

// NewTokenCmd creates the token subcommand.
func NewTokenCmd() *cobra.Command {
	cfg := &tokenConfig{}

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint a game admittance token",
		Long: `Mint a signed bearer token admitting a player to a game instance.
The lobby API issues these in production; this command exists for local
testing against a server running with --auth-enabled.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runToken(cmd, cfg)
		},
	}

	cmd.Flags().StringVar(&cfg.uid, "uid", "", "user id the token is issued to")
	cmd.Flags().StringVar(&cfg.gid, "gid", "", "game id the token admits the user to")
	cmd.Flags().StringSliceVar(&cfg.players, "players", nil, "authorized player roster for the game")
	cmd.Flags().StringVar(&cfg.issuer, "issuer", config.DefaultTokenIssuer, "token issuer")
	cmd.Flags().StringVar(&cfg.privateKeyFile, "private-key-file", "", "PEM file with the RSA signing key")
	cmd.Flags().DurationVar(&cfg.ttl, "ttl", auth.DefaultTokenTTL, "token time to live")

	return cmd
}

// runToken executes the token command.
func runToken(cmd *cobra.Command, cfg *tokenConfig) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	gen, err := auth.NewGeneratorFromFile(cfg.issuer, cfg.privateKeyFile, cfg.ttl)
	if err != nil {
		return fmt.Errorf("failed to load signing key: %w", err)
	}

	token, err := gen.Generate(cfg.uid, cfg.gid, cfg.players)
	if err != nil {
		return fmt.Errorf("failed to mint token: %w", err)
	}

	cmd.Println(token)
	return nil
}
