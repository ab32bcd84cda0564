package cli

import (
	"os"

	"github.com/spf13/cobra"
)

var (
	cfg    *Config
	client *Client
)

// NewRootCmd creates the root command
func NewRootCmd() *cobra.Command {
	cfg = DefaultConfig()

	rootCmd := &cobra.Command{
		Use:   "lobbyctl",
		Short: "CLI tool for the lobby gateway command API",
		Long: `lobbyctl talks to the lobby gateway's JSON command API.

The challenge handshake runs client-side: the password is hashed with
the account's salt and each call answers the server's pending
challenge, so the plaintext password never crosses the wire.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// Fill in saved credentials unless flags/env provided them
			if err := cfg.LoadCredentials(); err != nil {
				return err
			}

			client = NewClient(cfg.ServerURL)
			client.SetCredentials(cfg.Username, cfg.Password, cfg.PasswordHash)
			return nil
		},
		SilenceUsage: true,
	}

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfg.ServerURL, "server", cfg.ServerURL, "Server URL (env: LOBBYGATE_SERVER)")
	rootCmd.PersistentFlags().StringVar(&cfg.Username, "user", cfg.Username, "Account username (env: LOBBYGATE_USERNAME)")
	rootCmd.PersistentFlags().StringVar(&cfg.Password, "pass", cfg.Password, "Account password (env: LOBBYGATE_PASSWORD)")
	rootCmd.PersistentFlags().StringVar(&cfg.CredentialsFile, "credentials-file", cfg.CredentialsFile, "Credentials file path (env: LOBBYGATE_CREDENTIALS)")
	rootCmd.PersistentFlags().StringVarP(&cfg.Output, "output", "o", cfg.Output, "Output format: text, json")
	rootCmd.PersistentFlags().BoolVarP(&cfg.Verbose, "verbose", "v", cfg.Verbose, "Verbose output")

	// Add subcommands
	rootCmd.AddCommand(newAuthCmd())
	rootCmd.AddCommand(newAccountCmd())
	rootCmd.AddCommand(newAdminCmd())
	rootCmd.AddCommand(newHealthCmd())

	return rootCmd
}

// Execute runs the root command
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
