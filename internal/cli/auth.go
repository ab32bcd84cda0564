package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newAuthCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Credential management commands",
	}

	cmd.AddCommand(newAuthLoginCmd())
	cmd.AddCommand(newAuthLogoutCmd())

	return cmd
}

func newAuthLoginCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "login",
		Short: "Verify credentials and save the salted hash",
		RunE: func(cmd *cobra.Command, args []string) error {
			if cfg.Username == "" || cfg.Password == "" {
				return fmt.Errorf("--user and --pass are required")
			}
			client.SetCredentials(cfg.Username, cfg.Password, "")

			// An authenticated probe proves the password before the
			// hash is persisted.
			if _, err := client.Authed("account/get_cp", nil); err != nil {
				return err
			}

			if err := cfg.SaveCredentials(client.Username(), client.PasswordHash()); err != nil {
				return fmt.Errorf("failed to save credentials: %w", err)
			}

			out := NewOutput(cfg.Output)
			out.PrintMessage(fmt.Sprintf("Logged in as %s", client.Username()))
			return nil
		},
	}
}

func newAuthLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Remove saved credentials",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cfg.RemoveCredentials(); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.PrintMessage("Logged out")
			return nil
		},
	}
}
