package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newAccountCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "account",
		Short: "Account commands",
	}

	cmd.AddCommand(newAccountRegisterCmd())
	cmd.AddCommand(newAccountCPCmd())
	cmd.AddCommand(newAccountDetailsCmd())
	cmd.AddCommand(newAccountChangePasswordCmd())

	return cmd
}

func newAccountRegisterCmd() *cobra.Command {
	var email string

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Register a new account",
		RunE: func(cmd *cobra.Command, args []string) error {
			if cfg.Username == "" || cfg.Password == "" {
				return fmt.Errorf("--user and --pass are required")
			}
			if email == "" {
				return fmt.Errorf("--email is required")
			}

			result, err := client.Call("account/register", map[string]any{
				"username": cfg.Username,
				"email":    email,
				"password": cfg.Password,
			})
			if err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "Email address (required)")
	_ = cmd.MarkFlagRequired("email")

	return cmd
}

func newAccountCPCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "cp",
		Short: "Show the account's CP balance",
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := client.Authed("account/get_cp", nil)
			if err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	}
}

func newAccountDetailsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "details",
		Short: "Show account details",
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := client.Authed("account/get_details", nil)
			if err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	}
}

func newAccountChangePasswordCmd() *cobra.Command {
	var newPassword string

	cmd := &cobra.Command{
		Use:   "change-password",
		Short: "Change the account password",
		RunE: func(cmd *cobra.Command, args []string) error {
			if newPassword == "" {
				return fmt.Errorf("--new-pass is required")
			}

			if _, err := client.Authed("account/change_password", map[string]any{
				"password": newPassword,
			}); err != nil {
				return err
			}

			// The saved hash no longer matches; a fresh login picks up
			// the new salt.
			if err := cfg.RemoveCredentials(); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.PrintMessage("Password changed, log in again")
			return nil
		},
	}

	cmd.Flags().StringVar(&newPassword, "new-pass", "", "New password (required)")
	_ = cmd.MarkFlagRequired("new-pass")

	return cmd
}
