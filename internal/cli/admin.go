package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newAdminCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "admin",
		Short: "Administrative commands",
	}

	cmd.AddCommand(newAdminAccountsCmd())
	cmd.AddCommand(newAdminAccountCmd())
	cmd.AddCommand(newAdminUpdateCmd())
	cmd.AddCommand(newAdminDeleteCmd())
	cmd.AddCommand(newAdminKickCmd())
	cmd.AddCommand(newAdminMessageCmd())
	cmd.AddCommand(newAdminOnlineCmd())
	cmd.AddCommand(newAdminPostItemsCmd())
	cmd.AddCommand(newAdminPromosCmd())

	return cmd
}

func newAdminAccountsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "accounts",
		Short: "List all accounts",
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := client.Authed("admin/get_accounts", nil)
			if err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	}
}

func newAdminAccountCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "account <username>",
		Short: "Show one account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := client.Authed("admin/get_account", map[string]any{
				"target_username": args[0],
			})
			if err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	}
}

func newAdminUpdateCmd() *cobra.Command {
	var (
		displayName string
		password    string
		cp          int64
		tickets     int
		level       int
		disable     bool
		enable      bool
		banReason   string
	)

	cmd := &cobra.Command{
		Use:   "update <username>",
		Short: "Update account fields",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if disable && enable {
				return fmt.Errorf("--enable and --disable are mutually exclusive")
			}

			fields := map[string]any{"target_username": args[0]}
			if cmd.Flags().Changed("display-name") {
				fields["display_name"] = displayName
			}
			if cmd.Flags().Changed("password") {
				fields["password"] = password
			}
			if cmd.Flags().Changed("cp") {
				fields["cp"] = cp
			}
			if cmd.Flags().Changed("tickets") {
				fields["ticket_count"] = tickets
			}
			if cmd.Flags().Changed("level") {
				fields["user_level"] = level
			}
			if enable {
				fields["enabled"] = true
			}
			if disable {
				fields["enabled"] = false
				fields["ban_reason"] = banReason
			}
			if len(fields) == 1 {
				return fmt.Errorf("nothing to update")
			}

			result, err := client.Authed("admin/update_account", fields)
			if err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	}

	cmd.Flags().StringVar(&displayName, "display-name", "", "New display name")
	cmd.Flags().StringVar(&password, "password", "", "Reset the password")
	cmd.Flags().Int64Var(&cp, "cp", 0, "Set the CP balance")
	cmd.Flags().IntVar(&tickets, "tickets", 0, "Character ticket count")
	cmd.Flags().IntVar(&level, "level", 0, "User level (0-1000)")
	cmd.Flags().BoolVar(&enable, "enable", false, "Re-enable the account")
	cmd.Flags().BoolVar(&disable, "disable", false, "Disable (ban) the account")
	cmd.Flags().StringVar(&banReason, "reason", "", "Ban reason, with --disable")

	return cmd
}

func newAdminDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <username>",
		Short: "Delete an account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := client.Authed("admin/delete_account", map[string]any{
				"target_username": args[0],
			}); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.PrintMessage(fmt.Sprintf("Deleted %s", args[0]))
			return nil
		},
	}
}

func newAdminKickCmd() *cobra.Command {
	var severity int

	cmd := &cobra.Command{
		Use:   "kick <username>",
		Short: "Kick a player from their gameplay session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := client.Authed("admin/kick_player", map[string]any{
				"target_username": args[0],
				"kicklevel":       severity,
			}); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.PrintMessage(fmt.Sprintf("Kicked %s", args[0]))
			return nil
		},
	}

	cmd.Flags().IntVar(&severity, "severity", 1, "Kick severity (1-3)")

	return cmd
}

func newAdminMessageCmd() *cobra.Command {
	var (
		peer    string
		channel string
		message string
	)

	cmd := &cobra.Command{
		Use:   "message",
		Short: "Broadcast a message to every client on a peer",
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := client.Authed("admin/message_world", map[string]any{
				"peer":    peer,
				"channel": channel,
				"message": message,
			}); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.PrintMessage("Message sent")
			return nil
		},
	}

	cmd.Flags().StringVar(&peer, "peer", "", "Peer ID (required)")
	cmd.Flags().StringVar(&channel, "channel", "console", "Channel: console, ticker")
	cmd.Flags().StringVar(&message, "message", "", "Message text (required)")
	_ = cmd.MarkFlagRequired("peer")
	_ = cmd.MarkFlagRequired("message")

	return cmd
}

func newAdminOnlineCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "online",
		Short: "List live gameplay sessions",
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := client.Authed("admin/online", nil)
			if err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	}
}

func newAdminPostItemsCmd() *cobra.Command {
	var (
		items string
		cp    int64
	)

	cmd := &cobra.Command{
		Use:   "post-items <username>",
		Short: "Grant items to an account, charging CP",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := client.Authed("admin/post_items", map[string]any{
				"target_username": args[0],
				"items":           items,
				"cp":              cp,
			})
			if err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	}

	cmd.Flags().StringVar(&items, "items", "", "Comma-separated item IDs (required)")
	cmd.Flags().Int64Var(&cp, "cp", 0, "CP cost to charge")
	_ = cmd.MarkFlagRequired("items")

	return cmd
}

func newAdminPromosCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "promo",
		Short: "Promotion management",
	}

	cmd.AddCommand(newAdminPromoListCmd())
	cmd.AddCommand(newAdminPromoCreateCmd())
	cmd.AddCommand(newAdminPromoDeleteCmd())

	return cmd
}

func newAdminPromoListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List promotions",
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := client.Authed("admin/get_promos", nil)
			if err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	}
}

func newAdminPromoCreateCmd() *cobra.Command {
	var (
		start     int64
		end       int64
		useLimit  int
		limitType string
		items     string
	)

	cmd := &cobra.Command{
		Use:   "create <code>",
		Short: "Create a promotion",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := client.Authed("admin/create_promo", map[string]any{
				"code":       args[0],
				"start_time": start,
				"end_time":   end,
				"use_limit":  useLimit,
				"limit_type": limitType,
				"items":      items,
			})
			if err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	}

	cmd.Flags().Int64Var(&start, "start", 0, "Window start, unix seconds (required)")
	cmd.Flags().Int64Var(&end, "end", 0, "Window end, unix seconds (required)")
	cmd.Flags().IntVar(&useLimit, "use-limit", 1, "Redemptions per account/character/world")
	cmd.Flags().StringVar(&limitType, "limit-type", "account", "Limit scope: account, character, world")
	cmd.Flags().StringVar(&items, "items", "", "Comma-separated item IDs (required)")
	_ = cmd.MarkFlagRequired("start")
	_ = cmd.MarkFlagRequired("end")
	_ = cmd.MarkFlagRequired("items")

	return cmd
}

func newAdminPromoDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <code>",
		Short: "Delete every promotion with a code",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := client.Authed("admin/delete_promo", map[string]any{
				"code": args[0],
			})
			if err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	}
}
