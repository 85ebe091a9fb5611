package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/mrlokans/periodicals/internal/config"
	"github.com/mrlokans/periodicals/internal/entrypoint"
	"github.com/mrlokans/periodicals/internal/tasks"
)

// Version information - set at build time via ldflags
var (
	Version = "dev"
	Commit  = "unknown"
)

func main() {
	if err := NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

// NewRootCmd creates the root command. Without a subcommand it serves the API.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "periodicals",
		Short:   "Library periodicals backend",
		Long:    `Periodicals keeps the journal catalog, received issues, their articles and reader loans.`,
		Version: fmt.Sprintf("%s (%s)", Version, Commit),
		RunE: func(cmd *cobra.Command, _ []string) error {
			entrypoint.Run(config.NewConfig(), Version)
			return nil
		},
		SilenceUsage: true,
	}

	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newCreateAdminCmd())
	cmd.AddCommand(newOverdueCmd())
	cmd.AddCommand(newPurgeAuditCmd())

	return cmd
}

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server (default if no command given)",
		RunE: func(cmd *cobra.Command, _ []string) error {
			entrypoint.Run(config.NewConfig(), Version)
			return nil
		},
	}
}

// createAdminConfig holds the flags of the create-admin command.
type createAdminConfig struct {
	username string
	password string
	nickname string
}

func newCreateAdminCmd() *cobra.Command {
	cfg := &createAdminConfig{}

	cmd := &cobra.Command{
		Use:   "create-admin",
		Short: "Create an administrator account",
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := entrypoint.Open(config.NewConfig())
			if err != nil {
				return err
			}
			defer app.Close()

			user, err := app.CreateAdmin(cmd.Context(), cfg.username, cfg.password, cfg.nickname)
			if err != nil {
				return err
			}
			cmd.Printf("Created administrator %q (id %d)\n", user.Username, user.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&cfg.username, "username", "", "login name of the new administrator")
	cmd.Flags().StringVar(&cfg.password, "password", "", "password of the new administrator")
	cmd.Flags().StringVar(&cfg.nickname, "nickname", "", "display name (defaults to the username)")
	_ = cmd.MarkFlagRequired("username")
	_ = cmd.MarkFlagRequired("password")

	return cmd
}

func newOverdueCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "overdue",
		Short: "Print open borrowings past their due time",
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := entrypoint.Open(config.NewConfig())
			if err != nil {
				return err
			}
			defer app.Close()

			count, err := app.PrintOverdue(cmd.Context(), cmd.OutOrStdout(), time.Now())
			if err != nil {
				return err
			}
			cmd.Printf("%d overdue\n", count)
			return nil
		},
	}
}

func newPurgeAuditCmd() *cobra.Command {
	var days int

	cmd := &cobra.Command{
		Use:   "purge-audit",
		Short: "Delete audit events older than the retention period",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := config.NewConfig()
			if days <= 0 {
				days = cfg.Audit.RetentionDays
			}

			app, err := entrypoint.Open(cfg)
			if err != nil {
				return err
			}
			defer app.Close()

			deleted, err := tasks.PurgeAuditEvents(app.Audit, days)
			if err != nil {
				return err
			}
			cmd.Printf("Removed %d audit events older than %d days\n", deleted, days)
			return nil
		},
	}

	cmd.Flags().IntVar(&days, "days", 0, "retention in days (defaults to AUDIT_RETENTION_DAYS)")
	return cmd
}
