package main

import (
	"fmt"

	"github.com/spf13/cobra"

	sqliteadapter "satark-portal/internal/adapters/store/sqlite"
	"satark-portal/internal/services/webapp"
)

func (c *cli) serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the portal web server",
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := webapp.OptionsFromConfig(c.cfg)
			return webapp.Run(cmd.Context(), opts, c.log)
		},
	}
	cmd.Flags().String("listen", "", "listen address (default 127.0.0.1:3000)")
	_ = c.v.BindPFlag("listen", cmd.Flags().Lookup("listen"))
	return cmd
}

func (c *cli) migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply local sqlite migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			// store 打开时已经迁移过一次，这里再跑一遍确认幂等
			if _, err := c.store(cmd); err != nil {
				return err
			}
			if err := sqliteadapter.NewMigrator(c.db).Up(cmd.Context()); err != nil {
				return fmt.Errorf("apply migrations: %w", err)
			}
			c.ui.Success("migrations applied: db=%s", c.cfg.DBPath)
			return nil
		},
	}
}
