package main

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"satark-portal/internal/adapters/leadsapi"
	sqliteadapter "satark-portal/internal/adapters/store/sqlite"
	"satark-portal/internal/app"
	"satark-portal/internal/platform/logging"
)

// cli 持有一次命令执行期间共享的依赖。
type cli struct {
	v       *viper.Viper
	cfgFile string

	cfg app.Config
	log *zap.Logger
	ui  *UI

	db *sql.DB
}

func newRootCmd() *cobra.Command {
	c := &cli{v: app.NewViper()}

	root := &cobra.Command{
		Use:           "portal-cli",
		Short:         "Satark portal: public intelligence feed, dossiers and officer tooling",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return c.init(cmd)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			c.close()
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&c.cfgFile, "config", "", "config file (default ./satark.yaml or ~/.config/satark/satark.yaml)")
	pf.String("api", "", "leads backend base url")
	pf.String("db", "", "local sqlite database path")
	pf.String("log-level", "", "log level: debug|info|warn|error")
	pf.String("log-format", "", "log format: json|console")
	_ = c.v.BindPFlag("api_base_url", pf.Lookup("api"))
	_ = c.v.BindPFlag("db_path", pf.Lookup("db"))
	_ = c.v.BindPFlag("log_level", pf.Lookup("log-level"))
	_ = c.v.BindPFlag("log_format", pf.Lookup("log-format"))

	root.AddCommand(
		c.serveCmd(),
		c.migrateCmd(),
		c.versionCmd(),
		c.leadsCmd(),
		c.trackCmd(),
		c.publishCmd(),
		c.schemaCmd(),
		c.auditCmd(),
		c.exportsCmd(),
	)
	return root
}

func (c *cli) init(cmd *cobra.Command) error {
	cfg, err := app.LoadConfig(c.v, c.cfgFile)
	if err != nil {
		return err
	}
	c.cfg = cfg

	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return err
	}
	c.log = logger
	c.ui = NewUI(cmd.OutOrStdout(), cmd.ErrOrStderr())
	return nil
}

func (c *cli) close() {
	if c.db != nil {
		_ = c.db.Close()
		c.db = nil
	}
	if c.log != nil {
		_ = c.log.Sync()
	}
}

// store 按需打开本地库（会自动执行迁移）。
func (c *cli) store(cmd *cobra.Command) (*sqliteadapter.Store, error) {
	if c.db == nil {
		if err := os.MkdirAll(filepath.Dir(c.cfg.DBPath), 0o755); err != nil {
			return nil, fmt.Errorf("create db directory: %w", err)
		}
		db, err := sqliteadapter.Open(cmd.Context(), c.cfg.DBPath)
		if err != nil {
			return nil, err
		}
		c.db = db
	}
	return sqliteadapter.NewStore(c.db), nil
}

func (c *cli) api() *leadsapi.Client {
	return leadsapi.New(c.cfg.APIBaseURL, c.cfg.APITimeout, c.log.Named("leadsapi"))
}

// officer 返回命令行提供的警员凭据；--token 优先，其次环境变量 SATARK_TOKEN。
func (c *cli) officer(cmd *cobra.Command) leadsapi.Session {
	token, _ := cmd.Flags().GetString("token")
	if token == "" {
		token = os.Getenv("SATARK_TOKEN")
	}
	return leadsapi.Session{ID: "cli", Token: token}
}

func addTokenFlag(cmd *cobra.Command) {
	cmd.Flags().String("token", "", "officer bearer token (default $SATARK_TOKEN)")
}

func (c *cli) versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print build information",
		RunE: func(cmd *cobra.Command, args []string) error {
			c.ui.Info("portal-cli %s (commit %s, built %s)", app.Version, app.Commit, app.Date)
			return nil
		},
	}
}
