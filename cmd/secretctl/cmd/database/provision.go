package database

import (
	"fmt"
	"strings"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/eliasmeireles/secretctl/cmd/secretctl/cmd/flags"
	"github.com/eliasmeireles/secretctl/cmd/secretctl/internal/env"
	databasepkg "github.com/eliasmeireles/secretctl/cmd/secretctl/internal/feature/database"
	"github.com/eliasmeireles/secretctl/cmd/secretctl/internal/feature/dsn"
	"github.com/eliasmeireles/secretctl/cmd/secretctl/internal/feature/environment"
	"github.com/eliasmeireles/secretctl/cmd/secretctl/internal/feature/secret"
)

// EnvDatabaseDSN holds the admin connection string when --dsn is not given.
const EnvDatabaseDSN = "SECRETCTL_DATABASE_DSN"

// openDatabase is swapped in tests with a sqlmock connection.
var openDatabase = databasepkg.Open

type provisionOptions struct {
	dsn     string
	envFile string
	meta    environment.Metadata
	host    string
	port    string
	rotate  bool
	dst     flags.Destination
}

func NewProvisionCmd() *cobra.Command {
	return NewProvisionCmdFunc()
}

var NewProvisionCmdFunc = func() *cobra.Command {
	var opts provisionOptions

	cmd := &cobra.Command{
		Use:   "provision",
		Short: "Create or update the PostgreSQL role and database of a project",
		Long: `Ensure a PostgreSQL role and database named after the project exist and
write the credentials to Vault at projects/<name>/<environment>/database.
The password already stored there is reused; --rotate generates a new one.
With --to the credentials are also published as DATABASE_* keys.

Project name and environment come from the flags, then APP_NAME and APP_ENV
(a .env file is loaded first when present).

Examples:
  secretctl database provision --dsn postgres://admin:pw@db:5432/postgres?sslmode=disable --name acme --environment staging
  APP_NAME=acme APP_ENV=production secretctl database provision --to github-secrets
  secretctl database provision --name acme --environment production --rotate`,
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runProvision(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.dsn, "dsn", "", "PostgreSQL admin connection string (env: "+EnvDatabaseDSN+")")
	cmd.Flags().StringVar(&opts.envFile, "env-file", "", "Dotenv file loaded first (default: .env if present)")
	cmd.Flags().StringVar(&opts.meta.Name, "name", "", "Project name (env: APP_NAME)")
	cmd.Flags().StringVar(&opts.meta.Environment, "environment", "", "staging or production (env: APP_ENV)")
	cmd.Flags().StringVar(&opts.host, "host", "", "Database host stored with the credentials (default: <name>-database)")
	cmd.Flags().StringVar(&opts.port, "port", "", "Database port stored with the credentials (default: "+databasepkg.DefaultPort+")")
	cmd.Flags().BoolVar(&opts.rotate, "rotate", false, "Generate a new password even when one is stored")
	flags.BindDestination(cmd, &opts.dst, false)

	return cmd
}

// newMenuProvisionCmd takes the project name and environment as arguments.
func newMenuProvisionCmd() *cobra.Command {
	c := NewProvisionCmd()
	c.Args = cobra.ExactArgs(2)
	c.RunE = func(cmd *cobra.Command, args []string) error {
		return runProvision(cmd, provisionOptions{
			meta: environment.Metadata{Name: args[0], Environment: args[1]},
		})
	}
	return c
}

func runProvision(cmd *cobra.Command, opts provisionOptions) error {
	ctx := cmd.Context()

	if err := environment.Load(opts.envFile); err != nil {
		return fmt.Errorf("❌ %w", err)
	}

	meta, err := metadata(opts.meta)
	if err != nil {
		return fmt.Errorf("❌ %w", err)
	}

	connStr := opts.dsn
	if connStr == "" {
		connStr, _ = env.Get(EnvDatabaseDSN)
	}
	if connStr == "" {
		return fmt.Errorf("❌ --dsn or %s is required", EnvDatabaseDSN)
	}

	store, err := flags.Store(ctx)
	if err != nil {
		return fmt.Errorf("❌ Failed to connect to Vault: %w", err)
	}

	db, err := openDatabase(ctx, connStr)
	if err != nil {
		return fmt.Errorf("❌ %w", err)
	}
	defer func() { _ = db.Close() }()

	p := &databasepkg.Provisioner{DB: db, Store: store, Host: opts.host, Port: opts.port, Rotate: opts.rotate}
	if opts.dst.Type != "" {
		dst, err := opts.dst.Build()
		if err != nil {
			return fmt.Errorf("❌ Failed to build destination %q: %w", opts.dst.Type, err)
		}
		p.Destination = dst
	}

	if _, err := p.Provision(ctx, meta); err != nil {
		return fmt.Errorf("❌ Provisioning %s failed: %w", meta.Name, err)
	}

	log.Infof("🔑 Credentials available at %s%s", dsn.Scheme, secret.StorePath(databasepkg.Mount, databasepkg.Path(meta)))
	return nil
}

// metadata gives flags precedence over APP_NAME and APP_ENV.
func metadata(meta environment.Metadata) (environment.Metadata, error) {
	if meta.Name == "" {
		meta.Name, _ = env.Get(environment.EnvAppName)
	}
	if meta.Environment == "" {
		meta.Environment, _ = env.Get(environment.EnvAppEnv)
	}
	meta.Environment = strings.ToLower(strings.TrimSpace(meta.Environment))
	return meta, meta.Validate()
}
