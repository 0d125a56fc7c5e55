package propagate

import (
	"fmt"
	"io"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/eliasmeireles/secretctl/cmd/secretctl/cmd/cmd"
	"github.com/eliasmeireles/secretctl/cmd/secretctl/cmd/flags"
	"github.com/eliasmeireles/secretctl/cmd/secretctl/internal/feature/destination"
	"github.com/eliasmeireles/secretctl/cmd/secretctl/internal/feature/environment"
	"github.com/eliasmeireles/secretctl/cmd/secretctl/internal/feature/propagation"
)

const (
	Category     = "Propagate"
	ChoiceApply  = "Apply plan"
	ChoiceDryRun = "Dry run"
)

func init() {
	cmd.Add(cmd.NewDefault(newMenuCmd(false), Category, ChoiceApply))
	cmd.Add(cmd.NewDefault(newMenuCmd(true), Category, ChoiceDryRun))
}

type options struct {
	file        string
	envFile     string
	dryRun      bool
	githubToken string
}

func NewCommand() *cobra.Command {
	return NewCommandFunc()
}

var NewCommandFunc = func() *cobra.Command {
	var opts options

	cmd := &cobra.Command{
		Use:   "propagate -f <plan.yml>",
		Short: "Propagate Vault secrets to destinations from a YAML plan",
		Long: `Read a propagation plan and copy every listed secret into its destination.

Locators and values may use ${name}, ${environment} and ${version}, taken from
the plan metadata and overridden by APP_NAME, APP_ENV and APP_VERSION (a .env
file is loaded first when present). Within a target, values are written first,
then secrets, then documents. A failing entry does not stop the others; all
failures are reported together.

Example plan:
  metadata:
    name: acme-marketplace
    environment: production
  targets:
    - name: ci
      type: github-secrets
      secrets:
        DATABASE_PASSWORD: hashivault://projects/${name}/${environment}/database/password
    - type: env-file
      values:
        NODE_ENV: ${environment}

Examples:
  secretctl propagate -f secrets.yml
  secretctl propagate -f secrets.yml --dry-run
  APP_ENV=staging secretctl propagate -f secrets.yml --env-file .env.staging`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.file, "file", "f", "", "Path to the YAML propagation plan")
	cmd.Flags().StringVar(&opts.envFile, "env-file", "", "Dotenv file loaded before resolving metadata (default: .env if present)")
	cmd.Flags().BoolVar(&opts.dryRun, "dry-run", false, "Read from Vault but only print which keys each target would receive")
	cmd.Flags().StringVar(&opts.githubToken, "github-token", "", "GitHub token (env: "+destination.EnvGitHubToken+")")

	return cmd
}

// newMenuCmd takes the plan path as its only argument.
func newMenuCmd(dryRun bool) *cobra.Command {
	c := NewCommand()
	c.Args = cobra.ExactArgs(1)
	c.RunE = func(cmd *cobra.Command, args []string) error {
		return run(cmd, options{file: args[0], dryRun: dryRun})
	}
	return c
}

func run(cmd *cobra.Command, opts options) error {
	if opts.file == "" {
		return fmt.Errorf("❌ -f <plan.yml> is required")
	}

	if err := environment.Load(opts.envFile); err != nil {
		return fmt.Errorf("❌ %w", err)
	}

	cfg, err := propagation.Load(opts.file)
	if err != nil {
		return fmt.Errorf("❌ %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("❌ Invalid plan %s: %w", opts.file, err)
	}

	ctx := cmd.Context()
	p, err := flags.Propagator(ctx)
	if err != nil {
		return fmt.Errorf("❌ Failed to connect to Vault: %w", err)
	}

	factory := flags.DestinationFactoryFunc(propagation.FactoryOptions{GitHubToken: opts.githubToken})
	var dryRun *propagation.DryRun
	if opts.dryRun {
		dryRun = propagation.NewDryRun()
		factory = dryRun.Factory
	}

	applyErr := propagation.NewApplier(p, factory).Apply(ctx, cfg)

	if opts.dryRun {
		printDryRun(cmd.OutOrStdout(), dryRun)
	}
	if applyErr != nil {
		return fmt.Errorf("❌ Propagation failed: %w", applyErr)
	}

	log.Info("✅ All targets propagated")
	return nil
}

func printDryRun(w io.Writer, dryRun *propagation.DryRun) {
	for i, t := range dryRun.Targets {
		fmt.Fprintf(w, "%s (%s):\n", t.Label(), t.Type)
		for _, resource := range dryRun.Destinations[i].Resources() {
			fmt.Fprintf(w, "  %s\n", resource)
		}
	}
}
