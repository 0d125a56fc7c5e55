package secrets

import (
	"fmt"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/eliasmeireles/secretctl/cmd/secretctl/cmd/flags"
	"github.com/eliasmeireles/secretctl/cmd/secretctl/internal/feature/destination"
)

func NewCopyCmd() *cobra.Command {
	return NewCopyCmdFunc(true)
}

var NewCopyCmdFunc = func(requireTo bool) *cobra.Command {
	var dst flags.Destination

	cmd := &cobra.Command{
		Use:   "copy <locator> <KEY>",
		Short: "Copy a secret field into a destination under KEY",
		Long: `Fetch a single field from Vault and write it to a destination. The value is
never printed.

Destinations:
  github-secrets     encrypted repository Actions secret
  github-variables   repository Actions variable
  env-file           KEY=value line appended to --env-file-path or $GITHUB_ENV
  kubernetes         data key of an Opaque Secret

Examples:
  secretctl copy projects/acme/production/database/password DATABASE_PASSWORD --to github-secrets
  secretctl copy projects/acme/production/database/password DATABASE_PASSWORD --to env-file
  secretctl copy projects/acme/production/database/password password \
    --to kubernetes --namespace acme --k8s-secret acme-database`,
		Args:         cobra.ExactArgs(2),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			locator, key := args[0], args[1]

			target, err := dst.Build()
			if err != nil {
				return fmt.Errorf("❌ Failed to build destination %q: %w", dst.Type, err)
			}

			p, err := flags.Propagator(ctx)
			if err != nil {
				return fmt.Errorf("❌ Failed to connect to Vault: %w", err)
			}

			if err := p.Copy(ctx, locator, key, target); err != nil {
				return fmt.Errorf("❌ %w", err)
			}

			log.Debugf("📦 %s -> %s (%s)", locator, key, target.Name())
			return nil
		},
	}

	flags.BindDestination(cmd, &dst, requireTo)

	return cmd
}

// newEnvFileCopyCmd backs the menu entry, which copies into $GITHUB_ENV.
func newEnvFileCopyCmd() *cobra.Command {
	cmd := NewCopyCmdFunc(false)
	_ = cmd.Flags().Set("to", destination.TypeEnvFile)
	return cmd
}
