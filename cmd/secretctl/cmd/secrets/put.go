package secrets

import (
	"errors"
	"fmt"
	"strings"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/eliasmeireles/secretctl/cmd/secretctl/cmd/flags"
	"github.com/eliasmeireles/secretctl/cmd/secretctl/internal/feature/dsn"
	"github.com/eliasmeireles/secretctl/cmd/secretctl/internal/feature/secret"
)

func NewPutCmd() *cobra.Command {
	return NewPutCmdFunc()
}

var NewPutCmdFunc = func() *cobra.Command {
	var merge bool

	cmd := &cobra.Command{
		Use:   "put <locator> <key=value>...",
		Short: "Write a document to Vault",
		Long: `Write key=value pairs as a Vault KV v2 document. The whole locator is the
document path.

Without --merge the document is replaced. With --merge existing fields are kept
and the given ones overwritten.

Examples:
  secretctl put projects/acme/production/registry username=robot token=s3cr3t
  secretctl put hashivault://projects/acme/production/registry token=rotated --merge`,
		Args:         cobra.MinimumNArgs(2),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			loc, err := dsn.Resolve(args[0])
			if err != nil {
				return fmt.Errorf("❌ %w", err)
			}

			values, err := parsePairs(args[1:])
			if err != nil {
				return fmt.Errorf("❌ %w", err)
			}

			store, err := flags.Store(ctx)
			if err != nil {
				return fmt.Errorf("❌ Failed to connect to Vault: %w", err)
			}

			doc := secret.Document{}
			if merge {
				existing, err := store.Get(ctx, loc.Mount, loc.Join())
				if err != nil && !errors.Is(err, secret.ErrSecretNotFound) {
					return fmt.Errorf("❌ %w", err)
				}
				for k, v := range existing {
					doc[k] = v
				}
			}
			for k, v := range values {
				doc[k] = v
			}

			if err := store.Put(ctx, loc.Mount, loc.Join(), doc); err != nil {
				return fmt.Errorf("❌ Failed to write %s: %w", loc, err)
			}

			log.Infof("✅ Wrote %d field(s) to %s", len(values), loc)
			return nil
		},
	}

	cmd.Flags().BoolVar(&merge, "merge", false, "Keep existing fields of the document")

	return cmd
}

func parsePairs(args []string) (map[string]string, error) {
	values := make(map[string]string, len(args))
	for _, arg := range args {
		key, value, ok := strings.Cut(arg, "=")
		if !ok || strings.TrimSpace(key) == "" {
			return nil, fmt.Errorf("invalid pair %q: expected key=value", arg)
		}
		values[strings.TrimSpace(key)] = value
	}
	return values, nil
}
