package secrets

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/eliasmeireles/secretctl/cmd/secretctl/internal/feature/dsn"
)

const (
	OutputText = "text"
	OutputJSON = "json"
	OutputYAML = "yaml"
)

type resolved struct {
	Mount     string `json:"mount" yaml:"mount"`
	Path      string `json:"path" yaml:"path"`
	Name      string `json:"name" yaml:"name"`
	StorePath string `json:"store_path" yaml:"store_path"`
	DSN       string `json:"dsn" yaml:"dsn"`
}

func NewResolveCmd() *cobra.Command {
	return NewResolveCmdFunc()
}

var NewResolveCmdFunc = func() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "resolve <locator>",
		Short: "Split a secret locator into mount, path and name",
		Long: `Resolve a locator without contacting Vault.

Every form below resolves to mount "projects", path "acme/production" and
name "database":
  hashivault://projects/acme/production/database
  hashivault:///projects/acme/production/database
  /projects/data/acme/production/database
  projects/acme/production/database

Examples:
  secretctl resolve hashivault://projects/acme/production/database/password
  secretctl resolve /projects/data/acme/production/database -o json`,
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			loc, err := dsn.Resolve(args[0])
			if err != nil {
				return fmt.Errorf("❌ %w", err)
			}
			return printLocator(cmd.OutOrStdout(), loc, output)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", OutputText, "Output format: text, json or yaml")

	return cmd
}

func printLocator(w io.Writer, loc dsn.Locator, output string) error {
	r := resolved{
		Mount:     loc.Mount,
		Path:      loc.Path,
		Name:      loc.Name,
		StorePath: loc.String(),
		DSN:       loc.DSN(),
	}

	switch output {
	case OutputText, "":
		_, err := fmt.Fprintf(w, "mount: %s\npath:  %s\nname:  %s\n", r.Mount, r.Path, r.Name)
		return err
	case OutputJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(r)
	case OutputYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(r); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("❌ unknown output format %q (expected text, json or yaml)", output)
	}
}
