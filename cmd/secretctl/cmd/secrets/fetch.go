package secrets

import (
	"fmt"

	"github.com/atotto/clipboard"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/eliasmeireles/secretctl/cmd/secretctl/cmd/flags"
)

// clipboardWrite is swapped in tests; CI runners have no clipboard.
var clipboardWrite = clipboard.WriteAll

type fetchOptions struct {
	document  bool
	clipboard bool
}

func NewFetchCmd() *cobra.Command {
	return NewFetchCmdFunc()
}

var NewFetchCmdFunc = func() *cobra.Command {
	var opts fetchOptions

	cmd := &cobra.Command{
		Use:   "fetch <locator>",
		Short: "Read a secret field, or list the fields of a document",
		Long: `Read a single field of a Vault KV v2 document.

The last locator segment is the field name; the segments before it are the
document path. With --document the whole locator is the document path and only
its field names are printed, never the values.

Examples:
  secretctl fetch hashivault://projects/acme/production/database/password
  secretctl fetch projects/acme/production/database/password --clipboard
  secretctl fetch projects/acme/production/database --document`,
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE:         runFetchCmd(&opts),
	}

	cmd.Flags().BoolVar(&opts.document, "document", false, "Treat the locator as a document and print its masked fields")
	cmd.Flags().BoolVar(&opts.clipboard, "clipboard", false, "Copy the value to the clipboard instead of printing it")
	cmd.MarkFlagsMutuallyExclusive("document", "clipboard")

	return cmd
}

// newClipboardFetchCmd backs the menu entry, which must never print a value.
func newClipboardFetchCmd() *cobra.Command {
	cmd := NewFetchCmd()
	_ = cmd.Flags().Set("clipboard", "true")
	return cmd
}

var runFetchCmd = func(opts *fetchOptions) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		locator := args[0]

		p, err := flags.Propagator(ctx)
		if err != nil {
			return fmt.Errorf("❌ Failed to connect to Vault: %w", err)
		}

		if opts.document {
			doc, err := p.FetchDocumentAt(ctx, locator)
			if err != nil {
				return fmt.Errorf("❌ %w", err)
			}
			masked := doc.Masked()
			for _, key := range doc.Keys() {
				fmt.Fprintf(cmd.OutOrStdout(), "%s=%s\n", key, masked[key])
			}
			return nil
		}

		value, err := p.FetchField(ctx, locator)
		if err != nil {
			return fmt.Errorf("❌ %w", err)
		}

		if opts.clipboard {
			if err := clipboardWrite(value); err != nil {
				return fmt.Errorf("❌ Failed to copy to clipboard: %w", err)
			}
			log.Infof("✅ '%s' copied to clipboard", locator)
			return nil
		}

		fmt.Fprintln(cmd.OutOrStdout(), value)
		return nil
	}
}
