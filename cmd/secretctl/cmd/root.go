package cmd

import (
	"os"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/eliasmeireles/secretctl/cmd/secretctl/cmd/database"
	"github.com/eliasmeireles/secretctl/cmd/secretctl/cmd/flags"
	"github.com/eliasmeireles/secretctl/cmd/secretctl/cmd/propagate"
	"github.com/eliasmeireles/secretctl/cmd/secretctl/cmd/secrets"
)

var rootCmd = newRootCmd()

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "secretctl",
		Short: "Resolve Vault secret locators and propagate secrets to CI and runtime stores",
		Long: `secretctl reads secrets from HashiCorp Vault KV v2 through short locators
(hashivault://mount/path/name) and copies them into GitHub Actions secrets and
variables, env files and Kubernetes Secrets.

Run without arguments to open the interactive menu.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return flags.ApplyLogLevel()
		},
		Run: func(cmd *cobra.Command, args []string) {
			if len(args) == 0 {
				RunUI()
				return
			}
			_ = cmd.Help()
		},
	}

	flags.SharedFlags(root)

	root.AddCommand(secrets.NewResolveCmd())
	root.AddCommand(secrets.NewFetchCmd())
	root.AddCommand(secrets.NewPutCmd())
	root.AddCommand(secrets.NewCopyCmd())
	root.AddCommand(propagate.NewCommand())
	root.AddCommand(database.NewCommand())

	return root
}

// Execute runs the root command. Metrics are flushed even when the command fails.
func Execute() {
	err := rootCmd.Execute()
	if ferr := flags.FlushMetrics(); ferr != nil {
		log.Warnf("⚠️ %v", ferr)
	}
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	log.SetFormatter(new(PlainFormatter))
}

// PlainFormatter prints only the log message.
type PlainFormatter struct{}

func (f *PlainFormatter) Format(entry *log.Entry) ([]byte, error) {
	return []byte(entry.Message + "\n"), nil
}
