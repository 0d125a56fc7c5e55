package flags

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/eliasmeireles/secretctl/cmd/secretctl/internal/feature/secret"
	"github.com/eliasmeireles/secretctl/cmd/secretctl/internal/feature/vault"
	"github.com/eliasmeireles/secretctl/cmd/secretctl/internal/metrics"
)

var (
	// Vault holds the connection flags shared by every command.
	Vault vault.Flags

	// LogLevel is the logrus level name.
	LogLevel string

	// MetricsTextfile is where counters are written after a command runs.
	MetricsTextfile string

	// Concurrency bounds parallel writes of bulk copies.
	Concurrency int
)

// SharedFlags registers the persistent flags on the root command.
func SharedFlags(cmd *cobra.Command) {
	vault.BindFlags(cmd, &Vault)

	cmd.PersistentFlags().StringVar(
		&LogLevel, "log-level", log.InfoLevel.String(),
		"Log level (panic, fatal, error, warn, info, debug, trace)",
	)
	cmd.PersistentFlags().StringVar(
		&MetricsTextfile, "metrics-textfile", "",
		"Write Prometheus counters to this file on exit (node_exporter textfile format)",
	)
	cmd.PersistentFlags().IntVar(
		&Concurrency, "concurrency", 1,
		"Maximum parallel writes per destination for bulk copies",
	)
}

// ApplyLogLevel parses LogLevel and sets it on the standard logger.
func ApplyLogLevel() error {
	level, err := log.ParseLevel(LogLevel)
	if err != nil {
		return fmt.Errorf("invalid --log-level %q: %w", LogLevel, err)
	}
	log.SetLevel(level)
	return nil
}

// FlushMetrics writes the counters when --metrics-textfile is set.
func FlushMetrics() error {
	if MetricsTextfile == "" {
		return nil
	}
	if err := metrics.WriteTextfile(MetricsTextfile); err != nil {
		return fmt.Errorf("failed to write metrics: %w", err)
	}
	log.Debugf("📈 Metrics written to %s", MetricsTextfile)
	return nil
}

// Store connects to Vault and returns the configured secret store.
func Store(ctx context.Context) (secret.Store, error) {
	return StoreFunc(ctx)
}

// StoreFunc is swapped in tests to avoid a Vault server.
var StoreFunc = func(ctx context.Context) (secret.Store, error) {
	session, err := vault.Connect(ctx, Vault)
	if err != nil {
		return nil, err
	}
	return session.Store()
}

// Propagator connects to Vault and returns a propagator reading from it.
func Propagator(ctx context.Context) (*secret.Propagator, error) {
	store, err := Store(ctx)
	if err != nil {
		return nil, err
	}
	return secret.NewPropagator(store, secret.WithConcurrency(Concurrency)), nil
}
