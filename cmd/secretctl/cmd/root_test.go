package cmd

import (
	"path/filepath"
	"testing"

	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eliasmeireles/secretctl/cmd/secretctl/cmd/flags"
	"github.com/eliasmeireles/secretctl/cmd/secretctl/cmd/secrets"
)

func TestRootCmd(t *testing.T) {
	t.Run("must register every subcommand", func(t *testing.T) {
		root := newRootCmd()
		for _, name := range []string{"resolve", "fetch", "put", "copy", "propagate", "database"} {
			sub, _, err := root.Find([]string{name})
			require.NoError(t, err, name)
			assert.Equal(t, name, sub.Name())
		}
	})

	t.Run("must expose vault and observability flags", func(t *testing.T) {
		root := newRootCmd()
		for _, name := range []string{"vault-addr", "vault-token", "vault-backend", "log-level", "metrics-textfile", "concurrency"} {
			assert.NotNil(t, root.PersistentFlags().Lookup(name), name)
		}
	})

	t.Run("given resolve then runs without vault and writes metrics", func(t *testing.T) {
		origLevel := log.GetLevel()
		t.Cleanup(func() {
			log.SetLevel(origLevel)
			flags.MetricsTextfile = ""
			flags.LogLevel = log.InfoLevel.String()
		})

		path := filepath.Join(t.TempDir(), "secretctl.prom")
		root := newRootCmd()
		root.SetArgs([]string{"resolve", "projects/acme", "--log-level", "debug", "--metrics-textfile", path})
		require.NoError(t, root.Execute())
		assert.Equal(t, log.DebugLevel, log.GetLevel())

		require.NoError(t, flags.FlushMetrics())
		assert.FileExists(t, path)
	})

	t.Run("given invalid log level then fails", func(t *testing.T) {
		t.Cleanup(func() { flags.LogLevel = log.InfoLevel.String() })

		root := newRootCmd()
		root.SetArgs([]string{"resolve", "projects/acme", "--log-level", "loud"})
		assert.ErrorContains(t, root.Execute(), "invalid --log-level")
	})
}

func TestPlainFormatter(t *testing.T) {
	out, err := new(PlainFormatter).Format(&log.Entry{Message: "✅ Copied DATABASE_PASSWORD"})
	require.NoError(t, err)
	assert.Equal(t, "✅ Copied DATABASE_PASSWORD\n", string(out))
}

func TestExecuteSelection(t *testing.T) {
	t.Run("given registered menu entry then dispatches it", func(t *testing.T) {
		assert.True(t, executeSelection(secrets.ChoiceResolve, secrets.Category, []string{"projects/acme"}))
	})

	t.Run("given unknown entry then returns to the menu", func(t *testing.T) {
		assert.True(t, executeSelection("Nope", "Nowhere", nil))
	})
}

func TestIsQuitKey(t *testing.T) {
	tests := []struct {
		name string
		keys []byte
		quit bool
	}{
		{name: "q", keys: []byte{'q'}, quit: true},
		{name: "Q", keys: []byte{'Q'}, quit: true},
		{name: "esc", keys: []byte{27}, quit: true},
		{name: "enter", keys: []byte{13}, quit: false},
		{name: "newline", keys: []byte{10}, quit: false},
		{name: "arrow up", keys: []byte{27, '[', 'A'}, quit: false},
		{name: "nothing", keys: nil, quit: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.quit, isQuitKey(tt.keys))
		})
	}
}
