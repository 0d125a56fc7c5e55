package database

import (
	"context"
	"database/sql"
	"io"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eliasmeireles/secretctl/cmd/secretctl/cmd/cmd"
	"github.com/eliasmeireles/secretctl/cmd/secretctl/cmd/flags"
	"github.com/eliasmeireles/secretctl/cmd/secretctl/internal/feature/destination"
	"github.com/eliasmeireles/secretctl/cmd/secretctl/internal/feature/environment"
	"github.com/eliasmeireles/secretctl/cmd/secretctl/internal/feature/propagation"
	"github.com/eliasmeireles/secretctl/cmd/secretctl/internal/feature/secret"
)

type fixture struct {
	mock  sqlmock.Sqlmock
	store *secret.MemoryStore
	dsn   string
}

func setup(t *testing.T) *fixture {
	t.Helper()

	t.Chdir(t.TempDir())
	t.Setenv(environment.EnvAppName, "")
	t.Setenv(environment.EnvAppEnv, "")
	t.Setenv(EnvDatabaseDSN, "")

	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	f := &fixture{mock: mock, store: secret.NewMemoryStore()}

	origOpen := openDatabase
	openDatabase = func(_ context.Context, dsn string) (*sql.DB, error) {
		f.dsn = dsn
		return db, nil
	}
	origStore := flags.StoreFunc
	flags.StoreFunc = func(context.Context) (secret.Store, error) { return f.store, nil }

	t.Cleanup(func() {
		openDatabase = origOpen
		flags.StoreFunc = origStore
	})
	return f
}

func (f *fixture) expectNewProject(name string) {
	f.mock.ExpectQuery(regexp.QuoteMeta("SELECT EXISTS(SELECT 1 FROM pg_roles")).
		WithArgs(name).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
	f.mock.ExpectExec(`CREATE ROLE`).WillReturnResult(sqlmock.NewResult(0, 0))
	f.mock.ExpectQuery(regexp.QuoteMeta("SELECT EXISTS(SELECT 1 FROM pg_database")).
		WithArgs(name).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
	f.mock.ExpectExec(`CREATE DATABASE`).WillReturnResult(sqlmock.NewResult(0, 0))
	f.mock.ExpectExec(`GRANT ALL PRIVILEGES`).WillReturnResult(sqlmock.NewResult(0, 0))
	f.mock.ExpectClose()
}

func (f *fixture) expectExistingProject(name, alterRole string) {
	f.mock.ExpectQuery(regexp.QuoteMeta("SELECT EXISTS(SELECT 1 FROM pg_roles")).
		WithArgs(name).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
	f.mock.ExpectExec(alterRole).WillReturnResult(sqlmock.NewResult(0, 0))
	f.mock.ExpectQuery(regexp.QuoteMeta("SELECT EXISTS(SELECT 1 FROM pg_database")).
		WithArgs(name).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
	f.mock.ExpectExec(`GRANT ALL PRIVILEGES`).WillReturnResult(sqlmock.NewResult(0, 0))
	f.mock.ExpectClose()
}

func execute(c *cobra.Command, args ...string) error {
	c.SetOut(io.Discard)
	c.SetErr(io.Discard)
	c.SetArgs(args)
	return c.Execute()
}

func TestProvisionCmd(t *testing.T) {
	ctx := context.Background()

	t.Run("given flags then provisions and stores credentials", func(t *testing.T) {
		f := setup(t)
		f.expectNewProject("acme")

		err := execute(NewProvisionCmd(), "--dsn", "postgres://admin@db/postgres", "--name", "acme", "--environment", "Staging")
		require.NoError(t, err)
		require.NoError(t, f.mock.ExpectationsWereMet())
		assert.Equal(t, "postgres://admin@db/postgres", f.dsn)

		doc, err := f.store.Get(ctx, "projects", "acme/staging/database")
		require.NoError(t, err)
		assert.Equal(t, "acme-database", doc["host"])
	})

	t.Run("given APP variables and destination then publishes DATABASE keys", func(t *testing.T) {
		f := setup(t)
		f.expectNewProject("acme")
		t.Setenv(environment.EnvAppName, "acme")
		t.Setenv(environment.EnvAppEnv, "production")
		t.Setenv(EnvDatabaseDSN, "postgres://from-env")

		mem := destination.NewMemory("memory")
		orig := flags.DestinationFactoryFunc
		flags.DestinationFactoryFunc = func(propagation.FactoryOptions) propagation.DestinationFactory {
			return func(propagation.Target) (secret.Destination, error) { return mem, nil }
		}
		t.Cleanup(func() { flags.DestinationFactoryFunc = orig })

		err := execute(NewProvisionCmd(), "--to", destination.TypeEnvFile, "--port", "6432")
		require.NoError(t, err)
		assert.Equal(t, "postgres://from-env", f.dsn)

		port, ok := mem.Get("database-port")
		require.True(t, ok)
		assert.Equal(t, "6432", port)
		assert.Len(t, mem.Resources(), 6)
	})

	t.Run("given stored password then reuses it unless rotate is set", func(t *testing.T) {
		f := setup(t)
		require.NoError(t, f.store.Put(ctx, "projects", "acme/staging/database", secret.Document{"password": "Stored1Password2"}))

		f.expectExistingProject("acme", regexp.QuoteMeta(`ALTER ROLE "acme" WITH LOGIN PASSWORD 'Stored1Password2'`))
		args := []string{"--dsn", "postgres://db", "--name", "acme", "--environment", "staging"}
		require.NoError(t, execute(NewProvisionCmd(), args...))
		require.NoError(t, f.mock.ExpectationsWereMet())

		f = setup(t)
		require.NoError(t, f.store.Put(ctx, "projects", "acme/staging/database", secret.Document{"password": "Stored1Password2"}))

		f.expectExistingProject("acme", `ALTER ROLE "acme" WITH LOGIN PASSWORD '[A-Za-z0-9]{16}'`)
		require.NoError(t, execute(NewProvisionCmd(), append(args, "--rotate")...))
		require.NoError(t, f.mock.ExpectationsWereMet())

		doc, err := f.store.Get(ctx, "projects", "acme/staging/database")
		require.NoError(t, err)
		assert.NotEqual(t, "Stored1Password2", doc["password"])
	})

	t.Run("given no dsn then fails before touching vault", func(t *testing.T) {
		setup(t)
		flags.StoreFunc = func(context.Context) (secret.Store, error) {
			t.Fatal("store must not be used")
			return nil, nil
		}

		err := execute(NewProvisionCmd(), "--name", "acme", "--environment", "staging")
		assert.ErrorContains(t, err, "--dsn or "+EnvDatabaseDSN+" is required")
	})

	t.Run("given unknown environment then fails", func(t *testing.T) {
		setup(t)
		err := execute(NewProvisionCmd(), "--dsn", "postgres://db", "--name", "acme", "--environment", "qa")
		assert.ErrorIs(t, err, environment.ErrInvalidEnvironment)
	})

	t.Run("given menu arguments then provisions the project", func(t *testing.T) {
		f := setup(t)
		f.expectNewProject("acme")
		t.Setenv(EnvDatabaseDSN, "postgres://from-env")

		require.NoError(t, execute(newMenuProvisionCmd(), "acme", "production"))
		_, err := f.store.Get(ctx, "projects", "acme/production/database")
		assert.NoError(t, err)
	})
}

func TestNewCommand(t *testing.T) {
	t.Run("must create database command with provision subcommand", func(t *testing.T) {
		c := NewCommand()
		require.NotNil(t, c)

		sub, _, err := c.Find([]string{"provision"})
		require.NoError(t, err)
		assert.Equal(t, "provision", sub.Name())
	})

	t.Run("must register the menu entry", func(t *testing.T) {
		_, ok := cmd.Cmd().Get(Category + "/" + ChoiceProvision)
		assert.True(t, ok)
	})
}

