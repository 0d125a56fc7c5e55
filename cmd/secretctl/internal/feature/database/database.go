// Package database provisions a PostgreSQL role and database for a project
// and publishes the credentials to Vault and a destination.
package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"reflect"

	"github.com/lib/pq"
	log "github.com/sirupsen/logrus"

	"github.com/eliasmeireles/secretctl/cmd/secretctl/internal/feature/environment"
	"github.com/eliasmeireles/secretctl/cmd/secretctl/internal/feature/secret"
)

const (
	// Mount is the Vault mount project credentials are written under.
	Mount = "projects"

	DefaultClient = "postgres"
	DefaultPort   = "5432"
)

// Execer is the subset of *sql.DB the provisioner uses.
type Execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Provisioner ensures the role and database of a project exist and
// publishes their credentials.
type Provisioner struct {
	DB    Execer
	Store secret.Store
	// Destination receives the DATABASE_* keys. Nil skips mirroring.
	Destination secret.Destination
	// Host overrides the "<name>-database" service host.
	Host string
	// Port overrides DefaultPort.
	Port string
	// Rotate replaces a password already stored in Vault.
	Rotate bool
}

// Open connects to PostgreSQL through lib/pq and verifies the connection.
func Open(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to reach database: %w", err)
	}
	return db, nil
}

// Path returns the store path of the credential document for meta.
func Path(meta environment.Metadata) string {
	return meta.Name + "/" + meta.Environment + "/database"
}

// Provision creates or updates the role and database named after the
// project, writes the credential document to
// projects/<name>/<environment>/database and mirrors it as DATABASE_* keys.
//
// The stored password is kept across runs unless Rotate is set. A new
// password is written to the store before the role is altered, and a
// rerun applies whatever password the store holds.
func (p *Provisioner) Provision(ctx context.Context, meta environment.Metadata) (secret.Document, error) {
	if err := meta.Validate(); err != nil {
		return nil, err
	}

	path := Path(meta)
	existing, err := p.Store.Get(ctx, Mount, path)
	if err != nil && !errors.Is(err, secret.ErrSecretNotFound) {
		return nil, fmt.Errorf("read credentials: %w", err)
	}

	password, err := existing.String("password")
	if err != nil || password == "" || p.Rotate {
		if password, err = GeneratePassword(); err != nil {
			return nil, fmt.Errorf("generate password: %w", err)
		}
		log.Infof("🔄 Generated a new password for %s", meta.Name)
	}

	doc := p.document(meta, password)
	if !reflect.DeepEqual(existing, doc) {
		log.Infof("🔐 Writing database credentials to %s", secret.StorePath(Mount, path))
		if err := p.Store.Put(ctx, Mount, path, doc); err != nil {
			return nil, fmt.Errorf("store credentials: %w", err)
		}
	}

	if err := p.ensureRole(ctx, meta.Name, password); err != nil {
		return nil, err
	}
	if err := p.ensureDatabase(ctx, meta.Name); err != nil {
		return nil, err
	}

	if p.Destination != nil {
		if err := secret.Publish(ctx, Variables(doc), p.Destination); err != nil {
			return doc, fmt.Errorf("mirror credentials: %w", err)
		}
	}

	log.Infof("✅ Database %s ready", meta.Name)
	return doc, nil
}

// Variables maps a credential document to its DATABASE_* keys.
func Variables(doc secret.Document) map[string]string {
	fields := map[string]string{
		"DATABASE_CLIENT":   "client",
		"DATABASE_USERNAME": "username",
		"DATABASE_NAME":     "database",
		"DATABASE_HOST":     "host",
		"DATABASE_PORT":     "port",
		"DATABASE_PASSWORD": "password",
	}
	out := make(map[string]string, len(fields))
	for key, field := range fields {
		if v, err := doc.String(field); err == nil {
			out[key] = v
		}
	}
	return out
}

func (p *Provisioner) document(meta environment.Metadata, password string) secret.Document {
	host := p.Host
	if host == "" {
		host = meta.Name + "-database"
	}
	port := p.Port
	if port == "" {
		port = DefaultPort
	}
	return secret.Document{
		"client":   DefaultClient,
		"username": meta.Name,
		"database": meta.Name,
		"host":     host,
		"port":     port,
		"password": password,
	}
}

func (p *Provisioner) ensureRole(ctx context.Context, name, password string) error {
	exists, err := p.exists(ctx, "SELECT EXISTS(SELECT 1 FROM pg_roles WHERE rolname = $1)", name)
	if err != nil {
		return fmt.Errorf("lookup role %s: %w", name, err)
	}

	verb := "CREATE"
	if exists {
		verb = "ALTER"
	}
	// Role DDL does not accept bind parameters.
	stmt := fmt.Sprintf("%s ROLE %s WITH LOGIN PASSWORD %s", verb, pq.QuoteIdentifier(name), pq.QuoteLiteral(password))
	if _, err := p.DB.ExecContext(ctx, stmt); err != nil {
		return fmt.Errorf("%s role %s: %w", verb, name, err)
	}
	return nil
}

func (p *Provisioner) ensureDatabase(ctx context.Context, name string) error {
	exists, err := p.exists(ctx, "SELECT EXISTS(SELECT 1 FROM pg_database WHERE datname = $1)", name)
	if err != nil {
		return fmt.Errorf("lookup database %s: %w", name, err)
	}

	ident := pq.QuoteIdentifier(name)
	if !exists {
		if _, err := p.DB.ExecContext(ctx, fmt.Sprintf("CREATE DATABASE %s OWNER %s", ident, ident)); err != nil {
			return fmt.Errorf("create database %s: %w", name, err)
		}
	}
	if _, err := p.DB.ExecContext(ctx, fmt.Sprintf("GRANT ALL PRIVILEGES ON DATABASE %s TO %s", ident, ident)); err != nil {
		return fmt.Errorf("grant on database %s: %w", name, err)
	}
	return nil
}

func (p *Provisioner) exists(ctx context.Context, query, name string) (bool, error) {
	var exists bool
	if err := p.DB.QueryRowContext(ctx, query, name).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}
