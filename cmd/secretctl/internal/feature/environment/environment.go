// Package environment composes the project metadata a propagation runs
// under: name, version and deployment environment.
package environment

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"

	"github.com/eliasmeireles/secretctl/cmd/secretctl/internal/env"
)

const (
	EnvAppName    = "APP_NAME"
	EnvAppVersion = "APP_VERSION"
	EnvAppEnv     = "APP_ENV"

	DefaultVersion = "latest"

	Staging    = "staging"
	Production = "production"

	// DefaultDotenv is loaded when no env file is given. It may be absent.
	DefaultDotenv = ".env"
)

// ErrInvalidEnvironment is returned for environments other than staging and production.
var ErrInvalidEnvironment = errors.New("invalid environment")

// Metadata identifies the project being deployed.
type Metadata struct {
	Name        string `yaml:"name"`
	Environment string `yaml:"environment"`
	Version     string `yaml:"version"`
}

// Load reads a dotenv file into the process environment without overriding
// variables that are already set. An empty path loads DefaultDotenv and
// tolerates its absence.
func Load(path string) error {
	optional := path == ""
	if optional {
		path = DefaultDotenv
	}

	if err := godotenv.Load(path); err != nil {
		if optional && errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to load env file %s: %w", path, err)
	}

	log.Debugf("📄 Loaded environment from %s", path)
	return nil
}

// Resolve applies APP_NAME, APP_VERSION and APP_ENV overrides to meta and
// validates the result.
func Resolve(meta Metadata) (Metadata, error) {
	if v, ok := env.Get(EnvAppName); ok {
		meta.Name = v
	}
	if v, ok := env.Get(EnvAppVersion); ok {
		meta.Version = v
	}
	if v, ok := env.Get(EnvAppEnv); ok {
		meta.Environment = v
	}
	if meta.Version == "" {
		meta.Version = DefaultVersion
	}
	meta.Environment = strings.ToLower(strings.TrimSpace(meta.Environment))

	return meta, meta.Validate()
}

// Validate checks that the name is set and the environment is known.
func (m Metadata) Validate() error {
	if m.Name == "" {
		return fmt.Errorf("project name is required: set metadata.name or %s", EnvAppName)
	}
	switch m.Environment {
	case Staging, Production:
		return nil
	default:
		return fmt.Errorf("%w %q: expected %s or %s (set metadata.environment or %s)",
			ErrInvalidEnvironment, m.Environment, Staging, Production, EnvAppEnv)
	}
}

// Lookup returns the placeholders available to locator templates.
func (m Metadata) Lookup() map[string]string {
	return map[string]string{
		"name":        m.Name,
		"environment": m.Environment,
		"version":     m.Version,
	}
}
