// Package propagation applies declarative propagation plans: which Vault
// secrets and literal values go to which destinations.
package propagation

import (
	"fmt"
	"os"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/eliasmeireles/secretctl/cmd/secretctl/internal/feature/destination"
	"github.com/eliasmeireles/secretctl/cmd/secretctl/internal/feature/environment"
)

// Config is a propagation plan. Within each target, values are written
// first, then secrets, then documents.
type Config struct {
	Metadata environment.Metadata `yaml:"metadata"`
	Targets  []Target             `yaml:"targets"`
}

// Target is one destination and the entries copied into it.
type Target struct {
	// Name labels the target in logs; defaults to its type.
	Name       string            `yaml:"name"`
	Type       string            `yaml:"type"`
	GitHub     *GitHubTarget     `yaml:"github"`
	Kubernetes *KubernetesTarget `yaml:"kubernetes"`
	EnvFile    *EnvFileTarget    `yaml:"env_file"`

	// Secrets maps destination keys to scalar locators.
	Secrets map[string]string `yaml:"secrets"`
	// Values maps destination keys to literal values.
	Values map[string]string `yaml:"values"`
	// Documents copy several fields out of one document each.
	Documents []DocumentMapping `yaml:"documents"`
}

// GitHubTarget addresses a repository. Owner and repository default to
// GITHUB_REPOSITORY ("owner/repo").
type GitHubTarget struct {
	Owner      string `yaml:"owner"`
	Repository string `yaml:"repository"`
	BaseURL    string `yaml:"base_url"`
}

// KubernetesTarget addresses a Secret.
type KubernetesTarget struct {
	Namespace  string `yaml:"namespace"`
	Secret     string `yaml:"secret"`
	Kubeconfig string `yaml:"kubeconfig"`
	Context    string `yaml:"context"`
}

// EnvFileTarget addresses an env file; empty path means $GITHUB_ENV.
type EnvFileTarget struct {
	Path string `yaml:"path"`
}

// DocumentMapping copies fields of the document at Source, where Source is
// a locator whose last segment is part of the store path.
type DocumentMapping struct {
	Source string `yaml:"source"`
	// Fields maps destination keys to document field names.
	Fields map[string]string `yaml:"fields"`
}

// Load reads and parses a plan file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file %q: %w", path, err)
	}
	return Parse(data)
}

// Parse parses a YAML plan.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	return &cfg, nil
}

// Label returns the target's name, or its type when unnamed.
func (t Target) Label() string {
	if t.Name != "" {
		return t.Name
	}
	return t.Type
}

// Validate checks the plan's structure. Locators are checked when applied.
func (c *Config) Validate() error {
	if len(c.Targets) == 0 {
		return fmt.Errorf("at least one target is required")
	}
	for i, t := range c.Targets {
		if err := t.validate(); err != nil {
			return fmt.Errorf("targets[%d] (%s): %w", i, t.Label(), err)
		}
	}
	return nil
}

func (t Target) validate() error {
	if !slices.Contains(destination.Types, t.Type) {
		return fmt.Errorf("unknown type %q (expected one of %s)", t.Type, strings.Join(destination.Types, ", "))
	}
	if t.Type == destination.TypeKubernetes && (t.Kubernetes == nil || t.Kubernetes.Secret == "") {
		return fmt.Errorf("kubernetes.secret is required")
	}
	if len(t.Secrets)+len(t.Values)+len(t.Documents) == 0 {
		return fmt.Errorf("no secrets, values or documents to propagate")
	}
	for i, d := range t.Documents {
		if d.Source == "" {
			return fmt.Errorf("documents[%d].source is required", i)
		}
		if len(d.Fields) == 0 {
			return fmt.Errorf("documents[%d].fields is empty", i)
		}
	}
	return nil
}
