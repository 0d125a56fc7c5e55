package propagation

import (
	"context"
	"fmt"
	"strings"

	"github.com/hashicorp/go-multierror"
	log "github.com/sirupsen/logrus"

	"github.com/eliasmeireles/secretctl/cmd/secretctl/internal/env"
	"github.com/eliasmeireles/secretctl/cmd/secretctl/internal/feature/destination"
	"github.com/eliasmeireles/secretctl/cmd/secretctl/internal/feature/dsn"
	"github.com/eliasmeireles/secretctl/cmd/secretctl/internal/feature/environment"
	"github.com/eliasmeireles/secretctl/cmd/secretctl/internal/feature/secret"
)

// DestinationFactory builds the destination a target writes to.
type DestinationFactory func(t Target) (secret.Destination, error)

// Applier executes propagation plans.
type Applier struct {
	propagator *secret.Propagator
	factory    DestinationFactory
}

// NewApplier returns an Applier copying through propagator into the
// destinations built by factory.
func NewApplier(propagator *secret.Propagator, factory DestinationFactory) *Applier {
	return &Applier{propagator: propagator, factory: factory}
}

// Apply validates cfg, resolves its metadata and applies every target.
// A failing target does not stop the others; all errors are returned together.
func (a *Applier) Apply(ctx context.Context, cfg *Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	meta, err := environment.Resolve(cfg.Metadata)
	if err != nil {
		return fmt.Errorf("metadata: %w", err)
	}
	log.Infof("🚀 Propagating %s (%s, %s)", meta.Name, meta.Environment, meta.Version)

	var result *multierror.Error
	for _, t := range cfg.Targets {
		if err := a.applyTarget(ctx, meta, t); err != nil {
			result = multierror.Append(result, fmt.Errorf("%s: %w", t.Label(), err))
		}
	}
	return result.ErrorOrNil()
}

func (a *Applier) applyTarget(ctx context.Context, meta environment.Metadata, t Target) error {
	dst, err := a.factory(t)
	if err != nil {
		return fmt.Errorf("destination: %w", err)
	}

	lookup := meta.Lookup()
	var result *multierror.Error

	if len(t.Values) > 0 {
		values := make(map[string]string, len(t.Values))
		for k, v := range t.Values {
			values[k] = dsn.Expand(v, lookup)
		}
		if err := secret.Publish(ctx, values, dst); err != nil {
			result = multierror.Append(result, err)
		}
	}

	if len(t.Secrets) > 0 {
		mapping := make(map[string]string, len(t.Secrets))
		for k, locator := range t.Secrets {
			mapping[k] = dsn.Expand(locator, lookup)
		}
		if err := a.propagator.CopyAll(ctx, mapping, dst); err != nil {
			result = multierror.Append(result, err)
		}
	}

	for _, d := range t.Documents {
		if err := a.propagator.CopyFields(ctx, dsn.Expand(d.Source, lookup), d.Fields, dst); err != nil {
			result = multierror.Append(result, err)
		}
	}

	return result.ErrorOrNil()
}

// FactoryOptions carries credentials shared by all targets.
type FactoryOptions struct {
	GitHubToken string
}

// NewDestinationFactory builds real destinations from target settings.
func NewDestinationFactory(opts FactoryOptions) DestinationFactory {
	return func(t Target) (secret.Destination, error) {
		switch t.Type {
		case destination.TypeGitHubSecrets:
			return destination.NewGitHubSecrets(githubRepository(t.GitHub, opts.GitHubToken))
		case destination.TypeGitHubVariables:
			return destination.NewGitHubVariables(githubRepository(t.GitHub, opts.GitHubToken))
		case destination.TypeEnvFile:
			var path string
			if t.EnvFile != nil {
				path = t.EnvFile.Path
			}
			return destination.NewEnvFile(path)
		case destination.TypeKubernetes:
			k := t.Kubernetes
			if k == nil {
				return nil, fmt.Errorf("kubernetes settings are required")
			}
			return destination.NewKubernetes(destination.KubernetesTarget{
				Namespace:  k.Namespace,
				Secret:     k.Secret,
				Kubeconfig: k.Kubeconfig,
				Context:    k.Context,
			})
		default:
			return nil, fmt.Errorf("unknown destination type %q", t.Type)
		}
	}
}

// DryRun records every write in one Memory destination per built target.
// Targets and Destinations are index-aligned and follow build order, so
// targets sharing a label stay apart.
type DryRun struct {
	Targets      []Target
	Destinations []*destination.Memory
}

// NewDryRun returns an empty DryRun.
func NewDryRun() *DryRun {
	return &DryRun{}
}

// Factory is a DestinationFactory backed by Memory destinations.
func (d *DryRun) Factory(t Target) (secret.Destination, error) {
	m := destination.NewMemory(t.Label())
	d.Targets = append(d.Targets, t)
	d.Destinations = append(d.Destinations, m)
	return m, nil
}

func githubRepository(t *GitHubTarget, token string) destination.GitHubRepository {
	repo := destination.GitHubRepository{Token: token}
	if t != nil {
		repo.Owner, repo.Repository, repo.BaseURL = t.Owner, t.Repository, t.BaseURL
	}
	if repo.Owner == "" || repo.Repository == "" {
		if full, ok := env.Get("GITHUB_REPOSITORY"); ok {
			if owner, name, found := strings.Cut(full, "/"); found {
				if repo.Owner == "" {
					repo.Owner = owner
				}
				if repo.Repository == "" {
					repo.Repository = name
				}
			}
		}
	}
	if repo.BaseURL == "" {
		repo.BaseURL = env.GetOr(destination.EnvGitHubAPI, destination.DefaultGitHubAPI)
	}
	if repo.Token == "" {
		repo.Token, _ = env.Get(destination.EnvGitHubToken)
	}
	return repo
}
