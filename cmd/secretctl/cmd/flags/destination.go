package flags

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/eliasmeireles/secretctl/cmd/secretctl/internal/feature/destination"
	"github.com/eliasmeireles/secretctl/cmd/secretctl/internal/feature/propagation"
	"github.com/eliasmeireles/secretctl/cmd/secretctl/internal/feature/secret"
)

// Destination holds the flags that address a single destination.
type Destination struct {
	Type        string
	Owner       string
	Repository  string
	GitHubAPI   string
	GitHubToken string
	EnvFile     string
	Namespace   string
	Secret      string
	Kubeconfig  string
	Context     string
}

// BindDestination registers the destination flags on cmd. required marks
// --to as mandatory.
func BindDestination(cmd *cobra.Command, d *Destination, required bool) {
	cmd.Flags().StringVar(
		&d.Type, "to", "",
		fmt.Sprintf("Destination type (%s)", strings.Join(destination.Types, ", ")),
	)
	if required {
		_ = cmd.MarkFlagRequired("to")
	}

	cmd.Flags().StringVar(&d.Owner, "owner", "", "GitHub repository owner (default: from GITHUB_REPOSITORY)")
	cmd.Flags().StringVar(&d.Repository, "repo", "", "GitHub repository name (default: from GITHUB_REPOSITORY)")
	cmd.Flags().StringVar(&d.GitHubAPI, "github-api-url", "", "GitHub API base URL (env: GITHUB_API_URL)")
	cmd.Flags().StringVar(&d.GitHubToken, "github-token", "", "GitHub token (env: GITHUB_TOKEN)")
	cmd.Flags().StringVar(&d.EnvFile, "env-file-path", "", "Env file to append to (default: $GITHUB_ENV)")
	cmd.Flags().StringVar(&d.Namespace, "namespace", "", "Kubernetes namespace (default: default)")
	cmd.Flags().StringVar(&d.Secret, "k8s-secret", "", "Kubernetes Secret name")
	cmd.Flags().StringVar(&d.Kubeconfig, "kubeconfig", "", "Kubeconfig path (default: KUBECONFIG or ~/.kube/config)")
	cmd.Flags().StringVar(&d.Context, "context", "", "Kubeconfig context")
}

// Target converts the flags into a propagation target.
func (d Destination) Target() propagation.Target {
	t := propagation.Target{Name: d.Type, Type: d.Type}
	switch d.Type {
	case destination.TypeGitHubSecrets, destination.TypeGitHubVariables:
		t.GitHub = &propagation.GitHubTarget{Owner: d.Owner, Repository: d.Repository, BaseURL: d.GitHubAPI}
	case destination.TypeEnvFile:
		t.EnvFile = &propagation.EnvFileTarget{Path: d.EnvFile}
	case destination.TypeKubernetes:
		t.Kubernetes = &propagation.KubernetesTarget{
			Namespace:  d.Namespace,
			Secret:     d.Secret,
			Kubeconfig: d.Kubeconfig,
			Context:    d.Context,
		}
	}
	return t
}

// Build creates the destination addressed by the flags.
func (d Destination) Build() (secret.Destination, error) {
	return DestinationFactoryFunc(propagation.FactoryOptions{GitHubToken: d.GitHubToken})(d.Target())
}

// DestinationFactoryFunc is swapped in tests to capture writes.
var DestinationFactoryFunc = propagation.NewDestinationFactory
