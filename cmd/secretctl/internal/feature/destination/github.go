package destination

import (
	"bytes"
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"

	"github.com/hashicorp/go-cleanhttp"
	log "github.com/sirupsen/logrus"
	"golang.org/x/crypto/nacl/box"
)

const (
	// DefaultGitHubAPI is the public GitHub REST endpoint.
	DefaultGitHubAPI = "https://api.github.com"

	EnvGitHubToken = "GITHUB_TOKEN"
	EnvGitHubAPI   = "GITHUB_API_URL"

	githubAPIVersion = "2022-11-28"
)

// errGitHubNotFound marks a 404 from the GitHub API.
var errGitHubNotFound = errors.New("not found")

// GitHubRepository addresses a repository and the credentials to reach it.
type GitHubRepository struct {
	Owner      string
	Repository string
	Token      string
	// BaseURL defaults to DefaultGitHubAPI.
	BaseURL string
	// HTTPClient defaults to a pooled cleanhttp client.
	HTTPClient *http.Client
}

type githubClient struct {
	repo GitHubRepository
	http *http.Client
}

func newGitHubClient(repo GitHubRepository) (*githubClient, error) {
	if repo.Owner == "" || repo.Repository == "" {
		return nil, fmt.Errorf("github owner and repository are required")
	}
	if repo.Token == "" {
		return nil, fmt.Errorf("github token is required: set %s or use --github-token", EnvGitHubToken)
	}
	if repo.BaseURL == "" {
		repo.BaseURL = DefaultGitHubAPI
	}
	httpClient := repo.HTTPClient
	if httpClient == nil {
		httpClient = cleanhttp.DefaultPooledClient()
	}
	return &githubClient{repo: repo, http: httpClient}, nil
}

func (c *githubClient) url(parts ...string) string {
	return strings.TrimRight(c.repo.BaseURL, "/") + "/repos/" + c.repo.Owner + "/" + c.repo.Repository + "/actions/" + strings.Join(parts, "/")
}

func (c *githubClient) do(ctx context.Context, method, url string, body, out any) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("Authorization", "Bearer "+c.repo.Token)
	req.Header.Set("X-GitHub-Api-Version", githubAPIVersion)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusNotFound {
		return fmt.Errorf("%s %s: %w", method, url, errGitHubNotFound)
	}
	if resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("%s %s: unexpected status %d: %s", method, url, resp.StatusCode, strings.TrimSpace(string(msg)))
	}
	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}

// GitHubSecrets writes GitHub Actions repository secrets. Values are sealed
// with the repository public key before leaving the process.
type GitHubSecrets struct {
	client *githubClient

	mu    sync.Mutex
	keyID string
	key   *[32]byte
}

// NewGitHubSecrets returns a destination for the repository's Actions secrets.
func NewGitHubSecrets(repo GitHubRepository) (*GitHubSecrets, error) {
	c, err := newGitHubClient(repo)
	if err != nil {
		return nil, err
	}
	return &GitHubSecrets{client: c}, nil
}

func (g *GitHubSecrets) Name() string {
	return TypeGitHubSecrets + ":" + g.client.repo.Owner + "/" + g.client.repo.Repository
}

// Set creates or replaces the secret. GitHub stores secret names in upper
// case and rejects hyphens, so key is sent as given.
func (g *GitHubSecrets) Set(ctx context.Context, key, value string) error {
	keyID, pub, err := g.publicKey(ctx)
	if err != nil {
		return fmt.Errorf("repository public key: %w", err)
	}

	sealed, err := box.SealAnonymous(nil, []byte(value), pub, rand.Reader)
	if err != nil {
		return fmt.Errorf("seal %s: %w", key, err)
	}

	body := map[string]string{
		"encrypted_value": base64.StdEncoding.EncodeToString(sealed),
		"key_id":          keyID,
	}
	if err := g.client.do(ctx, http.MethodPut, g.client.url("secrets", key), body, nil); err != nil {
		return err
	}

	log.Debugf("🔑 GitHub secret %s (%s) updated", key, ResourceName(key))
	return nil
}

func (g *GitHubSecrets) publicKey(ctx context.Context) (string, *[32]byte, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.key != nil {
		return g.keyID, g.key, nil
	}

	var resp struct {
		KeyID string `json:"key_id"`
		Key   string `json:"key"`
	}
	if err := g.client.do(ctx, http.MethodGet, g.client.url("secrets", "public-key"), nil, &resp); err != nil {
		return "", nil, err
	}

	raw, err := base64.StdEncoding.DecodeString(resp.Key)
	if err != nil {
		return "", nil, fmt.Errorf("decode public key: %w", err)
	}
	if len(raw) != 32 {
		return "", nil, fmt.Errorf("public key has %d bytes, expected 32", len(raw))
	}

	var key [32]byte
	copy(key[:], raw)
	g.keyID, g.key = resp.KeyID, &key
	return g.keyID, g.key, nil
}

// GitHubVariables writes GitHub Actions repository variables.
type GitHubVariables struct {
	client *githubClient
}

// NewGitHubVariables returns a destination for the repository's Actions variables.
func NewGitHubVariables(repo GitHubRepository) (*GitHubVariables, error) {
	c, err := newGitHubClient(repo)
	if err != nil {
		return nil, err
	}
	return &GitHubVariables{client: c}, nil
}

func (g *GitHubVariables) Name() string {
	return TypeGitHubVariables + ":" + g.client.repo.Owner + "/" + g.client.repo.Repository
}

// Set updates the variable, creating it when it does not exist yet.
func (g *GitHubVariables) Set(ctx context.Context, key, value string) error {
	body := map[string]string{"name": key, "value": value}

	err := g.client.do(ctx, http.MethodPatch, g.client.url("variables", key), body, nil)
	if errors.Is(err, errGitHubNotFound) {
		err = g.client.do(ctx, http.MethodPost, g.client.url("variables"), body, nil)
	}
	if err != nil {
		return err
	}

	log.Debugf("📝 GitHub variable %s (%s) updated", key, ResourceName(key))
	return nil
}
