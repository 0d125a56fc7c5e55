// Package vault connects to HashiCorp Vault and exposes its KV v2 engine
// as a secret store.
package vault

import (
	"context"
	"fmt"
	"time"

	"github.com/eliasmeireles/envvault"
	"github.com/hashicorp/vault/api"
	log "github.com/sirupsen/logrus"

	"github.com/eliasmeireles/secretctl/cmd/secretctl/internal/feature/secret"
)

// DefaultVaultTimeout is the maximum time allowed for Vault connectivity
// checks and token validation before failing fast.
const DefaultVaultTimeout = 10 * time.Second

// Session is an authenticated Vault connection.
type Session struct {
	Envvault *envvault.Client
	API      *api.Client
	Backend  string
}

// Connect resolves f against the environment, checks that Vault is
// reachable, authenticates and validates the resulting token.
func Connect(ctx context.Context, f Flags) (*Session, error) {
	return ConnectFunc(ctx, f)
}

// ConnectFunc is a function variable for Connect so commands can be tested
// without a Vault server.
var ConnectFunc = func(ctx context.Context, f Flags) (*Session, error) {
	ResolveFlags(&f)
	f.PushToEnv()

	cfg, err := envvault.ConfigFromEnvForReadOnly()
	if err != nil {
		return nil, fmt.Errorf("failed to load Vault config: %w", err)
	}

	if err := checkHealth(ctx, cfg.VaultAddr); err != nil {
		return nil, err
	}

	client := envvault.NewClient(cfg)
	if err := client.Authenticate(); err != nil {
		return nil, secret.Unavailable(cfg.VaultAddr, fmt.Errorf("vault authentication failed: %w", err))
	}

	apiClient, err := client.VaultClient()
	if err != nil {
		return nil, fmt.Errorf("failed to get Vault API client: %w", err)
	}

	if err := validateToken(ctx, apiClient); err != nil {
		return nil, err
	}

	log.Debugf("🔐 Authenticated against %s", cfg.VaultAddr)

	return &Session{Envvault: client, API: apiClient, Backend: f.Backend}, nil
}

// Store returns the secret store for the session's backend.
func (s *Session) Store() (secret.Store, error) {
	switch s.Backend {
	case "", BackendKV:
		return NewKVStore(s.API), nil
	case BackendEnvvault:
		return NewEnvvaultStore(s.Envvault, WithMountProvisioning(NewEngineManager(s.API))), nil
	default:
		return nil, fmt.Errorf("unknown vault backend %q (expected %s or %s)", s.Backend, BackendKV, BackendEnvvault)
	}
}

// checkHealth fails fast when the server at addr cannot be reached.
// Sealed, standby and uninitialized servers still count as reachable.
func checkHealth(ctx context.Context, addr string) error {
	if addr == "" {
		return fmt.Errorf("vault address not configured: set VAULT_ADDR or use --vault-addr")
	}

	cfg := api.DefaultConfig()
	cfg.Address = addr
	cfg.Timeout = DefaultVaultTimeout
	cfg.MaxRetries = 0

	client, err := api.NewClient(cfg)
	if err != nil {
		return fmt.Errorf("failed to create Vault client for %s: %w", addr, err)
	}

	ctx, cancel := context.WithTimeout(ctx, DefaultVaultTimeout)
	defer cancel()

	if _, err := client.Sys().HealthWithContext(ctx); err != nil {
		return secret.Unavailable(addr, fmt.Errorf("vault server unreachable (timeout: %s): %w", DefaultVaultTimeout, err))
	}
	return nil
}

// validateToken performs a token self-lookup so an expired token fails
// with a clear message instead of on the first read.
func validateToken(ctx context.Context, client *api.Client) error {
	client.SetClientTimeout(DefaultVaultTimeout)

	s, err := client.Auth().Token().LookupSelfWithContext(ctx)
	if err != nil {
		return secret.Unavailable(client.Address(), fmt.Errorf(
			"vault token is invalid or expired: %w\n"+
				"  Run 'vault login' to refresh your token or "+
				"set VAULT_TOKEN with a valid token",
			err,
		))
	}

	if s == nil || s.Data == nil {
		return secret.Unavailable(client.Address(), fmt.Errorf(
			"vault token lookup returned empty response; token may be expired or revoked",
		))
	}

	return nil
}
