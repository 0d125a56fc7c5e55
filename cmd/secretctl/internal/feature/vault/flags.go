package vault

import (
	"os"

	"github.com/eliasmeireles/envvault"
	"github.com/spf13/cobra"
)

// Flags holds the Vault connection and authentication settings.
// Flags take precedence over environment variables, which take precedence
// over the $HOME/.vault-token fallback.
type Flags struct {
	Addr         string
	Token        string
	RoleID       string
	SecretID     string
	K8sRole      string
	K8sMountPath string
	SATokenPath  string
	// Backend selects the store implementation: "kv" or "envvault".
	Backend string
}

const (
	BackendKV       = "kv"
	BackendEnvvault = "envvault"

	// EnvVaultBackend overrides the store backend.
	EnvVaultBackend = "SECRETCTL_VAULT_BACKEND"
)

// envBinding pairs a setting with the environment variable backing it.
type envBinding struct {
	key   string
	value *string
}

// bindings lists the settings envvault reads from the environment.
func (f *Flags) bindings() []envBinding {
	return []envBinding{
		{envvault.EnvVaultAddr, &f.Addr},
		{envvault.EnvVaultToken, &f.Token},
		{envvault.EnvVaultRoleID, &f.RoleID},
		{envvault.EnvVaultSecretID, &f.SecretID},
		{envvault.EnvVaultK8sRole, &f.K8sRole},
		{envvault.EnvVaultK8sMountPath, &f.K8sMountPath},
		{envvault.EnvVaultSATokenPath, &f.SATokenPath},
	}
}

// ResolveFlags fills empty settings from the environment and defaults the
// backend to kv.
func ResolveFlags(f *Flags) {
	for _, b := range append(f.bindings(), envBinding{EnvVaultBackend, &f.Backend}) {
		if *b.value == "" {
			*b.value = os.Getenv(b.key)
		}
	}
	if f.Backend == "" {
		f.Backend = BackendKV
	}
}

// PushToEnv exports non-empty settings for envvault.ConfigFromEnvForReadOnly.
func (f *Flags) PushToEnv() {
	for _, b := range f.bindings() {
		if *b.value != "" {
			_ = os.Setenv(b.key, *b.value)
		}
	}
}

// BindFlags registers the Vault flags as persistent flags of cmd.
func BindFlags(cmd *cobra.Command, f *Flags) {
	cmd.PersistentFlags().StringVar(&f.Addr, "vault-addr", "", "Vault server address (env: VAULT_ADDR)")
	cmd.PersistentFlags().StringVar(&f.Token, "vault-token", "", "Vault token for direct auth (env: VAULT_TOKEN)")
	cmd.PersistentFlags().StringVar(&f.RoleID, "vault-role-id", "", "AppRole role ID (env: VAULT_ROLE_ID)")
	cmd.PersistentFlags().StringVar(&f.SecretID, "vault-secret-id", "", "AppRole secret ID (env: VAULT_SECRET_ID)")
	cmd.PersistentFlags().StringVar(&f.K8sRole, "vault-k8s-role", "", "Vault role for K8s ServiceAccount auth (env: VAULT_K8S_ROLE)")
	cmd.PersistentFlags().StringVar(
		&f.K8sMountPath, "vault-k8s-mount-path", "",
		"Vault K8s auth mount path (env: VAULT_K8S_MOUNT_PATH), default: kubernetes",
	)
	cmd.PersistentFlags().StringVar(&f.SATokenPath, "vault-sa-token-path", "", "ServiceAccount token file path (env: VAULT_SA_TOKEN_PATH)")
	cmd.PersistentFlags().StringVar(
		&f.Backend, "vault-backend", "",
		"Secret store backend: kv or envvault (env: SECRETCTL_VAULT_BACKEND, default: kv)",
	)
}
