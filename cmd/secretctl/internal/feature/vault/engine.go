package vault

import (
	"fmt"
	"strings"

	"github.com/eliasmeireles/envvault"
	"github.com/hashicorp/vault/api"
	log "github.com/sirupsen/logrus"
)

// NewEngineManager returns an envvault.EngineManager over the Vault API client.
func NewEngineManager(client *api.Client) envvault.EngineManager {
	return &apiEngineAdapter{client: client}
}

// apiEngineAdapter wraps *api.Client to implement envvault.EngineManager.
type apiEngineAdapter struct {
	client *api.Client
}

func (a *apiEngineAdapter) MountEngine(path, engineType, description string, options map[string]string) error {
	return a.client.Sys().Mount(path, &api.MountInput{
		Type:        engineType,
		Description: description,
		Options:     options,
	})
}

func (a *apiEngineAdapter) UnmountEngine(path string) error {
	return a.client.Sys().Unmount(path)
}

func (a *apiEngineAdapter) ListEngines() (map[string]envvault.EngineMount, error) {
	mounts, err := a.client.Sys().ListMounts()
	if err != nil {
		return nil, err
	}
	result := make(map[string]envvault.EngineMount, len(mounts))
	for path, m := range mounts {
		result[path] = envvault.EngineMount{
			Type:        m.Type,
			Description: m.Description,
			Options:     m.Options,
		}
	}
	return result, nil
}

// ensureKVEngine mounts a KV v2 engine at mount unless one is already there.
// "already in use" errors from Vault are ignored so the call is idempotent.
func ensureKVEngine(engines envvault.EngineManager, mount string) error {
	mount = strings.Trim(mount, "/")

	existing, err := engines.ListEngines()
	if err == nil {
		if _, ok := existing[mount+"/"]; ok {
			return nil
		}
		if _, ok := existing[mount]; ok {
			return nil
		}
	}

	log.Infof("📦 Mounting KV v2 engine at %s", mount)

	err = engines.MountEngine(mount, "kv", "secretctl managed secrets", map[string]string{"version": "2"})
	if err != nil {
		msg := strings.ToLower(err.Error())
		if strings.Contains(msg, "path is already in use") ||
			strings.Contains(msg, "existing mount") ||
			strings.Contains(msg, "already mounted") {
			return nil
		}
		return fmt.Errorf("ensure kv engine at %q: %w", mount, err)
	}
	return nil
}
