// Package destination implements the sinks secret values are copied into:
// GitHub Actions secrets and variables, env files, Kubernetes Secrets and
// an in-memory recorder.
package destination

import (
	"context"
	"sort"
	"strings"
	"sync"
)

const (
	TypeGitHubSecrets   = "github-secrets"
	TypeGitHubVariables = "github-variables"
	TypeEnvFile         = "env-file"
	TypeKubernetes      = "kubernetes"
	TypeMemory          = "memory"
)

// Types lists the destination types accepted by commands and plans.
var Types = []string{TypeGitHubSecrets, TypeGitHubVariables, TypeEnvFile, TypeKubernetes}

// ResourceName is the identity a key gets in CI stores: lowercase with
// underscores replaced by hyphens. DATABASE_PASSWORD -> database-password.
func ResourceName(key string) string {
	return strings.ReplaceAll(strings.ToLower(key), "_", "-")
}

// Entry is a value recorded by Memory.
type Entry struct {
	Key   string
	Value string
}

// Memory records values in memory under their ResourceName. Writing the
// same key again replaces the entry.
type Memory struct {
	name string

	mu      sync.RWMutex
	entries map[string]Entry
}

// NewMemory returns an empty Memory destination.
func NewMemory(name string) *Memory {
	if name == "" {
		name = TypeMemory
	}
	return &Memory{name: name, entries: make(map[string]Entry)}
}

func (m *Memory) Name() string { return m.name }

func (m *Memory) Set(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[ResourceName(key)] = Entry{Key: key, Value: value}
	return nil
}

// Get returns the value stored under the resource name.
func (m *Memory) Get(resource string) (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.entries[resource]
	return e.Value, ok
}

// Resources returns the recorded resource names in sorted order.
func (m *Memory) Resources() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]string, 0, len(m.entries))
	for k := range m.entries {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Entries returns a copy of every recorded entry keyed by resource name.
func (m *Memory) Entries() map[string]Entry {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[string]Entry, len(m.entries))
	for k, v := range m.entries {
		out[k] = v
	}
	return out
}
