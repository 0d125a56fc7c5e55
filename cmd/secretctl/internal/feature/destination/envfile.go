package destination

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
	"strings"
	"sync"
)

// EnvGitHubEnv is the file GitHub Actions reads step environment from.
const EnvGitHubEnv = "GITHUB_ENV"

// EnvFile appends KEY=value lines to a file such as $GITHUB_ENV.
// Multi-line values use the KEY<<delimiter form.
type EnvFile struct {
	path string
	mu   sync.Mutex
}

// NewEnvFile returns a destination appending to path. An empty path falls
// back to $GITHUB_ENV.
func NewEnvFile(path string) (*EnvFile, error) {
	if path == "" {
		path = os.Getenv(EnvGitHubEnv)
	}
	if path == "" {
		return nil, fmt.Errorf("env file path is required: set %s or use --env-file-path", EnvGitHubEnv)
	}
	return &EnvFile{path: path}, nil
}

func (e *EnvFile) Name() string { return TypeEnvFile + ":" + e.path }

func (e *EnvFile) Set(_ context.Context, key, value string) error {
	if key == "" || strings.ContainsAny(key, "=\n") {
		return fmt.Errorf("invalid env key %q", key)
	}

	line, err := envLine(key, value)
	if err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	f, err := os.OpenFile(e.path, os.O_APPEND|os.O_WRONLY|os.O_CREATE, 0600)
	if err != nil {
		return fmt.Errorf("open %s: %w", e.path, err)
	}
	defer func() { _ = f.Close() }()

	if _, err := f.WriteString(line); err != nil {
		return fmt.Errorf("write %s: %w", e.path, err)
	}
	return nil
}

func envLine(key, value string) (string, error) {
	if !strings.ContainsAny(value, "\r\n") {
		return fmt.Sprintf("%s=%s\n", key, value), nil
	}

	buf := make([]byte, 8)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	delimiter := "EOF_" + hex.EncodeToString(buf)
	return fmt.Sprintf("%s<<%s\n%s\n%s\n", key, delimiter, value, delimiter), nil
}
