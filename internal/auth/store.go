// Package auth stores provider API keys on disk as a fallback for
// environment variables.
package auth

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/ziadkadry99/boilerbrain/internal/selector"
)

// Credentials holds stored API keys keyed by the environment variable they
// stand in for, e.g. "OPENAI_API_KEY".
type Credentials struct {
	Keys map[string]string `json:"keys,omitempty"`
}

// DefaultPath returns ~/.boilerbrain/credentials.json.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home directory: %w", err)
	}
	return filepath.Join(home, ".boilerbrain", "credentials.json"), nil
}

// Load reads credentials from path.
// Returns empty credentials if the file doesn't exist.
func Load(path string) (*Credentials, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &Credentials{Keys: map[string]string{}}, nil
		}
		return nil, fmt.Errorf("reading credentials: %w", err)
	}

	var creds Credentials
	if err := json.Unmarshal(data, &creds); err != nil {
		return nil, fmt.Errorf("parsing credentials: %w", err)
	}
	if creds.Keys == nil {
		creds.Keys = map[string]string{}
	}
	return &creds, nil
}

// Save writes credentials to path with restricted permissions.
func Save(path string, creds *Credentials) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("creating credentials directory: %w", err)
	}

	data, err := json.MarshalIndent(creds, "", "  ")
	if err != nil {
		return fmt.Errorf("marshalling credentials: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("writing credentials: %w", err)
	}
	return nil
}

// Set stores key under env.
func (c *Credentials) Set(env, key string) {
	if c.Keys == nil {
		c.Keys = map[string]string{}
	}
	c.Keys[env] = key
}

// Remove deletes the key stored under env. An empty env removes everything.
func (c *Credentials) Remove(env string) {
	if env == "" {
		c.Keys = map[string]string{}
		return
	}
	delete(c.Keys, env)
}

// Names returns the stored variable names, sorted.
func (c *Credentials) Names() []string {
	names := make([]string, 0, len(c.Keys))
	for k := range c.Keys {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// Source resolves API keys from the environment first, then from stored
// credentials. It satisfies selector.CredentialSource.
type Source struct {
	stored *Credentials
}

// NewSource creates a Source. stored may be nil.
func NewSource(stored *Credentials) Source {
	return Source{stored: stored}
}

// Lookup returns the key for env. An empty env means no key is required.
func (s Source) Lookup(env string) (string, bool) {
	if env == "" {
		return "", true
	}
	if v := os.Getenv(env); v != "" {
		return v, true
	}
	if s.stored != nil {
		if v := s.stored.Keys[env]; v != "" {
			return v, true
		}
	}
	return "", false
}

// Credential implements selector.CredentialSource.
func (s Source) Credential(d selector.ModelDescriptor) (string, bool) {
	return s.Lookup(d.CredentialEnv)
}

var _ selector.CredentialSource = Source{}
