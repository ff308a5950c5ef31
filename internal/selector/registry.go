// Package selector chooses which language model serves a diagnostic query
// and walks a fallback chain of models when calls fail.
package selector

import (
	"errors"
	"fmt"
	"os"
	"slices"
)

// Well-known capability tags.
const (
	CapabilityReasoning = "reasoning"
	CapabilityFast      = "fast"
	CapabilityJSON      = "json"
)

// ModelDescriptor describes one callable model.
type ModelDescriptor struct {
	ID                   string   `koanf:"id" yaml:"id" json:"id"`
	Provider             string   `koanf:"provider" yaml:"provider" json:"provider"`
	CostPerMillionTokens float64  `koanf:"cost_per_million_tokens" yaml:"cost_per_million_tokens" json:"cost_per_million_tokens"`
	Capabilities         []string `koanf:"capabilities" yaml:"capabilities" json:"capabilities"`
	MaxTokens            int      `koanf:"max_tokens" yaml:"max_tokens" json:"max_tokens"`
	// CredentialEnv names the environment variable holding the API key.
	// Empty means the model needs no credential.
	CredentialEnv string `koanf:"credential_env" yaml:"credential_env" json:"credential_env"`
}

// HasCapability reports whether the descriptor carries tag.
func (d ModelDescriptor) HasCapability(tag string) bool {
	return slices.Contains(d.Capabilities, tag)
}

// Registry is an ordered, immutable set of model descriptors.
type Registry struct {
	models []ModelDescriptor
	byID   map[string]int
}

// NewRegistry validates models and returns a registry preserving their order.
func NewRegistry(models ...ModelDescriptor) (*Registry, error) {
	if len(models) == 0 {
		return nil, errors.New("registry needs at least one model")
	}
	r := &Registry{byID: make(map[string]int, len(models))}
	for _, m := range models {
		if m.ID == "" {
			return nil, errors.New("model id must not be empty")
		}
		if m.Provider == "" {
			return nil, fmt.Errorf("model %q has no provider", m.ID)
		}
		if _, dup := r.byID[m.ID]; dup {
			return nil, fmt.Errorf("duplicate model id %q", m.ID)
		}
		r.byID[m.ID] = len(r.models)
		r.models = append(r.models, m)
	}
	return r, nil
}

// Models returns the descriptors in registry order.
func (r *Registry) Models() []ModelDescriptor {
	return slices.Clone(r.models)
}

// Get looks up a descriptor by ID.
func (r *Registry) Get(id string) (ModelDescriptor, bool) {
	i, ok := r.byID[id]
	if !ok {
		return ModelDescriptor{}, false
	}
	return r.models[i], true
}

// IDs returns the model IDs in registry order.
func (r *Registry) IDs() []string {
	ids := make([]string, len(r.models))
	for i, m := range r.models {
		ids[i] = m.ID
	}
	return ids
}

// CredentialSource resolves the credential for a model. It is consulted on
// every call, so keys added or revoked at runtime take effect immediately.
type CredentialSource interface {
	Credential(d ModelDescriptor) (string, bool)
}

// EnvCredentials reads credentials from the process environment.
type EnvCredentials struct{}

func (EnvCredentials) Credential(d ModelDescriptor) (string, bool) {
	if d.CredentialEnv == "" {
		return "", true
	}
	v, ok := os.LookupEnv(d.CredentialEnv)
	return v, ok && v != ""
}

// StaticCredentials maps CredentialEnv names to keys. Useful in tests and
// for keys loaded from a secrets file.
type StaticCredentials map[string]string

func (s StaticCredentials) Credential(d ModelDescriptor) (string, bool) {
	if d.CredentialEnv == "" {
		return "", true
	}
	v, ok := s[d.CredentialEnv]
	return v, ok && v != ""
}
