package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/manifoldco/promptui"

	"github.com/ziadkadry99/boilerbrain/internal/llm"
	"github.com/ziadkadry99/boilerbrain/internal/selector"
)

// RunWizard runs an interactive configuration wizard and saves the result
// to path.
func RunWizard(path string) (*Config, error) {
	fmt.Println("Welcome to BoilerBrain! Let's configure the diagnostic service.")
	fmt.Println()

	cfg := DefaultConfig()

	// 1. Models.
	var models []selector.ModelDescriptor
	for _, m := range DefaultModels {
		prompt := promptui.Select{
			Label: fmt.Sprintf("Enable %s (%s, $%.2f/M tokens)", m.ID, m.Provider, m.CostPerMillionTokens),
			Items: []string{"yes", "no"},
		}
		_, answer, err := prompt.Run()
		if err != nil {
			return nil, fmt.Errorf("model selection: %w", err)
		}
		if answer == "yes" {
			models = append(models, m)
		}
	}
	if len(models) == 0 {
		return nil, fmt.Errorf("at least one model must be enabled")
	}
	cfg.Models = models

	// 2. Legacy model.
	legacyPrompt := promptui.Select{
		Label: "Fallback (legacy) model",
		Items: modelIDs(models),
	}
	idx, _, err := legacyPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("legacy model selection: %w", err)
	}
	cfg.LegacyProvider = ProviderType(models[idx].Provider)
	cfg.LegacyModel = models[idx].ID

	// 3. Session store.
	driverPrompt := promptui.Select{
		Label: "Session store",
		Items: []string{"sqlite", "redis", "memory"},
	}
	_, driver, err := driverPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("session store selection: %w", err)
	}
	cfg.Session.Driver = driver
	if driver == "redis" {
		addrPrompt := promptui.Prompt{Label: "Redis address", Default: "localhost:6379"}
		if cfg.Session.RedisAddr, err = addrPrompt.Run(); err != nil {
			return nil, fmt.Errorf("redis address: %w", err)
		}
	}

	// 4. Port.
	portPrompt := promptui.Prompt{
		Label:   "HTTP port",
		Default: strconv.Itoa(cfg.Server.Port),
		Validate: func(s string) error {
			p, err := strconv.Atoi(s)
			if err != nil || p <= 0 || p > 65535 {
				return fmt.Errorf("enter a port between 1 and 65535")
			}
			return nil
		},
	}
	portStr, err := portPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("port: %w", err)
	}
	cfg.Server.Port, _ = strconv.Atoi(portStr)

	cfg.applyCredentialDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	// Check for API keys.
	for _, env := range missingCredentials(cfg.Models) {
		fmt.Printf("\nNote: Set %s in your environment before running boilerbrain serve.\n", env)
	}

	if err := cfg.Save(path); err != nil {
		return nil, fmt.Errorf("saving config: %w", err)
	}

	fmt.Printf("\nConfiguration saved to %s\n", path)
	return cfg, nil
}

func modelIDs(models []selector.ModelDescriptor) []string {
	ids := make([]string, len(models))
	for i, m := range models {
		ids[i] = m.ID
	}
	return ids
}

// missingCredentials lists the distinct credential variables that are not
// set in the environment.
func missingCredentials(models []selector.ModelDescriptor) []string {
	seen := make(map[string]bool)
	var missing []string
	for _, m := range models {
		env := m.CredentialEnv
		if env == "" {
			env = llm.DefaultCredentialEnv(m.Provider)
		}
		if env == "" || seen[env] {
			continue
		}
		seen[env] = true
		if os.Getenv(env) == "" {
			missing = append(missing, env)
		}
	}
	return missing
}
