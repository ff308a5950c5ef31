package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"

	"github.com/ziadkadry99/boilerbrain/internal/auth"
	"github.com/ziadkadry99/boilerbrain/internal/llm"
)

var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Manage API credentials for LLM providers",
	Long: `Store and manage API credentials for LLM providers.

Credentials are stored in ~/.boilerbrain/credentials.json and used
as a fallback when environment variables are not set.`,
}

var authSetCmd = &cobra.Command{
	Use:   "set [provider]",
	Short: "Store an API key for a provider",
	Long: `Prompts for an API key and stores it.
Valid providers: anthropic, openai, openrouter, minimax, gemini`,
	Args: cobra.ExactArgs(1),
	RunE: runAuthSet,
}

var authStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show which providers have credentials",
	RunE:  runAuthStatus,
}

var authLogoutCmd = &cobra.Command{
	Use:   "logout [provider]",
	Short: "Remove stored credentials",
	Long: `Remove stored credentials for a provider.

If no provider is specified, removes all stored credentials.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runAuthLogout,
}

var authProviders = []string{"anthropic", "openai", "openrouter", "minimax", "gemini"}

func init() {
	rootCmd.AddCommand(authCmd)
	authCmd.AddCommand(authSetCmd)
	authCmd.AddCommand(authStatusCmd)
	authCmd.AddCommand(authLogoutCmd)
}

func providerEnv(provider string) (string, error) {
	env := llm.DefaultCredentialEnv(strings.ToLower(provider))
	if env == "" {
		return "", fmt.Errorf("unknown provider %q (valid: %s)", provider, strings.Join(authProviders, ", "))
	}
	return env, nil
}

func loadStoredCredentials() (string, *auth.Credentials, error) {
	path, err := auth.DefaultPath()
	if err != nil {
		return "", nil, err
	}
	creds, err := auth.Load(path)
	if err != nil {
		return "", nil, err
	}
	return path, creds, nil
}

func runAuthSet(cmd *cobra.Command, args []string) error {
	env, err := providerEnv(args[0])
	if err != nil {
		return err
	}

	prompt := promptui.Prompt{
		Label: fmt.Sprintf("%s API key", args[0]),
		Mask:  '*',
		Validate: func(s string) error {
			if strings.TrimSpace(s) == "" {
				return fmt.Errorf("API key cannot be empty")
			}
			return nil
		},
	}
	key, err := prompt.Run()
	if err != nil {
		return fmt.Errorf("prompt cancelled: %w", err)
	}

	path, creds, err := loadStoredCredentials()
	if err != nil {
		return err
	}
	creds.Set(env, strings.TrimSpace(key))
	if err := auth.Save(path, creds); err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "Stored %s in %s\n", env, path)
	return nil
}

func runAuthStatus(cmd *cobra.Command, args []string) error {
	path, creds, err := loadStoredCredentials()
	if err != nil {
		return err
	}
	src := auth.NewSource(creds)

	fmt.Printf("Credentials file: %s\n\n", path)
	for _, p := range authProviders {
		env, _ := providerEnv(p)
		status := "not configured"
		switch {
		case os.Getenv(env) != "":
			status = "environment"
		default:
			if _, ok := src.Lookup(env); ok {
				status = "stored"
			}
		}
		fmt.Printf("  %-11s %-20s %s\n", p, env, status)
	}
	return nil
}

func runAuthLogout(cmd *cobra.Command, args []string) error {
	path, creds, err := loadStoredCredentials()
	if err != nil {
		return err
	}

	env := ""
	if len(args) == 1 {
		if env, err = providerEnv(args[0]); err != nil {
			return err
		}
	}
	creds.Remove(env)
	if err := auth.Save(path, creds); err != nil {
		return err
	}
	if env == "" {
		fmt.Fprintln(os.Stderr, "Removed all stored credentials")
	} else {
		fmt.Fprintf(os.Stderr, "Removed %s\n", env)
	}
	return nil
}
