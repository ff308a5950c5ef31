package cmd

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ziadkadry99/boilerbrain/internal/selector"
)

var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "List configured models and whether their credentials are set",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		registry, err := selector.NewRegistry(cfg.Models...)
		if err != nil {
			return err
		}

		creds := credentialSource(zap.NewNop())
		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "MODEL\tPROVIDER\tCOST/1M\tCAPABILITIES\tCREDENTIAL")
		for _, m := range registry.Models() {
			status := "ok"
			if _, ok := creds.Credential(m); !ok {
				status = "missing " + m.CredentialEnv
			}
			fmt.Fprintf(w, "%s\t%s\t$%.2f\t%s\t%s\n", m.ID, m.Provider, m.CostPerMillionTokens, strings.Join(m.Capabilities, ","), status)
		}
		if err := w.Flush(); err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "\nLegacy fallback model: %s (%s)\n", cfg.LegacyModel, cfg.LegacyProvider)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(modelsCmd)
}
