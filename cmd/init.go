package cmd

import (
	"github.com/spf13/cobra"

	"github.com/ziadkadry99/boilerbrain/internal/config"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize boilerbrain configuration with an interactive wizard",
	Long:  `Runs an interactive wizard to choose models, the session store and the HTTP port, and writes boilerbrain.yml.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		_, err := config.RunWizard(cfgFile)
		return err
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
