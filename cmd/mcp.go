package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	mcpserver "github.com/ziadkadry99/boilerbrain/internal/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start the MCP server for AI agent integration",
	Long:  `Starts a Model Context Protocol (MCP) server on stdio, exposing boiler diagnosis and fault code lookup tools to AI agents.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		logger, err := newLogger(cfg)
		if err != nil {
			return err
		}

		a, err := buildApp(context.Background(), cfg, logger)
		if err != nil {
			return err
		}
		defer a.Close()

		mcpserver.Version = Version
		fmt.Fprintf(os.Stderr, "boilerbrain MCP server started on stdio (knowledge entries=%d)\n", a.knowledge.Count())

		return mcpserver.NewServer(a.chat, a.knowledge).Serve()
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}
