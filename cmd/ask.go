package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ziadkadry99/boilerbrain/internal/chat"
)

var askCmd = &cobra.Command{
	Use:   "ask [message]",
	Short: "Send one message to the diagnostic assistant",
	Long: `Sends a single message through the reliability pipeline and prints the answer.
Pass --session to continue an earlier conversation; the session ID is printed
to stderr so it can be reused.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAsk,
}

func init() {
	askCmd.Flags().String("session", "", "session ID to continue")
	askCmd.Flags().Bool("json", false, "output the full reply as JSON")
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	sessionID, _ := cmd.Flags().GetString("session")
	jsonOutput, _ := cmd.Flags().GetBool("json")

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger, err := newLogger(cfg)
	if err != nil {
		return err
	}

	ctx := context.Background()
	a, err := buildApp(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	reply, err := a.chat.Send(ctx, sessionID, strings.Join(args, " "))
	if err != nil {
		return err
	}

	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(reply)
	}
	printReply(reply)
	return nil
}

func printReply(reply chat.Reply) {
	fmt.Println(reply.ResponseText)
	fmt.Fprintf(os.Stderr, "\n[session %s, %s]\n", reply.SessionID, reply.SourceTier)
}
