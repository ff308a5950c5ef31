package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Start an interactive diagnostic conversation",
	Long: `Opens an interactive session with the diagnostic assistant. Type "@detailed"
or "@basic" to switch answer depth, and "exit" or Ctrl+C to quit.`,
	RunE: runChat,
}

func init() {
	chatCmd.Flags().String("session", "", "session ID to resume")
	rootCmd.AddCommand(chatCmd)
}

func runChat(cmd *cobra.Command, args []string) error {
	sessionID, _ := cmd.Flags().GetString("session")

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

	fmt.Fprintln(os.Stderr, "BoilerBrain diagnostic chat. Describe the boiler and what it is doing.")

	prompt := promptui.Prompt{Label: "You"}
	for {
		message, err := prompt.Run()
		if errors.Is(err, promptui.ErrInterrupt) || errors.Is(err, promptui.ErrEOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("reading input: %w", err)
		}
		message = strings.TrimSpace(message)
		if message == "" {
			continue
		}
		if message == "exit" || message == "quit" {
			return nil
		}

		reply, err := a.chat.Send(ctx, sessionID, message)
		if err != nil {
			return err
		}
		sessionID = reply.SessionID
		fmt.Println()
		printReply(reply)
		fmt.Println()
	}
}
