package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"mux/internal/daemon"
	"mux/internal/eventbus"
	"mux/internal/oauth"
	"mux/internal/session"

	"github.com/briandowns/spinner"
	"github.com/spf13/cobra"
)

var chatModel string

var chatCmd = &cobra.Command{
	Use:   "chat WORKSPACE_ID MESSAGE...",
	Short: "Send one message to a workspace and print the assistant's reply as it streams",
	Long: `chat starts a daemon in-process, sends MESSAGE as a user turn to the
named workspace's Session Orchestrator, and streams text deltas to stdout
until the turn completes (or is aborted/errors). It exits once the turn's
stream-end/stream-abort/error event arrives, unlike "mux events" which
tails indefinitely.`,
	Args: cobra.MinimumNArgs(2),
	RunE: runChat,
}

func runChat(cmd *cobra.Command, args []string) error {
	workspaceID := args[0]
	text := strings.Join(args[1:], " ")

	d, err := daemon.New(daemon.Config{
		MuxHome:         muxConfigPath(),
		AnthropicAPIKey: os.Getenv("ANTHROPIC_API_KEY"),
		DefaultModel:    chatModel,
		OAuth:           oauth.Config{},
	})
	if err != nil {
		return fmt.Errorf("initialize daemon: %w", err)
	}

	out := cmd.OutOrStdout()
	done := make(chan error, 1)
	sp := spinner.New(spinner.CharSets[11], 120*time.Millisecond)
	sp.Start()

	unsubscribe := d.Bus.Subscribe(func(ev eventbus.Event) {
		if ev.WorkspaceID != workspaceID {
			return
		}
		switch ev.Kind {
		case eventbus.KindStreamDelta:
			sp.Stop()
			if p, ok := ev.Payload.(eventbus.StreamDeltaPayload); ok {
				fmt.Fprint(out, p.Delta)
			}
		case eventbus.KindStreamEnd:
			fmt.Fprintln(out)
			done <- nil
		case eventbus.KindStreamAbort:
			done <- fmt.Errorf("chat: stream aborted")
		case eventbus.KindError:
			if p, ok := ev.Payload.(eventbus.ErrorPayload); ok {
				done <- fmt.Errorf("chat: %s", p.Error)
				return
			}
			done <- fmt.Errorf("chat: stream error")
		}
	})
	defer unsubscribe()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	if err := d.Sessions.Send(ctx, workspaceID, session.SendParams{Text: text, Model: chatModel}); err != nil {
		sp.Stop()
		return fmt.Errorf("send: %w", err)
	}

	return <-done
}

func init() {
	chatCmd.Flags().StringVar(&chatModel, "model", "", "Model override for this turn")
	rootCmd.AddCommand(chatCmd)
}
