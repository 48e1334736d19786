package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"mux/internal/daemon"
	"mux/internal/eventbus"
	"mux/internal/oauth"

	"github.com/spf13/cobra"
)

var eventsWorkspace string

// eventsCmd starts a daemon in-process and tails its Event Bus as JSON
// lines. The Event Bus has no cross-process transport (§5 describes it as
// a single in-process emitter), so this is the daemon's own event stream
// rather than an attach to an already-running "mux serve" — useful for
// scripting a one-shot session against a workspace without a separate
// frontend process.
var eventsCmd = &cobra.Command{
	Use:   "events",
	Short: "Start a daemon and tail its chat-event stream as JSON lines",
	Args:  cobra.NoArgs,
	RunE:  runEvents,
}

func runEvents(cmd *cobra.Command, args []string) error {
	d, err := daemon.New(daemon.Config{
		MuxHome:         muxConfigPath(),
		AnthropicAPIKey: os.Getenv("ANTHROPIC_API_KEY"),
		OAuth:           oauth.Config{},
	})
	if err != nil {
		return fmt.Errorf("initialize daemon: %w", err)
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	unsubscribe := d.Bus.Subscribe(func(ev eventbus.Event) {
		if eventsWorkspace != "" && ev.WorkspaceID != eventsWorkspace {
			return
		}
		_ = enc.Encode(ev)
	})
	defer unsubscribe()

	parent := cmd.Context()
	if parent == nil {
		parent = context.Background()
	}
	ctx, cancel := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	return d.Run(ctx)
}

func init() {
	eventsCmd.Flags().StringVar(&eventsWorkspace, "workspace", "", "Only print events for this workspace ID")
	rootCmd.AddCommand(eventsCmd)
}
