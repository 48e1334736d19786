package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"mux/internal/daemon"
	"mux/internal/oauth"

	"github.com/spf13/cobra"
)

var (
	serveDebug        bool
	serveConfigPath   string
	serveDefaultModel string
	serveOAuthEnabled bool
	servePublicURL    string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the mux daemon: session orchestration, MCP tool serving, and LM streaming",
	Long: `serve starts the mux daemon, which owns every workspace's Session
Orchestrator, drives LM streams through the Stream Manager, and serves MCP
tools (plus the built-in Runtime tool set) to whichever model the workspace
is configured to use. It reads workspace and MCP server definitions from
--config-path (default ~/.config/mux), and runs until interrupted.

The Anthropic API key is read from the ANTHROPIC_API_KEY environment
variable.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	configPath := serveConfigPath
	if configPath == "" {
		configPath = muxConfigPath()
	}

	cfg := daemon.Config{
		Debug:           serveDebug,
		MuxHome:         configPath,
		AnthropicAPIKey: os.Getenv("ANTHROPIC_API_KEY"),
		DefaultModel:    serveDefaultModel,
		OAuth: oauth.Config{
			Enabled:      serveOAuthEnabled,
			PublicURL:    servePublicURL,
			CallbackPath: "/oauth/callback",
		},
	}

	d, err := daemon.New(cfg)
	if err != nil {
		return fmt.Errorf("initialize daemon: %w", err)
	}

	parent := cmd.Context()
	if parent == nil {
		parent = context.Background()
	}
	ctx, cancel := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	return d.Run(ctx)
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().BoolVar(&serveDebug, "debug", false, "Enable debug logging")
	serveCmd.Flags().StringVar(&serveConfigPath, "config-path", "", "Configuration directory (default ~/.config/mux or $MUX_HOME)")
	serveCmd.Flags().StringVar(&serveDefaultModel, "default-model", "claude-sonnet-4-5", "Model used when a session doesn't request one explicitly")
	serveCmd.Flags().BoolVar(&serveOAuthEnabled, "oauth", false, "Enable the OAuth manager for MCP servers requiring authorization")
	serveCmd.Flags().StringVar(&servePublicURL, "public-url", "", "Externally reachable base URL, required when --oauth is set")
}
