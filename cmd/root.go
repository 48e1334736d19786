package cmd

import (
	"errors"
	"os"

	"mux/internal/muxerr"

	"github.com/spf13/cobra"
)

// Exit codes for CLI commands.
const (
	// ExitCodeSuccess indicates successful execution.
	ExitCodeSuccess = 0
	// ExitCodeError indicates a general error (command failed, invalid arguments).
	ExitCodeError = 1
	// ExitCodeNotFound indicates the named workspace/server does not exist.
	ExitCodeNotFound = 2
	// ExitCodeSSHAuth indicates an SSH runtime rejected its credentials or host key.
	ExitCodeSSHAuth = 3
)

// rootCmd is the entry point for the mux CLI: a daemon (serve) plus the
// workspace/events commands a frontend or operator drives it with.
var rootCmd = &cobra.Command{
	Use:   "mux",
	Short: "Orchestrate coding-agent workspaces over SSH, Docker, and local runtimes",
	Long: `mux runs coding-agent sessions against workspaces backed by local,
worktree, SSH, Docker, devcontainer, or Coder runtimes. "mux serve" starts
the daemon; "mux workspace" manages workspace descriptors; "mux events"
starts a daemon in-process and tails its chat-event stream.`,
	SilenceUsage: true,
}

// SetVersion sets the version for the root command, injected from main at
// build time.
func SetVersion(v string) {
	rootCmd.Version = v
}

// GetVersion returns the current version of the application.
func GetVersion() string {
	return rootCmd.Version
}

// Execute is the entry point called by main.main().
func Execute() {
	rootCmd.SetVersionTemplate(`{{printf "mux version %s\n" .Version}}`)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(getExitCode(err))
	}
}

// getExitCode maps a muxerr.Kind to a semantic exit code for scripting.
func getExitCode(err error) int {
	var merr *muxerr.Error
	if errors.As(err, &merr) {
		switch merr.Kind {
		case muxerr.KindNotFound, muxerr.KindMCPServerNotFound:
			return ExitCodeNotFound
		case muxerr.KindSSHAuthRequired, muxerr.KindSSHHostKeyRejected:
			return ExitCodeSSHAuth
		}
	}
	return ExitCodeError
}

func init() {
	rootCmd.AddCommand(newVersionCmd())
}
