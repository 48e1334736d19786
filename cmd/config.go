package cmd

import (
	"fmt"
	"os"
	"path/filepath"
)

const muxHomeDirName = ".config/mux"

// muxConfigPath returns the directory mux stores workspace and MCP server
// definitions under: $MUX_HOME if set, otherwise ~/.config/mux.
func muxConfigPath() string {
	if home := os.Getenv("MUX_HOME"); home != "" {
		return home
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		panic(fmt.Errorf("mux: could not determine user home directory: %w", err))
	}
	return filepath.Join(homeDir, muxHomeDirName)
}
