// Package agenttools exposes a workspace's Runtime as a small built-in tool
// set — exec, read_file, write_file — namespaced exactly like an MCP
// server's tools ("workspace_exec", ...) so the Stream Manager's tool
// catalog and a Provider's tool-calling loop never need to distinguish a
// built-in from an MCP-sourced tool.
package agenttools

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"mux/internal/runtime"
	"mux/internal/streammanager"
)

const namespace = "workspace"

// Descriptors returns the fixed built-in tool catalog. It never varies per
// runtime kind: every Runtime implementation answers Exec/ReadFile/WriteFile
// regardless of backing transport.
func Descriptors() []streammanager.ToolDescriptor {
	return []streammanager.ToolDescriptor{
		{
			Name:        namespace + "_exec",
			Description: "Run a shell command in the workspace's runtime and return its combined stdout/stderr and exit code.",
			InputSchema: map[string]interface{}{
				"properties": map[string]interface{}{
					"command": map[string]interface{}{"type": "string"},
					"cwd":     map[string]interface{}{"type": "string"},
				},
				"required": []string{"command"},
			},
		},
		{
			Name:        namespace + "_read_file",
			Description: "Read a file from the workspace's runtime filesystem.",
			InputSchema: map[string]interface{}{
				"properties": map[string]interface{}{
					"path": map[string]interface{}{"type": "string"},
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        namespace + "_write_file",
			Description: "Write (overwriting) a file on the workspace's runtime filesystem.",
			InputSchema: map[string]interface{}{
				"properties": map[string]interface{}{
					"path":    map[string]interface{}{"type": "string"},
					"content": map[string]interface{}{"type": "string"},
				},
				"required": []string{"path", "content"},
			},
		},
	}
}

// IsBuiltin reports whether namespacedName belongs to this package's
// Descriptors rather than an MCP server.
func IsBuiltin(namespacedName string) bool {
	for _, d := range Descriptors() {
		if d.Name == namespacedName {
			return true
		}
	}
	return false
}

// Call executes one built-in tool call against rt. Callers should check
// IsBuiltin first; Call returns an error result for an unrecognized name
// rather than panicking.
func Call(ctx context.Context, rt runtime.Runtime, namespacedName string, args map[string]interface{}) (result interface{}, isError bool, errMsg string) {
	switch namespacedName {
	case namespace + "_exec":
		command, _ := args["command"].(string)
		cwd, _ := args["cwd"].(string)
		if command == "" {
			return nil, true, "command is required"
		}
		stream, err := rt.Exec(ctx, command, runtime.ExecOptions{Cwd: cwd})
		if err != nil {
			return nil, true, fmt.Sprintf("exec: %v", err)
		}
		var out bytes.Buffer
		_, _ = io.Copy(&out, stream.Stdout())
		_, _ = io.Copy(&out, stream.Stderr())
		exitCode, _, err := stream.Wait()
		if err != nil {
			return nil, true, fmt.Sprintf("exec wait: %v", err)
		}
		return map[string]interface{}{"output": out.String(), "exitCode": exitCode}, false, ""

	case namespace + "_read_file":
		path, _ := args["path"].(string)
		if path == "" {
			return nil, true, "path is required"
		}
		rc, err := rt.ReadFile(ctx, path)
		if err != nil {
			return nil, true, fmt.Sprintf("read_file: %v", err)
		}
		defer rc.Close()
		data, err := io.ReadAll(rc)
		if err != nil {
			return nil, true, fmt.Sprintf("read_file: %v", err)
		}
		return string(data), false, ""

	case namespace + "_write_file":
		path, _ := args["path"].(string)
		content, _ := args["content"].(string)
		if path == "" {
			return nil, true, "path is required"
		}
		if err := rt.WriteFile(ctx, path, bytes.NewReader([]byte(content))); err != nil {
			return nil, true, fmt.Sprintf("write_file: %v", err)
		}
		return "ok", false, ""

	default:
		return nil, true, fmt.Sprintf("agenttools: unknown tool %q", namespacedName)
	}
}
