package cmd

import (
	"fmt"
	"os"
	"sort"

	"mux/internal/config"
	"mux/internal/workspace"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"
)

var (
	workspaceProjectPath string
	workspaceRuntimeKind string
	workspaceHost        string
	workspacePort        int
	workspaceIdentity    string
	workspaceImage       string
	workspaceDevcontainerPath string
)

var workspaceCmd = &cobra.Command{
	Use:     "workspace",
	Aliases: []string{"ws"},
	Short:   "Manage workspace descriptors",
}

var workspaceCreateCmd = &cobra.Command{
	Use:   "create NAME",
	Short: "Create a new workspace descriptor",
	Args:  cobra.ExactArgs(1),
	RunE:  runWorkspaceCreate,
}

var workspaceListCmd = &cobra.Command{
	Use:   "list",
	Short: "List workspace descriptors",
	Args:  cobra.NoArgs,
	RunE:  runWorkspaceList,
}

var workspaceGetCmd = &cobra.Command{
	Use:   "get ID",
	Short: "Show one workspace descriptor",
	Args:  cobra.ExactArgs(1),
	RunE:  runWorkspaceGet,
}

var workspaceDeleteCmd = &cobra.Command{
	Use:   "delete ID",
	Short: "Delete a workspace descriptor",
	Args:  cobra.ExactArgs(1),
	RunE:  runWorkspaceDelete,
}

func openWorkspaceStore() *workspace.Store {
	storage := config.NewStorageWithPath(muxConfigPath())
	return workspace.NewStore(storage)
}

func runWorkspaceCreate(cmd *cobra.Command, args []string) error {
	rc := workspace.RuntimeConfig{
		Kind:             workspace.RuntimeKind(workspaceRuntimeKind),
		ProjectPath:      workspaceProjectPath,
		Host:             workspaceHost,
		Port:             workspacePort,
		IdentityFile:     workspaceIdentity,
		Image:            workspaceImage,
		DevcontainerPath: workspaceDevcontainerPath,
	}

	w, err := openWorkspaceStore().Create(workspace.Workspace{
		Name:        args[0],
		ProjectPath: workspaceProjectPath,
		Runtime:     rc,
	})
	if err != nil {
		return fmt.Errorf("create workspace: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "%s workspace %s created (%s, runtime=%s)\n",
		text.Colors{text.FgHiGreen, text.Bold}.Sprint("✓"), w.Name, w.ID, w.Runtime.Kind)
	return nil
}

func runWorkspaceList(cmd *cobra.Command, args []string) error {
	workspaces, err := openWorkspaceStore().List()
	if err != nil {
		return fmt.Errorf("list workspaces: %w", err)
	}

	if len(workspaces) == 0 {
		fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n",
			text.Colors{text.FgHiYellow, text.Bold}.Sprint("!"),
			text.Colors{text.FgHiYellow, text.Bold}.Sprint("No workspaces found"))
		return nil
	}

	sort.Slice(workspaces, func(i, j int) bool { return workspaces[i].Name < workspaces[j].Name })

	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetStyle(table.StyleRounded)
	t.AppendHeader(table.Row{
		text.Colors{text.FgHiBlue, text.Bold}.Sprint("NAME"),
		text.Colors{text.FgHiBlue, text.Bold}.Sprint("ID"),
		text.Colors{text.FgHiBlue, text.Bold}.Sprint("RUNTIME"),
		text.Colors{text.FgHiBlue, text.Bold}.Sprint("PROJECT PATH"),
	})
	for _, w := range workspaces {
		t.AppendRow(table.Row{
			text.Colors{text.FgHiBlue, text.Bold}.Sprint(w.Name),
			w.ID,
			string(w.Runtime.Kind),
			w.ProjectPath,
		})
	}
	t.Render()
	fmt.Printf("\n%s %s %d\n", text.Colors{text.FgHiMagenta, text.Bold}.Sprint("📁"), text.FgHiBlue.Sprint("Total:"), len(workspaces))
	return nil
}

func runWorkspaceGet(cmd *cobra.Command, args []string) error {
	w, err := openWorkspaceStore().Get(args[0])
	if err != nil {
		return fmt.Errorf("get workspace: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Name:      %s\nID:        %s\nProject:   %s\nRuntime:   %s\n",
		w.Name, w.ID, w.ProjectPath, w.Runtime.Kind)
	if w.Runtime.Host != "" {
		fmt.Fprintf(cmd.OutOrStdout(), "Host:      %s:%d\n", w.Runtime.Host, w.Runtime.Port)
	}
	if w.ParentWorkspaceID != "" {
		fmt.Fprintf(cmd.OutOrStdout(), "Parent:    %s\n", w.ParentWorkspaceID)
	}
	return nil
}

func runWorkspaceDelete(cmd *cobra.Command, args []string) error {
	if err := openWorkspaceStore().Delete(args[0]); err != nil {
		return fmt.Errorf("delete workspace: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s workspace %s deleted\n", text.Colors{text.FgHiGreen, text.Bold}.Sprint("✓"), args[0])
	return nil
}

func init() {
	workspaceCreateCmd.Flags().StringVar(&workspaceProjectPath, "project-path", "", "Local project path (local/worktree runtimes)")
	workspaceCreateCmd.Flags().StringVar(&workspaceRuntimeKind, "runtime", string(workspace.RuntimeLocal), "Runtime kind: local, worktree, ssh, docker, devcontainer")
	workspaceCreateCmd.Flags().StringVar(&workspaceHost, "host", "", "SSH host (ssh runtime)")
	workspaceCreateCmd.Flags().IntVar(&workspacePort, "port", 22, "SSH port (ssh runtime)")
	workspaceCreateCmd.Flags().StringVar(&workspaceIdentity, "identity-file", "", "SSH identity file (ssh runtime)")
	workspaceCreateCmd.Flags().StringVar(&workspaceImage, "image", "", "Container image (docker runtime)")
	workspaceCreateCmd.Flags().StringVar(&workspaceDevcontainerPath, "devcontainer-path", "", "devcontainer.json path (devcontainer runtime)")

	workspaceCmd.AddCommand(workspaceCreateCmd, workspaceListCmd, workspaceGetCmd, workspaceDeleteCmd)
	rootCmd.AddCommand(workspaceCmd)
}
