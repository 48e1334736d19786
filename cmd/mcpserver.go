package cmd

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"mux/internal/config"
	"mux/internal/mcpmanager"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"
)

var (
	mcpServerType    string
	mcpServerCommand []string
	mcpServerURL     string
	mcpServerAutoStart bool
)

var mcpServerCmd = &cobra.Command{
	Use:   "mcpserver",
	Short: "Manage MCP server definitions",
}

var mcpServerCreateCmd = &cobra.Command{
	Use:   "create NAME",
	Short: "Create an MCP server definition",
	Args:  cobra.ExactArgs(1),
	RunE:  runMCPServerCreate,
}

var mcpServerListCmd = &cobra.Command{
	Use:   "list",
	Short: "List MCP server definitions",
	Args:  cobra.NoArgs,
	RunE:  runMCPServerList,
}

var mcpServerDeleteCmd = &cobra.Command{
	Use:   "delete NAME",
	Short: "Delete an MCP server definition",
	Args:  cobra.ExactArgs(1),
	RunE:  runMCPServerDelete,
}

func openDefinitionStore() *mcpmanager.DefinitionStore {
	return mcpmanager.NewDefinitionStore(config.NewStorageWithPath(muxConfigPath()))
}

func runMCPServerCreate(cmd *cobra.Command, args []string) error {
	def := mcpmanager.ServerDefinition{
		Name:      args[0],
		Type:      mcpmanager.ServerType(mcpServerType),
		Command:   mcpServerCommand,
		URL:       mcpServerURL,
		AutoStart: mcpServerAutoStart,
	}
	if err := def.Validate(); err != nil {
		return err
	}
	if err := openDefinitionStore().Save(def); err != nil {
		return fmt.Errorf("save MCP server definition: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s MCP server %s created (%s)\n",
		text.Colors{text.FgHiGreen, text.Bold}.Sprint("✓"), def.Name, def.Type)
	return nil
}

func runMCPServerList(cmd *cobra.Command, args []string) error {
	defs, err := openDefinitionStore().List()
	if err != nil {
		return fmt.Errorf("list MCP server definitions: %w", err)
	}
	if len(defs) == 0 {
		fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n",
			text.Colors{text.FgHiYellow, text.Bold}.Sprint("!"),
			text.Colors{text.FgHiYellow, text.Bold}.Sprint("No MCP servers found"))
		return nil
	}

	sort.Slice(defs, func(i, j int) bool { return defs[i].Name < defs[j].Name })

	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetStyle(table.StyleRounded)
	t.AppendHeader(table.Row{
		text.Colors{text.FgHiBlue, text.Bold}.Sprint("NAME"),
		text.Colors{text.FgHiBlue, text.Bold}.Sprint("TYPE"),
		text.Colors{text.FgHiBlue, text.Bold}.Sprint("TARGET"),
	})
	for _, d := range defs {
		target := d.URL
		if len(d.Command) > 0 {
			target = strings.Join(d.Command, " ")
		}
		t.AppendRow(table.Row{
			text.Colors{text.FgHiBlue, text.Bold}.Sprint(d.Name),
			string(d.Type),
			target,
		})
	}
	t.Render()
	return nil
}

func runMCPServerDelete(cmd *cobra.Command, args []string) error {
	if err := openDefinitionStore().Delete(args[0]); err != nil {
		return fmt.Errorf("delete MCP server definition: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s MCP server %s deleted\n", text.Colors{text.FgHiGreen, text.Bold}.Sprint("✓"), args[0])
	return nil
}

func init() {
	mcpServerCreateCmd.Flags().StringVar(&mcpServerType, "type", string(mcpmanager.TypeLocalCommand), "Server type: localCommand, http, sse, container")
	mcpServerCreateCmd.Flags().StringSliceVar(&mcpServerCommand, "command", nil, "Command and args (localCommand type)")
	mcpServerCreateCmd.Flags().StringVar(&mcpServerURL, "url", "", "Server URL (http/sse types)")
	mcpServerCreateCmd.Flags().BoolVar(&mcpServerAutoStart, "auto-start", false, "Start this server eagerly rather than on first lease")

	mcpServerCmd.AddCommand(mcpServerCreateCmd, mcpServerListCmd, mcpServerDeleteCmd)
	rootCmd.AddCommand(mcpServerCmd)
}
