// Package sysprompt composes the system message sent to the model provider
// for one stream: a fixed prelude, an environment block describing the
// active runtime, the configured MCP server names, layered instruction
// sources with scoped sections stripped, and any model-specific addendum.
package sysprompt

import (
	"fmt"
	"regexp"
	"strings"

	"mux/internal/workspace"
)

// Source is one named instruction source (agent prompt, project AGENTS.md,
// global AGENTS.md, ...). Text may contain scoped sections the builder
// strips unless Tags matches the active build Params.
type Source struct {
	Name string
	Text string
}

// SectionLookup resolves a named section (e.g. a `<model-...>` block) by
// trying, in order, agent -> context -> global, returning the first
// non-empty match.
type SectionLookup func(name string) (text string, found bool)

// Params describes the stream the system message is being built for.
type Params struct {
	RuntimeKind       workspace.RuntimeKind
	ProjectPath       string
	MCPServerNames    []string
	AgentInstructions string
	CustomSources     []Source // global + context AGENTS, in priority order (highest first)
	ModelID           string
	AdditionalInstructions string
	ActiveTags        map[string]bool // tags considered "on" for scoped-section stripping
}

const prelude = `You are mux, an autonomous coding agent operating inside a workspace. Follow the user's instructions precisely and prefer small, verifiable steps.`

// Build composes the full system message for a stream.
func Build(p Params) string {
	var sections []string

	sections = append(sections, prelude)
	sections = append(sections, environmentBlock(p))

	if len(p.MCPServerNames) > 0 {
		sections = append(sections, mcpBlock(p.MCPServerNames))
	}

	if agent := strings.TrimSpace(stripScopedSections(p.AgentInstructions, p.ActiveTags)); agent != "" {
		sections = append(sections, wrap("agent-instructions", agent))
	}

	if custom := buildCustomInstructions(p.CustomSources, p.ActiveTags); custom != "" {
		sections = append(sections, wrap("custom-instructions", custom))
	}

	if model := modelBlock(p); model != "" {
		sections = append(sections, model)
	}

	if add := strings.TrimSpace(p.AdditionalInstructions); add != "" {
		sections = append(sections, wrap("additional-instructions", add))
	}

	return strings.Join(sections, "\n\n")
}

func wrap(tag, body string) string {
	return fmt.Sprintf("<%s>\n%s\n</%s>", tag, body, tag)
}

func environmentBlock(p Params) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Project path: %s\n", p.ProjectPath)

	switch p.RuntimeKind {
	case workspace.RuntimeLocal, workspace.RuntimeWorktree:
		b.WriteString("Runtime: local filesystem. Commands execute directly on this machine.")
	case workspace.RuntimeSSH:
		b.WriteString("Runtime: remote SSH host. Commands execute on the remote host; use $MUX_PROJECT_PATH for the remote project root.")
	case workspace.RuntimeDocker:
		b.WriteString("Runtime: Docker container. Commands execute inside the container; use $MUX_PROJECT_PATH for the mounted project root.")
	case workspace.RuntimeDevcontainer:
		b.WriteString("Runtime: devcontainer. Commands execute inside the devcontainer; host paths outside the workspace folder are not visible; use $MUX_PROJECT_PATH for the mounted project root.")
	default:
		b.WriteString("Runtime: unknown.")
	}

	return wrap("environment", b.String())
}

func mcpBlock(names []string) string {
	// Only server names are listed, never commands/urls/headers — those may
	// carry secrets that must never reach the model.
	return wrap("mcp", strings.Join(names, "\n"))
}

var modelBlockRe = regexp.MustCompile(`(?s)<model-([a-z0-9_-]+)>(.*?)</model-[a-z0-9_-]+>`)

// modelBlock extracts the first <model-...> block whose tag matches the
// active model id as a substring, from whichever instruction source
// carries it (agent instructions take priority, per the agent -> context ->
// global lookup order used elsewhere in this builder).
func modelBlock(p Params) string {
	if p.ModelID == "" {
		return ""
	}
	candidates := append([]string{p.AgentInstructions}, sourceTexts(p.CustomSources)...)
	for _, text := range candidates {
		for _, m := range modelBlockRe.FindAllStringSubmatch(text, -1) {
			tag, body := m[1], m[2]
			if strings.Contains(strings.ToLower(p.ModelID), tag) {
				return wrap("model-"+tag, strings.TrimSpace(body))
			}
		}
	}
	return ""
}

func sourceTexts(sources []Source) []string {
	out := make([]string, len(sources))
	for i, s := range sources {
		out[i] = s.Text
	}
	return out
}

// buildCustomInstructions concatenates every custom source (global +
// context AGENTS, in priority order) with scoped sections stripped.
func buildCustomInstructions(sources []Source, activeTags map[string]bool) string {
	var parts []string
	for _, s := range sources {
		stripped := strings.TrimSpace(stripScopedSections(s.Text, activeTags))
		if stripped != "" {
			parts = append(parts, stripped)
		}
	}
	return strings.Join(parts, "\n\n")
}

var scopedSectionRe = regexp.MustCompile(`(?s)<mux:only\s+tag="([a-z0-9_-]+)">(.*?)</mux:only>`)

// stripScopedSections removes `<mux:only tag="...">...</mux:only>` blocks
// whose tag is not present in activeTags, and unwraps (keeps the body of)
// blocks whose tag is active. Model-specific `<model-...>` blocks are left
// untouched here; modelBlock consumes those separately.
func stripScopedSections(text string, activeTags map[string]bool) string {
	return scopedSectionRe.ReplaceAllStringFunc(text, func(match string) string {
		sub := scopedSectionRe.FindStringSubmatch(match)
		tag, body := sub[1], sub[2]
		if activeTags[tag] {
			return body
		}
		return ""
	})
}

// SanitizeTag collapses a human-written tag name into `[a-z0-9_-]+` with
// runs of `-` collapsed to one, matching the wire format scoped sections
// and model blocks use.
func SanitizeTag(name string) string {
	lower := strings.ToLower(name)
	var b strings.Builder
	lastDash := false
	for _, r := range lower {
		switch {
		case r >= 'a' && r <= 'z' || r >= '0' && r <= '9' || r == '_':
			b.WriteRune(r)
			lastDash = false
		default:
			if !lastDash {
				b.WriteByte('-')
				lastDash = true
			}
		}
	}
	return strings.Trim(b.String(), "-")
}

// Resolve applies the agent -> context -> global priority: the first
// lookup to report found=true wins.
func Resolve(name string, lookups ...SectionLookup) (string, bool) {
	for _, lookup := range lookups {
		if lookup == nil {
			continue
		}
		if text, ok := lookup(name); ok {
			return text, true
		}
	}
	return "", false
}
