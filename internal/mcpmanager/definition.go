// Package mcpmanager maintains the workspace-scoped cache of spawned MCP
// clients: signature-keyed instance reuse, reference-counted leases, an
// idle sweeper, and override application, per the MCP Server Definition
// and MCP Server Manager entities. It wraps github.com/mark3labs/mcp-go
// client transports the way the teacher wraps the muster aggregator's.
package mcpmanager

import (
	"fmt"
	"sort"

	"mux/internal/config"
	"mux/pkg/logging"

	"gopkg.in/yaml.v3"
)

// ServerType is the transport an MCP Server Definition uses.
type ServerType string

const (
	TypeLocalCommand ServerType = "localCommand"
	TypeContainer    ServerType = "container"
	TypeHTTP         ServerType = "http"
	TypeSSE          ServerType = "sse"
)

// ServerDefinition is one configured MCP server: name, type, and the
// type-specific fields needed to spawn or dial it.
type ServerDefinition struct {
	Name string     `yaml:"name" json:"name"`
	Type ServerType `yaml:"type" json:"type"`

	// localCommand
	Command []string          `yaml:"command,omitempty" json:"command,omitempty"`
	Env     map[string]string `yaml:"env,omitempty" json:"env,omitempty"`

	// container
	Image      string   `yaml:"image,omitempty" json:"image,omitempty"`
	Entrypoint []string `yaml:"entrypoint,omitempty" json:"entrypoint,omitempty"`

	// http / sse
	URL string `yaml:"url,omitempty" json:"url,omitempty"`
	// HeaderTemplates are header values that may reference ${ENV_VAR}; they
	// are expanded against the process environment when a client is dialed.
	HeaderTemplates map[string]string `yaml:"headerTemplates,omitempty" json:"headerTemplates,omitempty"`

	AutoStart     bool     `yaml:"autoStart,omitempty" json:"autoStart,omitempty"`
	ToolAllowlist []string `yaml:"toolAllowlist,omitempty" json:"toolAllowlist,omitempty"`
}

const entityType = "mcpservers"

// Validate enforces the type-specific required-field rules §4.12's entity
// table names, using the same entity-name convention other stored
// definitions (e.g. SSH Host Alias) share.
func (d *ServerDefinition) Validate() error {
	if err := config.ValidateEntityName(d.Name, "mcpserver"); err != nil {
		return err
	}

	var errs config.ValidationErrors
	switch d.Type {
	case TypeLocalCommand:
		if len(d.Command) == 0 {
			errs.Add("command", "is required for localCommand type")
		}
	case TypeContainer:
		if d.Image == "" {
			errs.Add("image", "is required for container type")
		}
	case TypeHTTP, TypeSSE:
		if d.URL == "" {
			errs.Add("url", "is required for http/sse type")
		}
	default:
		errs.Add("type", fmt.Sprintf("unrecognized server type %q", d.Type))
	}

	if errs.HasErrors() {
		return config.FormatValidationError("mcpserver", d.Name, errs)
	}
	return nil
}

// Signature identifies the configuration that determines whether a spawned
// client can be reused: server name, transport kind, and the resolved
// command/url/header material. Two definitions with the same Signature
// produce interchangeable clients; getToolsForWorkspace uses this to
// decide whether to reuse a cached instance or restart it.
func (d *ServerDefinition) Signature() string {
	switch d.Type {
	case TypeLocalCommand:
		return fmt.Sprintf("local:%s:%v:%s", d.Name, d.Command, sortedEnv(d.Env))
	case TypeContainer:
		return fmt.Sprintf("container:%s:%s:%v", d.Name, d.Image, d.Entrypoint)
	case TypeHTTP, TypeSSE:
		return fmt.Sprintf("%s:%s:%s:%s", d.Type, d.Name, d.URL, sortedEnv(d.HeaderTemplates))
	default:
		return fmt.Sprintf("unknown:%s", d.Name)
	}
}

func sortedEnv(m map[string]string) string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	s := ""
	for _, k := range keys {
		s += k + "=" + m[k] + ";"
	}
	return s
}

// DefinitionStore persists ServerDefinitions as YAML entities, mirroring
// config.Storage's existing save/load/delete/list entity pattern.
type DefinitionStore struct {
	storage *config.Storage
}

// NewDefinitionStore wraps an existing config.Storage for MCP server
// definitions.
func NewDefinitionStore(storage *config.Storage) *DefinitionStore {
	return &DefinitionStore{storage: storage}
}

func (s *DefinitionStore) Save(def ServerDefinition) error {
	if err := def.Validate(); err != nil {
		return fmt.Errorf("invalid MCP server definition: %w", err)
	}
	data, err := yaml.Marshal(def)
	if err != nil {
		return fmt.Errorf("marshal MCP server %s: %w", def.Name, err)
	}
	if err := s.storage.Save(entityType, def.Name, data); err != nil {
		return fmt.Errorf("save MCP server %s: %w", def.Name, err)
	}
	logging.Info("mcpmanager", "saved MCP server definition %s (%s)", def.Name, def.Type)
	return nil
}

func (s *DefinitionStore) Load(name string) (ServerDefinition, error) {
	data, err := s.storage.Load(entityType, name)
	if err != nil {
		return ServerDefinition{}, err
	}
	var def ServerDefinition
	if err := yaml.Unmarshal(data, &def); err != nil {
		return ServerDefinition{}, fmt.Errorf("parse MCP server %s: %w", name, err)
	}
	return def, nil
}

func (s *DefinitionStore) Delete(name string) error {
	return s.storage.Delete(entityType, name)
}

func (s *DefinitionStore) List() ([]ServerDefinition, error) {
	names, err := s.storage.List(entityType)
	if err != nil {
		return nil, err
	}
	defs := make([]ServerDefinition, 0, len(names))
	for _, name := range names {
		def, err := s.Load(name)
		if err != nil {
			logging.Warn("mcpmanager", "skipping unreadable MCP server definition %s: %v", name, err)
			continue
		}
		defs = append(defs, def)
	}
	return defs, nil
}
