package workspace

import (
	"fmt"

	"mux/internal/config"
	"mux/internal/muxerr"
	"mux/pkg/logging"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

const entityType = "workspaces"

// Validate enforces the RuntimeConfig rules §4.5 names for each Kind,
// mirroring mcpmanager.ServerDefinition.Validate's per-type required-field
// checks.
func (w *Workspace) Validate() error {
	if err := config.ValidateEntityName(w.Name, "workspace"); err != nil {
		return err
	}

	var errs config.ValidationErrors
	switch w.Runtime.Kind {
	case RuntimeLocal, RuntimeWorktree:
		if w.Runtime.ProjectPath == "" && w.ProjectPath == "" {
			errs.Add("runtime.projectPath", "is required for local/worktree runtimes")
		}
	case RuntimeSSH:
		if w.Runtime.Host == "" && w.Runtime.Coder == nil {
			errs.Add("runtime.host", "is required for ssh runtimes without a coder block")
		}
	case RuntimeDocker:
		if w.Runtime.Image == "" {
			errs.Add("runtime.image", "is required for docker runtime")
		}
	case RuntimeDevcontainer:
		if w.Runtime.DevcontainerPath == "" {
			errs.Add("runtime.devcontainerPath", "is required for devcontainer runtime")
		}
	default:
		errs.Add("runtime.kind", fmt.Sprintf("unrecognized runtime kind %q", w.Runtime.Kind))
	}

	if errs.HasErrors() {
		return config.FormatValidationError("workspace", w.Name, errs)
	}
	return nil
}

// Store persists Workspace descriptors as YAML entities, the same
// save/load/delete/list shape mcpmanager.DefinitionStore uses for MCP
// server definitions — a workspace is plain in-process state, not a
// watched resource, so it gets the same config.Storage-backed treatment.
type Store struct {
	storage *config.Storage
}

// NewStore wraps an existing config.Storage for workspace descriptors.
func NewStore(storage *config.Storage) *Store {
	return &Store{storage: storage}
}

// Create assigns a new ID to w (unless one is already set), validates it,
// and persists it.
func (s *Store) Create(w Workspace) (Workspace, error) {
	if w.ID == "" {
		w.ID = uuid.NewString()
	}
	if err := w.Validate(); err != nil {
		return Workspace{}, err
	}
	if err := s.save(w); err != nil {
		return Workspace{}, err
	}
	logging.Info("workspace", "created workspace %s (%s) runtime=%s", w.Name, w.ID, w.Runtime.Kind)
	return w, nil
}

func (s *Store) save(w Workspace) error {
	data, err := yaml.Marshal(w)
	if err != nil {
		return fmt.Errorf("marshal workspace %s: %w", w.ID, err)
	}
	if err := s.storage.Save(entityType, w.ID, data); err != nil {
		return fmt.Errorf("save workspace %s: %w", w.ID, err)
	}
	return nil
}

// Get loads the workspace with the given id.
func (s *Store) Get(id string) (Workspace, error) {
	data, err := s.storage.Load(entityType, id)
	if err != nil {
		return Workspace{}, muxerr.Wrap(muxerr.KindNotFound, fmt.Sprintf("workspace %s not found", id), err)
	}
	var w Workspace
	if err := yaml.Unmarshal(data, &w); err != nil {
		return Workspace{}, fmt.Errorf("parse workspace %s: %w", id, err)
	}
	return w, nil
}

// Delete removes the workspace with the given id. Callers are responsible
// for tearing down its session.Manager actor and runtime first.
func (s *Store) Delete(id string) error {
	return s.storage.Delete(entityType, id)
}

// List returns every stored workspace, skipping (and logging) any entry
// that fails to parse rather than failing the whole listing.
func (s *Store) List() ([]Workspace, error) {
	ids, err := s.storage.List(entityType)
	if err != nil {
		return nil, err
	}
	out := make([]Workspace, 0, len(ids))
	for _, id := range ids {
		w, err := s.Get(id)
		if err != nil {
			logging.Warn("workspace", "skipping unreadable workspace %s: %v", id, err)
			continue
		}
		out = append(out, w)
	}
	return out, nil
}
