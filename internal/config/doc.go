// Package config provides configuration management for muster.
//
// # Loading
//
// LoadConfig(configPath) starts from GetDefaultConfigWithRoles (aggregator
// enabled on localhost:8090 with the streamable-http transport) and, if
// configPath/config.yaml exists, unmarshals it over those defaults. A missing
// config.yaml is not an error: the defaults are returned. Only that one
// directory is read; there is no merging of user and project files, and
// values are not environment-expanded. GetDefaultConfigPathOrPanic returns
// ~/.config/muster.
//
// # Entity Storage System
//
// Storage persists entity definitions (workflows, capabilities,
// serviceclasses, mcpservers) as YAML files in a single directory:
// {configPath}/{entityType}/{name}.yaml, with the name sanitized for the
// filesystem.
//
//   - Save: writes the data to a .yaml file, creating the directory
//   - Load: reads the .yaml file; a missing file is a "not found" error
//   - Delete: removes the .yaml file; a missing file is a "not found" error
//   - List: returns the base names of the .yaml and .yml files in the directory
//
// ## Usage Example
//
//	// Create storage instance
//	storage := config.NewStorageWithPath(config.GetDefaultConfigPathOrPanic())
//
//	// Save a workflow
//	workflowYAML := []byte(`name: "my-workflow"
//	description: "Example workflow"
//	steps: []`)
//	err := storage.Save("workflows", "my-workflow", workflowYAML)
//
//	// Load the workflow
//	data, err := storage.Load("workflows", "my-workflow")
//
//	// List all workflows
//	names, err := storage.List("workflows")
//
//	// Delete the workflow
//	err = storage.Delete("workflows", "my-workflow")
//
// # Configuration Structure
//
// config.yaml has two top-level sections:
//
//	aggregator:
//	  port: 8090
//	  host: "localhost"
//	  transport: "streamable-http"  # or "sse", "stdio"
//	  musterPrefix: ""
//	  enabled: true
//	namespace: "default"
//
// # Usage Example
//
//	// Load configuration (returns the defaults if config.yaml does not exist)
//	cfg, err := config.LoadConfig(config.GetDefaultConfigPathOrPanic())
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Printf("aggregator on %s:%d\n", cfg.Aggregator.Host, cfg.Aggregator.Port)
//
// The package also provides field validation helpers (ValidateRequired,
// ValidateEntityName and others), ConfigurationErrorCollection for gathering
// configuration errors, and the generic CommonManager base for definition
// managers.
package config
