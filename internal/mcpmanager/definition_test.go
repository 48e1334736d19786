package mcpmanager

import (
	"testing"

	"mux/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateRequiresTypeSpecificFields(t *testing.T) {
	tests := []struct {
		name    string
		def     ServerDefinition
		wantErr bool
	}{
		{"valid localCommand", ServerDefinition{Name: "fs", Type: TypeLocalCommand, Command: []string{"npx", "server"}}, false},
		{"localCommand missing command", ServerDefinition{Name: "fs", Type: TypeLocalCommand}, true},
		{"valid container", ServerDefinition{Name: "sandbox", Type: TypeContainer, Image: "alpine"}, false},
		{"container missing image", ServerDefinition{Name: "sandbox", Type: TypeContainer}, true},
		{"valid http", ServerDefinition{Name: "api", Type: TypeHTTP, URL: "https://example.com/mcp"}, false},
		{"http missing url", ServerDefinition{Name: "api", Type: TypeHTTP}, true},
		{"unrecognized type", ServerDefinition{Name: "weird", Type: "websocket"}, true},
		{"invalid name", ServerDefinition{Name: "has space", Type: TypeHTTP, URL: "u"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.def.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestSignatureStableAcrossEnvOrdering(t *testing.T) {
	a := ServerDefinition{Name: "fs", Type: TypeLocalCommand, Command: []string{"npx", "server"}, Env: map[string]string{"A": "1", "B": "2"}}
	b := ServerDefinition{Name: "fs", Type: TypeLocalCommand, Command: []string{"npx", "server"}, Env: map[string]string{"B": "2", "A": "1"}}
	assert.Equal(t, a.Signature(), b.Signature())
}

func TestSignatureChangesWithCommand(t *testing.T) {
	a := ServerDefinition{Name: "fs", Type: TypeLocalCommand, Command: []string{"npx", "server"}}
	b := ServerDefinition{Name: "fs", Type: TypeLocalCommand, Command: []string{"npx", "server", "--verbose"}}
	assert.NotEqual(t, a.Signature(), b.Signature())
}

func TestDefinitionStoreSaveLoadDeleteList(t *testing.T) {
	storage := config.NewStorageWithPath(t.TempDir())
	store := NewDefinitionStore(storage)

	def := ServerDefinition{Name: "fs", Type: TypeLocalCommand, Command: []string{"npx", "server"}}
	require.NoError(t, store.Save(def))

	loaded, err := store.Load("fs")
	require.NoError(t, err)
	assert.Equal(t, def.Command, loaded.Command)

	names, err := store.List()
	require.NoError(t, err)
	require.Len(t, names, 1)

	require.NoError(t, store.Delete("fs"))
	_, err = store.Load("fs")
	assert.Error(t, err)
}

func TestDefinitionStoreRejectsInvalidDefinition(t *testing.T) {
	storage := config.NewStorageWithPath(t.TempDir())
	store := NewDefinitionStore(storage)

	err := store.Save(ServerDefinition{Name: "bad name", Type: TypeHTTP, URL: "u"})
	assert.Error(t, err)
}
