package disease

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultTable(t *testing.T) {
	table := Default()

	assert.Equal(t, 11, table.Len())

	e, ok := table.Lookup("Rust-Leaf")
	require.True(t, ok)
	assert.Equal(t, "orange", e.Color)
	assert.Equal(t, "Hexaconazole or Sulphur", e.Remedy)

	assert.False(t, table.Has("UnknownLeafThing"))
	assert.False(t, table.Has("rust-leaf"), "labels are case sensitive")
}

func TestLabelsSorted(t *testing.T) {
	labels := Default().Labels()

	require.Len(t, labels, 11)
	assert.IsNonDecreasing(t, labels)
}

func TestNewTableValidation(t *testing.T) {
	tests := []struct {
		name    string
		entries map[string]Entry
		wantErr bool
	}{
		{
			name:    "valid",
			entries: map[string]Entry{"blight": {Color: "red", Remedy: "Copper"}},
		},
		{
			name:    "empty label",
			entries: map[string]Entry{"": {Color: "red", Remedy: "Copper"}},
			wantErr: true,
		},
		{
			name:    "missing remedy",
			entries: map[string]Entry{"blight": {Color: "red"}},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewTable(tt.entries)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "diseases.yaml")

	doc := "Rust-Leaf:\n  color: orange\n  remedy: Hexaconazole or Sulphur\n" +
		"tungro:\n  color: pink\n  remedy: Buprofezin or Imidacloprid\n"
	require.NoError(t, os.WriteFile(file, []byte(doc), 0o600))

	table, err := LoadFile(file)
	require.NoError(t, err)

	assert.Equal(t, []string{"Rust-Leaf", "tungro"}, table.Labels())

	e, ok := table.Lookup("tungro")
	require.True(t, ok)
	assert.Equal(t, "pink", e.Color)
}

func TestLoadFileErrors(t *testing.T) {
	dir := t.TempDir()

	_, err := LoadFile(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)

	empty := filepath.Join(dir, "empty.yaml")
	require.NoError(t, os.WriteFile(empty, []byte("{}\n"), 0o600))

	_, err = LoadFile(empty)
	assert.Error(t, err)
}
