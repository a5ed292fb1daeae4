package ingestion

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/poiesic/carefind/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const yamlDataset = `
taxonomies:
  - id: t1
    code: BD-1800
    name: Emergency Food
    status: Active
agencies:
  - id: a1
    name: Aloha Helpers
    status: Active
programs:
  - id: p1
    name: Food Pantry
    status: Active
    agencyId: a1
    fees: Free
    hours:
      - open: "8:00 am"
        close: "4:30 pm"
      - {}
      - {}
      - {}
      - {}
      - {}
      - {}
translations:
  - kind: program
    entityId: p1
    language: es
    fields:
      name: Despensa de alimentos
`

func TestFormatOf(t *testing.T) {
	tests := []struct {
		path string
		want Format
	}{
		{"data.json", FormatJSON},
		{"data.YAML", FormatYAML},
		{"dir/data.yml", FormatYAML},
	}
	for _, tt := range tests {
		got, err := FormatOf(tt.path)
		require.NoError(t, err, tt.path)
		assert.Equal(t, tt.want, got)
	}

	_, err := FormatOf("data.csv")
	assert.ErrorIs(t, err, ErrUnknownFormat)
}

func TestParseDataset_YAML(t *testing.T) {
	ds, err := ParseDataset([]byte(yamlDataset), FormatYAML)
	require.NoError(t, err)

	require.Len(t, ds.Programs, 1)
	p := ds.Programs[0]
	assert.Equal(t, core.ID("a1"), p.AgencyId)
	assert.Equal(t, core.StatusActive, p.Status)
	assert.Equal(t, "8:00 am", p.Hours[core.Monday].Open)
	assert.Empty(t, p.Hours[core.Tuesday].Open)

	require.Len(t, ds.Translations, 1)
	assert.Equal(t, core.KindProgram, ds.Translations[0].Kind)
	assert.Equal(t, "Despensa de alimentos", ds.Translations[0].Fields[core.FieldName])
	assert.Equal(t, 4, ds.Size())
}

func TestParseDataset_JSON(t *testing.T) {
	data := `{"sites":[{"id":"s1","name":"Downtown","status":"Active","latitude":21.3,"longitude":-157.8,"hasLocation":true}]}`
	ds, err := ParseDataset([]byte(data), FormatJSON)
	require.NoError(t, err)
	require.Len(t, ds.Sites, 1)
	assert.True(t, ds.Sites[0].HasLocation)

	_, err = ParseDataset([]byte(`{"sites":`), FormatJSON)
	assert.ErrorIs(t, err, ErrInvalidDataset)

	_, err = ParseDataset([]byte(`taxonomies: [`), FormatYAML)
	assert.ErrorIs(t, err, ErrInvalidDataset)
}

func TestLoadDataset(t *testing.T) {
	path := filepath.Join(t.TempDir(), "directory.yaml")
	require.NoError(t, os.WriteFile(path, []byte(yamlDataset), 0o644))

	ds, err := LoadDataset(path)
	require.NoError(t, err)
	assert.Len(t, ds.Taxonomies, 1)

	_, err = LoadDataset(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}
