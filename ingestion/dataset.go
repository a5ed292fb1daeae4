package ingestion

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/poiesic/carefind/core"
	"gopkg.in/yaml.v3"
)

// Format is the encoding of a dataset file.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// FormatOf picks the format from a file extension.
func FormatOf(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	}
	return "", fmt.Errorf("%w: %s", ErrUnknownFormat, path)
}

// Dataset is an export of the system of record. In YAML, program hours
// must list all seven days, Monday first.
type Dataset struct {
	Taxonomies      []*core.Taxonomy       `json:"taxonomies" yaml:"taxonomies"`
	Agencies        []*core.Agency         `json:"agencies" yaml:"agencies"`
	Sites           []*core.Site           `json:"sites" yaml:"sites"`
	Programs        []*core.Program        `json:"programs" yaml:"programs"`
	ProgramServices []*core.ProgramService `json:"programServices" yaml:"programServices"`
	SitePrograms    []*core.SiteProgram    `json:"sitePrograms" yaml:"sitePrograms"`
	Translations    []*core.Translation    `json:"translations" yaml:"translations"`
}

// Size returns the number of records in the dataset.
func (d *Dataset) Size() int {
	return len(d.Taxonomies) + len(d.Agencies) + len(d.Sites) + len(d.Programs) +
		len(d.ProgramServices) + len(d.SitePrograms) + len(d.Translations)
}

// LoadDataset reads a JSON or YAML dataset file.
func LoadDataset(path string) (*Dataset, error) {
	format, err := FormatOf(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading dataset: %w", err)
	}
	return ParseDataset(data, format)
}

// ParseDataset decodes a dataset.
func ParseDataset(data []byte, format Format) (*Dataset, error) {
	ds := &Dataset{}
	switch format {
	case FormatJSON:
		if err := json.Unmarshal(data, ds); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidDataset, err)
		}
	case FormatYAML:
		if err := yaml.Unmarshal(data, ds); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidDataset, err)
		}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
	return ds, nil
}
