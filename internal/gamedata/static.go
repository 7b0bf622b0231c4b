package gamedata

import (
	_ "embed"
	"fmt"

	"gopkg.in/yaml.v3"
)

// The Chinese and Korean services run on separate infrastructure and do not
// appear in the global game data, so their worlds and data centers ship as a
// static catalog appended after the sheet-derived entries.

//go:embed static_catalog.yaml
var staticCatalogYAML []byte

// StaticCatalog is the hand-maintained world/DC list for regions absent
// from the sheet dump.
type StaticCatalog struct {
	Worlds      []WorldRow      `yaml:"worlds"`
	DataCenters []DataCenterRow `yaml:"data_centers"`
}

// LoadStatic parses the embedded static catalog.
func LoadStatic() (*StaticCatalog, error) {
	var cat StaticCatalog
	if err := yaml.Unmarshal(staticCatalogYAML, &cat); err != nil {
		return nil, fmt.Errorf("parse static catalog: %w", err)
	}
	return &cat, nil
}
