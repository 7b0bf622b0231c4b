// Package gamedata reads the world/item sheets the catalog is built from.
// The sheets are a JSON dump produced by the game-data extraction tooling;
// this package only knows the dump layout, not the game files themselves.
package gamedata

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// WorldRow mirrors one row of the World sheet.
type WorldRow struct {
	ID         int32  `json:"id" yaml:"id"`
	Name       string `json:"name" yaml:"name"`
	DataCenter int32  `json:"data_center" yaml:"data_center"`
	IsPublic   bool   `json:"is_public" yaml:"is_public"`
}

// DataCenterRow mirrors one row of the WorldDCGroupType sheet.
type DataCenterRow struct {
	ID     int32  `json:"id" yaml:"id"`
	Name   string `json:"name" yaml:"name"`
	Region uint8  `json:"region" yaml:"region"`
}

// ItemRow carries the two item attributes the market board cares about.
type ItemRow struct {
	ID                 int32 `json:"id"`
	ItemSearchCategory int32 `json:"item_search_category"`
	StackSize          int32 `json:"stack_size"`
}

// Sheets is the full sheet dump handed to the catalog at startup.
type Sheets struct {
	Worlds      []WorldRow      `json:"worlds"`
	DataCenters []DataCenterRow `json:"data_centers"`
	Items       []ItemRow       `json:"items"`
}

// LoadDir reads worlds.json, data_centers.json and items.json from dir.
func LoadDir(dir string) (*Sheets, error) {
	var sheets Sheets
	if err := readJSON(filepath.Join(dir, "worlds.json"), &sheets.Worlds); err != nil {
		return nil, err
	}
	if err := readJSON(filepath.Join(dir, "data_centers.json"), &sheets.DataCenters); err != nil {
		return nil, err
	}
	if err := readJSON(filepath.Join(dir, "items.json"), &sheets.Items); err != nil {
		return nil, err
	}
	return &sheets, nil
}

func readJSON(path string, out any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read sheet %s: %w", path, err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("parse sheet %s: %w", path, err)
	}
	return nil
}
