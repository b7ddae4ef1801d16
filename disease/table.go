// Package disease holds the closed table of crop disease labels the pipeline
// recognises, with the marker color and recommended remedy for each.
package disease

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

// Entry is the domain information attached to a recognised label
type Entry struct {
	// Color is the marker color name used when plotting the label on a map
	Color string `yaml:"color" json:"color"`
	// Remedy is the recommended treatment shown in the frame banner and
	// map popup
	Remedy string `yaml:"remedy" json:"remedy"`
}

// Table maps a detector label to its Entry.  A Table is read only once
// built and is safe to share between sessions.
type Table struct {
	entries map[string]Entry
}

// NewTable returns a Table built from the given entries.  Labels must be
// non-empty and every entry needs a remedy.
func NewTable(entries map[string]Entry) (Table, error) {

	t := Table{entries: make(map[string]Entry, len(entries))}

	for label, e := range entries {
		if label == "" {
			return Table{}, fmt.Errorf("empty disease label")
		}

		if e.Remedy == "" {
			return Table{}, fmt.Errorf("disease %q has no remedy", label)
		}

		t.entries[label] = e
	}

	return t, nil
}

// Default returns the paddy and groundnut disease table
func Default() Table {
	return Table{entries: map[string]Entry{
		"Black Fungus Pod":         {Color: "black", Remedy: "Mancozeb or Carbendazim"},
		"Early and Late leaf spot": {Color: "blue", Remedy: "Chlorothalonil or Propiconazole"},
		"Fungus leaf":              {Color: "green", Remedy: "Copper Oxychloride"},
		"Rust-Leaf":                {Color: "orange", Remedy: "Hexaconazole or Sulphur"},
		"black fungus-groundnut":   {Color: "gray", Remedy: "Carbendazim or Thiophanate-methyl"},
		"brown Fungus Pod":         {Color: "brown", Remedy: "Mancozeb or Chlorothalonil"},
		"bakteri_daun_bergaris":    {Color: "yellow", Remedy: "Streptomycin or Copper Hydroxide"},
		"bercak_coklat":            {Color: "red", Remedy: "Propiconazole or Mancozeb"},
		"bercak_coklat_sempit":     {Color: "purple", Remedy: "Carbendazim or Propiconazole"},
		"hawar_daun_bakteri":       {Color: "cyan", Remedy: "Copper Oxychloride or Streptomycin"},
		"tungro":                   {Color: "pink", Remedy: "Buprofezin or Imidacloprid"},
	}}
}

// LoadFile reads a YAML document of the form
//
//	Rust-Leaf:
//	  color: orange
//	  remedy: Hexaconazole or Sulphur
//
// and returns it as a Table.
func LoadFile(file string) (Table, error) {

	data, err := os.ReadFile(file)

	if err != nil {
		return Table{}, fmt.Errorf("error reading disease table: %w", err)
	}

	entries := make(map[string]Entry)

	if err := yaml.Unmarshal(data, &entries); err != nil {
		return Table{}, fmt.Errorf("error parsing disease table %s: %w", file, err)
	}

	if len(entries) == 0 {
		return Table{}, fmt.Errorf("disease table %s has no entries", file)
	}

	return NewTable(entries)
}

// Lookup returns the Entry for label and whether the label is known
func (t Table) Lookup(label string) (Entry, bool) {
	e, ok := t.entries[label]
	return e, ok
}

// Has reports whether the label is in the table
func (t Table) Has(label string) bool {
	_, ok := t.entries[label]
	return ok
}

// Labels returns the known labels in sorted order
func (t Table) Labels() []string {

	labels := make([]string, 0, len(t.entries))

	for label := range t.entries {
		labels = append(labels, label)
	}

	sort.Strings(labels)

	return labels
}

// Len returns the number of labels in the table
func (t Table) Len() int {
	return len(t.entries)
}
