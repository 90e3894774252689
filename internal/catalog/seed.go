package catalog

import (
	_ "embed"
	"fmt"

	"gopkg.in/yaml.v3"
)

//go:embed seed.yaml
var seedYAML []byte

type seedFile struct {
	Programs []Program `yaml:"programs"`
	Events   []Event   `yaml:"events"`
}

// ParseSeed decodes a YAML catalog document.
func ParseSeed(raw []byte) ([]Program, []Event, error) {
	var sf seedFile
	if err := yaml.Unmarshal(raw, &sf); err != nil {
		return nil, nil, fmt.Errorf("catalog: parse seed: %w", err)
	}
	return sf.Programs, sf.Events, nil
}

// NewSeededStore builds a store from the embedded catalog.
func NewSeededStore() (*Store, error) {
	programs, events, err := ParseSeed(seedYAML)
	if err != nil {
		return nil, err
	}
	return NewStore(programs, events)
}
