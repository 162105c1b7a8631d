// Package config reads annotation settings from a YAML file.
//
//	annotate: [dd, cd, ptr]
//	criteria: [println]
//	comment: |
//	  ; sliced with respect to println
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

type Config struct {
	// Annotation category names, as accepted by annotate.ParseOptions.
	Annotate []string `yaml:"annotate"`
	// Names of functions whose call sites are slicing criteria.
	Criteria []string `yaml:"criteria"`
	// Module comment, written once at the top of the dump.
	Comment string `yaml:"comment"`
	// Restricts the dump to the named functions. Empty means all.
	Functions []string `yaml:"functions"`
}

// Load reads the configuration at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	return Parse(data)
}

// Parse decodes a YAML configuration. Unknown keys are rejected and an empty
// document yields the zero Config.
func Parse(data []byte) (*Config, error) {
	var (
		c   Config
		dec = yaml.NewDecoder(bytes.NewReader(data))
	)
	dec.KnownFields(true)
	if err := dec.Decode(&c); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	return &c, nil
}
