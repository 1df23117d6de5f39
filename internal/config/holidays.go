package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// holidaysFile is the on-disk shape of a holidays definition.
type holidaysFile struct {
	Holidays []string `yaml:"holidays"`
}

// LoadHolidays reads a YAML holidays file: a single "holidays" list of ISO
// dates (YYYY-MM-DD). An empty path returns an empty list.
func LoadHolidays(path string) ([]string, error) {
	if path == "" {
		return nil, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read holidays file: %w", err)
	}

	var file holidaysFile

	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse holidays file: %w", err)
	}

	return file.Holidays, nil
}
