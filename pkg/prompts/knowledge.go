// Package prompts builds the text handed to the SQL generator: schema
// descriptions, curated warehouse knowledge and the generation /
// regeneration prompts themselves.
package prompts

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Knowledge is curated context about the warehouse that introspection cannot
// produce: what the data means, known quirks, preferred join paths. Loaded
// from a YAML file at startup; missing file means no knowledge.
type Knowledge struct {
	// Description is a one-paragraph summary of the warehouse.
	Description string `yaml:"description"`

	// Facts are short statements included verbatim in prompts.
	Facts []string `yaml:"facts"`

	// Tables maps a table name to a usage note.
	Tables map[string]string `yaml:"tables"`
}

// LoadKnowledge reads a knowledge file. A missing file is not an error;
// it returns (nil, nil) so callers can proceed without knowledge.
func LoadKnowledge(path string) (*Knowledge, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read knowledge file: %w", err)
	}

	var k Knowledge
	if err := yaml.Unmarshal(data, &k); err != nil {
		return nil, fmt.Errorf("parse knowledge file: %w", err)
	}
	return &k, nil
}
