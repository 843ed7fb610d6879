// Package yamljson converts between the repository's canonical YAML bytes and
// the JSON the HTTP API speaks. Conversion is tree level; no schema awareness.
package yamljson

import (
	"fmt"

	"github.com/ghodss/yaml"
)

// ToJSON converts YAML to JSON
func ToJSON(yamlBytes []byte) ([]byte, error) {
	jsonBytes, err := yaml.YAMLToJSON(yamlBytes)
	if err != nil {
		return nil, fmt.Errorf("could not convert YAML to JSON: %w", err)
	}
	return jsonBytes, nil
}

// ToYAML converts JSON to YAML
func ToYAML(jsonBytes []byte) ([]byte, error) {
	yamlBytes, err := yaml.JSONToYAML(jsonBytes)
	if err != nil {
		return nil, fmt.Errorf("could not convert JSON to YAML: %w", err)
	}
	return yamlBytes, nil
}
