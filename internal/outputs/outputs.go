// Package outputs resolves the resource identifiers exported by the
// terraform stack into a typed struct the validator can query.
//
// The expected input is the file produced by `terraform output -json`,
// where each output is wrapped as {"value": ..., "type": ..., "sensitive": ...}.
// A flat map of name -> value is also accepted, as are YAML files, so
// hand-written fixtures and CI artifacts both work.
package outputs

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Outputs holds the identifiers terraform exports for one environment.
// Empty fields are legal at load time; the validator's presence check is
// where missing identifiers get reported.
type Outputs struct {
	Region              string `json:"region" yaml:"region"`
	Network             string `json:"network" yaml:"network"`
	DataBucket          string `json:"data_bucket" yaml:"data_bucket"`
	ScriptsBucket       string `json:"scripts_bucket" yaml:"scripts_bucket"`
	SQLInstance         string `json:"sql_instance" yaml:"sql_instance"`
	SQLConnectionName   string `json:"sql_connection_name" yaml:"sql_connection_name"`
	SQLPrivateIP        string `json:"sql_private_ip" yaml:"sql_private_ip"`
	DataprocCluster     string `json:"dataproc_cluster" yaml:"dataproc_cluster"`
	BigQueryDataset     string `json:"bigquery_dataset" yaml:"bigquery_dataset"`
	ComposerEnvironment string `json:"composer_environment" yaml:"composer_environment"`
	SecretID            string `json:"secret_id" yaml:"secret_id"`
}

// required lists the identifiers the deployment cannot function without.
// ScriptsBucket, SQLConnectionName, SQLPrivateIP, and SecretID are
// informational: useful when present, not grounds for a failed check.
var required = []string{
	"region",
	"data_bucket",
	"sql_instance",
	"dataproc_cluster",
	"bigquery_dataset",
	"composer_environment",
}

// Missing returns the names of required identifiers that are empty.
func (o *Outputs) Missing() []string {
	byName := map[string]string{
		"region":               o.Region,
		"data_bucket":          o.DataBucket,
		"sql_instance":         o.SQLInstance,
		"dataproc_cluster":     o.DataprocCluster,
		"bigquery_dataset":     o.BigQueryDataset,
		"composer_environment": o.ComposerEnvironment,
	}

	var missing []string
	for _, name := range required {
		if byName[name] == "" {
			missing = append(missing, name)
		}
	}
	return missing
}

// tfOutput is one entry of `terraform output -json`.
type tfOutput struct {
	Value     any  `json:"value" yaml:"value"`
	Sensitive bool `json:"sensitive" yaml:"sensitive"`
}

// Load reads and parses an outputs file (supports .json, .yaml, and .yml)
func Load(path string) (*Outputs, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read outputs file: %w", err)
	}

	var raw map[string]any

	// Detect format by file extension
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("failed to parse outputs YAML: %w", err)
		}
	default:
		// terraform output -json is the common case
		if err := json.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("failed to parse outputs JSON: %w", err)
		}
	}

	return fromRaw(raw)
}

// fromRaw flattens the terraform {value, type, sensitive} wrapper when
// present, then decodes into the typed struct.
func fromRaw(raw map[string]any) (*Outputs, error) {
	flat := make(map[string]any, len(raw))
	for name, entry := range raw {
		if wrapped, ok := entry.(map[string]any); ok {
			if value, ok := wrapped["value"]; ok {
				flat[name] = value
				continue
			}
		}
		flat[name] = entry
	}

	buf, err := json.Marshal(flat)
	if err != nil {
		return nil, fmt.Errorf("failed to normalize outputs: %w", err)
	}

	var out Outputs
	if err := json.Unmarshal(buf, &out); err != nil {
		return nil, fmt.Errorf("failed to decode outputs: %w", err)
	}

	return &out, nil
}
