package strategyconfig

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Load reads a strategy YAML file and returns the validated Config with
// the raw bytes. KnownFields(true) makes typos and stale fields fail
// loudly instead of silently falling back to zero values.
func Load(path string) (*Config, []byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("strategyconfig: read %s: %w", path, err)
	}

	var cfg Config
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		return nil, nil, fmt.Errorf("strategyconfig: decode %s: %w", path, err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, data, fmt.Errorf("strategyconfig: validate %s: %w", path, err)
	}

	return &cfg, data, nil
}

// Hash generates the SHA-256 hash of the canonical JSON form of cfg.
// Structs (not maps) keep the field order deterministic, so the same
// parameters always hash the same.
func Hash(cfg *Config) (string, error) {
	jsonBytes, err := json.Marshal(cfg)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(jsonBytes)
	return hex.EncodeToString(sum[:]), nil
}
