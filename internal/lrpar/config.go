package lrpar

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// LoadRecoveryConfig reads a RecoveryConfig from a TOML file at path,
// starting from DefaultRecoveryConfig so a file only needs to name the
// fields it wants to override.
func LoadRecoveryConfig(path string) (RecoveryConfig, error) {
	cfg := DefaultRecoveryConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read recovery config: %w", err)
	}
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse recovery config: %w", err)
	}
	return cfg, nil
}
