package commons

import (
	"fmt"

	"go.yaml.in/yaml/v3"

	"newsstand/internal/config"
)

const maskedSecret = "********"

// DumpConfig renders the effective configuration as YAML with the database
// password masked.
func DumpConfig(cfg *config.Config) ([]byte, error) {
	masked := *cfg
	if masked.Database.Password != "" {
		masked.Database.Password = maskedSecret
	}

	data, err := yaml.Marshal(&masked)
	if err != nil {
		return nil, fmt.Errorf("encoding config: %w", err)
	}

	return data, nil
}
