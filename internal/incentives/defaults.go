package incentives

import (
	_ "embed"
	"fmt"

	"bda_portal_backend/internal/leads/domain"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

type catalogFile struct {
	Plans []domain.PlanConfig `yaml:"plans"`
}

// DefaultConfig returns the built-in plan catalog.
func DefaultConfig() ([]domain.PlanConfig, error) {
	return ParseCatalog(defaultsYAML)
}

// ParseCatalog reads a YAML plan catalog in the defaults.yaml layout.
func ParseCatalog(raw []byte) ([]domain.PlanConfig, error) {
	var file catalogFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("parse plan catalog: %w", err)
	}
	for i := range file.Plans {
		if file.Plans[i].Currency == "" {
			file.Plans[i].Currency = domain.CurrencyUSD
		}
		if err := domain.ValidatePlanConfig(file.Plans[i]); err != nil {
			return nil, fmt.Errorf("plan catalog entry %d: %w", i, err)
		}
	}
	return file.Plans, nil
}
