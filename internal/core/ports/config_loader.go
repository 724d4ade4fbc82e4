package ports

import "go.trai.ch/prov/internal/core/domain"

// ConfigLoader defines the interface for loading the project configuration.
//
//go:generate mockgen -source=config_loader.go -destination=mocks/mock_config_loader.go -package=mocks
type ConfigLoader interface {
	// DiscoverRoot walks up from cwd to the directory containing .prov.
	DiscoverRoot(cwd string) (string, error)

	// Load reads the project file below root and resolves credentials from the environment.
	Load(root string) (*domain.ProjectConfig, error)

	// Init creates .prov and writes the project file.
	Init(cfg *domain.ProjectConfig) error

	// LoadParameters reads a parameter file (JSON, YAML or TOML) preserving key order.
	LoadParameters(path string) (*domain.ParameterSet, error)
}
