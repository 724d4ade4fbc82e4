// Package config provides the project configuration loader for prov.
package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
	"go.trai.ch/prov/internal/core/domain"
	"go.trai.ch/prov/internal/core/ports"
	"go.trai.ch/zerr"
	"gopkg.in/yaml.v3"
)

const currentVersion = "1"

var _ ports.ConfigLoader = (*Loader)(nil)

// Loader implements ports.ConfigLoader using a YAML or TOML project file.
type Loader struct {
	Logger ports.Logger
	getenv func(string) string
}

// NewLoader creates a new Loader with the given logger.
func NewLoader(logger ports.Logger) *Loader {
	return &Loader{Logger: logger, getenv: os.Getenv}
}

// DiscoverRoot walks up from cwd to the first directory holding a project file.
func (l *Loader) DiscoverRoot(cwd string) (string, error) {
	dir, err := filepath.Abs(cwd)
	if err != nil {
		return "", zerr.With(zerr.Wrap(err, domain.ErrConfigReadFailed.Error()), "path", cwd)
	}
	for {
		if _, _, found := projectFile(dir); found {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", zerr.With(zerr.Wrap(domain.ErrConfigNotFound, "no project file found"), "cwd", cwd)
		}
		dir = parent
	}
}

// projectFile returns the project file below root. YAML wins over TOML.
func projectFile(root string) (path string, isTOML, found bool) {
	yamlPath := filepath.Join(root, domain.DefaultConfigPath())
	if _, err := os.Stat(yamlPath); err == nil {
		return yamlPath, false, true
	}
	tomlPath := filepath.Join(root, domain.ProvDirName, domain.ProjectTOMLFileName)
	if _, err := os.Stat(tomlPath); err == nil {
		return tomlPath, true, true
	}
	return "", false, false
}

// Load reads the project file below root, applies defaults and resolves
// credentials from the environment.
func (l *Loader) Load(root string) (*domain.ProjectConfig, error) {
	path, isTOML, found := projectFile(root)
	if !found {
		return nil, zerr.With(zerr.Wrap(domain.ErrConfigNotFound, "no project file found"), "root", root)
	}

	var file ProjectFile
	if isTOML {
		if _, err := toml.DecodeFile(path, &file); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil, zerr.With(zerr.Wrap(err, domain.ErrConfigReadFailed.Error()), "path", path)
			}
			return nil, zerr.With(zerr.Wrap(err, domain.ErrConfigParseFailed.Error()), "path", path)
		}
	} else if err := readAndUnmarshalYAML(path, &file); err != nil {
		return nil, zerr.With(err, "path", path)
	}
	if !isTOML && l.Logger != nil {
		if _, err := os.Stat(filepath.Join(root, domain.ProvDirName, domain.ProjectTOMLFileName)); err == nil {
			l.Logger.Warn("both project.yaml and project.toml exist, using project.yaml")
		}
	}

	cfg, err := l.toDomain(root, &file)
	if err != nil {
		return nil, zerr.With(err, "path", path)
	}
	return cfg, nil
}

func (l *Loader) toDomain(root string, file *ProjectFile) (*domain.ProjectConfig, error) {
	name := file.Project
	if name == "" {
		name = filepath.Base(root)
	}
	if err := domain.ValidateProjectName(name); err != nil {
		return nil, err
	}

	cfg := domain.DefaultProjectConfig(name, root)
	cfg.LongName = file.LongName
	cfg.Description = file.Description

	cfg.Remote.URL = file.Remote.URL
	setString(&cfg.Remote.AccessTokenEnv, file.Remote.AccessTokenEnv)
	setString(&cfg.Remote.ApplicationTokenEnv, file.Remote.ApplicationTokenEnv)
	cfg.Remote.ApplicationToken = file.Remote.ApplicationToken

	if file.Sync.Mode != "" {
		cfg.Sync.Mode = domain.SyncMode(file.Sync.Mode)
	}
	if file.Sync.MaxAttempts != 0 {
		cfg.Sync.MaxAttempts = file.Sync.MaxAttempts
	}
	if file.Sync.Multiplier != 0 {
		cfg.Sync.Multiplier = file.Sync.Multiplier
	}
	if file.Sync.RandomizationFactor != 0 {
		cfg.Sync.RandomizationFactor = file.Sync.RandomizationFactor
	}
	cfg.Store.Snapshot = file.Store.Snapshot

	durations := []struct {
		key    string
		raw    string
		target *time.Duration
	}{
		{"remote.timeout", file.Remote.Timeout, &cfg.Remote.Timeout},
		{"sync.initial_interval", file.Sync.InitialInterval, &cfg.Sync.InitialInterval},
		{"sync.max_interval", file.Sync.MaxInterval, &cfg.Sync.MaxInterval},
		{"sync.attempt_timeout", file.Sync.AttemptTimeout, &cfg.Sync.AttemptTimeout},
		{"sync.idle_timeout", file.Sync.IdleTimeout, &cfg.Sync.IdleTimeout},
		{"sync.poll_interval", file.Sync.PollInterval, &cfg.Sync.PollInterval},
		{"store.lock_timeout", file.Store.LockTimeout, &cfg.Store.LockTimeout},
	}
	for _, d := range durations {
		if d.raw == "" {
			continue
		}
		parsed, err := time.ParseDuration(d.raw)
		if err != nil || parsed <= 0 {
			return nil, zerr.With(zerr.With(zerr.Wrap(domain.ErrConfigInvalid, "duration must be positive, e.g. \"30s\""), "key", d.key), "value", d.raw)
		}
		*d.target = parsed
	}

	l.applyEnv(cfg)

	if err := validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnv resolves tokens and the remote url override from the environment.
func (l *Loader) applyEnv(cfg *domain.ProjectConfig) {
	if url := l.getenv(domain.RemoteURLEnv); url != "" {
		cfg.Remote.URL = url
	}
	cfg.Remote.AccessToken = l.getenv(cfg.Remote.AccessTokenEnv)
	if token := l.getenv(cfg.Remote.ApplicationTokenEnv); token != "" {
		cfg.Remote.ApplicationToken = token
	}
}

func validate(cfg *domain.ProjectConfig) error {
	switch {
	case cfg.Sync.Mode != domain.SyncModeManual && cfg.Sync.Mode != domain.SyncModeBackground:
		return zerr.With(zerr.Wrap(domain.ErrConfigInvalid, "sync.mode must be manual or background"), "value", string(cfg.Sync.Mode))
	case cfg.Sync.MaxAttempts < 1:
		return zerr.With(zerr.Wrap(domain.ErrConfigInvalid, "sync.max_attempts must be at least 1"), "value", cfg.Sync.MaxAttempts)
	case cfg.Sync.Multiplier < 1:
		return zerr.With(zerr.Wrap(domain.ErrConfigInvalid, "sync.multiplier must be at least 1"), "value", cfg.Sync.Multiplier)
	case cfg.Sync.RandomizationFactor < 0 || cfg.Sync.RandomizationFactor > 1:
		return zerr.With(zerr.Wrap(domain.ErrConfigInvalid, "sync.randomization_factor must be within [0, 1]"), "value", cfg.Sync.RandomizationFactor)
	case cfg.Sync.MaxInterval < cfg.Sync.InitialInterval:
		return zerr.Wrap(domain.ErrConfigInvalid, "sync.max_interval must not be below sync.initial_interval")
	}
	return nil
}

func setString(target *string, value string) {
	if value != "" {
		*target = value
	}
}

// Init creates .prov below cfg.Root and writes project.yaml. Tokens are never written.
func (l *Loader) Init(cfg *domain.ProjectConfig) error {
	if err := domain.ValidateProjectName(cfg.Project); err != nil {
		return err
	}
	if path, _, found := projectFile(cfg.Root); found {
		return zerr.With(zerr.Wrap(domain.ErrConfigInvalid, "project already initialized"), "path", path)
	}

	provDir := filepath.Join(cfg.Root, domain.ProvDirName)
	if err := os.MkdirAll(provDir, domain.DirPerm); err != nil {
		return zerr.With(zerr.Wrap(err, domain.ErrStoreCreateFailed.Error()), "path", provDir)
	}

	data, err := yaml.Marshal(fromDomain(cfg))
	if err != nil {
		return zerr.Wrap(err, domain.ErrStoreMarshalFailed.Error())
	}
	path := filepath.Join(cfg.Root, domain.DefaultConfigPath())
	if err := os.WriteFile(path, data, domain.FilePerm); err != nil {
		return zerr.With(zerr.Wrap(err, domain.ErrStoreWriteFailed.Error()), "path", path)
	}
	return nil
}

func fromDomain(cfg *domain.ProjectConfig) ProjectFile {
	file := ProjectFile{
		Version:     currentVersion,
		Project:     cfg.Project,
		LongName:    cfg.LongName,
		Description: cfg.Description,
		Remote: RemoteDTO{
			URL: cfg.Remote.URL,
		},
		Sync: SyncDTO{
			Mode: string(cfg.Sync.Mode),
		},
		Store: StoreDTO{
			Snapshot: cfg.Store.Snapshot,
		},
	}
	if cfg.Remote.AccessTokenEnv != domain.DefaultAccessTokenEnv {
		file.Remote.AccessTokenEnv = cfg.Remote.AccessTokenEnv
	}
	if cfg.Remote.ApplicationTokenEnv != domain.DefaultApplicationTokenEnv {
		file.Remote.ApplicationTokenEnv = cfg.Remote.ApplicationTokenEnv
	}
	return file
}

// readAndUnmarshalYAML reads a YAML file and unmarshals it into the target struct.
func readAndUnmarshalYAML[T any](configPath string, target *T) error {
	// #nosec G304 -- configPath is validated by caller
	configFile, err := os.ReadFile(configPath)
	if err != nil {
		return zerr.Wrap(err, domain.ErrConfigReadFailed.Error())
	}

	if parseErr := yaml.Unmarshal(configFile, target); parseErr != nil {
		return zerr.Wrap(parseErr, domain.ErrConfigParseFailed.Error())
	}

	return nil
}
