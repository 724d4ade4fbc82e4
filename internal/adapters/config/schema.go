package config

// ProjectFile represents the structure of .prov/project.yaml and .prov/project.toml.
// Durations are Go duration strings such as "30s".
type ProjectFile struct {
	Version     string    `yaml:"version" toml:"version"`
	Project     string    `yaml:"project" toml:"project"`
	LongName    string    `yaml:"long_name,omitempty" toml:"long_name,omitempty"`
	Description string    `yaml:"description,omitempty" toml:"description,omitempty"`
	Remote      RemoteDTO `yaml:"remote,omitempty" toml:"remote,omitempty"`
	Sync        SyncDTO   `yaml:"sync,omitempty" toml:"sync,omitempty"`
	Store       StoreDTO  `yaml:"store,omitempty" toml:"store,omitempty"`
}

// RemoteDTO configures the remote record service.
type RemoteDTO struct {
	URL                 string `yaml:"url,omitempty" toml:"url,omitempty"`
	AccessTokenEnv      string `yaml:"access_token_env,omitempty" toml:"access_token_env,omitempty"`
	ApplicationTokenEnv string `yaml:"application_token_env,omitempty" toml:"application_token_env,omitempty"`
	ApplicationToken    string `yaml:"application_token,omitempty" toml:"application_token,omitempty"`
	Timeout             string `yaml:"timeout,omitempty" toml:"timeout,omitempty"`
}

// SyncDTO configures the synchronization engine.
type SyncDTO struct {
	Mode                string  `yaml:"mode,omitempty" toml:"mode,omitempty"`
	MaxAttempts         int     `yaml:"max_attempts,omitempty" toml:"max_attempts,omitempty"`
	InitialInterval     string  `yaml:"initial_interval,omitempty" toml:"initial_interval,omitempty"`
	MaxInterval         string  `yaml:"max_interval,omitempty" toml:"max_interval,omitempty"`
	Multiplier          float64 `yaml:"multiplier,omitempty" toml:"multiplier,omitempty"`
	RandomizationFactor float64 `yaml:"randomization_factor,omitempty" toml:"randomization_factor,omitempty"`
	AttemptTimeout      string  `yaml:"attempt_timeout,omitempty" toml:"attempt_timeout,omitempty"`
	IdleTimeout         string  `yaml:"idle_timeout,omitempty" toml:"idle_timeout,omitempty"`
	PollInterval        string  `yaml:"poll_interval,omitempty" toml:"poll_interval,omitempty"`
}

// StoreDTO configures the local record store.
type StoreDTO struct {
	Snapshot    bool   `yaml:"snapshot,omitempty" toml:"snapshot,omitempty"`
	LockTimeout string `yaml:"lock_timeout,omitempty" toml:"lock_timeout,omitempty"`
}
