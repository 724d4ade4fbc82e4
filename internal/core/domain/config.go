package domain

import (
	"time"
)

// SyncMode selects how queued records reach the remote.
type SyncMode string

const (
	// SyncModeManual pushes only when the user runs a sync.
	SyncModeManual SyncMode = "manual"
	// SyncModeBackground spawns a detached worker after each capture.
	SyncModeBackground SyncMode = "background"
)

// Defaults applied when a project file omits a value.
const (
	DefaultMaxAttempts         = 5
	DefaultInitialInterval     = 500 * time.Millisecond
	DefaultMaxInterval         = 30 * time.Second
	DefaultMultiplier          = 2.0
	DefaultRandomization       = 0.5
	DefaultAttemptTimeout      = 30 * time.Second
	DefaultRemoteTimeout       = 30 * time.Second
	DefaultLockTimeout         = 10 * time.Second
	DefaultStaleLockAfter      = 10 * time.Minute
	DefaultWorkerIdleTimeout   = 5 * time.Minute
	DefaultWorkerPollInterval  = 2 * time.Second
	DefaultAccessTokenEnv      = "PROV_ACCESS_TOKEN"
	DefaultApplicationTokenEnv = "PROV_APPLICATION_TOKEN"
	RemoteURLEnv               = "PROV_REMOTE_URL"
)

// ProjectConfig is the resolved configuration of a project.
type ProjectConfig struct {
	Project string
	// LongName and Description are published to the remote with the project.
	LongName    string
	Description string
	Root        string
	Remote      RemoteConfig
	Sync        SyncConfig
	Store       StoreConfig
}

// ProjectInfo is what the remote knows about a project.
type ProjectInfo struct {
	Name        string
	LongName    string
	Description string
}

// RemoteConfig describes the remote record service.
type RemoteConfig struct {
	URL                 string
	AccessTokenEnv      string
	ApplicationTokenEnv string
	Timeout             time.Duration
	// Tokens are resolved from the environment and never written to disk.
	AccessToken      string
	ApplicationToken string
}

// Configured reports whether a remote URL is set.
func (c RemoteConfig) Configured() bool {
	return c.URL != ""
}

// SyncConfig tunes the synchronization engine.
type SyncConfig struct {
	Mode                SyncMode
	MaxAttempts         int
	InitialInterval     time.Duration
	MaxInterval         time.Duration
	Multiplier          float64
	RandomizationFactor float64
	AttemptTimeout      time.Duration
	IdleTimeout         time.Duration
	PollInterval        time.Duration
}

// StoreConfig tunes the local record store.
type StoreConfig struct {
	Snapshot    bool
	LockTimeout time.Duration
}

// DefaultProjectConfig returns the configuration used for omitted values.
func DefaultProjectConfig(project, root string) *ProjectConfig {
	return &ProjectConfig{
		Project: project,
		Root:    root,
		Remote: RemoteConfig{
			AccessTokenEnv:      DefaultAccessTokenEnv,
			ApplicationTokenEnv: DefaultApplicationTokenEnv,
			Timeout:             DefaultRemoteTimeout,
		},
		Sync: SyncConfig{
			Mode:                SyncModeManual,
			MaxAttempts:         DefaultMaxAttempts,
			InitialInterval:     DefaultInitialInterval,
			MaxInterval:         DefaultMaxInterval,
			Multiplier:          DefaultMultiplier,
			RandomizationFactor: DefaultRandomization,
			AttemptTimeout:      DefaultAttemptTimeout,
			IdleTimeout:         DefaultWorkerIdleTimeout,
			PollInterval:        DefaultWorkerPollInterval,
		},
		Store: StoreConfig{
			LockTimeout: DefaultLockTimeout,
		},
	}
}

// Info returns the project details published to the remote.
func (c *ProjectConfig) Info() ProjectInfo {
	return ProjectInfo{Name: c.Project, LongName: c.LongName, Description: c.Description}
}

// ProjectRef returns the Project described by the configuration.
func (c *ProjectConfig) ProjectRef() Project {
	return Project{Name: c.Project, Root: c.Root, LockTimeout: c.Store.LockTimeout}
}
