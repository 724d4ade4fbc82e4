package domain

import "path/filepath"

const (
	// ProvDirName is the name of the internal workspace directory.
	ProvDirName = ".prov"

	// StoreDirName is the name of the record store directory.
	StoreDirName = "store"

	// RecordsDirName holds one JSON document per record id.
	RecordsDirName = "records"

	// BlobsDirName holds dependency snapshots keyed by digest.
	BlobsDirName = "blobs"

	// LockDirName is the on-disk writer lock of a project store.
	LockDirName = "lock"

	// LockOwnerFile describes the process holding the writer lock.
	LockOwnerFile = "owner.json"

	// IndexFileName is the name of the per-project index.
	IndexFileName = "index.json"

	// ProjectFileName is the name of the YAML project configuration file.
	ProjectFileName = "project.yaml"

	// ProjectTOMLFileName is the name of the TOML project configuration file.
	ProjectTOMLFileName = "project.toml"

	// DebugLogFile is the name of the debug log file.
	DebugLogFile = "debug.log"

	// WorkerLogFile receives the output of the background sync worker.
	WorkerLogFile = "worker.log"

	// WorkerPIDFile holds the pid of the running sync worker.
	WorkerPIDFile = "worker.pid"

	// DirPerm is the default permission for directories (rwxr-x---).
	DirPerm = 0o750

	// FilePerm is the default permission for files (rw-r--r--).
	FilePerm = 0o644

	// PrivateFilePerm is the default permission for private files (rw-------).
	PrivateFilePerm = 0o600
)

// DefaultProvPath returns the default root directory for prov metadata.
func DefaultProvPath() string {
	return ProvDirName
}

// DefaultStorePath returns the default path for the record store.
// It joins .prov and store.
func DefaultStorePath() string {
	return filepath.Join(ProvDirName, StoreDirName)
}

// DefaultConfigPath returns the default path of the YAML project file.
func DefaultConfigPath() string {
	return filepath.Join(ProvDirName, ProjectFileName)
}

// DefaultDebugLogPath returns the default path for the debug log.
// It joins .prov and debug.log.
func DefaultDebugLogPath() string {
	return filepath.Join(ProvDirName, DebugLogFile)
}

// DefaultWorkerLogPath returns the default path for the sync worker log.
func DefaultWorkerLogPath() string {
	return filepath.Join(ProvDirName, WorkerLogFile)
}

// DefaultWorkerPIDPath returns the default path for the sync worker pid file.
func DefaultWorkerPIDPath() string {
	return filepath.Join(ProvDirName, WorkerPIDFile)
}
