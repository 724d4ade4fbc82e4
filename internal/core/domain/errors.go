package domain

import (
	"errors"

	"go.trai.ch/zerr"
)

var (
	// ErrDuplicateLabel is returned when a label is already taken in a project and overwrite was not requested.
	ErrDuplicateLabel = zerr.New("label already exists in project")

	// ErrNotFound is returned when a record cannot be resolved by label or id.
	ErrNotFound = zerr.New("record not found")

	// ErrInvalidState is returned when an operation is not allowed in the record's current phase or sync state.
	ErrInvalidState = zerr.New("invalid record state")

	// ErrConflict is returned when the remote already holds a different record under the same label.
	ErrConflict = zerr.New("remote conflict")

	// ErrAuth is returned when credentials are missing or rejected by the remote.
	ErrAuth = zerr.New("authentication failed")

	// ErrNetwork is returned for transport failures and transient remote responses.
	ErrNetwork = zerr.New("network failure")

	// ErrValidation is returned when the remote rejects a payload as malformed.
	ErrValidation = zerr.New("payload rejected by remote")

	// ErrInvalidProjectName is returned when a project name is invalid.
	ErrInvalidProjectName = zerr.New("project name can only contain alphanumeric characters, dots, hyphens and underscores")

	// ErrInvalidLabel is returned when a record label is empty or contains a path separator.
	ErrInvalidLabel = zerr.New("invalid record label")

	// ErrRecordExists is returned when a record id is stored twice.
	ErrRecordExists = zerr.New("record id already stored")

	// ErrStoreLocked is returned when the project lock cannot be acquired in time.
	ErrStoreLocked = zerr.New("project store is locked")

	// ErrStoreCreateFailed is returned when the store directory cannot be created.
	ErrStoreCreateFailed = zerr.New("failed to create store directory")

	// ErrStoreReadFailed is returned when a store file cannot be read.
	ErrStoreReadFailed = zerr.New("failed to read from store")

	// ErrStoreWriteFailed is returned when a store file cannot be written.
	ErrStoreWriteFailed = zerr.New("failed to write to store")

	// ErrStoreUnmarshalFailed is returned when a store file cannot be decoded.
	ErrStoreUnmarshalFailed = zerr.New("failed to unmarshal store data")

	// ErrStoreMarshalFailed is returned when store data cannot be encoded.
	ErrStoreMarshalFailed = zerr.New("failed to marshal store data")

	// ErrDigestMismatch is returned when file content changed between hashing and snapshotting.
	ErrDigestMismatch = zerr.New("content digest mismatch")

	// ErrConfigReadFailed is returned when the config file cannot be read.
	ErrConfigReadFailed = zerr.New("failed to read config file")

	// ErrConfigParseFailed is returned when the config file cannot be parsed.
	ErrConfigParseFailed = zerr.New("failed to parse config file")

	// ErrConfigNotFound is returned when no .prov directory exists above the working directory.
	ErrConfigNotFound = zerr.New("could not find a prov project, run 'prov init' first")

	// ErrConfigInvalid is returned when a config value is out of range.
	ErrConfigInvalid = zerr.New("invalid configuration")

	// ErrInputNotFound is returned when a declared dependency path matches no file.
	ErrInputNotFound = zerr.New("input not found")

	// ErrFileOpenFailed is returned when a file cannot be opened.
	ErrFileOpenFailed = zerr.New("failed to open file")

	// ErrFileHashFailed is returned when hashing a file fails.
	ErrFileHashFailed = zerr.New("failed to hash file content")

	// ErrPathStatFailed is returned when stating a path fails.
	ErrPathStatFailed = zerr.New("failed to stat path")

	// ErrVCSCommandFailed is returned when a version control command fails.
	ErrVCSCommandFailed = zerr.New("version control command failed")

	// ErrParameterParse is returned when a parameter assignment or file cannot be parsed.
	ErrParameterParse = zerr.New("failed to parse parameters")

	// ErrMissingCommand is returned when a run is requested without a command.
	ErrMissingCommand = zerr.New("no command given")

	// ErrRunFailed is returned when the monitored command exits non-zero.
	ErrRunFailed = zerr.New("monitored run failed")

	// ErrUnknownProgram is returned when no executable is given and the script extension is not registered.
	ErrUnknownProgram = zerr.New("cannot infer program from script extension")

	// ErrSyncCanceled is returned when a pending push is canceled before it could be retried.
	ErrSyncCanceled = zerr.New("pending push canceled")

	// ErrWorkerSpawnFailed is returned when the background sync worker cannot be started.
	ErrWorkerSpawnFailed = zerr.New("failed to spawn sync worker")
)

// ErrorDetail returns the value attached under key closest to the top of err's chain.
func ErrorDetail(err error, key string) (any, bool) {
	for err != nil {
		var z *zerr.Error
		if !errors.As(err, &z) {
			return nil, false
		}
		if v, ok := z.Metadata()[key]; ok {
			return v, true
		}
		err = z.Unwrap()
	}
	return nil, false
}

// Retryable reports whether a push error is transient and may succeed on a later attempt.
func Retryable(err error) bool {
	if err == nil {
		return false
	}
	switch {
	case errors.Is(err, ErrAuth), errors.Is(err, ErrValidation), errors.Is(err, ErrConflict):
		return false
	default:
		return errors.Is(err, ErrNetwork)
	}
}
