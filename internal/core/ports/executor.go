// Package ports defines the core interfaces for the application.
package ports

import (
	"context"
	"io"

	"go.trai.ch/prov/internal/core/domain"
)

// Executor defines the interface for running the monitored command.
//
//go:generate mockgen -source=executor.go -destination=mocks/mock_executor.go -package=mocks
type Executor interface {
	// Execute runs cmd to completion and returns its exit status.
	//
	// A non-zero exit is not an error. err is set only when the process
	// could not be started or waited for.
	Execute(ctx context.Context, cmd domain.Command, stdout, stderr io.Writer) (exitStatus int, err error)
}
