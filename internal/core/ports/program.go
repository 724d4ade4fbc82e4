package ports

import (
	"context"

	"go.trai.ch/prov/internal/core/domain"
)

// ProgramDetector identifies the executable behind a run.
//
//go:generate mockgen -source=program.go -destination=mocks/mock_program.go -package=mocks
type ProgramDetector interface {
	// Detect resolves name (or the interpreter implied by script) to an executable
	// descriptor, including its version when it can be determined.
	Detect(ctx context.Context, name, script string) (domain.Executable, error)
}
