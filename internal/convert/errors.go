package convert

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrBusy signals that a run of the same kind is already active. It is a
	// rejection, not a failure: no candidates were touched.
	ErrBusy = errors.New("run already in progress")
	// ErrPolicy marks a safety check (extension, folder name, residue) that
	// failed without the matching force flag.
	ErrPolicy = errors.New("safety policy violation")
	// ErrCollaborator marks a tile generation or persistence failure.
	ErrCollaborator = errors.New("collaborator failure")
)

// wrap builds an error message that carries candidate context while tagging it
// with the provided marker for classification. The marker should be one of the
// exported sentinel errors above or bif.ErrFormat.
func wrap(marker error, operation, message string, err error) error {
	detail := buildDetail(operation, message)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

func buildDetail(operation, message string) string {
	parts := make([]string, 0, 2)
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "candidate failure"
	}
	return strings.Join(parts, ": ")
}
