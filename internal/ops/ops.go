// Package ops implements the user-facing operations shared by the CLI and
// the MCP server.
package ops

import (
	"strings"

	"github.com/google/uuid"

	"github.com/hpungsan/sheetload/internal/errors"
)

// parseID validates a UUID request parameter.
func parseID(field, value string) (uuid.UUID, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return uuid.Nil, errors.NewInvalidRequest(field + " is required")
	}
	id, err := uuid.Parse(value)
	if err != nil {
		return uuid.Nil, errors.NewInvalidRequest(field + " must be a UUID: " + value)
	}
	return id, nil
}
