// Package identity derives content-addressed identifiers for projects and
// tasks so that repeated imports of the same rows resolve to the same keys.
package identity

import (
	"time"

	"github.com/google/uuid"

	"github.com/hpungsan/sheetload/internal/timeparse"
)

// Namespace is the fixed UUIDv5 namespace (RFC 4122 OID).
// Changing it invalidates every id already persisted.
var Namespace = uuid.NameSpaceOID

// Derive returns the version-5 UUID of key under Namespace.
func Derive(key string) uuid.UUID {
	return uuid.NewSHA1(Namespace, []byte(key))
}

// ProjectKey builds the business key of a project: name followed by the
// date formatted as "Sat Aug 10 2024".
func ProjectKey(name string, date time.Time) string {
	return name + date.Format(timeparse.KeyDateLayout)
}

// TaskKey builds the business key of a task: parent project id, task name
// and the start timestamp of its first segment ("2024-08-10 09:00:00").
func TaskKey(projectID uuid.UUID, name string, start time.Time) string {
	return projectID.String() + name + start.Format(timeparse.TimestampLayout)
}

// ProjectID derives the id for a project.
func ProjectID(name string, date time.Time) uuid.UUID {
	return Derive(ProjectKey(name, date))
}

// TaskID derives the id for a task.
func TaskID(projectID uuid.UUID, name string, start time.Time) uuid.UUID {
	return Derive(TaskKey(projectID, name, start))
}
