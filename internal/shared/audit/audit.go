package audit

import "time"

// Metadata captures the persistence audit trail shared by all aggregates:
// who touched the record, when, and the optimistic version counter checked
// on every write.
type Metadata struct {
	CreatedAt   time.Time
	UpdatedAt   time.Time
	CreatedByID string
	UpdatedByID string
	Version     int64
}

// Stamp initializes the metadata for a newly created aggregate.
func (m *Metadata) Stamp(actorID string, now time.Time) {
	m.CreatedAt = now
	m.UpdatedAt = now
	m.CreatedByID = actorID
	m.UpdatedByID = actorID
	m.Version = 1
}

// Touch records a mutation. The version bump happens in the repository,
// atomically with the version check.
func (m *Metadata) Touch(actorID string, now time.Time) {
	m.UpdatedAt = now
	if actorID != "" {
		m.UpdatedByID = actorID
	}
}
