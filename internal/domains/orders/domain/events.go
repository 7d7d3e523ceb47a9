package domain

import "time"

// AuditEntry records one status transition with its actor, forming the
// order's immutable history.
type AuditEntry struct {
	ID         int64
	OrderID    int64
	FromStatus Status
	ToStatus   Status
	ActorID    string
	Note       string
	At         time.Time
}
