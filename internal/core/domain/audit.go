package domain

import "time"

type AuditEvent struct {
	EntityType string
	EntityID   string
	Action     string
	Actor      string
	At         time.Time
}

type AuditFilter struct {
	EntityType string
	EntityID   string
	Limit      int
}
