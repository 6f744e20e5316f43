// Package entity provides base types for all domain entities.
package entity

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// StatusChange is one entry in a document's status history.
// Entries are append-only: nothing in the system rewrites or deletes them.
type StatusChange struct {
	From  string    `json:"from"`
	To    string    `json:"to"`
	Actor string    `json:"actor,omitempty"`
	At    time.Time `json:"at"`
	Note  string    `json:"note,omitempty"`
}

// ChangeLog is the typed, append-only status history of a document.
// Implements sql.Scanner and driver.Valuer for PostgreSQL JSONB mapping.
//
// Operational state (the applied marker) is deliberately NOT derived from
// this log; it lives in a dedicated column. The log is for humans.
type ChangeLog []StatusChange

// Append returns a new log with the entry added. The receiver is not mutated
// in place beyond the usual slice-append semantics; callers always reassign.
func (l ChangeLog) Append(change StatusChange) ChangeLog {
	return append(l, change)
}

// Last returns the most recent entry, or zero value if the log is empty.
func (l ChangeLog) Last() (StatusChange, bool) {
	if len(l) == 0 {
		return StatusChange{}, false
	}
	return l[len(l)-1], true
}

// Scan implements sql.Scanner for reading from PostgreSQL JSONB.
func (l *ChangeLog) Scan(src any) error {
	if src == nil {
		*l = nil
		return nil
	}

	var source []byte
	switch v := src.(type) {
	case []byte:
		source = v
	case string:
		source = []byte(v)
	default:
		return fmt.Errorf("unsupported type for ChangeLog: %T", src)
	}

	if len(source) == 0 {
		*l = nil
		return nil
	}

	var result []StatusChange
	if err := json.Unmarshal(source, &result); err != nil {
		return fmt.Errorf("failed to decode ChangeLog: %w", err)
	}

	*l = result
	return nil
}

// Value implements driver.Valuer for writing to PostgreSQL JSONB.
func (l ChangeLog) Value() (driver.Value, error) {
	if l == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(l)
}

// ActivityEntry is one row of the user-visible activity feed
// ("NK-2026-00042 applied by alice"). Append-only, separate storage.
type ActivityEntry struct {
	ID         string         `json:"id"`
	Actor      string         `json:"actor"`
	Action     string         `json:"action"`
	EntityType string         `json:"entityType"`
	EntityID   string         `json:"entityId"`
	Details    map[string]any `json:"details,omitempty"`
	At         time.Time      `json:"at"`
}
