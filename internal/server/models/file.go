// Package models defines server-side data models persisted in the database.
package models

import (
	"fmt"
	"time"
)

// OwnerRef points a stored file at the entity that owns it: a table
// identifier plus the row id inside that table.
type OwnerRef struct {
	Table string `json:"table"`
	ID    int64  `json:"id"`
}

func (o OwnerRef) String() string {
	return fmt.Sprintf("%s:%d", o.Table, o.ID)
}

// StoredFile is the metadata record of one physical object in the file store.
// A nil Owner means the file is orphaned and eligible for sweeping once it
// is older than the retention window.
type StoredFile struct {
	ID        int64     `json:"id"`
	Address   string    `json:"address"`
	Owner     *OwnerRef `json:"owner,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (f *StoredFile) State() FileState {
	if f.Owner == nil {
		return FileOrphaned
	}
	return FileAssociated
}

// FileState is the lifecycle state of a stored file.
type FileState int

const (
	FileAssociated FileState = iota + 1
	FileOrphaned
	// FilePurged is terminal: record and object are gone.
	FilePurged
)

func (s FileState) String() string {
	switch s {
	case FileAssociated:
		return "associated"
	case FileOrphaned:
		return "orphaned"
	case FilePurged:
		return "purged"
	default:
		return "unknown"
	}
}

// CanTransition reports whether a file may move from s to next.
// Only orphaned files can be purged; purged is final.
func (s FileState) CanTransition(next FileState) bool {
	switch s {
	case FileAssociated:
		return next == FileAssociated || next == FileOrphaned
	case FileOrphaned:
		return next == FileAssociated || next == FileOrphaned || next == FilePurged
	default:
		return false
	}
}
