package model

import "time"

// Metadata is a single normalized catalog match for an ISBN.
// Fields the catalog did not return are left empty.
type Metadata struct {
	Title         string
	Subtitle      string
	Authors       string // joined with ", "
	PublishedDate string
	PageCount     int
	ThumbnailURL  string
}

// Operation records one CLI command that mutated the library.
// Its ID doubles as the version of the library snapshot stored in the vault.
type Operation struct {
	ID         int64
	Operation  string
	Parameters string
	StartedAt  time.Time
	FinishedAt *time.Time
	Status     string // "success" or "error"
}
