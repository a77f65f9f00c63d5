// Package models defines the domain types shared across kiln packages.
package models

import "time"

// FileMeta is a lightweight representation returned by storage list operations.
type FileMeta struct {
	Path      string    `json:"path"`
	Size      int64     `json:"size"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Document is the indexed summary of one content file after a build.
type Document struct {
	ID          int       `json:"id"`
	Path        string    `json:"path"`
	Title       string    `json:"title,omitempty"`
	OutPath     string    `json:"out_path,omitempty"`
	Fingerprint string    `json:"fingerprint"`
	Draft       bool      `json:"draft"`
	Tags        []string  `json:"tags"`
	Metadata    string    `json:"metadata,omitempty"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Group kinds.
const (
	GroupCollection = "collection"
	GroupTaxonomy   = "taxonomy"
)

// Group is a named set of documents: a collection (declared tag) or a
// taxonomy (directory segment).
type Group struct {
	Kind  string `json:"kind"`
	Name  string `json:"name"`
	Count int    `json:"count"`
}
