package index

import "github.com/starford/kiln/internal/models"

// DocumentIndex is the read/write surface over the persisted build results.
type DocumentIndex interface {
	Replace(docs []models.Document, members []Membership) error
	Fingerprints() (map[string]string, error)
	Outputs() (map[string]string, error)
	GetDocument(path string) (*models.Document, error)
	ListDocuments(f Filter) ([]models.Document, int, error)
	Groups(kind string) ([]models.Group, error)
	Close() error
}

// Verify *DB satisfies DocumentIndex at compile time.
var _ DocumentIndex = (*DB)(nil)
