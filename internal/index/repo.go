package index

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/starford/kiln/internal/apperr"
	"github.com/starford/kiln/internal/models"
)

// Membership places a document in a collection or taxonomy.
type Membership struct {
	Kind string
	Name string
	Path string
}

// Filter narrows ListDocuments. A zero Filter lists everything.
type Filter struct {
	Kind   string // models.GroupCollection or models.GroupTaxonomy
	Name   string
	Limit  int
	Offset int
}

// Replace swaps the indexed contents for the results of a new build in a
// single transaction.
func (db *DB) Replace(docs []models.Document, members []Membership) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("index: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // best-effort on failure path

	if _, err := tx.Exec(`DELETE FROM group_members`); err != nil {
		return fmt.Errorf("index: clear members: %w", err)
	}
	if _, err := tx.Exec(`DELETE FROM documents`); err != nil {
		return fmt.Errorf("index: clear documents: %w", err)
	}

	docStmt, err := tx.Prepare(`
		INSERT INTO documents (path, doc_id, title, out_path, fingerprint, draft, tags, metadata, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("index: prepare document insert: %w", err)
	}
	defer docStmt.Close()

	for _, d := range docs {
		tags := d.Tags
		if tags == nil {
			tags = []string{}
		}
		tagsJSON, _ := json.Marshal(tags)
		if _, err := docStmt.Exec(d.Path, d.ID, d.Title, d.OutPath, d.Fingerprint, d.Draft, string(tagsJSON), d.Metadata, d.UpdatedAt); err != nil {
			return fmt.Errorf("index: insert document %s: %w", d.Path, err)
		}
	}

	if len(members) > 0 {
		memberStmt, err := tx.Prepare(`INSERT OR IGNORE INTO group_members (kind, name, path) VALUES (?, ?, ?)`)
		if err != nil {
			return fmt.Errorf("index: prepare member insert: %w", err)
		}
		defer memberStmt.Close()
		for _, m := range members {
			if _, err := memberStmt.Exec(m.Kind, m.Name, m.Path); err != nil {
				return fmt.Errorf("index: insert member: %w", err)
			}
		}
	}

	return tx.Commit()
}

// Fingerprints returns the fingerprint of every indexed document by path.
func (db *DB) Fingerprints() (map[string]string, error) {
	return db.pathMap(`SELECT path, fingerprint FROM documents`)
}

// Outputs returns the generated page path of every indexed document by path.
func (db *DB) Outputs() (map[string]string, error) {
	return db.pathMap(`SELECT path, out_path FROM documents WHERE out_path != ''`)
}

func (db *DB) pathMap(query string) (map[string]string, error) {
	rows, err := db.conn.Query(query)
	if err != nil {
		return nil, fmt.Errorf("index: query: %w", err)
	}
	defer rows.Close()
	out := make(map[string]string)
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return nil, err
		}
		out[k] = v
	}
	return out, rows.Err()
}

const documentColumns = `d.doc_id, d.path, d.title, d.out_path, d.fingerprint, d.draft, d.tags, d.metadata, d.updated_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanDocument(s scanner) (*models.Document, error) {
	var d models.Document
	var tagsJSON string
	if err := s.Scan(&d.ID, &d.Path, &d.Title, &d.OutPath, &d.Fingerprint, &d.Draft, &tagsJSON, &d.Metadata, &d.UpdatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(tagsJSON), &d.Tags); err != nil {
		return nil, fmt.Errorf("index: decode tags of %s: %w", d.Path, err)
	}
	return &d, nil
}

// GetDocument returns one document by path.
func (db *DB) GetDocument(path string) (*models.Document, error) {
	row := db.conn.QueryRow(`SELECT `+documentColumns+` FROM documents d WHERE d.path = ?`, path)
	d, err := scanDocument(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("index: document %s: %w", path, apperr.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("index: get document: %w", err)
	}
	return d, nil
}

// ListDocuments returns documents ordered by id together with the total
// number of matches before paging.
func (db *DB) ListDocuments(f Filter) ([]models.Document, int, error) {
	var where []string
	var args []any
	from := `documents d`
	if f.Kind != "" {
		from = `documents d JOIN group_members g ON g.path = d.path`
		where = append(where, `g.kind = ?`)
		args = append(args, f.Kind)
		if f.Name != "" {
			where = append(where, `g.name = ?`)
			args = append(args, f.Name)
		}
	}
	cond := ""
	if len(where) > 0 {
		cond = " WHERE " + strings.Join(where, " AND ")
	}

	var total int
	if err := db.conn.QueryRow(`SELECT count(DISTINCT d.path) FROM `+from+cond, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("index: count documents: %w", err)
	}

	limit := f.Limit
	if limit <= 0 {
		limit = -1
	}
	query := `SELECT DISTINCT ` + documentColumns + ` FROM ` + from + cond + ` ORDER BY d.doc_id LIMIT ? OFFSET ?`
	rows, err := db.conn.Query(query, append(args, limit, max(f.Offset, 0))...)
	if err != nil {
		return nil, 0, fmt.Errorf("index: list documents: %w", err)
	}
	defer rows.Close()

	out := []models.Document{}
	for rows.Next() {
		d, err := scanDocument(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, *d)
	}
	return out, total, rows.Err()
}

// Groups returns every group of the given kind with its member count,
// ordered by name.
func (db *DB) Groups(kind string) ([]models.Group, error) {
	rows, err := db.conn.Query(`
		SELECT name, count(*) FROM group_members
		WHERE kind = ?
		GROUP BY name
		ORDER BY name
	`, kind)
	if err != nil {
		return nil, fmt.Errorf("index: groups: %w", err)
	}
	defer rows.Close()

	out := []models.Group{}
	for rows.Next() {
		g := models.Group{Kind: kind}
		if err := rows.Scan(&g.Name, &g.Count); err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	return out, rows.Err()
}
