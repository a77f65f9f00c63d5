package build

import (
	"maps"
	"path"
	"slices"
	"strings"

	"github.com/starford/kiln/internal/codegen"
	"github.com/starford/kiln/internal/metrics"
)

// DocResult is what a render job reports back for one document.
type DocResult struct {
	ID          int
	Path        string
	Title       string
	Tags        []string
	Draft       bool
	Fingerprint string
	// Metadata is the JSON projection of the metadata block.
	Metadata string
	// Outcome is one of the metrics.Document* values.
	Outcome string
	Err     error
}

// Published reports whether the document has a page module in the output.
func (r DocResult) Published() bool {
	return r.Err == nil && (r.Outcome == metrics.DocumentRendered || r.Outcome == metrics.DocumentSkipped ||
		r.Outcome == metrics.DocumentParseError)
}

// Aggregator collects render results. It is owned by a single goroutine.
type Aggregator struct {
	docs        []DocResult
	collections map[string][]int
	taxonomies  map[string][]int
}

// NewAggregator returns an aggregator sized for n documents.
func NewAggregator(n int) *Aggregator {
	return &Aggregator{
		docs:        make([]DocResult, 0, n),
		collections: make(map[string][]int),
		taxonomies:  make(map[string][]int),
	}
}

// Add records one result. Only published documents join collections and
// taxonomies.
func (a *Aggregator) Add(r DocResult) {
	a.docs = append(a.docs, r)
	if !r.Published() {
		return
	}
	for _, tag := range r.Tags {
		a.collections[tag] = append(a.collections[tag], r.ID)
	}
	for _, seg := range taxonomySegments(r.Path) {
		a.taxonomies[seg] = append(a.taxonomies[seg], r.ID)
	}
}

// taxonomySegments returns the directory segments of a relative path.
func taxonomySegments(relPath string) []string {
	dir := path.Dir(relPath)
	if dir == "." {
		return nil
	}
	return strings.Split(dir, "/")
}

// Freeze sorts everything into id and name order and returns the read-only
// snapshot aggregate jobs work from. The aggregator must not be used after.
func (a *Aggregator) Freeze() *Snapshot {
	slices.SortFunc(a.docs, func(x, y DocResult) int { return x.ID - y.ID })
	s := &Snapshot{
		Docs:        a.docs,
		Collections: groups(a.collections),
		Taxonomies:  groups(a.taxonomies),
	}
	for _, d := range a.docs {
		if d.Published() {
			s.Published = append(s.Published, d.ID)
		}
	}
	if s.Published == nil {
		s.Published = []int{}
	}
	return s
}

func groups(m map[string][]int) []codegen.Group {
	out := make([]codegen.Group, 0, len(m))
	for _, name := range slices.Sorted(maps.Keys(m)) {
		ids := slices.Compact(slices.Sorted(slices.Values(m[name])))
		out = append(out, codegen.Group{Name: name, IDs: ids})
	}
	return out
}

// Snapshot is the frozen aggregate of one build.
type Snapshot struct {
	// Docs holds every scanned document in id order.
	Docs []DocResult
	// Published lists the ids that have a page module, ascending.
	Published   []int
	Collections []codegen.Group
	Taxonomies  []codegen.Group
}
