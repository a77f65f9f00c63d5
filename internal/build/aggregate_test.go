package build

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/starford/kiln/internal/codegen"
	"github.com/starford/kiln/internal/metrics"
)

func TestAggregatorGroupsInIDOrder(t *testing.T) {
	a := NewAggregator(4)
	// Results arrive in completion order, not id order.
	a.Add(DocResult{ID: 3, Path: "blog/2024/c.md", Tags: []string{"go"}, Outcome: metrics.DocumentRendered})
	a.Add(DocResult{ID: 0, Path: "a.md", Tags: []string{"go", "misc"}, Outcome: metrics.DocumentSkipped})
	a.Add(DocResult{ID: 2, Path: "blog/b.md", Tags: []string{"go"}, Draft: true, Outcome: metrics.DocumentDraft})
	a.Add(DocResult{ID: 1, Path: "blog/x.md", Tags: []string{"misc"}, Outcome: metrics.DocumentRendered, Err: errors.New("disk full")})

	snap := a.Freeze()
	require.Equal(t, []int{0, 3}, snap.Published)
	require.Equal(t, []codegen.Group{
		{Name: "go", IDs: []int{0, 3}},
		{Name: "misc", IDs: []int{0}},
	}, snap.Collections)
	require.Equal(t, []codegen.Group{
		{Name: "2024", IDs: []int{3}},
		{Name: "blog", IDs: []int{3}},
	}, snap.Taxonomies)
	for i, d := range snap.Docs {
		require.Equal(t, i, d.ID)
	}
}

func TestAggregatorDeduplicatesRepeatedTags(t *testing.T) {
	a := NewAggregator(1)
	a.Add(DocResult{ID: 0, Path: "a/a/x.md", Tags: []string{"t", "t"}, Outcome: metrics.DocumentRendered})
	snap := a.Freeze()
	require.Equal(t, []int{0}, snap.Collections[0].IDs)
	require.Equal(t, []int{0}, snap.Taxonomies[0].IDs)
}

func TestAggregatorEmpty(t *testing.T) {
	snap := NewAggregator(0).Freeze()
	require.NotNil(t, snap.Published)
	require.Empty(t, snap.Published)
	require.Empty(t, snap.Collections)
}

func TestParseErrorDocumentsArePublished(t *testing.T) {
	r := DocResult{Outcome: metrics.DocumentParseError}
	require.True(t, r.Published())
	r.Err = errors.New("x")
	require.False(t, r.Published())
}
