// Package codegen writes the TypeScript modules that index the rendered
// pages: the content barrel, the collection and taxonomy groupings, the shared
// helper types and the per-route parameter interfaces.
package codegen

import (
	"bufio"
	_ "embed"
	"fmt"
	"io"
	"log/slog"
	"strings"
)

// Output file names, relative to the output directory.
const (
	ContentFile     = "content.ts"
	CollectionsFile = "collections.ts"
	TaxonomiesFile  = "taxonomies.ts"
	HelpersFile     = "generated-helpers.ts"
	RouteParamsFile = "generated.ts"
)

//go:embed helpers.ts
var helpers []byte

// Entry is one rendered document in the content barrel.
type Entry struct {
	ID         int
	ImportPath string
}

// Group is a named collection or taxonomy with its member ids in ascending
// order.
type Group struct {
	Name string
	IDs  []int
}

// WriteContent writes the barrel that re-exports every page module as q<id>.
func WriteContent(w io.Writer, entries []Entry) error {
	bw := bufio.NewWriter(w)
	bw.WriteString("// Generated by kiln. Do not edit.\n")
	for _, e := range entries {
		fmt.Fprintf(bw, "export { default as q%d } from %q;\n", e.ID, e.ImportPath)
	}
	return bw.Flush()
}

// WriteHelpers writes the fixed helper types.
func WriteHelpers(w io.Writer) error {
	_, err := w.Write(helpers)
	return err
}

// GroupsOptions configures WriteGroups.
type GroupsOptions struct {
	// All, when non-nil, adds an `all`/`All` export over these ids and
	// reserves the identifier.
	All    []int
	Logger *slog.Logger
}

// WriteGroups writes one value and one type export per group in the given
// order. Groups whose identifiers are empty, reserved or already taken are
// logged and skipped.
func WriteGroups(w io.Writer, groups []Group, opts GroupsOptions) error {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	type named struct {
		value, typ string
		ids        []int
	}
	seen := map[string]string{}
	if opts.All != nil {
		seen["all"] = "all"
	}
	var out []named
	for _, g := range groups {
		value, typ, ok := Identifiers(g.Name)
		if !ok {
			logger.Warn("codegen: group name has no identifier characters, skipping", slog.String("group", g.Name))
			continue
		}
		if prev, taken := seen[value]; taken {
			logger.Warn("codegen: group identifier already taken, skipping",
				slog.String("group", g.Name), slog.String("identifier", value), slog.String("taken_by", prev))
			continue
		}
		seen[value] = g.Name
		out = append(out, named{value, typ, g.IDs})
	}
	if opts.All != nil {
		out = append(out, named{"all", "All", opts.All})
	}

	bw := bufio.NewWriter(w)
	bw.WriteString("import type { Merge } from \"./generated-helpers\";\n")
	bw.WriteString("import * as C from \"./content\";\n\n")
	for _, n := range out {
		fmt.Fprintf(bw, "export const %s: %s[] = %s;\n", n.value, n.typ, refList(n.ids))
	}
	bw.WriteString("\n")
	for _, n := range out {
		fmt.Fprintf(bw, "export type %s = Merge<%s>;\n", n.typ, typeUnion(n.ids))
	}
	return bw.Flush()
}

func refList(ids []int) string {
	if len(ids) == 0 {
		return "[]"
	}
	var b strings.Builder
	b.WriteString("[ ")
	for i, id := range ids {
		if i > 0 {
			b.WriteString(", ")
		}
		fmt.Fprintf(&b, "C.q%d", id)
	}
	b.WriteString(" ]")
	return b.String()
}

func typeUnion(ids []int) string {
	if len(ids) == 0 {
		return "never"
	}
	var b strings.Builder
	for i, id := range ids {
		if i > 0 {
			b.WriteString(" | ")
		}
		fmt.Fprintf(&b, "typeof C.q%d", id)
	}
	return b.String()
}
