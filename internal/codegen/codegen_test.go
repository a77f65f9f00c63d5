package codegen

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestIdentifiers(t *testing.T) {
	tests := []struct {
		name, value, typ string
		ok               bool
	}{
		{"qwik", "qwik", "Qwik", true},
		{"qwik city", "qwik_city", "QwikCity", true},
		{"qwik-city", "qwik_city", "QwikCity", true},
		{"under_score", "under_score", "UnderScore", true},
		{"MixedCase", "mixedcase", "MixedCase", true},
		{"2024", "_2024", "_2024", true},
		{"2024 recap", "_2024_recap", "_2024Recap", true},
		{"--", "", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			value, typ, ok := Identifiers(tt.name)
			require.Equal(t, tt.ok, ok)
			require.Equal(t, tt.value, value)
			require.Equal(t, tt.typ, typ)
		})
	}
}

func TestWriteContent(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteContent(&buf, []Entry{
		{ID: 0, ImportPath: "./files/a.md"},
		{ID: 2, ImportPath: "./files/posts/b.md"},
	}))
	require.Equal(t, "// Generated by kiln. Do not edit.\n"+
		"export { default as q0 } from \"./files/a.md\";\n"+
		"export { default as q2 } from \"./files/posts/b.md\";\n", buf.String())
}

func TestWriteGroupsCollections(t *testing.T) {
	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, nil))

	var buf bytes.Buffer
	err := WriteGroups(&buf, []Group{
		{Name: "all", IDs: []int{1}},
		{Name: "fun", IDs: []int{4}},
		{Name: "qwik city", IDs: []int{5, 6}},
		{Name: "qwik-city", IDs: []int{7}},
	}, GroupsOptions{All: []int{0, 4, 5, 6, 7}, Logger: logger})
	require.NoError(t, err)

	want := `import type { Merge } from "./generated-helpers";
import * as C from "./content";

export const fun: Fun[] = [ C.q4 ];
export const qwik_city: QwikCity[] = [ C.q5, C.q6 ];
export const all: All[] = [ C.q0, C.q4, C.q5, C.q6, C.q7 ];

export type Fun = Merge<typeof C.q4>;
export type QwikCity = Merge<typeof C.q5 | typeof C.q6>;
export type All = Merge<typeof C.q0 | typeof C.q4 | typeof C.q5 | typeof C.q6 | typeof C.q7>;
`
	require.Equal(t, want, buf.String())
	require.Contains(t, logs.String(), `group=all`)
	require.Contains(t, logs.String(), `group=qwik-city`)
}

func TestWriteGroupsTaxonomiesWithoutAll(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteGroups(&buf, []Group{{Name: "all", IDs: []int{3}}}, GroupsOptions{}))
	require.Contains(t, buf.String(), "export const all: All[] = [ C.q3 ];\n")
}

func TestWriteGroupsEmptyAll(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteGroups(&buf, nil, GroupsOptions{All: []int{}}))
	require.Contains(t, buf.String(), "export const all: All[] = [];\n")
	require.Contains(t, buf.String(), "export type All = Merge<never>;\n")
}

func TestWriteHelpers(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteHelpers(&buf))
	require.Contains(t, buf.String(), "export type Merge<T>")
}

func TestRouteParams(t *testing.T) {
	tests := []struct {
		path string
		want []Param
	}{
		{"post/[id]/index.tsx", []Param{{Name: "id"}}},
		{"[lang]/docs/[...rest]/index.mdx", []Param{{Name: "lang"}, {Name: "rest", Rest: true}}},
		{"posts/index.tsx", nil},
		{"post/[id]/layout.tsx", nil},
		{"index.tsx", nil},
		{"[broken/index.tsx", nil},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			require.Equal(t, tt.want, RouteParams(tt.path))
		})
	}
	require.Equal(t, "post/[id]/generated.ts", RouteParamsPath("post/[id]/index.tsx"))
}

func TestWriteRouteParams(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteRouteParams(&buf, []Param{{Name: "lang"}, {Name: "rest", Rest: true}}))
	require.Equal(t, "export interface RouteParams extends Record<string, string | undefined> {\n"+
		"  \"lang\": string\n"+
		"  \"rest\"?: string\n"+
		"}\n", buf.String())
}
