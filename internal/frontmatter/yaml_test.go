package frontmatter

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"math/rand/v2"
	"reflect"
	"strings"
	"testing"
)

func captureLogger() (*slog.Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	return slog.New(slog.NewTextHandler(&buf, nil)), &buf
}

func mustParse(t *testing.T, src string, opts ...Option) *YAML {
	t.Helper()
	y, err := Parse(src, opts...)
	if err != nil {
		t.Fatalf("Parse(%q): %v", src, err)
	}
	return y
}

// assertJSONEqual compares two JSON documents ignoring formatting.
func assertJSONEqual(t *testing.T, want, got string) {
	t.Helper()
	var w, g any
	if err := json.Unmarshal([]byte(want), &w); err != nil {
		t.Fatalf("bad expected JSON %q: %v", want, err)
	}
	if err := json.Unmarshal([]byte(got), &g); err != nil {
		t.Fatalf("output is not JSON %q: %v", got, err)
	}
	if !reflect.DeepEqual(w, g) {
		t.Errorf("JSON mismatch\n got: %s\nwant: %s", got, want)
	}
}

func TestTags(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{"inline", `tags: ["fun", "qwik", "stuff"]`, []string{"fun", "qwik", "stuff"}},
		{"block", "tags:\n  - one\n  - 'two'\ntitle: x", []string{"one", "two"}},
		{
			"filters invalid entries",
			`tags: ["ok", "1bad", "has!bang", 42, true, "with space", under_score, "dash-ed"]`,
			[]string{"ok", "with space", "under_score", "dash-ed"},
		},
		{"absent", "title: x", []string{}},
		{"empty list", "tags: []", []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			y := mustParse(t, tt.input)
			if got := y.TagList(); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("TagList() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestTagsStopsEarly(t *testing.T) {
	y := mustParse(t, `tags: [a, b, c]`)

	var got []string
	for tag := range y.Tags() {
		got = append(got, tag)
		if len(got) == 2 {
			break
		}
	}
	if !reflect.DeepEqual(got, []string{"a", "b"}) {
		t.Errorf("tags = %q", got)
	}
}

func TestTagsDoesNotLeakPastList(t *testing.T) {
	y := mustParse(t, "tags:\n  - a\ntitle: b\nother: [c]")
	if got := y.TagList(); !reflect.DeepEqual(got, []string{"a"}) {
		t.Errorf("tags = %q", got)
	}
}

func TestTagsWrongKindWarns(t *testing.T) {
	logger, buf := captureLogger()
	y := mustParse(t, "tags: hello", WithLogger(logger))
	if got := y.TagList(); len(got) != 0 {
		t.Errorf("tags = %q, want none", got)
	}
	if !strings.Contains(buf.String(), "tags is not a list") {
		t.Errorf("missing warning, log: %s", buf.String())
	}
}

func TestIsDraft(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  bool
		warn  bool
	}{
		{"true", "draft: true", true, false},
		{"false", "draft: false", false, false},
		{"absent", "title: x", false, false},
		{"YES is not true", "draft: YES", false, false},
		{"null", "draft: NULL", false, true},
		{"string", `draft: "true"`, false, true},
		{"empty", "draft:\ntitle: x", false, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, buf := captureLogger()
			y := mustParse(t, tt.input, WithLogger(logger))
			if got := y.IsDraft(); got != tt.want {
				t.Errorf("IsDraft() = %v, want %v", got, tt.want)
			}
			if warned := strings.Contains(buf.String(), "draft is not a boolean"); warned != tt.warn {
				t.Errorf("warned = %v, want %v", warned, tt.warn)
			}
		})
	}
}

func TestScalar(t *testing.T) {
	y := mustParse(t, "title: \"Some title\"\ncount: 3\nnav: {a: 1}\nnone: NULL")
	for key, want := range map[string]string{
		"title":   "Some title",
		"count":   "3",
		"nav":     "",
		"none":    "",
		"missing": "",
	} {
		if got := y.Scalar(key); got != want {
			t.Errorf("Scalar(%q) = %q, want %q", key, got, want)
		}
	}

	n, ok := y.Lookup("nav")
	if !ok || n.Kind != KindObject {
		t.Errorf("Lookup(nav) = %v, %v", n, ok)
	}
}

func TestWriteJSONInlineObject(t *testing.T) {
	y := mustParse(t, `key: { a: "A", b: false, c: 42, d: Hello World }`)
	assertJSONEqual(t, `{"key": {"a": "A", "b": false, "c": 42, "d": "Hello World"}}`, y.JSON())
}

func TestWriteJSONDocument(t *testing.T) {
	src := strings.Join([]string{
		"title: Some title",
		`description: "A description"`,
		"draft: true",
		"navigation:",
		"  key: A Key",
		"  weight: 0",
		`tags: ["fun", "qwik", "stuff"]`,
	}, "\n")
	y := mustParse(t, src)

	want := `{ "title": "Some title", "description": "A description", "draft": true, ` +
		`"navigation": { "key": "A Key", "weight": 0 }, "tags": [ "fun", "qwik", "stuff" ] }`
	if got := y.JSON(); got != want {
		t.Errorf("JSON()\n got: %s\nwant: %s", got, want)
	}
}

func TestWriteJSONNestedLists(t *testing.T) {
	y := mustParse(t, "key:\n - A\n - \"B\"\n   - false\n   - 42\nnext: 1")
	assertJSONEqual(t, `{"key": ["A", "B", [false, 42]], "next": 1}`, y.JSON())
}

func TestWriteJSONListOfObjects(t *testing.T) {
	y := mustParse(t, "authors:\n  - name: Ada\n    url: https://ada.dev\n  - name: Linus\ntitle: x")
	assertJSONEqual(t,
		`{"authors": [{"name": "Ada", "url": "https://ada.dev"}, {"name": "Linus"}], "title": "x"}`,
		y.JSON())
	if got := y.Scalar("title"); got != "x" {
		t.Errorf("title = %q", got)
	}
}

func TestWriteJSONNullIsUndefined(t *testing.T) {
	y := mustParse(t, "a: NULL\nb: [NULL]")
	if got, want := y.JSON(), `{ "a": undefined, "b": [ undefined ] }`; got != want {
		t.Errorf("JSON() = %s, want %s", got, want)
	}
}

func TestWriteMembers(t *testing.T) {
	y := mustParse(t, "a: 1\nb: x")

	var buf bytes.Buffer
	if err := y.WriteMembers(&buf); err != nil {
		t.Fatal(err)
	}
	if got, want := buf.String(), `"a": 1, "b": "x"`; got != want {
		t.Errorf("WriteMembers = %s, want %s", got, want)
	}

	empty := mustParse(t, "")
	buf.Reset()
	if err := empty.WriteMembers(&buf); err != nil {
		t.Fatal(err)
	}
	if buf.Len() != 0 {
		t.Errorf("empty WriteMembers = %q", buf.String())
	}
}

type failingWriter struct{ n int }

func (w *failingWriter) Write(p []byte) (int, error) {
	if w.n == 0 {
		return 0, bytes.ErrTooLarge
	}
	w.n--
	return len(p), nil
}

func TestWriteJSONPropagatesWriterError(t *testing.T) {
	y := mustParse(t, "a: [1, 2, 3]")
	if err := y.WriteJSON(&failingWriter{n: 3}); !errors.Is(err, bytes.ErrTooLarge) {
		t.Errorf("err = %v, want ErrTooLarge", err)
	}
}

// randomNodes builds a random pre-order sequence and the subtree end of every
// node as known from construction.
func randomNodes(r *rand.Rand) ([]Node, []int) {
	var nodes []Node
	var ends []int
	var gen func(parent, depth int)
	gen = func(parent, depth int) {
		pos := len(nodes) + 1
		kind := KindString
		if depth < 5 && r.IntN(2) == 0 {
			kind = KindList
		}
		nodes = append(nodes, Node{Kind: kind, Parent: parent})
		ends = append(ends, 0)
		if kind == KindList {
			for range r.IntN(4) {
				gen(pos, depth+1)
			}
		}
		ends[pos-1] = len(nodes)
	}
	for range r.IntN(5) + 1 {
		gen(0, 0)
	}
	return nodes, ends
}

func TestSubtreeBoundaryProperty(t *testing.T) {
	r := rand.New(rand.NewPCG(7, 11))
	for iter := 0; iter < 500; iter++ {
		nodes, want := randomNodes(r)
		indexed := indexSubtrees(nodes)
		for pos := 1; pos <= len(nodes); pos++ {
			if got := subtreeEnd(nodes, pos); got != want[pos-1] {
				t.Fatalf("iteration %d: subtreeEnd(%d) = %d, want %d", iter, pos, got, want[pos-1])
			}
			if indexed[pos-1] != want[pos-1] {
				t.Fatalf("iteration %d: indexSubtrees[%d] = %d, want %d", iter, pos-1, indexed[pos-1], want[pos-1])
			}
		}
	}
}

func TestParsedSubtreesMatchScan(t *testing.T) {
	y := mustParse(t, "a:\n  b:\n    - 1\n    - [2, {c: 3}]\n    - k: v\n      m: [n]\n  d: x\ne: {f: [g]}")
	for pos := 1; pos <= y.Len(); pos++ {
		if got, want := y.SubtreeEnd(pos), subtreeEnd(y.Nodes(), pos); got != want {
			t.Errorf("SubtreeEnd(%d) = %d, scan = %d", pos, got, want)
		}
	}
}
