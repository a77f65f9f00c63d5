package frontmatter

import (
	"iter"
	"log/slog"
	"strings"
)

// YAML is an immutable parse result: the node sequence, the trimmed source it
// indexes and the cached positions of the top-level `tags` and `draft` keys.
type YAML struct {
	src   string
	nodes []Node

	// ends[i] is the index one past the last descendant of nodes[i].
	ends []int

	tags  int
	draft int

	logger *slog.Logger
}

// Source returns the trimmed metadata text the nodes index into.
func (y *YAML) Source() string { return y.src }

// Nodes returns the node sequence in pre-order. Callers must not modify it.
func (y *YAML) Nodes() []Node { return y.nodes }

// Len returns the number of nodes.
func (y *YAML) Len() int { return len(y.nodes) }

// Empty reports whether the metadata block had no members.
func (y *YAML) Empty() bool { return len(y.nodes) == 0 }

// SubtreeEnd returns the index one past the last descendant of the node at
// 1-based position pos, so that Nodes()[pos:SubtreeEnd(pos)] are its
// descendants. Scalars have no descendants.
func (y *YAML) SubtreeEnd(pos int) int {
	if pos <= 0 || pos > len(y.nodes) {
		return len(y.nodes)
	}
	return y.ends[pos-1]
}

// Lookup returns the value node of a top-level key.
func (y *YAML) Lookup(key string) (Node, bool) {
	for i, n := range y.nodes {
		if n.Parent != 0 || n.Kind != KindKey {
			continue
		}
		if unquote(n.Text(y.src)) == key && i+1 < len(y.nodes) {
			return y.nodes[i+1], true
		}
	}
	return Node{}, false
}

// Scalar returns the quote-stripped text of a top-level scalar value.
func (y *YAML) Scalar(key string) string {
	n, ok := y.Lookup(key)
	if !ok || n.Kind.Composite() || n.Kind == KindNull {
		return ""
	}
	return unquote(n.Text(y.src))
}

// value returns the node following the key at 1-based position key, and the
// value's own position.
func (y *YAML) value(key int) (Node, int, bool) {
	if key == 0 || key >= len(y.nodes) {
		return Node{}, 0, false
	}
	return y.nodes[key], key + 1, true
}

// Tags yields the valid entries of the top-level `tags` list in source order.
// A `tags` value that is not a list logs a warning and yields nothing.
func (y *YAML) Tags() iter.Seq[string] {
	n, pos, ok := y.value(y.tags)
	if ok && n.Kind != KindList {
		y.logger.Warn("frontmatter: tags is not a list", slog.String("kind", n.Kind.String()))
		ok = false
	}
	return func(yield func(string) bool) {
		if !ok {
			return
		}
		for _, item := range y.nodes[pos:y.ends[pos-1]] {
			if item.Kind != KindString {
				continue
			}
			tag := unquote(strings.TrimSpace(item.Text(y.src)))
			if !validTag(tag) {
				continue
			}
			if !yield(tag) {
				return
			}
		}
	}
}

// TagList collects Tags into a slice.
func (y *YAML) TagList() []string {
	out := []string{}
	for tag := range y.Tags() {
		out = append(out, tag)
	}
	return out
}

// IsDraft reports whether the top-level `draft` key is the literal true.
// A non-boolean value logs a warning and counts as not a draft.
func (y *YAML) IsDraft() bool {
	n, _, ok := y.value(y.draft)
	if !ok {
		return false
	}
	if n.Kind != KindBool {
		y.logger.Warn("frontmatter: draft is not a boolean", slog.String("kind", n.Kind.String()))
		return false
	}
	return n.Text(y.src) == "true"
}

func validTag(s string) bool {
	if s == "" || !isLetter(s[0]) {
		return false
	}
	for i := 1; i < len(s); i++ {
		c := s[i]
		if !isLetter(c) && !isDigit(c) && c != '-' && c != ' ' && c != '_' {
			return false
		}
	}
	return true
}

func isLetter(c byte) bool { return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') }

func unquote(s string) string { return strings.Trim(s, `"'`) }
