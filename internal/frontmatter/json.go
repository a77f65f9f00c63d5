package frontmatter

import (
	"io"
	"strings"
)

// WriteJSON renders the whole document as an object: `{ "k": v, ... }`.
//
// The output is JSON except for null values, which render as the bare token
// undefined, and strings, which are not re-escaped.
func (y *YAML) WriteJSON(w io.Writer) error {
	jw := &jsonWriter{w: w, y: y}
	jw.str("{ ")
	jw.siblings(0, len(y.nodes))
	jw.str(" }")
	return jw.err
}

// WriteMembers renders the top-level members without the surrounding braces,
// for embedding in an enclosing object literal.
func (y *YAML) WriteMembers(w io.Writer) error {
	jw := &jsonWriter{w: w, y: y}
	jw.siblings(0, len(y.nodes))
	return jw.err
}

// JSON returns the WriteJSON rendering as a string.
func (y *YAML) JSON() string {
	var sb strings.Builder
	_ = y.WriteJSON(&sb)
	return sb.String()
}

type jsonWriter struct {
	w   io.Writer
	y   *YAML
	err error
}

func (j *jsonWriter) str(s string) {
	if j.err != nil {
		return
	}
	_, j.err = io.WriteString(j.w, s)
}

// siblings renders the nodes in [from, to) that are direct children of the
// same parent, each followed by its own subtree, separated by commas.
func (j *jsonWriter) siblings(from, to int) {
	for i := from; i < to; {
		if i > from {
			j.str(", ")
		}
		end := j.y.ends[i]
		j.node(i, end)
		i = end
	}
}

func (j *jsonWriter) node(i, end int) {
	n := j.y.nodes[i]
	text := n.Text(j.y.src)
	switch n.Kind {
	case KindObject:
		j.str("{ ")
		j.siblings(i+1, end)
		j.str(" }")
	case KindList:
		j.str("[ ")
		j.siblings(i+1, end)
		j.str(" ]")
	case KindKey:
		j.str(`"`)
		j.str(unquote(strings.TrimSpace(text)))
		j.str(`": `)
		j.siblings(i+1, end)
	case KindString:
		j.str(`"`)
		j.str(unquote(text))
		j.str(`"`)
	case KindBool, KindNumber:
		j.str(text)
	case KindNull:
		j.str("undefined")
	}
}
