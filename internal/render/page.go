// Package render turns one scanned document into its generated page module.
package render

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/cespare/xxhash/v2"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"

	"github.com/starford/kiln/internal/frontmatter"
)

// FilesDir is the output subdirectory holding one module per document.
const FilesDir = "files"

const idMask = 1<<53 - 1

// ID returns the stable page id of a document path. It fits in a JavaScript
// number without loss.
func ID(relPath string) uint64 {
	return xxhash.Sum64String(relPath) & idMask
}

// OutPath returns the output-relative module path of a document.
func OutPath(relPath string) string {
	return FilesDir + "/" + relPath + ".ts"
}

// ImportPath returns the module specifier content.ts uses for a document.
func ImportPath(relPath string) string {
	return "./" + FilesDir + "/" + relPath
}

// Slug returns the file name of relPath without its extension.
func Slug(relPath string) string {
	base := path.Base(relPath)
	return strings.TrimSuffix(base, path.Ext(base))
}

// Directory returns the parent directory of relPath, or "" at the root.
func Directory(relPath string) string {
	dir := path.Dir(relPath)
	if dir == "." {
		return ""
	}
	return dir
}

// Renderer converts markdown bodies to HTML. It is safe for concurrent use.
type Renderer struct {
	md goldmark.Markdown
}

// New returns a Renderer with GitHub flavoured markdown enabled. Raw HTML in
// documents is passed through.
func New() *Renderer {
	return &Renderer{
		md: goldmark.New(
			goldmark.WithExtensions(extension.GFM),
			goldmark.WithRendererOptions(html.WithUnsafe()),
		),
	}
}

// HTML renders body.
func (r *Renderer) HTML(body string) (string, error) {
	var buf bytes.Buffer
	if err := r.md.Convert([]byte(body), &buf); err != nil {
		return "", fmt.Errorf("render: markdown: %w", err)
	}
	return buf.String(), nil
}

// Page writes the module of one document:
//
//	export default { _id: 1, _slug: "a", _directory: "posts", _outpath: "files/posts/a.md.ts", _html: "...", "title": "A" };
//
// meta may be nil when the metadata block failed to parse; the page is then
// written without metadata members.
func (r *Renderer) Page(w io.Writer, relPath, body string, meta *frontmatter.YAML) error {
	html, err := r.HTML(body)
	if err != nil {
		return err
	}

	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "export default { _id: %d, _slug: %s, _directory: %s, _outpath: %s, _html: %s",
		ID(relPath), quote(Slug(relPath)), quote(Directory(relPath)), quote(OutPath(relPath)), quote(html))
	if meta != nil && !meta.Empty() {
		bw.WriteString(", ")
		if err := meta.WriteMembers(bw); err != nil {
			return fmt.Errorf("render: %s: metadata: %w", relPath, err)
		}
	}
	bw.WriteString(" };\n")
	return bw.Flush()
}

// quote returns s as a double-quoted JavaScript string literal.
func quote(s string) string {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(s)
	return strings.TrimSuffix(buf.String(), "\n")
}
