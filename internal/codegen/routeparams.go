package codegen

import (
	"bufio"
	"fmt"
	"io"
	"path"
	"strings"
)

// Param is one dynamic route segment.
type Param struct {
	Name string
	// Rest is set for catch-all segments written as [...name].
	Rest bool
}

// RouteParams returns the dynamic segments of a route file path in path
// order. Only files named index.* declare routes; other files yield nil.
func RouteParams(relPath string) []Param {
	base := path.Base(relPath)
	if strings.TrimSuffix(base, path.Ext(base)) != "index" {
		return nil
	}
	var params []Param
	for _, seg := range strings.Split(path.Dir(relPath), "/") {
		name, ok := strings.CutPrefix(seg, "[")
		if !ok {
			continue
		}
		if name, ok = strings.CutSuffix(name, "]"); !ok {
			continue
		}
		rest := false
		if n, ok := strings.CutPrefix(name, "..."); ok {
			name, rest = n, true
		}
		params = append(params, Param{Name: name, Rest: rest})
	}
	return params
}

// RouteParamsPath returns where the parameter interface of a route file is
// written: next to it.
func RouteParamsPath(relPath string) string {
	return path.Join(path.Dir(relPath), RouteParamsFile)
}

// WriteRouteParams writes the RouteParams interface for params.
func WriteRouteParams(w io.Writer, params []Param) error {
	bw := bufio.NewWriter(w)
	bw.WriteString("export interface RouteParams extends Record<string, string | undefined> {\n")
	for _, p := range params {
		opt := ""
		if p.Rest {
			opt = "?"
		}
		fmt.Fprintf(bw, "  %q%s: string\n", p.Name, opt)
	}
	bw.WriteString("}\n")
	return bw.Flush()
}
