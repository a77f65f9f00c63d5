package content

const delimiter = "---"

// Range is a half-open byte range [Start, End).
type Range struct {
	Start int
	End   int
}

// Len returns the number of bytes covered by r.
func (r Range) Len() int { return r.End - r.Start }

func (r Range) shift(off int) Range {
	return Range{Start: r.Start + off, End: r.End + off}
}

// Classify splits raw document text into its metadata block and body.
//
// Input that does not open with "---" is all body and the metadata range is
// empty at offset 0. Otherwise the metadata runs from just after the opening
// delimiter to the next "---"; the body is everything after that closing
// delimiter. An unclosed block runs to the end of input with an empty body.
func Classify(raw []byte) (metadata, body Range) {
	n := len(raw)
	if n < len(delimiter) || string(raw[:len(delimiter)]) != delimiter {
		return Range{}, Range{Start: 0, End: n}
	}

	start := len(delimiter)
	for i := start; i+len(delimiter) <= n; i++ {
		if raw[i] == '-' && raw[i+1] == '-' && raw[i+2] == '-' {
			return Range{Start: start, End: i}, Range{Start: i + len(delimiter), End: n}
		}
	}
	return Range{Start: start, End: n}, Range{Start: n, End: n}
}
