package frontmatter

// Kind identifies the construct a Node was parsed from.
type Kind uint8

const (
	KindObject Kind = iota
	KindList
	KindKey
	KindString
	KindBool
	KindNumber
	KindNull
)

func (k Kind) String() string {
	switch k {
	case KindObject:
		return "object"
	case KindList:
		return "list"
	case KindKey:
		return "key"
	case KindString:
		return "string"
	case KindBool:
		return "bool"
	case KindNumber:
		return "number"
	case KindNull:
		return "null"
	default:
		return "unknown"
	}
}

// Composite reports whether nodes of this kind own a subtree.
func (k Kind) Composite() bool {
	return k == KindObject || k == KindList || k == KindKey
}

// Node is one entry of the flat, pre-order node sequence.
//
// Parent is the 1-based position of the enclosing node; 0 is the document
// root. Start and End index the trimmed source. For objects and lists the
// range marks the opening only and is usually empty; use SubtreeEnd to find
// where their descendants stop.
type Node struct {
	Kind   Kind
	Parent int
	Start  int
	End    int
}

// Text returns the node's slice of src.
func (n Node) Text(src string) string { return src[n.Start:n.End] }
