package schema

import (
	"fmt"
	"strings"
)

// CanonicalString renders a canonical node as a deterministic, address-free
// string. Two calls on structurally equal (per Equal) canonical nodes
// always produce the same string; this is what the ledger's checksum
// (internal/chain) hashes over, so it must never depend on pointer
// identity or map iteration order.
func CanonicalString(n *Node) string {
	var b strings.Builder
	encodeNode(&b, n)
	return b.String()
}

func encodeNode(b *strings.Builder, n *Node) {
	if n == nil {
		b.WriteString("nil")
		return
	}
	fmt.Fprintf(b, "%s(u=%v,n=%v)", n.Kind, n.AllowUndefined, n.AllowNull)
	if n.Index != nil {
		fmt.Fprintf(b, "[idx:%+v]", *n.Index)
	}
	if len(n.Refinements) > 0 {
		b.WriteString("[ref:")
		for _, r := range n.Refinements {
			fmt.Fprintf(b, "%s=%s/%s;", r.Kind, toComparableString(r.Value), toComparableString(r.Payload))
		}
		b.WriteString("]")
	}

	switch n.Kind {
	case KindLiteral:
		fmt.Fprintf(b, "{%s}", toComparableString(n.Literal))
	case KindReference:
		fmt.Fprintf(b, "{%s}", n.ReferenceTag)
	case KindObject:
		b.WriteString("{")
		for _, f := range n.Fields {
			fmt.Fprintf(b, "%s?%v:", f.Name, f.Optional)
			encodeNode(b, f.Schema)
			b.WriteString(",")
		}
		b.WriteString("}")
	case KindArray:
		b.WriteString("[")
		if n.MinItems != nil {
			fmt.Fprintf(b, "min=%d,", *n.MinItems)
		}
		if n.MaxItems != nil {
			fmt.Fprintf(b, "max=%d,", *n.MaxItems)
		}
		encodeNode(b, n.Element)
		b.WriteString("]")
	case KindRecord:
		b.WriteString("<")
		encodeNode(b, n.KeySchema)
		b.WriteString(":")
		encodeNode(b, n.ValueSchema)
		b.WriteString(">")
	case KindUnion, KindIntersection:
		b.WriteString("(")
		for _, alt := range n.Alternatives {
			encodeNode(b, alt)
			b.WriteString("|")
		}
		b.WriteString(")")
	}
}
