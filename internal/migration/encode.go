package migration

import (
	"fmt"
	"strings"
)

// CanonicalString renders an operation list deterministically for checksum
// purposes. Up/Down transform
// functions have no stable textual form, so only their presence and the
// lossy flag are encoded, and identities are replaced by positional
// index, so reordering authored code without reordering emitted
// operations never changes the checksum.
func CanonicalString(ops []Operation) string {
	var b strings.Builder
	for i, op := range ops {
		fmt.Fprintf(&b, "%d:%s(name=%s,instance=%s,model=%s,type=%s,from=%s,to=%s,lossy=%v,up=%v,down=%v,docs=%v,seedSnapshot=%v);",
			i, op.Kind, op.Name, op.InstanceName, op.ModelTag, op.TypeTag, op.From, op.To,
			op.Lossy, op.Up != nil, op.Down != nil, op.Docs, op.SeedSnapshot)
	}
	return b.String()
}
