package chain

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"

	"github.com/diister/mongodbee/internal/migration"
	"github.com/diister/mongodbee/internal/schema"
)

// Checksum computes a migration's content hash: a hash over
// the migration's canonical schema tree plus its canonical operation list.
// Identities (map iteration order) are normalized by sorting every map's
// keys before encoding, so checksums never depend on registration order.
func Checksum(def migration.Definition) string {
	var b strings.Builder
	b.WriteString(encodeSchemaDocument(def.Schemas))
	b.WriteString("|ops:")
	b.WriteString(migration.CanonicalString(def.Ops))

	sum := sha256.Sum256([]byte(b.String()))
	return hex.EncodeToString(sum[:])
}

func encodeSchemaDocument(doc migration.SchemaDocument) string {
	var b strings.Builder

	b.WriteString("collections:")
	for _, name := range sortedKeys(doc.Collections) {
		fmt.Fprintf(&b, "%s=%s;", name, schema.CanonicalString(doc.Collections[name]))
	}

	b.WriteString("|multiCollections:")
	for _, name := range sortedKeysOfNested(doc.MultiCollections) {
		types := doc.MultiCollections[name]
		for _, tag := range sortedKeys(types) {
			fmt.Fprintf(&b, "%s/%s=%s;", name, tag, schema.CanonicalString(types[tag]))
		}
	}

	b.WriteString("|multiModels:")
	for _, tag := range sortedKeysOfNested(doc.MultiModels) {
		types := doc.MultiModels[tag]
		for _, typeTag := range sortedKeys(types) {
			fmt.Fprintf(&b, "%s/%s=%s;", tag, typeTag, schema.CanonicalString(types[typeTag]))
		}
	}

	return b.String()
}

func sortedKeys(m map[string]*schema.Node) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func sortedKeysOfNested(m map[string]map[string]*schema.Node) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
