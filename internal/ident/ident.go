// Package ident generates and parses the two identifier formats used
// throughout the migration engine: migration ids of
// the form YYYY-MM-DD-<ULID>-<kebab-name>, and tagged entity ids of the form
// <tag>:<ULID> used by multi-model instance documents and schema references.
package ident

import (
	"crypto/rand"
	"fmt"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

var kebabInvalid = regexp.MustCompile(`[^a-z0-9]+`)

// migrationEntropy is shared by every NewMigrationId call so that ids minted
// within the same millisecond keep increasing; it is not safe for
// concurrent use on its own, hence the mutex.
var (
	migrationEntropyMu sync.Mutex
	migrationEntropy   = ulid.Monotonic(rand.Reader, 0)
)

// NewMigrationId builds a new migration identifier from a human-supplied
// name and the supplied timestamp, monotonically unique even when several
// are minted within the same process tick (ulid.Monotonic).
func NewMigrationId(now time.Time, name string) string {
	migrationEntropyMu.Lock()
	id := ulid.MustNew(ulid.Timestamp(now), migrationEntropy)
	migrationEntropyMu.Unlock()
	return fmt.Sprintf("%s-%s-%s", now.UTC().Format("2006-01-02"), id.String(), Kebab(name))
}

// Kebab lowercases s and collapses every run of non [a-z0-9] characters into
// a single hyphen, trimming leading/trailing hyphens.
func Kebab(s string) string {
	lower := strings.ToLower(s)
	hyphenated := kebabInvalid.ReplaceAllString(lower, "-")
	return strings.Trim(hyphenated, "-")
}

var migrationIdPattern = regexp.MustCompile(`^(\d{4}-\d{2}-\d{2})-([0-7][0-9A-HJKMNP-TV-Z]{25})-(.+)$`)

// ParseMigrationId splits a migration id back into its date, ULID, and
// kebab-name components, returning ok=false if id is not well formed.
func ParseMigrationId(id string) (date, ulidPart, name string, ok bool) {
	m := migrationIdPattern.FindStringSubmatch(id)
	if m == nil {
		return "", "", "", false
	}
	return m[1], m[2], m[3], true
}

// NewTaggedId builds a tagged entity id, e.g. "user:01HQZX...", used by
// multi-model instance documents.
func NewTaggedId(tag string) string {
	entropy := ulid.Monotonic(rand.Reader, 0)
	id := ulid.MustNew(ulid.Timestamp(time.Now()), entropy)
	return fmt.Sprintf("%s:%s", tag, id.String())
}

var taggedIdPattern = regexp.MustCompile(`^([a-zA-Z0-9_-]+):([0-7][0-9A-HJKMNP-TV-Z]{25})$`)

// ParseTaggedId splits a tagged id into its tag and ULID components.
func ParseTaggedId(id string) (tag, ulidPart string, ok bool) {
	m := taggedIdPattern.FindStringSubmatch(id)
	if m == nil {
		return "", "", false
	}
	return m[1], m[2], true
}
