package executor

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/diister/mongodbee/internal/driver"
)

// Simulator is an in-memory driver.Database used by `check`. It satisfies
// exactly the same capability interface the live MongoAdapter does, so
// Executor runs unmodified against it — `check` is simply a plan build
// followed by executor.New(simulator, ...).Apply() instead of the real
// driver.
type Simulator struct {
	mu          sync.Mutex
	collections map[string]*simCollection
}

type simCollection struct {
	order   []interface{}
	docs    map[interface{}]driver.Document
	indexes map[string]driver.IndexModel
}

// NewSimulator returns an empty in-memory database.
func NewSimulator() *Simulator {
	return &Simulator{collections: map[string]*simCollection{}}
}

func (s *Simulator) coll(name string) *simCollection {
	c, ok := s.collections[name]
	if !ok {
		c = &simCollection{docs: map[interface{}]driver.Document{}, indexes: map[string]driver.IndexModel{}}
		s.collections[name] = c
	}
	return c
}

func (s *Simulator) ListCollections(ctx context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	names := make([]string, 0, len(s.collections))
	for n := range s.collections {
		names = append(names, n)
	}
	sort.Strings(names)
	return names, nil
}

func (s *Simulator) CreateCollection(ctx context.Context, name string, validator driver.Document, indexes []driver.IndexModel) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.collections[name]; exists {
		return fmt.Errorf("simulator: collection %q already exists", name)
	}
	c := s.coll(name)
	for _, idx := range indexes {
		c.indexes[idx.Name] = idx
	}
	return nil
}

func (s *Simulator) DropCollection(ctx context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.collections, name)
	return nil
}

func (s *Simulator) ListIndexes(ctx context.Context, name string) ([]driver.IndexModel, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := s.coll(name)
	out := make([]driver.IndexModel, 0, len(c.indexes))
	for _, idx := range c.indexes {
		out = append(out, idx)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *Simulator) CreateIndex(ctx context.Context, name string, index driver.IndexModel) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.coll(name).indexes[index.Name] = index
	return nil
}

func (s *Simulator) DropIndex(ctx context.Context, name, indexName string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.coll(name).indexes, indexName)
	return nil
}

func (s *Simulator) FindBatch(ctx context.Context, name string, sortKey string, afterID interface{}, limit int) ([]driver.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := s.coll(name)

	ids := append([]interface{}{}, c.order...)
	sort.Slice(ids, func(i, j int) bool { return fmt.Sprint(ids[i]) < fmt.Sprint(ids[j]) })

	started := afterID == nil
	var out []driver.Document
	for _, id := range ids {
		if !started {
			if fmt.Sprint(id) == fmt.Sprint(afterID) {
				started = true
			}
			continue
		}
		out = append(out, cloneDriverDoc(c.docs[id]))
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out, nil
}

func (s *Simulator) InsertMany(ctx context.Context, name string, docs []driver.Document, ordered bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := s.coll(name)
	for _, d := range docs {
		id := d["_id"]
		if _, exists := c.docs[id]; exists {
			return fmt.Errorf("simulator: duplicate _id %v in %q", id, name)
		}
		c.docs[id] = cloneDriverDoc(d)
		c.order = append(c.order, id)
	}
	return nil
}

func (s *Simulator) ReplaceOne(ctx context.Context, name string, id interface{}, doc driver.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := s.coll(name)
	if _, exists := c.docs[id]; !exists {
		return fmt.Errorf("simulator: no document %v in %q to replace", id, name)
	}
	replacement := cloneDriverDoc(doc)
	replacement["_id"] = id
	c.docs[id] = replacement
	return nil
}

func (s *Simulator) DeleteMany(ctx context.Context, name string, ids []interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := s.coll(name)
	toDelete := make(map[interface{}]bool, len(ids))
	for _, id := range ids {
		toDelete[id] = true
		delete(c.docs, id)
	}
	filtered := c.order[:0]
	for _, id := range c.order {
		if !toDelete[id] {
			filtered = append(filtered, id)
		}
	}
	c.order = filtered
	return nil
}

func (s *Simulator) DeleteMatching(ctx context.Context, name string, filter driver.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := s.coll(name)
	var toDelete []interface{}
	for id, d := range c.docs {
		if matchesFilter(d, filter) {
			toDelete = append(toDelete, id)
		}
	}
	for _, id := range toDelete {
		delete(c.docs, id)
	}
	filtered := c.order[:0]
	toDeleteSet := make(map[interface{}]bool, len(toDelete))
	for _, id := range toDelete {
		toDeleteSet[id] = true
	}
	for _, id := range c.order {
		if !toDeleteSet[id] {
			filtered = append(filtered, id)
		}
	}
	c.order = filtered
	return nil
}

func (s *Simulator) FindOne(ctx context.Context, name string, filter driver.Document) (driver.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := s.coll(name)
	if id, ok := filter["_id"]; ok && len(filter) == 1 {
		if d, found := c.docs[id]; found {
			return cloneDriverDoc(d), nil
		}
		return nil, nil
	}
	for _, id := range c.order {
		d := c.docs[id]
		if matchesFilter(d, filter) {
			return cloneDriverDoc(d), nil
		}
	}
	return nil, nil
}

// Watch is a no-op in the simulator: change-stream watching is a
// surrounding-application concern, never exercised by the
// migration core itself.
func (s *Simulator) Watch(ctx context.Context, name string, callback func(driver.Document)) (func(), error) {
	return func() {}, nil
}

// matchesFilter supports the filter shapes the executor itself builds: a
// flat equality map, or a top-level "$or" of such maps.
func matchesFilter(doc driver.Document, filter driver.Document) bool {
	if orClauses, ok := filter["$or"]; ok {
		clauses, ok := orClauses.([]interface{})
		if !ok {
			return false
		}
		for _, clause := range clauses {
			sub, ok := clause.(driver.Document)
			if !ok {
				continue
			}
			if matchesFilter(doc, sub) {
				return true
			}
		}
		return false
	}
	for k, v := range filter {
		if fmt.Sprint(doc[k]) != fmt.Sprint(v) {
			return false
		}
	}
	return true
}

func cloneDriverDoc(d driver.Document) driver.Document {
	out := make(driver.Document, len(d))
	for k, v := range d {
		out[k] = v
	}
	return out
}
