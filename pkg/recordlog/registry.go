package recordlog

import (
	"sync"

	"github.com/flatrecord/flatrecord/pkg/record"
)

// schemaRegistry is a stream-local bidirectional map between a schema's
// on-disk id and its interned [*record.Schema]. Unlike [record.Intern]'s
// process-wide table (keyed by canonical JSON, shared by every schema
// ever built), a schemaRegistry only knows the schemas a particular log
// file has actually established - which is what decides whether a frame
// needs to carry a schema blob.
type schemaRegistry struct {
	mu   sync.RWMutex
	byID map[record.Id]*record.Schema
}

func newSchemaRegistry() *schemaRegistry {
	return &schemaRegistry{byID: make(map[record.Id]*record.Schema)}
}

// lookup returns the schema registered under id, if any.
func (r *schemaRegistry) lookup(id record.Id) (*record.Schema, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.byID[id]

	return s, ok
}

// knows reports whether id has already been established in this registry.
func (r *schemaRegistry) knows(id record.Id) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.byID[id]

	return ok
}

// register records schema under its id. Re-registering the same id with
// the (necessarily identical, since id is a content hash) schema is a
// no-op, per §6.4's "consumers must tolerate repetition".
func (r *schemaRegistry) register(schema *record.Schema) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.byID[schema.Id()] = schema
}
