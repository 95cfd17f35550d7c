package plugins

import (
	"encoding/json"
	"sort"
	"sync"
)

// ExportMap records the scoped class-name tokens generated for each
// stylesheet, keyed by the stylesheet's absolute path. esbuild calls load
// hooks from several goroutines so access is guarded.
type ExportMap struct {
	mu     sync.RWMutex
	tokens map[string]map[string]string
}

func NewExportMap() *ExportMap {
	return &ExportMap{tokens: make(map[string]map[string]string)}
}

// Record stores the token mapping for id, replacing any earlier mapping.
func (m *ExportMap) Record(id string, tokens map[string]string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.tokens == nil {
		m.tokens = make(map[string]map[string]string)
	}
	m.tokens[id] = tokens
}

// Get returns the mapping recorded for id.
func (m *ExportMap) Get(id string) (map[string]string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	tokens, ok := m.tokens[id]
	return tokens, ok
}

// IDs returns the recorded identifiers in sorted order.
func (m *ExportMap) IDs() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ids := make([]string, 0, len(m.tokens))
	for id := range m.tokens {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func (m *ExportMap) MarshalJSON() ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return json.Marshal(m.tokens)
}
