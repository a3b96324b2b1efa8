package cmd

import (
	"fmt"
	"net/http"
	"os"
	"sort"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-formbind/pkg/form/browser"
)

// contentStore keeps the edited content in memory, keyed by schema name and
// id. Items are plain maps, which schema fields read and write directly.
type contentStore struct {
	mu    sync.RWMutex
	items map[string]map[string]map[string]any
	// edit serialises requests that may change an item.
	edit sync.Mutex
}

func newContentStore() *contentStore {
	return &contentStore{items: make(map[string]map[string]map[string]any)}
}

// loadContent reads a YAML document of the form
//
//	<schema>:
//	  <id>:
//	    <field>: <value>
//
// A blank path yields an empty store.
func loadContent(path string) (*contentStore, error) {
	store := newContentStore()
	if path == "" {
		return store, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("content: %w", err)
	}
	if err := yaml.Unmarshal(data, &store.items); err != nil {
		return nil, fmt.Errorf("content: parse %s: %w", path, err)
	}
	if store.items == nil {
		store.items = make(map[string]map[string]map[string]any)
	}
	return store, nil
}

// save writes every item back as YAML.
func (s *contentStore) save(path string) error {
	s.mu.RLock()
	data, err := yaml.Marshal(s.items)
	s.mu.RUnlock()
	if err != nil {
		return fmt.Errorf("content: encode: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("content: %w", err)
	}
	return nil
}

func (s *contentStore) get(schemaName, id string) (map[string]any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	item, ok := s.items[schemaName][id]
	return item, ok
}

// getOrCreate returns the item, adding an empty one when it is missing.
func (s *contentStore) getOrCreate(schemaName, id string) map[string]any {
	s.mu.Lock()
	defer s.mu.Unlock()
	byID, ok := s.items[schemaName]
	if !ok {
		byID = make(map[string]map[string]any)
		s.items[schemaName] = byID
	}
	item, ok := byID[id]
	if !ok || item == nil {
		item = make(map[string]any)
		byID[id] = item
	}
	return item
}

// ids lists the item ids of a schema in order.
func (s *contentStore) ids(schemaName string) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, 0, len(s.items[schemaName]))
	for id := range s.items[schemaName] {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// loader finds the item named by the {id} path value.
func (s *contentStore) loader(schemaName string) browser.ContentLoader {
	return func(r *http.Request) (any, error) {
		item, ok := s.get(schemaName, r.PathValue("id"))
		if !ok {
			return nil, browser.ErrNoContent
		}
		return item, nil
	}
}

// serialize runs one editing request at a time.
func (s *contentStore) serialize(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.edit.Lock()
		defer s.edit.Unlock()
		next.ServeHTTP(w, r)
	})
}
