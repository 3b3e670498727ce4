package xsd

import (
	"log/slog"
	"path/filepath"
	"sync"

	"github.com/golang/groupcache/lru"
)

// maxCachedSchemas bounds the number of compiled schemas kept in memory.
// Editing sessions rarely touch more than a handful.
const maxCachedSchemas = 64

// SchemaCache manages compiled schemas keyed by resolved location. Each
// entry loads exactly once; the LRU evicts cold schemas.
type SchemaCache struct {
	mu       sync.Mutex
	entries  *lru.Cache
	BasePath string // Base path for resolving relative schema locations
}

// schemaEntry holds a schema and its single-flight loader
type schemaEntry struct {
	once   sync.Once
	schema *Schema
	err    error
	load   func() (*Schema, error)
}

// GlobalCache is the singleton schema cache
var GlobalCache = NewSchemaCache("")

// NewSchemaCache creates a new schema cache
func NewSchemaCache(basePath string) *SchemaCache {
	return &SchemaCache{
		entries:  lru.New(maxCachedSchemas),
		BasePath: basePath,
	}
}

// SetBasePath sets the base path for resolving relative schema locations
func (sc *SchemaCache) SetBasePath(path string) {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	sc.BasePath = path
}

// Get retrieves a schema from cache, loading and compiling it on first use.
// A failed load is cached too: schema errors surface once, at load time.
func (sc *SchemaCache) Get(location string) (*Schema, error) {
	resolvedPath := sc.resolvePath(location)

	sc.mu.Lock()
	var entry *schemaEntry
	if v, ok := sc.entries.Get(resolvedPath); ok {
		entry = v.(*schemaEntry)
	} else {
		entry = &schemaEntry{load: func() (*Schema, error) {
			return sc.loadSchema(resolvedPath)
		}}
		sc.entries.Add(resolvedPath, entry)
	}
	sc.mu.Unlock()

	entry.once.Do(func() {
		entry.schema, entry.err = entry.load()
		if entry.err != nil {
			slog.Warn("failed to load schema", "location", resolvedPath, "error", entry.err)
		}
	})

	return entry.schema, entry.err
}

// Clear removes all cached schemas
func (sc *SchemaCache) Clear() {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	sc.entries = lru.New(maxCachedSchemas)
}

// Remove removes a specific schema from cache
func (sc *SchemaCache) Remove(location string) {
	resolvedPath := sc.resolvePath(location)
	sc.mu.Lock()
	defer sc.mu.Unlock()
	sc.entries.Remove(resolvedPath)
}

// resolvePath resolves a schema location to an absolute path
func (sc *SchemaCache) resolvePath(location string) string {
	if filepath.IsAbs(location) {
		return location
	}
	if sc.BasePath != "" {
		return filepath.Join(sc.BasePath, location)
	}
	abs, err := filepath.Abs(location)
	if err != nil {
		return location
	}
	return abs
}

// loadSchema compiles a schema from disk including its imports and includes
func (sc *SchemaCache) loadSchema(path string) (*Schema, error) {
	loader := NewSchemaLoader(filepath.Dir(path))
	return loader.LoadSchemaWithImports(path)
}
