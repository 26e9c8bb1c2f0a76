package game

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"slices"
	"sync"
)

// GraphValidator checks a roguelike room graph. The dag package provides the
// implementation; the catalog only needs to reject bad graphs at load time.
type GraphValidator func(def *DungeonDefinition) error

// Catalog is the registry of creatable dungeon definitions.
type Catalog struct {
	mu            sync.RWMutex
	defs          map[string]*DungeonDefinition
	validateGraph GraphValidator
}

// NewCatalog builds a catalog holding defs. A nil validator skips graph checks.
func NewCatalog(validate GraphValidator, defs ...*DungeonDefinition) (*Catalog, error) {
	c := &Catalog{defs: make(map[string]*DungeonDefinition), validateGraph: validate}
	for _, def := range defs {
		if err := c.Register(def); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// Register validates def and adds it, replacing any definition with the same id.
func (c *Catalog) Register(def *DungeonDefinition) error {
	if err := def.Validate(); err != nil {
		return err
	}
	if def.Kind == KindRoguelike && c.validateGraph != nil {
		if err := c.validateGraph(def); err != nil {
			return fmt.Errorf("dungeon %s: %w", def.ID, err)
		}
	}
	c.mu.Lock()
	c.defs[def.ID] = def
	c.mu.Unlock()
	return nil
}

func (c *Catalog) Get(id string) (*DungeonDefinition, error) {
	c.mu.RLock()
	def, ok := c.defs[id]
	c.mu.RUnlock()
	if !ok {
		return nil, ErrDefinitionNotFound.WithMetadata("id", id)
	}
	return def, nil
}

// IDs lists the registered definition ids in sorted order.
func (c *Catalog) IDs() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	ids := make([]string, 0, len(c.defs))
	for id := range c.defs {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

func (c *Catalog) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.defs)
}

type catalogFile struct {
	Dungeons []*DungeonDefinition `json:"dungeons"`
}

// ReadDefinitions decodes a {"dungeons": [...]} document.
func ReadDefinitions(r io.Reader) ([]*DungeonDefinition, error) {
	var doc catalogFile
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode dungeon definitions: %w", err)
	}
	return doc.Dungeons, nil
}

// LoadFile registers every definition found in the JSON file at path and
// returns how many were added.
func (c *Catalog) LoadFile(path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("open dungeon definitions: %w", err)
	}
	defer f.Close()
	defs, err := ReadDefinitions(f)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", path, err)
	}
	for i, def := range defs {
		if err := c.Register(def); err != nil {
			return i, fmt.Errorf("%s: %w", path, err)
		}
	}
	return len(defs), nil
}
