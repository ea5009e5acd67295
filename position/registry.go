package position

import (
	"fmt"
	"io"
	"os"
	"sort"
	"sync"

	"gopkg.in/yaml.v3"
)

// Registry maps grid names to their position definitions.
type Registry struct {
	mu          sync.RWMutex
	definitions map[string]Definition
}

type registryFile struct {
	Grids map[string]Definition `yaml:"grids"`
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{
		definitions: make(map[string]Definition),
	}
}

// LoadRegistry reads grid definitions from YAML:
//
//	grids:
//	  attribute:
//	    table: attribute
//	    parent_table: attribute_group
//	    id_field: id_attribute
//	    position_field: position
//	    parent_id_field: id_attribute_group
//	    parent_table_id_field: id_attribute_group
func LoadRegistry(r io.Reader) (*Registry, error) {
	var file registryFile
	if err := yaml.NewDecoder(r).Decode(&file); err != nil && err != io.EOF {
		return nil, fmt.Errorf("error decoding grid definitions: %w", err)
	}

	registry := NewRegistry()
	for name, def := range file.Grids {
		if err := registry.Register(name, def); err != nil {
			return nil, err
		}
	}
	return registry, nil
}

// LoadRegistryFile reads grid definitions from a YAML file
func LoadRegistryFile(path string) (*Registry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("error opening grid definitions: %w", err)
	}
	defer f.Close()
	return LoadRegistry(f)
}

// Register adds or replaces a grid definition
func (r *Registry) Register(name string, def Definition) error {
	if name == "" {
		return fmt.Errorf("grid name cannot be empty")
	}
	if err := def.Validate(); err != nil {
		return fmt.Errorf("invalid definition for grid %s: %w", name, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.definitions[name] = def
	return nil
}

// Get returns the definition registered under name
func (r *Registry) Get(name string) (Definition, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	def, ok := r.definitions[name]
	return def, ok
}

// Names returns the registered grid names in sorted order
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.definitions))
	for name := range r.definitions {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
