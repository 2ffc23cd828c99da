package sim

import (
	"fmt"
	"sort"

	"github.com/recycle-sim/recycle-sim/sim/material"
)

// RecipeRegistry maps recipe names to compositions.
type RecipeRegistry struct {
	recipes map[string]*material.Composition
}

// NewRecipeRegistry creates an empty registry.
func NewRecipeRegistry() *RecipeRegistry {
	return &RecipeRegistry{recipes: make(map[string]*material.Composition)}
}

// Add registers comp under name. Names must be unique and non-empty.
func (r *RecipeRegistry) Add(name string, comp *material.Composition) error {
	if name == "" {
		return fmt.Errorf("recipe name must not be empty")
	}
	if _, ok := r.recipes[name]; ok {
		return fmt.Errorf("recipe %q defined twice", name)
	}
	r.recipes[name] = comp
	return nil
}

// Get returns the recipe called name. The empty name is the all-zero dummy
// composition; an unknown name is an error.
func (r *RecipeRegistry) Get(name string) (*material.Composition, error) {
	if name == "" {
		return material.Empty(), nil
	}
	c, ok := r.recipes[name]
	if !ok {
		return nil, fmt.Errorf("unknown recipe %q", name)
	}
	return c, nil
}

// Names returns all recipe names in sorted order.
func (r *RecipeRegistry) Names() []string {
	names := make([]string, 0, len(r.recipes))
	for n := range r.recipes {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
