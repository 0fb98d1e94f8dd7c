package models

import (
	"fmt"
	"slices"
	"strings"
)

// Registry is an immutable, ordered list of stage descriptors. The declared
// order is a valid topological order of the dependency graph.
type Registry struct {
	stages []StageDescriptor
	index  map[StageID]int
}

// Stages returns a copy of the descriptors in declared order.
func (r *Registry) Stages() []StageDescriptor {
	if r == nil {
		return nil
	}
	out := make([]StageDescriptor, len(r.stages))
	for i, d := range r.stages {
		d.DependsOn = slices.Clone(d.DependsOn)
		out[i] = d
	}
	return out
}

// Stage returns the descriptor for id; absence is reported through ok.
func (r *Registry) Stage(id StageID) (StageDescriptor, bool) {
	if r == nil {
		return StageDescriptor{}, false
	}
	i, ok := r.index[id]
	if !ok {
		return StageDescriptor{}, false
	}
	d := r.stages[i]
	d.DependsOn = slices.Clone(d.DependsOn)
	return d, true
}

// Len returns the number of registered stages.
func (r *Registry) Len() int {
	if r == nil {
		return 0
	}
	return len(r.stages)
}

// IDs returns the stage identifiers in declared order.
func (r *Registry) IDs() []StageID {
	if r == nil {
		return nil
	}
	ids := make([]StageID, len(r.stages))
	for i, d := range r.stages {
		ids[i] = d.ID
	}
	return ids
}

// RegistryBuilder is a fluent builder for ordered stage descriptors.
type RegistryBuilder struct{ defs []StageDescriptor }

// NewRegistryBuilder creates an empty builder.
func NewRegistryBuilder() *RegistryBuilder {
	return &RegistryBuilder{defs: make([]StageDescriptor, 0, 8)}
}

// Add appends a descriptor unconditionally.
func (b *RegistryBuilder) Add(d StageDescriptor) *RegistryBuilder {
	d.DependsOn = slices.Clone(d.DependsOn)
	b.defs = append(b.defs, d)
	return b
}

// AddIf appends a descriptor only if cond is true.
func (b *RegistryBuilder) AddIf(cond bool, d StageDescriptor) *RegistryBuilder {
	if cond {
		b.Add(d)
	}
	return b
}

// Build validates the descriptors and returns the immutable registry. Every
// dependency must name a stage declared earlier.
func (b *RegistryBuilder) Build() (*Registry, error) {
	reg := &Registry{
		stages: make([]StageDescriptor, 0, len(b.defs)),
		index:  make(map[StageID]int, len(b.defs)),
	}
	var problems []string
	for i, d := range b.defs {
		switch {
		case d.ID == "":
			problems = append(problems, fmt.Sprintf("stage #%d has an empty id", i))
			continue
		case d.Execute == nil:
			problems = append(problems, fmt.Sprintf("stage %s has no execute function", d.ID))
		}
		if _, dup := reg.index[d.ID]; dup {
			problems = append(problems, fmt.Sprintf("stage %s declared twice", d.ID))
			continue
		}
		for _, dep := range d.DependsOn {
			if _, ok := reg.index[dep]; !ok {
				problems = append(problems, fmt.Sprintf("stage %s depends on %s which is not declared before it", d.ID, dep))
			}
		}
		reg.index[d.ID] = len(reg.stages)
		d.DependsOn = slices.Clone(d.DependsOn)
		reg.stages = append(reg.stages, d)
	}
	if len(problems) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrInvalidRegistry, strings.Join(problems, "; "))
	}
	return reg, nil
}

// MustBuild is Build for static registries; it panics on an invalid definition.
func (b *RegistryBuilder) MustBuild() *Registry {
	reg, err := b.Build()
	if err != nil {
		panic(err)
	}
	return reg
}
