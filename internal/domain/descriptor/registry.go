package descriptor

import (
	"sort"
	"strings"
	"sync"

	"github.com/turtacn/MolDescriptor/pkg/errors"
)

// Factory rebuilds a descriptor of one kind from its ordered parameter
// strings (see Key.ParamList). It must validate like the typed constructor.
type Factory func(params []string) (Descriptor, error)

// Family groups the parameterised instances of one descriptor kind.
type Family struct {
	// Name is the family name used for selection, e.g. "CarbonTypes".
	Name string
	// Kind is the Key.Kind shared by every preset instance.
	Kind        string
	Description string
	// Preset returns the standard instances in their documented order. Each
	// call returns a fresh slice.
	Preset func() []Descriptor
}

// Registry maps kinds to factories and holds the ordered list of families.
// It is safe for concurrent use; the builtin registry is fully populated
// before first use and only read afterwards.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
	families  []Family
	byFamily  map[string]int
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		factories: make(map[string]Factory),
		byFamily:  make(map[string]int),
	}
}

// RegisterKind installs the factory for kind.
func (r *Registry) RegisterKind(kind string, f Factory) error {
	if kind == "" || f == nil {
		return errors.New(errors.ErrCodeInvalidParameter, "kind and factory are required")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.factories[kind]; exists {
		return errors.Newf(errors.ErrCodeConflict, "descriptor kind %q already registered", kind)
	}
	r.factories[kind] = f
	return nil
}

// RegisterFamily appends a family. Its kind must already be registered.
func (r *Registry) RegisterFamily(f Family) error {
	if f.Name == "" || f.Preset == nil {
		return errors.New(errors.ErrCodeInvalidParameter, "family name and preset are required")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.factories[f.Kind]; !ok {
		return errors.Newf(errors.ErrCodeUnknownDescriptor, "family %q uses unregistered kind %q", f.Name, f.Kind)
	}
	if _, exists := r.byFamily[f.Name]; exists {
		return errors.Newf(errors.ErrCodeConflict, "family %q already registered", f.Name)
	}
	r.byFamily[f.Name] = len(r.families)
	r.families = append(r.families, f)
	return nil
}

// Build constructs the descriptor identified by k.
func (r *Registry) Build(k Key) (Descriptor, error) {
	r.mu.RLock()
	f, ok := r.factories[k.Kind]
	r.mu.RUnlock()
	if !ok {
		return nil, errors.Newf(errors.ErrCodeUnknownDescriptor, "unknown descriptor kind %q", k.Kind).
			WithDetail(k.String())
	}
	return f(k.ParamList())
}

// Kinds returns the registered kinds, sorted.
func (r *Registry) Kinds() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.factories))
	for k := range r.factories {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Families returns the families in registration order.
func (r *Registry) Families() []Family {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Family, len(r.families))
	copy(out, r.families)
	return out
}

// Family looks a family up by name.
func (r *Registry) Family(name string) (Family, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	i, ok := r.byFamily[name]
	if !ok {
		return Family{}, false
	}
	return r.families[i], true
}

// Preset flattens the presets of the named families, or of every family when
// none is named, in family then preset order.
func (r *Registry) Preset(families ...string) ([]Descriptor, error) {
	var fams []Family
	if len(families) == 0 {
		fams = r.Families()
	} else {
		for _, name := range families {
			f, ok := r.Family(name)
			if !ok {
				return nil, errors.Newf(errors.ErrCodeUnknownDescriptor, "unknown descriptor family %q", name)
			}
			fams = append(fams, f)
		}
	}
	groups := make([][]Descriptor, len(fams))
	for i, f := range fams {
		groups[i] = f.Preset()
	}
	return Expand(groups...), nil
}

// Parse resolves a single descriptor from its canonical name ("C1SP3") or
// its key rendering ("CarbonTypes(1,3)").
func (r *Registry) Parse(name string) (Descriptor, error) {
	name = strings.TrimSpace(name)
	if strings.Contains(name, "(") {
		k, err := ParseKey(name)
		if err != nil {
			return nil, err
		}
		return r.Build(k)
	}
	for _, f := range r.Families() {
		for _, d := range f.Preset() {
			if d.Name() == name {
				return d, nil
			}
		}
	}
	return nil, errors.Newf(errors.ErrCodeUnknownDescriptor, "unknown descriptor %q", name)
}

// Select resolves a mixed list of family names, canonical names and key
// renderings into descriptors, dropping duplicates. An empty list selects
// every preset.
func (r *Registry) Select(names ...string) ([]Descriptor, error) {
	if len(names) == 0 {
		return r.Preset()
	}
	groups := make([][]Descriptor, 0, len(names))
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		if f, ok := r.Family(name); ok {
			groups = append(groups, f.Preset())
			continue
		}
		d, err := r.Parse(name)
		if err != nil {
			return nil, err
		}
		groups = append(groups, []Descriptor{d})
	}
	return Expand(groups...), nil
}

// Expand concatenates groups, keeping the first instance of every key.
func Expand(groups ...[]Descriptor) []Descriptor {
	seen := make(map[Key]struct{})
	var out []Descriptor
	for _, g := range groups {
		for _, d := range g {
			k := d.Key()
			if _, dup := seen[k]; dup {
				continue
			}
			seen[k] = struct{}{}
			out = append(out, d)
		}
	}
	return out
}

//Personal.AI order the ending
