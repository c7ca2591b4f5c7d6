package descriptor

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/turtacn/MolDescriptor/internal/domain/molecule"
	"github.com/turtacn/MolDescriptor/pkg/errors"
)

// Observer receives resolution events. Nil callbacks are skipped.
type Observer struct {
	OnHit       func(k Key)
	OnMiss      func(k Key)
	OnCalculate func(k Key, elapsed time.Duration, err error)
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithObserver installs resolution callbacks.
func WithObserver(o Observer) Option {
	return func(r *Resolver) { r.observer = o }
}

// Resolver evaluates descriptor dependency graphs against a cache.
// A Resolver holds no per-molecule state and may be shared across goroutines
// as long as each goroutine uses its own Cache.
type Resolver struct {
	registry *Registry
	observer Observer
}

// NewResolver creates a resolver that builds composite dependencies through
// reg.
func NewResolver(reg *Registry, opts ...Option) *Resolver {
	r := &Resolver{registry: reg}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Registry returns the registry used for composite dependencies.
func (r *Resolver) Registry() *Registry { return r.registry }

// Resolve returns the value of d for mol, computing it and its dependencies
// at most once per cache. Errors are never cached.
func (r *Resolver) Resolve(ctx context.Context, d Descriptor, mol molecule.Molecule, cache *Cache) (interface{}, error) {
	if d == nil {
		return nil, errors.New(errors.ErrCodeInvalidParameter, "nil descriptor")
	}
	if mol == nil {
		return nil, errors.New(errors.ErrCodeMoleculeEmpty, "nil molecule")
	}
	if cache == nil {
		return nil, errors.New(errors.ErrCodeInvalidParameter, "nil cache")
	}
	return r.resolve(ctx, d, mol, cache, nil)
}

func (r *Resolver) resolve(ctx context.Context, d Descriptor, mol molecule.Molecule, cache *Cache, path []Descriptor) (interface{}, error) {
	key := d.Key()
	if v, ok := cache.Get(mol.ID(), key); ok {
		if r.observer.OnHit != nil {
			r.observer.OnHit(key)
		}
		return v, nil
	}
	if err := cycleCheck(path, d); err != nil {
		return nil, err
	}
	if r.observer.OnMiss != nil {
		r.observer.OnMiss(key)
	}
	if err := ctx.Err(); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeCalculationTimeout, "calculation interrupted").
			WithDetail(d.Name())
	}

	deps := d.Dependencies()
	values := make(map[string]interface{}, len(deps))
	path = append(path, d)
	for _, name := range sortedNames(deps) {
		dep, err := r.instantiate(deps[name])
		if err != nil {
			return nil, err
		}
		v, err := r.resolve(ctx, dep, mol, cache, path)
		if err != nil {
			return nil, err
		}
		values[name] = v
	}

	start := time.Now()
	v, err := d.Calculate(ctx, mol, NewArgs(key, values))
	if r.observer.OnCalculate != nil {
		r.observer.OnCalculate(key, time.Since(start), err)
	}
	if err != nil {
		return nil, classify(ctx, d, err)
	}
	cache.Put(mol.ID(), key, v)
	return v, nil
}

// Validate walks d's dependency graph without a molecule and reports cycles
// and composite kinds the registry cannot build.
func (r *Resolver) Validate(d Descriptor) error {
	return r.validate(d, nil, make(map[Key]bool))
}

func (r *Resolver) validate(d Descriptor, path []Descriptor, done map[Key]bool) error {
	key := d.Key()
	if done[key] {
		return nil
	}
	if err := cycleCheck(path, d); err != nil {
		return err
	}
	deps := d.Dependencies()
	path = append(path, d)
	for _, name := range sortedNames(deps) {
		dep, err := r.instantiate(deps[name])
		if err != nil {
			return err
		}
		if err := r.validate(dep, path, done); err != nil {
			return err
		}
	}
	done[key] = true
	return nil
}

func (r *Resolver) instantiate(ref Ref) (Descriptor, error) {
	if !ref.IsComposite() {
		return ref.Descriptor(), nil
	}
	if r.registry == nil {
		return nil, errors.Newf(errors.ErrCodeUnknownDescriptor,
			"no registry to build composite %s", ref.Key())
	}
	return r.registry.Build(ref.Key())
}

func cycleCheck(path []Descriptor, d Descriptor) error {
	key := d.Key()
	for i, p := range path {
		if p.Key() != key {
			continue
		}
		names := make([]string, 0, len(path)-i+1)
		for _, q := range path[i:] {
			names = append(names, q.Name())
		}
		names = append(names, d.Name())
		return errors.Newf(errors.ErrCodeDependencyCycle,
			"dependency cycle: %s", strings.Join(names, " -> "))
	}
	return nil
}

// classify keeps coded errors intact and wraps everything else.
func classify(ctx context.Context, d Descriptor, err error) error {
	if errors.GetCode(err) != errors.CodeUnknown {
		return err
	}
	if ctx.Err() != nil {
		return errors.Wrap(err, errors.ErrCodeCalculationTimeout, "calculation interrupted").
			WithDetail(d.Name())
	}
	return errors.Wrap(err, errors.ErrCodeCalculationFailed, "calculation failed").
		WithDetail(d.Name())
}

func sortedNames(deps map[string]Ref) []string {
	names := make([]string, 0, len(deps))
	for name := range deps {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

//Personal.AI order the ending
