package descriptor

import (
	"context"

	"github.com/turtacn/MolDescriptor/internal/domain/molecule"
	"github.com/turtacn/MolDescriptor/pkg/errors"
)

// Result is the outcome of one requested descriptor on one molecule.
type Result struct {
	Descriptor Descriptor
	Value      interface{}
	Err        error
}

// Session evaluates descriptors for one molecule over one private Cache.
// It is single-goroutine.
type Session struct {
	resolver *Resolver
	mol      molecule.Molecule
	cache    *Cache
}

// NewSession opens a session for mol with a fresh cache.
func (r *Resolver) NewSession(mol molecule.Molecule) *Session {
	return &Session{resolver: r, mol: mol, cache: NewCache()}
}

// Resolve evaluates d within the session.
func (s *Session) Resolve(ctx context.Context, d Descriptor) (interface{}, error) {
	return s.resolver.Resolve(ctx, d, s.mol, s.cache)
}

func (s *Session) Molecule() molecule.Molecule { return s.mol }

func (s *Session) Cache() *Cache { return s.cache }

// Calculator is a validated, ordered set of user-visible descriptors.
type Calculator struct {
	resolver    *Resolver
	descriptors []Descriptor
	index       map[Key]int
}

// NewCalculator creates a calculator and registers ds.
func NewCalculator(resolver *Resolver, ds ...Descriptor) (*Calculator, error) {
	c := &Calculator{resolver: resolver, index: make(map[Key]int)}
	if err := c.Register(ds...); err != nil {
		return nil, err
	}
	return c, nil
}

// Register validates every descriptor and appends the ones not yet present.
// Nothing is registered when any descriptor fails validation.
func (c *Calculator) Register(ds ...Descriptor) error {
	for _, d := range ds {
		if d == nil {
			return errors.New(errors.ErrCodeInvalidParameter, "nil descriptor")
		}
		if d.ResultType() == ResultIntermediate {
			return errors.Newf(errors.ErrCodeInvalidParameter,
				"%s is an intermediate and cannot be reported", d.Key())
		}
		if err := c.resolver.Validate(d); err != nil {
			return err
		}
	}
	for _, d := range ds {
		if _, dup := c.index[d.Key()]; dup {
			continue
		}
		c.index[d.Key()] = len(c.descriptors)
		c.descriptors = append(c.descriptors, d)
	}
	return nil
}

// Descriptors returns the registered descriptors in column order.
func (c *Calculator) Descriptors() []Descriptor {
	out := make([]Descriptor, len(c.descriptors))
	copy(out, c.descriptors)
	return out
}

// Names returns the column names.
func (c *Calculator) Names() []string { return Names(c.descriptors) }

// Len returns the number of columns.
func (c *Calculator) Len() int { return len(c.descriptors) }

// Calculate evaluates every registered descriptor on mol in a fresh session.
// Per-descriptor failures land in Result.Err. The returned error is non-nil
// only when ctx ended before every descriptor completed, including inside the
// last one; the interrupted results then carry the timeout error.
func (c *Calculator) Calculate(ctx context.Context, mol molecule.Molecule) ([]Result, error) {
	s := c.resolver.NewSession(mol)
	out := make([]Result, len(c.descriptors))
	for i, d := range c.descriptors {
		out[i].Descriptor = d
		if err := ctx.Err(); err != nil {
			timeout := interrupted(err, mol)
			for j := i; j < len(c.descriptors); j++ {
				out[j] = Result{Descriptor: c.descriptors[j], Err: timeout}
			}
			return out, timeout
		}
		out[i].Value, out[i].Err = s.Resolve(ctx, d)
	}

	for _, r := range out {
		if r.Err == nil {
			continue
		}
		if errors.IsCode(r.Err, errors.ErrCodeCalculationTimeout) {
			return out, r.Err
		}
		// A toolkit query cut short by ctx reports its own code.
		if err := ctx.Err(); err != nil {
			return out, interrupted(err, mol)
		}
	}
	return out, nil
}

func interrupted(err error, mol molecule.Molecule) error {
	return errors.Wrap(err, errors.ErrCodeCalculationTimeout, "calculation interrupted").
		WithDetail(mol.ID())
}

//Personal.AI order the ending
