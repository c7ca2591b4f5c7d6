// Package toolkit is the chemistry-toolkit binding behind the molecule
// capability contract: a SMILES parser, heuristic hybridization perception,
// explicit-hydrogen and Kekulé views, and all-pairs shortest paths.
//
// The chemistry here is deliberately simplified. Hybridization follows VSEPR
// steric numbers with aromatic atoms forced to SP2; conjugation effects on
// heteroatoms are not modelled.
package toolkit

import (
	"fmt"
	"sort"
	"sync"

	"github.com/turtacn/MolDescriptor/internal/domain/molecule"
)

// ─────────────────────────────────────────────────────────────────────────────
// Atom / Bond
// ─────────────────────────────────────────────────────────────────────────────

type atomData struct {
	index     int
	num       int
	symbol    string
	aromatic  bool
	charge    int
	hCount    int
	hyb       molecule.Hybridization
	hybFixed  bool
	neighbors []int
}

func (a atomData) Index() int                             { return a.index }
func (a atomData) AtomicNum() int                         { return a.num }
func (a atomData) Symbol() string                         { return a.symbol }
func (a atomData) Hybridization() molecule.Hybridization { return a.hyb }
func (a atomData) IsAromatic() bool                       { return a.aromatic }

// Neighbors returns a copy of the bonded atom indices, ascending.
func (a atomData) Neighbors() []int {
	return append([]int(nil), a.neighbors...)
}

// Charge returns the formal charge.
func (a atomData) Charge() int { return a.charge }

// ImplicitHydrogens returns hydrogens not represented as atoms.
func (a atomData) ImplicitHydrogens() int { return a.hCount }

type bondData struct {
	begin, end int
	order      float64
	aromatic   bool
}

func (b bondData) Begin() int     { return b.begin }
func (b bondData) End() int       { return b.end }
func (b bondData) Order() float64 { return b.order }

// ─────────────────────────────────────────────────────────────────────────────
// Graph
// ─────────────────────────────────────────────────────────────────────────────

// Graph is an immutable molecular graph implementing molecule.Molecule.
// Derived views are built lazily and memoised, so a Graph is safe for
// concurrent readers.
type Graph struct {
	id        string
	smiles    string
	atoms     []atomData
	bonds     []bondData
	explicitH bool
	kekule    bool

	hOnce sync.Once
	hView *Graph

	kOnce sync.Once
	kView *Graph
	kErr  error
}

var _ molecule.Molecule = (*Graph)(nil)

func (g *Graph) ID() string     { return g.id }
func (g *Graph) SMILES() string { return g.smiles }
func (g *Graph) NumAtoms() int  { return len(g.atoms) }

func (g *Graph) Atom(i int) molecule.Atom { return g.atoms[i] }

func (g *Graph) Bonds() []molecule.Bond {
	out := make([]molecule.Bond, len(g.bonds))
	for i, b := range g.bonds {
		out[i] = b
	}
	return out
}

// NumBonds returns the number of bonds in this view.
func (g *Graph) NumBonds() int { return len(g.bonds) }

// HasExplicitHydrogens reports whether hydrogens are atoms in this view.
func (g *Graph) HasExplicitHydrogens() bool { return g.explicitH }

// WithExplicitHydrogens appends one hydrogen atom per implicit hydrogen.
func (g *Graph) WithExplicitHydrogens() molecule.Molecule {
	if g.explicitH {
		return g
	}
	g.hOnce.Do(func() {
		b := &Builder{id: g.id, smiles: g.smiles}
		for _, a := range g.atoms {
			c := a
			c.hCount = 0
			c.hybFixed = true
			c.neighbors = nil
			b.atoms = append(b.atoms, c)
		}
		for _, bd := range g.bonds {
			b.bonds = append(b.bonds, bd)
		}
		for _, a := range g.atoms {
			for k := 0; k < a.hCount; k++ {
				h := b.AddAtom("H", WithHybridization(molecule.HybridizationS))
				b.AddBond(a.index, h, 1)
			}
		}
		view, err := b.build(false)
		if err != nil {
			// Adding single bonds to hydrogens cannot fail on a valid graph.
			panic(fmt.Sprintf("toolkit: explicit hydrogen view: %v", err))
		}
		view.explicitH = true
		view.kekule = g.kekule
		g.hView = view
	})
	return g.hView
}

// Kekulized assigns alternating single/double orders to aromatic bonds.
func (g *Graph) Kekulized() (molecule.Molecule, error) {
	if g.kekule {
		return g, nil
	}
	g.kOnce.Do(func() {
		g.kView, g.kErr = kekulize(g)
	})
	if g.kErr != nil {
		return nil, g.kErr
	}
	return g.kView, nil
}

func (g *Graph) clone() *Graph {
	c := &Graph{
		id:        g.id,
		smiles:    g.smiles,
		atoms:     make([]atomData, len(g.atoms)),
		bonds:     make([]bondData, len(g.bonds)),
		explicitH: g.explicitH,
		kekule:    g.kekule,
	}
	copy(c.atoms, g.atoms)
	copy(c.bonds, g.bonds)
	return c
}

// ─────────────────────────────────────────────────────────────────────────────
// Builder
// ─────────────────────────────────────────────────────────────────────────────

// AtomOption customises an atom added through Builder.
type AtomOption func(*atomData)

// WithHybridization pins the atom's hybridization instead of perceiving it.
func WithHybridization(h molecule.Hybridization) AtomOption {
	return func(a *atomData) {
		a.hyb = h
		a.hybFixed = true
	}
}

// WithCharge sets the formal charge.
func WithCharge(charge int) AtomOption {
	return func(a *atomData) { a.charge = charge }
}

// WithHydrogens sets the implicit hydrogen count.
func WithHydrogens(n int) AtomOption {
	return func(a *atomData) { a.hCount = n }
}

// Aromatic flags the atom as aromatic.
func Aromatic() AtomOption {
	return func(a *atomData) { a.aromatic = true }
}

// Builder assembles a Graph atom by atom. The first error sticks and is
// returned by Build.
type Builder struct {
	id     string
	smiles string
	atoms  []atomData
	bonds  []bondData
	err    error
}

// NewBuilder returns a Builder for a molecule with the given identity.
func NewBuilder(id string) *Builder {
	return &Builder{id: id}
}

// AddAtom appends an atom and returns its index.
func (b *Builder) AddAtom(symbol string, opts ...AtomOption) int {
	num, ok := AtomicNumber(symbol)
	if !ok && b.err == nil {
		b.err = fmt.Errorf("unknown element %q", symbol)
	}
	a := atomData{index: len(b.atoms), num: num, symbol: symbol}
	for _, opt := range opts {
		opt(&a)
	}
	b.atoms = append(b.atoms, a)
	return a.index
}

// AddBond connects atoms i and j. Order 1.5 marks an aromatic bond.
func (b *Builder) AddBond(i, j int, order float64) *Builder {
	if b.err != nil {
		return b
	}
	switch {
	case i == j:
		b.err = fmt.Errorf("self bond on atom %d", i)
	case i < 0 || j < 0 || i >= len(b.atoms) || j >= len(b.atoms):
		b.err = fmt.Errorf("bond %d-%d references a missing atom", i, j)
	case order != 1 && order != 1.5 && order != 2 && order != 3:
		b.err = fmt.Errorf("unsupported bond order %v", order)
	}
	if b.err != nil {
		return b
	}
	for _, existing := range b.bonds {
		if (existing.begin == i && existing.end == j) || (existing.begin == j && existing.end == i) {
			b.err = fmt.Errorf("duplicate bond %d-%d", i, j)
			return b
		}
	}
	b.bonds = append(b.bonds, bondData{begin: i, end: j, order: order, aromatic: order == 1.5})
	return b
}

// Build finalises the graph and perceives hybridization for atoms without a
// pinned state.
func (b *Builder) Build() (*Graph, error) {
	return b.build(true)
}

func (b *Builder) build(perceive bool) (*Graph, error) {
	if b.err != nil {
		return nil, b.err
	}
	g := &Graph{id: b.id, smiles: b.smiles, atoms: b.atoms, bonds: b.bonds}
	for i := range g.atoms {
		g.atoms[i].neighbors = nil
	}
	for _, bd := range g.bonds {
		g.atoms[bd.begin].neighbors = append(g.atoms[bd.begin].neighbors, bd.end)
		g.atoms[bd.end].neighbors = append(g.atoms[bd.end].neighbors, bd.begin)
	}
	for i := range g.atoms {
		sort.Ints(g.atoms[i].neighbors)
	}
	if perceive {
		for i := range g.atoms {
			if !g.atoms[i].hybFixed {
				g.atoms[i].hyb = perceiveHybridization(g, i)
			}
		}
	}
	return g, nil
}

//Personal.AI order the ending
