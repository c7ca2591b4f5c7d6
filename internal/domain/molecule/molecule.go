// Package molecule defines the read-only capability contract that the
// descriptor engine requires from a chemistry toolkit. The engine never parses
// chemical formats itself; a toolkit binding supplies values satisfying
// Molecule.
package molecule

import (
	"context"
)

// Atom is a read-only view of a single atom.
type Atom interface {
	// Index is the position of the atom within its molecule.
	Index() int
	AtomicNum() int
	Symbol() string
	Hybridization() Hybridization
	IsAromatic() bool
	// Neighbors returns indices of bonded atoms in ascending order. The
	// caller owns the returned slice.
	Neighbors() []int
}

// Bond is a read-only view of a single bond.
type Bond interface {
	Begin() int
	End() int
	// Order is 1, 1.5 (aromatic), 2 or 3.
	Order() float64
}

// Molecule is the capability contract consumed by descriptors.
//
// Implementations must be safe for concurrent reads. The engine never mutates
// a Molecule.
type Molecule interface {
	// ID identifies the molecule within one evaluation session. It is part of
	// every cache key.
	ID() string

	NumAtoms() int
	Atom(i int) Atom
	Bonds() []Bond

	// WithExplicitHydrogens returns a view in which hydrogens are atoms. A
	// molecule that already carries explicit hydrogens returns itself.
	WithExplicitHydrogens() Molecule

	// Kekulized returns a view whose aromatic bonds carry alternating single
	// and double orders. It fails when no Kekulé assignment exists.
	Kekulized() (Molecule, error)

	// ShortestPaths returns the all-pairs shortest-path matrix over the atoms
	// of this view. Unreachable pairs are +Inf. With useBondOrder each edge
	// weighs 1/order; with useAtomWeights the diagonal is 6/atomicNum.
	ShortestPaths(ctx context.Context, useBondOrder, useAtomWeights bool) ([][]float64, error)
}

// CountNeighbors returns how many neighbours of atom i have the given atomic
// number.
func CountNeighbors(mol Molecule, i int, atomicNum int) int {
	n := 0
	for _, j := range mol.Atom(i).Neighbors() {
		if mol.Atom(j).AtomicNum() == atomicNum {
			n++
		}
	}
	return n
}

// HeavyAtomCount returns the number of non-hydrogen atoms.
func HeavyAtomCount(mol Molecule) int {
	n := 0
	for i := 0; i < mol.NumAtoms(); i++ {
		if mol.Atom(i).AtomicNum() > 1 {
			n++
		}
	}
	return n
}

//Personal.AI order the ending
