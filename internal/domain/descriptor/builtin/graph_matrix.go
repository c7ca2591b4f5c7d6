package builtin

import (
	"context"
	"math"

	"github.com/turtacn/MolDescriptor/internal/domain/descriptor"
	"github.com/turtacn/MolDescriptor/internal/domain/molecule"
)

const (
	KindDistanceMatrix = "DistanceMatrix"
	KindEccentricity   = "Eccentricity"
	KindGraphRadius    = "GraphRadius"
	KindGraphDiameter  = "GraphDiameter"
)

// graphFlags is the composite key shared by the graph-matrix intermediates.
type graphFlags struct {
	explicitH  bool
	useBO      bool
	useWeights bool
}

func (f graphFlags) key(kind string) descriptor.Key {
	return descriptor.NewKey(kind, f.explicitH, f.useBO, f.useWeights)
}

func (f graphFlags) ref(kind string) descriptor.Ref {
	return descriptor.Composite(kind, f.explicitH, f.useBO, f.useWeights)
}

func (f graphFlags) view(mol molecule.Molecule) molecule.Molecule {
	if f.explicitH {
		return mol.WithExplicitHydrogens()
	}
	return mol
}

func parseGraphFlags(kind string, params []string) (graphFlags, error) {
	var f graphFlags
	if err := descriptor.ExpectParams(kind, params, 3); err != nil {
		return f, err
	}
	var err error
	if f.explicitH, err = descriptor.ParseBoolParam(kind, "explicitH", params[0]); err != nil {
		return f, err
	}
	if f.useBO, err = descriptor.ParseBoolParam(kind, "useBO", params[1]); err != nil {
		return f, err
	}
	if f.useWeights, err = descriptor.ParseBoolParam(kind, "useAtomWeights", params[2]); err != nil {
		return f, err
	}
	return f, nil
}

// heavyGraph is the flag set every standard graph descriptor uses.
var heavyGraph = graphFlags{}

// ─────────────────────────────────────────────────────────────────────────────
// Matrix
// ─────────────────────────────────────────────────────────────────────────────

// Matrix is a dense all-pairs distance matrix. Unreachable pairs are +Inf.
type Matrix struct {
	values [][]float64
}

// NewMatrix wraps rows without copying. The caller must not modify them.
func NewMatrix(rows [][]float64) *Matrix { return &Matrix{values: rows} }

// Size returns the number of atoms.
func (m *Matrix) Size() int { return len(m.values) }

func (m *Matrix) At(i, j int) float64 { return m.values[i][j] }

// Connected reports whether every pair of atoms is reachable.
func (m *Matrix) Connected() bool {
	for _, row := range m.values {
		for _, v := range row {
			if math.IsInf(v, 1) {
				return false
			}
		}
	}
	return true
}

// ─────────────────────────────────────────────────────────────────────────────
// DistanceMatrix
// ─────────────────────────────────────────────────────────────────────────────

type distanceMatrix struct{ flags graphFlags }

// NewDistanceMatrix returns the shortest-path intermediate for the given view
// and weighting flags.
func NewDistanceMatrix(explicitH, useBO, useAtomWeights bool) descriptor.Descriptor {
	return distanceMatrix{flags: graphFlags{explicitH, useBO, useAtomWeights}}
}

func (d distanceMatrix) Key() descriptor.Key { return d.flags.key(KindDistanceMatrix) }
func (d distanceMatrix) Name() string        { return d.Key().String() }

func (distanceMatrix) ResultType() descriptor.ResultType { return descriptor.ResultIntermediate }

func (distanceMatrix) Dependencies() map[string]descriptor.Ref { return nil }

func (d distanceMatrix) Calculate(ctx context.Context, mol molecule.Molecule, _ descriptor.Args) (interface{}, error) {
	rows, err := d.flags.view(mol).ShortestPaths(ctx, d.flags.useBO, d.flags.useWeights)
	if err != nil {
		return nil, err
	}
	return NewMatrix(rows), nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Eccentricity
// ─────────────────────────────────────────────────────────────────────────────

type eccentricity struct{ flags graphFlags }

// NewEccentricity returns the per-atom eccentricity intermediate: for every
// atom the largest distance to any other atom (+Inf when some atom is
// unreachable).
func NewEccentricity(explicitH, useBO, useAtomWeights bool) descriptor.Descriptor {
	return eccentricity{flags: graphFlags{explicitH, useBO, useAtomWeights}}
}

func (e eccentricity) Key() descriptor.Key { return e.flags.key(KindEccentricity) }
func (e eccentricity) Name() string        { return e.Key().String() }

func (eccentricity) ResultType() descriptor.ResultType { return descriptor.ResultIntermediate }

func (e eccentricity) Dependencies() map[string]descriptor.Ref {
	return map[string]descriptor.Ref{"D": e.flags.ref(KindDistanceMatrix)}
}

func (eccentricity) Calculate(_ context.Context, _ molecule.Molecule, args descriptor.Args) (interface{}, error) {
	m, err := descriptor.ArgAs[*Matrix](args, "D")
	if err != nil {
		return nil, err
	}
	n := m.Size()
	ecc := make([]float64, n)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			if i != j && m.At(i, j) > ecc[i] {
				ecc[i] = m.At(i, j)
			}
		}
	}
	return ecc, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// GraphRadius / GraphDiameter
// ─────────────────────────────────────────────────────────────────────────────

// extremum is the minimum (radius) or maximum (diameter) eccentricity. It is
// NaN for graphs with fewer than two atoms and for disconnected graphs.
type extremum struct {
	kind  string
	flags graphFlags
	max   bool
}

// NewGraphRadius returns the minimum-eccentricity intermediate.
func NewGraphRadius(explicitH, useBO, useAtomWeights bool) descriptor.Descriptor {
	return extremum{kind: KindGraphRadius, flags: graphFlags{explicitH, useBO, useAtomWeights}}
}

// NewGraphDiameter returns the maximum-eccentricity intermediate.
func NewGraphDiameter(explicitH, useBO, useAtomWeights bool) descriptor.Descriptor {
	return extremum{kind: KindGraphDiameter, flags: graphFlags{explicitH, useBO, useAtomWeights}, max: true}
}

func (x extremum) Key() descriptor.Key { return x.flags.key(x.kind) }
func (x extremum) Name() string        { return x.Key().String() }

func (extremum) ResultType() descriptor.ResultType { return descriptor.ResultIntermediate }

func (x extremum) Dependencies() map[string]descriptor.Ref {
	return map[string]descriptor.Ref{"E": x.flags.ref(KindEccentricity)}
}

func (x extremum) Calculate(_ context.Context, _ molecule.Molecule, args descriptor.Args) (interface{}, error) {
	ecc, err := descriptor.ArgAs[[]float64](args, "E")
	if err != nil {
		return nil, err
	}
	if len(ecc) < 2 {
		return math.NaN(), nil
	}
	best := ecc[0]
	for _, v := range ecc[1:] {
		if (x.max && v > best) || (!x.max && v < best) {
			best = v
		}
	}
	if math.IsInf(best, 0) {
		return math.NaN(), nil
	}
	return best, nil
}

func graphFactory(kind string, build func(explicitH, useBO, useAtomWeights bool) descriptor.Descriptor) descriptor.Factory {
	return func(params []string) (descriptor.Descriptor, error) {
		f, err := parseGraphFlags(kind, params)
		if err != nil {
			return nil, err
		}
		return build(f.explicitH, f.useBO, f.useWeights), nil
	}
}

//Personal.AI order the ending
