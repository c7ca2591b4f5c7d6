package builtin

import (
	"context"
	"fmt"
	"math"

	"github.com/turtacn/MolDescriptor/internal/domain/descriptor"
	"github.com/turtacn/MolDescriptor/internal/domain/molecule"
	"github.com/turtacn/MolDescriptor/pkg/errors"
)

const (
	KindCarbonTypesCache   = "CarbonTypesCache"
	KindCarbonTypes        = "CarbonTypes"
	KindHybridizationRatio = "HybridizationRatio"
)

// OtherRank buckets carbons whose hybridization has no s-p rank (S,
// unspecified, other). They are counted but never reported by CarbonTypes or
// HybridizationRatio.
const OtherRank = 0

// ─────────────────────────────────────────────────────────────────────────────
// CarbonTypeTable
// ─────────────────────────────────────────────────────────────────────────────

// CarbonTypeTable counts carbons by hybridization rank and number of carbon
// neighbours. Absent cells read as zero. It is shared read-only by every
// consumer in a session.
type CarbonTypeTable struct {
	cells map[int]map[int]int
}

func newCarbonTypeTable() *CarbonTypeTable {
	return &CarbonTypeTable{cells: make(map[int]map[int]int)}
}

func (t *CarbonTypeTable) add(rank, nCarbon int) {
	row, ok := t.cells[rank]
	if !ok {
		row = make(map[int]int)
		t.cells[rank] = row
	}
	row[nCarbon]++
}

// Count returns the number of carbons with the given rank and carbon-neighbour
// count.
func (t *CarbonTypeTable) Count(rank, nCarbon int) int {
	return t.cells[rank][nCarbon]
}

// Sum returns the number of carbons with the given rank.
func (t *CarbonTypeTable) Sum(rank int) int {
	total := 0
	for _, n := range t.cells[rank] {
		total += n
	}
	return total
}

// Total returns the number of carbons classified, including OtherRank.
func (t *CarbonTypeTable) Total() int {
	total := 0
	for rank := range t.cells {
		total += t.Sum(rank)
	}
	return total
}

// ─────────────────────────────────────────────────────────────────────────────
// CarbonTypesCache
// ─────────────────────────────────────────────────────────────────────────────

// carbonTypesCache classifies the carbons of the Kekulé heavy-atom view.
type carbonTypesCache struct{}

// NewCarbonTypesCache returns the carbon classification intermediate.
func NewCarbonTypesCache() descriptor.Descriptor { return carbonTypesCache{} }

func (carbonTypesCache) Key() descriptor.Key { return descriptor.NewKey(KindCarbonTypesCache) }
func (c carbonTypesCache) Name() string      { return c.Key().String() }

func (carbonTypesCache) ResultType() descriptor.ResultType { return descriptor.ResultIntermediate }

func (carbonTypesCache) Dependencies() map[string]descriptor.Ref { return nil }

func (carbonTypesCache) Calculate(_ context.Context, mol molecule.Molecule, _ descriptor.Args) (interface{}, error) {
	view, err := mol.Kekulized()
	if err != nil {
		return nil, err
	}
	table := newCarbonTypeTable()
	for i := 0; i < view.NumAtoms(); i++ {
		atom := view.Atom(i)
		if atom.AtomicNum() != 6 {
			continue
		}
		rank, ok := atom.Hybridization().Rank()
		if !ok {
			rank = OtherRank
		}
		table.add(rank, molecule.CountNeighbors(view, i, 6))
	}
	return table, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// CarbonTypes
// ─────────────────────────────────────────────────────────────────────────────

// CarbonTypes counts SP<sp> carbons bonded to exactly nCarbon carbons.
type CarbonTypes struct {
	nCarbon int
	sp      int
}

// NewCarbonTypes validates nCarbon >= 1 and sp in {1, 2, 3}.
func NewCarbonTypes(nCarbon, sp int) (*CarbonTypes, error) {
	if sp < 1 || sp > 3 {
		return nil, errors.Newf(errors.ErrCodeInvalidParameter,
			"CarbonTypes: SP must be 1, 2 or 3, got %d", sp)
	}
	if nCarbon < 1 {
		return nil, errors.Newf(errors.ErrCodeInvalidParameter,
			"CarbonTypes: nCarbon must be >= 1, got %d", nCarbon)
	}
	return &CarbonTypes{nCarbon: nCarbon, sp: sp}, nil
}

func (c *CarbonTypes) NCarbon() int { return c.nCarbon }
func (c *CarbonTypes) SP() int      { return c.sp }

func (c *CarbonTypes) Key() descriptor.Key {
	return descriptor.NewKey(KindCarbonTypes, c.nCarbon, c.sp)
}

func (c *CarbonTypes) Name() string { return fmt.Sprintf("C%dSP%d", c.nCarbon, c.sp) }

func (c *CarbonTypes) ResultType() descriptor.ResultType { return descriptor.ResultInt }

func (c *CarbonTypes) Dependencies() map[string]descriptor.Ref {
	return map[string]descriptor.Ref{"CT": descriptor.Nested(NewCarbonTypesCache())}
}

func (c *CarbonTypes) Calculate(_ context.Context, _ molecule.Molecule, args descriptor.Args) (interface{}, error) {
	table, err := descriptor.ArgAs[*CarbonTypeTable](args, "CT")
	if err != nil {
		return nil, err
	}
	return int64(table.Count(c.sp, c.nCarbon)), nil
}

func carbonTypesPreset() []descriptor.Descriptor {
	pairs := [][2]int{
		{1, 1}, {2, 1},
		{1, 2}, {2, 2}, {3, 2},
		{1, 3}, {2, 3}, {3, 3}, {4, 3},
	}
	out := make([]descriptor.Descriptor, len(pairs))
	for i, p := range pairs {
		out[i] = &CarbonTypes{nCarbon: p[0], sp: p[1]}
	}
	return out
}

func carbonTypesFactory(params []string) (descriptor.Descriptor, error) {
	if err := descriptor.ExpectParams(KindCarbonTypes, params, 2); err != nil {
		return nil, err
	}
	n, err := descriptor.ParseIntParam(KindCarbonTypes, "nCarbon", params[0])
	if err != nil {
		return nil, err
	}
	sp, err := descriptor.ParseIntParam(KindCarbonTypes, "SP", params[1])
	if err != nil {
		return nil, err
	}
	return NewCarbonTypes(n, sp)
}

// ─────────────────────────────────────────────────────────────────────────────
// HybridizationRatio
// ─────────────────────────────────────────────────────────────────────────────

// HybridizationRatio is N(SP3) / (N(SP2) + N(SP3)), NaN when both are zero.
type HybridizationRatio struct{}

func NewHybridizationRatio() *HybridizationRatio { return &HybridizationRatio{} }

func (*HybridizationRatio) Key() descriptor.Key { return descriptor.NewKey(KindHybridizationRatio) }
func (*HybridizationRatio) Name() string        { return "HybRatio" }

func (*HybridizationRatio) ResultType() descriptor.ResultType { return descriptor.ResultFloat }

func (*HybridizationRatio) Dependencies() map[string]descriptor.Ref {
	return map[string]descriptor.Ref{"CT": descriptor.Nested(NewCarbonTypesCache())}
}

func (*HybridizationRatio) Calculate(_ context.Context, _ molecule.Molecule, args descriptor.Args) (interface{}, error) {
	table, err := descriptor.ArgAs[*CarbonTypeTable](args, "CT")
	if err != nil {
		return nil, err
	}
	sp3 := float64(table.Sum(3))
	sp2 := float64(table.Sum(2))
	if sp2+sp3 == 0 {
		return math.NaN(), nil
	}
	return sp3 / (sp2 + sp3), nil
}

//Personal.AI order the ending
