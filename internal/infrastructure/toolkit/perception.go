package toolkit

import (
	"github.com/turtacn/MolDescriptor/internal/domain/molecule"
)

// perceiveHybridization assigns a hybridization state from the VSEPR steric
// number (sigma partners plus lone pairs). Aromatic atoms are SP2, hydrogens
// and isolated atoms are S, and elements without a main-group electron count
// are Other.
func perceiveHybridization(g *Graph, i int) molecule.Hybridization {
	a := g.atoms[i]
	if a.num == 1 {
		return molecule.HybridizationS
	}
	degree := len(a.neighbors) + a.hCount
	if degree == 0 {
		return molecule.HybridizationS
	}
	if a.aromatic {
		return molecule.HybridizationSP2
	}
	e, ok := elements[a.num]
	if !ok || e.valenceElectrons == 0 {
		return molecule.HybridizationOther
	}

	bondSum := float64(a.hCount)
	for _, bd := range g.bonds {
		if bd.begin == i || bd.end == i {
			bondSum += bd.order
		}
	}
	lonePairs := (e.valenceElectrons - a.charge - int(bondSum+0.5)) / 2
	if lonePairs < 0 {
		lonePairs = 0
	}

	switch degree + lonePairs {
	case 1, 2:
		return molecule.HybridizationSP
	case 3:
		return molecule.HybridizationSP2
	case 4:
		return molecule.HybridizationSP3
	case 5:
		return molecule.HybridizationSP3D
	case 6:
		return molecule.HybridizationSP3D2
	default:
		return molecule.HybridizationOther
	}
}

// implicitHydrogens fills the lowest default valence that accommodates the
// explicit bonds. Aromatic atoms contribute one extra bond for the pi system.
func implicitHydrogens(num, charge int, bondSum int, aromatic bool) int {
	if aromatic {
		bondSum++
	}
	for _, v := range chargedValences(num, charge) {
		if v >= bondSum {
			return v - bondSum
		}
	}
	return 0
}

//Personal.AI order the ending
