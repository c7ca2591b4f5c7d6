package toolkit

import (
	"github.com/turtacn/MolDescriptor/pkg/errors"
)

// kekulize returns a copy of g whose aromatic bonds are single or double.
// Aromatic atoms that still lack a pi bond after counting their sigma bonds
// and hydrogens must be covered by exactly one double bond; this is a perfect
// matching over the aromatic sub-graph of those atoms. Atom aromatic flags
// and hybridization are kept.
func kekulize(g *Graph) (*Graph, error) {
	out := g.clone()
	out.kekule = true

	hasAromatic := false
	for _, bd := range g.bonds {
		if bd.aromatic {
			hasAromatic = true
			break
		}
	}
	if !hasAromatic {
		return out, nil
	}

	needs := make([]bool, len(g.atoms))
	for i, a := range g.atoms {
		if !a.aromatic {
			continue
		}
		sum := a.hCount
		for _, bd := range g.bonds {
			if bd.begin != i && bd.end != i {
				continue
			}
			if bd.aromatic {
				sum++
			} else {
				sum += int(bd.order)
			}
		}
		for _, v := range chargedValences(a.num, a.charge) {
			if v >= sum {
				needs[i] = v-sum >= 1
				break
			}
		}
	}

	// adjacency over aromatic bonds between atoms that need a double bond
	adj := make([][]int, len(g.atoms)) // bond indices
	for bi, bd := range g.bonds {
		if bd.aromatic && needs[bd.begin] && needs[bd.end] {
			adj[bd.begin] = append(adj[bd.begin], bi)
			adj[bd.end] = append(adj[bd.end], bi)
		}
	}

	matched := make([]bool, len(g.atoms))
	double := make([]bool, len(g.bonds))
	if !matchAromatic(g, needs, adj, matched, double) {
		return nil, errors.New(errors.ErrCodeToolkitQueryFailed, "cannot kekulize molecule").
			WithDetail(g.smiles)
	}

	for bi := range out.bonds {
		if !out.bonds[bi].aromatic {
			continue
		}
		out.bonds[bi].aromatic = false
		if double[bi] {
			out.bonds[bi].order = 2
		} else {
			out.bonds[bi].order = 1
		}
	}
	return out, nil
}

// matchAromatic assigns double bonds by backtracking, always branching on the
// unmatched atom with the fewest candidate partners.
func matchAromatic(g *Graph, needs []bool, adj [][]int, matched, double []bool) bool {
	pick, best := -1, -1
	for i := range needs {
		if !needs[i] || matched[i] {
			continue
		}
		options := 0
		for _, bi := range adj[i] {
			if !matched[other(g.bonds[bi], i)] {
				options++
			}
		}
		if options == 0 {
			return false
		}
		if pick < 0 || options < best {
			pick, best = i, options
		}
	}
	if pick < 0 {
		return true
	}

	for _, bi := range adj[pick] {
		j := other(g.bonds[bi], pick)
		if matched[j] {
			continue
		}
		matched[pick], matched[j], double[bi] = true, true, true
		if matchAromatic(g, needs, adj, matched, double) {
			return true
		}
		matched[pick], matched[j], double[bi] = false, false, false
	}
	return false
}

func other(bd bondData, i int) int {
	if bd.begin == i {
		return bd.end
	}
	return bd.begin
}

//Personal.AI order the ending
