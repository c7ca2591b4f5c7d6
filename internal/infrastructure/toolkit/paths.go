package toolkit

import (
	"context"
	"math"
)

// ShortestPaths computes all-pairs shortest paths with Floyd-Warshall.
// Edges weigh 1, or 1/order when useBondOrder is set. With useAtomWeights the
// diagonal holds 6/atomicNum (0 for dummy atoms); otherwise it is 0. The
// context is checked once per pivot.
func (g *Graph) ShortestPaths(ctx context.Context, useBondOrder, useAtomWeights bool) ([][]float64, error) {
	n := len(g.atoms)
	inf := math.Inf(1)

	d := make([][]float64, n)
	for i := range d {
		d[i] = make([]float64, n)
		for j := range d[i] {
			if i != j {
				d[i][j] = inf
			}
		}
	}
	for _, bd := range g.bonds {
		w := 1.0
		if useBondOrder {
			w = 1 / bd.order
		}
		if w < d[bd.begin][bd.end] {
			d[bd.begin][bd.end] = w
			d[bd.end][bd.begin] = w
		}
	}

	for k := 0; k < n; k++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		dk := d[k]
		for i := 0; i < n; i++ {
			dik := d[i][k]
			if math.IsInf(dik, 1) {
				continue
			}
			di := d[i]
			for j := 0; j < n; j++ {
				if v := dik + dk[j]; v < di[j] {
					di[j] = v
				}
			}
		}
	}

	if useAtomWeights {
		for i, a := range g.atoms {
			if a.num > 0 {
				d[i][i] = 6 / float64(a.num)
			}
		}
	}
	return d, nil
}

//Personal.AI order the ending
