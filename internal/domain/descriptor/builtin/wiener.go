package builtin

import (
	"context"
	"math"

	"github.com/turtacn/MolDescriptor/internal/domain/descriptor"
	"github.com/turtacn/MolDescriptor/internal/domain/molecule"
)

const KindWienerIndex = "WienerIndex"

// WienerIndex is half the sum of all pairwise distances (WPath) or half the
// number of ordered atom pairs three bonds apart (WPol).
type WienerIndex struct {
	polarity bool
}

func NewWienerIndex(polarity bool) *WienerIndex { return &WienerIndex{polarity: polarity} }

func (w *WienerIndex) Polarity() bool { return w.polarity }

func (w *WienerIndex) Key() descriptor.Key { return descriptor.NewKey(KindWienerIndex, w.polarity) }

func (w *WienerIndex) Name() string {
	if w.polarity {
		return "WPol"
	}
	return "WPath"
}

func (w *WienerIndex) ResultType() descriptor.ResultType { return descriptor.ResultInt }

func (w *WienerIndex) Dependencies() map[string]descriptor.Ref {
	return map[string]descriptor.Ref{"D": heavyGraph.ref(KindDistanceMatrix)}
}

// Calculate returns an int64, or NaN for WPath on a disconnected graph.
func (w *WienerIndex) Calculate(_ context.Context, _ molecule.Molecule, args descriptor.Args) (interface{}, error) {
	m, err := descriptor.ArgAs[*Matrix](args, "D")
	if err != nil {
		return nil, err
	}
	n := m.Size()
	if w.polarity {
		count := 0
		for i := 0; i < n; i++ {
			for j := 0; j < n; j++ {
				if m.At(i, j) == 3 {
					count++
				}
			}
		}
		return int64(0.5 * float64(count)), nil
	}

	sum := 0.0
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			sum += m.At(i, j)
		}
	}
	if math.IsInf(sum, 1) {
		return math.NaN(), nil
	}
	return int64(0.5 * sum), nil
}

func wienerFactory(params []string) (descriptor.Descriptor, error) {
	if err := descriptor.ExpectParams(KindWienerIndex, params, 1); err != nil {
		return nil, err
	}
	polarity, err := descriptor.ParseBoolParam(KindWienerIndex, "polarity", params[0])
	if err != nil {
		return nil, err
	}
	return NewWienerIndex(polarity), nil
}

//Personal.AI order the ending
