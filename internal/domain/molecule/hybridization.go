package molecule

import (
	"fmt"
	"strings"
)

// Hybridization is the orbital hybridization state reported by a toolkit.
type Hybridization int

const (
	HybridizationUnspecified Hybridization = iota
	HybridizationS
	HybridizationSP
	HybridizationSP2
	HybridizationSP3
	HybridizationSP3D
	HybridizationSP3D2
	HybridizationOther
)

var hybridizationNames = [...]string{
	HybridizationUnspecified: "UNSPECIFIED",
	HybridizationS:           "S",
	HybridizationSP:          "SP",
	HybridizationSP2:         "SP2",
	HybridizationSP3:         "SP3",
	HybridizationSP3D:        "SP3D",
	HybridizationSP3D2:       "SP3D2",
	HybridizationOther:       "OTHER",
}

// String returns the upper-case name, e.g. "SP3".
func (h Hybridization) String() string {
	if h < 0 || int(h) >= len(hybridizationNames) {
		return fmt.Sprintf("Hybridization(%d)", int(h))
	}
	return hybridizationNames[h]
}

// ParseHybridization parses a case-insensitive hybridization name.
func ParseHybridization(s string) (Hybridization, error) {
	up := strings.ToUpper(strings.TrimSpace(s))
	for i, name := range hybridizationNames {
		if name == up {
			return Hybridization(i), nil
		}
	}
	return HybridizationUnspecified, fmt.Errorf("molecule: unknown hybridization %q", s)
}

// hybridizationRanks folds hybridization states into s-p ranks. SP3D and
// SP3D2 count as SP3. States absent from the table have no rank.
var hybridizationRanks = map[Hybridization]int{
	HybridizationSP:    1,
	HybridizationSP2:   2,
	HybridizationSP3:   3,
	HybridizationSP3D:  3,
	HybridizationSP3D2: 3,
}

// Rank returns the s-p rank (1, 2 or 3) and whether the state has one.
func (h Hybridization) Rank() (int, bool) {
	r, ok := hybridizationRanks[h]
	return r, ok
}

//Personal.AI order the ending
