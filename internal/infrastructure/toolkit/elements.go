package toolkit

// element holds the per-element constants the toolkit needs.
type element struct {
	symbol string
	// valence electrons for main-group elements, 0 otherwise.
	valenceElectrons int
	// default valences for implicit-hydrogen assignment, ascending.
	valences []int
}

var elements = map[int]element{
	0:  {symbol: "*"},
	1:  {symbol: "H", valenceElectrons: 1, valences: []int{1}},
	2:  {symbol: "He"},
	3:  {symbol: "Li", valenceElectrons: 1},
	4:  {symbol: "Be", valenceElectrons: 2},
	5:  {symbol: "B", valenceElectrons: 3, valences: []int{3}},
	6:  {symbol: "C", valenceElectrons: 4, valences: []int{4}},
	7:  {symbol: "N", valenceElectrons: 5, valences: []int{3, 5}},
	8:  {symbol: "O", valenceElectrons: 6, valences: []int{2}},
	9:  {symbol: "F", valenceElectrons: 7, valences: []int{1}},
	10: {symbol: "Ne"},
	11: {symbol: "Na", valenceElectrons: 1},
	12: {symbol: "Mg", valenceElectrons: 2},
	13: {symbol: "Al", valenceElectrons: 3},
	14: {symbol: "Si", valenceElectrons: 4, valences: []int{4}},
	15: {symbol: "P", valenceElectrons: 5, valences: []int{3, 5}},
	16: {symbol: "S", valenceElectrons: 6, valences: []int{2, 4, 6}},
	17: {symbol: "Cl", valenceElectrons: 7, valences: []int{1}},
	18: {symbol: "Ar"},
	19: {symbol: "K", valenceElectrons: 1},
	20: {symbol: "Ca", valenceElectrons: 2},
	26: {symbol: "Fe"},
	29: {symbol: "Cu"},
	30: {symbol: "Zn"},
	32: {symbol: "Ge", valenceElectrons: 4},
	33: {symbol: "As", valenceElectrons: 5, valences: []int{3, 5}},
	34: {symbol: "Se", valenceElectrons: 6, valences: []int{2, 4, 6}},
	35: {symbol: "Br", valenceElectrons: 7, valences: []int{1}},
	50: {symbol: "Sn", valenceElectrons: 4},
	52: {symbol: "Te", valenceElectrons: 6, valences: []int{2, 4, 6}},
	53: {symbol: "I", valenceElectrons: 7, valences: []int{1, 3, 5}},
	78: {symbol: "Pt"},
}

var symbolToNumber = func() map[string]int {
	m := make(map[string]int, len(elements))
	for num, e := range elements {
		m[e.symbol] = num
	}
	return m
}()

// organicSubset lists the elements that may appear outside brackets.
var organicSubset = map[string]bool{
	"B": true, "C": true, "N": true, "O": true, "P": true, "S": true,
	"F": true, "Cl": true, "Br": true, "I": true, "*": true,
}

// aromaticSymbols lists lower-case aromatic symbols, bracketed or not.
var aromaticSymbols = map[string]string{
	"b": "B", "c": "C", "n": "N", "o": "O", "p": "P", "s": "S",
	"se": "Se", "as": "As", "te": "Te",
}

// AtomicNumber returns the atomic number for an element symbol.
func AtomicNumber(symbol string) (int, bool) {
	n, ok := symbolToNumber[symbol]
	return n, ok
}

// isPeriodTwo reports whether the element sits in the second period.
func isPeriodTwo(num int) bool {
	return num >= 3 && num <= 10
}

// chargedValences shifts default valences for charged atoms using the
// isoelectronic rule (N+ behaves like C, O+ like N, C- like N).
func chargedValences(num, charge int) []int {
	e, ok := elements[num]
	if !ok || len(e.valences) == 0 {
		return nil
	}
	if charge == 0 {
		return e.valences
	}
	var shift int
	switch {
	case e.valenceElectrons < 4:
		shift = -charge
	case e.valenceElectrons == 4:
		shift = -abs(charge)
	default:
		shift = charge
	}
	out := make([]int, 0, len(e.valences))
	for _, v := range e.valences {
		if v+shift >= 0 {
			out = append(out, v+shift)
		}
	}
	return out
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

//Personal.AI order the ending
