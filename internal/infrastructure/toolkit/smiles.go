package toolkit

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/turtacn/MolDescriptor/pkg/errors"
)

// ParseSMILES parses a SMILES string into a Graph identified by the SMILES
// text itself.
func ParseSMILES(smiles string) (*Graph, error) {
	return ParseSMILESWithID(smiles, smiles)
}

// ParseSMILESWithID parses a SMILES string into a Graph with the given
// identity. Supported syntax: organic-subset and bracket atoms (isotope,
// chirality, hydrogen count, charge), branches, ring closures including the
// %nn form, bond symbols - = # : / \ and dot-separated fragments.
func ParseSMILESWithID(id, smiles string) (*Graph, error) {
	s := strings.TrimSpace(smiles)
	if s == "" {
		return nil, errors.New(errors.ErrCodeMoleculeEmpty, "empty SMILES")
	}
	p := &smilesParser{src: s, prev: -1, rings: make(map[int]ringOpen)}
	if err := p.parse(); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeMoleculeInvalidSMILES, "invalid SMILES").
			WithDetail(s)
	}
	p.foldHydrogens()

	b := NewBuilder(id)
	b.smiles = s
	for _, pa := range p.atoms {
		opts := []AtomOption{WithCharge(pa.charge)}
		if pa.aromatic {
			opts = append(opts, Aromatic())
		}
		idx := b.AddAtom(pa.symbol, opts...)
		b.atoms[idx].hCount = pa.hCount
	}
	for _, pb := range p.bonds {
		b.AddBond(pb.a, pb.b, pb.order)
	}
	if b.err != nil {
		return nil, errors.Wrap(b.err, errors.ErrCodeMoleculeInvalidSMILES, "invalid SMILES").
			WithDetail(s)
	}

	// Organic-subset atoms get implicit hydrogens once all bonds are known.
	bondSums := make([]int, len(p.atoms))
	for _, pb := range p.bonds {
		v := int(pb.order)
		if pb.order == 1.5 {
			v = 1
		}
		bondSums[pb.a] += v
		bondSums[pb.b] += v
	}
	for i, pa := range p.atoms {
		if !pa.bracket {
			b.atoms[i].hCount = implicitHydrogens(pa.num, pa.charge, bondSums[i], pa.aromatic)
		}
	}

	g, err := b.Build()
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeMoleculeInvalidSMILES, "invalid SMILES").
			WithDetail(s)
	}
	return g, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Parser
// ─────────────────────────────────────────────────────────────────────────────

type parsedAtom struct {
	symbol   string
	num      int
	aromatic bool
	bracket  bool
	hCount   int
	charge   int
}

type parsedBond struct {
	a, b  int
	order float64
}

type ringOpen struct {
	atom int
	bond byte
	pos  int
}

type smilesParser struct {
	src     string
	pos     int
	atoms   []parsedAtom
	bonds   []parsedBond
	rings   map[int]ringOpen
	branch  []int
	prev    int
	pending byte
}

func (p *smilesParser) parse() error {
	for p.pos < len(p.src) {
		ch := p.src[p.pos]
		switch {
		case ch == '(':
			if p.prev < 0 {
				return fmt.Errorf("branch without a preceding atom at position %d", p.pos)
			}
			p.branch = append(p.branch, p.prev)
			p.pos++

		case ch == ')':
			if len(p.branch) == 0 {
				return fmt.Errorf("unbalanced ')' at position %d", p.pos)
			}
			if p.pending != 0 {
				return fmt.Errorf("dangling bond before ')' at position %d", p.pos)
			}
			p.prev = p.branch[len(p.branch)-1]
			p.branch = p.branch[:len(p.branch)-1]
			p.pos++

		case strings.IndexByte(`-=#:/\`, ch) >= 0:
			if p.pending != 0 {
				return fmt.Errorf("consecutive bond symbols at position %d", p.pos)
			}
			p.pending = ch
			p.pos++

		case ch == '$':
			return fmt.Errorf("quadruple bonds are not supported (position %d)", p.pos)

		case ch == '.':
			if p.pending != 0 {
				return fmt.Errorf("dangling bond before '.' at position %d", p.pos)
			}
			p.prev = -1
			p.pos++

		case ch == '%' || (ch >= '0' && ch <= '9'):
			if err := p.ringClosure(); err != nil {
				return err
			}

		case ch == '[':
			if err := p.bracketAtom(); err != nil {
				return err
			}

		case ch == '*' || unicode.IsLetter(rune(ch)):
			if err := p.organicAtom(); err != nil {
				return err
			}

		default:
			return fmt.Errorf("unexpected character %q at position %d", ch, p.pos)
		}
	}

	if len(p.branch) > 0 {
		return fmt.Errorf("unclosed branch")
	}
	if p.pending != 0 {
		return fmt.Errorf("dangling bond at end of input")
	}
	for num, open := range p.rings {
		return fmt.Errorf("unclosed ring %d opened at position %d", num, open.pos)
	}
	if len(p.atoms) == 0 {
		return fmt.Errorf("no atoms")
	}
	return nil
}

func (p *smilesParser) ringClosure() error {
	start := p.pos
	var num int
	if p.src[p.pos] == '%' {
		if p.pos+2 >= len(p.src) || !isDigit(p.src[p.pos+1]) || !isDigit(p.src[p.pos+2]) {
			return fmt.Errorf("malformed %%nn ring closure at position %d", p.pos)
		}
		num = int(p.src[p.pos+1]-'0')*10 + int(p.src[p.pos+2]-'0')
		p.pos += 3
	} else {
		num = int(p.src[p.pos] - '0')
		p.pos++
	}
	if p.prev < 0 {
		return fmt.Errorf("ring closure without a preceding atom at position %d", start)
	}

	open, ok := p.rings[num]
	if !ok {
		p.rings[num] = ringOpen{atom: p.prev, bond: p.pending, pos: start}
		p.pending = 0
		return nil
	}
	delete(p.rings, num)

	sym := p.pending
	if sym == 0 {
		sym = open.bond
	} else if open.bond != 0 && bondOrder(open.bond) != bondOrder(sym) {
		return fmt.Errorf("conflicting bond symbols for ring %d", num)
	}
	p.pending = 0
	if open.atom == p.prev {
		return fmt.Errorf("ring %d closes on its own atom", num)
	}
	for _, b := range p.bonds {
		if (b.a == open.atom && b.b == p.prev) || (b.a == p.prev && b.b == open.atom) {
			return fmt.Errorf("ring %d duplicates an existing bond", num)
		}
	}
	p.bonds = append(p.bonds, parsedBond{a: open.atom, b: p.prev, order: p.resolveOrder(sym, open.atom, p.prev)})
	return nil
}

func (p *smilesParser) organicAtom() error {
	start := p.pos
	ch := p.src[p.pos]
	var symbol string
	aromatic := false

	switch {
	case ch == '*':
		symbol = "*"
		p.pos++
	case unicode.IsLower(rune(ch)):
		sym, ok := aromaticSymbols[string(ch)]
		if !ok {
			return fmt.Errorf("unknown aromatic symbol %q at position %d", ch, start)
		}
		symbol, aromatic = sym, true
		p.pos++
	default:
		if p.pos+1 < len(p.src) {
			two := p.src[p.pos : p.pos+2]
			if organicSubset[two] {
				symbol = two
				p.pos += 2
				break
			}
		}
		symbol = string(ch)
		p.pos++
	}
	if !organicSubset[symbol] {
		return fmt.Errorf("element %q must be bracketed (position %d)", symbol, start)
	}
	num, _ := AtomicNumber(symbol)
	p.addAtom(parsedAtom{symbol: symbol, num: num, aromatic: aromatic})
	return nil
}

func (p *smilesParser) bracketAtom() error {
	start := p.pos
	end := strings.IndexByte(p.src[p.pos:], ']')
	if end < 0 {
		return fmt.Errorf("unclosed bracket at position %d", start)
	}
	body := p.src[p.pos+1 : p.pos+end]
	p.pos += end + 1

	i := 0
	for i < len(body) && isDigit(body[i]) {
		i++ // isotope
	}
	if i >= len(body) {
		return fmt.Errorf("bracket atom without element at position %d", start)
	}

	atom := parsedAtom{bracket: true}
	switch {
	case body[i] == '*':
		atom.symbol = "*"
		i++
	case unicode.IsLower(rune(body[i])):
		if i+1 < len(body) {
			if sym, ok := aromaticSymbols[body[i:i+2]]; ok {
				atom.symbol, atom.aromatic = sym, true
				i += 2
				break
			}
		}
		sym, ok := aromaticSymbols[body[i:i+1]]
		if !ok {
			return fmt.Errorf("unknown aromatic symbol in [%s]", body)
		}
		atom.symbol, atom.aromatic = sym, true
		i++
	case unicode.IsUpper(rune(body[i])):
		if i+1 < len(body) && unicode.IsLower(rune(body[i+1])) {
			if _, ok := AtomicNumber(body[i : i+2]); ok {
				atom.symbol = body[i : i+2]
				i += 2
				break
			}
		}
		atom.symbol = body[i : i+1]
		i++
	default:
		return fmt.Errorf("malformed bracket atom [%s]", body)
	}
	num, ok := AtomicNumber(atom.symbol)
	if !ok {
		return fmt.Errorf("unknown element %q in [%s]", atom.symbol, body)
	}
	atom.num = num

	for i < len(body) && body[i] == '@' {
		i++ // chirality carries no topological information
	}
	if i < len(body) && body[i] == 'H' {
		i++
		atom.hCount = 1
		if i < len(body) && isDigit(body[i]) {
			atom.hCount = int(body[i] - '0')
			i++
		}
	}
	if i < len(body) && (body[i] == '+' || body[i] == '-') {
		sign := 1
		if body[i] == '-' {
			sign = -1
		}
		c := body[i]
		i++
		magnitude := 1
		switch {
		case i < len(body) && isDigit(body[i]):
			magnitude = int(body[i] - '0')
			i++
		default:
			for i < len(body) && body[i] == c {
				magnitude++
				i++
			}
		}
		atom.charge = sign * magnitude
	}
	if i < len(body) && body[i] == ':' {
		i++
		for i < len(body) && isDigit(body[i]) {
			i++ // atom class
		}
	}
	if i != len(body) {
		return fmt.Errorf("trailing characters in [%s]", body)
	}
	p.addAtom(atom)
	return nil
}

func (p *smilesParser) addAtom(a parsedAtom) {
	idx := len(p.atoms)
	p.atoms = append(p.atoms, a)
	if p.prev >= 0 {
		p.bonds = append(p.bonds, parsedBond{a: p.prev, b: idx, order: p.resolveOrder(p.pending, p.prev, idx)})
	}
	p.pending = 0
	p.prev = idx
}

// resolveOrder maps a bond symbol to an order. An implicit bond between two
// aromatic atoms is aromatic.
func (p *smilesParser) resolveOrder(sym byte, i, j int) float64 {
	if sym == 0 {
		if p.atoms[i].aromatic && p.atoms[j].aromatic {
			return 1.5
		}
		return 1
	}
	return bondOrder(sym)
}

func bondOrder(sym byte) float64 {
	switch sym {
	case '=':
		return 2
	case '#':
		return 3
	case ':':
		return 1.5
	default:
		return 1
	}
}

// foldHydrogens turns written hydrogen atoms such as [H] or [2H] into
// hydrogen counts on their neighbour, so the parsed graph is the heavy-atom
// graph. A hydrogen is kept as an atom when it is charged, carries its own
// hydrogens, is not bonded to exactly one atom by a single bond, or is
// bonded to another hydrogen.
func (p *smilesParser) foldHydrogens() {
	degree := make([]int, len(p.atoms))
	for _, b := range p.bonds {
		degree[b.a]++
		degree[b.b]++
	}
	isH := func(i int) bool { return p.atoms[i].num == 1 }

	folded := make([]bool, len(p.atoms))
	changed := false
	for _, b := range p.bonds {
		for _, pair := range [2][2]int{{b.a, b.b}, {b.b, b.a}} {
			h, heavy := pair[0], pair[1]
			a := p.atoms[h]
			if !isH(h) || isH(heavy) || !a.bracket || a.charge != 0 || a.hCount != 0 ||
				degree[h] != 1 || b.order != 1 {
				continue
			}
			folded[h] = true
			changed = true
			if p.atoms[heavy].bracket {
				p.atoms[heavy].hCount++
			}
		}
	}
	if !changed {
		return
	}

	remap := make([]int, len(p.atoms))
	atoms := p.atoms[:0:0]
	for i, a := range p.atoms {
		if folded[i] {
			remap[i] = -1
			continue
		}
		remap[i] = len(atoms)
		atoms = append(atoms, a)
	}
	bonds := p.bonds[:0:0]
	for _, b := range p.bonds {
		if folded[b.a] || folded[b.b] {
			continue
		}
		bonds = append(bonds, parsedBond{a: remap[b.a], b: remap[b.b], order: b.order})
	}
	p.atoms, p.bonds = atoms, bonds
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

//Personal.AI order the ending
