// Package nuc identifies nuclides and elements.
//
// Ids use the ZZZAAAMMMM convention: U235 is 922350000 and the element U is
// 920000000 (mass number and metastable state zeroed).
package nuc

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

// Nuc describes a nuclide (or element, when A and M are zero) in ZZZAAAMMMM format.
type Nuc int

// Untyped carries mass of unknown composition, such as material made from an
// empty recipe. Parse never returns it and no efficiency table can name it.
const Untyped Nuc = 0

// Id builds a nuclide id from its atomic number, mass number and metastable state.
func Id(z, a, m int) Nuc {
	return Nuc(z*10000000 + a*10000 + m)
}

// Z returns the atomic number of a nuclide.
func (n Nuc) Z() int {
	return int(n) / 10000000
}

// A returns the mass number of a nuclide.
func (n Nuc) A() int {
	return (int(n) / 10000) % 1000
}

// M returns the metastable state of a nuclide.
func (n Nuc) M() int {
	return int(n) % 10000
}

// Elem returns the element id of n with the sub-element digits zeroed.
func (n Nuc) Elem() Nuc {
	return Nuc(n.Z() * 10000000)
}

// IsElement reports whether n names a whole element rather than one nuclide.
func (n Nuc) IsElement() bool {
	return n.A() == 0 && n.M() == 0
}

func (n Nuc) String() string {
	if n == Untyped {
		return "untyped"
	}
	sym := Symbol(n.Z())
	if sym == "" {
		return strconv.Itoa(int(n))
	}
	if n.IsElement() {
		return sym
	}
	s := sym + strconv.Itoa(n.A())
	if n.M() > 0 {
		s += "m"
	}
	return s
}

// Symbol returns the chemical symbol for atomic number z, or "" if z is unknown.
func Symbol(z int) string {
	if z < 1 || z >= len(symbols) {
		return ""
	}
	return symbols[z]
}

// Parse converts a nuclide or element name into its id. Accepted forms are
// element symbols ("U", "pu"), nuclide names ("U235", "Pu-239", "Am242m"),
// and integer ids in either ZZAAA (92235) or ZZZAAAMMMM (922350000) form.
func Parse(name string) (Nuc, error) {
	s := strings.TrimSpace(name)
	s = strings.ReplaceAll(s, "-", "")
	if s == "" {
		return 0, fmt.Errorf("empty nuclide name")
	}

	if v, err := strconv.Atoi(s); err == nil {
		return fromInt(v)
	}

	i := 0
	for i < len(s) && unicode.IsLetter(rune(s[i])) {
		i++
	}
	sym, rest := s[:i], s[i:]
	z, ok := atomicNumbers[strings.ToLower(sym)]
	if !ok {
		return 0, fmt.Errorf("unknown element symbol %q in %q", sym, name)
	}
	if rest == "" {
		return Id(z, 0, 0), nil
	}

	m := 0
	if strings.HasSuffix(strings.ToLower(rest), "m") {
		m = 1
		rest = rest[:len(rest)-1]
	}
	a, err := strconv.Atoi(rest)
	if err != nil || a <= 0 || a >= 1000 {
		return 0, fmt.Errorf("invalid mass number in nuclide %q", name)
	}
	if a < z {
		return 0, fmt.Errorf("mass number %d below atomic number %d in nuclide %q", a, z, name)
	}
	return Id(z, a, m), nil
}

func fromInt(v int) (Nuc, error) {
	if v <= 0 {
		return 0, fmt.Errorf("invalid nuclide id %d", v)
	}
	var n Nuc
	if v < 10000000 {
		// ZZAAA form
		n = Id(v/1000, v%1000, 0)
	} else {
		n = Nuc(v)
	}
	if Symbol(n.Z()) == "" {
		return 0, fmt.Errorf("invalid atomic number in nuclide id %d", v)
	}
	return n, nil
}

// ParseMap converts a name-keyed table (as read from configuration) into a
// nuclide-keyed one. Two names resolving to the same id are rejected.
func ParseMap(named map[string]float64) (map[Nuc]float64, error) {
	out := make(map[Nuc]float64, len(named))
	for name, v := range named {
		n, err := Parse(name)
		if err != nil {
			return nil, err
		}
		if _, dup := out[n]; dup {
			return nil, fmt.Errorf("nuclide %s listed more than once", n)
		}
		out[n] = v
	}
	return out, nil
}

var symbols = []string{"",
	"H", "He", "Li", "Be", "B", "C", "N", "O", "F", "Ne",
	"Na", "Mg", "Al", "Si", "P", "S", "Cl", "Ar", "K", "Ca",
	"Sc", "Ti", "V", "Cr", "Mn", "Fe", "Co", "Ni", "Cu", "Zn",
	"Ga", "Ge", "As", "Se", "Br", "Kr", "Rb", "Sr", "Y", "Zr",
	"Nb", "Mo", "Tc", "Ru", "Rh", "Pd", "Ag", "Cd", "In", "Sn",
	"Sb", "Te", "I", "Xe", "Cs", "Ba", "La", "Ce", "Pr", "Nd",
	"Pm", "Sm", "Eu", "Gd", "Tb", "Dy", "Ho", "Er", "Tm", "Yb",
	"Lu", "Hf", "Ta", "W", "Re", "Os", "Ir", "Pt", "Au", "Hg",
	"Tl", "Pb", "Bi", "Po", "At", "Rn", "Fr", "Ra", "Ac", "Th",
	"Pa", "U", "Np", "Pu", "Am", "Cm", "Bk", "Cf", "Es", "Fm",
	"Md", "No", "Lr", "Rf", "Db", "Sg", "Bh", "Hs", "Mt", "Ds",
	"Rg", "Cn", "Nh", "Fl", "Mc", "Lv", "Ts", "Og",
}

var atomicNumbers = func() map[string]int {
	m := make(map[string]int, len(symbols))
	for z, sym := range symbols {
		if sym != "" {
			m[strings.ToLower(sym)] = z
		}
	}
	return m
}()
