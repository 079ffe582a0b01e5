// Package shape represents tensor shapes as ordered sequences of dim
// atoms (a concrete integer or a symbolic dim-var id) and unifies them
// through a union-find solver.
//
// The solver is adapted from the Kruskal MST implementation's disjoint-set
// structure in the graph library this engine is built from (parent/rank
// maps, path-compressed iterative find, union-by-rank merge) — here the
// "vertices" being unioned are dim-var ids instead of graph vertex ids,
// and each class additionally carries an optional concrete integer
// binding that the spec's unification rule requires.
package shape

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/lucidgraph/symbolic/enginerr"
	"github.com/lucidgraph/symbolic/symtab"
)

// AtomKind distinguishes a concrete dim from a symbolic one.
type AtomKind uint8

const (
	// KindConcrete marks an atom as a fixed non-negative integer.
	KindConcrete AtomKind = iota
	// KindVar marks an atom as a symbolic dim-var id, resolved by a Solver.
	KindVar
)

// Atom is one position in a shape Term: either a concrete dim or a dim-var.
type Atom struct {
	Kind     AtomKind
	Concrete int64
	Var      symtab.DimID
}

// ConcreteAtom builds a concrete dim atom.
func ConcreteAtom(n int64) Atom { return Atom{Kind: KindConcrete, Concrete: n} }

// VarAtom builds a symbolic dim-var atom.
func VarAtom(d symtab.DimID) Atom { return Atom{Kind: KindVar, Var: d} }

// Term is a finite ordered sequence of dim atoms, the shape of one port.
//
// Two special forms exist, per the spec:
//   - Scalar: the "--" marker (no shape at all; Atoms is always empty).
//   - Variadic prefix: an unresolved-length prefix that elides to a
//     concrete (possibly empty after binding, but declared non-empty by
//     convention) sub-term once unified against a rank with excess dims.
//     VariadicBound is nil until the first unification fixes its length;
//     thereafter further unifications with the same Term must agree with
//     VariadicBound positionally.
type Term struct {
	Scalar        bool
	HasVariadic   bool
	VariadicBound []Atom // resolved prefix once bound; nil while unresolved
	Fixed         []Atom // the declared fixed-rank suffix (or the whole shape, if !HasVariadic)
}

// ScalarTerm is the canonical "--" shape.
func ScalarTerm() Term { return Term{Scalar: true} }

// FixedTerm builds a plain, fully fixed-rank shape term.
func FixedTerm(atoms ...Atom) Term { return Term{Fixed: atoms} }

// VariadicTerm builds a term with an elidable prefix and a fixed suffix.
func VariadicTerm(fixedSuffix ...Atom) Term {
	return Term{HasVariadic: true, Fixed: fixedSuffix}
}

// Rank returns the term's resolved length, or -1 if it has an unbound
// variadic prefix.
func (t Term) Rank() int {
	if t.Scalar {
		return 0
	}
	if t.HasVariadic {
		if t.VariadicBound == nil {
			return -1
		}
		return len(t.VariadicBound) + len(t.Fixed)
	}
	return len(t.Fixed)
}

// classID is the internal union-find node id.
type classID uint32

// Solver is the union-find engine over dim-var ids, with an optional
// concrete integer binding per equivalence class. One Solver is owned
// exclusively by a single inference run (SPEC_FULL.md §5): its mutations
// are never observed outside that run.
type Solver struct {
	parent   []classID
	rank     []int
	concrete []*int64 // nil = unbound, else pointer to the bound value

	dimToClass map[symtab.DimID]classID
}

// NewSolver returns an empty Solver.
func NewSolver() *Solver {
	return &Solver{dimToClass: make(map[symtab.DimID]classID)}
}

// classOf returns the class for d, allocating a fresh singleton class the
// first time d is seen.
func (s *Solver) classOf(d symtab.DimID) classID {
	if c, ok := s.dimToClass[d]; ok {
		return c
	}
	c := classID(len(s.parent))
	s.parent = append(s.parent, c)
	s.rank = append(s.rank, 0)
	s.concrete = append(s.concrete, nil)
	s.dimToClass[d] = c
	return c
}

// find returns the representative of c's class, compressing the path.
func (s *Solver) find(c classID) classID {
	for s.parent[c] != c {
		s.parent[c] = s.parent[s.parent[c]]
		c = s.parent[c]
	}
	return c
}

// union merges the classes of two dim-vars, reconciling concrete
// bindings. Returns enginerr.ErrDimMismatch if both sides are already
// bound to different integers.
func (s *Solver) union(d1, d2 symtab.DimID) error {
	c1, c2 := s.find(s.classOf(d1)), s.find(s.classOf(d2))
	if c1 == c2 {
		return nil
	}

	bound1, bound2 := s.concrete[c1], s.concrete[c2]
	if bound1 != nil && bound2 != nil && *bound1 != *bound2 {
		return enginerr.ErrDimMismatch
	}

	// Union by rank; carry forward whichever side (if either) has a
	// concrete binding onto the surviving root.
	var merged *int64
	if bound1 != nil {
		merged = bound1
	} else {
		merged = bound2
	}

	if s.rank[c1] < s.rank[c2] {
		c1, c2 = c2, c1
	}
	s.parent[c2] = c1
	if s.rank[c1] == s.rank[c2] {
		s.rank[c1]++
	}
	s.concrete[c1] = merged
	return nil
}

// bindConcrete constrains d's class to the concrete integer v, failing
// with ErrDimMismatch if the class is already bound to a different value.
func (s *Solver) bindConcrete(d symtab.DimID, v int64) error {
	c := s.find(s.classOf(d))
	if s.concrete[c] != nil && *s.concrete[c] != v {
		return enginerr.ErrDimMismatch
	}
	bound := v
	s.concrete[c] = &bound
	return nil
}

// unifyAtom unifies two dim atoms per the spec's three cases:
// (concrete,concrete) equality check; (var,concrete) binds the class;
// (var,var) unions the classes.
func (s *Solver) unifyAtom(a, b Atom) error {
	switch {
	case a.Kind == KindConcrete && b.Kind == KindConcrete:
		if a.Concrete != b.Concrete {
			return enginerr.ErrDimMismatch
		}
		return nil
	case a.Kind == KindVar && b.Kind == KindConcrete:
		return s.bindConcrete(a.Var, b.Concrete)
	case a.Kind == KindConcrete && b.Kind == KindVar:
		return s.bindConcrete(b.Var, a.Concrete)
	default: // both vars
		return s.union(a.Var, b.Var)
	}
}

// Unify enforces equality of two shape terms: resolves any variadic
// markers, requires equal rank, then unifies atoms positionally.
// Failure kinds are enginerr.ErrRankMismatch and enginerr.ErrDimMismatch.
//
// t1 and t2 are taken by pointer and mutated in place when either side
// has an unbound variadic prefix: the caller is expected to hold each
// port's Term in a stable field (e.g. Port.Shape) and pass its address,
// so that a prefix bound by one connection is still visible the next
// time that same port's Term is unified against something else. Passing
// the address of a throwaway local loses that persistence.
func Unify(s *Solver, t1, t2 *Term) error {
	if t1.Scalar || t2.Scalar {
		if t1.Scalar && t2.Scalar {
			return nil
		}
		return enginerr.ErrRankMismatch
	}

	switch {
	case t1.HasVariadic && !t2.HasVariadic:
		return unifyVariadic(s, t1, t2.Fixed)
	case t2.HasVariadic && !t1.HasVariadic:
		return unifyVariadic(s, t2, t1.Fixed)
	case t1.HasVariadic && t2.HasVariadic:
		return unifyBothVariadic(s, t1, t2)
	default:
		if len(t1.Fixed) != len(t2.Fixed) {
			return enginerr.ErrRankMismatch
		}
		for i := range t1.Fixed {
			if err := s.unifyAtom(t1.Fixed[i], t2.Fixed[i]); err != nil {
				return err
			}
		}
		return nil
	}
}

// unifyVariadic unifies a variadic term v against a fully fixed-rank
// term's atoms: the excess prefix (beyond v's declared fixed suffix)
// binds v's VariadicBound; the fixed suffix is unified positionally.
func unifyVariadic(s *Solver, v *Term, other []Atom) error {
	suffixLen := len(v.Fixed)
	if len(other) < suffixLen {
		return enginerr.ErrRankMismatch
	}
	prefix := other[:len(other)-suffixLen]
	suffix := other[len(other)-suffixLen:]

	if v.VariadicBound == nil {
		v.VariadicBound = append([]Atom(nil), prefix...)
	} else {
		if len(v.VariadicBound) != len(prefix) {
			return enginerr.ErrRankMismatch
		}
		for i := range prefix {
			if err := s.unifyAtom(v.VariadicBound[i], prefix[i]); err != nil {
				return err
			}
		}
	}
	for i := range suffix {
		if err := s.unifyAtom(v.Fixed[i], suffix[i]); err != nil {
			return err
		}
	}
	return nil
}

// unifyBothVariadic unifies two variadic terms: their fixed suffixes must
// unify and, if both already have a bound prefix, those bound prefixes
// must agree positionally (same length and atoms). If only one side is
// bound, its prefix is copied onto the other.
func unifyBothVariadic(s *Solver, a, b *Term) error {
	if len(a.Fixed) != len(b.Fixed) {
		return enginerr.ErrRankMismatch
	}
	for i := range a.Fixed {
		if err := s.unifyAtom(a.Fixed[i], b.Fixed[i]); err != nil {
			return err
		}
	}
	switch {
	case a.VariadicBound == nil && b.VariadicBound == nil:
		return nil
	case a.VariadicBound != nil && b.VariadicBound == nil:
		b.VariadicBound = append([]Atom(nil), a.VariadicBound...)
		return nil
	case a.VariadicBound == nil && b.VariadicBound != nil:
		a.VariadicBound = append([]Atom(nil), b.VariadicBound...)
		return nil
	default:
		if len(a.VariadicBound) != len(b.VariadicBound) {
			return enginerr.ErrRankMismatch
		}
		for i := range a.VariadicBound {
			if err := s.unifyAtom(a.VariadicBound[i], b.VariadicBound[i]); err != nil {
				return err
			}
		}
		return nil
	}
}

// Resolve returns a copy of t with every var atom's concrete binding (if
// any) substituted in place. Unbound vars are left as-is.
func (s *Solver) Resolve(t Term) Term {
	if t.Scalar {
		return t
	}
	out := Term{HasVariadic: t.HasVariadic}
	if t.HasVariadic && t.VariadicBound != nil {
		out.VariadicBound = s.resolveAtoms(t.VariadicBound)
	}
	out.Fixed = s.resolveAtoms(t.Fixed)
	return out
}

func (s *Solver) resolveAtoms(atoms []Atom) []Atom {
	out := make([]Atom, len(atoms))
	for i, a := range atoms {
		out[i] = a
		if a.Kind == KindVar {
			c := s.find(s.classOf(a.Var))
			if s.concrete[c] != nil {
				out[i] = ConcreteAtom(*s.concrete[c])
			}
		}
	}
	return out
}

// Namer assigns canonical, first-seen-order "uN" labels to dim-var
// classes within one composite scope, per the spec's finalization rule
// ("canonicalize dim-var naming per composite, first-seen order"). A
// fresh Namer should be created per composite at summary/finalization
// time; it is not meant to be reused across composites.
type Namer struct {
	solver *Solver
	labels map[classID]int
	next   int
}

// NewNamer returns a Namer bound to solver, with no labels assigned yet.
func NewNamer(solver *Solver) *Namer {
	return &Namer{solver: solver, labels: make(map[classID]int)}
}

// Label returns the display string for a dim atom: its concrete value if
// bound, else a canonical "uN" label, assigned in first-seen order
// within this Namer's lifetime.
func (n *Namer) Label(a Atom) string {
	if a.Kind == KindConcrete {
		return strconv.FormatInt(a.Concrete, 10)
	}
	c := n.solver.find(n.solver.classOf(a.Var))
	if bound := n.solver.concrete[c]; bound != nil {
		return strconv.FormatInt(*bound, 10)
	}
	idx, ok := n.labels[c]
	if !ok {
		n.next++
		idx = n.next
		n.labels[c] = idx
	}
	return fmt.Sprintf("u%d", idx)
}

// String renders t using n for dim-var labels, e.g. "[u1, u2, 3]" or
// "--" for a scalar term. An unbound variadic prefix renders as a
// leading "...".
func (t Term) String(n *Namer) string {
	if t.Scalar {
		return "--"
	}

	var parts []string
	if t.HasVariadic {
		if t.VariadicBound != nil {
			for _, a := range t.VariadicBound {
				parts = append(parts, n.Label(a))
			}
		} else {
			parts = append(parts, "...")
		}
	}
	for _, a := range t.Fixed {
		parts = append(parts, n.Label(a))
	}
	return "[" + strings.Join(parts, ", ") + "]"
}
