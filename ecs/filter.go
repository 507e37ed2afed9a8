package ecs

import "strings"

// clause matches a mask when mask & selector == value.
type clause struct {
	selector Bitmask
	value    Bitmask
}

func (c clause) matches(mask Bitmask) bool {
	return mask.MaskedEqual(c.selector, c.value)
}

// covers reports whether every mask matched by o is also matched by c.
func (c clause) covers(o clause) bool {
	return o.selector.ContainsAll(c.selector) && o.value.And(c.selector).Equal(c.value)
}

// Filter is a compiled filter expression: a disjunction of clauses,
// each comparing the masked bits of an entity against a fixed value.
// A Filter with no clauses matches nothing.
type Filter struct {
	source  Expr
	clauses []clause
	match   func(Bitmask) bool
}

// CompileFilter turns a term into clause form. Compilation is pure and the
// resulting Filter is safe for concurrent use.
func CompileFilter(t Term) *Filter {
	e := t.expr()
	f := &Filter{
		source:  e,
		clauses: prune(compileClauses(e)),
	}
	f.match = f.specialize()
	return f
}

func compileClauses(e Expr) []clause {
	switch e.kind {
	case KindTrue:
		return []clause{{}}
	case KindFalse:
		return nil
	case KindLiteral:
		return []clause{{selector: e.lit.bit, value: e.lit.bit}}
	case KindNot:
		return []clause{{selector: e.lit.bit}}
	case KindOr:
		var out []clause
		for _, t := range e.terms {
			out = append(out, compileClauses(t)...)
		}
		return out
	case KindAnd:
		acc := []clause{{}}
		for _, t := range e.terms {
			acc = cross(acc, compileClauses(t))
			if len(acc) == 0 {
				return nil
			}
		}
		return acc
	}
	return nil
}

// cross combines every pair of clauses, dropping pairs that disagree on a bit
// both of them select.
func cross(left, right []clause) []clause {
	out := make([]clause, 0, len(left)*len(right))
	for _, l := range left {
		for _, r := range right {
			common := l.selector.And(r.selector)
			if !l.value.And(common).Equal(r.value.And(common)) {
				continue
			}
			out = append(out, clause{
				selector: l.selector.Or(r.selector),
				value:    l.value.Or(r.value),
			})
		}
	}
	return out
}

// prune removes clauses that are equal to or covered by another clause.
func prune(clauses []clause) []clause {
	out := make([]clause, 0, len(clauses))
next:
	for _, c := range clauses {
		for i, kept := range out {
			if kept.covers(c) {
				continue next
			}
			if c.covers(kept) {
				out[i] = c
				out = dropCovered(out, i)
				continue next
			}
		}
		out = append(out, c)
	}
	return out
}

// dropCovered removes every clause after position keep that out[keep] covers.
func dropCovered(out []clause, keep int) []clause {
	n := keep + 1
	for _, c := range out[keep+1:] {
		if !out[keep].covers(c) {
			out[n] = c
			n++
		}
	}
	return out[:n]
}

func (f *Filter) specialize() func(Bitmask) bool {
	switch {
	case len(f.clauses) == 0:
		return func(Bitmask) bool { return false }
	case len(f.clauses) == 1 && f.clauses[0].selector.IsZero():
		return func(Bitmask) bool { return true }
	case len(f.clauses) == 1:
		c := f.clauses[0]
		return c.matches
	}
	clauses := f.clauses
	return func(mask Bitmask) bool {
		for _, c := range clauses {
			if c.matches(mask) {
				return true
			}
		}
		return false
	}
}

// Matches reports whether an entity with the given presence mask passes the
// filter.
func (f *Filter) Matches(mask Bitmask) bool {
	return f.match(mask)
}

// Expr returns the expression the filter was compiled from.
func (f *Filter) Expr() Expr {
	return f.source
}

// Clause is an exported view of one compiled clause.
type Clause struct {
	Selector Bitmask
	Value    Bitmask
}

// Clauses returns the compiled clauses.
func (f *Filter) Clauses() []Clause {
	out := make([]Clause, len(f.clauses))
	for i, c := range f.clauses {
		out[i] = Clause{Selector: c.selector, Value: c.value}
	}
	return out
}

// FormatClauses renders each clause as a string, most significant bit first,
// with '.' for bits the clause ignores and the required value otherwise.
func (f *Filter) FormatClauses() []string {
	width := 0
	for _, c := range f.clauses {
		width = max(width, c.selector.Len())
	}
	out := make([]string, len(f.clauses))
	for i, c := range f.clauses {
		if width == 0 {
			out[i] = "."
			continue
		}
		var sb strings.Builder
		sb.Grow(width)
		for bit := width - 1; bit >= 0; bit-- {
			switch {
			case !c.selector.Has(bit):
				sb.WriteByte('.')
			case c.value.Has(bit):
				sb.WriteByte('1')
			default:
				sb.WriteByte('0')
			}
		}
		out[i] = sb.String()
	}
	return out
}

func (f *Filter) String() string {
	return "Filter(" + f.source.String() + " => [" + strings.Join(f.FormatClauses(), " ") + "])"
}
