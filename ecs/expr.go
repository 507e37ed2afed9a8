package ecs

import (
	"slices"
	"strconv"
	"strings"
)

// Term is anything that can appear in a filter expression: a registered
// *ComponentType (meaning "has this component") or an Expr.
type Term interface {
	expr() Expr
}

// Kind identifies the variant of an Expr.
type Kind uint8

const (
	KindTrue Kind = iota
	KindFalse
	KindLiteral
	KindAnd
	KindOr
	KindNot
)

func (k Kind) String() string {
	switch k {
	case KindTrue:
		return "true"
	case KindFalse:
		return "false"
	case KindLiteral:
		return "literal"
	case KindAnd:
		return "and"
	case KindOr:
		return "or"
	case KindNot:
		return "not"
	}
	return "unknown"
}

// Expr is an immutable boolean expression over component presence. Values are
// only built through And, Or, Not, True and False, which simplify as they go:
// nested operators are flattened, duplicates dropped, double negations
// removed and negations pushed down to literals.
//
// The zero Expr is True.
type Expr struct {
	kind  Kind
	lit   *ComponentType
	terms []Expr
	key   string
}

var (
	trueExpr  = Expr{kind: KindTrue, key: "T"}
	falseExpr = Expr{kind: KindFalse, key: "F"}
)

// True returns the expression that matches every entity.
func True() Expr { return trueExpr }

// False returns the expression that matches no entity.
func False() Expr { return falseExpr }

func literal(ct *ComponentType) Expr {
	key := "L" + strconv.Itoa(ct.id) + "@" + strconv.FormatUint(ct.registry.seq, 10)
	return Expr{kind: KindLiteral, lit: ct, key: key}
}

func (e Expr) expr() Expr { return e }

// Kind returns the variant of e.
func (e Expr) Kind() Kind { return e.kind }

// Component returns the component type of a literal or negated literal.
func (e Expr) Component() *ComponentType { return e.lit }

// Terms returns the immediate operands of an And, Or or Not expression in the
// order they were given.
func (e Expr) Terms() []Expr {
	return slices.Clone(e.terms)
}

// Equal reports whether e and o are the same expression. Operand order of And
// and Or does not matter.
func (e Expr) Equal(o Term) bool {
	return e.id() == o.expr().id()
}

func (e Expr) id() string {
	if e.key == "" {
		return trueExpr.key
	}
	return e.key
}

// Not returns the negation of t. Negations of compound expressions are
// rewritten with De Morgan's laws so that Not only ever wraps a literal.
func Not(t Term) Expr {
	e := t.expr()
	switch e.kind {
	case KindTrue:
		return falseExpr
	case KindFalse:
		return trueExpr
	case KindNot:
		return e.terms[0]
	case KindAnd:
		return combine(KindOr, negateAll(e.terms))
	case KindOr:
		return combine(KindAnd, negateAll(e.terms))
	}
	return Expr{kind: KindNot, lit: e.lit, terms: []Expr{e}, key: "!" + e.key}
}

// And returns the conjunction of its operands.
func And(a, b Term, more ...Term) Expr {
	return combine(KindAnd, collect(a, b, more))
}

// Or returns the disjunction of its operands.
func Or(a, b Term, more ...Term) Expr {
	return combine(KindOr, collect(a, b, more))
}

// AllOf is And over a slice. AllOf() is True.
func AllOf(terms ...Term) Expr {
	return combine(KindAnd, collect(nil, nil, terms))
}

// AnyOf is Or over a slice. AnyOf() is False.
func AnyOf(terms ...Term) Expr {
	return combine(KindOr, collect(nil, nil, terms))
}

func collect(a, b Term, more []Term) []Expr {
	out := make([]Expr, 0, 2+len(more))
	if a != nil {
		out = append(out, a.expr())
	}
	if b != nil {
		out = append(out, b.expr())
	}
	for _, t := range more {
		out = append(out, t.expr())
	}
	return out
}

func negateAll(terms []Expr) []Expr {
	out := make([]Expr, len(terms))
	for i, t := range terms {
		out[i] = Not(t)
	}
	return out
}

// combine builds an And (op == KindAnd) or Or node. For And, True is the
// identity and False the absorbing element; for Or it is the reverse.
func combine(op Kind, operands []Expr) Expr {
	identity, absorbing := KindTrue, KindFalse
	if op == KindOr {
		identity, absorbing = KindFalse, KindTrue
	}

	flat := make([]Expr, 0, len(operands))
	seen := make(map[string]struct{}, len(operands))
	var push func(e Expr) bool
	push = func(e Expr) bool {
		switch e.kind {
		case identity:
			return true
		case absorbing:
			return false
		case op:
			for _, inner := range e.terms {
				if !push(inner) {
					return false
				}
			}
			return true
		}
		if _, dup := seen[e.key]; dup {
			return true
		}
		seen[e.key] = struct{}{}
		flat = append(flat, e)
		return true
	}
	for _, e := range operands {
		if !push(e) {
			return absorbingExpr(absorbing)
		}
	}

	// x & ~x is False and x | ~x is True. ~x may itself have been flattened
	// into the operands.
	for _, e := range flat {
		if present(seen, Not(e), op) {
			return absorbingExpr(absorbing)
		}
	}

	switch len(flat) {
	case 0:
		return absorbingExpr(identity)
	case 1:
		return flat[0]
	}

	keys := make([]string, len(flat))
	for i, e := range flat {
		keys[i] = e.key
	}
	slices.Sort(keys)
	sep := "&("
	if op == KindOr {
		sep = "|("
	}
	return Expr{kind: op, terms: flat, key: sep + strings.Join(keys, ",") + ")"}
}

func present(seen map[string]struct{}, e Expr, op Kind) bool {
	if e.kind != op {
		_, ok := seen[e.key]
		return ok
	}
	for _, t := range e.terms {
		if _, ok := seen[t.key]; !ok {
			return false
		}
	}
	return true
}

func absorbingExpr(k Kind) Expr {
	if k == KindTrue {
		return trueExpr
	}
	return falseExpr
}

// Matches evaluates e against a presence bitmask by walking the expression.
func (e Expr) Matches(mask Bitmask) bool {
	switch e.kind {
	case KindTrue:
		return true
	case KindFalse:
		return false
	case KindLiteral:
		return mask.Has(e.lit.id)
	case KindNot:
		return !mask.Has(e.lit.id)
	case KindAnd:
		for _, t := range e.terms {
			if !t.Matches(mask) {
				return false
			}
		}
		return true
	case KindOr:
		for _, t := range e.terms {
			if t.Matches(mask) {
				return true
			}
		}
		return false
	}
	return false
}

// String renders e in the syntax accepted by ParseFilter.
func (e Expr) String() string {
	var sb strings.Builder
	e.format(&sb, false)
	return sb.String()
}

func (e Expr) format(sb *strings.Builder, nested bool) {
	switch e.kind {
	case KindTrue:
		sb.WriteString("true")
	case KindFalse:
		sb.WriteString("false")
	case KindLiteral:
		sb.WriteString(e.lit.name)
	case KindNot:
		sb.WriteByte('~')
		sb.WriteString(e.lit.name)
	case KindAnd, KindOr:
		sep := " & "
		if e.kind == KindOr {
			sep = " | "
		}
		if nested {
			sb.WriteByte('(')
		}
		for i, t := range e.terms {
			if i > 0 {
				sb.WriteString(sep)
			}
			t.format(sb, true)
		}
		if nested {
			sb.WriteByte(')')
		}
	}
}
