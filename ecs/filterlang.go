package ecs

import (
	"github.com/alecthomas/participle/v2"
	"github.com/rotisserie/eris"
)

// Filter text grammar, lowest precedence first:
//
//	or      := and ("|" and)*
//	and     := unary ("&" unary)*
//	unary   := ("~" | "!") unary | primary
//	primary := "true" | "false" | Name | "(" or ")"

type filterOr struct {
	Left  *filterAnd   `@@`
	Right []*filterAnd `("|" @@)*`
}

type filterAnd struct {
	Left  *filterUnary   `@@`
	Right []*filterUnary `("&" @@)*`
}

type filterUnary struct {
	Not   *filterUnary   `  ("~" | "!") @@`
	Value *filterPrimary `| @@`
}

type filterPrimary struct {
	True          bool      `  @"true"`
	False         bool      `| @"false"`
	Name          string    `| @Ident`
	Subexpression *filterOr `| "(" @@ ")"`
}

var filterParser = participle.MustBuild[filterOr]()

// ParseFilter parses a filter expression such as "Position & ~(Frozen | Dead)".
// Names are resolved through the registry.
func ParseFilter(r *ComponentRegistry, text string) (Expr, error) {
	tree, err := filterParser.ParseString("", text)
	if err != nil {
		return Expr{}, eris.Wrapf(ErrInvalidFilter, "%q: %v", text, err)
	}
	return tree.build(r)
}

// MustParseFilter is like ParseFilter but panics on error.
func MustParseFilter(r *ComponentRegistry, text string) Expr {
	e, err := ParseFilter(r, text)
	if err != nil {
		panic(err)
	}
	return e
}

func (n *filterOr) build(r *ComponentRegistry) (Expr, error) {
	terms := make([]Term, 0, 1+len(n.Right))
	for _, a := range append([]*filterAnd{n.Left}, n.Right...) {
		e, err := a.build(r)
		if err != nil {
			return Expr{}, err
		}
		terms = append(terms, e)
	}
	return AnyOf(terms...), nil
}

func (n *filterAnd) build(r *ComponentRegistry) (Expr, error) {
	terms := make([]Term, 0, 1+len(n.Right))
	for _, u := range append([]*filterUnary{n.Left}, n.Right...) {
		e, err := u.build(r)
		if err != nil {
			return Expr{}, err
		}
		terms = append(terms, e)
	}
	return AllOf(terms...), nil
}

func (n *filterUnary) build(r *ComponentRegistry) (Expr, error) {
	if n.Not != nil {
		e, err := n.Not.build(r)
		if err != nil {
			return Expr{}, err
		}
		return Not(e), nil
	}
	return n.Value.build(r)
}

func (n *filterPrimary) build(r *ComponentRegistry) (Expr, error) {
	switch {
	case n.True:
		return True(), nil
	case n.False:
		return False(), nil
	case n.Subexpression != nil:
		return n.Subexpression.build(r)
	}
	ct, err := r.Lookup(n.Name)
	if err != nil {
		return Expr{}, err
	}
	return ct.expr(), nil
}
