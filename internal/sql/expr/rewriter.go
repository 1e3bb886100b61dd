package expr

import "github.com/cockroachdb/errors"

// Rewriter has one hook per expression variant. Embed BaseRewriter to inherit
// the defaults and override only the hooks a pass cares about.
type Rewriter interface {
	RewriteConstant(e *Constant) Expr
	RewriteColumnRef(e *ColumnRef) Expr
	RewriteInputRef(e *InputRef) Expr
	RewriteBinaryOp(e *BinaryOp) Expr
	RewriteTypeCast(e *TypeCast) Expr
	RewriteAggFunc(e *AggFunc) Expr
}

// Rewrite dispatches e to the matching hook of r.
func Rewrite(r Rewriter, e Expr) Expr {
	switch e := e.(type) {
	case *Constant:
		return r.RewriteConstant(e)
	case *ColumnRef:
		return r.RewriteColumnRef(e)
	case *InputRef:
		return r.RewriteInputRef(e)
	case *BinaryOp:
		return r.RewriteBinaryOp(e)
	case *TypeCast:
		return r.RewriteTypeCast(e)
	case *AggFunc:
		return r.RewriteAggFunc(e)
	default:
		panic(errors.AssertionFailedf("expr: unknown expression %T", e))
	}
}

// RewriteAll rewrites every element of list through r.
func RewriteAll(r Rewriter, list []Expr) []Expr {
	out := make([]Expr, len(list))
	for i, e := range list {
		out[i] = Rewrite(r, e)
	}
	return out
}

// BaseRewriter leaves leaves untouched and recurses into composite
// expressions through the outer rewriter, so overrides apply at every depth.
type BaseRewriter struct {
	self Rewriter
}

// NewBaseRewriter binds the defaults to the outer rewriter self.
func NewBaseRewriter(self Rewriter) BaseRewriter { return BaseRewriter{self: self} }

func (b BaseRewriter) outer() Rewriter {
	if b.self == nil {
		return b
	}
	return b.self
}

func (b BaseRewriter) RewriteConstant(e *Constant) Expr { return e }

func (b BaseRewriter) RewriteColumnRef(e *ColumnRef) Expr { return e }

func (b BaseRewriter) RewriteInputRef(e *InputRef) Expr { return e }

func (b BaseRewriter) RewriteBinaryOp(e *BinaryOp) Expr {
	r := b.outer()
	l, rr := Rewrite(r, e.Left), Rewrite(r, e.Right)
	if l == e.Left && rr == e.Right {
		return e
	}
	return &BinaryOp{Op: e.Op, Left: l, Right: rr, Type: e.Type}
}

func (b BaseRewriter) RewriteTypeCast(e *TypeCast) Expr {
	inner := Rewrite(b.outer(), e.Expr)
	if inner == e.Expr {
		return e
	}
	return &TypeCast{Expr: inner, CastType: e.CastType}
}

func (b BaseRewriter) RewriteAggFunc(e *AggFunc) Expr {
	args := RewriteAll(b.outer(), e.Args)
	changed := false
	for i := range args {
		if args[i] != e.Args[i] {
			changed = true
			break
		}
	}
	if !changed {
		return e
	}
	return &AggFunc{Func: e.Func, Args: args, Type: e.Type}
}
