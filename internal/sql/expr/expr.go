// Package expr holds bound, typed expressions. Trees are immutable: rewrites
// build new nodes and share untouched subtrees.
package expr

import (
	"fmt"
	"strings"

	"github.com/apache/arrow/go/v11/arrow"

	"github.com/tuannm99/novaquery/internal/catalog"
	"github.com/tuannm99/novaquery/internal/types"
)

// Expr is the closed set of bound expression variants.
type Expr interface {
	ReturnType() arrow.DataType
	Equal(other Expr) bool
	String() string

	isExpr()
}

type BinaryOperator uint8

const (
	OpPlus BinaryOperator = iota
	OpMinus
	OpMultiply
	OpDivide
	OpEq
	OpNotEq
	OpLt
	OpLtEq
	OpGt
	OpGtEq
	OpAnd
	OpOr
)

var binaryOperatorNames = [...]string{
	OpPlus:     "+",
	OpMinus:    "-",
	OpMultiply: "*",
	OpDivide:   "/",
	OpEq:       "=",
	OpNotEq:    "!=",
	OpLt:       "<",
	OpLtEq:     "<=",
	OpGt:       ">",
	OpGtEq:     ">=",
	OpAnd:      "AND",
	OpOr:       "OR",
}

func (op BinaryOperator) String() string {
	if int(op) < len(binaryOperatorNames) {
		return binaryOperatorNames[op]
	}
	return fmt.Sprintf("op(%d)", uint8(op))
}

func (op BinaryOperator) IsArithmetic() bool { return op <= OpDivide }

func (op BinaryOperator) IsComparison() bool { return op >= OpEq && op <= OpGtEq }

func (op BinaryOperator) IsLogical() bool { return op == OpAnd || op == OpOr }

type AggKind uint8

const (
	AggCount AggKind = iota
	AggSum
	AggMin
	AggMax
)

func (k AggKind) String() string {
	switch k {
	case AggCount:
		return "count"
	case AggSum:
		return "sum"
	case AggMin:
		return "min"
	case AggMax:
		return "max"
	default:
		return fmt.Sprintf("agg(%d)", uint8(k))
	}
}

type Constant struct {
	Value types.ScalarValue
}

// ColumnRef points at a catalog column. It must be gone before execution.
type ColumnRef struct {
	Column catalog.ColumnCatalog
}

// InputRef selects column Index of the operator's input batch. Name is the
// expression it replaced and only feeds OutputName.
type InputRef struct {
	Index int
	Type  arrow.DataType
	Name  string
}

type BinaryOp struct {
	Op          BinaryOperator
	Left, Right Expr
	Type        arrow.DataType
}

type TypeCast struct {
	Expr     Expr
	CastType arrow.DataType
}

type AggFunc struct {
	Func AggKind
	Args []Expr
	Type arrow.DataType
}

func NewConstant(v types.ScalarValue) *Constant { return &Constant{Value: v} }

func NewColumnRef(c catalog.ColumnCatalog) *ColumnRef { return &ColumnRef{Column: c} }

func NewInputRef(index int, t arrow.DataType) *InputRef { return &InputRef{Index: index, Type: t} }

func (*Constant) isExpr()  {}
func (*ColumnRef) isExpr() {}
func (*InputRef) isExpr()  {}
func (*BinaryOp) isExpr()  {}
func (*TypeCast) isExpr()  {}
func (*AggFunc) isExpr()   {}

func (e *Constant) ReturnType() arrow.DataType  { return e.Value.DataType() }
func (e *ColumnRef) ReturnType() arrow.DataType { return e.Column.Desc.DataType }
func (e *InputRef) ReturnType() arrow.DataType  { return e.Type }
func (e *BinaryOp) ReturnType() arrow.DataType  { return e.Type }
func (e *TypeCast) ReturnType() arrow.DataType  { return e.CastType }
func (e *AggFunc) ReturnType() arrow.DataType   { return e.Type }

func (e *Constant) Equal(other Expr) bool {
	o, ok := other.(*Constant)
	return ok && e.Value.Equal(o.Value)
}

func (e *ColumnRef) Equal(other Expr) bool {
	o, ok := other.(*ColumnRef)
	return ok && e.Column.Equal(o.Column)
}

func (e *InputRef) Equal(other Expr) bool {
	o, ok := other.(*InputRef)
	return ok && e.Index == o.Index && arrow.TypeEqual(e.Type, o.Type)
}

func (e *BinaryOp) Equal(other Expr) bool {
	o, ok := other.(*BinaryOp)
	return ok && e.Op == o.Op && arrow.TypeEqual(e.Type, o.Type) &&
		e.Left.Equal(o.Left) && e.Right.Equal(o.Right)
}

func (e *TypeCast) Equal(other Expr) bool {
	o, ok := other.(*TypeCast)
	return ok && arrow.TypeEqual(e.CastType, o.CastType) && e.Expr.Equal(o.Expr)
}

func (e *AggFunc) Equal(other Expr) bool {
	o, ok := other.(*AggFunc)
	if !ok || e.Func != o.Func || len(e.Args) != len(o.Args) || !arrow.TypeEqual(e.Type, o.Type) {
		return false
	}
	for i := range e.Args {
		if !e.Args[i].Equal(o.Args[i]) {
			return false
		}
	}
	return true
}

func (e *Constant) String() string { return e.Value.String() }

func (e *ColumnRef) String() string { return e.Column.Desc.Name }

func (e *InputRef) String() string { return fmt.Sprintf("#%d", e.Index) }

func (e *BinaryOp) String() string {
	return fmt.Sprintf("(%s %s %s)", e.Left, e.Op, e.Right)
}

func (e *TypeCast) String() string {
	return fmt.Sprintf("CAST(%s AS %s)", e.Expr, e.CastType)
}

func (e *AggFunc) String() string {
	if len(e.Args) == 0 {
		return e.Func.String() + "(*)"
	}
	args := make([]string, len(e.Args))
	for i, a := range e.Args {
		args[i] = a.String()
	}
	return e.Func.String() + "(" + strings.Join(args, ", ") + ")"
}

// OutputName renders e the way it was written, looking through input refs.
func OutputName(e Expr) string {
	switch e := e.(type) {
	case *InputRef:
		if e.Name != "" {
			return e.Name
		}
	case *BinaryOp:
		return fmt.Sprintf("(%s %s %s)", OutputName(e.Left), e.Op, OutputName(e.Right))
	case *TypeCast:
		return fmt.Sprintf("CAST(%s AS %s)", OutputName(e.Expr), e.CastType)
	case *AggFunc:
		if len(e.Args) == 0 {
			return e.Func.String() + "(*)"
		}
		args := make([]string, len(e.Args))
		for i, a := range e.Args {
			args[i] = OutputName(a)
		}
		return e.Func.String() + "(" + strings.Join(args, ", ") + ")"
	}
	return e.String()
}

// Index returns the position of the first element of list structurally equal to e.
func Index(list []Expr, e Expr) int {
	for i, x := range list {
		if x.Equal(e) {
			return i
		}
	}
	return -1
}

// Walk calls fn for e and every sub-expression in pre-order. Returning false
// from fn skips the children of that node.
func Walk(e Expr, fn func(Expr) bool) {
	if !fn(e) {
		return
	}
	switch e := e.(type) {
	case *BinaryOp:
		Walk(e.Left, fn)
		Walk(e.Right, fn)
	case *TypeCast:
		Walk(e.Expr, fn)
	case *AggFunc:
		for _, a := range e.Args {
			Walk(a, fn)
		}
	}
}

// ContainsAgg reports whether an aggregate call appears anywhere in e.
func ContainsAgg(e Expr) bool {
	found := false
	Walk(e, func(x Expr) bool {
		if _, ok := x.(*AggFunc); ok {
			found = true
		}
		return !found
	})
	return found
}
