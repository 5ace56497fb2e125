package fir

import (
	"fmt"
	"strings"
)

// Ty is the resolved type of an expression or pattern. The grammar is
// closed: primitives, arrays, arrows, tuples, and user-defined types.
type Ty interface {
	String() string
	buildString(*strings.Builder) *strings.Builder
	isTy()
}

type Prim int

const (
	BigInt Prim = iota + 1
	Bool
	Double
	Int
	Pauli
	Qubit
	Range
	RangeFrom
	RangeTo
	RangeFull
	Result
	StringTy
)

type ArrayTy struct {
	Elem Ty
}

type ArrowTy struct {
	Kind   CallableKind
	Input  Ty
	Output Ty
}

type TupleTy struct {
	Items []Ty
}

type UdtTy struct {
	Name string
}

func (Prim) isTy()     {}
func (*ArrayTy) isTy() {}
func (*ArrowTy) isTy() {}
func (*TupleTy) isTy() {}
func (*UdtTy) isTy()   {}

// UnitTy is the empty tuple.
func UnitTy() Ty { return &TupleTy{} }

// IsUnit reports whether t is the empty tuple type.
func IsUnit(t Ty) bool {
	tup, ok := t.(*TupleTy)
	return ok && len(tup.Items) == 0
}

func (t Prim) String() string     { return t.buildString(new(strings.Builder)).String() }
func (t *ArrayTy) String() string { return t.buildString(new(strings.Builder)).String() }
func (t *ArrowTy) String() string { return t.buildString(new(strings.Builder)).String() }
func (t *TupleTy) String() string { return t.buildString(new(strings.Builder)).String() }
func (t *UdtTy) String() string   { return t.buildString(new(strings.Builder)).String() }

func (t Prim) buildString(s *strings.Builder) *strings.Builder {
	switch t {
	case BigInt:
		s.WriteString("BigInt")
	case Bool:
		s.WriteString("Bool")
	case Double:
		s.WriteString("Double")
	case Int:
		s.WriteString("Int")
	case Pauli:
		s.WriteString("Pauli")
	case Qubit:
		s.WriteString("Qubit")
	case Range:
		s.WriteString("Range")
	case RangeFrom:
		s.WriteString("RangeFrom")
	case RangeTo:
		s.WriteString("RangeTo")
	case RangeFull:
		s.WriteString("RangeFull")
	case Result:
		s.WriteString("Result")
	case StringTy:
		s.WriteString("String")
	default:
		panic(fmt.Sprintf("impossible primitive type: %d", int(t)))
	}
	return s
}

func (t *ArrayTy) buildString(s *strings.Builder) *strings.Builder {
	t.Elem.buildString(s)
	s.WriteString("[]")
	return s
}

func (t *ArrowTy) buildString(s *strings.Builder) *strings.Builder {
	s.WriteRune('(')
	t.Input.buildString(s)
	if t.Kind == Operation {
		s.WriteString(" => ")
	} else {
		s.WriteString(" -> ")
	}
	t.Output.buildString(s)
	s.WriteRune(')')
	return s
}

func (t *TupleTy) buildString(s *strings.Builder) *strings.Builder {
	if len(t.Items) == 0 {
		s.WriteString("Unit")
		return s
	}
	s.WriteRune('(')
	for i, item := range t.Items {
		if i > 0 {
			s.WriteString(", ")
		}
		item.buildString(s)
	}
	s.WriteRune(')')
	return s
}

func (t *UdtTy) buildString(s *strings.Builder) *strings.Builder {
	s.WriteString(t.Name)
	return s
}
