// Package rca determines, for every callable specialization of a FIR
// package store, which runtime capabilities executing it would require
// as a function of which input parameters are dynamic. It also detects
// call-graph cycles among specializations so that the propagation
// terminates on recursive programs.
package rca

import (
	"fmt"
	"strings"

	"github.com/johnnyboystargaze031/qsharp/fir"
)

// Capability is a single target-affecting runtime feature.
type Capability uint8

const (
	ConditionalForwardBranching Capability = 1 << iota
	IntegerComputations
	FloatingPointComputation
	HigherLevelConstructs
)

var allCaps = [...]Capability{
	ConditionalForwardBranching,
	IntegerComputations,
	FloatingPointComputation,
	HigherLevelConstructs,
}

func (c Capability) String() string {
	switch c {
	case ConditionalForwardBranching:
		return "ConditionalForwardBranching"
	case IntegerComputations:
		return "IntegerComputations"
	case FloatingPointComputation:
		return "FloatingPointComputation"
	case HigherLevelConstructs:
		return "HigherLevelConstructs"
	default:
		panic(fmt.Sprintf("impossible capability: %d", uint8(c)))
	}
}

// CapSet is a set of capabilities. The zero value is the empty set;
// union is bitwise or, so sets only ever grow monotonically.
type CapSet uint8

func NewCapSet(caps ...Capability) CapSet {
	var s CapSet
	for _, c := range caps {
		s |= CapSet(c)
	}
	return s
}

func (s CapSet) Contains(c Capability) bool { return s&CapSet(c) != 0 }
func (s CapSet) Union(o CapSet) CapSet      { return s | o }
func (s CapSet) Empty() bool                { return s == 0 }

func (s CapSet) String() string { return s.buildString(new(strings.Builder)).String() }

func (s CapSet) buildString(b *strings.Builder) *strings.Builder {
	if s.Empty() {
		b.WriteString("<empty>")
		return b
	}
	b.WriteRune('{')
	first := true
	for _, c := range allCaps {
		if !s.Contains(c) {
			continue
		}
		if !first {
			b.WriteString(", ")
		}
		first = false
		b.WriteString(c.String())
	}
	b.WriteRune('}')
	return b
}

// TypeCaps is the foundational mapping from a type to the minimal
// capability set implied by a value of that type being dynamic at
// runtime. It is total over the FIR type grammar; anything outside it
// is a contract violation.
func TypeCaps(t fir.Ty) CapSet {
	switch t := t.(type) {
	case fir.Prim:
		return primCaps(t)
	case *fir.ArrayTy, *fir.ArrowTy, *fir.UdtTy:
		return NewCapSet(HigherLevelConstructs)
	case *fir.TupleTy:
		var s CapSet
		for _, item := range t.Items {
			s = s.Union(TypeCaps(item))
		}
		return s
	default:
		panic(fmt.Sprintf("impossible type: %T", t))
	}
}

func primCaps(p fir.Prim) CapSet {
	switch p {
	case fir.Qubit:
		return 0
	case fir.Bool, fir.Result:
		return NewCapSet(ConditionalForwardBranching)
	case fir.Int, fir.Pauli, fir.Range, fir.RangeFrom, fir.RangeTo, fir.RangeFull:
		return NewCapSet(IntegerComputations)
	case fir.Double:
		return NewCapSet(FloatingPointComputation)
	case fir.BigInt, fir.StringTy:
		return NewCapSet(HigherLevelConstructs)
	default:
		panic(fmt.Sprintf("impossible primitive type: %d", int(p)))
	}
}

// containsQubit reports whether a value of type t holds at least one
// qubit. Arrays count: a dynamic qubit array uses dynamic qubits.
func containsQubit(t fir.Ty) bool {
	switch t := t.(type) {
	case fir.Prim:
		return t == fir.Qubit
	case *fir.ArrayTy:
		return containsQubit(t.Elem)
	case *fir.TupleTy:
		for _, item := range t.Items {
			if containsQubit(item) {
				return true
			}
		}
		return false
	default:
		return false
	}
}

// qubitOnly reports whether t is made of nothing but qubits. An
// operation whose output is qubit-only produces no classical value, so
// it is not a quantum source even though the output is not unit.
func qubitOnly(t fir.Ty) bool {
	switch t := t.(type) {
	case fir.Prim:
		return t == fir.Qubit
	case *fir.ArrayTy:
		return qubitOnly(t.Elem)
	case *fir.TupleTy:
		for _, item := range t.Items {
			if !qubitOnly(item) {
				return false
			}
		}
		return true
	default:
		return false
	}
}
