package rca

import (
	"testing"

	"github.com/johnnyboystargaze031/qsharp/fir"
)

func TestTypeCaps(t *testing.T) {
	tests := []struct {
		name string
		ty   fir.Ty
		want CapSet
	}{
		{"qubit", fir.Qubit, NewCapSet()},
		{"bool", fir.Bool, NewCapSet(ConditionalForwardBranching)},
		{"result", fir.Result, NewCapSet(ConditionalForwardBranching)},
		{"int", fir.Int, NewCapSet(IntegerComputations)},
		{"pauli", fir.Pauli, NewCapSet(IntegerComputations)},
		{"range", fir.Range, NewCapSet(IntegerComputations)},
		{"double", fir.Double, NewCapSet(FloatingPointComputation)},
		{"bigint", fir.BigInt, NewCapSet(HigherLevelConstructs)},
		{"string", fir.StringTy, NewCapSet(HigherLevelConstructs)},
		{"array", &fir.ArrayTy{Elem: fir.Int}, NewCapSet(HigherLevelConstructs)},
		{
			"arrow",
			&fir.ArrowTy{Kind: fir.Operation, Input: fir.Qubit, Output: fir.UnitTy()},
			NewCapSet(HigherLevelConstructs),
		},
		{"udt", &fir.UdtTy{Name: "Complex"}, NewCapSet(HigherLevelConstructs)},
		{"unit", fir.UnitTy(), NewCapSet()},
		{
			"tuple",
			&fir.TupleTy{Items: []fir.Ty{fir.Int, fir.Double}},
			NewCapSet(IntegerComputations, FloatingPointComputation),
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			if got := TypeCaps(test.ty); got != test.want {
				t.Errorf("TypeCaps(%s)=%s, want %s", test.ty, got, test.want)
			}
		})
	}
}

func TestContainsQubit(t *testing.T) {
	tests := []struct {
		name string
		ty   fir.Ty
		want bool
	}{
		{"qubit", fir.Qubit, true},
		{"int", fir.Int, false},
		{"qubit array", &fir.ArrayTy{Elem: fir.Qubit}, true},
		{"int array", &fir.ArrayTy{Elem: fir.Int}, false},
		{"mixed tuple", &fir.TupleTy{Items: []fir.Ty{fir.Int, fir.Qubit}}, true},
		{"unit", fir.UnitTy(), false},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			if got := containsQubit(test.ty); got != test.want {
				t.Errorf("containsQubit(%s)=%v, want %v", test.ty, got, test.want)
			}
		})
	}
}

func TestQubitOnly(t *testing.T) {
	tests := []struct {
		name string
		ty   fir.Ty
		want bool
	}{
		{"qubit", fir.Qubit, true},
		{"qubit array", &fir.ArrayTy{Elem: fir.Qubit}, true},
		{"qubit pair", &fir.TupleTy{Items: []fir.Ty{fir.Qubit, fir.Qubit}}, true},
		{"result", fir.Result, false},
		{"mixed tuple", &fir.TupleTy{Items: []fir.Ty{fir.Qubit, fir.Result}}, false},
		// The empty tuple is vacuously qubit-only, but callers exclude
		// unit before asking.
		{"unit", fir.UnitTy(), true},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			if got := qubitOnly(test.ty); got != test.want {
				t.Errorf("qubitOnly(%s)=%v, want %v", test.ty, got, test.want)
			}
		})
	}
}

func TestCapSetString(t *testing.T) {
	tests := []struct {
		set  CapSet
		want string
	}{
		{NewCapSet(), "<empty>"},
		{NewCapSet(IntegerComputations), "{IntegerComputations}"},
		{
			NewCapSet(HigherLevelConstructs, ConditionalForwardBranching),
			"{ConditionalForwardBranching, HigherLevelConstructs}",
		},
	}
	for _, test := range tests {
		if got := test.set.String(); got != test.want {
			t.Errorf("got %q, want %q", got, test.want)
		}
	}
}
