package rca

import "fmt"

// ComputeKind says whether a value is known at compile time or only
// while running.
type ComputeKind int

const (
	Static ComputeKind = iota
	Dynamic
)

func (k ComputeKind) String() string {
	switch k {
	case Static:
		return "Static"
	case Dynamic:
		return "Dynamic"
	default:
		panic(fmt.Sprintf("impossible compute kind: %d", int(k)))
	}
}

// AppIdx selects one application of a specialization with k input
// parameters: bit i set means parameter i is dynamic. Index 0 is the
// fully-static application.
type AppIdx int

// ParamDynamic reports whether parameter i is dynamic under this index.
func (idx AppIdx) ParamDynamic(i int) bool {
	return idx&(1<<i) != 0
}

// ParamKinds decodes the index into one compute kind per parameter.
func (idx AppIdx) ParamKinds(paramCount int) []ComputeKind {
	kinds := make([]ComputeKind, paramCount)
	for i := range kinds {
		if idx.ParamDynamic(i) {
			kinds[i] = Dynamic
		}
	}
	return kinds
}

// QuantumSource marks an expression whose value originates from
// hardware evaluation rather than compile-time computation.
type QuantumSource int

const (
	IntrinsicSource QuantumSource = iota + 1
)

func (s QuantumSource) String() string {
	switch s {
	case IntrinsicSource:
		return "Intrinsic"
	default:
		panic(fmt.Sprintf("impossible quantum source: %d", int(s)))
	}
}

// ComputeProps is the result of one application of a specialization:
// the capabilities it requires and the quantum sources it evaluates.
// UsesDynamicQubit flags an application that receives a dynamic qubit;
// qubits imply no capability, so the flag is tracked outside the set
// and does not affect Kind.
type ComputeProps struct {
	Caps             CapSet
	Sources          []QuantumSource
	UsesDynamicQubit bool
}

// Kind is Static iff the capability set is empty. Capabilities are the
// only evidence of dynamism tracked at this layer.
func (p *ComputeProps) Kind() ComputeKind {
	if p.Caps.Empty() {
		return Static
	}
	return Dynamic
}

func (p *ComputeProps) IsQuantumSource() bool { return len(p.Sources) > 0 }

func (p *ComputeProps) addSource(s QuantumSource) {
	for _, have := range p.Sources {
		if have == s {
			return
		}
	}
	p.Sources = append(p.Sources, s)
}

func (p *ComputeProps) merge(o ComputeProps) {
	p.Caps = p.Caps.Union(o.Caps)
	for _, s := range o.Sources {
		p.addSource(s)
	}
	p.UsesDynamicQubit = p.UsesDynamicQubit || o.UsesDynamicQubit
}

// AppsTable holds one ComputeProps per application of a specialization
// with ParamCount input parameters. Its size is fixed at construction
// to 2^ParamCount.
type AppsTable struct {
	ParamCount int
	apps       []ComputeProps
}

func NewAppsTable(paramCount int) *AppsTable {
	return &AppsTable{
		ParamCount: paramCount,
		apps:       make([]ComputeProps, 1<<paramCount),
	}
}

func (t *AppsTable) Len() int { return len(t.apps) }

func (t *AppsTable) App(idx AppIdx) *ComputeProps {
	if int(idx) < 0 || int(idx) >= len(t.apps) {
		panic(fmt.Sprintf("application index %d out of range for table of size %d", int(idx), len(t.apps)))
	}
	return &t.apps[idx]
}
