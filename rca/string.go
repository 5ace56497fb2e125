package rca

import (
	"fmt"
	"sort"
	"strings"

	"github.com/johnnyboystargaze031/qsharp/fir"
)

// The dump format is a diagnostic affordance, not part of the analysis
// contract: indented, human-readable nested structure for debugging.

func (s *Store) String() string          { return s.buildString(new(strings.Builder)).String() }
func (p *PackageProps) String() string   { return p.buildString(new(strings.Builder), 0).String() }
func (c *CallableProps) String() string  { return c.buildString(new(strings.Builder), 0).String() }
func (t *AppsTable) String() string      { return t.buildString(new(strings.Builder), 0).String() }
func (p *ComputeProps) String() string   { return p.buildString(new(strings.Builder), 0).String() }
func (c *CycledCallable) String() string { return c.buildString(new(strings.Builder)).String() }

// indent starts a new line at the given indent level.
func indent(s *strings.Builder, level int) {
	s.WriteRune('\n')
	s.WriteString(strings.Repeat("    ", level))
}

func (s *Store) buildString(b *strings.Builder) *strings.Builder {
	ids := make([]int, 0, len(s.packages))
	for id := range s.packages {
		ids = append(ids, int(id))
	}
	sort.Ints(ids)
	for i, id := range ids {
		if i > 0 {
			b.WriteRune('\n')
		}
		fmt.Fprintf(b, "Package %d:", id)
		s.packages[fir.PackageID(id)].buildString(b, 1)
	}
	return b
}

func (p *PackageProps) buildString(b *strings.Builder, level int) *strings.Builder {
	indent(b, level)
	b.WriteString("Items:")
	itemIDs := make([]int, 0, len(p.Items))
	for id := range p.Items {
		itemIDs = append(itemIDs, int(id))
	}
	sort.Ints(itemIDs)
	for _, id := range itemIDs {
		indent(b, level+1)
		fmt.Fprintf(b, "Item %d: ", id)
		switch props := p.Items[fir.LocalItemID(id)].(type) {
		case *NonCallableProps:
			b.WriteString("NonCallable")
		case *CallableProps:
			props.buildString(b, level+2)
		default:
			panic(fmt.Sprintf("impossible item properties: %T", props))
		}
	}
	if len(p.Cycles) > 0 {
		indent(b, level)
		b.WriteString("Cycled callables:")
		for _, c := range p.Cycles {
			indent(b, level+1)
			c.buildString(b)
		}
	}
	return b
}

func (c *CallableProps) buildString(b *strings.Builder, level int) *strings.Builder {
	b.WriteString("CallableComputeProperties:")
	for kind := BodySpec; kind <= CtlAdjSpec; kind++ {
		indent(b, level+1)
		fmt.Fprintf(b, "%s: ", kind)
		if tbl := c.Spec(kind); tbl != nil {
			tbl.buildString(b, level+1)
		} else {
			b.WriteString("<none>")
		}
	}
	return b
}

func (t *AppsTable) buildString(b *strings.Builder, level int) *strings.Builder {
	fmt.Fprintf(b, "ApplicationsTable (%d input parameters):", t.ParamCount)
	width := t.ParamCount
	if width == 0 {
		width = 1
	}
	for idx := range t.apps {
		indent(b, level+1)
		fmt.Fprintf(b, "[0b%0*b] -> ", width, idx)
		t.apps[idx].buildString(b, level+1)
	}
	return b
}

func (p *ComputeProps) buildString(b *strings.Builder, level int) *strings.Builder {
	fmt.Fprintf(b, "ComputeProperties (%s):", p.Kind())
	indent(b, level+1)
	b.WriteString("RuntimeCapabilities: ")
	p.Caps.buildString(b)
	indent(b, level+1)
	b.WriteString("QuantumSources: ")
	if len(p.Sources) == 0 {
		b.WriteString("<empty>")
	} else {
		b.WriteRune('{')
		for i, src := range p.Sources {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(src.String())
		}
		b.WriteRune('}')
	}
	if p.UsesDynamicQubit {
		indent(b, level+1)
		b.WriteString("UsesDynamicQubit: true")
	}
	return b
}

func (c *CycledCallable) buildString(b *strings.Builder) *strings.Builder {
	fmt.Fprintf(b, "Callable %d:", c.ID)
	for kind := BodySpec; kind <= CtlAdjSpec; kind++ {
		spec := c.Specs[kind]
		b.WriteRune(' ')
		b.WriteString(kind.String())
		b.WriteRune('=')
		switch {
		case !spec.Exists:
			b.WriteString("<none>")
		case spec.Cycled:
			b.WriteString("cycled")
		default:
			b.WriteString("ok")
		}
	}
	return b
}
