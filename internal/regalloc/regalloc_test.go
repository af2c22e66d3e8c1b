package regalloc

import (
	"testing"

	"github.com/stretchr/testify/require"

	"minijavac/internal/ir"
	"minijavac/internal/platform"
)

type toyReg struct {
	name     string
	physical bool
}

func (r toyReg) IsPhysical() bool { return r.physical }

var (
	p0 = toyReg{name: "p0", physical: true}
	p1 = toyReg{name: "p1", physical: true}
	p2 = toyReg{name: "p2", physical: true}
	p3 = toyReg{name: "p3", physical: true}

	t0 = toyReg{name: "t0"}
	t1 = toyReg{name: "t1"}
	t2 = toyReg{name: "t2"}
	t3 = toyReg{name: "t3"}
)

type toyInstr struct {
	uses, defs []platform.Reg
	fallsThru  bool
}

func (i *toyInstr) Uses() []platform.Reg { return i.uses }
func (i *toyInstr) Defs() []platform.Reg { return i.defs }
func (i *toyInstr) IsFallThrough() bool  { return i.fallsThru }
func (i *toyInstr) Jumps() []ir.Label    { return nil }
func (i *toyInstr) IsMoveBetweenTemps() (platform.Reg, platform.Reg, bool) {
	return nil, nil, false
}
func (i *toyInstr) IsLabel() (ir.Label, bool) { return ir.Label{}, false }
func (i *toyInstr) Rename(sigma func(platform.Reg) platform.Reg) {
	for j, u := range i.uses {
		i.uses[j] = sigma(u)
	}
	for j, d := range i.defs {
		i.defs[j] = sigma(d)
	}
}

type toyFunction struct {
	name       ir.Label
	body       []platform.Instr
	spillCalls int
}

func (f *toyFunction) Name() ir.Label         { return f.name }
func (f *toyFunction) Body() []platform.Instr { return f.body }
func (f *toyFunction) Spill(toSpill []platform.Reg) {
	f.spillCalls++
}
func (f *toyFunction) Rename(sigma func(platform.Reg) platform.Reg) {
	for _, instr := range f.body {
		instr.Rename(sigma)
	}
}

type toyRegClass struct {
	physical, gp []platform.Reg
}

func (c toyRegClass) Physical() []platform.Reg       { return c.physical }
func (c toyRegClass) GeneralPurpose() []platform.Reg { return c.gp }

type toyPrg struct {
	fns []platform.Function
}

func (p *toyPrg) Functions() []platform.Function         { return p.fns }
func (p *toyPrg) SetFunction(i int, f platform.Function) { p.fns[i] = f }

// TestAllocateCompleteGraphGetsDistinctColors builds four temps that are
// pairwise live at once (a K4 interference graph) against a register class
// with exactly four general-purpose registers: the only sound coloring
// assigns all four temps distinct physical registers, with no spilling.
func TestAllocateCompleteGraphGetsDistinctColors(t *testing.T) {
	body := []platform.Instr{
		&toyInstr{defs: []platform.Reg{t0}, fallsThru: true},
		&toyInstr{defs: []platform.Reg{t1}, fallsThru: true},
		&toyInstr{defs: []platform.Reg{t2}, fallsThru: true},
		&toyInstr{defs: []platform.Reg{t3}, fallsThru: true},
		&toyInstr{uses: []platform.Reg{t0, t1, t2, t3}, fallsThru: false},
	}
	fn := &toyFunction{name: ir.NamedLabel("Lf"), body: body}
	rc := toyRegClass{physical: []platform.Reg{p0, p1, p2, p3}, gp: []platform.Reg{p0, p1, p2, p3}}

	Allocate(&toyPrg{fns: []platform.Function{fn}}, rc)

	require.Equal(t, 0, fn.spillCalls, "four registers for a 4-clique must not require spilling")

	defsSeen := make(map[platform.Reg]bool)
	for i := 0; i < 4; i++ {
		d := body[i].Defs()[0]
		require.True(t, d.IsPhysical(), "every temp must be renamed to a physical register")
		require.False(t, defsSeen[d], "two interfering temps were assigned the same physical register: %v", d)
		defsSeen[d] = true
	}
}

// TestAllocateSpillsWhenOverconstrained forces a 3-clique against a
// register class with only two general-purpose registers, which cannot be
// colored without a spill: Allocate must call Spill rather than produce an
// unsound (duplicate-color) result.
func TestAllocateSpillsWhenOverconstrained(t *testing.T) {
	body := []platform.Instr{
		&toyInstr{defs: []platform.Reg{t0}, fallsThru: true},
		&toyInstr{defs: []platform.Reg{t1}, fallsThru: true},
		&toyInstr{defs: []platform.Reg{t2}, fallsThru: true},
		&toyInstr{uses: []platform.Reg{t0, t1, t2}, fallsThru: false},
	}
	fn := &toyFunction{name: ir.NamedLabel("Lg"), body: body}
	rc := toyRegClass{physical: []platform.Reg{p0, p1}, gp: []platform.Reg{p0, p1}}

	// allocFunction recurses on allocFunction(f, rc) after Spill and
	// rebuilds its analyses from f.Body(); with a toyFunction whose Spill is
	// a no-op the body never changes, so every round would reach the same
	// spill decision and the recursion would never end. Call color()
	// directly to check the single round's decision instead of driving the
	// full fixpoint.
	result := color(fn, rc)
	require.NotEmpty(t, result.spills, "a 3-clique against 2 registers must be reported as unsound without a spill")
}
