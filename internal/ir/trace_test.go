package ir

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// TestTraceFalseLabelFallsThrough checks spec.md §4.3's traced-form
// invariant: every CJump's False label is either the very next statement
// (a true fall-through) or is reached via an immediately-following
// unconditional Jump (a detour block), never by falling into an unrelated
// block.
func TestTraceFalseLabelFallsThrough(t *testing.T) {
	lTrue, lFalse, lJoin := NewLabel(), NewLabel(), NewLabel()
	x := NewIdent()

	body := []Stm{
		CJump{Op: LT, Left: Temp{Ident: x}, Right: Const{Value: 0}, True: lTrue, False: lFalse},
		LabelStm{Label: lTrue},
		Move{Dst: Temp{Ident: x}, Src: Const{Value: 1}},
		Jump{Target: Name{Label: lJoin}, Dests: []Label{lJoin}},
		LabelStm{Label: lFalse},
		Move{Dst: Temp{Ident: x}, Src: Const{Value: 2}},
		Jump{Target: Name{Label: lJoin}, Dests: []Label{lJoin}},
		LabelStm{Label: lJoin},
	}

	traced := traceFunction(Function{Name: NamedLabel("Lf"), Body: body, Ret: x})

	for i, s := range traced.Body {
		cj, ok := s.(CJump)
		if !ok {
			continue
		}
		require.Less(t, i+1, len(traced.Body), "CJump must not be the last statement")
		next := traced.Body[i+1]
		if ls, isLabel := next.(LabelStm); isLabel {
			require.True(t, ls.Label.Equal(cj.False), "fall-through must land on the False label, got %v want %v", ls.Label, cj.False)
			continue
		}
		jp, isJump := next.(Jump)
		require.True(t, isJump, "statement after CJump must be a LabelStm or a detour Jump, got %#v", next)
		require.Contains(t, jp.Dests, cj.False)
	}
}

// TestTraceEveryLabelDefinedOnce verifies the traced body never duplicates
// a label definition, which the LIFO worklist in trace() guarantees by
// marking a block as added before it can be revisited.
func TestTraceEveryLabelDefinedOnce(t *testing.T) {
	lA, lB := NewLabel(), NewLabel()
	x := NewIdent()
	body := []Stm{
		Jump{Target: Name{Label: lA}, Dests: []Label{lA}},
		LabelStm{Label: lA},
		Move{Dst: Temp{Ident: x}, Src: Const{Value: 1}},
		Jump{Target: Name{Label: lB}, Dests: []Label{lB}},
		LabelStm{Label: lB},
		Move{Dst: Temp{Ident: x}, Src: Const{Value: 2}},
	}

	traced := traceFunction(Function{Name: NamedLabel("Lg"), Body: body, Ret: x})

	seen := map[Label]int{}
	for _, s := range traced.Body {
		if ls, ok := s.(LabelStm); ok {
			seen[ls.Label]++
		}
	}
	for l, n := range seen {
		require.Equal(t, 1, n, "label %v defined %d times", l, n)
	}
}
