package ir

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/require"
)

func canonOnce(body []Stm) []Stm {
	c := NewCanonizer()
	out := c.function(Function{Name: NamedLabel("Lf"), Body: body})
	return out.Body
}

func TestCanonEliminatesESeq(t *testing.T) {
	x := NewIdent()
	body := []Stm{
		Move{Dst: Temp{Ident: x}, Src: ESeq{
			Stms:  []Stm{Move{Dst: Temp{Ident: x}, Src: Const{Value: 1}}},
			Value: BinExp{Op: Plus, Left: Temp{Ident: x}, Right: Const{Value: 2}},
		}},
	}
	out := canonOnce(body)
	for _, s := range out {
		requireNoESeq(t, s)
	}
}

func requireNoESeq(t *testing.T, s Stm) {
	t.Helper()
	var walkExp func(Exp)
	walkExp = func(e Exp) {
		switch n := e.(type) {
		case ESeq:
			t.Fatalf("ESeq survived canonicalization: %#v", n)
		case BinExp:
			walkExp(n.Left)
			walkExp(n.Right)
		case Mem:
			walkExp(n.Addr)
		case Call:
			walkExp(n.Fn)
			for _, a := range n.Args {
				walkExp(a)
			}
		}
	}
	switch n := s.(type) {
	case Move:
		walkExp(n.Dst)
		walkExp(n.Src)
	case Jump:
		walkExp(n.Target)
	case CJump:
		walkExp(n.Left)
		walkExp(n.Right)
	case Seq:
		for _, sub := range n.Stms {
			requireNoESeq(t, sub)
		}
	}
}

// TestCanonCallStaysTopLevel verifies spec.md §4.2's invariant that a Call
// reached via a Move is never rebound through an extra temp, which is what
// makes canonicalization idempotent on already-canonical Move(Temp, Call).
func TestCanonCallStaysTopLevel(t *testing.T) {
	x := NewIdent()
	body := []Stm{
		Move{Dst: Temp{Ident: x}, Src: Call{Fn: Name{Label: NamedLabel("Lf")}, Args: []Exp{Const{Value: 1}}}},
	}
	once := canonOnce(body)
	require.Len(t, once, 1)
	mv, ok := once[0].(Move)
	require.True(t, ok)
	_, isCall := mv.Src.(Call)
	require.True(t, isCall, "Move RHS should stay a direct Call")

	twice := canonOnce(once)
	diff := cmp.Diff(once, twice, cmpopts.EquateComparable(Label{}, Ident{}))
	require.Empty(t, diff, "canon(canon(ir)) must equal canon(ir)")
}

// TestCanonIdempotentOnArithmetic exercises the idempotence property
// (spec.md §8) on a tree with nested binary expressions and a call, which
// forces Call hoisting and temp introduction.
func TestCanonIdempotentOnArithmetic(t *testing.T) {
	a, b, r := NewIdent(), NewIdent(), NewIdent()
	body := []Stm{
		Move{Dst: Temp{Ident: a}, Src: Const{Value: 3}},
		Move{Dst: Temp{Ident: b}, Src: Const{Value: 4}},
		Move{Dst: Temp{Ident: r}, Src: BinExp{
			Op:   Plus,
			Left: BinExp{Op: Mul, Left: Temp{Ident: a}, Right: Temp{Ident: b}},
			Right: Call{Fn: Name{Label: NamedLabel("Lg")}, Args: []Exp{Temp{Ident: a}}},
		}},
	}

	once := canonOnce(body)
	twice := canonOnce(once)
	diff := cmp.Diff(once, twice, cmpopts.EquateComparable(Label{}, Ident{}))
	require.Empty(t, diff, "canon(canon(ir)) must equal canon(ir)")
}
