package pipeline

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"minijavac/internal/ast"
)

// TestCompilePrintlnLiteral drives the whole translate/canon/trace/munch/
// allocate/emit chain over the smallest possible checked program (println a
// literal) and checks the result is assembly text naming the entry point,
// without needing to assemble or run it.
func TestCompilePrintlnLiteral(t *testing.T) {
	prg := &ast.Prg{
		MainClass: "Main",
		MainBody: &ast.PrintlnStm{
			Exp: &ast.NumberExp{Value: 42},
		},
	}

	var out strings.Builder
	err := Compile(prg, &out)
	require.NoError(t, err)

	asm := out.String()
	require.Contains(t, asm, "Lmain:")
	require.Contains(t, asm, ".intel_syntax noprefix")
	require.Contains(t, asm, "RET")
}

// TestCompileWithUserClassAndMethod exercises a method call from main into
// a user-defined class, forcing the translator/muncher through a Call and
// the allocator through an extra function.
func TestCompileWithUserClassAndMethod(t *testing.T) {
	prg := &ast.Prg{
		MainClass: "Main",
		MainBody: &ast.PrintlnStm{
			Exp: &ast.InvokeExp{
				Receiver: &ast.NewExp{ClassName: "Doubler"},
				Method:   "twice",
				Args:     []ast.Exp{&ast.NumberExp{Value: 21}},
				ClassID:  intPtr(1), // position 1: "Main" is inserted at 0, "Doubler" at 1
			},
		},
		Classes: []ast.ClassDecl{
			{
				Name: "Doubler",
				Methods: []ast.MethodDecl{
					{
						Name:       "twice",
						RetType:    ast.IntType,
						Parameters: []ast.VarDecl{{Name: "n", Type: ast.IntType}},
						Body:       &ast.SeqStm{},
						Ret: &ast.OpExp{
							Left:  &ast.IdExp{Name: "n"},
							Op:    ast.Add,
							Right: &ast.IdExp{Name: "n"},
						},
					},
				},
			},
		},
	}

	var out strings.Builder
	err := Compile(prg, &out)
	require.NoError(t, err)

	asm := out.String()
	require.Contains(t, asm, "LDoubler$twice:")
	require.Contains(t, asm, "Lmain:")
}

func intPtr(i int) *int { return &i }
