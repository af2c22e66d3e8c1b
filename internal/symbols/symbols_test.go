package symbols

import (
	"testing"

	"github.com/stretchr/testify/require"

	"minijavac/internal/ast"
	"minijavac/internal/cerr"
)

func TestNewTableRejectsDuplicateField(t *testing.T) {
	prg := &ast.Prg{
		MainClass: "Main",
		MainBody:  &ast.SeqStm{},
		Classes: []ast.ClassDecl{
			{
				Name: "Dup",
				Fields: []ast.VarDecl{
					{Name: "x", Type: ast.IntType},
					{Name: "x", Type: ast.BooleanType},
				},
			},
		},
	}

	_, err := NewTable(prg)
	require.Error(t, err)
	ce, ok := err.(*cerr.CompileError)
	require.True(t, ok)
	require.Equal(t, cerr.SymbolError, ce.Kind)
}

func TestNewTableRejectsDuplicateClass(t *testing.T) {
	prg := &ast.Prg{
		MainClass: "Main",
		MainBody:  &ast.SeqStm{},
		Classes: []ast.ClassDecl{
			{Name: "A"},
			{Name: "A"},
		},
	}

	_, err := NewTable(prg)
	require.Error(t, err)
}

func TestClassIDRoundTrips(t *testing.T) {
	prg := &ast.Prg{
		MainClass: "Main",
		MainBody:  &ast.SeqStm{},
		Classes: []ast.ClassDecl{
			{Name: "A"},
			{Name: "B"},
		},
	}

	st, err := NewTable(prg)
	require.NoError(t, err)

	id, ok := st.IDOfClass("B")
	require.True(t, ok)

	name, ok := st.ClassNameOfID(id)
	require.True(t, ok)
	require.Equal(t, "B", name)

	// ClassIDFromInt/Int round-trip the exact representation ast.InvokeExp
	// stores, since the type checker and translator communicate ClassID
	// through a plain int on the AST node (spec.md §9).
	restored := ClassIDFromInt(id.Int())
	require.Equal(t, id, restored)
}

func TestMainClassGetsSyntheticMainMethod(t *testing.T) {
	prg := &ast.Prg{MainClass: "Main", MainBody: &ast.SeqStm{}}

	st, err := NewTable(prg)
	require.NoError(t, err)

	ci, ok := st.Class("Main")
	require.True(t, ok)

	mi, ok := ci.Methods.Get("main")
	require.True(t, ok)
	require.True(t, mi.IsStatic)
	require.Equal(t, ast.VoidType, mi.RetType)
}
