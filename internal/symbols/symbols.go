// Package symbols builds the checked class/method/field table the
// translator (internal/ir) resolves variables against. It is the back end's
// read-only view of what the external type checker already validated —
// building it a second time here keeps the translator decoupled from the
// front end's own symbol-table representation.
package symbols

import (
	"fmt"

	"minijavac/internal/ast"
	"minijavac/internal/cerr"
)

// ClassID identifies a class by its position in the program's class list,
// stable for the lifetime of a SymbolTable. The type checker writes the
// underlying int onto ast.InvokeExp.ClassID; the translator reads it back
// via ClassIDFromInt (spec.md §9's "call-id side channel" open question).
type ClassID struct {
	id int
}

// ClassIDFromInt reconstructs a ClassID from the int stored on an
// ast.InvokeExp by the type checker.
func ClassIDFromInt(i int) ClassID {
	return ClassID{id: i}
}

// Int returns the underlying position, for storing onto ast.InvokeExp.ClassID.
func (id ClassID) Int() int {
	return id.id
}

// MethodInfo describes one checked method.
type MethodInfo struct {
	Name       string
	IsStatic   bool
	RetType    ast.Type
	Parameters *OrderedMap[ast.Type]
	Locals     *OrderedMap[ast.Type]
}

// ClassInfo describes one checked class.
type ClassInfo struct {
	Name       string
	SuperClass string
	Fields     *OrderedMap[ast.Type]
	Methods    *OrderedMap[*MethodInfo]
}

// Table is the whole program's symbol table.
type Table struct {
	MainClass string
	classes   *OrderedMap[*ClassInfo]
}

// NewTable builds a Table from a checked AST, reporting duplicate
// declarations as SymbolError CompileErrors.
func NewTable(prg *ast.Prg) (*Table, error) {
	t := &Table{MainClass: prg.MainClass, classes: NewOrderedMap[*ClassInfo]()}

	mainClass := &ClassInfo{Name: prg.MainClass, Fields: NewOrderedMap[ast.Type](), Methods: NewOrderedMap[*MethodInfo]()}
	mainClass.Methods.Put("main", &MethodInfo{
		Name: "main", IsStatic: true, RetType: ast.VoidType,
		Parameters: NewOrderedMap[ast.Type](), Locals: NewOrderedMap[ast.Type](),
	})
	if !t.classes.Put(mainClass.Name, mainClass) {
		return nil, cerr.Newf(cerr.SymbolError, "class %s already defined", mainClass.Name)
	}

	for _, cd := range prg.Classes {
		ci := &ClassInfo{Name: cd.Name, SuperClass: cd.SuperClass, Fields: NewOrderedMap[ast.Type](), Methods: NewOrderedMap[*MethodInfo]()}
		for _, f := range cd.Fields {
			if !ci.Fields.Put(f.Name, f.Type) {
				return nil, cerr.Newf(cerr.SymbolError, "field %s already defined", f.Name)
			}
		}
		for _, md := range cd.Methods {
			mi := &MethodInfo{Name: md.Name, IsStatic: md.IsStatic, RetType: md.RetType, Parameters: NewOrderedMap[ast.Type](), Locals: NewOrderedMap[ast.Type]()}
			for _, p := range md.Parameters {
				if !mi.Parameters.Put(p.Name, p.Type) {
					return nil, cerr.Newf(cerr.SymbolError, "parameter %s already defined", p.Name)
				}
			}
			for _, l := range md.Locals {
				if !mi.Locals.Put(l.Name, l.Type) {
					return nil, cerr.Newf(cerr.SymbolError, "local variable %s already defined", l.Name)
				}
			}
			if !ci.Methods.Put(mi.Name, mi) {
				return nil, cerr.Newf(cerr.SymbolError, "method %s already defined", mi.Name)
			}
		}
		if !t.classes.Put(ci.Name, ci) {
			return nil, cerr.Newf(cerr.SymbolError, "class %s already defined", ci.Name)
		}
	}
	return t, nil
}

// Class looks up a class by name.
func (t *Table) Class(name string) (*ClassInfo, bool) {
	return t.classes.Get(name)
}

// IDOfClass returns the stable ClassID for a class name.
func (t *Table) IDOfClass(name string) (ClassID, bool) {
	i, ok := t.classes.Position(name)
	return ClassID{id: i}, ok
}

// ClassNameOfID reverses IDOfClass.
func (t *Table) ClassNameOfID(id ClassID) (string, bool) {
	return t.classes.Nth(id.id)
}

func (id ClassID) String() string {
	return fmt.Sprintf("%d", id.id)
}
