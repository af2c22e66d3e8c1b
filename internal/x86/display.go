package x86

import (
	"fmt"
	"io"
	"strings"
)

func (s Scale) String() string {
	return fmt.Sprintf("%d", int(s))
}

func (ea EffectiveAddress) String() string {
	switch {
	case ea.Base == nil && ea.IndexScale == nil:
		return fmt.Sprintf("%d", ea.Displacement)
	case ea.Base == nil:
		return fmt.Sprintf("%s*%s + %d", ea.IndexScale.Index, ea.IndexScale.Scale, ea.Displacement)
	case ea.IndexScale == nil:
		return fmt.Sprintf("%s + %d", *ea.Base, ea.Displacement)
	default:
		return fmt.Sprintf("%s + %s*%s + %d", *ea.Base, ea.IndexScale.Index, ea.IndexScale.Scale, ea.Displacement)
	}
}

// displayOperand formats an operand, resolving OperandFrameSize against the
// owning function's final frame size.
func displayOperand(o Operand, fn *Function) string {
	switch o.Kind {
	case OperandImm:
		return fmt.Sprintf("%d", o.Imm)
	case OperandReg:
		return o.Reg.String()
	case OperandMem:
		return fmt.Sprintf("DWORD PTR [%s]", o.Mem.String())
	case OperandFrameSize:
		return fmt.Sprintf("%d", fn.Size())
	default:
		panic("x86: unknown operand kind")
	}
}

// displayInstr renders one instruction in Intel syntax.
func displayInstr(i *Instruction, fn *Function) string {
	switch i.Kind {
	case KindUnary:
		return fmt.Sprintf("%s %s", i.UnaryOp, displayOperand(i.Src, fn))
	case KindBinary:
		return fmt.Sprintf("%s %s , %s", i.BinaryOp, displayOperand(i.Dst, fn), displayOperand(i.Src, fn))
	case KindLabel:
		return fmt.Sprintf("%s:", i.Label)
	case KindJMP:
		return fmt.Sprintf("JMP %s", i.Label)
	case KindCALL:
		return fmt.Sprintf("CALL %s", i.Label)
	case KindJ:
		return fmt.Sprintf("J%s %s", i.Cond, i.Label)
	case KindRET:
		return "RET"
	default:
		panic("x86: unknown instruction kind")
	}
}

// WriteTo renders one function as labeled Intel-syntax assembly text.
func (f *Function) WriteTo(w io.Writer) error {
	if _, err := fmt.Fprintf(w, "%s:\n", f.FnName); err != nil {
		return err
	}
	for _, instr := range f.Instrs {
		if _, err := fmt.Fprintf(w, "%s\n", displayInstr(instr, f)); err != nil {
			return err
		}
	}
	return nil
}

// Emit renders the whole program as a single Intel-syntax assembly file,
// headed by the Intel-syntax and global-entry-point directives (spec.md §5).
func (p *Prg) Emit(w io.Writer) error {
	if _, err := io.WriteString(w, "  .intel_syntax noprefix\n  .global Lmain\n"); err != nil {
		return err
	}
	for _, f := range p.Funcs {
		if err := f.WriteTo(w); err != nil {
			return err
		}
		if _, err := io.WriteString(w, "\n"); err != nil {
			return err
		}
	}
	return nil
}

// String renders the whole program, for logging and tests.
func (p *Prg) String() string {
	var b strings.Builder
	_ = p.Emit(&b)
	return b.String()
}
