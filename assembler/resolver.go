package assembler

import (
	"github.gatech.edu/ECEInnovation/RV32I-Assembler/util"
)

type lineLayout struct {
	address uint32
	section Section
}

// AssemblyContext carries everything one assembler run needs between passes.
// A context belongs to a single run and is never shared.
type AssemblyContext struct {
	Config      Config
	Symbols     SymbolTable
	Globals     []string
	Diagnostics []Diagnostic

	layout []lineLayout
	size   uint32
}

func NewContext(cfg Config) *AssemblyContext {
	return &AssemblyContext{Config: cfg, Symbols: make(SymbolTable)}
}

// Address returns the address pass 1 assigned to lines[i].
func (ctx *AssemblyContext) Address(i int) uint32 {
	return ctx.layout[i].address
}

// Size is the number of bytes pass 1 laid out, alignment padding included.
func (ctx *AssemblyContext) Size() uint32 {
	return ctx.size
}

type counters struct {
	text, data uint64
	shared     bool
	section    Section
}

func (c *counters) current() *uint64 {
	if c.shared || c.section == SectionText {
		return &c.text
	}
	return &c.data
}

func constantValue(line rawLine, expr string, symbols SymbolTable) (int64, error) {
	res, err := evaluate(line, expr, symbols.lookup)
	return res.Value, err
}

// dataSize returns how many bytes a data directive occupies at address addr.
func dataSize(line SourceLine, addr uint64, symbols SymbolTable) (uint64, error) {
	raw := rawLine{num: line.Num, text: line.Raw}
	n := uint64(len(line.Operands))

	switch line.Mnemonic {
	case ".byte":
		return n, nil
	case ".half":
		return 2 * n, nil
	case ".word":
		return 4 * n, nil
	case ".ascii", ".asciz":
		var total uint64
		for _, op := range line.Operands {
			s, _ := parseStringLiteral(op)
			total += uint64(len(s))
			if line.Mnemonic == ".asciz" {
				total++
			}
		}
		return total, nil
	case ".space":
		v, err := constantValue(raw, line.Operands[0], symbols)
		if err != nil {
			return 0, err
		}
		if v < 0 || v > 1<<32-1 {
			return 0, Errors.ImmediateOutOfRange(raw, line.Operands[0], v, 0, 1<<32-1)
		}
		return uint64(v), nil
	case ".align", ".balign":
		align, err := alignment(line, symbols)
		if err != nil {
			return 0, err
		}
		return (align - addr%align) % align, nil
	}
	return 0, nil
}

// alignment returns the byte boundary requested by .align (a power of two
// exponent) or .balign (a byte count).
func alignment(line SourceLine, symbols SymbolTable) (uint64, error) {
	raw := rawLine{num: line.Num, text: line.Raw}
	v, err := constantValue(raw, line.Operands[0], symbols)
	if err != nil {
		return 0, err
	}
	if line.Mnemonic == ".align" {
		if v < 0 || v > 16 {
			return 0, Errors.ImmediateOutOfRange(raw, line.Operands[0], v, 0, 16)
		}
		return 1 << uint(v), nil
	}
	if v <= 0 || v > 1<<16 || v&(v-1) != 0 {
		return 0, Errors.InvalidOperand(raw, line.Operands[0], ".balign needs a power of two")
	}
	return uint64(v), nil
}

func (ctx *AssemblyContext) define(line SourceLine, sym Symbol) error {
	if prev, ok := ctx.Symbols[sym.Name]; ok {
		return Errors.DuplicateSymbol(rawLine{num: line.Num, text: line.Raw}, sym.Name, prev.Line)
	}
	ctx.Symbols[sym.Name] = sym
	return nil
}

// ResolveSymbols is pass 1. It assigns an address to every line, records
// every label and .equ constant, and computes the image size. It starts from
// an empty table each time, so running it twice yields the same result.
func ResolveSymbols(ctx *AssemblyContext, lines []SourceLine) error {
	ctx.Symbols = make(SymbolTable)
	ctx.Globals = nil
	ctx.layout = make([]lineLayout, len(lines))
	ctx.size = 0

	c := counters{text: uint64(ctx.Config.TextBase), shared: !ctx.Config.HasDataBase}
	if ctx.Config.HasDataBase {
		c.data = uint64(ctx.Config.DataBase)
	}
	var size uint64

	for i, line := range lines {
		raw := rawLine{num: line.Num, text: line.Raw}
		counter := c.current()
		ctx.layout[i] = lineLayout{address: uint32(*counter), section: c.section}

		if line.Label != "" {
			err := ctx.define(line, Symbol{Name: line.Label, Address: uint32(*counter), Kind: SymbolLabel, Section: c.section, Line: line.Num})
			if err != nil {
				return err
			}
		}

		var advance uint64
		switch {
		case line.Mnemonic == "":
		case line.IsInstruction():
			if c.section != SectionText {
				return Errors.Syntax(raw, "instruction \"%s\" outside the .text section", line.Mnemonic)
			}
			if *counter%4 != 0 {
				return Errors.Syntax(raw, "instruction at misaligned address 0x%x", *counter)
			}
			advance = 4
		case line.Mnemonic == ".text":
			c.section = SectionText
		case line.Mnemonic == ".data":
			c.section = SectionData
		case line.Mnemonic == ".globl":
			ctx.Globals = append(ctx.Globals, line.Operands...)
		case line.Mnemonic == ".equ":
			name := line.Operands[0]
			if !isIdentifier(name) {
				return Errors.InvalidOperand(raw, name, "expected a symbol name")
			}
			v, err := constantValue(raw, line.Operands[1], ctx.Symbols)
			if err != nil {
				return err
			}
			if v < -(1<<31) || v > 1<<32-1 {
				return Errors.ImmediateOutOfRange(raw, line.Operands[1], v, -(1 << 31), 1<<32-1)
			}
			err = ctx.define(line, Symbol{Name: name, Address: uint32(v), Kind: SymbolConstant, Section: c.section, Line: line.Num})
			if err != nil {
				return err
			}
		default:
			n, err := dataSize(line, *counter, ctx.Symbols)
			if err != nil {
				return err
			}
			advance = n
		}

		if *counter+advance > 1<<32 {
			return Errors.Syntax(raw, "program does not fit in the 32-bit address space")
		}
		*counter += advance
		size += advance
		if limit := ctx.Config.MaxSize; limit > 0 && size > uint64(limit) {
			return Errors.Syntax(raw, "program needs more than the limit of %d bytes", limit)
		}
	}

	ctx.size = uint32(size)
	util.LogF("pass 1: %d symbols, %d bytes\n", len(ctx.Symbols), ctx.size)
	return nil
}
