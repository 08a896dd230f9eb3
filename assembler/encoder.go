package assembler

import (
	"encoding/binary"

	"github.gatech.edu/ECEInnovation/RV32I-Assembler/isa"
	"github.gatech.edu/ECEInnovation/RV32I-Assembler/util"
)

type encoder struct {
	ctx  *AssemblyContext
	line SourceLine
	raw  rawLine
	pc   uint32
}

func (e *encoder) register(operand string) (uint32, error) {
	r, ok := RegisterNameMap[operand]
	if !ok {
		return 0, Errors.UnknownRegister(e.raw, operand)
	}
	return r, nil
}

func (e *encoder) registers(operands ...string) ([]uint32, error) {
	out := make([]uint32, len(operands))
	for i, op := range operands {
		r, err := e.register(op)
		if err != nil {
			return nil, err
		}
		out[i] = r
	}
	return out, nil
}

// immediate evaluates an absolute immediate and checks it against spec's range.
func (e *encoder) immediate(spec isa.InstructionSpec, operand string) (int32, error) {
	res, err := evaluate(e.raw, operand, e.ctx.Symbols.lookup)
	if err != nil {
		return 0, err
	}
	return checkImmediate(e.raw, spec, operand, res.Value)
}

// target evaluates a branch or jump target. Symbols become offsets from the
// instruction's own address, a plain number is already an offset.
func (e *encoder) target(spec isa.InstructionSpec, operand string) (int32, error) {
	res, err := evaluate(e.raw, operand, e.ctx.Symbols.lookup)
	if err != nil {
		return 0, err
	}
	offset := res.Value
	if res.Symbolic {
		offset -= int64(e.pc)
	} else {
		e.ctx.Diagnostics = append(e.ctx.Diagnostics, Warnings.ExplicitNumberLiteralForLabel(e.raw, operand))
	}
	return checkImmediate(e.raw, spec, operand, offset)
}

// memory parses "imm(reg)" into its base register and checked offset.
func (e *encoder) memory(spec isa.InstructionSpec, operand string) (uint32, int32, error) {
	offset, reg, ok := parseMemOperand(operand)
	if !ok {
		return 0, 0, Errors.InvalidOperand(e.raw, operand, "expected offset(register)")
	}
	base, err := e.register(reg)
	if err != nil {
		return 0, 0, err
	}
	imm, err := e.immediate(spec, offset)
	return base, imm, err
}

func (e *encoder) instruction(spec isa.InstructionSpec) (Instruction, error) {
	ops := e.line.Operands
	inst := Instruction{Spec: spec}
	var err error

	switch spec.Format {
	case isa.FormatR:
		var regs []uint32
		if regs, err = e.registers(ops...); err == nil {
			inst.Rd, inst.Rs1, inst.Rs2 = regs[0], regs[1], regs[2]
		}
	case isa.FormatI:
		switch {
		case spec.HasFixedImm:
		case spec.Opcode == isa.OPCODE_MEMITYPE, spec.Opcode == isa.OPCODE_JALR && len(ops) == 2:
			if inst.Rd, err = e.register(ops[0]); err == nil {
				inst.Rs1, inst.Imm, err = e.memory(spec, ops[1])
			}
		default:
			var regs []uint32
			if regs, err = e.registers(ops[0], ops[1]); err == nil {
				inst.Rd, inst.Rs1 = regs[0], regs[1]
				inst.Imm, err = e.immediate(spec, ops[2])
			}
		}
	case isa.FormatS:
		if inst.Rs2, err = e.register(ops[0]); err == nil {
			inst.Rs1, inst.Imm, err = e.memory(spec, ops[1])
		}
	case isa.FormatSB:
		var regs []uint32
		if regs, err = e.registers(ops[0], ops[1]); err == nil {
			inst.Rs1, inst.Rs2 = regs[0], regs[1]
			inst.Imm, err = e.target(spec, ops[2])
		}
	case isa.FormatU:
		if inst.Rd, err = e.register(ops[0]); err == nil {
			inst.Imm, err = e.immediate(spec, ops[1])
		}
	case isa.FormatUJ:
		if inst.Rd, err = e.register(ops[0]); err == nil {
			inst.Imm, err = e.target(spec, ops[1])
		}
	}
	return inst, err
}

// dataBytes encodes a data directive in little-endian byte order.
func (e *encoder) dataBytes(size uint64) ([]byte, error) {
	switch e.line.Mnemonic {
	case ".byte", ".half", ".word":
		width := map[string]int{".byte": 1, ".half": 2, ".word": 4}[e.line.Mnemonic]
		min, max := -(int64(1) << (8*width - 1)), int64(1)<<(8*width)-1
		out := make([]byte, 0, width*len(e.line.Operands))
		for _, op := range e.line.Operands {
			res, err := evaluate(e.raw, op, e.ctx.Symbols.lookup)
			if err != nil {
				return nil, err
			}
			if res.Value < min || res.Value > max {
				return nil, Errors.ImmediateOutOfRange(e.raw, op, res.Value, min, max)
			}
			var buf [4]byte
			binary.LittleEndian.PutUint32(buf[:], uint32(res.Value))
			out = append(out, buf[:width]...)
		}
		return out, nil
	case ".ascii", ".asciz":
		var out []byte
		for _, op := range e.line.Operands {
			s, _ := parseStringLiteral(op)
			out = append(out, s...)
			if e.line.Mnemonic == ".asciz" {
				out = append(out, 0)
			}
		}
		return out, nil
	case ".space":
		fill := int64(0)
		if len(e.line.Operands) == 2 {
			res, err := evaluate(e.raw, e.line.Operands[1], e.ctx.Symbols.lookup)
			if err != nil {
				return nil, err
			}
			if res.Value < -128 || res.Value > 255 {
				return nil, Errors.ImmediateOutOfRange(e.raw, e.line.Operands[1], res.Value, -128, 255)
			}
			fill = res.Value
		}
		out := make([]byte, size)
		for i := range out {
			out[i] = byte(fill)
		}
		return out, nil
	}
	// .align and .balign pad with zeros
	return make([]byte, size), nil
}

// Encode is pass 2. It needs the layout and symbol table ResolveSymbols left
// in ctx and does not modify the table.
func Encode(ctx *AssemblyContext, lines []SourceLine) (*AssembledResult, error) {
	res := &AssembledResult{
		Symbols:           ctx.Symbols,
		Globals:           ctx.Globals,
		Size:              ctx.size,
		TextBase:          ctx.Config.TextBase,
		DataBase:          ctx.Config.DataBase,
		AddressToLine:     make(map[uint32]int),
		LabelToLineNumber: make(map[string]int),
	}
	if !ctx.Config.HasDataBase {
		res.DataBase = ctx.Config.TextBase
	}

	for i, line := range lines {
		e := &encoder{ctx: ctx, line: line, raw: rawLine{num: line.Num, text: line.Raw}, pc: ctx.Address(i)}

		switch {
		case line.Mnemonic == "":
		case line.IsInstruction():
			spec, ok := ctx.Config.Table.Lookup(line.Mnemonic)
			if !ok {
				return nil, Errors.UnknownMnemonic(e.raw, line.Mnemonic)
			}
			inst, err := e.instruction(spec)
			if err != nil {
				return nil, err
			}
			res.Words = append(res.Words, EncodedWord{Address: e.pc, Value: inst.Encode(), Line: line.Num, Text: line.Text()})
			res.AddressToLine[e.pc] = line.Num
		case line.Mnemonic == ".globl":
			for _, name := range line.Operands {
				if _, ok := ctx.Symbols[name]; !ok {
					return nil, Errors.UndefinedSymbol(e.raw, name)
				}
			}
		case line.Mnemonic == ".text", line.Mnemonic == ".data", line.Mnemonic == ".equ":
		default:
			size, err := dataSize(line, uint64(e.pc), ctx.Symbols)
			if err != nil {
				return nil, err
			}
			data, err := e.dataBytes(size)
			if err != nil {
				return nil, err
			}
			if len(data) > 0 {
				res.Data = append(res.Data, DataBlock{Address: e.pc, Bytes: data, Line: line.Num})
			}
		}
	}

	for name, sym := range ctx.Symbols {
		res.LabelToLineNumber[name] = sym.Line
	}
	res.Diagnostics = ctx.Diagnostics
	util.LogF("pass 2: %d words, %d data blocks\n", len(res.Words), len(res.Data))
	return res, nil
}
