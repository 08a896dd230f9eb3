package assembler

import (
	"fmt"

	"github.gatech.edu/ECEInnovation/RV32I-Assembler/isa"
)

// Instruction is a fully resolved instruction. Which fields are meaningful
// depends on Spec.Format; Imm always holds the value the encoding expects
// (byte offset for SB/UJ, upper 20 bits for U, shift amount for shifts).
type Instruction struct {
	Spec isa.InstructionSpec
	Rd   uint32
	Rs1  uint32
	Rs2  uint32
	Imm  int32
}

func (i Instruction) Encode() uint32 {
	switch i.Spec.Format {
	case isa.FormatR:
		return makeRTypeInstruction(i.Spec, i.Rd, i.Rs1, i.Rs2)
	case isa.FormatI:
		if i.Spec.HasFixedImm {
			return makeITypeInstruction(i.Spec, 0, 0, int32(i.Spec.FixedImm))
		}
		return makeITypeInstruction(i.Spec, i.Rd, i.Rs1, i.Imm)
	case isa.FormatS:
		return makeSTypeInstruction(i.Spec, i.Rs1, i.Rs2, i.Imm)
	case isa.FormatSB:
		return makeBTypeInstruction(i.Spec, i.Rs1, i.Rs2, i.Imm)
	case isa.FormatU:
		return makeUTypeInstruction(i.Spec, i.Rd, i.Imm)
	case isa.FormatUJ:
		return makeJTypeInstruction(i.Spec, i.Rd, i.Imm)
	}
	panic(fmt.Sprintf("assembler: unhandled instruction format %v", i.Spec.Format))
}

// String renders the instruction in canonical form with ABI register names.
func (i Instruction) String() string {
	m := i.Spec.Mnemonic
	switch i.Spec.Format {
	case isa.FormatR:
		return fmt.Sprintf("%s %s, %s, %s", m, RegisterName(i.Rd), RegisterName(i.Rs1), RegisterName(i.Rs2))
	case isa.FormatI:
		switch {
		case i.Spec.HasFixedImm:
			return m
		case i.Spec.Opcode == isa.OPCODE_MEMITYPE:
			return fmt.Sprintf("%s %s, %d(%s)", m, RegisterName(i.Rd), i.Imm, RegisterName(i.Rs1))
		}
		return fmt.Sprintf("%s %s, %s, %d", m, RegisterName(i.Rd), RegisterName(i.Rs1), i.Imm)
	case isa.FormatS:
		return fmt.Sprintf("%s %s, %d(%s)", m, RegisterName(i.Rs2), i.Imm, RegisterName(i.Rs1))
	case isa.FormatSB:
		return fmt.Sprintf("%s %s, %s, %d", m, RegisterName(i.Rs1), RegisterName(i.Rs2), i.Imm)
	case isa.FormatU:
		return fmt.Sprintf("%s %s, %d", m, RegisterName(i.Rd), i.Imm)
	case isa.FormatUJ:
		return fmt.Sprintf("%s %s, %d", m, RegisterName(i.Rd), i.Imm)
	}
	return m
}

type immRange struct {
	min, max int64
	even     bool
}

func immediateRange(spec isa.InstructionSpec) immRange {
	switch spec.Format {
	case isa.FormatI:
		if spec.HasFunct7 {
			return immRange{min: 0, max: 31}
		}
		return immRange{min: -2048, max: 2047}
	case isa.FormatS:
		return immRange{min: -2048, max: 2047}
	case isa.FormatSB:
		return immRange{min: -4096, max: 4094, even: true}
	case isa.FormatU:
		return immRange{min: -(1 << 19), max: 1<<20 - 1}
	case isa.FormatUJ:
		return immRange{min: -(1 << 20), max: 1<<20 - 2, even: true}
	}
	return immRange{}
}

func checkImmediate(line rawLine, spec isa.InstructionSpec, operand string, value int64) (int32, error) {
	r := immediateRange(spec)
	if value < r.min || value > r.max {
		return 0, Errors.ImmediateOutOfRange(line, operand, value, r.min, r.max)
	}
	if r.even && value%2 != 0 {
		return 0, Errors.MisalignedOffset(line, operand, value)
	}
	return int32(value), nil
}

// operandCounts lists the operand counts a real instruction accepts.
func operandCounts(spec isa.InstructionSpec) []int {
	switch spec.Format {
	case isa.FormatR, isa.FormatSB:
		return []int{3}
	case isa.FormatI:
		switch {
		case spec.HasFixedImm:
			return []int{0}
		case spec.Opcode == isa.OPCODE_MEMITYPE:
			return []int{2}
		case spec.Opcode == isa.OPCODE_JALR:
			return []int{3, 2}
		}
		return []int{3}
	case isa.FormatS, isa.FormatU, isa.FormatUJ:
		return []int{2}
	}
	return nil
}
