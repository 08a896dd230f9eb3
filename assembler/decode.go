package assembler

import (
	"github.com/pkg/errors"
	"github.gatech.edu/ECEInnovation/RV32I-Assembler/isa"
)

// Decoder maps machine words back to instructions using the same table the
// encoder uses.
type Decoder struct {
	byOpcode map[uint32][]isa.InstructionSpec
}

func NewDecoder(table isa.Table) *Decoder {
	d := &Decoder{byOpcode: make(map[uint32][]isa.InstructionSpec)}
	for _, spec := range table {
		d.byOpcode[spec.Opcode] = append(d.byOpcode[spec.Opcode], spec)
	}
	return d
}

func matches(spec isa.InstructionSpec, word uint32) bool {
	if spec.HasFunct3 && (word>>12)&0x7 != spec.Funct3 {
		return false
	}
	if spec.HasFunct7 && (word>>25)&0x7F != spec.Funct7 {
		return false
	}
	if spec.HasFixedImm && word>>7 != spec.FixedImm<<13 {
		// rd, funct3 and rs1 are zero for the fixed-immediate instructions
		return false
	}
	return true
}

func (d *Decoder) Decode(word uint32) (Instruction, error) {
	var spec isa.InstructionSpec
	found := false
	for _, s := range d.byOpcode[GetOpCode(word)] {
		if matches(s, word) {
			spec = s
			found = true
			break
		}
	}
	if !found {
		return Instruction{}, errors.Errorf("no RV32I instruction encodes as 0x%08x", word)
	}

	inst := Instruction{Spec: spec}
	switch spec.Format {
	case isa.FormatR:
		_, inst.Rd, inst.Rs1, inst.Rs2, _, _ = DecodeRTypeInstruction(word)
	case isa.FormatI:
		switch {
		case spec.HasFixedImm:
			inst.Imm = int32(spec.FixedImm)
		case spec.HasFunct7:
			_, inst.Rd, inst.Rs1, _, inst.Imm = DecodeITypeInstruction(word)
			inst.Imm &= 0x1F
		default:
			_, inst.Rd, inst.Rs1, _, inst.Imm = DecodeITypeInstruction(word)
		}
	case isa.FormatS:
		_, inst.Rs1, inst.Rs2, _, inst.Imm = DecodeSTypeInstruction(word)
	case isa.FormatSB:
		_, inst.Rs1, inst.Rs2, _, inst.Imm = DecodeBTypeInstruction(word)
	case isa.FormatU:
		_, inst.Rd, inst.Imm = DecodeUTypeInstruction(word)
	case isa.FormatUJ:
		_, inst.Rd, inst.Imm = DecodeJTypeInstruction(word)
	}
	return inst, nil
}

var defaultDecoder = NewDecoder(isa.RV32I())

// Decode decodes word against the RV32I table.
func Decode(word uint32) (Instruction, error) {
	return defaultDecoder.Decode(word)
}
