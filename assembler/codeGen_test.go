package assembler_test

import (
	"sort"
	"testing"

	"github.gatech.edu/ECEInnovation/RV32I-Assembler/assembler"
	"github.gatech.edu/ECEInnovation/RV32I-Assembler/isa"
)

// sampleInstruction fills only the fields its format uses.
func sampleInstruction(spec isa.InstructionSpec) assembler.Instruction {
	inst := assembler.Instruction{Spec: spec}
	switch spec.Format {
	case isa.FormatR:
		inst.Rd, inst.Rs1, inst.Rs2 = 5, 6, 7
	case isa.FormatI:
		switch {
		case spec.HasFixedImm:
			inst.Imm = int32(spec.FixedImm)
		case spec.HasFunct7:
			inst.Rd, inst.Rs1, inst.Imm = 5, 6, 17
		default:
			inst.Rd, inst.Rs1, inst.Imm = 5, 6, -5
		}
	case isa.FormatS:
		inst.Rs1, inst.Rs2, inst.Imm = 6, 7, -37
	case isa.FormatSB:
		inst.Rs1, inst.Rs2, inst.Imm = 6, 7, -2050
	case isa.FormatU:
		inst.Rd, inst.Imm = 5, 0x12345
	case isa.FormatUJ:
		inst.Rd, inst.Imm = 5, -524290
	}
	return inst
}

func sortedMnemonics(t isa.Table) []string {
	var names []string
	for m := range t {
		names = append(names, m)
	}
	sort.Strings(names)
	return names
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	table := isa.RV32I()
	for _, m := range sortedMnemonics(table) {
		inst := sampleInstruction(table[m])
		word := inst.Encode()
		if word&0x7F != table[m].Opcode {
			t.Errorf("%s: opcode bits 0x%02x, expected 0x%02x", m, word&0x7F, table[m].Opcode)
		}
		decoded, err := assembler.Decode(word)
		if err != nil {
			t.Errorf("%s: %v", m, err)
			continue
		}
		if decoded != inst {
			t.Errorf("%s: decoded %+v, expected %+v", m, decoded, inst)
		}
	}
}

// Assembling the canonical text of a decoded word must give the word back.
func TestTextRoundTrip(t *testing.T) {
	table := isa.RV32I()
	for _, m := range sortedMnemonics(table) {
		inst := sampleInstruction(table[m])
		want := inst.Encode()
		program, err := assembler.Assemble(inst.String())
		if err != nil {
			t.Errorf("%s: %q: %v", m, inst.String(), err)
			continue
		}
		if got := program.ProgramText()[0]; got != want {
			t.Errorf("%s: %q assembled to 0x%08x, expected 0x%08x", m, inst.String(), got, want)
		}
	}
}

func TestSplitImmediateLimits(t *testing.T) {
	cases := []struct {
		source string
		ok     bool
	}{
		{"sw a0, 2047(sp)", true},
		{"sw a0, -2048(sp)", true},
		{"sw a0, 2048(sp)", false},
		{"sw a0, -2049(sp)", false},
		{"beq a0, a1, 4094", true},
		{"beq a0, a1, -4096", true},
		{"beq a0, a1, 4096", false},
		{"beq a0, a1, -4098", false},
		{"jal ra, 1048574", true},
		{"jal ra, -1048576", true},
		{"jal ra, 1048576", false},
		{"jal ra, -1048578", false},
		{"lui a0, 1048575", true},
		{"lui a0, -524288", true},
		{"lui a0, -524289", false},
		{"slli a0, a0, 31", true},
		{"slli a0, a0, 32", false},
	}
	for _, c := range cases {
		program, err := assembler.Assemble(c.source)
		if c.ok && err != nil {
			t.Errorf("%s: unexpected error %v", c.source, err)
			continue
		}
		if !c.ok {
			if kind, _ := assembler.KindOf(err); err == nil || kind != assembler.ImmediateOutOfRange {
				t.Errorf("%s: expected ImmediateOutOfRange, got %v", c.source, err)
			}
			continue
		}

		inst, derr := assembler.Decode(program.ProgramText()[0])
		if derr != nil {
			t.Fatal(derr)
		}
		if back, _ := assembler.Assemble(inst.String()); back.ProgramText()[0] != program.ProgramText()[0] {
			t.Errorf("%s: field split did not survive decoding (%+v)", c.source, inst)
		}
	}
}

func TestDecodeRejectsUnknownWords(t *testing.T) {
	for _, word := range []uint32{0x00000000, 0xFFFFFFFF, 0x02000033 /* mul */} {
		if inst, err := assembler.Decode(word); err == nil {
			t.Errorf("0x%08x decoded as %v", word, inst)
		}
	}
}
