package isa

// Format is one of the six RV32I instruction layouts.
type Format int

const (
	FormatR Format = iota
	FormatI
	FormatS
	FormatSB
	FormatU
	FormatUJ
)

func (f Format) String() string {
	switch f {
	case FormatR:
		return "R"
	case FormatI:
		return "I"
	case FormatS:
		return "S"
	case FormatSB:
		return "SB"
	case FormatU:
		return "U"
	case FormatUJ:
		return "UJ"
	}
	return "?"
}

// opcode conversions
const (
	OPCODE_RTYPE    = 0b0110011
	OPCODE_ITYPE    = 0b0010011
	OPCODE_STYPE    = 0b0100011
	OPCODE_BTYPE    = 0b1100011
	OPCODE_LUI      = 0b0110111
	OPCODE_AUIPC    = 0b0010111
	OPCODE_JAL      = 0b1101111
	OPCODE_JALR     = 0b1100111
	OPCODE_MEMITYPE = 0b0000011
	OPCODE_ENV      = 0b1110011
	OPCODE_FENCE    = 0b0001111
)

// InstructionSpec holds the fixed encoding bits of one mnemonic.
// Funct3, Funct7 and FixedImm are only meaningful when the matching Has flag is set.
type InstructionSpec struct {
	Mnemonic    string
	Format      Format
	Opcode      uint32
	Funct3      uint32
	HasFunct3   bool
	Funct7      uint32
	HasFunct7   bool
	FixedImm    uint32 // ecall, ebreak and fence carry their immediate in the table
	HasFixedImm bool
}

// Table maps a mnemonic to its spec. Lookups are case-sensitive.
// A Table is read-only once built and may be shared between assembler runs.
type Table map[string]InstructionSpec

func (t Table) Lookup(mnemonic string) (InstructionSpec, bool) {
	spec, ok := t[mnemonic]
	return spec, ok
}

func rType(m string, funct3, funct7 uint32) InstructionSpec {
	return InstructionSpec{Mnemonic: m, Format: FormatR, Opcode: OPCODE_RTYPE, Funct3: funct3, HasFunct3: true, Funct7: funct7, HasFunct7: true}
}

func iType(m string, opcode, funct3 uint32) InstructionSpec {
	return InstructionSpec{Mnemonic: m, Format: FormatI, Opcode: opcode, Funct3: funct3, HasFunct3: true}
}

func shiftType(m string, funct3, funct7 uint32) InstructionSpec {
	s := iType(m, OPCODE_ITYPE, funct3)
	s.Funct7 = funct7
	s.HasFunct7 = true
	return s
}

func fixedType(m string, opcode, imm uint32) InstructionSpec {
	s := iType(m, opcode, 0)
	s.FixedImm = imm
	s.HasFixedImm = true
	return s
}

func sType(m string, funct3 uint32) InstructionSpec {
	return InstructionSpec{Mnemonic: m, Format: FormatS, Opcode: OPCODE_STYPE, Funct3: funct3, HasFunct3: true}
}

func bType(m string, funct3 uint32) InstructionSpec {
	return InstructionSpec{Mnemonic: m, Format: FormatSB, Opcode: OPCODE_BTYPE, Funct3: funct3, HasFunct3: true}
}

var rv32i = func() Table {
	specs := []InstructionSpec{
		rType("add", 0b000, 0b0000000),
		rType("sub", 0b000, 0b0100000),
		rType("sll", 0b001, 0b0000000),
		rType("slt", 0b010, 0b0000000),
		rType("sltu", 0b011, 0b0000000),
		rType("xor", 0b100, 0b0000000),
		rType("srl", 0b101, 0b0000000),
		rType("sra", 0b101, 0b0100000),
		rType("or", 0b110, 0b0000000),
		rType("and", 0b111, 0b0000000),

		iType("addi", OPCODE_ITYPE, 0b000),
		iType("slti", OPCODE_ITYPE, 0b010),
		iType("sltiu", OPCODE_ITYPE, 0b011),
		iType("xori", OPCODE_ITYPE, 0b100),
		iType("ori", OPCODE_ITYPE, 0b110),
		iType("andi", OPCODE_ITYPE, 0b111),
		shiftType("slli", 0b001, 0b0000000),
		shiftType("srli", 0b101, 0b0000000),
		shiftType("srai", 0b101, 0b0100000),

		iType("lb", OPCODE_MEMITYPE, 0b000),
		iType("lh", OPCODE_MEMITYPE, 0b001),
		iType("lw", OPCODE_MEMITYPE, 0b010),
		iType("lbu", OPCODE_MEMITYPE, 0b100),
		iType("lhu", OPCODE_MEMITYPE, 0b101),

		iType("jalr", OPCODE_JALR, 0b000),

		fixedType("ecall", OPCODE_ENV, 0),
		fixedType("ebreak", OPCODE_ENV, 1),
		fixedType("fence", OPCODE_FENCE, 0x0FF), // pred=iorw, succ=iorw

		sType("sb", 0b000),
		sType("sh", 0b001),
		sType("sw", 0b010),

		bType("beq", 0b000),
		bType("bne", 0b001),
		bType("blt", 0b100),
		bType("bge", 0b101),
		bType("bltu", 0b110),
		bType("bgeu", 0b111),

		{Mnemonic: "lui", Format: FormatU, Opcode: OPCODE_LUI},
		{Mnemonic: "auipc", Format: FormatU, Opcode: OPCODE_AUIPC},

		{Mnemonic: "jal", Format: FormatUJ, Opcode: OPCODE_JAL},
	}

	t := make(Table, len(specs))
	for _, s := range specs {
		t[s.Mnemonic] = s
	}
	return t
}()

// RV32I returns the base integer instruction table. Callers must not modify it.
func RV32I() Table {
	return rv32i
}
