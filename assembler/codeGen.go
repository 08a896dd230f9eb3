package assembler

import "github.gatech.edu/ECEInnovation/RV32I-Assembler/isa"

// The make* functions only place bits. Range checking happens in the encoder
// before any of them is called, so the masks here never hide an overflow.

func makeRTypeInstruction(spec isa.InstructionSpec, rd, rs1, rs2 uint32) uint32 {
	return (spec.Funct7 << 25) | (rs2 << 20) | (rs1 << 15) | (spec.Funct3 << 12) | (rd << 7) | spec.Opcode
}

func makeITypeInstruction(spec isa.InstructionSpec, rd, rs1 uint32, imm int32) uint32 {
	u := uint32(imm) & 0xFFF
	if spec.HasFunct7 {
		// shifts: imm[11:5] holds funct7, imm[4:0] the shift amount
		u = (spec.Funct7 << 5) | (u & 0x1F)
	}
	return (u << 20) | (rs1 << 15) | (spec.Funct3 << 12) | (rd << 7) | spec.Opcode
}

func makeSTypeInstruction(spec isa.InstructionSpec, rs1, rs2 uint32, imm int32) uint32 {
	u := uint32(imm) & 0xFFF
	return ((u >> 5) << 25) | (rs2 << 20) | (rs1 << 15) | (spec.Funct3 << 12) | ((u & 0x1F) << 7) | spec.Opcode
}

func makeBTypeInstruction(spec isa.InstructionSpec, rs1, rs2 uint32, imm int32) uint32 {
	// imm is the byte offset, bit 0 is implicit
	u := uint32(imm) & 0x1FFF

	instr := (rs2 << 20) | (rs1 << 15) | (spec.Funct3 << 12) | spec.Opcode
	instr |= ((u >> 12) & 0x1) << 31
	instr |= ((u >> 11) & 0x1) << 7
	instr |= ((u >> 5) & 0x3F) << 25
	instr |= ((u >> 1) & 0xF) << 8

	return instr
}

func makeUTypeInstruction(spec isa.InstructionSpec, rd uint32, imm int32) uint32 {
	u := uint32(imm) & 0xFFFFF
	return (u << 12) | (rd << 7) | spec.Opcode
}

func makeJTypeInstruction(spec isa.InstructionSpec, rd uint32, imm int32) uint32 {
	// imm is the byte offset, bit 0 is implicit
	u := uint32(imm) & 0x1FFFFF

	instr := (rd << 7) | spec.Opcode
	instr |= ((u >> 20) & 0x1) << 31
	instr |= ((u >> 1) & 0x3FF) << 21
	instr |= ((u >> 11) & 0x1) << 20
	instr |= ((u >> 12) & 0xFF) << 12

	return instr
}

// signExtend interprets the low width bits of v as a two's complement number.
func signExtend(v uint32, width uint) int32 {
	shift := 32 - width
	return int32(v<<shift) >> shift
}

func DecodeRTypeInstruction(instruction uint32) (opcode, rd, rs1, rs2, func7, func3 uint32) {
	opcode = instruction & 0x7F
	rd = (instruction >> 7) & 0x1F
	func3 = (instruction >> 12) & 0x7
	rs1 = (instruction >> 15) & 0x1F
	rs2 = (instruction >> 20) & 0x1F
	func7 = (instruction >> 25) & 0x7F
	return
}

func DecodeITypeInstruction(instruction uint32) (opcode, rd, rs1, func3 uint32, imm int32) {
	opcode = instruction & 0x7F
	rd = (instruction >> 7) & 0x1F
	func3 = (instruction >> 12) & 0x7
	rs1 = (instruction >> 15) & 0x1F
	imm = signExtend(instruction>>20, 12)
	return
}

func DecodeSTypeInstruction(instruction uint32) (opcode, rs1, rs2, func3 uint32, imm int32) {
	opcode = instruction & 0x7F
	func3 = (instruction >> 12) & 0x7
	rs1 = (instruction >> 15) & 0x1F
	rs2 = (instruction >> 20) & 0x1F
	imm = signExtend((((instruction>>25)&0x7F)<<5)|((instruction>>7)&0x1F), 12)
	return
}

func DecodeBTypeInstruction(instruction uint32) (opcode, rs1, rs2, func3 uint32, imm int32) {
	opcode = instruction & 0x7F
	func3 = (instruction >> 12) & 0x7
	rs1 = (instruction >> 15) & 0x1F
	rs2 = (instruction >> 20) & 0x1F
	u := ((instruction >> 31) & 0x1) << 12
	u |= ((instruction >> 7) & 0x1) << 11
	u |= ((instruction >> 25) & 0x3F) << 5
	u |= ((instruction >> 8) & 0xF) << 1
	imm = signExtend(u, 13)
	return
}

func DecodeUTypeInstruction(instruction uint32) (opcode, rd uint32, imm int32) {
	opcode = instruction & 0x7F
	rd = (instruction >> 7) & 0x1F
	imm = int32((instruction >> 12) & 0xFFFFF)
	return
}

func DecodeJTypeInstruction(instruction uint32) (opcode, rd uint32, imm int32) {
	opcode = instruction & 0x7F
	rd = (instruction >> 7) & 0x1F
	u := ((instruction >> 31) & 0x1) << 20
	u |= ((instruction >> 21) & 0x3FF) << 1
	u |= ((instruction >> 20) & 0x1) << 11
	u |= ((instruction >> 12) & 0xFF) << 12
	imm = signExtend(u, 21)
	return
}

func GetOpCode(instruction uint32) uint32 {
	return instruction & 0x7F
}
