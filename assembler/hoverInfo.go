package assembler

import (
	"fmt"

	"github.gatech.edu/ECEInnovation/RV32I-Assembler/isa"
)

type hoverInfoFormatsType struct {
	labelDefinition    string
	constantDefinition string
	labelReference     string
	integerLiteral     string
	encoding           string

	zeroRegister         string
	raRegister           string
	spRegister           string
	gpRegister           string
	tpRegister           string
	namedGenericRegister string
	genericRegister      string
}

var hoverInfoFormats = hoverInfoFormatsType{
	labelDefinition:    "Definition of label `%s`.\n\nAddress 0x%08X in `.%s`",
	constantDefinition: "Definition of constant `%s`.\n\nValue `%d` (0x%X)",
	labelReference:     "Reference to `%s`\n\nEvaluates to `%d` (0x%X)",
	integerLiteral:     "Integer Literal `%d` (`0x%X`)",
	encoding:           "`0x%08X`: `%s`",

	zeroRegister:         "Zero Register `zero` (`x0`)\n\nReads as `0`, writes are discarded",
	raRegister:           "Return Address Register `ra` (`x1`)\n\nHolds the return address written by `jal`/`jalr`",
	spRegister:           "Stack Pointer Register `sp` (`x2`)",
	gpRegister:           "Global Pointer Register `gp` (`x3`)",
	tpRegister:           "Thread Pointer Register `tp` (`x4`)",
	genericRegister:      "Register `x%d`. 32-Bit General Purpose Register",
	namedGenericRegister: "Register `%s` (`x%d`). 32-Bit General Purpose Register",
}

type instructionDoc struct {
	title  string
	usage  string
	effect string
}

// instructionDocs documents base and pseudo instructions alike.
var instructionDocs = map[string]instructionDoc{
	"add":  {"Add", "add rd, rs1, rs2", "rd = rs1 + rs2"},
	"sub":  {"Subtract", "sub rd, rs1, rs2", "rd = rs1 - rs2"},
	"sll":  {"Shift Left Logical", "sll rd, rs1, rs2", "rd = rs1 << rs2[4:0]"},
	"slt":  {"Set Less Than", "slt rd, rs1, rs2", "rd = (rs1 < rs2) ? 1 : 0, signed"},
	"sltu": {"Set Less Than Unsigned", "sltu rd, rs1, rs2", "rd = (rs1 < rs2) ? 1 : 0, unsigned"},
	"xor":  {"Exclusive Or", "xor rd, rs1, rs2", "rd = rs1 ^ rs2"},
	"srl":  {"Shift Right Logical", "srl rd, rs1, rs2", "rd = rs1 >> rs2[4:0], zero fill"},
	"sra":  {"Shift Right Arithmetic", "sra rd, rs1, rs2", "rd = rs1 >> rs2[4:0], sign fill"},
	"or":   {"Or", "or rd, rs1, rs2", "rd = rs1 | rs2"},
	"and":  {"And", "and rd, rs1, rs2", "rd = rs1 & rs2"},

	"addi":  {"Add Immediate", "addi rd, rs1, imm", "rd = rs1 + imm, imm in [-2048, 2047]"},
	"slti":  {"Set Less Than Immediate", "slti rd, rs1, imm", "rd = (rs1 < imm) ? 1 : 0, signed"},
	"sltiu": {"Set Less Than Immediate Unsigned", "sltiu rd, rs1, imm", "rd = (rs1 < imm) ? 1 : 0, unsigned compare of the sign-extended imm"},
	"xori":  {"Exclusive Or Immediate", "xori rd, rs1, imm", "rd = rs1 ^ imm"},
	"ori":   {"Or Immediate", "ori rd, rs1, imm", "rd = rs1 | imm"},
	"andi":  {"And Immediate", "andi rd, rs1, imm", "rd = rs1 & imm"},
	"slli":  {"Shift Left Logical Immediate", "slli rd, rs1, shamt", "rd = rs1 << shamt, shamt in [0, 31]"},
	"srli":  {"Shift Right Logical Immediate", "srli rd, rs1, shamt", "rd = rs1 >> shamt, zero fill"},
	"srai":  {"Shift Right Arithmetic Immediate", "srai rd, rs1, shamt", "rd = rs1 >> shamt, sign fill"},

	"lb":  {"Load Byte", "lb rd, imm(rs1)", "rd = sext(mem8[rs1 + imm])"},
	"lh":  {"Load Halfword", "lh rd, imm(rs1)", "rd = sext(mem16[rs1 + imm])"},
	"lw":  {"Load Word", "lw rd, imm(rs1)", "rd = mem32[rs1 + imm]"},
	"lbu": {"Load Byte Unsigned", "lbu rd, imm(rs1)", "rd = zext(mem8[rs1 + imm])"},
	"lhu": {"Load Halfword Unsigned", "lhu rd, imm(rs1)", "rd = zext(mem16[rs1 + imm])"},
	"sb":  {"Store Byte", "sb rs2, imm(rs1)", "mem8[rs1 + imm] = rs2[7:0]"},
	"sh":  {"Store Halfword", "sh rs2, imm(rs1)", "mem16[rs1 + imm] = rs2[15:0]"},
	"sw":  {"Store Word", "sw rs2, imm(rs1)", "mem32[rs1 + imm] = rs2"},

	"beq":  {"Branch If Equal", "beq rs1, rs2, label", "if rs1 == rs2: pc += offset, offset in [-4096, 4094]"},
	"bne":  {"Branch If Not Equal", "bne rs1, rs2, label", "if rs1 != rs2: pc += offset"},
	"blt":  {"Branch If Less Than", "blt rs1, rs2, label", "if rs1 < rs2: pc += offset, signed"},
	"bge":  {"Branch If Greater Or Equal", "bge rs1, rs2, label", "if rs1 >= rs2: pc += offset, signed"},
	"bltu": {"Branch If Less Than Unsigned", "bltu rs1, rs2, label", "if rs1 < rs2: pc += offset, unsigned"},
	"bgeu": {"Branch If Greater Or Equal Unsigned", "bgeu rs1, rs2, label", "if rs1 >= rs2: pc += offset, unsigned"},

	"jal":   {"Jump And Link", "jal rd, label", "rd = pc + 4; pc += offset, offset in [-1048576, 1048574]"},
	"jalr":  {"Jump And Link Register", "jalr rd, rs1, imm", "rd = pc + 4; pc = (rs1 + imm) & ~1"},
	"lui":   {"Load Upper Immediate", "lui rd, imm", "rd = imm << 12"},
	"auipc": {"Add Upper Immediate To PC", "auipc rd, imm", "rd = pc + (imm << 12)"},

	"ecall":  {"Environment Call", "ecall", "transfer control to the execution environment"},
	"ebreak": {"Environment Break", "ebreak", "transfer control to a debugger"},
	"fence":  {"Fence", "fence", "order memory and I/O accesses"},

	"nop":  {"No Operation", "nop", "addi x0, x0, 0"},
	"mv":   {"Move", "mv rd, rs", "addi rd, rs, 0"},
	"not":  {"Bitwise Not", "not rd, rs", "xori rd, rs, -1"},
	"neg":  {"Negate", "neg rd, rs", "sub rd, x0, rs"},
	"seqz": {"Set If Zero", "seqz rd, rs", "sltiu rd, rs, 1"},
	"snez": {"Set If Not Zero", "snez rd, rs", "sltu rd, x0, rs"},
	"sltz": {"Set If Negative", "sltz rd, rs", "slt rd, rs, x0"},
	"sgtz": {"Set If Positive", "sgtz rd, rs", "slt rd, x0, rs"},
	"li":   {"Load Immediate", "li rd, imm", "addi, or lui + addi when imm does not fit in 12 bits"},
	"la":   {"Load Address", "la rd, symbol", "lui rd, %hi(symbol); addi rd, rd, %lo(symbol)"},
	"j":    {"Jump", "j label", "jal x0, label"},
	"call": {"Call", "call label", "jal ra, label"},
	"tail": {"Tail Call", "tail label", "jal x0, label"},
	"jr":   {"Jump Register", "jr rs", "jalr x0, rs, 0"},
	"ret":  {"Return", "ret", "jalr x0, ra, 0"},
	"beqz": {"Branch If Zero", "beqz rs, label", "beq rs, x0, label"},
	"bnez": {"Branch If Not Zero", "bnez rs, label", "bne rs, x0, label"},
	"bltz": {"Branch If Negative", "bltz rs, label", "blt rs, x0, label"},
	"bgez": {"Branch If Not Negative", "bgez rs, label", "bge rs, x0, label"},
	"blez": {"Branch If Not Positive", "blez rs, label", "bge x0, rs, label"},
	"bgtz": {"Branch If Positive", "bgtz rs, label", "blt x0, rs, label"},
	"bgt":  {"Branch If Greater Than", "bgt rs, rt, label", "blt rt, rs, label"},
	"ble":  {"Branch If Less Or Equal", "ble rs, rt, label", "bge rt, rs, label"},
	"bgtu": {"Branch If Greater Than Unsigned", "bgtu rs, rt, label", "bltu rt, rs, label"},
	"bleu": {"Branch If Less Or Equal Unsigned", "bleu rs, rt, label", "bgeu rt, rs, label"},
}

func getHoverInfoForInstruction(mnemonic string) string {
	doc, ok := instructionDocs[mnemonic]
	if !ok {
		return ""
	}
	if _, base := isa.RV32I().Lookup(mnemonic); !base {
		return fmt.Sprintf("%s Pseudo-instruction.\n\nFormat: `%s`\n\nExpands to `%s`", doc.title, doc.usage, doc.effect)
	}
	return fmt.Sprintf("%s Instruction.\n\nFormat: `%s`\n\n`%s`", doc.title, doc.usage, doc.effect)
}

func getHoverInfoForRegister(register uint32, name string) string {
	switch register {
	case 0:
		return hoverInfoFormats.zeroRegister
	case 1:
		return hoverInfoFormats.raRegister
	case 2:
		return hoverInfoFormats.spRegister
	case 3:
		return hoverInfoFormats.gpRegister
	case 4:
		return hoverInfoFormats.tpRegister
	}
	if name[0] != 'x' {
		return fmt.Sprintf(hoverInfoFormats.namedGenericRegister, name, register)
	}
	return fmt.Sprintf(hoverInfoFormats.genericRegister, register)
}
