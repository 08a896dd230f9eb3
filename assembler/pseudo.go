package assembler

import (
	"strconv"
	"strings"

	"github.gatech.edu/ECEInnovation/RV32I-Assembler/isa"
)

type pseudoExpansion func(p *pseudoExpander, line SourceLine) ([]SourceLine, error)

type pseudoDef struct {
	operands []int
	expand   pseudoExpansion
}

// rewrite builds a fixed expansion from templates in which "$n" stands for
// the n-th operand of the original line.
func rewrite(templates ...[]string) pseudoExpansion {
	return func(_ *pseudoExpander, line SourceLine) ([]SourceLine, error) {
		pairs := make([]string, 0, 2*len(line.Operands))
		for i, op := range line.Operands {
			pairs = append(pairs, "$"+strconv.Itoa(i), op)
		}
		r := strings.NewReplacer(pairs...)

		out := make([]SourceLine, 0, len(templates))
		for _, t := range templates {
			ops := make([]string, 0, len(t)-1)
			for _, op := range t[1:] {
				ops = append(ops, r.Replace(op))
			}
			out = append(out, SourceLine{Num: line.Num, Raw: line.Raw, Mnemonic: t[0], Operands: ops})
		}
		return out, nil
	}
}

func single(mnemonic string, operands ...string) pseudoExpansion {
	return rewrite(append([]string{mnemonic}, operands...))
}

var pseudoInstructions map[string]pseudoDef

func init() {
	pseudoInstructions = map[string]pseudoDef{
		"nop":  {[]int{0}, single("addi", "x0", "x0", "0")},
		"mv":   {[]int{2}, single("addi", "$0", "$1", "0")},
		"not":  {[]int{2}, single("xori", "$0", "$1", "-1")},
		"neg":  {[]int{2}, single("sub", "$0", "x0", "$1")},
		"seqz": {[]int{2}, single("sltiu", "$0", "$1", "1")},
		"snez": {[]int{2}, single("sltu", "$0", "x0", "$1")},
		"sltz": {[]int{2}, single("slt", "$0", "$1", "x0")},
		"sgtz": {[]int{2}, single("slt", "$0", "x0", "$1")},

		"li": {[]int{2}, expandLoadImmediate},
		"la": {[]int{2}, rewrite(
			[]string{"lui", "$0", "%hi($1)"},
			[]string{"addi", "$0", "$0", "%lo($1)"},
		)},

		"j":    {[]int{1}, single("jal", "x0", "$0")},
		"jal":  {[]int{1}, single("jal", "ra", "$0")},
		"call": {[]int{1}, single("jal", "ra", "$0")},
		"tail": {[]int{1}, single("jal", "x0", "$0")},
		"jr":   {[]int{1}, single("jalr", "x0", "$0", "0")},
		"jalr": {[]int{1}, single("jalr", "ra", "$0", "0")},
		"ret":  {[]int{0}, single("jalr", "x0", "ra", "0")},

		"beqz": {[]int{2}, single("beq", "$0", "x0", "$1")},
		"bnez": {[]int{2}, single("bne", "$0", "x0", "$1")},
		"bltz": {[]int{2}, single("blt", "$0", "x0", "$1")},
		"bgez": {[]int{2}, single("bge", "$0", "x0", "$1")},
		"blez": {[]int{2}, single("bge", "x0", "$0", "$1")},
		"bgtz": {[]int{2}, single("blt", "x0", "$0", "$1")},

		"bgt":  {[]int{3}, single("blt", "$1", "$0", "$2")},
		"ble":  {[]int{3}, single("bge", "$1", "$0", "$2")},
		"bgtu": {[]int{3}, single("bltu", "$1", "$0", "$2")},
		"bleu": {[]int{3}, single("bgeu", "$1", "$0", "$2")},
	}
}

// IsPseudoInstruction reports whether mnemonic is expanded before encoding.
func IsPseudoInstruction(mnemonic string) bool {
	_, ok := pseudoInstructions[mnemonic]
	return ok
}

type pseudoExpander struct {
	constants   map[string]int64 // .equ values seen so far
	diagnostics []Diagnostic
}

func (p *pseudoExpander) lookup(name string) (int64, bool) {
	v, ok := p.constants[name]
	return v, ok
}

func expandLoadImmediate(p *pseudoExpander, line SourceLine) ([]SourceLine, error) {
	raw := rawLine{num: line.Num, text: line.Raw}
	rd, operand := line.Operands[0], line.Operands[1]

	res, err := evaluate(raw, operand, p.lookup)
	if err != nil {
		if ae, ok := AsAssemblyError(err); ok && ae.Kind == UndefinedSymbol {
			ae.Message = "li needs a literal or a constant defined earlier with .equ, got \"" + operand + "\""
		}
		return nil, err
	}

	v := res.Value
	if v < -(1<<31) || v >= 1<<32 {
		return nil, Errors.ImmediateOutOfRange(raw, operand, v, -(1 << 31), 1<<32-1)
	}
	if v >= 1<<31 {
		p.diagnostics = append(p.diagnostics, Warnings.UnintendedSignExtension(raw, operand))
		v = int64(int32(uint32(v)))
	}

	emit := func(mnemonic string, ops ...string) SourceLine {
		return SourceLine{Num: line.Num, Raw: line.Raw, Mnemonic: mnemonic, Operands: ops}
	}
	if v >= -2048 && v <= 2047 {
		return []SourceLine{emit("addi", rd, "x0", strconv.FormatInt(v, 10))}, nil
	}
	lo := lo12(v)
	hi := ((v - lo) >> 12) & 0xFFFFF
	return []SourceLine{
		emit("lui", rd, strconv.FormatInt(hi, 10)),
		emit("addi", rd, rd, strconv.FormatInt(lo, 10)),
	}, nil
}

func (p *pseudoExpander) recordConstant(line SourceLine) {
	if line.Mnemonic != ".equ" || !isIdentifier(line.Operands[0]) {
		return
	}
	res, err := evaluate(rawLine{num: line.Num, text: line.Raw}, line.Operands[1], p.lookup)
	if err == nil {
		p.constants[line.Operands[0]] = int64(int32(uint32(res.Value)))
	}
}

// realShape reports whether line is already a valid base instruction, as
// "jal ra, label" is while "jal label" is not.
func realShape(table isa.Table, line SourceLine) bool {
	spec, ok := table.Lookup(line.Mnemonic)
	return ok && containsInt(operandCounts(spec), len(line.Operands))
}

// ExpandPseudo replaces every pseudo-instruction with its base instructions.
// The label of a pseudo-instruction stays on the first emitted line. Real
// instructions and directives pass through unchanged.
func ExpandPseudo(lines []SourceLine, table isa.Table) ([]SourceLine, []Diagnostic, error) {
	p := &pseudoExpander{constants: make(map[string]int64)}
	out := make([]SourceLine, 0, len(lines))

	for _, line := range lines {
		if line.Directive {
			p.recordConstant(line)
			out = append(out, line)
			continue
		}

		def, ok := pseudoInstructions[line.Mnemonic]
		if !ok || !containsInt(def.operands, len(line.Operands)) || realShape(table, line) {
			out = append(out, line)
			continue
		}

		expanded, err := def.expand(p, line)
		if err != nil {
			return nil, nil, err
		}
		expanded[0].Label = line.Label
		out = append(out, expanded...)
	}
	return out, p.diagnostics, nil
}
