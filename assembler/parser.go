package assembler

import (
	"strconv"
	"strings"
	"unicode"

	"github.gatech.edu/ECEInnovation/RV32I-Assembler/isa"
)

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentChar(c byte) bool {
	return isIdentStart(c) || (c >= '0' && c <= '9')
}

func isIdentifier(s string) bool {
	if s == "" || !isIdentStart(s[0]) {
		return false
	}
	for i := 1; i < len(s); i++ {
		if !isIdentChar(s[i]) {
			return false
		}
	}
	return true
}

// stripComment drops everything from the first '#' or ';' that is not inside
// a string or character literal.
func stripComment(line string) string {
	var quote byte
	for i := 0; i < len(line); i++ {
		c := line[i]
		switch {
		case quote != 0:
			if c == '\\' {
				i++
			} else if c == quote {
				quote = 0
			}
		case c == '"' || c == '\'':
			quote = c
		case c == '#' || c == ';':
			return line[:i]
		}
	}
	return line
}

// splitOperands splits on commas that are outside quotes and parentheses.
// An empty input yields no operands.
func splitOperands(s string) []string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}

	var ops []string
	var quote byte
	depth := 0
	start := 0
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case quote != 0:
			if c == '\\' {
				i++
			} else if c == quote {
				quote = 0
			}
		case c == '"' || c == '\'':
			quote = c
		case c == '(':
			depth++
		case c == ')':
			if depth > 0 {
				depth--
			}
		case c == ',' && depth == 0:
			ops = append(ops, strings.TrimSpace(s[start:i]))
			start = i + 1
		}
	}
	return append(ops, strings.TrimSpace(s[start:]))
}

// splitLabel separates a leading "name:" from the rest of the statement.
func splitLabel(line rawLine, text string) (label, rest string, err error) {
	text = strings.TrimSpace(text)
	idx := strings.IndexByte(text, ':')
	if idx < 0 {
		return "", text, nil
	}
	head := text[:idx]
	if strings.ContainsAny(head, " \t\"'(,") {
		return "", text, nil
	}
	if !isIdentifier(head) {
		return "", "", Errors.Syntax(line, "invalid label name \"%s\"", head)
	}
	return head, strings.TrimSpace(text[idx+1:]), nil
}

// splitMnemonic returns the first word of a statement and the remaining operand text.
func splitMnemonic(text string) (string, string) {
	idx := strings.IndexFunc(text, unicode.IsSpace)
	if idx < 0 {
		return text, ""
	}
	return text[:idx], strings.TrimSpace(text[idx:])
}

// parseLiteral parses an integer or character literal.
func parseLiteral(s string) (int64, bool) {
	if len(s) >= 3 && s[0] == '\'' && s[len(s)-1] == '\'' {
		value, _, tail, err := strconv.UnquoteChar(s[1:len(s)-1], '\'')
		if err != nil || tail != "" {
			return 0, false
		}
		return int64(value), true
	}
	v, err := strconv.ParseInt(s, 0, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// parseStringLiteral unquotes a double-quoted string operand.
func parseStringLiteral(s string) (string, bool) {
	if len(s) < 2 || s[0] != '"' || s[len(s)-1] != '"' {
		return "", false
	}
	v, err := strconv.Unquote(s)
	if err != nil {
		return "", false
	}
	return v, true
}

// parseMemOperand splits "imm(reg)". An omitted offset means 0.
func parseMemOperand(s string) (offset, reg string, ok bool) {
	if !strings.HasSuffix(s, ")") {
		return "", "", false
	}
	open := strings.LastIndexByte(s, '(')
	if open < 0 {
		return "", "", false
	}
	offset = strings.TrimSpace(s[:open])
	if offset == "" {
		offset = "0"
	}
	return offset, strings.TrimSpace(s[open+1 : len(s)-1]), true
}

type directiveShape struct {
	min, max int // max < 0 means unbounded
	quoted   bool
}

var directives = map[string]directiveShape{
	".text":   {0, 0, false},
	".data":   {0, 0, false},
	".globl":  {1, -1, false},
	".global": {1, -1, false},
	".equ":    {2, 2, false},
	".set":    {2, 2, false},
	".space":  {1, 2, false},
	".skip":   {1, 2, false},
	".byte":   {1, -1, false},
	".half":   {1, -1, false},
	".2byte":  {1, -1, false},
	".word":   {1, -1, false},
	".4byte":  {1, -1, false},
	".ascii":  {1, -1, true},
	".asciz":  {1, -1, true},
	".string": {1, -1, true},
	".align":  {1, 1, false},
	".balign": {1, 1, false},
}

// canonicalDirective folds directive aliases onto one spelling.
func canonicalDirective(d string) string {
	switch d {
	case ".global":
		return ".globl"
	case ".set":
		return ".equ"
	case ".skip":
		return ".space"
	case ".2byte":
		return ".half"
	case ".4byte":
		return ".word"
	case ".string":
		return ".asciz"
	}
	return d
}

func containsInt(list []int, v int) bool {
	for _, x := range list {
		if x == v {
			return true
		}
	}
	return false
}

// ParseLine splits one expanded line into label, mnemonic and operands and
// checks the operand count against the shapes the mnemonic accepts. Operand
// meaning is left to the encoder.
func ParseLine(line rawLine, table isa.Table) (SourceLine, error) {
	out := SourceLine{Num: line.num, Raw: line.text}

	label, rest, err := splitLabel(line, stripComment(line.text))
	if err != nil {
		return out, err
	}
	out.Label = label
	if rest == "" {
		return out, nil
	}
	if l, _, _ := splitLabel(line, rest); l != "" {
		return out, Errors.Syntax(line, "only one label is allowed per line")
	}

	mnemonic, operandText := splitMnemonic(rest)
	out.Mnemonic = mnemonic
	out.Operands = splitOperands(operandText)
	for _, op := range out.Operands {
		if op == "" {
			return out, Errors.Syntax(line, "empty operand")
		}
	}
	n := len(out.Operands)

	if strings.HasPrefix(mnemonic, ".") {
		shape, ok := directives[mnemonic]
		if !ok {
			return out, Errors.UnknownDirective(line, mnemonic)
		}
		out.Directive = true
		out.Mnemonic = canonicalDirective(mnemonic)
		if n < shape.min || (shape.max >= 0 && n > shape.max) {
			return out, Errors.Syntax(line, "wrong number of operands for %s", mnemonic)
		}
		if shape.quoted {
			for _, op := range out.Operands {
				if _, ok := parseStringLiteral(op); !ok {
					return out, Errors.InvalidOperand(line, op, "expected a string literal")
				}
			}
		}
		return out, nil
	}

	var counts []int
	if spec, ok := table.Lookup(mnemonic); ok {
		counts = append(counts, operandCounts(spec)...)
	}
	if p, ok := pseudoInstructions[mnemonic]; ok {
		counts = append(counts, p.operands...)
	}
	if counts == nil {
		return out, Errors.UnknownMnemonic(line, mnemonic)
	}
	if !containsInt(counts, n) {
		return out, Errors.OperandCount(line, mnemonic, n, counts)
	}
	return out, nil
}
