package assembler

import (
	"fmt"
	"strings"
)

// wordAt returns the operand-like token covering column char of line.
func wordAt(line string, char int) string {
	isWordChar := func(c byte) bool { return isIdentChar(c) || c == '.' || c == '%' }
	if char < 0 || char >= len(line) || !isWordChar(line[char]) {
		return ""
	}
	start, end := char, char
	for start > 0 && isWordChar(line[start-1]) {
		start--
	}
	for end < len(line) && isWordChar(line[end]) {
		end++
	}
	word := line[start:end]
	if start > 0 && line[start-1] == '-' {
		if _, ok := parseLiteral("-" + word); ok {
			word = "-" + word
		}
	}
	return word
}

// encodingsForLine lists the words assembled from a 1-based source line.
func (a *AssembledResult) encodingsForLine(num int) []string {
	var out []string
	for _, w := range a.Words {
		if w.Line != num {
			continue
		}
		text := w.Text
		if inst, err := Decode(w.Value); err == nil {
			text = inst.String()
		}
		out = append(out, fmt.Sprintf(hoverInfoFormats.encoding, w.Value, text))
	}
	return out
}

// EvaluateHover returns markdown for the token at position, or false when
// there is nothing to show. Positions are 0-based.
func (a *AssembledResult) EvaluateHover(position TextPosition) (string, bool) {
	if position.Line < 0 || position.Line >= len(a.fileContents) {
		return "", false
	}
	line := stripComment(a.fileContents[position.Line])
	word := wordAt(line, position.Char)
	if word == "" {
		return "", false
	}

	label, rest, err := splitLabel(rawLine{}, line)
	if err == nil && label == word && position.Char < strings.Index(line, ":") {
		sym, ok := a.Symbols[label]
		if !ok {
			return "", false
		}
		return fmt.Sprintf(hoverInfoFormats.labelDefinition, sym.Name, sym.Address, sym.Section), true
	}

	if mnemonic, _ := splitMnemonic(rest); err == nil && mnemonic == word {
		info := getHoverInfoForInstruction(word)
		if enc := a.encodingsForLine(position.Line + 1); len(enc) > 0 {
			info += "\n\n" + strings.Join(enc, "\n\n")
		}
		return info, info != ""
	}

	if r, ok := RegisterNameMap[word]; ok {
		return getHoverInfoForRegister(r, word), true
	}
	if sym, ok := a.Symbols[word]; ok {
		if sym.Kind == SymbolConstant {
			return fmt.Sprintf(hoverInfoFormats.constantDefinition, sym.Name, sym.Value(), sym.Address), true
		}
		return fmt.Sprintf(hoverInfoFormats.labelReference, sym.Name, sym.Value(), sym.Address), true
	}
	if v, ok := parseLiteral(word); ok {
		return fmt.Sprintf(hoverInfoFormats.integerLiteral, v, uint32(v)), true
	}
	return "", false
}
