package assembler

import (
	"strings"
)

type macroExpander struct {
	macros   map[string]*MacroDef
	maxDepth int
	out      []rawLine
}

func parseMacroHeader(line rawLine, text string) (*MacroDef, error) {
	_, rest := splitMnemonic(text)
	name, paramText := splitMnemonic(rest)
	if !isIdentifier(name) {
		return nil, Errors.Syntax(line, "invalid macro name \"%s\"", name)
	}

	def := &MacroDef{Name: name, Line: line.num}
	for _, p := range strings.FieldsFunc(paramText, func(r rune) bool { return r == ',' || r == ' ' || r == '\t' }) {
		if !isIdentifier(p) {
			return nil, Errors.Syntax(line, "invalid macro parameter \"%s\"", p)
		}
		def.Params = append(def.Params, p)
	}
	return def, nil
}

// collectMacros removes every .macro/.endm block from lines and returns the
// definitions by name along with the remaining lines.
func collectMacros(lines []rawLine) (map[string]*MacroDef, []rawLine, error) {
	macros := make(map[string]*MacroDef)
	var rest []rawLine
	var current *MacroDef
	var header rawLine

	for _, line := range lines {
		text := strings.TrimSpace(stripComment(line.text))
		keyword, _ := splitMnemonic(text)

		switch keyword {
		case ".macro":
			if current != nil {
				return nil, nil, Errors.Syntax(line, "nested .macro inside \"%s\"", current.Name)
			}
			def, err := parseMacroHeader(line, text)
			if err != nil {
				return nil, nil, err
			}
			if prev, ok := macros[def.Name]; ok {
				return nil, nil, Errors.Syntax(line, "macro \"%s\" already defined on line %d", def.Name, prev.Line)
			}
			current = def
			header = line
		case ".endm":
			if current == nil {
				return nil, nil, Errors.Syntax(line, ".endm without .macro")
			}
			macros[current.Name] = current
			current = nil
		default:
			if current != nil {
				current.Body = append(current.Body, rawLine{num: line.num, text: text})
			} else {
				rest = append(rest, line)
			}
		}
	}

	if current != nil {
		return nil, nil, Errors.Syntax(header, "unterminated .macro \"%s\"", current.Name)
	}
	return macros, rest, nil
}

// substitute replaces "\param" anywhere and a bare "param" outside string
// literals, both only on identifier boundaries.
func substitute(text string, params []string, args []string) string {
	if len(params) == 0 {
		return text
	}
	values := make(map[string]string, len(params))
	for i, p := range params {
		values[p] = args[i]
	}

	var b strings.Builder
	var quote byte
	for i := 0; i < len(text); {
		c := text[i]
		if c == '\\' && i+1 < len(text) && isIdentStart(text[i+1]) {
			j := i + 1
			for j < len(text) && isIdentChar(text[j]) {
				j++
			}
			if v, ok := values[text[i+1:j]]; ok {
				b.WriteString(v)
				i = j
				continue
			}
		}
		if quote != 0 {
			b.WriteByte(c)
			if c == '\\' && i+1 < len(text) {
				b.WriteByte(text[i+1])
				i += 2
				continue
			}
			if c == quote {
				quote = 0
			}
			i++
			continue
		}
		if c == '"' || c == '\'' {
			quote = c
			b.WriteByte(c)
			i++
			continue
		}
		if isIdentChar(c) {
			j := i
			for j < len(text) && isIdentChar(text[j]) {
				j++
			}
			word := text[i:j]
			if v, ok := values[word]; ok && isIdentStart(c) {
				b.WriteString(v)
			} else {
				b.WriteString(word)
			}
			i = j
			continue
		}
		b.WriteByte(c)
		i++
	}
	return b.String()
}

func (m *macroExpander) expand(line rawLine, stack []string) error {
	label, rest, err := splitLabel(line, stripComment(line.text))
	if err != nil {
		return err
	}
	name, argText := splitMnemonic(rest)
	def, ok := m.macros[name]
	if !ok {
		m.out = append(m.out, line)
		return nil
	}

	for _, active := range stack {
		if active == name {
			return Errors.RecursiveMacro(line, append(append([]string{}, stack...), name))
		}
	}
	if len(stack) >= m.maxDepth {
		return Errors.MacroTooDeep(line, name, m.maxDepth)
	}

	args := splitOperands(argText)
	if len(args) != len(def.Params) {
		return Errors.Syntax(line, "macro \"%s\" takes %d arguments, got %d", name, len(def.Params), len(args))
	}

	// the invocation's label gets a line of its own so a label on the
	// first body line still parses
	if label != "" {
		m.out = append(m.out, rawLine{num: line.num, text: label + ":"})
	}

	stack = append(stack, name)
	for _, body := range def.Body {
		text := substitute(body.text, def.Params, args)
		if err := m.expand(rawLine{num: line.num, text: text}, stack); err != nil {
			return err
		}
	}
	return nil
}

// expandMacros collects every macro definition and replaces each invocation
// with its substituted body until no invocation is left. Expanded lines keep
// the line number of the outermost invocation.
func expandMacros(lines []rawLine, maxDepth int) ([]rawLine, error) {
	macros, rest, err := collectMacros(lines)
	if err != nil {
		return nil, err
	}
	if len(macros) == 0 {
		return rest, nil
	}

	m := &macroExpander{macros: macros, maxDepth: maxDepth}
	for _, line := range rest {
		if err := m.expand(line, nil); err != nil {
			return nil, err
		}
	}
	return m.out, nil
}
