package assembler

import (
	"strings"
)

// symbolLookup resolves a symbol name to its value.
type symbolLookup func(name string) (int64, bool)

func (t SymbolTable) lookup(name string) (int64, bool) {
	s, ok := t[name]
	if !ok {
		return 0, false
	}
	return s.Value(), true
}

type EvaluationResult struct {
	Value    int64
	Symbolic bool // at least one symbol contributed to Value
}

func hi20(v int64) int64 {
	return ((v + 0x800) >> 12) & 0xFFFFF
}

func lo12(v int64) int64 {
	return int64(int32(uint32(v)<<20) >> 20)
}

// Evaluate computes an operand expression. Accepted forms are a literal, a
// symbol, sums and differences of those ("sym+4", "end-start"), and the
// relocation operators %hi(expr) and %lo(expr).
func evaluate(line rawLine, expr string, lookup symbolLookup) (EvaluationResult, error) {
	expr = strings.TrimSpace(expr)
	for _, op := range []struct {
		prefix string
		apply  func(int64) int64
	}{{"%hi(", hi20}, {"%lo(", lo12}} {
		if strings.HasPrefix(expr, op.prefix) {
			if !strings.HasSuffix(expr, ")") {
				return EvaluationResult{}, Errors.InvalidOperand(line, expr, "missing closing parenthesis")
			}
			inner, err := evaluate(line, expr[len(op.prefix):len(expr)-1], lookup)
			if err != nil {
				return EvaluationResult{}, err
			}
			inner.Value = op.apply(inner.Value)
			return inner, nil
		}
	}

	terms, err := splitTerms(line, expr)
	if err != nil {
		return EvaluationResult{}, err
	}

	var res EvaluationResult
	for _, t := range terms {
		var v int64
		if lit, ok := parseLiteral(t.text); ok {
			v = lit
		} else if isIdentifier(t.text) {
			sv, ok := lookup(t.text)
			if !ok {
				return EvaluationResult{}, Errors.UndefinedSymbol(line, t.text)
			}
			v = sv
			res.Symbolic = true
		} else {
			return EvaluationResult{}, Errors.InvalidOperand(line, expr, "expected a number or symbol")
		}
		if t.negative {
			v = -v
		}
		res.Value += v
	}
	return res, nil
}

type term struct {
	text     string
	negative bool
}

// splitTerms breaks "a+b-3" into signed terms. A sign directly in front of a
// term (including a leading one) belongs to that term.
func splitTerms(line rawLine, expr string) ([]term, error) {
	var terms []term
	negative := false
	expectTerm := true
	start := -1

	flush := func(end int) error {
		text := strings.TrimSpace(expr[start:end])
		if text == "" {
			return Errors.InvalidOperand(line, expr, "missing term")
		}
		terms = append(terms, term{text: text, negative: negative})
		negative = false
		start = -1
		return nil
	}

	for i := 0; i < len(expr); i++ {
		c := expr[i]
		switch {
		case c == '\'':
			if start < 0 {
				start = i
			}
			// skip the whole character literal
			for i++; i < len(expr) && expr[i] != '\''; i++ {
				if expr[i] == '\\' {
					i++
				}
			}
			expectTerm = false
		case (c == '+' || c == '-') && expectTerm:
			if c == '-' {
				negative = !negative
			}
		case c == '+' || c == '-':
			if err := flush(i); err != nil {
				return nil, err
			}
			negative = c == '-'
			expectTerm = true
		case c == ' ' || c == '\t':
		default:
			if start < 0 {
				start = i
			}
			expectTerm = false
		}
	}
	if start < 0 {
		return nil, Errors.InvalidOperand(line, expr, "missing term")
	}
	if err := flush(len(expr)); err != nil {
		return nil, err
	}
	return terms, nil
}
