package assembler

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

type ErrorKind int

const (
	SyntaxError ErrorKind = iota
	UnknownRegister
	UnknownMnemonic
	DuplicateSymbol
	UndefinedSymbol
	ImmediateOutOfRange
	RecursiveMacro
)

func (k ErrorKind) String() string {
	switch k {
	case SyntaxError:
		return "SyntaxError"
	case UnknownRegister:
		return "UnknownRegister"
	case UnknownMnemonic:
		return "UnknownMnemonic"
	case DuplicateSymbol:
		return "DuplicateSymbol"
	case UndefinedSymbol:
		return "UndefinedSymbol"
	case ImmediateOutOfRange:
		return "ImmediateOutOfRange"
	case RecursiveMacro:
		return "RecursiveMacro"
	}
	return "UnknownError"
}

// AssemblyError is the only error kind the pipeline produces. Line is the
// 1-based source line, or 0 when the error is not tied to one.
type AssemblyError struct {
	Kind    ErrorKind
	Line    int
	Text    string
	Token   string // offending token within Text, used to narrow the diagnostic range
	Message string
}

func (e *AssemblyError) Error() string {
	if e.Line == 0 {
		return fmt.Sprintf("%s: %s", e.Kind, e.Message)
	}
	return fmt.Sprintf("line %d: %s: %s", e.Line, e.Kind, e.Message)
}

// Diagnostic converts the error into the record the language server publishes.
// Diagnostic lines are 0-based.
func (e *AssemblyError) Diagnostic() Diagnostic {
	line := e.Line - 1
	if line < 0 {
		line = 0
	}
	r := TextRange{
		Start: TextPosition{Line: line, Char: 0},
		End:   TextPosition{Line: line, Char: len(e.Text)},
	}
	text := e.Text
	if e.Token != "" {
		if idx := strings.Index(e.Text, e.Token); idx >= 0 {
			r.Start.Char = idx
			r.End.Char = idx + len(e.Token)
			text = e.Token
		}
	}
	r, _ = AdjustRange(r, text)

	return Diagnostic{
		Range:    r,
		Message:  e.Message,
		Source:   "Assembler",
		Severity: Error,
	}
}

// AsAssemblyError unwraps err to the *AssemblyError that caused it.
func AsAssemblyError(err error) (*AssemblyError, bool) {
	if err == nil {
		return nil, false
	}
	ae, ok := errors.Cause(err).(*AssemblyError)
	return ae, ok
}

// KindOf returns the kind of the assembly error behind err. ok is false for
// errors that did not come from the assembler.
func KindOf(err error) (kind ErrorKind, ok bool) {
	ae, ok := AsAssemblyError(err)
	if !ok {
		return 0, false
	}
	return ae.Kind, true
}

func AdjustRange(r TextRange, errorText string) (TextRange, string) {
	// Removes the leading and trailing whitespace from the error text, and adjusts the range accordingly
	text := errorText
	for len(text) > 0 && (text[0] == ' ' || text[0] == '\t') {
		text = text[1:]
		r.Start.Char += 1
	}

	for len(text) > 0 && (text[len(text)-1] == ' ' || text[len(text)-1] == '\t') {
		text = text[:len(text)-1]
		r.End.Char -= 1
	}

	return r, text
}

// Errors
type assemblyError struct{}

var Errors assemblyError

func newError(kind ErrorKind, line rawLine, token, format string, args ...interface{}) *AssemblyError {
	return &AssemblyError{
		Kind:    kind,
		Line:    line.num,
		Text:    line.text,
		Token:   token,
		Message: fmt.Sprintf(format, args...),
	}
}

func (assemblyError) Syntax(line rawLine, format string, args ...interface{}) *AssemblyError {
	return newError(SyntaxError, line, "", format, args...)
}

func (assemblyError) InvalidOperand(line rawLine, operand, context string) *AssemblyError {
	return newError(SyntaxError, line, operand, "invalid operand \"%s\", %s", operand, context)
}

func (assemblyError) InvalidIntegerLiteral(line rawLine, literal string) *AssemblyError {
	return newError(SyntaxError, line, literal, "expected integer literal, got: \"%s\"", literal)
}

func (assemblyError) OperandCount(line rawLine, mnemonic string, got int, want []int) *AssemblyError {
	wants := make([]string, len(want))
	for i, w := range want {
		wants[i] = fmt.Sprint(w)
	}
	return newError(SyntaxError, line, mnemonic, "%s takes %s operands, got %d", mnemonic, strings.Join(wants, " or "), got)
}

func (assemblyError) UnknownDirective(line rawLine, directive string) *AssemblyError {
	return newError(SyntaxError, line, directive, "unknown directive \"%s\"", directive)
}

func (assemblyError) UnknownRegister(line rawLine, register string) *AssemblyError {
	return newError(UnknownRegister, line, register, "expected register, got: \"%s\"", register)
}

func (assemblyError) UnknownMnemonic(line rawLine, mnemonic string) *AssemblyError {
	return newError(UnknownMnemonic, line, mnemonic, "unknown instruction \"%s\"", mnemonic)
}

func (assemblyError) DuplicateSymbol(line rawLine, name string, previous int) *AssemblyError {
	return newError(DuplicateSymbol, line, name, "symbol \"%s\" already defined on line %d", name, previous)
}

func (assemblyError) UndefinedSymbol(line rawLine, name string) *AssemblyError {
	return newError(UndefinedSymbol, line, name, "unresolved symbol name: \"%s\"", name)
}

func (assemblyError) ImmediateOutOfRange(line rawLine, operand string, value, min, max int64) *AssemblyError {
	return newError(ImmediateOutOfRange, line, operand, "immediate value \"%s\" (%d) is out of range [%d, %d]", operand, value, min, max)
}

func (assemblyError) MisalignedOffset(line rawLine, operand string, value int64) *AssemblyError {
	return newError(ImmediateOutOfRange, line, operand, "offset \"%s\" (%d) is not a multiple of 2", operand, value)
}

func (assemblyError) RecursiveMacro(line rawLine, chain []string) *AssemblyError {
	return newError(RecursiveMacro, line, chain[len(chain)-1], "recursive macro expansion: %s", strings.Join(chain, " -> "))
}

func (assemblyError) MacroTooDeep(line rawLine, name string, depth int) *AssemblyError {
	return newError(RecursiveMacro, line, name, "macro \"%s\" exceeds the maximum expansion depth of %d", name, depth)
}

// Warnings
type assemblyWarning struct{}

var Warnings assemblyWarning

func warning(line rawLine, token, message string) Diagnostic {
	e := &AssemblyError{Line: line.num, Text: line.text, Token: token, Message: message}
	d := e.Diagnostic()
	d.Severity = Warning
	return d
}

func (assemblyWarning) UnintendedSignExtension(line rawLine, value string) Diagnostic {
	return warning(line, value, "Possible unintended sign extension of \""+value+"\"")
}

func (assemblyWarning) ExplicitNumberLiteralForLabel(line rawLine, value string) Diagnostic {
	return warning(line, value, "Explicit number literal used instead of label")
}
