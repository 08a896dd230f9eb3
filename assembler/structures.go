package assembler

import (
	"sort"
	"strings"

	"github.com/samber/lo"
)

type Section int

const (
	SectionText Section = iota
	SectionData
)

func (s Section) String() string {
	if s == SectionData {
		return "data"
	}
	return "text"
}

type SymbolKind int

const (
	SymbolLabel    SymbolKind = iota
	SymbolConstant            // defined by .equ / .set
)

type Symbol struct {
	Name    string
	Address uint32 // for constants, the 32-bit two's complement value
	Kind    SymbolKind
	Section Section
	Line    int
}

// Value is the number an operand referring to the symbol evaluates to.
func (s Symbol) Value() int64 {
	if s.Kind == SymbolConstant {
		return int64(int32(s.Address))
	}
	return int64(s.Address)
}

type SymbolTable map[string]Symbol

func (t SymbolTable) Lookup(name string) (Symbol, bool) {
	s, ok := t[name]
	return s, ok
}

// Names returns the symbol names sorted by address, then by name.
func (t SymbolTable) Names() []string {
	names := lo.Keys(t)
	sort.Slice(names, func(i, j int) bool {
		a, b := t[names[i]], t[names[j]]
		if a.Address != b.Address {
			return a.Address < b.Address
		}
		return a.Name < b.Name
	})
	return names
}

type MacroDef struct {
	Name   string
	Params []string
	Body   []rawLine
	Line   int
}

// rawLine is a line of source text before parsing. num is the 1-based line
// of the original file; lines produced by a macro keep the invocation's number.
type rawLine struct {
	num  int
	text string
}

// SourceLine is one assembly statement after macro expansion.
type SourceLine struct {
	Num       int
	Raw       string
	Label     string
	Mnemonic  string // instruction mnemonic or directive keyword (with its dot)
	Directive bool
	Operands  []string
}

func (l SourceLine) IsInstruction() bool {
	return l.Mnemonic != "" && !l.Directive
}

// Text renders the statement without its label, e.g. "addi a0, zero, 1".
func (l SourceLine) Text() string {
	if len(l.Operands) == 0 {
		return l.Mnemonic
	}
	return l.Mnemonic + " " + strings.Join(l.Operands, ", ")
}

type EncodedWord struct {
	Address uint32
	Value   uint32
	Line    int
	Text    string
}

// DataBlock holds the bytes emitted by one data directive.
type DataBlock struct {
	Address uint32
	Bytes   []byte
	Line    int
}

type AssembledResult struct {
	Words             []EncodedWord
	Data              []DataBlock
	Symbols           SymbolTable
	Globals           []string
	Size              uint32 // bytes assigned in pass 1, padding included
	TextBase          uint32
	DataBase          uint32
	Diagnostics       []Diagnostic // warnings only; errors are returned
	AddressToLine     map[uint32]int
	LabelToLineNumber map[string]int
	fileContents      []string
}

// ProgramText returns the encoded instruction values in address order.
func (a *AssembledResult) ProgramText() []uint32 {
	return lo.Map(a.Words, func(w EncodedWord, _ int) uint32 { return w.Value })
}

// DataBytes concatenates every data block in address order.
func (a *AssembledResult) DataBytes() []byte {
	var out []byte
	for _, d := range a.Data {
		out = append(out, d.Bytes...)
	}
	return out
}

type TextPosition struct {
	Line int `json:"line"`
	Char int `json:"character"`
}

type TextRange struct {
	Start TextPosition `json:"start"`
	End   TextPosition `json:"end"`
}

type CodeDescription struct {
	URL string `json:"href"`
}

type DiagnosticSeverity int

const (
	Error       DiagnosticSeverity = 1
	Warning     DiagnosticSeverity = 2
	Information DiagnosticSeverity = 3
	Hint        DiagnosticSeverity = 4
)

type Diagnostic struct {
	Range           TextRange          `json:"range"`
	Message         string             `json:"message"`
	Source          string             `json:"source,omitempty"`
	CodeDescription *CodeDescription   `json:"codeDescription,omitempty"`
	Severity        DiagnosticSeverity `json:"severity,omitempty"`
}
