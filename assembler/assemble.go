package assembler

import (
	"strings"

	"github.com/pkg/errors"
	"github.gatech.edu/ECEInnovation/RV32I-Assembler/isa"
	"github.gatech.edu/ECEInnovation/RV32I-Assembler/util"
)

const DefaultMaxMacroDepth = 64

type Config struct {
	TextBase uint32
	// DataBase is only used when HasDataBase is set. Otherwise .data
	// continues from wherever .text left off.
	DataBase      uint32
	HasDataBase   bool
	MaxMacroDepth int
	// MaxSize caps the bytes pass 1 may lay out, so a stray ".space" cannot
	// make pass 2 allocate gigabytes. 0 means no limit.
	MaxSize uint32
	Table   isa.Table
}

func DefaultConfig() Config {
	return Config{MaxMacroDepth: DefaultMaxMacroDepth, Table: isa.RV32I()}
}

type Assembler struct {
	cfg Config
}

// New returns an assembler for cfg. Zero-valued limits and a nil table fall
// back to the defaults.
func New(cfg Config) *Assembler {
	if cfg.MaxMacroDepth <= 0 {
		cfg.MaxMacroDepth = DefaultMaxMacroDepth
	}
	if cfg.Table == nil {
		cfg.Table = isa.RV32I()
	}
	return &Assembler{cfg: cfg}
}

func (a *Assembler) Config() Config {
	return a.cfg
}

// SplitLines splits source text into lines, accepting both LF and CRLF.
func SplitLines(input string) []string {
	return strings.Split(strings.ReplaceAll(input, "\r\n", "\n"), "\n")
}

func (a *Assembler) Assemble(input string) (*AssembledResult, error) {
	return a.AssembleLines(SplitLines(input))
}

// AssembleLines runs the whole pipeline. It stops at the first error and
// returns no partial result.
func (a *Assembler) AssembleLines(lines []string) (*AssembledResult, error) {
	raw := make([]rawLine, len(lines))
	for i, l := range lines {
		raw[i] = rawLine{num: i + 1, text: l}
	}

	expanded, err := expandMacros(raw, a.cfg.MaxMacroDepth)
	if err != nil {
		return nil, errors.WithMessage(err, "macro expansion")
	}
	util.LogF("macro expansion produced %d lines\n", len(expanded))

	parsed := make([]SourceLine, 0, len(expanded))
	for _, l := range expanded {
		line, err := ParseLine(l, a.cfg.Table)
		if err != nil {
			return nil, errors.WithMessage(err, "parse")
		}
		parsed = append(parsed, line)
	}

	stream, warnings, err := ExpandPseudo(parsed, a.cfg.Table)
	if err != nil {
		return nil, errors.WithMessage(err, "pseudo-instruction expansion")
	}

	ctx := NewContext(a.cfg)
	if err := ResolveSymbols(ctx, stream); err != nil {
		return nil, errors.WithMessage(err, "symbol resolution")
	}
	ctx.Diagnostics = append(ctx.Diagnostics, warnings...)

	res, err := Encode(ctx, stream)
	if err != nil {
		return nil, errors.WithMessage(err, "encoding")
	}
	res.fileContents = lines
	return res, nil
}

// Assemble assembles input with the default configuration.
func Assemble(input string) (*AssembledResult, error) {
	return New(DefaultConfig()).Assemble(input)
}
