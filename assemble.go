package main

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"

	"github.com/k0kubun/pp/v3"
	"github.com/pkg/errors"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"github.gatech.edu/ECEInnovation/RV32I-Assembler/assembler"
	"github.gatech.edu/ECEInnovation/RV32I-Assembler/config"
	"github.gatech.edu/ECEInnovation/RV32I-Assembler/emitter"
	"github.gatech.edu/ECEInnovation/RV32I-Assembler/util"
	"golang.org/x/term"
)

const stdoutPath = "-"

var assembleFlags struct {
	hexPath      string
	binPath      string
	text         bool
	nibble       bool
	showEncoding bool
	base         uint32
	dataBase     uint32
	bigEndian    bool
	dumpSymbols  bool
	quiet        bool
}

var assembleCmd = &cobra.Command{
	Use:   "assemble [file]",
	Short: "Assemble a source file, or standard input when no file is given",
	Long: `Assemble translates one RV32I source file into machine code.

Output goes to standard output as one hex word per line unless another
mode is chosen. --hex and --bin take an optional output path.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runAssemble,
}

func init() {
	f := assembleCmd.Flags()
	f.StringVar(&assembleFlags.hexPath, "hex", stdoutPath, "hex words, one per line, optionally to a file")
	f.Lookup("hex").NoOptDefVal = stdoutPath
	f.StringVar(&assembleFlags.binPath, "bin", stdoutPath, "raw binary image, optionally to a file")
	f.Lookup("bin").NoOptDefVal = stdoutPath
	f.BoolVar(&assembleFlags.text, "text", false, "32-character binary strings")
	f.BoolVar(&assembleFlags.nibble, "nibble", false, "binary strings grouped by nibble")
	f.BoolVar(&assembleFlags.showEncoding, "show-encoding", false, "source listing with encoding bytes")
	f.Uint32Var(&assembleFlags.base, "base", 0, "address of the first instruction")
	f.Uint32Var(&assembleFlags.dataBase, "data-base", 0, "address of the .data section (default: follows .text)")
	f.BoolVar(&assembleFlags.bigEndian, "big-endian", false, "emit instruction words big-endian")
	f.BoolVar(&assembleFlags.dumpSymbols, "dump-symbols", false, "print the symbol table to stderr")
	f.BoolVarP(&assembleFlags.quiet, "quiet", "q", false, "do not print warnings")
}

type outputChoice struct {
	set  bool
	mode emitter.Mode
	path string
}

func runAssemble(cmd *cobra.Command, args []string) error {
	conf, err := config.Load(configPath)
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	cfg := conf.Assembler()
	if flags.Changed("base") {
		if assembleFlags.base%4 != 0 {
			return errors.Errorf("--base 0x%x is not word aligned", assembleFlags.base)
		}
		cfg.TextBase = assembleFlags.base
	}
	if flags.Changed("data-base") {
		cfg.DataBase = assembleFlags.dataBase
		cfg.HasDataBase = true
	}

	opts := conf.Emitter()
	if assembleFlags.bigEndian {
		opts.ByteOrder = binary.BigEndian
	}
	out := stdoutPath
	chosen := lo.Filter([]outputChoice{
		{flags.Changed("hex"), emitter.ModeHex, assembleFlags.hexPath},
		{flags.Changed("bin"), emitter.ModeBin, assembleFlags.binPath},
		{assembleFlags.text, emitter.ModeText, stdoutPath},
		{assembleFlags.nibble, emitter.ModeNibble, stdoutPath},
		{assembleFlags.showEncoding, emitter.ModeList, stdoutPath},
	}, func(c outputChoice, _ int) bool { return c.set })
	if len(chosen) > 1 {
		return errors.New("choose at most one of --hex, --bin, --text, --nibble and --show-encoding")
	}
	if len(chosen) == 1 {
		opts.Mode = chosen[0].mode
		out = chosen[0].path
	}

	name, source, err := readSource(args)
	if err != nil {
		return err
	}
	util.LogF("assembling %s (%d bytes)", name, len(source))

	res, err := assembler.New(cfg).Assemble(source)
	if err != nil {
		if ae, ok := assembler.AsAssemblyError(err); ok && ae.Line > 0 {
			return errors.Errorf("%s:%d: %s: %s", name, ae.Line, ae.Kind, ae.Message)
		}
		return errors.Wrap(err, name)
	}

	if !assembleFlags.quiet {
		for _, d := range res.Diagnostics {
			fmt.Fprintf(os.Stderr, "%s:%d: warning: %s\n", name, d.Range.Start.Line+1, d.Message)
		}
	}
	if assembleFlags.dumpSymbols {
		dumpSymbols(os.Stderr, res)
	}
	return writeOutput(out, res, opts)
}

// readSource reads the named file, or standard input when it is piped in.
func readSource(args []string) (name, source string, err error) {
	if len(args) == 1 && args[0] != stdoutPath {
		b, err := os.ReadFile(args[0])
		if err != nil {
			return "", "", errors.Wrapf(err, "could not read file %s", args[0])
		}
		return args[0], string(b), nil
	}
	if term.IsTerminal(int(os.Stdin.Fd())) {
		return "", "", errors.New("no input file given and standard input is a terminal")
	}
	b, err := io.ReadAll(os.Stdin)
	return "<stdin>", string(b), errors.Wrap(err, "read standard input")
}

func dumpSymbols(w *os.File, res *assembler.AssembledResult) {
	printer := pp.New()
	printer.SetOutput(w)
	printer.SetColoringEnabled(term.IsTerminal(int(w.Fd())))
	for _, name := range res.Symbols.Names() {
		printer.Println(res.Symbols[name])
	}
}

func writeOutput(path string, res *assembler.AssembledResult, opts emitter.Options) error {
	if path == stdoutPath {
		return emitter.Write(os.Stdout, res, opts)
	}
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "could not create %s", path)
	}
	if err := emitter.Write(f, res, opts); err != nil {
		f.Close()
		return err
	}
	return errors.Wrapf(f.Close(), "close %s", path)
}
