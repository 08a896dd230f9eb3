// Package emitter serializes an assembled program into the output formats
// the command line and the playground offer.
package emitter

import (
	"encoding/binary"
	"fmt"
	"io"
	"strings"

	"github.com/pkg/errors"
	"github.com/samber/lo"
	"github.gatech.edu/ECEInnovation/RV32I-Assembler/assembler"
)

type Mode int

const (
	ModeHex    Mode = iota // one 0x-prefixed word per line
	ModeBin                // raw image bytes
	ModeText               // one 32-character binary string per line
	ModeNibble             // binary string split into tab separated nibbles
	ModeList               // source text next to its encoding bytes
)

var modeNames = map[string]Mode{
	"hex":    ModeHex,
	"bin":    ModeBin,
	"text":   ModeText,
	"nib":    ModeNibble,
	"nibble": ModeNibble,
	"list":   ModeList,
}

func ParseMode(name string) (Mode, error) {
	m, ok := modeNames[strings.ToLower(name)]
	if !ok {
		return 0, errors.Errorf("unknown output mode %q", name)
	}
	return m, nil
}

func (m Mode) String() string {
	switch m {
	case ModeHex:
		return "hex"
	case ModeBin:
		return "bin"
	case ModeText:
		return "text"
	case ModeNibble:
		return "nibble"
	case ModeList:
		return "list"
	}
	return "unknown"
}

type Options struct {
	Mode Mode
	// ByteOrder applies to instruction words. Data directive bytes are
	// always laid out little-endian. nil means little-endian.
	ByteOrder binary.ByteOrder
}

func (o Options) order() binary.ByteOrder {
	if o.ByteOrder == nil {
		return binary.LittleEndian
	}
	return o.ByteOrder
}

// ParseByteOrder accepts "little" or "big".
func ParseByteOrder(name string) (binary.ByteOrder, error) {
	switch strings.ToLower(name) {
	case "", "little", "le":
		return binary.LittleEndian, nil
	case "big", "be":
		return binary.BigEndian, nil
	}
	return nil, errors.Errorf("unknown byte order %q", name)
}

// Image flattens words and data into one byte image that starts at the
// lowest assigned address. Gaps are zero filled.
func Image(res *assembler.AssembledResult, order binary.ByteOrder) (base uint32, image []byte, err error) {
	if order == nil {
		order = binary.LittleEndian
	}
	if len(res.Words) == 0 && len(res.Data) == 0 {
		return res.TextBase, nil, nil
	}

	lowest, highest := uint64(1<<32), uint64(0)
	for _, w := range res.Words {
		lowest = min(lowest, uint64(w.Address))
		highest = max(highest, uint64(w.Address)+4)
	}
	for _, d := range res.Data {
		lowest = min(lowest, uint64(d.Address))
		highest = max(highest, uint64(d.Address)+uint64(len(d.Bytes)))
	}

	image = make([]byte, highest-lowest)
	written := make([]bool, len(image))
	place := func(addr uint32, b []byte) error {
		off := uint64(addr) - lowest
		for i := range b {
			if written[off+uint64(i)] {
				return errors.Errorf("overlapping output at address 0x%08x", uint64(addr)+uint64(i))
			}
			written[off+uint64(i)] = true
		}
		copy(image[off:], b)
		return nil
	}

	var buf [4]byte
	for _, w := range res.Words {
		order.PutUint32(buf[:], w.Value)
		if err := place(w.Address, buf[:]); err != nil {
			return 0, nil, err
		}
	}
	for _, d := range res.Data {
		if err := place(d.Address, d.Bytes); err != nil {
			return 0, nil, err
		}
	}
	return uint32(lowest), image, nil
}

// imageWords splits an image into 32-bit words, zero padding the tail.
func imageWords(image []byte, order binary.ByteOrder) []uint32 {
	return lo.Map(lo.Chunk(image, 4), func(chunk []byte, _ int) uint32 {
		var buf [4]byte
		copy(buf[:], chunk)
		return order.Uint32(buf[:])
	})
}

func nibbles(word uint32) string {
	bits := []rune(fmt.Sprintf("%032b", word))
	return strings.Join(lo.Map(lo.Chunk(bits, 4), func(n []rune, _ int) string { return string(n) }), "\t")
}

func encodingBytes(word uint32, order binary.ByteOrder) string {
	var buf [4]byte
	order.PutUint32(buf[:], word)
	return "[" + strings.Join(lo.Map(buf[:], func(b byte, _ int) string { return fmt.Sprintf("0x%02x", b) }), ",") + "]"
}

// Lines renders every textual mode. It is an error to ask for ModeBin.
func Lines(res *assembler.AssembledResult, opts Options) ([]string, error) {
	order := opts.order()

	if opts.Mode == ModeList {
		lines := lo.Map(res.Words, func(w assembler.EncodedWord, _ int) string {
			return fmt.Sprintf("%-24s\t# encoding: %s", w.Text, encodingBytes(w.Value, order))
		})
		for _, d := range res.Data {
			hex := lo.Map(d.Bytes, func(b byte, _ int) string { return fmt.Sprintf("0x%02x", b) })
			lines = append(lines, fmt.Sprintf("%-24s\t# data: [%s]", fmt.Sprintf(".byte @0x%08x", d.Address), strings.Join(hex, ",")))
		}
		return lines, nil
	}

	_, image, err := Image(res, order)
	if err != nil {
		return nil, err
	}
	words := imageWords(image, order)

	switch opts.Mode {
	case ModeHex:
		return lo.Map(words, func(w uint32, _ int) string { return fmt.Sprintf("0x%08x", w) }), nil
	case ModeText:
		return lo.Map(words, func(w uint32, _ int) string { return fmt.Sprintf("%032b", w) }), nil
	case ModeNibble:
		return lo.Map(words, func(w uint32, _ int) string { return nibbles(w) }), nil
	}
	return nil, errors.Errorf("mode %v has no textual form", opts.Mode)
}

// Write emits res to w in the requested mode.
func Write(w io.Writer, res *assembler.AssembledResult, opts Options) error {
	if opts.Mode == ModeBin {
		_, image, err := Image(res, opts.order())
		if err != nil {
			return err
		}
		_, err = w.Write(image)
		return errors.Wrap(err, "write image")
	}

	lines, err := Lines(res, opts)
	if err != nil {
		return err
	}
	for _, l := range lines {
		if _, err := fmt.Fprintln(w, l); err != nil {
			return errors.Wrap(err, "write output")
		}
	}
	return nil
}
