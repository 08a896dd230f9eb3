package assembler

import (
	"testing"
)

func toRaw(lines ...string) []rawLine {
	out := make([]rawLine, len(lines))
	for i, l := range lines {
		out[i] = rawLine{num: i + 1, text: l}
	}
	return out
}

func texts(lines []rawLine) []string {
	out := make([]string, len(lines))
	for i, l := range lines {
		out[i] = l.text
	}
	return out
}

func TestSubstitute(t *testing.T) {
	params := []string{"r", "val"}
	args := []string{"a0", "42"}
	cases := map[string]string{
		`li \r, \val`:        "li a0, 42",
		"li r, val":          "li a0, 42",
		"addi r, r, val2":    "addi a0, a0, val2",
		"sw r, 0(sp)":        "sw a0, 0(sp)",
		`.ascii "r val"`:     `.ascii "r val"`,
		`.ascii "\r"`:        `.ascii "a0"`,
		"addi rr, x0, 0xval": "addi rr, x0, 0xval",
		"addi r, r, 1":       "addi a0, a0, 1",
	}
	for in, want := range cases {
		if got := substitute(in, params, args); got != want {
			t.Errorf("substitute(%q) = %q, expected %q", in, got, want)
		}
	}
}

func TestExpandMacrosForwardDefinition(t *testing.T) {
	lines := toRaw(
		"start: PUSH a0",
		".macro PUSH reg",
		"  addi sp, sp, -4",
		"  sw \\reg, 0(sp)",
		".endm",
	)
	out, err := expandMacros(lines, DefaultMaxMacroDepth)
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"start:", "addi sp, sp, -4", "sw a0, 0(sp)"}
	got := texts(out)
	if len(got) != len(want) {
		t.Fatalf("got %q, expected %q", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("line %d: got %q, expected %q", i, got[i], want[i])
		}
		if out[i].num != 1 {
			t.Errorf("line %d: expected invocation line 1, got %d", i, out[i].num)
		}
	}
}

func TestExpandMacrosNested(t *testing.T) {
	lines := toRaw(
		".macro INC r",
		"addi \\r, \\r, 1",
		".endm",
		".macro INC2 r",
		"INC \\r",
		"INC \\r",
		".endm",
		"INC2 t0",
	)
	out, err := expandMacros(lines, DefaultMaxMacroDepth)
	if err != nil {
		t.Fatal(err)
	}
	got := texts(out)
	if len(got) != 2 || got[0] != "addi t0, t0, 1" || got[1] != "addi t0, t0, 1" {
		t.Errorf("got %q", got)
	}
}

func TestExpandMacrosDepthLimit(t *testing.T) {
	lines := toRaw(
		".macro A",
		"B",
		".endm",
		".macro B",
		"C",
		".endm",
		".macro C",
		"nop",
		".endm",
		"A",
	)
	if _, err := expandMacros(lines, 3); err != nil {
		t.Fatalf("depth 3 should fit: %v", err)
	}
	_, err := expandMacros(lines, 2)
	if kind, _ := KindOf(err); kind != RecursiveMacro {
		t.Fatalf("Expected RecursiveMacro, got %v", err)
	}
}

// Expanding a macro must give the same words as writing its body out by hand.
func TestMacroReferentialTransparency(t *testing.T) {
	withMacro := `
.macro SWAP a, b
	xor \a, \a, \b
	xor \b, \a, \b
	xor \a, \a, \b
.endm
top:
	SWAP t0, t1
	beq t0, t1, top
`
	byHand := `

top:
	xor t0, t0, t1
	xor t1, t0, t1
	xor t0, t0, t1
	beq t0, t1, top
`
	a, err := Assemble(withMacro)
	if err != nil {
		t.Fatal(err)
	}
	b, err := Assemble(byHand)
	if err != nil {
		t.Fatal(err)
	}
	aw, bw := a.ProgramText(), b.ProgramText()
	if len(aw) != len(bw) {
		t.Fatalf("got %d words, expected %d", len(aw), len(bw))
	}
	for i := range aw {
		if aw[i] != bw[i] {
			t.Errorf("word %d: 0x%08x vs 0x%08x", i, aw[i], bw[i])
		}
	}
}

func TestLabeledInvocationOfLabeledBody(t *testing.T) {
	res, err := Assemble(`
.macro LOOP r
again: addi \r, \r, -1
	bnez \r, again
.endm
start: LOOP t0
	j start`)
	if err != nil {
		t.Fatal(err)
	}
	if res.Symbols["start"].Address != 0 || res.Symbols["again"].Address != 0 {
		t.Errorf("start at 0x%x, again at 0x%x", res.Symbols["start"].Address, res.Symbols["again"].Address)
	}
	// addi t0, t0, -1; bne t0, x0, -4; jal x0, -8
	want := []uint32{0xFFF28293, 0xFE029EE3, 0xFF9FF06F}
	got := res.ProgramText()
	if len(got) != len(want) {
		t.Fatalf("got %d words, expected %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("word %d: got 0x%08x, expected 0x%08x", i, got[i], want[i])
		}
	}
}

// A parameter named like a register replaces that register everywhere in the body.
func TestParameterShadowsRegisterName(t *testing.T) {
	if got := substitute("addi sp, sp, -4", []string{"sp"}, []string{"s1"}); got != "addi s1, s1, -4" {
		t.Errorf("got %q", got)
	}
}
