package assembler_test

import (
	"bytes"
	"strings"
	"testing"

	"github.gatech.edu/ECEInnovation/RV32I-Assembler/assembler"
)

func TestProgramIType(t *testing.T) {
	source := `
	.text
		addi x1, x0, 1
		addi x2, x0, 2
	`
	expected := []uint32{
		0x00100093,
		0x00200113,
	}

	program, err := assembler.Assemble(source)
	validateResult(t, program, err, expected, nil, nil)
}

func TestProgramBranchesAndLabels(t *testing.T) {
	source := `
	.text
		label1: addi x1, x0, 1
		addi x2, x0, 2
		beq x1, x2, label1 # should evaluate to -8
	`

	expected := []uint32{
		0x00100093,
		0x00200113,
		0xfe208ce3,
	}

	program, err := assembler.Assemble(source)
	validateResult(t, program, err, expected, nil, nil)
}

func TestProgramJumps(t *testing.T) {
	source := `
	.text
		jal x1, label1
		addi x2, x0, 2
		label1: addi x3, x0, 3
	`

	expected := []uint32{
		0x008000ef,
		0x00200113,
		0x00300193,
	}

	program, err := assembler.Assemble(source)
	validateResult(t, program, err, expected, nil, nil)
}

func TestDataWord(t *testing.T) {
	source := `
	.data
	MyWord: .word 0x12345678
	`

	program, err := assembler.Assemble(source)
	validateResult(t, program, err, nil, []byte{0x78, 0x56, 0x34, 0x12}, nil)
}

func TestDataString(t *testing.T) {
	source := `
	.data
	MyString: .asciz "Hello World!"
	`

	program, err := assembler.Assemble(source)
	validateResult(t, program, err, nil, []byte("Hello World!\x00"), nil)
}

func TestDataInProgram(t *testing.T) {
	source := `
	.data
	MyWord: .word 0x12345678
	.text
	lw x1, MyWord(gp)
	`

	expectedText := []uint32{
		0x0001a083,
	}

	// .data and .text share one counter: MyWord is at 0, lw right after it
	program, err := assembler.Assemble(source)
	validateResult(t, program, err, expectedText, []byte{0x78, 0x56, 0x34, 0x12}, nil)
	if program.Words[0].Address != 4 {
		t.Errorf("Expected lw at address 4, got %d", program.Words[0].Address)
	}
}

func TestScenarioRType(t *testing.T) {
	program, err := assembler.Assemble("add a0, a1, a2")
	validateResult(t, program, err, []uint32{0x00C58533}, nil, nil)
}

func TestScenarioAddiWithZero(t *testing.T) {
	program, err := assembler.Assemble("addi s0, zero, 10")
	validateResult(t, program, err, []uint32{0x00A00413}, nil, nil)
}

func TestScenarioSelfLoop(t *testing.T) {
	program, err := assembler.Assemble("loop: blt s1, s2, loop")
	validateResult(t, program, err, []uint32{0x0124C063}, nil, nil)
}

func TestScenarioLoadImmediate(t *testing.T) {
	program, err := assembler.Assemble("li a0, 2047")
	validateResult(t, program, err, []uint32{0x7FF00513}, nil, nil)

	program, err = assembler.Assemble("li a0, 100000")
	// lui a0, 24 ; addi a0, a0, 1696
	validateResult(t, program, err, []uint32{0x00018537, 0x6A050513}, nil, nil)
}

func TestScenarioMacroTwice(t *testing.T) {
	source := `
.macro LOAD_IMM reg, val
    li \reg, \val
.endm
    LOAD_IMM a0, 5
    LOAD_IMM a1, 6
`
	program, err := assembler.Assemble(source)
	validateResult(t, program, err, []uint32{0x00500513, 0x00600593}, nil, nil)
	if program.Words[0].Line != 5 || program.Words[1].Line != 6 {
		t.Errorf("Expected expanded lines to keep invocation lines 5 and 6, got %d and %d", program.Words[0].Line, program.Words[1].Line)
	}
}

func TestForwardAndBackwardReferences(t *testing.T) {
	source := `
start:
	beq x0, x0, end
	nop
end:
	beq x0, x0, start
`
	program, err := assembler.Assemble(source)
	// +8 forward, -8 backward
	validateResult(t, program, err, []uint32{0x00000463, 0x00000013, 0xfe000ce3}, nil, nil)
}

func TestStoresAndShifts(t *testing.T) {
	source := `
	sw a0, 8(sp)
	sb t0, -1(a1)
	slli a0, a0, 3
	srai a0, a0, 3
	ecall
	ebreak
	fence
`
	expected := []uint32{
		0x00A12423,
		0xFE558FA3,
		0x00351513,
		0x40355513,
		0x00000073,
		0x00100073,
		0x0FF0000F,
	}
	program, err := assembler.Assemble(source)
	validateResult(t, program, err, expected, nil, nil)
}

func TestLoadImmediateSplits(t *testing.T) {
	cases := []struct {
		source   string
		expected []uint32
	}{
		{"li a0, -2048", []uint32{0x80000513}},
		{"li a0, 2048", []uint32{0x00001537, 0x80050513}},
		{"li a0, -4096", []uint32{0xFFFFF537, 0x00050513}},
		{"li a0, 0x7FFFFFFF", []uint32{0x80000537, 0xFFF50513}},
	}
	for _, c := range cases {
		program, err := assembler.Assemble(c.source)
		if err != nil {
			t.Errorf("%s: %v", c.source, err)
			continue
		}
		got := program.ProgramText()
		if len(got) != len(c.expected) {
			t.Errorf("%s: expected %d words, got %d", c.source, len(c.expected), len(got))
			continue
		}
		for i := range got {
			if got[i] != c.expected[i] {
				t.Errorf("%s: word %d expected 0x%08x, got 0x%08x", c.source, i, c.expected[i], got[i])
			}
		}
	}
}

func TestLoadImmediateSignExtensionWarning(t *testing.T) {
	program, err := assembler.Assemble("li a0, 0xFFFFFFFF")
	if err != nil {
		t.Fatal(err)
	}
	if len(program.Diagnostics) != 1 || program.Diagnostics[0].Severity != assembler.Warning {
		t.Fatalf("Expected one warning, got %v", program.Diagnostics)
	}
	if program.ProgramText()[0] != 0xFFF00513 {
		t.Errorf("Expected addi a0, x0, -1, got 0x%08x", program.ProgramText()[0])
	}
}

func TestLoadAddress(t *testing.T) {
	cfg := assembler.DefaultConfig()
	cfg.TextBase = 0x80100
	program, err := assembler.New(cfg).Assemble(`
	la a0, msg
	ecall
msg: .asciz "hi"
`)
	if err != nil {
		t.Fatal(err)
	}
	// msg = 0x8010C, %hi = 0x80, %lo = 0x10C
	expected := []uint32{0x00080537, 0x10C50513, 0x00000073}
	validateResult(t, program, err, expected, []byte("hi\x00"), nil)
}

func TestConstantsAndExpressions(t *testing.T) {
	source := `
	.equ SIZE, 16
	.set OFFSET, SIZE-4
	li t0, SIZE
	lw t1, OFFSET(sp)
	addi t2, t2, 'A'
`
	expected := []uint32{0x01000293, 0x00C12303, 0x04138393}
	program, err := assembler.Assemble(source)
	validateResult(t, program, err, expected, nil, nil)
}

func TestSeparateDataBase(t *testing.T) {
	cfg := assembler.DefaultConfig()
	cfg.DataBase = 0x1000
	cfg.HasDataBase = true
	program, err := assembler.New(cfg).Assemble(`
	.data
value: .word 7
	.text
	lw a0, %lo(value)(zero)
`)
	if err != nil {
		t.Fatal(err)
	}
	if program.Symbols["value"].Address != 0x1000 {
		t.Errorf("Expected value at 0x1000, got 0x%x", program.Symbols["value"].Address)
	}
	if program.Words[0].Address != 0 {
		t.Errorf("Expected lw at 0, got 0x%x", program.Words[0].Address)
	}
	if program.Data[0].Address != 0x1000 {
		t.Errorf("Expected data at 0x1000, got 0x%x", program.Data[0].Address)
	}
}

func TestAlignmentDirectives(t *testing.T) {
	program, err := assembler.Assemble(`
	.data
	.byte 1
	.align 2
word: .word 2
	.half 3
	.balign 4
	.space 2, 0xAA
`)
	if err != nil {
		t.Fatal(err)
	}
	if program.Symbols["word"].Address != 4 {
		t.Errorf("Expected word at 4, got %d", program.Symbols["word"].Address)
	}
	expected := []byte{1, 0, 0, 0, 2, 0, 0, 0, 3, 0, 0, 0, 0xAA, 0xAA}
	if !bytes.Equal(program.DataBytes(), expected) {
		t.Errorf("Expected data % x, got % x", expected, program.DataBytes())
	}
	if program.Size != uint32(len(expected)) {
		t.Errorf("Expected size %d, got %d", len(expected), program.Size)
	}
}

func TestSizeLimit(t *testing.T) {
	cfg := assembler.DefaultConfig()
	cfg.MaxSize = 1 << 20
	_, err := assembler.New(cfg).Assemble(".data\n.space 0xFFFFFFF0")
	if kind, ok := assembler.KindOf(err); !ok || kind != assembler.SyntaxError {
		t.Fatalf("Expected a SyntaxError for an oversized program, got %v", err)
	}
	if !strings.Contains(err.Error(), "limit of 1048576 bytes") {
		t.Errorf("Expected the size limit to be reported, got %v", err)
	}

	program, err := assembler.New(cfg).Assemble(".data\n.space 1024")
	if err != nil {
		t.Fatal(err)
	}
	if program.Size != 1024 {
		t.Errorf("Expected size 1024, got %d", program.Size)
	}
}

func TestConcurrentRunsAreIndependent(t *testing.T) {
	done := make(chan error, 8)
	for i := 0; i < 8; i++ {
		go func() {
			program, err := assembler.Assemble("loop: blt s1, s2, loop")
			if err == nil && program.ProgramText()[0] != 0x0124C063 {
				t.Errorf("unexpected encoding 0x%08x", program.ProgramText()[0])
			}
			done <- err
		}()
	}
	for i := 0; i < 8; i++ {
		if err := <-done; err != nil {
			t.Error(err)
		}
	}
}

func validateResult(t *testing.T, program *assembler.AssembledResult, err error, expectedText []uint32, expectedData []byte, expectedDiagnostics []assembler.Diagnostic) {
	t.Helper()
	if err != nil {
		t.Fatalf("Unexpected assembly error: %v", err)
	}

	if len(program.Diagnostics) != len(expectedDiagnostics) {
		t.Fatalf("Expected %d diagnostics, got %d (%v)", len(expectedDiagnostics), len(program.Diagnostics), program.Diagnostics)
	}

	for i, diagnostic := range program.Diagnostics {
		if diagnostic.Severity != expectedDiagnostics[i].Severity {
			t.Errorf("Expected diagnostic %d to have severity %d, got %d", i, expectedDiagnostics[i].Severity, diagnostic.Severity)
		}

		if diagnostic.Range.Start != expectedDiagnostics[i].Range.Start {
			t.Errorf("Expected diagnostic %d to start at %v, got %v", i, expectedDiagnostics[i].Range.Start, diagnostic.Range.Start)
		}

		if diagnostic.Range.End != expectedDiagnostics[i].Range.End {
			t.Errorf("Expected diagnostic %d to end at %v, got %v", i, expectedDiagnostics[i].Range.End, diagnostic.Range.End)
		}

		if diagnostic.Message != expectedDiagnostics[i].Message {
			t.Errorf("Expected diagnostic %d to be \"%s\", got \"%s\"", i, expectedDiagnostics[i].Message, diagnostic.Message)
		}
	}

	text := program.ProgramText()
	if len(text) != len(expectedText) {
		t.Fatalf("Expected %d instructions, got %d", len(expectedText), len(text))
	}

	for i, instruction := range text {
		if instruction != expectedText[i] {
			t.Errorf("Expected instruction %d to be 0x%08x, got 0x%08x", i, expectedText[i], instruction)
		}
	}

	data := program.DataBytes()
	if !bytes.Equal(data, expectedData) && !(len(data) == 0 && len(expectedData) == 0) {
		t.Errorf("Expected data % x, got % x", expectedData, data)
	}
}
