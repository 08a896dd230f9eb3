package assembler

import "strconv"

var abiRegisterNames = [32]string{
	"zero", "ra", "sp", "gp", "tp",
	"t0", "t1", "t2",
	"s0", "s1",
	"a0", "a1", "a2", "a3", "a4", "a5", "a6", "a7",
	"s2", "s3", "s4", "s5", "s6", "s7", "s8", "s9", "s10", "s11",
	"t3", "t4", "t5", "t6",
}

// RegisterNameMap maps every accepted register spelling to its 5-bit index.
var RegisterNameMap = func() map[string]uint32 {
	m := make(map[string]uint32, 65)
	for i, name := range abiRegisterNames {
		m[name] = uint32(i)
		m["x"+strconv.Itoa(i)] = uint32(i)
	}
	m["fp"] = 8
	return m
}()

// RegisterName returns the ABI name of register index r.
func RegisterName(r uint32) string {
	if r >= 32 {
		return "x" + strconv.Itoa(int(r))
	}
	return abiRegisterNames[r]
}
