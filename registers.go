// registers.go - 8086 architectural register file for fake86-go
//
// (c) 2024-2026 Zayn Otley - GPLv3 or later
//
// Adapted from the IntuitionEngine x86 core (cpu_x86.go) and generalized
// from its flat 386-style register file down to real 8086 segmented state:
// 16-bit general/segment registers, a single IP, and the 8086 flags layout.

package main

// Flag bit positions, 8086-defined.
const (
	flagCF = 1 << 0
	flagPF = 1 << 2
	flagAF = 1 << 4
	flagZF = 1 << 6
	flagSF = 1 << 7
	flagTF = 1 << 8
	flagIF = 1 << 9
	flagDF = 1 << 10
	flagOF = 1 << 11

	// Bits always set on the 8086 (reserved, read as 1).
	flagsReserved = 0xF002
)

// Segment register indices, used by ModR-M default-segment selection and
// by the segment-override prefix.
const (
	segES = 0
	segCS = 1
	segSS = 2
	segDS = 3
)

// Byte-register encoding, canonical 8086 REG/RM field meaning for 8-bit
// operands: {AL=0,CL=1,DL=2,BL=3,AH=4,CH=5,DH=6,BH=7}.
const (
	regAL = 0
	regCL = 1
	regDL = 2
	regBL = 3
	regAH = 4
	regCH = 5
	regDH = 6
	regBH = 7
)

// Word-register encoding for 16-bit operands: {AX=0,CX=1,DX=2,BX=3,SP=4,
// BP=5,SI=6,DI=7}.
const (
	regAX = 0
	regCX = 1
	regDX = 2
	regBX = 3
	regSP = 4
	regBP = 5
	regSI = 6
	regDI = 7
)

// CPU holds the full 8086 architectural state: eight general-purpose
// registers, four segment registers, IP, flags, and the single-bit
// segment-override selector that is cleared after every instruction.
type CPU struct {
	AX, CX, DX, BX uint16
	SP, BP, SI, DI uint16

	ES, CS, SS, DS uint16
	IP             uint16

	Flags uint16

	// segOverride holds the active segment override for the instruction
	// currently being decoded; -1 means "use the default segment".
	segOverride int

	Halted bool

	// prefixRep selects REP-family behaviour for the string op about to
	// execute: 0 none, 1 REP/REPE, 2 REPNE.
	prefixRep int

	// Cycles is an approximate instruction counter, not a cycle-exact
	// timing model (see spec Non-goals).
	Cycles uint64
}

// NewCPU returns a CPU with architectural reset state.
func NewCPU() *CPU {
	c := &CPU{}
	c.Reset()
	return c
}

// Reset restores power-on/reset state: CS:IP = F000:FFF0-style BIOS entry
// is the caller's job (bootstrap or BIOS loader decide the real entry
// point); Reset only clears architectural state to the 8086 defaults.
func (c *CPU) Reset() {
	c.AX, c.CX, c.DX, c.BX = 0, 0, 0, 0
	c.SP, c.BP, c.SI, c.DI = 0, 0, 0, 0
	c.ES, c.CS, c.SS, c.DS = 0, 0, 0, 0
	c.IP = 0
	c.Flags = flagsReserved
	c.segOverride = -1
	c.Halted = false
	c.prefixRep = 0
	c.Cycles = 0
}

// getReg8 reads a byte register by its canonical REG/RM encoding.
func (c *CPU) getReg8(n byte) byte {
	switch n {
	case regAL:
		return byte(c.AX)
	case regCL:
		return byte(c.CX)
	case regDL:
		return byte(c.DX)
	case regBL:
		return byte(c.BX)
	case regAH:
		return byte(c.AX >> 8)
	case regCH:
		return byte(c.CX >> 8)
	case regDH:
		return byte(c.DX >> 8)
	case regBH:
		return byte(c.BX >> 8)
	}
	panic("unreachable byte register index")
}

// setReg8 writes a byte register by its canonical REG/RM encoding.
func (c *CPU) setReg8(n byte, v byte) {
	switch n {
	case regAL:
		c.AX = (c.AX & 0xFF00) | uint16(v)
	case regCL:
		c.CX = (c.CX & 0xFF00) | uint16(v)
	case regDL:
		c.DX = (c.DX & 0xFF00) | uint16(v)
	case regBL:
		c.BX = (c.BX & 0xFF00) | uint16(v)
	case regAH:
		c.AX = (c.AX & 0x00FF) | uint16(v)<<8
	case regCH:
		c.CX = (c.CX & 0x00FF) | uint16(v)<<8
	case regDH:
		c.DX = (c.DX & 0x00FF) | uint16(v)<<8
	case regBH:
		c.BX = (c.BX & 0x00FF) | uint16(v)<<8
	default:
		panic("unreachable byte register index")
	}
}

// getReg16 reads a word register by its canonical encoding.
func (c *CPU) getReg16(n byte) uint16 {
	switch n {
	case regAX:
		return c.AX
	case regCX:
		return c.CX
	case regDX:
		return c.DX
	case regBX:
		return c.BX
	case regSP:
		return c.SP
	case regBP:
		return c.BP
	case regSI:
		return c.SI
	case regDI:
		return c.DI
	}
	panic("unreachable word register index")
}

// setReg16 writes a word register by its canonical encoding.
func (c *CPU) setReg16(n byte, v uint16) {
	switch n {
	case regAX:
		c.AX = v
	case regCX:
		c.CX = v
	case regDX:
		c.DX = v
	case regBX:
		c.BX = v
	case regSP:
		c.SP = v
	case regBP:
		c.BP = v
	case regSI:
		c.SI = v
	case regDI:
		c.DI = v
	default:
		panic("unreachable word register index")
	}
}

// getSeg reads a segment register by index {ES,CS,SS,DS}.
func (c *CPU) getSeg(idx int) uint16 {
	switch idx {
	case segES:
		return c.ES
	case segCS:
		return c.CS
	case segSS:
		return c.SS
	case segDS:
		return c.DS
	}
	panic("unreachable segment index")
}

// setSeg writes a segment register by index {ES,CS,SS,DS}.
func (c *CPU) setSeg(idx int, v uint16) {
	switch idx {
	case segES:
		c.ES = v
	case segCS:
		c.CS = v
	case segSS:
		c.SS = v
	case segDS:
		c.DS = v
	default:
		panic("unreachable segment index")
	}
}

func (c *CPU) getFlag(mask uint16) bool { return c.Flags&mask != 0 }

func (c *CPU) setFlag(mask uint16, set bool) {
	if set {
		c.Flags |= mask
	} else {
		c.Flags &^= mask
	}
}

func (c *CPU) CF() bool { return c.getFlag(flagCF) }
func (c *CPU) PF() bool { return c.getFlag(flagPF) }
func (c *CPU) AF() bool { return c.getFlag(flagAF) }
func (c *CPU) ZF() bool { return c.getFlag(flagZF) }
func (c *CPU) SF() bool { return c.getFlag(flagSF) }
func (c *CPU) TF() bool { return c.getFlag(flagTF) }
func (c *CPU) IF() bool { return c.getFlag(flagIF) }
func (c *CPU) DF() bool { return c.getFlag(flagDF) }
func (c *CPU) OF() bool { return c.getFlag(flagOF) }

// parityTable is indexed by the low byte of a result; true means even
// parity (PF set).
var parityTable = func() [256]bool {
	var t [256]bool
	for i := range t {
		bits := 0
		for b := i; b != 0; b >>= 1 {
			bits += b & 1
		}
		t[i] = bits%2 == 0
	}
	return t
}()

// setFlagsArith8 applies the 8086 arithmetic flag convention (CF, AF, OF,
// ZF, SF, PF) for an 8-bit add/sub, given the raw 16-bit result before
// truncation.
func (c *CPU) setFlagsArith8(result uint16, a, b byte, sub bool) {
	r := byte(result)
	c.setFlag(flagCF, result > 0xFF)
	c.setFlag(flagZF, r == 0)
	c.setFlag(flagSF, r&0x80 != 0)
	c.setFlag(flagPF, parityTable[r])
	if sub {
		c.setFlag(flagAF, (a^b^r)&0x10 != 0)
		c.setFlag(flagOF, (a^b)&0x80 != 0 && (a^r)&0x80 != 0)
	} else {
		c.setFlag(flagAF, (a^b^r)&0x10 != 0)
		c.setFlag(flagOF, (a^b)&0x80 == 0 && (a^r)&0x80 != 0)
	}
}

// setFlagsArith16 applies the 8086 arithmetic flag convention for a 16-bit
// add/sub, given the raw 32-bit result before truncation.
func (c *CPU) setFlagsArith16(result uint32, a, b uint16, sub bool) {
	r := uint16(result)
	c.setFlag(flagCF, result > 0xFFFF)
	c.setFlag(flagZF, r == 0)
	c.setFlag(flagSF, r&0x8000 != 0)
	c.setFlag(flagPF, parityTable[byte(r)])
	if sub {
		c.setFlag(flagAF, (a^b^r)&0x10 != 0)
		c.setFlag(flagOF, (a^b)&0x8000 != 0 && (a^r)&0x8000 != 0)
	} else {
		c.setFlag(flagAF, (a^b^r)&0x10 != 0)
		c.setFlag(flagOF, (a^b)&0x8000 == 0 && (a^r)&0x8000 != 0)
	}
}

// setFlagsLogic8/16 applies the logical-op flag convention: CF and OF are
// cleared, ZF/SF/PF reflect the result, AF is left unchanged.
func (c *CPU) setFlagsLogic8(result byte) {
	c.setFlag(flagCF, false)
	c.setFlag(flagOF, false)
	c.setFlag(flagZF, result == 0)
	c.setFlag(flagSF, result&0x80 != 0)
	c.setFlag(flagPF, parityTable[result])
}

func (c *CPU) setFlagsLogic16(result uint16) {
	c.setFlag(flagCF, false)
	c.setFlag(flagOF, false)
	c.setFlag(flagZF, result == 0)
	c.setFlag(flagSF, result&0x8000 != 0)
	c.setFlag(flagPF, parityTable[byte(result)])
}

// effectiveSegment resolves the default segment for the given ModR-M
// default, honoring any active segment-override prefix.
func (c *CPU) effectiveSegment(def int) uint16 {
	if c.segOverride >= 0 {
		return c.getSeg(c.segOverride)
	}
	return c.getSeg(def)
}
