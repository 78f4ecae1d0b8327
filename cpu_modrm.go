// cpu_modrm.go - 8086 ModR-M effective-address decoder for fake86-go
//
// (c) 2024-2026 Zayn Otley - GPLv3 or later
//
// Adapted from the IntuitionEngine x86 core's calcEffectiveAddress16
// (cpu_x86.go), which already implements the 16-bit EA table but discards
// the segment (flat memory model there). Here the segment is load-bearing:
// the 8086 is truly segmented, so EA computation must also report which
// segment register backs the address, per spec §4.3's EA table, and must
// report the instruction-relative byte count the dispatcher needs to
// advance IP before the opcode's own immediate (if any).

package main

// ModRM holds a decoded ModR-M byte and its computed effective address.
type ModRM struct {
	Mod byte
	Reg byte
	RM  byte

	// EA is the 16-bit offset part of the operand (valid when Mod != 3).
	EA uint16
	// Seg is the default segment register index backing EA, after
	// honoring any active segment-override prefix (valid when Mod != 3).
	Seg int

	// NumBytes is the count of bytes consumed after the opcode byte,
	// including the ModR-M byte itself and any displacement, excluding
	// any immediate belonging to the opcode.
	NumBytes int
}

// DecodeModRM decodes the ModR-M byte at code[0] (code[0] is the ModR-M
// byte; any opcode byte before it has already been consumed by the
// caller) and computes its effective address per the spec §4.3 table.
// segOverride is -1 for "no override" or a segES/segCS/segSS/segDS index.
func DecodeModRM(code []byte, segOverride int) ModRM {
	b := code[0]
	m := ModRM{
		Mod: (b >> 6) & 3,
		Reg: (b >> 3) & 7,
		RM:  b & 7,
	}

	if m.Mod == 3 {
		// Register-direct: RM names a register, EA is unused.
		m.NumBytes = 1
		return m
	}

	seg := segDS
	switch m.RM {
	case 2, 3: // [BP+SI], [BP+DI]
		seg = segSS
	case 6: // [BP] or disp16 when Mod==0
		if m.Mod != 0 {
			seg = segSS
		}
	}

	switch m.Mod {
	case 0:
		if m.RM == 6 {
			m.NumBytes = 3
		} else {
			m.NumBytes = 1
		}
	case 1:
		m.NumBytes = 2
	case 2:
		m.NumBytes = 3
	}

	if segOverride >= 0 {
		seg = segOverride
	}
	m.Seg = seg
	return m
}

// resolveEA computes the EA field of a decoded ModR-M against the live
// register file, since DecodeModRM above only determines shape/byte-count
// and default segment from the ModR-M byte and any displacement bytes
// without needing the registers. Splitting decode from resolution keeps
// the decoder pure (testable per spec §8 property 3) while letting the
// dispatcher supply live BX/BP/SI/DI and the displacement bytes in one
// pass over the instruction stream.
func (c *CPU) resolveEA(code []byte, m *ModRM) {
	if m.Mod == 3 {
		return
	}

	var base uint16
	switch m.RM {
	case 0:
		base = c.BX + c.SI
	case 1:
		base = c.BX + c.DI
	case 2:
		base = c.BP + c.SI
	case 3:
		base = c.BP + c.DI
	case 4:
		base = c.SI
	case 5:
		base = c.DI
	case 6:
		if m.Mod == 0 {
			base = uint16(code[1]) | uint16(code[2])<<8
		} else {
			base = c.BP
		}
	case 7:
		base = c.BX
	}

	switch m.Mod {
	case 1:
		disp := int8(code[1])
		base = uint16(int16(base) + int16(disp))
	case 2:
		disp := uint16(code[1]) | uint16(code[2])<<8
		base += disp
	}

	m.EA = base
}

// LinearEA returns the 20-bit physical address for a resolved ModR-M
// operand, applying the segment chosen at decode time.
func (c *CPU) LinearEA(m ModRM) uint32 {
	return linear(c.effectiveSegment(m.Seg), m.EA)
}
