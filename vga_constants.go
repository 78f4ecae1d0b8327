// vga_constants.go - IBM VGA/EGA register and port constants for fake86-go
//
// (c) 2024-2026 Zayn Otley - GPLv3 or later
//
// Grounded on the IntuitionEngine VGA module's constant-table style
// (vga_constants.go) but replaced wholesale with the real PC port
// assignments fake86's BIOS and guest software expect, per spec §4.6/§6:
// the teacher's constants target its own synthetic MMIO window, not a
// real 6845/VGA bus, so only the naming convention carries over.

package main

// Guest-visible port ranges (spec §6).
const (
	portMDABase = 0x3B0 // MDA/CRTC alias range start
	portMDAEnd  = 0x3BF

	portAttrSeqDACGCBase = 0x3C0 // attribute/sequencer/DAC/GC range start
	portAttrSeqDACGCEnd  = 0x3CF

	portCGABase = 0x3D0 // CGA/CRTC alias range start
	portCGAEnd  = 0x3DF
)

// Individual VGA/EGA ports within 0x3C0-0x3CF.
const (
	portAttrAddr   = 0x3C0 // attribute controller address/data (flip-flop)
	portAttrReadX  = 0x3C1 // attribute controller data read alias
	portInputStat0 = 0x3C2 // input status 0 (unused by fake86 guests)
	portSeqAddr    = 0x3C4 // sequencer address
	portSeqData    = 0x3C5 // sequencer data
	portDACMask    = 0x3C6 // pixel mask register
	portDACReadIdx = 0x3C7 // DAC read index
	portDACWriteIx = 0x3C8 // DAC write index
	portDACData    = 0x3C9 // DAC data (R, G, B in sequence)
	portGCAddr     = 0x3CE // graphics controller address
	portGCData     = 0x3CF // graphics controller data
)

// CRTC index/data live at different port pairs depending on whether the
// adapter is in a mono (0x3B4/0x3B5) or color (0x3D4/0x3D5) I/O address
// mode; fake86 only ever runs color modes, but both aliases are wired
// since real BIOSes probe both.
const (
	portCRTCAddrMono  = 0x3B4
	portCRTCDataMono  = 0x3B5
	portStatusMono    = 0x3BA // input status 1, mono alias
	portCRTCAddrColor = 0x3D4
	portCRTCDataColor = 0x3D5
	portStatusColor   = 0x3DA // input status 1, color alias
)

// Input status 1 (0x3BA/0x3DA) bits, per spec §6.
const (
	statusHRetrace = 1 << 0
	statusReserved = 0xF0 // bits 4..7 read as 1
)

// CRTC register file size and notable indices (spec §3: 32-byte file).
const (
	crtcRegCount   = 32
	crtcStartHi    = 0x0C
	crtcStartLo    = 0x0D
	crtcCursorHi   = 0x0E
	crtcCursorLo   = 0x0F
	crtcCursorStrt = 0x0A
	crtcCursorEnd  = 0x0B
)

// Sequencer register file (256 bytes per spec §3; only a handful are
// architecturally meaningful, the rest are storage-only per Non-goals).
const (
	seqRegCount  = 256
	seqResetReg  = 0x00
	seqMapMask   = 0x02 // SR02: write_enable, low 4 bits
	seqMemMode   = 0x04
	memModeChain = 1 << 3 // chain-4: mode 0x13 linear-ish addressing
)

// Graphics controller register file (256 bytes per spec §3).
const (
	gcRegCount    = 256
	gcSetReset    = 0x00 // GR00: sr_val, low 4 bits
	gcEnableSR    = 0x01 // GR01: sr_en, low 4 bits
	gcColorCmp    = 0x02 // GR02: color_compare, low 4 bits
	gcDataRotate  = 0x03 // GR03: rot (bits 0-2), logic_op (bits 3-4)
	gcReadMapSel  = 0x04 // GR04: read_map_select, low 2 bits
	gcModeReg     = 0x05 // GR05: bit 3 = read_mode, bits 0-1 = write_mode
	gcMisc        = 0x06
	gcColorDont   = 0x07 // GR07: per-plane color-compare enable
	gcBitMask     = 0x08 // GR08: bitmask
	gcWriteModeBm = 0x03 // write_mode field mask within GR05
	gcReadModeBit = 1 << 3
)

// Logic-op encoding for GR03 bits 3-4 (spec §4.6).
const (
	logicOpCopy = 0
	logicOpAND  = 1
	logicOpOR   = 2
	logicOpXOR  = 3
)

// DAC constants (spec §3/§4.6: 256 24-bit entries, 6-to-8-bit expansion).
const (
	dacEntryCount = 256
	dacShift      = 2 // 6-bit DAC component -> 8-bit, left-shifted by 2
)

// Attribute controller constants (spec §4.6: 16-entry palette LUT, bit
// layout ..rgbRGB expanded via a 4-entry primary/secondary LUT).
const (
	attrPaletteCount = 16
	attrAddrMask     = 0x1F // address writes latch the low 5 bits
)

// attrComponentLUT expands a 2-bit (primary, secondary) pair to an 8-bit
// intensity, per spec §4.6: {0x00,0xAA,0x55,0xFF} indexed by the pair.
var attrComponentLUT = [4]byte{0x00, 0xAA, 0x55, 0xFF}

// VGA plane/framebuffer geometry (spec §3).
const (
	vgaPlaneCount    = 4
	vgaPlaneBytes    = 0x10000 // 64 KiB per plane
	vgaFramebufBytes = vgaPlaneCount * vgaPlaneBytes
)

// Video mode bytes recognized by INT 10h AH=00 (spec §8 S4, SPEC_FULL §8).
const (
	videoMode03Text = 0x03 // 80x25 16-color text
	videoMode12EGA  = 0x12 // 640x480 16-color planar
	videoMode13VGA  = 0x13 // 320x200 256-color chain-4
)
