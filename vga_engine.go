// vga_engine.go - EGA/VGA adapter: CRTC/sequencer/GC/DAC/attribute register
// files, the plane framebuffer, and the four-write-mode ALU.
//
// (c) 2024-2026 Zayn Otley - GPLv3 or later
//
// The register-file and port-dispatch shape is adapted from the
// IntuitionEngine VGA module's index/data port pattern (video_vga.go's
// HandleRead/HandleWrite), generalized from its simplified bitmask-only
// plane write to the real four-mode set/reset-rotate-ALU-bitmask pipeline.
// The write-mode 0 algorithm is grounded on fake86's _neo_vga_write_0
// (original_source/src/fake86/video_neo.c); modes 1-3 have no complete
// reference in either corpus (fake86's own _neo_vga_write_1/2/3 are empty
// stubs) and are built directly from spec §4.6's textual description.
//
// Like MemoryBus, this type carries no internal locking: per the core's
// single-logical-thread model only the CPU thread ever touches VGA state.
package main

// VGAEngine is the EGA/VGA adapter: CRTC/sequencer/graphics-controller
// register files, the DAC, the attribute controller, and the four
// 64 KiB bit planes making up guest video memory.
type VGAEngine struct {
	mode byte // current video mode byte (INT 10h AH=00)

	// Derived text/graphics geometry (spec §3 "video state"), set by
	// SetMode and read back by bios_video.go's INT 10h handlers.
	Cols, Rows   byte
	Width, Height uint16
	Base         uint32
	ActivePage   byte

	cursorX, cursorY [8]byte
	cursorStart, cursorEnd byte

	crtc    [crtcRegCount]byte
	crtcIdx byte

	seq    [seqRegCount]byte
	seqIdx byte

	gc    [gcRegCount]byte
	gcIdx byte

	dac         [dacEntryCount][3]byte
	dacMask     byte
	dacReadIdx  byte
	dacWriteIdx byte
	dacSubIdx   byte // 0..2 stepping through R, G, B

	attrAddrPhase bool // true: next 0x3C0 write is an address, not data
	attrIdx       byte
	attrPalette   [attrPaletteCount]byte
	attrModeCtrl  byte
	attrOverscan  byte
	attrPlaneEn   byte
	attrHPan      byte
	attrColorSel  byte

	planes [vgaPlaneCount][vgaPlaneBytes]byte

	// latch holds the last four plane bytes read from the VGA window, one
	// per byte lane (invariant iii: updated on every read, discarded or
	// not).
	latch [vgaPlaneCount]byte

	// retrace is flipped by TickRetrace, a coarse heartbeat the scheduler
	// drives once per host tick. Real retrace timing is out of scope per
	// spec.md's Non-goals, but a guest spinning on 0x3DA waiting for the
	// horizontal-retrace bit to toggle needs to observe it move eventually
	// rather than poll forever.
	retrace bool
}

// NewVGAEngine returns a reset adapter and binds its ports on bus.
func NewVGAEngine(bus *PortBus) *VGAEngine {
	v := &VGAEngine{mode: videoMode03Text}
	v.attrAddrPhase = true
	v.wirePorts(bus)
	return v
}

// SetMode installs the geometry for a recognized video mode byte
// (spec §8 S4), grounded on the original's do_int10_00 mode table.
func (v *VGAEngine) SetMode(mode byte) {
	v.mode = mode
	switch mode {
	case videoMode13VGA:
		v.Cols, v.Rows = 40, 25
		v.Width, v.Height = 320, 200
		v.Base = vgaPlaneBase
	case videoMode12EGA:
		v.Cols, v.Rows = 80, 30
		v.Width, v.Height = 640, 480
		v.Base = vgaPlaneBase
	default: // videoMode03Text and anything else: fall back to 80x25 text
		v.Cols, v.Rows = 80, 25
		v.Width, v.Height = 640, 400
		v.Base = vgaTextBase
	}
	v.ActivePage = 0
}

// Mode returns the current video mode byte.
func (v *VGAEngine) Mode() byte { return v.mode }

// SetCursor and Cursor implement INT 10h AH=0x02/0x03 per page.
func (v *VGAEngine) SetCursor(page, x, y byte) {
	v.cursorX[page&7] = x
	v.cursorY[page&7] = y
}

func (v *VGAEngine) Cursor(page byte) (x, y byte) {
	return v.cursorX[page&7], v.cursorY[page&7]
}

func (v *VGAEngine) wirePorts(bus *PortBus) {
	// CRTC index/data, both the mono and color I/O-address aliases.
	bus.RegisterWrite(portCRTCAddrMono, portCRTCAddrMono, v.writeCRTCAddr)
	bus.RegisterWrite(portCRTCAddrColor, portCRTCAddrColor, v.writeCRTCAddr)
	bus.RegisterRead(portCRTCAddrMono, portCRTCAddrMono, v.readCRTCAddr)
	bus.RegisterRead(portCRTCAddrColor, portCRTCAddrColor, v.readCRTCAddr)
	bus.RegisterWrite(portCRTCDataMono, portCRTCDataMono, v.writeCRTCData)
	bus.RegisterWrite(portCRTCDataColor, portCRTCDataColor, v.writeCRTCData)
	bus.RegisterRead(portCRTCDataMono, portCRTCDataMono, v.readCRTCData)
	bus.RegisterRead(portCRTCDataColor, portCRTCDataColor, v.readCRTCData)

	// Input status 1, mono and color aliases: resets the attribute
	// flip-flop on every read (spec §4.6, testable property 10).
	bus.RegisterRead(portStatusMono, portStatusMono, v.readStatus1)
	bus.RegisterRead(portStatusColor, portStatusColor, v.readStatus1)

	// Attribute controller.
	bus.RegisterWrite(portAttrAddr, portAttrAddr, v.writeAttr)
	bus.RegisterRead(portAttrAddr, portAttrReadX, v.readAttr)

	// Sequencer.
	bus.RegisterWrite(portSeqAddr, portSeqAddr, v.writeSeqAddr)
	bus.RegisterRead(portSeqAddr, portSeqAddr, v.readSeqAddr)
	bus.RegisterWrite(portSeqData, portSeqData, v.writeSeqData)
	bus.RegisterRead(portSeqData, portSeqData, v.readSeqData)

	// Graphics controller.
	bus.RegisterWrite(portGCAddr, portGCAddr, v.writeGCAddr)
	bus.RegisterRead(portGCAddr, portGCAddr, v.readGCAddr)
	bus.RegisterWrite(portGCData, portGCData, v.writeGCData)
	bus.RegisterRead(portGCData, portGCData, v.readGCData)

	// DAC.
	bus.RegisterWrite(portDACMask, portDACMask, v.writeDACMask)
	bus.RegisterRead(portDACMask, portDACMask, v.readDACMask)
	bus.RegisterWrite(portDACReadIdx, portDACReadIdx, v.writeDACReadIdx)
	bus.RegisterWrite(portDACWriteIx, portDACWriteIx, v.writeDACWriteIdx)
	bus.RegisterRead(portDACReadIdx, portDACReadIdx, v.readDACWriteIdx)
	bus.RegisterWrite(portDACData, portDACData, v.writeDACData)
	bus.RegisterRead(portDACData, portDACData, v.readDACData)
}

// --- CRTC --------------------------------------------------------------

func (v *VGAEngine) writeCRTCAddr(_ uint16, val byte) { v.crtcIdx = val % crtcRegCount }
func (v *VGAEngine) readCRTCAddr(_ uint16) byte        { return v.crtcIdx }
func (v *VGAEngine) writeCRTCData(_ uint16, val byte)  { v.crtc[v.crtcIdx] = val }
func (v *VGAEngine) readCRTCData(_ uint16) byte        { return v.crtc[v.crtcIdx] }

// readStatus1 services 0x3BA/0x3DA: low bit is horizontal retrace (the
// core does not model real video timing, per Non-goals, so it only
// reflects TickRetrace's coarse heartbeat rather than an actual scan
// position), bits 4-7 read as 1, and the read resets the attribute
// controller's address/data flip-flop.
func (v *VGAEngine) readStatus1(_ uint16) byte {
	v.attrAddrPhase = true
	status := byte(statusReserved)
	if v.retrace {
		status |= statusHRetrace
	}
	return status
}

// TickRetrace flips the coarse retrace heartbeat bit read back by
// readStatus1, so a guest polling 0x3BA/0x3DA for horizontal retrace
// observes it change instead of spinning forever. Called once per
// scheduler Tick; not a timing model (spec.md's Non-goals exclude a
// real CRTC clock), just enough state change to unblock a polling loop.
func (v *VGAEngine) TickRetrace() {
	v.retrace = !v.retrace
}

// --- Attribute controller ------------------------------------------------

func (v *VGAEngine) writeAttr(_ uint16, val byte) {
	if v.attrAddrPhase {
		v.attrIdx = val & attrAddrMask
		v.attrAddrPhase = false
		return
	}
	v.attrAddrPhase = true
	if v.attrIdx < attrPaletteCount {
		v.attrPalette[v.attrIdx] = val
		return
	}
	switch v.attrIdx {
	case 0x10:
		v.attrModeCtrl = val
	case 0x11:
		v.attrOverscan = val
	case 0x12:
		v.attrPlaneEn = val
	case 0x13:
		v.attrHPan = val
	case 0x14:
		v.attrColorSel = val
	}
}

func (v *VGAEngine) readAttr(_ uint16) byte {
	if v.attrIdx < attrPaletteCount {
		return v.attrPalette[v.attrIdx]
	}
	switch v.attrIdx {
	case 0x10:
		return v.attrModeCtrl
	case 0x11:
		return v.attrOverscan
	case 0x12:
		return v.attrPlaneEn
	case 0x13:
		return v.attrHPan
	case 0x14:
		return v.attrColorSel
	}
	return 0
}

// attributeRGB expands an attribute palette index's bit layout ..rgbRGB
// into the 24-bit color it names, per spec §4.6.
func attributeRGB(entry byte) (r, g, b byte) {
	lowB := entry & 1
	lowG := (entry >> 1) & 1
	lowR := (entry >> 2) & 1
	highB := (entry >> 3) & 1
	highG := (entry >> 4) & 1
	highR := (entry >> 5) & 1
	r = attrComponentLUT[highR<<1|lowR]
	g = attrComponentLUT[highG<<1|lowG]
	b = attrComponentLUT[highB<<1|lowB]
	return
}

// --- Sequencer -----------------------------------------------------------

func (v *VGAEngine) writeSeqAddr(_ uint16, val byte) { v.seqIdx = val }
func (v *VGAEngine) readSeqAddr(_ uint16) byte        { return v.seqIdx }
func (v *VGAEngine) writeSeqData(_ uint16, val byte)  { v.seq[v.seqIdx] = val }
func (v *VGAEngine) readSeqData(_ uint16) byte        { return v.seq[v.seqIdx] }

// --- Graphics controller ---------------------------------------------------

func (v *VGAEngine) writeGCAddr(_ uint16, val byte) { v.gcIdx = val }
func (v *VGAEngine) readGCAddr(_ uint16) byte        { return v.gcIdx }
func (v *VGAEngine) writeGCData(_ uint16, val byte)  { v.gc[v.gcIdx] = val }
func (v *VGAEngine) readGCData(_ uint16) byte        { return v.gc[v.gcIdx] }

// --- DAC -------------------------------------------------------------------

func (v *VGAEngine) writeDACMask(_ uint16, val byte) { v.dacMask = val }
func (v *VGAEngine) readDACMask(_ uint16) byte        { return v.dacMask }

func (v *VGAEngine) writeDACReadIdx(_ uint16, val byte) {
	v.dacReadIdx = val
	v.dacSubIdx = 0
}

func (v *VGAEngine) writeDACWriteIdx(_ uint16, val byte) {
	v.dacWriteIdx = val
	v.dacSubIdx = 0
}

func (v *VGAEngine) readDACWriteIdx(_ uint16) byte { return v.dacWriteIdx }

// writeDACData deposits one 6-bit color component, scaled to 8 bits by a
// left shift of 2, into R then G then B of dac_entry[write_index],
// advancing the index on the B write (invariant iv, testable property 9).
func (v *VGAEngine) writeDACData(_ uint16, val byte) {
	v.dac[v.dacWriteIdx][v.dacSubIdx] = (val & 0x3F) << dacShift
	v.dacSubIdx++
	if v.dacSubIdx == 3 {
		v.dacSubIdx = 0
		v.dacWriteIdx++
	}
}

// readDACData mirrors writeDACData through the read index.
func (v *VGAEngine) readDACData(_ uint16) byte {
	val := v.dac[v.dacReadIdx][v.dacSubIdx]
	v.dacSubIdx++
	if v.dacSubIdx == 3 {
		v.dacSubIdx = 0
		v.dacReadIdx++
	}
	return val >> dacShift
}

// --- Write-mode ALU (spec §4.6) --------------------------------------------

func rotr8(v byte, n byte) byte {
	n &= 7
	return (v >> n) | (v << (8 - n))
}

func applyLogicOp(lane, latchByte byte, op byte) byte {
	switch op {
	case logicOpAND:
		return lane & latchByte
	case logicOpOR:
		return lane | latchByte
	case logicOpXOR:
		return lane ^ latchByte
	default:
		return lane
	}
}

// ReadPlane services a CPU read from the VGA window: it refills the
// latch from all four planes at this offset (invariant iii), then
// dispatches on read_mode (GR05 bit 3).
func (v *VGAEngine) ReadPlane(addr uint32) byte {
	off := addr - vgaPlaneBase
	for p := 0; p < vgaPlaneCount; p++ {
		v.latch[p] = v.planes[p][off]
	}

	if v.gc[gcModeReg]&gcReadModeBit == 0 {
		plane := v.gc[gcReadMapSel] & 3
		return v.latch[plane]
	}

	// Read mode 1: color-compare against "Color Don't Care" (GR07).
	var result byte
	cmp := v.gc[gcColorCmp]
	dontCare := v.gc[gcColorDont]
	for bit := 0; bit < 8; bit++ {
		match := true
		for p := 0; p < vgaPlaneCount; p++ {
			if dontCare&(1<<uint(p)) == 0 {
				continue
			}
			planeBit := (v.latch[p] >> uint(bit)) & 1
			cmpBit := (cmp >> uint(p)) & 1
			if planeBit != cmpBit {
				match = false
				break
			}
		}
		if match {
			result |= 1 << uint(bit)
		}
	}
	return result
}

// WritePlane services a CPU write to the VGA window, running the
// write-mode ALU described in spec §4.6 and writing only the planes
// selected by write_enable (SR02 low 4 bits).
func (v *VGAEngine) WritePlane(addr uint32, val byte) {
	off := addr - vgaPlaneBase

	rot := v.gc[gcDataRotate] & 7
	logicOp := (v.gc[gcDataRotate] >> 3) & 3
	srEn := v.gc[gcEnableSR] & 0xF
	srVal := v.gc[gcSetReset] & 0xF
	bitmask := v.gc[gcBitMask]
	writeEnable := v.seq[seqMapMask] & 0xF
	writeMode := v.gc[gcModeReg] & gcWriteModeBm

	for p := 0; p < vgaPlaneCount; p++ {
		if writeEnable&(1<<uint(p)) == 0 {
			continue
		}

		latchByte := v.latch[p]
		var result byte

		switch writeMode {
		case 1:
			// Mode 1: latch passthrough, no ALU/bitmask.
			result = latchByte

		case 2:
			// Mode 2: low nibble of val is a per-plane color index.
			var lane byte
			if val&(1<<uint(p)) != 0 {
				lane = 0xFF
			}
			alu := applyLogicOp(lane, latchByte, logicOp)
			result = (alu & bitmask) | (latchByte &^ bitmask)

		case 3:
			// Mode 3: rotate val, mask = bitmask & val', per-bit mux
			// between an sr_val broadcast and the latch.
			rotated := rotr8(val, rot)
			mask := bitmask & rotated
			var srByte byte
			if srVal&(1<<uint(p)) != 0 {
				srByte = 0xFF
			}
			result = (srByte & mask) | (latchByte &^ mask)

		default:
			// Mode 0: rotate val, substitute per-plane set/reset, ALU
			// against the latch, mux with bitmask. Grounded on
			// _neo_vga_write_0.
			rotated := rotr8(val, rot)
			var lane byte
			if srEn&(1<<uint(p)) != 0 {
				if srVal&(1<<uint(p)) != 0 {
					lane = 0xFF
				}
			} else {
				lane = rotated
			}
			alu := applyLogicOp(lane, latchByte, logicOp)
			result = (alu & bitmask) | (latchByte &^ bitmask)
		}

		v.planes[p][off] = result
	}
}
