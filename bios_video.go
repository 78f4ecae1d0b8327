// bios_video.go - BIOS INT 10h video services for fake86-go
//
// (c) 2024-2026 Zayn Otley - GPLv3 or later
//
// spec.md §4.4 only requires intercepting INT 10h at the IVT-stub level
// and names AH=0x00 via the S4 scenario; the rest of this file
// supplements the handful of do_int10_0X calls (original_source's
// video_neo.c) real 1980s software actually issues during boot and
// early initialization: cursor positioning, get-mode, and display
// combination. Anything beyond that (scrolling, teletype output, font
// loading) is out of scope for the core per spec.md's Non-goals on a
// "programmable CRTC beyond register storage".
package main

// BIOSVideo is the INT 10h service layer over a VGAEngine.
type BIOSVideo struct {
	VGA *VGAEngine
}

// NewBIOSVideo wraps vga in the INT 10h service layer.
func NewBIOSVideo(vga *VGAEngine) *BIOSVideo {
	return &BIOSVideo{VGA: vga}
}

// HandleInt10 services INT 10h, dispatching on AH.
func (b *BIOSVideo) HandleInt10(c *CPU, mem *MemoryBus) {
	ah := byte(c.AX >> 8)

	switch ah {
	case 0x00: // set video mode, AL = mode
		al := byte(c.AX)
		b.VGA.SetMode(al & 0x7F) // bit 7 is "don't clear" on real BIOSes

	case 0x02: // set cursor position: BH=page, DH=row, DL=col
		bh := byte(c.BX >> 8)
		dh := byte(c.DX >> 8)
		dl := byte(c.DX)
		b.VGA.SetCursor(bh, dl, dh)

	case 0x03: // get cursor position: BH=page -> DH=row,DL=col, CX=shape
		bh := byte(c.BX >> 8)
		x, y := b.VGA.Cursor(bh)
		c.DX = uint16(y)<<8 | uint16(x)
		c.CX = uint16(b.VGA.cursorStart)<<8 | uint16(b.VGA.cursorEnd)

	case 0x0F: // get current video mode: AL=mode, AH=cols, BH=page
		// spec.md §9's Open Question: the architectural AH field is
		// 8 bits. VGA.Cols is stored as a byte, so the column count
		// always fits AH and no truncation can occur.
		cols := b.VGA.Cols
		c.AX = uint16(cols)<<8 | uint16(b.VGA.Mode())
		c.BX = (c.BX & 0x00FF) | uint16(b.VGA.ActivePage)<<8

	case 0x1A: // get/set display combination code
		if byte(c.AX) == 0x00 { // AL=0: get
			c.AX = (c.AX & 0xFF00) | 0x1A
			c.BX = (c.BX &^ 0xFF) | 0x08 // VGA with analog color display
		}

	default:
		// Unhandled AH: no-op, matching the original's partial
		// do_int10_0X coverage for calls this core doesn't model.
	}
}
