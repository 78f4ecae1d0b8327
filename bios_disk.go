// bios_disk.go - BIOS INT 13h disk services for fake86-go
//
// (c) 2024-2026 Zayn Otley - GPLv3 or later
//
// Grounded on the original fake86 disk.c's disk_int_handler/disk_bootstrap:
// the AH-selected dispatch table, CHS packing in CX:DH, the lastdiskah/
// lastdiskcf status cache, and the 0x474 BIOS-data-area mirror for fixed
// disks. Re-architected per spec §9's Design Note as methods on an
// instance rather than file-scope statics.
package main

// BIOSDisk is the INT 13h service layer sitting on top of a DiskTable: it
// adds the per-drive "return last status" cache the original keeps in
// file-scope `lastdiskah`/`lastdiskcf` arrays.
type BIOSDisk struct {
	Table *DiskTable

	lastAH [256]byte
	lastCF [256]bool
}

// NewBIOSDisk wraps table in the INT 13h service layer.
func NewBIOSDisk(table *DiskTable) *BIOSDisk {
	return &BIOSDisk{Table: table}
}

// packCHS splits CX:DH per spec §4.7: sector = CL & 63, cylinder = CH +
// (CL>>6)*256, head = DH.
func packCHS(cx, dh uint16) (cyl, sect, head uint16) {
	cl := byte(cx)
	ch := byte(cx >> 8)
	sect = uint16(cl & 0x3F)
	cyl = uint16(ch) + uint16(cl>>6)*256
	head = (dh >> 8) & 0xFF
	return
}

// HandleInt13 services INT 13h, dispatching on AH per spec §4.7's table
// and updating the CPU's flags/registers in place.
func (b *BIOSDisk) HandleInt13(c *CPU, mem *MemoryBus) {
	ah := byte(c.AX >> 8)
	al := byte(c.AX)
	dl := byte(c.DX)

	switch ah {
	case 0: // reset disk system: always succeeds in an emulator.
		ah = 0
		c.setFlag(flagCF, false)

	case 1: // return last status for DL; bypasses the status cache update
		// below, matching disk_int_handler's early return for this case.
		ah = b.lastAH[dl]
		c.setFlag(flagCF, b.lastCF[dl])
		c.AX = (c.AX & 0x00FF) | uint16(ah)<<8
		return

	case 2: // read AL sectors, CHS in CX:DH, dst ES:BX
		if !b.Table.Inserted(dl) {
			ah = 1
			c.setFlag(flagCF, true)
			break
		}
		cyl, sect, head := packCHS(c.CX, c.DX)
		n := b.Table.readSectors(mem, dl, c.ES, c.BX, cyl, sect, head, uint16(al))
		c.AX = (c.AX & 0xFF00) | uint16(byte(n))
		ah = 0
		c.setFlag(flagCF, false)

	case 3: // write AL sectors, CHS in CX:DH, src ES:BX
		if !b.Table.Inserted(dl) {
			ah = 1
			c.setFlag(flagCF, true)
			break
		}
		cyl, sect, head := packCHS(c.CX, c.DX)
		n := b.Table.writeSectors(mem, dl, c.ES, c.BX, cyl, sect, head, uint16(al))
		c.AX = (c.AX & 0xFF00) | uint16(byte(n))
		if n != uint16(al) {
			// A short write is a failure: "sector not found".
			ah = 4
			c.setFlag(flagCF, true)
			break
		}
		ah = 0
		c.setFlag(flagCF, false)

	case 4, 5: // verify/format track: no-op success
		ah = 0
		c.setFlag(flagCF, false)

	case 8: // get drive parameters
		d := b.Table.drives[dl]
		if d == nil || !d.inserted {
			ah = 0xAA
			c.setFlag(flagCF, true)
			break
		}
		ch := byte((d.cyls - 1) & 0xFF)
		cl := byte(d.sects&0x3F) + byte((d.cyls/256)*64)
		dhOut := byte(d.heads - 1)
		c.CX = uint16(ch)<<8 | uint16(cl)
		var dlOut byte
		if dl < 0x80 {
			c.BX = (c.BX &^ 0xFF) | 4
			dlOut = 2
		} else {
			dlOut = byte(b.Table.hdCount)
		}
		c.DX = uint16(dhOut)<<8 | uint16(dlOut)
		ah = 0
		c.setFlag(flagCF, false)

	default:
		ah = byte(c.AX >> 8)
		c.setFlag(flagCF, true)
	}

	c.AX = (c.AX & 0x00FF) | uint16(ah)<<8
	b.record(dl, ah, c.getFlag(flagCF), mem)
}

// record updates the per-drive status cache and, for fixed disks,
// mirrors AH into the BIOS data area at 0x474 through the bus (so the
// readonly mask and any MMIO redirection still apply, per spec §4.7).
func (b *BIOSDisk) record(drivenum, ah byte, cf bool, mem *MemoryBus) {
	b.lastAH[drivenum] = ah
	b.lastCF[drivenum] = cf
	if drivenum&0x80 != 0 {
		mem.Write8(0x474, ah)
	}
}

// Bootstrap reads cylinder 0/head 0/sector 1 of the boot drive into
// 0x07C0:0x0000 and sets CS:IP to the boot sector entry point; with no
// boot drive it jumps to 0xF600:0x0000 (ROM BASIC), per spec §4.7.
func (b *BIOSDisk) Bootstrap(c *CPU, mem *MemoryBus) {
	if b.Table.BootDrive < 0xFF {
		b.Table.readSectors(mem, b.Table.BootDrive, 0x07C0, 0x0000, 0, 1, 0, 1)
		c.CS = 0x0000
		c.IP = 0x7C00
		return
	}
	c.CS = 0xF600
	c.IP = 0x0000
}
