package main

import "testing"

func newTestBIOSDisk(t *testing.T, sectors int) (*BIOSDisk, string) {
	t.Helper()
	path := makeTestImage(t, sectors)
	table := NewDiskTable()
	if err := table.Insert(0x00, path); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}
	return NewBIOSDisk(table), path
}

func TestPackCHS(t *testing.T) {
	// CL = sector(6 bits) | cylinder-high(2 bits); CH = cylinder-low(8 bits)
	cx := uint16(0x0301) // CH=03 CL=01 -> sector=1, cyl=3
	cyl, sect, head := packCHS(cx, 0x0200) // DH=02
	if cyl != 3 || sect != 1 || head != 2 {
		t.Errorf("packCHS(0x0301, DH=2) = (cyl=%d sect=%d head=%d), want (3,1,2)", cyl, sect, head)
	}
}

func TestHandleInt13ResetAlwaysSucceeds(t *testing.T) {
	b, _ := newTestBIOSDisk(t, 8)
	mem := NewMemoryBus()
	c := &CPU{AX: 0x0000, DX: 0x0000}
	b.HandleInt13(c, mem)
	if c.getFlag(flagCF) {
		t.Error("AH=0 (reset) set CF")
	}
}

func TestHandleInt13ReadSector(t *testing.T) {
	b, _ := newTestBIOSDisk(t, 8)
	mem := NewMemoryBus()
	c := &CPU{
		AX: 0x0201,    // AH=2 (read), AL=1 sector
		CX: 0x0001,    // cyl=0, sect=1
		DX: 0x0000,    // head=0, drive=0
		ES: 0x1000, BX: 0x0000,
	}
	b.HandleInt13(c, mem)
	if c.getFlag(flagCF) {
		t.Fatal("AH=2 read set CF on a valid sector")
	}
	if byte(c.AX) != 1 {
		t.Errorf("AL after read = %d, want 1 sector transferred", byte(c.AX))
	}
	if got := mem.Read8(linear(0x1000, 0x0000)); got != 0x00 {
		t.Errorf("first byte at ES:BX = %02X, want 00", got)
	}
}

func TestHandleInt13ReadMissingDriveSetsCF(t *testing.T) {
	table := NewDiskTable()
	b := NewBIOSDisk(table)
	mem := NewMemoryBus()
	c := &CPU{AX: 0x0201, CX: 0x0001, DX: 0x0000}
	b.HandleInt13(c, mem)
	if !c.getFlag(flagCF) {
		t.Error("AH=2 on an empty drive did not set CF")
	}
	if byte(c.AX>>8) != 1 {
		t.Errorf("AH after failed read = %02X, want 01", byte(c.AX>>8))
	}
}

func TestHandleInt13LastStatusCache(t *testing.T) {
	table := NewDiskTable()
	b := NewBIOSDisk(table)
	mem := NewMemoryBus()

	c := &CPU{AX: 0x0201, CX: 0x0001, DX: 0x0000} // fails: no media
	b.HandleInt13(c, mem)

	c2 := &CPU{AX: 0x0100, DX: 0x0000} // AH=1: get last status for DL=0
	b.HandleInt13(c2, mem)
	if !c2.getFlag(flagCF) {
		t.Error("AH=1 did not replay the cached failing CF")
	}
	if byte(c2.AX>>8) != 1 {
		t.Errorf("AH=1 replayed status = %02X, want 01", byte(c2.AX>>8))
	}
}

func TestHandleInt13GetDriveParameters(t *testing.T) {
	b, _ := newTestBIOSDisk(t, 2880) // 1.44MB floppy geometry: 80/2/18
	mem := NewMemoryBus()
	c := &CPU{AX: 0x0800, DX: 0x0000}
	b.HandleInt13(c, mem)
	if c.getFlag(flagCF) {
		t.Fatal("AH=8 set CF for an inserted drive")
	}
	maxCyl := byte(c.CX >> 8)
	if maxCyl != 79 { // cyls-1
		t.Errorf("AH=8 max cylinder = %d, want 79", maxCyl)
	}
}

func TestBootstrapNoBootDriveFallsToROMBASIC(t *testing.T) {
	table := NewDiskTable() // BootDrive defaults to 0xFF
	b := NewBIOSDisk(table)
	mem := NewMemoryBus()
	c := &CPU{}
	b.Bootstrap(c, mem)
	if c.CS != 0xF600 || c.IP != 0x0000 {
		t.Errorf("Bootstrap with no boot drive = CS:IP %04X:%04X, want F600:0000", c.CS, c.IP)
	}
}

func TestBootstrapLoadsBootSector(t *testing.T) {
	b, _ := newTestBIOSDisk(t, 8)
	b.Table.BootDrive = 0x00
	mem := NewMemoryBus()
	c := &CPU{}
	b.Bootstrap(c, mem)
	if c.CS != 0x0000 || c.IP != 0x7C00 {
		t.Errorf("Bootstrap CS:IP = %04X:%04X, want 0000:7C00", c.CS, c.IP)
	}
	if got := mem.Read8(linear(0x07C0, 0x0000)); got != 0x00 {
		t.Errorf("boot sector first byte = %02X, want 00", got)
	}
}
