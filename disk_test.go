package main

import (
	"os"
	"path/filepath"
	"testing"
)

func makeTestImage(t *testing.T, sectors int) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "disk.img")
	data := make([]byte, sectors*sectorBytes)
	for i := range data {
		data[i] = byte(i)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("failed to write test image: %v", err)
	}
	return path
}

func TestFloppyGeometryThresholds(t *testing.T) {
	tests := []struct {
		size                int64
		cyls, heads, sects uint32
	}{
		{163840, 40, 1, 8},
		{368640, 40, 2, 9},
		{737280, 80, 2, 9},
		{1228800, 80, 2, 15},
		{1474560, 80, 2, 18},
	}
	for _, tt := range tests {
		c, h, s := floppyGeometry(tt.size)
		if c != tt.cyls || h != tt.heads || s != tt.sects {
			t.Errorf("floppyGeometry(%d) = (%d,%d,%d), want (%d,%d,%d)",
				tt.size, c, h, s, tt.cyls, tt.heads, tt.sects)
		}
	}
}

func TestDiskTableInsertAndEject(t *testing.T) {
	path := makeTestImage(t, 2880) // 1.44MB floppy
	table := NewDiskTable()

	if err := table.Insert(0x00, path); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}
	if !table.Inserted(0x00) {
		t.Error("Inserted(0x00) false after Insert")
	}

	table.Eject(0x00)
	if table.Inserted(0x00) {
		t.Error("Inserted(0x00) true after Eject")
	}
}

func TestDiskTableReadSectors(t *testing.T) {
	path := makeTestImage(t, 8)
	table := NewDiskTable()
	if err := table.Insert(0x00, path); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	mem := NewMemoryBus()
	n := table.readSectors(mem, 0x00, 0x1000, 0x0000, 0, 1, 0, 1)
	if n != 1 {
		t.Fatalf("readSectors returned %d, want 1", n)
	}
	if got := mem.Read8(linear(0x1000, 0x0000)); got != 0x00 {
		t.Errorf("first byte read = %02X, want 00", got)
	}
	if got := mem.Read8(linear(0x1000, 0x0001)); got != 0x01 {
		t.Errorf("second byte read = %02X, want 01", got)
	}
}

func TestDiskTableWriteSectorsRoundTrip(t *testing.T) {
	path := makeTestImage(t, 8)
	table := NewDiskTable()
	if err := table.Insert(0x00, path); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	mem := NewMemoryBus()
	for i := 0; i < sectorBytes; i++ {
		mem.Write8(linear(0x2000, uint16(i)), 0xAA)
	}
	n := table.writeSectors(mem, 0x00, 0x2000, 0x0000, 0, 2, 0, 1)
	if n != 1 {
		t.Fatalf("writeSectors returned %d, want 1", n)
	}

	mem2 := NewMemoryBus()
	n = table.readSectors(mem2, 0x00, 0x3000, 0x0000, 0, 2, 0, 1)
	if n != 1 {
		t.Fatalf("readback readSectors returned %d, want 1", n)
	}
	if got := mem2.Read8(linear(0x3000, 0x0000)); got != 0xAA {
		t.Errorf("readback byte = %02X, want AA", got)
	}
}

func TestDiskTableReadMissingDriveReturnsZero(t *testing.T) {
	table := NewDiskTable()
	mem := NewMemoryBus()
	n := table.readSectors(mem, 0x01, 0x1000, 0, 0, 1, 0, 1)
	if n != 0 {
		t.Errorf("readSectors on empty drive returned %d, want 0", n)
	}
}

func TestDiskTableFixedDiskGeometry(t *testing.T) {
	path := makeTestImage(t, 63*16*10) // 10 cylinders worth
	table := NewDiskTable()
	if err := table.Insert(0x80, path); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}
	d := table.drives[0x80]
	if d.sects != 63 || d.heads != 16 {
		t.Errorf("fixed disk geometry = sects=%d heads=%d, want 63/16", d.sects, d.heads)
	}
	if table.hdCount != 1 {
		t.Errorf("hdCount = %d, want 1", table.hdCount)
	}
}
