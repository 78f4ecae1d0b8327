// disk.go - disk backing stores and drive geometry for fake86-go
//
// (c) 2024-2026 Zayn Otley - GPLv3 or later
//
// Grounded on the original fake86 disk.c (disk_insert_image/disk_insert_raw/
// disk_insert/_disk_seek/_disk_read/_disk_write): a file-backed image for
// the common case and a raw block-device path for "\\.\X:"-style strings,
// re-expressed as a small backingStore interface per spec §9's Design Note
// "Host-platform disk access" so the BIOS layer (bios_disk.go) never cares
// which one it's talking to. The raw path targets Linux device nodes
// (/dev/sdX) rather than Windows UNC paths, using golang.org/x/sys/unix's
// BLKGETSIZE64 ioctl as the analogue of the original's
// IOCTL_DISK_GET_DRIVE_GEOMETRY.
package main

import (
	"errors"
	"os"
	"strings"

	"golang.org/x/sys/unix"
)

const sectorBytes = 512

// backingStore is the capability a disk drive needs from its storage:
// positioned sector I/O and a byte size. Both implementations below
// satisfy it.
type backingStore interface {
	Seek(offset int64) error
	ReadSector(buf []byte) bool
	WriteSector(buf []byte) bool
	Size() int64
	Close() error
}

// fileBackingStore is a disk image held in a plain host file, grounded on
// _disk_seek/_disk_read/_disk_write's fopen/fseek/fread/fwrite path.
type fileBackingStore struct {
	f *os.File
}

func openFileBackingStore(path string) (*fileBackingStore, error) {
	f, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		return nil, err
	}
	return &fileBackingStore{f: f}, nil
}

func (s *fileBackingStore) Seek(offset int64) error {
	_, err := s.f.Seek(offset, os.SEEK_SET)
	return err
}

func (s *fileBackingStore) ReadSector(buf []byte) bool {
	n, err := s.f.Read(buf)
	return err == nil && n == len(buf)
}

// WriteSector treats a partial write as a failure. The original
// _disk_write returns `true` (success) on a short fwrite, which fake86's
// own author never revisited; spec §9's Open Question on this resolves
// it as a bug, so here a short write is always reported as a failure.
func (s *fileBackingStore) WriteSector(buf []byte) bool {
	n, err := s.f.Write(buf)
	return err == nil && n == len(buf)
}

func (s *fileBackingStore) Size() int64 {
	info, err := s.f.Stat()
	if err != nil {
		return 0
	}
	return info.Size()
}

func (s *fileBackingStore) Close() error { return s.f.Close() }

// rawBackingStore is a disk image backed directly by a Linux block
// device node, grounded on disk_insert_raw's CreateFileA/DeviceIoControl
// pair but using BLKGETSIZE64 in place of IOCTL_DISK_GET_DRIVE_GEOMETRY.
type rawBackingStore struct {
	f    *os.File
	size int64
}

func openRawBackingStore(path string) (*rawBackingStore, error) {
	f, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		return nil, err
	}
	numBytes, err := unix.IoctlGetUint64(int(f.Fd()), unix.BLKGETSIZE64)
	if err != nil {
		f.Close()
		return nil, err
	}
	return &rawBackingStore{f: f, size: int64(numBytes)}, nil
}

func (s *rawBackingStore) Seek(offset int64) error {
	_, err := s.f.Seek(offset, os.SEEK_SET)
	return err
}

func (s *rawBackingStore) ReadSector(buf []byte) bool {
	n, err := s.f.Read(buf)
	return err == nil && n == len(buf)
}

func (s *rawBackingStore) WriteSector(buf []byte) bool {
	n, err := s.f.Write(buf)
	return err == nil && n == len(buf)
}

func (s *rawBackingStore) Size() int64  { return s.size }
func (s *rawBackingStore) Close() error { return s.f.Close() }

// isRawDevicePath reports whether path names a raw block device rather
// than a plain disk-image file, the Linux analogue of the original's
// "\\\\" UNC-path sniff.
func isRawDevicePath(path string) bool {
	return strings.HasPrefix(path, "/dev/")
}

// DiskDrive is one of the 256 possible BIOS drive numbers: its backing
// store plus the CHS geometry the BIOS reports through INT 13h AH=08.
type DiskDrive struct {
	store    backingStore
	inserted bool

	cyls, heads, sects uint32
	fileSize           int64
}

// floppyGeometry derives CHS geometry from image size, first match wins,
// per spec §4.7.
func floppyGeometry(size int64) (cyls, heads, sects uint32) {
	switch {
	case size <= 163840:
		return 40, 1, 8
	case size <= 368640:
		return 40, 2, 9
	case size <= 737280:
		return 80, 2, 9
	case size <= 1228800:
		return 80, 2, 15
	default:
		return 80, 2, 18
	}
}

// DiskTable owns every BIOS drive slot, grounded on disk.c's
// file-scope `disk[256]` array, re-architected as instance state per
// spec §9's Design Note "Global state".
type DiskTable struct {
	drives    [256]*DiskDrive
	hdCount   uint32
	BootDrive byte
}

// NewDiskTable returns an empty drive table with no boot drive set.
func NewDiskTable() *DiskTable {
	return &DiskTable{BootDrive: 0xFF}
}

// Insert opens path as drive number drivenum, probing geometry from file
// size (floppy) or the fixed 63 sectors/16 heads rule (fixed disk,
// drivenum >= 0x80), per spec §4.7.
func (t *DiskTable) Insert(drivenum byte, path string) error {
	t.Eject(drivenum)

	var store backingStore
	var err error
	if isRawDevicePath(path) {
		store, err = openRawBackingStore(path)
	} else {
		store, err = openFileBackingStore(path)
	}
	if err != nil {
		return err
	}

	size := store.Size()
	d := &DiskDrive{store: store, inserted: true, fileSize: size}
	if drivenum >= 0x80 {
		d.sects = 63
		d.heads = 16
		d.cyls = uint32(size) / (d.sects * d.heads * sectorBytes)
		t.hdCount++
	} else {
		d.cyls, d.heads, d.sects = floppyGeometry(size)
	}

	t.drives[drivenum] = d
	return nil
}

// Eject removes and closes the image in drivenum, if any.
func (t *DiskTable) Eject(drivenum byte) {
	d := t.drives[drivenum]
	if d == nil || !d.inserted {
		return
	}
	d.store.Close()
	d.inserted = false
	t.drives[drivenum] = nil
	if drivenum >= 0x80 && t.hdCount > 0 {
		t.hdCount--
	}
}

// Inserted reports whether drivenum currently has media.
func (t *DiskTable) Inserted(drivenum byte) bool {
	d := t.drives[drivenum]
	return d != nil && d.inserted
}

var errNoMedia = errors.New("disk: drive not inserted")

// readSectors performs a byte-granular CHS read into guest memory via
// mem (so the readonly mask is honored even for disk-loaded code),
// grounded on disk_read. It returns the count of sectors actually
// transferred before any read failure, matching the original's early
// break-and-report-partial-count behavior.
func (t *DiskTable) readSectors(mem *MemoryBus, drivenum byte, dstSeg, dstOff, cyl, sect, head, count uint16) uint16 {
	d := t.drives[drivenum]
	if sect == 0 || d == nil || !d.inserted {
		return 0
	}

	lba := (uint32(cyl)*d.heads + uint32(head)) * d.sects + uint32(sect) - 1
	fileOffset := int64(lba) * sectorBytes
	if fileOffset > d.fileSize {
		return 0
	}
	if err := d.store.Seek(fileOffset); err != nil {
		return 0
	}

	dest := linear(dstSeg, dstOff)
	var buf [sectorBytes]byte
	var done uint16
	for ; done < count; done++ {
		if !d.store.ReadSector(buf[:]) {
			break
		}
		for _, b := range buf {
			mem.Write8(dest, b)
			dest = (dest + 1) & addrMask
		}
	}
	return done
}

// writeSectors performs a byte-granular CHS write from guest memory,
// grounded on disk_write. A short write anywhere in the run aborts the
// remaining sectors (spec §9's resolved Open Question: partial writes
// are failures).
func (t *DiskTable) writeSectors(mem *MemoryBus, drivenum byte, srcSeg, srcOff, cyl, sect, head, count uint16) uint16 {
	d := t.drives[drivenum]
	if sect == 0 || d == nil || !d.inserted {
		return 0
	}

	lba := (uint32(cyl)*d.heads + uint32(head)) * d.sects + uint32(sect) - 1
	fileOffset := int64(lba) * sectorBytes
	if fileOffset > d.fileSize {
		return 0
	}
	if err := d.store.Seek(fileOffset); err != nil {
		return 0
	}

	src := linear(srcSeg, srcOff)
	var buf [sectorBytes]byte
	var done uint16
	for ; done < count; done++ {
		for i := range buf {
			buf[i] = mem.Read8(src)
			src = (src + 1) & addrMask
		}
		if !d.store.WriteSector(buf[:]) {
			break
		}
	}
	return done
}
