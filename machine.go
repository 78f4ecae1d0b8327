// machine.go - top-level machine wiring for fake86-go
//
// (c) 2024-2026 Zayn Otley - GPLv3 or later
//
// Grounded on spec.md §5's single-logical-thread concurrency model and
// §9's "Global state re-architecture" Design Note: one Machine instance
// owns the CPU, buses, PIC, disk table and VGA adapter, rather than the original's file-scope globals, so that multiple
// independent machines can coexist (e.g. under test); the Scheduler is a
// separate value that drives a Machine. The lock-free
// input ring follows the teacher's atomic.Pointer/atomic.Uint32 idiom
// (audio_backend_oto.go) rather than introducing a channel, since the
// producer (host input) and consumer (CPU thread) must never block
// each other per spec §5.
package main

import "sync/atomic"

const inputRingSize = 256

// inputRing is a lock-free single-producer/single-consumer byte ring
// feeding scancodes (or mouse deltas, packed by the caller) from a host
// input thread to the CPU thread, drained at instruction boundaries per
// spec §5.
type inputRing struct {
	buf        [inputRingSize]byte
	head, tail atomic.Uint32 // head: next write slot; tail: next read slot
}

// Push enqueues b, dropping it if the ring is full (a lost keystroke is
// preferable to blocking the producer, matching real keyboard
// controllers' shallow buffers).
func (r *inputRing) Push(b byte) {
	head := r.head.Load()
	next := (head + 1) % inputRingSize
	if next == r.tail.Load() {
		return // full: drop
	}
	r.buf[head] = b
	r.head.Store(next)
}

// Pop dequeues one byte, reporting false if the ring is empty.
func (r *inputRing) Pop() (byte, bool) {
	tail := r.tail.Load()
	if tail == r.head.Load() {
		return 0, false
	}
	b := r.buf[tail]
	r.tail.Store((tail + 1) % inputRingSize)
	return b, true
}

// Machine is a complete fake86-go guest: CPU core, physical memory and
// port buses, the PIC, disk subsystem, VGA adapter, and the collaborator
// intercepts the BIOS layer needs.
type Machine struct {
	CPU   *CPU
	Mem   *MemoryBus
	Ports *PortBus
	PIC   *PIC8259
	VGA   *VGAEngine

	Disks *DiskTable
	disk  *BIOSDisk
	video *BIOSVideo

	bus *CPUBus

	Keyboard inputRing
	Mouse    inputRing

	log *Logger

	// running mirrors spec §5's atomic `running` flag: Scheduler.Run
	// checks it between quanta, never mid-instruction.
	running atomic.Bool

	// dohardreset mirrors spec §5's `dohardreset`: serviced at the start
	// of the next Step, never mid-instruction.
	dohardreset atomic.Bool
}

// NewMachine wires a complete, freshly-reset guest machine. log may be
// nil, in which case a discarding logger is installed.
func NewMachine(log *Logger) *Machine {
	if log == nil {
		log = discardLogger()
	}

	m := &Machine{
		CPU:   &CPU{},
		Mem:   NewMemoryBus(),
		Ports: NewPortBus(),
		Disks: NewDiskTable(),
		log:   log,
	}
	m.CPU.Reset()

	m.PIC = NewPIC8259(m.Ports)
	m.VGA = NewVGAEngine(m.Ports)
	m.Mem.AttachVGA(m.VGA)

	m.disk = NewBIOSDisk(m.Disks)
	m.video = NewBIOSVideo(m.VGA)

	m.bus = &CPUBus{
		Mem:   m.Mem,
		Ports: m.Ports,
		PIC:   m.PIC,
		Int10: m.video.HandleInt10,
		Int13: m.disk.HandleInt13,
	}

	m.running.Store(true)
	return m
}

// LoadBIOS loads data into ROM at 0xF0000, per spec §6.
func (m *Machine) LoadBIOS(data []byte) {
	m.Mem.LoadBIOS(data)
}

// LoadVideoROM loads an option ROM (e.g. videorom.bin) at base.
func (m *Machine) LoadVideoROM(base uint32, data []byte) {
	m.Mem.LoadROM(base, data)
}

// InsertDisk attaches a disk image at drivenum, per spec §4.7.
func (m *Machine) InsertDisk(drivenum byte, path string) error {
	m.log.Printf(ChanDisk, "inserting drive %02X: %s", drivenum, path)
	return m.Disks.Insert(drivenum, path)
}

// Boot runs the BIOS bootstrap sequence (spec §4.7's bootstrap()): load
// the boot drive's first sector to 0x07C0:0000, or fall through to ROM
// BASIC at 0xF600:0000 if no boot drive is set.
func (m *Machine) Boot() {
	m.disk.Bootstrap(m.CPU, m.Mem)
	m.log.Printf(ChanGeneral, "boot: CS:IP=%04X:%04X", m.CPU.CS, m.CPU.IP)
}

// DoIRQ raises irqNum on the PIC. Safe to call from any goroutine per
// spec §5; the PIC itself guards the field this touches.
func (m *Machine) DoIRQ(irqNum byte) {
	m.PIC.DoIRQ(irqNum)
}

// RequestHardReset arms a full CPU reset, applied at the start of the
// next Step before that instruction executes (spec §5: "never
// mid-instruction"). The reset is not deferred to the end of the
// scheduler's current quantum.
func (m *Machine) RequestHardReset() {
	m.dohardreset.Store(true)
}

// Running reports the machine's run/halt flag (spec §5's atomic
// `running`).
func (m *Machine) Running() bool {
	return m.running.Load()
}

// Stop clears the run flag; Scheduler.Run observes it between quanta.
func (m *Machine) Stop() {
	m.running.Store(false)
}

// Step drains one pending host-input byte (if any) before advancing the
// CPU by a single instruction, matching spec §5's "drained by the CPU
// thread at instruction boundaries" input contract. A drained keyboard
// byte raises IRQ1 after being placed at the conventional port 0x60
// scratch location; full keyboard-controller emulation is out of scope
// per spec.md §1's Non-goals, so this is the minimal wiring the BIOS
// keyboard buffer convention needs.
func (m *Machine) Step() {
	if m.dohardreset.Load() {
		m.CPU.Reset()
		m.dohardreset.Store(false)
	}

	if b, ok := m.Keyboard.Pop(); ok {
		m.Ports.scratch[0x60] = b
		m.PIC.DoIRQ(1)
	}

	m.CPU.Step(m.bus)
}
