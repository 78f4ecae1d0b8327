// pic_8259.go - Intel 8259 programmable interrupt controller for fake86-go
//
// (c) 2024-2026 Zayn Otley - GPLv3 or later
//
// Grounded on the original fake86 i8259.c (in8259/out8259/nextintr/doirq):
// the single-PIC, no-cascade model a PC-class machine needs (spec §4.5).
// The IRR field gets its own mutex per spec §5 ("doirq must be safe to
// call from any thread... the PIC samples IRR only from the CPU thread"),
// following the teacher's convention of guarding the narrow slice of
// state that crosses goroutine boundaries rather than the whole struct.
package main

import "sync"

// PIC8259 is the 8259-compatible interrupt controller: IRR/ISR/IMR,
// the ICW initialization sequence, and OCW3 readmode selection.
type PIC8259 struct {
	irrMu sync.Mutex
	irr   byte

	isr byte
	imr byte

	icw      [5]byte // icw[0] unused; icw[1..4] per the ICW sequence
	icwstep  int
	readmode byte // 0: base+0 reads IRR; non-zero: reads ISR

	// KeyboardWaitAck is set by doirq(1) and cleared by EOI, mirroring
	// the original's keyboardwaitack global (spec §4.5).
	KeyboardWaitAck bool

	// makeupTicks counts timer ticks lost while IRQ0 was still
	// in-service; a non-specific EOI on IRQ0 credits one back by
	// re-raising IRR bit 0 (spec §4.5). The 8253 timer collaborator
	// increments this when it drops a tick; out of scope here (see
	// spec's external-collaborator list) but the field is exercised
	// by EOI regardless of who feeds it.
	makeupTicks uint32
}

// NewPIC8259 returns a reset PIC and binds its ports (0x20-0x21) on bus.
func NewPIC8259(bus *PortBus) *PIC8259 {
	p := &PIC8259{}
	bus.RegisterRead(0x20, 0x21, p.In)
	bus.RegisterWrite(0x20, 0x21, p.Out)
	return p
}

// In services a read from base+0 (IRR or ISR, per readmode) or base+1
// (IMR).
func (p *PIC8259) In(port uint16) byte {
	if port&1 == 0 {
		p.irrMu.Lock()
		irr := p.irr
		p.irrMu.Unlock()
		if p.readmode == 0 {
			return irr
		}
		return p.isr
	}
	return p.imr
}

// Out services a write to base+0 (command: ICW1/OCW2 EOI/OCW3) or
// base+1 (ICW continuation, or a new IMR once initialized).
func (p *PIC8259) Out(port uint16, value byte) {
	if port&1 == 0 {
		if value&0x10 != 0 {
			// Begin initialization sequence.
			p.icwstep = 1
			p.imr = 0
			p.icw[p.icwstep] = value
			p.icwstep++
			return
		}
		if value&0x98 == 0x08 {
			// OCW3: spec §9 notes the readmode mask stores 0 or 2, not
			// 0 or 1 - any non-zero value here means "read ISR".
			if value&2 != 0 {
				p.readmode = value & 2
			}
			return
		}
		if value&0x20 != 0 {
			p.nonSpecificEOI()
		}
		return
	}

	if p.icwstep == 3 && p.icw[1]&2 != 0 {
		// Single mode: no cascade controller, so ICW3 is never sent.
		p.icwstep = 4
	}
	if p.icwstep < 5 {
		p.icw[p.icwstep] = value
		p.icwstep++
		return
	}
	p.imr = value
}

// nonSpecificEOI clears the lowest set ISR bit. If that bit was IRQ0 and
// a tick was credited away by makeupTicks, the timer's lost tick is
// re-delivered once by re-raising IRR bit 0.
func (p *PIC8259) nonSpecificEOI() {
	p.KeyboardWaitAck = false
	for i := byte(0); i < 8; i++ {
		if p.isr&(1<<i) == 0 {
			continue
		}
		p.isr &^= 1 << i
		if i == 0 && p.makeupTicks > 0 {
			p.makeupTicks = 0
			p.irrMu.Lock()
			p.irr |= 1
			p.irrMu.Unlock()
		}
		return
	}
}

// NextVector is called by the dispatcher when IF=1 and IRR&^IMR != 0. It
// finds the lowest-numbered eligible bit, clears it in IRR, sets it in
// ISR, and returns the delivered vector (ICW[2] + bit index).
func (p *PIC8259) NextVector() (vector byte, ok bool) {
	p.irrMu.Lock()
	defer p.irrMu.Unlock()

	eligible := p.irr &^ p.imr
	for i := byte(0); i < 8; i++ {
		if eligible&(1<<i) == 0 {
			continue
		}
		p.irr &^= 1 << i
		p.isr |= 1 << i
		return p.icw[2] + i, true
	}
	return 0, false
}

// Pending reports whether any unmasked IRQ is waiting, without
// consuming it; the dispatcher uses this to decide whether to call
// NextVector at all.
func (p *PIC8259) Pending() bool {
	p.irrMu.Lock()
	defer p.irrMu.Unlock()
	return p.irr&^p.imr != 0
}

// DoIRQ sets bit irqNum of IRR. Safe to call from any goroutine (spec
// §5); irqNum 1 (keyboard) additionally flags a wait-acknowledge.
func (p *PIC8259) DoIRQ(irqNum byte) {
	p.irrMu.Lock()
	p.irr |= 1 << irqNum
	p.irrMu.Unlock()
	if irqNum == 1 {
		p.KeyboardWaitAck = true
	}
}

// AddMakeupTick records a timer tick the core could not yet service
// (e.g. IRQ0 still in-service); the next EOI on IRQ0 will credit it
// back via a single re-raised IRR bit, per spec §4.5.
func (p *PIC8259) AddMakeupTick() {
	p.makeupTicks++
}
