package main

import "testing"

func newTestBus() (*CPU, *CPUBus) {
	c := &CPU{}
	c.Reset()
	mem := NewMemoryBus()
	ports := NewPortBus()
	pic := NewPIC8259(ports)
	bus := &CPUBus{Mem: mem, Ports: ports, PIC: pic}
	return c, bus
}

func load(mem *MemoryBus, cs, ip uint16, code ...byte) {
	addr := linear(cs, ip)
	for _, b := range code {
		mem.Write8(addr, b)
		addr = (addr + 1) & addrMask
	}
}

func TestStepMovRegImmediate(t *testing.T) {
	c, bus := newTestBus()
	load(bus.Mem, 0, 0, 0xB8, 0x34, 0x12) // MOV AX, 0x1234
	c.Step(bus)
	if c.AX != 0x1234 {
		t.Errorf("AX after MOV AX,0x1234 = %04X, want 1234", c.AX)
	}
	if c.IP != 3 {
		t.Errorf("IP after 3-byte instruction = %d, want 3", c.IP)
	}
}

func TestStepAddUpdatesFlags(t *testing.T) {
	c, bus := newTestBus()
	c.AX = 0x0001
	load(bus.Mem, 0, 0, 0x83, 0xC0, 0xFF) // ADD AX, -1 (grp1, sign-extended imm8)
	c.Step(bus)
	if c.AX != 0 || !c.ZF() {
		t.Errorf("ADD AX,-1 with AX=1 = %04X ZF=%v, want 0000 true", c.AX, c.ZF())
	}
}

func TestStepPushPop(t *testing.T) {
	c, bus := newTestBus()
	c.SP = 0x1000
	c.AX = 0xBEEF
	load(bus.Mem, 0, 0,
		0x50,                   // PUSH AX
		0xB8, 0x00, 0x00,       // MOV AX, 0
		0x58)                   // POP AX
	c.Step(bus) // PUSH AX
	if c.SP != 0x0FFE {
		t.Fatalf("SP after PUSH = %04X, want 0FFE", c.SP)
	}
	c.Step(bus) // MOV AX,0
	if c.AX != 0 {
		t.Fatalf("AX after MOV AX,0 = %04X, want 0", c.AX)
	}
	c.Step(bus) // POP AX
	if c.AX != 0xBEEF || c.SP != 0x1000 {
		t.Errorf("POP AX = AX=%04X SP=%04X, want BEEF 1000", c.AX, c.SP)
	}
}

func TestStepJmpShort(t *testing.T) {
	c, bus := newTestBus()
	load(bus.Mem, 0, 0, 0xEB, 0x02, 0x90, 0x90, 0xF4) // JMP +2; NOP; NOP; HLT
	c.Step(bus)                                       // JMP: IP should land on the HLT
	if c.IP != 4 {
		t.Errorf("IP after JMP short +2 = %d, want 4", c.IP)
	}
}

func TestStepCallRetRoundTrip(t *testing.T) {
	c, bus := newTestBus()
	c.SP = 0x1000
	load(bus.Mem, 0, 0,
		0xE8, 0x02, 0x00, // CALL +2 (to offset 5)
		0x90, 0x90, // padding NOPs (offsets 3,4)
		0xC3) // RET at offset 5
	c.Step(bus) // CALL: pushes return addr 3, jumps to 5
	if c.IP != 5 {
		t.Fatalf("IP after CALL = %d, want 5", c.IP)
	}
	c.Step(bus) // RET
	if c.IP != 3 {
		t.Errorf("IP after RET = %d, want 3 (return address)", c.IP)
	}
}

func TestInterruptVectorDispatch(t *testing.T) {
	c, bus := newTestBus()
	// IVT entry for INT 0x21: IP=0x9000, CS=0x0800.
	bus.Mem.Write16(0x21*4, 0x9000)
	bus.Mem.Write16(0x21*4+2, 0x0800)
	c.SP = 0x2000
	load(bus.Mem, 0, 0, 0xCD, 0x21) // INT 0x21
	c.Step(bus)
	if c.CS != 0x0800 || c.IP != 0x9000 {
		t.Errorf("CS:IP after INT 0x21 = %04X:%04X, want 0800:9000", c.CS, c.IP)
	}
	if c.IF() {
		t.Error("IF should be cleared on interrupt entry")
	}
}

func TestInt10InterceptBypassesIVT(t *testing.T) {
	c, bus := newTestBus()
	called := false
	bus.Int10 = func(cpu *CPU, mem *MemoryBus) { called = true }
	load(bus.Mem, 0, 0, 0xCD, 0x10) // INT 0x10
	c.Step(bus)
	if !called {
		t.Error("INT 0x10 did not route through the Int10 intercept")
	}
}

func TestDivideByZeroRaisesInt0(t *testing.T) {
	c, bus := newTestBus()
	bus.Mem.Write16(0, 0x9000) // IVT[0] -> handler
	bus.Mem.Write16(2, 0x0800)
	c.SP = 0x2000
	c.AX = 0x0000
	c.CS = 0x1000 // keep the code clear of the IVT entry at 0000:0000
	load(bus.Mem, 0x1000, 0, 0xF6, 0xF0) // DIV AL (reg-direct: AL = AL/0, AL currently 0)
	c.Step(bus)
	if c.CS != 0x0800 || c.IP != 0x9000 {
		t.Errorf("divide-by-zero did not dispatch INT 0: CS:IP = %04X:%04X", c.CS, c.IP)
	}
}

func TestHaltWaitsForInterrupt(t *testing.T) {
	c, bus := newTestBus()
	load(bus.Mem, 0, 0, 0xF4) // HLT
	c.Step(bus)
	if !c.Halted {
		t.Fatal("HLT did not set Halted")
	}

	bus.Mem.Write16(0x08*4, 0x1000) // IVT[8] (IRQ0 default vector)
	bus.Mem.Write16(0x08*4+2, 0x0000)
	c.setFlag(flagIF, true)
	bus.PIC.Out(0x20, 0x13)
	bus.PIC.Out(0x21, 0x08)
	bus.PIC.Out(0x21, 0x0F)
	bus.PIC.DoIRQ(0)

	c.Step(bus)
	if c.Halted {
		t.Error("a pending IRQ should wake a halted CPU")
	}
}

func TestStringOpRepMovsb(t *testing.T) {
	c, bus := newTestBus()
	c.CX = 3
	c.SI, c.DI = 0x100, 0x200
	bus.Mem.Write8(linear(0, 0x100), 0xAA)
	bus.Mem.Write8(linear(0, 0x101), 0xBB)
	bus.Mem.Write8(linear(0, 0x102), 0xCC)
	load(bus.Mem, 0, 0, 0xF3, 0xA4) // REP MOVSB
	c.Step(bus)
	if c.CX != 0 {
		t.Errorf("CX after REP MOVSB x3 = %d, want 0", c.CX)
	}
	for i, want := range []byte{0xAA, 0xBB, 0xCC} {
		if got := bus.Mem.Read8(linear(0, 0x200+uint16(i))); got != want {
			t.Errorf("byte %d copied = %02X, want %02X", i, got, want)
		}
	}
}
