package main

import "testing"

func TestConsoleAddBreakpointUnconditionalHit(t *testing.T) {
	m := NewMachine(nil)
	c := NewConsole(m)
	defer c.Restore()

	addr := uint32(m.CPU.CS)<<4 + uint32(m.CPU.IP)
	c.AddBreakpoint(addr, "")

	bp, hit := c.ShouldBreak()
	if !hit {
		t.Fatal("unconditional breakpoint at current CS:IP did not hit")
	}
	if bp.HitCount != 1 {
		t.Errorf("HitCount after one hit = %d, want 1", bp.HitCount)
	}
}

func TestConsoleBreakpointConditionGatesOnRegisters(t *testing.T) {
	m := NewMachine(nil)
	c := NewConsole(m)
	defer c.Restore()

	addr := uint32(m.CPU.CS)<<4 + uint32(m.CPU.IP)
	c.AddBreakpoint(addr, "ax == 0x1234")

	if _, hit := c.ShouldBreak(); hit {
		t.Fatal("condition ax==0x1234 should not hit while AX is 0")
	}

	m.CPU.AX = 0x1234
	if _, hit := c.ShouldBreak(); !hit {
		t.Error("condition ax==0x1234 should hit once AX matches")
	}
}

func TestConsoleShouldBreakIgnoresOtherAddresses(t *testing.T) {
	m := NewMachine(nil)
	c := NewConsole(m)
	defer c.Restore()

	c.AddBreakpoint(0xDEADBE, "")
	if _, hit := c.ShouldBreak(); hit {
		t.Error("breakpoint at an unrelated address should not hit")
	}
}

func TestConsoleDispatchStepAdvancesCPU(t *testing.T) {
	m := NewMachine(nil)
	c := NewConsole(m)
	defer c.Restore()
	load(m.Mem, m.CPU.CS, m.CPU.IP, 0x90, 0x90) // two NOPs

	if !c.dispatch("s 2") {
		t.Fatal("step command should not request quit")
	}
	if m.CPU.IP != 2 {
		t.Errorf("IP after 'step 2' = %d, want 2", m.CPU.IP)
	}
}

func TestConsoleDispatchQuit(t *testing.T) {
	m := NewMachine(nil)
	c := NewConsole(m)
	defer c.Restore()
	if c.dispatch("quit") {
		t.Error("'quit' command should request loop termination")
	}
}

func TestConsoleDispatchBreakRegistersBreakpoint(t *testing.T) {
	m := NewMachine(nil)
	c := NewConsole(m)
	defer c.Restore()
	c.dispatch("break 0x7C00 cx == 1")
	if len(c.breaks) != 1 {
		t.Fatalf("len(breaks) = %d, want 1", len(c.breaks))
	}
	if c.breaks[0].Addr != 0x7C00 || c.breaks[0].Condition != "cx == 1" {
		t.Errorf("breakpoint = %+v, want Addr=7C00 Condition=\"cx == 1\"", c.breaks[0])
	}
}
