// console.go - minimal line-oriented debug console for fake86-go
//
// (c) 2024-2026 Zayn Otley - GPLv3 or later
//
// Grounded on the teacher's debug_monitor.go/debug_commands.go family
// (breakpoints, register dump, single-step) and terminal_host.go (raw
// stdin via golang.org/x/term). Scripted breakpoint conditions use
// github.com/yuin/gopher-lua instead of the teacher's hand-rolled
// ParseCondition operator parser: a condition is a one-line Lua
// expression evaluated with the CPU's registers bound as globals.
//
// This is the "-console" collaborator named in spec.md §6. It is an
// ambient developer aid over the guest machine, not part of the guest
// contract, and carries no invariants of its own.
package main

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	lua "github.com/yuin/gopher-lua"
	"golang.org/x/term"
)

// Breakpoint is a single instruction-address trap, optionally gated by
// a Lua condition expression.
type Breakpoint struct {
	Addr      uint32
	Condition string
	HitCount  uint64
}

// Console is the interactive debug monitor attached to a Machine.
type Console struct {
	m        *Machine
	in       *bufio.Reader
	out      *os.File
	L        *lua.LState
	breaks   []Breakpoint
	fd       int
	oldState *term.State
	raw      bool
}

// NewConsole builds a console over m, reading commands from stdin.
func NewConsole(m *Machine) *Console {
	return &Console{
		m:   m,
		in:  bufio.NewReader(os.Stdin),
		out: os.Stdout,
		L:   lua.NewState(),
	}
}

// EnterRawMode puts stdin into raw mode, matching terminal_host.go's
// Start(), so the console can read single keystrokes without line
// buffering when the guest also owns the terminal.
func (c *Console) EnterRawMode() error {
	c.fd = int(os.Stdin.Fd())
	st, err := term.MakeRaw(c.fd)
	if err != nil {
		return fmt.Errorf("console: failed to set raw mode: %w", err)
	}
	c.oldState = st
	c.raw = true
	return nil
}

// Restore undoes EnterRawMode.
func (c *Console) Restore() {
	if c.raw && c.oldState != nil {
		_ = term.Restore(c.fd, c.oldState)
		c.raw = false
	}
	c.L.Close()
}

// AddBreakpoint registers a trap at addr, optionally gated by a Lua
// boolean expression over register globals (ax, bx, cx, dx, cs, ip, ...).
func (c *Console) AddBreakpoint(addr uint32, condition string) {
	c.breaks = append(c.breaks, Breakpoint{Addr: addr, Condition: condition})
}

// ShouldBreak reports whether execution at the CPU's current CS:IP
// matches an armed breakpoint whose condition (if any) evaluates true.
func (c *Console) ShouldBreak() (*Breakpoint, bool) {
	addr := uint32(c.m.CPU.CS)<<4 + uint32(c.m.CPU.IP)
	for i := range c.breaks {
		bp := &c.breaks[i]
		if bp.Addr != addr {
			continue
		}
		if bp.Condition == "" {
			bp.HitCount++
			return bp, true
		}
		if c.evalCondition(bp.Condition) {
			bp.HitCount++
			return bp, true
		}
	}
	return nil, false
}

// evalCondition runs expr as a Lua boolean expression with the CPU's
// registers bound as globals, returning false on any script error.
func (c *Console) evalCondition(expr string) bool {
	c.bindRegisters()
	if err := c.L.DoString("__cond_result = (" + expr + ")"); err != nil {
		return false
	}
	result := c.L.GetGlobal("__cond_result")
	return lua.LVAsBool(result)
}

func (c *Console) bindRegisters() {
	cpu := c.m.CPU
	set := func(name string, v uint16) { c.L.SetGlobal(name, lua.LNumber(v)) }
	set("ax", cpu.AX)
	set("bx", cpu.BX)
	set("cx", cpu.CX)
	set("dx", cpu.DX)
	set("si", cpu.SI)
	set("di", cpu.DI)
	set("bp", cpu.BP)
	set("sp", cpu.SP)
	set("cs", cpu.CS)
	set("ds", cpu.DS)
	set("es", cpu.ES)
	set("ss", cpu.SS)
	set("ip", cpu.IP)
	set("flags", cpu.Flags)
}

// RunOnce reads and executes a single command line, printing its
// result to c.out. Returns false when the user asked to quit.
func (c *Console) RunOnce() bool {
	fmt.Fprint(c.out, "(fake86) ")
	line, err := c.in.ReadString('\n')
	if err != nil {
		return false
	}
	return c.dispatch(strings.TrimSpace(line))
}

func (c *Console) dispatch(line string) bool {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return true
	}

	switch fields[0] {
	case "q", "quit":
		return false

	case "r", "regs":
		c.printRegisters()

	case "s", "step":
		n := 1
		if len(fields) > 1 {
			if v, err := strconv.Atoi(fields[1]); err == nil {
				n = v
			}
		}
		for i := 0; i < n; i++ {
			c.m.Step()
		}

	case "b", "break":
		if len(fields) < 2 {
			fmt.Fprintln(c.out, "usage: break <hex-addr> [lua-condition]")
			break
		}
		addr, err := strconv.ParseUint(strings.TrimPrefix(fields[1], "0x"), 16, 32)
		if err != nil {
			fmt.Fprintf(c.out, "bad address: %s\n", fields[1])
			break
		}
		cond := ""
		if len(fields) > 2 {
			cond = strings.Join(fields[2:], " ")
		}
		c.AddBreakpoint(uint32(addr), cond)

	case "c", "continue":
		return true

	default:
		fmt.Fprintf(c.out, "unknown command: %s\n", fields[0])
	}
	return true
}

func (c *Console) printRegisters() {
	cpu := c.m.CPU
	fmt.Fprintf(c.out, "AX=%04X BX=%04X CX=%04X DX=%04X SI=%04X DI=%04X BP=%04X SP=%04X\n",
		cpu.AX, cpu.BX, cpu.CX, cpu.DX, cpu.SI, cpu.DI, cpu.BP, cpu.SP)
	fmt.Fprintf(c.out, "CS=%04X DS=%04X ES=%04X SS=%04X IP=%04X FLAGS=%04X\n",
		cpu.CS, cpu.DS, cpu.ES, cpu.SS, cpu.IP, cpu.Flags)
}
