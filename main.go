// main.go - CLI entry point for fake86-go
//
// (c) 2024-2026 Zayn Otley - GPLv3 or later
//
// Grounded on the teacher's main.go structure (flag-driven peripheral
// wiring, fail-fast on initialization errors) but using the standard
// `flag` package rather than a GUI-mode positional-argument switch,
// since spec.md §6 specifies named flags, not subcommands.
package main

import (
	"flag"
	"fmt"
	"os"
)

func main() {
	hd0 := flag.String("hd0", "", "fixed disk image path (drive 0x80)")
	fd0 := flag.String("fd0", "", "floppy disk image path (drive 0x00)")
	boot := flag.Int("boot", -1, "boot drive number (defaults to fd0 if present, else hd0)")
	biosPath := flag.String("bios", "", "system BIOS ROM image path (required)")
	speed := flag.Int("speed", 0, "target guest clock rate in Hz (0: unthrottled)")
	console := flag.Bool("console", false, "attach the interactive debug console")
	verbose := flag.Bool("verbose", false, "enable verbose CPU/memory log channels")
	flag.Parse()

	logger, err := NewLogger("fake86.log", *verbose)
	if err != nil {
		fmt.Fprintf(os.Stderr, "fake86: failed to open log file: %v\n", err)
		os.Exit(-1)
	}
	defer logger.Close()

	if *biosPath == "" {
		fmt.Fprintln(os.Stderr, "fake86: -bios is required")
		os.Exit(-1)
	}

	biosData, err := os.ReadFile(*biosPath)
	if err != nil {
		logger.Printf(ChanGeneral, "fatal: cannot read BIOS image %s: %v", *biosPath, err)
		fmt.Fprintf(os.Stderr, "fake86: cannot read BIOS image %s: %v\n", *biosPath, err)
		os.Exit(-1)
	}

	m := NewMachine(logger)
	m.LoadBIOS(biosData)

	bootDrive := byte(0xFF)
	if *fd0 != "" {
		if err := m.InsertDisk(0x00, *fd0); err != nil {
			logger.Printf(ChanDisk, "fatal: cannot insert fd0 %s: %v", *fd0, err)
			fmt.Fprintf(os.Stderr, "fake86: cannot insert fd0 %s: %v\n", *fd0, err)
			os.Exit(-1)
		}
		bootDrive = 0x00
	}
	if *hd0 != "" {
		if err := m.InsertDisk(0x80, *hd0); err != nil {
			logger.Printf(ChanDisk, "fatal: cannot insert hd0 %s: %v", *hd0, err)
			fmt.Fprintf(os.Stderr, "fake86: cannot insert hd0 %s: %v\n", *hd0, err)
			os.Exit(-1)
		}
		if bootDrive == 0xFF {
			bootDrive = 0x80
		}
	}
	if *boot >= 0 {
		bootDrive = byte(*boot)
	}
	m.Disks.BootDrive = bootDrive

	m.Boot()

	sched := NewScheduler(m)
	if *speed > 0 {
		sched.SetSpeed(*speed)
	}

	if *console {
		c := NewConsole(m)
		if err := c.EnterRawMode(); err != nil {
			logger.Printf(ChanConsole, "console: %v", err)
		}
		defer c.Restore()
		for c.RunOnce() {
			sched.Tick()
		}
		m.Stop()
		return
	}

	sched.Run()
}
