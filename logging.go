// logging.go - channel-prefixed file logger for fake86-go
//
// (c) 2024-2026 Zayn Otley - GPLv3 or later
//
// Grounded on original_source/src/fake86/log.c's log_init/log_printf: a
// single log file opened for write at startup, each line prefixed by a
// fixed-width channel tag. Re-expressed with Go's standard log.Logger
// rather than hand-rolled fprintf/va_list plumbing, per SPEC_FULL.md §6.
package main

import (
	"fmt"
	"io"
	"log"
	"os"
)

// Log channel identifiers, matching log.c's channel_name table order.
const (
	ChanGeneral = iota
	ChanDisk
	ChanFrontend
	ChanConsole
	ChanCPU
	ChanMem
	ChanVideo
)

var channelName = [...]string{
	"[     ]",
	"[DISK ]",
	"[FRONT]",
	"[CONS ]",
	"[CPU  ]",
	"[MEM  ]",
	"[VIDEO]",
}

// Logger is the emulator's log sink: one file, opened once, every
// message tagged with its originating channel.
type Logger struct {
	out     *log.Logger
	file    *os.File
	verbose bool
}

// NewLogger opens path for write and returns a ready Logger. verbose
// gates ChanCPU/ChanMem messages, which are high-volume per-instruction
// traces useful only when debugging.
func NewLogger(path string, verbose bool) (*Logger, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	l := &Logger{
		out:     log.New(f, "", log.LstdFlags),
		file:    f,
		verbose: verbose,
	}
	fmt.Fprintln(f, "fake86-go: an 8086 IBM-PC-class emulator core")
	fmt.Fprintln(f, "[A portable, open-source 8086 PC emulator, rewritten in Go]")
	return l, nil
}

// Printf logs one line on channel, formatted like fmt.Sprintf.
func (l *Logger) Printf(channel int, format string, args ...any) {
	if (channel == ChanCPU || channel == ChanMem) && !l.verbose {
		return
	}
	l.out.Printf("%s %s", channelName[channel], fmt.Sprintf(format, args...))
}

// Close releases the underlying file.
func (l *Logger) Close() error {
	return l.file.Close()
}

// discardLogger is used by tests that construct components without a
// real log file.
func discardLogger() *Logger {
	return &Logger{out: log.New(io.Discard, "", 0)}
}
