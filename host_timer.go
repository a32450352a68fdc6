// host_timer.go - Host wall-clock timer device for the Slate Engine

/*
(c) 2024 - 2026 Zayn Otley
https://github.com/IntuitionAmiga/SlateEngine

License: GPLv3 or later
*/

/*
host_timer.go - Slate Engine Host Timer

Exposes the host wall clock to the guest as two 64-bit little-endian
values, milliseconds and microseconds since the Unix epoch. The guest
reads them a byte at a time, so each value is latched: reading the top
byte samples the clock and freezes all eight bytes until the next top-byte
read. A guest that reads top byte first and walks down gets a coherent
64-bit value with no tearing.

The whole window is read-only; writes are ignored.
*/

package main

import (
	"sync"
	"time"
)

const (
	HOST_TIME_MILLI_OFFSET = HOST_TIME_VALUE_OFFSET     // bytes 0x01-0x08
	HOST_TIME_MICRO_OFFSET = HOST_TIME_VALUE_OFFSET + 8 // bytes 0x09-0x10
)

type HostTimer struct {
	mutex sync.Mutex
	now   func() time.Time

	latchedMilli uint64
	latchedMicro uint64
}

func NewHostTimer() *HostTimer {
	return &HostTimer{now: time.Now}
}

// HandleRead services byte reads in the timer I/O window.
func (ht *HostTimer) HandleRead(addr uint32) uint32 {
	off := addr - TIMER_IO_ADDRESS

	ht.mutex.Lock()
	defer ht.mutex.Unlock()

	switch {
	case off >= HOST_TIME_MILLI_OFFSET && off < HOST_TIME_MILLI_OFFSET+8:
		byteIdx := off - HOST_TIME_MILLI_OFFSET
		if byteIdx == 7 {
			ht.latchedMilli = uint64(ht.now().UnixMilli())
		}
		return uint32((ht.latchedMilli >> (8 * byteIdx)) & 0xFF)
	case off >= HOST_TIME_MICRO_OFFSET && off < HOST_TIME_MICRO_OFFSET+8:
		byteIdx := off - HOST_TIME_MICRO_OFFSET
		if byteIdx == 7 {
			ht.latchedMicro = uint64(ht.now().UnixMicro())
		}
		return uint32((ht.latchedMicro >> (8 * byteIdx)) & 0xFF)
	}
	return 0
}

// HandleWrite services writes in the timer I/O window. Read-only device.
func (ht *HostTimer) HandleWrite(addr uint32, value uint32) {
}

// Reset clears the latches.
func (ht *HostTimer) Reset() {
	ht.mutex.Lock()
	defer ht.mutex.Unlock()
	ht.latchedMilli = 0
	ht.latchedMicro = 0
}
