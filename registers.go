// registers.go - System memory map and device register reference for the Slate Engine

/*
(c) 2024 - 2026 Zayn Otley
https://github.com/IntuitionAmiga/SlateEngine

License: GPLv3 or later
*/

/*
registers.go - Slate Engine System Memory Map

Single reference file for every address the Slate board decodes. Devices
define no address constants of their own; everything an emulated driver can
touch is listed here.

SYSTEM MEMORY MAP
=================

0x10000000 - 0x10FFFFFF  Flash / asset ROM (16MB, secondary address space)
0x21000000 - 0x24FFFFFF  SDRAM (64MB)
  0x21800000             RAM display framebuffer (screensize^2 * 4 bytes)
  0x21900000 - 0x2190003F  RAM display I/O window
  0x22000000 - 0x221FFFFF  GPU framebuffer window (2MB)
  0x22200000 - 0x22200FFF  GPU register window
  0x22201000 - 0x22204FFF  GPU command list window
  0x22300000 - 0x223000FF  Host timer I/O window

GPU REGISTER WINDOW
===================

Offset 0x00 (NEMA_REG_OP):  write NEMA_REG_OP_SUBMIT_COMMAND_LIST to execute
                            the command list window. All reads return 0.
Offset 0x01 (NEMA_REG_SIG): write NEMA_REG_OP_SIGNAL_RECEIVED to lower the
                            completion interrupt.

All other offsets and values are no-ops.

RAM DISPLAY I/O WINDOW
======================

Offset 0x01: write RAM_DISPLAY_WRITE_SIGNAL to publish the framebuffer to the
             host display (raises the update-complete interrupt when done),
             write RAM_DISPLAY_READY_SIGNAL to lower that interrupt.

HOST TIMER I/O WINDOW
=====================

Offsets 0x01-0x08: host wall clock in milliseconds, little-endian bytes.
                   Reading the top byte (0x08) latches the 64-bit value.
Offsets 0x09-0x10: host wall clock in microseconds, same latching rule on
                   the top byte (0x10).

All timer registers are read-only.
*/

package main

// =============================================================================
// System Memory Regions
// =============================================================================

const (
	FLASH_BASE = 0x10000000
	FLASH_SIZE = 0x01000000 // 16MB asset/firmware ROM
	FLASH_END  = FLASH_BASE + FLASH_SIZE - 1

	SDRAM_BASE = 0x21000000
	SDRAM_SIZE = 0x04000000 // 64MB
	SDRAM_END  = SDRAM_BASE + SDRAM_SIZE - 1
)

// =============================================================================
// NEMA GPU
// =============================================================================

const (
	NEMA_MEM_START   = 0x22000000
	NEMA_FB_MEM_SIZE = 2 * 1024 * 1024
	NEMA_IO_MEM_SIZE = 0x1000
	NEMA_CL_MEM_SIZE = 0x4000

	NEMA_IO_BASE      = NEMA_MEM_START + NEMA_FB_MEM_SIZE
	NEMA_IO_END       = NEMA_IO_BASE + NEMA_IO_MEM_SIZE - 1
	NEMA_CL_MEM_START = NEMA_IO_BASE + NEMA_IO_MEM_SIZE
	NEMA_CL_MEM_END   = NEMA_CL_MEM_START + NEMA_CL_MEM_SIZE - 1

	NEMA_REG_OP  = 0x00
	NEMA_REG_SIG = 0x01

	NEMA_REG_OP_SUBMIT_COMMAND      = 1
	NEMA_REG_OP_SUBMIT_COMMAND_LIST = 2
	NEMA_REG_OP_SIGNAL_RECEIVED     = 3
)

// =============================================================================
// RAM Display
// =============================================================================

const (
	RAM_DISPLAY_DATA_ADDRESS = 0x21800000
	RAM_DISPLAY_IO_ADDRESS   = 0x21900000
	RAM_DISPLAY_IO_SIZE      = 0x40
	RAM_DISPLAY_IO_END       = RAM_DISPLAY_IO_ADDRESS + RAM_DISPLAY_IO_SIZE - 1

	RAM_DISPLAY_WRITE_OFFSET = 0x1
	RAM_DISPLAY_READY_SIGNAL = 0x0
	RAM_DISPLAY_WRITE_SIGNAL = 0x1
)

// =============================================================================
// Host Timer
// =============================================================================

const (
	TIMER_IO_ADDRESS = 0x22300000
	TIMER_IO_SIZE    = 0x100
	TIMER_IO_END     = TIMER_IO_ADDRESS + TIMER_IO_SIZE - 1

	HOST_TIME_OP_OFFSET    = 0
	HOST_TIME_VALUE_OFFSET = 1
)

// =============================================================================
// Helper Functions
// =============================================================================

// IsFlashAddress returns true if the address is in the flash/asset ROM window
func IsFlashAddress(addr uint32) bool {
	return addr >= FLASH_BASE && addr <= FLASH_END
}

// IsSDRAMAddress returns true if the address is in SDRAM
func IsSDRAMAddress(addr uint32) bool {
	return addr >= SDRAM_BASE && addr <= SDRAM_END
}

// GetIORegion returns the device name for an I/O address
func GetIORegion(addr uint32) string {
	switch {
	case addr >= NEMA_IO_BASE && addr <= NEMA_IO_END:
		return "GPU"
	case addr >= RAM_DISPLAY_IO_ADDRESS && addr <= RAM_DISPLAY_IO_END:
		return "RamDisplay"
	case addr >= TIMER_IO_ADDRESS && addr <= TIMER_IO_END:
		return "HostTimer"
	default:
		return "Unknown"
	}
}
