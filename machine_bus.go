// machine_bus.go - Machine bus for the Slate Engine

/*
(c) 2024 - 2026 Zayn Otley
https://github.com/IntuitionAmiga/SlateEngine

License: GPLv3 or later
*/

/*
machine_bus.go - Machine Bus for the Slate Engine

This module implements the memory bus that forms the backbone of the Slate
Engine's memory subsystem. It provides a unified interface for 8/16/32-bit
memory operations, including both standard memory access and memory-mapped
I/O, plus the direct-mapping capability the GPU uses to draw straight into
guest-visible pixel buffers.

Core Features:

    64MB of SDRAM allocated as a contiguous block, decoded at SDRAM_BASE.
    16MB flash/asset ROM decoded at FLASH_BASE as a secondary, read-only
    address space.
    Support for memory-mapped I/O via an I/O region mapping table that uses
    page masking and fixed page sizes.
    Little-endian read/write operations.
    Zero-copy mapping of SDRAM ranges into host slices via the AddressSpace
    interface, so device-side pixel writes are visible to the guest without
    a copy-back step.
    Thread-safe access implemented with a read/write mutex to synchronise
    concurrent operations.

Technical Details:

    The MachineBus struct fulfils both the Bus32 and AddressSpace
    interfaces, encapsulating SDRAM, flash and a mapping of I/O regions.
    I/O regions are registered with a defined start and end address along
    with callback functions (onRead and onWrite) to intercept memory
    accesses. Page keys are calculated with a 256-byte page granule.
    Writes to I/O regions are also stored through to the backing SDRAM so
    mapped device windows (framebuffers, command lists) stay coherent.
    Map refuses ranges that fall outside SDRAM or overlap a registered I/O
    page; a device that needs register contents must use the bus, not a
    mapping.

This module is a critical component of the Slate Engine, interfacing
directly with the GPU, the RAM display and the host timer. Its design is
driven by the need for both high performance and accurate emulation of
hardware behaviour.
*/

package main

import (
	"encoding/binary"
	"fmt"
	"sync"
)

const (
	PAGE_SIZE = 0x100
	PAGE_MASK = 0xFFFFFF00
)

type Bus32 interface {
	/*
		Bus32 defines the interface for memory operations within the
		Slate Engine. It provides methods to read and write 8, 16 and
		32-bit values as well as to reset the memory state.

		Implementations must ensure thread safety and support
		memory-mapped I/O.
	*/

	Read8(addr uint32) uint8
	Write8(addr uint32, value uint8)
	Read16(addr uint32) uint16
	Write16(addr uint32, value uint16)
	Read32(addr uint32) uint32
	Write32(addr uint32, value uint32)
	Reset()
}

type AddressSpace interface {
	/*
		AddressSpace is the narrow capability surface devices use to
		reach guest-addressable memory without going through the
		register path.

		Map returns a host-visible view of a guest range. When writable
		is true the view aliases the backing store directly, so edits
		are immediately guest-visible; Unmap flushes/releases the view.
		ReadBytes copies out of any readable range (SDRAM or flash)
		without establishing a mapping.
	*/

	Map(addr uint32, length uint32, writable bool) ([]byte, error)
	Unmap(view []byte, writable bool)
	ReadBytes(addr uint32, buf []byte) error
}

type MachineBus struct {
	/*
		MachineBus implements the Bus32 and AddressSpace interfaces and
		serves as the primary memory bus for the Slate Engine.

		It maintains a contiguous block of SDRAM, a flash/asset ROM
		image and a mapping of memory-mapped I/O regions.

		Thread safety is enforced via a read/write mutex.
	*/

	sdram   []byte
	flash   []byte
	mutex   sync.RWMutex
	mapping map[uint32][]IORegion
}

type IORegion struct {
	/*
		IORegion represents a memory-mapped I/O region within the
		system. Each region is defined by its start and end addresses
		and includes callback functions to handle read and write
		operations.

		These callbacks are invoked when a memory access falls within
		the region's boundaries.
	*/
	start   uint32
	end     uint32
	onRead  func(addr uint32) uint32
	onWrite func(addr uint32, value uint32)
}

func NewMachineBus() *MachineBus {
	return &MachineBus{
		sdram:   make([]byte, SDRAM_SIZE),
		flash:   make([]byte, FLASH_SIZE),
		mapping: make(map[uint32][]IORegion),
	}
}

func (bus *MachineBus) MapIO(start, end uint32, onRead func(addr uint32) uint32, onWrite func(addr uint32, value uint32)) {
	/*
		MapIO registers a new memory-mapped I/O region with the machine
		bus. The region is specified by its start and end addresses and
		associated read/write callback functions.

		The function calculates the first and last page keys that the
		region spans using a page size of 0x100, and appends the I/O
		region to the mapping for each page within the range.
	*/

	region := IORegion{
		start:   start,
		end:     end,
		onRead:  onRead,
		onWrite: onWrite,
	}
	firstPage := start & PAGE_MASK
	lastPage := end & PAGE_MASK
	for page := firstPage; page <= lastPage; page += PAGE_SIZE {
		bus.mapping[page] = append(bus.mapping[page], region)
	}
}

// LoadFlash copies an asset/firmware image into the flash window.
// Images larger than FLASH_SIZE are rejected rather than truncated.
func (bus *MachineBus) LoadFlash(image []byte) error {
	if len(image) > FLASH_SIZE {
		return fmt.Errorf("flash image too large: %d bytes, flash is %d", len(image), FLASH_SIZE)
	}
	bus.mutex.Lock()
	defer bus.mutex.Unlock()
	copy(bus.flash, image)
	return nil
}

func (bus *MachineBus) findIORegion(addr uint32) *IORegion {
	if regions, exists := bus.mapping[addr&PAGE_MASK]; exists {
		for i := range regions {
			if addr >= regions[i].start && addr <= regions[i].end {
				return &regions[i]
			}
		}
	}
	return nil
}

func (bus *MachineBus) Write32(addr uint32, value uint32) {
	// I/O callbacks run outside the bus lock: devices such as the GPU
	// re-enter the bus (Map, ReadBytes) from their register handlers.
	bus.mutex.RLock()
	region := bus.findIORegion(addr)
	bus.mutex.RUnlock()

	if region != nil && region.onWrite != nil {
		region.onWrite(addr, value)
	}
	bus.mutex.Lock()
	defer bus.mutex.Unlock()
	// Store through to backing SDRAM so mapped windows stay coherent.
	if off, ok := bus.sdramOffset(addr, 4); ok {
		binary.LittleEndian.PutUint32(bus.sdram[off:off+4], value)
	}
	// Writes to flash and undecoded addresses are dropped.
}

func (bus *MachineBus) Read32(addr uint32) uint32 {
	bus.mutex.RLock()
	region := bus.findIORegion(addr)
	bus.mutex.RUnlock()

	if region != nil && region.onRead != nil {
		return region.onRead(addr)
	}

	bus.mutex.RLock()
	defer bus.mutex.RUnlock()
	if off, ok := bus.sdramOffset(addr, 4); ok {
		return binary.LittleEndian.Uint32(bus.sdram[off : off+4])
	}
	if off, ok := bus.flashOffset(addr, 4); ok {
		return binary.LittleEndian.Uint32(bus.flash[off : off+4])
	}
	return 0
}

func (bus *MachineBus) Write16(addr uint32, value uint16) {
	bus.mutex.RLock()
	region := bus.findIORegion(addr)
	bus.mutex.RUnlock()

	if region != nil && region.onWrite != nil {
		region.onWrite(addr, uint32(value))
	}
	bus.mutex.Lock()
	defer bus.mutex.Unlock()
	if off, ok := bus.sdramOffset(addr, 2); ok {
		binary.LittleEndian.PutUint16(bus.sdram[off:off+2], value)
	}
}

func (bus *MachineBus) Read16(addr uint32) uint16 {
	bus.mutex.RLock()
	region := bus.findIORegion(addr)
	bus.mutex.RUnlock()

	if region != nil && region.onRead != nil {
		return uint16(region.onRead(addr))
	}

	bus.mutex.RLock()
	defer bus.mutex.RUnlock()
	if off, ok := bus.sdramOffset(addr, 2); ok {
		return binary.LittleEndian.Uint16(bus.sdram[off : off+2])
	}
	if off, ok := bus.flashOffset(addr, 2); ok {
		return binary.LittleEndian.Uint16(bus.flash[off : off+2])
	}
	return 0
}

func (bus *MachineBus) Write8(addr uint32, value uint8) {
	bus.mutex.RLock()
	region := bus.findIORegion(addr)
	bus.mutex.RUnlock()

	if region != nil && region.onWrite != nil {
		region.onWrite(addr, uint32(value))
	}
	bus.mutex.Lock()
	defer bus.mutex.Unlock()
	if off, ok := bus.sdramOffset(addr, 1); ok {
		bus.sdram[off] = value
	}
}

func (bus *MachineBus) Read8(addr uint32) uint8 {
	bus.mutex.RLock()
	region := bus.findIORegion(addr)
	bus.mutex.RUnlock()

	if region != nil && region.onRead != nil {
		return uint8(region.onRead(addr))
	}

	bus.mutex.RLock()
	defer bus.mutex.RUnlock()
	if off, ok := bus.sdramOffset(addr, 1); ok {
		return bus.sdram[off]
	}
	if off, ok := bus.flashOffset(addr, 1); ok {
		return bus.flash[off]
	}
	return 0
}

func (bus *MachineBus) sdramOffset(addr uint32, size uint32) (uint32, bool) {
	if !IsSDRAMAddress(addr) || addr+size < addr || addr+size > SDRAM_BASE+SDRAM_SIZE {
		return 0, false
	}
	return addr - SDRAM_BASE, true
}

func (bus *MachineBus) flashOffset(addr uint32, size uint32) (uint32, bool) {
	if !IsFlashAddress(addr) || addr+size < addr || addr+size > FLASH_BASE+FLASH_SIZE {
		return 0, false
	}
	return addr - FLASH_BASE, true
}

func (bus *MachineBus) Map(addr uint32, length uint32, writable bool) ([]byte, error) {
	/*
		Map exposes a guest SDRAM range as a host slice. The view
		aliases the SDRAM backing store, so writes through a writable
		view are immediately visible to the guest.

		Ranges outside SDRAM, zero-length ranges and ranges that
		overlap a registered I/O page cannot be mapped; device
		registers are only reachable through the bus access path.
	*/

	if length == 0 {
		return nil, fmt.Errorf("map of zero-length range at 0x%08X", addr)
	}
	off, ok := bus.sdramOffset(addr, length)
	if !ok {
		return nil, fmt.Errorf("map of 0x%X bytes at 0x%08X: outside SDRAM", length, addr)
	}

	bus.mutex.RLock()
	defer bus.mutex.RUnlock()
	for page := addr & PAGE_MASK; page <= (addr+length-1)&PAGE_MASK; page += PAGE_SIZE {
		if _, exists := bus.mapping[page]; exists {
			return nil, fmt.Errorf("map of 0x%X bytes at 0x%08X: overlaps %s I/O page 0x%08X", length, addr, GetIORegion(page), page)
		}
	}
	return bus.sdram[off : off+length : off+length], nil
}

func (bus *MachineBus) Unmap(view []byte, writable bool) {
	// Writable views alias SDRAM directly, so there is nothing to flush.
	// Kept for interface symmetry with mapping hosts that need one.
	_ = view
	_ = writable
}

func (bus *MachineBus) ReadBytes(addr uint32, buf []byte) error {
	/*
		ReadBytes copies guest memory into buf without establishing a
		mapping. SDRAM and the flash window are both readable; flash is
		the secondary address space used for firmware/asset fetches.
	*/

	length := uint32(len(buf))
	if length == 0 {
		return nil
	}

	bus.mutex.RLock()
	defer bus.mutex.RUnlock()

	if off, ok := bus.sdramOffset(addr, length); ok {
		copy(buf, bus.sdram[off:off+length])
		return nil
	}
	if off, ok := bus.flashOffset(addr, length); ok {
		copy(buf, bus.flash[off:off+length])
		return nil
	}
	return fmt.Errorf("read of 0x%X bytes at 0x%08X: outside readable memory", length, addr)
}

func (bus *MachineBus) Reset() {
	/*
		Reset clears SDRAM. Flash survives reset, matching hardware.
	*/

	bus.mutex.Lock()
	defer bus.mutex.Unlock()

	for i := range bus.sdram {
		bus.sdram[i] = 0
	}
}
