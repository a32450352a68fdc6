// component_reset.go - Machine-level hard reset (F10 support)

/*
(c) 2024 - 2026 Zayn Otley
https://github.com/IntuitionAmiga/SlateEngine

License: GPLv3 or later
*/

package main

import "fmt"

// HardReset returns the board to power-on state: SDRAM is cleared, every
// device drops its latches and interrupt lines, and flash contents are
// preserved. A faulted GPU comes back healthy; this is the only way to
// clear a device fault short of restarting the process.
func (m *Machine) HardReset() {
	fmt.Println("Hard reset")

	m.GPU.Reset()
	m.Display.Reset()
	m.Timer.Reset()
	m.Bus.Reset()
}
