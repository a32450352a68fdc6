// main.go - Main entry point for the Slate Engine

/*
(c) 2024 - 2026 Zayn Otley
https://github.com/IntuitionAmiga/SlateEngine

License: GPLv3 or later
*/

package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"time"
)

func boilerPlate() {
	fmt.Println("\nSlate Engine - a NEMA GPU board emulator")
	fmt.Println("(c) 2024 - 2026 Zayn Otley")
	fmt.Println("https://github.com/IntuitionAmiga/SlateEngine")
	fmt.Println("Buy me a coffee: https://ko-fi.com/intuition/tip")
	fmt.Println("License: GPLv3 or later")
}

func main() {
	boilerPlate()

	var (
		screenSize int
		scale      int
		fullscreen bool
		firmware   string
		demoFrames int
	)

	flagSet := flag.NewFlagSet(os.Args[0], flag.ContinueOnError)
	flagSet.SetOutput(io.Discard)
	flagSet.IntVar(&screenSize, "screensize", 512, "Framebuffer edge length in pixels")
	flagSet.IntVar(&scale, "scale", 1, "Integer window scale factor")
	flagSet.BoolVar(&fullscreen, "fullscreen", false, "Start in fullscreen mode")
	flagSet.StringVar(&firmware, "fw", "", "Flash image to load at the flash base")
	flagSet.IntVar(&demoFrames, "demo-frames", 0, "Stop the demo after N frames (0 = run until the window closes)")

	flagSet.Usage = func() {
		flagSet.SetOutput(os.Stdout)
		fmt.Println("Usage: ./slate_engine [-screensize 512] [-scale 1] [-fullscreen] [-fw image.bin] [-demo-frames N]")
		flagSet.PrintDefaults()
	}

	if err := flagSet.Parse(os.Args[1:]); err != nil {
		if err == flag.ErrHelp {
			os.Exit(0)
		}
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}

	machine, err := NewMachine(MachineConfig{
		ScreenSize: screenSize,
		Scale:      scale,
		Fullscreen: fullscreen,
	})
	if err != nil {
		fmt.Printf("Failed to initialize machine: %v\n", err)
		os.Exit(1)
	}

	if firmware != "" {
		if err := machine.LoadFlash(firmware); err != nil {
			fmt.Printf("Error loading flash image: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Loaded flash image: %s\n", firmware)
	}

	if err := machine.Start(); err != nil {
		fmt.Printf("Failed to start video: %v\n", err)
		os.Exit(1)
	}

	runDemo(machine, demoFrames)
}

// runDemo drives the GPU the way guest firmware would: build a command
// list in the command list window, submit it, acknowledge the completion
// interrupt, then publish the framebuffer through the RAM display.
func runDemo(m *Machine, maxFrames int) {
	for tick := 0; m.Video.IsStarted(); tick++ {
		if maxFrames > 0 && tick >= maxFrames {
			_ = m.Stop()
			break
		}
		if err := buildDemoFrame(m, tick); err != nil {
			fmt.Printf("Demo frame failed: %v\n", err)
			return
		}

		m.Bus.Write8(NEMA_IO_BASE+NEMA_REG_OP, NEMA_REG_OP_SUBMIT_COMMAND_LIST)
		if fault := m.GPU.Fault(); fault != nil {
			fmt.Printf("GPU fault: %v\n", fault)
			return
		}
		if m.GPUIRQ.Asserted() {
			m.Bus.Write8(NEMA_IO_BASE+NEMA_REG_SIG, NEMA_REG_OP_SIGNAL_RECEIVED)
		}

		m.Bus.Write8(RAM_DISPLAY_IO_ADDRESS+RAM_DISPLAY_WRITE_OFFSET, RAM_DISPLAY_WRITE_SIGNAL)
		if m.DisplayIRQ.Asserted() {
			m.Bus.Write8(RAM_DISPLAY_IO_ADDRESS+RAM_DISPLAY_WRITE_OFFSET, RAM_DISPLAY_READY_SIGNAL)
		}

		if err := m.Video.WaitForVSync(); err != nil {
			return
		}
	}
	// Give the backend a beat to tear the window down.
	time.Sleep(50 * time.Millisecond)
}

// buildDemoFrame fills the command list window with one frame: clear the
// framebuffer, draw a drifting rounded rectangle and a sweeping line.
func buildDemoFrame(m *Machine, tick int) error {
	size := m.Display.Size()
	stride := int32(size * 4)

	bindDest := Command{
		Op:    NEMA_OP_BIND_TEX,
		Slot:  NEMA_TEX0,
		AddrA: RAM_DISPLAY_DATA_ADDRESS,
		UintA: uint32(size),
		UintB: uint32(size),
		UintC: NEMA_RGBA8888,
		IntA:  stride,
	}
	simpleFill := Command{Op: NEMA_OP_SET_BLEND_FILL, UintA: NEMA_BL_SIMPLE}

	boxSize := size / 4
	travel := size - boxSize
	pos := tick % (travel * 2)
	if pos > travel {
		pos = travel*2 - pos
	}

	cmds := []Command{
		{Op: NEMA_OP_SET_CLIP, IntA: 0, IntB: 0, UintA: uint32(size), UintB: uint32(size)},

		bindDest, simpleFill,
		{Op: NEMA_OP_FILL_RECT, IntA: 0, IntB: 0, UintA: uint32(size), UintB: uint32(size), UintC: 0xFF101018},

		bindDest, simpleFill,
		{Op: NEMA_OP_FILL_RECT_ROUNDED, IntA: int32(pos), IntB: int32(pos),
			UintA: uint32(boxSize), UintB: uint32(boxSize), UintC: 0xFF2090FF, IntC: int32(boxSize / 5)},

		bindDest, simpleFill,
		{Op: NEMA_OP_DRAW_LINE, IntA: 0, IntB: int32(size - pos), IntC: int32(size), IntD: int32(pos),
			UintA: 3, UintB: 0xFFFFFFFF},
	}

	window, err := m.Bus.Map(NEMA_CL_MEM_START, NEMA_CL_SIZE, true)
	if err != nil {
		return err
	}
	defer m.Bus.Unmap(window, true)

	for i, cmd := range cmds {
		EncodeCommand(window[i*NEMA_CMD_SIZE:], cmd)
	}
	window[NEMA_CL_COUNT_OFF] = uint8(len(cmds))
	return nil
}
