// gpu_chip.go - NEMA GPU device front-end for the Slate Engine

/*
(c) 2024 - 2026 Zayn Otley
https://github.com/IntuitionAmiga/SlateEngine

License: GPLv3 or later
*/

/*
gpu_chip.go - NEMA GPU Device Front-End

The register-level face of the GPU. The guest driver talks to two byte
registers in the GPU I/O window:

    NEMA_REG_OP  - writing NEMA_REG_OP_SUBMIT_COMMAND_LIST executes the
                   command list window synchronously; the completion
                   interrupt is raised when the last command has retired.
    NEMA_REG_SIG - writing NEMA_REG_OP_SIGNAL_RECEIVED acknowledges the
                   completion interrupt and lowers the line.

Execution is strictly in order and runs to completion on the submitting
goroutine; the interrupt is the only completion signal the guest gets.

Faults: a malformed command (bad opcode, bad binding, failed validation)
halts the current list at the offending command. The completion interrupt
is NOT raised, the fault is latched and readable via Fault(), and further
submissions are refused until Reset. A faulted device stays quiet rather
than lying about completion.
*/

package main

import (
	"fmt"
	"sync"
)

// InterruptLine is a level-triggered interrupt output. Raise asserts the
// line, Lower deasserts it; both are idempotent.
type InterruptLine interface {
	Raise()
	Lower()
}

type GPUChip struct {
	mem AddressSpace
	irq InterruptLine

	mutex sync.Mutex
	clip  clipState
	ctx   pipelineContext
	fault error
}

func NewGPUChip(mem AddressSpace, irq InterruptLine) *GPUChip {
	return &GPUChip{mem: mem, irq: irq}
}

// HandleRead services reads in the GPU I/O window. Both registers are
// write-only; all reads return zero.
func (gpu *GPUChip) HandleRead(addr uint32) uint32 {
	return 0
}

// HandleWrite services writes in the GPU I/O window.
func (gpu *GPUChip) HandleWrite(addr uint32, value uint32) {
	switch addr - NEMA_IO_BASE {
	case NEMA_REG_OP:
		if value == NEMA_REG_OP_SUBMIT_COMMAND_LIST {
			gpu.submit()
		}
	case NEMA_REG_SIG:
		if value == NEMA_REG_OP_SIGNAL_RECEIVED {
			gpu.irq.Lower()
		}
	}
}

// Fault returns the latched fault, or nil while the device is healthy.
func (gpu *GPUChip) Fault() error {
	gpu.mutex.Lock()
	defer gpu.mutex.Unlock()
	return gpu.fault
}

// Reset clears the fault latch and all pipeline and clip state, and lowers
// the interrupt line.
func (gpu *GPUChip) Reset() {
	gpu.mutex.Lock()
	defer gpu.mutex.Unlock()
	gpu.ctx.release(gpu.mem)
	gpu.clip = clipState{}
	gpu.fault = nil
	gpu.irq.Lower()
}

// submit executes the whole command list window. Serialized; a second
// submitter blocks until the first list retires.
func (gpu *GPUChip) submit() {
	gpu.mutex.Lock()
	defer gpu.mutex.Unlock()

	if gpu.fault != nil {
		return
	}

	window := make([]byte, NEMA_CL_SIZE)
	if err := gpu.mem.ReadBytes(NEMA_CL_MEM_START, window); err != nil {
		gpu.fault = fmt.Errorf("command list window: %w", err)
		return
	}

	cl := ParseCommandList(window)
	for i, cmd := range cl.Commands {
		if err := gpu.execute(cmd); err != nil {
			gpu.fault = fmt.Errorf("command %d: %w", i, err)
			gpu.ctx.release(gpu.mem)
			return
		}
	}

	// A list that ends mid-setup abandons its context; bindings must not
	// leak into the next submission.
	gpu.ctx.release(gpu.mem)
	gpu.irq.Raise()
}

// execute dispatches one command. State commands mutate the context or
// clip; drawing commands validate, render and finalize.
func (gpu *GPUChip) execute(cmd Command) error {
	op, err := DecodeOp(cmd)
	if err != nil {
		return err
	}

	switch op := op.(type) {
	case BindTexOp:
		return gpu.ctx.bindTexture(gpu.mem, op)
	case SetClipOp:
		gpu.clip.update(op)
		return nil
	case SetBlendOp:
		gpu.ctx.setBlend(op)
		return nil
	case SetConstColorOp:
		gpu.ctx.setConstColor(op)
		return nil
	case FillRectOp:
		return gpu.finalize(gpu.executeFillRect(op))
	case BlitOp:
		return gpu.finalize(gpu.executeBlit(op))
	case DrawLineOp:
		return gpu.finalize(gpu.executeDrawLine(op))
	case DrawRectOp:
		return gpu.finalize(gpu.executeDrawRect(op))
	case FillRectRoundedOp:
		return gpu.finalize(gpu.executeFillRectRounded(op))
	case DrawRectRoundedOp:
		return gpu.finalize(gpu.executeDrawRectRounded(op))
	default:
		return fmt.Errorf("unhandled operation %s", op.opName())
	}
}

// finalize releases the context after a drawing command, successful or not.
func (gpu *GPUChip) finalize(err error) error {
	gpu.ctx.release(gpu.mem)
	return err
}
