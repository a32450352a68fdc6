// gpu_commands.go - NEMA GPU command list format and decoding for the Slate Engine

/*
(c) 2024 - 2026 Zayn Otley
https://github.com/IntuitionAmiga/SlateEngine

License: GPLv3 or later
*/

/*
gpu_commands.go - NEMA GPU Command List Format

The guest driver fills the command list window with fixed-layout command
records and a trailing count byte, then writes the submit value to the
operation register. Records share one field layout across all opcodes and
reuse the operand fields per opcode, exactly as the guest-side driver
structs do.

Record layout (little-endian, natural 4-byte alignment, 44 bytes):

    offset  0   op          uint8
    offset  4   addr_a      uint32
    offset  8   addr_b      uint32
    offset 12   u_int_8_a   uint8   (texture slot selector)
    offset 16   u_int_a     uint32
    offset 20   u_int_b     uint32
    offset 24   u_int_c     uint32
    offset 28   int_a       int32
    offset 32   int_b       int32
    offset 36   int_c       int32
    offset 40   int_d       int32

The count byte lives at offset NEMA_MAX_CMD_COUNT*NEMA_CMD_SIZE. The raw
record is decoded exactly once, at the window boundary, into a per-opcode
typed operation; the rest of the pipeline never sees reused fields.
*/

package main

import (
	"encoding/binary"
	"fmt"
)

const (
	NEMA_MAX_CMD_COUNT = 250
	NEMA_CMD_SIZE      = 44
	NEMA_CL_COUNT_OFF  = NEMA_MAX_CMD_COUNT * NEMA_CMD_SIZE
	NEMA_CL_SIZE       = NEMA_CL_COUNT_OFF + 1
)

// Opcodes, synced with the guest driver
const (
	NEMA_OP_BIND_TEX          = 1
	NEMA_OP_SET_CLIP          = 2
	NEMA_OP_SET_BLEND_BLIT    = 3
	NEMA_OP_SET_BLEND_FILL    = 4
	NEMA_OP_SET_CONST_COLOR   = 5
	NEMA_OP_DRAW_LINE         = 6
	NEMA_OP_BLIT              = 7
	NEMA_OP_FILL_RECT         = 8
	NEMA_OP_DRAW_RECT         = 9
	NEMA_OP_FILL_RECT_ROUNDED = 10
	NEMA_OP_DRAW_RECT_ROUNDED = 11
)

// Texture slot selectors
const (
	NEMA_NOTEX = iota
	NEMA_TEX0  // destination
	NEMA_TEX1  // source
	NEMA_TEX2
	NEMA_TEX3 // mask
)

// Pixel formats
const (
	NEMA_RGBA8888 = 0
	NEMA_A8       = 1
)

// Blend mode bits
const (
	NEMA_BL_SIMPLE = 0x1
	NEMA_BL_MASK   = 0x2
	NEMA_BL_OPA    = 0x4
)

// Command is the raw wire record as written by the guest driver.
type Command struct {
	Op    uint8
	AddrA uint32
	AddrB uint32
	Slot  uint8
	UintA uint32
	UintB uint32
	UintC uint32
	IntA  int32
	IntB  int32
	IntC  int32
	IntD  int32
}

// CommandList is one submission's worth of commands, already bounds-checked
// against NEMA_MAX_CMD_COUNT.
type CommandList struct {
	Commands []Command
}

// DecodeCommand reads one wire record. buf must hold NEMA_CMD_SIZE bytes.
func DecodeCommand(buf []byte) Command {
	return Command{
		Op:    buf[0],
		AddrA: binary.LittleEndian.Uint32(buf[4:8]),
		AddrB: binary.LittleEndian.Uint32(buf[8:12]),
		Slot:  buf[12],
		UintA: binary.LittleEndian.Uint32(buf[16:20]),
		UintB: binary.LittleEndian.Uint32(buf[20:24]),
		UintC: binary.LittleEndian.Uint32(buf[24:28]),
		IntA:  int32(binary.LittleEndian.Uint32(buf[28:32])),
		IntB:  int32(binary.LittleEndian.Uint32(buf[32:36])),
		IntC:  int32(binary.LittleEndian.Uint32(buf[36:40])),
		IntD:  int32(binary.LittleEndian.Uint32(buf[40:44])),
	}
}

// EncodeCommand writes one wire record. buf must hold NEMA_CMD_SIZE bytes.
// The device only decodes; encoding exists for the demo path and tests.
func EncodeCommand(buf []byte, cmd Command) {
	buf[0] = cmd.Op
	binary.LittleEndian.PutUint32(buf[4:8], cmd.AddrA)
	binary.LittleEndian.PutUint32(buf[8:12], cmd.AddrB)
	buf[12] = cmd.Slot
	binary.LittleEndian.PutUint32(buf[16:20], cmd.UintA)
	binary.LittleEndian.PutUint32(buf[20:24], cmd.UintB)
	binary.LittleEndian.PutUint32(buf[24:28], cmd.UintC)
	binary.LittleEndian.PutUint32(buf[28:32], uint32(cmd.IntA))
	binary.LittleEndian.PutUint32(buf[32:36], uint32(cmd.IntB))
	binary.LittleEndian.PutUint32(buf[36:40], uint32(cmd.IntC))
	binary.LittleEndian.PutUint32(buf[40:44], uint32(cmd.IntD))
}

// ParseCommandList decodes a whole command list window. window must hold at
// least NEMA_CL_SIZE bytes. Counts beyond NEMA_MAX_CMD_COUNT are clamped;
// the trailing record slots are driver scratch space, never executed.
func ParseCommandList(window []byte) CommandList {
	count := int(window[NEMA_CL_COUNT_OFF])
	if count > NEMA_MAX_CMD_COUNT {
		count = NEMA_MAX_CMD_COUNT
	}
	cl := CommandList{Commands: make([]Command, count)}
	for i := 0; i < count; i++ {
		cl.Commands[i] = DecodeCommand(window[i*NEMA_CMD_SIZE:])
	}
	return cl
}

// =============================================================================
// Typed operations
// =============================================================================

// A gpuOp is one decoded command, carrying only the fields its opcode uses.
type gpuOp interface {
	opName() string
}

type BindTexOp struct {
	Slot   uint8
	Addr   uint32
	Width  uint32
	Height uint32
	Stride int32
	Format uint32
}

type SetClipOp struct {
	X, Y int32
	W, H uint32
}

type SetBlendOp struct {
	Mode  uint8
	Shape blendShape
}

type SetConstColorOp struct {
	Color uint32
}

type DrawLineOp struct {
	X0, Y0, X1, Y1 int32
	Width          uint32
	Color          uint32
}

type BlitOp struct{}

type FillRectOp struct {
	X, Y  int32
	W, H  uint32
	Color uint32
}

type DrawRectOp struct {
	X, Y  int32
	W, H  uint32
	Color uint32
}

type FillRectRoundedOp struct {
	X, Y   int32
	W, H   uint32
	Color  uint32
	Radius int32
}

type DrawRectRoundedOp struct {
	X, Y   int32
	W, H   uint32
	Color  uint32
	Radius int32
}

func (BindTexOp) opName() string         { return "bind_tex" }
func (SetClipOp) opName() string         { return "set_clip" }
func (SetBlendOp) opName() string        { return "set_blend" }
func (SetConstColorOp) opName() string   { return "set_const_color" }
func (DrawLineOp) opName() string        { return "draw_line" }
func (BlitOp) opName() string            { return "blit" }
func (FillRectOp) opName() string        { return "fill_rect" }
func (DrawRectOp) opName() string        { return "draw_rect" }
func (FillRectRoundedOp) opName() string { return "fill_rect_rounded" }
func (DrawRectRoundedOp) opName() string { return "draw_rect_rounded" }

// DecodeOp maps a raw record onto its typed operation. Unknown opcodes are
// a guest contract violation and surface as an error the chip turns into a
// device fault.
func DecodeOp(cmd Command) (gpuOp, error) {
	switch cmd.Op {
	case NEMA_OP_BIND_TEX:
		return BindTexOp{
			Slot:   cmd.Slot,
			Addr:   cmd.AddrA,
			Width:  cmd.UintA,
			Height: cmd.UintB,
			Stride: cmd.IntA,
			Format: cmd.UintC,
		}, nil
	case NEMA_OP_SET_CLIP:
		return SetClipOp{X: cmd.IntA, Y: cmd.IntB, W: cmd.UintA, H: cmd.UintB}, nil
	case NEMA_OP_SET_BLEND_BLIT:
		return SetBlendOp{Mode: uint8(cmd.UintA), Shape: blendShapeBlit}, nil
	case NEMA_OP_SET_BLEND_FILL:
		return SetBlendOp{Mode: uint8(cmd.UintA), Shape: blendShapeFill}, nil
	case NEMA_OP_SET_CONST_COLOR:
		return SetConstColorOp{Color: cmd.UintA}, nil
	case NEMA_OP_DRAW_LINE:
		return DrawLineOp{
			X0: cmd.IntA, Y0: cmd.IntB,
			X1: cmd.IntC, Y1: cmd.IntD,
			Width: cmd.UintA,
			Color: cmd.UintB,
		}, nil
	case NEMA_OP_BLIT:
		return BlitOp{}, nil
	case NEMA_OP_FILL_RECT:
		return FillRectOp{X: cmd.IntA, Y: cmd.IntB, W: cmd.UintA, H: cmd.UintB, Color: cmd.UintC}, nil
	case NEMA_OP_DRAW_RECT:
		return DrawRectOp{X: cmd.IntA, Y: cmd.IntB, W: cmd.UintA, H: cmd.UintB, Color: cmd.UintC}, nil
	case NEMA_OP_FILL_RECT_ROUNDED:
		return FillRectRoundedOp{
			X: cmd.IntA, Y: cmd.IntB,
			W: cmd.UintA, H: cmd.UintB,
			Color:  cmd.UintC,
			Radius: cmd.IntC,
		}, nil
	case NEMA_OP_DRAW_RECT_ROUNDED:
		return DrawRectRoundedOp{
			X: cmd.IntA, Y: cmd.IntB,
			W: cmd.UintA, H: cmd.UintB,
			Color:  cmd.UintC,
			Radius: cmd.IntC,
		}, nil
	default:
		return nil, fmt.Errorf("unsupported command: %d", cmd.Op)
	}
}
