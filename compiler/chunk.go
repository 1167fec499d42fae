// Package compiler turns token streams into bytecode chunks the vm package
// can execute. It owns the single-pass Pratt parser, the Chunk container,
// and the opcode table shared with the disassembler.
package compiler

import (
	"fmt"

	"github.com/nilan-lang/nilan/value"
)

// maxConstants bounds the constant pool at 256 entries: a chunk addresses
// constants by a single byte, so it can hold at most that many distinct
// values.
const maxConstants = 256

// Chunk is an append-only instruction buffer: a byte-coded instruction
// stream, a parallel line table (one entry per code byte, used to report
// runtime errors against source lines), and a constants pool.
type Chunk struct {
	Code      []byte
	Lines     []int
	Constants []value.Value
}

// NewChunk returns an empty Chunk ready to receive instructions.
func NewChunk() *Chunk {
	return &Chunk{}
}

// Write appends a single byte to the chunk, recording line as the source
// line that produced it.
func (c *Chunk) Write(b byte, line int) {
	c.Code = append(c.Code, b)
	c.Lines = append(c.Lines, line)
}

// AddConstant appends v to the constants pool and returns its index. It
// does not deduplicate: callers that want deduplicated constants (e.g.
// identifier names reused across a compile) are responsible for caching
// the index themselves.
func (c *Chunk) AddConstant(v value.Value) (byte, error) {
	if len(c.Constants) >= maxConstants {
		return 0, fmt.Errorf("too many constants in one chunk")
	}
	c.Constants = append(c.Constants, v)
	return byte(len(c.Constants) - 1), nil
}
