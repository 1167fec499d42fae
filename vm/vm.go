// Package vm implements the stack-based virtual machine that executes
// chunks produced by package compiler.
package vm

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"

	"github.com/nilan-lang/nilan/compiler"
	"github.com/nilan-lang/nilan/value"
)

const defaultStackCapacity = 256

// VM is a classic stack machine: the current chunk, an instruction pointer
// into it, the value stack, the globals table, and the interned-string
// table it owns for the lifetime of the process.
type VM struct {
	chunk *compiler.Chunk
	ip    int

	stack   Stack
	globals map[*value.ObjString]value.Value
	interns *value.InternTable

	stdout io.Writer
	logger *logrus.Logger
}

// Option configures a VM at construction time.
type Option func(*VM)

// WithStackCapacity overrides the evaluation stack's initial capacity
// (default 256).
func WithStackCapacity(capacity int) Option {
	return func(vm *VM) {
		vm.stack = newStack(capacity)
	}
}

// WithStdout redirects `print` output away from os.Stdout, mainly for
// tests.
func WithStdout(w io.Writer) Option {
	return func(vm *VM) {
		vm.stdout = w
	}
}

// WithLogger installs a logger for debug tracing. The zero value logs
// nothing interesting at Info level and above.
func WithLogger(logger *logrus.Logger) Option {
	return func(vm *VM) {
		vm.logger = logger
	}
}

// WithInternTable shares an existing InternTable with the VM, letting a
// caller compile against the same table the VM will later execute with.
// Without this option, New creates its own table.
func WithInternTable(table *value.InternTable) Option {
	return func(vm *VM) {
		vm.interns = table
	}
}

// New returns a VM ready to Interpret chunks. By default it writes `print`
// output to os.Stdout and owns a fresh InternTable.
func New(opts ...Option) *VM {
	vm := &VM{
		stack:   newStack(defaultStackCapacity),
		globals: make(map[*value.ObjString]value.Value),
		interns: value.NewInternTable(),
		stdout:  os.Stdout,
		logger:  logrus.New(),
	}
	for _, opt := range opts {
		opt(vm)
	}
	return vm
}

// Interner exposes the VM's string interner, letting a compile share
// canonical string identity with the VM that will run the result.
func (vm *VM) Interner() *value.InternTable {
	return vm.interns
}

// --- fetch/decode helpers ---

func (vm *VM) readByte() byte {
	b := vm.chunk.Code[vm.ip]
	vm.ip++
	return b
}

func (vm *VM) readShort() int {
	hi := vm.chunk.Code[vm.ip]
	lo := vm.chunk.Code[vm.ip+1]
	vm.ip += 2
	return int(binary.BigEndian.Uint16([]byte{hi, lo}))
}

func (vm *VM) readConstant() value.Value {
	return vm.chunk.Constants[vm.readByte()]
}

func (vm *VM) readString() *value.ObjString {
	return vm.readConstant().AsObj().(*value.ObjString)
}

func (vm *VM) currentLine() int {
	if vm.ip == 0 {
		return vm.chunk.Lines[0]
	}
	return vm.chunk.Lines[vm.ip-1]
}

func (vm *VM) runtimeError(format string, args ...any) error {
	err := &RuntimeError{Line: vm.currentLine(), Message: fmt.Sprintf(format, args...)}
	vm.stack.reset()
	return err
}

// Interpret compiles nothing; it runs an already-compiled chunk to
// completion (encountering Return) or to the first runtime error. On a
// runtime error the evaluation stack is reset before the error is
// returned.
func (vm *VM) Interpret(chunk *compiler.Chunk) error {
	vm.chunk = chunk
	vm.ip = 0
	return vm.run()
}

func (vm *VM) run() error {
	for {
		vm.logger.WithField("ip", vm.ip).Trace("vm step")
		instruction := compiler.Opcode(vm.readByte())

		switch instruction {
		case compiler.OpReturn:
			return nil

		case compiler.OpConstant:
			vm.stack.push(vm.readConstant())

		case compiler.OpNil:
			vm.stack.push(value.Nil)
		case compiler.OpTrue:
			vm.stack.push(value.Bool(true))
		case compiler.OpFalse:
			vm.stack.push(value.Bool(false))

		case compiler.OpPop:
			vm.stack.pop()

		case compiler.OpNegate:
			v := vm.stack.peek(0)
			if !v.IsNumber() {
				return vm.runtimeError("Operand must be a number.")
			}
			vm.stack.pop()
			vm.stack.push(value.Number(-v.AsNumber()))

		case compiler.OpNot:
			v := vm.stack.pop()
			vm.stack.push(value.Bool(v.IsFalsey()))

		case compiler.OpAdd:
			if err := vm.add(); err != nil {
				return err
			}
		case compiler.OpSubtract:
			if err := vm.numericBinary(func(a, b float64) float64 { return a - b }); err != nil {
				return err
			}
		case compiler.OpMultiply:
			if err := vm.numericBinary(func(a, b float64) float64 { return a * b }); err != nil {
				return err
			}
		case compiler.OpDivide:
			if err := vm.numericBinary(func(a, b float64) float64 { return a / b }); err != nil {
				return err
			}

		case compiler.OpEqual:
			b := vm.stack.pop()
			a := vm.stack.pop()
			vm.stack.push(value.Bool(value.Equal(a, b)))

		case compiler.OpGreater:
			if err := vm.comparisonBinary(func(a, b float64) bool { return a > b }); err != nil {
				return err
			}
		case compiler.OpLess:
			if err := vm.comparisonBinary(func(a, b float64) bool { return a < b }); err != nil {
				return err
			}

		case compiler.OpPrint:
			fmt.Fprintln(vm.stdout, vm.stack.pop().String())

		case compiler.OpDefineGlobal:
			name := vm.readString()
			vm.globals[name] = vm.stack.peek(0)
			vm.stack.pop()

		case compiler.OpGetGlobal:
			name := vm.readString()
			v, ok := vm.globals[name]
			if !ok {
				return vm.runtimeError("Undefined variable '%s'.", name.Chars)
			}
			vm.stack.push(v)

		case compiler.OpSetGlobal:
			name := vm.readString()
			if _, ok := vm.globals[name]; !ok {
				return vm.runtimeError("Undefined variable '%s'.", name.Chars)
			}
			vm.globals[name] = vm.stack.peek(0)

		case compiler.OpGetLocal:
			slot := vm.readByte()
			vm.stack.push(vm.stack[slot])

		case compiler.OpSetLocal:
			slot := vm.readByte()
			vm.stack[slot] = vm.stack.peek(0)

		case compiler.OpJump:
			offset := vm.readShort()
			vm.ip += offset

		case compiler.OpJumpIfFalse:
			offset := vm.readShort()
			if vm.stack.peek(0).IsFalsey() {
				vm.ip += offset
			}

		case compiler.OpLoop:
			offset := vm.readShort()
			vm.ip -= offset

		default:
			return vm.runtimeError("Unknown opcode %v.", instruction)
		}
	}
}

func (vm *VM) add() error {
	b := vm.stack.peek(0)
	a := vm.stack.peek(1)

	switch {
	case a.IsNumber() && b.IsNumber():
		vm.stack.pop()
		vm.stack.pop()
		vm.stack.push(value.Number(a.AsNumber() + b.AsNumber()))
	case a.IsString() && b.IsString():
		vm.stack.pop()
		vm.stack.pop()
		concatenated := vm.interns.Intern(a.AsString() + b.AsString())
		vm.stack.push(value.Obj(concatenated))
	default:
		return vm.runtimeError("Operands must be two numbers or two strings.")
	}
	return nil
}

func (vm *VM) numericBinary(op func(a, b float64) float64) error {
	b := vm.stack.peek(0)
	a := vm.stack.peek(1)
	if !a.IsNumber() || !b.IsNumber() {
		return vm.runtimeError("Operands must be numbers.")
	}
	vm.stack.pop()
	vm.stack.pop()
	vm.stack.push(value.Number(op(a.AsNumber(), b.AsNumber())))
	return nil
}

func (vm *VM) comparisonBinary(op func(a, b float64) bool) error {
	b := vm.stack.peek(0)
	a := vm.stack.peek(1)
	if !a.IsNumber() || !b.IsNumber() {
		return vm.runtimeError("Operands must be numbers.")
	}
	vm.stack.pop()
	vm.stack.pop()
	vm.stack.push(value.Bool(op(a.AsNumber(), b.AsNumber())))
	return nil
}
