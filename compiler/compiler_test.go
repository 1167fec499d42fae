package compiler

import (
	"strings"
	"testing"

	"github.com/hashicorp/go-multierror"

	"github.com/nilan-lang/nilan/value"
)

func assertBytecodeEquals(t *testing.T, got []byte, want []byte) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("got %d bytes %v, want %d bytes %v", len(got), got, len(want), want)
	}
	for i := range got {
		if got[i] != want[i] {
			t.Fatalf("byte %d: got %d, want %d (full: got %v want %v)", i, got[i], want[i], got, want)
		}
	}
}

func mustCompile(t *testing.T, source string) *Chunk {
	t.Helper()
	chunk, err := Compile(source, value.NewInternTable(), nil)
	if err != nil {
		t.Fatalf("unexpected compile error for %q: %v", source, err)
	}
	return chunk
}

func TestCompileArithmeticPrecedence(t *testing.T) {
	chunk := mustCompile(t, "1 + 2 * 3;")
	want := []byte{
		byte(OpConstant), 0,
		byte(OpConstant), 1,
		byte(OpConstant), 2,
		byte(OpMultiply),
		byte(OpAdd),
		byte(OpPop),
		byte(OpReturn),
	}
	assertBytecodeEquals(t, chunk.Code, want)
}

func TestCompileUnary(t *testing.T) {
	chunk := mustCompile(t, "-5;")
	want := []byte{
		byte(OpConstant), 0,
		byte(OpNegate),
		byte(OpPop),
		byte(OpReturn),
	}
	assertBytecodeEquals(t, chunk.Code, want)
}

func TestCompileNotEqualEmitsEqualThenNot(t *testing.T) {
	chunk := mustCompile(t, "1 != 2;")
	want := []byte{
		byte(OpConstant), 0,
		byte(OpConstant), 1,
		byte(OpEqual),
		byte(OpNot),
		byte(OpPop),
		byte(OpReturn),
	}
	assertBytecodeEquals(t, chunk.Code, want)
}

func TestCompileLessEqualEmitsGreaterThenNot(t *testing.T) {
	chunk := mustCompile(t, "1 <= 2;")
	want := []byte{
		byte(OpConstant), 0,
		byte(OpConstant), 1,
		byte(OpGreater),
		byte(OpNot),
		byte(OpPop),
		byte(OpReturn),
	}
	assertBytecodeEquals(t, chunk.Code, want)
}

func TestCompileGreaterEqualEmitsLessThenNot(t *testing.T) {
	chunk := mustCompile(t, "1 >= 2;")
	want := []byte{
		byte(OpConstant), 0,
		byte(OpConstant), 1,
		byte(OpLess),
		byte(OpNot),
		byte(OpPop),
		byte(OpReturn),
	}
	assertBytecodeEquals(t, chunk.Code, want)
}

func TestCompileGrouping(t *testing.T) {
	chunk := mustCompile(t, "(1 + 2) * 3;")
	want := []byte{
		byte(OpConstant), 0,
		byte(OpConstant), 1,
		byte(OpAdd),
		byte(OpConstant), 2,
		byte(OpMultiply),
		byte(OpPop),
		byte(OpReturn),
	}
	assertBytecodeEquals(t, chunk.Code, want)
}

func TestCompileLiterals(t *testing.T) {
	chunk := mustCompile(t, "true; false; nil;")
	want := []byte{
		byte(OpTrue), byte(OpPop),
		byte(OpFalse), byte(OpPop),
		byte(OpNil), byte(OpPop),
		byte(OpReturn),
	}
	assertBytecodeEquals(t, chunk.Code, want)
}

func TestCompilePrintStatement(t *testing.T) {
	chunk := mustCompile(t, `print "hi";`)
	want := []byte{
		byte(OpConstant), 0,
		byte(OpPrint),
		byte(OpReturn),
	}
	assertBytecodeEquals(t, chunk.Code, want)
	if !chunk.Constants[0].IsString() || chunk.Constants[0].AsString() != "hi" {
		t.Errorf("expected interned string constant \"hi\", got %v", chunk.Constants[0])
	}
}

func TestCompileGlobalVariableDeclarationAndUse(t *testing.T) {
	chunk := mustCompile(t, "var x = 10; print x;")
	want := []byte{
		byte(OpConstant), 1, // 10
		byte(OpDefineGlobal), 0, // "x"
		byte(OpGetGlobal), 2, // "x" (a fresh constant index; no constant dedup)
		byte(OpPrint),
		byte(OpReturn),
	}
	assertBytecodeEquals(t, chunk.Code, want)
}

func TestCompileGlobalAssignmentLeavesValueOnStack(t *testing.T) {
	chunk := mustCompile(t, "var x; x = 5;")
	want := []byte{
		byte(OpNil),
		byte(OpDefineGlobal), 0,
		byte(OpConstant), 2,
		byte(OpSetGlobal), 1,
		byte(OpPop),
		byte(OpReturn),
	}
	assertBytecodeEquals(t, chunk.Code, want)
}

func TestCompileLocalVariableUsesSlotNotConstant(t *testing.T) {
	chunk := mustCompile(t, "{ var x = 1; print x; }")
	want := []byte{
		byte(OpConstant), 0, // 1, no DefineGlobal: marked initialized instead
		byte(OpGetLocal), 0,
		byte(OpPrint),
		byte(OpPop), // end of scope pops the local
		byte(OpReturn),
	}
	assertBytecodeEquals(t, chunk.Code, want)
}

func TestCompileIfElse(t *testing.T) {
	chunk := mustCompile(t, `if (true) { print 1; } else { print 2; }`)
	// OpTrue
	// OpJumpIfFalse -> else branch
	// OpPop
	// then-branch: OpConstant 0, OpPrint
	// OpJump -> end
	// OpPop
	// else-branch: OpConstant 1, OpPrint
	// OpReturn
	if chunk.Code[0] != byte(OpTrue) {
		t.Fatalf("expected OpTrue first, got %v", chunk.Code[0])
	}
	if Opcode(chunk.Code[1]) != OpJumpIfFalse {
		t.Fatalf("expected OpJumpIfFalse, got %v", Opcode(chunk.Code[1]))
	}
	if chunk.Code[len(chunk.Code)-1] != byte(OpReturn) {
		t.Fatalf("expected chunk to end in OpReturn")
	}
}

func TestCompileWhileLoopEmitsLoop(t *testing.T) {
	chunk := mustCompile(t, "while (true) { print 1; }")
	foundLoop := false
	for _, b := range chunk.Code {
		if Opcode(b) == OpLoop {
			foundLoop = true
		}
	}
	if !foundLoop {
		t.Errorf("expected a Loop opcode in %v", chunk.Code)
	}
}

func TestCompileAndShortCircuits(t *testing.T) {
	chunk := mustCompile(t, "true and false;")
	foundJumpIfFalse := false
	for _, b := range chunk.Code {
		if Opcode(b) == OpJumpIfFalse {
			foundJumpIfFalse = true
		}
	}
	if !foundJumpIfFalse {
		t.Errorf("expected OpJumpIfFalse for short-circuit and, got %v", chunk.Code)
	}
}

func TestCompileErrorUnterminatedStringReportsLine(t *testing.T) {
	_, err := Compile("print \"oops;", value.NewInternTable(), nil)
	if err == nil {
		t.Fatal("expected a compile error")
	}
	if !strings.Contains(err.Error(), "[line 1]") {
		t.Errorf("expected the error to report line 1, got %q", err.Error())
	}
}

func TestCompileErrorReadingLocalInOwnInitializer(t *testing.T) {
	_, err := Compile("{ var a = a; }", value.NewInternTable(), nil)
	if err == nil {
		t.Fatal("expected a compile error")
	}
}

func TestCompileErrorDuplicateLocalInSameScope(t *testing.T) {
	_, err := Compile("{ var a = 1; var a = 2; }", value.NewInternTable(), nil)
	if err == nil {
		t.Fatal("expected a compile error")
	}
}

func TestCompileErrorTypesDistinguishSyntaxFromSemantic(t *testing.T) {
	_, err := Compile("print \"oops;", value.NewInternTable(), nil)
	merr, ok := err.(*multierror.Error)
	if !ok || len(merr.Errors) == 0 {
		t.Fatalf("expected a non-empty *multierror.Error, got %v (%T)", err, err)
	}
	if _, ok := merr.Errors[0].(*SyntaxError); !ok {
		t.Errorf("expected an unterminated string to report *SyntaxError, got %T", merr.Errors[0])
	}

	_, err = Compile("{ var a = 1; var a = 2; }", value.NewInternTable(), nil)
	merr, ok = err.(*multierror.Error)
	if !ok || len(merr.Errors) == 0 {
		t.Fatalf("expected a non-empty *multierror.Error, got %v (%T)", err, err)
	}
	if _, ok := merr.Errors[0].(*SemanticError); !ok {
		t.Errorf("expected a duplicate local to report *SemanticError, got %T", merr.Errors[0])
	}

	_, err = Compile("1 + 2 = 3;", value.NewInternTable(), nil)
	merr, ok = err.(*multierror.Error)
	if !ok || len(merr.Errors) == 0 {
		t.Fatalf("expected a non-empty *multierror.Error, got %v (%T)", err, err)
	}
	if _, ok := merr.Errors[0].(*SemanticError); !ok {
		t.Errorf("expected an invalid assignment target to report *SemanticError, got %T", merr.Errors[0])
	}
}

func TestCompileDuplicateGlobalIsAllowed(t *testing.T) {
	_, err := Compile("var a = 1; var a = 2;", value.NewInternTable(), nil)
	if err != nil {
		t.Fatalf("expected redefinition of a global to succeed, got %v", err)
	}
}

func TestCompileInvalidAssignmentTarget(t *testing.T) {
	_, err := Compile("1 + 2 = 3;", value.NewInternTable(), nil)
	if err == nil {
		t.Fatal("expected a compile error for an invalid assignment target")
	}
}

func TestChunkConstantsOverflow(t *testing.T) {
	chunk := NewChunk()
	for i := 0; i < 256; i++ {
		if _, err := chunk.AddConstant(value.Number(float64(i))); err != nil {
			t.Fatalf("unexpected error adding constant %d: %v", i, err)
		}
	}
	if _, err := chunk.AddConstant(value.Number(256)); err == nil {
		t.Error("expected an error adding a 257th constant")
	}
}
