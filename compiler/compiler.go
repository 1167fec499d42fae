package compiler

import (
	"strconv"

	"github.com/hashicorp/go-multierror"
	"github.com/sirupsen/logrus"

	"github.com/nilan-lang/nilan/scanner"
	"github.com/nilan-lang/nilan/token"
	"github.com/nilan-lang/nilan/value"
)

// Interner is the narrow surface the compiler needs from the VM: the
// ability to canonicalize a string literal's contents. Modeled as an
// explicit parameter rather than ambient state, so the compiler depends
// on this interface instead of a concrete *value.InternTable or a global
// singleton.
type Interner interface {
	Intern(s string) *value.ObjString
}

// Precedence orders binding power from loosest to tightest.
type Precedence int

const (
	PrecNone Precedence = iota
	PrecAssignment
	PrecOr
	PrecAnd
	PrecEquality
	PrecComparison
	PrecTerm
	PrecFactor
	PrecUnary
	PrecCall
	PrecPrimary
)

type parseFn func(canAssign bool)

type parseRule struct {
	prefix     parseFn
	infix      parseFn
	precedence Precedence
}

// maxLocals bounds the locals stack at 256 entries, matching the one-byte
// operand that addresses a local slot.
const maxLocals = 256

// uninitializedDepth is the sentinel for a local whose initializer has not
// yet run, represented as -1 since Go lacks a native optional int.
const uninitializedDepth = -1

type local struct {
	name  token.Token
	depth int
}

// compiler drives a single compile: it owns the parser's two-token window,
// error/panic state, the locals stack, and the chunk being built.
type compiler struct {
	scanner *scanner.Scanner
	interner Interner
	logger  *logrus.Logger

	current  token.Token
	previous token.Token

	hadError  bool
	panicMode bool
	errs      *multierror.Error

	chunk *Chunk

	locals     []local
	scopeDepth int

	rules map[token.TokenType]parseRule
}

// Compile runs the single-pass Pratt compiler over source and returns the
// resulting chunk. On any compile error it returns a nil chunk and a
// non-nil error aggregating every diagnostic collected during the compile
// (via github.com/hashicorp/go-multierror), not just the first one.
func Compile(source string, interner Interner, logger *logrus.Logger) (*Chunk, error) {
	if logger == nil {
		logger = logrus.New()
		logger.SetLevel(logrus.WarnLevel)
	}
	c := &compiler{
		scanner:  scanner.New(source),
		interner: interner,
		logger:   logger,
		chunk:    NewChunk(),
	}
	c.rules = c.ruleTable()

	c.advance()
	for !c.check(token.EOF) {
		c.declaration()
	}
	c.consume(token.EOF, "Expect end of expression.")
	c.emitReturn()

	if c.hadError {
		return nil, c.errs.ErrorOrNil()
	}
	return c.chunk, nil
}

// --- token stream plumbing ---

func (c *compiler) advance() {
	c.previous = c.current
	for {
		c.current = c.scanner.NextToken()
		if c.current.TokenType != token.ERROR {
			break
		}
		c.errorAtCurrent(c.current.Lexeme)
	}
}

func (c *compiler) check(typ token.TokenType) bool {
	return c.current.TokenType == typ
}

func (c *compiler) match(typ token.TokenType) bool {
	if !c.check(typ) {
		return false
	}
	c.advance()
	return true
}

func (c *compiler) consume(typ token.TokenType, message string) {
	if c.current.TokenType == typ {
		c.advance()
		return
	}
	c.errorAtCurrent(message)
}

// --- error reporting & synchronization ---

// errorAtCurrent reports a syntax error anchored at the lookahead token —
// used where the parser itself failed to find what the grammar expected.
func (c *compiler) errorAtCurrent(message string) {
	c.syntaxErrorAt(c.current, message)
}

// error reports a syntax error anchored at the token just consumed.
func (c *compiler) error(message string) {
	c.syntaxErrorAt(c.previous, message)
}

// semanticError reports a static-rule violation (duplicate local, reading
// a local in its own initializer, a fixed-size table overflowing, an
// invalid assignment target) anchored at the token just consumed.
func (c *compiler) semanticError(message string) {
	c.reportAt(c.previous, message, func(line int, where string) error {
		return &SemanticError{Line: line, Where: where, Message: message}
	})
}

func (c *compiler) syntaxErrorAt(tok token.Token, message string) {
	c.reportAt(tok, message, func(line int, where string) error {
		return &SyntaxError{Line: line, Where: where, Message: message}
	})
}

func (c *compiler) reportAt(tok token.Token, message string, build func(line int, where string) error) {
	if c.panicMode {
		return
	}
	c.panicMode = true
	c.hadError = true

	where := tok.Lexeme
	if tok.TokenType == token.EOF {
		where = atEnd
	}
	c.errs = multierror.Append(c.errs, build(tok.Line, where))
	c.logger.WithField("line", tok.Line).Debugf("compile error: %s", message)
}

// statementStarters are the keywords synchronize looks for when recovering
// from a syntax error: skip tokens until one of these, or a just-consumed
// semicolon.
var statementStarters = map[token.TokenType]bool{
	token.CLASS:  true,
	token.FUNC:   true,
	token.VAR:    true,
	token.FOR:    true,
	token.IF:     true,
	token.WHILE:  true,
	token.PRINT:  true,
	token.RETURN: true,
}

func (c *compiler) synchronize() {
	c.logger.WithField("line", c.current.Line).Debug("synchronizing after compile error")
	c.panicMode = false
	for c.current.TokenType != token.EOF {
		if c.previous.TokenType == token.SEMICOLON {
			c.logger.WithField("line", c.previous.Line).Debug("synchronize point: semicolon")
			return
		}
		if statementStarters[c.current.TokenType] {
			c.logger.WithFields(logrus.Fields{"line": c.current.Line, "token": c.current.TokenType}).
				Debug("synchronize point: statement starter")
			return
		}
		c.advance()
	}
}

// --- bytecode emission ---

func (c *compiler) emitByte(b byte) {
	c.chunk.Write(b, c.previous.Line)
}

func (c *compiler) emitOp(op Opcode) {
	c.emitByte(byte(op))
}

func (c *compiler) emitOpByte(op Opcode, operand byte) {
	c.emitByte(byte(op))
	c.emitByte(operand)
}

func (c *compiler) emitReturn() {
	c.emitOp(OpReturn)
}

func (c *compiler) emitConstant(v value.Value) {
	idx, err := c.chunk.AddConstant(v)
	if err != nil {
		c.semanticError(err.Error())
		return
	}
	c.emitOpByte(OpConstant, idx)
}

// emitJump writes op followed by a two-byte placeholder offset and returns
// the offset of the first placeholder byte, to be back-patched once the
// jump target is known.
func (c *compiler) emitJump(op Opcode) int {
	c.emitOp(op)
	c.emitByte(0xff)
	c.emitByte(0xff)
	return len(c.chunk.Code) - 2
}

// patchJump back-patches the two-byte placeholder at offset with the
// distance from just after the placeholder to the current end of the
// chunk.
func (c *compiler) patchJump(offset int) {
	jump := len(c.chunk.Code) - offset - 2
	if jump > 0xffff {
		c.semanticError("Too much code to jump over.")
		return
	}
	c.chunk.Code[offset] = byte(jump >> 8)
	c.chunk.Code[offset+1] = byte(jump)
}

// emitLoop emits a backward Loop jump to loopStart.
func (c *compiler) emitLoop(loopStart int) {
	c.emitOp(OpLoop)
	offset := len(c.chunk.Code) - loopStart + 2
	if offset > 0xffff {
		c.semanticError("Loop body too large.")
		return
	}
	c.emitByte(byte(offset >> 8))
	c.emitByte(byte(offset))
}

// --- expressions ---

func (c *compiler) expression() {
	c.parsePrecedence(PrecAssignment)
}

func (c *compiler) getRule(typ token.TokenType) parseRule {
	if r, ok := c.rules[typ]; ok {
		return r
	}
	return parseRule{precedence: PrecNone}
}

func (c *compiler) parsePrecedence(min Precedence) {
	c.advance()
	rule := c.getRule(c.previous.TokenType)
	if rule.prefix == nil {
		c.error("Expect expression.")
		return
	}
	canAssign := min <= PrecAssignment
	rule.prefix(canAssign)

	for min <= c.getRule(c.current.TokenType).precedence {
		c.advance()
		infix := c.getRule(c.previous.TokenType).infix
		infix(canAssign)
	}

	if canAssign && c.match(token.ASSIGN) {
		c.semanticError("Invalid assignment target.")
	}
}

func (c *compiler) number(bool) {
	n, err := strconv.ParseFloat(c.previous.Lexeme, 64)
	if err != nil {
		c.error("Invalid number literal.")
		return
	}
	c.emitConstant(value.Number(n))
}

func (c *compiler) stringLiteral(bool) {
	lexeme := c.previous.Lexeme
	// strip the surrounding quotes
	contents := lexeme[1 : len(lexeme)-1]
	obj := c.interner.Intern(contents)
	c.emitConstant(value.Obj(obj))
}

func (c *compiler) literal(bool) {
	switch c.previous.TokenType {
	case token.FALSE:
		c.emitOp(OpFalse)
	case token.TRUE:
		c.emitOp(OpTrue)
	case token.NULL:
		c.emitOp(OpNil)
	}
}

func (c *compiler) grouping(bool) {
	c.expression()
	c.consume(token.RPA, "Expect ')' after expression.")
}

func (c *compiler) unary(bool) {
	operator := c.previous.TokenType
	c.parsePrecedence(PrecUnary)
	switch operator {
	case token.SUB:
		c.emitOp(OpNegate)
	case token.BANG:
		c.emitOp(OpNot)
	}
}

func (c *compiler) binary(bool) {
	operator := c.previous.TokenType
	rule := c.getRule(operator)
	c.parsePrecedence(rule.precedence + 1)

	switch operator {
	case token.ADD:
		c.emitOp(OpAdd)
	case token.SUB:
		c.emitOp(OpSubtract)
	case token.MULT:
		c.emitOp(OpMultiply)
	case token.DIV:
		c.emitOp(OpDivide)
	case token.EQUAL_EQUAL:
		c.emitOp(OpEqual)
	case token.NOT_EQUAL:
		c.emitOp(OpEqual)
		c.emitOp(OpNot)
	case token.LESS:
		c.emitOp(OpLess)
	case token.LESS_EQUAL:
		c.emitOp(OpGreater)
		c.emitOp(OpNot)
	case token.LARGER:
		c.emitOp(OpGreater)
	case token.LARGER_EQUAL:
		c.emitOp(OpLess)
		c.emitOp(OpNot)
	}
}

func (c *compiler) and_(bool) {
	endJump := c.emitJump(OpJumpIfFalse)
	c.emitOp(OpPop)
	c.parsePrecedence(PrecAnd)
	c.patchJump(endJump)
}

func (c *compiler) or_(bool) {
	elseJump := c.emitJump(OpJumpIfFalse)
	endJump := c.emitJump(OpJump)

	c.patchJump(elseJump)
	c.emitOp(OpPop)

	c.parsePrecedence(PrecOr)
	c.patchJump(endJump)
}

// --- variables ---

func (c *compiler) identifierConstant(name token.Token) byte {
	obj := c.interner.Intern(name.Lexeme)
	idx, err := c.chunk.AddConstant(value.Obj(obj))
	if err != nil {
		c.semanticError(err.Error())
		return 0
	}
	return idx
}

func identifiersEqual(a, b token.Token) bool {
	return a.Lexeme == b.Lexeme
}

func (c *compiler) declareVariable() {
	if c.scopeDepth == 0 {
		return
	}
	name := c.previous
	for i := len(c.locals) - 1; i >= 0; i-- {
		l := c.locals[i]
		if l.depth != uninitializedDepth && l.depth < c.scopeDepth {
			break
		}
		if identifiersEqual(name, l.name) {
			c.semanticError("Already a variable with this name in this scope.")
		}
	}
	c.addLocal(name)
}

func (c *compiler) addLocal(name token.Token) {
	if len(c.locals) >= maxLocals {
		c.semanticError("Too many local variables in function.")
		return
	}
	c.locals = append(c.locals, local{name: name, depth: uninitializedDepth})
}

// resolveLocal returns the slot of the innermost local named name, or -1 if
// no local matches (the caller falls back to a global).
func (c *compiler) resolveLocal(name token.Token) int {
	for i := len(c.locals) - 1; i >= 0; i-- {
		l := c.locals[i]
		if identifiersEqual(name, l.name) {
			if l.depth == uninitializedDepth {
				c.semanticError("Can't read local variable in its own initializer.")
			}
			return i
		}
	}
	return -1
}

func (c *compiler) namedVariable(name token.Token, canAssign bool) {
	var getOp, setOp Opcode
	slot := c.resolveLocal(name)
	if slot != -1 {
		getOp, setOp = OpGetLocal, OpSetLocal
	} else {
		slot = int(c.identifierConstant(name))
		getOp, setOp = OpGetGlobal, OpSetGlobal
	}

	if canAssign && c.match(token.ASSIGN) {
		c.expression()
		c.emitOpByte(setOp, byte(slot))
	} else {
		c.emitOpByte(getOp, byte(slot))
	}
}

func (c *compiler) variable(canAssign bool) {
	c.namedVariable(c.previous, canAssign)
}

func (c *compiler) parseVariable(errorMessage string) byte {
	c.consume(token.IDENTIFIER, errorMessage)
	c.declareVariable()
	if c.scopeDepth > 0 {
		return 0
	}
	return c.identifierConstant(c.previous)
}

func (c *compiler) markInitialized() {
	if c.scopeDepth == 0 {
		return
	}
	c.locals[len(c.locals)-1].depth = c.scopeDepth
}

func (c *compiler) defineVariable(global byte) {
	if c.scopeDepth > 0 {
		c.markInitialized()
		return
	}
	c.emitOpByte(OpDefineGlobal, global)
}

// --- scopes ---

func (c *compiler) beginScope() {
	c.scopeDepth++
}

func (c *compiler) endScope() {
	c.scopeDepth--
	for len(c.locals) > 0 && c.locals[len(c.locals)-1].depth > c.scopeDepth {
		c.emitOp(OpPop)
		c.locals = c.locals[:len(c.locals)-1]
	}
}

// --- statements and declarations ---

func (c *compiler) declaration() {
	if c.match(token.VAR) {
		c.varDeclaration()
	} else {
		c.statement()
	}
	if c.panicMode {
		c.synchronize()
	}
}

func (c *compiler) varDeclaration() {
	global := c.parseVariable("Expect variable name.")

	if c.match(token.ASSIGN) {
		c.expression()
	} else {
		c.emitOp(OpNil)
	}
	c.consume(token.SEMICOLON, "Expect ';' after variable declaration.")

	c.defineVariable(global)
}

func (c *compiler) statement() {
	switch {
	case c.match(token.PRINT):
		c.printStatement()
	case c.match(token.IF):
		c.ifStatement()
	case c.match(token.WHILE):
		c.whileStatement()
	case c.match(token.FOR):
		c.forStatement()
	case c.match(token.LCUR):
		c.beginScope()
		c.block()
		c.endScope()
	default:
		c.expressionStatement()
	}
}

func (c *compiler) printStatement() {
	c.expression()
	c.consume(token.SEMICOLON, "Expect ';' after value.")
	c.emitOp(OpPrint)
}

func (c *compiler) expressionStatement() {
	c.expression()
	c.consume(token.SEMICOLON, "Expect ';' after expression.")
	c.emitOp(OpPop)
}

func (c *compiler) block() {
	for !c.check(token.RCUR) && !c.check(token.EOF) {
		c.declaration()
	}
	c.consume(token.RCUR, "Expect '}' after block.")
}

func (c *compiler) ifStatement() {
	c.consume(token.LPA, "Expect '(' after 'if'.")
	c.expression()
	c.consume(token.RPA, "Expect ')' after condition.")

	thenJump := c.emitJump(OpJumpIfFalse)
	c.emitOp(OpPop)
	c.statement()

	elseJump := c.emitJump(OpJump)
	c.patchJump(thenJump)
	c.emitOp(OpPop)

	if c.match(token.ELSE) {
		c.statement()
	}
	c.patchJump(elseJump)
}

func (c *compiler) whileStatement() {
	loopStart := len(c.chunk.Code)
	c.consume(token.LPA, "Expect '(' after 'while'.")
	c.expression()
	c.consume(token.RPA, "Expect ')' after condition.")

	exitJump := c.emitJump(OpJumpIfFalse)
	c.emitOp(OpPop)
	c.statement()
	c.emitLoop(loopStart)

	c.patchJump(exitJump)
	c.emitOp(OpPop)
}

func (c *compiler) forStatement() {
	c.beginScope()
	c.consume(token.LPA, "Expect '(' after 'for'.")

	switch {
	case c.match(token.SEMICOLON):
		// no initializer
	case c.match(token.VAR):
		c.varDeclaration()
	default:
		c.expressionStatement()
	}

	loopStart := len(c.chunk.Code)
	exitJump := -1
	if !c.match(token.SEMICOLON) {
		c.expression()
		c.consume(token.SEMICOLON, "Expect ';' after loop condition.")
		exitJump = c.emitJump(OpJumpIfFalse)
		c.emitOp(OpPop)
	}

	if !c.match(token.RPA) {
		bodyJump := c.emitJump(OpJump)
		incrementStart := len(c.chunk.Code)
		c.expression()
		c.emitOp(OpPop)
		c.consume(token.RPA, "Expect ')' after for clauses.")

		c.emitLoop(loopStart)
		loopStart = incrementStart
		c.patchJump(bodyJump)
	}

	c.statement()
	c.emitLoop(loopStart)

	if exitJump != -1 {
		c.patchJump(exitJump)
		c.emitOp(OpPop)
	}

	c.endScope()
}

// --- parse rule table ---

// ruleTable builds the parse-rule table for this compiler instance. The
// prefix/infix entries are bound methods rather than free function
// pointers (Go has no free functions with an implicit receiver the way
// clox's C function pointers work), so the table is built fresh per
// compile instead of once at package init.
func (c *compiler) ruleTable() map[token.TokenType]parseRule {
	return map[token.TokenType]parseRule{
		token.LPA:          {prefix: c.grouping, infix: nil, precedence: PrecNone},
		token.SUB:          {prefix: c.unary, infix: c.binary, precedence: PrecTerm},
		token.ADD:          {prefix: nil, infix: c.binary, precedence: PrecTerm},
		token.DIV:          {prefix: nil, infix: c.binary, precedence: PrecFactor},
		token.MULT:         {prefix: nil, infix: c.binary, precedence: PrecFactor},
		token.BANG:         {prefix: c.unary, infix: nil, precedence: PrecNone},
		token.NOT_EQUAL:    {prefix: nil, infix: c.binary, precedence: PrecEquality},
		token.EQUAL_EQUAL:  {prefix: nil, infix: c.binary, precedence: PrecEquality},
		token.LESS:         {prefix: nil, infix: c.binary, precedence: PrecComparison},
		token.LESS_EQUAL:   {prefix: nil, infix: c.binary, precedence: PrecComparison},
		token.LARGER:       {prefix: nil, infix: c.binary, precedence: PrecComparison},
		token.LARGER_EQUAL: {prefix: nil, infix: c.binary, precedence: PrecComparison},
		token.NUMBER:       {prefix: c.number, infix: nil, precedence: PrecNone},
		token.STRING:       {prefix: c.stringLiteral, infix: nil, precedence: PrecNone},
		token.IDENTIFIER:   {prefix: c.variable, infix: nil, precedence: PrecNone},
		token.FALSE:        {prefix: c.literal, infix: nil, precedence: PrecNone},
		token.TRUE:         {prefix: c.literal, infix: nil, precedence: PrecNone},
		token.NULL:         {prefix: c.literal, infix: nil, precedence: PrecNone},
		token.AND:          {prefix: nil, infix: c.and_, precedence: PrecAnd},
		token.OR:           {prefix: nil, infix: c.or_, precedence: PrecOr},
	}
}
