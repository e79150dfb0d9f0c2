// Package compiler implements the single-pass Pratt compiler from
// spec.md §4.5: it reads tokens from a Scanner and emits bytecode
// directly into a runtime.Chunk, with no intermediate AST. It shares
// the value/object model with the interpreter (runtime.Value,
// runtime.Strings) because the constant pool it builds is read
// directly by the VM.
package compiler

import (
	"fmt"
	"strconv"

	"github.com/enix403/volt/bytecode"
	"github.com/enix403/volt/runtime"
)

const maxLocals = 256
const maxConstants = 256
const maxJump = 1 << 16

// CompileError is one reported syntax error, in the
// "[line N] Syntax error at '<lexeme>': <message>" form from spec.md §7.
type CompileError struct {
	Line    int
	Lexeme  string
	AtEnd   bool
	Message string
}

func (e CompileError) Error() string {
	where := fmt.Sprintf(" at '%s'", e.Lexeme)
	if e.AtEnd {
		where = " at end"
	}
	return fmt.Sprintf("[line %d] Syntax error%s: %s", e.Line, where, e.Message)
}

type local struct {
	name  string
	depth int // -1 means "declared but not yet initialized"
}

// compilerState is the per-function compile-time scope tracker: the
// Local table and current scope depth from spec.md §3 "Compiler-only
// data".
type funcType int

const (
	funcTypeScript funcType = iota
	funcTypeFunction
)

type compilerState struct {
	enclosing  *compilerState
	fn         *runtime.ObjFunction
	ftype      funcType
	locals     []local
	scopeDepth int
}

// newCompilerState seeds the Local table with the slot-0 sentinel: the
// callee itself occupies CallFrame slot 0 at runtime (spec.md §4.6), so
// slot 0 is reserved here and never resolvable by name.
func newCompilerState(enclosing *compilerState, fn *runtime.ObjFunction, ftype funcType) *compilerState {
	return &compilerState{
		enclosing: enclosing,
		fn:        fn,
		ftype:     ftype,
		locals:    []local{{name: "", depth: 0}},
	}
}

// Compiler drives one Compile call. It holds the parser state
// (previous/current/hadError/panicMode) plus the function-nesting
// stack of compilerState: each `fun` declaration, including one nested
// inside another function's body, pushes its own compilerState.
type Compiler struct {
	scanner   *Scanner
	strings   *runtime.Strings
	previous  Token
	current   Token
	hadError  bool
	panicMode bool
	errors    []CompileError

	cs *compilerState
}

// Compile compiles source into a top-level script function: a nameless
// ObjFunction of arity 0, per spec.md §3. On a compile error it returns
// a nil function and the accumulated errors (compilation continues
// past the first error via synchronize so multiple errors can be
// reported in one run, per spec.md §7).
func Compile(source string, strings *runtime.Strings) (*runtime.ObjFunction, []CompileError) {
	c := &Compiler{
		scanner: NewScanner(source),
		strings: strings,
	}
	c.cs = newCompilerState(nil, runtime.NewFunction(), funcTypeScript)

	c.advance()
	for !c.match(TokenEOF) {
		c.declaration()
	}
	fn := c.endCompiler()

	if c.hadError {
		return nil, c.errors
	}
	return fn, nil
}

func (c *Compiler) chunk() *runtime.Chunk { return c.cs.fn.Chunk }

func (c *Compiler) endCompiler() *runtime.ObjFunction {
	c.emitByte(byte(bytecode.NIL))
	c.emitByte(byte(bytecode.RETURN))
	return c.cs.fn
}

// function compiles a `fun` body: the name has already been consumed
// by the caller (funDeclaration), and the parameter list starting at
// '(' is consumed here. It pushes a fresh compilerState so the function's locals and
// parameters live in their own table, then pops back to the enclosing
// state and leaves the compiled ObjFunction as a constant in the
// enclosing chunk — there are no closures or upvalues in scope (see
// Non-goals), so the function value can be a plain constant.
func (c *Compiler) function(name string) {
	fn := runtime.NewFunction()
	fn.Name = c.strings.CopyString(name)
	enclosing := c.cs
	c.cs = newCompilerState(enclosing, fn, funcTypeFunction)

	c.beginScope()
	c.consume(TokenLeftParen, "Expect '(' after function name.")
	if !c.check(TokenRightParen) {
		for {
			c.cs.fn.Arity++
			if c.cs.fn.Arity > 255 {
				c.errorAtCurrent("Can't have more than 255 parameters.")
			}
			paramConstant := c.parseVariable("Expect parameter name.")
			c.defineVariable(paramConstant)
			if !c.match(TokenComma) {
				break
			}
		}
	}
	c.consume(TokenRightParen, "Expect ')' after parameters.")
	c.consume(TokenLeftBrace, "Expect '{' before function body.")
	c.block()

	compiled := c.endCompiler()
	c.cs = enclosing

	idx := c.makeConstant(runtime.ObjVal(compiled))
	c.emitBytes(byte(bytecode.LOADCONST), byte(idx))
}

func (c *Compiler) funDeclaration() {
	global := c.parseVariable("Expect function name.")
	name := c.previous.Lexeme
	c.markInitialized()
	c.function(name)
	c.defineVariable(global)
}

func (c *Compiler) returnStatement() {
	if c.cs.ftype == funcTypeScript {
		c.error("Can't return from top-level code.")
	}
	if c.match(TokenSemicolon) {
		c.emitByte(byte(bytecode.NIL))
		c.emitByte(byte(bytecode.RETURN))
		return
	}
	c.expression()
	c.consume(TokenSemicolon, "Expect ';' after return value.")
	c.emitByte(byte(bytecode.RETURN))
}

// ---- token navigation ----------------------------------------------

func (c *Compiler) advance() {
	c.previous = c.current
	for {
		c.current = c.scanner.ScanToken()
		if c.current.Type != TokenError {
			break
		}
		c.errorAtCurrent(c.current.Lexeme)
	}
}

func (c *Compiler) check(t TokenType) bool { return c.current.Type == t }

func (c *Compiler) match(t TokenType) bool {
	if !c.check(t) {
		return false
	}
	c.advance()
	return true
}

func (c *Compiler) consume(t TokenType, msg string) {
	if c.current.Type == t {
		c.advance()
		return
	}
	c.errorAtCurrent(msg)
}

// ---- error reporting -------------------------------------------------

func (c *Compiler) errorAtCurrent(msg string) { c.errorAt(c.current, msg) }
func (c *Compiler) error(msg string)          { c.errorAt(c.previous, msg) }

func (c *Compiler) errorAt(tok Token, msg string) {
	if c.panicMode {
		return
	}
	c.panicMode = true
	c.hadError = true
	c.errors = append(c.errors, CompileError{
		Line:    tok.Line,
		Lexeme:  tok.Lexeme,
		AtEnd:   tok.Type == TokenEOF,
		Message: msg,
	})
}

// synchronize discards tokens until a likely statement boundary, so a
// single malformed statement does not cascade into further errors.
func (c *Compiler) synchronize() {
	c.panicMode = false
	for c.current.Type != TokenEOF {
		if c.previous.Type == TokenSemicolon {
			return
		}
		switch c.current.Type {
		case TokenClass, TokenFun, TokenVar, TokenFor, TokenIf, TokenWhile, TokenPrint, TokenReturn:
			return
		}
		c.advance()
	}
}

// ---- byte emission ---------------------------------------------------

func (c *Compiler) emitByte(b byte) {
	c.chunk().Write(b, c.previous.Line)
}

func (c *Compiler) emitBytes(a, b byte) {
	c.emitByte(a)
	c.emitByte(b)
}

func (c *Compiler) emitConstant(v runtime.Value) {
	idx := c.makeConstant(v)
	c.emitBytes(byte(bytecode.LOADCONST), byte(idx))
}

func (c *Compiler) makeConstant(v runtime.Value) int {
	idx := c.chunk().AddConstant(v)
	if idx >= maxConstants {
		c.error("Too many constants in one chunk.")
		return 0
	}
	return idx
}

// emitJump writes a jump opcode with a placeholder 16-bit operand and
// returns the offset of that operand, to be patched once the target is
// known.
func (c *Compiler) emitJump(op bytecode.OpCode) int {
	c.emitByte(byte(op))
	c.emitByte(0xff)
	c.emitByte(0xff)
	return len(c.chunk().Code) - 2
}

func (c *Compiler) patchJump(offset int) {
	jump := len(c.chunk().Code) - offset - 2
	if jump > maxJump-1 {
		c.error("Too much code to jump over.")
		return
	}
	c.chunk().Code[offset] = byte((jump >> 8) & 0xff)
	c.chunk().Code[offset+1] = byte(jump & 0xff)
}

func (c *Compiler) emitLoop(loopStart int) {
	c.emitByte(byte(bytecode.LOOP))
	offset := len(c.chunk().Code) - loopStart + 2
	if offset > maxJump-1 {
		c.error("Loop body too large.")
	}
	c.emitByte(byte((offset >> 8) & 0xff))
	c.emitByte(byte(offset & 0xff))
}

// ---- scopes and locals ------------------------------------------------

func (c *Compiler) beginScope() { c.cs.scopeDepth++ }

func (c *Compiler) endScope() {
	c.cs.scopeDepth--

	popped := 0
	for len(c.cs.locals) > 0 && c.cs.locals[len(c.cs.locals)-1].depth > c.cs.scopeDepth {
		c.cs.locals = c.cs.locals[:len(c.cs.locals)-1]
		popped++
	}
	switch popped {
	case 0:
	case 1:
		c.emitByte(byte(bytecode.POP))
	default:
		c.emitBytes(byte(bytecode.POPN), byte(popped))
	}
}

// resolveLocal scans locals from innermost outward, per spec.md §4.5.
// Returns -1 if name is not a local (so the caller falls back to a
// global). Accessing a local still at depth -1 (mid-initializer) is a
// compile error: `var x = x;` must not see the outer/uninitialized x.
func (c *Compiler) resolveLocal(name string) int {
	for i := len(c.cs.locals) - 1; i >= 0; i-- {
		l := c.cs.locals[i]
		if l.name == name {
			if l.depth == -1 {
				c.error("Cannot access variable in its own initializer.")
			}
			return i
		}
	}
	return -1
}

func (c *Compiler) addLocal(name string) {
	if len(c.cs.locals) >= maxLocals {
		c.error("Too many local variables in scope.")
		return
	}
	c.cs.locals = append(c.cs.locals, local{name: name, depth: -1})
}

func (c *Compiler) markInitialized() {
	if c.cs.scopeDepth == 0 {
		return
	}
	c.cs.locals[len(c.cs.locals)-1].depth = c.cs.scopeDepth
}

// declareVariable registers the variable named by c.previous as a
// local if inside a scope; global declarations are handled entirely at
// runtime via DEFINE_GLOBAL and need no compile-time table entry.
func (c *Compiler) declareVariable() {
	if c.cs.scopeDepth == 0 {
		return
	}
	name := c.previous.Lexeme
	for i := len(c.cs.locals) - 1; i >= 0; i-- {
		l := c.cs.locals[i]
		if l.depth != -1 && l.depth < c.cs.scopeDepth {
			break
		}
		if l.name == name {
			c.error("Already a variable with this name in this scope.")
		}
	}
	c.addLocal(name)
}

func (c *Compiler) parseVariable(errMsg string) int {
	c.consume(TokenIdentifier, errMsg)
	c.declareVariable()
	if c.cs.scopeDepth > 0 {
		return 0
	}
	return c.identifierConstant(c.previous.Lexeme)
}

func (c *Compiler) identifierConstant(name string) int {
	return c.makeConstant(runtime.ObjVal(c.strings.CopyString(name)))
}

func (c *Compiler) defineVariable(global int) {
	if c.cs.scopeDepth > 0 {
		c.markInitialized()
		return
	}
	c.emitBytes(byte(bytecode.DEFINE_GLOBAL), byte(global))
}

// ---- declarations and statements --------------------------------------

func (c *Compiler) declaration() {
	switch {
	case c.match(TokenFun):
		c.funDeclaration()
	case c.match(TokenVar):
		c.varDeclaration()
	default:
		c.statement()
	}
	if c.panicMode {
		c.synchronize()
	}
}

func (c *Compiler) varDeclaration() {
	global := c.parseVariable("Expect variable name.")

	if c.match(TokenEqual) {
		c.expression()
	} else {
		c.emitByte(byte(bytecode.NIL))
	}
	c.consume(TokenSemicolon, "Expect ';' after variable declaration.")
	c.defineVariable(global)
}

func (c *Compiler) statement() {
	switch {
	case c.match(TokenPrint):
		c.printStatement()
	case c.match(TokenIf):
		c.ifStatement()
	case c.match(TokenWhile):
		c.whileStatement()
	case c.match(TokenReturn):
		c.returnStatement()
	case c.match(TokenLeftBrace):
		c.beginScope()
		c.block()
		c.endScope()
	default:
		c.expressionStatement()
	}
}

func (c *Compiler) printStatement() {
	c.expression()
	c.consume(TokenSemicolon, "Expect ';' after value.")
	c.emitByte(byte(bytecode.PRINT))
}

func (c *Compiler) expressionStatement() {
	c.expression()
	c.consume(TokenSemicolon, "Expect ';' after expression.")
	c.emitByte(byte(bytecode.POP))
}

func (c *Compiler) block() {
	for !c.check(TokenRightBrace) && !c.check(TokenEOF) {
		c.declaration()
	}
	c.consume(TokenRightBrace, "Expect '}' after block.")
}

func (c *Compiler) ifStatement() {
	c.consume(TokenLeftParen, "Expect '(' after 'if'.")
	c.expression()
	c.consume(TokenRightParen, "Expect ')' after condition.")

	thenJump := c.emitJump(bytecode.JUMP_IF_FALSE)
	c.emitByte(byte(bytecode.POP))
	c.statement()

	elseJump := c.emitJump(bytecode.JUMP)
	c.patchJump(thenJump)
	c.emitByte(byte(bytecode.POP))

	if c.match(TokenElse) {
		c.statement()
	}
	c.patchJump(elseJump)
}

func (c *Compiler) whileStatement() {
	loopStart := len(c.chunk().Code)
	c.consume(TokenLeftParen, "Expect '(' after 'while'.")
	c.expression()
	c.consume(TokenRightParen, "Expect ')' after condition.")

	exitJump := c.emitJump(bytecode.JUMP_IF_FALSE)
	c.emitByte(byte(bytecode.POP))
	c.statement()
	c.emitLoop(loopStart)

	c.patchJump(exitJump)
	c.emitByte(byte(bytecode.POP))
}

// ---- expressions (Pratt parser) ---------------------------------------

func (c *Compiler) expression() {
	c.parsePrecedence(PrecAssignment)
}

func (c *Compiler) parsePrecedence(min Precedence) {
	c.advance()
	prefix := getRule(c.previous.Type).prefix
	if prefix == nil {
		c.error("Expect expression.")
		return
	}

	canAssign := min <= PrecAssignment
	prefix(c, canAssign)

	for min <= getRule(c.current.Type).precedence {
		c.advance()
		infix := getRule(c.previous.Type).infix
		infix(c, canAssign)
	}

	if canAssign && c.match(TokenEqual) {
		c.error("Invalid assignment target.")
	}
}

func number(c *Compiler, canAssign bool) {
	v, err := strconv.ParseFloat(c.previous.Lexeme, 64)
	if err != nil {
		c.error("Invalid number literal.")
		return
	}
	c.emitConstant(runtime.Number(v))
}

func stringLiteral(c *Compiler, canAssign bool) {
	// Strip the surrounding quotes.
	lexeme := c.previous.Lexeme
	raw := lexeme[1 : len(lexeme)-1]
	c.emitConstant(runtime.ObjVal(c.strings.CopyString(raw)))
}

func literal(c *Compiler, canAssign bool) {
	switch c.previous.Type {
	case TokenTrue:
		c.emitByte(byte(bytecode.TRUE))
	case TokenFalse:
		c.emitByte(byte(bytecode.FALSE))
	case TokenNil:
		c.emitByte(byte(bytecode.NIL))
	}
}

func grouping(c *Compiler, canAssign bool) {
	c.expression()
	c.consume(TokenRightParen, "Expect ')' after expression.")
}

func unary(c *Compiler, canAssign bool) {
	opType := c.previous.Type
	c.parsePrecedence(PrecUnary)
	switch opType {
	case TokenMinus:
		c.emitByte(byte(bytecode.NEGATE))
	case TokenBang:
		c.emitByte(byte(bytecode.LOGIC_NOT))
	}
}

func binary(c *Compiler, canAssign bool) {
	opType := c.previous.Type
	rule := getRule(opType)
	c.parsePrecedence(rule.precedence + 1)

	switch opType {
	case TokenPlus:
		c.emitByte(byte(bytecode.ADD))
	case TokenMinus:
		c.emitByte(byte(bytecode.SUBTRACT))
	case TokenStar:
		c.emitByte(byte(bytecode.MULTIPLY))
	case TokenSlash:
		c.emitByte(byte(bytecode.DIVIDE))
	case TokenEqualEqual:
		c.emitByte(byte(bytecode.LOGIC_EQUAL))
	case TokenGreater:
		c.emitByte(byte(bytecode.LOGIC_GREATER))
	case TokenLess:
		c.emitByte(byte(bytecode.LOGIC_LESS))
	case TokenBangEqual:
		c.emitBytes(byte(bytecode.LOGIC_EQUAL), byte(bytecode.LOGIC_NOT))
	case TokenGreaterEqual:
		c.emitBytes(byte(bytecode.LOGIC_LESS), byte(bytecode.LOGIC_NOT))
	case TokenLessEqual:
		c.emitBytes(byte(bytecode.LOGIC_GREATER), byte(bytecode.LOGIC_NOT))
	}
}

func and_(c *Compiler, canAssign bool) {
	endJump := c.emitJump(bytecode.JUMP_IF_FALSE)
	c.emitByte(byte(bytecode.POP))
	c.parsePrecedence(PrecAnd)
	c.patchJump(endJump)
}

func or_(c *Compiler, canAssign bool) {
	endJump := c.emitJump(bytecode.JUMP_IF_TRUE)
	c.emitByte(byte(bytecode.POP))
	c.parsePrecedence(PrecOr)
	c.patchJump(endJump)
}

func variable(c *Compiler, canAssign bool) {
	c.namedVariable(c.previous.Lexeme, canAssign)
}

func (c *Compiler) namedVariable(name string, canAssign bool) {
	var getOp, setOp bytecode.OpCode
	arg := c.resolveLocal(name)
	if arg != -1 {
		getOp, setOp = bytecode.GET_LOCAL, bytecode.SET_LOCAL
	} else {
		arg = c.identifierConstant(name)
		getOp, setOp = bytecode.GET_GLOBAL, bytecode.SET_GLOBAL
	}

	if canAssign && c.match(TokenEqual) {
		c.expression()
		c.emitBytes(byte(setOp), byte(arg))
	} else {
		c.emitBytes(byte(getOp), byte(arg))
	}
}

func call(c *Compiler, canAssign bool) {
	argc := c.argumentList()
	c.emitBytes(byte(bytecode.CALL), byte(argc))
}

func (c *Compiler) argumentList() int {
	argc := 0
	if !c.check(TokenRightParen) {
		for {
			c.expression()
			if argc == 255 {
				c.error("Can't have more than 255 arguments.")
			}
			argc++
			if !c.match(TokenComma) {
				break
			}
		}
	}
	c.consume(TokenRightParen, "Expect ')' after arguments.")
	return argc
}
