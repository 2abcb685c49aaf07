package source

import "strings"

// Parse lexes and parses one source file. Constructs outside the
// translatable subset are parsed structurally into UnsupportedStmt and
// UnsupportedExpr nodes; only genuine syntax errors fail the parse.
func Parse(text string) (*Module, error) {
	tokens, err := NewLexer(text).Tokenize()
	if err != nil {
		return nil, err
	}
	mod, perr := NewParser(tokens, text).Parse()
	if perr != nil {
		return nil, perr
	}
	return mod, nil
}

// Parser is a recursive-descent parser over lexer tokens.
type Parser struct {
	tokens  []Token
	current int
	source  string
}

// NewParser creates a parser for the given tokens. source is kept for error
// context only.
func NewParser(tokens []Token, source string) *Parser {
	return &Parser{tokens: tokens, source: source}
}

// Parse parses the token stream into a Module.
func (p *Parser) Parse() (*Module, *SyntaxError) {
	mod := &Module{}
	for !p.isAtEnd() {
		if p.match(TokenNewline) {
			continue
		}
		stmts, err := p.statement()
		if err != nil {
			return nil, err
		}
		mod.Body = append(mod.Body, stmts...)
	}
	return mod, nil
}

// statement parses one compound statement or one line of simple statements.
func (p *Parser) statement() ([]Stmt, *SyntaxError) {
	tok := p.peek()
	switch tok.Kind {
	case TokenIndent:
		return nil, p.errorAt(tok, "unexpected indent")
	case TokenDedent:
		return nil, p.errorAt(tok, "unexpected unindent")
	case TokenOp:
		if tok.Text == "@" {
			return p.one(p.decorated())
		}
	case TokenKeyword:
		switch tok.Text {
		case "def":
			return p.one(p.functionDef(nil))
		case "class":
			return p.one(p.classDef(nil))
		case "if":
			return p.one(p.ifStmt())
		case "for", "while":
			return p.one(p.loopStmt(""))
		case "try":
			return p.one(p.tryStmt())
		case "with":
			return p.one(p.withStmt(""))
		case "async":
			return p.one(p.asyncStmt(nil))
		case "elif", "else", "except", "finally":
			return nil, p.errorAt(tok, "invalid syntax: unexpected %q", tok.Text)
		}
	}
	return p.simpleStatements()
}

func (p *Parser) one(s Stmt, err *SyntaxError) ([]Stmt, *SyntaxError) {
	if err != nil {
		return nil, err
	}
	return []Stmt{s}, nil
}

// simpleStatements parses `small (; small)* NEWLINE`.
func (p *Parser) simpleStatements() ([]Stmt, *SyntaxError) {
	var out []Stmt
	for {
		s, err := p.smallStatement()
		if err != nil {
			return nil, err
		}
		out = append(out, s)
		if !p.matchOp(";") || p.check(TokenNewline) || p.isAtEnd() {
			break
		}
	}
	if p.isAtEnd() || p.check(TokenDedent) {
		return out, nil
	}
	if !p.match(TokenNewline) {
		return nil, p.errorAt(p.peek(), "invalid syntax: unexpected %s", p.peek())
	}
	return out, nil
}

// block parses `: NEWLINE INDENT stmts DEDENT` or `: simple_stmts`.
func (p *Parser) block() ([]Stmt, *SyntaxError) {
	if err := p.expectOp(":"); err != nil {
		return nil, err
	}
	if !p.match(TokenNewline) {
		return p.simpleStatements()
	}
	if !p.match(TokenIndent) {
		return nil, p.errorAt(p.peek(), "expected an indented block")
	}
	var body []Stmt
	for !p.match(TokenDedent) {
		if p.isAtEnd() {
			break
		}
		if p.match(TokenNewline) {
			continue
		}
		stmts, err := p.statement()
		if err != nil {
			return nil, err
		}
		body = append(body, stmts...)
	}
	return body, nil
}

func (p *Parser) decorated() (Stmt, *SyntaxError) {
	var decos []Expr
	for p.matchOp("@") {
		d, err := p.namedExpr()
		if err != nil {
			return nil, err
		}
		if !p.match(TokenNewline) {
			return nil, p.errorAt(p.peek(), "expected newline after decorator")
		}
		decos = append(decos, d)
	}
	switch {
	case p.checkKw("def"):
		return p.functionDef(decos)
	case p.checkKw("class"):
		return p.classDef(decos)
	case p.checkKw("async"):
		return p.asyncStmt(decos)
	}
	return nil, p.errorAt(p.peek(), "expected function or class definition after decorator")
}

func (p *Parser) functionDef(decos []Expr) (*FunctionDef, *SyntaxError) {
	pos := p.advance().Pos // def
	name, err := p.expectName()
	if err != nil {
		return nil, err
	}
	if err := p.expectOp("("); err != nil {
		return nil, err
	}
	params, err := p.parameters()
	if err != nil {
		return nil, err
	}
	if err := p.expectOp(")"); err != nil {
		return nil, err
	}
	var returns Expr
	if p.matchOp("->") {
		if returns, err = p.test(); err != nil {
			return nil, err
		}
	}
	body, err := p.block()
	if err != nil {
		return nil, err
	}
	return &FunctionDef{
		Name:       name,
		Params:     params,
		Decorators: decos,
		Returns:    returns,
		Body:       body,
		Pos:        pos,
	}, nil
}

func (p *Parser) parameters() ([]ParamDef, *SyntaxError) {
	var params []ParamDef
	for !p.checkOp(")") {
		pos := p.peek().Pos
		var param ParamDef
		switch {
		case p.matchOp("**"):
			param.Star = "**"
		case p.matchOp("*"):
			param.Star = "*"
		case p.matchOp("/"):
			param.Star = "/"
		}
		param.Pos = pos

		if param.Star != "/" && p.check(TokenName) {
			param.Name = p.advance().Text
			if p.matchOp(":") {
				ann, err := p.test()
				if err != nil {
					return nil, err
				}
				param.Annotation = ann
			}
			if p.matchOp("=") {
				def, err := p.test()
				if err != nil {
					return nil, err
				}
				param.Default = def
			}
		} else if param.Star == "" || param.Star == "**" {
			return nil, p.errorAt(p.peek(), "expected parameter name, found %s", p.peek())
		}
		params = append(params, param)

		if !p.matchOp(",") {
			break
		}
	}
	return params, nil
}

func (p *Parser) classDef(decos []Expr) (*ClassDef, *SyntaxError) {
	pos := p.advance().Pos // class
	name, err := p.expectName()
	if err != nil {
		return nil, err
	}
	var bases []Expr
	if p.matchOp("(") {
		args, _, err := p.arguments()
		if err != nil {
			return nil, err
		}
		bases = args
	}
	body, err := p.block()
	if err != nil {
		return nil, err
	}
	return &ClassDef{Name: name, Bases: bases, Decorators: decos, Body: body, Pos: pos}, nil
}

// ifStmt parses if and elif clauses; the leading keyword is consumed either way.
func (p *Parser) ifStmt() (*If, *SyntaxError) {
	kw := p.advance()
	test, err := p.namedExpr()
	if err != nil {
		return nil, err
	}
	body, err := p.block()
	if err != nil {
		return nil, err
	}
	stmt := &If{Test: test, Body: body, Elif: kw.Text == "elif", Pos: kw.Pos}

	switch {
	case p.checkKw("elif"):
		elif, err := p.ifStmt()
		if err != nil {
			return nil, err
		}
		stmt.Orelse = []Stmt{elif}
	case p.matchKw("else"):
		orelse, err := p.block()
		if err != nil {
			return nil, err
		}
		stmt.Orelse = orelse
	}
	return stmt, nil
}

func (p *Parser) loopStmt(prefix string) (Stmt, *SyntaxError) {
	kw := p.advance()
	if err := p.skipHeader(); err != nil {
		return nil, err
	}
	if _, err := p.block(); err != nil {
		return nil, err
	}
	if p.matchKw("else") {
		if _, err := p.block(); err != nil {
			return nil, err
		}
	}
	return &UnsupportedStmt{What: prefix + kw.Text + " loop", Pos: kw.Pos}, nil
}

func (p *Parser) tryStmt() (Stmt, *SyntaxError) {
	kw := p.advance()
	if _, err := p.block(); err != nil {
		return nil, err
	}
	for p.checkKw("except") || p.checkKw("else") || p.checkKw("finally") {
		p.advance()
		if err := p.skipHeader(); err != nil {
			return nil, err
		}
		if _, err := p.block(); err != nil {
			return nil, err
		}
	}
	return &UnsupportedStmt{What: "try statement", Pos: kw.Pos}, nil
}

func (p *Parser) withStmt(prefix string) (Stmt, *SyntaxError) {
	kw := p.advance()
	if err := p.skipHeader(); err != nil {
		return nil, err
	}
	if _, err := p.block(); err != nil {
		return nil, err
	}
	return &UnsupportedStmt{What: prefix + "with statement", Pos: kw.Pos}, nil
}

func (p *Parser) asyncStmt(decos []Expr) (Stmt, *SyntaxError) {
	kw := p.advance()
	switch {
	case p.checkKw("def"):
		fn, err := p.functionDef(decos)
		if err != nil {
			return nil, err
		}
		fn.Async = true
		fn.Pos = kw.Pos
		return fn, nil
	case decos != nil:
	case p.checkKw("for"):
		return p.loopStmt("async ")
	case p.checkKw("with"):
		return p.withStmt("async ")
	}
	return nil, p.errorAt(p.peek(), "invalid syntax after 'async'")
}

// skipHeader consumes tokens up to the ':' that opens a block.
func (p *Parser) skipHeader() *SyntaxError {
	depth := 0
	for {
		tok := p.peek()
		switch tok.Kind {
		case TokenEOF, TokenNewline:
			return p.errorAt(tok, "expected ':'")
		case TokenOp:
			switch tok.Text {
			case "(", "[", "{":
				depth++
			case ")", "]", "}":
				depth--
			case ":":
				if depth == 0 {
					return nil
				}
			}
		}
		p.advance()
	}
}

func (p *Parser) smallStatement() (Stmt, *SyntaxError) {
	tok := p.peek()
	if tok.Kind == TokenKeyword {
		switch tok.Text {
		case "pass":
			p.advance()
			return &Pass{Pos: tok.Pos}, nil
		case "return":
			p.advance()
			if !p.startsExpr() {
				return &Return{Pos: tok.Pos}, nil
			}
			v, err := p.testListStarExpr()
			if err != nil {
				return nil, err
			}
			return &Return{Value: v, Pos: tok.Pos}, nil
		case "raise":
			return p.raiseStmt()
		case "assert":
			return p.assertStmt()
		case "import":
			return p.importStmt()
		case "from":
			return p.fromImportStmt()
		case "global", "nonlocal":
			p.advance()
			for {
				if _, err := p.expectName(); err != nil {
					return nil, err
				}
				if !p.matchOp(",") {
					break
				}
			}
			return &UnsupportedStmt{What: tok.Text + " statement", Pos: tok.Pos}, nil
		case "del":
			p.advance()
			if _, err := p.testListStarExpr(); err != nil {
				return nil, err
			}
			return &UnsupportedStmt{What: "del statement", Pos: tok.Pos}, nil
		case "break", "continue":
			p.advance()
			return &UnsupportedStmt{What: tok.Text + " statement", Pos: tok.Pos}, nil
		}
	}
	return p.exprStatement()
}

func (p *Parser) raiseStmt() (Stmt, *SyntaxError) {
	pos := p.advance().Pos
	stmt := &Raise{Pos: pos}
	if !p.startsExpr() {
		return stmt, nil
	}
	exc, err := p.test()
	if err != nil {
		return nil, err
	}
	stmt.Exc = exc
	if p.matchKw("from") {
		if _, err := p.test(); err != nil {
			return nil, err
		}
	}
	return stmt, nil
}

func (p *Parser) assertStmt() (Stmt, *SyntaxError) {
	pos := p.advance().Pos
	test, err := p.test()
	if err != nil {
		return nil, err
	}
	stmt := &Assert{Test: test, Pos: pos}
	if p.matchOp(",") {
		if stmt.Msg, err = p.test(); err != nil {
			return nil, err
		}
	}
	return stmt, nil
}

func (p *Parser) importStmt() (Stmt, *SyntaxError) {
	pos := p.advance().Pos
	stmt := &ImportStmt{Pos: pos}
	for {
		name, err := p.dottedName()
		if err != nil {
			return nil, err
		}
		in := ImportName{Name: name}
		if p.matchKw("as") {
			if in.Alias, err = p.expectName(); err != nil {
				return nil, err
			}
		}
		stmt.Names = append(stmt.Names, in)
		if !p.matchOp(",") {
			break
		}
	}
	return stmt, nil
}

func (p *Parser) fromImportStmt() (Stmt, *SyntaxError) {
	pos := p.advance().Pos
	var module strings.Builder
	for p.checkOp(".") || p.checkOp("...") {
		module.WriteString(p.advance().Text)
	}
	if p.check(TokenName) {
		name, err := p.dottedName()
		if err != nil {
			return nil, err
		}
		module.WriteString(name)
	}
	if module.Len() == 0 {
		return nil, p.errorAt(p.peek(), "expected module name")
	}
	if !p.matchKw("import") {
		return nil, p.errorAt(p.peek(), "expected 'import', found %s", p.peek())
	}

	stmt := &ImportStmt{Module: module.String(), From: true, Pos: pos}
	if p.matchOp("*") {
		stmt.Names = []ImportName{{Name: "*"}}
		return stmt, nil
	}
	paren := p.matchOp("(")
	for {
		if paren && p.checkOp(")") {
			break
		}
		name, err := p.expectName()
		if err != nil {
			return nil, err
		}
		in := ImportName{Name: name}
		if p.matchKw("as") {
			if in.Alias, err = p.expectName(); err != nil {
				return nil, err
			}
		}
		stmt.Names = append(stmt.Names, in)
		if !p.matchOp(",") {
			break
		}
	}
	if paren {
		if err := p.expectOp(")"); err != nil {
			return nil, err
		}
	}
	return stmt, nil
}

func (p *Parser) dottedName() (string, *SyntaxError) {
	name, err := p.expectName()
	if err != nil {
		return "", err
	}
	for p.matchOp(".") {
		part, err := p.expectName()
		if err != nil {
			return "", err
		}
		name += "." + part
	}
	return name, nil
}

var augAssignOps = map[string]string{
	"+=": "+", "-=": "-", "*=": "*", "/=": "/", "//=": "//", "%=": "%",
	"**=": "**", "<<=": "<<", ">>=": ">>", "&=": "&", "|=": "|", "^=": "^", "@=": "@",
}

// exprStatement parses expression statements and the assignment forms.
func (p *Parser) exprStatement() (Stmt, *SyntaxError) {
	pos := p.peek().Pos
	first, err := p.yieldOrTestList()
	if err != nil {
		return nil, err
	}

	tok := p.peek()
	if tok.Kind != TokenOp {
		return &ExprStmt{Value: first, Pos: pos}, nil
	}

	switch tok.Text {
	case "=":
		exprs := []Expr{first}
		for p.matchOp("=") {
			v, err := p.yieldOrTestList()
			if err != nil {
				return nil, err
			}
			exprs = append(exprs, v)
		}
		return &Assign{Targets: exprs[:len(exprs)-1], Value: exprs[len(exprs)-1], Pos: pos}, nil
	case ":":
		p.advance()
		ann, err := p.test()
		if err != nil {
			return nil, err
		}
		stmt := &AnnAssign{Target: first, Annotation: ann, Pos: pos}
		if p.matchOp("=") {
			if stmt.Value, err = p.yieldOrTestList(); err != nil {
				return nil, err
			}
		}
		return stmt, nil
	}

	if op, ok := augAssignOps[tok.Text]; ok {
		p.advance()
		v, err := p.yieldOrTestList()
		if err != nil {
			return nil, err
		}
		return &AugAssign{Target: first, Op: op, Value: v, Pos: pos}, nil
	}
	return &ExprStmt{Value: first, Pos: pos}, nil
}

func (p *Parser) yieldOrTestList() (Expr, *SyntaxError) {
	if p.checkKw("yield") {
		return p.yieldExpr()
	}
	return p.testListStarExpr()
}

func (p *Parser) yieldExpr() (Expr, *SyntaxError) {
	pos := p.advance().Pos
	if p.matchKw("from") {
		if _, err := p.test(); err != nil {
			return nil, err
		}
	} else if p.startsExpr() {
		if _, err := p.testListStarExpr(); err != nil {
			return nil, err
		}
	}
	return &UnsupportedExpr{What: "yield expression", Pos: pos}, nil
}

// testListStarExpr parses a comma-separated expression list; more than one
// element (or a trailing comma) makes a tuple.
func (p *Parser) testListStarExpr() (Expr, *SyntaxError) {
	pos := p.peek().Pos
	first, err := p.testOrStar()
	if err != nil {
		return nil, err
	}
	if !p.checkOp(",") {
		return first, nil
	}
	elts := []Expr{first}
	for p.matchOp(",") {
		if !p.startsExpr() {
			break
		}
		e, err := p.testOrStar()
		if err != nil {
			return nil, err
		}
		elts = append(elts, e)
	}
	return &TupleExpr{Elts: elts, Pos: pos}, nil
}

func (p *Parser) testOrStar() (Expr, *SyntaxError) {
	if tok := p.peek(); tok.Kind == TokenOp && tok.Text == "*" {
		p.advance()
		if _, err := p.bitOr(); err != nil {
			return nil, err
		}
		return &UnsupportedExpr{What: "starred expression", Pos: tok.Pos}, nil
	}
	return p.test()
}

func (p *Parser) namedExprOrStar() (Expr, *SyntaxError) {
	if p.checkOp("*") {
		return p.testOrStar()
	}
	return p.namedExpr()
}

// namedExpr parses `test [:= test]`.
func (p *Parser) namedExpr() (Expr, *SyntaxError) {
	e, err := p.test()
	if err != nil {
		return nil, err
	}
	if tok := p.peek(); tok.Kind == TokenOp && tok.Text == ":=" {
		p.advance()
		if _, err := p.test(); err != nil {
			return nil, err
		}
		return &UnsupportedExpr{What: "assignment expression", Pos: e.Position()}, nil
	}
	return e, nil
}

// test parses a conditional expression or lambda.
func (p *Parser) test() (Expr, *SyntaxError) {
	if p.checkKw("lambda") {
		return p.lambda()
	}
	body, err := p.orTest()
	if err != nil {
		return nil, err
	}
	if !p.matchKw("if") {
		return body, nil
	}
	cond, err := p.orTest()
	if err != nil {
		return nil, err
	}
	if !p.matchKw("else") {
		return nil, p.errorAt(p.peek(), "expected 'else' in conditional expression")
	}
	orelse, err := p.test()
	if err != nil {
		return nil, err
	}
	return &IfExp{Test: cond, Body: body, Orelse: orelse, Pos: body.Position()}, nil
}

func (p *Parser) lambda() (Expr, *SyntaxError) {
	pos := p.advance().Pos
	if err := p.skipHeader(); err != nil {
		return nil, err
	}
	p.advance() // ':'
	if _, err := p.test(); err != nil {
		return nil, err
	}
	return &UnsupportedExpr{What: "lambda", Pos: pos}, nil
}

func (p *Parser) orTest() (Expr, *SyntaxError) {
	return p.boolChain("or", p.andTest)
}

func (p *Parser) andTest() (Expr, *SyntaxError) {
	return p.boolChain("and", p.notTest)
}

func (p *Parser) boolChain(op string, next func() (Expr, *SyntaxError)) (Expr, *SyntaxError) {
	first, err := next()
	if err != nil {
		return nil, err
	}
	if !p.checkKw(op) {
		return first, nil
	}
	values := []Expr{first}
	for p.matchKw(op) {
		v, err := next()
		if err != nil {
			return nil, err
		}
		values = append(values, v)
	}
	return &BoolOp{Op: op, Values: values, Pos: first.Position()}, nil
}

func (p *Parser) notTest() (Expr, *SyntaxError) {
	if tok := p.peek(); tok.Kind == TokenKeyword && tok.Text == "not" {
		p.advance()
		operand, err := p.notTest()
		if err != nil {
			return nil, err
		}
		return &UnaryOp{Op: "not", Operand: operand, Pos: tok.Pos}, nil
	}
	return p.comparison()
}

func (p *Parser) comparison() (Expr, *SyntaxError) {
	left, err := p.bitOr()
	if err != nil {
		return nil, err
	}
	var ops []string
	var comps []Expr
	for {
		op, ok := p.compOp()
		if !ok {
			break
		}
		right, err := p.bitOr()
		if err != nil {
			return nil, err
		}
		ops = append(ops, op)
		comps = append(comps, right)
	}
	if len(ops) == 0 {
		return left, nil
	}
	return &Compare{Left: left, Ops: ops, Comparators: comps, Pos: left.Position()}, nil
}

func (p *Parser) compOp() (string, bool) {
	tok := p.peek()
	switch tok.Kind {
	case TokenOp:
		switch tok.Text {
		case "<", ">", "==", ">=", "<=", "!=":
			p.advance()
			return tok.Text, true
		}
	case TokenKeyword:
		switch tok.Text {
		case "in":
			p.advance()
			return "in", true
		case "not":
			if next := p.peekAt(1); next.Kind == TokenKeyword && next.Text == "in" {
				p.advance()
				p.advance()
				return "not in", true
			}
		case "is":
			p.advance()
			if p.matchKw("not") {
				return "is not", true
			}
			return "is", true
		}
	}
	return "", false
}

func (p *Parser) bitOr() (Expr, *SyntaxError) {
	return p.binaryLevel(p.bitXor, "|")
}

func (p *Parser) bitXor() (Expr, *SyntaxError) {
	return p.binaryLevel(p.bitAnd, "^")
}

func (p *Parser) bitAnd() (Expr, *SyntaxError) {
	return p.binaryLevel(p.shift, "&")
}

func (p *Parser) shift() (Expr, *SyntaxError) {
	return p.binaryLevel(p.arith, "<<", ">>")
}

func (p *Parser) arith() (Expr, *SyntaxError) {
	return p.binaryLevel(p.term, "+", "-")
}

func (p *Parser) term() (Expr, *SyntaxError) {
	return p.binaryLevel(p.factor, "*", "/", "//", "%", "@")
}

// binaryLevel parses a left-associative chain of the given operators.
func (p *Parser) binaryLevel(next func() (Expr, *SyntaxError), ops ...string) (Expr, *SyntaxError) {
	left, err := next()
	if err != nil {
		return nil, err
	}
	for {
		tok := p.peek()
		if tok.Kind != TokenOp || !contains(ops, tok.Text) {
			return left, nil
		}
		p.advance()
		right, err := next()
		if err != nil {
			return nil, err
		}
		left = &BinOp{Op: tok.Text, Left: left, Right: right, Pos: tok.Pos}
	}
}

func (p *Parser) factor() (Expr, *SyntaxError) {
	tok := p.peek()
	if tok.Kind == TokenOp && (tok.Text == "-" || tok.Text == "+" || tok.Text == "~") {
		p.advance()
		operand, err := p.factor()
		if err != nil {
			return nil, err
		}
		return &UnaryOp{Op: tok.Text, Operand: operand, Pos: tok.Pos}, nil
	}
	return p.power()
}

func (p *Parser) power() (Expr, *SyntaxError) {
	var base Expr
	if tok := p.peek(); tok.Kind == TokenKeyword && tok.Text == "await" {
		p.advance()
		if _, err := p.primary(); err != nil {
			return nil, err
		}
		base = &UnsupportedExpr{What: "await expression", Pos: tok.Pos}
	} else {
		var err *SyntaxError
		if base, err = p.primary(); err != nil {
			return nil, err
		}
	}
	if tok := p.peek(); tok.Kind == TokenOp && tok.Text == "**" {
		p.advance()
		exp, err := p.factor()
		if err != nil {
			return nil, err
		}
		return &BinOp{Op: "**", Left: base, Right: exp, Pos: tok.Pos}, nil
	}
	return base, nil
}

// primary parses an atom followed by call, subscript and attribute trailers.
func (p *Parser) primary() (Expr, *SyntaxError) {
	e, err := p.atom()
	if err != nil {
		return nil, err
	}
	for {
		tok := p.peek()
		if tok.Kind != TokenOp {
			return e, nil
		}
		switch tok.Text {
		case "(":
			p.advance()
			args, kws, err := p.arguments()
			if err != nil {
				return nil, err
			}
			e = &Call{Func: e, Args: args, Keywords: kws, Pos: e.Position()}
		case "[":
			p.advance()
			index, err := p.subscriptList()
			if err != nil {
				return nil, err
			}
			e = &Subscript{Value: e, Index: index, Pos: e.Position()}
		case ".":
			p.advance()
			name, err := p.expectName()
			if err != nil {
				return nil, err
			}
			e = &Attribute{Value: e, Attr: name, Pos: e.Position()}
		default:
			return e, nil
		}
	}
}

// arguments parses call arguments after '(' through the closing ')'.
func (p *Parser) arguments() ([]Expr, []Keyword, *SyntaxError) {
	var args []Expr
	var kws []Keyword
	for !p.checkOp(")") {
		tok := p.peek()
		switch {
		case tok.Kind == TokenOp && (tok.Text == "*" || tok.Text == "**"):
			p.advance()
			if _, err := p.test(); err != nil {
				return nil, nil, err
			}
			what := "starred argument"
			if tok.Text == "**" {
				what = "keyword argument unpacking"
			}
			args = append(args, &UnsupportedExpr{What: what, Pos: tok.Pos})
		case tok.Kind == TokenName && p.peekAt(1).Kind == TokenOp && p.peekAt(1).Text == "=":
			p.advance()
			p.advance()
			v, err := p.test()
			if err != nil {
				return nil, nil, err
			}
			kws = append(kws, Keyword{Name: tok.Text, Value: v, Pos: tok.Pos})
		default:
			a, err := p.namedExpr()
			if err != nil {
				return nil, nil, err
			}
			if p.checkKw("for") || p.checkKw("async") {
				if err := p.compFor(); err != nil {
					return nil, nil, err
				}
				a = &UnsupportedExpr{What: "generator expression", Pos: a.Position()}
			}
			args = append(args, a)
		}
		if !p.matchOp(",") {
			break
		}
	}
	if err := p.expectOp(")"); err != nil {
		return nil, nil, err
	}
	return args, kws, nil
}

// subscriptList parses the index after '[' through the closing ']'.
func (p *Parser) subscriptList() (Expr, *SyntaxError) {
	pos := p.peek().Pos
	first, err := p.subscriptItem()
	if err != nil {
		return nil, err
	}
	index := first
	if p.checkOp(",") {
		elts := []Expr{first}
		for p.matchOp(",") {
			if p.checkOp("]") {
				break
			}
			e, err := p.subscriptItem()
			if err != nil {
				return nil, err
			}
			elts = append(elts, e)
		}
		index = &TupleExpr{Elts: elts, Pos: pos}
	}
	if err := p.expectOp("]"); err != nil {
		return nil, err
	}
	return index, nil
}

func (p *Parser) subscriptItem() (Expr, *SyntaxError) {
	pos := p.peek().Pos
	var lower Expr
	if !p.checkOp(":") {
		var err *SyntaxError
		if lower, err = p.namedExprOrStar(); err != nil {
			return nil, err
		}
		if !p.checkOp(":") {
			return lower, nil
		}
	}
	p.advance() // ':'
	if p.startsExpr() {
		if _, err := p.test(); err != nil {
			return nil, err
		}
	}
	if p.matchOp(":") && p.startsExpr() {
		if _, err := p.test(); err != nil {
			return nil, err
		}
	}
	return &UnsupportedExpr{What: "slice", Pos: pos}, nil
}

func (p *Parser) atom() (Expr, *SyntaxError) {
	tok := p.peek()
	switch tok.Kind {
	case TokenName:
		p.advance()
		return &Name{ID: tok.Text, Pos: tok.Pos}, nil
	case TokenInt:
		p.advance()
		return &IntLit{Value: tok.Value, Pos: tok.Pos}, nil
	case TokenFloat:
		p.advance()
		return &UnsupportedExpr{What: "float literal " + tok.Text, Pos: tok.Pos}, nil
	case TokenString:
		return p.stringLit()
	case TokenKeyword:
		switch tok.Text {
		case "None":
			p.advance()
			return &NoneLit{Pos: tok.Pos}, nil
		case "True", "False":
			p.advance()
			return &BoolLit{Value: tok.Text == "True", Pos: tok.Pos}, nil
		}
	case TokenOp:
		switch tok.Text {
		case "(":
			return p.parenAtom()
		case "[":
			return p.listAtom()
		case "{":
			return p.braceAtom()
		case "...":
			p.advance()
			return &UnsupportedExpr{What: "ellipsis", Pos: tok.Pos}, nil
		}
	}
	return nil, p.errorAt(tok, "invalid syntax: unexpected %s", tok)
}

// stringLit concatenates adjacent string literals.
func (p *Parser) stringLit() (Expr, *SyntaxError) {
	first := p.peek()
	var sb strings.Builder
	formatted := false
	for p.check(TokenString) {
		tok := p.advance()
		if tok.Bytes != first.Bytes {
			return nil, p.errorAt(tok, "cannot mix bytes and nonbytes literals")
		}
		formatted = formatted || tok.Fmt
		sb.WriteString(tok.Value)
	}
	if formatted {
		return &UnsupportedExpr{What: "f-string", Pos: first.Pos}, nil
	}
	return &StrLit{Value: sb.String(), Bytes: first.Bytes, Pos: first.Pos}, nil
}

func (p *Parser) parenAtom() (Expr, *SyntaxError) {
	pos := p.advance().Pos
	if p.matchOp(")") {
		return &TupleExpr{Pos: pos}, nil
	}
	if p.checkKw("yield") {
		y, err := p.yieldExpr()
		if err != nil {
			return nil, err
		}
		return y, p.expectOp(")")
	}
	first, err := p.namedExprOrStar()
	if err != nil {
		return nil, err
	}
	if p.checkKw("for") || p.checkKw("async") {
		if err := p.compFor(); err != nil {
			return nil, err
		}
		if err := p.expectOp(")"); err != nil {
			return nil, err
		}
		return &UnsupportedExpr{What: "generator expression", Pos: pos}, nil
	}
	if p.matchOp(")") {
		return first, nil
	}
	elts, err := p.displayTail(first, ")")
	if err != nil {
		return nil, err
	}
	return &TupleExpr{Elts: elts, Pos: pos}, nil
}

func (p *Parser) listAtom() (Expr, *SyntaxError) {
	pos := p.advance().Pos
	if p.matchOp("]") {
		return &ListExpr{Pos: pos}, nil
	}
	first, err := p.namedExprOrStar()
	if err != nil {
		return nil, err
	}
	if p.checkKw("for") || p.checkKw("async") {
		if err := p.compFor(); err != nil {
			return nil, err
		}
		if err := p.expectOp("]"); err != nil {
			return nil, err
		}
		return &UnsupportedExpr{What: "list comprehension", Pos: pos}, nil
	}
	if p.matchOp("]") {
		return &ListExpr{Elts: []Expr{first}, Pos: pos}, nil
	}
	elts, err := p.displayTail(first, "]")
	if err != nil {
		return nil, err
	}
	return &ListExpr{Elts: elts, Pos: pos}, nil
}

// displayTail parses `(, item)* [,] close` after the first item.
func (p *Parser) displayTail(first Expr, close string) ([]Expr, *SyntaxError) {
	elts := []Expr{first}
	for p.matchOp(",") {
		if p.checkOp(close) {
			break
		}
		e, err := p.namedExprOrStar()
		if err != nil {
			return nil, err
		}
		elts = append(elts, e)
	}
	if err := p.expectOp(close); err != nil {
		return nil, err
	}
	return elts, nil
}

// braceAtom parses dict and set displays and comprehensions, none of which
// translate.
func (p *Parser) braceAtom() (Expr, *SyntaxError) {
	pos := p.advance().Pos
	what := "dict display"
	if p.matchOp("}") {
		return &UnsupportedExpr{What: what, Pos: pos}, nil
	}

	isDict, err := p.braceItem(true, false)
	if err != nil {
		return nil, err
	}
	if !isDict {
		what = "set display"
	}
	if p.checkKw("for") || p.checkKw("async") {
		if err := p.compFor(); err != nil {
			return nil, err
		}
		if err := p.expectOp("}"); err != nil {
			return nil, err
		}
		return &UnsupportedExpr{What: strings.Fields(what)[0] + " comprehension", Pos: pos}, nil
	}
	for p.matchOp(",") {
		if p.checkOp("}") {
			break
		}
		if _, err := p.braceItem(false, isDict); err != nil {
			return nil, err
		}
	}
	if err := p.expectOp("}"); err != nil {
		return nil, err
	}
	return &UnsupportedExpr{What: what, Pos: pos}, nil
}

// braceItem parses one dict entry or set element and reports whether it was
// a dict entry. When first is false, dict decides the expected form.
func (p *Parser) braceItem(first, dict bool) (bool, *SyntaxError) {
	if p.matchOp("**") {
		_, err := p.bitOr()
		return true, err
	}
	if _, err := p.namedExprOrStar(); err != nil {
		return false, err
	}
	if (first || dict) && p.matchOp(":") {
		_, err := p.test()
		return true, err
	}
	if dict {
		return true, p.errorAt(p.peek(), "expected ':' in dict display")
	}
	return false, nil
}

// compFor consumes the `for ... in ... [if ...]` clauses of a comprehension.
func (p *Parser) compFor() *SyntaxError {
	for p.checkKw("for") || p.checkKw("async") {
		p.matchKw("async")
		if !p.matchKw("for") {
			return p.errorAt(p.peek(), "expected 'for'")
		}
		for {
			p.matchOp("*") // starred target
			if _, err := p.bitOr(); err != nil {
				return err
			}
			if !p.matchOp(",") || p.checkKw("in") {
				break
			}
		}
		if !p.matchKw("in") {
			return p.errorAt(p.peek(), "expected 'in'")
		}
		if _, err := p.orTest(); err != nil {
			return err
		}
		for p.matchKw("if") {
			if _, err := p.orTest(); err != nil {
				return err
			}
		}
	}
	return nil
}

// startsExpr reports whether the current token can begin an expression.
func (p *Parser) startsExpr() bool {
	tok := p.peek()
	switch tok.Kind {
	case TokenName, TokenInt, TokenFloat, TokenString:
		return true
	case TokenKeyword:
		switch tok.Text {
		case "not", "lambda", "None", "True", "False", "await", "yield":
			return true
		}
	case TokenOp:
		switch tok.Text {
		case "(", "[", "{", "-", "+", "~", "*", "...":
			return true
		}
	}
	return false
}

// Token helpers.

func (p *Parser) peek() Token {
	return p.tokens[p.current]
}

func (p *Parser) peekAt(n int) Token {
	if p.current+n >= len(p.tokens) {
		return p.tokens[len(p.tokens)-1]
	}
	return p.tokens[p.current+n]
}

func (p *Parser) advance() Token {
	tok := p.tokens[p.current]
	if !p.isAtEnd() {
		p.current++
	}
	return tok
}

func (p *Parser) isAtEnd() bool {
	return p.peek().Kind == TokenEOF
}

func (p *Parser) check(kind TokenKind) bool {
	return p.peek().Kind == kind
}

func (p *Parser) match(kind TokenKind) bool {
	if p.check(kind) {
		p.advance()
		return true
	}
	return false
}

func (p *Parser) checkOp(op string) bool {
	tok := p.peek()
	return tok.Kind == TokenOp && tok.Text == op
}

func (p *Parser) matchOp(op string) bool {
	if p.checkOp(op) {
		p.advance()
		return true
	}
	return false
}

func (p *Parser) checkKw(kw string) bool {
	tok := p.peek()
	return tok.Kind == TokenKeyword && tok.Text == kw
}

func (p *Parser) matchKw(kw string) bool {
	if p.checkKw(kw) {
		p.advance()
		return true
	}
	return false
}

func (p *Parser) expectOp(op string) *SyntaxError {
	if p.matchOp(op) {
		return nil
	}
	return p.errorAt(p.peek(), "expected %q, found %s", op, p.peek())
}

func (p *Parser) expectName() (string, *SyntaxError) {
	if p.check(TokenName) {
		return p.advance().Text, nil
	}
	return "", p.errorAt(p.peek(), "expected name, found %s", p.peek())
}

func (p *Parser) errorAt(tok Token, format string, args ...any) *SyntaxError {
	return newSyntaxError(tok.Pos, p.source, format, args...)
}

func contains(list []string, s string) bool {
	for _, x := range list {
		if x == s {
			return true
		}
	}
	return false
}
