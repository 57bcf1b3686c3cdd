// Copyright 2025 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package syntax

// Parse builds a CST for source. It never fails: invalid or truncated
// input still yields a "file" node, with the unparseable spans wrapped
// in "error" nodes so indexing can proceed on the rest (spec.md §4.A,
// §8 property 6 — parser totality).
func Parse(source string) *Node {
	toks := lex(source)
	p := &parser{src: source, toks: toks}
	return p.parseFile()
}

type parser struct {
	src  string
	toks []token
	pos  int
}

func (p *parser) cur() token {
	i := p.pos
	for i < len(p.toks) && p.toks[i].kind == tokComment {
		i++
	}
	if i >= len(p.toks) {
		return p.toks[len(p.toks)-1]
	}
	return p.toks[i]
}

func (p *parser) at(kind tokenKind) bool { return p.cur().kind == kind }

func (p *parser) atKeyword(kw string) bool {
	t := p.cur()
	return t.kind == tokKeyword && t.text == kw
}

func (p *parser) atOp(op string) bool {
	t := p.cur()
	return t.kind == tokOperator && t.text == op
}

// advance skips any leading comments then returns and consumes the
// current significant token.
func (p *parser) advance() token {
	for p.toks[p.pos].kind == tokComment {
		p.pos++
	}
	t := p.toks[p.pos]
	if t.kind != tokEOF {
		p.pos++
	}
	return t
}

func (p *parser) leaf(kind string, t token) *Node {
	return NewLeaf(kind, t.start, t.end, t.text)
}

func (p *parser) here() Position { return p.cur().start }

// recoverToTopLevel advances past tokens until one at column 1 that starts a
// new top-level declaration, or EOF — the synchronization point for
// top-level recovery.
func (p *parser) recoverToTopLevel() []*Node {
	var skipped []*Node
	for {
		t := p.cur()
		if t.kind == tokEOF {
			break
		}
		if t.start.Column == 1 && (t.kind == tokLowerIdent || t.kind == tokUpperIdent || (t.kind == tokKeyword && (t.text == "type" || t.text == "port"))) {
			break
		}
		skipped = append(skipped, p.leaf("error-token", p.advance()))
	}
	return skipped
}

func (p *parser) parseFile() *Node {
	var children []*Node

	if p.atKeyword("module") || p.atKeyword("port") {
		children = append(children, p.parseModuleHeader())
	}

	for p.atKeyword("import") {
		children = append(children, p.parseImport())
	}

	for !p.at(tokEOF) {
		start := p.here()
		// A declaration ends before the next token that starts at column 1.
		end := p.significantIndex(p.pos) + 1
		for end < len(p.toks)-1 && (p.toks[end].start.Column != 1 || p.toks[end].kind == tokComment) {
			end++
		}
		sub := &parser{src: p.src, toks: append(p.toks[p.pos:end:end], token{kind: tokEOF, start: p.toks[end].start, end: p.toks[end].start})}
		decl := sub.parseDeclaration()
		p.pos += sub.pos
		if decl == nil {
			skipped := p.recoverToTopLevel()
			if len(skipped) == 0 {
				// Made no progress; force one token to avoid looping.
				skipped = []*Node{p.leaf("error-token", p.advance())}
			}
			children = append(children, NewError(start, p.here(), skipped))
			continue
		}
		// A signature's equation starts its own column-1 line; join the two.
		if n := len(children) - 1; n >= 0 && children[n].Kind() == "function-declaration" && len(children[n].Children()) == 1 && children[n].Child(0).Kind() == "type-signature" && decl.ChildOfKind("name") != nil && decl.ChildOfKind("name").Text() == children[n].Child(0).Child(0).Text() {
			children[n] = NewInterior("function-declaration", append(children[n].Children(), decl.Children()...))
			continue
		}
		children = append(children, decl)
	}

	return NewInterior("file", children)
}

// --- module header / imports / exposing ---

func (p *parser) parseModuleHeader() *Node {
	var children []*Node
	if p.atKeyword("port") {
		children = append(children, p.leaf("port-keyword", p.advance()))
	}
	if p.atKeyword("module") {
		children = append(children, p.leaf("keyword", p.advance()))
	}
	children = append(children, p.parseModuleName())
	if p.atKeyword("exposing") {
		children = append(children, p.leaf("keyword", p.advance()))
		children = append(children, p.parseExposingList())
	}
	return NewInterior("module-header", children)
}

func (p *parser) parseModuleName() *Node {
	var parts []*Node
	for p.at(tokUpperIdent) {
		parts = append(parts, p.leaf("module-name-part", p.advance()))
		if p.at(tokDot) {
			p.advance()
			continue
		}
		break
	}
	return NewInterior("module-name", parts)
}

func (p *parser) parseExposingList() *Node {
	var children []*Node
	if p.at(tokLParen) {
		children = append(children, p.leaf("punct", p.advance()))
		for !p.at(tokRParen) && !p.at(tokEOF) {
			if p.at(tokDotDot) {
				children = append(children, p.leaf("exposing-all", p.advance()))
			} else if p.at(tokLowerIdent) || p.at(tokUpperIdent) || p.at(tokOperator) {
				item := p.leaf("exposing-item", p.advance())
				if p.at(tokLParen) {
					p.advance()
					var inner []*Node
					if p.at(tokDotDot) {
						inner = append(inner, p.leaf("exposing-all", p.advance()))
					}
					if p.at(tokRParen) {
						p.advance()
					}
					item = NewInterior("exposing-item", append([]*Node{item}, inner...))
				}
				children = append(children, item)
			} else {
				children = append(children, p.leaf("error-token", p.advance()))
			}
			if p.at(tokComma) {
				p.advance()
			}
		}
		if p.at(tokRParen) {
			children = append(children, p.leaf("punct", p.advance()))
		}
	}
	return NewInterior("exposing-list", children)
}

func (p *parser) parseImport() *Node {
	var children []*Node
	children = append(children, p.leaf("keyword", p.advance())) // "import"
	children = append(children, p.parseModuleName())
	if p.atKeyword("as") {
		children = append(children, p.leaf("keyword", p.advance()))
		if p.at(tokUpperIdent) {
			children = append(children, p.leaf("import-alias", p.advance()))
		}
	}
	if p.atKeyword("exposing") {
		children = append(children, p.leaf("keyword", p.advance()))
		children = append(children, p.parseExposingList())
	}
	return NewInterior("import", children)
}

// --- top-level declarations ---

func (p *parser) parseDeclaration() *Node {
	switch {
	case p.atKeyword("port"):
		return p.parsePortDeclaration()
	case p.atKeyword("type"):
		return p.parseTypeDeclaration()
	case p.at(tokLowerIdent):
		return p.parseFunctionDeclaration()
	default:
		return nil
	}
}

func (p *parser) parsePortDeclaration() *Node {
	var children []*Node
	children = append(children, p.leaf("keyword", p.advance()))
	if p.at(tokLowerIdent) {
		children = append(children, p.leaf("name", p.advance()))
	}
	if p.at(tokColon) {
		p.advance()
		children = append(children, p.parseTypeExpr())
	}
	return NewInterior("port-declaration", children)
}

func (p *parser) parseTypeDeclaration() *Node {
	start := p.here()
	children := []*Node{p.leaf("keyword", p.advance())} // "type"

	isAlias := false
	if p.atKeyword("alias") {
		isAlias = true
		children = append(children, p.leaf("keyword", p.advance()))
	}

	if p.at(tokUpperIdent) {
		children = append(children, p.leaf("name", p.advance()))
	}
	for p.at(tokLowerIdent) {
		children = append(children, p.leaf("type-param", p.advance()))
	}

	if !p.at(tokEquals) {
		return NewError(start, p.here(), children)
	}
	children = append(children, p.leaf("punct", p.advance()))

	if isAlias {
		children = append(children, p.parseTypeExpr())
		return NewInterior("type-alias-declaration", children)
	}

	children = append(children, p.parseVariant())
	for p.at(tokPipe) {
		children = append(children, p.leaf("punct", p.advance()))
		children = append(children, p.parseVariant())
	}
	return NewInterior("type-declaration", children)
}

func (p *parser) parseVariant() *Node {
	var children []*Node
	if p.at(tokUpperIdent) {
		children = append(children, p.leaf("variant-name", p.advance()))
	}
	for p.isTypeAtomStart() {
		children = append(children, p.parseTypeExprAtom())
	}
	return NewInterior("variant", children)
}

func (p *parser) parseFunctionDeclaration() *Node {
	start := p.here()
	nameTok := p.cur()

	// Optional type signature: "name : Type" on its own logical line,
	// immediately followed by the equation "name pattern* = expr".
	if p.toks[p.afterIdentPos()].kind == tokColon {
		sigName := p.leaf("name", p.advance())
		colon := p.leaf("punct", p.advance())
		typeExpr := p.parseTypeExpr()
		sig := NewInterior("type-signature", []*Node{sigName, colon, typeExpr})

		if p.at(tokLowerIdent) && p.cur().text == sigName.Text() {
			eq := p.parseEquation(sigName.Text())
			return NewInterior("function-declaration", append([]*Node{sig}, eq.children...))
		}
		return NewInterior("function-declaration", []*Node{sig})
	}

	if !p.at(tokLowerIdent) {
		_ = nameTok
		return NewError(start, p.here(), nil)
	}
	return p.parseEquation(p.cur().text)
}

// significantIndex returns the first index >= from whose token is not
// a comment.
func (p *parser) significantIndex(from int) int {
	i := from
	for i < len(p.toks) && p.toks[i].kind == tokComment {
		i++
	}
	if i >= len(p.toks) {
		return len(p.toks) - 1
	}
	return i
}

// afterIdentPos returns the token index right after the current
// token, skipping embedded comments, used to peek at what follows
// without consuming input.
func (p *parser) afterIdentPos() int {
	i := p.significantIndex(p.pos)
	i++
	return p.significantIndex(i)
}

func (p *parser) parseEquation(name string) *Node {
	var children []*Node
	children = append(children, p.leaf("name", p.advance()))
	for p.isPatternStart() {
		children = append(children, p.parsePattern())
	}
	if p.at(tokEquals) {
		children = append(children, p.leaf("punct", p.advance()))
		children = append(children, p.parseExpr())
	}
	return NewInterior("function-declaration", children)
}

// --- type expressions ---

func (p *parser) isTypeAtomStart() bool {
	switch p.cur().kind {
	case tokUpperIdent, tokLowerIdent, tokLParen, tokLBrace:
		return true
	}
	return false
}

func (p *parser) parseTypeExpr() *Node {
	first := p.parseTypeApp()
	if !p.at(tokArrow) {
		return first
	}
	children := []*Node{first}
	for p.at(tokArrow) {
		children = append(children, p.leaf("punct", p.advance()))
		children = append(children, p.parseTypeApp())
	}
	return NewInterior("type-function", children)
}

func (p *parser) parseTypeApp() *Node {
	head := p.parseTypeExprAtom()
	if !p.isTypeAtomStart() {
		return head
	}
	children := []*Node{head}
	for p.isTypeAtomStart() {
		children = append(children, p.parseTypeExprAtom())
	}
	return NewInterior("type-application", children)
}

func (p *parser) parseTypeExprAtom() *Node {
	switch {
	case p.at(tokUpperIdent):
		t := p.advance()
		node := p.leaf("type-name", t)
		for p.at(tokDot) && p.toks[p.afterDotPos()].kind == tokUpperIdent {
			p.advance() // dot
			node = NewInterior("qualified-type-name", []*Node{node, p.leaf("type-name", p.advance())})
		}
		return node
	case p.at(tokLowerIdent):
		return p.leaf("type-var", p.advance())
	case p.at(tokLParen):
		start := p.here()
		p.advance()
		if p.at(tokRParen) {
			p.advance()
			return NewLeaf("unit-type", start, p.here(), "()")
		}
		inner := p.parseTypeExpr()
		children := []*Node{inner}
		for p.at(tokComma) {
			p.advance()
			children = append(children, p.parseTypeExpr())
		}
		if p.at(tokRParen) {
			p.advance()
		}
		if len(children) == 1 {
			return children[0]
		}
		return NewInterior("tuple-type", children)
	case p.at(tokLBrace):
		return p.parseRecordType()
	default:
		return NewError(p.here(), p.here(), nil)
	}
}

func (p *parser) afterDotPos() int {
	i := p.significantIndex(p.pos)
	i++
	return p.significantIndex(i)
}

func (p *parser) parseRecordType() *Node {
	var children []*Node
	children = append(children, p.leaf("punct", p.advance())) // {
	if p.at(tokLowerIdent) && p.toks[p.afterIdentPos()].kind == tokPipe {
		children = append(children, p.leaf("record-base", p.advance()))
		children = append(children, p.leaf("punct", p.advance())) // |
	}
	for !p.at(tokRBrace) && !p.at(tokEOF) {
		children = append(children, p.parseFieldType())
		if p.at(tokComma) {
			p.advance()
		}
	}
	if p.at(tokRBrace) {
		children = append(children, p.leaf("punct", p.advance()))
	}
	return NewInterior("record-type", children)
}

func (p *parser) parseFieldType() *Node {
	var children []*Node
	if p.at(tokLowerIdent) {
		children = append(children, p.leaf("field-name", p.advance()))
	}
	if p.at(tokColon) {
		children = append(children, p.leaf("punct", p.advance()))
		children = append(children, p.parseTypeExpr())
	}
	return NewInterior("field-type", children)
}

// --- patterns ---

func (p *parser) isPatternStart() bool {
	switch p.cur().kind {
	case tokLowerIdent, tokUpperIdent, tokUnderscore, tokLParen, tokLBrace, tokLBracket, tokNumber, tokString, tokChar:
		return true
	}
	return false
}

func (p *parser) parsePattern() *Node {
	base := p.parsePatternAtom()
	if p.atKeyword("as") {
		p.advance()
		if p.at(tokLowerIdent) {
			alias := p.leaf("pattern-alias", p.advance())
			return NewInterior("pattern-as", []*Node{base, alias})
		}
	}
	return base
}

func (p *parser) parsePatternAtom() *Node {
	switch {
	case p.at(tokUnderscore):
		return p.leaf("wildcard-pattern", p.advance())
	case p.at(tokLowerIdent):
		return p.leaf("variable-pattern", p.advance())
	case p.at(tokUpperIdent):
		ctor := p.leaf("constructor-pattern-name", p.advance())
		var args []*Node
		for p.isPatternAtomArgStart() {
			if p.at(tokUpperIdent) {
				// a bare nested constructor takes no arguments of its own
				args = append(args, NewInterior("constructor-pattern", []*Node{p.leaf("constructor-pattern-name", p.advance())}))
				continue
			}
			args = append(args, p.parsePatternAtom())
		}
		return NewInterior("constructor-pattern", append([]*Node{ctor}, args...))
	case p.at(tokLParen):
		p.advance()
		if p.at(tokRParen) {
			start := p.here()
			p.advance()
			return NewLeaf("unit-pattern", start, p.here(), "()")
		}
		inner := p.parsePattern()
		children := []*Node{inner}
		for p.at(tokComma) {
			p.advance()
			children = append(children, p.parsePattern())
		}
		if p.at(tokRParen) {
			p.advance()
		}
		if len(children) == 1 {
			return children[0]
		}
		return NewInterior("tuple-pattern", children)
	case p.at(tokLBrace):
		return p.parseRecordPattern()
	case p.at(tokLBracket):
		return p.parseListPattern()
	case p.at(tokNumber):
		return p.leaf("literal-pattern", p.advance())
	case p.at(tokString):
		return p.leaf("literal-pattern", p.advance())
	case p.at(tokChar):
		return p.leaf("literal-pattern", p.advance())
	default:
		return NewError(p.here(), p.here(), nil)
	}
}

// isPatternAtomArgStart accepts the same tokens as isPatternStart. A
// bare UpperIdent nested as a constructor-pattern argument is parsed
// by parsePatternAtom as a constructor with no arguments, so it does
// not swallow further arguments meant for the outer constructor;
// multi-arg nested constructors require parens, as Elm's own grammar
// requires "(Just x)" as an argument pattern.
func (p *parser) isPatternAtomArgStart() bool {
	switch p.cur().kind {
	case tokLowerIdent, tokUnderscore, tokLParen, tokLBrace, tokLBracket, tokNumber, tokString, tokChar:
		return true
	case tokUpperIdent:
		return true
	}
	return false
}

func (p *parser) parseRecordPattern() *Node {
	var children []*Node
	children = append(children, p.leaf("punct", p.advance())) // {
	for !p.at(tokRBrace) && !p.at(tokEOF) {
		if p.at(tokLowerIdent) {
			children = append(children, p.leaf("field-pattern", p.advance()))
		} else {
			children = append(children, p.leaf("error-token", p.advance()))
		}
		if p.at(tokComma) {
			p.advance()
		}
	}
	if p.at(tokRBrace) {
		children = append(children, p.leaf("punct", p.advance()))
	}
	return NewInterior("record-destructure-pattern", children)
}

func (p *parser) parseListPattern() *Node {
	var children []*Node
	children = append(children, p.leaf("punct", p.advance())) // [
	for !p.at(tokRBracket) && !p.at(tokEOF) {
		children = append(children, p.parsePattern())
		if p.at(tokComma) {
			p.advance()
		}
	}
	if p.at(tokRBracket) {
		children = append(children, p.leaf("punct", p.advance()))
	}
	return NewInterior("list-pattern", children)
}

// --- expressions ---

func (p *parser) parseExpr() *Node {
	switch {
	case p.atKeyword("let"):
		return p.parseLetIn()
	case p.atKeyword("if"):
		return p.parseIf()
	case p.atKeyword("case"):
		return p.parseCaseOf()
	case p.at(tokBackslash):
		return p.parseLambda()
	default:
		return p.parseOperatorChain()
	}
}

func (p *parser) parseLetIn() *Node {
	children := []*Node{p.leaf("keyword", p.advance())} // "let"
	for p.isPatternStart() && !p.atKeyword("in") {
		decl := p.parseLetDeclaration()
		if decl == nil {
			break
		}
		children = append(children, decl)
	}
	if p.atKeyword("in") {
		children = append(children, p.leaf("keyword", p.advance()))
	}
	children = append(children, p.parseExpr())
	return NewInterior("let-in", children)
}

// parseLetDeclaration is parseDeclaration widened to also accept a
// destructuring pattern binding ("{ x, y } = point", "(a, b) = pair"),
// which is valid inside a let but not as a top-level declaration.
func (p *parser) parseLetDeclaration() *Node {
	if p.atKeyword("type") || p.atKeyword("port") || p.at(tokLowerIdent) {
		return p.parseDeclaration()
	}
	start := p.here()
	pat := p.parsePattern()
	children := []*Node{pat}
	if p.at(tokEquals) {
		children = append(children, p.leaf("punct", p.advance()))
		children = append(children, p.parseExpr())
	} else {
		return NewError(start, p.here(), children)
	}
	return NewInterior("pattern-binding", children)
}

func (p *parser) parseIf() *Node {
	children := []*Node{p.leaf("keyword", p.advance())} // "if"
	children = append(children, p.parseExpr())
	if p.atKeyword("then") {
		children = append(children, p.leaf("keyword", p.advance()))
	}
	children = append(children, p.parseExpr())
	if p.atKeyword("else") {
		children = append(children, p.leaf("keyword", p.advance()))
	}
	children = append(children, p.parseExpr())
	return NewInterior("if-then-else", children)
}

func (p *parser) parseCaseOf() *Node {
	children := []*Node{p.leaf("keyword", p.advance())} // "case"
	children = append(children, p.parseExpr())
	if p.atKeyword("of") {
		children = append(children, p.leaf("keyword", p.advance()))
	}
	for p.isPatternStart() {
		children = append(children, p.parseCaseBranch())
	}
	return NewInterior("case-of", children)
}

func (p *parser) parseCaseBranch() *Node {
	pat := p.parsePattern()
	children := []*Node{pat}
	if p.at(tokArrow) {
		children = append(children, p.leaf("punct", p.advance()))
		children = append(children, p.parseExpr())
	}
	return NewInterior("case-branch", children)
}

func (p *parser) parseLambda() *Node {
	children := []*Node{p.leaf("punct", p.advance())} // backslash
	for p.isPatternStart() {
		children = append(children, p.parsePattern())
	}
	if p.at(tokArrow) {
		children = append(children, p.leaf("punct", p.advance()))
	}
	children = append(children, p.parseExpr())
	return NewInterior("lambda", children)
}

// parseOperatorChain parses a flat sequence of applications separated
// by infix operators. Precedence is not modeled — every operator use
// in the target language is fixity-configurable at the source level,
// and nothing in this engine evaluates expressions, so a flat
// left-to-right chain is sufficient for every reference/refactor query
// that walks through it.
func (p *parser) parseOperatorChain() *Node {
	first := p.parseApplication()
	if !p.at(tokOperator) {
		return first
	}
	children := []*Node{first}
	for p.at(tokOperator) {
		children = append(children, p.leaf("operator", p.advance()))
		children = append(children, p.parseApplication())
	}
	return NewInterior("binop-chain", children)
}

func (p *parser) parseApplication() *Node {
	head := p.parseFieldAccessChain()
	if !p.isAppArgStart() {
		return head
	}
	children := []*Node{head}
	for p.isAppArgStart() {
		children = append(children, p.parseFieldAccessChain())
	}
	return NewInterior("apply", children)
}

func (p *parser) isAppArgStart() bool {
	// "if"/"case"/"let"/lambda are not valid bare application arguments
	// in this language's grammar (they require enclosing parens), so
	// they are deliberately absent here — treating them as an argument
	// start would misparse the next top-level binding as a trailing
	// application argument under a malformed layout.
	switch p.cur().kind {
	case tokLowerIdent, tokUpperIdent, tokNumber, tokString, tokChar, tokLParen, tokLBrace, tokLBracket, tokUnderscore:
		return true
	}
	return false
}

func (p *parser) parseFieldAccessChain() *Node {
	base := p.parsePrimary()
	for p.at(tokDot) && p.toks[p.afterDotPos()].kind == tokLowerIdent {
		p.advance() // dot
		field := p.leaf("field-name", p.advance())
		base = NewInterior("field-access", []*Node{base, field})
	}
	return base
}

func (p *parser) parsePrimary() *Node {
	switch {
	case p.at(tokLowerIdent):
		return p.leaf("value-reference", p.advance())
	case p.at(tokUpperIdent):
		node := p.leaf("constructor-reference", p.advance())
		for p.at(tokDot) && (p.toks[p.afterDotPos()].kind == tokUpperIdent || p.toks[p.afterDotPos()].kind == tokLowerIdent) {
			p.advance()
			if p.at(tokUpperIdent) {
				node = NewInterior("qualified-reference", []*Node{node, p.leaf("constructor-reference", p.advance())})
			} else {
				node = NewInterior("qualified-reference", []*Node{node, p.leaf("value-reference", p.advance())})
			}
		}
		return node
	case p.at(tokNumber), p.at(tokString), p.at(tokChar):
		return p.leaf("literal", p.advance())
	case p.at(tokLParen):
		return p.parseParenExpr()
	case p.at(tokLBracket):
		return p.parseListLiteral()
	case p.at(tokLBrace):
		return p.parseRecordExprOrUpdate()
	default:
		return NewError(p.here(), p.here(), nil)
	}
}

func (p *parser) parseParenExpr() *Node {
	p.advance() // (
	if p.at(tokRParen) {
		start := p.here()
		p.advance()
		return NewLeaf("unit-expr", start, p.here(), "()")
	}
	if p.at(tokOperator) {
		// operator section, e.g. "(+)"
		op := p.leaf("operator-reference", p.advance())
		if p.at(tokRParen) {
			p.advance()
		}
		return op
	}
	first := p.parseExpr()
	children := []*Node{first}
	for p.at(tokComma) {
		p.advance()
		children = append(children, p.parseExpr())
	}
	if p.at(tokRParen) {
		p.advance()
	}
	if len(children) == 1 {
		return NewInterior("parenthesized", children)
	}
	return NewInterior("tuple-expr", children)
}

func (p *parser) parseListLiteral() *Node {
	var children []*Node
	children = append(children, p.leaf("punct", p.advance())) // [
	for !p.at(tokRBracket) && !p.at(tokEOF) {
		children = append(children, p.parseExpr())
		if p.at(tokComma) {
			p.advance()
		}
	}
	if p.at(tokRBracket) {
		children = append(children, p.leaf("punct", p.advance()))
	}
	return NewInterior("list-literal", children)
}

// parseRecordExprOrUpdate handles both "{ f = v, ... }" (record
// literal) and "{ e | f = v, ... }" (record update); the distinction
// is whether a '|' follows the first expression.
func (p *parser) parseRecordExprOrUpdate() *Node {
	start := p.here()
	p.advance() // {
	if p.at(tokRBrace) {
		p.advance()
		return NewLeaf("record-literal", start, p.here(), "{}")
	}

	if p.at(tokLowerIdent) && p.toks[p.afterIdentPos()].kind == tokPipe {
		base := p.leaf("record-update-base", p.advance())
		p.advance() // |
		var children []*Node
		children = append(children, base)
		for !p.at(tokRBrace) && !p.at(tokEOF) {
			children = append(children, p.parseFieldAssignment())
			if p.at(tokComma) {
				p.advance()
			}
		}
		if p.at(tokRBrace) {
			p.advance()
		}
		return NewInterior("record-update", children)
	}

	var children []*Node
	for !p.at(tokRBrace) && !p.at(tokEOF) {
		children = append(children, p.parseFieldAssignment())
		if p.at(tokComma) {
			p.advance()
		}
	}
	if p.at(tokRBrace) {
		p.advance()
	}
	return NewInterior("record-literal", children)
}

func (p *parser) parseFieldAssignment() *Node {
	var children []*Node
	if p.at(tokLowerIdent) {
		children = append(children, p.leaf("field-name", p.advance()))
	}
	if p.at(tokEquals) {
		children = append(children, p.leaf("punct", p.advance()))
		children = append(children, p.parseExpr())
	}
	return NewInterior("field-assignment", children)
}
