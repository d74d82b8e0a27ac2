package driver

import (
	"bufio"
	"io"
	"regexp"
	"strings"
)

// TextLexer is the concrete Lexer (spec.md §6's "external" lexer
// interface, SPEC_FULL.md §4.L): it scans TOML source text and drives a
// Driver's Enter*/Exit* methods in grammar order. Its line-accumulation
// and quote/bracket-depth tracking are ported from the scanner helpers
// of the teacher's bufio.Scanner-based parser, generalized to emit
// driver events instead of building an AST.
type TextLexer struct {
	src io.Reader
}

// NewTextLexer wraps r as a Lexer.
func NewTextLexer(r io.Reader) *TextLexer {
	return &TextLexer{src: r}
}

// statement is one logical TOML production: a table header, a
// key/value pair, or a comment, joined from one or more physical lines
// when brackets or a triple-quoted string span several lines.
type statement struct {
	text      string
	startLine int
	comment   bool
}

// Run implements Lexer.
func (lx *TextLexer) Run(d *Driver) error {
	stmts, err := splitStatements(lx.src)
	if err != nil {
		return err
	}
	for _, st := range stmts {
		if d.Errored() {
			break
		}
		lx.runStatement(d, st)
	}
	d.ExitToml()
	return nil
}

func (lx *TextLexer) runStatement(d *Driver, st statement) {
	trimmed := strings.TrimSpace(st.text)
	if trimmed == "" {
		d.ExitNewline()
		return
	}
	if strings.HasPrefix(trimmed, "#") {
		text := strings.TrimSpace(strings.TrimPrefix(trimmed, "#"))
		d.ExitComment(Scalar{Normalized: text, Original: trimmed, Line: st.startLine})
		return
	}
	if strings.HasPrefix(trimmed, "[") {
		lx.lexHeader(d, trimmed, st.startLine)
		return
	}
	lx.lexKeyValue(d, trimmed, st.startLine)
}

// lexHeader handles both `[name]` and `[[name]]` productions, including
// a trailing inline comment.
func (lx *TextLexer) lexHeader(d *Driver, line string, lineNo int) {
	isArray := strings.HasPrefix(line, "[[")
	body := line
	var trailer string
	if isArray {
		end := strings.Index(body, "]]")
		if end < 0 {
			d.raiseSyntaxError(lineNo, "unterminated table-array header")
			return
		}
		trailer = body[end+2:]
		body = body[2:end]
	} else {
		end := indexUnquoted(body, ']')
		if end < 0 {
			d.raiseSyntaxError(lineNo, "unterminated table header")
			return
		}
		trailer = body[end+1:]
		body = body[1:end]
	}

	if isArray {
		d.EnterTableArray()
	} else {
		d.EnterSimpleTable()
	}
	for _, seg := range splitTopLevel(body, '.') {
		d.ExitSimpleKey(classifyKeySegment(strings.TrimSpace(seg), lineNo))
	}
	d.ExitKey()
	if isArray {
		d.ExitTableArray()
	} else {
		d.ExitSimpleTable()
	}

	if comment, ok := trailingComment(trailer); ok {
		d.ExitComment(Scalar{Normalized: comment, Original: strings.TrimSpace(trailer), Line: lineNo})
	}
	d.ExitOptCommentTable()
}

// lexKeyValue handles one `key = value` production, including a
// trailing inline comment.
func (lx *TextLexer) lexKeyValue(d *Driver, line string, lineNo int) {
	code, trailer := stripCommentPreserveStrings(line)
	eq := findUnquotedEqual(code)
	if eq < 0 {
		d.raiseSyntaxError(lineNo, "expected '=' in key/value pair")
		return
	}
	lhs := strings.TrimSpace(code[:eq])
	rhs := strings.TrimSpace(code[eq+1:])

	d.EnterKey()
	for _, seg := range splitTopLevel(lhs, '.') {
		d.ExitSimpleKey(classifyKeySegment(strings.TrimSpace(seg), lineNo))
	}
	d.ExitKey()

	lx.lexValue(d, rhs, lineNo)
	d.ExitKeyValue()

	if comment, ok := trailingComment(trailer); ok {
		d.ExitComment(Scalar{Normalized: comment, Original: strings.TrimSpace(trailer), Line: lineNo})
	}
	d.ExitOptCommentKeyPair()
}

// lexValue lexes one value production shared by key/value right-hand
// sides, array elements, and inline-table values, per SPEC_FULL.md
// §4.L's "recursive lexValue entry point".
func (lx *TextLexer) lexValue(d *Driver, text string, lineNo int) {
	text = strings.TrimSpace(text)
	switch {
	case text == "":
		d.raiseSyntaxError(lineNo, "expected a value")
	case strings.HasPrefix(text, "["):
		lx.lexArray(d, text, lineNo)
	case strings.HasPrefix(text, "{"):
		lx.lexInlineTable(d, text, lineNo)
	default:
		d.ExitValue(classifyScalar(text, lineNo))
	}
}

func (lx *TextLexer) lexArray(d *Driver, text string, lineNo int) {
	inner := strings.TrimSpace(strings.TrimSuffix(strings.TrimPrefix(text, "["), "]"))
	if inner == "" {
		d.EmptyArray()
		return
	}
	elems := splitTopLevel(inner, ',')
	d.EnterArray()
	for _, e := range elems {
		e = strings.TrimSpace(e)
		if e == "" {
			continue
		}
		d.EnterArrayElement()
		lx.lexValue(d, e, lineNo)
		d.ExitArrayElement()
	}
	d.ExitArray()
}

func (lx *TextLexer) lexInlineTable(d *Driver, text string, lineNo int) {
	inner := strings.TrimSpace(strings.TrimSuffix(strings.TrimPrefix(text, "{"), "}"))
	if inner == "" {
		d.EmptyInlineTable()
		return
	}
	d.EnterInlineTable()
	for _, pair := range splitTopLevel(inner, ',') {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		eq := findUnquotedEqual(pair)
		if eq < 0 {
			d.raiseSyntaxError(lineNo, "expected '=' in inline table pair")
			continue
		}
		lhs := strings.TrimSpace(pair[:eq])
		rhs := strings.TrimSpace(pair[eq+1:])
		d.EnterKey()
		for _, seg := range splitTopLevel(lhs, '.') {
			d.ExitSimpleKey(classifyKeySegment(strings.TrimSpace(seg), lineNo))
		}
		d.ExitKey()
		lx.lexValue(d, rhs, lineNo)
		d.ExitKeyValue()
	}
	d.ExitInlineTable()
}

// ===========================================================================
// Statement accumulation: joins physical lines whenever brackets or a
// triple-quoted string leave a statement unterminated.
// ===========================================================================

func splitStatements(r io.Reader) ([]statement, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var stmts []statement
	var pending strings.Builder
	pendingStart := 0
	depth := 0
	lineNo := 0

	flush := func() {
		if pending.Len() > 0 {
			stmts = append(stmts, statement{text: pending.String(), startLine: pendingStart})
			pending.Reset()
		}
	}

	for scanner.Scan() {
		lineNo++
		line := scanner.Text()
		if pending.Len() == 0 {
			trimmed := strings.TrimSpace(line)
			if trimmed == "" || strings.HasPrefix(trimmed, "#") {
				stmts = append(stmts, statement{text: line, startLine: lineNo})
				continue
			}
			pendingStart = lineNo
		} else {
			pending.WriteByte('\n')
		}
		pending.WriteString(line)
		depth += bracketDelta(line)
		if depth <= 0 && !unterminatedTripleQuote(pending.String()) {
			flush()
			depth = 0
		}
	}
	flush()
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return stmts, nil
}

// bracketDelta tracks net `[`/`{` depth outside of quotes, so a
// multi-line array or inline table is recognized as one statement.
func bracketDelta(line string) int {
	delta := 0
	inSingle, inDouble := false, false
	for i := 0; i < len(line); i++ {
		c := line[i]
		switch {
		case c == '\'' && !inDouble:
			inSingle = !inSingle
		case c == '"' && !inSingle:
			inDouble = !inDouble
		case !inSingle && !inDouble:
			switch c {
			case '[', '{':
				delta++
			case ']', '}':
				delta--
			case '#':
				return delta
			}
		}
	}
	return delta
}

var tripleQuoteRe = regexp.MustCompile(`"""|'''`)

func unterminatedTripleQuote(s string) bool {
	return len(tripleQuoteRe.FindAllStringIndex(s, -1))%2 == 1
}

// ===========================================================================
// Quote/bracket-aware string splitting, ported from the teacher's
// scanner helpers.
// ===========================================================================

// splitTopLevel splits s on sep, ignoring occurrences inside quotes or
// nested brackets/braces.
func splitTopLevel(s string, sep byte) []string {
	var out []string
	var cur strings.Builder
	depth := 0
	inSingle, inDouble := false, false
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c == '\'' && !inDouble:
			inSingle = !inSingle
		case c == '"' && !inSingle:
			inDouble = !inDouble
		case !inSingle && !inDouble:
			switch c {
			case '[', '{':
				depth++
			case ']', '}':
				depth--
			}
		}
		if c == sep && depth == 0 && !inSingle && !inDouble {
			out = append(out, cur.String())
			cur.Reset()
			continue
		}
		cur.WriteByte(c)
	}
	if cur.Len() > 0 || len(out) > 0 {
		out = append(out, cur.String())
	}
	return out
}

// findUnquotedEqual returns the index of the first '=' outside any
// quoted string, or -1.
func findUnquotedEqual(s string) int {
	inSingle, inDouble := false, false
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c == '\'' && !inDouble:
			inSingle = !inSingle
		case c == '"' && !inSingle:
			inDouble = !inDouble
		case c == '=' && !inSingle && !inDouble:
			return i
		}
	}
	return -1
}

// indexUnquoted returns the index of the first occurrence of target
// outside any quoted string, or -1.
func indexUnquoted(s string, target byte) int {
	inSingle, inDouble := false, false
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c == '\'' && !inDouble:
			inSingle = !inSingle
		case c == '"' && !inSingle:
			inDouble = !inDouble
		case c == target && !inSingle && !inDouble:
			return i
		}
	}
	return -1
}

// stripCommentPreserveStrings splits line into its code and trailing
// comment, treating '#' inside quotes as ordinary content.
func stripCommentPreserveStrings(line string) (code, comment string) {
	inSingle, inDouble := false, false
	for i := 0; i < len(line); i++ {
		c := line[i]
		switch {
		case c == '\'' && !inDouble:
			inSingle = !inSingle
		case c == '"' && !inSingle:
			inDouble = !inDouble
		case c == '#' && !inSingle && !inDouble:
			return line[:i], line[i:]
		}
	}
	return line, ""
}

// trailingComment parses a raw "# text" trailer (as returned by
// stripCommentPreserveStrings) into its decoded text, reporting false
// if there was no comment.
func trailingComment(trailer string) (string, bool) {
	trailer = strings.TrimSpace(trailer)
	if trailer == "" {
		return "", false
	}
	return strings.TrimSpace(strings.TrimPrefix(trailer, "#")), true
}

// ===========================================================================
// Scalar classification
// ===========================================================================

var (
	intBinRe       = regexp.MustCompile(`^[+-]?0b[01_]+$`)
	intOctRe       = regexp.MustCompile(`^[+-]?0o[0-7_]+$`)
	intHexRe       = regexp.MustCompile(`^[+-]?0x[0-9A-Fa-f_]+$`)
	intDecRe       = regexp.MustCompile(`^[+-]?(0|[1-9](_?[0-9])*)$`)
	floatRe        = regexp.MustCompile(`^[+-]?(0|[1-9](_?[0-9])*)(\.[0-9](_?[0-9])*)?([eE][+-]?[0-9](_?[0-9])*)?$`)
	dateOnlyRe     = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
	timeOnlyRe     = regexp.MustCompile(`^\d{2}:\d{2}:\d{2}(\.\d+)?$`)
	datetimeFullRe = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}[Tt ]\d{2}:\d{2}:\d{2}(\.\d+)?([Zz]|[+-]\d{2}:\d{2})?$`)
)

// classifyKeySegment classifies one dotted-key segment: a quoted
// segment keeps its string kind; a bare segment is handed through as
// KindStringBare so ExitSimpleKey can validate its charset (or split it
// as a float-shaped bare key, per spec.md's key/value overlap).
func classifyKeySegment(tok string, lineNo int) Scalar {
	if len(tok) >= 2 && strings.HasPrefix(tok, `"`) && strings.HasSuffix(tok, `"`) {
		inner := tok[1 : len(tok)-1]
		return Scalar{Kind: KindStringBasic, Normalized: inner, Original: inner, Line: lineNo}
	}
	if len(tok) >= 2 && strings.HasPrefix(tok, "'") && strings.HasSuffix(tok, "'") {
		inner := tok[1 : len(tok)-1]
		return Scalar{Kind: KindStringLiteral, Normalized: inner, Original: inner, Line: lineNo}
	}
	if floatRe.MatchString(tok) && strings.Contains(tok, ".") {
		return Scalar{Kind: KindFloatNum, Normalized: tok, Original: tok, Line: lineNo}
	}
	return Scalar{Kind: KindStringBare, Normalized: tok, Original: tok, Line: lineNo}
}

// classifyScalar classifies one value-position token into its Scalar
// kind, per the literal forms enumerated in spec.md §3.
func classifyScalar(tok string, lineNo int) Scalar {
	switch {
	case strings.HasPrefix(tok, `"""`) && strings.HasSuffix(tok, `"""`) && len(tok) >= 6:
		inner := tok[3 : len(tok)-3]
		return Scalar{Kind: KindStringMLBasic, Normalized: inner, Original: inner, Line: lineNo}
	case strings.HasPrefix(tok, "'''") && strings.HasSuffix(tok, "'''") && len(tok) >= 6:
		inner := tok[3 : len(tok)-3]
		return Scalar{Kind: KindStringMLLiteral, Normalized: inner, Original: inner, Line: lineNo}
	case len(tok) >= 2 && strings.HasPrefix(tok, `"`) && strings.HasSuffix(tok, `"`):
		inner := tok[1 : len(tok)-1]
		return Scalar{Kind: KindStringBasic, Normalized: inner, Original: inner, Line: lineNo}
	case len(tok) >= 2 && strings.HasPrefix(tok, "'") && strings.HasSuffix(tok, "'"):
		inner := tok[1 : len(tok)-1]
		return Scalar{Kind: KindStringLiteral, Normalized: inner, Original: inner, Line: lineNo}
	case tok == "true" || tok == "false":
		return Scalar{Kind: KindBoolean, Normalized: tok, Original: tok, Line: lineNo}
	case tok == "inf":
		return Scalar{Kind: KindFloatInf, Normalized: tok, Original: tok, Line: lineNo}
	case tok == "+inf":
		return Scalar{Kind: KindFloatPosInf, Normalized: tok, Original: tok, Line: lineNo}
	case tok == "-inf":
		return Scalar{Kind: KindFloatNegInf, Normalized: tok, Original: tok, Line: lineNo}
	case tok == "nan":
		return Scalar{Kind: KindFloatNaN, Normalized: tok, Original: tok, Line: lineNo}
	case tok == "+nan":
		return Scalar{Kind: KindFloatPosNaN, Normalized: tok, Original: tok, Line: lineNo}
	case tok == "-nan":
		return Scalar{Kind: KindFloatNegNaN, Normalized: tok, Original: tok, Line: lineNo}
	case intBinRe.MatchString(tok):
		return Scalar{Kind: KindIntBin, Normalized: tok, Original: tok, Line: lineNo}
	case intOctRe.MatchString(tok):
		return Scalar{Kind: KindIntOct, Normalized: tok, Original: tok, Line: lineNo}
	case intHexRe.MatchString(tok):
		return Scalar{Kind: KindIntHex, Normalized: tok, Original: tok, Line: lineNo}
	case datetimeFullRe.MatchString(tok):
		if strings.HasSuffix(tok, "Z") || strings.HasSuffix(tok, "z") || offsetSuffixRe.MatchString(tok) {
			return Scalar{Kind: KindDateOffsetDatetime, Normalized: tok, Original: tok, Line: lineNo}
		}
		return Scalar{Kind: KindDateLocalDatetime, Normalized: tok, Original: tok, Line: lineNo}
	case dateOnlyRe.MatchString(tok):
		return Scalar{Kind: KindDateLocalDate, Normalized: tok, Original: tok, Line: lineNo}
	case timeOnlyRe.MatchString(tok):
		return Scalar{Kind: KindDateLocalTime, Normalized: tok, Original: tok, Line: lineNo}
	case floatRe.MatchString(tok) && (strings.Contains(tok, ".") || strings.ContainsAny(tok, "eE")):
		return Scalar{Kind: KindFloatNum, Normalized: tok, Original: tok, Line: lineNo}
	case intDecRe.MatchString(tok):
		return Scalar{Kind: KindIntDec, Normalized: tok, Original: tok, Line: lineNo}
	default:
		return Scalar{Kind: KindStringBare, Normalized: tok, Original: tok, Line: lineNo}
	}
}

var offsetSuffixRe = regexp.MustCompile(`[+-]\d{2}:\d{2}$`)
